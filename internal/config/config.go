package config

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"quiz-autopilot/internal/cipher"
	"quiz-autopilot/internal/protocol"
)

const (
	DebugMode      = "debug"
	ProductionMode = "production"

	// EnvPrefix prefixes every environment override, e.g. QUIZ_AUTOPILOT_SESSION.
	EnvPrefix = "quiz_autopilot"

	DefaultDelay       = 5 * time.Second
	DefaultBankDir     = "questions"
	DefaultHistoryPath = "autopilot.db"
	DefaultHTTPTimeout = 30 * time.Second
)

type Config struct {
	// The app is in production or debug mode
	Mode    string `yaml:"mode" envconfig:"MODE"`
	BaseURL string `yaml:"base_url" envconfig:"BASE_URL"`
	Session string `yaml:"session" envconfig:"SESSION"`
	// Key is the base64 AES key of the quiz service.
	Key         string        `yaml:"key" envconfig:"KEY"`
	HTTPTimeout time.Duration `yaml:"http_timeout" envconfig:"HTTP_TIMEOUT"`

	// BankFile wins over BankDir/<course>.csv when set.
	BankDir  string `yaml:"bank_dir" envconfig:"BANK_DIR"`
	BankFile string `yaml:"bank_file" envconfig:"BANK_FILE"`

	CourseID    int           `yaml:"course_id" envconfig:"COURSE_ID"`
	TargetCount int           `yaml:"target_count" envconfig:"TARGET_COUNT"`
	Delay       time.Duration `yaml:"delay" envconfig:"DELAY"`
	Baseline    int           `yaml:"baseline" envconfig:"BASELINE"`
	SkipMarkers []string      `yaml:"skip_markers" envconfig:"SKIP_MARKERS"`

	// HistoryPath is the SQLite journal; "-" disables journaling.
	HistoryPath string `yaml:"history_path" envconfig:"HISTORY_PATH"`
}

// Default returns the configuration used when neither a file nor the
// environment set a value.
func Default() Config {
	return Config{
		Mode:        ProductionMode,
		BaseURL:     protocol.DefaultBaseURL,
		Key:         cipher.DefaultKey,
		HTTPTimeout: DefaultHTTPTimeout,
		BankDir:     DefaultBankDir,
		Delay:       DefaultDelay,
		HistoryPath: DefaultHistoryPath,
	}
}

func (cfg *Config) GetLogger() *logrus.Logger {
	logLvl := logrus.InfoLevel
	if cfg.IsDebugMode() {
		logLvl = logrus.DebugLevel
	}
	var l = &logrus.Logger{
		Out:       os.Stderr,
		Formatter: new(logrus.TextFormatter),
		Hooks:     make(logrus.LevelHooks),
		Level:     logLvl,
	}
	return l
}

func (cfg *Config) IsDebugMode() bool {
	return cfg.Mode == DebugMode
}

func (cfg *Config) IsProductionMode() bool {
	return cfg.Mode == ProductionMode
}

func (cfg *Config) HistoryEnabled() bool {
	return cfg.HistoryPath != "-"
}
