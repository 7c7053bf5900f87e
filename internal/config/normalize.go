package config

import (
	"strings"

	"github.com/pkg/errors"

	"quiz-autopilot/internal/bank"
	"quiz-autopilot/internal/cipher"
)

// Normalize trims string settings and fills zero values back in from
// Default.
func Normalize(cfg *Config) {
	defaults := Default()

	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
	if cfg.Mode == "" {
		cfg.Mode = defaults.Mode
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	cfg.Session = strings.TrimSpace(cfg.Session)
	cfg.Key = strings.TrimSpace(cfg.Key)
	if cfg.Key == "" {
		cfg.Key = defaults.Key
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = defaults.HTTPTimeout
	}
	cfg.BankDir = strings.TrimSpace(cfg.BankDir)
	if cfg.BankDir == "" {
		cfg.BankDir = defaults.BankDir
	}
	cfg.BankFile = strings.TrimSpace(cfg.BankFile)
	cfg.HistoryPath = strings.TrimSpace(cfg.HistoryPath)
	if cfg.HistoryPath == "" {
		cfg.HistoryPath = defaults.HistoryPath
	}

	markers := make([]string, 0, len(cfg.SkipMarkers))
	for _, marker := range cfg.SkipMarkers {
		if marker = strings.TrimSpace(marker); marker != "" {
			markers = append(markers, marker)
		}
	}
	if len(markers) == 0 {
		markers = nil
	}
	cfg.SkipMarkers = markers
}

func Validate(cfg *Config) error {
	if !cfg.IsDebugMode() && !cfg.IsProductionMode() {
		return errors.Errorf("invalid mode %q, it must be either `%s` or `%s`", cfg.Mode, DebugMode, ProductionMode)
	}
	if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return errors.Errorf("invalid base_url %q", cfg.BaseURL)
	}
	if _, err := cipher.NewCodec(cfg.Key); err != nil {
		return errors.Wrap(err, "invalid key")
	}
	if cfg.HTTPTimeout < 0 {
		return errors.New("http_timeout must not be negative")
	}
	if cfg.CourseID < 0 {
		return errors.New("course_id must not be negative")
	}
	if cfg.TargetCount < 0 {
		return errors.New("target_count must not be negative")
	}
	if cfg.Delay < 0 {
		return errors.New("delay must not be negative")
	}
	if cfg.Baseline < 0 {
		return errors.New("baseline must not be negative")
	}
	return nil
}

// BankPath returns the bank file for the configured course.
func (cfg *Config) BankPath() string {
	if cfg.BankFile != "" {
		return cfg.BankFile
	}
	return bank.PathForCourse(cfg.BankDir, cfg.CourseID)
}
