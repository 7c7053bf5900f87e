package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"quiz-autopilot/internal/autopilot"
	"quiz-autopilot/internal/bank"
	"quiz-autopilot/internal/cipher"
	"quiz-autopilot/internal/config"
	"quiz-autopilot/internal/history"
	historysqlite "quiz-autopilot/internal/history/sqlite"
	"quiz-autopilot/internal/protocol"
)

// Env carries what every command needs.
type Env struct {
	Config config.Config
	Log    logrus.FieldLogger
	Out    io.Writer
	// HTTPClient overrides the client built from Config.HTTPTimeout.
	HTTPClient *http.Client
	NoColor    bool
}

func (env Env) client() (*protocol.Client, error) {
	codec, err := cipher.NewCodec(env.Config.Key)
	if err != nil {
		return nil, errors.Wrap(err, "build codec")
	}
	httpClient := env.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: env.Config.HTTPTimeout}
	}
	return protocol.NewClient(protocol.Config{
		BaseURL:    env.Config.BaseURL,
		Session:    env.Config.Session,
		HTTPClient: httpClient,
	}, codec), nil
}

func (env Env) openHistory() (*historysqlite.SQLiteStore, error) {
	store, err := historysqlite.NewSQLiteStore(env.Config.HistoryPath)
	if err != nil {
		return nil, errors.Wrapf(err, "open history %s", env.Config.HistoryPath)
	}
	return store, nil
}

// RunAutopilot answers questions for the configured course until the target
// is reached, ctx is cancelled or a hard failure occurs.
func RunAutopilot(ctx context.Context, env Env) error {
	cfg := env.Config
	if cfg.Session == "" {
		return errors.New("a session token is required")
	}
	if cfg.CourseID <= 0 {
		return errors.New("a course id is required")
	}

	log := env.Log.WithField("course", cfg.CourseID)
	answers := bank.Load(cfg.BankPath(), log)
	if answers.IsEmpty() {
		return errors.Errorf("question bank %s has no usable questions", cfg.BankPath())
	}

	client, err := env.client()
	if err != nil {
		return err
	}

	observers := autopilot.Observers{
		autopilot.LogObserver(log),
		newProgressPrinter(env.Out, cfg.TargetCount, env.NoColor),
	}
	if cfg.HistoryEnabled() {
		store, err := env.openHistory()
		if err != nil {
			return err
		}
		defer store.Close()
		observers = append(observers, history.NewRecorder(store, cfg.TargetCount, log))
	}

	orch := autopilot.New(autopilot.Config{
		CourseID:    cfg.CourseID,
		TargetCount: cfg.TargetCount,
		Delay:       cfg.Delay,
		SkipMarkers: cfg.SkipMarkers,
		Baseline:    cfg.Baseline,
	}, client, answers, autopilot.WithObserver(observers))

	if err := orch.Run(ctx); err != nil {
		return errors.Wrap(err, "autopilot stopped")
	}

	progress := orch.Progress()
	fmt.Fprintf(env.Out, "\nAnswered %d question(s), %d correct, %d in total\n", progress.Answered, progress.Correct, progress.Total)
	return nil
}
