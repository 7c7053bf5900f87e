package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"quiz-autopilot/internal/autopilot"
)

const writeTimeout = 5 * time.Second

// Recorder journals autopilot events into a Store. Write failures are
// logged and never interrupt the run being observed.
type Recorder struct {
	store  Store
	target int
	log    logrus.FieldLogger
	newID  func() string

	mu  sync.Mutex
	run *Run
}

func NewRecorder(store Store, target int, log logrus.FieldLogger) *Recorder {
	return &Recorder{
		store:  store,
		target: target,
		log:    log,
		newID:  uuid.NewString,
	}
}

// RunID returns the identifier of the current or most recent run.
func (r *Recorder) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.run == nil {
		return ""
	}
	return r.run.ID
}

func (r *Recorder) OnEvent(event autopilot.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event.Kind {
	case autopilot.EventStarted:
		r.run = &Run{
			ID:        r.newID(),
			CourseID:  event.CourseID,
			Target:    r.target,
			StartedAt: event.Time.UTC(),
		}
		r.write("begin run", func(ctx context.Context) error {
			return r.store.BeginRun(ctx, *r.run)
		})
	case autopilot.EventAnswered:
		if r.run == nil || event.Question == nil || event.Result == nil {
			return
		}
		submission := Submission{
			RunID:       r.run.ID,
			UUID:        event.Question.UUID,
			Description: event.Question.Description,
			Answer:      event.Answer,
			Correct:     event.Result.IsCorrect,
			Message:     event.Result.Message,
			SubmittedAt: event.Time.UTC(),
		}
		r.write("record submission", func(ctx context.Context) error {
			return r.store.RecordSubmission(ctx, submission)
		})
	case autopilot.EventStopped:
		if r.run == nil {
			return
		}
		r.run.EndedAt = event.Time.UTC()
		r.run.Answered = event.Progress.Answered
		r.run.Correct = event.Progress.Correct
		r.run.Reason = event.Reason.String()
		r.write("finish run", func(ctx context.Context) error {
			return r.store.FinishRun(ctx, *r.run)
		})
	}
}

func (r *Recorder) write(action string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		r.log.WithError(err).WithField("run", r.run.ID).Warnf("history: %s failed", action)
	}
}
