package autopilot

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"quiz-autopilot/internal/bank"
	"quiz-autopilot/internal/protocol"
)

var ErrAlreadyRunning = errors.New("autopilot is already running")

// QuestionSource is the fetch/submit capability of the quiz service.
// *protocol.Client implements it.
type QuestionSource interface {
	FetchNextQuestion(ctx context.Context, courseID int) (*protocol.RemoteQuestion, error)
	SubmitAnswer(ctx context.Context, uuid, answer string, courseID int) (*protocol.AnswerResult, error)
}

// AnswerBank resolves a question description to a known answer.
// *bank.Bank implements it.
type AnswerBank interface {
	Lookup(description string) (bank.Question, bool)
}

type Config struct {
	CourseID int
	// TargetCount is the number of confirmed submissions after which the
	// run stops; zero means unbounded.
	TargetCount int
	Delay       time.Duration
	// SkipMarkers defaults to DefaultSkipMarkers when nil.
	SkipMarkers []string
	Baseline    int
}

type Option func(*Orchestrator)

func WithObserver(observer Observer) Option {
	return func(o *Orchestrator) {
		o.observer = observer
	}
}

// Orchestrator drives the fetch, match, submit and delay loop for one course
// session. One Run executes as a single sequential worker.
type Orchestrator struct {
	cfg      Config
	source   QuestionSource
	answers  AnswerBank
	observer Observer
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time

	state    atomic.Int32
	answered atomic.Int64
	correct  atomic.Int64
	cancel   atomic.Pointer[context.CancelFunc]
}

func New(cfg Config, source QuestionSource, answers AnswerBank, opts ...Option) *Orchestrator {
	if cfg.SkipMarkers == nil {
		cfg.SkipMarkers = DefaultSkipMarkers
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	if cfg.TargetCount < 0 {
		cfg.TargetCount = 0
	}

	o := &Orchestrator{
		cfg:     cfg,
		source:  source,
		answers: answers,
		sleep:   sleepContext,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

func (o *Orchestrator) Progress() Progress {
	answered := int(o.answered.Load())
	return Progress{
		Answered: answered,
		Correct:  int(o.correct.Load()),
		Total:    o.cfg.Baseline + answered,
	}
}

// Stop cancels the current Running phase. The loop notices at the next
// boundary: a pending wait, a returning network call or the top of an
// iteration.
func (o *Orchestrator) Stop() {
	if cancel := o.cancel.Load(); cancel != nil {
		(*cancel)()
	}
}

// Run starts a Running phase with counters reset and blocks until it ends.
// It returns nil when the target is reached or the run is cancelled, and the
// underlying error when a hard failure stops it. Soft failures never end a run.
func (o *Orchestrator) Run(ctx context.Context) (err error) {
	if !o.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) &&
		!o.state.CompareAndSwap(int32(StateStopped), int32(StateRunning)) {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	o.cancel.Store(&cancel)
	o.answered.Store(0)
	o.correct.Store(0)

	reason := StopCancelled
	defer func() {
		o.cancel.Store(nil)
		cancel()
		o.state.Store(int32(StateStopped))
		o.emit(Event{Kind: EventStopped, Reason: reason, Err: err})
	}()

	o.emit(Event{Kind: EventStarted})
	reason, err = o.loop(ctx)
	return err
}

func (o *Orchestrator) loop(ctx context.Context) (StopReason, error) {
	delay := o.cfg.Delay
	courseID := o.cfg.CourseID

	for {
		if ctx.Err() != nil {
			return StopCancelled, nil
		}
		if o.cfg.TargetCount > 0 && o.answered.Load() >= int64(o.cfg.TargetCount) {
			return StopTargetReached, nil
		}

		o.emit(Event{Kind: EventFetching})
		question, err := o.source.FetchNextQuestion(ctx, courseID)
		if ctx.Err() != nil {
			return StopCancelled, nil
		}
		if protocol.IsHard(err) {
			return StopFailed, err
		}
		if err != nil || question == nil {
			o.emit(Event{Kind: EventFetchFailed, Err: err})
			o.wait(ctx, delay)
			continue
		}

		if marker, flagged := matchMarker(question.Description, o.cfg.SkipMarkers); flagged {
			o.emit(Event{Kind: EventSkipped, Question: question, Marker: marker})
			o.wait(ctx, delay)
			continue
		}

		known, found := o.answers.Lookup(question.Description)
		if !found {
			o.emit(Event{Kind: EventNoAnswer, Question: question})
			o.wait(ctx, delay)
			continue
		}
		o.emit(Event{Kind: EventAnswerFound, Question: question, Answer: known.Answer})

		result, err := o.source.SubmitAnswer(ctx, question.UUID, known.Answer, courseID)
		if err == nil && result != nil {
			// The service confirmed this submission, so it counts even if
			// cancellation arrived while the request was in flight.
			o.answered.Add(1)
			if result.IsCorrect {
				o.correct.Add(1)
			}
			o.emit(Event{Kind: EventAnswered, Question: question, Answer: known.Answer, Result: result})
			if ctx.Err() != nil {
				return StopCancelled, nil
			}
			o.wait(ctx, delay)
			continue
		}
		if ctx.Err() != nil {
			return StopCancelled, nil
		}
		if protocol.IsHard(err) {
			return StopFailed, err
		}

		o.emit(Event{Kind: EventSubmitFailed, Question: question, Answer: known.Answer, Err: err})
		o.wait(ctx, delay/2)
	}
}

func (o *Orchestrator) wait(ctx context.Context, d time.Duration) {
	_ = o.sleep(ctx, d)
}

func (o *Orchestrator) emit(event Event) {
	if o.observer == nil {
		return
	}
	event.Time = o.now()
	event.CourseID = o.cfg.CourseID
	event.Progress = o.Progress()
	o.observer.OnEvent(event)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
