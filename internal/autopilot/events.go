package autopilot

import (
	"time"

	"github.com/sirupsen/logrus"

	"quiz-autopilot/internal/protocol"
)

type EventKind int

const (
	EventStarted EventKind = iota
	EventFetching
	EventFetchFailed
	EventSkipped
	EventNoAnswer
	EventAnswerFound
	EventSubmitFailed
	EventAnswered
	EventStopped
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventFetching:
		return "fetching"
	case EventFetchFailed:
		return "fetch_failed"
	case EventSkipped:
		return "skipped"
	case EventNoAnswer:
		return "no_answer"
	case EventAnswerFound:
		return "answer_found"
	case EventSubmitFailed:
		return "submit_failed"
	case EventAnswered:
		return "answered"
	case EventStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Event is emitted synchronously from the answering loop. Observers must not
// block for long; the loop waits for them.
type Event struct {
	Kind     EventKind
	Time     time.Time
	CourseID int
	Question *protocol.RemoteQuestion
	Answer   string
	Result   *protocol.AnswerResult
	Marker   string
	Reason   StopReason
	Err      error
	Progress Progress
}

type Observer interface {
	OnEvent(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(event Event) {
	f(event)
}

// Observers fans an event out to every non-nil observer in order.
type Observers []Observer

func (o Observers) OnEvent(event Event) {
	for _, observer := range o {
		if observer != nil {
			observer.OnEvent(event)
		}
	}
}

// LogObserver writes every event to log.
func LogObserver(log logrus.FieldLogger) Observer {
	return ObserverFunc(func(event Event) {
		entry := log.WithFields(logrus.Fields{
			"course":   event.CourseID,
			"answered": event.Progress.Answered,
		})
		if event.Question != nil {
			entry = entry.WithField("question", event.Question.Description)
		}
		if event.Err != nil {
			entry = entry.WithError(event.Err)
		}

		switch event.Kind {
		case EventStarted:
			entry.Info("autopilot started")
		case EventFetching:
			entry.Debug("fetching question")
		case EventFetchFailed:
			if event.Err != nil && !protocol.IsSoft(event.Err) {
				entry.Error("unexpected error fetching question, retrying")
				return
			}
			entry.Warn("failed to fetch question, retrying")
		case EventSkipped:
			entry.WithField("marker", event.Marker).Info("skipping anti-automation question")
		case EventNoAnswer:
			entry.Warn("no answer in bank")
		case EventAnswerFound:
			entry.WithField("answer", event.Answer).Debug("answer found")
		case EventSubmitFailed:
			entry = entry.WithField("answer", event.Answer)
			if event.Err != nil && !protocol.IsSoft(event.Err) {
				entry.Error("unexpected error submitting answer")
				return
			}
			entry.Warn("failed to submit answer")
		case EventAnswered:
			entry = entry.WithField("answer", event.Answer)
			if event.Result != nil {
				entry = entry.WithField("message", event.Result.Message)
			}
			if event.Result != nil && event.Result.IsCorrect {
				entry.Info("answered correctly")
			} else {
				entry.Info("answered incorrectly")
			}
		case EventStopped:
			entry = entry.WithField("reason", event.Reason.String())
			if event.Reason == StopFailed {
				entry.Error("autopilot stopped")
			} else {
				entry.Info("autopilot stopped")
			}
		}
	})
}
