package history

import (
	"context"
	"errors"
	"time"
)

var ErrRunNotFound = errors.New("run not found")

// Run is one Running phase of the autopilot. EndedAt is zero while the run
// is still in progress.
type Run struct {
	ID        string
	CourseID  int
	Target    int
	StartedAt time.Time
	EndedAt   time.Time
	Answered  int
	Correct   int
	Reason    string
}

func (r Run) Finished() bool {
	return !r.EndedAt.IsZero()
}

// Submission is one answer the service confirmed during a run.
type Submission struct {
	RunID       string
	UUID        string
	Description string
	Answer      string
	Correct     bool
	Message     string
	SubmittedAt time.Time
}

type Store interface {
	BeginRun(ctx context.Context, run Run) error
	RecordSubmission(ctx context.Context, submission Submission) error
	FinishRun(ctx context.Context, run Run) error
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	GetRunSubmissions(ctx context.Context, runID string) ([]Submission, error)
}
