package autopilot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"quiz-autopilot/internal/bank"
	"quiz-autopilot/internal/cipher"
	"quiz-autopilot/internal/protocol"
)

type scriptedStep struct {
	question  *protocol.RemoteQuestion
	fetchErr  error
	result    *protocol.AnswerResult
	submitErr error
}

// scriptedSource replays steps in order and cancels the run once they are
// exhausted.
type scriptedSource struct {
	mu          sync.Mutex
	steps       []scriptedStep
	current     scriptedStep
	fetchCalls  int
	submitCalls int
	submitted   []string
	cancel      context.CancelFunc
	onSubmit    func()
}

func (s *scriptedSource) FetchNextQuestion(_ context.Context, _ int) (*protocol.RemoteQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetchCalls++
	if len(s.steps) == 0 {
		if s.cancel != nil {
			s.cancel()
		}
		return nil, protocol.ErrServiceUnavailable
	}
	s.current = s.steps[0]
	s.steps = s.steps[1:]
	return s.current.question, s.current.fetchErr
}

func (s *scriptedSource) SubmitAnswer(_ context.Context, uuid, answer string, _ int) (*protocol.AnswerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.submitCalls++
	s.submitted = append(s.submitted, uuid+"="+answer)
	if s.onSubmit != nil {
		s.onSubmit()
	}
	if s.current.result == nil && s.current.submitErr == nil {
		return &protocol.AnswerResult{IsCorrect: true, Message: protocol.CorrectMessage}, nil
	}
	return s.current.result, s.current.submitErr
}

type fakeBank struct {
	answers map[string]string
	lookups int
}

func (f *fakeBank) Lookup(description string) (bank.Question, bool) {
	f.lookups++
	answer, ok := f.answers[description]
	if !ok {
		return bank.Question{}, false
	}
	return bank.Question{Description: description, Answer: answer, Kind: bank.KindSingleChoice}, true
}

type recordingObserver struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingObserver) OnEvent(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingObserver) count(kind EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, event := range r.events {
		if event.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recordingObserver) last() Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func remote(description string) *protocol.RemoteQuestion {
	return &protocol.RemoteQuestion{Description: description, Kind: bank.SubTypeSingleChoice, UUID: "uuid-" + description, Options: []string{"2", "3"}}
}

// newScriptedOrchestrator wires a scripted source whose exhaustion cancels
// the run, and records every wait instead of sleeping.
func newScriptedOrchestrator(cfg Config, source *scriptedSource, answers AnswerBank) (*Orchestrator, *recordingObserver, *[]time.Duration, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	source.cancel = cancel

	observer := &recordingObserver{}
	o := New(cfg, source, answers, WithObserver(observer))
	waits := make([]time.Duration, 0)
	o.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return o, observer, &waits, ctx
}

func TestRunCountsOnlyConfirmedSubmissions(t *testing.T) {
	source := &scriptedSource{steps: []scriptedStep{
		{question: nil},
		{question: remote("刷题检测：1+1=?")},
		{question: remote("unknown question")},
		{question: remote("1+1=?")},
	}}
	answers := &fakeBank{answers: map[string]string{"1+1=?": "2", "刷题检测：1+1=?": "2"}}
	o, observer, waits, ctx := newScriptedOrchestrator(Config{CourseID: 101, Delay: time.Second}, source, answers)

	if err := o.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if got := o.Progress().Answered; got != 1 {
		t.Fatalf("answered = %d, want 1", got)
	}
	if source.submitCalls != 1 {
		t.Fatalf("submit calls = %d, want 1", source.submitCalls)
	}
	if source.submitted[0] != "uuid-1+1=?=2" {
		t.Fatalf("unexpected submission %q", source.submitted[0])
	}
	if answers.lookups != 2 {
		t.Fatalf("bank lookups = %d, want 2 (flagged question must not be looked up)", answers.lookups)
	}
	if source.fetchCalls != 5 {
		t.Fatalf("fetch calls = %d, want 5", source.fetchCalls)
	}

	wantWaits := []time.Duration{time.Second, time.Second, time.Second, time.Second}
	if len(*waits) != len(wantWaits) {
		t.Fatalf("waits = %v, want %v", *waits, wantWaits)
	}
	for idx := range wantWaits {
		if (*waits)[idx] != wantWaits[idx] {
			t.Fatalf("waits = %v, want %v", *waits, wantWaits)
		}
	}

	for kind, want := range map[EventKind]int{
		EventStarted:     1,
		EventFetchFailed: 1,
		EventSkipped:     1,
		EventNoAnswer:    1,
		EventAnswered:    1,
		EventStopped:     1,
	} {
		if got := observer.count(kind); got != want {
			t.Fatalf("%s events = %d, want %d", kind, got, want)
		}
	}
	if o.State() != StateStopped {
		t.Fatalf("state = %s, want stopped", o.State())
	}
	if last := observer.last(); last.Kind != EventStopped || last.Reason != StopCancelled {
		t.Fatalf("unexpected final event: %+v", last)
	}
}

func TestRunSkipsFlaggedQuestionBeforeLookupAndSubmit(t *testing.T) {
	source := &scriptedSource{steps: []scriptedStep{
		{question: remote("本题为防刷题")},
		{question: remote("custom bait")},
	}}
	answers := &fakeBank{answers: map[string]string{"本题为防刷题": "A", "custom bait": "B"}}
	o, observer, _, ctx := newScriptedOrchestrator(Config{SkipMarkers: []string{"防刷", "bait"}}, source, answers)

	if err := o.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if answers.lookups != 0 || source.submitCalls != 0 {
		t.Fatalf("flagged questions reached lookup=%d submit=%d", answers.lookups, source.submitCalls)
	}
	if observer.count(EventSkipped) != 2 {
		t.Fatalf("expected 2 skipped events, got %d", observer.count(EventSkipped))
	}
}

func TestRunSubmitFailureWaitsHalfDelayAndAbandonsQuestion(t *testing.T) {
	source := &scriptedSource{steps: []scriptedStep{
		{question: remote("1+1=?"), submitErr: protocol.ErrServiceUnavailable},
		{question: remote("1+1=?"), submitErr: &protocol.APIError{StatusCode: 500}},
	}}
	answers := &fakeBank{answers: map[string]string{"1+1=?": "2"}}
	o, observer, waits, ctx := newScriptedOrchestrator(Config{Delay: 4 * time.Second}, source, answers)

	if err := o.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if o.Progress().Answered != 0 {
		t.Fatalf("failed submissions must not be counted")
	}
	if source.submitCalls != 2 || source.fetchCalls != 3 {
		t.Fatalf("submit=%d fetch=%d, want 2 and 3", source.submitCalls, source.fetchCalls)
	}
	if len(*waits) != 2 || (*waits)[0] != 2*time.Second || (*waits)[1] != 2*time.Second {
		t.Fatalf("waits = %v, want two half delays", *waits)
	}
	if observer.count(EventSubmitFailed) != 2 {
		t.Fatalf("expected 2 submit_failed events")
	}
}

func TestRunStopsAtTarget(t *testing.T) {
	steps := make([]scriptedStep, 0, 5)
	for i := 0; i < 5; i++ {
		steps = append(steps, scriptedStep{
			question: remote("1+1=?"),
			result:   &protocol.AnswerResult{IsCorrect: i%2 == 0, Message: "msg"},
		})
	}
	source := &scriptedSource{steps: steps}
	answers := &fakeBank{answers: map[string]string{"1+1=?": "2"}}
	o, observer, _, ctx := newScriptedOrchestrator(Config{TargetCount: 3, Baseline: 10}, source, answers)

	if err := o.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	progress := o.Progress()
	if progress.Answered != 3 || progress.Correct != 2 || progress.Total != 13 {
		t.Fatalf("unexpected progress %+v", progress)
	}
	if source.fetchCalls != 3 {
		t.Fatalf("fetch calls = %d, want 3", source.fetchCalls)
	}
	if last := observer.last(); last.Reason != StopTargetReached {
		t.Fatalf("reason = %s, want target_reached", last.Reason)
	}
	if observer.count(EventStopped) != 1 {
		t.Fatalf("expected exactly one stopped event")
	}
}

func TestRunHardFailureStopsWithError(t *testing.T) {
	hard := fmt.Errorf("decrypt description: %w", &cipher.DecryptionError{Reason: "invalid padding length 0"})
	source := &scriptedSource{steps: []scriptedStep{
		{question: nil, fetchErr: protocol.ErrMalformedResponse},
		{question: nil, fetchErr: hard},
		{question: remote("1+1=?")},
	}}
	answers := &fakeBank{answers: map[string]string{"1+1=?": "2"}}
	o, observer, _, ctx := newScriptedOrchestrator(Config{}, source, answers)

	err := o.Run(ctx)
	if !errors.Is(err, cipher.ErrDecryption) {
		t.Fatalf("expected decryption error, got %v", err)
	}
	if source.fetchCalls != 2 {
		t.Fatalf("fetch calls = %d, want 2", source.fetchCalls)
	}
	if o.State() != StateStopped {
		t.Fatalf("state = %s, want stopped", o.State())
	}
	last := observer.last()
	if last.Kind != EventStopped || last.Reason != StopFailed || !errors.Is(last.Err, cipher.ErrDecryption) {
		t.Fatalf("unexpected final event: %+v", last)
	}
}

func TestRunCountsSubmissionConfirmedDuringCancellation(t *testing.T) {
	source := &scriptedSource{steps: []scriptedStep{
		{question: remote("1+1=?")},
		{question: remote("1+1=?")},
	}}
	answers := &fakeBank{answers: map[string]string{"1+1=?": "2"}}
	o, observer, waits, ctx := newScriptedOrchestrator(Config{Delay: time.Second}, source, answers)
	source.onSubmit = source.cancel

	if err := o.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if o.Progress().Answered != 1 {
		t.Fatalf("answered = %d, want 1", o.Progress().Answered)
	}
	if source.fetchCalls != 1 {
		t.Fatalf("fetch calls = %d, want 1", source.fetchCalls)
	}
	if len(*waits) != 0 {
		t.Fatalf("expected no wait after cancellation, got %v", *waits)
	}
	if observer.count(EventStopped) != 1 {
		t.Fatalf("expected exactly one stopped event")
	}
}

// blockingSource signals each fetch and returns nothing, so the loop falls
// into its delay wait.
type blockingSource struct {
	fetches chan struct{}
	mu      sync.Mutex
	calls   int
}

func (b *blockingSource) FetchNextQuestion(_ context.Context, _ int) (*protocol.RemoteQuestion, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	b.fetches <- struct{}{}
	return nil, nil
}

func (b *blockingSource) SubmitAnswer(context.Context, string, string, int) (*protocol.AnswerResult, error) {
	return nil, errors.New("unexpected submit")
}

func (b *blockingSource) fetchCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func TestStopDuringDelayPreventsNextFetch(t *testing.T) {
	source := &blockingSource{fetches: make(chan struct{}, 4)}
	observer := &recordingObserver{}
	o := New(Config{Delay: time.Hour}, source, &fakeBank{}, WithObserver(observer))

	done := make(chan error, 1)
	go func() {
		done <- o.Run(context.Background())
	}()

	select {
	case <-source.fetches:
	case <-time.After(5 * time.Second):
		t.Fatalf("first fetch not issued")
	}
	if o.State() != StateRunning {
		t.Fatalf("state = %s, want running", o.State())
	}

	o.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after Stop")
	}

	if got := source.fetchCount(); got != 1 {
		t.Fatalf("fetch calls = %d, want 1", got)
	}
	if observer.count(EventStopped) != 1 {
		t.Fatalf("stopped events = %d, want 1", observer.count(EventStopped))
	}
	if o.State() != StateStopped {
		t.Fatalf("state = %s, want stopped", o.State())
	}
}

func TestRunRejectsConcurrentStartAndAllowsRestart(t *testing.T) {
	source := &blockingSource{fetches: make(chan struct{}, 4)}
	o := New(Config{Delay: time.Hour}, source, &fakeBank{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- o.Run(ctx)
	}()
	<-source.fetches

	if err := o.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	scripted := &scriptedSource{steps: []scriptedStep{{question: remote("1+1=?")}}}
	restarted, _, _, restartCtx := newScriptedOrchestrator(Config{TargetCount: 1}, scripted, &fakeBank{answers: map[string]string{"1+1=?": "2"}})
	if err := restarted.Run(restartCtx); err != nil {
		t.Fatalf("first run returned error: %v", err)
	}
	scripted.steps = []scriptedStep{{question: remote("1+1=?")}}
	if err := restarted.Run(restartCtx); err != nil {
		t.Fatalf("restart returned error: %v", err)
	}
	if got := restarted.Progress().Answered; got != 1 {
		t.Fatalf("answered after restart = %d, want counters reset then 1", got)
	}
}

func TestSleepContextReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("sleepContext did not return promptly")
	}
	if err := sleepContext(context.Background(), 0); err != nil {
		t.Fatalf("zero delay returned %v", err)
	}
}

func TestMatchMarker(t *testing.T) {
	if marker, ok := matchMarker("这是一道防刷题", DefaultSkipMarkers); !ok || marker != "防刷" {
		t.Fatalf("matchMarker = (%q, %t)", marker, ok)
	}
	if _, ok := matchMarker("普通题目", DefaultSkipMarkers); ok {
		t.Fatalf("expected no marker")
	}
	if _, ok := matchMarker("anything", []string{""}); ok {
		t.Fatalf("empty marker must not match")
	}
}
