package autopilot

import (
	"bytes"
	"context"
	"crypto/aes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cucumber/godog"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"quiz-autopilot/internal/bank"
	"quiz-autopilot/internal/cipher"
	"quiz-autopilot/internal/protocol"
)

// TestAutopilotFeatures executes the autopilot feature scenarios via godog.
func TestAutopilotFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "autopilot",
		ScenarioInitializer: initializeScenario,
		Options: &godog.Options{
			Format:   "progress",
			Paths:    []string{filepath.Join("testdata", "features")},
			Strict:   true,
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatalf("non-zero godog status")
	}
}

func initializeScenario(ctx *godog.ScenarioContext) {
	state := &featureState{}
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, state.reset()
	})
	ctx.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		state.close()
		return ctx, nil
	})

	ctx.Step(`^a question bank:$`, state.givenBank)
	ctx.Step(`^the quiz service serves these questions:$`, state.givenQuestions)
	ctx.Step(`^the service rejects the answer to "([^"]+)"$`, state.givenRejected)
	ctx.Step(`^the autopilot runs for course (\d+) without a target$`, state.runUnbounded)
	ctx.Step(`^the autopilot runs for course (\d+) with a target of (\d+)$`, state.runWithTarget)
	ctx.Step(`^(\d+) answers? (?:is|are) counted$`, state.answersCounted)
	ctx.Step(`^(\d+) answers? (?:is|are) correct$`, state.answersCorrect)
	ctx.Step(`^the service received (\d+) submissions?$`, state.submissionsReceived)
	ctx.Step(`^the run stopped because "([^"]+)"$`, state.stoppedBecause)
}

// featureState fakes the quiz service over HTTP and drives a real client.
type featureState struct {
	mu          sync.Mutex
	server      *httptest.Server
	bank        *bank.Bank
	queue       []string
	rejected    map[string]bool
	issued      map[string]string
	submissions int
	nextUUID    int
	orch        *Orchestrator
	observer    *recordingObserver
	runErr      error
}

func (s *featureState) reset() error {
	s.close()
	s.queue = nil
	s.rejected = map[string]bool{}
	s.issued = map[string]string{}
	s.submissions = 0
	s.nextUUID = 0
	s.orch = nil
	s.observer = &recordingObserver{}
	s.runErr = nil
	s.server = httptest.NewServer(http.HandlerFunc(s.serve))
	return nil
}

func (s *featureState) close() {
	if s.server != nil {
		s.server.Close()
		s.server = nil
	}
}

func (s *featureState) serve(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case strings.HasSuffix(r.URL.Path, "/nextSubject.jhtml"):
		if len(s.queue) == 0 {
			// Nothing left to serve: end the run from the service side.
			s.orch.Stop()
			http.Error(w, "no more questions", http.StatusServiceUnavailable)
			return
		}
		description := s.queue[0]
		s.queue = s.queue[1:]

		s.nextUUID++
		uuid := fmt.Sprintf("q-%d", s.nextUUID)
		s.issued[uuid] = description

		subject := map[string]any{
			"subType":     bank.SubTypeSingleChoice,
			"optionCount": 0,
			"subDescript": "",
		}
		if description != "" {
			subject["subDescript"] = encryptForFeature(description)
		}
		writeFeatureJSON(w, map[string]any{
			"data": map[string]any{"uuid": uuid, "nextSubject": subject},
		})
	case strings.HasSuffix(r.URL.Path, "/changeSituation.jhtml"):
		s.submissions++
		message := protocol.CorrectMessage
		if s.rejected[s.issued[r.PostForm.Get("uuid")]] {
			message = "回答错误！"
		}
		writeFeatureJSON(w, map[string]any{"message": message})
	default:
		http.NotFound(w, r)
	}
}

func (s *featureState) givenBank(doc *godog.DocString) error {
	logger, _ := logtest.NewNullLogger()
	s.bank = bank.LoadReader(strings.NewReader(doc.Content), "feature.csv", logger)
	if s.bank.IsEmpty() {
		return fmt.Errorf("question bank is empty")
	}
	return nil
}

func (s *featureState) givenQuestions(table *godog.Table) error {
	for _, row := range table.Rows[1:] {
		s.queue = append(s.queue, strings.TrimSpace(row.Cells[0].Value))
	}
	return nil
}

func (s *featureState) givenRejected(description string) error {
	s.rejected[description] = true
	return nil
}

func (s *featureState) runUnbounded(courseID int) error {
	return s.run(courseID, 0)
}

func (s *featureState) runWithTarget(courseID, target int) error {
	return s.run(courseID, target)
}

func (s *featureState) run(courseID, target int) error {
	codec, err := cipher.NewCodec(cipher.DefaultKey)
	if err != nil {
		return err
	}
	client := protocol.NewClient(protocol.Config{BaseURL: s.server.URL, Session: "FEATURE"}, codec)

	s.mu.Lock()
	s.orch = New(Config{CourseID: courseID, TargetCount: target}, client, s.bank, WithObserver(s.observer))
	orch := s.orch
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.runErr = orch.Run(ctx)
	return s.runErr
}

func (s *featureState) answersCounted(want int) error {
	if got := s.orch.Progress().Answered; got != want {
		return fmt.Errorf("answered = %d, want %d", got, want)
	}
	return nil
}

func (s *featureState) answersCorrect(want int) error {
	if got := s.orch.Progress().Correct; got != want {
		return fmt.Errorf("correct = %d, want %d", got, want)
	}
	return nil
}

func (s *featureState) submissionsReceived(want int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submissions != want {
		return fmt.Errorf("submissions = %d, want %d", s.submissions, want)
	}
	return nil
}

func (s *featureState) stoppedBecause(reason string) error {
	if s.observer.count(EventStopped) != 1 {
		return fmt.Errorf("expected exactly one stopped event")
	}
	if got := s.observer.last().Reason.String(); got != reason {
		return fmt.Errorf("stop reason = %q, want %q", got, reason)
	}
	return nil
}

func encryptForFeature(plaintext string) string {
	key, err := base64.StdEncoding.DecodeString(cipher.FixPadding(cipher.DefaultKey))
	if err != nil {
		panic(err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		panic(err)
	}
	padLength := cipher.BlockSize - len(plaintext)%cipher.BlockSize
	padded := append([]byte(plaintext), bytes.Repeat([]byte{byte(padLength)}, padLength)...)
	out := make([]byte, len(padded))
	for start := 0; start < len(padded); start += cipher.BlockSize {
		block.Encrypt(out[start:start+cipher.BlockSize], padded[start:start+cipher.BlockSize])
	}
	return base64.StdEncoding.EncodeToString(out)
}

func writeFeatureJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
