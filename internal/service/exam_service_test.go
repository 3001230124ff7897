package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/bpcprep/examportal-backend/internal/bank"
	"github.com/bpcprep/examportal-backend/internal/config"
	"github.com/bpcprep/examportal-backend/internal/exam"
	"github.com/bpcprep/examportal-backend/internal/model"
	"github.com/bpcprep/examportal-backend/internal/store"
)

// memorySink collects enqueued attempts for assertions.
type memorySink struct {
	mu       sync.Mutex
	attempts []*model.ExamAttempt
	fail     bool
}

func (s *memorySink) Enqueue(_ context.Context, attempt *model.ExamAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("sink unavailable")
	}
	s.attempts = append(s.attempts, attempt)
	return nil
}

func (s *memorySink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attempts)
}

func (s *memorySink) last() *model.ExamAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.attempts) == 0 {
		return nil
	}
	return s.attempts[len(s.attempts)-1]
}

func testBank(numMCQ, numPractical int) *bank.Bank {
	var questions []model.Question
	for i := 0; i < numMCQ; i++ {
		questions = append(questions, model.Question{
			ID:           fmt.Sprintf("mcq-%03d", i),
			Type:         model.QuestionTypeMCQ,
			Topic:        fmt.Sprintf("Topic %d", i%3),
			Prompt:       fmt.Sprintf("Question %d?", i),
			Options:      [model.MaxOptions]string{"A", "B", "C", "D"},
			CorrectIndex: i % 4,
			Marks:        1,
		})
	}
	for i := 0; i < numPractical; i++ {
		questions = append(questions, model.Question{
			ID:     fmt.Sprintf("prac-%03d", i),
			Type:   model.QuestionTypePractical,
			Topic:  "Plan Reading",
			Prompt: fmt.Sprintf("Exercise %d", i),
			Marks:  25,
		})
	}
	return bank.New(questions)
}

func testServiceConfig() config.ExamConfig {
	return config.ExamConfig{
		NumMCQ:                10,
		NumPractical:          1,
		DurationSeconds:       3600,
		PassThreshold:         70,
		MCQPassThreshold:      70,
		OrderMode:             config.OrderMCQFirst,
		ShuffleWithinType:     true,
		DualComponentRequired: true,
	}
}

func newTestExamService(cfg config.ExamConfig) (*ExamService, *memorySink) {
	engine := exam.NewEngine(store.NewMemoryStore(), zerolog.Nop())
	sink := &memorySink{}
	svc := NewExamService(testBank(20, 3), engine, exam.NewAutoSubmitScheduler(), sink, cfg, zerolog.Nop())
	return svc, sink
}

func intPtr(v int) *int { return &v }

func TestStartAndResumeSession(t *testing.T) {
	svc, _ := newTestExamService(testServiceConfig())
	defer svc.Shutdown()
	ctx := context.Background()
	const userID = 1

	state, err := svc.StartSession(ctx, userID, "alice")
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if state.TotalQuestions != 11 {
		t.Errorf("TotalQuestions = %d, want 11", state.TotalQuestions)
	}
	if state.Submitted || state.AnsweredCount != 0 {
		t.Errorf("fresh session state = %+v", state)
	}
	if state.TimeRemainingSeconds <= 0 || state.TimeRemainingSeconds > 3600 {
		t.Errorf("TimeRemainingSeconds = %d", state.TimeRemainingSeconds)
	}

	resumed, err := svc.GetState(ctx, userID, "alice")
	if err != nil {
		t.Fatalf("GetState failed: %v", err)
	}
	if resumed.SessionID != state.SessionID {
		t.Error("resume returned a different session")
	}
}

func TestGetStateWithoutSession(t *testing.T) {
	svc, _ := newTestExamService(testServiceConfig())
	defer svc.Shutdown()

	_, err := svc.GetState(context.Background(), 42, "nobody")
	if !errors.Is(err, exam.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestSessionQuestionsRedacted(t *testing.T) {
	svc, _ := newTestExamService(testServiceConfig())
	defer svc.Shutdown()
	ctx := context.Background()
	const userID = 1

	if _, err := svc.StartSession(ctx, userID, "alice"); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	views, err := svc.SessionQuestions(ctx, userID)
	if err != nil {
		t.Fatalf("SessionQuestions failed: %v", err)
	}
	if len(views) != 11 {
		t.Fatalf("got %d views, want 11", len(views))
	}

	for _, v := range views {
		if v.Type != model.QuestionTypeMCQ {
			continue
		}
		if len(v.OptionOrder) == 0 {
			t.Errorf("mcq view %s missing option order", v.ID)
		}
	}
}

func TestSaveAnswerAndAnsweredCount(t *testing.T) {
	svc, _ := newTestExamService(testServiceConfig())
	defer svc.Shutdown()
	ctx := context.Background()
	const userID = 1

	if _, err := svc.StartSession(ctx, userID, "alice"); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	views, err := svc.SessionQuestions(ctx, userID)
	if err != nil {
		t.Fatalf("SessionQuestions failed: %v", err)
	}

	state, err := svc.SaveAnswer(ctx, userID, model.SubmitAnswerRequest{
		QuestionID:   views[0].ID,
		AnswerUpdate: model.AnswerUpdate{SelectedOption: intPtr(1)},
	})
	if err != nil {
		t.Fatalf("SaveAnswer failed: %v", err)
	}
	if state.AnsweredCount != 1 {
		t.Errorf("AnsweredCount = %d, want 1", state.AnsweredCount)
	}

	state, err = svc.ToggleFlag(ctx, userID, views[1].ID)
	if err != nil {
		t.Fatalf("ToggleFlag failed: %v", err)
	}
	if len(state.Flagged) != 1 || state.Flagged[0] != views[1].ID {
		t.Errorf("Flagged = %v", state.Flagged)
	}
}

func TestSubmitScoresAndRecordsAttempt(t *testing.T) {
	svc, sink := newTestExamService(testServiceConfig())
	defer svc.Shutdown()
	ctx := context.Background()
	const userID = 1

	if _, err := svc.StartSession(ctx, userID, "alice"); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	results, err := svc.Submit(ctx, userID, "alice")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if results.TotalQuestions != 11 {
		t.Errorf("TotalQuestions = %d, want 11", results.TotalQuestions)
	}
	if !results.DualComponent {
		t.Error("dual-component flag lost")
	}

	if sink.count() != 1 {
		t.Fatalf("sink received %d attempts, want 1", sink.count())
	}
	attempt := sink.last()
	if attempt.UserID != userID || attempt.Username != "alice" {
		t.Errorf("attempt identity = %+v", attempt)
	}
	if attempt.Percentage != results.Percentage || attempt.Passed != results.OverallPassed {
		t.Error("attempt does not mirror the results report")
	}

	// A second submit is a conflict, not a second attempt row.
	if _, err := svc.Submit(ctx, userID, "alice"); !errors.Is(err, exam.ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
	if sink.count() != 1 {
		t.Errorf("repeat submit enqueued another attempt")
	}
}

func TestSubmitReturnsResultsWhenSinkFails(t *testing.T) {
	svc, sink := newTestExamService(testServiceConfig())
	defer svc.Shutdown()
	ctx := context.Background()
	sink.fail = true

	if _, err := svc.StartSession(ctx, 1, "alice"); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	results, err := svc.Submit(ctx, 1, "alice")
	if err != nil || results == nil {
		t.Fatalf("Submit should succeed despite sink failure: %v", err)
	}
}

func TestResultsReproducible(t *testing.T) {
	svc, _ := newTestExamService(testServiceConfig())
	defer svc.Shutdown()
	ctx := context.Background()
	const userID = 1

	if _, err := svc.StartSession(ctx, userID, "alice"); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	// Results before submission is an error.
	if _, err := svc.Results(ctx, userID); !errors.Is(err, exam.ErrNoSession) {
		t.Fatalf("pre-submit Results: expected ErrNoSession, got %v", err)
	}

	submitted, err := svc.Submit(ctx, userID, "alice")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	refetched, err := svc.Results(ctx, userID)
	if err != nil {
		t.Fatalf("Results failed: %v", err)
	}
	if refetched.Percentage != submitted.Percentage || refetched.ScoredMarks != submitted.ScoredMarks {
		t.Error("re-fetched results differ from submission-time results")
	}
}

func TestAbandonDiscardsSession(t *testing.T) {
	svc, sink := newTestExamService(testServiceConfig())
	defer svc.Shutdown()
	ctx := context.Background()
	const userID = 1

	if _, err := svc.StartSession(ctx, userID, "alice"); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if err := svc.Abandon(ctx, userID); err != nil {
		t.Fatalf("Abandon failed: %v", err)
	}

	if _, err := svc.GetState(ctx, userID, "alice"); !errors.Is(err, exam.ErrNoSession) {
		t.Fatalf("expected ErrNoSession after abandon, got %v", err)
	}
	if sink.count() != 0 {
		t.Error("abandon must not record an attempt")
	}
}

func TestAutoSubmitOnExpiry(t *testing.T) {
	cfg := testServiceConfig()
	cfg.DurationSeconds = 0 // expire immediately
	svc, sink := newTestExamService(cfg)
	defer svc.Shutdown()
	ctx := context.Background()
	const userID = 1

	if _, err := svc.StartSession(ctx, userID, "alice"); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("auto-submit never recorded an attempt")
		}
		time.Sleep(10 * time.Millisecond)
	}

	remaining, submitted, err := svc.TimeRemaining(ctx, userID)
	if err != nil {
		t.Fatalf("TimeRemaining failed: %v", err)
	}
	if !submitted {
		t.Error("session should be submitted after expiry")
	}
	if remaining != 0 {
		t.Errorf("remaining = %d, want 0", remaining)
	}
}
