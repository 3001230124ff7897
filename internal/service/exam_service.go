package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/bpcprep/examportal-backend/internal/bank"
	"github.com/bpcprep/examportal-backend/internal/config"
	"github.com/bpcprep/examportal-backend/internal/exam"
	"github.com/bpcprep/examportal-backend/internal/model"
)

// AttemptSink receives completed attempts for recording. Enqueue failures
// are logged, never surfaced to the submitting user.
type AttemptSink interface {
	Enqueue(ctx context.Context, attempt *model.ExamAttempt) error
}

// SessionState is the resumable view of a user's session: everything the
// client needs to rebuild its UI after a reload.
type SessionState struct {
	SessionID            string                      `json:"session_id"`
	StartedAt            time.Time                   `json:"started_at"`
	Submitted            bool                        `json:"submitted"`
	TimeRemainingSeconds int                         `json:"time_remaining_seconds"`
	TotalQuestions       int                         `json:"total_questions"`
	AnsweredCount        int                         `json:"answered_count"`
	Answers              map[string]model.UserAnswer `json:"answers"`
	Flagged              []string                    `json:"flagged"`
}

// ExamService orchestrates the practice exam flow: sampling a session from
// the bank, tracking answer/flag state through the engine, auto-submitting
// on expiry, scoring on submission and handing the attempt to the sink.
type ExamService struct {
	bank      *bank.Bank
	engine    *exam.Engine
	scheduler *exam.AutoSubmitScheduler
	sink      AttemptSink
	cfg       config.ExamConfig
	log       zerolog.Logger
	newRNG    func() *rand.Rand
}

// NewExamService creates a new ExamService.
func NewExamService(b *bank.Bank, engine *exam.Engine, scheduler *exam.AutoSubmitScheduler, sink AttemptSink, cfg config.ExamConfig, log zerolog.Logger) *ExamService {
	return &ExamService{
		bank:      b,
		engine:    engine,
		scheduler: scheduler,
		sink:      sink,
		cfg:       cfg,
		log:       log.With().Str("component", "exam_service").Logger(),
		newRNG: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// StartSession creates a fresh session for the user, replacing any existing
// one, and arms the auto-submit timer for the full exam duration.
func (s *ExamService) StartSession(ctx context.Context, userID int, username string) (*SessionState, error) {
	// A replaced session must not leave its timer behind.
	s.scheduler.Cancel(userID)

	sess, err := s.engine.Create(ctx, userID, s.bank.Questions(), s.cfg, s.newRNG())
	if err != nil {
		return nil, err
	}

	s.scheduleAutoSubmit(userID, username, s.cfg.DurationSeconds)

	s.log.Info().
		Int("user_id", userID).
		Str("session_id", sess.SessionID).
		Int("questions", len(sess.QuestionIDs)).
		Msg("Session started")

	return s.sessionState(sess), nil
}

// GetState resumes the user's session. Resuming an unsubmitted session
// re-arms the auto-submit timer from the recomputed remaining time, so a
// server restart cannot orphan a running exam.
func (s *ExamService) GetState(ctx context.Context, userID int, username string) (*SessionState, error) {
	sess, err := s.engine.Resume(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !sess.Submitted {
		s.scheduleAutoSubmit(userID, username, s.engine.TimeRemaining(sess, s.cfg.DurationSeconds))
	}

	return s.sessionState(sess), nil
}

// SessionQuestions returns the session's questions in exam order, projected
// for display (options permuted, answers redacted).
func (s *ExamService) SessionQuestions(ctx context.Context, userID int) ([]model.QuestionView, error) {
	sess, err := s.engine.Resume(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]model.QuestionView, 0, len(sess.QuestionIDs))
	for _, qid := range sess.QuestionIDs {
		q, ok := s.bank.Get(qid)
		if !ok {
			// The bank changed under a persisted session (redeploy with a
			// different CSV). Skip rather than fail the whole paper.
			s.log.Warn().Str("question_id", qid).Msg("Session references unknown question")
			continue
		}
		views = append(views, model.NewQuestionView(q, sess.OptionPerms[qid]))
	}
	return views, nil
}

// SaveAnswer merges an answer update into the session.
func (s *ExamService) SaveAnswer(ctx context.Context, userID int, req model.SubmitAnswerRequest) (*SessionState, error) {
	sess, err := s.engine.UpdateAnswer(ctx, userID, req.QuestionID, req.AnswerUpdate)
	if err != nil {
		return nil, err
	}
	return s.sessionState(sess), nil
}

// ToggleFlag flips the review flag on a question.
func (s *ExamService) ToggleFlag(ctx context.Context, userID int, questionID string) (*SessionState, error) {
	sess, err := s.engine.ToggleFlag(ctx, userID, questionID)
	if err != nil {
		return nil, err
	}
	return s.sessionState(sess), nil
}

// Submit finalizes the session, scores it and enqueues the attempt record.
// Results are returned even if the sink enqueue fails.
func (s *ExamService) Submit(ctx context.Context, userID int, username string) (*model.ExamResults, error) {
	s.scheduler.Cancel(userID)

	sess, err := s.engine.Submit(ctx, userID)
	if err != nil {
		return nil, err
	}

	results := exam.Score(s.resolveQuestions(sess), sess, s.cfg)
	s.recordAttempt(ctx, userID, username, sess, &results)

	s.log.Info().
		Int("user_id", userID).
		Str("session_id", sess.SessionID).
		Float64("percentage", results.Percentage).
		Bool("passed", results.OverallPassed).
		Msg("Session submitted")

	return &results, nil
}

// Results re-scores the user's submitted session. Scoring is deterministic,
// so this reproduces the submission-time report exactly.
func (s *ExamService) Results(ctx context.Context, userID int) (*model.ExamResults, error) {
	sess, err := s.engine.Resume(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !sess.Submitted {
		return nil, exam.ErrNoSession
	}

	results := exam.Score(s.resolveQuestions(sess), sess, s.cfg)
	return &results, nil
}

// Abandon discards the user's session without scoring it.
func (s *ExamService) Abandon(ctx context.Context, userID int) error {
	s.scheduler.Cancel(userID)
	return s.engine.Clear(ctx, userID)
}

// Shutdown cancels all pending auto-submit timers.
func (s *ExamService) Shutdown() {
	s.scheduler.CancelAll()
}

// scheduleAutoSubmit (re)arms the user's expiry timer. Scheduling through
// the registry replaces any previous timer, so repeated resumes never stack.
func (s *ExamService) scheduleAutoSubmit(userID int, username string, remainingSeconds int) {
	d := time.Duration(remainingSeconds) * time.Second
	s.scheduler.Schedule(userID, d, func() {
		s.autoSubmit(userID, username)
	})
}

// autoSubmit fires when a session's clock runs out.
func (s *ExamService) autoSubmit(userID int, username string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sess, err := s.engine.Submit(ctx, userID)
	if err != nil {
		if errors.Is(err, exam.ErrAlreadySubmitted) || errors.Is(err, exam.ErrNoSession) {
			// Submitted or abandoned before the timer won the race.
			return
		}
		s.log.Error().Err(err).Int("user_id", userID).Msg("Auto-submit failed")
		return
	}

	results := exam.Score(s.resolveQuestions(sess), sess, s.cfg)
	s.recordAttempt(ctx, userID, username, sess, &results)

	s.log.Info().
		Int("user_id", userID).
		Str("session_id", sess.SessionID).
		Msg("Session auto-submitted on expiry")
}

func (s *ExamService) recordAttempt(ctx context.Context, userID int, username string, sess *model.ExamSession, results *model.ExamResults) {
	completedAt := time.Now()
	if sess.SubmittedAt != nil {
		completedAt = *sess.SubmittedAt
	}

	attempt := &model.ExamAttempt{
		UserID:            userID,
		Username:          username,
		StartedAt:         sess.StartedAt,
		CompletedAt:       completedAt,
		ScoredMarks:       results.ScoredMarks,
		TotalMarks:        results.TotalMarks,
		Percentage:        results.Percentage,
		MCQCorrect:        results.MCQ.Correct,
		MCQPercentage:     results.MCQ.Percentage,
		MCQPassed:         results.MCQ.Passed,
		PracticalAttempts: results.PracticalAnswered,
		Passed:            results.OverallPassed,
		TopicBreakdown:    results.TopicBreakdown,
	}

	if err := s.sink.Enqueue(ctx, attempt); err != nil {
		// Fire-and-forget: losing a history row must not hide the results.
		s.log.Error().Err(err).Int("user_id", userID).Msg("Failed to enqueue attempt record")
	}
}

func (s *ExamService) resolveQuestions(sess *model.ExamSession) []model.Question {
	questions := make([]model.Question, 0, len(sess.QuestionIDs))
	for _, qid := range sess.QuestionIDs {
		if q, ok := s.bank.Get(qid); ok {
			questions = append(questions, *q)
		} else {
			s.log.Warn().Str("question_id", qid).Msg("Scoring skipped unknown question")
		}
	}
	return questions
}

func (s *ExamService) sessionState(sess *model.ExamSession) *SessionState {
	flagged := make([]string, 0, len(sess.Flagged))
	for qid := range sess.Flagged {
		flagged = append(flagged, qid)
	}

	answeredCount := 0
	for _, qid := range sess.QuestionIDs {
		q, ok := s.bank.Get(qid)
		if !ok {
			continue
		}
		if exam.IsAnswered(sess, qid, q.Type) {
			answeredCount++
		}
	}

	return &SessionState{
		SessionID:            sess.SessionID,
		StartedAt:            sess.StartedAt,
		Submitted:            sess.Submitted,
		TimeRemainingSeconds: s.engine.TimeRemaining(sess, s.cfg.DurationSeconds),
		TotalQuestions:       len(sess.QuestionIDs),
		AnsweredCount:        answeredCount,
		Answers:              sess.Answers,
		Flagged:              flagged,
	}
}

// TimeRemaining exposes the remaining seconds for the clock stream.
func (s *ExamService) TimeRemaining(ctx context.Context, userID int) (int, bool, error) {
	sess, err := s.engine.Resume(ctx, userID)
	if err != nil {
		return 0, false, err
	}
	return s.engine.TimeRemaining(sess, s.cfg.DurationSeconds), sess.Submitted, nil
}
