package exam

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bpcprep/examportal-backend/internal/config"
	"github.com/bpcprep/examportal-backend/internal/model"
	"github.com/bpcprep/examportal-backend/internal/store"
)

// Engine owns the exam session lifecycle from creation through submission.
// Every mutating operation persists the full session to the store before
// returning, so a process restart resumes from the last persisted state.
//
// A session is keyed by user id; one active session per user. Concurrent
// mutation of the same session from multiple contexts (e.g. multiple tabs)
// resolves last-write-wins on the store with no merge.
type Engine struct {
	store store.SessionStore
	log   zerolog.Logger
	now   func() time.Time
}

// NewEngine creates an Engine bound to a session store.
func NewEngine(st store.SessionStore, log zerolog.Logger) *Engine {
	return &Engine{
		store: st,
		log:   log.With().Str("component", "exam_engine").Logger(),
		now:   time.Now,
	}
}

// Create samples a fresh session from the bank and persists it, replacing
// any previous session for the user. Sampling failures surface before
// anything is persisted.
func (e *Engine) Create(ctx context.Context, userID int, bank []model.Question, cfg config.ExamConfig, rng *rand.Rand) (*model.ExamSession, error) {
	sel, err := SelectSession(bank, cfg, rng)
	if err != nil {
		return nil, err
	}

	sess := &model.ExamSession{
		SessionID:   uuid.New().String(),
		QuestionIDs: sel.QuestionIDs,
		OptionPerms: sel.OptionPerms,
		StartedAt:   e.now(),
		Answers:     make(map[string]model.UserAnswer),
		Flagged:     make(map[string]struct{}),
	}

	if err := e.persist(ctx, userID, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Resume loads and rehydrates the user's persisted session. It returns
// ErrNoSession when nothing is stored and ErrCorruptSession when the blob
// cannot be decoded; on corruption the blob is cleared so the caller can
// fall back to a fresh session.
func (e *Engine) Resume(ctx context.Context, userID int) (*model.ExamSession, error) {
	blob, err := e.store.Load(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	sess, err := DecodeSession(blob)
	if err != nil {
		e.log.Warn().Err(err).Int("user_id", userID).Msg("Discarding corrupt session blob")
		if clearErr := e.store.Clear(ctx, userID); clearErr != nil {
			e.log.Error().Err(clearErr).Int("user_id", userID).Msg("Failed to clear corrupt session")
		}
		return nil, err
	}
	return sess, nil
}

// UpdateAnswer merges upd into the user's answer for questionID, creating
// the entry if absent, and persists the session. Membership of questionID
// in the session's question list is not checked: an unknown id stores an
// orphaned answer that scoring simply never reads.
func (e *Engine) UpdateAnswer(ctx context.Context, userID int, questionID string, upd model.AnswerUpdate) (*model.ExamSession, error) {
	sess, err := e.Resume(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess.Submitted {
		return nil, ErrAlreadySubmitted
	}

	ans, ok := sess.Answers[questionID]
	if !ok {
		ans = model.UserAnswer{QuestionID: questionID, Flagged: sess.IsFlagged(questionID)}
	}
	if upd.SelectedOption != nil {
		sel := *upd.SelectedOption
		ans.SelectedOption = &sel
	}
	if upd.DrawingArtifact != nil {
		ans.DrawingArtifact = *upd.DrawingArtifact
	}
	if upd.TimeTaken != nil {
		ans.TimeTaken = *upd.TimeTaken
	}
	sess.Answers[questionID] = ans

	if err := e.persist(ctx, userID, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// ToggleFlag flips flag-set membership for questionID and keeps the
// corresponding answer's Flagged field in sync when one exists. Persists.
func (e *Engine) ToggleFlag(ctx context.Context, userID int, questionID string) (*model.ExamSession, error) {
	sess, err := e.Resume(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess.Submitted {
		return nil, ErrAlreadySubmitted
	}

	if sess.IsFlagged(questionID) {
		delete(sess.Flagged, questionID)
	} else {
		sess.Flagged[questionID] = struct{}{}
	}

	if ans, ok := sess.Answers[questionID]; ok {
		ans.Flagged = sess.IsFlagged(questionID)
		sess.Answers[questionID] = ans
	}

	if err := e.persist(ctx, userID, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Submit transitions the session to its terminal state, stamping
// SubmittedAt exactly once, and persists. A second submit returns
// ErrAlreadySubmitted with the session untouched.
func (e *Engine) Submit(ctx context.Context, userID int) (*model.ExamSession, error) {
	sess, err := e.Resume(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess.Submitted {
		return sess, ErrAlreadySubmitted
	}

	now := e.now()
	sess.Submitted = true
	sess.SubmittedAt = &now

	if err := e.persist(ctx, userID, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Clear removes the user's persisted session.
func (e *Engine) Clear(ctx context.Context, userID int) error {
	return e.store.Clear(ctx, userID)
}

// TimeRemaining returns whole seconds left in the session, never negative.
func (e *Engine) TimeRemaining(sess *model.ExamSession, durationSeconds int) int {
	elapsed := int(e.now().Sub(sess.StartedAt) / time.Second)
	remaining := durationSeconds - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsAnswered reports whether a question counts as answered: an MCQ needs a
// selected option, a practical needs a non-empty drawing artifact.
func IsAnswered(sess *model.ExamSession, questionID string, qType model.QuestionType) bool {
	ans, ok := sess.Answers[questionID]
	if !ok {
		return false
	}
	if qType == model.QuestionTypeMCQ {
		return ans.SelectedOption != nil
	}
	return ans.DrawingArtifact != ""
}

func (e *Engine) persist(ctx context.Context, userID int, sess *model.ExamSession) error {
	blob, err := EncodeSession(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := e.store.Save(ctx, userID, blob); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
