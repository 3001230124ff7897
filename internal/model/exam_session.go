package model

import "time"

// UserAnswer is a single question's response state within a session.
// SelectedOption is set for MCQ answers, DrawingArtifact for practical ones
// (an opaque encoded drawing; the server never interprets it).
type UserAnswer struct {
	QuestionID      string `json:"question_id"`
	SelectedOption  *int   `json:"selected_option,omitempty"`
	DrawingArtifact string `json:"drawing_artifact,omitempty"`
	TimeTaken       int    `json:"time_taken"`
	Flagged         bool   `json:"flagged"`
}

// ExamSession is one timed attempt from creation to submission.
//
// QuestionIDs is fixed at creation and defines exam order. OptionPerms maps
// an MCQ question id to its per-session option display permutation. Answers
// is sparse: no entry means unanswered. Answers and Flagged carry no order
// semantics; only QuestionIDs does.
//
// Mutation happens through exam.Engine only, and only before Submitted flips
// to true. Submitted never transitions back.
type ExamSession struct {
	SessionID   string                `json:"session_id"`
	QuestionIDs []string              `json:"question_ids"`
	OptionPerms map[string][]int      `json:"option_perms"`
	StartedAt   time.Time             `json:"started_at"`
	Answers     map[string]UserAnswer `json:"answers"`
	Flagged     map[string]struct{}   `json:"flagged"`
	Submitted   bool                  `json:"submitted"`
	SubmittedAt *time.Time            `json:"submitted_at,omitempty"`
}

// IsFlagged reports flag-set membership for a question.
func (s *ExamSession) IsFlagged(questionID string) bool {
	_, ok := s.Flagged[questionID]
	return ok
}

// AnswerUpdate is a partial update for a single answer. Nil fields are left
// untouched on merge, so a client can save one field at a time without
// clobbering the rest.
type AnswerUpdate struct {
	SelectedOption  *int    `json:"selected_option" binding:"omitempty,min=0,max=3"`
	DrawingArtifact *string `json:"drawing_artifact" binding:"omitempty,max=2097152"`
	TimeTaken       *int    `json:"time_taken" binding:"omitempty,min=0"`
}

// SubmitAnswerRequest is the payload for saving an answer during a session.
type SubmitAnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required,min=1,max=64"`
	AnswerUpdate
}
