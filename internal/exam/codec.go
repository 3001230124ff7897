package exam

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bpcprep/examportal-backend/internal/model"
)

// sessionBlob is the wire form of a session. Answers, Flagged and
// OptionPerms are semantically a map and a set, so they serialize as
// array-of-pairs / array-of-keys: their order carries no meaning and must
// never be relied on. Only QuestionIDs is ordered.
type sessionBlob struct {
	SessionID   string        `json:"session_id"`
	QuestionIDs []string      `json:"question_ids"`
	OptionPerms []permEntry   `json:"option_perms"`
	StartedAt   int64         `json:"started_at"` // Unix milliseconds
	Answers     []answerEntry `json:"answers"`
	Flagged     []string      `json:"flagged"`
	Submitted   bool          `json:"submitted"`
	SubmittedAt *int64        `json:"submitted_at,omitempty"`
}

type permEntry struct {
	QuestionID string `json:"question_id"`
	Perm       []int  `json:"perm"`
}

type answerEntry struct {
	QuestionID string           `json:"question_id"`
	Answer     model.UserAnswer `json:"answer"`
}

// EncodeSession serializes a session to its persisted JSON form.
func EncodeSession(s *model.ExamSession) ([]byte, error) {
	blob := sessionBlob{
		SessionID:   s.SessionID,
		QuestionIDs: s.QuestionIDs,
		StartedAt:   s.StartedAt.UnixMilli(),
		Submitted:   s.Submitted,
	}
	if s.SubmittedAt != nil {
		at := s.SubmittedAt.UnixMilli()
		blob.SubmittedAt = &at
	}
	for qid, perm := range s.OptionPerms {
		blob.OptionPerms = append(blob.OptionPerms, permEntry{QuestionID: qid, Perm: perm})
	}
	for qid, ans := range s.Answers {
		blob.Answers = append(blob.Answers, answerEntry{QuestionID: qid, Answer: ans})
	}
	for qid := range s.Flagged {
		blob.Flagged = append(blob.Flagged, qid)
	}
	return json.Marshal(blob)
}

// DecodeSession rehydrates a session from its persisted form. It returns
// ErrCorruptSession (wrapped with the reason) when required fields are
// missing or malformed; it never fabricates defaults for QuestionIDs.
func DecodeSession(raw []byte) (*model.ExamSession, error) {
	var blob sessionBlob
	if err := json.Unmarshal(raw, &blob); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}

	if blob.SessionID == "" {
		return nil, fmt.Errorf("%w: missing session_id", ErrCorruptSession)
	}
	if len(blob.QuestionIDs) == 0 {
		return nil, fmt.Errorf("%w: missing question_ids", ErrCorruptSession)
	}
	if blob.StartedAt <= 0 {
		return nil, fmt.Errorf("%w: missing started_at", ErrCorruptSession)
	}
	if blob.Submitted && blob.SubmittedAt == nil {
		return nil, fmt.Errorf("%w: submitted without submitted_at", ErrCorruptSession)
	}

	s := &model.ExamSession{
		SessionID:   blob.SessionID,
		QuestionIDs: blob.QuestionIDs,
		OptionPerms: make(map[string][]int, len(blob.OptionPerms)),
		StartedAt:   time.UnixMilli(blob.StartedAt),
		Answers:     make(map[string]model.UserAnswer, len(blob.Answers)),
		Flagged:     make(map[string]struct{}, len(blob.Flagged)),
		Submitted:   blob.Submitted,
	}
	if blob.SubmittedAt != nil {
		at := time.UnixMilli(*blob.SubmittedAt)
		s.SubmittedAt = &at
	}
	for _, e := range blob.OptionPerms {
		s.OptionPerms[e.QuestionID] = e.Perm
	}
	for _, e := range blob.Answers {
		s.Answers[e.QuestionID] = e.Answer
	}
	for _, qid := range blob.Flagged {
		s.Flagged[qid] = struct{}{}
	}
	return s, nil
}
