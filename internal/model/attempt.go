package model

import "time"

// ExamAttempt is a completed attempt as recorded in history. It carries the
// ExamResults fields the dashboard needs plus identity and timestamps.
type ExamAttempt struct {
	ID                int          `json:"id"`
	UserID            int          `json:"user_id"`
	Username          string       `json:"username"`
	StartedAt         time.Time    `json:"started_at"`
	CompletedAt       time.Time    `json:"completed_at"`
	ScoredMarks       int          `json:"scored_marks"`
	TotalMarks        int          `json:"total_marks"`
	Percentage        float64      `json:"percentage"`
	MCQCorrect        int          `json:"mcq_correct"`
	MCQPercentage     float64      `json:"mcq_percentage"`
	MCQPassed         bool         `json:"mcq_passed"`
	PracticalAttempts int          `json:"practical_attempts"`
	Passed            bool         `json:"passed"`
	TopicBreakdown    []TopicScore `json:"topic_breakdown"`
}
