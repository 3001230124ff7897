package model

// TopicScore is a per-topic slice of the results report. For topics holding
// practical questions, Correct counts attempted practicals as an attempted
// marker rather than graded correctness.
type TopicScore struct {
	Topic      string  `json:"topic"`
	Total      int     `json:"total"`
	Correct    int     `json:"correct"`
	Percentage float64 `json:"percentage"`
}

// ComponentResult is one scored exam component (MCQ or practical).
type ComponentResult struct {
	Total       int     `json:"total"`
	Correct     int     `json:"correct"`
	TotalMarks  int     `json:"total_marks"`
	ScoredMarks int     `json:"scored_marks"`
	Percentage  float64 `json:"percentage"`
	Passed      bool    `json:"passed"`
}

// ExamResults is the report computed once from a submitted session.
// It is never mutated after construction.
//
// The practical component is not auto-gradable: Correct there is the
// attempted count and Passed is only meaningful after external manual
// grading. OverallPassed therefore auto-passes only when the attempt had
// zero practical questions; any practical presence leaves certification to
// a human marker.
type ExamResults struct {
	TotalQuestions    int             `json:"total_questions"`
	AnsweredQuestions int             `json:"answered_questions"`
	CorrectAnswers    int             `json:"correct_answers"`
	TotalMarks        int             `json:"total_marks"`
	ScoredMarks       int             `json:"scored_marks"`
	Percentage        float64         `json:"percentage"`
	TopicBreakdown    []TopicScore    `json:"topic_breakdown"`
	TimeTakenSeconds  int             `json:"time_taken_seconds"`
	MCQ               ComponentResult `json:"mcq"`
	PracticalTotal    int             `json:"practical_total"`
	PracticalAnswered int             `json:"practical_answered"`
	DualComponent     bool            `json:"dual_component"`
	OverallPassed     bool            `json:"overall_passed"`
}
