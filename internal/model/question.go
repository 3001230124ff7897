package model

// QuestionType distinguishes auto-graded multiple choice from manually
// graded practical exercises.
type QuestionType string

const (
	QuestionTypeMCQ       QuestionType = "mcq"
	QuestionTypePractical QuestionType = "practical"
)

// Difficulty is the question difficulty band from the bank CSV.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// MaxOptions is the option slot count per MCQ row in the bank CSV.
const MaxOptions = 4

// Question is an immutable record from the question bank.
// Options and CorrectIndex are only meaningful for MCQ questions;
// MarkingGuideline only for practical ones.
type Question struct {
	ID               string             `json:"id"`
	Type             QuestionType       `json:"type"`
	Topic            string             `json:"topic"`
	Subtopic         string             `json:"subtopic"`
	Difficulty       Difficulty         `json:"difficulty"`
	Prompt           string             `json:"prompt"`
	Options          [MaxOptions]string `json:"options"`
	CorrectIndex     int                `json:"correct_index"`
	Marks            int                `json:"marks"`
	Explanation      string             `json:"explanation"`
	MarkingGuideline string             `json:"marking_guideline"`
}

// OptionCount returns the number of non-empty options. Trailing empty slots
// are how the CSV encodes 2- and 3-option questions.
func (q *Question) OptionCount() int {
	n := 0
	for _, opt := range q.Options {
		if opt != "" {
			n++
		}
	}
	return n
}

// QuestionView is the student-facing projection of a Question. It carries
// options reordered per the session's option permutation and omits the
// correct index, explanation and marking guideline. OptionOrder maps display
// position back to the original option index, which is the index space
// answers are submitted in.
type QuestionView struct {
	ID          string       `json:"id"`
	Type        QuestionType `json:"type"`
	Topic       string       `json:"topic"`
	Subtopic    string       `json:"subtopic"`
	Difficulty  Difficulty   `json:"difficulty"`
	Prompt      string       `json:"prompt"`
	Options     []string     `json:"options,omitempty"`
	OptionOrder []int        `json:"option_order,omitempty"`
	Marks       int          `json:"marks"`
}

// NewQuestionView projects q for display. perm maps display position to the
// original option index; nil perm (practical questions) yields no options.
func NewQuestionView(q *Question, perm []int) QuestionView {
	view := QuestionView{
		ID:         q.ID,
		Type:       q.Type,
		Topic:      q.Topic,
		Subtopic:   q.Subtopic,
		Difficulty: q.Difficulty,
		Prompt:     q.Prompt,
		Marks:      q.Marks,
	}
	if q.Type == QuestionTypeMCQ && perm != nil {
		view.OptionOrder = perm
		view.Options = make([]string, 0, len(perm))
		for _, orig := range perm {
			if orig >= 0 && orig < MaxOptions {
				view.Options = append(view.Options, q.Options[orig])
			}
		}
	}
	return view
}
