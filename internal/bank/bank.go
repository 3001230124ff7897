// Package bank loads and validates the question bank that exam sessions
// sample from. The bank is read once at startup from CSV, validated as a
// whole, and held immutable in memory for the life of the process.
package bank

import (
	"github.com/bpcprep/examportal-backend/internal/model"
)

// Bank is the in-memory question bank with an id index.
type Bank struct {
	questions []model.Question
	byID      map[string]*model.Question
}

// New builds a Bank from validated questions.
func New(questions []model.Question) *Bank {
	b := &Bank{
		questions: questions,
		byID:      make(map[string]*model.Question, len(questions)),
	}
	for i := range questions {
		b.byID[questions[i].ID] = &questions[i]
	}
	return b
}

// Questions returns the full ordered bank. Callers must not mutate it.
func (b *Bank) Questions() []model.Question {
	return b.questions
}

// Get looks a question up by id.
func (b *Bank) Get(id string) (*model.Question, bool) {
	q, ok := b.byID[id]
	return q, ok
}

// Len returns the bank size.
func (b *Bank) Len() int {
	return len(b.questions)
}

// CountByType returns how many questions of the given type the bank holds.
func (b *Bank) CountByType(t model.QuestionType) int {
	n := 0
	for i := range b.questions {
		if b.questions[i].Type == t {
			n++
		}
	}
	return n
}

// LoadAndValidate reads the CSV at path and validates the whole bank.
// Any validation error is fatal: a truncated or inconsistent bank must
// never reach the sampler.
func LoadAndValidate(path string) (*Bank, *ValidationReport, error) {
	questions, err := LoadCSV(path)
	if err != nil {
		return nil, nil, err
	}

	report := Validate(questions)
	if err := report.Err(); err != nil {
		return nil, report, err
	}

	return New(questions), report, nil
}
