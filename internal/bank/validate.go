package bank

import (
	"fmt"
	"strings"

	"github.com/bpcprep/examportal-backend/internal/model"
)

// ValidationReport collects every violation found in a bank, not just the
// first: a bad export should be fixable in one pass over the report.
type ValidationReport struct {
	Errors   []string
	Warnings []string

	MCQCount       int
	PracticalCount int
}

// Valid reports whether the bank passed validation.
func (r *ValidationReport) Valid() bool {
	return len(r.Errors) == 0
}

// Err aggregates all errors into one, or nil when the bank is valid.
func (r *ValidationReport) Err() error {
	if r.Valid() {
		return nil
	}
	return fmt.Errorf("question bank validation failed (%d errors): %s",
		len(r.Errors), strings.Join(r.Errors, "; "))
}

var validDifficulties = map[model.Difficulty]bool{
	model.DifficultyEasy:   true,
	model.DifficultyMedium: true,
	model.DifficultyHard:   true,
}

// Validate checks bank-wide and per-question invariants: unique ids, known
// type enum, non-empty prompt, MCQ option/correct-index consistency and
// marks >= 1. Rows are reported by CSV line number (header is line 1).
func Validate(questions []model.Question) *ValidationReport {
	report := &ValidationReport{}
	seen := make(map[string]bool, len(questions))

	for i := range questions {
		q := &questions[i]
		line := i + 2 // 1-based, after the header row

		if q.ID == "" {
			report.errorf("empty id at line %d", line)
		} else if seen[q.ID] {
			report.errorf("duplicate question id %q at line %d", q.ID, line)
		}
		seen[q.ID] = true

		switch q.Type {
		case model.QuestionTypeMCQ:
			report.MCQCount++
		case model.QuestionTypePractical:
			report.PracticalCount++
		default:
			report.errorf("invalid type %q at line %d (id %s)", q.Type, line, q.ID)
		}

		if strings.TrimSpace(q.Prompt) == "" {
			report.errorf("empty prompt at line %d (id %s)", line, q.ID)
		}

		if !validDifficulties[q.Difficulty] {
			report.warnf("unknown difficulty %q at line %d (id %s)", q.Difficulty, line, q.ID)
		}

		if q.Type == model.QuestionTypeMCQ {
			validateMCQ(report, q, line)
		}

		if q.Marks < 1 {
			report.errorf("invalid marks %d at line %d (id %s)", q.Marks, line, q.ID)
		}
	}

	if len(questions) == 0 {
		report.errorf("question bank is empty")
	}

	return report
}

// validateMCQ checks option shape: at least 2 non-empty options with no
// gaps, and a correct index pointing at a non-empty option.
func validateMCQ(report *ValidationReport, q *model.Question, line int) {
	optionCount := q.OptionCount()

	if optionCount < 2 {
		report.errorf("mcq at line %d has fewer than 2 options (id %s)", line, q.ID)
	} else if optionCount < model.MaxOptions {
		report.warnf("mcq at line %d has only %d options (id %s)", line, optionCount, q.ID)
	}

	// A filled slot after an empty one means the display order and the
	// permutation range disagree about which indices exist.
	for i := 1; i < model.MaxOptions; i++ {
		if q.Options[i] != "" && q.Options[i-1] == "" {
			report.errorf("mcq at line %d has a gap in options at slot %d (id %s)", line, i, q.ID)
			break
		}
	}

	if q.CorrectIndex < 0 || q.CorrectIndex >= optionCount {
		report.errorf("mcq at line %d has invalid correct_index %d (id %s)", line, q.CorrectIndex, q.ID)
	} else if strings.TrimSpace(q.Options[q.CorrectIndex]) == "" {
		report.errorf("mcq at line %d has empty correct option at index %d (id %s)", line, q.CorrectIndex, q.ID)
	}
}

// CheckCoverage adds warnings when a pool cannot cover the per-attempt draw.
// Coverage shortfalls are warnings at validation time; the sampler turns
// them into hard errors at session creation.
func (r *ValidationReport) CheckCoverage(numMCQ, numPractical int) {
	if r.MCQCount < numMCQ {
		r.warnf("only %d mcq questions available (attempt draws %d)", r.MCQCount, numMCQ)
	}
	if r.PracticalCount < numPractical {
		r.warnf("only %d practical questions available (attempt draws %d)", r.PracticalCount, numPractical)
	}
}

func (r *ValidationReport) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationReport) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}
