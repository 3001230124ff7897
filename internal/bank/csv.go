package bank

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bpcprep/examportal-backend/internal/model"
)

// ErrLoad wraps any failure to read or parse the bank source. Validation
// errors are reported separately through ValidationReport.
var ErrLoad = errors.New("question bank load failed")

// csvColumns is the expected header of the bank CSV, matching the
// practice-portal export format.
var csvColumns = []string{
	"id", "type", "topic", "subtopic", "difficulty", "prompt",
	"option_a", "option_b", "option_c", "option_d",
	"correct_index", "marks", "explanation", "marking_guideline",
}

// LoadCSV reads the question bank from a CSV file. Quoted fields and
// multi-line prompts are handled by encoding/csv; structural problems
// (missing columns, unparseable numerics) fail the load with ErrLoad.
func LoadCSV(path string) ([]model.Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	defer f.Close()

	return parseCSV(f)
}

func parseCSV(r io.Reader) ([]model.Question, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvColumns)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrLoad, err)
	}
	for i, col := range csvColumns {
		if strings.TrimSpace(strings.ToLower(header[i])) != col {
			return nil, fmt.Errorf("%w: header column %d is %q, want %q", ErrLoad, i, header[i], col)
		}
	}

	var questions []model.Question
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrLoad, line, err)
		}

		q, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrLoad, line, err)
		}
		questions = append(questions, q)
	}

	return questions, nil
}

func parseRow(record []string) (model.Question, error) {
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}

	// Practical rows leave correct_index empty; -1 keeps an empty MCQ cell
	// visible to validation instead of silently meaning option A.
	correctIndex := -1
	if record[10] != "" {
		var err error
		correctIndex, err = strconv.Atoi(record[10])
		if err != nil {
			return model.Question{}, fmt.Errorf("invalid correct_index %q", record[10])
		}
	}
	marks, err := strconv.Atoi(record[11])
	if err != nil {
		return model.Question{}, fmt.Errorf("invalid marks %q", record[11])
	}

	q := model.Question{
		ID:               record[0],
		Type:             normalizeType(record[1]),
		Topic:            record[2],
		Subtopic:         record[3],
		Difficulty:       model.Difficulty(strings.ToLower(record[4])),
		Prompt:           record[5],
		CorrectIndex:     correctIndex,
		Marks:            marks,
		Explanation:      record[12],
		MarkingGuideline: record[13],
	}
	copy(q.Options[:], record[6:10])
	return q, nil
}

// normalizeType maps source type labels onto the model enum. Some exports
// label practical exercises "plan"; both spellings are accepted.
// Unknown labels pass through unchanged so validation can report them.
func normalizeType(raw string) model.QuestionType {
	switch strings.ToLower(raw) {
	case "mcq":
		return model.QuestionTypeMCQ
	case "plan", "practical":
		return model.QuestionTypePractical
	default:
		return model.QuestionType(raw)
	}
}
