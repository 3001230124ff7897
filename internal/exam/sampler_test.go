package exam

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/bpcprep/examportal-backend/internal/config"
	"github.com/bpcprep/examportal-backend/internal/model"
)

func makeBank(numMCQ, numPractical int) []model.Question {
	var bank []model.Question
	for i := 0; i < numMCQ; i++ {
		bank = append(bank, model.Question{
			ID:           fmt.Sprintf("mcq-%03d", i),
			Type:         model.QuestionTypeMCQ,
			Topic:        fmt.Sprintf("Topic %d", i%4),
			Prompt:       fmt.Sprintf("MCQ question %d?", i),
			Options:      [model.MaxOptions]string{"A", "B", "C", "D"},
			CorrectIndex: i % 4,
			Marks:        1,
		})
	}
	for i := 0; i < numPractical; i++ {
		bank = append(bank, model.Question{
			ID:     fmt.Sprintf("prac-%03d", i),
			Type:   model.QuestionTypePractical,
			Topic:  "Plan Reading",
			Prompt: fmt.Sprintf("Practical exercise %d", i),
			Marks:  25,
		})
	}
	return bank
}

func testExamConfig() config.ExamConfig {
	return config.ExamConfig{
		NumMCQ:                50,
		NumPractical:          2,
		DurationSeconds:       7200,
		PassThreshold:         70,
		MCQPassThreshold:      70,
		OrderMode:             config.OrderMCQFirst,
		ShuffleWithinType:     true,
		DualComponentRequired: true,
	}
}

func TestSelectSessionCounts(t *testing.T) {
	bank := makeBank(60, 5)
	cfg := testExamConfig()
	rng := rand.New(rand.NewSource(1))

	sel, err := SelectSession(bank, cfg, rng)
	if err != nil {
		t.Fatalf("SelectSession failed: %v", err)
	}

	if len(sel.QuestionIDs) != 52 {
		t.Errorf("expected 52 questions, got %d", len(sel.QuestionIDs))
	}

	byID := make(map[string]model.Question, len(bank))
	for _, q := range bank {
		byID[q.ID] = q
	}

	seen := make(map[string]bool)
	for _, qid := range sel.QuestionIDs {
		if seen[qid] {
			t.Errorf("duplicate question id %s in selection", qid)
		}
		seen[qid] = true
		if _, ok := byID[qid]; !ok {
			t.Errorf("selected id %s not in bank", qid)
		}
	}
}

func TestSelectSessionInsufficientMCQPool(t *testing.T) {
	bank := makeBank(10, 5)
	cfg := testExamConfig()

	_, err := SelectSession(bank, cfg, rand.New(rand.NewSource(1)))

	var poolErr *InsufficientPoolError
	if !errors.As(err, &poolErr) {
		t.Fatalf("expected InsufficientPoolError, got %v", err)
	}
	if poolErr.Type != model.QuestionTypeMCQ || poolErr.Need != 50 || poolErr.Have != 10 {
		t.Errorf("unexpected pool error details: %+v", poolErr)
	}
}

func TestSelectSessionInsufficientPracticalPool(t *testing.T) {
	bank := makeBank(60, 1)
	cfg := testExamConfig()

	_, err := SelectSession(bank, cfg, rand.New(rand.NewSource(1)))

	var poolErr *InsufficientPoolError
	if !errors.As(err, &poolErr) {
		t.Fatalf("expected InsufficientPoolError, got %v", err)
	}
	if poolErr.Type != model.QuestionTypePractical {
		t.Errorf("expected practical pool error, got %+v", poolErr)
	}
}

func TestSelectSessionOrderModes(t *testing.T) {
	bank := makeBank(60, 5)
	byID := make(map[string]model.Question, len(bank))
	for _, q := range bank {
		byID[q.ID] = q
	}

	typeAt := func(sel *Selection, i int) model.QuestionType {
		return byID[sel.QuestionIDs[i]].Type
	}

	t.Run("mcq-first", func(t *testing.T) {
		cfg := testExamConfig()
		cfg.OrderMode = config.OrderMCQFirst
		sel, err := SelectSession(bank, cfg, rand.New(rand.NewSource(2)))
		if err != nil {
			t.Fatalf("SelectSession failed: %v", err)
		}
		for i := 0; i < cfg.NumMCQ; i++ {
			if typeAt(sel, i) != model.QuestionTypeMCQ {
				t.Fatalf("position %d should be mcq", i)
			}
		}
		for i := cfg.NumMCQ; i < len(sel.QuestionIDs); i++ {
			if typeAt(sel, i) != model.QuestionTypePractical {
				t.Fatalf("position %d should be practical", i)
			}
		}
	})

	t.Run("practical-first", func(t *testing.T) {
		cfg := testExamConfig()
		cfg.OrderMode = config.OrderPracticalFirst
		sel, err := SelectSession(bank, cfg, rand.New(rand.NewSource(2)))
		if err != nil {
			t.Fatalf("SelectSession failed: %v", err)
		}
		for i := 0; i < cfg.NumPractical; i++ {
			if typeAt(sel, i) != model.QuestionTypePractical {
				t.Fatalf("position %d should be practical", i)
			}
		}
	})

	t.Run("mixed", func(t *testing.T) {
		cfg := testExamConfig()
		cfg.OrderMode = config.OrderMixed
		sel, err := SelectSession(bank, cfg, rand.New(rand.NewSource(2)))
		if err != nil {
			t.Fatalf("SelectSession failed: %v", err)
		}
		if len(sel.QuestionIDs) != cfg.NumMCQ+cfg.NumPractical {
			t.Errorf("expected %d questions, got %d", cfg.NumMCQ+cfg.NumPractical, len(sel.QuestionIDs))
		}
	})
}

func TestSelectSessionNoShufflePreservesPoolOrder(t *testing.T) {
	bank := makeBank(60, 5)
	cfg := testExamConfig()
	cfg.ShuffleWithinType = false

	sel, err := SelectSession(bank, cfg, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("SelectSession failed: %v", err)
	}

	poolPos := make(map[string]int, len(bank))
	for i, q := range bank {
		poolPos[q.ID] = i
	}

	// With mcq-first ordering and no intra-group shuffle, the selected
	// MCQs must appear in ascending bank order.
	last := -1
	for i := 0; i < cfg.NumMCQ; i++ {
		pos := poolPos[sel.QuestionIDs[i]]
		if pos <= last {
			t.Fatalf("mcq group not in pool order at position %d", i)
		}
		last = pos
	}
}

func TestSelectSessionOptionPermutations(t *testing.T) {
	bank := makeBank(60, 5)
	// Give one question only 2 options to check permutation length tracks
	// the non-empty option count.
	bank[0].Options = [model.MaxOptions]string{"Yes", "No", "", ""}
	cfg := testExamConfig()

	sel, err := SelectSession(bank, cfg, rand.New(rand.NewSource(4)))
	if err != nil {
		t.Fatalf("SelectSession failed: %v", err)
	}

	byID := make(map[string]model.Question, len(bank))
	for _, q := range bank {
		byID[q.ID] = q
	}

	for _, qid := range sel.QuestionIDs {
		q := byID[qid]
		perm, hasPerm := sel.OptionPerms[qid]

		if q.Type == model.QuestionTypePractical {
			if hasPerm {
				t.Errorf("practical question %s should have no option permutation", qid)
			}
			continue
		}

		if !hasPerm {
			t.Fatalf("mcq %s missing option permutation", qid)
		}
		if len(perm) != q.OptionCount() {
			t.Errorf("perm length %d for %s, want %d", len(perm), qid, q.OptionCount())
		}
		seen := make(map[int]bool)
		for _, idx := range perm {
			if idx < 0 || idx >= q.OptionCount() || seen[idx] {
				t.Errorf("invalid permutation %v for %s", perm, qid)
				break
			}
			seen[idx] = true
		}
	}
}

func TestSelectSessionSeededReproducibility(t *testing.T) {
	bank := makeBank(60, 5)
	cfg := testExamConfig()

	a, err := SelectSession(bank, cfg, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("SelectSession failed: %v", err)
	}
	b, err := SelectSession(bank, cfg, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("SelectSession failed: %v", err)
	}

	if len(a.QuestionIDs) != len(b.QuestionIDs) {
		t.Fatal("selections differ in length")
	}
	for i := range a.QuestionIDs {
		if a.QuestionIDs[i] != b.QuestionIDs[i] {
			t.Fatalf("selections diverge at position %d", i)
		}
	}
}
