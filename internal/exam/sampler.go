package exam

import (
	"math/rand"
	"sort"

	"github.com/bpcprep/examportal-backend/internal/config"
	"github.com/bpcprep/examportal-backend/internal/model"
)

// Selection is the sampler output: the session's question order plus the
// per-question option display permutations for its MCQs.
type Selection struct {
	QuestionIDs []string
	OptionPerms map[string][]int
}

// SelectSession draws the configured number of MCQ and practical questions
// from the bank without replacement, orders them per cfg, and produces a
// uniform random option permutation for every selected MCQ.
//
// The function is pure over (bank, rng): it never mutates the bank and all
// randomness comes from rng, so a seeded source reproduces a selection.
func SelectSession(bank []model.Question, cfg config.ExamConfig, rng *rand.Rand) (*Selection, error) {
	var mcqPool, practicalPool []*model.Question
	for i := range bank {
		switch bank[i].Type {
		case model.QuestionTypeMCQ:
			mcqPool = append(mcqPool, &bank[i])
		case model.QuestionTypePractical:
			practicalPool = append(practicalPool, &bank[i])
		}
	}

	if len(mcqPool) < cfg.NumMCQ {
		return nil, &InsufficientPoolError{Type: model.QuestionTypeMCQ, Need: cfg.NumMCQ, Have: len(mcqPool)}
	}
	if len(practicalPool) < cfg.NumPractical {
		return nil, &InsufficientPoolError{Type: model.QuestionTypePractical, Need: cfg.NumPractical, Have: len(practicalPool)}
	}

	mcqs := drawWithoutReplacement(mcqPool, cfg.NumMCQ, cfg.ShuffleWithinType, rng)
	practicals := drawWithoutReplacement(practicalPool, cfg.NumPractical, cfg.ShuffleWithinType, rng)

	var ordered []*model.Question
	switch cfg.OrderMode {
	case config.OrderPracticalFirst:
		ordered = append(ordered, practicals...)
		ordered = append(ordered, mcqs...)
	case config.OrderMixed:
		ordered = append(ordered, mcqs...)
		ordered = append(ordered, practicals...)
		rng.Shuffle(len(ordered), func(i, j int) {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		})
	default: // mcq-first
		ordered = append(ordered, mcqs...)
		ordered = append(ordered, practicals...)
	}

	sel := &Selection{
		QuestionIDs: make([]string, 0, len(ordered)),
		OptionPerms: make(map[string][]int, len(mcqs)),
	}
	for _, q := range ordered {
		sel.QuestionIDs = append(sel.QuestionIDs, q.ID)
		if q.Type == model.QuestionTypeMCQ {
			sel.OptionPerms[q.ID] = rng.Perm(q.OptionCount())
		}
	}

	return sel, nil
}

// drawWithoutReplacement picks n distinct questions from pool. With shuffle
// the drawn group keeps its random draw order; without it the group is
// restored to bank (pool) order.
func drawWithoutReplacement(pool []*model.Question, n int, shuffle bool, rng *rand.Rand) []*model.Question {
	indices := rng.Perm(len(pool))[:n]
	if !shuffle {
		sort.Ints(indices)
	}

	drawn := make([]*model.Question, 0, n)
	for _, idx := range indices {
		drawn = append(drawn, pool[idx])
	}
	return drawn
}
