package exam

import (
	"reflect"
	"testing"
	"time"

	"github.com/bpcprep/examportal-backend/internal/model"
)

func scoringQuestions() []model.Question {
	return []model.Question{
		{ID: "m1", Type: model.QuestionTypeMCQ, Topic: "Estimating", Prompt: "Q1", Options: [model.MaxOptions]string{"A", "B", "C", "D"}, CorrectIndex: 1, Marks: 1},
		{ID: "m2", Type: model.QuestionTypeMCQ, Topic: "Estimating", Prompt: "Q2", Options: [model.MaxOptions]string{"A", "B", "C", "D"}, CorrectIndex: 0, Marks: 1},
		{ID: "m3", Type: model.QuestionTypeMCQ, Topic: "Safety", Prompt: "Q3", Options: [model.MaxOptions]string{"True", "False", "", ""}, CorrectIndex: 1, Marks: 2},
		{ID: "p1", Type: model.QuestionTypePractical, Topic: "Plan Reading", Prompt: "P1", Marks: 25},
	}
}

func sessionFor(questions []model.Question, answers map[string]model.UserAnswer) *model.ExamSession {
	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	submitted := start.Add(50 * time.Minute)
	return &model.ExamSession{
		SessionID:   "score-test",
		QuestionIDs: ids,
		StartedAt:   start,
		Answers:     answers,
		Flagged:     map[string]struct{}{},
		Submitted:   true,
		SubmittedAt: &submitted,
	}
}

func TestScorePartialAnswers(t *testing.T) {
	questions := scoringQuestions()
	cfg := testExamConfig()

	// m1 correct, m2 wrong, m3 unanswered, p1 attempted.
	sess := sessionFor(questions, map[string]model.UserAnswer{
		"m1": {QuestionID: "m1", SelectedOption: intPtr(1)},
		"m2": {QuestionID: "m2", SelectedOption: intPtr(3)},
		"p1": {QuestionID: "p1", DrawingArtifact: "data:image/png;base64,abc"},
	})

	res := Score(questions, sess, cfg)

	if res.TotalQuestions != 4 {
		t.Errorf("TotalQuestions = %d, want 4", res.TotalQuestions)
	}
	if res.AnsweredQuestions != 3 {
		t.Errorf("AnsweredQuestions = %d, want 3", res.AnsweredQuestions)
	}
	if res.CorrectAnswers != 1 {
		t.Errorf("CorrectAnswers = %d, want 1", res.CorrectAnswers)
	}
	if res.MCQ.Total != 3 || res.MCQ.Correct != 1 {
		t.Errorf("MCQ component = %+v", res.MCQ)
	}
	if res.MCQ.TotalMarks != 4 || res.MCQ.ScoredMarks != 1 {
		t.Errorf("MCQ marks = %d/%d, want 1/4", res.MCQ.ScoredMarks, res.MCQ.TotalMarks)
	}
	if res.MCQ.Percentage != 25 {
		t.Errorf("MCQ percentage = %v, want 25", res.MCQ.Percentage)
	}
	if res.PracticalTotal != 1 || res.PracticalAnswered != 1 {
		t.Errorf("practical counts = %d/%d", res.PracticalAnswered, res.PracticalTotal)
	}
	if res.TimeTakenSeconds != 3000 {
		t.Errorf("TimeTakenSeconds = %d, want 3000", res.TimeTakenSeconds)
	}
}

func TestScoreTopicBreakdownSortedAndComplete(t *testing.T) {
	questions := scoringQuestions()
	sess := sessionFor(questions, map[string]model.UserAnswer{
		"m1": {QuestionID: "m1", SelectedOption: intPtr(1)},
		"m2": {QuestionID: "m2", SelectedOption: intPtr(0)},
	})

	res := Score(questions, sess, testExamConfig())

	wantTopics := []string{"Estimating", "Plan Reading", "Safety"}
	if len(res.TopicBreakdown) != len(wantTopics) {
		t.Fatalf("breakdown has %d topics, want %d", len(res.TopicBreakdown), len(wantTopics))
	}
	for i, ts := range res.TopicBreakdown {
		if ts.Topic != wantTopics[i] {
			t.Fatalf("breakdown order: got %s at %d, want %s", ts.Topic, i, wantTopics[i])
		}
	}

	estimating := res.TopicBreakdown[0]
	if estimating.Total != 2 || estimating.Correct != 2 || estimating.Percentage != 100 {
		t.Errorf("Estimating topic = %+v", estimating)
	}
	// Practical-only topic has attempted=0 and no auto-gradable marks.
	planReading := res.TopicBreakdown[1]
	if planReading.Percentage != 0 {
		t.Errorf("Plan Reading percentage = %v, want 0", planReading.Percentage)
	}
}

func TestScoreDeterministic(t *testing.T) {
	questions := scoringQuestions()
	sess := sessionFor(questions, map[string]model.UserAnswer{
		"m1": {QuestionID: "m1", SelectedOption: intPtr(1)},
		"p1": {QuestionID: "p1", DrawingArtifact: "sketch"},
	})
	cfg := testExamConfig()

	a := Score(questions, sess, cfg)
	b := Score(questions, sess, cfg)
	if !reflect.DeepEqual(a, b) {
		t.Error("identical inputs produced different reports")
	}
}

func TestScoreEmptyQuestionSet(t *testing.T) {
	sess := sessionFor(nil, map[string]model.UserAnswer{})

	res := Score(nil, sess, testExamConfig())

	if res.Percentage != 0 || res.MCQ.Percentage != 0 {
		t.Errorf("empty set should score 0%%, got overall=%v mcq=%v", res.Percentage, res.MCQ.Percentage)
	}
	if len(res.TopicBreakdown) != 0 {
		t.Errorf("empty set should have no topics, got %d", len(res.TopicBreakdown))
	}
}

func TestScoreTwoOptionQuestion(t *testing.T) {
	questions := []model.Question{
		{ID: "m1", Type: model.QuestionTypeMCQ, Topic: "Safety", Prompt: "T/F", Options: [model.MaxOptions]string{"True", "False", "", ""}, CorrectIndex: 1, Marks: 1},
	}
	sess := sessionFor(questions, map[string]model.UserAnswer{
		"m1": {QuestionID: "m1", SelectedOption: intPtr(1)},
	})

	res := Score(questions, sess, testExamConfig())
	if res.CorrectAnswers != 1 || res.MCQ.Percentage != 100 {
		t.Errorf("two-option question not graded: %+v", res.MCQ)
	}
}

func TestScoreDualComponentPassRule(t *testing.T) {
	mcqOnly := []model.Question{
		{ID: "m1", Type: model.QuestionTypeMCQ, Topic: "Estimating", Prompt: "Q", Options: [model.MaxOptions]string{"A", "B", "C", "D"}, CorrectIndex: 0, Marks: 1},
	}
	withPractical := append(append([]model.Question{}, mcqOnly...), model.Question{
		ID: "p1", Type: model.QuestionTypePractical, Topic: "Plan Reading", Prompt: "P", Marks: 25,
	})
	allCorrect := map[string]model.UserAnswer{
		"m1": {QuestionID: "m1", SelectedOption: intPtr(0)},
		"p1": {QuestionID: "p1", DrawingArtifact: "sketch"},
	}

	t.Run("mcq-only attempt can self-certify", func(t *testing.T) {
		cfg := testExamConfig()
		res := Score(mcqOnly, sessionFor(mcqOnly, allCorrect), cfg)
		if !res.MCQ.Passed || !res.OverallPassed {
			t.Errorf("perfect mcq-only attempt should pass: mcq=%v overall=%v", res.MCQ.Passed, res.OverallPassed)
		}
	})

	t.Run("practical presence blocks self-certification", func(t *testing.T) {
		cfg := testExamConfig()
		res := Score(withPractical, sessionFor(withPractical, allCorrect), cfg)
		if !res.MCQ.Passed {
			t.Error("mcq component should pass")
		}
		if res.OverallPassed {
			t.Error("overall pass must stay false while practical awaits manual grading")
		}
	})

	t.Run("single-component mode uses overall threshold", func(t *testing.T) {
		cfg := testExamConfig()
		cfg.DualComponentRequired = false
		res := Score(withPractical, sessionFor(withPractical, allCorrect), cfg)
		// 1 of 26 marks auto-scored is below the 70% threshold.
		if res.OverallPassed {
			t.Error("overall should fail the threshold in single-component mode")
		}
	})

	t.Run("mcq below threshold fails", func(t *testing.T) {
		cfg := testExamConfig()
		res := Score(mcqOnly, sessionFor(mcqOnly, nil), cfg)
		if res.MCQ.Passed || res.OverallPassed {
			t.Error("unanswered attempt should not pass")
		}
	})
}

func TestScoreTimeTakenClamping(t *testing.T) {
	questions := scoringQuestions()
	cfg := testExamConfig()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	newSess := func(submittedAt *time.Time) *model.ExamSession {
		return &model.ExamSession{
			SessionID:   "clamp-test",
			QuestionIDs: []string{"m1"},
			StartedAt:   start,
			Answers:     map[string]model.UserAnswer{},
			Submitted:   submittedAt != nil,
			SubmittedAt: submittedAt,
		}
	}
	at := func(d time.Duration) *time.Time {
		ts := start.Add(d)
		return &ts
	}

	cases := []struct {
		name string
		sess *model.ExamSession
		want int
	}{
		{"unsubmitted reports full duration", newSess(nil), cfg.DurationSeconds},
		{"normal submit", newSess(at(40 * time.Minute)), 2400},
		{"late submit clamps to duration", newSess(at(5 * time.Hour)), cfg.DurationSeconds},
		{"clock skew clamps to zero", newSess(at(-1 * time.Minute)), 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Score(questions, tc.sess, cfg)
			if res.TimeTakenSeconds != tc.want {
				t.Errorf("TimeTakenSeconds = %d, want %d", res.TimeTakenSeconds, tc.want)
			}
		})
	}
}
