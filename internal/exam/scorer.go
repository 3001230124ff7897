package exam

import (
	"sort"
	"time"

	"github.com/bpcprep/examportal-backend/internal/config"
	"github.com/bpcprep/examportal-backend/internal/model"
)

type topicStats struct {
	total       int
	correct     int
	totalMarks  int
	scoredMarks int
}

// Score computes the results report for a submitted session. It is a pure
// function: deterministic over (questions, sess, cfg), no side effects, and
// the returned report is never mutated afterwards.
//
// MCQ questions are auto-graded against CorrectIndex. Practical questions
// are not auto-gradable: only the attempted count is tracked, and an
// attempted practical increments its topic's "correct" tally as an attempted
// marker. In dual-component mode the overall pass flag is therefore only
// self-certifiable when the attempt contains zero practical questions; any
// practical presence requires external manual grading to finalize pass
// status. This asymmetry is deliberate; do not "fix" it here.
func Score(questions []model.Question, sess *model.ExamSession, cfg config.ExamConfig) model.ExamResults {
	var (
		correctAnswers int
		totalMarks     int
		scoredMarks    int

		mcqTotal       int
		mcqCorrect     int
		mcqMarks       int
		mcqScoredMarks int

		practicalTotal    int
		practicalAnswered int
	)

	topics := make(map[string]*topicStats)

	for i := range questions {
		q := &questions[i]
		totalMarks += q.Marks

		stats, ok := topics[q.Topic]
		if !ok {
			stats = &topicStats{}
			topics[q.Topic] = stats
		}
		stats.total++
		stats.totalMarks += q.Marks

		ans, answered := sess.Answers[q.ID]

		switch q.Type {
		case model.QuestionTypeMCQ:
			mcqTotal++
			mcqMarks += q.Marks

			if answered && ans.SelectedOption != nil && *ans.SelectedOption == q.CorrectIndex {
				correctAnswers++
				mcqCorrect++
				scoredMarks += q.Marks
				mcqScoredMarks += q.Marks
				stats.correct++
				stats.scoredMarks += q.Marks
			}

		case model.QuestionTypePractical:
			practicalTotal++
			if answered && ans.DrawingArtifact != "" {
				practicalAnswered++
				stats.correct++ // Attempted marker, not graded correctness.
			}
		}
	}

	breakdown := make([]model.TopicScore, 0, len(topics))
	for topic, stats := range topics {
		breakdown = append(breakdown, model.TopicScore{
			Topic:      topic,
			Total:      stats.total,
			Correct:    stats.correct,
			Percentage: percentage(stats.scoredMarks, stats.totalMarks),
		})
	}
	// Map iteration order is random; sort so identical inputs produce
	// identical reports.
	sort.Slice(breakdown, func(i, j int) bool { return breakdown[i].Topic < breakdown[j].Topic })

	answeredCount := 0
	for _, ans := range sess.Answers {
		if ans.SelectedOption != nil || ans.DrawingArtifact != "" {
			answeredCount++
		}
	}

	mcqPercentage := percentage(mcqScoredMarks, mcqMarks)
	overallPercentage := percentage(scoredMarks, totalMarks)
	mcqPassed := mcqPercentage >= cfg.MCQPassThreshold

	var overallPassed bool
	if cfg.DualComponentRequired {
		// Self-certifiable only with no practical component; see doc above.
		overallPassed = mcqPassed && practicalTotal == 0
	} else {
		overallPassed = overallPercentage >= cfg.PassThreshold
	}

	return model.ExamResults{
		TotalQuestions:    len(questions),
		AnsweredQuestions: answeredCount,
		CorrectAnswers:    correctAnswers,
		TotalMarks:        totalMarks,
		ScoredMarks:       scoredMarks,
		Percentage:        overallPercentage,
		TopicBreakdown:    breakdown,
		TimeTakenSeconds:  timeTaken(sess, cfg.DurationSeconds),
		MCQ: model.ComponentResult{
			Total:       mcqTotal,
			Correct:     mcqCorrect,
			TotalMarks:  mcqMarks,
			ScoredMarks: mcqScoredMarks,
			Percentage:  mcqPercentage,
			Passed:      mcqPassed,
		},
		PracticalTotal:    practicalTotal,
		PracticalAnswered: practicalAnswered,
		DualComponent:     cfg.DualComponentRequired,
		OverallPassed:     overallPassed,
	}
}

// percentage guards against empty denominators: a topic or component with
// zero total marks scores 0, never NaN.
func percentage(scored, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(scored) / float64(total) * 100
}

// timeTaken derives elapsed seconds from the submission timestamp, clamped
// to [0, durationSeconds]. An unsubmitted session reports the full duration.
func timeTaken(sess *model.ExamSession, durationSeconds int) int {
	if sess.SubmittedAt == nil {
		return durationSeconds
	}
	elapsed := int(sess.SubmittedAt.Sub(sess.StartedAt) / time.Second)
	if elapsed < 0 {
		return 0
	}
	if elapsed > durationSeconds {
		return durationSeconds
	}
	return elapsed
}
