package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bpcprep/examportal-backend/internal/model"
)

// AttemptRepository persists completed exam attempts and serves history.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// Record inserts a completed attempt. The topic breakdown is stored as
// JSONB since the dashboard only ever reads it whole.
func (r *AttemptRepository) Record(ctx context.Context, a *model.ExamAttempt) error {
	breakdown, err := json.Marshal(a.TopicBreakdown)
	if err != nil {
		return fmt.Errorf("marshal topic breakdown: %w", err)
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_attempts
		   (user_id, started_at, completed_at, scored_marks, total_marks, percentage,
		    mcq_correct, mcq_percentage, mcq_passed, practical_attempts, passed, topic_breakdown)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id`,
		a.UserID, a.StartedAt, a.CompletedAt, a.ScoredMarks, a.TotalMarks, a.Percentage,
		a.MCQCorrect, a.MCQPercentage, a.MCQPassed, a.PracticalAttempts, a.Passed, breakdown,
	).Scan(&a.ID)
}

// ListByUser retrieves a user's attempt history, most recent first.
func (r *AttemptRepository) ListByUser(ctx context.Context, userID, limit, offset int) ([]model.ExamAttempt, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_attempts WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.user_id, u.username, a.started_at, a.completed_at,
		        a.scored_marks, a.total_marks, a.percentage,
		        a.mcq_correct, a.mcq_percentage, a.mcq_passed,
		        a.practical_attempts, a.passed, a.topic_breakdown
		 FROM exam_attempts a
		 JOIN users u ON u.id = a.user_id
		 WHERE a.user_id = $1
		 ORDER BY a.completed_at DESC
		 LIMIT $2 OFFSET $3`, userID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var attempts []model.ExamAttempt
	for rows.Next() {
		var a model.ExamAttempt
		var breakdown []byte
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.Username, &a.StartedAt, &a.CompletedAt,
			&a.ScoredMarks, &a.TotalMarks, &a.Percentage,
			&a.MCQCorrect, &a.MCQPercentage, &a.MCQPassed,
			&a.PracticalAttempts, &a.Passed, &breakdown,
		); err != nil {
			return nil, 0, err
		}
		if len(breakdown) > 0 {
			if err := json.Unmarshal(breakdown, &a.TopicBreakdown); err != nil {
				return nil, 0, fmt.Errorf("unmarshal topic breakdown: %w", err)
			}
		}
		attempts = append(attempts, a)
	}
	return attempts, total, rows.Err()
}
