package service

import (
	"context"

	"github.com/bpcprep/examportal-backend/internal/model"
	"github.com/bpcprep/examportal-backend/internal/repository"
)

// AttemptService serves recorded attempt history.
type AttemptService struct {
	attemptRepo *repository.AttemptRepository
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(attemptRepo *repository.AttemptRepository) *AttemptService {
	return &AttemptService{attemptRepo: attemptRepo}
}

// History returns the user's attempts, newest first.
func (s *AttemptService) History(ctx context.Context, userID, page, perPage int) ([]model.ExamAttempt, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.attemptRepo.ListByUser(ctx, userID, perPage, (page-1)*perPage)
}
