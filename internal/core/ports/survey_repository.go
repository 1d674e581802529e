package ports

import (
	"context"

	"github.com/pulseapp/pulse-survey/internal/core/domain"
)

// SurveyRepository is the survey store. Both list operations return records
// newest-first by creation time.
type SurveyRepository interface {
	Create(ctx context.Context, s *domain.Survey) error
	ListByUser(ctx context.Context, userID string) ([]domain.Survey, error)
	ListAll(ctx context.Context) ([]domain.Survey, error)
}
