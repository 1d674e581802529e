package ports

import (
	"context"

	"github.com/pulseapp/pulse-survey/internal/core/domain"
)

// SurveyService defines use-case operations for survey responses.
type SurveyService interface {
	Submit(ctx context.Context, userID, response string) (*domain.Survey, error)
	ListOwn(ctx context.Context, userID string) ([]domain.Survey, error)
	ListAll(ctx context.Context) ([]domain.Survey, error)
	ExportJSON(ctx context.Context) ([]byte, error)
	ExportCSV(ctx context.Context) ([]byte, error)
}
