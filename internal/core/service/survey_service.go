package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pulseapp/pulse-survey/internal/core/domain"
	"github.com/pulseapp/pulse-survey/internal/core/ports"
)

// CSVHeader is the fixed header row of the CSV export.
var CSVHeader = []string{"Survey ID", "User ID", "Response", "Submission Date"}

// csvTimeFormat renders timestamps as UTC ISO-8601 with milliseconds.
const csvTimeFormat = "2006-01-02T15:04:05.000Z"

type surveyService struct {
	repo   ports.SurveyRepository
	audit  ports.AuditSink
	logger zerolog.Logger

	now   func() time.Time
	newID func() string
}

// NewSurveyService returns a SurveyService implementation.
func NewSurveyService(repo ports.SurveyRepository, audit ports.AuditSink, logger zerolog.Logger) ports.SurveyService {
	if audit == nil {
		audit = ports.NopAuditSink{}
	}
	return &surveyService{
		repo:   repo,
		audit:  audit,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Submit stores a response owned by userID. Nothing is stored when the
// text is empty or longer than domain.MaxResponseLength.
func (s *surveyService) Submit(ctx context.Context, userID, response string) (*domain.Survey, error) {
	if err := domain.ValidateOwner(userID); err != nil {
		return nil, err
	}
	if err := domain.ValidateResponse(response); err != nil {
		return nil, err
	}

	now := s.now()
	survey := &domain.Survey{
		ID:        s.newID(),
		UserID:    userID,
		Response:  response,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, survey); err != nil {
		return nil, fmt.Errorf("submit survey: %w", err)
	}

	s.logger.Info().Str("survey_id", survey.ID).Str("user_id", userID).Msg("survey submitted")
	s.audit.Enqueue(domain.AuditEvent{
		Action:     domain.AuditSurveySubmitted,
		Actor:      userID,
		Subject:    survey.ID,
		OccurredAt: now,
	})
	return survey, nil
}

func (s *surveyService) ListOwn(ctx context.Context, userID string) ([]domain.Survey, error) {
	if err := domain.ValidateOwner(userID); err != nil {
		return nil, err
	}
	surveys, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	return nonNil(surveys), nil
}

func (s *surveyService) ListAll(ctx context.Context) ([]domain.Survey, error) {
	surveys, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all surveys: %w", err)
	}
	return nonNil(surveys), nil
}

// ExportJSON renders every survey as an indented JSON array, "[]" when empty.
func (s *surveyService) ExportJSON(ctx context.Context) ([]byte, error) {
	surveys, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	out, err := json.MarshalIndent(surveys, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export json: %w", err)
	}
	return out, nil
}

// ExportCSV renders every survey as CSV with a header row. The body is empty
// when there are no surveys.
func (s *surveyService) ExportCSV(ctx context.Context) ([]byte, error) {
	surveys, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(surveys) == 0 {
		return []byte{}, nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(CSVHeader); err != nil {
		return nil, fmt.Errorf("export csv: %w", err)
	}
	for _, sv := range surveys {
		row := []string{sv.ID, sv.UserID, sv.Response, sv.CreatedAt.UTC().Format(csvTimeFormat)}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("export csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("export csv: %w", err)
	}
	return buf.Bytes(), nil
}

func nonNil(surveys []domain.Survey) []domain.Survey {
	if surveys == nil {
		return []domain.Survey{}
	}
	return surveys
}
