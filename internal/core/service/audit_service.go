package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pulseapp/pulse-survey/internal/core/domain"
	"github.com/pulseapp/pulse-survey/internal/core/ports"
)

type auditService struct {
	logger zerolog.Logger
}

// NewAuditService returns an AuditService that writes the trail to the
// structured log under the "audit" component.
func NewAuditService(logger zerolog.Logger) ports.AuditService {
	return &auditService{logger: logger.With().Str("component", "audit").Logger()}
}

func (s *auditService) Record(ctx context.Context, event domain.AuditEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lvl := zerolog.InfoLevel
	if event.Action == domain.AuditLoginFailed || event.Action == domain.AuditUserPromoted {
		lvl = zerolog.WarnLevel
	}

	e := s.logger.WithLevel(lvl).
		Str("action", string(event.Action)).
		Str("actor", event.Actor).
		Time("occurred_at", event.OccurredAt)
	if event.Subject != "" {
		e = e.Str("subject", event.Subject)
	}
	e.Msg("audit")
	return nil
}
