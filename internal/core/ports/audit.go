package ports

import (
	"context"

	"github.com/pulseapp/pulse-survey/internal/core/domain"
)

// AuditSink accepts audit events without blocking the caller.
type AuditSink interface {
	Enqueue(event domain.AuditEvent)
}

// AuditService processes a single audit event.
type AuditService interface {
	Record(ctx context.Context, event domain.AuditEvent) error
}

// NopAuditSink discards every event.
type NopAuditSink struct{}

func (NopAuditSink) Enqueue(domain.AuditEvent) {}
