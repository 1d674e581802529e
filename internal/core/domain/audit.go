package domain

import "time"

// AuditAction names something worth recording in the audit trail.
type AuditAction string

const (
	AuditUserRegistered  AuditAction = "user_registered"
	AuditLoginSucceeded  AuditAction = "login_succeeded"
	AuditLoginFailed     AuditAction = "login_failed"
	AuditSurveySubmitted AuditAction = "survey_submitted"
	AuditSurveysExported AuditAction = "surveys_exported"
	AuditUserPromoted    AuditAction = "user_promoted"
)

// AuditEvent is a single audit trail entry. Actor is a user ID when known,
// otherwise the email that was presented.
type AuditEvent struct {
	Action     AuditAction
	Actor      string
	Subject    string // optional: affected record ID, export format, ...
	OccurredAt time.Time
}
