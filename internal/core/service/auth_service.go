package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/pulseapp/pulse-survey/internal/core/domain"
	"github.com/pulseapp/pulse-survey/internal/core/ports"
	"github.com/pulseapp/pulse-survey/internal/pkg/token"
)

// PasswordCost is the bcrypt work factor applied to every stored password.
const PasswordCost = 10

// dummyHash is compared against when the email is unknown so that a miss
// costs about as much as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("pulse-dummy-password"), PasswordCost)

// AuthService implements registration, credential checks and token issuance.
type AuthService struct {
	repo   ports.UserRepository
	tokens *token.Manager
	audit  ports.AuditSink
	logger zerolog.Logger

	now   func() time.Time
	newID func() string
}

func NewAuthService(repo ports.UserRepository, tokens *token.Manager, audit ports.AuditSink, logger zerolog.Logger) *AuthService {
	if audit == nil {
		audit = ports.NopAuditSink{}
	}
	return &AuthService{
		repo:   repo,
		tokens: tokens,
		audit:  audit,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Register creates an Employee account. The returned user has no password hash.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	if err := validateCredentialsInput(email, password); err != nil {
		return nil, err
	}

	user, err := s.create(ctx, email, password, domain.RoleEmployee)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user registered")
	s.record(domain.AuditUserRegistered, user.ID, "")
	return user, nil
}

// ValidateCredentials returns the public projection of the user on a match
// and nil otherwise. An unknown email and a wrong password are
// indistinguishable to the caller.
func (s *AuthService) ValidateCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("validate credentials: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, nil
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil
	}
	return user.Public(), nil
}

// IssueToken signs a bearer token carrying the user's id, email and role.
func (s *AuthService) IssueToken(user *domain.User) (string, error) {
	return s.tokens.Issue(user)
}

// Login checks credentials and, on success, issues a token.
// Every credential failure is reported as domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if email == "" || password == "" {
		s.record(domain.AuditLoginFailed, email, "")
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.ValidateCredentials(ctx, email, password)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		s.logger.Debug().Msg("login rejected")
		s.record(domain.AuditLoginFailed, email, "")
		return "", nil, domain.ErrInvalidCredentials
	}

	tkn, err := s.IssueToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}

	s.record(domain.AuditLoginSucceeded, user.ID, "")
	return tkn, user, nil
}

// SeedAdmin inserts an Admin account at bootstrap. An existing account with
// the same email is left untouched.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password string) (*domain.User, error) {
	if err := validateCredentialsInput(email, password); err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}

	user, err := s.create(ctx, email, password, domain.RoleAdmin)
	if errors.Is(err, domain.ErrUserExists) {
		s.logger.Info().Str("email", email).Msg("seed admin already present")
		existing, findErr := s.repo.FindByEmail(ctx, email)
		if findErr != nil {
			return nil, fmt.Errorf("seed admin: %w", findErr)
		}
		return existing.Public(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Msg("seed admin created")
	return user, nil
}

// PromoteToAdmin flips the role of the account with the given email to Admin.
//
// There is no authorization check here and no route reaches it. Callers are
// operators and tests running in-process; do not expose it over HTTP.
func (s *AuthService) PromoteToAdmin(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.repo.UpdateRole(ctx, email, domain.RoleAdmin, s.now())
	if err != nil {
		return nil, err
	}

	s.logger.Warn().Str("user_id", user.ID).Msg("user promoted to admin")
	s.record(domain.AuditUserPromoted, user.ID, string(domain.RoleAdmin))
	return user, nil
}

func (s *AuthService) create(ctx context.Context, email, password string, role domain.Role) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	return s.repo.Create(ctx, &domain.User{
		ID:           s.newID(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (s *AuthService) record(action domain.AuditAction, actor, subject string) {
	s.audit.Enqueue(domain.AuditEvent{
		Action:     action,
		Actor:      actor,
		Subject:    subject,
		OccurredAt: s.now(),
	})
}

// validateCredentialsInput is the service-side guard; the HTTP layer runs the
// stricter tag validation before this.
func validateCredentialsInput(email, password string) error {
	var fields []domain.FieldError
	switch {
	case strings.TrimSpace(email) == "":
		fields = append(fields, domain.FieldError{Field: "email", Message: "email is required"})
	case !strings.Contains(email, "@"):
		fields = append(fields, domain.FieldError{Field: "email", Message: "email must be a valid email"})
	}
	switch {
	case password == "":
		fields = append(fields, domain.FieldError{Field: "password", Message: "password is required"})
	case len(password) > 72:
		// bcrypt ignores everything past 72 bytes.
		fields = append(fields, domain.FieldError{Field: "password", Message: "password must be at most 72 characters"})
	}
	if len(fields) > 0 {
		return domain.NewValidationError(fields...)
	}
	return nil
}
