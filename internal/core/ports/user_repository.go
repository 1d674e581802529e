package ports

import (
	"context"
	"time"

	"github.com/pulseapp/pulse-survey/internal/core/domain"
)

// UserRepository is the credential store.
type UserRepository interface {
	// FindByEmail returns the full record, password hash included.
	// Intended for credential checks only.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByID returns the record with the password hash stripped.
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// Create appends user, failing with domain.ErrUserExists when the email
	// is already taken. The returned record has no password hash.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// UpdateRole sets the role of the user with the given email in place.
	UpdateRole(ctx context.Context, email string, role domain.Role, at time.Time) (*domain.User, error)
}
