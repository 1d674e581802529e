// Package token issues and verifies the HS256 bearer tokens handed out at
// login. The payload is signed, not encrypted:
//
//	{ "sub": <user id>, "email": <string>, "role": "employee"|"admin", "iat", "exp" }
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pulseapp/pulse-survey/internal/core/domain"
)

var (
	ErrMissingSecret = errors.New("token: signing secret not configured")
	ErrInvalidToken  = errors.New("token: invalid token")
	ErrMissingClaims = errors.New("token: missing required claims")
)

// Claims is the JWT payload.
type Claims struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Manager signs and parses tokens with a single process-wide secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager returns a Manager. ttl <= 0 falls back to one hour.
func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime applied to issued tokens.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue signs a token for the given user.
func (m *Manager) Issue(user *domain.User) (string, error) {
	now := m.now()
	claims := Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature and expiry and decodes the identity.
// A token lacking sub, email or role is rejected.
func (m *Manager) Parse(raw string) (domain.Identity, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	var claims Claims
	tkn, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil || !tkn.Valid {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" || claims.Email == "" || claims.Role == "" {
		return domain.Identity{}, ErrMissingClaims
	}

	return domain.Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}
