package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/pulseapp/pulse-survey/internal/core/domain"
	"github.com/pulseapp/pulse-survey/internal/pkg/token"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users     map[string]*domain.User // keyed by email
	findErr   error
	createErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u.Public(), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, exists := r.users[user.Email]; exists {
		return nil, domain.ErrUserExists
	}
	clone := *user
	r.users[user.Email] = &clone
	return clone.Public(), nil
}

func (r *stubUserRepo) UpdateRole(_ context.Context, email string, role domain.Role, at time.Time) (*domain.User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Role = role
	u.UpdatedAt = at
	return u.Public(), nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (s *recordingSink) Enqueue(e domain.AuditEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) actions() []domain.AuditAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AuditAction, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Action)
	}
	return out
}

func newTestAuthService(t *testing.T) (*AuthService, *stubUserRepo, *recordingSink) {
	t.Helper()
	tokens, err := token.NewManager("secret", time.Hour)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	repo := newStubUserRepo()
	sink := &recordingSink{}
	svc := NewAuthService(repo, tokens, sink, zerolog.Nop())
	return svc, repo, sink
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestAuthService_Register_Success(t *testing.T) {
	svc, repo, sink := newTestAuthService(t)

	user, err := svc.Register(context.Background(), "alice@x.com", "password123")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.PasswordHash != "" {
		t.Fatalf("returned user must not carry a password hash")
	}
	if user.Role != domain.RoleEmployee {
		t.Fatalf("expected role employee, got %s", user.Role)
	}
	if user.ID == "" || user.CreatedAt.IsZero() || !user.CreatedAt.Equal(user.UpdatedAt) {
		t.Fatalf("expected id and matching timestamps, got %+v", user)
	}

	stored := repo.users["alice@x.com"]
	if stored.PasswordHash == "password123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if cost, _ := bcrypt.Cost([]byte(stored.PasswordHash)); cost != PasswordCost {
		t.Fatalf("expected bcrypt cost %d, got %d", PasswordCost, cost)
	}

	if got := sink.actions(); len(got) != 1 || got[0] != domain.AuditUserRegistered {
		t.Fatalf("expected one user_registered audit event, got %v", got)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)

	cases := []struct {
		name, email, password, field string
	}{
		{"empty email", "", "password123", "email"},
		{"malformed email", "alice", "password123", "email"},
		{"empty password", "alice@x.com", "", "password"},
		{"oversized password", "alice@x.com", strings.Repeat("p", 73), "password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.email, tc.password)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if ve.Fields[0].Field != tc.field {
				t.Fatalf("expected field %q, got %+v", tc.field, ve.Fields)
			}
		})
	}
	if len(repo.users) != 0 {
		t.Fatalf("no user should be stored, got %d", len(repo.users))
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)

	if _, err := svc.Register(context.Background(), "bob@x.com", "password123"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(context.Background(), "bob@x.com", "other-pass"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if len(repo.users) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(repo.users))
	}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestAuthService_Login_Success(t *testing.T) {
	svc, _, sink := newTestAuthService(t)

	registered, err := svc.Register(context.Background(), "carol@x.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	tkn, user, err := svc.Login(context.Background(), "carol@x.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if tkn == "" {
		t.Fatalf("expected token, got empty")
	}
	if user.PasswordHash != "" {
		t.Fatalf("login must not return the password hash")
	}

	id, err := svc.tokens.Parse(tkn)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if id.UserID != registered.ID || id.Email != "carol@x.com" || id.Role != domain.RoleEmployee {
		t.Fatalf("token identity mismatch: %+v", id)
	}

	got := sink.actions()
	if got[len(got)-1] != domain.AuditLoginSucceeded {
		t.Fatalf("expected login_succeeded audit event, got %v", got)
	}
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	svc, _, sink := newTestAuthService(t)
	_, _ = svc.Register(context.Background(), "dave@x.com", "goodpass")

	_, _, wrongPass := svc.Login(context.Background(), "dave@x.com", "badpass")
	_, _, unknown := svc.Login(context.Background(), "ghost@x.com", "goodpass")
	_, _, empty := svc.Login(context.Background(), "", "")

	for name, err := range map[string]error{"wrong password": wrongPass, "unknown email": unknown, "empty": empty} {
		if err != domain.ErrInvalidCredentials {
			t.Fatalf("%s: expected ErrInvalidCredentials, got %v", name, err)
		}
	}

	failed := 0
	for _, a := range sink.actions() {
		if a == domain.AuditLoginFailed {
			failed++
		}
	}
	if failed != 3 {
		t.Fatalf("expected 3 login_failed events, got %d", failed)
	}
}

func TestAuthService_Login_RepositoryError(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	repo.findErr = errors.New("store offline")

	_, _, err := svc.Login(context.Background(), "eve@x.com", "password123")
	if err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected a wrapped store error, got %v", err)
	}
}

func TestAuthService_ValidateCredentials(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	_, _ = svc.Register(context.Background(), "frank@x.com", "password123")

	user, err := svc.ValidateCredentials(context.Background(), "frank@x.com", "password123")
	if err != nil || user == nil {
		t.Fatalf("expected match, got user=%v err=%v", user, err)
	}
	if user.PasswordHash != "" {
		t.Fatalf("expected public projection")
	}

	for _, pw := range []string{"wrong", ""} {
		user, err := svc.ValidateCredentials(context.Background(), "frank@x.com", pw)
		if err != nil || user != nil {
			t.Fatalf("password %q: expected nil, nil; got %v, %v", pw, user, err)
		}
	}
	if user, err := svc.ValidateCredentials(context.Background(), "nobody@x.com", "password123"); err != nil || user != nil {
		t.Fatalf("unknown email: expected nil, nil; got %v, %v", user, err)
	}
}

// ---------------------------------------------------------------------------
// Seed + promotion
// ---------------------------------------------------------------------------

func TestAuthService_SeedAdmin(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)

	admin, err := svc.SeedAdmin(context.Background(), "admin@test.com", "password123")
	if err != nil {
		t.Fatalf("SeedAdmin: %v", err)
	}
	if admin.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %s", admin.Role)
	}

	again, err := svc.SeedAdmin(context.Background(), "admin@test.com", "password123")
	if err != nil {
		t.Fatalf("second SeedAdmin should be a no-op, got %v", err)
	}
	if again.ID != admin.ID || again.PasswordHash != "" {
		t.Fatalf("expected the existing public record, got %+v", again)
	}
	if len(repo.users) != 1 {
		t.Fatalf("expected one record, got %d", len(repo.users))
	}
}

func TestAuthService_PromoteToAdmin(t *testing.T) {
	svc, _, sink := newTestAuthService(t)
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	alice, _ := svc.Register(context.Background(), "alice@x.com", "password123")
	clock = clock.Add(time.Minute)

	promoted, err := svc.PromoteToAdmin(context.Background(), "alice@x.com")
	if err != nil {
		t.Fatalf("PromoteToAdmin: %v", err)
	}
	if promoted.ID != alice.ID || promoted.Role != domain.RoleAdmin {
		t.Fatalf("unexpected promoted user: %+v", promoted)
	}
	if !promoted.UpdatedAt.Equal(clock) || !promoted.CreatedAt.Equal(alice.CreatedAt) {
		t.Fatalf("expected only updated_at to move, got %+v", promoted)
	}

	got := sink.actions()
	if got[len(got)-1] != domain.AuditUserPromoted {
		t.Fatalf("expected user_promoted audit event, got %v", got)
	}

	if _, err := svc.PromoteToAdmin(context.Background(), "ghost@x.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
