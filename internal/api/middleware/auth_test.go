package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/pulseapp/pulse-survey/internal/core/domain"
	"github.com/pulseapp/pulse-survey/internal/pkg/token"
)

func newTokens(t *testing.T) *token.Manager {
	t.Helper()
	m, err := token.NewManager("secret", time.Hour)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	return m
}

func runAuth(t *testing.T, header string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(newTokens(t))(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, called
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	signed, err := newTokens(t).Issue(&domain.User{ID: "u-1", Email: "alice@x.com", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(newTokens(t))(func(c echo.Context) error {
		called = true
		id, ok := IdentityFrom(c)
		if !ok {
			t.Fatalf("identity not set")
		}
		if id.UserID != "u-1" || id.Email != "alice@x.com" || id.Role != domain.RoleAdmin {
			t.Fatalf("unexpected identity: %+v", id)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_LowercaseScheme(t *testing.T) {
	signed, _ := newTokens(t).Issue(&domain.User{ID: "u-1", Email: "a@x.com", Role: domain.RoleEmployee})
	rec, called := runAuth(t, "bearer "+signed)
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	rec, called := runAuth(t, "")
	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	for _, h := range []string{"Token abc", "Bearer", "Bearer   "} {
		rec, called := runAuth(t, h)
		if called {
			t.Fatalf("%q: should not reach next", h)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%q: expected 401, got %d", h, rec.Code)
		}
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	rec, called := runAuth(t, "Bearer not-a-token")
	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	claims := token.Claims{
		Email: "alice@x.com",
		Role:  domain.RoleEmployee,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	rec, called := runAuth(t, "Bearer "+signed)
	if called {
		t.Fatalf("expired token must not reach next")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MissingRoleClaim(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "u-1",
		"email": "alice@x.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	rec, called := runAuth(t, "Bearer "+signed)
	if called {
		t.Fatalf("token without role must not reach next")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
