package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/rs/zerolog"

	"github.com/pulseapp/pulse-survey/internal/api"
	"github.com/pulseapp/pulse-survey/internal/core/service"
	"github.com/pulseapp/pulse-survey/internal/infrastructure/db/memory"
	"github.com/pulseapp/pulse-survey/internal/pkg/token"
)

type harness struct {
	url     string
	session string
}

func newHarness(c *qt.C) *harness {
	tokens, err := token.NewManager("cli-test-secret", time.Hour)
	c.Assert(err, qt.IsNil)

	db := memory.Open()
	authSvc := service.NewAuthService(memory.NewUserRepository(db), tokens, nil, zerolog.Nop())
	_, err = authSvc.SeedAdmin(context.Background(), "admin@test.com", "password123")
	c.Assert(err, qt.IsNil)

	srv := httptest.NewServer(api.NewRouter(api.Deps{
		Log:           zerolog.Nop(),
		Tokens:        tokens,
		AuthService:   authSvc,
		SurveyService: service.NewSurveyService(memory.NewSurveyRepository(db), nil, zerolog.Nop()),
		LoginLimiter:  memory.NewLoginLimiter(5, time.Minute),
	}))
	c.Cleanup(srv.Close)

	return &harness{url: srv.URL, session: filepath.Join(c.TempDir(), "session.json")}
}

func (h *harness) run(args ...string) (string, error) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--api", h.url, "--session", h.session}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_EmployeeFlow(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c)

	out, err := h.run("register", "--email", "alice@x.com", "--password", "password123")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "registered alice@x.com (employee)\n")

	_, err = h.run("whoami")
	c.Assert(err, qt.ErrorMatches, "not logged in")

	out, err = h.run("login", "--email", "alice@x.com", "--password", "password123")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "logged in as alice@x.com (employee)\n")

	out, err = h.run("whoami")
	c.Assert(err, qt.IsNil)
	c.Assert(strings.HasSuffix(out, "\talice@x.com\temployee\n"), qt.IsTrue)

	out, err = h.run("history")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "no responses yet\n")

	out, err = h.run("submit", "retro", "felt", "productive")
	c.Assert(err, qt.IsNil)
	c.Assert(strings.HasPrefix(out, "submitted "), qt.IsTrue)

	out, err = h.run("history")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "retro felt productive")

	_, err = h.run("admin", "list")
	c.Assert(err, qt.ErrorMatches, "admin role required")

	out, err = h.run("logout")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "logged out\n")
	_, err = os.Stat(h.session)
	c.Assert(os.IsNotExist(err), qt.IsTrue)
}

func TestCLI_AdminExport(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c)

	_, err := h.run("register", "--email", "bob@x.com", "--password", "password123")
	c.Assert(err, qt.IsNil)
	_, err = h.run("login", "--email", "bob@x.com", "--password", "password123")
	c.Assert(err, qt.IsNil)
	_, err = h.run("submit", "more coffee")
	c.Assert(err, qt.IsNil)

	_, err = h.run("login", "--email", "admin@test.com", "--password", "password123")
	c.Assert(err, qt.IsNil)

	out, err := h.run("admin", "list")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "USER")
	c.Assert(out, qt.Contains, "more coffee")

	out, err = h.run("admin", "export")
	c.Assert(err, qt.IsNil)
	c.Assert(strings.HasPrefix(out, "Survey ID,User ID,Response,Submission Date\n"), qt.IsTrue)

	dest := filepath.Join(c.TempDir(), "surveys.json")
	_, err = h.run("admin", "export", "--format", "json", "--out", dest)
	c.Assert(err, qt.IsNil)
	raw, err := os.ReadFile(dest)
	c.Assert(err, qt.IsNil)
	c.Assert(string(raw), qt.Contains, `"response": "more coffee"`)
}

func TestCLI_Errors(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c)

	_, err := h.run("register", "--email", "x@x.com")
	c.Assert(err, qt.ErrorMatches, "both --email and --password are required")

	_, err = h.run("login", "--email", "admin@test.com", "--password", "nope-nope")
	c.Assert(err, qt.ErrorMatches, "api: 401 invalid credentials")
}
