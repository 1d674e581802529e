// Package client is a typed HTTP client for the pulse survey API, used by
// pulsectl.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pulseapp/pulse-survey/internal/core/domain"
)

const DefaultBaseURL = "http://localhost:3000"

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	Status  int
	Message string
	Fields  []domain.FieldError
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("api: %d %s", e.Status, e.Message)
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return fmt.Sprintf("api: %d %s: %s", e.Status, e.Message, strings.Join(msgs, "; "))
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

// LoginResult is the body returned by a successful login.
type LoginResult struct {
	AccessToken string       `json:"access_token"`
	User        *domain.User `json:"user"`
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Register(ctx context.Context, email, password string) (*domain.User, error) {
	var user domain.User
	err := c.doJSON(ctx, http.MethodPost, "/auth/register", map[string]string{"email": email, "password": password}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates and, on success, keeps the token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var res LoginResult
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, &res)
	if err != nil {
		return nil, err
	}
	c.token = res.AccessToken
	return &res, nil
}

func (c *Client) Profile(ctx context.Context) (*domain.Identity, error) {
	var id domain.Identity
	if err := c.doJSON(ctx, http.MethodGet, "/auth/profile", nil, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

func (c *Client) Submit(ctx context.Context, response string) (*domain.Survey, error) {
	var sv domain.Survey
	if err := c.doJSON(ctx, http.MethodPost, "/surveys", map[string]string{"response": response}, &sv); err != nil {
		return nil, err
	}
	return &sv, nil
}

func (c *Client) ListOwn(ctx context.Context) ([]domain.Survey, error) {
	var out []domain.Survey
	if err := c.doJSON(ctx, http.MethodGet, "/surveys", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListAll(ctx context.Context) ([]domain.Survey, error) {
	var out []domain.Survey
	if err := c.doJSON(ctx, http.MethodGet, "/surveys/all", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Export downloads the raw export body. format is "json" or "csv".
func (c *Client) Export(ctx context.Context, format string) ([]byte, error) {
	switch format {
	case "json", "csv":
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}

	resp, err := c.do(ctx, http.MethodGet, "/surveys/export/"+format, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// do sends the request and converts non-2xx responses into *APIError.
// The caller closes the body on success.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var envelope struct {
		Error  string              `json:"error"`
		Fields []domain.FieldError `json:"fields"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&envelope); err == nil && envelope.Error != "" {
		apiErr.Message = envelope.Error
		apiErr.Fields = envelope.Fields
	}
	return nil, apiErr
}
