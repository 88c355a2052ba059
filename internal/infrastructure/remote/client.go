// Package remote implements the engine's RemoteIdentity port over HTTP
// against the uniscout identity service. The access token lives in memory
// only; across restarts the engine serves its cached profile until the next
// explicit sign-in, so token persistence is not needed here.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/uniscout/identity-engine/internal/domain/entity"
	"github.com/uniscout/identity-engine/internal/domain/repository"
)

// APIError is the error shape for every non-2xx service reply. Message is
// the service's user-facing message, surfaced verbatim for credential
// failures; Code feeds the engine's classifier.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("remote: %s (status %d, code %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("remote: %s (status %d)", e.Message, e.Status)
}

func (e *APIError) RemoteMessage() string { return e.Message }
func (e *APIError) RemoteCode() string    { return e.Code }

var _ repository.RemoteError = (*APIError)(nil)

// Client talks to the identity service and fans its own sign-in/sign-out
// transitions out to registered auth-event listeners, mirroring the event
// stream a provider SDK would push.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logrus.Logger

	mu        sync.Mutex
	token     string
	session   *repository.Session
	listeners map[int]func(repository.AuthEvent)
	listenSeq int
}

func NewClient(baseURL string, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: 15 * time.Second},
		logger:    logger,
		listeners: make(map[int]func(repository.AuthEvent)),
	}
}

// envelope is the service's response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
}

type errorDetail struct {
	Code string `json:"code"`
}

// sessionPayload is the data shape of every auth handshake response.
type sessionPayload struct {
	AccessToken string             `json:"access_token"`
	Session     repository.Session `json:"session"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("remote: encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.mu.Lock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.Unlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("remote: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		c.logger.WithError(err).WithField("path", path).Warn("malformed response body")
		return &APIError{Status: resp.StatusCode, Message: "malformed response"}
	}
	if resp.StatusCode >= 300 || !env.Success {
		apiErr := &APIError{Status: resp.StatusCode, Message: env.Message}
		var detail errorDetail
		if len(env.Error) > 0 && json.Unmarshal(env.Error, &detail) == nil {
			apiErr.Code = detail.Code
		}
		return apiErr
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("remote: decode response: %w", err)
		}
	}
	return nil
}

// adoptSession stores the handshake result and notifies listeners.
func (c *Client) adoptSession(p sessionPayload) *repository.Session {
	sess := p.Session
	c.mu.Lock()
	c.token = p.AccessToken
	c.session = &sess
	fns := c.listenerList()
	c.mu.Unlock()
	for _, fn := range fns {
		fn(repository.AuthEvent{Type: repository.AuthEventSignedIn, Session: &sess})
	}
	return &sess
}

// listenerList is called with c.mu held.
func (c *Client) listenerList() []func(repository.AuthEvent) {
	fns := make([]func(repository.AuthEvent), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	return fns
}

func (c *Client) GetSession(ctx context.Context) (*repository.Session, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token == "" {
		return nil, nil
	}
	var sess repository.Session
	err := c.do(ctx, http.MethodGet, "/api/auth/session", nil, &sess)
	var apiErr *APIError
	if err != nil {
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			// Expired or revoked token: an absent session, not a failure.
			c.mu.Lock()
			c.token = ""
			c.session = nil
			c.mu.Unlock()
			return nil, nil
		}
		return nil, err
	}
	c.mu.Lock()
	c.session = &sess
	c.mu.Unlock()
	return &sess, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*repository.Session, error) {
	var p sessionPayload
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/signin", body, &p); err != nil {
		return nil, err
	}
	return c.adoptSession(p), nil
}

func (c *Client) SignUp(ctx context.Context, email, password string, meta repository.UserMetadata) (*repository.Session, error) {
	var p sessionPayload
	body := map[string]string{"email": email, "password": password, "name": meta.Name}
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", body, &p); err != nil {
		return nil, err
	}
	return c.adoptSession(p), nil
}

func (c *Client) SignInWithProvider(ctx context.Context, token string) (*repository.Session, error) {
	var p sessionPayload
	body := map[string]string{"token": token}
	if err := c.do(ctx, http.MethodPost, "/api/auth/provider", body, &p); err != nil {
		return nil, err
	}
	return c.adoptSession(p), nil
}

func (c *Client) SignOut(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/signout", nil, nil)
	c.mu.Lock()
	c.token = ""
	c.session = nil
	fns := c.listenerList()
	c.mu.Unlock()
	for _, fn := range fns {
		fn(repository.AuthEvent{Type: repository.AuthEventSignedOut})
	}
	return err
}

func (c *Client) ResetPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/reset/init", map[string]string{"email": email}, nil)
}

func (c *Client) GetProfile(ctx context.Context, id string) (*entity.ProfileRecord, error) {
	var rec entity.ProfileRecord
	err := c.do(ctx, http.MethodGet, "/api/profiles/"+id, nil, &rec)
	var apiErr *APIError
	if err != nil {
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (c *Client) UpsertProfile(ctx context.Context, rec *entity.ProfileRecord) error {
	return c.do(ctx, http.MethodPost, "/api/profiles", rec, nil)
}

func (c *Client) UpdateProfile(ctx context.Context, id string, fields map[string]any) error {
	return c.do(ctx, http.MethodPatch, "/api/profiles/"+id, fields, nil)
}

func (c *Client) OnAuthStateChange(fn func(repository.AuthEvent)) (unsubscribe func()) {
	c.mu.Lock()
	c.listenSeq++
	id := c.listenSeq
	c.listeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

var _ repository.RemoteIdentity = (*Client)(nil)
