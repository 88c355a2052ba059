package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/uniscout/identity-engine/config"
	"github.com/uniscout/identity-engine/internal/domain/entity"
	repo "github.com/uniscout/identity-engine/internal/domain/repository"
	"github.com/uniscout/identity-engine/internal/interface/middleware"
	"github.com/uniscout/identity-engine/pkg/helpers"
	"github.com/uniscout/identity-engine/pkg/validation"
)

type memUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*entity.User
	byEmail map[string]*entity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*entity.User{}, byEmail: map[string]*entity.User{}}
}

func (r *memUserRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[u.Email]; ok {
		return fmt.Errorf("duplicate email %s", u.Email)
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.byID[u.ID] = &cp
	r.byEmail[u.Email] = &cp
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) UpdatePassword(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("user %s not found", id)
	}
	u.PasswordHash = hash
	return nil
}

type memProfileRepo struct {
	mu         sync.Mutex
	records    map[string]*entity.ProfileRecord
	lastFields map[string]any
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{records: map[string]*entity.ProfileRecord{}}
}

func (r *memProfileRepo) GetByID(_ context.Context, id string) (*entity.ProfileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *memProfileRepo) Upsert(_ context.Context, rec *entity.ProfileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.records[rec.ID] = &cp
	return nil
}

func (r *memProfileRepo) UpdateFields(_ context.Context, id string, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return fmt.Errorf("profile %s not found", id)
	}
	r.lastFields = fields
	if v, ok := fields["city"].(string); ok {
		rec.City = v
	}
	if v, ok := fields["display_name"].(string); ok {
		rec.DisplayName = v
	}
	if v, ok := fields["onboarding_completed"].(bool); ok {
		rec.OnboardingCompleted = v
	}
	return nil
}

var _ repo.UserRepository = (*memUserRepo)(nil)
var _ repo.ProfileRepository = (*memProfileRepo)(nil)

type testServer struct {
	router   *gin.Engine
	users    *memUserRepo
	profiles *memProfileRepo
	jwt      *helpers.JWTManager
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	users := newMemUserRepo()
	profiles := newMemProfileRepo()
	jwt := helpers.NewJWTManager("test-access-secret", "test-provider-secret", time.Hour)
	cfg := &config.Config{ResetTokenTTL: 30 * time.Minute, ResetPasswordURL: "http://localhost/reset"}

	authH := NewAuthHandler(users, profiles, nil, jwt, quietLogger(), cfg, nil, nil)
	profH := NewProfileHandler(profiles, quietLogger())

	r := gin.New()
	api := r.Group("/api")
	api.POST("/auth/signup", authH.Signup)
	api.POST("/auth/signin", authH.Signin)
	api.POST("/auth/provider", authH.Provider)
	api.POST("/auth/reset/init", authH.ResetInit)

	authed := api.Group("/")
	authed.Use(middleware.Auth(jwt))
	authed.GET("/auth/session", authH.Session)
	authed.POST("/auth/signout", authH.Signout)
	authed.GET("/profiles/:id", profH.Get)
	authed.POST("/profiles", profH.Upsert)
	authed.PATCH("/profiles/:id", profH.Update)

	return &testServer{router: r, users: users, profiles: profiles, jwt: jwt}
}

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

// decodeSession decodes the session payload from a handshake response.
func decodeSession(t *testing.T, env envelope) sessionPayload {
	t.Helper()
	var p sessionPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	return p
}

func errorCode(t *testing.T, env envelope) string {
	t.Helper()
	if len(env.Error) == 0 {
		return ""
	}
	var detail struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(env.Error, &detail))
	return detail.Code
}
