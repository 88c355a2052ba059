package handlers

import (
	"net/http"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniscout/identity-engine/internal/domain/entity"
	"github.com/uniscout/identity-engine/pkg/helpers"
)

func TestSignup_CreatesAccountAndIssuesSession(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodPost, "/api/auth/signup", "",
		map[string]string{"email": "ayesha@example.com", "password": "hunter2-long", "name": "Ayesha"})

	require.Equal(t, http.StatusCreated, w.Code)
	require.True(t, env.Success)
	p := decodeSession(t, env)
	assert.NotEmpty(t, p.AccessToken)
	assert.NotEmpty(t, p.Session.UserID)
	assert.Equal(t, entity.ProviderEmail, p.Session.Provider)
	assert.Equal(t, "ayesha@example.com", p.Session.Metadata.Email)

	// The issued token authenticates follow-up calls.
	w2, env2 := s.do(t, http.MethodGet, "/api/auth/session", p.AccessToken, nil)
	require.Equal(t, http.StatusOK, w2.Code)
	assert.True(t, env2.Success)
}

func TestSignup_DuplicateEmailConflicts(t *testing.T) {
	s := newTestServer(t)
	body := map[string]string{"email": "dup@example.com", "password": "hunter2-long"}

	_, _ = s.do(t, http.MethodPost, "/api/auth/signup", "", body)
	w, env := s.do(t, http.MethodPost, "/api/auth/signup", "", body)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "User already registered", env.Message)
	assert.Equal(t, "user_already_exists", errorCode(t, env))
}

func TestSignup_RejectsShortPassword(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodPost, "/api/auth/signup", "",
		map[string]string{"email": "a@example.com", "password": "short"})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
}

func TestSignin_WrongPassword(t *testing.T) {
	s := newTestServer(t)
	_, _ = s.do(t, http.MethodPost, "/api/auth/signup", "",
		map[string]string{"email": "ayesha@example.com", "password": "hunter2-long"})

	w, env := s.do(t, http.MethodPost, "/api/auth/signin", "",
		map[string]string{"email": "ayesha@example.com", "password": "wrong-password"})

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid login credentials", env.Message)
	assert.Equal(t, "invalid_credentials", errorCode(t, env))
}

func TestSignin_UnknownEmailLooksLikeWrongPassword(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodPost, "/api/auth/signin", "",
		map[string]string{"email": "nobody@example.com", "password": "whatever-long"})

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid login credentials", env.Message)
}

func TestSignin_BannedUserForbidden(t *testing.T) {
	s := newTestServer(t)
	_, env := s.do(t, http.MethodPost, "/api/auth/signup", "",
		map[string]string{"email": "banned@example.com", "password": "hunter2-long"})
	uid := decodeSession(t, env).Session.UserID

	s.profiles.records[uid] = &entity.ProfileRecord{ID: uid, IsBanned: true}

	w, env := s.do(t, http.MethodPost, "/api/auth/signin", "",
		map[string]string{"email": "banned@example.com", "password": "hunter2-long"})

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "User is banned", env.Message)
	assert.Equal(t, "user_banned", errorCode(t, env))
}

func providerToken(t *testing.T, secret, email, name, picture string) string {
	t.Helper()
	claims := &helpers.ProviderClaims{
		Email:     email,
		Name:      name,
		AvatarURL: picture,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func TestProvider_FirstSignInCreatesUser(t *testing.T) {
	s := newTestServer(t)
	tok := providerToken(t, "test-provider-secret", "g@example.com", "Gul", "https://pic.example/g.png")

	w, env := s.do(t, http.MethodPost, "/api/auth/provider", "", map[string]string{"token": tok})

	require.Equal(t, http.StatusOK, w.Code)
	p := decodeSession(t, env)
	assert.Equal(t, entity.ProviderGoogle, p.Session.Provider)
	assert.Equal(t, "Gul", p.Session.Metadata.Name)
	assert.Equal(t, "https://pic.example/g.png", p.Session.Metadata.AvatarURL)
	assert.True(t, p.Session.Metadata.EmailVerified)

	// Second exchange reuses the same account.
	_, env2 := s.do(t, http.MethodPost, "/api/auth/provider", "", map[string]string{"token": tok})
	assert.Equal(t, p.Session.UserID, decodeSession(t, env2).Session.UserID)
}

func TestProvider_BadTokenRejected(t *testing.T) {
	s := newTestServer(t)
	tok := providerToken(t, "some-other-secret", "g@example.com", "Gul", "")

	w, env := s.do(t, http.MethodPost, "/api/auth/provider", "", map[string]string{"token": tok})

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_provider_token", errorCode(t, env))
}

func TestSession_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/api/auth/session", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w2, env := s.do(t, http.MethodGet, "/api/auth/session", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, w2.Code)
	assert.Equal(t, "session_expired", errorCode(t, env))
}

func TestResetInit_AlwaysOK(t *testing.T) {
	s := newTestServer(t)

	// Unknown email must not be distinguishable from a known one.
	w, env := s.do(t, http.MethodPost, "/api/auth/reset/init", "",
		map[string]string{"email": "ghost@example.com"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
}
