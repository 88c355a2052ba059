package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/uniscout/identity-engine/config"
	"github.com/uniscout/identity-engine/internal/domain/entity"
	repo "github.com/uniscout/identity-engine/internal/domain/repository"
	"github.com/uniscout/identity-engine/pkg/helpers"
	"github.com/uniscout/identity-engine/pkg/mailer"
	"github.com/uniscout/identity-engine/pkg/response"
	"github.com/uniscout/identity-engine/pkg/validation"
)

type AuthHandler struct {
	Users    repo.UserRepository
	Profiles repo.ProfileRepository
	RDB      *redis.Client
	JWT      *helpers.JWTManager
	Logger   *logrus.Logger
	Cfg      *config.Config
	Pub      *helpers.RabbitPublisher
	MG       *mailer.Mailgun // direct-send fallback when no queue is wired
}

func NewAuthHandler(users repo.UserRepository, profiles repo.ProfileRepository, rdb *redis.Client, jwt *helpers.JWTManager, logger *logrus.Logger, cfg *config.Config, pub *helpers.RabbitPublisher, mg *mailer.Mailgun) *AuthHandler {
	return &AuthHandler{Users: users, Profiles: profiles, RDB: rdb, JWT: jwt, Logger: logger, Cfg: cfg, Pub: pub, MG: mg}
}

type signupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
	Name     string `json:"name"`
}

type signinRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type providerRequest struct {
	Token string `json:"token" binding:"required"`
}

// sessionPayload is the data block of every successful handshake.
type sessionPayload struct {
	AccessToken string       `json:"access_token"`
	Session     repo.Session `json:"session"`
}

// sessionFor builds the wire session for a credential record, pulling
// name/avatar from the profile when one exists.
func (h *AuthHandler) sessionFor(c *gin.Context, u *entity.User) repo.Session {
	meta := repo.UserMetadata{Email: u.Email}
	if rec, err := h.Profiles.GetByID(c.Request.Context(), u.ID); err == nil && rec != nil {
		meta.Name = rec.DisplayName
		meta.AvatarURL = rec.AvatarURL
		meta.EmailVerified = rec.IsVerified
	}
	return repo.Session{UserID: u.ID, Provider: u.Provider, Metadata: meta}
}

func (h *AuthHandler) issue(c *gin.Context, u *entity.User, status int, message string) {
	token, _, err := h.JWT.GenerateAccessToken(u.ID)
	if err != nil {
		h.Logger.WithError(err).Error("issue access token")
		response.Error[any](c, http.StatusInternalServerError, "could not issue token", nil)
		return
	}
	payload := sessionPayload{AccessToken: token, Session: h.sessionFor(c, u)}
	response.Success(c, status, payload, message, nil)
}

// Signup POST /api/auth/signup {email, password, name}
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := h.Users.GetByEmail(c.Request.Context(), email)
	if err != nil {
		h.Logger.WithError(err).Error("signup lookup")
		response.Error[any](c, http.StatusInternalServerError, "signup failed", nil)
		return
	}
	if existing != nil {
		response.Error[any](c, http.StatusConflict, "User already registered",
			gin.H{"code": "user_already_exists"})
		return
	}

	hash, err := helpers.HashPassword(req.Password)
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "signup failed", nil)
		return
	}
	u := &entity.User{Email: email, PasswordHash: hash, Provider: entity.ProviderEmail}
	if err := h.Users.Create(c.Request.Context(), u); err != nil {
		h.Logger.WithError(err).Error("signup create")
		response.Error[any](c, http.StatusInternalServerError, "signup failed", nil)
		return
	}
	h.issue(c, u, http.StatusCreated, "account created")
}

// Signin POST /api/auth/signin {email, password}
func (h *AuthHandler) Signin(c *gin.Context) {
	var req signinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	u, err := h.Users.GetByEmail(c.Request.Context(), email)
	if err != nil {
		h.Logger.WithError(err).Error("signin lookup")
		response.Error[any](c, http.StatusInternalServerError, "signin failed", nil)
		return
	}
	if u == nil || u.PasswordHash == "" || !helpers.CompareHashAndPassword(u.PasswordHash, req.Password) {
		response.Error[any](c, http.StatusUnauthorized, "Invalid login credentials",
			gin.H{"code": "invalid_credentials"})
		return
	}
	if rec, err := h.Profiles.GetByID(c.Request.Context(), u.ID); err == nil && rec != nil && rec.IsBanned {
		response.Error[any](c, http.StatusForbidden, "User is banned",
			gin.H{"code": "user_banned"})
		return
	}
	h.issue(c, u, http.StatusOK, "signed in")
}

// Provider POST /api/auth/provider {token}
// Exchanges a federated provider id token for a service session, creating
// the credential record on first sign-in.
func (h *AuthHandler) Provider(c *gin.Context) {
	var req providerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	claims, err := h.JWT.ParseProviderToken(req.Token)
	if err != nil {
		response.Error[any](c, http.StatusUnauthorized, "Invalid provider token",
			gin.H{"code": "invalid_provider_token"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(claims.Email))

	u, err := h.Users.GetByEmail(c.Request.Context(), email)
	if err != nil {
		h.Logger.WithError(err).Error("provider lookup")
		response.Error[any](c, http.StatusInternalServerError, "signin failed", nil)
		return
	}
	if u == nil {
		u = &entity.User{Email: email, Provider: entity.ProviderGoogle}
		if err := h.Users.Create(c.Request.Context(), u); err != nil {
			h.Logger.WithError(err).Error("provider create")
			response.Error[any](c, http.StatusInternalServerError, "signin failed", nil)
			return
		}
	}
	if rec, err := h.Profiles.GetByID(c.Request.Context(), u.ID); err == nil && rec != nil && rec.IsBanned {
		response.Error[any](c, http.StatusForbidden, "User is banned",
			gin.H{"code": "user_banned"})
		return
	}

	token, _, err := h.JWT.GenerateAccessToken(u.ID)
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "could not issue token", nil)
		return
	}
	sess := h.sessionFor(c, u)
	// Provider claims beat a stale profile for name/avatar.
	if claims.Name != "" {
		sess.Metadata.Name = claims.Name
	}
	if claims.AvatarURL != "" {
		sess.Metadata.AvatarURL = claims.AvatarURL
	}
	sess.Metadata.EmailVerified = true
	response.Success(c, http.StatusOK, sessionPayload{AccessToken: token, Session: sess}, "signed in", nil)
}

// Session GET /api/auth/session (auth required)
func (h *AuthHandler) Session(c *gin.Context) {
	uid := c.GetString("userID")
	u, err := h.Users.GetByID(c.Request.Context(), uid)
	if err != nil {
		h.Logger.WithError(err).Error("session lookup")
		response.Error[any](c, http.StatusInternalServerError, "session lookup failed", nil)
		return
	}
	if u == nil {
		response.Error[any](c, http.StatusUnauthorized, "session expired",
			gin.H{"code": "session_expired"})
		return
	}
	response.Success(c, http.StatusOK, h.sessionFor(c, u), "session", nil)
}

// Signout POST /api/auth/signout (auth required)
// Access tokens are stateless; sign-out acknowledges so clients can clear
// their local state in lockstep.
func (h *AuthHandler) Signout(c *gin.Context) {
	response.Success[any](c, http.StatusOK, gin.H{"signed_out": true}, "signed out", nil)
}

// ResetInit POST /api/auth/reset/init {email}
// Always returns OK to avoid account enumeration.
func (h *AuthHandler) ResetInit(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	u, _ := h.Users.GetByEmail(c.Request.Context(), email)
	if u != nil && h.RDB != nil {
		tok, err := helpers.GenResetToken()
		if err != nil {
			response.Error[any](c, http.StatusInternalServerError, "token generation failed", nil)
			return
		}
		claim := helpers.ResetClaim{UserID: u.ID, Email: u.Email, RequestedAt: time.Now().UTC()}
		if err := helpers.RedisSetJSON(c, h.RDB, helpers.KeyResetToken(tok), claim, h.Cfg.ResetTokenTTL); err != nil {
			// Still answer 200: the response must not depend on account state.
			h.Logger.WithError(err).Error("store reset token")
		}
		link := h.Cfg.ResetPasswordURL + "?token=" + tok

		if h.Cfg.MailSendEnabled {
			job := mailer.EmailJob{
				To:      u.Email,
				Subject: "Reset your password",
				Text:    "Open this link to choose a new password: " + link,
			}
			switch {
			case h.Pub != nil:
				if err := h.Pub.PublishJSON(c, job); err != nil {
					h.Logger.WithError(err).Warn("enqueue reset email")
				}
			case h.MG != nil:
				// No queue wired; send inline.
				if err := h.MG.Send(c, job.To, job.Subject, job.Text, job.HTML); err != nil {
					h.Logger.WithError(err).Warn("send reset email")
				}
			}
		}
	}
	response.Success[any](c, http.StatusOK, gin.H{"sent": true}, "reset requested", nil)
}

// ResetConfirm POST /api/auth/reset/confirm {token, new_password}
func (h *AuthHandler) ResetConfirm(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,pwd"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if h.RDB == nil {
		response.Error[any](c, http.StatusInternalServerError, "reset unavailable", nil)
		return
	}
	var claim helpers.ResetClaim
	ok, err := helpers.RedisGetJSON(c, h.RDB, helpers.KeyResetToken(req.Token), &claim)
	if err != nil || !ok || claim.UserID == "" {
		response.Error[any](c, http.StatusBadRequest, "invalid or expired token",
			gin.H{"code": "invalid_reset_token"})
		return
	}
	hash, err := helpers.HashPassword(req.NewPassword)
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "hash fail", nil)
		return
	}
	if err := h.Users.UpdatePassword(c.Request.Context(), claim.UserID, hash); err != nil {
		h.Logger.WithError(err).Error("reset password update")
		response.Error[any](c, http.StatusInternalServerError, "update fail", nil)
		return
	}
	if err := helpers.RedisDel(c, h.RDB, helpers.KeyResetToken(req.Token)); err != nil {
		h.Logger.WithError(err).Warn("drop reset token")
	}
	response.Success[any](c, http.StatusOK, gin.H{"reset": true}, "password updated", nil)
}
