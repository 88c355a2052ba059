package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/uniscout/identity-engine/internal/container"
	handlers "github.com/uniscout/identity-engine/internal/interface/http"
	"github.com/uniscout/identity-engine/internal/interface/middleware"
	"github.com/uniscout/identity-engine/pkg/helpers"
)

type AuthModule struct {
	Handler *handlers.AuthHandler
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Public endpoints with IP-based rate limits
	handshakeLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP())
	resetInitLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	resetConfirmLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/auth/signup", handshakeLimiter, m.Handler.Signup)
	rg.POST("/auth/signin", handshakeLimiter, m.Handler.Signin)
	rg.POST("/auth/provider", handshakeLimiter, m.Handler.Provider)
	rg.POST("/auth/reset/init", resetInitLimiter, m.Handler.ResetInit)
	rg.POST("/auth/reset/confirm", resetConfirmLimiter, m.Handler.ResetConfirm)

	// Session endpoints require a valid access token
	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.JWT))
	{
		auth.GET("/auth/session", m.Handler.Session)
		auth.POST("/auth/signout", m.Handler.Signout)
	}
}
