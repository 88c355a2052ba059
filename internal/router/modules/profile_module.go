package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/uniscout/identity-engine/internal/container"
	handlers "github.com/uniscout/identity-engine/internal/interface/http"
	"github.com/uniscout/identity-engine/internal/interface/middleware"
	"github.com/uniscout/identity-engine/pkg/helpers"
)

type ProfileModule struct {
	Handler *handlers.ProfileHandler
	JWT     *helpers.JWTManager
}

func NewProfileModule(h *handlers.ProfileHandler, jwt *helpers.JWTManager) *ProfileModule {
	return &ProfileModule{Handler: h, JWT: jwt}
}

func (m *ProfileModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.JWT))
	// Coalesced client flushes land here; the ceiling only guards against
	// runaway loops, not normal traffic.
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/profiles/:id", m.Handler.Get)
		auth.POST("/profiles", m.Handler.Upsert)
		auth.PATCH("/profiles/:id", m.Handler.Update)
	}
}
