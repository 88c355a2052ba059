package router

import (
	"github.com/uniscout/identity-engine/internal/container"
	pginfra "github.com/uniscout/identity-engine/internal/infrastructure/postgres"
	handlers "github.com/uniscout/identity-engine/internal/interface/http"
	"github.com/uniscout/identity-engine/internal/router/modules"
)

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	users := pginfra.NewUserRepository(container.GetPGPool())
	profiles := pginfra.NewProfileRepository(container.GetPGPool())

	authHandler := handlers.NewAuthHandler(
		users,
		profiles,
		container.GetRedis(),
		container.GetJWT(),
		container.GetLogger(),
		container.GetConfig(),
		container.GetRabbitPub(),
		container.GetMailgun(),
	)
	profileHandler := handlers.NewProfileHandler(profiles, container.GetLogger())

	r.Add(modules.NewAuthModule(authHandler, container.GetJWT()))
	r.Add(modules.NewProfileModule(profileHandler, container.GetJWT()))
}
