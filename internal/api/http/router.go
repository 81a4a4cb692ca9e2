package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campusmatch/internal/api/http/handlers"
	"github.com/spec-kit/campusmatch/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Profiles       *handlers.ProfilesHandler
	Messages       *handlers.MessagesHandler
	Chat           *handlers.ChatHandler
	AuthMiddleware *auth.AuthMiddleware
	// SocketAuth additionally accepts the token query parameter.
	SocketAuth *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Users.Logout)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Users.Me)

	profiles := app.Group("/profiles")
	profiles.Get("/:id", cfg.AuthMiddleware.Optional, cfg.Profiles.Get)
	profiles.Get("/:id/contact", cfg.AuthMiddleware.Handle, auth.RequirePremium(), cfg.Profiles.Contact)

	messages := app.Group("/messages", cfg.AuthMiddleware.Handle, auth.RequireCaller())
	messages.Post("", cfg.Messages.Send)
	messages.Get("/:peerId", cfg.Messages.History)

	socketAuth := cfg.SocketAuth
	if socketAuth == nil {
		socketAuth = cfg.AuthMiddleware.With(auth.WithQueryToken("token"))
	}
	app.Get("/ws/chat", cfg.Chat.RequireUpgrade, socketAuth.Handle, cfg.Chat.Upgrade())
}
