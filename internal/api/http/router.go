package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tickethub/helpdesk/internal/api/http/handlers"
	"github.com/tickethub/helpdesk/internal/auth"
	"github.com/tickethub/helpdesk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Comments       *handlers.CommentsHandler
	AuthMiddleware *auth.AuthMiddleware
	RateLimit      *RateLimitMiddleware
	Idempotency    *IdempotencyMiddleware
}

// RegisterRoutes wires HTTP routes. The rate limiter sits after the auth
// middleware so the window key is the caller's identity where one exists;
// the health probe is exempt.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health", cfg.Health.Check)

	app.Post("/register", cfg.RateLimit.Handle, cfg.Users.Register)
	app.Post("/login", cfg.RateLimit.Handle, cfg.Users.Login)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, cfg.RateLimit.Handle)
	tickets.Post("", cfg.Idempotency.Handle, cfg.Tickets.Create)
	tickets.Get("", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Patch("/:id", auth.RequireRole(domain.RoleAgent, domain.RoleAdmin), cfg.Tickets.Update)
	tickets.Post("/:id/comments", cfg.Comments.Add)
	tickets.Get("/:id/comments", cfg.Comments.List)
}
