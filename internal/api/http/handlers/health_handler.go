package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// HealthHandler responds to the unauthenticated health probe.
type HealthHandler struct {
	environment string
	startedAt   time.Time
	checks      map[string]HealthCheck
}

// NewHealthHandler returns a new handler instance. checks may be nil when no
// external dependencies are configured.
func NewHealthHandler(environment string, checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{environment: environment, startedAt: time.Now(), checks: checks}
}

// Check reports service status, uptime and dependency reachability.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	now := time.Now()
	payload := fiber.Map{
		"status":      "ok",
		"timestamp":   now.UTC().Format(time.RFC3339),
		"uptime":      int64(now.Sub(h.startedAt).Seconds()),
		"environment": h.environment,
	}

	if len(h.checks) > 0 {
		deps := fiber.Map{}
		for name, check := range h.checks {
			if err := check(c.UserContext()); err != nil {
				deps[name] = "unavailable"
			} else {
				deps[name] = "ok"
			}
		}
		payload["dependencies"] = deps
	}
	return c.JSON(payload)
}
