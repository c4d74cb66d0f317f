package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/tickethub/helpdesk/internal/auth"
	"github.com/tickethub/helpdesk/internal/ratelimit"
	apperrors "github.com/tickethub/helpdesk/pkg/util"
)

// RateLimitMiddleware gates requests per caller. It runs after the auth
// middleware on protected routes, so the key is the authenticated identity
// when available and the client address otherwise. Every admitted request
// counts, including ones that fail downstream.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
}

// NewRateLimitMiddleware constructs middleware.
func NewRateLimitMiddleware(limiter ratelimit.Limiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter}
}

// Handle rejects requests beyond the window threshold with a retry-after
// hint; nothing is queued or delayed.
func (m *RateLimitMiddleware) Handle(c *fiber.Ctx) error {
	key := "ip:" + c.IP()
	if principal, ok := auth.PrincipalFromContext(c); ok {
		key = "user:" + principal.User.ID
	}

	decision, err := m.limiter.Allow(c.UserContext(), key)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !decision.Allowed {
		retryAfter := int64(decision.RetryAfter.Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Set("Retry-After", strconv.FormatInt(retryAfter, 10))
		return apperrors.NewRateLimited(retryAfter)
	}
	return c.Next()
}
