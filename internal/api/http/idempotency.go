package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tickethub/helpdesk/internal/auth"
	"github.com/tickethub/helpdesk/internal/idempotency"
	apperrors "github.com/tickethub/helpdesk/pkg/util"
)

// IdempotencyMiddleware replays the stored response for retried creates
// bearing a previously seen Idempotency-Key. Keys are scoped per identity,
// so the same literal key from two callers never collides. Only successful
// creations are recorded; entries expire after the retention window, after
// which a retried key creates a new entity.
type IdempotencyMiddleware struct {
	ledger idempotency.Ledger
}

// NewIdempotencyMiddleware constructs middleware.
func NewIdempotencyMiddleware(ledger idempotency.Ledger) *IdempotencyMiddleware {
	return &IdempotencyMiddleware{ledger: ledger}
}

// Handle intercepts requests carrying an Idempotency-Key header.
func (m *IdempotencyMiddleware) Handle(c *fiber.Ctx) error {
	key := c.Get("Idempotency-Key")
	if key == "" {
		return c.Next()
	}
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return c.Next()
	}

	record, err := m.ledger.Lookup(c.UserContext(), key, principal.User.ID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if record != nil {
		// Replay the original response verbatim, original status included.
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Status(record.HTTPStatus).Send(record.Body)
	}

	if err := c.Next(); err != nil {
		return err
	}

	status := c.Response().StatusCode()
	if status == http.StatusCreated {
		body := make([]byte, len(c.Response().Body()))
		copy(body, c.Response().Body())
		if err := m.ledger.Record(c.UserContext(), key, principal.User.ID, status, body); err != nil {
			return apperrors.MapError(err)
		}
	}
	return nil
}
