package idempotency

import (
	"context"

	"github.com/tickethub/helpdesk/internal/domain"
)

// Ledger maps a client-supplied key scoped to an identity onto the first
// response produced under that key. Lookup returns nil when no live record
// exists; entries expire after the retention window and are never deleted
// explicitly. Two identities using the same literal key do not collide.
type Ledger interface {
	Lookup(ctx context.Context, key, identityID string) (*domain.IdempotencyRecord, error)
	Record(ctx context.Context, key, identityID string, httpStatus int, body []byte) error
}
