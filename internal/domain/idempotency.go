package domain

import "time"

// IdempotencyRecord stores the first response produced for a given
// (client key, identity) pair so an exact retry replays it verbatim.
// Records are read-only after creation and expire by retention window,
// there is no explicit delete path.
type IdempotencyRecord struct {
	Key        string
	IdentityID string
	HTTPStatus int
	Body       []byte
	CreatedAt  time.Time
}
