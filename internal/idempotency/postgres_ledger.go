package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tickethub/helpdesk/internal/domain"
)

// PostgresLedger keeps replay records in the idempotency_records table. It
// serves deployments with a database but no Redis. Expired rows are ignored
// on lookup rather than swept.
type PostgresLedger struct {
	pool      *pgxpool.Pool
	retention time.Duration
}

// NewPostgresLedger builds a ledger over the given pool.
func NewPostgresLedger(pool *pgxpool.Pool, retention time.Duration) *PostgresLedger {
	if retention <= 0 {
		retention = time.Hour
	}
	return &PostgresLedger{pool: pool, retention: retention}
}

// Lookup returns the stored response for (key, identity), nil when absent
// or expired.
func (l *PostgresLedger) Lookup(ctx context.Context, key, identityID string) (*domain.IdempotencyRecord, error) {
	const query = `
        SELECT http_status, body, created_at
        FROM idempotency_records
        WHERE key=$1 AND identity_id=$2 AND expires_at > NOW()`

	record := &domain.IdempotencyRecord{Key: key, IdentityID: identityID}
	err := l.pool.QueryRow(ctx, query, key, identityID).Scan(
		&record.HTTPStatus,
		&record.Body,
		&record.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Record stores the first response for (key, identity). ON CONFLICT keeps an
// existing row authoritative if two requests race on the same key.
func (l *PostgresLedger) Record(ctx context.Context, key, identityID string, httpStatus int, body []byte) error {
	const query = `
        INSERT INTO idempotency_records (key, identity_id, http_status, body, expires_at)
        VALUES ($1, $2, $3, $4, NOW() + make_interval(secs => $5))
        ON CONFLICT (key, identity_id) DO NOTHING`
	_, err := l.pool.Exec(ctx, query, key, identityID, httpStatus, body, l.retention.Seconds())
	return err
}
