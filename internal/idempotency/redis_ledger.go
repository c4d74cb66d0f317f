package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tickethub/helpdesk/internal/domain"
)

type storedResponse struct {
	HTTPStatus int       `json:"http_status"`
	Body       []byte    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// RedisLedger keeps replay records in Redis with the retention window as
// TTL, so expiry needs no sweep.
type RedisLedger struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisLedger builds a ledger over the given client.
func NewRedisLedger(client *redis.Client, retention time.Duration) *RedisLedger {
	if retention <= 0 {
		retention = time.Hour
	}
	return &RedisLedger{client: client, retention: retention}
}

func ledgerKey(identityID, key string) string {
	return "idempotency:" + identityID + ":" + key
}

// Lookup returns the stored response for (key, identity), nil when absent.
func (l *RedisLedger) Lookup(ctx context.Context, key, identityID string) (*domain.IdempotencyRecord, error) {
	raw, err := l.client.Get(ctx, ledgerKey(identityID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stored storedResponse
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, err
	}
	return &domain.IdempotencyRecord{
		Key:        key,
		IdentityID: identityID,
		HTTPStatus: stored.HTTPStatus,
		Body:       stored.Body,
		CreatedAt:  stored.CreatedAt,
	}, nil
}

// Record stores the first response for (key, identity). SET NX keeps an
// existing record authoritative if two requests race on the same key.
func (l *RedisLedger) Record(ctx context.Context, key, identityID string, httpStatus int, body []byte) error {
	raw, err := json.Marshal(storedResponse{
		HTTPStatus: httpStatus,
		Body:       body,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		return err
	}
	return l.client.SetNX(ctx, ledgerKey(identityID, key), raw, l.retention).Err()
}
