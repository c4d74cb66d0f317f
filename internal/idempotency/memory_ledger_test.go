package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndReplay(t *testing.T) {
	ledger := NewMemoryLedger(time.Hour)
	ctx := context.Background()

	record, err := ledger.Lookup(ctx, "k1", "alice")
	require.NoError(t, err)
	assert.Nil(t, record)

	require.NoError(t, ledger.Record(ctx, "k1", "alice", 201, []byte(`{"ticket":{"id":"t1"}}`)))

	record, err = ledger.Lookup(ctx, "k1", "alice")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, 201, record.HTTPStatus)
	assert.JSONEq(t, `{"ticket":{"id":"t1"}}`, string(record.Body))
}

func TestKeyScopedPerIdentity(t *testing.T) {
	ledger := NewMemoryLedger(time.Hour)
	ctx := context.Background()

	require.NoError(t, ledger.Record(ctx, "shared", "alice", 201, []byte(`{"id":"a"}`)))

	record, err := ledger.Lookup(ctx, "shared", "bob")
	require.NoError(t, err)
	assert.Nil(t, record, "same literal key under another identity must not collide")
}

func TestFirstRecordWins(t *testing.T) {
	ledger := NewMemoryLedger(time.Hour)
	ctx := context.Background()

	require.NoError(t, ledger.Record(ctx, "k", "alice", 201, []byte(`{"id":"first"}`)))
	require.NoError(t, ledger.Record(ctx, "k", "alice", 201, []byte(`{"id":"second"}`)))

	record, err := ledger.Lookup(ctx, "k", "alice")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.JSONEq(t, `{"id":"first"}`, string(record.Body))
}

func TestRetentionExpiry(t *testing.T) {
	ledger := NewMemoryLedger(time.Hour)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ledger.SetClock(func() time.Time { return now })

	require.NoError(t, ledger.Record(ctx, "k", "alice", 201, []byte(`{}`)))

	now = now.Add(59 * time.Minute)
	record, err := ledger.Lookup(ctx, "k", "alice")
	require.NoError(t, err)
	assert.NotNil(t, record, "record should survive within the retention window")

	now = now.Add(2 * time.Minute)
	record, err = ledger.Lookup(ctx, "k", "alice")
	require.NoError(t, err)
	assert.Nil(t, record, "record should expire after the retention window")
}
