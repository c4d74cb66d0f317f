package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/tickethub/helpdesk/internal/domain"
)

// MemoryLedger is a mutex-guarded in-process ledger used when Redis is not
// configured, and by tests. Expired entries are dropped lazily on lookup.
type MemoryLedger struct {
	mu        sync.Mutex
	records   map[string]*domain.IdempotencyRecord
	retention time.Duration
	now       func() time.Time
}

// NewMemoryLedger builds an empty ledger.
func NewMemoryLedger(retention time.Duration) *MemoryLedger {
	if retention <= 0 {
		retention = time.Hour
	}
	return &MemoryLedger{
		records:   make(map[string]*domain.IdempotencyRecord),
		retention: retention,
		now:       time.Now,
	}
}

// Lookup returns the stored response for (key, identity), nil when absent
// or expired.
func (l *MemoryLedger) Lookup(_ context.Context, key, identityID string) (*domain.IdempotencyRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	composite := identityID + ":" + key
	record, ok := l.records[composite]
	if !ok {
		return nil, nil
	}
	if l.now().Sub(record.CreatedAt) >= l.retention {
		delete(l.records, composite)
		return nil, nil
	}
	out := *record
	return &out, nil
}

// Record stores the first response for (key, identity); an existing live
// record is left untouched.
func (l *MemoryLedger) Record(_ context.Context, key, identityID string, httpStatus int, body []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	composite := identityID + ":" + key
	if existing, ok := l.records[composite]; ok && l.now().Sub(existing.CreatedAt) < l.retention {
		return nil
	}
	stored := make([]byte, len(body))
	copy(stored, body)
	l.records[composite] = &domain.IdempotencyRecord{
		Key:        key,
		IdentityID: identityID,
		HTTPStatus: httpStatus,
		Body:       stored,
		CreatedAt:  l.now(),
	}
	return nil
}

// SetClock overrides the time source. Test hook.
func (l *MemoryLedger) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}
