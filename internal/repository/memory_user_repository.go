package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tickethub/helpdesk/internal/domain"
	apperrors "github.com/tickethub/helpdesk/pkg/util"
)

// MemoryUserRepository is a mutex-guarded in-memory UserRepository. It backs
// the service when no Postgres DSN is configured and is the substrate for
// tests.
type MemoryUserRepository struct {
	mu         sync.RWMutex
	byID       map[string]*domain.User
	byEmail    map[string]string
	byUsername map[string]string
}

// NewMemoryUserRepository builds an empty store.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:       make(map[string]*domain.User),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
	}
}

// Create inserts the user, enforcing username/email uniqueness under the
// store lock.
func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUsername[user.Username]; exists {
		return apperrors.NewFieldDuplicate("username")
	}
	if _, exists := r.byEmail[user.Email]; exists {
		return apperrors.NewFieldDuplicate("email")
	}

	now := time.Now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	r.byID[user.ID] = &stored
	r.byUsername[user.Username] = user.ID
	r.byEmail[user.Email] = user.ID
	return nil
}

// GetByID returns the user or ErrNotFound.
func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyOut(r.byID[id])
}

// GetByEmail returns the user or ErrNotFound.
func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.byEmail[email]; ok {
		return r.copyOut(r.byID[id])
	}
	return nil, ErrNotFound
}

// GetByUsername returns the user or ErrNotFound.
func (r *MemoryUserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.byUsername[username]; ok {
		return r.copyOut(r.byID[id])
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) copyOut(user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, ErrNotFound
	}
	out := *user
	return &out, nil
}
