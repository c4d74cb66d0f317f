package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tickethub/helpdesk/internal/domain"
)

// MemoryCommentRepository is a mutex-guarded in-memory CommentRepository.
// The per-ticket log preserves insertion order.
type MemoryCommentRepository struct {
	mu       sync.RWMutex
	byID     map[string]*domain.Comment
	byTicket map[string][]string
}

// NewMemoryCommentRepository builds an empty store.
func NewMemoryCommentRepository() *MemoryCommentRepository {
	return &MemoryCommentRepository{
		byID:     make(map[string]*domain.Comment),
		byTicket: make(map[string][]string),
	}
}

// Create appends the comment to its ticket's log.
func (r *MemoryCommentRepository) Create(_ context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	comment.ID = uuid.NewString()
	comment.CreatedAt = time.Now()

	stored := *comment
	r.byID[comment.ID] = &stored
	r.byTicket[comment.TicketID] = append(r.byTicket[comment.TicketID], comment.ID)
	return nil
}

// GetByID returns the comment or ErrNotFound.
func (r *MemoryCommentRepository) GetByID(_ context.Context, id string) (*domain.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	comment, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *comment
	return &out, nil
}

// ListByTicket returns comments in insertion order.
func (r *MemoryCommentRepository) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byTicket[ticketID]
	result := make([]domain.Comment, 0, len(ids))
	for _, id := range ids {
		result = append(result, *r.byID[id])
	}
	return result, nil
}

// textsByTicket exposes comment bodies for the ticket store's free-text
// search, mirroring the EXISTS subquery of the Postgres implementation.
func (r *MemoryCommentRepository) textsByTicket(ticketID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byTicket[ticketID]
	texts := make([]string, 0, len(ids))
	for _, id := range ids {
		texts = append(texts, r.byID[id].Text)
	}
	return texts
}
