package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tickethub/helpdesk/internal/domain"
	apperrors "github.com/tickethub/helpdesk/pkg/util"
)

// MemoryTicketRepository is a mutex-guarded in-memory TicketRepository.
// The store mutex makes the version compare-and-increment in Update atomic,
// matching the conditional UPDATE of the Postgres implementation.
type MemoryTicketRepository struct {
	mu       sync.RWMutex
	byID     map[string]*domain.Ticket
	seq      map[string]int64
	nextSeq  int64
	comments *MemoryCommentRepository
}

// NewMemoryTicketRepository builds an empty store. comments may be nil when
// free-text search over comment bodies is not needed.
func NewMemoryTicketRepository(comments *MemoryCommentRepository) *MemoryTicketRepository {
	return &MemoryTicketRepository{
		byID:     make(map[string]*domain.Ticket),
		seq:      make(map[string]int64),
		comments: comments,
	}
}

// Create assigns id, version=1 and the fixed 24h deadline.
func (r *MemoryTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	ticket.ID = uuid.NewString()
	ticket.Version = 1
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	ticket.DueAt = now.Add(domain.SLAWindow)

	stored := *ticket
	r.byID[ticket.ID] = &stored
	r.nextSeq++
	r.seq[ticket.ID] = r.nextSeq
	return nil
}

// GetByID returns the ticket or ErrNotFound.
func (r *MemoryTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *ticket
	return &out, nil
}

// List returns tickets ordered by creation time descending.
func (r *MemoryTicketRepository) List(_ context.Context, filter TicketFilter) ([]domain.Ticket, bool, error) {
	r.mu.RLock()
	matched := make([]*domain.Ticket, 0, len(r.byID))
	for _, ticket := range r.byID {
		if filter.CreatorID != nil && ticket.CreatorID != *filter.CreatorID {
			continue
		}
		if !r.matchesQuery(ticket, filter.Query) {
			continue
		}
		matched = append(matched, ticket)
	}
	sort.Slice(matched, func(i, j int) bool {
		// Newest first; insertion sequence breaks created_at ties.
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return r.seq[matched[i].ID] > r.seq[matched[j].ID]
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	r.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	if offset >= len(matched) {
		return []domain.Ticket{}, false, nil
	}
	end := offset + limit
	hasMore := end < len(matched)
	if end > len(matched) {
		end = len(matched)
	}
	page := make([]domain.Ticket, 0, end-offset)
	for _, ticket := range matched[offset:end] {
		page = append(page, *ticket)
	}
	return page, hasMore, nil
}

// Update applies the patch iff expectedVersion matches the stored version.
// The whole read-modify-write runs under the store lock.
func (r *MemoryTicketRepository) Update(_ context.Context, id string, expectedVersion int64, patch TicketPatch) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if ticket.Version != expectedVersion {
		return nil, apperrors.NewVersionConflict(ticket.Version)
	}

	if patch.Status != nil {
		ticket.Status = *patch.Status
	}
	if patch.Priority != nil {
		ticket.Priority = *patch.Priority
	}
	if patch.ClearAssignee {
		ticket.AssigneeID = nil
	} else if patch.AssigneeID != nil {
		assignee := *patch.AssigneeID
		ticket.AssigneeID = &assignee
	}
	ticket.Version++
	ticket.UpdatedAt = time.Now()

	out := *ticket
	return &out, nil
}

func (r *MemoryTicketRepository) matchesQuery(ticket *domain.Ticket, query *string) bool {
	if query == nil {
		return true
	}
	needle := strings.ToLower(strings.TrimSpace(*query))
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(ticket.Title), needle) ||
		strings.Contains(strings.ToLower(ticket.Description), needle) {
		return true
	}
	if r.comments == nil {
		return false
	}
	for _, text := range r.comments.textsByTicket(ticket.ID) {
		if strings.Contains(strings.ToLower(text), needle) {
			return true
		}
	}
	return false
}
