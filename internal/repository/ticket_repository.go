package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tickethub/helpdesk/internal/domain"
	apperrors "github.com/tickethub/helpdesk/pkg/util"
)

// TicketFilter captures listing parameters. CreatorID restricts visibility
// for role=user callers; Query matches case-insensitive substrings across
// title, description and comment text.
type TicketFilter struct {
	CreatorID *string
	Query     *string
	Limit     int
	Offset    int
}

// TicketPatch carries the mutable ticket fields of an update. Nil pointers
// leave the stored value untouched. ClearAssignee unsets the assignee.
type TicketPatch struct {
	Status        *domain.TicketStatus
	Priority      *domain.TicketPriority
	AssigneeID    *string
	ClearAssignee bool
}

// Empty reports whether the patch changes nothing.
func (p TicketPatch) Empty() bool {
	return p.Status == nil && p.Priority == nil && p.AssigneeID == nil && !p.ClearAssignee
}

// TicketRepository encapsulates ticket persistence. Update is the
// optimistic-concurrency gate: the version comparison and increment happen
// atomically with respect to concurrent updates on the same ticket.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) (items []domain.Ticket, hasMore bool, err error)
	Update(ctx context.Context, id string, expectedVersion int64, patch TicketPatch) (*domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	// NOW() is the transaction timestamp, so due_at lands exactly 24h after
	// created_at.
	const query = `
        INSERT INTO tickets (title, description, status, priority, creator_id, due_at)
        VALUES ($1,$2,$3,$4,$5, NOW() + INTERVAL '24 hours')
        RETURNING id, version, created_at, updated_at, due_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.CreatorID,
	).Scan(&ticket.ID, &ticket.Version, &ticket.CreatedAt, &ticket.UpdatedAt, &ticket.DueAt)
}

const ticketColumns = `id, title, description, status, priority, creator_id, assignee_id,
               version, created_at, updated_at, due_at`

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(ticketFields(&ticket)...); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, bool, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatorID != nil {
		args = append(args, *filter.CreatorID)
		clauses = append(clauses, fmt.Sprintf("creator_id=$%d", len(args)))
	}
	if filter.Query != nil && strings.TrimSpace(*filter.Query) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.Query)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			`(LOWER(title) LIKE %s OR LOWER(description) LIKE %s
              OR EXISTS (SELECT 1 FROM comments c WHERE c.ticket_id = tickets.id AND LOWER(c.text) LIKE %s))`,
			placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	// Fetch one extra row to learn whether another page exists.
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit+1, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	items, err := scanTickets(rows)
	if err != nil {
		return nil, false, err
	}
	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}
	return items, hasMore, nil
}

// Update applies the patch as a single conditional statement. The WHERE
// clause compares the stored version, so concurrent updates against the same
// ticket serialize on the row: exactly one caller wins, the rest observe a
// version conflict carrying the current version.
func (r *ticketRepository) Update(ctx context.Context, id string, expectedVersion int64, patch TicketPatch) (*domain.Ticket, error) {
	sets := []string{"version = version + 1", "updated_at = NOW()"}
	args := []any{}

	if patch.Status != nil {
		args = append(args, *patch.Status)
		sets = append(sets, fmt.Sprintf("status=$%d", len(args)))
	}
	if patch.Priority != nil {
		args = append(args, *patch.Priority)
		sets = append(sets, fmt.Sprintf("priority=$%d", len(args)))
	}
	if patch.ClearAssignee {
		sets = append(sets, "assignee_id=NULL")
	} else if patch.AssigneeID != nil {
		args = append(args, *patch.AssigneeID)
		sets = append(sets, fmt.Sprintf("assignee_id=$%d", len(args)))
	}

	args = append(args, id)
	idPos := len(args)
	args = append(args, expectedVersion)
	versionPos := len(args)

	query := fmt.Sprintf(`UPDATE tickets SET %s WHERE id=$%d AND version=$%d RETURNING %s`,
		strings.Join(sets, ", "), idPos, versionPos, ticketColumns)

	var ticket domain.Ticket
	err := r.pool.QueryRow(ctx, query, args...).Scan(ticketFields(&ticket)...)
	if err == nil {
		return &ticket, nil
	}
	if err != pgx.ErrNoRows {
		return nil, err
	}

	// Zero rows: either the ticket is gone or the version moved on.
	var current int64
	if err := r.pool.QueryRow(ctx, `SELECT version FROM tickets WHERE id=$1`, id).Scan(&current); err != nil {
		return nil, err
	}
	return nil, apperrors.NewVersionConflict(current)
}

func ticketFields(t *domain.Ticket) []any {
	return []any{
		&t.ID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.CreatorID,
		&t.AssigneeID,
		&t.Version,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.DueAt,
	}
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(ticketFields(&ticket)...); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
