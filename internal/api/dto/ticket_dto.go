package dto

import (
	"time"

	"github.com/tickethub/helpdesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// UpdateTicketRequest payload for PATCH /tickets/:id. Version is the
// optimistic-lock expectation and is required.
type UpdateTicketRequest struct {
	Status     *string `json:"status"`
	Priority   *string `json:"priority"`
	AssigneeID *string `json:"assigned_to"`
	Version    *int64  `json:"version"`
}

// TicketResponse serializes a ticket. IsSLABreached is derived at
// serialization time, never stored.
type TicketResponse struct {
	ID            string                `json:"id"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Status        domain.TicketStatus   `json:"status"`
	Priority      domain.TicketPriority `json:"priority"`
	CreatorID     string                `json:"created_by"`
	AssigneeID    *string               `json:"assigned_to"`
	Version       int64                 `json:"version"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	DueAt         time.Time             `json:"due_at"`
	IsSLABreached bool                  `json:"is_sla_breached"`
}

// TicketListResponse is one page of tickets. NextOffset is null on the
// last page.
type TicketListResponse struct {
	Items         []TicketResponse `json:"items"`
	NextOffset    *int             `json:"next_offset"`
	TotalReturned int              `json:"total_returned"`
}

// TicketDetailResponse bundles a ticket with its comment thread.
type TicketDetailResponse struct {
	Ticket   TicketResponse    `json:"ticket"`
	Comments []CommentResponse `json:"comments"`
}

// NewTicketResponse maps the domain model, deriving SLA breach against now.
func NewTicketResponse(ticket *domain.Ticket, now time.Time) TicketResponse {
	return TicketResponse{
		ID:            ticket.ID,
		Title:         ticket.Title,
		Description:   ticket.Description,
		Status:        ticket.Status,
		Priority:      ticket.Priority,
		CreatorID:     ticket.CreatorID,
		AssigneeID:    ticket.AssigneeID,
		Version:       ticket.Version,
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
		DueAt:         ticket.DueAt,
		IsSLABreached: ticket.SLABreached(now),
	}
}
