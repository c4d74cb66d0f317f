package events

import (
	"time"

	"github.com/tickethub/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated EventType = "ticket_created"
	EventTicketUpdated EventType = "ticket_updated"
	EventCommentAdded  EventType = "comment_added"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title    string                `json:"title"`
	Priority domain.TicketPriority `json:"priority"`
	DueAt    time.Time             `json:"due_at"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	Status     *domain.TicketStatus   `json:"status,omitempty"`
	Priority   *domain.TicketPriority `json:"priority,omitempty"`
	AssigneeID *string                `json:"assignee_id,omitempty"`
	Version    int64                  `json:"version"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID   string  `json:"comment_id"`
	ParentID    *string `json:"parent_id,omitempty"`
	TextPreview string  `json:"text_preview"`
}
