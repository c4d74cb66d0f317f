package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// Valid reports whether the status is one of the known values.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// Valid reports whether the priority is one of the known values.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Length limits for user-supplied ticket fields.
const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 2000
)

// SLAWindow is the fixed deadline applied to every ticket at creation.
const SLAWindow = 24 * time.Hour

// Ticket is the aggregate for support requests. Version is an optimistic
// lock counter: it starts at 1 and every successful mutation increments it
// by exactly one. DueAt is fixed at creation and never recomputed.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Status      TicketStatus
	Priority    TicketPriority
	CreatorID   string
	AssigneeID  *string
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DueAt       time.Time
}

// SLABreached reports whether the ticket is past its deadline while
// unresolved, evaluated against the supplied clock. Derived on read,
// never stored.
func (t *Ticket) SLABreached(now time.Time) bool {
	return t.Status != TicketStatusResolved && now.After(t.DueAt)
}
