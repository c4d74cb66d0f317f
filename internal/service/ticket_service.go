package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tickethub/helpdesk/internal/domain"
	"github.com/tickethub/helpdesk/internal/events"
	"github.com/tickethub/helpdesk/internal/repository"
	apperrors "github.com/tickethub/helpdesk/pkg/util"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.CommentRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    string
}

// TicketListInput describes listing parameters.
type TicketListInput struct {
	Query  string
	Limit  int
	Offset int
}

// TicketPage is one page of a listing. NextOffset is nil on the last page.
type TicketPage struct {
	Items      []domain.Ticket
	NextOffset *int
}

// TicketUpdateInput carries the PATCH payload. Nil pointers mean "leave as
// is"; an empty assignee string clears the assignment.
type TicketUpdateInput struct {
	Status     *string
	Priority   *string
	AssigneeID *string
}

// Create validates and persists a new ticket: status=open, version=1,
// due_at fixed at creation time + 24h.
func (s *TicketService) Create(ctx context.Context, creator *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)

	if title == "" {
		return nil, apperrors.NewFieldRequired("title")
	}
	if description == "" {
		return nil, apperrors.NewFieldRequired("description")
	}
	if len(title) > domain.MaxTitleLen {
		return nil, apperrors.NewValidationError("title must be at most 200 characters", "title")
	}
	if len(description) > domain.MaxDescriptionLen {
		return nil, apperrors.NewValidationError("description must be at most 2000 characters", "description")
	}

	priority := domain.TicketPriorityMedium
	if input.Priority != "" {
		priority = domain.TicketPriority(input.Priority)
		if !priority.Valid() {
			return nil, apperrors.NewValidationError("priority must be one of low, medium, high, urgent", "priority")
		}
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: description,
		Status:      domain.TicketStatusOpen,
		Priority:    priority,
		CreatorID:   creator.ID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  creator.ID,
		Payload: events.TicketCreatedPayload{
			Title:    ticket.Title,
			Priority: ticket.Priority,
			DueAt:    ticket.DueAt,
		},
	})
	return ticket, nil
}

// Get fetches a ticket with its comment thread, enforcing visibility:
// role=user may only read own tickets.
func (s *TicketService) Get(ctx context.Context, caller *domain.User, ticketID string) (*domain.Ticket, []domain.Comment, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if absent(err) {
			return nil, nil, apperrors.NewNotFound("ticket")
		}
		return nil, nil, err
	}
	if !caller.Role.CanTriage() && ticket.CreatorID != caller.ID {
		return nil, nil, apperrors.NewPermissionDenied("ticket belongs to another user")
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, comments, nil
}

// List returns one page of tickets, newest first. role=user sees only own
// tickets; agents and admins see all.
func (s *TicketService) List(ctx context.Context, caller *domain.User, input TicketListInput) (*TicketPage, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	filter := repository.TicketFilter{Limit: limit, Offset: offset}
	if !caller.Role.CanTriage() {
		creatorID := caller.ID
		filter.CreatorID = &creatorID
	}
	if strings.TrimSpace(input.Query) != "" {
		query := input.Query
		filter.Query = &query
	}

	items, hasMore, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	page := &TicketPage{Items: items}
	if hasMore {
		next := offset + limit
		page.NextOffset = &next
	}
	return page, nil
}

// Update applies a version-gated patch. Only agents and admins may update;
// the version check and increment are atomic, so of two concurrent updates
// with the same expected version exactly one succeeds and the other gets a
// conflict carrying the new version.
func (s *TicketService) Update(ctx context.Context, caller *domain.User, ticketID string, expectedVersion int64, input TicketUpdateInput) (*domain.Ticket, error) {
	if !caller.Role.CanTriage() {
		return nil, apperrors.NewPermissionDenied("only agents and admins may update tickets")
	}
	if expectedVersion < 1 {
		return nil, apperrors.NewValidationError("version must be a positive integer", "version")
	}

	patch := repository.TicketPatch{}
	if input.Status != nil {
		status := domain.TicketStatus(*input.Status)
		if !status.Valid() {
			return nil, apperrors.NewValidationError("status must be one of open, in_progress, resolved, closed", "status")
		}
		patch.Status = &status
	}
	if input.Priority != nil {
		priority := domain.TicketPriority(*input.Priority)
		if !priority.Valid() {
			return nil, apperrors.NewValidationError("priority must be one of low, medium, high, urgent", "priority")
		}
		patch.Priority = &priority
	}
	if input.AssigneeID != nil {
		if *input.AssigneeID == "" {
			patch.ClearAssignee = true
		} else {
			if _, err := s.users.GetByID(ctx, *input.AssigneeID); err != nil {
				if absent(err) {
					return nil, apperrors.NewValidationError("assignee does not exist", "assigned_to")
				}
				return nil, err
			}
			patch.AssigneeID = input.AssigneeID
		}
	}

	ticket, err := s.tickets.Update(ctx, ticketID, expectedVersion, patch)
	if err != nil {
		if absent(err) {
			return nil, apperrors.NewNotFound("ticket")
		}
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
		ActorID:  caller.ID,
		Payload: events.TicketUpdatedPayload{
			Status:     patch.Status,
			Priority:   patch.Priority,
			AssigneeID: patch.AssigneeID,
			Version:    ticket.Version,
		},
	})
	return ticket, nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	_ = s.dispatcher.Publish(ctx, event)
}
