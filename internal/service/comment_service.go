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

// CommentService manages the append-only comment thread of a ticket.
type CommentService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	dispatcher events.Dispatcher
}

// NewCommentService constructs the service.
func NewCommentService(tickets repository.TicketRepository, comments repository.CommentRepository, dispatcher events.Dispatcher) *CommentService {
	return &CommentService{tickets: tickets, comments: comments, dispatcher: dispatcher}
}

// Add appends a comment to a ticket's thread. role=user may only comment on
// own tickets. A parent comment, when given, must exist and belong to the
// same ticket. The ticket record itself is not touched.
func (s *CommentService) Add(ctx context.Context, author *domain.User, ticketID, text string, parentID *string) (*domain.Comment, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if absent(err) {
			return nil, apperrors.NewNotFound("ticket")
		}
		return nil, err
	}
	if !author.Role.CanTriage() && ticket.CreatorID != author.ID {
		return nil, apperrors.NewPermissionDenied("ticket belongs to another user")
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, apperrors.NewValidationError("text must not be empty", "text")
	}
	if len(trimmed) > domain.MaxCommentLen {
		return nil, apperrors.NewValidationError("text must be at most 1000 characters", "text")
	}

	if parentID != nil && *parentID != "" {
		parent, err := s.comments.GetByID(ctx, *parentID)
		if err != nil {
			if absent(err) {
				return nil, apperrors.NewNotFound("parent comment")
			}
			return nil, err
		}
		if parent.TicketID != ticket.ID {
			return nil, apperrors.NewInvalidParent()
		}
	} else {
		parentID = nil
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		AuthorID: author.ID,
		ParentID: parentID,
		Text:     trimmed,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventCommentAdded,
			TicketID:  ticket.ID,
			ActorID:   author.ID,
			Timestamp: time.Now(),
			Payload: events.CommentAddedPayload{
				CommentID:   comment.ID,
				ParentID:    comment.ParentID,
				TextPreview: preview(comment.Text, 120),
			},
		})
	}
	return comment, nil
}

// List returns the ticket's comments in ascending creation order, subject
// to the same visibility rule as ticket reads.
func (s *CommentService) List(ctx context.Context, caller *domain.User, ticketID string) ([]domain.Comment, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if absent(err) {
			return nil, apperrors.NewNotFound("ticket")
		}
		return nil, err
	}
	if !caller.Role.CanTriage() && ticket.CreatorID != caller.ID {
		return nil, apperrors.NewPermissionDenied("ticket belongs to another user")
	}
	return s.comments.ListByTicket(ctx, ticket.ID)
}

func preview(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max]
}
