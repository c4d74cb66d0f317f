package dto

import (
	"time"

	"github.com/tickethub/helpdesk/internal/domain"
)

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Text     string  `json:"text"`
	ParentID *string `json:"parent_id"`
}

// CommentResponse serializes a threaded comment.
type CommentResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	AuthorID  string    `json:"author_id"`
	ParentID  *string   `json:"parent_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentListResponse wraps a ticket's thread.
type CommentListResponse struct {
	Comments []CommentResponse `json:"comments"`
}

// NewCommentResponse maps the domain model.
func NewCommentResponse(comment *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		TicketID:  comment.TicketID,
		AuthorID:  comment.AuthorID,
		ParentID:  comment.ParentID,
		Text:      comment.Text,
		CreatedAt: comment.CreatedAt,
	}
}

// NewCommentListResponse maps a slice of comments.
func NewCommentListResponse(comments []domain.Comment) CommentListResponse {
	out := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, NewCommentResponse(&comments[i]))
	}
	return CommentListResponse{Comments: out}
}
