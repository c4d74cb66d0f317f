package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tickethub/helpdesk/internal/api/dto"
	"github.com/tickethub/helpdesk/internal/auth"
	"github.com/tickethub/helpdesk/internal/service"
	apperrors "github.com/tickethub/helpdesk/pkg/util"
)

// CommentsHandler manages the per-ticket comment thread endpoints.
type CommentsHandler struct {
	service *service.CommentService
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(commentService *service.CommentService) *CommentsHandler {
	return &CommentsHandler{service: commentService}
}

// Add POST /tickets/:id/comments.
func (h *CommentsHandler) Add(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewTokenRequired()
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", "")
	}

	comment, err := h.service.Add(c.UserContext(), principal.User, c.Params("id"), req.Text, req.ParentID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"comment": dto.NewCommentResponse(comment),
	})
}

// List GET /tickets/:id/comments.
func (h *CommentsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewTokenRequired()
	}

	comments, err := h.service.List(c.UserContext(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewCommentListResponse(comments))
}
