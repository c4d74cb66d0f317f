package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tickethub/helpdesk/internal/api/dto"
	"github.com/tickethub/helpdesk/internal/auth"
	"github.com/tickethub/helpdesk/internal/service"
	apperrors "github.com/tickethub/helpdesk/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewTokenRequired()
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", "")
	}

	ticket, err := h.service.Create(c.UserContext(), principal.User, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"ticket": dto.NewTicketResponse(ticket, time.Now()),
	})
}

// List GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewTokenRequired()
	}

	page, err := h.service.List(c.UserContext(), principal.User, service.TicketListInput{
		Query:  c.Query("q"),
		Limit:  parseIntQuery(c.Query("limit"), 0),
		Offset: parseIntQuery(c.Query("offset"), 0),
	})
	if err != nil {
		return err
	}

	now := time.Now()
	items := make([]dto.TicketResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, dto.NewTicketResponse(&page.Items[i], now))
	}
	return c.JSON(dto.TicketListResponse{
		Items:         items,
		NextOffset:    page.NextOffset,
		TotalReturned: len(items),
	})
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewTokenRequired()
	}

	ticket, comments, err := h.service.Get(c.UserContext(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketDetailResponse{
		Ticket:   dto.NewTicketResponse(ticket, time.Now()),
		Comments: dto.NewCommentListResponse(comments).Comments,
	})
}

// Update PATCH /tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewTokenRequired()
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", "")
	}
	if req.Version == nil {
		return apperrors.NewFieldRequired("version")
	}

	ticket, err := h.service.Update(c.UserContext(), principal.User, c.Params("id"), *req.Version, service.TicketUpdateInput{
		Status:     req.Status,
		Priority:   req.Priority,
		AssigneeID: req.AssigneeID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"ticket": dto.NewTicketResponse(ticket, time.Now()),
	})
}

func parseIntQuery(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return parsed
}
