package ticket

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/lumeno/academy-api/model"
	"github.com/lumeno/academy-api/services"
	"github.com/lumeno/academy-api/utils/middleware"
	"github.com/lumeno/academy-api/utils/response"
)

// TicketHandler handles support ticket endpoints
type TicketHandler struct {
	tickets *services.TicketService
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(tickets *services.TicketService) *TicketHandler {
	return &TicketHandler{tickets: tickets}
}

// CreateTicketRequest opens a ticket with its first message
type CreateTicketRequest struct {
	Subject string `json:"subject" validate:"required,min=3,max=200"`
	Body    string `json:"body" validate:"required,min=1"`
}

// CreateTicket handles POST /api/v1/tickets
func (h *TicketHandler) CreateTicket(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Subject == "" || req.Body == "" {
		return response.BadRequest(c, "subject and body are required")
	}

	ticket, err := h.tickets.CreateTicket(c.Context(), user, req.Subject, req.Body)
	if err != nil {
		log.Printf("Failed to create ticket for user %d: %v", user.ID, err)
		return response.InternalServerError(c, "Failed to create ticket")
	}

	return response.Created(c, ticket)
}

// ListTickets handles GET /api/v1/tickets
func (h *TicketHandler) ListTickets(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	tickets, total, err := h.tickets.ListTickets(c.Context(), user.ID, limit, (page-1)*limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch tickets")
	}

	return response.Paginated(c, tickets, response.CalculatePagination(page, limit, total))
}

// GetTicket handles GET /api/v1/tickets/:id
func (h *TicketHandler) GetTicket(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	ticketID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid ticket ID")
	}

	ticket, err := h.tickets.GetTicket(c.Context(), user, uint(ticketID))
	if err != nil {
		return respondTicketError(c, err)
	}

	return response.Success(c, ticket)
}

// ReplyRequest appends a message to a ticket thread
type ReplyRequest struct {
	Body string `json:"body" validate:"required,min=1"`
}

// Reply handles POST /api/v1/tickets/:id/messages
func (h *TicketHandler) Reply(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	ticketID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid ticket ID")
	}

	var req ReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Body == "" {
		return response.BadRequest(c, "body is required")
	}

	message, err := h.tickets.Reply(c.Context(), user, uint(ticketID), req.Body)
	if err != nil {
		return respondTicketError(c, err)
	}

	return response.Created(c, message)
}

// ListAllTickets handles GET /api/v1/admin/tickets
func (h *TicketHandler) ListAllTickets(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	status := c.Query("status")

	tickets, total, err := h.tickets.ListAllTickets(c.Context(), status, limit, (page-1)*limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch tickets")
	}

	return response.Paginated(c, tickets, response.CalculatePagination(page, limit, total))
}

// SetStatusRequest changes a ticket's status
type SetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open pending closed"`
}

// SetStatus handles PUT /api/v1/admin/tickets/:id/status
func (h *TicketHandler) SetStatus(c *fiber.Ctx) error {
	ticketID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid ticket ID")
	}

	var req SetStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	status := model.TicketStatus(req.Status)
	switch status {
	case model.TicketStatusOpen, model.TicketStatusPending, model.TicketStatusClosed:
	default:
		return response.BadRequest(c, "status must be open, pending, or closed")
	}

	if err := h.tickets.SetStatus(c.Context(), uint(ticketID), status); err != nil {
		return respondTicketError(c, err)
	}

	return response.SuccessWithMessage(c, "Ticket status updated", nil)
}

func respondTicketError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		return response.Unauthorized(c, "Authentication required")
	case errors.Is(err, services.ErrForbidden):
		return response.Forbidden(c, "You cannot access this ticket")
	case errors.Is(err, services.ErrNotFound):
		return response.NotFound(c, "Ticket not found")
	default:
		log.Printf("Ticket operation failed: %v", err)
		return response.InternalServerError(c, "Ticket operation failed")
	}
}
