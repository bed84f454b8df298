package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/seatwise/event-ticketing/internal/middleware"
	"github.com/seatwise/event-ticketing/internal/repository"
	"github.com/seatwise/event-ticketing/internal/service"
)

// TicketHandler exposes the ticket listing, transfer and cancel endpoints.
type TicketHandler struct {
	Tickets *service.TicketService
}

func NewTicketHandler(s *service.TicketService) *TicketHandler {
	return &TicketHandler{Tickets: s}
}

type ticketTransferReq struct {
	Email string `json:"email"`
}

// Index lists the caller's tickets with optional status/event_id filters.
func (h *TicketHandler) Index(c echo.Context) error {
	userID := middleware.UserID(c)
	f := repository.TicketFilter{Status: strings.TrimSpace(c.QueryParam("status"))}
	if raw := c.QueryParam("event_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event_id"})
		}
		f.EventID = id
	}
	tickets, err := h.Tickets.List(c.Request().Context(), userID, f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": tickets})
}

// Show returns one of the caller's tickets with seat and event.
func (h *TicketHandler) Show(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	userID := middleware.UserID(c)

	t, err := h.Tickets.Get(c.Request().Context(), id, userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ticket": t})
}

// Transfer hands the ticket to the user registered under the given email.
func (h *TicketHandler) Transfer(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	var req ticketTransferReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}
	userID := middleware.UserID(c)

	t, err := h.Tickets.Transfer(c.Request().Context(), id, userID, strings.TrimSpace(req.Email))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "ticket": t})
}

// Cancel voids the ticket and frees its seat.
func (h *TicketHandler) Cancel(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	userID := middleware.UserID(c)

	t, err := h.Tickets.Cancel(c.Request().Context(), id, userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "ticket": t})
}
