package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/seatwise/event-ticketing/internal/middleware"
	"github.com/seatwise/event-ticketing/internal/service"
)

// ReservationHandler exposes the reservation lifecycle endpoints.
type ReservationHandler struct {
	Reservations *service.ReservationService
}

func NewReservationHandler(s *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{Reservations: s}
}

type reservationStoreReq struct {
	EventID uint64   `json:"event_id"`
	SeatIDs []uint64 `json:"seat_ids"`
}

// Store converts the caller's seat holds into a pending reservation.
func (h *ReservationHandler) Store(c echo.Context) error {
	var req reservationStoreReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.EventID == 0 || len(req.SeatIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id and seat_ids required"})
	}
	userID := middleware.UserID(c)

	rez, err := h.Reservations.Store(c.Request().Context(), userID, req.EventID, req.SeatIDs)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"status":         "success",
		"reservation_id": rez.ID,
		"total_amount":   rez.TotalAmountCents,
		"expires_at":     rez.ExpiresAt,
		"items_count":    len(rez.Items),
		"rezervation":    rez,
	})
}

// Confirm settles a pending reservation into sold seats and tickets.
func (h *ReservationHandler) Confirm(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	userID := middleware.UserID(c)

	rez, tickets, err := h.Reservations.Confirm(c.Request().Context(), id, userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":      "success",
		"rezervation": rez,
		"tickets":     tickets,
	})
}

// Index lists the caller's reservations, newest first.
func (h *ReservationHandler) Index(c echo.Context) error {
	userID := middleware.UserID(c)
	list, err := h.Reservations.List(c.Request().Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"rezervations": list})
}

// Show returns one of the caller's reservations with items and event.
func (h *ReservationHandler) Show(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	userID := middleware.UserID(c)

	rez, err := h.Reservations.Get(c.Request().Context(), id, userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"rezervation": rez})
}

// Destroy cancels a pending reservation and frees its seats.
func (h *ReservationHandler) Destroy(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	userID := middleware.UserID(c)

	if err := h.Reservations.Cancel(c.Request().Context(), id, userID); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success"})
}
