package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/seatwise/event-ticketing/internal/middleware"
	"github.com/seatwise/event-ticketing/internal/service"
)

// SeatHandler exposes the hold endpoints and seat listings.
type SeatHandler struct {
	Seats *service.SeatService
}

func NewSeatHandler(s *service.SeatService) *SeatHandler {
	return &SeatHandler{Seats: s}
}

type seatBlockReq struct {
	EventID uint64   `json:"event_id"`
	SeatIDs []uint64 `json:"seat_ids"`
}

type seatReleaseReq struct {
	SeatIDs []uint64 `json:"seat_ids"`
}

// Block places a hold on the requested seats for the caller.
func (h *SeatHandler) Block(c echo.Context) error {
	var req seatBlockReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.EventID == 0 || len(req.SeatIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id and seat_ids required"})
	}
	userID := middleware.UserID(c)

	blocked, err := h.Seats.Block(c.Request().Context(), req.SeatIDs, req.EventID, userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":           "success",
		"blocked_seat_ids": blocked,
	})
}

// Release clears the caller's holds on the given seats, best-effort.
func (h *SeatHandler) Release(c echo.Context) error {
	var req seatReleaseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.SeatIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids required"})
	}
	userID := middleware.UserID(c)

	released, err := h.Seats.Release(c.Request().Context(), req.SeatIDs, userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":         "success",
		"released_count": released,
	})
}

// ByEvent lists the event's seats with their event-scoped status.
func (h *SeatHandler) ByEvent(c echo.Context) error {
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	seats, err := h.Seats.ListByEvent(c.Request().Context(), eventID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, seats)
}

// ByVenue lists a venue's seats with their stored global status.
func (h *SeatHandler) ByVenue(c echo.Context) error {
	venueID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}
	seats, err := h.Seats.ListByVenue(c.Request().Context(), venueID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, seats)
}
