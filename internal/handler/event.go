package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/seatwise/event-ticketing/internal/model"
	"github.com/seatwise/event-ticketing/internal/repository"
	"github.com/seatwise/event-ticketing/internal/service"
)

// EventHandler exposes event CRUD. Writes are admin-only, enforced at the
// router.
type EventHandler struct {
	Events *service.EventService
}

func NewEventHandler(s *service.EventService) *EventHandler {
	return &EventHandler{Events: s}
}

type eventReq struct {
	VenueID     uint64 `json:"venue_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Status      string `json:"status"`
}

func (r *eventReq) toModel() (*model.Event, string) {
	r.Name = strings.TrimSpace(r.Name)
	if r.VenueID == 0 {
		return nil, "venue_id required"
	}
	if r.Name == "" || len(r.Name) > 255 {
		return nil, "name required (max 255)"
	}
	start, err := time.Parse(time.RFC3339, r.StartDate)
	if err != nil {
		return nil, "start_date must be RFC3339"
	}
	end, err := time.Parse(time.RFC3339, r.EndDate)
	if err != nil {
		return nil, "end_date must be RFC3339"
	}
	status := strings.ToLower(strings.TrimSpace(r.Status))
	switch status {
	case "", model.EventDraft, model.EventPublished, model.EventCancelled, model.EventArchived:
	default:
		return nil, "invalid status"
	}
	return &model.Event{
		VenueID:     r.VenueID,
		Name:        r.Name,
		Description: r.Description,
		StartsAt:    start.UTC(),
		EndsAt:      end.UTC(),
		Status:      status,
	}, ""
}

// Index lists events. Defaults to published; ?status= overrides and
// ?upcoming=true keeps only events that have not started.
func (h *EventHandler) Index(c echo.Context) error {
	f := repository.EventFilter{Status: model.EventPublished}
	if s := strings.ToLower(strings.TrimSpace(c.QueryParam("status"))); s != "" {
		if s == "all" {
			f.Status = ""
		} else {
			f.Status = s
		}
	}
	if raw := c.QueryParam("venue_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue_id"})
		}
		f.VenueID = id
	}
	if strings.EqualFold(c.QueryParam("upcoming"), "true") {
		f.Upcoming = true
	}
	events, err := h.Events.List(c.Request().Context(), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// Show returns one event.
func (h *EventHandler) Show(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	e, err := h.Events.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"event": e})
}

// Store creates an event.
func (h *EventHandler) Store(c echo.Context) error {
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	e, msg := req.toModel()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if err := h.Events.Create(c.Request().Context(), e); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"event": e})
}

// Update changes an event under the same invariants as Store.
func (h *EventHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	e, msg := req.toModel()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	e.ID = id
	if err := h.Events.Update(c.Request().Context(), e); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"event": e})
}

// Destroy deletes an event, degrading to status=cancelled when reservations
// reference it.
func (h *EventHandler) Destroy(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	if err := h.Events.Delete(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success"})
}
