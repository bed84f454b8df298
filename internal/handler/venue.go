package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/seatwise/event-ticketing/internal/model"
	"github.com/seatwise/event-ticketing/internal/service"
)

// VenueHandler exposes venue CRUD. Writes are admin-only (enforced at the
// router); capacity changes trigger seat-set reconciliation in the service.
type VenueHandler struct {
	Venues *service.VenueService
}

func NewVenueHandler(s *service.VenueService) *VenueHandler {
	return &VenueHandler{Venues: s}
}

type venueReq struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Capacity uint32 `json:"capacity"`
}

func (r *venueReq) validate() string {
	r.Name = strings.TrimSpace(r.Name)
	r.Address = strings.TrimSpace(r.Address)
	if r.Name == "" || len(r.Name) > 255 {
		return "name required (max 255)"
	}
	if r.Address == "" || len(r.Address) > 500 {
		return "address required (max 500)"
	}
	if r.Capacity < 1 || r.Capacity > 2200 {
		return "capacity must be between 1 and 2200"
	}
	return ""
}

// Index lists all venues.
func (h *VenueHandler) Index(c echo.Context) error {
	venues, err := h.Venues.List(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"venues": venues})
}

// Show returns one venue.
func (h *VenueHandler) Show(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}
	v, err := h.Venues.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"venue": v})
}

// Store creates a venue and generates its seat grid.
func (h *VenueHandler) Store(c echo.Context) error {
	var req venueReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	v := &model.Venue{Name: req.Name, Address: req.Address, Capacity: req.Capacity}
	if err := h.Venues.Create(c.Request().Context(), v); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"venue": v})
}

// Update changes a venue and reconciles seats when capacity moved.
func (h *VenueHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}
	var req venueReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	v := &model.Venue{ID: id, Name: req.Name, Address: req.Address, Capacity: req.Capacity}
	if err := h.Venues.Update(c.Request().Context(), v); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"venue": v})
}

// Destroy deletes a venue without events.
func (h *VenueHandler) Destroy(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}
	if err := h.Venues.Delete(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success"})
}
