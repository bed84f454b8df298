// Package router wires handlers, middleware and route groups onto the Echo
// instance. Public browse endpoints carry no auth; everything touching seat
// state requires a valid access token, and venue/event writes require the
// ADMIN role.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/seatwise/event-ticketing/internal/config"
	"github.com/seatwise/event-ticketing/internal/handler"
	"github.com/seatwise/event-ticketing/internal/middleware"
	"github.com/seatwise/event-ticketing/internal/model"
)

// Handlers groups everything the router needs to register routes.
type Handlers struct {
	Auth         *handler.AuthHandler
	Seats        *handler.SeatHandler
	Reservations *handler.ReservationHandler
	Tickets      *handler.TicketHandler
	Events       *handler.EventHandler
	Venues       *handler.VenueHandler
	Health       *handler.HealthHandler
}

// Register sets up all routes. rdb may be nil, which disables rate limiting
// and the browse cache.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rlCfg config.RateLimitConfig,
	cacheCfg config.CacheConfig, rdb *redis.Client) {
	e.GET("/healthz", h.Health.Healthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Auth endpoints: no session required except /me.
	authGroup := e.Group("/v1/auth")
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/refresh", h.Auth.Refresh)
	authGroup.POST("/logout", h.Auth.Logout)

	// Public browse endpoints. Event and venue listings sit behind a short
	// Redis cache; seat availability is always served fresh.
	cached := middleware.BrowseCache(cacheCfg, rdb)
	e.GET("/v1/events", h.Events.Index, cached)
	e.GET("/v1/events/:id", h.Events.Show, cached)
	e.GET("/v1/events/:id/seats", h.Seats.ByEvent)
	e.GET("/v1/venues", h.Venues.Index, cached)
	e.GET("/v1/venues/:id", h.Venues.Show, cached)
	e.GET("/v1/venues/:id/seats", h.Seats.ByVenue)

	// Everything below requires a valid access token.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(cfg.JWTSecret))
	auth.Use(middleware.RequireRole(model.RoleAdmin, model.RoleCustomer))
	auth.GET("/me", h.Auth.Me)
	auth.POST("/auth/logout-all", h.Auth.LogoutAll)

	// Hold endpoints carry the rate limiter; these are the hot paths a
	// misbehaving client hammers during on-sales.
	limited := auth.Group("", middleware.RateLimit(rlCfg, rdb))
	limited.POST("/seats/block", h.Seats.Block)
	limited.DELETE("/seats/release", h.Seats.Release)
	limited.POST("/rezervations", h.Reservations.Store)

	auth.GET("/rezervations", h.Reservations.Index)
	auth.GET("/rezervations/:id", h.Reservations.Show)
	auth.POST("/rezervations/:id/confirm", h.Reservations.Confirm)
	auth.DELETE("/rezervations/:id", h.Reservations.Destroy)

	auth.GET("/tickets", h.Tickets.Index)
	auth.GET("/tickets/:id", h.Tickets.Show)
	auth.POST("/tickets/:id/transfer", h.Tickets.Transfer)
	auth.POST("/tickets/:id/cancel", h.Tickets.Cancel)

	// Admin-only writes.
	admin := e.Group("/v1")
	admin.Use(middleware.JWTAuth(cfg.JWTSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.POST("/events", h.Events.Store)
	admin.PUT("/events/:id", h.Events.Update)
	admin.DELETE("/events/:id", h.Events.Destroy)
	admin.POST("/venues", h.Venues.Store)
	admin.PUT("/venues/:id", h.Venues.Update)
	admin.DELETE("/venues/:id", h.Venues.Destroy)
}
