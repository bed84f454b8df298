package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/seatwise/event-ticketing/internal/config"
	"github.com/seatwise/event-ticketing/internal/database"
	"github.com/seatwise/event-ticketing/internal/handler"
	"github.com/seatwise/event-ticketing/internal/queue"
	"github.com/seatwise/event-ticketing/internal/repository"
	"github.com/seatwise/event-ticketing/internal/router"
	"github.com/seatwise/event-ticketing/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting and browse cache disabled")
	}
	rlCfg := config.LoadRateLimitConfig()
	cacheCfg := config.LoadCacheConfig()

	// Repositories
	seatRepo := repository.NewSeatRepo(db)
	venueRepo := repository.NewVenueRepo(db)
	eventRepo := repository.NewEventRepo(db)
	rezRepo := repository.NewReservationRepo(db)
	ticketRepo := repository.NewTicketRepo(db)
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)

	// Services
	seatSvc := service.NewSeatService(seatRepo, venueRepo, eventRepo, rezRepo, ticketRepo, cfg.HoldTTLMin)
	rezSvc := service.NewReservationService(rezRepo, seatRepo, eventRepo, ticketRepo, userRepo, cfg.ReserveTTLMin)
	ticketSvc := service.NewTicketService(ticketRepo, rezRepo, seatRepo, userRepo, cfg.CancelMinHours)
	venueSvc := service.NewVenueService(venueRepo, seatRepo)
	eventSvc := service.NewEventService(eventRepo, venueRepo)

	// Background workers: the expiry sweeper and the ticket log consumer.
	sweeper := service.NewSweeper(rezRepo, seatRepo)
	cronSched := sweeper.Start()
	defer cronSched.Stop()

	go func() {
		if err := queue.StartTicketConsumer(); err != nil {
			log.Printf("ticket consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Handlers{
		Auth:         handler.NewAuthHandler(cfg, userRepo, tokenRepo),
		Seats:        handler.NewSeatHandler(seatSvc),
		Reservations: handler.NewReservationHandler(rezSvc),
		Tickets:      handler.NewTicketHandler(ticketSvc),
		Events:       handler.NewEventHandler(eventSvc),
		Venues:       handler.NewVenueHandler(venueSvc),
		Health:       handler.NewHealthHandler(db),
	}, cfg, rlCfg, cacheCfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
