package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	brokerPkg "salon-booking/broker"
	"salon-booking/config"
	"salon-booking/internal/api"
	"salon-booking/internal/cache"
	"salon-booking/internal/db"
	"salon-booking/internal/db/repos"
	"salon-booking/internal/events"
	"salon-booking/internal/locker"
	"salon-booking/internal/notify"
	"salon-booking/internal/ratelimit"
	"salon-booking/internal/reservation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	conn := db.NewDB(cfg.DatabaseDSN)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to ping redis: %v", err)
	}

	// The broker is optional: the booking path must not depend on it.
	var publisher notify.Publisher
	var msgBroker *brokerPkg.Broker
	if cfg.RabbitMQURL != "" {
		msgBroker, err = brokerPkg.NewBroker(cfg.RabbitMQURL, cfg.NotifyQueue)
		if err != nil {
			log.Printf("Warning: failed to create broker: %v", err)
		} else {
			publisher = msgBroker
		}
	}

	slotRepo := repos.NewSlotRepository(conn)
	bookingRepo := repos.NewBookingRepository(conn)
	serviceRepo := repos.NewServiceRepository(conn)
	masterRepo := repos.NewMasterRepository(conn)

	scheduleCache := cache.New(rdb, time.Duration(cfg.CacheTTLSeconds)*time.Second)
	eventPublisher := events.NewPublisher(rdb, time.Duration(cfg.EventTTLSeconds)*time.Second)

	coordinator := reservation.NewCoordinator(reservation.Deps{
		Slots:    slotRepo,
		Bookings: bookingRepo,
		Services: serviceRepo,
		Locker:   locker.New(rdb),
		Cache:    scheduleCache,
		Events:   eventPublisher,
		Notify:   notify.New(publisher),
		LockTTL:  time.Duration(cfg.LockTTLSeconds) * time.Second,
	})

	handler := api.NewHandler(
		coordinator,
		masterRepo,
		slotRepo,
		serviceRepo,
		bookingRepo,
		scheduleCache,
		events.NewReader(rdb),
		api.HandlerConfig{
			StreamPollInterval: time.Duration(cfg.StreamPollSeconds) * time.Second,
			DayStartHour:       cfg.DayStartHour,
			DayEndHour:         cfg.DayEndHour,
			SlotGranularityMin: cfg.SlotGranularityMin,
		},
	)

	router := gin.Default()
	api.SetupRoutes(router, handler, ratelimit.New(rdb), api.RateLimits{
		CreatePerWindow: cfg.CreateRateLimit,
		CancelPerWindow: cfg.CancelRateLimit,
		Window:          time.Duration(cfg.RateWindowSeconds) * time.Second,
	}, cfg.JWTSecret)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("Listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}
	if msgBroker != nil {
		if err := msgBroker.Close(); err != nil {
			log.Printf("Error closing broker: %v", err)
		}
	}
	if err := rdb.Close(); err != nil {
		log.Printf("Error closing redis connection: %v", err)
	}
	if err := conn.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	}
}
