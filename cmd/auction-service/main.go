package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisClient "github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"live-auction/internal/api/handlers"
	"live-auction/internal/config"
	"live-auction/internal/infrastructure/mysql"
	redisinfra "live-auction/internal/infrastructure/redis"
	"live-auction/internal/infrastructure/websocket"
	"live-auction/internal/services"
	"live-auction/pkg/logger"
	"live-auction/pkg/utils"
)

func main() {
	log := logger.New()
	log.Info("Starting live auction service")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	log.Info("Configuration loaded", "config", cfg.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Redis backs the event bus and the listing cache.
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	db, err := utils.InitializeMySQL(ctx, utils.MySQLSettings{
		DSN:             cfg.MySQL.DSN,
		MaxOpenConns:    cfg.MySQL.MaxOpenConns,
		MaxIdleConns:    cfg.MySQL.MaxIdleConns,
		ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
	})
	if err != nil {
		log.Error("Failed to connect to MySQL", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("Connected to MySQL")

	// Store and event fabric.
	store := mysql.NewAuctionStore(db, cfg.MySQL.LockWaitTimeout)
	publisher := redisinfra.NewEventPublisher(rdb)
	subscriber := redisinfra.NewEventSubscriber(rdb,
		cfg.Bus.SubscribeAttempts, cfg.Bus.SubscribeBackoff, log)
	listings := redisinfra.NewListingCache(rdb, cfg.Cache.ListingTTL, log)

	// Fanout gateway: local rooms first, bus second, echo suppression on the
	// way back in.
	rooms := websocket.NewRoomManager(log)
	gateway := services.NewFanoutGateway(rooms, publisher, cfg.Instance.ID, log)
	if err := gateway.RegisterBusHandlers(subscriber); err != nil {
		log.Error("Failed to register bus handlers", "error", err)
		os.Exit(1)
	}

	// An instance that cannot subscribe must not come up healthy.
	runCtx, stop := context.WithCancel(context.Background())
	defer stop()
	if err := subscriber.Start(runCtx); err != nil {
		log.Error("Failed to start event bus subscriber", "error", err)
		os.Exit(1)
	}
	defer subscriber.Close()

	bidService := services.NewBidService(store, gateway, log)
	auctionService := services.NewAuctionService(store, gateway, listings, log)

	sweeper := services.NewSweeper(store, gateway, listings, cfg.Sweeper.Interval, log)
	if err := sweeper.Start(runCtx); err != nil {
		log.Error("Failed to start sweeper", "error", err)
		os.Exit(1)
	}

	// HTTP API listener.
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			echo.GET, echo.HEAD, echo.PUT, echo.PATCH,
			echo.POST, echo.DELETE, echo.OPTIONS,
		},
	}))

	api := e.Group("/api/v1")
	handlers.NewAuctionHandler(auctionService, log).Register(api)
	handlers.NewBidHandler(bidService, log).Register(api)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "live-auction",
			"instance":  cfg.Instance.ID,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	apiAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.APIPort)
	go func() {
		log.Info("Starting API server", "address", apiAddr)
		if err := e.Start(apiAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("API server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Realtime listener.
	wsHandler, err := websocket.NewHandler(bidService, rooms, log)
	if err != nil {
		log.Error("Failed to build realtime handler", "error", err)
		os.Exit(1)
	}

	router := mux.NewRouter()
	router.HandleFunc("/ws", wsHandler.HandleConnection)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	realtimeServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.RealtimePort),
		Handler: router,
	}
	go func() {
		log.Info("Starting realtime server", "address", realtimeServer.Addr)
		if err := realtimeServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Realtime server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down live auction service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := sweeper.Stop(); err != nil {
		log.Error("Failed to stop sweeper", "error", err)
	}
	stop() // ends the bus delivery loop
	if err := realtimeServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Realtime server forced to shutdown", "error", err)
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("API server forced to shutdown", "error", err)
	}

	log.Info("Live auction service stopped")
}
