package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"space-service/internal/api/routes"
	"space-service/internal/config"
	"space-service/internal/database"
	"space-service/internal/repositories/postgres"
	"space-service/internal/services"
	"space-service/internal/websocket"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env when present; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting space server")

	// Redis connection
	redisClient, err := database.NewRedisConnection(&cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// PostgreSQL connection
	db, err := database.NewPostgresConnection(cfg.Database.URI)
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}

	redisService := services.NewRedisService(redisClient)

	spaceRepo := postgres.NewSpaceRepository(db)
	messageRepo := postgres.NewMessageRepository(db)

	// Real-time core
	registry := websocket.NewRegistry()
	rooms := websocket.NewRoomRouter()
	authorizer := websocket.NewAuthorizer(spaceRepo, cfg.Auth.CacheTTL)

	var stream websocket.StreamPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := services.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer publisher.Close()
		stream = publisher
		slog.Info("Chat stream publisher enabled", "topic", cfg.Kafka.Topic)
	}

	processor := websocket.NewProcessor(registry, rooms, authorizer, messageRepo, stream)
	hub := websocket.NewHub(processor, redisService)
	go hub.Run()

	router := routes.NewRouter(hub, authorizer, redisService, db, cfg)
	router.SetupRoutes()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hub.Stop()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server stopped")
}
