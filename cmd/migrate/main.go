package main

import (
	"log"
	"log/slog"

	"space-service/internal/config"
	"space-service/internal/database"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Running database migrations...")

	// NewPostgresConnection runs Migrate as part of setup.
	if _, err := database.NewPostgresConnection(cfg.Database.URI); err != nil {
		log.Fatal("Migration failed:", err)
	}

	slog.Info("Migrations complete")
}
