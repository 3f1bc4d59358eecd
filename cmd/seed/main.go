package main

import (
	"context"
	"log"
	"log/slog"

	"space-service/internal/config"
	"space-service/internal/database"
	"space-service/internal/models"
	"space-service/internal/repositories/postgres"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting database seeding...")

	db, err := database.NewPostgresConnection(cfg.Database.URI)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	ctx := context.Background()
	userRepo := postgres.NewUserRepository(db)
	spaceRepo := postgres.NewSpaceRepository(db)

	users := []struct {
		username string
		email    string
	}{
		{"admin", "admin@space.local"},
		{"alice", "alice@space.local"},
		{"bob", "bob@space.local"},
		{"charlie", "charlie@space.local"},
	}

	created := make(map[string]uint)
	for _, u := range users {
		hashed, _ := bcrypt.GenerateFromPassword([]byte("123456"), bcrypt.DefaultCost)
		user := &models.User{
			Username: u.username,
			Email:    u.email,
			Password: string(hashed),
			Status:   models.UserStatusOffline,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			slog.Warn("User might already exist", "username", u.username, "error", err)
			continue
		}
		created[u.username] = user.ID
		slog.Info("Created user", "username", u.username, "id", user.ID)
	}

	if ownerID, ok := created["admin"]; ok {
		spaces := []models.Space{
			{Name: "Lobby", Description: "Open hangout", Type: models.SpaceTypePublic, MaxUsers: 50, OwnerID: ownerID},
			{Name: "Staff Room", Description: "Invite only", Type: models.SpaceTypePrivate, MaxUsers: 10, OwnerID: ownerID},
		}
		for i := range spaces {
			if err := spaceRepo.Create(ctx, &spaces[i]); err != nil {
				slog.Warn("Space might already exist", "name", spaces[i].Name, "error", err)
				continue
			}
			slog.Info("Created space", "name", spaces[i].Name, "id", spaces[i].ID)
		}
	}

	slog.Info("Seeding complete")
}
