package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tourguide-auth/config"
	"github.com/oksasatya/tourguide-auth/internal/domain/entity"
	repouser "github.com/oksasatya/tourguide-auth/internal/domain/repository"
	pginfra "github.com/oksasatya/tourguide-auth/internal/infrastructure/postgres"
	"github.com/oksasatya/tourguide-auth/pkg/helpers"
)

// seed creates the first admin account through the same hasher and repository the API uses.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)

	email := entity.NormalizeEmail(getenv("SEED_ADMIN_EMAIL", "admin@tourguide.local"))
	name := getenv("SEED_ADMIN_NAME", "Admin")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		log.Fatal("SEED_ADMIN_PASSWORD is required")
	}

	ctx := context.Background()
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{AppName: cfg.AppName + "-seed", MaxConns: 2})
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	hash, err := helpers.NewBcryptHasher(cfg.BcryptCost).Hash(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	users := pginfra.NewUserRepository(pool)
	u := &entity.User{Name: name, Email: email, Role: entity.RoleAdmin, PasswordHash: hash}
	err = users.Create(ctx, u)
	switch {
	case errors.Is(err, repouser.ErrDuplicateEmail):
		helpers.LogInfo(logger, "admin already exists, nothing to do", logrus.Fields{"email": email})
	case err != nil:
		helpers.LogError(logger, "failed to seed admin", err, logrus.Fields{"email": email})
		os.Exit(1)
	default:
		helpers.LogInfo(logger, "seeded admin", logrus.Fields{"id": u.ID, "email": email})
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
