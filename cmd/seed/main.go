package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gorm.io/gorm"

	"github.com/HenriqueSouzza/unidos-backend/internal/auth"
	"github.com/HenriqueSouzza/unidos-backend/internal/config"
	"github.com/HenriqueSouzza/unidos-backend/internal/db"
	"github.com/HenriqueSouzza/unidos-backend/internal/logger"
	"github.com/HenriqueSouzza/unidos-backend/internal/model"
	"github.com/HenriqueSouzza/unidos-backend/internal/repository"
)

// SeedUser is one entry of the seed file.
type SeedUser struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func main() {
	file := flag.String("file", "users.json", "path to a JSON array of {name, email, password}")
	flag.Parse()

	cfg := config.Load()
	log := logger.SetupDefault(os.Stdout, cfg.LogLevel)

	f, err := os.Open(*file)
	if err != nil {
		log.Error("open seed file", slog.String("error", err.Error()))
		os.Exit(1)
	}
	users, err := readSeedUsers(f)
	f.Close()
	if err != nil {
		log.Error("read seed file", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("loaded seed users", slog.Int("count", len(users)), slog.String("file", *file))

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, db.Options{})
	if err != nil {
		log.Error("database init", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Error("migrate", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repo := repository.NewUserRepository(gormDB)
	created, updated, err := seedUsers(context.Background(), repo, auth.NewBcryptHasher(0), users)
	if err != nil {
		log.Error("seed users", slog.String("error", err.Error()),
			slog.Int("created", created), slog.Int("updated", updated))
		os.Exit(1)
	}

	log.Info("seed completed",
		slog.Int("created", created),
		slog.Int("updated", updated),
		slog.Int("total", created+updated),
	)
}

func readSeedUsers(r io.Reader) ([]SeedUser, error) {
	var users []SeedUser
	if err := json.NewDecoder(r).Decode(&users); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	for i, u := range users {
		if u.Email == "" || u.Password == "" {
			return nil, fmt.Errorf("entry %d: email and password are required", i)
		}
	}
	return users, nil
}

// seedUsers creates new users or updates the name and password of existing ones.
func seedUsers(ctx context.Context, repo repository.UserRepository, hasher auth.PasswordHasher, users []SeedUser) (created int, updated int, err error) {
	for _, u := range users {
		hash, err := hasher.Hash(u.Password)
		if err != nil {
			return created, updated, fmt.Errorf("hash password for %s: %w", u.Email, err)
		}

		existing, err := repo.FindByEmail(ctx, u.Email)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, updated, fmt.Errorf("find user %s: %w", u.Email, err)
		}

		if existing != nil {
			existing.Name = u.Name
			existing.PasswordHash = hash
			if err := repo.Update(ctx, existing); err != nil {
				return created, updated, fmt.Errorf("update user %s: %w", u.Email, err)
			}
			updated++
			continue
		}

		user := &model.User{Name: u.Name, Email: u.Email, PasswordHash: hash}
		if err := repo.Create(ctx, user); err != nil {
			return created, updated, fmt.Errorf("create user %s: %w", u.Email, err)
		}
		created++
	}

	return created, updated, nil
}
