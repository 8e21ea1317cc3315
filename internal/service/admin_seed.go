// Package service holds the startup and background jobs that run beside
// the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cinema-ticket-booking/internal/logger"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
	"github.com/iliyamo/cinema-ticket-booking/internal/repository"
	"github.com/iliyamo/cinema-ticket-booking/internal/utils"
)

// UserStore is the subset of user persistence the seeder needs.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// AdminAccount describes the administrator created at startup.
type AdminAccount struct {
	Name       string
	Email      string
	Password   string
	BcryptCost int
}

// SeedAdmin makes sure the configured admin account exists.  It returns
// true when an account was created.  An empty email disables seeding; an
// existing account is left untouched, including its password.
func SeedAdmin(ctx context.Context, users UserStore, acc AdminAccount, log *logger.Logger) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(acc.Email))
	if email == "" {
		log.InfoContext(ctx, "admin seed skipped: ADMIN_EMAIL not set")
		return false, nil
	}
	if acc.Password == "" {
		return false, errors.New("admin seed: ADMIN_PASSWORD is required when ADMIN_EMAIL is set")
	}

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != model.RoleAdmin {
			log.WarnContext(ctx, "admin seed: email belongs to a non-admin account", "email", email)
		}
		return false, nil
	case !errors.Is(err, repository.ErrNotFound):
		return false, fmt.Errorf("admin seed: lookup: %w", err)
	}

	hash, err := utils.HashPassword(acc.Password, acc.BcryptCost)
	if err != nil {
		return false, fmt.Errorf("admin seed: hash: %w", err)
	}
	u := &model.User{
		Name:         acc.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	}
	if err := users.Create(ctx, u); err != nil {
		// Another instance may have won the race.
		if errors.Is(err, repository.ErrEmailExists) {
			return false, nil
		}
		return false, fmt.Errorf("admin seed: create: %w", err)
	}
	log.InfoContext(ctx, "admin account created", "email", email)
	return true, nil
}
