package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-login-server/internal/config"
	apperrors "github.com/jrsteele09/go-login-server/internal/errors"
	"github.com/jrsteele09/go-login-server/users"
	"github.com/rs/zerolog/log"
)

// SeedUser makes sure the user named by SEED_USER_EMAIL exists with the
// password from SEED_USER_PASSWORD. Nothing happens when either is unset.
// An existing user keeps its id and gets the configured password.
func SeedUser(ctx context.Context, cfg config.EnvConfig, userRepo users.UserRepo) error {
	email, password := cfg.GetSeedUserEmail(), cfg.GetSeedUserPassword()
	if email == "" || password == "" {
		return nil
	}

	hash, err := users.HashPassword(password)
	if err != nil {
		return fmt.Errorf("[SeedUser] failed to hash password: %w", err)
	}

	user, err := userRepo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		user = &users.User{
			ID:         uuid.NewString(),
			Email:      email,
			DateJoined: time.Now().UTC(),
		}
	case err != nil:
		return fmt.Errorf("[SeedUser] failed to look up %s: %w", email, err)
	}

	user.PasswordHash = hash
	if err := userRepo.Upsert(ctx, user); err != nil {
		return fmt.Errorf("[SeedUser] failed to store %s: %w", email, err)
	}
	log.Info().Str("email", email).Str("user_id", user.ID).Msg("Seed user ready")
	return nil
}
