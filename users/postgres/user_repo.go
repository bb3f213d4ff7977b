// Package postgres implements users.UserRepo on PostgreSQL with pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	apperrors "github.com/jrsteele09/go-login-server/internal/errors"
	"github.com/jrsteele09/go-login-server/users"
)

// DB is the subset of pgxpool.Pool used by the repository.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	first_name    TEXT NOT NULL DEFAULT '',
	last_name     TEXT NOT NULL DEFAULT '',
	date_joined   TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_login    TIMESTAMPTZ
)`

// A user who never logged in reads back with the zero time.
const selectColumns = `SELECT id, email, password_hash, first_name, last_name, date_joined,
	COALESCE(last_login, '0001-01-01 00:00:00+00'::timestamptz) FROM users`

var _ users.UserRepo = (*UserRepo)(nil)

type UserRepo struct {
	db DB
}

func NewUserRepo(db DB) *UserRepo {
	return &UserRepo{db: db}
}

// EnsureSchema creates the users table when it does not exist yet.
func (r *UserRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("[EnsureSchema] create users table: %w", err)
	}
	return nil
}

func (r *UserRepo) Upsert(ctx context.Context, user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.DateJoined.IsZero() {
		user.DateJoined = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name, date_joined)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name`,
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.DateJoined,
	)
	if err != nil {
		return fmt.Errorf("[Upsert] user %s: %w", user.Email, err)
	}
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, email string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("[Delete] user %s: %w", email, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.Wrapf(apperrors.ErrUserNotFound, "[Delete] email %s", email)
	}
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, selectColumns+` WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.Wrapf(apperrors.ErrUserNotFound, "[GetByEmail] email %s", email)
	}
	if err != nil {
		return nil, fmt.Errorf("[GetByEmail] email %s: %w", email, err)
	}
	return user, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, selectColumns+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.Wrapf(apperrors.ErrUserNotFound, "[GetByID] id %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("[GetByID] id %s: %w", id, err)
	}
	return user, nil
}

func (r *UserRepo) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("[SetLastLogin] id %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.Wrapf(apperrors.ErrUserNotFound, "[SetLastLogin] id %s", id)
	}
	return nil
}

func scanUser(row pgx.Row) (*users.User, error) {
	var u users.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.DateJoined, &u.LastLogin); err != nil {
		return nil, err
	}
	if !u.LastLogin.IsZero() {
		u.LastLogin = u.LastLogin.UTC()
	}
	return &u, nil
}
