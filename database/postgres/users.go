// Package postgres implements the shareline repositories using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/shareline"
)

const uniqueViolationCode = "23505"

// isUniqueViolation reports whether the error is a unique-constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// UserRepo implements shareline.UserRepo on PostgreSQL.
type UserRepo struct {
	pool      *pgxpool.Pool
	tableName string
}

func NewUserRepo(pool *pgxpool.Pool, tables shareline.Tables) (*UserRepo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new user repo: %w", err)
	}
	return &UserRepo{pool: pool, tableName: tables.Users}, nil
}

// Ping verifies database connectivity
func (r *UserRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *UserRepo) Create(ctx context.Context, user shareline.User) (shareline.User, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (external_id, name, email)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, r.tableName)

	err := r.pool.QueryRow(ctx, query, user.ExternalID, user.Name, user.Email).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return shareline.User{}, fmt.Errorf("create user: %w", shareline.ErrConflict)
		}
		return shareline.User{}, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func (r *UserRepo) GetByExternalID(ctx context.Context, externalID string) (shareline.User, error) {
	query := fmt.Sprintf(`
		SELECT id, external_id, name, email, created_at, updated_at
		FROM %s
		WHERE external_id = $1
	`, r.tableName)

	var u shareline.User
	err := r.pool.QueryRow(ctx, query, externalID).
		Scan(&u.ID, &u.ExternalID, &u.Name, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shareline.User{}, shareline.ErrNotFound
		}
		return shareline.User{}, fmt.Errorf("get user by external id: %w", err)
	}

	return u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (shareline.User, error) {
	query := fmt.Sprintf(`
		SELECT id, external_id, name, email, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tableName)

	var u shareline.User
	err := r.pool.QueryRow(ctx, query, id).
		Scan(&u.ID, &u.ExternalID, &u.Name, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shareline.User{}, shareline.ErrNotFound
		}
		return shareline.User{}, fmt.Errorf("get user by id: %w", err)
	}

	return u, nil
}

func (r *UserRepo) Update(ctx context.Context, user shareline.User) (shareline.User, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $2, email = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, r.tableName)

	err := r.pool.QueryRow(ctx, query, user.ID, user.Name, user.Email).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shareline.User{}, fmt.Errorf("update user: %w", shareline.ErrNotFound)
		}
		return shareline.User{}, fmt.Errorf("update user: %w", err)
	}

	return user, nil
}
