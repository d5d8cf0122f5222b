// Package sqlite implements the shareline repositories using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sagarc03/shareline"
)

// isUniqueViolation reports whether the error is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// UserRepo implements shareline.UserRepo on SQLite.
type UserRepo struct {
	db        *sql.DB
	tableName string
}

func NewUserRepo(db *sql.DB, tables shareline.Tables) (*UserRepo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new user repo: %w", err)
	}
	return &UserRepo{db: db, tableName: tables.Users}, nil
}

func (r *UserRepo) Create(ctx context.Context, user shareline.User) (shareline.User, error) {
	now := time.Now().UTC()
	nowStr := now.Format(time.RFC3339Nano)

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (external_id, name, email, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`, r.tableName)

	result, err := r.db.ExecContext(ctx, query, user.ExternalID, user.Name, user.Email, nowStr, nowStr)
	if err != nil {
		if isUniqueViolation(err) {
			return shareline.User{}, fmt.Errorf("create user: %w", shareline.ErrConflict)
		}
		return shareline.User{}, fmt.Errorf("create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return shareline.User{}, fmt.Errorf("create user: last insert id: %w", err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return user, nil
}

func (r *UserRepo) GetByExternalID(ctx context.Context, externalID string) (shareline.User, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, external_id, name, email, created_at, updated_at
		FROM %s
		WHERE external_id = ?`, r.tableName)

	return r.scanUser(r.db.QueryRowContext(ctx, query, externalID), "get user by external id")
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (shareline.User, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, external_id, name, email, created_at, updated_at
		FROM %s
		WHERE id = ?`, r.tableName)

	return r.scanUser(r.db.QueryRowContext(ctx, query, id), "get user by id")
}

func (r *UserRepo) Update(ctx context.Context, user shareline.User) (shareline.User, error) {
	now := time.Now().UTC()

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`UPDATE %s
		SET name = ?, email = ?, updated_at = ?
		WHERE id = ?`, r.tableName)

	result, err := r.db.ExecContext(ctx, query, user.Name, user.Email, now.Format(time.RFC3339Nano), user.ID)
	if err != nil {
		return shareline.User{}, fmt.Errorf("update user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return shareline.User{}, fmt.Errorf("update user: rows affected: %w", err)
	}
	if affected == 0 {
		return shareline.User{}, fmt.Errorf("update user: %w", shareline.ErrNotFound)
	}

	user.UpdatedAt = now
	return user, nil
}

func (r *UserRepo) scanUser(row *sql.Row, opName string) (shareline.User, error) {
	var u shareline.User
	var createdAt, updatedAt string

	err := row.Scan(&u.ID, &u.ExternalID, &u.Name, &u.Email, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return shareline.User{}, shareline.ErrNotFound
		}
		return shareline.User{}, fmt.Errorf("%s: %w", opName, err)
	}

	u.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return shareline.User{}, fmt.Errorf("%s: parse created_at: %w", opName, err)
	}

	u.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return shareline.User{}, fmt.Errorf("%s: parse updated_at: %w", opName, err)
	}

	return u, nil
}
