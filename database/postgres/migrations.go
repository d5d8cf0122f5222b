package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/shareline"
)

// Migrate creates the users and files tables and their indexes if absent.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables shareline.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	usersSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			external_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, tables.Users)

	if _, err := pool.Exec(ctx, usersSQL); err != nil {
		return fmt.Errorf("migrate %s: %w", tables.Users, err)
	}

	filesSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			owner_id BIGINT NOT NULL REFERENCES %s (id),
			original_filename TEXT NOT NULL,
			storage_key TEXT NOT NULL UNIQUE,
			file_size BIGINT NOT NULL,
			mime_type TEXT NOT NULL,
			checksum TEXT NOT NULL,
			share_token TEXT,
			share_expires_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, tables.Files, tables.Users)

	if _, err := pool.Exec(ctx, filesSQL); err != nil {
		return fmt.Errorf("migrate %s: %w", tables.Files, err)
	}

	indexes := []string{
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_owner_created ON %s (owner_id, created_at DESC)`,
			tables.Files, tables.Files),
		// NULL tokens are excluded so private files never collide.
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_share_token ON %s (share_token) WHERE share_token IS NOT NULL`,
			tables.Files, tables.Files),
	}

	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return fmt.Errorf("migrate indexes: %w", err)
		}
	}

	return nil
}

// DropTables removes the shareline tables. Used by tests.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables shareline.Tables) error {
	for _, name := range []string{tables.Files, tables.Users} {
		if _, err := pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, name)); err != nil {
			return fmt.Errorf("drop table %s: %w", name, err)
		}
	}
	return nil
}

// ValidateSchema checks that all expected tables exist.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool, tables shareline.Tables) error {
	for _, name := range []string{tables.Users, tables.Files} {
		var exists bool
		err := pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`, name,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("validate schema: %w", err)
		}
		if !exists {
			return fmt.Errorf("validate schema: table %s missing", name)
		}
	}

	return nil
}
