package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/shareline"
)

const fileColumns = `id, owner_id, original_filename, storage_key, file_size, mime_type, checksum,
		share_token, share_expires_at, created_at, updated_at`

// FileRepo implements shareline.FileRepo on PostgreSQL.
type FileRepo struct {
	pool      *pgxpool.Pool
	tableName string
}

func NewFileRepo(pool *pgxpool.Pool, tables shareline.Tables) (*FileRepo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new file repo: %w", err)
	}
	return &FileRepo{pool: pool, tableName: tables.Files}, nil
}

func (r *FileRepo) Create(ctx context.Context, f shareline.File) (shareline.File, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (owner_id, original_filename, storage_key, file_size, mime_type, checksum,
			share_token, share_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, r.tableName)

	err := r.pool.QueryRow(ctx, query,
		f.OwnerID, f.OriginalFilename, f.StorageKey, f.FileSize, f.MimeType, f.Checksum,
		nullToken(f.ShareToken), f.ShareExpiresAt,
	).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return shareline.File{}, fmt.Errorf("create file: %w", shareline.ErrConflict)
		}
		return shareline.File{}, fmt.Errorf("create file: %w", err)
	}

	return f, nil
}

func (r *FileRepo) GetByID(ctx context.Context, id int64) (shareline.File, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, fileColumns, r.tableName)

	f, err := scanFile(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shareline.File{}, shareline.ErrNotFound
		}
		return shareline.File{}, fmt.Errorf("get file by id: %w", err)
	}

	return f, nil
}

func (r *FileRepo) ListByOwner(ctx context.Context, ownerID int64) ([]shareline.File, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
	`, fileColumns, r.tableName)

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list files by owner: %w", err)
	}
	defer rows.Close()

	files := make([]shareline.File, 0)
	for rows.Next() {
		f, scanErr := scanFile(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("list files by owner: scan: %w", scanErr)
		}
		files = append(files, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list files by owner: rows: %w", err)
	}

	return files, nil
}

func (r *FileRepo) GetByShareToken(ctx context.Context, token string) (shareline.File, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE share_token = $1`, fileColumns, r.tableName)

	f, err := scanFile(r.pool.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shareline.File{}, shareline.ErrNotFound
		}
		return shareline.File{}, fmt.Errorf("get file by share token: %w", err)
	}

	return f, nil
}

func (r *FileRepo) UpdateShare(ctx context.Context, id int64, token string, expiresAt *time.Time) (shareline.File, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET share_token = $2, share_expires_at = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, r.tableName, fileColumns)

	f, err := scanFile(r.pool.QueryRow(ctx, query, id, nullToken(token), expiresAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shareline.File{}, fmt.Errorf("update share: %w", shareline.ErrNotFound)
		}
		if isUniqueViolation(err) {
			return shareline.File{}, fmt.Errorf("update share: %w", shareline.ErrConflict)
		}
		return shareline.File{}, fmt.Errorf("update share: %w", err)
	}

	return f, nil
}

func (r *FileRepo) ExistsByStorageKey(ctx context.Context, key string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE storage_key = $1)`, r.tableName)

	var exists bool
	if err := r.pool.QueryRow(ctx, query, key).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists by storage key: %w", err)
	}

	return exists, nil
}

func (r *FileRepo) Delete(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tableName)

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete file: %w", shareline.ErrNotFound)
	}

	return nil
}

func scanFile(row pgx.Row) (shareline.File, error) {
	var f shareline.File
	var token *string

	err := row.Scan(
		&f.ID, &f.OwnerID, &f.OriginalFilename, &f.StorageKey, &f.FileSize, &f.MimeType, &f.Checksum,
		&token, &f.ShareExpiresAt, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return shareline.File{}, err
	}

	if token != nil {
		f.ShareToken = *token
	}

	return f, nil
}

func nullToken(token string) *string {
	if token == "" {
		return nil
	}
	return &token
}
