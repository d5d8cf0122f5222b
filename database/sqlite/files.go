package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sagarc03/shareline"
)

const fileColumns = `id, owner_id, original_filename, storage_key, file_size, mime_type, checksum,
		share_token, share_expires_at, created_at, updated_at`

// FileRepo implements shareline.FileRepo on SQLite.
type FileRepo struct {
	db        *sql.DB
	tableName string
}

func NewFileRepo(db *sql.DB, tables shareline.Tables) (*FileRepo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new file repo: %w", err)
	}
	return &FileRepo{db: db, tableName: tables.Files}, nil
}

func (r *FileRepo) Create(ctx context.Context, f shareline.File) (shareline.File, error) {
	now := time.Now().UTC()
	nowStr := now.Format(time.RFC3339Nano)

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (owner_id, original_filename, storage_key, file_size, mime_type, checksum,
			share_token, share_expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, r.tableName)

	result, err := r.db.ExecContext(ctx, query,
		f.OwnerID, f.OriginalFilename, f.StorageKey, f.FileSize, f.MimeType, f.Checksum,
		nullToken(f.ShareToken), nullTime(f.ShareExpiresAt), nowStr, nowStr,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return shareline.File{}, fmt.Errorf("create file: %w", shareline.ErrConflict)
		}
		return shareline.File{}, fmt.Errorf("create file: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return shareline.File{}, fmt.Errorf("create file: last insert id: %w", err)
	}

	f.ID = id
	f.CreatedAt = now
	f.UpdatedAt = now
	return f, nil
}

func (r *FileRepo) GetByID(ctx context.Context, id int64) (shareline.File, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s FROM %s WHERE id = ?`, fileColumns, r.tableName)

	return scanFile(r.db.QueryRowContext(ctx, query, id), "get file by id")
}

func (r *FileRepo) ListByOwner(ctx context.Context, ownerID int64) ([]shareline.File, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s FROM %s
		WHERE owner_id = ?
		ORDER BY created_at DESC, id DESC`, fileColumns, r.tableName)

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list files by owner: %w", err)
	}
	defer func() { _ = rows.Close() }()

	files := make([]shareline.File, 0)
	for rows.Next() {
		f, scanErr := scanFileRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("list files by owner: %w", scanErr)
		}
		files = append(files, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list files by owner: rows: %w", err)
	}

	return files, nil
}

func (r *FileRepo) GetByShareToken(ctx context.Context, token string) (shareline.File, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s FROM %s WHERE share_token = ?`, fileColumns, r.tableName)

	return scanFile(r.db.QueryRowContext(ctx, query, token), "get file by share token")
}

func (r *FileRepo) UpdateShare(ctx context.Context, id int64, token string, expiresAt *time.Time) (shareline.File, error) {
	now := time.Now().UTC()

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`UPDATE %s
		SET share_token = ?, share_expires_at = ?, updated_at = ?
		WHERE id = ?`, r.tableName)

	result, err := r.db.ExecContext(ctx, query,
		nullToken(token), nullTime(expiresAt), now.Format(time.RFC3339Nano), id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return shareline.File{}, fmt.Errorf("update share: %w", shareline.ErrConflict)
		}
		return shareline.File{}, fmt.Errorf("update share: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return shareline.File{}, fmt.Errorf("update share: rows affected: %w", err)
	}
	if affected == 0 {
		return shareline.File{}, fmt.Errorf("update share: %w", shareline.ErrNotFound)
	}

	return r.GetByID(ctx, id)
}

func (r *FileRepo) ExistsByStorageKey(ctx context.Context, key string) (bool, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT 1 FROM %s WHERE storage_key = ?`, r.tableName)

	var one int
	err := r.db.QueryRowContext(ctx, query, key).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("exists by storage key: %w", err)
	}

	return true, nil
}

func (r *FileRepo) Delete(ctx context.Context, id int64) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`DELETE FROM %s WHERE id = ?`, r.tableName)

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete file: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete file: %w", shareline.ErrNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row *sql.Row, opName string) (shareline.File, error) {
	f, err := scanFileRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return shareline.File{}, shareline.ErrNotFound
		}
		return shareline.File{}, fmt.Errorf("%s: %w", opName, err)
	}
	return f, nil
}

func scanFileRow(row rowScanner) (shareline.File, error) {
	var f shareline.File
	var token, expiresAt sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&f.ID, &f.OwnerID, &f.OriginalFilename, &f.StorageKey, &f.FileSize, &f.MimeType, &f.Checksum,
		&token, &expiresAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return shareline.File{}, err
	}

	f.ShareToken = token.String

	if expiresAt.Valid {
		t, parseErr := time.Parse(time.RFC3339Nano, expiresAt.String)
		if parseErr != nil {
			return shareline.File{}, fmt.Errorf("parse share_expires_at: %w", parseErr)
		}
		f.ShareExpiresAt = &t
	}

	f.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return shareline.File{}, fmt.Errorf("parse created_at: %w", err)
	}

	f.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return shareline.File{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return f, nil
}

func nullToken(token string) any {
	if token == "" {
		return nil
	}
	return token
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
