// Package filesystem provides the local content store for shareline.
// Content lives under per-owner directories inside a sandboxed root; writes
// are atomic via temp files and produce SHA256 checksums. Storage keys are
// always ownerID/generatedName, so client filenames never touch the medium.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strconv"

	"github.com/google/uuid"
	"github.com/sagarc03/shareline"
)

// Store provides file system storage operations.
type Store struct {
	root *os.Root
}

// NewStore creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
func NewStore(root *os.Root) *Store {
	return &Store{root: root}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Store writes content under a freshly generated key namespaced by ownerID,
// creating the owner directory if absent. Only the extension of originalName
// survives into the key; the rest of the name is display-only metadata kept
// by the registry. The write is atomic: content lands in a temp file that is
// renamed into place after a successful sync.
func (s *Store) Store(ctx context.Context, ownerID int64, originalName string, content io.Reader) (shareline.SaveResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return shareline.SaveResult{}, ctxErr
	}

	ext, err := shareline.FileExtension(originalName)
	if err != nil {
		return shareline.SaveResult{}, fmt.Errorf("store: %w", err)
	}

	ownerDir := strconv.FormatInt(ownerID, 10)
	// MkdirAll is create-if-absent; concurrent uploads for one owner never contend here.
	if err := s.root.MkdirAll(ownerDir, 0o755); err != nil {
		return shareline.SaveResult{}, fmt.Errorf("store: create owner directory: %w: %w", shareline.ErrStorage, err)
	}

	key := ownerDir + "/" + uuid.NewString() + ext

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return shareline.SaveResult{}, fmt.Errorf("store: could not open temp file: %w: %w", shareline.ErrStorage, createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(t.Name()); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	h := sha256.New()
	w := io.MultiWriter(h, t)

	written, err := io.Copy(w, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return shareline.SaveResult{}, fmt.Errorf("store: could not copy file contents: %w: %w", shareline.ErrStorage, err)
	}

	if err := t.Sync(); err != nil {
		return shareline.SaveResult{}, fmt.Errorf("store: could not sync written file: %w: %w", shareline.ErrStorage, err)
	}

	if renameErr := s.root.Rename(tmpFile, key); renameErr != nil {
		// A concurrent Delete of the owner's last file can reap the owner
		// directory between MkdirAll and Rename. Recreate it and retry once.
		if errors.Is(renameErr, os.ErrNotExist) {
			if mkErr := s.root.MkdirAll(ownerDir, 0o755); mkErr != nil {
				return shareline.SaveResult{}, fmt.Errorf("store: recreate owner directory: %w: %w", shareline.ErrStorage, mkErr)
			}
			renameErr = s.root.Rename(tmpFile, key)
		}
		if renameErr != nil {
			return shareline.SaveResult{}, fmt.Errorf("store: failed to rename file: %w: %w", shareline.ErrStorage, renameErr)
		}
	}

	success = true

	return shareline.SaveResult{
		Key:          key,
		BytesWritten: written,
		Checksum:     hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// Open opens the content behind a storage key for reading. Malformed keys
// are rejected before touching the medium; the os.Root sandbox backstops the
// validation against anything that would resolve outside the storage root.
func (s *Store) Open(ctx context.Context, key string) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !shareline.IsValidStorageKey(key) {
		return nil, fmt.Errorf("open %q: %w: malformed storage key", key, shareline.ErrInvalidInput)
	}

	f, err := s.root.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, shareline.ErrNotFound
		}
		return nil, fmt.Errorf("open %q: %w: %w", key, shareline.ErrStorage, err)
	}

	return f, nil
}

// Delete removes the content behind a key. Deleting absent content succeeds;
// deletion is idempotent. Afterwards the owner directory is removed
// best-effort, which only succeeds once it is empty and is never part of
// the success contract.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !shareline.IsValidStorageKey(key) {
		return fmt.Errorf("delete %q: %w: malformed storage key", key, shareline.ErrInvalidInput)
	}

	if err := s.root.Remove(key); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("delete %q: %w: %w", key, shareline.ErrStorage, err)
	}

	if err := s.root.Remove(path.Dir(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Debug("owner directory not removed", "dir", path.Dir(key), "err", err)
	}

	return nil
}

// Exists reports whether content is present under the key.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if !shareline.IsValidStorageKey(key) {
		return false, fmt.Errorf("exists %q: %w: malformed storage key", key, shareline.ErrInvalidInput)
	}

	if _, err := s.root.Stat(key); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("exists %q: %w: %w", key, shareline.ErrStorage, err)
	}

	return true, nil
}

// List walks the storage tree and returns every key on the medium, skipping
// in-flight temp files. Intended for out-of-band orphan reclamation.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var keys []string
	err := fs.WalkDir(s.root.FS(), ".", func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		if !shareline.IsValidStorageKey(p) {
			// temp files and strays are not content
			return nil
		}
		keys = append(keys, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list storage: %w: %w", shareline.ErrStorage, err)
	}

	return keys, nil
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
