package shareline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ShareEngine manages the share capability state of files: minting tokens,
// revoking them, and resolving anonymous access. All ownership checks in the
// system funnel through AuthorizeOwnerAccess so the semantics cannot drift
// between operations.
type ShareEngine struct {
	files FileRepo
	now   func() time.Time
}

// ShareEngineConfig holds configuration options for ShareEngine.
type ShareEngineConfig struct {
	// Now overrides the clock used for expiry checks. Defaults to time.Now.
	Now func() time.Time
}

func NewShareEngine(files FileRepo, cfg ShareEngineConfig) *ShareEngine {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &ShareEngine{files: files, now: now}
}

// CreateShareToken mints a fresh share token for the file, unconditionally
// replacing any previous token and implicitly revoking its holders. A
// positive expirationDays bounds the share to now+expirationDays; zero or
// negative clears any expiry. The requester must own the file.
func (e *ShareEngine) CreateShareToken(ctx context.Context, fileID, requesterID int64, expirationDays int) (string, error) {
	if _, err := e.AuthorizeOwnerAccess(ctx, fileID, requesterID); err != nil {
		return "", fmt.Errorf("create share token: %w", err)
	}

	token := uuid.NewString()

	var expiresAt *time.Time
	if expirationDays > 0 {
		t := e.now().AddDate(0, 0, expirationDays)
		expiresAt = &t
	}

	if _, err := e.files.UpdateShare(ctx, fileID, token, expiresAt); err != nil {
		return "", fmt.Errorf("create share token: %w", err)
	}

	return token, nil
}

// RevokeShareToken clears the file's share token and expiry, returning it to
// the private state. Revoking an unshared file is a no-op. The requester must
// own the file.
func (e *ShareEngine) RevokeShareToken(ctx context.Context, fileID, requesterID int64) error {
	if _, err := e.AuthorizeOwnerAccess(ctx, fileID, requesterID); err != nil {
		return fmt.Errorf("revoke share token: %w", err)
	}

	if _, err := e.files.UpdateShare(ctx, fileID, "", nil); err != nil {
		return fmt.Errorf("revoke share token: %w", err)
	}

	return nil
}

// ResolveByToken returns the file a share token grants access to. Unknown
// tokens and expired tokens yield the same ErrNotFound; expiry is evaluated
// here, lazily, with no background sweep ever clearing the stored fields.
func (e *ShareEngine) ResolveByToken(ctx context.Context, token string) (File, error) {
	if token == "" {
		return File{}, fmt.Errorf("resolve share token: %w", ErrNotFound)
	}

	f, err := e.files.GetByShareToken(ctx, token)
	if err != nil {
		return File{}, fmt.Errorf("resolve share token: %w", err)
	}

	if f.ShareExpired(e.now()) {
		return File{}, fmt.Errorf("resolve share token: %w", ErrNotFound)
	}

	return f, nil
}

// AuthorizeOwnerAccess returns the file only when it exists and is owned by
// the requester. A file owned by someone else produces the same ErrNotFound
// as a nonexistent id, so ids cannot be probed for existence.
func (e *ShareEngine) AuthorizeOwnerAccess(ctx context.Context, fileID, requesterID int64) (File, error) {
	f, err := e.files.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return File{}, ErrNotFound
		}
		return File{}, fmt.Errorf("authorize file %d: %w", fileID, err)
	}

	if f.OwnerID != requesterID {
		return File{}, ErrNotFound
	}

	return f, nil
}
