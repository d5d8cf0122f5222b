package shareline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// FileRepo defines the interface for file metadata persistence.
// Implementations must handle concurrent access safely; every method executes
// as a single atomic statement against the backing store.
//
// All methods accept a context for cancellation and timeout control.
type FileRepo interface {
	// Create inserts a new file row and returns it with its assigned id.
	Create(ctx context.Context, f File) (File, error)

	// GetByID retrieves a file by id. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id int64) (File, error)

	// ListByOwner returns all files owned by ownerID, newest first.
	ListByOwner(ctx context.Context, ownerID int64) ([]File, error)

	// GetByShareToken retrieves a file by its share token without applying
	// expiry; callers evaluate expiry themselves. Returns ErrNotFound if no
	// file carries the token.
	GetByShareToken(ctx context.Context, token string) (File, error)

	// UpdateShare atomically sets the share token and expiry of a file.
	// An empty token clears both fields (private state). Returns ErrNotFound
	// if the file does not exist.
	UpdateShare(ctx context.Context, id int64, token string, expiresAt *time.Time) (File, error)

	// ExistsByStorageKey reports whether any row references the storage key.
	// Used by out-of-band orphan reclamation.
	ExistsByStorageKey(ctx context.Context, key string) (bool, error)

	// Delete removes a file row. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id int64) error
}

// FileStorage defines the interface for content storage operations.
// Implementations can use the local filesystem, S3, GCS, or any other backend.
//
// Content is always addressed by system-generated keys of the form
// ownerID/generatedName; client-supplied filenames never reach the medium.
type FileStorage interface {
	// Store places content under a fresh generated key namespaced by the
	// owner, creating the owner namespace if absent. The original name is
	// used only to carry over the extension. Returns ErrInvalidInput for an
	// empty name or an extension containing path separators.
	Store(ctx context.Context, ownerID int64, originalName string, content io.Reader) (SaveResult, error)

	// Open retrieves the content behind a storage key for reading.
	// Keys that are malformed or resolve outside the storage root are
	// rejected. The caller is responsible for closing the reader.
	Open(ctx context.Context, key string) (io.ReadSeekCloser, error)

	// Delete removes the content behind a key. Deleting an absent key is not
	// an error; deletion is idempotent. Implementations may opportunistically
	// remove the owner namespace once empty.
	Delete(ctx context.Context, key string) error

	// Exists reports whether content is present under the key.
	Exists(ctx context.Context, key string) (bool, error)

	// List returns every storage key currently on the medium. Used for
	// out-of-band reclamation; can be expensive on large volumes.
	List(ctx context.Context) ([]string, error)
}

// FileService composes content storage and the file registry to implement
// upload, listing, download and deletion. Ownership and share authorization
// are delegated to the ShareEngine.
type FileService struct {
	files   FileRepo
	storage FileStorage
	shares  *ShareEngine
	detect  DetectMode
}

// FileServiceConfig holds configuration options for FileService.
type FileServiceConfig struct {
	// Detect selects the MIME determination strategy (default: DetectSniff).
	Detect DetectMode
}

func NewFileService(files FileRepo, storage FileStorage, shares *ShareEngine, cfg FileServiceConfig) (*FileService, error) {
	detect := cfg.Detect
	if detect == "" {
		detect = DetectSniff
	}
	if !detect.IsValid() {
		return nil, fmt.Errorf("new file service: invalid detect mode: %s", detect)
	}
	return &FileService{
		files:   files,
		storage: storage,
		shares:  shares,
		detect:  detect,
	}, nil
}

// Upload places the content on the storage medium first, then records the
// file in the registry. A storage failure therefore never leaves a registry
// row behind; a registry failure after a successful store leaves orphaned
// bytes that the out-of-band gc pass reclaims.
func (s *FileService) Upload(ctx context.Context, ownerID int64, originalName, contentTypeHint string, content io.Reader) (File, error) {
	if err := ctx.Err(); err != nil {
		return File{}, fmt.Errorf("upload: %w", err)
	}

	saved, err := s.storage.Store(ctx, ownerID, originalName, content)
	if err != nil {
		return File{}, fmt.Errorf("upload %q: %w", originalName, err)
	}

	mimeType := s.detectMimeType(ctx, contentTypeHint, saved.Key)

	f := File{
		OwnerID:          ownerID,
		OriginalFilename: originalName,
		StorageKey:       saved.Key,
		FileSize:         saved.BytesWritten,
		MimeType:         mimeType,
		Checksum:         saved.Checksum,
	}

	created, err := s.files.Create(ctx, f)
	if err != nil {
		slog.Warn("registry insert failed after store; leaving orphaned content for gc",
			"storage_key", saved.Key, "err", err)
		return File{}, fmt.Errorf("upload %q: %w", originalName, err)
	}

	return created, nil
}

// List returns the requester's files, newest first, projected to the
// metadata view.
func (s *FileService) List(ctx context.Context, ownerID int64) ([]FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	files, err := s.files.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	now := s.shares.now()
	infos := make([]FileInfo, 0, len(files))
	for _, f := range files {
		infos = append(infos, f.Info(now))
	}

	return infos, nil
}

// Download resolves a file for its owner and opens its content.
// The caller is responsible for closing the returned reader.
func (s *FileService) Download(ctx context.Context, fileID, requesterID int64) (File, io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return File{}, nil, fmt.Errorf("download: %w", err)
	}

	f, err := s.shares.AuthorizeOwnerAccess(ctx, fileID, requesterID)
	if err != nil {
		return File{}, nil, fmt.Errorf("download: %w", err)
	}

	content, err := s.storage.Open(ctx, f.StorageKey)
	if err != nil {
		return File{}, nil, fmt.Errorf("download %d: %w", fileID, err)
	}

	return f, content, nil
}

// OpenShared resolves a file through a share token and opens its content.
// The caller is responsible for closing the returned reader.
func (s *FileService) OpenShared(ctx context.Context, token string) (File, io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return File{}, nil, fmt.Errorf("open shared: %w", err)
	}

	f, err := s.shares.ResolveByToken(ctx, token)
	if err != nil {
		return File{}, nil, err
	}

	content, err := s.storage.Open(ctx, f.StorageKey)
	if err != nil {
		return File{}, nil, fmt.Errorf("open shared: %w", err)
	}

	return f, content, nil
}

// Delete removes a file's content and then its registry row, in that order.
// If content deletion fails the row stays intact so the operation can be
// retried; a registry row never dangles over missing bytes without a failed
// attempt having been reported to the caller.
func (s *FileService) Delete(ctx context.Context, fileID, requesterID int64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}

	f, err := s.shares.AuthorizeOwnerAccess(ctx, fileID, requesterID)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}

	if err := s.storage.Delete(ctx, f.StorageKey); err != nil {
		return fmt.Errorf("delete file %d: %w", fileID, err)
	}

	if err := s.files.Delete(ctx, f.ID); err != nil {
		return fmt.Errorf("delete file %d: %w", fileID, err)
	}

	return nil
}

// detectMimeType determines the content type for an upload. In sniff mode the
// stored bytes are probed and the original filename is never consulted, so a
// misleading extension cannot spoof the classification. Detection failures
// degrade to the generic fallback rather than failing the upload.
func (s *FileService) detectMimeType(ctx context.Context, hint, storageKey string) string {
	if hint != "" && hint != FallbackMimeType {
		return hint
	}

	if s.detect == DetectClient {
		return FallbackMimeType
	}

	content, err := s.storage.Open(ctx, storageKey)
	if err != nil {
		slog.Warn("mime probe: open failed", "storage_key", storageKey, "err", err)
		return FallbackMimeType
	}
	defer func() { _ = content.Close() }()

	detected, err := mimetype.DetectReader(content)
	if err != nil {
		slog.Warn("mime probe: detect failed", "storage_key", storageKey, "err", err)
		return FallbackMimeType
	}

	return detected.String()
}
