package shareline

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// User is a local account reconciled from an external identity provider.
// ExternalID is the provider-issued subject and never changes once set.
type User struct {
	ID         int64     `json:"id"`
	ExternalID string    `json:"-"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IdentityClaims is the verified assertion produced by the identity boundary
// after a successful login. Name and Email may be empty.
type IdentityClaims struct {
	ExternalID string
	Name       string
	Email      string
}

// File is one uploaded artifact. StorageKey addresses the content on the
// storage medium and is never derived from the client-supplied filename.
// An empty ShareToken means the file is private; a non-empty token with a
// past ShareExpiresAt is treated as absent on every read path but is not
// cleared until the owner re-shares or revokes.
type File struct {
	ID               int64
	OwnerID          int64
	OriginalFilename string
	StorageKey       string
	FileSize         int64
	MimeType         string
	Checksum         string
	ShareToken       string
	ShareExpiresAt   *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ShareExpired reports whether the file's share expiry lies in the past.
func (f File) ShareExpired(now time.Time) bool {
	return f.ShareExpiresAt != nil && f.ShareExpiresAt.Before(now)
}

// Shared reports whether the file has a currently valid share token.
func (f File) Shared(now time.Time) bool {
	return f.ShareToken != "" && !f.ShareExpired(now)
}

// Info projects the file to its owner-facing metadata view. The storage key
// is intentionally omitted.
func (f File) Info(now time.Time) FileInfo {
	return FileInfo{
		ID:               f.ID,
		OriginalFilename: f.OriginalFilename,
		FileSize:         f.FileSize,
		MimeType:         f.MimeType,
		ShareToken:       f.ShareToken,
		ShareExpiresAt:   f.ShareExpiresAt,
		CreatedAt:        f.CreatedAt,
		Shareable:        f.Shared(now),
	}
}

// ShareInfo projects the file to the anonymous share view, which omits the
// owner identity.
func (f File) ShareInfo() ShareInfo {
	return ShareInfo{
		OriginalFilename: f.OriginalFilename,
		FileSize:         f.FileSize,
		MimeType:         f.MimeType,
		CreatedAt:        f.CreatedAt,
		ShareExpiresAt:   f.ShareExpiresAt,
	}
}

// FileInfo is the metadata listing entry returned to owners.
type FileInfo struct {
	ID               int64      `json:"id"`
	OriginalFilename string     `json:"originalFilename"`
	FileSize         int64      `json:"fileSize"`
	MimeType         string     `json:"mimeType"`
	ShareToken       string     `json:"shareToken,omitempty"`
	ShareExpiresAt   *time.Time `json:"shareExpiresAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	Shareable        bool       `json:"shareable"`
}

// ShareInfo is the public metadata view for anonymous share holders.
type ShareInfo struct {
	OriginalFilename string     `json:"originalFilename"`
	FileSize         int64      `json:"fileSize"`
	MimeType         string     `json:"mimeType"`
	CreatedAt        time.Time  `json:"createdAt"`
	ShareExpiresAt   *time.Time `json:"shareExpiresAt,omitempty"`
}

// UploadResult acknowledges a completed upload.
type UploadResult struct {
	ID               int64  `json:"id"`
	OriginalFilename string `json:"originalFilename"`
	FileSize         int64  `json:"fileSize"`
}

// SaveResult describes content placed on the storage medium.
type SaveResult struct {
	Key          string
	BytesWritten int64
	Checksum     string
}

// DetectMode selects the MIME type determination strategy for uploads.
type DetectMode string

const (
	// DetectSniff probes the stored bytes, ignoring the original filename.
	DetectSniff DetectMode = "sniff"
	// DetectClient trusts the client-declared content type.
	DetectClient DetectMode = "client"
)

func (m DetectMode) IsValid() bool {
	switch m {
	case DetectSniff, DetectClient:
		return true
	default:
		return false
	}
}

func ParseDetectMode(s string) (DetectMode, error) {
	mode := DetectMode(s)
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid detect mode: %s (valid modes: sniff, client)", s)
	}
	return mode, nil
}

// FallbackMimeType is the generic content type used when detection fails.
const FallbackMimeType = "application/octet-stream"

// Tables holds configurable table names for metadata storage.
// This allows multi-tenant deployments to use different table names.
type Tables struct {
	Users string `mapstructure:"users"`
	Files string `mapstructure:"files"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Users == "" {
		return errors.New("validate tables: users table name cannot be empty")
	}
	if t.Files == "" {
		return errors.New("validate tables: files table name cannot be empty")
	}

	for _, name := range []string{t.Users, t.Files} {
		if !IsValidTableName(name) {
			return fmt.Errorf("validate tables: invalid table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", name)
		}
	}

	return nil
}
