package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sagarc03/shareline"
	"github.com/sagarc03/shareline/database"
)

func TestConnect_SQLite(t *testing.T) {
	ctx := context.Background()

	cfg := database.Config{
		Type: "sqlite",
		DSN:  filepath.Join(t.TempDir(), "shareline.db"),
		Tables: shareline.Tables{
			Users: "shareline_users",
			Files: "shareline_files",
		},
	}

	repos, cleanup, err := database.Connect(ctx, cfg)
	assert.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, repos.Users)
	assert.NotNil(t, repos.Files)

	// Schema is migrated and usable end to end.
	user, err := repos.Users.Create(ctx, shareline.User{
		ExternalID: "ext-123",
		Name:       "Ada",
		Email:      "ada@example.com",
	})
	assert.NoError(t, err)

	f, err := repos.Files.Create(ctx, shareline.File{
		OwnerID:          user.ID,
		OriginalFilename: "notes.txt",
		StorageKey:       "1/abc.txt",
		FileSize:         5,
		MimeType:         "text/plain",
		Checksum:         "aa",
	})
	assert.NoError(t, err)
	assert.Positive(t, f.ID)
}

func TestConnect_UnsupportedType(t *testing.T) {
	cfg := database.Config{
		Type: "oracle",
		DSN:  "whatever",
		Tables: shareline.Tables{
			Users: "u",
			Files: "f",
		},
	}

	_, _, err := database.Connect(context.Background(), cfg)
	assert.Error(t, err)
}

func TestConnect_InvalidTables(t *testing.T) {
	cfg := database.Config{
		Type: "sqlite",
		DSN:  ":memory:",
		Tables: shareline.Tables{
			Users: "Bad-Name",
			Files: "files",
		},
	}

	_, _, err := database.Connect(context.Background(), cfg)
	assert.Error(t, err)
}
