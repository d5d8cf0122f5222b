package shareline_test

import (
	"testing"
	"time"

	"github.com/sagarc03/shareline"
	"github.com/stretchr/testify/assert"
)

func TestFile_Shared(t *testing.T) {
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	t.Run("private file is not shared", func(t *testing.T) {
		f := shareline.File{}
		assert.False(t, f.Shared(now))
		assert.False(t, f.ShareExpired(now))
	})

	t.Run("token without expiry is shared forever", func(t *testing.T) {
		f := shareline.File{ShareToken: "tok"}
		assert.True(t, f.Shared(now))
	})

	t.Run("token with future expiry is shared", func(t *testing.T) {
		f := shareline.File{ShareToken: "tok", ShareExpiresAt: &future}
		assert.True(t, f.Shared(now))
		assert.False(t, f.ShareExpired(now))
	})

	t.Run("token with past expiry is not shared", func(t *testing.T) {
		f := shareline.File{ShareToken: "tok", ShareExpiresAt: &past}
		assert.False(t, f.Shared(now))
		assert.True(t, f.ShareExpired(now))
	})
}

func TestFile_Info(t *testing.T) {
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)

	f := shareline.File{
		ID:               4,
		OwnerID:          7,
		OriginalFilename: "notes.txt",
		StorageKey:       "7/abc.txt",
		FileSize:         11,
		MimeType:         "text/plain",
		ShareToken:       "tok",
		ShareExpiresAt:   &past,
		CreatedAt:        past,
	}

	info := f.Info(now)
	assert.Equal(t, int64(4), info.ID)
	assert.Equal(t, "notes.txt", info.OriginalFilename)
	assert.Equal(t, "tok", info.ShareToken, "expired fields are reported as stored")
	assert.False(t, info.Shareable, "but the share is no longer usable")
}

func TestFile_ShareInfo(t *testing.T) {
	f := shareline.File{
		ID:               4,
		OwnerID:          7,
		OriginalFilename: "notes.txt",
		FileSize:         11,
		MimeType:         "text/plain",
	}

	info := f.ShareInfo()
	assert.Equal(t, "notes.txt", info.OriginalFilename)
	assert.Equal(t, int64(11), info.FileSize)
}

func TestParseDetectMode(t *testing.T) {
	for _, s := range []string{"sniff", "client"} {
		mode, err := shareline.ParseDetectMode(s)
		assert.NoError(t, err)
		assert.True(t, mode.IsValid())
	}

	for _, s := range []string{"", "magic", "SNIFF"} {
		_, err := shareline.ParseDetectMode(s)
		assert.Error(t, err, s)
	}
}

func TestTables_Validate(t *testing.T) {
	t.Run("valid names", func(t *testing.T) {
		tables := shareline.Tables{Users: "shareline_users", Files: "shareline_files"}
		assert.NoError(t, tables.Validate())
	})

	t.Run("missing names", func(t *testing.T) {
		assert.Error(t, shareline.Tables{Files: "f"}.Validate())
		assert.Error(t, shareline.Tables{Users: "u"}.Validate())
	})

	t.Run("invalid names", func(t *testing.T) {
		bad := []string{"Users", "1users", "users;drop", "users table"}
		for _, name := range bad {
			tables := shareline.Tables{Users: name, Files: "shareline_files"}
			assert.Error(t, tables.Validate(), name)
		}
	})
}
