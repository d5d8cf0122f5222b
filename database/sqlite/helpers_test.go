package sqlite_test

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sagarc03/shareline"
	"github.com/sagarc03/shareline/database/sqlite"

	_ "modernc.org/sqlite"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	assert.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestRepos creates user and file repos over a fresh in-memory database
// with unique table names for test isolation.
func setupTestRepos(t *testing.T) (*sqlite.UserRepo, *sqlite.FileRepo) {
	t.Helper()

	ctx := context.Background()

	tables := shareline.Tables{
		Users: fmt.Sprintf("users_%s", getRandomString(t)),
		Files: fmt.Sprintf("files_%s", getRandomString(t)),
	}

	db, err := sql.Open("sqlite", ":memory:")
	assert.NoError(t, err, "failed to open")
	// in-memory databases are per connection
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	err = sqlite.Migrate(ctx, db, tables)
	assert.NoError(t, err, "failed to migrate")

	err = sqlite.ValidateSchema(ctx, db, tables)
	assert.NoError(t, err, "failed to validate schema")

	users, err := sqlite.NewUserRepo(db, tables)
	assert.NoError(t, err, "new user repo")

	files, err := sqlite.NewFileRepo(db, tables)
	assert.NoError(t, err, "new file repo")

	return users, files
}

// createTestUser inserts a user and returns it; most file tests need an owner.
func createTestUser(t *testing.T, users *sqlite.UserRepo) shareline.User {
	t.Helper()

	user, err := users.Create(context.Background(), shareline.User{
		ExternalID: getRandomString(t),
		Name:       "Test User",
		Email:      "test@example.com",
	})
	assert.NoError(t, err, "create test user")
	return user
}

// createTestFile inserts a file row owned by the given user.
func createTestFile(t *testing.T, files *sqlite.FileRepo, ownerID int64) shareline.File {
	t.Helper()

	f, err := files.Create(context.Background(), shareline.File{
		OwnerID:          ownerID,
		OriginalFilename: "notes.txt",
		StorageKey:       fmt.Sprintf("%d/%s.txt", ownerID, getRandomString(t)),
		FileSize:         11,
		MimeType:         "text/plain",
		Checksum:         "deadbeef",
	})
	assert.NoError(t, err, "create test file")
	return f
}
