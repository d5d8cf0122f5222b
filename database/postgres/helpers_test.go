package postgres_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/sagarc03/shareline"
	"github.com/sagarc03/shareline/database/postgres"
)

var (
	testPool     *pgxpool.Pool
	testPoolOnce sync.Once
	testCleanup  func()
)

// getSharedTestDatabase returns a shared database pool for all tests.
// This significantly improves test performance by reusing the same container.
func getSharedTestDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testPoolOnce.Do(func() {
		ctx := context.Background()

		pgContainer, err := pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("testdb"),
			pgcontainer.WithUsername("testuser"),
			pgcontainer.WithPassword("testpass"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			t.Fatalf("failed to start postgres container: %v", err)
		}

		testCleanup = func() {
			if testPool != nil {
				testPool.Close()
			}
			if err := testcontainers.TerminateContainer(pgContainer); err != nil {
				t.Logf("failed to terminate container: %s", err)
			}
		}

		connectionStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			testCleanup()
			t.Fatalf("failed to get connection string: %v", err)
		}

		pool, err := pgxpool.New(ctx, connectionStr)
		if err != nil {
			testCleanup()
			t.Fatalf("could not connect to database: %v", err)
		}

		testPool = pool
	})

	return testPool
}

// getRandomString generates a random string for unique test identifiers.
func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	assert.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// dropTestTables drops the per-test tables for cleanup.
func dropTestTables(ctx context.Context, pool *pgxpool.Pool, tables shareline.Tables) {
	for _, name := range []string{tables.Files, tables.Users} {
		quoted := pgx.Identifier{name}.Sanitize()
		_, _ = pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", quoted))
	}
}

// setupTestRepos creates user and file repos with unique table names on the
// shared container for test isolation.
func setupTestRepos(t *testing.T) (*postgres.UserRepo, *postgres.FileRepo) {
	t.Helper()

	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	tables := shareline.Tables{
		Users: fmt.Sprintf("users_%s", getRandomString(t)),
		Files: fmt.Sprintf("files_%s", getRandomString(t)),
	}

	err := postgres.Migrate(ctx, pool, tables)
	assert.NoError(t, err, "failed to migrate")

	t.Cleanup(func() { dropTestTables(ctx, pool, tables) })

	users, err := postgres.NewUserRepo(pool, tables)
	assert.NoError(t, err, "new user repo")

	files, err := postgres.NewFileRepo(pool, tables)
	assert.NoError(t, err, "new file repo")

	return users, files
}

// createTestUser inserts a user and returns it; most file tests need an owner.
func createTestUser(t *testing.T, users *postgres.UserRepo) shareline.User {
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
func createTestFile(t *testing.T, files *postgres.FileRepo, ownerID int64) shareline.File {
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
