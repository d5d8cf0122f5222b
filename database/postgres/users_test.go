package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sagarc03/shareline"
)

func TestUserRepo_Create(t *testing.T) {
	t.Run("assigns id and timestamps", func(t *testing.T) {
		users, _ := setupTestRepos(t)

		user, err := users.Create(context.Background(), shareline.User{
			ExternalID: getRandomString(t),
			Name:       "Ada",
			Email:      "ada@example.com",
		})

		assert.NoError(t, err)
		assert.Positive(t, user.ID)
		assert.False(t, user.CreatedAt.IsZero())
		assert.False(t, user.UpdatedAt.IsZero())
	})

	t.Run("duplicate external id conflicts", func(t *testing.T) {
		users, _ := setupTestRepos(t)
		ctx := context.Background()

		externalID := getRandomString(t)

		_, err := users.Create(ctx, shareline.User{ExternalID: externalID, Name: "Ada", Email: "a@example.com"})
		assert.NoError(t, err)

		_, err = users.Create(ctx, shareline.User{ExternalID: externalID, Name: "Imposter", Email: "b@example.com"})
		assert.ErrorIs(t, err, shareline.ErrConflict)
	})
}

func TestUserRepo_GetByExternalID(t *testing.T) {
	users, _ := setupTestRepos(t)
	created := createTestUser(t, users)

	got, err := users.GetByExternalID(context.Background(), created.ExternalID)
	assert.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = users.GetByExternalID(context.Background(), "nope")
	assert.ErrorIs(t, err, shareline.ErrNotFound)
}

func TestUserRepo_GetByID(t *testing.T) {
	users, _ := setupTestRepos(t)
	created := createTestUser(t, users)

	got, err := users.GetByID(context.Background(), created.ID)
	assert.NoError(t, err)
	assert.Equal(t, created.ExternalID, got.ExternalID)

	_, err = users.GetByID(context.Background(), created.ID+1000)
	assert.ErrorIs(t, err, shareline.ErrNotFound)
}

func TestUserRepo_Update(t *testing.T) {
	t.Run("updates mutable fields", func(t *testing.T) {
		users, _ := setupTestRepos(t)
		ctx := context.Background()
		created := createTestUser(t, users)

		created.Name = "New Name"
		created.Email = "new@example.com"

		updated, err := users.Update(ctx, created)
		assert.NoError(t, err)
		assert.Equal(t, "New Name", updated.Name)
		assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

		got, err := users.GetByID(ctx, created.ID)
		assert.NoError(t, err)
		assert.Equal(t, "new@example.com", got.Email)
	})

	t.Run("missing user", func(t *testing.T) {
		users, _ := setupTestRepos(t)

		_, err := users.Update(context.Background(), shareline.User{ID: 999999, Name: "X", Email: "x@example.com"})
		assert.ErrorIs(t, err, shareline.ErrNotFound)
	})
}
