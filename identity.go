package shareline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// UserRepo defines the interface for local user persistence.
// Implementations must enforce a uniqueness constraint on the external id and
// return ErrConflict when an insert violates it; Reconcile relies on that to
// stay correct under concurrent first-time logins across service instances.
type UserRepo interface {
	// Create inserts a new user and returns it with its assigned id.
	// Returns ErrConflict if a user with the same external id already exists.
	Create(ctx context.Context, user User) (User, error)

	// GetByExternalID retrieves a user by the provider-issued subject.
	// Returns ErrNotFound if no such user exists.
	GetByExternalID(ctx context.Context, externalID string) (User, error)

	// GetByID retrieves a user by local id. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id int64) (User, error)

	// Update persists the mutable fields (name, email) of an existing user.
	Update(ctx context.Context, user User) (User, error)
}

// Directory reconciles verified identity assertions into local user records.
// It never caches users in process; every reconciliation resolves through the
// durable store so that multiple service instances agree.
type Directory struct {
	users UserRepo
}

func NewDirectory(users UserRepo) *Directory {
	return &Directory{users: users}
}

// Reconcile looks up the user for the asserted external id, creating it on
// first login and syncing name/email when the asserted claims diverge from
// the stored values. Repeated calls with identical claims are no-ops after
// the first.
//
// Two concurrent first logins for the same external id race on the insert;
// the loser observes the unique-constraint violation and re-reads the row the
// winner created instead of failing the caller.
func (d *Directory) Reconcile(ctx context.Context, claims IdentityClaims) (User, error) {
	if claims.ExternalID == "" {
		return User{}, fmt.Errorf("reconcile: %w: external id cannot be empty", ErrInvalidInput)
	}

	user, err := d.users.GetByExternalID(ctx, claims.ExternalID)
	if errors.Is(err, ErrNotFound) {
		created, createErr := d.users.Create(ctx, newUserFromClaims(claims))
		if createErr == nil {
			slog.Info("created user", "external_id", claims.ExternalID, "id", created.ID)
			return created, nil
		}
		if !errors.Is(createErr, ErrConflict) {
			return User{}, fmt.Errorf("reconcile %s: %w", claims.ExternalID, createErr)
		}

		// Lost the insert race; another request created the row first.
		user, err = d.users.GetByExternalID(ctx, claims.ExternalID)
	}
	if err != nil {
		return User{}, fmt.Errorf("reconcile %s: %w", claims.ExternalID, err)
	}

	return d.sync(ctx, user, claims)
}

// Lookup retrieves a user by local id.
func (d *Directory) Lookup(ctx context.Context, id int64) (User, error) {
	user, err := d.users.GetByID(ctx, id)
	if err != nil {
		return User{}, fmt.Errorf("lookup user %d: %w", id, err)
	}
	return user, nil
}

// sync writes the user back only when at least one mutable field diverges
// from the asserted claims.
func (d *Directory) sync(ctx context.Context, user User, claims IdentityClaims) (User, error) {
	changed := false
	if claims.Email != "" && claims.Email != user.Email {
		user.Email = claims.Email
		changed = true
	}
	if claims.Name != "" && claims.Name != user.Name {
		user.Name = claims.Name
		changed = true
	}

	if !changed {
		return user, nil
	}

	updated, err := d.users.Update(ctx, user)
	if err != nil {
		return User{}, fmt.Errorf("reconcile %s: update: %w", claims.ExternalID, err)
	}
	slog.Info("updated user claims", "external_id", claims.ExternalID, "id", user.ID)
	return updated, nil
}

func newUserFromClaims(claims IdentityClaims) User {
	name := claims.Name
	if name == "" {
		name = claims.Email
	}
	if name == "" {
		name = "User"
	}

	return User{
		ExternalID: claims.ExternalID,
		Name:       name,
		Email:      claims.Email,
	}
}
