package shareline

import "errors"

var (
	// ErrNotFound is returned when a resource does not exist, is not owned by
	// the requester, or a share token is invalid or expired. The cases are
	// deliberately indistinguishable.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when no verified identity is present
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict is returned by repositories on uniqueness violations.
	// It is handled internally during identity reconciliation and never
	// surfaces to callers.
	ErrConflict = errors.New("conflict")
	// ErrStorage is returned on content storage I/O failures
	ErrStorage = errors.New("storage failure")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
)
