package apperrors

import "errors"

// Sentinel errors shared by the repository layer. Repositories wrap these
// with fmt.Errorf("...: %w", ...) so callers can match with errors.Is while
// still seeing the original cause.
var (
	// ErrConnection indicates the document store is unreachable or the
	// connection string is missing.
	ErrConnection = errors.New("store unreachable")

	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyMember indicates a duplicate community membership.
	ErrAlreadyMember = errors.New("already a member")

	// ErrPersistence indicates a write was rejected by the store.
	ErrPersistence = errors.New("write rejected")
)
