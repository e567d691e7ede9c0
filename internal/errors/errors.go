package errors

import "errors"

// This package defines the sentinel errors shared by every layer. Services
// wrap them with context; the API layer checks them with errors.Is and maps
// them to HTTP responses.

var (
	// ErrNotFound signifies that a referenced conversation (or other resource)
	// does not exist. Mapped to 404.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation signifies that input failed business rule validation.
	// Mapped to 400.
	ErrValidation = errors.New("validation failed")

	// ErrConflict signifies that the operation clashes with current state,
	// e.g. submitting a message while a turn is still in flight. Mapped to 409.
	ErrConflict = errors.New("resource conflict")

	// ErrPermission is mapped to 403.
	ErrPermission = errors.New("permission denied")

	// ErrPersistence signifies that the underlying store failed (I/O, quota,
	// corruption). It is propagated to the caller and never retried here.
	ErrPersistence = errors.New("persistence failure")

	// ErrInternal is a generic error used to avoid leaking details. Mapped to 500.
	ErrInternal = errors.New("internal server error")
)
