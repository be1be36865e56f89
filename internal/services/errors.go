// Package services implements the dealership pipelines: newsletter
// subscription, contact intake, and vehicle inventory CRUD. This file
// centralizes the service-level errors so handlers can map them to HTTP
// results consistently with errors.Is / errors.As.
//
// Storage failures are not wrapped here; they arrive as *store.StorageError
// and match store.ErrStorage.
package services

import "errors"

var (
	// ErrNotFound is returned when an addressed record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateSubscriber is returned when the email is already on the
	// newsletter list, compared case-insensitively.
	ErrDuplicateSubscriber = errors.New("email is already subscribed")
)

// ValidationError names the first offending input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
