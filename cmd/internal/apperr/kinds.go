// Package apperr defines the error taxonomy shared by tasktrack's stores, services and HTTP layer.
//
// Every failure leaving a store or service carries one of the sentinel kinds below so
// callers can branch with errors.Is and the HTTP layer can map it to a status code in one place.
package apperr

import "errors"

// Sentinel error kinds (stable for errors.Is and for mapping to API status codes).
var (
	ErrInvalidInput    = errors.New("invalid_input")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not_found")
	ErrStorage         = errors.New("storage_failure")
)
