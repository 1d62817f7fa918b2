// Package apperr defines the sentinel errors handlers translate to HTTP
// status codes. Services wrap these with fmt.Errorf("%w", ...) so callers
// match with errors.Is.
package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
)
