package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel error kinds. Handlers classify every failure as one of these;
// StatusOf maps them to HTTP codes for the response envelope.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrTokenExpired    = errors.New("token expired")
	ErrTokenInvalid    = errors.New("token invalid")
	ErrUpload          = errors.New("upload failed")
	ErrPersistence     = errors.New("persistence failed")
	ErrConfig          = errors.New("configuration error")
)

// New attaches a human-readable message to a kind.
func New(kind error, msg string) error {
	return fmt.Errorf("%w: %s", kind, msg)
}

// Wrap attaches a kind and context to a collaborator failure.
func Wrap(kind error, context string, err error) error {
	return fmt.Errorf("%w: %s: %v", kind, context, err)
}

// StatusOf maps an error kind to its HTTP status code.
// Token errors count as unauthenticated; unknown errors are internal.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
