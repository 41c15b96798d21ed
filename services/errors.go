package services

import (
	"errors"
	"fmt"

	"fitChallengeAPI/internal/store"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// ValidationError carries the client-facing message for a bad request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// notFound wraps ErrNotFound with a message a handler can show as is.
func notFound(what string) error {
	return fmt.Errorf("%s not found: %w", what, ErrNotFound)
}

// translate maps store sentinels to service errors and leaves others alone.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return notFound(what)
	case errors.Is(err, store.ErrConflict):
		return fmt.Errorf("%s already exists: %w", what, ErrConflict)
	}
	return err
}
