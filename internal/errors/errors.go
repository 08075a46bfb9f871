// Package errors holds the error kinds shared by every card ledger layer.
// Use cases wrap them and httputil turns them into status codes.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a clash with stored data, such as a holder registered under another name.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates bad input or a broken business rule.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates a missing or invalid holder token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller is known but not allowed.
	ErrForbidden = errors.New("forbidden")

	// ErrUnavailable indicates a transient failure. The whole operation may be retried.
	ErrUnavailable = errors.New("temporarily unavailable")
)

// kinds is ordered by precedence for errors that carry more than one kind.
var kinds = []error{
	ErrNotFound,
	ErrConflict,
	ErrInvalidInput,
	ErrUnauthorized,
	ErrForbidden,
	ErrUnavailable,
}

// Wrap adds context to err while preserving the error chain. Wrap(nil, ...) is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Kind returns the first error kind found in err's tree, or nil when err
// does not carry one.
func Kind(err error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// IsDomain reports whether err carries an error kind. Errors without one
// usually come from infrastructure.
func IsDomain(err error) bool {
	return Kind(err) != nil
}
