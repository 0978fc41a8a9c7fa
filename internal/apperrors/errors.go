// Package apperrors defines the error taxonomy surfaced by the service
// layer. Handlers translate these into HTTP status codes; everything
// else is wrapped as an internal error.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or missing input. Not retryable.
	ErrValidation = errors.New("validation failed")

	// ErrConflict marks a state-machine precondition violation.
	ErrConflict = errors.New("conflict")

	// ErrNotFound marks an absent record.
	ErrNotFound = errors.New("not found")

	// ErrTransient marks a store or network failure eligible for retry
	// or graceful degradation.
	ErrTransient = errors.New("transient failure")

	// ErrPermission marks an authorization rejection.
	ErrPermission = errors.New("permission denied")
)

// Conflict specializations for the relationship state machine.
var (
	ErrAlreadyFriends       = fmt.Errorf("%w: already friends", ErrConflict)
	ErrAlreadyRequested     = fmt.Errorf("%w: request already sent", ErrConflict)
	ErrReverseRequestExists = fmt.Errorf("%w: the other user already sent you a request", ErrConflict)
	ErrNotFriends           = fmt.Errorf("%w: not friends", ErrConflict)
	ErrNoSuchRequest        = fmt.Errorf("%w: no such request", ErrNotFound)
	ErrSelfRelationship     = fmt.Errorf("%w: cannot target yourself", ErrValidation)
)

// Validationf wraps ErrValidation with a formatted message.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrNotFound}, args...)...)
}

// Transientf wraps ErrTransient with a formatted message.
func Transientf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrTransient}, args...)...)
}

// Permissionf wraps ErrPermission with a formatted message.
func Permissionf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrPermission}, args...)...)
}
