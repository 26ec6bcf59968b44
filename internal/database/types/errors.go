package types

import (
	"errors"
	"fmt"
)

var (
	// ErrAppealNotFound is returned when no appeal matches the requested ID.
	ErrAppealNotFound = errors.New("appeal not found")
	// ErrIDExhausted is returned when no free appeal ID could be generated.
	ErrIDExhausted = errors.New("failed to generate a unique appeal id")
)

// Validation messages returned to appellants.
const (
	MsgMissingFields    = "missing required fields"
	MsgInvalidDiscordID = "invalid discord id"
	MsgInvalidEmail     = "invalid email"
	MsgMissingMessage   = "message is required"
)

// ValidationError reports malformed input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// AlreadyPendingError is returned when the appellant already has a pending appeal.
type AlreadyPendingError struct {
	AppealID string // ID of the existing pending appeal
}

func (e *AlreadyPendingError) Error() string {
	return "an appeal is already pending (id=" + e.AppealID + ")"
}

// StorageError wraps a failure of the underlying store.
// Its message is generic; the cause is available through errors.Unwrap.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "storage failure during " + e.Op
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
