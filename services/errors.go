package services

import "errors"

var (
	// ErrInvalidInput marks a request the caller must fix (HTTP 400).
	ErrInvalidInput = errors.New("invalid input")
	// ErrUserNotFound marks a lookup for a username with no record (HTTP 404).
	ErrUserNotFound = errors.New("user not found")
)

// InputError carries a message safe to show to the client. It matches
// ErrInvalidInput under errors.Is.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return "invalid input: " + e.Message }

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

func invalid(msg string) error {
	return &InputError{Message: msg}
}
