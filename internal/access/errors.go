package access

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized: the caller is known but lacks the required role or ownership.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFoundOrUnauthorized deliberately covers both "missing" and "not
	// yours" so that callers cannot probe for existence.
	ErrNotFoundOrUnauthorized = errors.New("not found or unauthorized")
	// ErrInviteNotValid: the invite is not pending or has expired.
	ErrInviteNotValid = errors.New("invite is not valid")
)

// ValidationError reports malformed input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
