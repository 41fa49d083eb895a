package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("order not found")
	ErrAlreadyPaid          = errors.New("order already paid")
	ErrDepositRecorded      = errors.New("deposit already recorded")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrOrderNumberExhausted = errors.New("could not allocate a unique order number")
)

// ValidationError reports input the caller must fix. Its message is safe to
// return to the customer verbatim.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// TransitionError names the refused edge. It matches ErrInvalidTransition with errors.Is.
type TransitionError struct {
	Kind string
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s cannot move from %q to %q", e.Kind, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
