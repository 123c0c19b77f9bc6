package services

import (
	"errors"
	"fmt"
)

// Business rule rejections. These roll back the surrounding transaction with
// zero side effects and are reported to the caller verbatim.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrLimitExceeded       = errors.New("per-user ticket limit exceeded")
	ErrItemClosed          = errors.New("lottery is closed for entry")
	ErrAlreadyDrawn        = errors.New("lottery has already been drawn")
	ErrDrawMismatch        = errors.New("draw verification mismatch")
)

// ValidationError marks bad input. It is never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NewValidationError builds a ValidationError from a format string
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
