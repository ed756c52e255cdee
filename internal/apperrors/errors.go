package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnauthorized indicates missing or invalid authentication.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden indicates the authenticated user may not perform the requested action.
var ErrForbidden = errors.New("forbidden")

// ErrInsufficientCredits indicates the user's balance does not cover the requested debit.
var ErrInsufficientCredits = errors.New("insufficient credits")

// ErrUserBlocked indicates the user is blocked and may not initiate new debits.
var ErrUserBlocked = errors.New("user is blocked")

// ErrStorage indicates a durable write to the content store failed.
var ErrStorage = errors.New("storage error")

// AppError wraps an underlying error with a status code and a human readable message.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError wrapping the given cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
