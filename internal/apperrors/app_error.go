package apperrors

import (
	"errors"
	"fmt"
)

// AppError wraps a lower-level failure with an HTTP-ish status code and a
// message safe to log. Repositories use it so that callers can keep matching
// sentinels with errors.Is through the wrap chain.
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

// NewAppError creates a new AppError wrapping err.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates a 404 AppError that matches ErrNotFound via errors.Is.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}

// Kind maps an error to the stable machine-readable kind surfaced to API
// callers, so the UI can distinguish "insufficient funds" from "try again"
// from "contact support".
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "INVALID_REQUEST"
	case errors.Is(err, ErrNotFound):
		return "ACCOUNT_NOT_FOUND"
	case errors.Is(err, ErrAccountInactive):
		return "ACCOUNT_INACTIVE"
	case errors.Is(err, ErrInsufficientBalance):
		return "INSUFFICIENT_BALANCE"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	case errors.Is(err, ErrVersionConflict):
		return "VERSION_CONFLICT"
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrDuplicate):
		return "DUPLICATE"
	case errors.Is(err, ErrStorage):
		return "STORAGE_FAILURE"
	default:
		return "INTERNAL"
	}
}

// FromKind maps a stored error kind back to its sentinel, so a replayed
// failure is indistinguishable from the original one to errors.Is callers.
func FromKind(kind string) error {
	switch kind {
	case "INVALID_REQUEST":
		return ErrValidation
	case "ACCOUNT_NOT_FOUND":
		return ErrNotFound
	case "ACCOUNT_INACTIVE":
		return ErrAccountInactive
	case "INSUFFICIENT_BALANCE":
		return ErrInsufficientBalance
	case "CONFLICT":
		return ErrConflict
	case "VERSION_CONFLICT":
		return ErrVersionConflict
	case "TIMEOUT":
		return ErrTimeout
	case "DUPLICATE":
		return ErrDuplicate
	case "STORAGE_FAILURE":
		return ErrStorage
	default:
		return errors.New("internal error")
	}
}

// Retryable reports whether a caller may retry the same request (with the
// same idempotency key) and reasonably expect a different outcome. Storage
// failures count: the durable write may not have happened at all, and if it
// did commit, the transfers table's unique request_key rejects the re-apply.
func Retryable(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrVersionConflict) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrStorage)
}
