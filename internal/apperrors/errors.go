package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
// Rejections carrying this sentinel happen before any lock is taken and have
// no side effect on balances or the ledger.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrAccountInactive indicates that an account involved in an operation is frozen or closed.
var ErrAccountInactive = errors.New("account is not active")

// ErrInsufficientBalance indicates that the source account cannot cover the requested amount.
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrConflict indicates that a request with the same idempotency key is
// already in flight. Callers should retry after a backoff.
var ErrConflict = errors.New("duplicate request in flight")

// ErrVersionConflict indicates that an optimistic-concurrency check failed
// because an account row changed between read and write. The whole operation
// is safe to retry.
var ErrVersionConflict = errors.New("account version conflict")

// ErrTimeout indicates that waiting for an account lock exceeded its bound.
// Safe to retry with the same idempotency key.
var ErrTimeout = errors.New("lock acquisition timed out")

// ErrStorage indicates that a durable write failed. The idempotency record
// for the affected request must never end up marked completed.
var ErrStorage = errors.New("storage failure")
