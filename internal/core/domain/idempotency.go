package domain

import "time"

// IdempotencyStatus is the lifecycle state of an idempotency record.
type IdempotencyStatus string

const (
	IdempotencyPending   IdempotencyStatus = "PENDING"
	IdempotencyCompleted IdempotencyStatus = "COMPLETED"
	IdempotencyFailed    IdempotencyStatus = "FAILED"
)

// IdempotencyRecord maps a caller-supplied request key to the outcome of a
// previously accepted request. Records are retained for a bounded window and
// then garbage-collected; a repeated key after expiry is, by stated policy, a
// new request.
type IdempotencyRecord struct {
	RequestKey string
	Status     IdempotencyStatus
	Result     *TransferResult // populated once resolved
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// BeginOutcome is the result of IdempotencyRegistry.TryBegin. Exactly one of
// two concurrent TryBegin calls for the same key observes BeginStarted.
type BeginOutcome int

const (
	BeginStarted BeginOutcome = iota
	BeginAlreadyPending
	BeginAlreadyCompleted
	BeginAlreadyFailed
)
