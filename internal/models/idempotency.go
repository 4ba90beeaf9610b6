package models

import "time"

// IdempotencyRecord is the database representation of an idempotency key row.
// Result holds the serialized TransferResult once the request resolves.
type IdempotencyRecord struct {
	RequestKey string     `db:"request_key"`
	Status     string     `db:"status"`
	Result     []byte     `db:"result"`
	CreatedAt  time.Time  `db:"created_at"`
	ResolvedAt *time.Time `db:"resolved_at"`
}
