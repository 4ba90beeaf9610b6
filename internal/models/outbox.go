package models

import "time"

// OutboxEvent is a pending notification row written in the same transaction
// as the transfer it describes, and delivered asynchronously by the webhook
// dispatcher.
type OutboxEvent struct {
	EventID   string     `db:"event_id"`
	Payload   []byte     `db:"payload"`
	Status    string     `db:"status"` // PENDING, SENT, FAILED
	Attempts  int        `db:"attempts"`
	NextRunAt time.Time  `db:"next_run_at"`
	CreatedAt time.Time  `db:"created_at"`
	SentAt    *time.Time `db:"sent_at"`
}
