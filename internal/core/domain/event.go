package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventLeg describes one account's side of a completed transfer in an
// outbound notification.
type EventLeg struct {
	AccountID string          `json:"accountID"`
	Direction EntryDirection  `json:"direction"`
	Amount    decimal.Decimal `json:"amount"`
}

// TransferEvent is emitted after a transfer's atomic unit commits. Delivery
// to the notification collaborator is best-effort and never required for the
// transfer's own correctness; the event row is written in the same database
// transaction as the transfer (transactional outbox) and dispatched
// asynchronously.
type TransferEvent struct {
	EventID    string          `json:"eventID"`
	TransferID string          `json:"transferID"`
	Kind       TransferKind    `json:"kind"`
	Amount     decimal.Decimal `json:"amount"`
	Legs       []EventLeg      `json:"legs"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// PendingNotification is an undelivered outbox row as seen by the dispatcher.
type PendingNotification struct {
	EventID  string
	Payload  []byte
	Attempts int
}
