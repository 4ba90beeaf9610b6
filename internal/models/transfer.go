package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer is the database representation of an applied transfer row.
// Metadata is stored as a jsonb column and never interpreted by the engine.
type Transfer struct {
	TransferID      string            `db:"transfer_id"`
	RequestKey      string            `db:"request_key"`
	Kind            string            `db:"kind"`
	Amount          decimal.Decimal   `db:"amount"`
	CurrencyCode    string            `db:"currency_code"`
	SourceAccountID *string           `db:"source_account_id"`
	DestAccountID   *string           `db:"dest_account_id"`
	Metadata        map[string]string `db:"metadata"`
	CreatedAt       time.Time         `db:"created_at"`
}
