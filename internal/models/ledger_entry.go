package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is the database representation of one immutable ledger leg.
type LedgerEntry struct {
	EntryID      string          `db:"entry_id"`
	TransferID   string          `db:"transfer_id"`
	AccountID    string          `db:"account_id"`
	Direction    string          `db:"direction"`
	Amount       decimal.Decimal `db:"amount"`
	BalanceAfter decimal.Decimal `db:"balance_after"`
	Kind         string          `db:"kind"`
	CurrencyCode string          `db:"currency_code"`
	CreatedAt    time.Time       `db:"created_at"`
}
