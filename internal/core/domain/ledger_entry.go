package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryDirection indicates whether a ledger leg debits or credits its account.
type EntryDirection string

const (
	Debit  EntryDirection = "DEBIT"
	Credit EntryDirection = "CREDIT"
)

// LedgerEntry is one immutable leg of an applied transfer. A two-account
// transfer produces a debit leg and a credit leg of equal amount; a pure
// deposit or withdrawal produces a single leg. Entries are never updated or
// deleted — corrections are new, compensating entries.
type LedgerEntry struct {
	EntryID      string          `json:"entryID"`
	TransferID   string          `json:"transferID"`
	AccountID    string          `json:"accountID"`
	Direction    EntryDirection  `json:"direction"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balanceAfter"`
	Kind         TransferKind    `json:"kind"`
	CurrencyCode string          `json:"currencyCode"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// SignedAmount is the delta the entry applied to its account's balance:
// negative for debits, positive for credits.
func (e LedgerEntry) SignedAmount() decimal.Decimal {
	if e.Direction == Debit {
		return e.Amount.Neg()
	}
	return e.Amount
}
