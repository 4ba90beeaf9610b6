package domain

import "github.com/shopspring/decimal"

// KindTotals aggregates an account's ledger activity for one transfer kind
// over a reporting window. Computed from committed ledger entries only, so
// it is always consistent with the balances observers can see.
type KindTotals struct {
	Kind        TransferKind    `json:"kind"`
	DebitTotal  decimal.Decimal `json:"debitTotal"`
	CreditTotal decimal.Decimal `json:"creditTotal"`
	EntryCount  int64           `json:"entryCount"`
}
