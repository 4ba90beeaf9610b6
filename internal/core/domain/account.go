package domain

import (
	"github.com/shopspring/decimal"
)

// AccountStatus indicates whether an account can participate in transfers.
type AccountStatus string

const (
	AccountActive AccountStatus = "ACTIVE"
	AccountFrozen AccountStatus = "FROZEN"
	AccountClosed AccountStatus = "CLOSED"
)

// Account represents a financial account within the core domain.
// Balance is a fixed-point decimal; it is mutated only by the transfer
// engine, never by handlers or collaborators directly.
type Account struct {
	AccountID     string          `json:"accountID"`     // Primary Key (UUID)
	AccountNumber string          `json:"accountNumber"` // External, human-facing number
	HolderName    string          `json:"holderName"`
	CurrencyCode  string          `json:"currencyCode"`
	Status        AccountStatus   `json:"status"`
	Balance       decimal.Decimal `json:"balance"`
	// Version increases monotonically with every balance mutation. It is the
	// optimistic-concurrency guard: a write carrying a stale version is
	// rejected instead of silently overwriting.
	Version int64 `json:"version"`
	AuditFields
}

// IsActive reports whether the account may be debited or credited.
func (a Account) IsActive() bool {
	return a.Status == AccountActive
}
