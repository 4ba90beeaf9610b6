package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatus mirrors domain.AccountStatus for persistence.
type AccountStatus string

// Account is the database representation of an account row.
type Account struct {
	AccountID     string          `db:"account_id"`
	AccountNumber string          `db:"account_number"`
	HolderName    string          `db:"holder_name"`
	CurrencyCode  string          `db:"currency_code"`
	Status        AccountStatus   `db:"status"`
	Balance       decimal.Decimal `db:"balance"`
	Version       int64           `db:"version"`
	AuditFields
}

// AuditFields holds standard audit columns shared by mutable tables.
type AuditFields struct {
	CreatedAt     time.Time `db:"created_at"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
}
