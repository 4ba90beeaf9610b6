package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nexabank/nexabank_ledger/internal/core/domain"
)

// CreateAccountRequest defines the data needed to provision a new account.
type CreateAccountRequest struct {
	HolderName    string `json:"holderName" binding:"required"`
	AccountNumber string `json:"accountNumber" binding:"required"`
}

// UpdateAccountStatusRequest defines the allowed status transitions.
type UpdateAccountStatusRequest struct {
	Status domain.AccountStatus `json:"status" binding:"required,oneof=ACTIVE FROZEN CLOSED"`
}

// AccountResponse defines the data returned for an account.
// Mirrors domain.Account.
type AccountResponse struct {
	AccountID     string               `json:"accountID"`
	AccountNumber string               `json:"accountNumber"`
	HolderName    string               `json:"holderName"`
	CurrencyCode  string               `json:"currencyCode"`
	Status        domain.AccountStatus `json:"status"`
	Balance       decimal.Decimal      `json:"balance"`
	CreatedAt     time.Time            `json:"createdAt"`
	LastUpdatedAt time.Time            `json:"lastUpdatedAt"`
}

// AccountBalanceResponse defines the data returned for a balance query.
type AccountBalanceResponse struct {
	AccountID    string          `json:"accountID"`
	Balance      decimal.Decimal `json:"balance"`
	CurrencyCode string          `json:"currencyCode"`
	AsOf         time.Time       `json:"asOf"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:     acc.AccountID,
		AccountNumber: acc.AccountNumber,
		HolderName:    acc.HolderName,
		CurrencyCode:  acc.CurrencyCode,
		Status:        acc.Status,
		Balance:       acc.Balance,
		CreatedAt:     acc.CreatedAt,
		LastUpdatedAt: acc.LastUpdatedAt,
	}
}
