package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nexabank/nexabank_ledger/internal/core/domain"
)

// LedgerEntryResponse defines the data returned for one ledger leg.
type LedgerEntryResponse struct {
	EntryID      string          `json:"entryID"`
	TransferID   string          `json:"transferID"`
	AccountID    string          `json:"accountID"`
	Direction    string          `json:"direction"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balanceAfter"`
	Kind         string          `json:"kind"`
	CurrencyCode string          `json:"currencyCode"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// HistoryResponse is one page of an account's ledger history, newest first.
// NextToken restarts the listing at the following page; absent on the last one.
type HistoryResponse struct {
	Entries   []LedgerEntryResponse `json:"entries"`
	NextToken *string               `json:"nextToken,omitempty"`
}

// ListHistoryParams defines query parameters for listing account history.
type ListHistoryParams struct {
	Kind      string `form:"kind"`
	Limit     int    `form:"limit,default=20"`
	NextToken string `form:"nextToken"`
}

// SummaryParams defines query parameters for the per-kind summary.
type SummaryParams struct {
	From time.Time `form:"from" time_format:"2006-01-02" binding:"required"`
	To   time.Time `form:"to" time_format:"2006-01-02" binding:"required"`
}

// KindTotalsResponse defines one aggregated row of the summary.
type KindTotalsResponse struct {
	Kind        string          `json:"kind"`
	DebitTotal  decimal.Decimal `json:"debitTotal"`
	CreditTotal decimal.Decimal `json:"creditTotal"`
	EntryCount  int64           `json:"entryCount"`
}

// SummaryResponse defines the per-kind totals for an account over a window.
type SummaryResponse struct {
	AccountID string               `json:"accountID"`
	From      time.Time            `json:"from"`
	To        time.Time            `json:"to"`
	Totals    []KindTotalsResponse `json:"totals"`
}

// ToLedgerEntryResponse converts a domain.LedgerEntry to its DTO.
func ToLedgerEntryResponse(e *domain.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		EntryID:      e.EntryID,
		TransferID:   e.TransferID,
		AccountID:    e.AccountID,
		Direction:    string(e.Direction),
		Amount:       e.Amount,
		BalanceAfter: e.BalanceAfter,
		Kind:         string(e.Kind),
		CurrencyCode: e.CurrencyCode,
		CreatedAt:    e.CreatedAt,
	}
}

// ToLedgerEntryResponses converts a slice of domain entries to DTOs.
func ToLedgerEntryResponses(entries []domain.LedgerEntry) []LedgerEntryResponse {
	responses := make([]LedgerEntryResponse, len(entries))
	for i, e := range entries {
		responses[i] = ToLedgerEntryResponse(&e)
	}
	return responses
}

// ToKindTotalsResponses converts aggregated rows to DTOs.
func ToKindTotalsResponses(totals []domain.KindTotals) []KindTotalsResponse {
	responses := make([]KindTotalsResponse, len(totals))
	for i, t := range totals {
		responses[i] = KindTotalsResponse{
			Kind:        string(t.Kind),
			DebitTotal:  t.DebitTotal,
			CreditTotal: t.CreditTotal,
			EntryCount:  t.EntryCount,
		}
	}
	return responses
}
