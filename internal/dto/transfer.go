package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nexabank/nexabank_ledger/internal/core/domain"
)

// SubmitTransferRequest defines the data needed to submit a money movement.
// RequestKey is the caller-generated idempotency token; resubmitting with
// the same key replays the original outcome instead of applying twice.
type SubmitTransferRequest struct {
	RequestKey      string            `json:"requestKey" binding:"required"`
	Kind            string            `json:"kind" binding:"required,oneof=DEPOSIT WITHDRAWAL BILL_PAYMENT INTERNAL_TRANSFER EXTERNAL_TRANSFER P2P_TRANSFER"`
	Amount          decimal.Decimal   `json:"amount" binding:"required,decimalgt0"`
	SourceAccountID string            `json:"sourceAccountID"` // omitted for deposits
	DestAccountID   string            `json:"destAccountID"`   // omitted for withdrawals
	Metadata        map[string]string `json:"metadata"`        // optional, opaque
}

// ToTransferRequest converts the DTO into the domain request.
func (r SubmitTransferRequest) ToTransferRequest() domain.TransferRequest {
	return domain.TransferRequest{
		RequestKey:      r.RequestKey,
		Kind:            domain.TransferKind(r.Kind),
		Amount:          r.Amount,
		SourceAccountID: r.SourceAccountID,
		DestAccountID:   r.DestAccountID,
		Metadata:        r.Metadata,
	}
}

// TransferResultResponse defines the outcome returned for a submission.
type TransferResultResponse struct {
	Status       domain.ResultStatus `json:"status"`
	TransferID   string              `json:"transferID,omitempty"`
	NewBalance   *decimal.Decimal    `json:"newBalance,omitempty"`
	ErrorKind    string              `json:"errorKind,omitempty"`
	ErrorMessage string              `json:"errorMessage,omitempty"`
}

// ToTransferResultResponse converts a domain.TransferResult to its DTO.
func ToTransferResultResponse(res domain.TransferResult) TransferResultResponse {
	return TransferResultResponse{
		Status:       res.Status,
		TransferID:   res.TransferID,
		NewBalance:   res.NewBalance,
		ErrorKind:    res.ErrorKind,
		ErrorMessage: res.ErrorMessage,
	}
}

// TransferResponse defines the data returned for an applied transfer.
type TransferResponse struct {
	TransferID      string            `json:"transferID"`
	RequestKey      string            `json:"requestKey"`
	Kind            string            `json:"kind"`
	Amount          decimal.Decimal   `json:"amount"`
	CurrencyCode    string            `json:"currencyCode"`
	SourceAccountID string            `json:"sourceAccountID,omitempty"`
	DestAccountID   string            `json:"destAccountID,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// ToTransferResponse converts a domain.Transfer to TransferResponse DTO.
func ToTransferResponse(t *domain.Transfer) TransferResponse {
	return TransferResponse{
		TransferID:      t.TransferID,
		RequestKey:      t.RequestKey,
		Kind:            string(t.Kind),
		Amount:          t.Amount,
		CurrencyCode:    t.CurrencyCode,
		SourceAccountID: t.SourceAccountID,
		DestAccountID:   t.DestAccountID,
		Metadata:        t.Metadata,
		CreatedAt:       t.CreatedAt,
	}
}
