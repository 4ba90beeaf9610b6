package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferKind enumerates the supported money movements.
type TransferKind string

const (
	Deposit          TransferKind = "DEPOSIT"
	Withdrawal       TransferKind = "WITHDRAWAL"
	BillPayment      TransferKind = "BILL_PAYMENT"
	InternalTransfer TransferKind = "INTERNAL_TRANSFER"
	ExternalTransfer TransferKind = "EXTERNAL_TRANSFER" // NEFT / IMPS
	P2PTransfer      TransferKind = "P2P_TRANSFER"      // UPI
)

// Valid reports whether k is a known transfer kind.
func (k TransferKind) Valid() bool {
	switch k {
	case Deposit, Withdrawal, BillPayment, InternalTransfer, ExternalTransfer, P2PTransfer:
		return true
	}
	return false
}

// RequiresSource reports whether the kind debits a source account.
// Every kind except a pure deposit does.
func (k TransferKind) RequiresSource() bool {
	return k != Deposit
}

// RequiresDest reports whether the kind credits a destination account.
// Every kind except a pure withdrawal does; bill payments and external
// transfers settle into a biller / outbound settlement account.
func (k TransferKind) RequiresDest() bool {
	return k != Withdrawal
}

// TransferRequest is a caller's intent to move value. RequestKey is the
// caller-generated idempotency token, unique per logical intent: resubmitting
// with the same key never applies the effect twice.
type TransferRequest struct {
	RequestKey      string
	Kind            TransferKind
	Amount          decimal.Decimal
	SourceAccountID string            // empty for pure deposits
	DestAccountID   string            // empty for pure withdrawals
	Metadata        map[string]string // beneficiary, category, note... opaque to the engine
}

// Transfer is an accepted, applied money movement. Transfers are recorded
// only once their full effect has committed; there is no partial state.
type Transfer struct {
	TransferID      string            `json:"transferID"`
	RequestKey      string            `json:"requestKey"`
	Kind            TransferKind      `json:"kind"`
	Amount          decimal.Decimal   `json:"amount"`
	CurrencyCode    string            `json:"currencyCode"`
	SourceAccountID string            `json:"sourceAccountID,omitempty"`
	DestAccountID   string            `json:"destAccountID,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// ResultStatus is the outcome class of a submitted transfer.
type ResultStatus string

const (
	ResultAccepted ResultStatus = "ACCEPTED"
	ResultRejected ResultStatus = "REJECTED"
)

// TransferResult is returned to the caller of Submit and stored verbatim in
// the idempotency registry so that retries observe the identical outcome.
type TransferResult struct {
	Status       ResultStatus     `json:"status"`
	TransferID   string           `json:"transferID,omitempty"`
	NewBalance   *decimal.Decimal `json:"newBalance,omitempty"` // caller's own account, when applicable
	ErrorKind    string           `json:"errorKind,omitempty"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
}

// Accepted reports whether the transfer was applied.
func (r TransferResult) Accepted() bool {
	return r.Status == ResultAccepted
}
