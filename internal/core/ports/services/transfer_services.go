package services

import (
	"context"

	"github.com/nexabank/nexabank_ledger/internal/core/domain"
)

// TransferSvcFacade is the engine's inbound surface for moving value.
type TransferSvcFacade interface {
	// Submit validates, sequences, and atomically applies a transfer. The
	// returned result is stable per request key: a retried submission with
	// the same key observes the identical outcome without re-applying the
	// effect. A non-nil error accompanies every rejected result and matches
	// one apperrors sentinel, so callers can distinguish "insufficient
	// funds" from "retry later".
	Submit(ctx context.Context, req domain.TransferRequest) (domain.TransferResult, error)

	// GetTransfer retrieves an applied transfer by its ID.
	GetTransfer(ctx context.Context, transferID string) (*domain.Transfer, error)
}
