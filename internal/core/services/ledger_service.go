package services

import (
	"context"
	"fmt"
	"time"

	"github.com/nexabank/nexabank_ledger/internal/apperrors"
	"github.com/nexabank/nexabank_ledger/internal/core/domain"
	portsrepo "github.com/nexabank/nexabank_ledger/internal/core/ports/repositories"
	portssvc "github.com/nexabank/nexabank_ledger/internal/core/ports/services"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// ledgerService serves read access over the immutable transfer history.
type ledgerService struct {
	ledgerRepo  portsrepo.LedgerReader
	accountRepo portsrepo.AccountReader
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(ledgerRepo portsrepo.LedgerReader, accountRepo portsrepo.AccountReader) portssvc.LedgerSvcFacade {
	return &ledgerService{
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
	}
}

// Ensure ledgerService implements the portssvc.LedgerSvcFacade interface
var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// GetHistory returns a page of an account's ledger entries, newest first.
func (s *ledgerService) GetHistory(ctx context.Context, accountID string, kind *domain.TransferKind, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	if _, err := s.accountRepo.FindAccountByID(ctx, accountID); err != nil {
		return nil, nil, err
	}
	if kind != nil && !kind.Valid() {
		return nil, nil, fmt.Errorf("%w: unknown transfer kind %q", apperrors.ErrValidation, *kind)
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	} else if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	return s.ledgerRepo.ListEntriesByAccountID(ctx, accountID, kind, limit, nextToken)
}

// GetEntriesByTransferID returns both legs of one transfer.
func (s *ledgerService) GetEntriesByTransferID(ctx context.Context, transferID string) ([]domain.LedgerEntry, error) {
	entries, err := s.ledgerRepo.FindEntriesByTransferID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("transfer %s not found", transferID))
	}
	return entries, nil
}

// GetSummary aggregates per-kind debit/credit totals for an account over
// [from, to).
func (s *ledgerService) GetSummary(ctx context.Context, accountID string, from, to time.Time) ([]domain.KindTotals, error) {
	if _, err := s.accountRepo.FindAccountByID(ctx, accountID); err != nil {
		return nil, err
	}
	if !to.After(from) {
		return nil, fmt.Errorf("%w: summary window must end after it starts", apperrors.ErrValidation)
	}
	return s.ledgerRepo.SummarizeByKind(ctx, accountID, from, to)
}
