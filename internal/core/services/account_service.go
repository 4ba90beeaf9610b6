package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nexabank/nexabank_ledger/internal/apperrors"
	"github.com/nexabank/nexabank_ledger/internal/core/domain"
	portsrepo "github.com/nexabank/nexabank_ledger/internal/core/ports/repositories"
	portssvc "github.com/nexabank/nexabank_ledger/internal/core/ports/services"
	"github.com/nexabank/nexabank_ledger/internal/middleware"
)

// accountService handles account provisioning and reads. Balances are never
// mutated here; that is the transfer service's exclusive job.
type accountService struct {
	accountRepo  portsrepo.AccountRepositoryFacade
	currencyCode string
}

// NewAccountService creates a new AccountService.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade, currencyCode string) portssvc.AccountSvcFacade {
	return &accountService{
		accountRepo:  accountRepo,
		currencyCode: currencyCode,
	}
}

// Ensure accountService implements the portssvc.AccountSvcFacade interface
var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// CreateAccount provisions a new active account with a zero opening balance.
func (s *accountService) CreateAccount(ctx context.Context, holderName, accountNumber string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if holderName == "" {
		return nil, fmt.Errorf("%w: holder name is required", apperrors.ErrValidation)
	}
	if accountNumber == "" {
		return nil, fmt.Errorf("%w: account number is required", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountID:     uuid.NewString(),
		AccountNumber: accountNumber,
		HolderName:    holderName,
		CurrencyCode:  s.currencyCode,
		Status:        domain.AccountActive,
		Balance:       decimal.Zero,
		Version:       1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			LastUpdatedAt: now,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: account number %s already exists", apperrors.ErrDuplicate, accountNumber)
		}
		logger.Error("Failed to save account", slog.String("account_number", accountNumber), slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Account created", slog.String("account_id", account.AccountID))
	return &account, nil
}

// GetAccountByID returns a lock-free snapshot of the account.
func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("account %s not found", accountID))
		}
		return nil, err
	}
	return account, nil
}

// UpdateAccountStatus transitions an account between active, frozen and
// closed. Closed is terminal: a closed account can never be reopened.
func (s *accountService) UpdateAccountStatus(ctx context.Context, accountID string, status domain.AccountStatus) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	switch status {
	case domain.AccountActive, domain.AccountFrozen, domain.AccountClosed:
	default:
		return nil, fmt.Errorf("%w: unknown account status %q", apperrors.ErrValidation, status)
	}

	account, err := s.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Status == domain.AccountClosed {
		return nil, fmt.Errorf("%w: account %s is closed", apperrors.ErrValidation, accountID)
	}
	if account.Status == status {
		return account, nil
	}

	now := time.Now().UTC()
	if err := s.accountRepo.UpdateAccountStatus(ctx, accountID, status, now); err != nil {
		logger.Error("Failed to update account status", slog.String("account_id", accountID), slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Account status updated",
		slog.String("account_id", accountID),
		slog.String("from", string(account.Status)),
		slog.String("to", string(status)),
	)

	account.Status = status
	account.LastUpdatedAt = now
	return account, nil
}
