package services

import (
	"context"

	"github.com/nexabank/nexabank_ledger/internal/core/domain"
)

// AccountSvcFacade covers account provisioning and lock-free balance reads.
// The transfer engine consumes only GetAccountByID's status/balance snapshot;
// it never provisions or closes accounts itself.
type AccountSvcFacade interface {
	// CreateAccount provisions a new active account with a zero opening balance.
	CreateAccount(ctx context.Context, holderName, accountNumber string) (*domain.Account, error)

	// GetAccountByID returns a snapshot of the account, read without locks.
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// UpdateAccountStatus transitions an account between active, frozen and
	// closed. Closed is terminal.
	UpdateAccountStatus(ctx context.Context, accountID string, status domain.AccountStatus) (*domain.Account, error)
}
