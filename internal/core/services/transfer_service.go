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
	"github.com/nexabank/nexabank_ledger/internal/utils/accounting"
	"github.com/nexabank/nexabank_ledger/internal/utils/locking"
)

// transferService sequences and applies money movements. It is the only
// component that mutates balances and appends ledger entries, and it does
// both through a single durable transaction per transfer.
type transferService struct {
	transferRepo    portsrepo.TransferRepositoryFacade
	accountRepo     portsrepo.AccountReader
	idempotencyRepo portsrepo.IdempotencyRepository
	lockManager     *locking.AccountLockManager
	currencyCode    string
	lockTimeout     time.Duration
}

// NewTransferService creates a new TransferService.
func NewTransferService(
	transferRepo portsrepo.TransferRepositoryFacade,
	accountRepo portsrepo.AccountReader,
	idempotencyRepo portsrepo.IdempotencyRepository,
	lockManager *locking.AccountLockManager,
	currencyCode string,
	lockTimeout time.Duration,
) portssvc.TransferSvcFacade {
	return &transferService{
		transferRepo:    transferRepo,
		accountRepo:     accountRepo,
		idempotencyRepo: idempotencyRepo,
		lockManager:     lockManager,
		currencyCode:    currencyCode,
		lockTimeout:     lockTimeout,
	}
}

// Ensure transferService implements the portssvc.TransferSvcFacade interface
var _ portssvc.TransferSvcFacade = (*transferService)(nil)

// Submit validates and applies a transfer exactly once per request key.
//
// A malformed request is rejected before the key is claimed, so the caller
// can fix the request and resubmit under the same key. Once the key is
// claimed, every outcome — accepted or rejected — is recorded against it and
// replayed verbatim to retries, except for transient failures (lock timeout,
// version conflict, storage failure), which a retry is allowed to reopen and
// run again.
func (s *transferService) Submit(ctx context.Context, req domain.TransferRequest) (domain.TransferResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := validateRequest(req); err != nil {
		logger.Warn("Transfer request rejected at validation", slog.String("request_key", req.RequestKey), slog.String("error", err.Error()))
		return rejectedResult(err), err
	}

	now := time.Now().UTC()

	outcome, record, err := s.idempotencyRepo.TryBegin(ctx, req.RequestKey, now)
	if err != nil {
		logger.Error("Failed to claim request key", slog.String("request_key", req.RequestKey), slog.String("error", err.Error()))
		return rejectedResult(err), err
	}

	switch outcome {
	case domain.BeginStarted:
		// Fresh claim, fall through to apply.
	case domain.BeginAlreadyPending:
		err := fmt.Errorf("%w: request key %s", apperrors.ErrConflict, req.RequestKey)
		logger.Warn("Duplicate request while original still in flight", slog.String("request_key", req.RequestKey))
		return rejectedResult(err), err
	case domain.BeginAlreadyCompleted:
		logger.Info("Replaying completed result for request key", slog.String("request_key", req.RequestKey))
		return replay(record, req.RequestKey)
	case domain.BeginAlreadyFailed:
		reopened, result, err := s.maybeReopen(ctx, record, req.RequestKey, now)
		if !reopened {
			logger.Info("Replaying failed result for request key", slog.String("request_key", req.RequestKey))
			return result, err
		}
		logger.Info("Reopened retryable failure for request key", slog.String("request_key", req.RequestKey))
	}

	return s.apply(ctx, logger, req, now)
}

// apply runs the transfer under the account locks and records the outcome
// against the already-claimed request key.
func (s *transferService) apply(ctx context.Context, logger *slog.Logger, req domain.TransferRequest, now time.Time) (domain.TransferResult, error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	release, err := s.lockManager.Acquire(lockCtx, req.SourceAccountID, req.DestAccountID)
	if err != nil {
		logger.Warn("Could not obtain account locks", slog.String("request_key", req.RequestKey), slog.String("error", err.Error()))
		return s.reject(ctx, logger, req.RequestKey, err, now)
	}
	defer release()

	accounts, err := s.loadParticipants(ctx, req)
	if err != nil {
		return s.reject(ctx, logger, req.RequestKey, err, now)
	}

	if req.Kind.RequiresSource() {
		source := accounts[req.SourceAccountID]
		if source.Balance.LessThan(req.Amount) {
			err := fmt.Errorf("%w: account %s holds %s, needs %s", apperrors.ErrInsufficientBalance, source.AccountID, source.Balance.String(), req.Amount.String())
			logger.Warn("Transfer rejected for insufficient balance", slog.String("request_key", req.RequestKey), slog.String("account_id", source.AccountID))
			return s.reject(ctx, logger, req.RequestKey, err, now)
		}
	}

	transfer, entries, deltas, versions := s.buildTransfer(req, accounts, now)
	if err := accounting.ValidateEntryBalance(entries); err != nil {
		logger.Error("Constructed entries failed balance check", slog.String("request_key", req.RequestKey), slog.String("error", err.Error()))
		return s.reject(ctx, logger, req.RequestKey, fmt.Errorf("%w: %v", apperrors.ErrValidation, err), now)
	}
	event := buildEvent(transfer, entries, now)

	if err := s.transferRepo.ApplyTransfer(ctx, transfer, entries, deltas, versions, event); err != nil {
		logger.Error("Transfer apply failed", slog.String("request_key", req.RequestKey), slog.String("transfer_id", transfer.TransferID), slog.String("error", err.Error()))
		return s.reject(ctx, logger, req.RequestKey, err, now)
	}

	result := domain.TransferResult{
		Status:     domain.ResultAccepted,
		TransferID: transfer.TransferID,
	}
	if caller := callerAccountID(req); caller != "" {
		newBalance := accounts[caller].Balance.Add(deltas[caller])
		result.NewBalance = &newBalance
	}

	if err := s.idempotencyRepo.Resolve(ctx, req.RequestKey, domain.IdempotencyCompleted, &result, time.Now().UTC()); err != nil {
		// The transfer is committed; only the replay record is missing. Leave
		// the key pending for the janitor rather than failing the request.
		logger.Error("Failed to record completed result", slog.String("request_key", req.RequestKey), slog.String("error", err.Error()))
	}

	logger.Info("Transfer applied",
		slog.String("transfer_id", transfer.TransferID),
		slog.String("kind", string(req.Kind)),
		slog.String("amount", req.Amount.String()),
	)
	return result, nil
}

// reject records a failed outcome against the claimed key and returns the
// rejected result alongside the causing error.
func (s *transferService) reject(ctx context.Context, logger *slog.Logger, requestKey string, cause error, now time.Time) (domain.TransferResult, error) {
	result := rejectedResult(cause)
	if err := s.idempotencyRepo.Resolve(ctx, requestKey, domain.IdempotencyFailed, &result, time.Now().UTC()); err != nil {
		logger.Error("Failed to record rejected result", slog.String("request_key", requestKey), slog.String("error", err.Error()))
	}
	return result, cause
}

// maybeReopen decides what to do with a previously failed key: transient
// failures are reopened and retried, terminal ones are replayed.
func (s *transferService) maybeReopen(ctx context.Context, record *domain.IdempotencyRecord, requestKey string, now time.Time) (bool, domain.TransferResult, error) {
	if record == nil || record.Result == nil {
		err := fmt.Errorf("%w: request key %s has no recorded outcome", apperrors.ErrConflict, requestKey)
		return false, rejectedResult(err), err
	}

	stored := apperrors.FromKind(record.Result.ErrorKind)
	if !apperrors.Retryable(stored) {
		return false, *record.Result, fmt.Errorf("%w: request key %s", stored, requestKey)
	}

	won, err := s.idempotencyRepo.Reopen(ctx, requestKey, now)
	if err != nil {
		return false, rejectedResult(err), err
	}
	if !won {
		// Another retry reopened the key first and is running now.
		err := fmt.Errorf("%w: request key %s", apperrors.ErrConflict, requestKey)
		return false, rejectedResult(err), err
	}
	return true, domain.TransferResult{}, nil
}

// loadParticipants fetches and gatekeeps every account the transfer touches.
func (s *transferService) loadParticipants(ctx context.Context, req domain.TransferRequest) (map[string]domain.Account, error) {
	ids := participantIDs(req)

	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		account, ok := accounts[id]
		if !ok {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
		}
		if !account.IsActive() {
			return nil, fmt.Errorf("%w: account %s is %s", apperrors.ErrAccountInactive, id, account.Status)
		}
	}
	return accounts, nil
}

// buildTransfer assembles the transfer row, its ledger legs, the signed
// balance deltas and the version snapshot the storage layer will verify.
// Legs follow double-entry form: the debit leg precedes the credit leg, and
// for two-account kinds both legs carry the same amount.
func (s *transferService) buildTransfer(req domain.TransferRequest, accounts map[string]domain.Account, now time.Time) (domain.Transfer, []domain.LedgerEntry, map[string]decimal.Decimal, map[string]int64) {
	transfer := domain.Transfer{
		TransferID:      uuid.NewString(),
		RequestKey:      req.RequestKey,
		Kind:            req.Kind,
		Amount:          req.Amount,
		CurrencyCode:    s.currencyCode,
		SourceAccountID: req.SourceAccountID,
		DestAccountID:   req.DestAccountID,
		Metadata:        req.Metadata,
		CreatedAt:       now,
	}

	newEntry := func(accountID string, direction domain.EntryDirection) domain.LedgerEntry {
		return domain.LedgerEntry{
			EntryID:      uuid.NewString(),
			TransferID:   transfer.TransferID,
			AccountID:    accountID,
			Direction:    direction,
			Amount:       req.Amount,
			Kind:         req.Kind,
			CurrencyCode: s.currencyCode,
			CreatedAt:    now,
		}
	}

	var entries []domain.LedgerEntry
	if req.Kind.RequiresSource() {
		entries = append(entries, newEntry(req.SourceAccountID, domain.Debit))
	}
	if req.Kind.RequiresDest() {
		entries = append(entries, newEntry(req.DestAccountID, domain.Credit))
	}
	deltas := accounting.SumDeltas(entries)

	versions := make(map[string]int64, len(deltas))
	for id := range deltas {
		versions[id] = accounts[id].Version
	}

	return transfer, entries, deltas, versions
}

// buildEvent shapes the completion notification queued alongside the transfer.
func buildEvent(transfer domain.Transfer, entries []domain.LedgerEntry, now time.Time) domain.TransferEvent {
	legs := make([]domain.EventLeg, 0, len(entries))
	for _, entry := range entries {
		legs = append(legs, domain.EventLeg{
			AccountID: entry.AccountID,
			Direction: entry.Direction,
			Amount:    entry.Amount,
		})
	}
	return domain.TransferEvent{
		EventID:    uuid.NewString(),
		TransferID: transfer.TransferID,
		Kind:       transfer.Kind,
		Amount:     transfer.Amount,
		Legs:       legs,
		OccurredAt: now,
	}
}

// replay serves a stored completed result. An accepted result replays with a
// nil error; a rejected one replays with the original sentinel so errors.Is
// callers cannot tell a replay from the first run.
func replay(record *domain.IdempotencyRecord, requestKey string) (domain.TransferResult, error) {
	if record == nil || record.Result == nil {
		err := fmt.Errorf("%w: request key %s has no recorded outcome", apperrors.ErrConflict, requestKey)
		return rejectedResult(err), err
	}
	result := *record.Result
	if result.Accepted() {
		return result, nil
	}
	return result, fmt.Errorf("%w: request key %s", apperrors.FromKind(result.ErrorKind), requestKey)
}

// validateRequest gatekeeps request shape before the request key is claimed.
func validateRequest(req domain.TransferRequest) error {
	switch {
	case req.RequestKey == "":
		return fmt.Errorf("%w: request key is required", apperrors.ErrValidation)
	case !req.Kind.Valid():
		return fmt.Errorf("%w: unknown transfer kind %q", apperrors.ErrValidation, req.Kind)
	case !req.Amount.IsPositive():
		return fmt.Errorf("%w: amount must be positive, got %s", apperrors.ErrValidation, req.Amount.String())
	}

	if req.Kind.RequiresSource() && req.SourceAccountID == "" {
		return fmt.Errorf("%w: %s requires a source account", apperrors.ErrValidation, req.Kind)
	}
	if !req.Kind.RequiresSource() && req.SourceAccountID != "" {
		return fmt.Errorf("%w: %s must not name a source account", apperrors.ErrValidation, req.Kind)
	}
	if req.Kind.RequiresDest() && req.DestAccountID == "" {
		return fmt.Errorf("%w: %s requires a destination account", apperrors.ErrValidation, req.Kind)
	}
	if !req.Kind.RequiresDest() && req.DestAccountID != "" {
		return fmt.Errorf("%w: %s must not name a destination account", apperrors.ErrValidation, req.Kind)
	}
	if req.SourceAccountID != "" && req.SourceAccountID == req.DestAccountID {
		return fmt.Errorf("%w: source and destination accounts must differ", apperrors.ErrValidation)
	}
	return nil
}

// participantIDs lists the distinct accounts the request touches.
func participantIDs(req domain.TransferRequest) []string {
	ids := make([]string, 0, 2)
	if req.SourceAccountID != "" {
		ids = append(ids, req.SourceAccountID)
	}
	if req.DestAccountID != "" {
		ids = append(ids, req.DestAccountID)
	}
	return ids
}

// callerAccountID is the account whose new balance the caller cares about:
// their own side of the movement.
func callerAccountID(req domain.TransferRequest) string {
	if req.SourceAccountID != "" {
		return req.SourceAccountID
	}
	return req.DestAccountID
}

// rejectedResult shapes the caller-visible rejection for an error.
func rejectedResult(err error) domain.TransferResult {
	return domain.TransferResult{
		Status:       domain.ResultRejected,
		ErrorKind:    apperrors.Kind(err),
		ErrorMessage: err.Error(),
	}
}

// GetTransfer retrieves an applied transfer by its ID.
func (s *transferService) GetTransfer(ctx context.Context, transferID string) (*domain.Transfer, error) {
	transfer, err := s.transferRepo.FindTransferByID(ctx, transferID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("transfer %s not found", transferID))
		}
		return nil, err
	}
	return transfer, nil
}
