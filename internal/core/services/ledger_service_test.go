package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/nexabank/nexabank_ledger/internal/apperrors"
	"github.com/nexabank/nexabank_ledger/internal/core/domain"
	portssvc "github.com/nexabank/nexabank_ledger/internal/core/ports/services"
	"github.com/nexabank/nexabank_ledger/internal/core/services"
)

// --- Mock LedgerRepository ---
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) FindEntriesByTransferID(ctx context.Context, transferID string) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, transferID)
	var entries []domain.LedgerEntry
	if args.Get(0) != nil {
		entries = args.Get(0).([]domain.LedgerEntry)
	}
	return entries, args.Error(1)
}

func (m *MockLedgerRepository) ListEntriesByAccountID(ctx context.Context, accountID string, kind *domain.TransferKind, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	args := m.Called(ctx, accountID, kind, limit, nextToken)
	var entries []domain.LedgerEntry
	if args.Get(0) != nil {
		entries = args.Get(0).([]domain.LedgerEntry)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return entries, token, args.Error(2)
}

func (m *MockLedgerRepository) SummarizeByKind(ctx context.Context, accountID string, from, to time.Time) ([]domain.KindTotals, error) {
	args := m.Called(ctx, accountID, from, to)
	var totals []domain.KindTotals
	if args.Get(0) != nil {
		totals = args.Get(0).([]domain.KindTotals)
	}
	return totals, args.Error(1)
}

// --- Test Suite ---
type LedgerServiceTestSuite struct {
	suite.Suite
	mockLedgerRepo  *MockLedgerRepository
	mockAccountRepo *MockAccountReader
	service         portssvc.LedgerSvcFacade
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.mockAccountRepo = new(MockAccountReader)
	suite.service = services.NewLedgerService(suite.mockLedgerRepo, suite.mockAccountRepo)
}

func (suite *LedgerServiceTestSuite) expectAccountExists(ctx context.Context, accountID string) {
	account := activeAccount(accountID, 100, 1)
	suite.mockAccountRepo.On("FindAccountByID", ctx, accountID).Return(&account, nil).Once()
}

func (suite *LedgerServiceTestSuite) TestGetHistory_DefaultsLimit() {
	ctx := context.Background()
	suite.expectAccountExists(ctx, "acc-1")

	entries := []domain.LedgerEntry{{EntryID: "e1", AccountID: "acc-1"}}
	suite.mockLedgerRepo.On("ListEntriesByAccountID", ctx, "acc-1", (*domain.TransferKind)(nil), 20, (*string)(nil)).
		Return(entries, nil, nil).Once()

	got, token, err := suite.service.GetHistory(ctx, "acc-1", nil, 0, nil)

	suite.Require().NoError(err)
	suite.Equal(entries, got)
	suite.Nil(token)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestGetHistory_ClampsOversizedLimit() {
	ctx := context.Background()
	suite.expectAccountExists(ctx, "acc-1")

	suite.mockLedgerRepo.On("ListEntriesByAccountID", ctx, "acc-1", (*domain.TransferKind)(nil), 100, (*string)(nil)).
		Return([]domain.LedgerEntry{}, nil, nil).Once()

	_, _, err := suite.service.GetHistory(ctx, "acc-1", nil, 5000, nil)

	suite.Require().NoError(err)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestGetHistory_KindFilterPassedThrough() {
	ctx := context.Background()
	suite.expectAccountExists(ctx, "acc-1")

	kind := domain.Deposit
	next := "opaque-token"
	suite.mockLedgerRepo.On("ListEntriesByAccountID", ctx, "acc-1", &kind, 10, &next).
		Return([]domain.LedgerEntry{}, nil, nil).Once()

	_, _, err := suite.service.GetHistory(ctx, "acc-1", &kind, 10, &next)

	suite.Require().NoError(err)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestGetHistory_RejectsUnknownKind() {
	ctx := context.Background()
	suite.expectAccountExists(ctx, "acc-1")

	kind := domain.TransferKind("LOTTERY")
	_, _, err := suite.service.GetHistory(ctx, "acc-1", &kind, 10, nil)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "ListEntriesByAccountID", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestGetHistory_UnknownAccount() {
	ctx := context.Background()

	suite.mockAccountRepo.On("FindAccountByID", ctx, "acc-missing").Return(nil, apperrors.ErrNotFound).Once()

	_, _, err := suite.service.GetHistory(ctx, "acc-missing", nil, 10, nil)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *LedgerServiceTestSuite) TestGetEntriesByTransferID_Success() {
	ctx := context.Background()
	entries := []domain.LedgerEntry{
		{EntryID: "e1", TransferID: "tr-1", Direction: domain.Debit},
		{EntryID: "e2", TransferID: "tr-1", Direction: domain.Credit},
	}

	suite.mockLedgerRepo.On("FindEntriesByTransferID", ctx, "tr-1").Return(entries, nil).Once()

	got, err := suite.service.GetEntriesByTransferID(ctx, "tr-1")

	suite.Require().NoError(err)
	suite.Len(got, 2)
}

func (suite *LedgerServiceTestSuite) TestGetEntriesByTransferID_EmptyIsNotFound() {
	ctx := context.Background()

	suite.mockLedgerRepo.On("FindEntriesByTransferID", ctx, "tr-ghost").Return([]domain.LedgerEntry{}, nil).Once()

	got, err := suite.service.GetEntriesByTransferID(ctx, "tr-ghost")

	suite.Require().Error(err)
	suite.Nil(got)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *LedgerServiceTestSuite) TestGetSummary_Success() {
	ctx := context.Background()
	suite.expectAccountExists(ctx, "acc-1")

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	totals := []domain.KindTotals{
		{Kind: domain.Deposit, CreditTotal: decimal.NewFromInt(500), DebitTotal: decimal.Zero, EntryCount: 3},
	}

	suite.mockLedgerRepo.On("SummarizeByKind", ctx, "acc-1", from, to).Return(totals, nil).Once()

	got, err := suite.service.GetSummary(ctx, "acc-1", from, to)

	suite.Require().NoError(err)
	suite.Equal(totals, got)
}

func (suite *LedgerServiceTestSuite) TestGetSummary_RejectsInvertedWindow() {
	ctx := context.Background()
	suite.expectAccountExists(ctx, "acc-1")

	from := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := suite.service.GetSummary(ctx, "acc-1", from, to)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "SummarizeByKind", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
