package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/nexabank/nexabank_ledger/internal/apperrors"
	"github.com/nexabank/nexabank_ledger/internal/core/domain"
	portssvc "github.com/nexabank/nexabank_ledger/internal/core/ports/services"
	"github.com/nexabank/nexabank_ledger/internal/dto"
	"github.com/nexabank/nexabank_ledger/internal/handlers"
	"github.com/nexabank/nexabank_ledger/internal/platform/config"
)

// --- Mock TransferService ---
type MockTransferService struct {
	mock.Mock
}

func (m *MockTransferService) Submit(ctx context.Context, req domain.TransferRequest) (domain.TransferResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.TransferResult), args.Error(1)
}

func (m *MockTransferService) GetTransfer(ctx context.Context, transferID string) (*domain.Transfer, error) {
	args := m.Called(ctx, transferID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transfer), args.Error(1)
}

var _ portssvc.TransferSvcFacade = (*MockTransferService)(nil)

// --- Mock AccountService ---
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) CreateAccount(ctx context.Context, holderName, accountNumber string) (*domain.Account, error) {
	args := m.Called(ctx, holderName, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) UpdateAccountStatus(ctx context.Context, accountID string, status domain.AccountStatus) (*domain.Account, error) {
	args := m.Called(ctx, accountID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

// --- Mock LedgerService ---
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) GetHistory(ctx context.Context, accountID string, kind *domain.TransferKind, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
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

func (m *MockLedgerService) GetEntriesByTransferID(ctx context.Context, transferID string) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, transferID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerService) GetSummary(ctx context.Context, accountID string, from, to time.Time) ([]domain.KindTotals, error) {
	args := m.Called(ctx, accountID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.KindTotals), args.Error(1)
}

var _ portssvc.LedgerSvcFacade = (*MockLedgerService)(nil)

// --- Test Suite ---
type TransferHandlerTestSuite struct {
	suite.Suite
	router              *gin.Engine
	mockTransferService *MockTransferService
	mockAccountService  *MockAccountService
	mockLedgerService   *MockLedgerService
}

func (suite *TransferHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.Require().NoError(dto.RegisterValidations())
	suite.router = gin.New()

	suite.mockTransferService = new(MockTransferService)
	suite.mockAccountService = new(MockAccountService)
	suite.mockLedgerService = new(MockLedgerService)

	// IsProduction skips the swagger routes; they are irrelevant here.
	cfg := &config.Config{IsProduction: true}
	handlers.RegisterRoutes(suite.router, cfg, &portssvc.ServiceContainer{
		Account:  suite.mockAccountService,
		Transfer: suite.mockTransferService,
		Ledger:   suite.mockLedgerService,
	})
}

func (suite *TransferHandlerTestSuite) postJSON(url string, body any) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	suite.Require().NoError(err)

	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *TransferHandlerTestSuite) TestSubmitTransfer_Accepted() {
	sourceID := uuid.NewString()
	destID := uuid.NewString()
	transferID := uuid.NewString()
	newBalance := decimal.NewFromInt(4000)

	suite.mockTransferService.On("Submit", mock.Anything, mock.MatchedBy(func(req domain.TransferRequest) bool {
		return req.RequestKey == "req-1" &&
			req.Kind == domain.P2PTransfer &&
			req.Amount.Equal(decimal.NewFromInt(6000)) &&
			req.SourceAccountID == sourceID &&
			req.DestAccountID == destID
	})).Return(domain.TransferResult{
		Status:     domain.ResultAccepted,
		TransferID: transferID,
		NewBalance: &newBalance,
	}, nil).Once()

	w := suite.postJSON("/api/v1/transfers", dto.SubmitTransferRequest{
		RequestKey:      "req-1",
		Kind:            "P2P_TRANSFER",
		Amount:          decimal.NewFromInt(6000),
		SourceAccountID: sourceID,
		DestAccountID:   destID,
	})

	suite.Equal(http.StatusCreated, w.Code)

	var body dto.TransferResultResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal(domain.ResultAccepted, body.Status)
	suite.Equal(transferID, body.TransferID)
	suite.Require().NotNil(body.NewBalance)
	suite.True(body.NewBalance.Equal(newBalance))

	suite.mockTransferService.AssertExpectations(suite.T())
}

func (suite *TransferHandlerTestSuite) TestSubmitTransfer_InsufficientBalanceIs422() {
	sourceID := uuid.NewString()
	destID := uuid.NewString()

	rejection := domain.TransferResult{
		Status:       domain.ResultRejected,
		ErrorKind:    "INSUFFICIENT_BALANCE",
		ErrorMessage: "account holds 10, needs 6000",
	}
	suite.mockTransferService.On("Submit", mock.Anything, mock.AnythingOfType("domain.TransferRequest")).
		Return(rejection, apperrors.ErrInsufficientBalance).Once()

	w := suite.postJSON("/api/v1/transfers", dto.SubmitTransferRequest{
		RequestKey:      "req-2",
		Kind:            "P2P_TRANSFER",
		Amount:          decimal.NewFromInt(6000),
		SourceAccountID: sourceID,
		DestAccountID:   destID,
	})

	suite.Equal(http.StatusUnprocessableEntity, w.Code)

	// The rejection body carries the stable error kind the client branches on.
	var body dto.TransferResultResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal(domain.ResultRejected, body.Status)
	suite.Equal("INSUFFICIENT_BALANCE", body.ErrorKind)
}

func (suite *TransferHandlerTestSuite) TestSubmitTransfer_InFlightDuplicateIs409() {
	rejection := domain.TransferResult{
		Status:    domain.ResultRejected,
		ErrorKind: "CONFLICT",
	}
	suite.mockTransferService.On("Submit", mock.Anything, mock.AnythingOfType("domain.TransferRequest")).
		Return(rejection, apperrors.ErrConflict).Once()

	w := suite.postJSON("/api/v1/transfers", dto.SubmitTransferRequest{
		RequestKey:    "req-3",
		Kind:          "DEPOSIT",
		Amount:        decimal.NewFromInt(100),
		DestAccountID: uuid.NewString(),
	})

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *TransferHandlerTestSuite) TestSubmitTransfer_MalformedBodyIs400() {
	w := suite.postJSON("/api/v1/transfers", gin.H{
		"kind":   "TELEPORT",
		"amount": 100,
	})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockTransferService.AssertNotCalled(suite.T(), "Submit", mock.Anything, mock.Anything)
}

func (suite *TransferHandlerTestSuite) TestGetTransfer_Success() {
	transferID := uuid.NewString()
	transfer := &domain.Transfer{
		TransferID:   transferID,
		RequestKey:   "req-4",
		Kind:         domain.Deposit,
		Amount:       decimal.NewFromInt(100),
		CurrencyCode: "INR",
		CreatedAt:    time.Now().UTC(),
	}

	suite.mockTransferService.On("GetTransfer", mock.Anything, transferID).Return(transfer, nil).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/transfers/"+transferID, nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)

	var body dto.TransferResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal(transferID, body.TransferID)
	suite.Equal("DEPOSIT", body.Kind)
}

func (suite *TransferHandlerTestSuite) TestGetTransfer_NotFound() {
	transferID := uuid.NewString()

	suite.mockTransferService.On("GetTransfer", mock.Anything, transferID).
		Return(nil, apperrors.NewNotFoundError("transfer not found")).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/transfers/"+transferID, nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *TransferHandlerTestSuite) TestGetTransferEntries_Success() {
	transferID := uuid.NewString()
	entries := []domain.LedgerEntry{
		{EntryID: uuid.NewString(), TransferID: transferID, Direction: domain.Debit, Amount: decimal.NewFromInt(100)},
		{EntryID: uuid.NewString(), TransferID: transferID, Direction: domain.Credit, Amount: decimal.NewFromInt(100)},
	}

	suite.mockLedgerService.On("GetEntriesByTransferID", mock.Anything, transferID).Return(entries, nil).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/transfers/"+transferID+"/entries", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)

	var body []dto.LedgerEntryResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Len(body, 2)
}

func TestTransferHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TransferHandlerTestSuite))
}
