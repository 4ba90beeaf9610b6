package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/nexabank/nexabank_ledger/internal/core/ports/services"
	"github.com/nexabank/nexabank_ledger/internal/dto"
	"github.com/nexabank/nexabank_ledger/internal/middleware"
)

// accountHandler handles HTTP requests related to accounts.
type accountHandler struct {
	accountService portssvc.AccountSvcFacade
}

// newAccountHandler creates a new accountHandler.
func newAccountHandler(as portssvc.AccountSvcFacade) *accountHandler {
	return &accountHandler{
		accountService: as,
	}
}

// registerAccountRoutes registers routes related to accounts.
func registerAccountRoutes(rg *gin.RouterGroup, accountService portssvc.AccountSvcFacade) {
	h := newAccountHandler(accountService)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.GET("/:id", h.getAccount)
		accounts.GET("/:id/balance", h.getAccountBalance)
		accounts.PATCH("/:id/status", h.updateAccountStatus)
	}
}

// createAccount godoc
// @Summary Create a new account
// @Description Provisions a new active account with a zero opening balance
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   account body dto.CreateAccountRequest true "Account details"
// @Success 201 {object} dto.AccountResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 409 {object} map[string]string "Account number already exists"
// @Failure 500 {object} map[string]string "Failed to create account"
// @Router /accounts [post]
func (h *accountHandler) createAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), req.HolderName, req.AccountNumber)
	if err != nil {
		logger.Warn("Failed to create account", slog.String("error", err.Error()))
		respondError(c, err)
		return
	}

	logger.Info("Account created successfully", slog.String("account_id", account.AccountID))
	c.JSON(http.StatusCreated, dto.ToAccountResponse(account))
}

// getAccount godoc
// @Summary Get an account by ID
// @Description Retrieves details for a specific account by its ID
// @Tags accounts
// @Produce  json
// @Param   id path string true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to retrieve account"
// @Router /accounts/{id} [get]
func (h *accountHandler) getAccount(c *gin.Context) {
	account, err := h.accountService.GetAccountByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// getAccountBalance godoc
// @Summary Get an account's balance
// @Description Retrieves the current balance of an account, read without locks
// @Tags accounts
// @Produce  json
// @Param   id path string true "Account ID"
// @Success 200 {object} dto.AccountBalanceResponse
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to retrieve balance"
// @Router /accounts/{id}/balance [get]
func (h *accountHandler) getAccountBalance(c *gin.Context) {
	account, err := h.accountService.GetAccountByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AccountBalanceResponse{
		AccountID:    account.AccountID,
		Balance:      account.Balance,
		CurrencyCode: account.CurrencyCode,
		AsOf:         time.Now().UTC(),
	})
}

// updateAccountStatus godoc
// @Summary Update an account's status
// @Description Transitions an account between ACTIVE, FROZEN and CLOSED. Closed is terminal.
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   id path string true "Account ID"
// @Param   status body dto.UpdateAccountStatusRequest true "New status"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} map[string]string "Invalid status or closed account"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to update status"
// @Router /accounts/{id}/status [patch]
func (h *accountHandler) updateAccountStatus(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.UpdateAccountStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateAccountStatus", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	account, err := h.accountService.UpdateAccountStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		logger.Warn("Failed to update account status", slog.String("account_id", c.Param("id")), slog.String("error", err.Error()))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}
