package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexabank/nexabank_ledger/internal/core/domain"
	portssvc "github.com/nexabank/nexabank_ledger/internal/core/ports/services"
	"github.com/nexabank/nexabank_ledger/internal/dto"
	"github.com/nexabank/nexabank_ledger/internal/middleware"
)

// ledgerHandler handles HTTP requests over the transfer history.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

// newLedgerHandler creates a new ledgerHandler.
func newLedgerHandler(ls portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{
		ledgerService: ls,
	}
}

// registerLedgerRoutes registers the history and summary routes under accounts.
func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)

	accounts := rg.Group("/accounts")
	{
		accounts.GET("/:id/history", h.getHistory)
		accounts.GET("/:id/summary", h.getSummary)
	}
}

// getHistory godoc
// @Summary Get an account's ledger history
// @Description Retrieves a page of an account's ledger entries, newest first. Pass nextToken from a previous page to continue.
// @Tags ledger
// @Produce  json
// @Param   id path string true "Account ID"
// @Param   kind query string false "Restrict to one transfer kind"
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Pagination token from the previous page"
// @Success 200 {object} dto.HistoryResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to retrieve history"
// @Router /accounts/{id}/history [get]
func (h *ledgerHandler) getHistory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListHistoryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for GetHistory", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	var kind *domain.TransferKind
	if params.Kind != "" {
		k := domain.TransferKind(params.Kind)
		kind = &k
	}

	var nextToken *string
	if params.NextToken != "" {
		nextToken = &params.NextToken
	}

	entries, newToken, err := h.ledgerService.GetHistory(c.Request.Context(), c.Param("id"), kind, params.Limit, nextToken)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.HistoryResponse{
		Entries:   dto.ToLedgerEntryResponses(entries),
		NextToken: newToken,
	})
}

// getSummary godoc
// @Summary Get an account's per-kind activity summary
// @Description Aggregates debit and credit totals per transfer kind over [from, to)
// @Tags ledger
// @Produce  json
// @Param   id path string true "Account ID"
// @Param   from query string true "Window start (YYYY-MM-DD)"
// @Param   to query string true "Window end (YYYY-MM-DD), exclusive"
// @Success 200 {object} dto.SummaryResponse
// @Failure 400 {object} map[string]string "Invalid window"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to compute summary"
// @Router /accounts/{id}/summary [get]
func (h *ledgerHandler) getSummary(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.SummaryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for GetSummary", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	accountID := c.Param("id")
	totals, err := h.ledgerService.GetSummary(c.Request.Context(), accountID, params.From, params.To)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SummaryResponse{
		AccountID: accountID,
		From:      params.From,
		To:        params.To,
		Totals:    dto.ToKindTotalsResponses(totals),
	})
}
