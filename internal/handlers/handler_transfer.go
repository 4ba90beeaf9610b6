package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/nexabank/nexabank_ledger/internal/core/ports/services"
	"github.com/nexabank/nexabank_ledger/internal/dto"
	"github.com/nexabank/nexabank_ledger/internal/middleware"
)

// transferHandler handles HTTP requests that move money.
type transferHandler struct {
	transferService portssvc.TransferSvcFacade
	ledgerService   portssvc.LedgerSvcFacade
}

// newTransferHandler creates a new transferHandler.
func newTransferHandler(ts portssvc.TransferSvcFacade, ls portssvc.LedgerSvcFacade) *transferHandler {
	return &transferHandler{
		transferService: ts,
		ledgerService:   ls,
	}
}

// registerTransferRoutes registers routes related to transfers.
func registerTransferRoutes(rg *gin.RouterGroup, transferService portssvc.TransferSvcFacade, ledgerService portssvc.LedgerSvcFacade) {
	h := newTransferHandler(transferService, ledgerService)

	transfers := rg.Group("/transfers")
	{
		transfers.POST("", h.submitTransfer)
		transfers.GET("/:id", h.getTransfer)
		transfers.GET("/:id/entries", h.getTransferEntries)
	}
}

// submitTransfer godoc
// @Summary Submit a transfer
// @Description Validates and atomically applies a money movement. Submissions are idempotent per requestKey: a retry replays the original outcome instead of applying twice.
// @Tags transfers
// @Accept  json
// @Produce  json
// @Param   transfer body dto.SubmitTransferRequest true "Transfer details"
// @Success 201 {object} dto.TransferResultResponse "Transfer applied"
// @Failure 400 {object} dto.TransferResultResponse "Malformed request"
// @Failure 404 {object} dto.TransferResultResponse "Account not found"
// @Failure 409 {object} dto.TransferResultResponse "Duplicate or in-flight request key"
// @Failure 422 {object} dto.TransferResultResponse "Insufficient balance or inactive account"
// @Failure 503 {object} dto.TransferResultResponse "Could not obtain account locks in time"
// @Router /transfers [post]
func (h *transferHandler) submitTransfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.SubmitTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for SubmitTransfer", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	result, err := h.transferService.Submit(c.Request.Context(), req.ToTransferRequest())
	if err != nil {
		// Rejections carry a result body with the stable error kind, so the
		// client sees the same shape for a replayed rejection as for a fresh one.
		c.JSON(statusForError(err), dto.ToTransferResultResponse(result))
		return
	}

	c.JSON(http.StatusCreated, dto.ToTransferResultResponse(result))
}

// getTransfer godoc
// @Summary Get a transfer by ID
// @Description Retrieves an applied transfer by its ID
// @Tags transfers
// @Produce  json
// @Param   id path string true "Transfer ID"
// @Success 200 {object} dto.TransferResponse
// @Failure 404 {object} map[string]string "Transfer not found"
// @Failure 500 {object} map[string]string "Failed to retrieve transfer"
// @Router /transfers/{id} [get]
func (h *transferHandler) getTransfer(c *gin.Context) {
	transfer, err := h.transferService.GetTransfer(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTransferResponse(transfer))
}

// getTransferEntries godoc
// @Summary Get a transfer's ledger entries
// @Description Retrieves both ledger legs written for one transfer, for reconciliation
// @Tags transfers
// @Produce  json
// @Param   id path string true "Transfer ID"
// @Success 200 {array} dto.LedgerEntryResponse
// @Failure 404 {object} map[string]string "Transfer not found"
// @Failure 500 {object} map[string]string "Failed to retrieve entries"
// @Router /transfers/{id}/entries [get]
func (h *transferHandler) getTransferEntries(c *gin.Context) {
	entries, err := h.ledgerService.GetEntriesByTransferID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToLedgerEntryResponses(entries))
}
