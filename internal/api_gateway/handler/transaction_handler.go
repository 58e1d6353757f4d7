package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	recon "github.com/revenue-reconciler/internal/reconciliation/service"
)

// TransactionHandler handles operator corrections to attributed transactions
type TransactionHandler struct {
	resolutionService recon.ResolutionService
	logger            *slog.Logger
}

func NewTransactionHandler(logger *slog.Logger, resolutionService recon.ResolutionService) *TransactionHandler {
	return &TransactionHandler{
		resolutionService: resolutionService,
		logger:            logger,
	}
}

// Reattribute moves the transaction to another person
func (h *TransactionHandler) Reattribute(c *gin.Context) {
	transactionID, ok := parseIDParam(c, h.logger, "transaction")
	if !ok {
		return
	}

	var req ReattributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.resolutionService.Reattribute(c.Request.Context(), transactionID, uuid.MustParse(req.PersonID), req.By)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, mapTransactionToResponse(updated))
}

// Detach clears the owner and parks the transaction for review
func (h *TransactionHandler) Detach(c *gin.Context) {
	transactionID, ok := parseIDParam(c, h.logger, "transaction")
	if !ok {
		return
	}

	var req DetachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.resolutionService.Detach(c.Request.Context(), transactionID, req.By)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, mapTransactionToResponse(updated))
}

// CorrectAmount replaces the transaction amount
func (h *TransactionHandler) CorrectAmount(c *gin.Context) {
	transactionID, ok := parseIDParam(c, h.logger, "transaction")
	if !ok {
		return
	}

	var req CorrectAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.resolutionService.CorrectAmount(c.Request.Context(), transactionID, *req.AmountMinor, req.By)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, mapTransactionToResponse(updated))
}

func parseIDParam(c *gin.Context, logger *slog.Logger, resource string) (uuid.UUID, bool) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		logger.Warn("Invalid "+resource+" ID", "id", idStr, "error", err)
		RespondBadRequest(c, "Invalid "+resource+" ID")
		return uuid.Nil, false
	}
	return id, true
}
