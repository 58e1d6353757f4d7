package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/revenue-reconciler/internal/api_gateway/service"
	recon "github.com/revenue-reconciler/internal/reconciliation/service"
)

// OperationsHandler serves provider-wide maintenance and the sync audit trail
type OperationsHandler struct {
	resolutionService recon.ResolutionService
	ltvService        recon.LTVService
	syncLogService    service.SyncLogService
	logger            *slog.Logger
}

func NewOperationsHandler(
	logger *slog.Logger,
	resolutionService recon.ResolutionService,
	ltvService recon.LTVService,
	syncLogService service.SyncLogService,
) *OperationsHandler {
	return &OperationsHandler{
		resolutionService: resolutionService,
		ltvService:        ltvService,
		syncLogService:    syncLogService,
		logger:            logger,
	}
}

// PurgeProvider deletes a provider's transactions and the persons only it referred
func (h *OperationsHandler) PurgeProvider(c *gin.Context) {
	result, err := h.resolutionService.PurgeProvider(c.Request.Context(), c.Param("provider"))
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	h.logger.Info("Provider purged",
		"provider", result.Provider,
		"transactions_deleted", result.TransactionsDeleted,
		"persons_deleted", result.PersonsDeleted,
	)
	RespondOK(c, result)
}

// RecomputeEveryone rebuilds every person's totals. Per person failures are
// reported in the body; the request only fails when persons cannot be listed.
func (h *OperationsHandler) RecomputeEveryone(c *gin.Context) {
	report, err := h.ltvService.RecomputeEveryone(c.Request.Context())
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, report)
}

// ListSyncLogs returns ingestion runs newest first, optionally for one provider
func (h *OperationsHandler) ListSyncLogs(c *gin.Context) {
	var query SyncLogQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	entries, total, err := h.syncLogService.List(c.Request.Context(), query.Provider, query.Page, query.PerPage)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	response := make([]SyncLogResponse, 0, len(entries))
	for _, e := range entries {
		response = append(response, mapSyncLogToResponse(e))
	}
	RespondWithPaginatedData(c, http.StatusOK, response, query.Page, query.PerPage, int(total))
}
