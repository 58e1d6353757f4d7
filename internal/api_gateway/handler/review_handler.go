package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/revenue-reconciler/internal/api_gateway/service"
	recon "github.com/revenue-reconciler/internal/reconciliation/service"
)

// ReviewHandler serves the manual match queue
type ReviewHandler struct {
	queueService      service.ReviewQueueService
	resolutionService recon.ResolutionService
	logger            *slog.Logger
}

func NewReviewHandler(logger *slog.Logger, queueService service.ReviewQueueService, resolutionService recon.ResolutionService) *ReviewHandler {
	return &ReviewHandler{
		queueService:      queueService,
		resolutionService: resolutionService,
		logger:            logger,
	}
}

// List returns open queue entries oldest first
func (h *ReviewHandler) List(c *gin.Context) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	items, total, err := h.queueService.ListOpen(c.Request.Context(), pagination.Page, pagination.PerPage)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	response := make([]QueueItemResponse, 0, len(items))
	for _, item := range items {
		response = append(response, mapQueueItemToResponse(item))
	}

	RespondWithPaginatedData(c, http.StatusOK, response, pagination.Page, pagination.PerPage, int(total))
}

// Resolve attaches a queued transaction to the chosen person
func (h *ReviewHandler) Resolve(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.resolutionService.ResolveManualMatch(c.Request.Context(), recon.ManualResolution{
		TransactionID: uuid.MustParse(req.TransactionID),
		PersonID:      uuid.MustParse(req.PersonID),
		ResolvedBy:    req.ResolvedBy,
	})
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, mapTransactionToResponse(updated))
}
