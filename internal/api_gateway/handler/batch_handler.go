package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/revenue-reconciler/internal/api_gateway/middleware"
	"github.com/revenue-reconciler/internal/api_gateway/service"
	"github.com/revenue-reconciler/internal/domain/shared"
)

// BatchHandler accepts provider sync batches
type BatchHandler struct {
	batchService service.BatchService
	logger       *slog.Logger
}

func NewBatchHandler(logger *slog.Logger, batchService service.BatchService) *BatchHandler {
	return &BatchHandler{
		batchService: batchService,
		logger:       logger,
	}
}

// Submit queues a batch for asynchronous ingestion and answers 202 with its batch id
func (h *BatchHandler) Submit(c *gin.Context) {
	var req SubmitBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid batch body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	batch := &shared.BatchRequest{
		Provider:      req.Provider,
		CorrelationID: middleware.GetCorrelationID(c),
		Records:       req.Records,
	}
	if req.BatchID != "" {
		batch.BatchID = uuid.MustParse(req.BatchID)
	}

	accepted, err := h.batchService.SubmitBatch(c.Request.Context(), batch)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	RespondAccepted(c, BatchAcceptedResponse{
		BatchID:     accepted.BatchID.String(),
		Provider:    accepted.Provider,
		Records:     len(accepted.Records),
		SubmittedAt: formatTime(accepted.SubmittedAt),
	})
}
