package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/revenue-reconciler/internal/api_gateway/handler"
	"github.com/revenue-reconciler/internal/api_gateway/middleware"
)

type handlers struct {
	batches      *handler.BatchHandler
	review       *handler.ReviewHandler
	transactions *handler.TransactionHandler
	persons      *handler.PersonHandler
	operations   *handler.OperationsHandler
}

// setupRouter configures API routes and middleware for the application
func setupRouter(logger *slog.Logger, r *gin.Engine, h handlers) {
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))
	r.Use(handler.Recovery(logger))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/batches", h.batches.Submit)

		queue := v1.Group("/review-queue")
		{
			queue.GET("", h.review.List)
			queue.POST("/resolve", h.review.Resolve)
		}

		transactions := v1.Group("/transactions")
		{
			transactions.POST("/:id/reattribute", h.transactions.Reattribute)
			transactions.POST("/:id/detach", h.transactions.Detach)
			transactions.PUT("/:id/amount", h.transactions.CorrectAmount)
		}

		persons := v1.Group("/persons")
		{
			persons.GET("/:id", h.persons.GetByID)
			persons.GET("/:id/transactions", h.persons.ListTransactions)
			persons.GET("/:id/attribution", h.persons.ListAttribution)
			persons.GET("/:id/ltv/verify", h.persons.VerifyLTV)
			persons.POST("/:id/ltv/recompute", h.persons.RecomputeLTV)
		}

		v1.POST("/ltv/recompute", h.operations.RecomputeEveryone)
		v1.DELETE("/providers/:provider", h.operations.PurgeProvider)
		v1.GET("/sync-logs", h.operations.ListSyncLogs)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
