package handler

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/revenue-reconciler/internal/api_gateway/middleware"
)

// Recovery answers a panicking request with the standard 500 envelope. The
// panic is attached to c.Errors so the access log reports it too.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logger.Error("Panic recovered",
			"panic", fmt.Sprint(recovered),
			"stack", string(debug.Stack()),
			"route", c.FullPath(),
			"method", c.Request.Method,
			"correlation_id", middleware.GetCorrelationID(c),
		)

		_ = c.Error(fmt.Errorf("panic: %v", recovered))
		RespondInternalError(c)
		c.Abort()
	})
}
