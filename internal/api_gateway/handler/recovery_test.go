package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/revenue-reconciler/internal/api_gateway/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		recovered any
		wantPanic string
	}{
		{name: "StringPanic", recovered: "nil person", wantPanic: "nil person"},
		{name: "ErrorPanic", recovered: errors.New("ltv column missing"), wantPanic: "ltv column missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&logs, nil))

			router := gin.New()
			router.Use(middleware.CorrelationID(), Recovery(logger))
			router.GET("/api/v1/persons/:id", func(c *gin.Context) {
				panic(tt.recovered)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/persons/42", nil)
			req.Header.Set(middleware.CorrelationIDHeader, "corr-panic")
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusInternalServerError, rr.Code)

			var resp Response
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, "INTERNAL_SERVER_ERROR", resp.Error.Code)
			assert.Equal(t, "corr-panic", resp.CorrelationID)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
			assert.Equal(t, "Panic recovered", entry["msg"])
			assert.Equal(t, tt.wantPanic, entry["panic"])
			assert.Equal(t, "/api/v1/persons/:id", entry["route"])
			assert.Equal(t, "corr-panic", entry["correlation_id"])
			assert.NotEmpty(t, entry["stack"])
		})
	}

	t.Run("PanicReachesAccessLog", func(t *testing.T) {
		var logs bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&logs, nil))

		router := gin.New()
		router.Use(middleware.CorrelationID(), middleware.Logger(logger), Recovery(newTestLogger()))
		router.POST("/api/v1/batches", func(c *gin.Context) {
			panic("publisher gone")
		})

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/batches", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Contains(t, logs.String(), `"level":"ERROR"`)
		assert.Contains(t, logs.String(), "panic: publisher gone")
	})

	t.Run("NoPanicPassesThrough", func(t *testing.T) {
		var logs bytes.Buffer
		router := gin.New()
		router.Use(Recovery(slog.New(slog.NewJSONHandler(&logs, nil))))
		router.GET("/health", func(c *gin.Context) {
			c.String(http.StatusOK, "OK")
		})

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, logs.String())
	})
}
