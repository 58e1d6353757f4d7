package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/revenue-reconciler/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestCorrelationIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		header   string
		keepsOwn bool
	}{
		{name: "GeneratesCorrelationIDIfNotProvided"},
		{name: "UsesCorrelationIDIfProvided", header: "batch-glofox-2024-05-01", keepsOwn: true},
		{name: "ReplacesOversizedCorrelationID", header: strings.Repeat("x", maxCorrelationIDLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CorrelationID())
			var capturedContextID, capturedRequestID string
			router.POST("/api/v1/batches", func(c *gin.Context) {
				capturedContextID = GetCorrelationID(c)
				capturedRequestID = shared.CorrelationIDFromContext(c.Request.Context())
				c.Status(http.StatusAccepted)
			})

			req, _ := http.NewRequest(http.MethodPost, "/api/v1/batches", nil)
			if tt.header != "" {
				req.Header.Set(CorrelationIDHeader, tt.header)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusAccepted, rr.Code)
			respHeaderID := rr.Header().Get(CorrelationIDHeader)
			assert.Equal(t, respHeaderID, capturedContextID)
			assert.Equal(t, respHeaderID, capturedRequestID, "services see the id through the request context")

			if tt.keepsOwn {
				assert.Equal(t, tt.header, respHeaderID)
				return
			}
			_, err := uuid.Parse(respHeaderID)
			assert.NoError(t, err, "generated correlation ID should be a valid UUID")
		})
	}
}

func TestGetCorrelationID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("ReturnsIDFromContextIfExists", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		expectedID := uuid.New().String()
		c.Set(CorrelationIDKey, expectedID)

		assert.Equal(t, expectedID, GetCorrelationID(c))
	})

	t.Run("ReturnsEmptyStringIfNoIDInContext", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		assert.Empty(t, GetCorrelationID(c))
	})

	t.Run("ReturnsEmptyStringIfIDInContextIsNotString", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(CorrelationIDKey, 12345)
		assert.Empty(t, GetCorrelationID(c))
	})
}
