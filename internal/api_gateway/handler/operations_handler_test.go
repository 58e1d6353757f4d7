package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/revenue-reconciler/internal/domain/synclog"
	recon "github.com/revenue-reconciler/internal/reconciliation/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newOperationsRouter(resolution *MockResolutionService, ltv *MockLTVService, syncLogs *MockSyncLogService) *gin.Engine {
	handler := NewOperationsHandler(newTestLogger(), resolution, ltv, syncLogs)
	router := gin.New()
	router.DELETE("/providers/:provider", handler.PurgeProvider)
	router.POST("/ltv/recompute", handler.RecomputeEveryone)
	router.GET("/sync-logs", handler.ListSyncLogs)
	return router
}

func TestOperationsHandler_PurgeProvider(t *testing.T) {
	gin.SetMode(gin.TestMode)

	resolution := new(MockResolutionService)
	resolution.On("PurgeProvider", mock.Anything, "glofox").
		Return(&recon.PurgeResult{Provider: "glofox", TransactionsDeleted: 3, QueueEntriesDeleted: 1, PersonsDeleted: 1}, nil)
	resolution.On("PurgeProvider", mock.Anything, "stripe").Return(nil, errors.New("deadlock detected"))

	router := newOperationsRouter(resolution, new(MockLTVService), new(MockSyncLogService))

	rr := doJSON(router, http.MethodDelete, "/providers/glofox", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp DataResponse[recon.PurgeResult]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp.Data.TransactionsDeleted)

	rr = doJSON(router, http.MethodDelete, "/providers/stripe", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestOperationsHandler_RecomputeEveryone(t *testing.T) {
	gin.SetMode(gin.TestMode)
	failed := uuid.New()

	ltv := new(MockLTVService)
	ltv.On("RecomputeEveryone", mock.Anything).Return(&recon.RecomputeReport{
		Persons: 40,
		Failed:  []recon.PersonFailure{{PersonID: failed, Reason: "lock timeout"}},
	}, nil)

	rr := doJSON(newOperationsRouter(new(MockResolutionService), ltv, new(MockSyncLogService)), http.MethodPost, "/ltv/recompute", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp DataResponse[recon.RecomputeReport]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 40, resp.Data.Persons)
	require.Len(t, resp.Data.Failed, 1)
	assert.Equal(t, failed, resp.Data.Failed[0].PersonID)
}

func TestOperationsHandler_ListSyncLogs(t *testing.T) {
	gin.SetMode(gin.TestMode)

	syncLogs := new(MockSyncLogService)
	syncLogs.On("List", mock.Anything, "glofox", 1, 10).Return([]*synclog.Entry{{
		ID:               uuid.New(),
		Provider:         "glofox",
		BatchID:          uuid.New(),
		Timestamp:        time.Now(),
		RecordsProcessed: 2,
		Added:            1,
		Duplicates:       1,
		Detail:           "processed 2 record(s)",
	}}, int64(1), nil)

	rr := doJSON(newOperationsRouter(new(MockResolutionService), new(MockLTVService), syncLogs), http.MethodGet, "/sync-logs?provider=glofox", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp PaginatedResponse[SyncLogResponse]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 1, resp.Data[0].Duplicates)
	assert.Equal(t, 1, resp.Meta.TotalItems)
}
