package handler

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/revenue-reconciler/internal/api_gateway/service"
	"github.com/revenue-reconciler/internal/domain/attribution"
	"github.com/revenue-reconciler/internal/domain/person"
	"github.com/revenue-reconciler/internal/domain/shared"
	"github.com/revenue-reconciler/internal/domain/synclog"
	"github.com/revenue-reconciler/internal/domain/transaction"
	recon "github.com/revenue-reconciler/internal/reconciliation/service"
	"github.com/stretchr/testify/mock"
)

// PaginatedResponse is a generic version of Response for testing paginated data
type PaginatedResponse[T any] struct {
	Data          []T        `json:"data"`
	Error         *ErrorInfo `json:"error,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
	Meta          *MetaInfo  `json:"meta,omitempty"`
}

// DataResponse is a generic version of Response for single items
type DataResponse[T any] struct {
	Data  T          `json:"data"`
	Error *ErrorInfo `json:"error,omitempty"`
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockBatchService struct {
	mock.Mock
}

func (m *MockBatchService) SubmitBatch(ctx context.Context, batch *shared.BatchRequest) (*shared.BatchRequest, error) {
	args := m.Called(ctx, batch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.BatchRequest), args.Error(1)
}

type MockReviewQueueService struct {
	mock.Mock
}

func (m *MockReviewQueueService) ListOpen(ctx context.Context, page, perPage int) ([]*service.QueueItem, int64, error) {
	args := m.Called(ctx, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*service.QueueItem), args.Get(1).(int64), args.Error(2)
}

type MockPersonService struct {
	mock.Mock
}

func (m *MockPersonService) GetPerson(ctx context.Context, id uuid.UUID) (*person.Person, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*person.Person), args.Error(1)
}

func (m *MockPersonService) ListTransactions(ctx context.Context, personID uuid.UUID, page, perPage int) ([]*transaction.Transaction, error) {
	args := m.Called(ctx, personID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transaction.Transaction), args.Error(1)
}

func (m *MockPersonService) ListAttributionEvents(ctx context.Context, personID uuid.UUID, page, perPage int) ([]*attribution.Event, error) {
	args := m.Called(ctx, personID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*attribution.Event), args.Error(1)
}

type MockSyncLogService struct {
	mock.Mock
}

func (m *MockSyncLogService) List(ctx context.Context, provider string, page, perPage int) ([]*synclog.Entry, int64, error) {
	args := m.Called(ctx, provider, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*synclog.Entry), args.Get(1).(int64), args.Error(2)
}

type MockResolutionService struct {
	mock.Mock
}

func (m *MockResolutionService) transactionResult(args mock.Arguments) (*transaction.Transaction, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockResolutionService) ResolveManualMatch(ctx context.Context, req recon.ManualResolution) (*transaction.Transaction, error) {
	return m.transactionResult(m.Called(ctx, req))
}

func (m *MockResolutionService) Reattribute(ctx context.Context, transactionID, personID uuid.UUID, by string) (*transaction.Transaction, error) {
	return m.transactionResult(m.Called(ctx, transactionID, personID, by))
}

func (m *MockResolutionService) Detach(ctx context.Context, transactionID uuid.UUID, by string) (*transaction.Transaction, error) {
	return m.transactionResult(m.Called(ctx, transactionID, by))
}

func (m *MockResolutionService) CorrectAmount(ctx context.Context, transactionID uuid.UUID, amountMinor int64, by string) (*transaction.Transaction, error) {
	return m.transactionResult(m.Called(ctx, transactionID, amountMinor, by))
}

func (m *MockResolutionService) PurgeProvider(ctx context.Context, provider string) (*recon.PurgeResult, error) {
	args := m.Called(ctx, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recon.PurgeResult), args.Error(1)
}

type MockLTVService struct {
	mock.Mock
}

func (m *MockLTVService) Recompute(ctx context.Context, personID uuid.UUID) (person.LTV, error) {
	args := m.Called(ctx, personID)
	return args.Get(0).(person.LTV), args.Error(1)
}

func (m *MockLTVService) Verify(ctx context.Context, personID uuid.UUID) (*recon.LTVReport, error) {
	args := m.Called(ctx, personID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recon.LTVReport), args.Error(1)
}

func (m *MockLTVService) RecomputeEveryone(ctx context.Context) (*recon.RecomputeReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recon.RecomputeReport), args.Error(1)
}
