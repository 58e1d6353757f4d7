package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/revenue-reconciler/internal/domain/attribution"
	"github.com/revenue-reconciler/internal/domain/person"
	"github.com/revenue-reconciler/internal/domain/review"
	"github.com/revenue-reconciler/internal/domain/shared"
	"github.com/revenue-reconciler/internal/domain/synclog"
	"github.com/revenue-reconciler/internal/domain/transaction"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// The repository mocks embed their interface so only the methods the
// read services call need an implementation.

type MockReviewRepo struct {
	mock.Mock
	review.Repository
}

func (m *MockReviewRepo) ListOpen(ctx context.Context, limit, offset int) ([]*review.Entry, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*review.Entry), args.Error(1)
}

func (m *MockReviewRepo) CountOpen(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockTransactionRepo struct {
	mock.Mock
	transaction.Repository
}

func (m *MockTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepo) ListByPerson(ctx context.Context, personID uuid.UUID, limit, offset int) ([]*transaction.Transaction, error) {
	args := m.Called(ctx, personID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transaction.Transaction), args.Error(1)
}

type MockPersonRepo struct {
	mock.Mock
	person.Repository
}

func (m *MockPersonRepo) GetByID(ctx context.Context, id uuid.UUID) (*person.Person, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*person.Person), args.Error(1)
}

type MockAttributionRepo struct {
	mock.Mock
}

func (m *MockAttributionRepo) Record(ctx context.Context, event *attribution.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockAttributionRepo) ListByPerson(ctx context.Context, personID uuid.UUID, limit, offset int) ([]*attribution.Event, error) {
	args := m.Called(ctx, personID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*attribution.Event), args.Error(1)
}

type MockSyncLogRepo struct {
	mock.Mock
}

func (m *MockSyncLogRepo) Append(ctx context.Context, entry *synclog.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockSyncLogRepo) List(ctx context.Context, provider string, limit, offset int) ([]*synclog.Entry, error) {
	args := m.Called(ctx, provider, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*synclog.Entry), args.Error(1)
}

func (m *MockSyncLogRepo) Count(ctx context.Context, provider string) (int64, error) {
	args := m.Called(ctx, provider)
	return args.Get(0).(int64), args.Error(1)
}

type MockBatchPublisher struct {
	mock.Mock
}

func (m *MockBatchPublisher) PublishBatch(ctx context.Context, batch *shared.BatchRequest) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockBatchPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
