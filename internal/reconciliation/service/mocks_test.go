package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/revenue-reconciler/internal/domain/person"
	"github.com/revenue-reconciler/internal/domain/review"
	"github.com/revenue-reconciler/internal/domain/shared"
	"github.com/revenue-reconciler/internal/domain/transaction"
	"github.com/revenue-reconciler/internal/identity"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubTxRunner runs fn without a database; tx is always nil
type stubTxRunner struct {
	mu        sync.Mutex
	commits   int
	rollbacks int
}

func (r *stubTxRunner) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	err := fn(nil)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.rollbacks++
		return err
	}
	r.commits++
	return nil
}

type MockDedupGate struct {
	mock.Mock
}

func (m *MockDedupGate) IsDuplicate(ctx context.Context, provider, externalID string) (bool, error) {
	args := m.Called(ctx, provider, externalID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDedupGate) Admit(ctx context.Context, tx pgx.Tx, txn *transaction.Transaction) (bool, error) {
	args := m.Called(ctx, tx, txn)
	return args.Bool(0), args.Error(1)
}

type MockMatchResolver struct {
	mock.Mock
}

func (m *MockMatchResolver) Resolve(keys identity.Keys, candidates []*person.Person) Decision {
	args := m.Called(keys, candidates)
	return args.Get(0).(Decision)
}

type MockPersonDirectory struct {
	mock.Mock
}

func (m *MockPersonDirectory) FindCandidates(ctx context.Context, tx pgx.Tx, keys identity.Keys) ([]*person.Person, error) {
	args := m.Called(ctx, tx, keys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*person.Person), args.Error(1)
}

func (m *MockPersonDirectory) CreateFromHints(ctx context.Context, tx pgx.Tx, hints identity.Hints, keys identity.Keys, source string) (*person.Person, error) {
	args := m.Called(ctx, tx, hints, keys, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*person.Person), args.Error(1)
}

func (m *MockPersonDirectory) Get(ctx context.Context, tx pgx.Tx, personID uuid.UUID) (*person.Person, error) {
	args := m.Called(ctx, tx, personID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*person.Person), args.Error(1)
}

func (m *MockPersonDirectory) ListIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockPersonDirectory) DeleteGhosts(ctx context.Context, tx pgx.Tx, source string) (int64, error) {
	args := m.Called(ctx, tx, source)
	return args.Get(0).(int64), args.Error(1)
}

type MockAttributionManager struct {
	mock.Mock
}

func (m *MockAttributionManager) Lock(ctx context.Context, tx pgx.Tx, transactionID uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, tx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockAttributionManager) Transition(ctx context.Context, tx pgx.Tx, before, after *transaction.Transaction, cause Cause) error {
	args := m.Called(ctx, tx, before, after, cause)
	return args.Error(0)
}

func (m *MockAttributionManager) PurgeProvider(ctx context.Context, tx pgx.Tx, provider string, cause Cause) (int64, error) {
	args := m.Called(ctx, tx, provider, cause)
	return args.Get(0).(int64), args.Error(1)
}

type MockLTVAggregator struct {
	mock.Mock
}

func (m *MockLTVAggregator) ApplyDelta(ctx context.Context, tx pgx.Tx, personID uuid.UUID, amount shared.CategoryAmount, sign int64, cause Cause) (person.LTV, error) {
	args := m.Called(ctx, tx, personID, amount, sign, cause)
	return args.Get(0).(person.LTV), args.Error(1)
}

func (m *MockLTVAggregator) RecomputeAll(ctx context.Context, tx pgx.Tx, personID uuid.UUID) (person.LTV, error) {
	args := m.Called(ctx, tx, personID)
	return args.Get(0).(person.LTV), args.Error(1)
}

func (m *MockLTVAggregator) Verify(ctx context.Context, tx pgx.Tx, personID uuid.UUID) (person.LTV, person.LTV, error) {
	args := m.Called(ctx, tx, personID)
	return args.Get(0).(person.LTV), args.Get(1).(person.LTV), args.Error(2)
}

type MockReviewQueueManager struct {
	mock.Mock
}

func (m *MockReviewQueueManager) Enqueue(ctx context.Context, tx pgx.Tx, transactionID uuid.UUID, candidates []review.Candidate, reason review.Reason) (bool, error) {
	args := m.Called(ctx, tx, transactionID, candidates, reason)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewQueueManager) Close(ctx context.Context, tx pgx.Tx, transactionID uuid.UUID, resolvedBy string) (bool, error) {
	args := m.Called(ctx, tx, transactionID, resolvedBy)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewQueueManager) PurgeProvider(ctx context.Context, tx pgx.Tx, provider string) (int64, error) {
	args := m.Called(ctx, tx, provider)
	return args.Get(0).(int64), args.Error(1)
}
