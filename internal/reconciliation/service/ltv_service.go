package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/panjf2000/ants/v2"
	"github.com/revenue-reconciler/internal/domain/person"
)

const recomputePageSize = 500

type LTVServiceImpl struct {
	txRunner   TxRunner
	aggregator LTVAggregator
	persons    PersonDirectory
	workers    int
	logger     *slog.Logger
}

func NewLTVService(
	txRunner TxRunner,
	aggregator LTVAggregator,
	persons PersonDirectory,
	config WorkerPoolConfig,
	logger *slog.Logger,
) LTVService {
	workers := config.Size
	if workers <= 0 {
		workers = 1
	}
	return &LTVServiceImpl{
		txRunner:   txRunner,
		aggregator: aggregator,
		persons:    persons,
		workers:    workers,
		logger:     logger,
	}
}

// Recompute overwrites the person's stored totals with totals summed from owned transactions
func (s *LTVServiceImpl) Recompute(ctx context.Context, personID uuid.UUID) (person.LTV, error) {
	var ltv person.LTV
	err := s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var err error
		ltv, err = s.aggregator.RecomputeAll(ctx, tx, personID)
		return err
	})
	if err != nil {
		return person.LTV{}, err
	}
	return ltv, nil
}

// Verify reports drift without correcting it
func (s *LTVServiceImpl) Verify(ctx context.Context, personID uuid.UUID) (*LTVReport, error) {
	report := &LTVReport{PersonID: personID, Consistent: true}

	err := s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		stored, recomputed, err := s.aggregator.Verify(ctx, tx, personID)
		if err != nil && !errors.Is(err, person.ConsistencyError{}) {
			return err
		}
		report.Stored = stored
		report.Recomputed = recomputed
		report.Consistent = err == nil
		report.MaxDiff = stored.Diff(recomputed)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return report, nil
}

// RecomputeEveryone recomputes every person on a bounded worker pool.
// Failures are collected per person; the run itself only fails when persons cannot be listed.
func (s *LTVServiceImpl) RecomputeEveryone(ctx context.Context) (*RecomputeReport, error) {
	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		report = &RecomputeReport{Failed: []PersonFailure{}}
	)

	fail := func(id uuid.UUID, err error) {
		mu.Lock()
		report.Failed = append(report.Failed, PersonFailure{PersonID: id, Reason: err.Error()})
		mu.Unlock()
	}

	for offset := 0; ; offset += recomputePageSize {
		ids, err := s.persons.ListIDs(ctx, recomputePageSize, offset)
		if err != nil {
			wg.Wait()
			return nil, err
		}

		for _, id := range ids {
			personID := id
			report.Persons++
			wg.Add(1)
			if err := pool.Submit(func() {
				defer wg.Done()
				if _, err := s.Recompute(ctx, personID); err != nil {
					s.logger.Warn("Recompute failed", "person_id", personID.String(), "error", err)
					fail(personID, err)
				}
			}); err != nil {
				wg.Done()
				fail(personID, err)
			}
		}

		if len(ids) < recomputePageSize {
			break
		}
	}

	wg.Wait()

	s.logger.Info("Recomputed LTV for every person", "persons", report.Persons, "failed", len(report.Failed))
	return report, nil
}
