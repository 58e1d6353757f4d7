package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/revenue-reconciler/internal/domain/attribution"
	"github.com/revenue-reconciler/internal/domain/shared"
	"github.com/revenue-reconciler/internal/domain/transaction"
	"github.com/revenue-reconciler/internal/identity"
)

type recordOutcome int

const (
	outcomeDuplicate recordOutcome = iota
	outcomeAutoMatched
	outcomePersonCreated
	outcomeQueued
)

type IngestionServiceImpl struct {
	txRunner    TxRunner
	dedup       DedupGate
	classifier  RevenueClassifier
	normalizer  IdentityNormalizer
	resolver    MatchResolver
	persons     PersonDirectory
	attribution AttributionManager
	queue       ReviewQueueManager
	logger      *slog.Logger
}

func NewIngestionService(
	txRunner TxRunner,
	dedup DedupGate,
	classifier RevenueClassifier,
	normalizer IdentityNormalizer,
	resolver MatchResolver,
	persons PersonDirectory,
	attribution AttributionManager,
	queue ReviewQueueManager,
	logger *slog.Logger,
) IngestionService {
	return &IngestionServiceImpl{
		txRunner:    txRunner,
		dedup:       dedup,
		classifier:  classifier,
		normalizer:  normalizer,
		resolver:    resolver,
		persons:     persons,
		attribution: attribution,
		queue:       queue,
		logger:      logger,
	}
}

// IngestBatch processes every record of the batch. A rejected record is
// reported in the result and never stops the remaining records.
func (s *IngestionServiceImpl) IngestBatch(ctx context.Context, batch *shared.BatchRequest) (*IngestionResult, error) {
	if err := batch.Validate(); err != nil {
		return nil, err
	}

	provider := strings.ToLower(strings.TrimSpace(batch.Provider))
	logger := s.logger.With("provider", provider, "batch_id", batch.BatchID.String())
	if batch.CorrelationID != "" {
		logger = logger.With("correlation_id", batch.CorrelationID)
	}

	logger.Info("Ingesting batch", "records", len(batch.Records))

	result := &IngestionResult{
		BatchID:  batch.BatchID,
		Provider: provider,
		Errors:   []RecordError{},
	}

	for i, raw := range batch.Records {
		result.RecordsProcessed++

		outcome, externalID, err := s.ingestRecord(ctx, logger, provider, raw, batch.CorrelationID)
		if err != nil {
			reason := err.Error()
			var validationErr transaction.ValidationError
			if errors.As(err, &validationErr) {
				reason = validationErr.Reason
			}
			logger.Warn("Record rejected", "index", i, "external_id", externalID, "reason", reason)
			result.Errors = append(result.Errors, RecordError{ExternalID: externalID, Reason: reason})
			continue
		}

		switch outcome {
		case outcomeDuplicate:
			result.Duplicates++
		case outcomeAutoMatched:
			result.Added++
			result.AutoMatched++
		case outcomePersonCreated:
			result.Added++
			result.AutoMatched++
			result.PersonsCreated++
		case outcomeQueued:
			result.Added++
			result.QueuedForReview++
		}
	}

	logger.Info("Batch ingested",
		"records_processed", result.RecordsProcessed,
		"added", result.Added,
		"duplicates", result.Duplicates,
		"auto_matched", result.AutoMatched,
		"queued_for_review", result.QueuedForReview,
		"persons_created", result.PersonsCreated,
		"errors", len(result.Errors),
	)

	return result, nil
}

func (s *IngestionServiceImpl) ingestRecord(
	ctx context.Context,
	logger *slog.Logger,
	provider string,
	raw json.RawMessage,
	correlationID string,
) (recordOutcome, string, error) {
	// 1. Validate
	txn, err := transaction.ParseRecord(provider, raw)
	if err != nil {
		var validationErr transaction.ValidationError
		if errors.As(err, &validationErr) {
			return 0, validationErr.ExternalID, err
		}
		return 0, "", err
	}

	// 2. Dedup gate
	duplicate, err := s.dedup.IsDuplicate(ctx, txn.Provider, txn.ExternalID)
	if err != nil {
		return 0, txn.ExternalID, fmt.Errorf("dedup check failed: %w", err)
	}
	if duplicate {
		logger.Debug("Duplicate record skipped", "external_id", txn.ExternalID)
		return outcomeDuplicate, txn.ExternalID, nil
	}

	// 3. Classify and normalize outside the database transaction
	txn.Category = s.classifier.Classify(txn.Description)
	hints := identity.Hints{Name: txn.NameHint, Email: txn.EmailHint, Phone: txn.PhoneHint}
	keys := s.normalizer.Keys(hints)

	cause := Cause{TransactionID: txn.ID, Reason: attribution.ReasonAttach, CorrelationID: correlationID}

	// 4. Insert, match and attach or queue atomically
	var outcome recordOutcome
	err = s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		admitted, err := s.dedup.Admit(ctx, tx, txn)
		if err != nil {
			return err
		}
		if !admitted {
			outcome = outcomeDuplicate
			return nil
		}

		candidates, err := s.persons.FindCandidates(ctx, tx, keys)
		if err != nil {
			return err
		}

		decision := s.resolver.Resolve(keys, candidates)
		after := txn.Clone()

		switch decision.Action {
		case ActionAutoAttach:
			after.AttachAutomatically(decision.PersonID)
			outcome = outcomeAutoMatched
		case ActionCreatePerson:
			created, err := s.persons.CreateFromHints(ctx, tx, hints, keys, txn.Provider)
			if err != nil {
				return err
			}
			after.AttachAutomatically(created.ID)
			outcome = outcomePersonCreated
		default:
			after.MarkNeedsReview()
			outcome = outcomeQueued
		}

		if err := s.attribution.Transition(ctx, tx, txn, after, cause); err != nil {
			return err
		}

		if decision.Action == ActionQueue {
			if _, err := s.queue.Enqueue(ctx, tx, txn.ID, decision.Candidates, decision.Reason); err != nil {
				return err
			}
		}

		logger.Debug("Record reconciled",
			"external_id", txn.ExternalID,
			"transaction_id", txn.ID.String(),
			"action", decision.Action.String(),
			"score", decision.Score,
			"category", string(txn.Category),
		)
		return nil
	})
	if err != nil {
		if errors.Is(err, transaction.ErrDuplicateTransaction{}) {
			return outcomeDuplicate, txn.ExternalID, nil
		}
		return 0, txn.ExternalID, err
	}

	if outcome == outcomeDuplicate {
		logger.Debug("Record lost insert race, counted as duplicate", "external_id", txn.ExternalID)
	}

	return outcome, txn.ExternalID, nil
}
