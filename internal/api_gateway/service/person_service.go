package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/revenue-reconciler/internal/domain/attribution"
	"github.com/revenue-reconciler/internal/domain/person"
	"github.com/revenue-reconciler/internal/domain/transaction"
)

type PersonServiceImpl struct {
	personRepo      person.Repository
	txRepo          transaction.Repository
	attributionRepo attribution.Repository
	logger          *slog.Logger
}

func NewPersonService(
	logger *slog.Logger,
	personRepo person.Repository,
	txRepo transaction.Repository,
	attributionRepo attribution.Repository,
) PersonService {
	return &PersonServiceImpl{
		personRepo:      personRepo,
		txRepo:          txRepo,
		attributionRepo: attributionRepo,
		logger:          logger,
	}
}

// GetPerson retrieves a person by id. Returns nil if not found
func (s *PersonServiceImpl) GetPerson(ctx context.Context, id uuid.UUID) (*person.Person, error) {
	p, err := s.personRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, person.ErrPersonNotFound{}) {
			s.logger.Info("Person not found", "person_id", id.String())
			return nil, nil
		}
		s.logger.Error("Failed to get person by ID", "person_id", id.String(), "error", err)
		return nil, err
	}
	return p, nil
}

func (s *PersonServiceImpl) ListTransactions(ctx context.Context, personID uuid.UUID, page, perPage int) ([]*transaction.Transaction, error) {
	return s.txRepo.ListByPerson(ctx, personID, perPage, (page-1)*perPage)
}

// ListAttributionEvents reads the published history, newest first
func (s *PersonServiceImpl) ListAttributionEvents(ctx context.Context, personID uuid.UUID, page, perPage int) ([]*attribution.Event, error) {
	return s.attributionRepo.ListByPerson(ctx, personID, perPage, (page-1)*perPage)
}
