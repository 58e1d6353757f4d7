package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/revenue-reconciler/internal/domain/person"
	"github.com/revenue-reconciler/internal/identity"
	"github.com/revenue-reconciler/internal/reconciliation/service"
)

// fuzzyCandidateLimit caps the first-name-only suggestions scored per
// transaction. Exact key matches are always returned in full.
const fuzzyCandidateLimit = 50

type PersonDirectoryImpl struct {
	personRepo person.Repository
	logger     *slog.Logger
}

func NewPersonDirectory(personRepo person.Repository, logger *slog.Logger) service.PersonDirectory {
	return &PersonDirectoryImpl{
		personRepo: personRepo,
		logger:     logger,
	}
}

func (d *PersonDirectoryImpl) FindCandidates(ctx context.Context, tx pgx.Tx, keys identity.Keys) ([]*person.Person, error) {
	return d.personRepo.WithTx(tx).FindCandidates(ctx, keys, fuzzyCandidateLimit)
}

// CreateFromHints creates a person tagged with the provider that first reported it
func (d *PersonDirectoryImpl) CreateFromHints(ctx context.Context, tx pgx.Tx, hints identity.Hints, keys identity.Keys, source string) (*person.Person, error) {
	p := person.NewPerson(hints, keys, source)
	if err := d.personRepo.WithTx(tx).Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create person from %s hints: %w", source, err)
	}
	d.logger.Info("Person created", "person_id", p.ID.String(), "source", source)
	return p, nil
}

func (d *PersonDirectoryImpl) Get(ctx context.Context, tx pgx.Tx, personID uuid.UUID) (*person.Person, error) {
	return d.personRepo.WithTx(tx).GetByID(ctx, personID)
}

func (d *PersonDirectoryImpl) ListIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error) {
	return d.personRepo.ListIDs(ctx, limit, offset)
}

// DeleteGhosts removes persons only the source ever referred that own nothing
func (d *PersonDirectoryImpl) DeleteGhosts(ctx context.Context, tx pgx.Tx, source string) (int64, error) {
	deleted, err := d.personRepo.WithTx(tx).DeleteGhosts(ctx, source)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		d.logger.Info("Ghost persons removed", "source", source, "count", deleted)
	}
	return deleted, nil
}
