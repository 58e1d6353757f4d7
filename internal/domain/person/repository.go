package person

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/revenue-reconciler/internal/domain/shared"
	"github.com/revenue-reconciler/internal/identity"
)

// Repository defines person persistence operations
type Repository interface {
	Create(ctx context.Context, p *Person) error
	GetByID(ctx context.Context, id uuid.UUID) (*Person, error)

	// LockForUpdate acquires a pessimistic lock before LTV changes
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Person, error)

	// FindCandidates returns every person sharing at least one non-empty key,
	// plus up to fuzzyLimit persons sharing only the first name so the fuzzy
	// rule can score them.
	FindCandidates(ctx context.Context, keys identity.Keys, fuzzyLimit int) ([]*Person, error)

	// ApplyLTVDelta adds the signed amount to ltv_all and the category total
	ApplyLTVDelta(ctx context.Context, id uuid.UUID, delta shared.CategoryAmount, at time.Time) (LTV, error)
	ReplaceLTV(ctx context.Context, id uuid.UUID, ltv LTV) error
	AddSourceTag(ctx context.Context, id uuid.UUID, source string) error
	ListIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error)

	// DeleteGhosts removes persons only ever sourced from source that own no
	// transactions and have zero LTV.
	DeleteGhosts(ctx context.Context, source string) (int64, error)
	WithTx(tx pgx.Tx) Repository
}
