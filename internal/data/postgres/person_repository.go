package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/revenue-reconciler/internal/domain/person"
	"github.com/revenue-reconciler/internal/domain/shared"
	"github.com/revenue-reconciler/internal/identity"
	"github.com/revenue-reconciler/internal/platform/persistence"
)

const personColumns = `id, first_name, last_name, full_name, email, phone,
		email_key, phone_key, name_key, first_name_key, last_name_key, first_initial,
		source_tags, is_paying_client,
		ltv_all, ltv_ads, ltv_pt, ltv_classes, ltv_six_week, ltv_online_coaching, ltv_community, ltv_corporate,
		last_activity_at, created_at, updated_at`

const ltvColumns = `ltv_all, ltv_ads, ltv_pt, ltv_classes, ltv_six_week, ltv_online_coaching, ltv_community, ltv_corporate`

// categoryColumns whitelists the per-category LTV columns; categories
// missing here (unknown) only move ltv_all.
var categoryColumns = map[shared.Category]string{
	shared.CategoryAds:            "ltv_ads",
	shared.CategoryPT:             "ltv_pt",
	shared.CategoryClasses:        "ltv_classes",
	shared.CategorySixWeek:        "ltv_six_week",
	shared.CategoryOnlineCoaching: "ltv_online_coaching",
	shared.CategoryCommunity:      "ltv_community",
	shared.CategoryCorporate:      "ltv_corporate",
}

// PersonRepository implements the person.Repository interface for PostgreSQL
type PersonRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewPersonRepository creates a new PostgreSQL person repository
func NewPersonRepository(logger *slog.Logger, db *persistence.PostgresDB) person.Repository {
	return &PersonRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *PersonRepository) WithTx(tx pgx.Tx) person.Repository {
	return &PersonRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new person with zero LTV
func (r *PersonRepository) Create(ctx context.Context, p *person.Person) error {
	query := `
		INSERT INTO persons (` + personColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
	`

	sourceTags := p.SourceTags
	if sourceTags == nil {
		sourceTags = []string{}
	}

	_, err := r.querier.Exec(ctx, query,
		p.ID,
		p.FirstName,
		p.LastName,
		p.FullName,
		p.Email,
		p.Phone,
		p.Keys.Email,
		p.Keys.Phone,
		p.Keys.FullName,
		p.Keys.FirstName,
		p.Keys.LastName,
		p.Keys.FirstInitial,
		sourceTags,
		p.IsPayingClient,
		p.LTV.All,
		p.LTV.Ads,
		p.LTV.PT,
		p.LTV.Classes,
		p.LTV.SixWeek,
		p.LTV.OnlineCoaching,
		p.LTV.Community,
		p.LTV.Corporate,
		p.LastActivityAt,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create person", "id", p.ID.String(), "error", err)
		return fmt.Errorf("failed to create person: %w", err)
	}

	return nil
}

// GetByID retrieves a person by ID
func (r *PersonRepository) GetByID(ctx context.Context, id uuid.UUID) (*person.Person, error) {
	query := `SELECT ` + personColumns + ` FROM persons WHERE id = $1`

	p, err := scanPerson(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, person.ErrPersonNotFound{PersonID: id}
		}
		r.logger.Error("Failed to get person", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get person: %w", err)
	}

	return p, nil
}

// LockForUpdate obtains a pessimistic lock on the person row
func (r *PersonRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*person.Person, error) {
	query := `SELECT ` + personColumns + ` FROM persons WHERE id = $1 FOR UPDATE`

	p, err := scanPerson(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, person.ErrPersonNotFound{PersonID: id}
		}
		r.logger.Error("Failed to lock person for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock person for update: %w", err)
	}

	return p, nil
}

// FindCandidates returns every person sharing a non-empty exact key, plus up
// to fuzzyLimit persons sharing only the first name. Empty keys are guarded on
// both sides so that missing data never matches missing data.
func (r *PersonRepository) FindCandidates(ctx context.Context, keys identity.Keys, fuzzyLimit int) ([]*person.Person, error) {
	if keys.IsEmpty() {
		return nil, nil
	}

	// The first-name probe only feeds the fuzzy last-name rule, which needs both names.
	fuzzyFirstName := ""
	if keys.LastName != "" {
		fuzzyFirstName = keys.FirstName
	}

	// Exact matches are never capped: dropping one would create a duplicate person.
	query := `WITH exact AS (
			SELECT ` + personColumns + ` FROM persons
			WHERE ($1 <> '' AND email_key = $1)
				OR ($2 <> '' AND phone_key = $2)
				OR ($3 <> '' AND name_key = $3)
				OR ($4 <> '' AND $5 <> '' AND last_name_key = $4 AND first_initial = $5)
		)
		SELECT * FROM exact
		UNION ALL
		(SELECT ` + personColumns + ` FROM persons
			WHERE $6 <> '' AND first_name_key = $6 AND last_name_key <> ''
				AND id NOT IN (SELECT id FROM exact)
			ORDER BY last_activity_at DESC NULLS LAST, id
			LIMIT $7)`

	rows, err := r.querier.Query(ctx, query,
		keys.Email,
		keys.Phone,
		keys.FullName,
		keys.LastName,
		keys.FirstInitial,
		fuzzyFirstName,
		fuzzyLimit,
	)
	if err != nil {
		r.logger.Error("Failed to find candidate persons", "error", err)
		return nil, fmt.Errorf("failed to find candidate persons: %w", err)
	}
	defer rows.Close()

	var persons []*person.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			r.logger.Error("Failed to scan candidate person", "error", err)
			return nil, fmt.Errorf("failed to scan candidate person: %w", err)
		}
		persons = append(persons, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over candidate persons: %w", err)
	}

	return persons, nil
}

// ApplyLTVDelta adds delta.AmountMinor (already signed) to ltv_all and the
// category column, refreshing is_paying_client from the new all-time total.
func (r *PersonRepository) ApplyLTVDelta(ctx context.Context, id uuid.UUID, delta shared.CategoryAmount, at time.Time) (person.LTV, error) {
	categoryAssignment := ""
	if column, ok := categoryColumns[delta.Category]; ok {
		categoryAssignment = fmt.Sprintf("%s = %s + $1,", column, column)
	}

	query := `
		UPDATE persons
		SET ltv_all = ltv_all + $1, ` + categoryAssignment + `
			is_paying_client = (ltv_all + $1) > 0,
			last_activity_at = GREATEST(COALESCE(last_activity_at, $2), $2),
			updated_at = $2
		WHERE id = $3
		RETURNING ` + ltvColumns

	var ltv person.LTV
	err := r.querier.QueryRow(ctx, query, delta.AmountMinor, at, id).Scan(ltvDest(&ltv)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return person.LTV{}, person.ErrPersonNotFound{PersonID: id}
		}
		r.logger.Error("Failed to apply LTV delta",
			"person_id", id.String(),
			"category", string(delta.Category),
			"amount", delta.AmountMinor,
			"error", err,
		)
		return person.LTV{}, fmt.Errorf("failed to apply LTV delta: %w", err)
	}

	return ltv, nil
}

// ReplaceLTV overwrites every stored total
func (r *PersonRepository) ReplaceLTV(ctx context.Context, id uuid.UUID, ltv person.LTV) error {
	query := `
		UPDATE persons
		SET ltv_all = $1, ltv_ads = $2, ltv_pt = $3, ltv_classes = $4, ltv_six_week = $5,
			ltv_online_coaching = $6, ltv_community = $7, ltv_corporate = $8,
			is_paying_client = $9, updated_at = $10
		WHERE id = $11
	`

	result, err := r.querier.Exec(ctx, query,
		ltv.All, ltv.Ads, ltv.PT, ltv.Classes, ltv.SixWeek, ltv.OnlineCoaching, ltv.Community, ltv.Corporate,
		ltv.All > 0, time.Now().UTC(), id,
	)
	if err != nil {
		r.logger.Error("Failed to replace LTV", "person_id", id.String(), "error", err)
		return fmt.Errorf("failed to replace LTV: %w", err)
	}

	if result.RowsAffected() == 0 {
		return person.ErrPersonNotFound{PersonID: id}
	}

	return nil
}

// AddSourceTag records that source referred to the person; existing tags are left alone
func (r *PersonRepository) AddSourceTag(ctx context.Context, id uuid.UUID, source string) error {
	query := `
		UPDATE persons
		SET source_tags = array_append(source_tags, $1::text)
		WHERE id = $2 AND NOT ($1::text = ANY(source_tags))
	`

	if _, err := r.querier.Exec(ctx, query, source, id); err != nil {
		r.logger.Error("Failed to add source tag", "person_id", id.String(), "source", source, "error", err)
		return fmt.Errorf("failed to add source tag: %w", err)
	}

	return nil
}

// ListIDs pages through person ids in stable order
func (r *PersonRepository) ListIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error) {
	query := `SELECT id FROM persons ORDER BY id LIMIT $1 OFFSET $2`

	rows, err := r.querier.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list person ids", "error", err)
		return nil, fmt.Errorf("failed to list person ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan person id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over person ids: %w", err)
	}

	return ids, nil
}

// DeleteGhosts removes persons that only source ever referred to, that own no
// transactions and carry zero LTV.
func (r *PersonRepository) DeleteGhosts(ctx context.Context, source string) (int64, error) {
	query := `
		DELETE FROM persons p
		WHERE p.source_tags = ARRAY[$1::text]
			AND p.ltv_all = 0
			AND NOT EXISTS (SELECT 1 FROM transactions t WHERE t.person_id = p.id)
	`

	result, err := r.querier.Exec(ctx, query, source)
	if err != nil {
		r.logger.Error("Failed to delete ghost persons", "source", source, "error", err)
		return 0, fmt.Errorf("failed to delete ghost persons: %w", err)
	}

	return result.RowsAffected(), nil
}

func ltvDest(l *person.LTV) []interface{} {
	return []interface{}{&l.All, &l.Ads, &l.PT, &l.Classes, &l.SixWeek, &l.OnlineCoaching, &l.Community, &l.Corporate}
}

func scanPerson(row pgx.Row) (*person.Person, error) {
	var p person.Person
	dest := []interface{}{
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.FullName,
		&p.Email,
		&p.Phone,
		&p.Keys.Email,
		&p.Keys.Phone,
		&p.Keys.FullName,
		&p.Keys.FirstName,
		&p.Keys.LastName,
		&p.Keys.FirstInitial,
		&p.SourceTags,
		&p.IsPayingClient,
	}
	dest = append(dest, ltvDest(&p.LTV)...)
	dest = append(dest, &p.LastActivityAt, &p.CreatedAt, &p.UpdatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &p, nil
}
