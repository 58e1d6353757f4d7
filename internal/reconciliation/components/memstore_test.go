package components

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/revenue-reconciler/internal/domain/outbox"
	"github.com/revenue-reconciler/internal/domain/person"
	"github.com/revenue-reconciler/internal/domain/review"
	"github.com/revenue-reconciler/internal/domain/shared"
	"github.com/revenue-reconciler/internal/domain/transaction"
	"github.com/revenue-reconciler/internal/identity"
)

// memStore is an in-memory stand-in for the Postgres schema. It mirrors the
// repository contracts closely enough to run the core end to end.
type memStore struct {
	transactions map[uuid.UUID]*transaction.Transaction
	persons      map[uuid.UUID]*person.Person
	reviews      []*review.Entry
	outbox       []*outbox.Message
	nextOutboxID int64

	failOutbox error
}

func newMemStore() *memStore {
	return &memStore{
		transactions: make(map[uuid.UUID]*transaction.Transaction),
		persons:      make(map[uuid.UUID]*person.Person),
	}
}

func (s *memStore) repositories() Repositories {
	return Repositories{
		Transactions: &memTransactions{s},
		Persons:      &memPersons{s},
		Reviews:      &memReviews{s},
		Outbox:       &memOutbox{s},
	}
}

func clonePerson(p *person.Person) *person.Person {
	c := *p
	c.SourceTags = slices.Clone(p.SourceTags)
	if p.LastActivityAt != nil {
		t := *p.LastActivityAt
		c.LastActivityAt = &t
	}
	return &c
}

func cloneEntry(e *review.Entry) *review.Entry {
	c := *e
	c.Candidates = slices.Clone(e.Candidates)
	if e.ResolvedAt != nil {
		t := *e.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}

type memSnapshot struct {
	transactions map[uuid.UUID]*transaction.Transaction
	persons      map[uuid.UUID]*person.Person
	reviews      []*review.Entry
	outbox       []*outbox.Message
	nextOutboxID int64
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		transactions: make(map[uuid.UUID]*transaction.Transaction, len(s.transactions)),
		persons:      make(map[uuid.UUID]*person.Person, len(s.persons)),
		nextOutboxID: s.nextOutboxID,
	}
	for id, t := range s.transactions {
		snap.transactions[id] = t.Clone()
	}
	for id, p := range s.persons {
		snap.persons[id] = clonePerson(p)
	}
	for _, e := range s.reviews {
		snap.reviews = append(snap.reviews, cloneEntry(e))
	}
	for _, m := range s.outbox {
		c := *m
		snap.outbox = append(snap.outbox, &c)
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.transactions = snap.transactions
	s.persons = snap.persons
	s.reviews = snap.reviews
	s.outbox = snap.outbox
	s.nextOutboxID = snap.nextOutboxID
}

// snapshotTxRunner gives ExecuteTx all-or-nothing semantics over a memStore
type snapshotTxRunner struct {
	store     *memStore
	commits   int
	rollbacks int
}

func (r *snapshotTxRunner) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	snap := r.store.snapshot()
	if err := fn(nil); err != nil {
		r.store.restore(snap)
		r.rollbacks++
		return err
	}
	r.commits++
	return nil
}

// seedPerson stores a person whose keys come from the real normalizer
func (s *memStore) seedPerson(name, email, phone string) *person.Person {
	hints := identity.Hints{Name: name, Email: email, Phone: phone}
	p := person.NewPerson(hints, identity.NewNormalizer("US").Keys(hints), "seed")
	s.persons[p.ID] = p
	return clonePerson(p)
}

func (s *memStore) person(id uuid.UUID) *person.Person {
	return clonePerson(s.persons[id])
}

func (s *memStore) byExternalID(provider, externalID string) *transaction.Transaction {
	for _, t := range s.transactions {
		if t.Provider == provider && t.ExternalID == externalID {
			return t.Clone()
		}
	}
	return nil
}

func (s *memStore) openEntries() []*review.Entry {
	var open []*review.Entry
	for _, e := range s.reviews {
		if e.IsOpen() {
			open = append(open, e)
		}
	}
	return open
}

type memTransactions struct{ s *memStore }

func (r *memTransactions) Insert(ctx context.Context, txn *transaction.Transaction) error {
	if r.s.byExternalID(txn.Provider, txn.ExternalID) != nil {
		return transaction.ErrDuplicateTransaction{Provider: txn.Provider, ExternalID: txn.ExternalID}
	}
	r.s.transactions[txn.ID] = txn.Clone()
	return nil
}

func (r *memTransactions) Exists(ctx context.Context, provider, externalID string) (bool, error) {
	return r.s.byExternalID(provider, externalID) != nil, nil
}

func (r *memTransactions) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	t, ok := r.s.transactions[id]
	if !ok {
		return nil, transaction.ErrTransactionNotFound{TransactionID: id}
	}
	return t.Clone(), nil
}

func (r *memTransactions) LockForUpdate(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	return r.GetByID(ctx, id)
}

func (r *memTransactions) Update(ctx context.Context, txn *transaction.Transaction) error {
	if _, ok := r.s.transactions[txn.ID]; !ok {
		return transaction.ErrTransactionNotFound{TransactionID: txn.ID}
	}
	r.s.transactions[txn.ID] = txn.Clone()
	return nil
}

func (r *memTransactions) ListByProviderForUpdate(ctx context.Context, provider string) ([]*transaction.Transaction, error) {
	var out []*transaction.Transaction
	for _, t := range r.s.transactions {
		if t.Provider == provider {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0 })
	return out, nil
}

func (r *memTransactions) ListByPerson(ctx context.Context, personID uuid.UUID, limit, offset int) ([]*transaction.Transaction, error) {
	var out []*transaction.Transaction
	for _, t := range r.s.transactions {
		if t.OwnedBy(personID) {
			out = append(out, t.Clone())
		}
	}
	return page(out, limit, offset), nil
}

func (r *memTransactions) DeleteByProvider(ctx context.Context, provider string) (int64, error) {
	var deleted int64
	for id, t := range r.s.transactions {
		if t.Provider == provider {
			delete(r.s.transactions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memTransactions) SumRevenueByPerson(ctx context.Context, personID uuid.UUID) ([]shared.CategoryAmount, error) {
	sums := map[shared.Category]int64{}
	for _, t := range r.s.transactions {
		if t.OwnedBy(personID) && t.CountsTowardRevenue() {
			sums[t.Category] += t.AmountMinor
		}
	}
	var out []shared.CategoryAmount
	for c, amount := range sums {
		out = append(out, shared.CategoryAmount{Category: c, AmountMinor: amount})
	}
	return out, nil
}

func (r *memTransactions) WithTx(tx pgx.Tx) transaction.Repository { return r }

type memPersons struct{ s *memStore }

func (r *memPersons) Create(ctx context.Context, p *person.Person) error {
	r.s.persons[p.ID] = clonePerson(p)
	return nil
}

func (r *memPersons) GetByID(ctx context.Context, id uuid.UUID) (*person.Person, error) {
	p, ok := r.s.persons[id]
	if !ok {
		return nil, person.ErrPersonNotFound{PersonID: id}
	}
	return clonePerson(p), nil
}

func (r *memPersons) LockForUpdate(ctx context.Context, id uuid.UUID) (*person.Person, error) {
	return r.GetByID(ctx, id)
}

func (r *memPersons) FindCandidates(ctx context.Context, keys identity.Keys, fuzzyLimit int) ([]*person.Person, error) {
	if keys.IsEmpty() {
		return nil, nil
	}
	var exact, fuzzy []*person.Person
	for _, p := range r.s.persons {
		k := p.Keys
		switch {
		case (keys.Email != "" && keys.Email == k.Email) ||
			(keys.Phone != "" && keys.Phone == k.Phone) ||
			(keys.FullName != "" && keys.FullName == k.FullName) ||
			(keys.LastName != "" && keys.FirstInitial != "" && keys.LastName == k.LastName && keys.FirstInitial == k.FirstInitial):
			exact = append(exact, clonePerson(p))
		case keys.LastName != "" && keys.FirstName != "" && keys.FirstName == k.FirstName && k.LastName != "":
			fuzzy = append(fuzzy, clonePerson(p))
		}
	}
	// Most recently active first, as the SQL orders the capped suggestions
	sort.Slice(fuzzy, func(i, j int) bool {
		a, b := fuzzy[i].LastActivityAt, fuzzy[j].LastActivityAt
		if a == nil || b == nil {
			return a != nil
		}
		return a.After(*b)
	})
	return append(exact, page(fuzzy, fuzzyLimit, 0)...), nil
}

func (r *memPersons) ApplyLTVDelta(ctx context.Context, id uuid.UUID, delta shared.CategoryAmount, at time.Time) (person.LTV, error) {
	p, ok := r.s.persons[id]
	if !ok {
		return person.LTV{}, person.ErrPersonNotFound{PersonID: id}
	}
	p.LTV.Apply(delta, 1)
	p.IsPayingClient = p.LTV.All > 0
	if p.LastActivityAt == nil || at.After(*p.LastActivityAt) {
		p.LastActivityAt = &at
	}
	return p.LTV, nil
}

func (r *memPersons) ReplaceLTV(ctx context.Context, id uuid.UUID, ltv person.LTV) error {
	p, ok := r.s.persons[id]
	if !ok {
		return person.ErrPersonNotFound{PersonID: id}
	}
	p.LTV = ltv
	p.IsPayingClient = ltv.All > 0
	return nil
}

func (r *memPersons) AddSourceTag(ctx context.Context, id uuid.UUID, source string) error {
	p, ok := r.s.persons[id]
	if !ok {
		return person.ErrPersonNotFound{PersonID: id}
	}
	if !p.HasSourceTag(source) {
		p.SourceTags = append(p.SourceTags, source)
	}
	return nil
}

func (r *memPersons) ListIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(r.s.persons))
	for id := range r.s.persons {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
	return page(ids, limit, offset), nil
}

func (r *memPersons) DeleteGhosts(ctx context.Context, source string) (int64, error) {
	var deleted int64
	for id, p := range r.s.persons {
		if len(p.SourceTags) != 1 || p.SourceTags[0] != source || p.LTV.All != 0 {
			continue
		}
		owns := false
		for _, t := range r.s.transactions {
			if t.OwnedBy(id) {
				owns = true
				break
			}
		}
		if !owns {
			delete(r.s.persons, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memPersons) WithTx(tx pgx.Tx) person.Repository { return r }

type memReviews struct{ s *memStore }

func (r *memReviews) Create(ctx context.Context, entry *review.Entry) (bool, error) {
	if _, err := r.GetOpenByTransactionID(ctx, entry.TransactionID); err == nil {
		return false, nil
	}
	r.s.reviews = append(r.s.reviews, cloneEntry(entry))
	return true, nil
}

func (r *memReviews) ListOpen(ctx context.Context, limit, offset int) ([]*review.Entry, error) {
	return page(r.s.openEntries(), limit, offset), nil
}

func (r *memReviews) CountOpen(ctx context.Context) (int64, error) {
	return int64(len(r.s.openEntries())), nil
}

func (r *memReviews) GetOpenByTransactionID(ctx context.Context, transactionID uuid.UUID) (*review.Entry, error) {
	for _, e := range r.s.openEntries() {
		if e.TransactionID == transactionID {
			return cloneEntry(e), nil
		}
	}
	return nil, review.ErrEntryNotFound{TransactionID: transactionID}
}

func (r *memReviews) Resolve(ctx context.Context, transactionID uuid.UUID, resolvedBy string, at time.Time) (bool, error) {
	for _, e := range r.s.reviews {
		if e.TransactionID == transactionID && e.IsOpen() {
			e.ResolvedAt = &at
			e.ResolvedBy = resolvedBy
			return true, nil
		}
	}
	return false, nil
}

func (r *memReviews) DeleteByProvider(ctx context.Context, provider string) (int64, error) {
	kept := r.s.reviews[:0]
	var deleted int64
	for _, e := range r.s.reviews {
		if t, ok := r.s.transactions[e.TransactionID]; ok && t.Provider == provider {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	r.s.reviews = kept
	return deleted, nil
}

func (r *memReviews) WithTx(tx pgx.Tx) review.Repository { return r }

type memOutbox struct{ s *memStore }

func (r *memOutbox) Create(ctx context.Context, message *outbox.Message) error {
	if r.s.failOutbox != nil {
		return r.s.failOutbox
	}
	r.s.nextOutboxID++
	message.ID = r.s.nextOutboxID
	c := *message
	r.s.outbox = append(r.s.outbox, &c)
	return nil
}

func (r *memOutbox) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	var out []*outbox.Message
	for _, m := range r.s.outbox {
		if m.Status == shared.OutboxStatusPending {
			c := *m
			out = append(out, &c)
		}
	}
	return page(out, limit, 0), nil
}

func (r *memOutbox) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	for _, m := range r.s.outbox {
		if m.ID == id {
			m.Status = status
			return nil
		}
	}
	return outbox.ErrMessageNotFound{ID: id}
}

func (r *memOutbox) IncrementAttempts(ctx context.Context, id int64) error {
	for _, m := range r.s.outbox {
		if m.ID == id {
			m.IncrementAttempts()
			return nil
		}
	}
	return outbox.ErrMessageNotFound{ID: id}
}

func (r *memOutbox) WithTx(tx pgx.Tx) outbox.Repository { return r }

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

var errOutboxDown = errors.New("outbox unavailable")
