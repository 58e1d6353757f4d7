package components

import (
	"cmp"
	"slices"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
	"github.com/revenue-reconciler/internal/config"
	"github.com/revenue-reconciler/internal/domain/person"
	"github.com/revenue-reconciler/internal/domain/review"
	"github.com/revenue-reconciler/internal/identity"
	"github.com/revenue-reconciler/internal/reconciliation/service"
)

// Rule names recorded on scored candidates
const (
	RuleEmail           = "email"
	RulePhone           = "phone"
	RuleFullName        = "full_name"
	RuleLastNameInitial = "last_name_initial"
	RuleFuzzyName       = "fuzzy_name"
)

// MatchPolicy holds the scoring weights and decision thresholds
type MatchPolicy struct {
	AutoAttachThreshold     int
	TieWindow               int
	MaxSuggestions          int
	EmailWeight             int
	PhoneWeight             int
	FullNameWeight          int
	LastNameInitialWeight   int
	FuzzyNameWeight         int
	FuzzyNameMaxDistance    int
	CreatePersonWhenUnknown bool
}

func DefaultMatchPolicy() MatchPolicy {
	return MatchPolicy{
		AutoAttachThreshold:     80,
		TieWindow:               10,
		MaxSuggestions:          5,
		EmailWeight:             100,
		PhoneWeight:             80,
		FullNameWeight:          50,
		LastNameInitialWeight:   20,
		FuzzyNameWeight:         15,
		FuzzyNameMaxDistance:    2,
		CreatePersonWhenUnknown: true,
	}
}

func MatchPolicyFromConfig(cfg config.MatchingConfig) MatchPolicy {
	return MatchPolicy{
		AutoAttachThreshold:     cfg.AutoAttachThreshold,
		TieWindow:               cfg.TieWindow,
		MaxSuggestions:          cfg.MaxSuggestions,
		EmailWeight:             cfg.EmailWeight,
		PhoneWeight:             cfg.PhoneWeight,
		FullNameWeight:          cfg.FullNameWeight,
		LastNameInitialWeight:   cfg.LastNameInitialWeight,
		FuzzyNameWeight:         cfg.FuzzyNameWeight,
		FuzzyNameMaxDistance:    cfg.FuzzyNameMaxDistance,
		CreatePersonWhenUnknown: cfg.CreatePersonWhenUnknown,
	}
}

type scoredCandidate struct {
	person *person.Person
	score  int
	rules  []string
}

// MatchResolverImpl implements the MatchResolver interface. It performs no I/O.
type MatchResolverImpl struct {
	policy MatchPolicy
}

func NewMatchResolver(policy MatchPolicy) service.MatchResolver {
	return &MatchResolverImpl{policy: policy}
}

// Resolve scores every candidate and decides between auto-attach, person creation and review.
func (r *MatchResolverImpl) Resolve(keys identity.Keys, candidates []*person.Person) service.Decision {
	scored := r.rank(keys, candidates)

	if len(scored) == 0 {
		if r.policy.CreatePersonWhenUnknown && keys.HasContactKey() {
			return service.Decision{Action: service.ActionCreatePerson}
		}
		return service.Decision{
			Action:     service.ActionQueue,
			Reason:     review.ReasonNoCandidates,
			Candidates: []review.Candidate{},
		}
	}

	top := scored[0]
	clearLead := len(scored) == 1 || top.score-scored[1].score > r.policy.TieWindow
	if top.score >= r.policy.AutoAttachThreshold && clearLead {
		return service.Decision{
			Action:   service.ActionAutoAttach,
			PersonID: top.person.ID,
			Score:    top.score,
		}
	}

	reason := review.ReasonBelowThreshold
	if top.score >= r.policy.AutoAttachThreshold {
		reason = review.ReasonNearTie
	}

	return service.Decision{
		Action:     service.ActionQueue,
		Score:      top.score,
		Reason:     reason,
		Candidates: r.suggestions(scored),
	}
}

// rank scores candidates and orders them by score, then most recent activity, then id.
// Candidates matching no rule are dropped.
func (r *MatchResolverImpl) rank(keys identity.Keys, candidates []*person.Person) []scoredCandidate {
	seen := make(map[uuid.UUID]bool, len(candidates))
	scored := make([]scoredCandidate, 0, len(candidates))

	for _, p := range candidates {
		if p == nil || seen[p.ID] {
			continue
		}
		seen[p.ID] = true

		score, rules := r.score(keys, p)
		if score == 0 {
			continue
		}
		scored = append(scored, scoredCandidate{person: p, score: score, rules: rules})
	}

	slices.SortStableFunc(scored, func(a, b scoredCandidate) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		if c := compareActivity(a.person, b.person); c != 0 {
			return c
		}
		return cmp.Compare(a.person.ID.String(), b.person.ID.String())
	})

	return scored
}

// score returns the maximum weight over all rules the person satisfies
func (r *MatchResolverImpl) score(keys identity.Keys, p *person.Person) (int, []string) {
	best := 0
	var rules []string

	match := func(rule string, weight int) {
		rules = append(rules, rule)
		if weight > best {
			best = weight
		}
	}

	if keys.Email != "" && keys.Email == p.Keys.Email {
		match(RuleEmail, r.policy.EmailWeight)
	}
	if keys.Phone != "" && keys.Phone == p.Keys.Phone {
		match(RulePhone, r.policy.PhoneWeight)
	}
	if keys.FullName != "" && keys.FullName == p.Keys.FullName {
		match(RuleFullName, r.policy.FullNameWeight)
	}
	if keys.LastName != "" && keys.FirstInitial != "" &&
		keys.LastName == p.Keys.LastName && keys.FirstInitial == p.Keys.FirstInitial {
		match(RuleLastNameInitial, r.policy.LastNameInitialWeight)
	}
	if r.fuzzyNameMatch(keys, p.Keys) {
		match(RuleFuzzyName, r.policy.FuzzyNameWeight)
	}

	return best, rules
}

// fuzzyNameMatch catches typos in the last name of an otherwise identical name.
// Exact last names are left to the other rules.
func (r *MatchResolverImpl) fuzzyNameMatch(keys, other identity.Keys) bool {
	if r.policy.FuzzyNameMaxDistance <= 0 {
		return false
	}
	if keys.FirstName == "" || keys.LastName == "" || other.LastName == "" || keys.FirstName != other.FirstName {
		return false
	}
	d := levenshtein.ComputeDistance(keys.LastName, other.LastName)
	return d > 0 && d <= r.policy.FuzzyNameMaxDistance
}

func (r *MatchResolverImpl) suggestions(scored []scoredCandidate) []review.Candidate {
	n := min(len(scored), r.policy.MaxSuggestions)
	out := make([]review.Candidate, 0, n)
	for _, c := range scored[:n] {
		out = append(out, review.Candidate{PersonID: c.person.ID, Score: c.score, Rules: c.rules})
	}
	return out
}

// compareActivity orders more recent activity first; persons without activity sort last
func compareActivity(a, b *person.Person) int {
	switch {
	case a.LastActivityAt == nil && b.LastActivityAt == nil:
		return 0
	case a.LastActivityAt == nil:
		return 1
	case b.LastActivityAt == nil:
		return -1
	}
	return b.LastActivityAt.Compare(*a.LastActivityAt)
}
