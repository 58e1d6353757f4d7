package person

import "github.com/revenue-reconciler/internal/domain/shared"

// LTV holds a person's lifetime value in minor units, all-time and per category
type LTV struct {
	All            int64 `json:"all"`
	Ads            int64 `json:"ads"`
	PT             int64 `json:"pt"`
	Classes        int64 `json:"classes"`
	SixWeek        int64 `json:"six_week"`
	OnlineCoaching int64 `json:"online_coaching"`
	Community      int64 `json:"community"`
	Corporate      int64 `json:"corporate"`
}

func (l *LTV) field(c shared.Category) *int64 {
	switch c {
	case shared.CategoryAds:
		return &l.Ads
	case shared.CategoryPT:
		return &l.PT
	case shared.CategoryClasses:
		return &l.Classes
	case shared.CategorySixWeek:
		return &l.SixWeek
	case shared.CategoryOnlineCoaching:
		return &l.OnlineCoaching
	case shared.CategoryCommunity:
		return &l.Community
	case shared.CategoryCorporate:
		return &l.Corporate
	}
	return nil
}

// Category returns the total for c. Unknown categories have no total of their own.
func (l LTV) Category(c shared.Category) int64 {
	if f := l.field(c); f != nil {
		return *f
	}
	return 0
}

// Apply adds sign*amount to the all-time total and to the amount's category
func (l *LTV) Apply(amount shared.CategoryAmount, sign int64) {
	delta := sign * amount.AmountMinor
	l.All += delta
	if f := l.field(amount.Category); f != nil {
		*f += delta
	}
}

// LTVFromAmounts builds totals from per-category sums
func LTVFromAmounts(amounts []shared.CategoryAmount) LTV {
	var l LTV
	for _, a := range amounts {
		l.Apply(a, 1)
	}
	return l
}

// MaxCategory is the largest per-category total
func (l LTV) MaxCategory() int64 {
	var largest int64
	for i, c := range shared.Categories() {
		v := l.Category(c)
		if i == 0 || v > largest {
			largest = v
		}
	}
	return largest
}

// Diff returns the absolute difference of the largest diverging field
func (l LTV) Diff(other LTV) int64 {
	worst := abs(l.All - other.All)
	for _, c := range shared.Categories() {
		if d := abs(l.Category(c) - other.Category(c)); d > worst {
			worst = d
		}
	}
	return worst
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
