package person

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/revenue-reconciler/internal/identity"
)

// Person is the canonical identity that owns transactions and carries LTV
type Person struct {
	ID             uuid.UUID     `json:"id"`
	FirstName      string        `json:"first_name"`
	LastName       string        `json:"last_name"`
	FullName       string        `json:"full_name"`
	Email          string        `json:"email,omitempty"`
	Phone          string        `json:"phone,omitempty"`
	Keys           identity.Keys `json:"-"`
	SourceTags     []string      `json:"source_tags"`
	IsPayingClient bool          `json:"is_paying_client"`
	LTV            LTV           `json:"ltv"`
	LastActivityAt *time.Time    `json:"last_activity_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// NewPerson creates a person from the identity hints of a transaction
func NewPerson(hints identity.Hints, keys identity.Keys, source string) *Person {
	first, last := splitName(hints.Name)
	now := time.Now().UTC()
	p := &Person{
		ID:        uuid.New(),
		FirstName: first,
		LastName:  last,
		FullName:  strings.Join(strings.Fields(hints.Name), " "),
		Email:     strings.TrimSpace(hints.Email),
		Phone:     strings.TrimSpace(hints.Phone),
		Keys:      keys,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if source != "" {
		p.SourceTags = []string{source}
	}
	return p
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

// HasSourceTag reports whether the person was ever referred by source
func (p *Person) HasSourceTag(source string) bool {
	for _, s := range p.SourceTags {
		if s == source {
			return true
		}
	}
	return false
}

// ApplyLTV mirrors a stored delta on the in-memory person
func (p *Person) ApplyLTV(ltv LTV) {
	p.LTV = ltv
	p.IsPayingClient = ltv.All > 0
	p.UpdatedAt = time.Now().UTC()
}
