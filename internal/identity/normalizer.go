// Package identity builds canonical comparison keys from the loosely formatted
// names, emails and phone numbers providers send. A malformed value yields an
// empty key, and an empty key never matches anything.
package identity

import (
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Hints are the raw identity strings attached to an inbound record
type Hints struct {
	Name  string
	Email string
	Phone string
}

// Keys are the normalized comparison keys derived from Hints
type Keys struct {
	Email        string
	Phone        string
	FullName     string
	FirstName    string
	LastName     string
	FirstInitial string
}

// IsEmpty reports whether no key can match anything
func (k Keys) IsEmpty() bool {
	return k == Keys{}
}

// HasContactKey reports whether an email or phone key is present
func (k Keys) HasContactKey() bool {
	return k.Email != "" || k.Phone != ""
}

// Name is a tokenized, folded person name
type Name struct {
	Full         string
	First        string
	Last         string
	FirstInitial string
}

// Normalizer produces Keys. DefaultRegion is the ISO 3166 region assumed for
// phone numbers written without a country code.
type Normalizer struct {
	DefaultRegion string
}

func NewNormalizer(defaultRegion string) *Normalizer {
	region := strings.ToUpper(strings.TrimSpace(defaultRegion))
	if region == "" {
		region = "US"
	}
	return &Normalizer{DefaultRegion: region}
}

// Keys normalizes every hint of a record
func (n *Normalizer) Keys(h Hints) Keys {
	name := n.Name(h.Name)
	return Keys{
		Email:        n.Email(h.Email),
		Phone:        n.Phone(h.Phone),
		FullName:     name.Full,
		FirstName:    name.First,
		LastName:     name.Last,
		FirstInitial: name.FirstInitial,
	}
}

// Email lower-cases and trims an address, returning "" unless it has exactly one
// @ with a non-empty local part and a dotted domain.
func (n *Normalizer) Email(s string) string {
	email := strings.ToLower(strings.TrimSpace(s))
	if email == "" || strings.IndexFunc(email, unicode.IsSpace) >= 0 {
		return ""
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return ""
	}
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return ""
	}
	return email
}

// Phone returns the E.164 digits of a number without the leading plus
func (n *Normalizer) Phone(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	num, err := phonenumbers.Parse(s, n.DefaultRegion)
	if err != nil || !phonenumbers.IsPossibleNumber(num) {
		return ""
	}
	return strings.TrimPrefix(phonenumbers.Format(num, phonenumbers.E164), "+")
}

// Name folds diacritics, lower-cases, drops apostrophes and splits on any other
// punctuation. Last is set only when the name has at least two tokens.
func (n *Normalizer) Name(s string) Name {
	folded, _, err := transform.String(foldDiacritics(), s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	for _, r := range folded {
		switch {
		case r == '\'' || r == '’':
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	tokens := strings.Fields(b.String())
	if len(tokens) == 0 {
		return Name{}
	}
	name := Name{
		Full:         strings.Join(tokens, " "),
		First:        tokens[0],
		FirstInitial: string([]rune(tokens[0])[:1]),
	}
	if len(tokens) > 1 {
		name.Last = tokens[len(tokens)-1]
	}
	return name
}

// transform.Chain is stateful, so each call gets its own.
func foldDiacritics() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
