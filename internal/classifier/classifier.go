// Package classifier maps free-text transaction descriptions to revenue categories.
package classifier

import (
	"fmt"
	"strings"

	"github.com/revenue-reconciler/internal/domain/shared"
)

// CategoryRule lists the keywords that select a category
type CategoryRule struct {
	Category shared.Category `yaml:"category"`
	Keywords []string        `yaml:"keywords"`
}

// Classifier applies rules in order; the first rule with a matching keyword wins,
// so overlapping keywords resolve by rule order, not by specificity.
type Classifier struct {
	rules []CategoryRule
}

func New(rules []CategoryRule) (*Classifier, error) {
	compiled := make([]CategoryRule, 0, len(rules))
	for i, rule := range rules {
		category, ok := shared.ParseCategory(string(rule.Category))
		if !ok {
			return nil, fmt.Errorf("rule %d: unknown category %q", i, rule.Category)
		}
		keywords := make([]string, 0, len(rule.Keywords))
		for _, kw := range rule.Keywords {
			kw = normalize(kw)
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
		compiled = append(compiled, CategoryRule{Category: category, Keywords: keywords})
	}
	return &Classifier{rules: compiled}, nil
}

// Classify returns the category of description, or unknown
func (c *Classifier) Classify(description string) shared.Category {
	text := normalize(description)
	if text == "" {
		return shared.CategoryUnknown
	}
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				return rule.Category
			}
		}
	}
	return shared.CategoryUnknown
}

// Rules returns a copy of the compiled rules in precedence order
func (c *Classifier) Rules() []CategoryRule {
	out := make([]CategoryRule, len(c.rules))
	for i, r := range c.rules {
		out[i] = CategoryRule{Category: r.Category, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
