package classifier

import (
	"fmt"
	"os"

	"github.com/revenue-reconciler/internal/domain/shared"
	"gopkg.in/yaml.v3"
)

// DefaultMapping is used when no mapping file is configured. Program names come
// before generic service words so "6 week challenge classes" counts as six_week.
func DefaultMapping() []CategoryRule {
	return []CategoryRule{
		{Category: shared.CategorySixWeek, Keywords: []string{"6 week", "six week", "6-week", "6wk", "challenge"}},
		{Category: shared.CategoryPT, Keywords: []string{"personal training", "personal trainer", "pt session", "pt pack", "1:1 training"}},
		{Category: shared.CategoryOnlineCoaching, Keywords: []string{"online coaching", "online program", "remote coaching", "app coaching"}},
		{Category: shared.CategoryClasses, Keywords: []string{"class", "membership", "drop in", "drop-in", "casual visit"}},
		{Category: shared.CategoryCommunity, Keywords: []string{"community", "workshop", "event ticket", "retreat"}},
		{Category: shared.CategoryCorporate, Keywords: []string{"corporate", "company wellness", "team session", "invoice"}},
		{Category: shared.CategoryAds, Keywords: []string{"facebook lead", "meta ads", "google ads", "instagram ad", "lead form"}},
	}
}

// ParseMapping decodes a YAML sequence of {category, keywords} rules.
// A sequence is required so that precedence survives decoding.
func ParseMapping(data []byte) ([]CategoryRule, error) {
	var rules []CategoryRule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse category mapping: %w", err)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("category mapping is empty")
	}
	return rules, nil
}

// LoadMapping reads a mapping file, falling back to DefaultMapping for an empty path
func LoadMapping(path string) ([]CategoryRule, error) {
	if path == "" {
		return DefaultMapping(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read category mapping %s: %w", path, err)
	}
	return ParseMapping(data)
}

// Load builds a classifier from the mapping at path
func Load(path string) (*Classifier, error) {
	rules, err := LoadMapping(path)
	if err != nil {
		return nil, err
	}
	return New(rules)
}
