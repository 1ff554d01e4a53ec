package classify

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/slate/internal/elements"
)

// Policy overrides parts of the rule table. Priorities are policy rather
// than code order: two rules swap priority by overriding both.
//
//	[[rules]]
//	category = "greenery"
//	threshold = 0.4
//	keywords = ["bonsai"]
type Policy struct {
	Rules []RuleOverride `toml:"rules"`
}

// RuleOverride replaces the scalar settings it names and appends keywords,
// context patterns, and exclusions to the matching rule.
type RuleOverride struct {
	Category       string      `toml:"category"`
	Priority       *int        `toml:"priority"`
	BaseConfidence *float64    `toml:"base_confidence"`
	Threshold      *float64    `toml:"threshold"`
	Keywords       []string    `toml:"keywords"`
	Context        []string    `toml:"context"`
	Exclusions     []Exclusion `toml:"exclusions"`
}

// LoadPolicy reads a TOML policy file.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy %s: %w", path, err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes TOML policy data.
func ParsePolicy(data []byte) (*Policy, error) {
	var p Policy
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	return &p, nil
}

// Apply returns a copy of rules with the policy overrides applied. The
// result is validated when passed to New.
func (p *Policy) Apply(rules []Rule) ([]Rule, error) {
	out := make([]Rule, len(rules))
	copy(out, rules)

	index := make(map[elements.Category]int, len(out))
	for i, r := range out {
		index[r.Category] = i
	}

	for _, o := range p.Rules {
		c, err := elements.ParseCategory(o.Category)
		if err != nil {
			return nil, fmt.Errorf("%w: category %q", ErrInvalidPolicy, o.Category)
		}
		i, ok := index[c]
		if !ok {
			return nil, fmt.Errorf("%w: no rule for %s", ErrInvalidPolicy, c)
		}

		r := out[i]
		if o.Priority != nil {
			r.Priority = *o.Priority
		}
		if o.BaseConfidence != nil {
			r.BaseConfidence = *o.BaseConfidence
		}
		if o.Threshold != nil {
			r.Threshold = *o.Threshold
		}
		r.Keywords = append(append([]string{}, r.Keywords...), o.Keywords...)
		r.Context = append(append([]string{}, r.Context...), o.Context...)
		r.Exclusions = append(append([]Exclusion{}, r.Exclusions...), o.Exclusions...)
		out[i] = r
	}

	return out, nil
}
