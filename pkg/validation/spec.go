package validation

import (
	"errors"
	"fmt"
	"sort"

	"github.com/goliatone/go-formschema/pkg/schema"
)

// RuleSpec is the declarative, document form of a Rule.
type RuleSpec struct {
	Required  bool                `json:"required,omitempty" yaml:"required,omitempty"`
	Format    string              `json:"format,omitempty" yaml:"format,omitempty"`
	MinLength *int                `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength *int                `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Pattern   string              `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Messages  map[string]string   `json:"messages,omitempty" yaml:"messages,omitempty"`
	Rows      map[string]RuleSpec `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// RulesetSpec maps field ids to rule specs.
type RulesetSpec map[string]RuleSpec

// Build compiles the spec. Constraint order is required, format, minLength,
// maxLength, pattern.
func (s RuleSpec) Build() (Rule, error) {
	var rule Rule
	if s.Required {
		rule.Constraints = append(rule.Constraints, Required(s.Messages[KindRequired]))
	}
	if s.Format != "" {
		constraint, err := Format(s.Format, s.Messages[KindFormat])
		if err != nil {
			return Rule{}, err
		}
		rule.Constraints = append(rule.Constraints, constraint)
	}
	if s.MinLength != nil {
		rule.Constraints = append(rule.Constraints, MinLength(*s.MinLength, s.Messages[KindMinLength]))
	}
	if s.MaxLength != nil {
		rule.Constraints = append(rule.Constraints, MaxLength(*s.MaxLength, s.Messages[KindMaxLength]))
	}
	if s.Pattern != "" {
		constraint, err := Pattern(s.Pattern, s.Messages[KindPattern])
		if err != nil {
			return Rule{}, err
		}
		rule.Constraints = append(rule.Constraints, constraint)
	}
	if len(s.Rows) > 0 {
		rule.Rows = make(map[string]Rule, len(s.Rows))
		for key, rowSpec := range s.Rows {
			rowRule, err := rowSpec.Build()
			if err != nil {
				return Rule{}, fmt.Errorf("row %q: %w", key, err)
			}
			rule.Rows[key] = rowRule
		}
	}
	return rule, nil
}

// Build compiles every entry, joining per-field failures.
func (s RulesetSpec) Build() (Ruleset, error) {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make(Ruleset, len(s))
	var errs []error
	for _, id := range ids {
		rule, err := s[id].Build()
		if err != nil {
			errs = append(errs, fmt.Errorf("field %q: %w", id, err))
			continue
		}
		out[id] = rule
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("validation: build ruleset: %w", err)
	}
	return out, nil
}

// ParseRulesetSpec decodes a JSON or YAML rules document.
func ParseRulesetSpec(data []byte, name string) (RulesetSpec, error) {
	var spec RulesetSpec
	if err := schema.DecodeDocument(data, name, &spec); err != nil {
		return nil, fmt.Errorf("validation: decode rules %s: %w", name, err)
	}
	return spec, nil
}

// ParseRuleset decodes and compiles a rules document.
func ParseRuleset(data []byte, name string) (Ruleset, error) {
	spec, err := ParseRulesetSpec(data, name)
	if err != nil {
		return nil, err
	}
	return spec.Build()
}

// IntPtr is a helper for building RuleSpec length bounds in code.
func IntPtr(n int) *int {
	return &n
}
