package orchestrator

import (
	"fmt"

	"github.com/goliatone/go-formschema/pkg/form"
	"github.com/goliatone/go-formschema/pkg/schema"
	"github.com/goliatone/go-formschema/pkg/validation"
	"github.com/goliatone/go-formschema/pkg/values"
)

// Definition is everything needed to start a form session.
type Definition struct {
	Schema schema.Schema          `json:"schema"`
	Rules  validation.RulesetSpec `json:"rules,omitempty"`
	Values values.Values          `json:"values"`
}

// Ruleset compiles the declarative rules.
func (d Definition) Ruleset() (validation.Ruleset, error) {
	if len(d.Rules) == 0 {
		return validation.Ruleset{}, nil
	}
	return d.Rules.Build()
}

// Check validates the schema against the initial values and compiles the
// rules, reporting the first failure.
func (d Definition) Check() error {
	if err := schema.Check(d.Schema, d.Values); err != nil {
		return err
	}
	_, err := d.Ruleset()
	return err
}

// NewForm starts a session on a copy of the initial values. Rules are
// prepended so callers may still override them.
func (d Definition) NewForm(opts ...form.Option) (*form.Form, error) {
	rules, err := d.Ruleset()
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	all := append([]form.Option{form.WithRules(rules)}, opts...)
	return form.New(d.Schema, d.Values.Clone(), all...)
}
