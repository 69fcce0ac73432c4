// Package builder provides a fluent API for constructing models.Rule values,
// so callers don't need to hand-assemble condition/action slices.
package builder

import (
	"fmt"

	"github.com/hl/bingo-sub000/pkg/models"
)

// RuleBuilder builds rule definitions.
type RuleBuilder struct {
	id         uint64
	name       string
	conditions []models.Condition
	actions    []models.Action
	strict     bool
	err        error
}

// RuleOption is a function that configures a RuleBuilder.
type RuleOption func(*RuleBuilder) error

// NewRule creates a new rule builder.
func NewRule(id uint64, name string, opts ...RuleOption) *RuleBuilder {
	rb := &RuleBuilder{id: id, name: name}

	for _, opt := range opts {
		if err := opt(rb); err != nil {
			rb.err = err
			return rb
		}
	}

	return rb
}

// Build constructs the final Rule. In addition to models.Rule's own
// Validate, a rule built with WithStrictValidation also runs the
// per-action-kind config checks in validation.go.
func (rb *RuleBuilder) Build() (*models.Rule, error) {
	if rb.err != nil {
		return nil, rb.err
	}

	rule := &models.Rule{
		ID:         rb.id,
		Name:       rb.name,
		Conditions: rb.conditions,
		Actions:    rb.actions,
	}

	if err := rule.Validate(); err != nil {
		return nil, err
	}

	if rb.strict {
		for i, a := range rule.Actions {
			if err := ValidateActionConfig(&a); err != nil {
				return nil, fmt.Errorf("action %d: %w", i, err)
			}
		}
	}

	return rule, nil
}

// WithStrictValidation enables the additional per-action-kind config checks
// in validation.go at Build time.
func WithStrictValidation() RuleOption {
	return func(rb *RuleBuilder) error {
		rb.strict = true
		return nil
	}
}
