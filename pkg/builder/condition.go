package builder

import (
	"fmt"

	"github.com/hl/bingo-sub000/pkg/models"
	"github.com/hl/bingo-sub000/pkg/value"
)

// WithCondition appends an already-constructed condition.
func WithCondition(c models.Condition) RuleOption {
	return func(rb *RuleBuilder) error {
		rb.conditions = append(rb.conditions, c)
		return nil
	}
}

// WithSimpleCondition appends a Simple condition comparing field against v
// using op.
func WithSimpleCondition(field string, op models.Operator, v value.Value) RuleOption {
	return func(rb *RuleBuilder) error {
		if field == "" {
			return fmt.Errorf("condition field cannot be empty")
		}
		rb.conditions = append(rb.conditions, models.Simple(field, op, v))
		return nil
	}
}

// WithComplexCondition appends a Complex condition combining subs with op.
func WithComplexCondition(op models.BooleanOp, subs ...models.Condition) RuleOption {
	return func(rb *RuleBuilder) error {
		if len(subs) == 0 {
			return fmt.Errorf("complex condition requires at least one sub-condition")
		}
		rb.conditions = append(rb.conditions, models.Complex(op, subs...))
		return nil
	}
}

// WhenEqual is sugar for WithSimpleCondition(field, OpEqual, v).
func WhenEqual(field string, v value.Value) RuleOption {
	return WithSimpleCondition(field, models.OpEqual, v)
}

// WhenNotEqual is sugar for WithSimpleCondition(field, OpNotEqual, v).
func WhenNotEqual(field string, v value.Value) RuleOption {
	return WithSimpleCondition(field, models.OpNotEqual, v)
}

// WhenGreaterThan is sugar for WithSimpleCondition(field, OpGreaterThan, v).
func WhenGreaterThan(field string, v value.Value) RuleOption {
	return WithSimpleCondition(field, models.OpGreaterThan, v)
}

// WhenLessThan is sugar for WithSimpleCondition(field, OpLessThan, v).
func WhenLessThan(field string, v value.Value) RuleOption {
	return WithSimpleCondition(field, models.OpLessThan, v)
}

// WhenContains is sugar for WithSimpleCondition(field, OpContains, v).
func WhenContains(field string, v value.Value) RuleOption {
	return WithSimpleCondition(field, models.OpContains, v)
}

// WhenAllOf is sugar for WithComplexCondition(BoolAnd, subs...).
func WhenAllOf(subs ...models.Condition) RuleOption {
	return WithComplexCondition(models.BoolAnd, subs...)
}

// WhenAnyOf is sugar for WithComplexCondition(BoolOr, subs...).
func WhenAnyOf(subs ...models.Condition) RuleOption {
	return WithComplexCondition(models.BoolOr, subs...)
}
