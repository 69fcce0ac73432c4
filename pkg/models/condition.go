package models

import "github.com/hl/bingo-sub000/pkg/value"

// Operator enumerates the comparison operators a Simple condition may use.
type Operator string

const (
	OpEqual        Operator = "="
	OpNotEqual     Operator = "!="
	OpLessThan     Operator = "<"
	OpLessEqual    Operator = "<="
	OpGreaterThan  Operator = ">"
	OpGreaterEqual Operator = ">="
	OpContains     Operator = "contains"
)

func (o Operator) valid() bool {
	switch o {
	case OpEqual, OpNotEqual, OpLessThan, OpLessEqual, OpGreaterThan, OpGreaterEqual, OpContains:
		return true
	default:
		return false
	}
}

// IsEquality reports whether the operator can participate in the alpha
// equality index; every other operator (and every non-Simple condition)
// falls back to the universal bucket.
func (o Operator) IsEquality() bool { return o == OpEqual }

// ConditionKind tags the condition variant.
type ConditionKind int

const (
	ConditionSimple ConditionKind = iota
	ConditionComplex
	ConditionAggregation
	ConditionStream
)

// BooleanOp is the combinator for a Complex condition's sub-conditions.
type BooleanOp string

const (
	BoolAnd BooleanOp = "AND"
	BoolOr  BooleanOp = "OR"
)

// AggregationFunc names the reducer applied by an Aggregation condition
// (optional extension).
type AggregationFunc string

const (
	AggSum   AggregationFunc = "sum"
	AggCount AggregationFunc = "count"
	AggAvg   AggregationFunc = "avg"
	AggMin   AggregationFunc = "min"
	AggMax   AggregationFunc = "max"
)

// WindowKind names the stream windowing strategy (optional extension).
type WindowKind string

const (
	WindowTumbling WindowKind = "tumbling"
	WindowSliding  WindowKind = "sliding"
	WindowSession  WindowKind = "session"
)

// Condition is the sum type over Simple/Complex/Aggregation/Stream
// conditions. Only the field matching Kind is meaningful.
type Condition struct {
	Kind ConditionKind `json:"kind"`

	// Simple
	Field    string      `json:"field,omitempty"`
	Operator Operator    `json:"operator,omitempty"`
	Value    value.Value `json:"-"`

	// Complex
	BooleanOp     BooleanOp   `json:"boolean_op,omitempty"`
	SubConditions []Condition `json:"sub_conditions,omitempty"`

	// Aggregation (optional extension)
	AggregationFunc  AggregationFunc `json:"aggregation_func,omitempty"`
	AggregationField string          `json:"aggregation_field,omitempty"`
	AggregationOp    Operator        `json:"aggregation_op,omitempty"`
	AggregationValue value.Value     `json:"-"`

	// Stream (optional extension)
	Window     WindowKind `json:"window,omitempty"`
	WindowSize int64      `json:"window_size,omitempty"`
}

// Simple builds a Simple condition.
func Simple(field string, op Operator, v value.Value) Condition {
	return Condition{Kind: ConditionSimple, Field: field, Operator: op, Value: v}
}

// Complex builds a Complex condition combining sub-conditions with a
// boolean operator. Only single-level Complex expansion compiles directly
// into the network; nested Complex is accepted (never crashes) but routes
// to the universal alpha bucket.
func Complex(op BooleanOp, subs ...Condition) Condition {
	return Condition{Kind: ConditionComplex, BooleanOp: op, SubConditions: subs}
}

// Validate checks structural well-formedness at rule-compilation time.
func (c *Condition) Validate() error {
	switch c.Kind {
	case ConditionSimple:
		if c.Field == "" {
			return &ValidationError{Field: "field", Message: "simple condition requires a field"}
		}
		if !c.Operator.valid() {
			return ErrInvalidOperator
		}
		return nil
	case ConditionComplex:
		if len(c.SubConditions) == 0 {
			return &ValidationError{Field: "sub_conditions", Message: "complex condition requires at least one sub-condition"}
		}
		if c.BooleanOp != BoolAnd && c.BooleanOp != BoolOr {
			return &ValidationError{Field: "boolean_op", Message: "must be AND or OR"}
		}
		return nil
	case ConditionAggregation, ConditionStream:
		// Optional extensions: structurally permissive, never crash. The
		// compiler routes these to the universal bucket unconditionally.
		return nil
	default:
		return ErrInvalidCondition
	}
}

// IsSingleLevelComplex reports whether every sub-condition of a Complex
// condition is itself Simple — the only Complex shape the compiler
// expands inline rather than pushing to the universal bucket.
func (c *Condition) IsSingleLevelComplex() bool {
	if c.Kind != ConditionComplex {
		return false
	}
	for _, sub := range c.SubConditions {
		if sub.Kind != ConditionSimple {
			return false
		}
	}
	return true
}

// Signature returns a stable string identifying this condition's shape,
// used both for alpha-node sharing and pattern-cache keys.
func (c *Condition) Signature() string {
	switch c.Kind {
	case ConditionSimple:
		return "simple:" + c.Field + ":" + string(c.Operator) + ":" + c.Value.ToString()
	case ConditionComplex:
		sig := "complex:" + string(c.BooleanOp) + "["
		for i, sub := range c.SubConditions {
			if i > 0 {
				sig += ","
			}
			sig += sub.Signature()
		}
		return sig + "]"
	case ConditionAggregation:
		return "agg:" + string(c.AggregationFunc) + ":" + c.AggregationField
	case ConditionStream:
		return "stream:" + string(c.Window) + ":" + uitoa(uint64(c.WindowSize))
	default:
		return "unknown"
	}
}
