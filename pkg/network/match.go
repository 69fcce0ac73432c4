package network

import (
	"github.com/hl/bingo-sub000/pkg/fact"
	"github.com/hl/bingo-sub000/pkg/models"
	"github.com/hl/bingo-sub000/pkg/value"
)

// MatchSimple evaluates a Simple condition against a fact, following the
// operator semantics below. A missing field fails the condition rather than
// erroring. Integers compare against floats by float promotion.
func MatchSimple(c *models.Condition, f *fact.Fact) bool {
	fv, ok := f.Get(c.Field)
	if !ok {
		return false
	}
	return evalOperator(c.Operator, fv, c.Value)
}

func evalOperator(op models.Operator, lhs, rhs value.Value) bool {
	switch op {
	case models.OpEqual:
		return lhs.Equal(rhs)
	case models.OpNotEqual:
		return !lhs.Equal(rhs)
	case models.OpContains:
		return lhs.Contains(rhs)
	case models.OpLessThan, models.OpLessEqual, models.OpGreaterThan, models.OpGreaterEqual:
		cmp, err := lhs.Compare(rhs)
		if err != nil {
			return false
		}
		switch op {
		case models.OpLessThan:
			return cmp < 0
		case models.OpLessEqual:
			return cmp <= 0
		case models.OpGreaterThan:
			return cmp > 0
		case models.OpGreaterEqual:
			return cmp >= 0
		}
	}
	return false
}

// MatchCondition evaluates any condition kind against a fact. Complex
// conditions combine sub-conditions with AND/OR; nested Complex is handled
// recursively so it never crashes. Aggregation/Stream conditions
// have no single-fact truth value and always report false here — the
// compiler routes them to the universal bucket instead of relying on this.
func MatchCondition(c *models.Condition, f *fact.Fact) bool {
	switch c.Kind {
	case models.ConditionSimple:
		return MatchSimple(c, f)
	case models.ConditionComplex:
		switch c.BooleanOp {
		case models.BoolAnd:
			for i := range c.SubConditions {
				if !MatchCondition(&c.SubConditions[i], f) {
					return false
				}
			}
			return true
		case models.BoolOr:
			for i := range c.SubConditions {
				if MatchCondition(&c.SubConditions[i], f) {
					return true
				}
			}
			return false
		}
		return false
	default:
		return false
	}
}
