package network

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hl/bingo-sub000/pkg/fact"
	"github.com/hl/bingo-sub000/pkg/models"
	"github.com/hl/bingo-sub000/pkg/value"
)

func TestInferJoinSpecs_SameFieldName(t *testing.T) {
	left := models.Simple("entity_id", models.OpEqual, value.String("x"))
	right := models.Simple("entity_id", models.OpGreaterThan, value.Integer(1))

	specs := InferJoinSpecs(&left, &right)
	assert.Len(t, specs, 1)
	assert.Equal(t, "entity_id", specs[0].LeftField)
	assert.Equal(t, "entity_id", specs[0].RightField)
}

func TestInferJoinSpecs_KnownCrossEntityPair(t *testing.T) {
	left := models.Simple("user_id", models.OpEqual, value.String("x"))
	right := models.Simple("customer_id", models.OpEqual, value.String("x"))

	specs := InferJoinSpecs(&left, &right)
	assert.Len(t, specs, 1)
}

func TestInferJoinSpecs_NoRelationIsCartesian(t *testing.T) {
	left := models.Simple("color", models.OpEqual, value.String("red"))
	right := models.Simple("size", models.OpEqual, value.Integer(10))

	specs := InferJoinSpecs(&left, &right)
	assert.Empty(t, specs)
}

func TestRuleBetaMemory_TwoConditionJoinCompletes(t *testing.T) {
	store := fact.NewStore()
	orderFact := fact.NewFact(1, map[string]value.Value{"entity_id": value.String("e1"), "status": value.String("open")})
	paymentFact := fact.NewFact(2, map[string]value.Value{"entity_id": value.String("e1"), "amount": value.Integer(100)})
	store.Insert(orderFact)
	store.Insert(paymentFact)

	conditions := []models.Condition{
		models.Simple("entity_id", models.OpEqual, value.String("e1")),
		models.Simple("entity_id", models.OpEqual, value.String("e1")),
	}
	mem := NewRuleBetaMemory(42, conditions, 0)
	now := time.Now().UTC()

	completed := mem.Activate(0, orderFact, store, now)
	assert.Empty(t, completed)

	completed = mem.Activate(1, paymentFact, store, now)
	assert.Len(t, completed, 1)
	assert.Equal(t, uint64(42), completed[0].RuleID)
	assert.True(t, completed[0].Complete())
}

func TestRuleBetaMemory_NonMatchingJoinStaysPartial(t *testing.T) {
	store := fact.NewStore()
	f1 := fact.NewFact(1, map[string]value.Value{"entity_id": value.String("e1")})
	f2 := fact.NewFact(2, map[string]value.Value{"entity_id": value.String("e2")})
	store.Insert(f1)
	store.Insert(f2)

	conditions := []models.Condition{
		models.Simple("entity_id", models.OpEqual, value.String("e1")),
		models.Simple("entity_id", models.OpEqual, value.String("e2")),
	}
	mem := NewRuleBetaMemory(1, conditions, 0)
	now := time.Now().UTC()

	mem.Activate(0, f1, store, now)
	completed := mem.Activate(1, f2, store, now)

	assert.Empty(t, completed)
	assert.Len(t, mem.Partial, 1)
}

func TestRuleBetaMemory_ExpireDropsOldPartials(t *testing.T) {
	conditions := []models.Condition{
		models.Simple("a", models.OpEqual, value.Integer(1)),
		models.Simple("b", models.OpEqual, value.Integer(1)),
	}
	mem := NewRuleBetaMemory(1, conditions, 10*time.Millisecond)
	store := fact.NewStore()
	f1 := fact.NewFact(1, map[string]value.Value{"a": value.Integer(1)})
	store.Insert(f1)

	old := time.Now().UTC().Add(-time.Hour)
	mem.Activate(0, f1, store, old)
	assert.Len(t, mem.Partial, 1)

	dropped := mem.Expire(time.Now().UTC())
	assert.Equal(t, 1, dropped)
	assert.Empty(t, mem.Partial)
}

func TestRuleBetaMemory_RemoveFactDropsReferencingMatches(t *testing.T) {
	conditions := []models.Condition{
		models.Simple("a", models.OpEqual, value.Integer(1)),
		models.Simple("b", models.OpEqual, value.Integer(1)),
	}
	mem := NewRuleBetaMemory(1, conditions, 0)
	store := fact.NewStore()
	f1 := fact.NewFact(7, map[string]value.Value{"a": value.Integer(1)})
	store.Insert(f1)
	mem.Activate(0, f1, store, time.Now().UTC())

	mem.RemoveFact(7)
	assert.Empty(t, mem.Partial)
}

func TestRuleBetaMemory_DrainCompletedClears(t *testing.T) {
	conditions := []models.Condition{models.Simple("a", models.OpEqual, value.Integer(1))}
	mem := NewRuleBetaMemory(1, conditions, 0)
	store := fact.NewStore()
	f1 := fact.NewFact(1, map[string]value.Value{"a": value.Integer(1)})
	store.Insert(f1)

	mem.Activate(0, f1, store, time.Now().UTC())
	drained := mem.DrainCompleted()
	assert.Len(t, drained, 1)
	assert.Empty(t, mem.DrainCompleted())
}
