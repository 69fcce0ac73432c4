package action

import (
	"fmt"

	"github.com/hl/bingo-sub000/pkg/fact"
	"github.com/hl/bingo-sub000/pkg/formula"
	"github.com/hl/bingo-sub000/pkg/models"
	"github.com/hl/bingo-sub000/pkg/network"
	"github.com/hl/bingo-sub000/pkg/value"
)

// createdFactIDFloor is the first id assigned to a fact synthesized by
// CreateFact, kept well above any id a caller is expected to assign
// directly so the two ranges never collide.
const createdFactIDFloor = 1 << 40

// Executor applies a matched rule's actions against a token's primary
// fact, in declaration order, mutating the fact store under copy-on-write
// semantics and accumulating any facts a CreateFact action synthesizes.
type Executor struct {
	Store       *fact.Store
	Calculators *Registry
	ExprEngine  *formula.ExprEngine

	nextCreatedID fact.ID
	createdFacts  []*fact.Fact
}

// NewExecutor builds an executor over store, with its own calculator
// registry and expr-lang fallback engine.
func NewExecutor(store *fact.Store) *Executor {
	return &Executor{
		Store:         store,
		Calculators:   NewRegistry(),
		ExprEngine:    formula.NewExprEngine(100),
		nextCreatedID: createdFactIDFloor,
	}
}

// Apply executes every action of rule against tok's primary fact, in
// declared order, returning one Result per action.
func (e *Executor) Apply(rule *models.Rule, tok network.Token) []Result {
	primaryID, ok := tok.Primary()
	if !ok {
		return []Result{logged(0, "token has no primary fact", nil)}
	}

	results := make([]Result, 0, len(rule.Actions))
	for _, act := range rule.Actions {
		results = append(results, e.applyOne(act, primaryID))
	}
	return results
}

func (e *Executor) applyOne(act models.Action, primaryID fact.ID) Result {
	switch act.Kind {
	case models.ActionSetField:
		return e.setField(primaryID, act.Field, act.Value)
	case models.ActionConditionalSet:
		return e.conditionalSet(act, primaryID)
	case models.ActionIncrementField:
		return e.incrementField(primaryID, act.Field, act.Value)
	case models.ActionAppendToArray:
		return e.appendToArray(primaryID, act.Field, act.Value)
	case models.ActionCreateFact:
		return e.createFact(act.Data)
	case models.ActionUpdateFact:
		return e.updateFact(primaryID, act.IDField, act.Updates)
	case models.ActionDeleteFact:
		return e.deleteFact(primaryID, act.IDField)
	case models.ActionFormula:
		return e.formula(act, primaryID)
	case models.ActionCallCalculator:
		return e.callCalculator(act, primaryID)
	case models.ActionLog:
		return logged(act.Kind, act.Message, nil)
	case models.ActionTriggerAlert:
		return logged(act.Kind, act.Message, nil)
	case models.ActionSendNotification:
		return logged(act.Kind, act.Message, nil)
	case models.ActionEmitWindow:
		return logged(act.Kind, "stream windowing is an optional extension not driven by the fact pipeline", nil)
	default:
		return logged(act.Kind, "unknown action kind", models.ErrInvalidCondition)
	}
}

func (e *Executor) setField(id fact.ID, field string, v value.Value) Result {
	f, ok := e.Store.Get(id)
	if !ok {
		return logged(models.ActionSetField, "fact not found", models.ErrFactNotFound)
	}
	next := f.Clone()
	next.Data.Fields[field] = v
	e.Store.Insert(next)
	return Result{Kind: ResultFieldSet, ActionKind: models.ActionSetField, Field: field, Value: v, FactID: id}
}

func (e *Executor) conditionalSet(act models.Action, primaryID fact.ID) Result {
	f, ok := e.Store.Get(primaryID)
	if !ok {
		return logged(models.ActionConditionalSet, "fact not found", models.ErrFactNotFound)
	}
	if act.Condition != nil && !network.MatchCondition(act.Condition, f) {
		return logged(models.ActionConditionalSet, "condition not satisfied, field left unchanged", nil)
	}
	return e.setField(primaryID, act.Field, act.Value)
}

func (e *Executor) incrementField(id fact.ID, field string, amount value.Value) Result {
	f, ok := e.Store.Get(id)
	if !ok {
		return logged(models.ActionIncrementField, "fact not found", models.ErrFactNotFound)
	}
	current, ok := f.Get(field)
	if !ok {
		return logged(models.ActionIncrementField, "field missing", models.ErrMissingField)
	}
	sum, err := addNumeric(current, amount)
	if err != nil {
		return logged(models.ActionIncrementField, err.Error(), models.ErrTypeMismatch)
	}
	next := f.Clone()
	next.Data.Fields[field] = sum
	e.Store.Insert(next)
	return Result{Kind: ResultFieldSet, ActionKind: models.ActionIncrementField, Field: field, Value: sum, FactID: id}
}

func addNumeric(a, b value.Value) (value.Value, error) {
	ai, aok := a.AsInteger()
	bi, bok := b.AsInteger()
	if aok && bok {
		return value.Integer(ai + bi), nil
	}
	af, aok := a.AsFloat()
	bf, bok := b.AsFloat()
	if aok && bok {
		return value.Float(af + bf), nil
	}
	return value.Null(), fmt.Errorf("increment: non-numeric field or amount")
}

func (e *Executor) appendToArray(id fact.ID, field string, v value.Value) Result {
	f, ok := e.Store.Get(id)
	if !ok {
		return logged(models.ActionAppendToArray, "fact not found", models.ErrFactNotFound)
	}
	current, ok := f.Get(field)
	var arr []value.Value
	if ok {
		existing, isArray := current.AsArray()
		if !isArray {
			return logged(models.ActionAppendToArray, "field is not an array", models.ErrTypeMismatch)
		}
		arr = existing
	}
	next := f.Clone()
	updated := make([]value.Value, len(arr)+1)
	copy(updated, arr)
	updated[len(arr)] = v
	next.Data.Fields[field] = value.Array(updated)
	e.Store.Insert(next)
	return Result{Kind: ResultFieldSet, ActionKind: models.ActionAppendToArray, Field: field, Value: next.Data.Fields[field], FactID: id}
}

func (e *Executor) createFact(data map[string]value.Value) Result {
	id := e.nextCreatedID
	e.nextCreatedID++
	fields := make(map[string]value.Value, len(data))
	for k, v := range data {
		fields[k] = v
	}
	newFact := fact.NewFact(id, fields)
	e.Store.Insert(newFact)
	e.createdFacts = append(e.createdFacts, newFact)
	return Result{Kind: ResultFactCreated, ActionKind: models.ActionCreateFact, FactID: id}
}

func (e *Executor) updateFact(primaryID fact.ID, idField string, updates map[string]value.Value) Result {
	primary, ok := e.Store.Get(primaryID)
	if !ok {
		return logged(models.ActionUpdateFact, "primary fact not found", models.ErrFactNotFound)
	}
	ref, ok := primary.Get(idField)
	if !ok {
		return logged(models.ActionUpdateFact, "id field missing on primary fact", models.ErrMissingField)
	}
	targetID, ok := refFactID(ref)
	if !ok {
		return logged(models.ActionUpdateFact, "id field does not resolve to a fact id", models.ErrTypeMismatch)
	}
	target, ok := e.Store.Get(targetID)
	if !ok {
		return logged(models.ActionUpdateFact, "target fact not found", models.ErrFactNotFound)
	}
	next := target.Clone()
	for k, v := range updates {
		next.Data.Fields[k] = v
	}
	e.Store.Insert(next)
	return Result{Kind: ResultFactUpdated, ActionKind: models.ActionUpdateFact, FactID: targetID}
}

func (e *Executor) deleteFact(primaryID fact.ID, idField string) Result {
	primary, ok := e.Store.Get(primaryID)
	if !ok {
		return logged(models.ActionDeleteFact, "primary fact not found", models.ErrFactNotFound)
	}
	ref, ok := primary.Get(idField)
	if !ok {
		return logged(models.ActionDeleteFact, "id field missing on primary fact", models.ErrMissingField)
	}
	targetID, ok := refFactID(ref)
	if !ok {
		return logged(models.ActionDeleteFact, "id field does not resolve to a fact id", models.ErrTypeMismatch)
	}
	e.Store.Remove(targetID)
	return Result{Kind: ResultFactDeleted, ActionKind: models.ActionDeleteFact, FactID: targetID}
}

func refFactID(v value.Value) (fact.ID, bool) {
	if iv, ok := v.AsInteger(); ok {
		return fact.ID(iv), true
	}
	return 0, false
}

func (e *Executor) formula(act models.Action, primaryID fact.ID) Result {
	f, ok := e.Store.Get(primaryID)
	if !ok {
		return logged(models.ActionFormula, "fact not found", models.ErrFactNotFound)
	}

	var result value.Value
	var err error
	if act.Engine == models.FormulaEngineExpr {
		result, err = e.ExprEngine.Evaluate(act.Expression, f)
	} else {
		result, err = formula.Evaluate(act.Expression, f)
	}
	if err != nil {
		return logged(models.ActionFormula, err.Error(), models.ErrFormulaEval)
	}

	next := f.Clone()
	next.Data.Fields[act.OutputField] = result
	e.Store.Insert(next)
	return Result{Kind: ResultFormulaApplied, ActionKind: models.ActionFormula, Field: act.OutputField, Value: result, FactID: primaryID}
}

func (e *Executor) callCalculator(act models.Action, primaryID fact.ID) Result {
	f, ok := e.Store.Get(primaryID)
	if !ok {
		return logged(models.ActionCallCalculator, "fact not found", models.ErrFactNotFound)
	}
	calc, err := e.Calculators.Get(act.CalculatorName)
	if err != nil {
		return logged(models.ActionCallCalculator, err.Error(), models.ErrCalculatorPlugin)
	}
	result, err := calc.Calculate(f.Data.Fields, act.CalculatorArgs)
	if err != nil {
		return logged(models.ActionCallCalculator, err.Error(), models.ErrCalculatorPlugin)
	}
	return Result{Kind: ResultFieldSet, ActionKind: models.ActionCallCalculator, Value: result, FactID: primaryID}
}

// CreatedFacts returns every fact synthesized by CreateFact actions since
// the last ClearCreatedFacts call. These are not re-fed into the network
// within the same process_facts call; the caller re-submits them in a
// later batch.
func (e *Executor) CreatedFacts() []*fact.Fact {
	return e.createdFacts
}

// ClearCreatedFacts empties the created-facts side-buffer.
func (e *Executor) ClearCreatedFacts() {
	e.createdFacts = nil
}
