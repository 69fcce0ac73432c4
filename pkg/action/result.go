package action

import (
	"github.com/hl/bingo-sub000/pkg/fact"
	"github.com/hl/bingo-sub000/pkg/models"
	"github.com/hl/bingo-sub000/pkg/value"
)

// ResultKind tags the outcome of applying a single action.
type ResultKind int

const (
	ResultFieldSet ResultKind = iota
	ResultFactCreated
	ResultFactUpdated
	ResultFactDeleted
	ResultFormulaApplied
	ResultLogged
)

// Result is one action's outcome, appended to a rule's
// RuleExecutionResult.ActionsExecuted in declaration order. Action-level
// failures (type mismatch, missing field, formula error) surface as a
// Logged result rather than aborting the remaining actions.
type Result struct {
	Kind       ResultKind
	ActionKind models.ActionKind
	Field      string
	Value      value.Value
	FactID     fact.ID
	Message    string
	Err        error
}

func logged(actionKind models.ActionKind, message string, err error) Result {
	return Result{Kind: ResultLogged, ActionKind: actionKind, Message: message, Err: err}
}
