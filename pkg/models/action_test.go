package models

import (
	"testing"

	"github.com/hl/bingo-sub000/pkg/value"
	"github.com/stretchr/testify/assert"
)

func TestActionValidate_SetFieldRequiresField(t *testing.T) {
	a := Action{Kind: ActionSetField}
	assert.Error(t, a.Validate())

	a = Action{Kind: ActionSetField, Field: "processed", Value: value.Boolean(true)}
	assert.NoError(t, a.Validate())
}

func TestActionValidate_FormulaRequiresExpressionAndOutput(t *testing.T) {
	a := Action{Kind: ActionFormula}
	assert.Error(t, a.Validate())

	a = Action{Kind: ActionFormula, Expression: "amount * 2"}
	assert.Error(t, a.Validate())

	a = Action{Kind: ActionFormula, Expression: "amount * 2", OutputField: "total"}
	assert.NoError(t, a.Validate())
}

func TestActionValidate_RecordOnlyActionsNeedNoFields(t *testing.T) {
	assert.NoError(t, (&Action{Kind: ActionLog, Message: "hi"}).Validate())
	assert.NoError(t, (&Action{Kind: ActionTriggerAlert}).Validate())
}

func TestActionKindString(t *testing.T) {
	assert.Equal(t, "SetField", ActionSetField.String())
	assert.Equal(t, "CallCalculator", ActionCallCalculator.String())
}
