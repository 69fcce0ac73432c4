package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hl/bingo-sub000/pkg/models"
	"github.com/hl/bingo-sub000/pkg/value"
)

func TestValidateActionConfig_CreateFactRequiresData(t *testing.T) {
	err := ValidateActionConfig(&models.Action{Kind: models.ActionCreateFact})
	assert.Error(t, err)
}

func TestValidateActionConfig_CreateFactWithData(t *testing.T) {
	err := ValidateActionConfig(&models.Action{
		Kind: models.ActionCreateFact,
		Data: map[string]value.Value{"kind": value.String("audit")},
	})
	assert.NoError(t, err)
}

func TestValidateActionConfig_CallCalculatorRequiresName(t *testing.T) {
	err := ValidateActionConfig(&models.Action{Kind: models.ActionCallCalculator})
	assert.Error(t, err)
}

func TestValidateActionConfig_CallCalculatorRequiresArgs(t *testing.T) {
	err := ValidateActionConfig(&models.Action{Kind: models.ActionCallCalculator, CalculatorName: "risk_score"})
	assert.Error(t, err)
}

func TestValidateActionConfig_CallCalculatorWellFormed(t *testing.T) {
	err := ValidateActionConfig(&models.Action{
		Kind:           models.ActionCallCalculator,
		CalculatorName: "risk_score",
		CalculatorArgs: map[string]value.Value{"amount": value.Integer(10)},
	})
	assert.NoError(t, err)
}

func TestValidateActionConfig_ConditionalSetRequiresCondition(t *testing.T) {
	err := ValidateActionConfig(&models.Action{Kind: models.ActionConditionalSet, Field: "tier"})
	assert.Error(t, err)
}

func TestValidateActionConfig_ConditionalSetWellFormed(t *testing.T) {
	cond := models.Simple("total", models.OpGreaterThan, value.Integer(100))
	err := ValidateActionConfig(&models.Action{Kind: models.ActionConditionalSet, Field: "tier", Condition: &cond})
	assert.NoError(t, err)
}

func TestValidateActionConfig_DefaultFallsBackToActionValidate(t *testing.T) {
	err := ValidateActionConfig(&models.Action{Kind: models.ActionSetField})
	assert.Error(t, err)
}

func TestValidateActionConfig_LogActionHasNoExtraRequirements(t *testing.T) {
	err := ValidateActionConfig(&models.Action{Kind: models.ActionLog, Message: "hello"})
	assert.NoError(t, err)
}
