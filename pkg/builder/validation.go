package builder

import (
	"fmt"

	"github.com/hl/bingo-sub000/pkg/models"
)

// ValidateActionConfig runs strict, opt-in checks beyond models.Action's own
// Validate — catching actions that are structurally valid but would fail at
// fire time in an obviously avoidable way.
func ValidateActionConfig(a *models.Action) error {
	switch a.Kind {
	case models.ActionCreateFact:
		return validateCreateFact(a)
	case models.ActionCallCalculator:
		return validateCallCalculator(a)
	case models.ActionConditionalSet:
		return validateConditionalSet(a)
	default:
		return a.Validate()
	}
}

func validateCreateFact(a *models.Action) error {
	if len(a.Data) == 0 {
		return fmt.Errorf("create fact action requires at least one data field")
	}
	return nil
}

func validateCallCalculator(a *models.Action) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if len(a.CalculatorArgs) == 0 {
		return fmt.Errorf("call calculator %q has no arguments", a.CalculatorName)
	}
	return nil
}

func validateConditionalSet(a *models.Action) error {
	if a.Condition == nil {
		return fmt.Errorf("conditional set action requires a condition")
	}
	return a.Condition.Validate()
}
