package builder

import (
	"fmt"

	"github.com/hl/bingo-sub000/pkg/models"
	"github.com/hl/bingo-sub000/pkg/value"
)

// WithAction appends an already-constructed action.
func WithAction(a models.Action) RuleOption {
	return func(rb *RuleBuilder) error {
		rb.actions = append(rb.actions, a)
		return nil
	}
}

// WithSetFieldAction appends a SetField action.
func WithSetFieldAction(field string, v value.Value) RuleOption {
	return func(rb *RuleBuilder) error {
		if field == "" {
			return fmt.Errorf("set field action requires a field")
		}
		rb.actions = append(rb.actions, models.Action{Kind: models.ActionSetField, Field: field, Value: v})
		return nil
	}
}

// WithIncrementFieldAction appends an IncrementField action.
func WithIncrementFieldAction(field string, by value.Value) RuleOption {
	return func(rb *RuleBuilder) error {
		if field == "" {
			return fmt.Errorf("increment field action requires a field")
		}
		rb.actions = append(rb.actions, models.Action{Kind: models.ActionIncrementField, Field: field, Value: by})
		return nil
	}
}

// WithAppendToArrayAction appends an AppendToArray action.
func WithAppendToArrayAction(field string, v value.Value) RuleOption {
	return func(rb *RuleBuilder) error {
		if field == "" {
			return fmt.Errorf("append to array action requires a field")
		}
		rb.actions = append(rb.actions, models.Action{Kind: models.ActionAppendToArray, Field: field, Value: v})
		return nil
	}
}

// WithCreateFactAction appends a CreateFact action building a new fact from
// data.
func WithCreateFactAction(data map[string]value.Value) RuleOption {
	return func(rb *RuleBuilder) error {
		rb.actions = append(rb.actions, models.Action{Kind: models.ActionCreateFact, Data: data})
		return nil
	}
}

// WithFormulaAction appends a Formula action evaluating expression with
// engine and storing the result in outputField.
func WithFormulaAction(expression, outputField string, engine models.FormulaEngine) RuleOption {
	return func(rb *RuleBuilder) error {
		if expression == "" {
			return fmt.Errorf("formula action requires an expression")
		}
		if outputField == "" {
			return fmt.Errorf("formula action requires an output field")
		}
		rb.actions = append(rb.actions, models.Action{
			Kind:        models.ActionFormula,
			Expression:  expression,
			OutputField: outputField,
			Engine:      engine,
		})
		return nil
	}
}

// WithLogAction appends a Log action.
func WithLogAction(message string) RuleOption {
	return func(rb *RuleBuilder) error {
		rb.actions = append(rb.actions, models.Action{Kind: models.ActionLog, Message: message})
		return nil
	}
}

// WithUpdateFactAction appends an UpdateFact action, identifying the target
// fact by idField and applying updates.
func WithUpdateFactAction(idField string, updates map[string]value.Value) RuleOption {
	return func(rb *RuleBuilder) error {
		if idField == "" {
			return fmt.Errorf("update fact action requires an id field")
		}
		rb.actions = append(rb.actions, models.Action{Kind: models.ActionUpdateFact, IDField: idField, Updates: updates})
		return nil
	}
}

// WithDeleteFactAction appends a DeleteFact action, identifying the target
// fact by idField.
func WithDeleteFactAction(idField string) RuleOption {
	return func(rb *RuleBuilder) error {
		if idField == "" {
			return fmt.Errorf("delete fact action requires an id field")
		}
		rb.actions = append(rb.actions, models.Action{Kind: models.ActionDeleteFact, IDField: idField})
		return nil
	}
}

// WithTriggerAlertAction appends a TriggerAlert action.
func WithTriggerAlertAction(message string) RuleOption {
	return func(rb *RuleBuilder) error {
		rb.actions = append(rb.actions, models.Action{Kind: models.ActionTriggerAlert, Message: message})
		return nil
	}
}

// WithSendNotificationAction appends a SendNotification action.
func WithSendNotificationAction(message string) RuleOption {
	return func(rb *RuleBuilder) error {
		rb.actions = append(rb.actions, models.Action{Kind: models.ActionSendNotification, Message: message})
		return nil
	}
}

// WithCallCalculatorAction appends a CallCalculator action invoking a
// registered calculator by name with args.
func WithCallCalculatorAction(name string, args map[string]value.Value) RuleOption {
	return func(rb *RuleBuilder) error {
		if name == "" {
			return fmt.Errorf("call calculator action requires a calculator name")
		}
		rb.actions = append(rb.actions, models.Action{Kind: models.ActionCallCalculator, CalculatorName: name, CalculatorArgs: args})
		return nil
	}
}

// WithConditionalSetAction appends a ConditionalSet action: field is set to
// v only when cond matches the current fact.
func WithConditionalSetAction(field string, v value.Value, cond models.Condition) RuleOption {
	return func(rb *RuleBuilder) error {
		if field == "" {
			return fmt.Errorf("conditional set action requires a field")
		}
		rb.actions = append(rb.actions, models.Action{Kind: models.ActionConditionalSet, Field: field, Value: v, Condition: &cond})
		return nil
	}
}

// WithEmitWindowAction appends an EmitWindow action flushing an aggregation
// window's accumulated value into windowField.
func WithEmitWindowAction(windowField string) RuleOption {
	return func(rb *RuleBuilder) error {
		if windowField == "" {
			return fmt.Errorf("emit window action requires a window field")
		}
		rb.actions = append(rb.actions, models.Action{Kind: models.ActionEmitWindow, WindowField: windowField})
		return nil
	}
}
