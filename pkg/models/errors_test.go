package models

import (
	"errors"
	"testing"
)

func TestRuleCompilationError(t *testing.T) {
	baseErr := ErrEmptyConditions
	compErr := &RuleCompilationError{
		RuleID: 7,
		Reason: "validation",
		Err:    baseErr,
	}

	expectedMsg := "rule 7 compilation failed (validation): rule has no conditions"
	if compErr.Error() != expectedMsg {
		t.Errorf("Error() = %s, want %s", compErr.Error(), expectedMsg)
	}

	if unwrapped := compErr.Unwrap(); unwrapped != baseErr {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, baseErr)
	}

	if !errors.Is(compErr, ErrEmptyConditions) {
		t.Error("errors.Is() should return true for wrapped error")
	}
}

func TestNetworkIntegrityError(t *testing.T) {
	baseErr := ErrNodeNotFound
	netErr := &NetworkIntegrityError{NodeID: 42, Err: baseErr}

	expectedMsg := "network integrity violation at node 42: network node not found"
	if netErr.Error() != expectedMsg {
		t.Errorf("Error() = %s, want %s", netErr.Error(), expectedMsg)
	}
	if !errors.Is(netErr, ErrNodeNotFound) {
		t.Error("errors.Is() should return true for wrapped error")
	}
}

func TestActionError(t *testing.T) {
	baseErr := ErrTypeMismatch
	actErr := &ActionError{RuleID: 3, Action: "IncrementField", Err: baseErr}

	expectedMsg := "rule 3 action IncrementField: action type mismatch"
	if actErr.Error() != expectedMsg {
		t.Errorf("Error() = %s, want %s", actErr.Error(), expectedMsg)
	}
	if !errors.Is(actErr, ErrTypeMismatch) {
		t.Error("errors.Is() should return true for wrapped error")
	}
}

func TestValidationError(t *testing.T) {
	valErr := &ValidationError{Field: "conditions", Message: "must not be empty"}

	expectedMsg := "conditions: must not be empty"
	if valErr.Error() != expectedMsg {
		t.Errorf("Error() = %s, want %s", valErr.Error(), expectedMsg)
	}
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		errs        ValidationErrors
		expectedMsg string
	}{
		{
			name:        "single error",
			errs:        ValidationErrors{{Field: "name", Message: "required"}},
			expectedMsg: "name: required",
		},
		{
			name: "multiple errors returns first",
			errs: ValidationErrors{
				{Field: "name", Message: "required"},
				{Field: "type", Message: "invalid"},
			},
			expectedMsg: "name: required",
		},
		{
			name:        "no errors",
			errs:        ValidationErrors{},
			expectedMsg: "validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.errs.Error() != tt.expectedMsg {
				t.Errorf("Error() = %s, want %s", tt.errs.Error(), tt.expectedMsg)
			}
		})
	}
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrEmptyConditions,
		ErrInvalidOperator,
		ErrInvalidCondition,
		ErrUnresolvedField,
		ErrRuleNotFound,
		ErrRuleExists,
		ErrNodeNotFound,
		ErrNetworkCorrupted,
		ErrNegativeRefCount,
		ErrFactNotFound,
		ErrLockUnavailable,
		ErrPoolExhausted,
		ErrQueueFull,
		ErrQueueClosed,
		ErrFormulaEval,
		ErrTypeMismatch,
		ErrMissingField,
		ErrCalculatorPlugin,
	}

	for _, err := range sentinels {
		if err == nil {
			t.Error("sentinel error is nil")
		}
		if err.Error() == "" {
			t.Error("sentinel error has empty message")
		}
	}
}

func TestUitoa(t *testing.T) {
	cases := map[uint64]string{0: "0", 7: "7", 123456: "123456"}
	for in, want := range cases {
		if got := uitoa(in); got != want {
			t.Errorf("uitoa(%d) = %s, want %s", in, got, want)
		}
	}
}
