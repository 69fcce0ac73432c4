// Package action executes a matched rule's actions against the token's
// primary fact: field mutations, fact creation/deletion, formula
// evaluation, logging, and calculator-plugin dispatch.
package action

import (
	"fmt"
	"sync"

	"github.com/hl/bingo-sub000/pkg/models"
	"github.com/hl/bingo-sub000/pkg/value"
)

// Calculator is a CallCalculator plugin: given the primary fact's fields
// and the action's declared arguments, it computes a result.
type Calculator interface {
	Calculate(fields map[string]value.Value, args map[string]value.Value) (value.Value, error)
}

// CalculatorFunc adapts an ordinary function to the Calculator interface.
type CalculatorFunc func(fields, args map[string]value.Value) (value.Value, error)

// Calculate calls the underlying function.
func (f CalculatorFunc) Calculate(fields, args map[string]value.Value) (value.Value, error) {
	return f(fields, args)
}

// Registry is a thread-safe name-to-Calculator registry for CallCalculator
// actions, mirroring an executor registry pattern: registration, lookup,
// listing, and removal all guarded by one RWMutex.
type Registry struct {
	mu          sync.RWMutex
	calculators map[string]Calculator
}

// NewRegistry creates an empty calculator registry.
func NewRegistry() *Registry {
	return &Registry{calculators: map[string]Calculator{}}
}

// Register adds or replaces the calculator under name.
func (r *Registry) Register(name string, calc Calculator) error {
	if name == "" {
		return fmt.Errorf("action: calculator name cannot be empty")
	}
	if calc == nil {
		return fmt.Errorf("action: calculator cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calculators[name] = calc
	return nil
}

// Get looks up a calculator by name.
func (r *Registry) Get(name string) (Calculator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	calc, ok := r.calculators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrCalculatorPlugin, name)
	}
	return calc, nil
}

// Has reports whether a calculator is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.calculators[name]
	return ok
}

// List returns every registered calculator name.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.calculators))
	for name := range r.calculators {
		names = append(names, name)
	}
	return names
}

// Unregister removes the calculator registered under name.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.calculators[name]; !ok {
		return fmt.Errorf("%w: %s", models.ErrCalculatorPlugin, name)
	}
	delete(r.calculators, name)
	return nil
}
