package pool

import "github.com/hl/bingo-sub000/pkg/value"

// Context bundles the engine's object pools into a single struct threaded
// through the fact pipeline, network compiler, and action executor. Pool
// handles are never passed individually, and there is no hidden global
// pool state.
type Context struct {
	// Tokens pools the FactId slices that back network.Token values.
	Tokens *Pool[[]uint64]

	// FactSlices pools temporary fact-id batches used while walking the
	// network.
	FactSlices *Pool[[]uint64]

	// ActionResults pools the slices action execution appends results
	// into before they're copied into a RuleExecutionResult.
	ActionResults *Pool[[]any]

	// CalculatorScratch pools the scratch maps CallCalculator plugins use
	// to stage intermediate fields without allocating per invocation.
	CalculatorScratch *Pool[map[string]value.Value]
}

// NewContext builds a Context with the default capacity for every pool.
func NewContext() *Context {
	return NewContextWithCapacity(DefaultCapacity)
}

// NewContextWithCapacity builds a Context whose pools all share capacity.
func NewContextWithCapacity(capacity int) *Context {
	return &Context{
		Tokens: New(capacity, func() []uint64 { return make([]uint64, 0, 4) },
			func(s []uint64) []uint64 { return s[:0] }),
		FactSlices: New(capacity, func() []uint64 { return make([]uint64, 0, 8) },
			func(s []uint64) []uint64 { return s[:0] }),
		ActionResults: New(capacity, func() []any { return make([]any, 0, 4) },
			func(s []any) []any { return s[:0] }),
		CalculatorScratch: New(capacity, func() map[string]value.Value { return make(map[string]value.Value, 8) },
			func(m map[string]value.Value) map[string]value.Value {
				for k := range m {
					delete(m, k)
				}
				return m
			}),
	}
}

// AllStats reports hit-rate observability for every pool in the context, as
// consumed by the memory profiler.
func (c *Context) AllStats() map[string]Stats {
	return map[string]Stats{
		"tokens":             c.Tokens.Stats(),
		"fact_slices":        c.FactSlices.Stats(),
		"action_results":     c.ActionResults.Stats(),
		"calculator_scratch": c.CalculatorScratch.Stats(),
	}
}
