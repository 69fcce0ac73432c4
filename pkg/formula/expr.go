package formula

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hl/bingo-sub000/pkg/fact"
	"github.com/hl/bingo-sub000/pkg/value"
)

// ProgramCache is a thread-safe LRU cache of compiled expr-lang programs,
// keyed by expression source text.
type ProgramCache struct {
	cache *lru.Cache[string, *vm.Program]
}

// NewProgramCache creates a cache bounded to capacity entries.
func NewProgramCache(capacity int) *ProgramCache {
	if capacity <= 0 {
		capacity = 100
	}
	c, _ := lru.New[string, *vm.Program](capacity)
	return &ProgramCache{cache: c}
}

// Get retrieves a compiled program, promoting it on hit.
func (c *ProgramCache) Get(expression string) (*vm.Program, bool) {
	return c.cache.Get(expression)
}

// Put caches a compiled program, evicting the least-recently-used entry at
// capacity.
func (c *ProgramCache) Put(expression string, program *vm.Program) {
	c.cache.Add(expression, program)
}

// Len reports the number of cached programs.
func (c *ProgramCache) Len() int {
	return c.cache.Len()
}

// ExprEngine evaluates richer expressions (boolean logic, string functions)
// through expr-lang, for Formula actions whose Engine is
// models.FormulaEngineExpr rather than the native grammar.
type ExprEngine struct {
	cache *ProgramCache
}

// NewExprEngine creates an engine with its own bounded program cache.
func NewExprEngine(cacheCapacity int) *ExprEngine {
	return &ExprEngine{cache: NewProgramCache(cacheCapacity)}
}

// Evaluate compiles (or reuses a cached compile of) expression and runs it
// against f's fields, each exposed as a top-level variable of the
// expression environment.
func (e *ExprEngine) Evaluate(expression string, f *fact.Fact) (value.Value, error) {
	env := exprEnv(f)

	program, ok := e.cache.Get(expression)
	if !ok {
		compiled, err := expr.Compile(expression, expr.Env(env))
		if err != nil {
			return value.Null(), fmt.Errorf("formula: expr compile failed: %w", err)
		}
		e.cache.Put(expression, compiled)
		program = compiled
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return value.Null(), fmt.Errorf("formula: expr evaluation failed: %w", err)
	}
	return fromNative(result), nil
}

func exprEnv(f *fact.Fact) map[string]interface{} {
	fields := make(map[string]interface{}, len(f.Data.Fields))
	for k, v := range f.Data.Fields {
		fields[k] = toNative(v)
	}
	return fields
}

func toNative(v value.Value) interface{} {
	switch v.Kind() {
	case value.KindInteger:
		i, _ := v.AsInteger()
		return i
	case value.KindFloat:
		fv, _ := v.AsFloat()
		return fv
	case value.KindString:
		s, _ := v.AsString()
		return s
	case value.KindBoolean:
		b, _ := v.AsBoolean()
		return b
	case value.KindArray:
		arr, _ := v.AsArray()
		out := make([]interface{}, len(arr))
		for i, e := range arr {
			out[i] = toNative(e)
		}
		return out
	case value.KindObject:
		obj, _ := v.AsObject()
		out := make(map[string]interface{}, len(obj))
		for k, e := range obj {
			out[k] = toNative(e)
		}
		return out
	default:
		return nil
	}
}

func fromNative(v interface{}) value.Value {
	switch tv := v.(type) {
	case int:
		return value.Integer(int64(tv))
	case int64:
		return value.Integer(tv)
	case float64:
		return value.Float(tv)
	case string:
		return value.String(tv)
	case bool:
		return value.Boolean(tv)
	default:
		if v == nil {
			return value.Null()
		}
		return value.String(fmt.Sprintf("%v", v))
	}
}
