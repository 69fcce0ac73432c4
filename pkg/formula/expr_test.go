package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hl/bingo-sub000/pkg/fact"
	"github.com/hl/bingo-sub000/pkg/value"
)

func TestExprEngine_BooleanLogic(t *testing.T) {
	eng := NewExprEngine(4)
	f := fact.NewFact(1, map[string]value.Value{"amount": value.Integer(150), "status": value.String("active")})

	v, err := eng.Evaluate(`amount > 100 && status == "active"`, f)
	require.NoError(t, err)
	b, ok := v.AsBoolean()
	require.True(t, ok)
	assert.True(t, b)
}

func TestExprEngine_CachesCompiledProgram(t *testing.T) {
	eng := NewExprEngine(4)
	f := fact.NewFact(1, map[string]value.Value{"a": value.Integer(1)})

	_, err := eng.Evaluate("a + 1", f)
	require.NoError(t, err)
	assert.Equal(t, 1, eng.cache.Len())

	_, err = eng.Evaluate("a + 1", f)
	require.NoError(t, err)
	assert.Equal(t, 1, eng.cache.Len())
}

func TestProgramCache_EvictsOldestAtCapacity(t *testing.T) {
	eng := NewExprEngine(1)
	f := fact.NewFact(1, map[string]value.Value{"a": value.Integer(1)})

	eng.Evaluate("a + 1", f)
	eng.Evaluate("a + 2", f)

	assert.Equal(t, 1, eng.cache.Len())
	_, ok := eng.cache.Get("a + 1")
	assert.False(t, ok)
}

func TestExprEngine_CompileErrorSurfaces(t *testing.T) {
	eng := NewExprEngine(4)
	f := fact.NewFact(1, nil)
	_, err := eng.Evaluate("((", f)
	assert.Error(t, err)
}
