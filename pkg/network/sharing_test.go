package network

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hl/bingo-sub000/pkg/models"
	"github.com/hl/bingo-sub000/pkg/value"
)

func TestSharingRegistry_AcquireAlphaSharesIdenticalConditions(t *testing.T) {
	tables := NewTables()
	reg := NewSharingRegistry()
	cond := models.Simple("status", models.OpEqual, value.String("active"))

	n1 := reg.AcquireAlpha(tables, cond)
	n2 := reg.AcquireAlpha(tables, cond)

	assert.Equal(t, n1.ID, n2.ID)
	assert.Equal(t, 2, n1.RefCount)
	assert.Len(t, tables.Alphas, 1)
}

func TestSharingRegistry_ReleaseAlphaRemovesAtZero(t *testing.T) {
	tables := NewTables()
	reg := NewSharingRegistry()
	cond := models.Simple("status", models.OpEqual, value.String("active"))

	n1 := reg.AcquireAlpha(tables, cond)
	reg.AcquireAlpha(tables, cond)

	removed := reg.ReleaseAlpha(tables, n1.ID)
	assert.False(t, removed)
	assert.Len(t, tables.Alphas, 1)

	removed = reg.ReleaseAlpha(tables, n1.ID)
	assert.True(t, removed)
	assert.Empty(t, tables.Alphas)
}

func TestSharingRegistry_DistinctConditionsDoNotShare(t *testing.T) {
	tables := NewTables()
	reg := NewSharingRegistry()
	c1 := models.Simple("status", models.OpEqual, value.String("active"))
	c2 := models.Simple("status", models.OpEqual, value.String("closed"))

	n1 := reg.AcquireAlpha(tables, c1)
	n2 := reg.AcquireAlpha(tables, c2)

	assert.NotEqual(t, n1.ID, n2.ID)
}

func TestSharingRegistry_AcquireBetaSharesIdenticalJoins(t *testing.T) {
	tables := NewTables()
	reg := NewSharingRegistry()
	specs := []JoinSpec{{LeftField: "entity_id", RightField: "entity_id", Operator: models.OpEqual}}

	b1 := reg.AcquireBeta(tables, 1, 2, specs)
	b2 := reg.AcquireBeta(tables, 1, 2, specs)

	assert.Equal(t, b1.ID, b2.ID)
	assert.Equal(t, 2, b1.RefCount)
}
