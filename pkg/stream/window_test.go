package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hl/bingo-sub000/pkg/fact"
	"github.com/hl/bingo-sub000/pkg/models"
	"github.com/hl/bingo-sub000/pkg/value"
)

func amountFact(id fact.ID, amount float64) *fact.Fact {
	return fact.NewFact(id, map[string]value.Value{"amount": value.Float(amount)})
}

func TestTumblingWindow_ResetsOnNewBucket(t *testing.T) {
	w := NewWindow(models.WindowTumbling, time.Minute)
	base := time.Now()

	w.Add(amountFact(1, 10), base)
	w.Add(amountFact(2, 20), base.Add(30*time.Second))
	assert.Equal(t, 2, w.Len())

	w.Add(amountFact(3, 30), base.Add(2*time.Minute))
	assert.Equal(t, 1, w.Len(), "a new bucket should have dropped the stale members")
}

func TestSlidingWindow_EvictsOlderThanSize(t *testing.T) {
	w := NewWindow(models.WindowSliding, time.Minute)
	base := time.Now()

	w.Add(amountFact(1, 10), base)
	w.Add(amountFact(2, 20), base.Add(30*time.Second))
	w.Add(amountFact(3, 30), base.Add(90*time.Second))

	assert.Equal(t, 2, w.Len(), "the first fact is older than one minute relative to the last add")
}

func TestSessionWindow_ClosesOnGap(t *testing.T) {
	w := NewWindow(models.WindowSession, 10*time.Second)
	base := time.Now()

	w.Add(amountFact(1, 10), base)
	w.Add(amountFact(2, 20), base.Add(5*time.Second))
	assert.Equal(t, 2, w.Len())

	w.Add(amountFact(3, 30), base.Add(30*time.Second))
	assert.Equal(t, 1, w.Len(), "a gap past the session timeout should start a new session")
}

func TestWindow_ReduceSum(t *testing.T) {
	w := NewWindow(models.WindowTumbling, time.Minute)
	now := time.Now()
	w.Add(amountFact(1, 10), now)
	w.Add(amountFact(2, 20), now)

	got, ok := w.Reduce(models.AggSum, "amount")
	require.True(t, ok)
	f, _ := got.AsFloat()
	assert.Equal(t, 30.0, f)
}

func TestWindow_ReduceAvgMinMax(t *testing.T) {
	w := NewWindow(models.WindowTumbling, time.Minute)
	now := time.Now()
	w.Add(amountFact(1, 10), now)
	w.Add(amountFact(2, 20), now)
	w.Add(amountFact(3, 30), now)

	avg, ok := w.Reduce(models.AggAvg, "amount")
	require.True(t, ok)
	f, _ := avg.AsFloat()
	assert.Equal(t, 20.0, f)

	min, ok := w.Reduce(models.AggMin, "amount")
	require.True(t, ok)
	f, _ = min.AsFloat()
	assert.Equal(t, 10.0, f)

	max, ok := w.Reduce(models.AggMax, "amount")
	require.True(t, ok)
	f, _ = max.AsFloat()
	assert.Equal(t, 30.0, f)
}

func TestWindow_ReduceCountIgnoresMissingField(t *testing.T) {
	w := NewWindow(models.WindowTumbling, time.Minute)
	now := time.Now()
	w.Add(amountFact(1, 10), now)
	w.Add(fact.NewFact(2, map[string]value.Value{"other": value.String("x")}), now)

	count, ok := w.Reduce(models.AggCount, "amount")
	require.True(t, ok)
	n, _ := count.AsInteger()
	assert.Equal(t, int64(2), n, "count reduces window membership regardless of field presence")
}

func TestWindow_ReduceEmptyWindow(t *testing.T) {
	w := NewWindow(models.WindowTumbling, time.Minute)
	_, ok := w.Reduce(models.AggSum, "amount")
	assert.False(t, ok)
}

func TestWindow_ReduceSkipsFieldlessMembers(t *testing.T) {
	w := NewWindow(models.WindowTumbling, time.Minute)
	now := time.Now()
	w.Add(fact.NewFact(1, map[string]value.Value{"other": value.String("x")}), now)

	_, ok := w.Reduce(models.AggSum, "amount")
	assert.False(t, ok, "sum over a window with no members carrying the field has nothing to reduce")
}
