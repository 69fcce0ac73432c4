package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hl/bingo-sub000/internal/changetracker"
	"github.com/hl/bingo-sub000/internal/config"
	"github.com/hl/bingo-sub000/internal/eventsink"
	"github.com/hl/bingo-sub000/internal/infrastructure/logger"
	"github.com/hl/bingo-sub000/pkg/fact"
	"github.com/hl/bingo-sub000/pkg/models"
	"github.com/hl/bingo-sub000/pkg/value"
)

func singleConditionRule(id uint64) *models.Rule {
	return &models.Rule{
		ID:         id,
		Name:       "high-value-order",
		Conditions: []models.Condition{models.Simple("status", models.OpEqual, value.String("active"))},
		Actions: []models.Action{
			{Kind: models.ActionSetField, Field: "flagged", Value: value.Boolean(true)},
		},
	}
}

func twoConditionRule(id uint64) *models.Rule {
	return &models.Rule{
		ID:   id,
		Name: "order-matches-customer",
		Conditions: []models.Condition{
			models.Simple("kind", models.OpEqual, value.String("order")),
			models.Simple("role", models.OpEqual, value.String("customer")),
		},
		Actions: []models.Action{
			{Kind: models.ActionSetField, Field: "matched", Value: value.Boolean(true)},
		},
	}
}

func TestEngine_SingleConditionRuleFiresOnMatchingFact(t *testing.T) {
	e := NewDefault()
	require.NoError(t, e.AddRule(singleConditionRule(1)))

	f := fact.NewFact(100, map[string]value.Value{"status": value.String("active")})
	results, err := e.ProcessFacts([]*fact.Fact{f})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint64(1), results[0].RuleID)
	assert.Equal(t, fact.ID(100), results[0].PrimaryFactID)

	updated, ok := e.Store().Get(100)
	require.True(t, ok)
	flagged, _ := updated.Get("flagged")
	b, _ := flagged.AsBoolean()
	assert.True(t, b)
}

func TestEngine_SingleConditionRuleDoesNotFireOnNonMatch(t *testing.T) {
	e := NewDefault()
	require.NoError(t, e.AddRule(singleConditionRule(1)))

	f := fact.NewFact(100, map[string]value.Value{"status": value.String("pending")})
	results, err := e.ProcessFacts([]*fact.Fact{f})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEngine_MultiConditionRuleFiresOnceBothFactsSeen(t *testing.T) {
	e := NewDefault()
	require.NoError(t, e.AddRule(twoConditionRule(2)))

	order := fact.NewFact(1, map[string]value.Value{"kind": value.String("order")})
	results, err := e.ProcessFacts([]*fact.Fact{order})
	require.NoError(t, err)
	assert.Empty(t, results, "single condition satisfied should not fire a two-condition rule")

	customer := fact.NewFact(2, map[string]value.Value{"role": value.String("customer")})
	results, err = e.ProcessFacts([]*fact.Fact{customer})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint64(2), results[0].RuleID)
}

func TestEngine_RemoveRuleStopsFutureFirings(t *testing.T) {
	e := NewDefault()
	require.NoError(t, e.AddRule(singleConditionRule(1)))
	require.NoError(t, e.RemoveRule(1))

	f := fact.NewFact(100, map[string]value.Value{"status": value.String("active")})
	results, err := e.ProcessFacts([]*fact.Fact{f})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEngine_RemoveRulesBulkToleratesUnknownIDs(t *testing.T) {
	e := NewDefault()
	require.NoError(t, e.AddRule(singleConditionRule(1)))

	removed := e.RemoveRulesBulk([]uint64{1, 999})
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, e.RuleCount())
}

func TestEngine_DeleteDetectionPurgesRetractedFact(t *testing.T) {
	e := New(Options{DeleteDetection: true, ProcessingMode: changetracker.Full})
	require.NoError(t, e.AddRule(twoConditionRule(2)))

	order := fact.NewFact(1, map[string]value.Value{"kind": value.String("order")})
	_, err := e.ProcessFacts([]*fact.Fact{order})
	require.NoError(t, err)

	// A second batch omitting fact 1 retracts it before the customer fact
	// arrives, so the pending partial match for rule 2 can never complete.
	customer := fact.NewFact(2, map[string]value.Value{"role": value.String("customer")})
	results, err := e.ProcessFacts([]*fact.Fact{customer})
	require.NoError(t, err)
	assert.Empty(t, results)

	_, stillThere := e.Store().Get(1)
	assert.False(t, stillThere)
}

func TestEngine_EventSinkObservesFiring(t *testing.T) {
	e := NewDefault()
	rec := eventsink.NewRecorder()
	e.SetEventSink(rec)
	require.NoError(t, e.AddRule(singleConditionRule(1)))

	f := fact.NewFact(100, map[string]value.Value{"status": value.String("active")})
	_, err := e.ProcessFacts([]*fact.Fact{f})
	require.NoError(t, err)

	assert.Equal(t, 1, rec.CountByKind(eventsink.RuleFired))
	assert.Equal(t, 1, rec.CountByKind(eventsink.RuleEvaluated))
}

func TestEngine_CreatedFactsAreBufferedNotAutoFed(t *testing.T) {
	e := NewDefault()
	rule := &models.Rule{
		ID:         3,
		Conditions: []models.Condition{models.Simple("status", models.OpEqual, value.String("active"))},
		Actions: []models.Action{
			{Kind: models.ActionCreateFact, Data: map[string]value.Value{"derived": value.Boolean(true)}},
		},
	}
	require.NoError(t, e.AddRule(rule))

	f := fact.NewFact(1, map[string]value.Value{"status": value.String("active")})
	_, err := e.ProcessFacts([]*fact.Fact{f})
	require.NoError(t, err)

	created := e.GetCreatedFacts()
	require.Len(t, created, 1)
	assert.Equal(t, 2, e.Store().Len(), "created fact is stored but not run through the network in the same batch")

	e.ClearCreatedFacts()
	assert.Empty(t, e.GetCreatedFacts())
}

func TestEngine_StatsReportsLiveCounts(t *testing.T) {
	e := NewDefault()
	require.NoError(t, e.AddRule(singleConditionRule(1)))
	f := fact.NewFact(100, map[string]value.Value{"status": value.String("active")})
	_, err := e.ProcessFacts([]*fact.Fact{f})
	require.NoError(t, err)

	stats := e.Stats()
	assert.Equal(t, 1, stats.RuleCount)
	assert.Equal(t, 1, stats.FactCount)
	assert.Equal(t, Normal, stats.Pressure)
}

func TestEngine_StatsHighPressureShrinksPatternCache(t *testing.T) {
	e := New(Options{
		PatternCacheCapacity: 10,
		PressureThresholds:   PressureThresholds{Moderate: 1, High: 2, Critical: 1000000},
	})
	require.NoError(t, e.AddRule(singleConditionRule(1)))

	f := fact.NewFact(1, map[string]value.Value{"status": value.String("active")})
	_, err := e.ProcessFacts([]*fact.Fact{f})
	require.NoError(t, err)

	stats := e.Stats()
	assert.Equal(t, High, stats.Pressure)
	assert.Less(t, e.compiler.Cache.Capacity(), 10)
}

func TestEngine_EventsFromOneBatchShareBatchID(t *testing.T) {
	e := NewDefault()
	rec := eventsink.NewRecorder()
	e.SetEventSink(rec)
	require.NoError(t, e.AddRule(singleConditionRule(1)))

	f := fact.NewFact(100, map[string]value.Value{"status": value.String("active")})
	_, err := e.ProcessFacts([]*fact.Fact{f})
	require.NoError(t, err)

	require.NotEmpty(t, rec.Events)
	batchID := rec.Events[0].BatchID
	assert.NotEmpty(t, batchID)
	for _, ev := range rec.Events {
		assert.Equal(t, batchID, ev.BatchID)
	}
}

func TestEngine_SeparateBatchesGetDistinctBatchIDs(t *testing.T) {
	e := NewDefault()
	rec := eventsink.NewRecorder()
	e.SetEventSink(rec)
	require.NoError(t, e.AddRule(singleConditionRule(1)))

	f1 := fact.NewFact(100, map[string]value.Value{"status": value.String("active")})
	_, err := e.ProcessFacts([]*fact.Fact{f1})
	require.NoError(t, err)
	first := rec.Events[len(rec.Events)-1].BatchID

	f2 := fact.NewFact(101, map[string]value.Value{"status": value.String("active")})
	_, err = e.ProcessFacts([]*fact.Fact{f2})
	require.NoError(t, err)
	second := rec.Events[len(rec.Events)-1].BatchID

	assert.NotEqual(t, first, second)
}

func TestEngine_SetMetrics_StatsPushesGaugeValues(t *testing.T) {
	e := NewDefault()
	m := NewMetrics()
	e.SetMetrics(m)
	require.NoError(t, e.AddRule(singleConditionRule(1)))

	f := fact.NewFact(100, map[string]value.Value{"status": value.String("active")})
	_, err := e.ProcessFacts([]*fact.Fact{f})
	require.NoError(t, err)

	e.Stats()

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)

	var ruleCountSeen bool
	for _, mf := range families {
		if mf.GetName() == "rules_engine_rule_count" {
			ruleCountSeen = true
			require.Len(t, mf.GetMetric(), 1)
			assert.Equal(t, float64(1), mf.GetMetric()[0].GetGauge().GetValue())
		}
	}
	assert.True(t, ruleCountSeen, "rules_engine_rule_count gauge should be registered")
}

func TestEngine_SetLogger_AcceptsCustomLoggerAndKeepsProcessing(t *testing.T) {
	e := NewDefault()
	e.SetLogger(logger.New(config.LoggingConfig{Level: "debug", Format: "text"}))
	require.NoError(t, e.AddRule(singleConditionRule(1)))

	f := fact.NewFact(100, map[string]value.Value{"status": value.String("active")})
	results, err := e.ProcessFacts([]*fact.Fact{f})
	require.NoError(t, err)
	require.Len(t, results, 1)

	e.Stats()
}

func TestEngine_SetLogger_NilFallsBackToDefault(t *testing.T) {
	e := NewDefault()
	e.SetLogger(nil)
	require.NoError(t, e.AddRule(singleConditionRule(1)))
}

func TestEngine_StatsLogsPressureTransitionOnlyOnChange(t *testing.T) {
	e := New(Options{
		PatternCacheCapacity: 10,
		PressureThresholds:   PressureThresholds{Moderate: 1, High: 2, Critical: 1000000},
	})
	require.NoError(t, e.AddRule(singleConditionRule(1)))

	f := fact.NewFact(1, map[string]value.Value{"status": value.String("active")})
	_, err := e.ProcessFacts([]*fact.Fact{f})
	require.NoError(t, err)

	first := e.Stats()
	assert.Equal(t, High, first.Pressure)
	assert.Equal(t, High, e.lastPressure)

	second := e.Stats()
	assert.Equal(t, High, second.Pressure)
	assert.Equal(t, High, e.lastPressure, "repeated Stats at the same level should not change lastPressure")
}

func TestEngine_ExpirePartialMatchesDropsStaleOnes(t *testing.T) {
	e := New(Options{PartialMatchMaxAge: time.Millisecond})
	require.NoError(t, e.AddRule(twoConditionRule(2)))

	order := fact.NewFact(1, map[string]value.Value{"kind": value.String("order")})
	_, err := e.ProcessFacts([]*fact.Fact{order})
	require.NoError(t, err)

	dropped := e.ExpirePartialMatches(time.Now().Add(time.Hour))
	assert.Equal(t, 1, dropped)
}
