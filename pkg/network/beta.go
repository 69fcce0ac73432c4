package network

import (
	"time"

	"github.com/hl/bingo-sub000/pkg/fact"
	"github.com/hl/bingo-sub000/pkg/models"
)

// commonJoinPairs lists field-name pairs treated as joinable across facts
// even when the names differ, mirroring the handful of cross-entity
// conventions a rule author is likely to rely on without spelling out an
// explicit join.
var commonJoinPairs = [][2]string{
	{"entity_id", "id"},
	{"user_id", "customer_id"},
	{"account_id", "id"},
	{"order_id", "id"},
}

// InferJoinSpecs derives the join conditions between two conditions' fields.
// A field shared verbatim by name joins on equality; otherwise the known
// cross-entity pairs are consulted. No match yields an empty slice, meaning
// the join degenerates to a cartesian product of the two streams.
func InferJoinSpecs(left, right *models.Condition) []JoinSpec {
	var specs []JoinSpec
	if left.Kind == models.ConditionSimple && right.Kind == models.ConditionSimple {
		if left.Field == right.Field {
			specs = append(specs, JoinSpec{LeftField: left.Field, RightField: right.Field, Operator: models.OpEqual})
			return specs
		}
		for _, pair := range commonJoinPairs {
			if (left.Field == pair[0] && right.Field == pair[1]) ||
				(left.Field == pair[1] && right.Field == pair[0]) {
				specs = append(specs, JoinSpec{LeftField: left.Field, RightField: right.Field, Operator: models.OpEqual})
				return specs
			}
		}
	}
	return specs
}

// joinSatisfied reports whether the fact filling a new condition slot agrees
// with the facts already bound in a partial match, under every join spec
// that targets the new slot.
func joinSatisfied(specs []JoinSpec, bound map[int]fact.ID, store *fact.Store, newFact *fact.Fact, leftIndex int) bool {
	for _, spec := range specs {
		leftID, ok := bound[leftIndex]
		if !ok {
			continue
		}
		leftFact, ok := store.Get(leftID)
		if !ok {
			return false
		}
		lv, ok := leftFact.Get(spec.LeftField)
		if !ok {
			return false
		}
		rv, ok := newFact.Get(spec.RightField)
		if !ok {
			return false
		}
		if !lv.Equal(rv) {
			return false
		}
	}
	return true
}

// RuleBetaMemory holds the in-progress and expiring partial matches for one
// rule's multi-condition join, implementing the hash-join-indexed
// incremental matching algorithm: each incoming fact that satisfies
// condition i either seeds a new PartialMatch (i == 0) or extends every
// compatible existing match at condition i-1 into one at condition i.
type RuleBetaMemory struct {
	RuleID      uint64
	Conditions  []models.Condition
	JoinSpecs   map[int][]JoinSpec // join specs keyed by the condition index they target
	Partial     []*PartialMatch
	Completed   []*PartialMatch
	MaxAge      time.Duration
}

// NewRuleBetaMemory builds beta memory for a rule's condition slots >= 1
// (slot 0 is always satisfied by direct alpha activation). maxAge of zero
// disables expiry.
func NewRuleBetaMemory(ruleID uint64, conditions []models.Condition, maxAge time.Duration) *RuleBetaMemory {
	joinSpecs := map[int][]JoinSpec{}
	for i := 1; i < len(conditions); i++ {
		joinSpecs[i] = InferJoinSpecs(&conditions[i-1], &conditions[i])
	}
	return &RuleBetaMemory{
		RuleID:     ruleID,
		Conditions: conditions,
		JoinSpecs:  joinSpecs,
		MaxAge:     maxAge,
	}
}

// Activate feeds a fact that has satisfied condition conditionIndex into the
// memory. If conditionIndex is 0, it seeds a fresh partial match. Otherwise
// it extends every existing partial match currently waiting at
// conditionIndex-1 whose join fields agree with the fact. It returns the
// matches completed by this call; BetaNode Left/Right lists are not touched.
func (m *RuleBetaMemory) Activate(conditionIndex int, f *fact.Fact, store *fact.Store, now time.Time) []*PartialMatch {
	var newlyCompleted []*PartialMatch

	if conditionIndex == 0 {
		pm := &PartialMatch{
			RuleID:             m.RuleID,
			MatchedFacts:       map[int]fact.ID{0: f.ID},
			NextConditionIndex: 1,
			TotalConditions:    len(m.Conditions),
			CreatedAt:          now,
		}
		if pm.Complete() {
			m.Completed = append(m.Completed, pm)
			newlyCompleted = append(newlyCompleted, pm)
		} else {
			m.Partial = append(m.Partial, pm)
		}
		return newlyCompleted
	}

	specs := m.JoinSpecs[conditionIndex]
	var survivors []*PartialMatch
	for _, pm := range m.Partial {
		if pm.NextConditionIndex != conditionIndex {
			survivors = append(survivors, pm)
			continue
		}
		if !joinSatisfied(specs, pm.MatchedFacts, store, f, conditionIndex-1) {
			survivors = append(survivors, pm)
			continue
		}
		extended := &PartialMatch{
			RuleID:             pm.RuleID,
			MatchedFacts:       cloneMatchedFacts(pm.MatchedFacts),
			NextConditionIndex: conditionIndex + 1,
			TotalConditions:    pm.TotalConditions,
			CreatedAt:          pm.CreatedAt,
		}
		extended.MatchedFacts[conditionIndex] = f.ID
		if extended.Complete() {
			m.Completed = append(m.Completed, extended)
			newlyCompleted = append(newlyCompleted, extended)
		} else {
			survivors = append(survivors, extended)
		}
		// The source partial match also survives: one fact can extend
		// multiple in-flight matches, and the original still awaits a
		// different right-hand fact.
		survivors = append(survivors, pm)
	}
	m.Partial = survivors
	return newlyCompleted
}

func cloneMatchedFacts(src map[int]fact.ID) map[int]fact.ID {
	out := make(map[int]fact.ID, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Expire drops partial matches older than MaxAge as of now. A MaxAge of
// zero is a no-op: expiry is opt-in.
func (m *RuleBetaMemory) Expire(now time.Time) int {
	if m.MaxAge <= 0 {
		return 0
	}
	var survivors []*PartialMatch
	dropped := 0
	for _, pm := range m.Partial {
		if now.Sub(pm.CreatedAt) > m.MaxAge {
			dropped++
			continue
		}
		survivors = append(survivors, pm)
	}
	m.Partial = survivors
	return dropped
}

// RemoveFact drops every partial and completed match referencing factID,
// called when a fact is retracted mid-batch so stale matches never fire.
func (m *RuleBetaMemory) RemoveFact(id fact.ID) {
	m.Partial = filterMatches(m.Partial, id)
	m.Completed = filterMatches(m.Completed, id)
}

func filterMatches(matches []*PartialMatch, id fact.ID) []*PartialMatch {
	var survivors []*PartialMatch
	for _, pm := range matches {
		references := false
		for _, fid := range pm.MatchedFacts {
			if fid == id {
				references = true
				break
			}
		}
		if !references {
			survivors = append(survivors, pm)
		}
	}
	return survivors
}

// DrainCompleted returns and clears the matches that have reached full
// condition count since the last drain.
func (m *RuleBetaMemory) DrainCompleted() []*PartialMatch {
	out := m.Completed
	m.Completed = nil
	return out
}
