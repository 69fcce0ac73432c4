package network

import (
	"github.com/hl/bingo-sub000/pkg/fact"
	"github.com/hl/bingo-sub000/pkg/value"
)

// alphaKey is the (field, value) composite key the equality index is built
// over.
type alphaKey struct {
	field string
	value interface{}
}

// AlphaIndex is the first-pass candidate-rule filter. It never
// misses a rule whose conditions a fact could satisfy, but may
// over-approximate via the universal bucket.
type AlphaIndex struct {
	equality map[alphaKey]map[uint64]struct{}
	universal map[uint64]struct{}
}

// NewAlphaIndex creates an empty index.
func NewAlphaIndex() *AlphaIndex {
	return &AlphaIndex{
		equality:  map[alphaKey]map[uint64]struct{}{},
		universal: map[uint64]struct{}{},
	}
}

// IndexEquality registers ruleID under (field, value) for an `=` condition.
func (ai *AlphaIndex) IndexEquality(field string, v value.Value, ruleID uint64) {
	key := alphaKey{field: field, value: v.HashKey()}
	set, ok := ai.equality[key]
	if !ok {
		set = map[uint64]struct{}{}
		ai.equality[key] = set
	}
	set[ruleID] = struct{}{}
}

// IndexUniversal registers ruleID in the universal bucket: for non-equality
// operators, or Complex/Aggregation/Stream conditions.
func (ai *AlphaIndex) IndexUniversal(ruleID uint64) {
	ai.universal[ruleID] = struct{}{}
}

// RemoveRule purges every index entry for ruleID. Called on rule removal so
// a stale equality entry never resurrects a removed rule as a candidate.
func (ai *AlphaIndex) RemoveRule(ruleID uint64) {
	delete(ai.universal, ruleID)
	for key, set := range ai.equality {
		delete(set, ruleID)
		if len(set) == 0 {
			delete(ai.equality, key)
		}
	}
}

// FindCandidateRules returns the union of the universal bucket with, for
// every (field, value) pair present on the fact, the rule set indexed at
// that key. Duplicates are removed; order is irrelevant.
func (ai *AlphaIndex) FindCandidateRules(f *fact.Fact) []uint64 {
	seen := map[uint64]struct{}{}
	for ruleID := range ai.universal {
		seen[ruleID] = struct{}{}
	}
	for field, v := range f.Data.Fields {
		key := alphaKey{field: field, value: v.HashKey()}
		if set, ok := ai.equality[key]; ok {
			for ruleID := range set {
				seen[ruleID] = struct{}{}
			}
		}
	}
	out := make([]uint64, 0, len(seen))
	for ruleID := range seen {
		out = append(out, ruleID)
	}
	return out
}
