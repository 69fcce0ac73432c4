package network

import (
	"math"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hl/bingo-sub000/pkg/models"
)

// CompilationPlan is the memoized shape a rule compiles into: the ordered
// condition signatures that become alpha nodes and the join specs that
// link them into beta nodes. Deliberately holds structural specs rather
// than concrete NodeIDs, so replaying a cached plan always re-acquires
// nodes through the SharingRegistry instead of trusting stale ids — a
// plan can never go stale because it names no node that might since have
// been removed.
type CompilationPlan struct {
	RuleSignature string
	Conditions    []models.Condition
	JoinSpecs     map[int][]JoinSpec
}

// ruleSignature derives a stable cache key from a rule's ordered condition
// signatures.
func ruleSignature(conditions []models.Condition) string {
	sig := ""
	for i, c := range conditions {
		if i > 0 {
			sig += "&"
		}
		sig += c.Signature()
	}
	return sig
}

// unboundedSize is the lru.Cache size substituted for a non-positive
// requested capacity, since the library requires a positive size. Large
// enough that no realistic pattern-cache workload evicts under it.
const unboundedSize = math.MaxInt32

// PatternCache memoizes CompilationPlans up to a bounded capacity, evicting
// the least-recently-used entry under capacity pressure. A hit here skips
// recomputing join-spec inference for a rule whose condition shape has been
// seen before, even if the rule's own id differs.
type PatternCache struct {
	capacity int // user-facing bound; non-positive means unbounded
	cache    *lru.Cache[string, *CompilationPlan]
}

// NewPatternCache creates a cache bounded to capacity entries. A
// non-positive capacity disables eviction (unbounded).
func NewPatternCache(capacity int) *PatternCache {
	c, _ := lru.New[string, *CompilationPlan](sizeFor(capacity))
	return &PatternCache{capacity: capacity, cache: c}
}

func sizeFor(capacity int) int {
	if capacity <= 0 {
		return unboundedSize
	}
	return capacity
}

// Get returns the cached plan for conditions' signature, promoting it to
// most-recently-used on hit.
func (c *PatternCache) Get(conditions []models.Condition) (*CompilationPlan, bool) {
	return c.cache.Get(ruleSignature(conditions))
}

// Put inserts or refreshes the compiled plan for conditions, evicting the
// least-recently-used entry first if the cache is at capacity.
func (c *PatternCache) Put(conditions []models.Condition, plan *CompilationPlan) {
	c.cache.Add(ruleSignature(conditions), plan)
}

// Len reports the number of cached plans.
func (c *PatternCache) Len() int {
	return c.cache.Len()
}

// SetCapacity changes the eviction bound, immediately evicting
// least-recently-used entries if the new capacity is smaller than the
// current size. Used by the memory profiler's adaptive shrink policy under
// elevated pressure.
func (c *PatternCache) SetCapacity(capacity int) {
	c.capacity = capacity
	c.cache.Resize(sizeFor(capacity))
}

// Capacity reports the current eviction bound.
func (c *PatternCache) Capacity() int {
	return c.capacity
}

// BuildPlan computes a CompilationPlan for a rule's conditions from
// scratch, inferring join specs between each adjacent pair.
func BuildPlan(conditions []models.Condition) *CompilationPlan {
	joinSpecs := map[int][]JoinSpec{}
	for i := 1; i < len(conditions); i++ {
		joinSpecs[i] = InferJoinSpecs(&conditions[i-1], &conditions[i])
	}
	return &CompilationPlan{
		RuleSignature: ruleSignature(conditions),
		Conditions:    conditions,
		JoinSpecs:     joinSpecs,
	}
}
