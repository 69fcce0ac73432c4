package network

// ActivationState tags whether a node currently participates in fact
// processing. A node starts Inactive and becomes Active the first time a
// fact reaches it, letting the compiler build the full node graph for a
// rule up front without paying the matching cost for branches no fact has
// exercised yet.
type ActivationState int

const (
	Inactive ActivationState = iota
	Active
)

// ActivationTracker records each node's activation state independently of
// the node's own struct, so the same AlphaNode/BetaNode shared across rules
// can be active for one rule's purposes before another rule sharing the
// node has seen any matching fact.
type ActivationTracker struct {
	states map[NodeID]ActivationState
}

// NewActivationTracker creates a tracker where every node defaults to
// Inactive until explicitly activated.
func NewActivationTracker() *ActivationTracker {
	return &ActivationTracker{states: map[NodeID]ActivationState{}}
}

// StateOf returns a node's current activation state, defaulting to Inactive
// for nodes never seen.
func (t *ActivationTracker) StateOf(id NodeID) ActivationState {
	if s, ok := t.states[id]; ok {
		return s
	}
	return Inactive
}

// Activate marks a node Active, returning true if this call transitioned it
// from Inactive (i.e. this is the first fact to reach the node).
func (t *ActivationTracker) Activate(id NodeID) bool {
	was := t.StateOf(id)
	t.states[id] = Active
	return was == Inactive
}

// Deactivate marks a node Inactive again, used when its last supporting
// token is retracted.
func (t *ActivationTracker) Deactivate(id NodeID) {
	t.states[id] = Inactive
}

// Forget removes a node's tracked state entirely, called on node removal so
// the tracker never reports a stale state for an id a later node might
// reuse.
func (t *ActivationTracker) Forget(id NodeID) {
	delete(t.states, id)
}

// ActiveCount reports how many tracked nodes are currently Active, used by
// the memory profiler to gauge live working-set size.
func (t *ActivationTracker) ActiveCount() int {
	n := 0
	for _, s := range t.states {
		if s == Active {
			n++
		}
	}
	return n
}
