// Package changetracker classifies each fact in an incoming batch against
// what the engine has seen before, and recommends which processing mode the
// fact pipeline should apply to the batch.
package changetracker

import (
	"github.com/hl/bingo-sub000/pkg/fact"
)

// Classification tags how a fact compares to the tracker's last-seen
// snapshot.
type Classification int

const (
	New Classification = iota
	Modified
	Unchanged
	Deleted
)

func (c Classification) String() string {
	switch c {
	case New:
		return "New"
	case Modified:
		return "Modified"
	case Unchanged:
		return "Unchanged"
	case Deleted:
		return "Deleted"
	default:
		return "Unknown"
	}
}

// ProcessingMode selects how much of a batch the fact pipeline actually
// walks through the network.
type ProcessingMode int

const (
	// Full re-processes every fact in the batch regardless of classification.
	Full ProcessingMode = iota
	// Incremental processes only New and Modified facts.
	Incremental
	// Adaptive chooses Full or Incremental per batch based on change rate.
	Adaptive
)

func (m ProcessingMode) String() string {
	switch m {
	case Full:
		return "full"
	case Incremental:
		return "incremental"
	case Adaptive:
		return "adaptive"
	default:
		return "unknown"
	}
}

// ProcessingPlan is the Tracker's output for one batch: which facts fall
// into each classification bucket, and the derived efficiency/change-rate
// figures that drive mode selection.
type ProcessingPlan struct {
	New        []*fact.Fact
	Modified   []*fact.Fact
	Unchanged  []*fact.Fact
	DeletedIDs []fact.ID

	Efficiency float64 // (len(Unchanged) / total) * 100
	ChangeRate float64 // (len(New) + len(Modified)) / total
}

// WorkSet returns the facts Incremental mode would walk through the
// network: everything except Unchanged.
func (p *ProcessingPlan) WorkSet() []*fact.Fact {
	out := make([]*fact.Fact, 0, len(p.New)+len(p.Modified))
	out = append(out, p.New...)
	out = append(out, p.Modified...)
	return out
}

// Tracker keeps a deep-copied snapshot of every fact's field set it has
// seen, so later batches can be classified by comparison against it. The
// snapshot is unrelated to the live fact store: a fact can be removed from
// the store (DeleteFact) while the tracker still remembers its last shape,
// or vice versa if the caller never resubmits a deleted id.
type Tracker struct {
	lastSeen map[fact.ID]*fact.Fact

	// FullProcessingThreshold: Adaptive mode chooses Full when
	// change_rate is at or above this fraction.
	FullProcessingThreshold float64
}

// NewTracker creates a tracker with the default threshold from the processing
// mode design: Adaptive promotes to Full at a 70% change rate.
func NewTracker() *Tracker {
	return &Tracker{
		lastSeen:                map[fact.ID]*fact.Fact{},
		FullProcessingThreshold: 0.70,
	}
}

// Classify builds a ProcessingPlan for batch. deleteDetection opts into
// comparing batch against the full snapshot to find ids that silently
// disappeared; without it, only explicit deletions (not represented in this
// batch API) are possible.
func (t *Tracker) Classify(batch []*fact.Fact, deleteDetection bool) *ProcessingPlan {
	plan := &ProcessingPlan{}
	seenInBatch := make(map[fact.ID]struct{}, len(batch))

	for _, f := range batch {
		seenInBatch[f.ID] = struct{}{}
		prior, known := t.lastSeen[f.ID]
		switch {
		case !known:
			plan.New = append(plan.New, f)
		case !prior.Equal(f):
			plan.Modified = append(plan.Modified, f)
		default:
			plan.Unchanged = append(plan.Unchanged, f)
		}
		t.lastSeen[f.ID] = f.Clone()
	}

	if deleteDetection {
		for id := range t.lastSeen {
			if _, stillPresent := seenInBatch[id]; !stillPresent {
				plan.DeletedIDs = append(plan.DeletedIDs, id)
				delete(t.lastSeen, id)
			}
		}
	}

	total := len(batch)
	if total > 0 {
		plan.Efficiency = float64(len(plan.Unchanged)) / float64(total) * 100
		plan.ChangeRate = float64(len(plan.New)+len(plan.Modified)) / float64(total)
	}
	return plan
}

// MarkDeleted removes id from the snapshot directly, used when the caller
// issues an explicit DeleteFact rather than relying on full-snapshot
// delete detection.
func (t *Tracker) MarkDeleted(id fact.ID) {
	delete(t.lastSeen, id)
}

// SelectMode resolves which processing mode a batch should actually use,
// given the requested mode and the plan just computed for it.
func (t *Tracker) SelectMode(requested ProcessingMode, plan *ProcessingPlan) ProcessingMode {
	switch requested {
	case Full:
		return Full
	case Incremental:
		return Incremental
	case Adaptive:
		if plan.ChangeRate >= t.FullProcessingThreshold {
			return Full
		}
		return Incremental
	default:
		return Full
	}
}

// Reset discards the entire snapshot, as if no fact had ever been seen.
func (t *Tracker) Reset() {
	t.lastSeen = map[fact.ID]*fact.Fact{}
}

// Len reports how many fact ids the tracker currently remembers.
func (t *Tracker) Len() int {
	return len(t.lastSeen)
}
