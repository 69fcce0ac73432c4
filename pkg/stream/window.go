// Package stream provides windowed fact buffers for the Stream/Aggregation
// condition kinds (models.ConditionStream, models.ConditionAggregation).
// It is an adjunct, not on the hot path: the compiled network routes
// Stream/Aggregation conditions to the universal alpha bucket (see
// pkg/network/alpha.go) rather than driving a Window directly, so a caller
// wanting real windowed evaluation constructs one of these and feeds it
// facts itself, the way pkg/visualization is a diagnostic adjunct to the
// execution core rather than part of it.
package stream

import (
	"time"

	"github.com/hl/bingo-sub000/pkg/fact"
	"github.com/hl/bingo-sub000/pkg/models"
	"github.com/hl/bingo-sub000/pkg/value"
)

// Window buffers facts and reduces a field across the window's current
// members with an AggregationFunc.
type Window interface {
	// Add buffers f, evicting any members the window's policy has aged out.
	Add(f *fact.Fact, now time.Time)
	// Reduce applies fn over field across the window's current members.
	Reduce(fn models.AggregationFunc, field string) (value.Value, bool)
	// Len reports how many facts the window currently holds.
	Len() int
}

// NewWindow constructs the Window implementation for kind, sized by size:
// a duration for Tumbling/Sliding, an inactivity gap for Session.
func NewWindow(kind models.WindowKind, size time.Duration) Window {
	switch kind {
	case models.WindowSliding:
		return &slidingWindow{size: size}
	case models.WindowSession:
		return &sessionWindow{gap: size}
	default:
		return &tumblingWindow{size: size}
	}
}

// tumblingWindow holds facts from the start of the current fixed-size
// interval, resetting (dropping all members) once now advances past it.
type tumblingWindow struct {
	size        time.Duration
	bucketStart time.Time
	members     []*fact.Fact
}

func (w *tumblingWindow) Add(f *fact.Fact, now time.Time) {
	if w.bucketStart.IsZero() || now.Sub(w.bucketStart) >= w.size {
		w.bucketStart = now
		w.members = w.members[:0]
	}
	w.members = append(w.members, f)
}

func (w *tumblingWindow) Reduce(fn models.AggregationFunc, field string) (value.Value, bool) {
	return reduce(fn, field, w.members)
}

func (w *tumblingWindow) Len() int { return len(w.members) }

// slidingWindow holds every fact added within the last size of now,
// evicting older members on every Add.
type slidingWindow struct {
	size    time.Duration
	members []*fact.Fact
	seenAt  []time.Time
}

func (w *slidingWindow) Add(f *fact.Fact, now time.Time) {
	w.members = append(w.members, f)
	w.seenAt = append(w.seenAt, now)
	w.evict(now)
}

func (w *slidingWindow) evict(now time.Time) {
	cutoff := now.Add(-w.size)
	i := 0
	for i < len(w.seenAt) && w.seenAt[i].Before(cutoff) {
		i++
	}
	if i == 0 {
		return
	}
	w.members = w.members[i:]
	w.seenAt = w.seenAt[i:]
}

func (w *slidingWindow) Reduce(fn models.AggregationFunc, field string) (value.Value, bool) {
	return reduce(fn, field, w.members)
}

func (w *slidingWindow) Len() int { return len(w.members) }

// sessionWindow holds facts until a gap of at least `gap` elapses between
// consecutive arrivals, at which point the session closes and a new one
// starts with the triggering fact.
type sessionWindow struct {
	gap     time.Duration
	lastAt  time.Time
	members []*fact.Fact
}

func (w *sessionWindow) Add(f *fact.Fact, now time.Time) {
	if !w.lastAt.IsZero() && now.Sub(w.lastAt) >= w.gap {
		w.members = w.members[:0]
	}
	w.lastAt = now
	w.members = append(w.members, f)
}

func (w *sessionWindow) Reduce(fn models.AggregationFunc, field string) (value.Value, bool) {
	return reduce(fn, field, w.members)
}

func (w *sessionWindow) Len() int { return len(w.members) }

func reduce(fn models.AggregationFunc, field string, members []*fact.Fact) (value.Value, bool) {
	if fn == models.AggCount {
		return value.Integer(int64(len(members))), true
	}

	if len(members) == 0 {
		return value.Value{}, false
	}

	var sum float64
	var count int
	var min, max float64
	first := true

	for _, f := range members {
		v, ok := f.Get(field)
		if !ok {
			continue
		}
		n, ok := v.AsFloat()
		if !ok {
			continue
		}
		sum += n
		count++
		if first || n < min {
			min = n
		}
		if first || n > max {
			max = n
		}
		first = false
	}

	if count == 0 {
		return value.Value{}, false
	}

	switch fn {
	case models.AggSum:
		return value.Float(sum), true
	case models.AggAvg:
		return value.Float(sum / float64(count)), true
	case models.AggMin:
		return value.Float(min), true
	case models.AggMax:
		return value.Float(max), true
	default:
		return value.Value{}, false
	}
}
