// Package eventsink provides an optional observation hook the engine emits
// into during fact processing. Consumers subscribe a Sink implementation if
// they want traces; with no sink attached, emission is a no-op.
package eventsink

import (
	"time"

	"github.com/hl/bingo-sub000/pkg/fact"
)

// EventKind tags which lifecycle moment an Event records.
type EventKind int

const (
	TokenCreated EventKind = iota
	TokenPropagated
	RuleEvaluated
	RuleFired
)

func (k EventKind) String() string {
	switch k {
	case TokenCreated:
		return "TokenCreated"
	case TokenPropagated:
		return "TokenPropagated"
	case RuleEvaluated:
		return "RuleEvaluated"
	case RuleFired:
		return "RuleFired"
	default:
		return "Unknown"
	}
}

// Event is one observation emitted during process_facts.
type Event struct {
	Kind      EventKind
	BatchID   string // correlates every event from the same ProcessFacts call
	RuleID    uint64
	FactID    fact.ID
	NodeID    uint64
	Timestamp time.Time
	Message   string
}

// Sink receives events as the engine processes facts. Implementations must
// not block the caller for long: the hot path calls Observe synchronously.
type Sink interface {
	Observe(Event)
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(Event)

// Observe calls the underlying function.
func (f SinkFunc) Observe(e Event) { f(e) }

// noop is the default sink: every call is a single interface dispatch that
// does nothing, keeping emission branchless when nobody is listening.
type noop struct{}

func (noop) Observe(Event) {}

// Noop is the zero-cost default sink.
var Noop Sink = noop{}

// Multi fans an event out to every sink in order.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(e Event) {
		for _, s := range sinks {
			if s != nil {
				s.Observe(e)
			}
		}
	})
}

// Recorder is a test/debug sink that appends every event it observes, for
// assertions over the exact event sequence a run produced.
type Recorder struct {
	Events []Event
}

// NewRecorder creates an empty event recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Observe appends e to the recorded sequence.
func (r *Recorder) Observe(e Event) {
	r.Events = append(r.Events, e)
}

// CountByKind returns how many recorded events match kind.
func (r *Recorder) CountByKind(kind EventKind) int {
	n := 0
	for _, e := range r.Events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
