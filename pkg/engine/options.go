// Package engine assembles the value/fact/network/action/formula packages
// into the public rules-engine facade: Engine.New, AddRule, RemoveRule,
// ProcessFacts, SetProcessingMode, Stats, GetCreatedFacts.
package engine

import (
	"time"

	"github.com/hl/bingo-sub000/internal/changetracker"
	"github.com/hl/bingo-sub000/pkg/pool"
)

// Options configures an Engine at construction time.
type Options struct {
	// CapacityHint sizes the initial fact-store lookup cache; zero selects
	// the store's own default. The pattern cache is sized by
	// PatternCacheCapacity instead.
	CapacityHint int

	// ProcessingMode is the initial mode passed to SetProcessingMode.
	ProcessingMode changetracker.ProcessingMode

	// DeleteDetection opts into full-snapshot delete detection in the
	// change tracker: a batch that omits a previously-seen id is treated
	// as a deletion of that id.
	DeleteDetection bool

	// ExpireInterval bounds how often ProcessFacts sweeps expired partial
	// matches out of beta memory. Zero disables periodic sweeping (the
	// caller must call Engine.ExpirePartialMatches manually).
	ExpireInterval time.Duration

	// PartialMatchMaxAge is the max_age_seconds a partial match may sit
	// incomplete in beta memory before expiry discards it. Zero means
	// partial matches never expire.
	PartialMatchMaxAge time.Duration

	// PatternCacheCapacity bounds the network compiler's compilation-plan
	// cache. Zero selects the compiler's own default.
	PatternCacheCapacity int

	// CalculatorProgramCacheCapacity bounds the expr-lang compiled-program
	// cache backing Formula actions using the expr engine.
	CalculatorProgramCacheCapacity int

	// PoolCapacity bounds each of the engine's internal object pools. Zero
	// selects pool.DefaultCapacity.
	PoolCapacity int

	// PressureThresholds sets the estimated-byte boundaries that cross the
	// engine from Normal into Moderate/High/Critical memory pressure.
	PressureThresholds PressureThresholds
}

// DefaultOptions returns engine options with sensible defaults: Adaptive
// processing mode, no delete detection (callers must opt in explicitly),
// and a five-minute partial-match expiry sweep.
func DefaultOptions() Options {
	return Options{
		ProcessingMode:                 changetracker.Adaptive,
		DeleteDetection:                false,
		ExpireInterval:                 5 * time.Minute,
		PartialMatchMaxAge:             30 * time.Minute,
		PatternCacheCapacity:           256,
		CalculatorProgramCacheCapacity: 100,
		PoolCapacity:                   pool.DefaultCapacity,
		PressureThresholds:             DefaultPressureThresholds(),
	}
}
