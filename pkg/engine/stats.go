package engine

import (
	"github.com/hl/bingo-sub000/pkg/pool"
)

// Rough per-node/per-fact byte estimates used to convert live counts into a
// pressure signal without walking the heap. These are deliberately coarse:
// the profiler only needs to distinguish "fine" from "getting expensive",
// not produce an exact RSS figure.
const (
	bytesPerFact     = 512
	bytesPerAlpha    = 128
	bytesPerBeta     = 192
	bytesPerTerminal = 96
	bytesPerPartial  = 96
	bytesPerToken    = 64
)

// PressureLevel classifies the engine's estimated memory footprint, driving
// the adaptive shrink policy Stats applies as a side effect.
type PressureLevel int

const (
	Normal PressureLevel = iota
	Moderate
	High
	Critical
)

func (p PressureLevel) String() string {
	switch p {
	case Normal:
		return "normal"
	case Moderate:
		return "moderate"
	case High:
		return "high"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

// PressureThresholds sets the estimated-byte boundaries separating
// Normal/Moderate/High/Critical pressure.
type PressureThresholds struct {
	Moderate int64
	High     int64
	Critical int64
}

// DefaultPressureThresholds returns thresholds suited to a moderately sized
// in-process engine instance.
func DefaultPressureThresholds() PressureThresholds {
	return PressureThresholds{
		Moderate: 50 * 1024 * 1024,
		High:     150 * 1024 * 1024,
		Critical: 400 * 1024 * 1024,
	}
}

// EngineStats snapshots the engine's live working set for observability and
// capacity planning.
type EngineStats struct {
	RuleCount            int
	FactCount            int
	AlphaNodeCount       int
	BetaNodeCount        int
	TerminalNodeCount    int
	ActiveNodeCount      int
	PartialMatchCount    int
	PatternCacheSize     int
	PatternCacheCapacity int
	EstimatedBytes       int64
	Pressure             PressureLevel
	Pools                map[string]pool.Stats
}

// Stats computes a fresh snapshot, applies the adaptive shrink policy
// appropriate to the resulting pressure level, pushes the snapshot to the
// attached Metrics (if any), and returns it.
func (e *Engine) Stats() EngineStats {
	s := e.collect()
	e.logPressureTransition(s.Pressure, s.EstimatedBytes)
	e.applyShrinkPolicy(s.Pressure)
	if e.metrics != nil {
		e.metrics.update(s)
	}
	return s
}

// logPressureTransition logs when the engine's pressure level changes,
// at a severity matching how urgent the new level is.
func (e *Engine) logPressureTransition(level PressureLevel, estimatedBytes int64) {
	if level == e.lastPressure {
		return
	}
	args := []interface{}{"from", e.lastPressure.String(), "to", level.String(), "estimated_bytes", estimatedBytes}
	switch level {
	case High, Critical:
		e.log.Warn("memory pressure level changed", args...)
	case Moderate:
		e.log.Info("memory pressure level changed", args...)
	default:
		e.log.Debug("memory pressure level changed", args...)
	}
	e.lastPressure = level
}

// SetMetrics attaches a Metrics exporter that Stats pushes every snapshot
// into. Pass nil to detach.
func (e *Engine) SetMetrics(m *Metrics) { e.metrics = m }

func (e *Engine) collect() EngineStats {
	tables := e.compiler.Tables

	partials := 0
	for ruleID := range e.rules {
		if bm := e.compiler.BetaMemoryFor(ruleID); bm != nil {
			partials += len(bm.Partial)
		}
	}

	estimated := int64(e.store.Len())*bytesPerFact +
		int64(len(tables.Alphas))*bytesPerAlpha +
		int64(len(tables.Betas))*bytesPerBeta +
		int64(len(tables.Terminals))*bytesPerTerminal +
		int64(partials)*bytesPerPartial

	s := EngineStats{
		RuleCount:            e.compiler.RuleCount(),
		FactCount:            e.store.Len(),
		AlphaNodeCount:       len(tables.Alphas),
		BetaNodeCount:        len(tables.Betas),
		TerminalNodeCount:    len(tables.Terminals),
		ActiveNodeCount:      e.compiler.Activation.ActiveCount(),
		PartialMatchCount:    partials,
		PatternCacheSize:     e.compiler.Cache.Len(),
		PatternCacheCapacity: e.compiler.Cache.Capacity(),
		EstimatedBytes:       estimated,
		Pools:                e.pools.AllStats(),
	}
	s.Pressure = e.pressureFor(estimated)
	return s
}

func (e *Engine) pressureFor(estimated int64) PressureLevel {
	switch {
	case estimated >= e.thresholds.Critical:
		return Critical
	case estimated >= e.thresholds.High:
		return High
	case estimated >= e.thresholds.Moderate:
		return Moderate
	default:
		return Normal
	}
}

// applyShrinkPolicy sheds memory proportional to pressure: Moderate trims
// the object pools back toward their cold baseline, High additionally
// halves the pattern-cache capacity, and Critical drops pools entirely and
// squeezes the pattern cache to a minimal working set.
func (e *Engine) applyShrinkPolicy(level PressureLevel) {
	switch level {
	case Normal:
		return
	case Moderate:
		e.shrinkPools(pool.DefaultCapacity / 2)
	case High:
		e.shrinkPools(pool.DefaultCapacity / 4)
		if capacity := e.compiler.Cache.Capacity(); capacity > 1 {
			e.compiler.Cache.SetCapacity(capacity / 2)
		}
	case Critical:
		e.shrinkPools(0)
		e.compiler.Cache.SetCapacity(8)
	}
}

func (e *Engine) shrinkPools(target int) {
	e.pools.Tokens.Shrink(target)
	e.pools.FactSlices.Shrink(target)
	e.pools.ActionResults.Shrink(target)
	e.pools.CalculatorScratch.Shrink(target)
}
