package engine

import (
	"time"

	"github.com/hl/bingo-sub000/internal/changetracker"
	"github.com/hl/bingo-sub000/internal/eventsink"
	"github.com/hl/bingo-sub000/internal/infrastructure/logger"
	"github.com/hl/bingo-sub000/pkg/action"
	"github.com/hl/bingo-sub000/pkg/fact"
	"github.com/hl/bingo-sub000/pkg/formula"
	"github.com/hl/bingo-sub000/pkg/models"
	"github.com/hl/bingo-sub000/pkg/network"
	"github.com/hl/bingo-sub000/pkg/pool"
)

// ActionResult is one action's outcome, exported from the action package's
// internal result type for callers that only import engine.
type ActionResult = action.Result

// RuleExecutionResult is what Engine.ProcessFacts returns per firing: which
// rule fired, against which primary fact, and the outcome of every action it
// declared, in declaration order.
type RuleExecutionResult struct {
	RuleID          uint64
	PrimaryFactID   fact.ID
	ActionsExecuted []ActionResult
}

// Engine is the public rules-engine facade: it owns the fact store, the
// compiled discrimination network, the change tracker driving processing
// mode selection, and the action executor, and exposes the add/remove/
// process lifecycle a caller drives a batch of facts through.
type Engine struct {
	store        *fact.Store
	compiler     *network.Compiler
	tracker      *changetracker.Tracker
	executor     *action.Executor
	sink         eventsink.Sink
	pools        *pool.Context
	rules        map[uint64]*models.Rule
	mode         changetracker.ProcessingMode
	deleteDet    bool
	expireEvery  time.Duration
	lastExpire   time.Time
	thresholds   PressureThresholds
	metrics      *Metrics
	log          *logger.Logger
	lastPressure PressureLevel
}

// New constructs an empty engine with the given options.
func New(opts Options) *Engine {
	store := fact.NewStoreWithCacheSize(opts.CapacityHint)
	compiler := network.NewCompilerWithOptions(opts.PatternCacheCapacity, opts.PartialMatchMaxAge)
	executor := action.NewExecutor(store)
	if opts.CalculatorProgramCacheCapacity > 0 {
		executor.ExprEngine = formula.NewExprEngine(opts.CalculatorProgramCacheCapacity)
	}

	thresholds := opts.PressureThresholds
	if thresholds == (PressureThresholds{}) {
		thresholds = DefaultPressureThresholds()
	}

	return &Engine{
		store:       store,
		compiler:    compiler,
		tracker:     changetracker.NewTracker(),
		executor:    executor,
		sink:        eventsink.Noop,
		pools:       pool.NewContextWithCapacity(opts.PoolCapacity),
		rules:       map[uint64]*models.Rule{},
		mode:        opts.ProcessingMode,
		deleteDet:   opts.DeleteDetection,
		expireEvery: opts.ExpireInterval,
		thresholds:  thresholds,
		log:         logger.Default(),
	}
}

// NewDefault constructs an engine with DefaultOptions.
func NewDefault() *Engine {
	return New(DefaultOptions())
}

// SetEventSink replaces the engine's observation sink. Pass eventsink.Noop
// (the default) to disable observation.
func (e *Engine) SetEventSink(sink eventsink.Sink) {
	if sink == nil {
		sink = eventsink.Noop
	}
	e.sink = sink
}

// SetLogger replaces the engine's structured logger. Pass nil to fall back
// to logger.Default().
func (e *Engine) SetLogger(log *logger.Logger) {
	if log == nil {
		log = logger.Default()
	}
	e.log = log
}

// Calculators exposes the action executor's calculator-plugin registry so
// callers can register CallCalculator implementations.
func (e *Engine) Calculators() *action.Registry {
	return e.executor.Calculators
}

// Store exposes the fact store for direct inspection (e.g. by tests or a
// caller rehydrating engine state).
func (e *Engine) Store() *fact.Store {
	return e.store
}

// AddRule compiles rule into the network. Fails on structurally invalid
// rules (empty conditions, malformed condition, duplicate id).
func (e *Engine) AddRule(rule *models.Rule) error {
	if err := e.compiler.AddRule(rule); err != nil {
		e.log.Warn("rule compilation failed", "rule_id", rule.ID, "error", err)
		return err
	}
	e.rules[rule.ID] = rule
	e.log.Info("rule compiled",
		"rule_id", rule.ID,
		"name", rule.Name,
		"condition_count", len(rule.Conditions),
		"action_count", len(rule.Actions),
		"rule_count", len(e.rules),
	)
	return nil
}

// RemoveRule decompiles a rule, releasing any nodes it solely owned. Fails
// if id is unknown.
func (e *Engine) RemoveRule(id uint64) error {
	if err := e.compiler.RemoveRule(id); err != nil {
		e.log.Debug("rule removal failed", "rule_id", id, "error", err)
		return err
	}
	delete(e.rules, id)
	e.log.Info("rule removed", "rule_id", id, "rule_count", len(e.rules))
	return nil
}

// RemoveRulesBulk removes every id in ids, tolerating unknown ids, and
// reports how many were actually removed.
func (e *Engine) RemoveRulesBulk(ids []uint64) int {
	removed := 0
	for _, id := range ids {
		if e.RemoveRule(id) == nil {
			removed++
		}
	}
	return removed
}

// SetProcessingMode changes which mode ProcessFacts uses for subsequent
// batches.
func (e *Engine) SetProcessingMode(mode changetracker.ProcessingMode) {
	e.mode = mode
}

// RuleCount reports how many rules are currently compiled.
func (e *Engine) RuleCount() int {
	return e.compiler.RuleCount()
}

// GetCreatedFacts returns the facts CreateFact actions produced since the
// last ClearCreatedFacts call. Per the two-phase pipeline, these are never
// automatically fed back into the batch that produced them — a caller that
// wants cascading inference passes them into a subsequent ProcessFacts call.
func (e *Engine) GetCreatedFacts() []*fact.Fact {
	return e.executor.CreatedFacts()
}

// ClearCreatedFacts discards the buffered created-facts list.
func (e *Engine) ClearCreatedFacts() {
	e.executor.ClearCreatedFacts()
}
