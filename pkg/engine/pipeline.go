package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/hl/bingo-sub000/internal/changetracker"
	"github.com/hl/bingo-sub000/internal/eventsink"
	"github.com/hl/bingo-sub000/pkg/fact"
	"github.com/hl/bingo-sub000/pkg/models"
	"github.com/hl/bingo-sub000/pkg/network"
)

// ProcessFacts runs a batch of facts through the compiled network: it
// classifies the batch against previously-seen facts, picks a processing
// mode, feeds the work set through alpha matching and (for multi-condition
// rules) beta-memory joins, executes every rule whose conditions complete,
// and returns one RuleExecutionResult per firing in the order rules fired.
//
// Deleted ids (when DeleteDetection is enabled) are purged from every node's
// memory right after classification and before the work set is processed, per the deletion-purity
// requirement that a retracted fact can never linger in a partial match.
func (e *Engine) ProcessFacts(facts []*fact.Fact) ([]RuleExecutionResult, error) {
	now := time.Now()
	batchID := uuid.NewString()
	plan := e.tracker.Classify(facts, e.deleteDet)

	for _, id := range plan.DeletedIDs {
		e.purgeFact(id)
	}

	mode := e.tracker.SelectMode(e.mode, plan)
	workSet := plan.WorkSet()
	if mode == changetracker.Full {
		workSet = facts
	}

	for _, f := range workSet {
		e.store.Insert(f)
	}

	var results []RuleExecutionResult
	for _, f := range workSet {
		results = append(results, e.activateFact(f, now, batchID)...)
	}

	e.maybeExpire(now)

	e.log.Debug("batch processed",
		"batch_id", batchID,
		"mode", mode.String(),
		"fact_count", len(facts),
		"work_set_size", len(workSet),
		"deleted_count", len(plan.DeletedIDs),
		"fired_count", len(results),
	)

	return results, nil
}

// purgeFact removes a retracted fact from the store and from every alpha,
// beta, and terminal memory, and drops any partial match referencing it.
func (e *Engine) purgeFact(id fact.ID) {
	e.store.Remove(id)
	e.compiler.Tables.RemoveFactEverywhere(id)
	for _, rule := range e.rules {
		if bm := e.compiler.BetaMemoryFor(rule.ID); bm != nil {
			bm.RemoveFact(id)
		}
	}
}

// activateFact propagates one fact through the network: it looks up
// candidate rules via the alpha index, then for each candidate determines
// which of the rule's conditions the fact actually satisfies and drives
// either direct terminal execution (single-condition rules) or a beta-memory
// activation (multi-condition rules), firing every partial match that
// completes as a result.
func (e *Engine) activateFact(f *fact.Fact, now time.Time, batchID string) []RuleExecutionResult {
	var results []RuleExecutionResult

	for _, ruleID := range e.compiler.AlphaIdx.FindCandidateRules(f) {
		rule, ok := e.rules[ruleID]
		if !ok {
			continue
		}

		for idx, cond := range rule.Conditions {
			if !network.MatchCondition(&cond, f) {
				continue
			}
			e.sink.Observe(eventsink.Event{Kind: eventsink.TokenCreated, BatchID: batchID, RuleID: ruleID, FactID: f.ID, Timestamp: now})

			if alpha, ok := e.compiler.AlphaNodeFor(ruleID, idx); ok {
				alpha.Matches[f.ID] = struct{}{}
				e.compiler.Activation.Activate(alpha.ID)
			}

			if rule.IsSingleCondition() {
				results = append(results, e.fire(rule, network.Token{f.ID}, now, batchID)...)
				continue
			}

			bm := e.compiler.BetaMemoryFor(ruleID)
			if bm == nil {
				continue
			}
			completed := bm.Activate(idx, f, e.store, now)
			e.sink.Observe(eventsink.Event{Kind: eventsink.TokenPropagated, BatchID: batchID, RuleID: ruleID, FactID: f.ID, Timestamp: now})
			for _, pm := range completed {
				results = append(results, e.fire(rule, pm.Token(), now, batchID)...)
			}
		}
	}

	return results
}

// fire executes a completed match's actions and records it in the rule's
// terminal memory for node-level inspectability.
func (e *Engine) fire(rule *models.Rule, tok network.Token, now time.Time, batchID string) []RuleExecutionResult {
	primary, ok := tok.Primary()
	if !ok {
		return nil
	}

	e.sink.Observe(eventsink.Event{Kind: eventsink.RuleEvaluated, BatchID: batchID, RuleID: rule.ID, FactID: primary, Timestamp: now})

	if terminal, ok := e.compiler.TerminalFor(rule.ID); ok {
		terminal.Memory = append(terminal.Memory, tok)
	}

	actionResults := e.executor.Apply(rule, tok)
	e.sink.Observe(eventsink.Event{Kind: eventsink.RuleFired, BatchID: batchID, RuleID: rule.ID, FactID: primary, Timestamp: now})

	return []RuleExecutionResult{{
		RuleID:          rule.ID,
		PrimaryFactID:   primary,
		ActionsExecuted: actionResults,
	}}
}

// ExpirePartialMatches sweeps every rule's beta memory for partial matches
// older than its configured max age, returning the total dropped.
func (e *Engine) ExpirePartialMatches(now time.Time) int {
	dropped := 0
	for ruleID := range e.rules {
		if bm := e.compiler.BetaMemoryFor(ruleID); bm != nil {
			dropped += bm.Expire(now)
		}
	}
	e.lastExpire = now
	return dropped
}

// maybeExpire runs ExpirePartialMatches only if ExpireInterval has elapsed
// since the last sweep, so a caller driving frequent small batches doesn't
// pay the full-sweep cost on every call.
func (e *Engine) maybeExpire(now time.Time) {
	if e.expireEvery <= 0 {
		return
	}
	if e.lastExpire.IsZero() || now.Sub(e.lastExpire) >= e.expireEvery {
		e.ExpirePartialMatches(now)
	}
}
