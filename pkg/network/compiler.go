package network

import (
	"time"

	"github.com/hl/bingo-sub000/pkg/models"
)

// ruleNodes records every node id a compiled rule owns, so removal can walk
// exactly the nodes that rule contributed without touching nodes other
// rules still share.
type ruleNodes struct {
	alphas     []NodeID
	betas      []NodeID
	terminal   NodeID
	betaMemory *RuleBetaMemory
}

// Compiler turns Rules into live network nodes, threading every compiled
// rule through the shared pattern cache, node-sharing registry, alpha
// index, and activation tracker so that two rules with overlapping
// conditions or joins reuse nodes instead of duplicating the network.
type Compiler struct {
	Tables     *Tables
	Sharing    *SharingRegistry
	AlphaIdx   *AlphaIndex
	Cache      *PatternCache
	Activation *ActivationTracker

	owned         map[uint64]*ruleNodes
	partialMaxAge time.Duration
}

// NewCompiler wires a fresh compiler over empty shared state, with the
// default pattern-cache capacity and no partial-match expiry.
func NewCompiler() *Compiler {
	return NewCompilerWithOptions(256, 0)
}

// NewCompilerWithOptions wires a fresh compiler with a custom pattern-cache
// capacity and the max age a partial match may sit incomplete in beta
// memory before expiry discards it (zero disables expiry).
func NewCompilerWithOptions(patternCacheCapacity int, partialMatchMaxAge time.Duration) *Compiler {
	return &Compiler{
		Tables:        NewTables(),
		Sharing:       NewSharingRegistry(),
		AlphaIdx:      NewAlphaIndex(),
		Cache:         NewPatternCache(patternCacheCapacity),
		Activation:    NewActivationTracker(),
		owned:         map[uint64]*ruleNodes{},
		partialMaxAge: partialMatchMaxAge,
	}
}

// AddRule compiles a rule into the network: for each condition it acquires
// (or shares) an alpha node and indexes it for fast candidate lookup; for
// rules with more than one condition it chains beta nodes pairwise via
// shared-or-new join nodes; finally it allocates a dedicated (never shared)
// terminal node carrying the rule's actions, linked as the successor of the
// rule's last alpha or beta node.
func (c *Compiler) AddRule(rule *models.Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	if _, exists := c.owned[rule.ID]; exists {
		return &models.RuleCompilationError{RuleID: rule.ID, Reason: "already compiled", Err: models.ErrRuleExists}
	}

	plan, ok := c.Cache.Get(rule.Conditions)
	if !ok {
		plan = BuildPlan(rule.Conditions)
		c.Cache.Put(rule.Conditions, plan)
	}

	owned := &ruleNodes{}

	alphaIDs := make([]NodeID, len(plan.Conditions))
	for i, cond := range plan.Conditions {
		node := c.Sharing.AcquireAlpha(c.Tables, cond)
		alphaIDs[i] = node.ID
		owned.alphas = append(owned.alphas, node.ID)
		if cond.Kind == models.ConditionSimple && cond.Operator.IsEquality() {
			c.AlphaIdx.IndexEquality(cond.Field, cond.Value, rule.ID)
		} else {
			c.AlphaIdx.IndexUniversal(rule.ID)
		}
	}

	lastNode := alphaIDs[0]
	for i := 1; i < len(alphaIDs); i++ {
		specs := plan.JoinSpecs[i]
		beta := c.Sharing.AcquireBeta(c.Tables, lastNode, alphaIDs[i], specs)
		owned.betas = append(owned.betas, beta.ID)
		lastNode = beta.ID
	}

	terminalID := c.Tables.allocID()
	terminal := newTerminalNode(terminalID, rule.ID, rule.Actions)
	c.Tables.Terminals[terminalID] = terminal
	owned.terminal = terminalID
	c.addSuccessor(lastNode, terminalID)

	if len(rule.Conditions) > 1 {
		owned.betaMemory = NewRuleBetaMemory(rule.ID, rule.Conditions, c.partialMaxAge)
	}

	c.owned[rule.ID] = owned
	return nil
}

// addSuccessor links predecessorID's successor list to include
// successorID, locating predecessorID in whichever of the alpha/beta tables
// owns it.
func (c *Compiler) addSuccessor(predecessorID, successorID NodeID) {
	if node, ok := c.Tables.Alphas[predecessorID]; ok {
		node.Successors = append(node.Successors, successorID)
		return
	}
	if node, ok := c.Tables.Betas[predecessorID]; ok {
		node.Successors = append(node.Successors, successorID)
	}
}

// RemoveRule releases every node the rule contributed. Shared alpha/beta
// nodes survive if another rule still references them; the rule's
// terminal node, never being shared, is always deleted. The alpha index
// and beta memory entries for the rule are purged unconditionally.
func (c *Compiler) RemoveRule(ruleID uint64) error {
	owned, ok := c.owned[ruleID]
	if !ok {
		return models.ErrRuleNotFound
	}

	for _, id := range owned.betas {
		if c.Sharing.ReleaseBeta(c.Tables, id) {
			c.Activation.Forget(id)
		}
	}
	for _, id := range owned.alphas {
		if c.Sharing.ReleaseAlpha(c.Tables, id) {
			c.Activation.Forget(id)
		}
	}
	delete(c.Tables.Terminals, owned.terminal)
	c.Activation.Forget(owned.terminal)
	c.AlphaIdx.RemoveRule(ruleID)

	delete(c.owned, ruleID)
	return nil
}

// RuleCount reports how many rules are currently compiled into the
// network.
func (c *Compiler) RuleCount() int {
	return len(c.owned)
}

// BetaMemoryFor returns the rule's beta memory (nil for single-condition
// rules, which need no join state).
func (c *Compiler) BetaMemoryFor(ruleID uint64) *RuleBetaMemory {
	owned, ok := c.owned[ruleID]
	if !ok {
		return nil
	}
	return owned.betaMemory
}

// AlphaNodeFor returns the alpha node backing a rule's condition at
// conditionIndex, used to mirror live fact matches onto the node for
// inspectability.
func (c *Compiler) AlphaNodeFor(ruleID uint64, conditionIndex int) (*AlphaNode, bool) {
	owned, ok := c.owned[ruleID]
	if !ok || conditionIndex < 0 || conditionIndex >= len(owned.alphas) {
		return nil, false
	}
	return c.Tables.Alphas[owned.alphas[conditionIndex]], true
}

// TerminalFor returns the rule's terminal node.
func (c *Compiler) TerminalFor(ruleID uint64) (*TerminalNode, bool) {
	owned, ok := c.owned[ruleID]
	if !ok {
		return nil, false
	}
	node, ok := c.Tables.Terminals[owned.terminal]
	return node, ok
}
