package network

import (
	"time"

	"github.com/hl/bingo-sub000/pkg/fact"
	"github.com/hl/bingo-sub000/pkg/models"
)

// NodeID is a monotonically-assigned identifier for a network node of any
// kind. Ids are never reused across kinds or after removal, which keeps
// node-removal a simple table delete rather than a generational scheme.
type NodeID uint64

// NodeKind tags which of the three parallel node tables a NodeID lives in.
type NodeKind int

const (
	KindAlpha NodeKind = iota
	KindBeta
	KindTerminal
)

// AlphaNode owns one condition (Simple, or a single-level Complex
// sub-condition) and the set of facts currently satisfying it.
type AlphaNode struct {
	ID         NodeID
	Condition  models.Condition
	Matches    map[fact.ID]struct{}
	Successors []NodeID
	RefCount   int
}

func newAlphaNode(id NodeID, cond models.Condition) *AlphaNode {
	return &AlphaNode{ID: id, Condition: cond, Matches: map[fact.ID]struct{}{}}
}

// JoinSpec is a single field-equality (or comparable) join condition
// between the left and right streams feeding a BetaNode.
type JoinSpec struct {
	LeftField  string
	RightField string
	Operator   models.Operator
}

// BetaNode joins two predecessor streams (alpha or beta) under a set of
// join conditions. Left/Right are token lists for node-level inspection;
// nothing in the engine populates them (purges still filter them). The
// executable multi-condition matching is driven by RuleBetaMemory, whose
// matches are not copied here.
type BetaNode struct {
	ID          NodeID
	JoinSpecs   []JoinSpec
	Left        []Token
	Right       []Token
	Predecessor [2]NodeID
	Successors  []NodeID
	RefCount    int
}

func newBetaNode(id NodeID, specs []JoinSpec, left, right NodeID) *BetaNode {
	return &BetaNode{ID: id, JoinSpecs: specs, Predecessor: [2]NodeID{left, right}}
}

// TerminalNode marks a fully matched rule and owns its action list. It is
// never shared.
type TerminalNode struct {
	ID      NodeID
	RuleID  uint64
	Actions []models.Action
	Memory  []Token
}

func newTerminalNode(id NodeID, ruleID uint64, actions []models.Action) *TerminalNode {
	return &TerminalNode{ID: id, RuleID: ruleID, Actions: actions}
}

// PartialMatch is the beta-memory form of an in-progress multi-condition
// rule match.
type PartialMatch struct {
	RuleID             uint64
	MatchedFacts       map[int]fact.ID
	NextConditionIndex int
	TotalConditions    int
	CreatedAt          time.Time
}

// Complete reports whether every condition slot has been filled.
func (pm *PartialMatch) Complete() bool {
	return len(pm.MatchedFacts) == pm.TotalConditions
}

// Token materializes the partial match's matched facts in condition order.
func (pm *PartialMatch) Token() Token {
	t := make(Token, pm.TotalConditions)
	for idx, id := range pm.MatchedFacts {
		if idx >= 0 && idx < len(t) {
			t[idx] = id
		}
	}
	return t
}

// Tables is the arena holding every node in the network, indexed by
// NodeID, organized as three parallel tables per node kind rather than a
// single heterogeneous collection.
type Tables struct {
	nextID    NodeID
	Alphas    map[NodeID]*AlphaNode
	Betas     map[NodeID]*BetaNode
	Terminals map[NodeID]*TerminalNode
}

// NewTables creates an empty node arena.
func NewTables() *Tables {
	return &Tables{
		Alphas:    map[NodeID]*AlphaNode{},
		Betas:     map[NodeID]*BetaNode{},
		Terminals: map[NodeID]*TerminalNode{},
	}
}

func (t *Tables) allocID() NodeID {
	t.nextID++
	return t.nextID
}

// Kind reports which table a node id lives in, or false if it's unknown to
// this arena.
func (t *Tables) Kind(id NodeID) (NodeKind, bool) {
	if _, ok := t.Alphas[id]; ok {
		return KindAlpha, true
	}
	if _, ok := t.Betas[id]; ok {
		return KindBeta, true
	}
	if _, ok := t.Terminals[id]; ok {
		return KindTerminal, true
	}
	return 0, false
}
