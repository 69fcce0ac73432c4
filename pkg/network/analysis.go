package network

import (
	"sort"

	"github.com/hl/bingo-sub000/pkg/models"
)

// DependencyKind classifies why one rule depends on another in a
// DependencyGraph.
type DependencyKind int

const (
	// DependencyDataFlow means the From rule writes a field the To rule's
	// conditions read, so To can only match after From has run.
	DependencyDataFlow DependencyKind = iota
	// DependencyFieldConflict means From and To both write the same field,
	// so running them out of declaration order can change the result.
	DependencyFieldConflict
)

func (k DependencyKind) String() string {
	switch k {
	case DependencyDataFlow:
		return "data_flow"
	case DependencyFieldConflict:
		return "field_conflict"
	default:
		return "unknown"
	}
}

// RuleDependency records a directed edge between two rules discovered by
// DependencyGraph.
type RuleDependency struct {
	From   uint64
	To     uint64
	Kind   DependencyKind
	Fields []string
}

// CycleSeverity buckets a detected circular dependency by how many rules
// it touches.
type CycleSeverity string

const (
	CycleMinor    CycleSeverity = "minor"
	CycleModerate CycleSeverity = "moderate"
	CycleSevere   CycleSeverity = "severe"
)

// Cycle is a circular chain of data-flow dependencies: following From->To
// edges starting at any rule in RuleIDs eventually returns to it.
type Cycle struct {
	RuleIDs  []uint64
	Severity CycleSeverity
}

// DependencyGraph is the field-level data-flow and conflict analysis over a
// rule set, grounded in the dependency and complexity analysis the teacher's
// rule-visualization tooling performs ahead of execution-order planning.
type DependencyGraph struct {
	Dependencies []RuleDependency
	Cycles       []Cycle
	Clusters     [][]uint64
}

// AnalyzeDependencies builds a DependencyGraph over rules: data-flow edges
// from field write/read overlap, field-conflict edges from write/write
// overlap, cycles found by depth-first search over the data-flow edges, and
// rules grouped into weakly-connected execution clusters.
func AnalyzeDependencies(rules []*models.Rule) *DependencyGraph {
	reads := make(map[uint64]map[string]bool, len(rules))
	writes := make(map[uint64]map[string]bool, len(rules))
	ids := make([]uint64, 0, len(rules))
	for _, r := range rules {
		reads[r.ID] = conditionFields(r.Conditions)
		writes[r.ID] = actionFields(r.Actions)
		ids = append(ids, r.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var deps []RuleDependency
	for _, from := range ids {
		for _, to := range ids {
			if from == to {
				continue
			}
			if shared := sharedFields(writes[from], reads[to]); len(shared) > 0 {
				deps = append(deps, RuleDependency{From: from, To: to, Kind: DependencyDataFlow, Fields: shared})
			}
		}
	}
	for i, a := range ids {
		for _, b := range ids[i+1:] {
			if shared := sharedFields(writes[a], writes[b]); len(shared) > 0 {
				deps = append(deps, RuleDependency{From: a, To: b, Kind: DependencyFieldConflict, Fields: shared})
			}
		}
	}

	return &DependencyGraph{
		Dependencies: deps,
		Cycles:       detectCycles(ids, deps),
		Clusters:     executionClusters(ids, deps),
	}
}

// conditionFields collects every field a rule's conditions read, recursing
// through Complex sub-conditions.
func conditionFields(conditions []models.Condition) map[string]bool {
	out := map[string]bool{}
	var walk func(c *models.Condition)
	walk = func(c *models.Condition) {
		switch c.Kind {
		case models.ConditionSimple:
			if c.Field != "" {
				out[c.Field] = true
			}
		case models.ConditionComplex:
			for i := range c.SubConditions {
				walk(&c.SubConditions[i])
			}
		case models.ConditionAggregation:
			if c.AggregationField != "" {
				out[c.AggregationField] = true
			}
		}
	}
	for i := range conditions {
		walk(&conditions[i])
	}
	return out
}

// actionFields collects every field a rule's actions write.
func actionFields(actions []models.Action) map[string]bool {
	out := map[string]bool{}
	for _, a := range actions {
		switch a.Kind {
		case models.ActionSetField, models.ActionIncrementField, models.ActionAppendToArray, models.ActionConditionalSet:
			if a.Field != "" {
				out[a.Field] = true
			}
		case models.ActionFormula:
			if a.OutputField != "" {
				out[a.OutputField] = true
			}
		case models.ActionCreateFact:
			for field := range a.Data {
				out[field] = true
			}
		case models.ActionUpdateFact:
			for field := range a.Updates {
				out[field] = true
			}
		}
	}
	return out
}

func sharedFields(a, b map[string]bool) []string {
	var out []string
	for field := range a {
		if b[field] {
			out = append(out, field)
		}
	}
	sort.Strings(out)
	return out
}

// detectCycles finds circular chains of data-flow dependencies via
// depth-first search, tracking the current path so a back-edge into it
// yields the exact cycle rather than just flagging that one exists.
func detectCycles(ids []uint64, deps []RuleDependency) []Cycle {
	adj := map[uint64][]uint64{}
	for _, d := range deps {
		if d.Kind == DependencyDataFlow {
			adj[d.From] = append(adj[d.From], d.To)
		}
	}
	for _, targets := range adj {
		sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
	}

	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := map[uint64]int{}
	var stack []uint64
	var cycles []Cycle
	seen := map[string]bool{}

	var dfs func(id uint64)
	dfs = func(id uint64) {
		state[id] = inStack
		stack = append(stack, id)
		for _, next := range adj[id] {
			switch state[next] {
			case unvisited:
				dfs(next)
			case inStack:
				if idx := indexOf(stack, next); idx >= 0 {
					cyc := append([]uint64(nil), stack[idx:]...)
					key := cycleKey(cyc)
					if !seen[key] {
						seen[key] = true
						cycles = append(cycles, Cycle{RuleIDs: cyc, Severity: severityFor(len(cyc))})
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
	}
	for _, id := range ids {
		if state[id] == unvisited {
			dfs(id)
		}
	}
	return cycles
}

func indexOf(stack []uint64, id uint64) int {
	for i, v := range stack {
		if v == id {
			return i
		}
	}
	return -1
}

// cycleKey normalizes a cycle to a canonical rotation so the same cycle
// found from two different starting rules is only reported once.
func cycleKey(cycle []uint64) string {
	minIdx := 0
	for i, id := range cycle {
		if id < cycle[minIdx] {
			minIdx = i
		}
	}
	key := ""
	for i := range cycle {
		if i > 0 {
			key += ","
		}
		key += uitoa(cycle[(minIdx+i)%len(cycle)])
	}
	return key
}

func uitoa(id uint64) string {
	if id == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for id > 0 {
		i--
		buf[i] = byte('0' + id%10)
		id /= 10
	}
	return string(buf[i:])
}

func severityFor(length int) CycleSeverity {
	switch {
	case length >= 5:
		return CycleSevere
	case length >= 3:
		return CycleModerate
	default:
		return CycleMinor
	}
}

// executionClusters groups rules into weakly-connected components over
// data-flow dependencies via union-find: rules with no data-flow
// relationship to any other rule land in their own singleton cluster, and
// rules chained by data flow land together.
func executionClusters(ids []uint64, deps []RuleDependency) [][]uint64 {
	parent := map[uint64]uint64{}
	for _, id := range ids {
		parent[id] = id
	}
	var find func(id uint64) uint64
	find = func(id uint64) uint64 {
		if parent[id] != id {
			parent[id] = find(parent[id])
		}
		return parent[id]
	}
	union := func(a, b uint64) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}
	for _, d := range deps {
		if d.Kind == DependencyDataFlow {
			union(d.From, d.To)
		}
	}

	groups := map[uint64][]uint64{}
	for _, id := range ids {
		root := find(id)
		groups[root] = append(groups[root], id)
	}
	roots := make([]uint64, 0, len(groups))
	for root := range groups {
		roots = append(roots, root)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })

	clusters := make([][]uint64, 0, len(roots))
	for _, root := range roots {
		members := groups[root]
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
		clusters = append(clusters, members)
	}
	return clusters
}

// ComplexityRating buckets a rule's estimated execution cost, mirroring the
// teacher's complexity-based visualization hints.
type ComplexityRating string

const (
	ComplexitySimple      ComplexityRating = "simple"
	ComplexityModerate    ComplexityRating = "moderate"
	ComplexityComplex     ComplexityRating = "complex"
	ComplexityVeryComplex ComplexityRating = "very_complex"
)

// RuleComplexity scores a single rule's structural and network cost: its
// cyclomatic complexity (one decision point per condition plus the rule
// itself), and an estimated execution cost factoring in how many other
// rules feed it (FanIn) and how many it feeds (FanOut).
type RuleComplexity struct {
	RuleID               uint64
	ConditionCount       int
	ActionCount          int
	CyclomaticComplexity int
	FanIn                int
	FanOut               int
	EstimatedCost        float64
	Rating               ComplexityRating
}

// ComplexityMetrics scores every rule's complexity, using graph to derive
// each rule's fan-in and fan-out across data-flow dependencies.
func ComplexityMetrics(rules []*models.Rule, graph *DependencyGraph) []RuleComplexity {
	fanIn := map[uint64]int{}
	fanOut := map[uint64]int{}
	if graph != nil {
		for _, d := range graph.Dependencies {
			if d.Kind != DependencyDataFlow {
				continue
			}
			fanOut[d.From]++
			fanIn[d.To]++
		}
	}

	metrics := make([]RuleComplexity, 0, len(rules))
	for _, r := range rules {
		conditions := len(r.Conditions)
		actions := len(r.Actions)
		cost := float64(conditions) + float64(actions)*2 +
			float64(fanIn[r.ID])*0.5 + float64(fanOut[r.ID])*0.3

		metrics = append(metrics, RuleComplexity{
			RuleID:               r.ID,
			ConditionCount:       conditions,
			ActionCount:          actions,
			CyclomaticComplexity: conditions + 1,
			FanIn:                fanIn[r.ID],
			FanOut:               fanOut[r.ID],
			EstimatedCost:        cost,
			Rating:               ratingFor(cost),
		})
	}
	return metrics
}

func ratingFor(cost float64) ComplexityRating {
	switch {
	case cost < 5:
		return ComplexitySimple
	case cost < 15:
		return ComplexityModerate
	case cost < 30:
		return ComplexityComplex
	default:
		return ComplexityVeryComplex
	}
}
