package visualization

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hl/bingo-sub000/pkg/network"
)

// MermaidRenderer renders a compiled network as a Mermaid flowchart diagram.
type MermaidRenderer struct{}

// NewMermaidRenderer creates a new Mermaid renderer.
func NewMermaidRenderer() *MermaidRenderer {
	return &MermaidRenderer{}
}

// Format returns the format identifier.
func (r *MermaidRenderer) Format() string {
	return "mermaid"
}

// Render converts a network's node tables into Mermaid flowchart syntax:
// alpha nodes as rectangles, beta nodes as diamonds, terminal nodes as
// stadiums, edges following each node's Successors list.
func (r *MermaidRenderer) Render(tables *network.Tables, opts *RenderOptions) (string, error) {
	if tables == nil {
		return "", fmt.Errorf("tables is nil")
	}
	if opts == nil {
		opts = DefaultRenderOptions()
	}

	var sb strings.Builder
	sb.WriteString("flowchart ")
	sb.WriteString(opts.Direction)
	sb.WriteString("\n")

	for _, id := range sortedAlphaIDs(tables) {
		node := tables.Alphas[id]
		sb.WriteString("    ")
		sb.WriteString(r.renderAlphaNode(node, opts))
		sb.WriteString("\n")
	}
	for _, id := range sortedBetaIDs(tables) {
		node := tables.Betas[id]
		sb.WriteString("    ")
		sb.WriteString(r.renderBetaNode(node, opts))
		sb.WriteString("\n")
	}
	for _, id := range sortedTerminalIDs(tables) {
		node := tables.Terminals[id]
		sb.WriteString("    ")
		sb.WriteString(r.renderTerminalNode(node))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	for _, id := range sortedAlphaIDs(tables) {
		r.renderSuccessorEdges(&sb, tables, nodeLabel(network.KindAlpha, id), tables.Alphas[id].Successors)
	}
	for _, id := range sortedBetaIDs(tables) {
		r.renderSuccessorEdges(&sb, tables, nodeLabel(network.KindBeta, id), tables.Betas[id].Successors)
	}

	sb.WriteString(r.renderStyles())

	return sb.String(), nil
}

func (r *MermaidRenderer) renderSuccessorEdges(sb *strings.Builder, tables *network.Tables, from string, successors []network.NodeID) {
	for _, succ := range successors {
		kind, ok := tables.Kind(succ)
		if !ok {
			continue
		}
		sb.WriteString("    ")
		sb.WriteString(from)
		sb.WriteString(" --> ")
		sb.WriteString(nodeLabel(kind, succ))
		sb.WriteString("\n")
	}
}

// nodeLabel derives a Mermaid node id from a node's kind and id.
func nodeLabel(kind network.NodeKind, id network.NodeID) string {
	switch kind {
	case network.KindAlpha:
		return fmt.Sprintf("alpha%d", id)
	case network.KindBeta:
		return fmt.Sprintf("beta%d", id)
	default:
		return fmt.Sprintf("terminal%d", id)
	}
}

func (r *MermaidRenderer) renderAlphaNode(node *network.AlphaNode, opts *RenderOptions) string {
	label := "alpha"
	if opts.ShowConditions {
		label = conditionLabel(&node.Condition)
	}
	if opts.ShowRefCounts {
		label = fmt.Sprintf("%s (x%d)", label, node.RefCount)
	}
	return fmt.Sprintf(`%s["%s"]`, nodeLabel(network.KindAlpha, node.ID), escapeLabel(label))
}

func (r *MermaidRenderer) renderBetaNode(node *network.BetaNode, opts *RenderOptions) string {
	label := "join"
	if opts.ShowJoinSpecs && len(node.JoinSpecs) > 0 {
		var parts []string
		for _, spec := range node.JoinSpecs {
			parts = append(parts, fmt.Sprintf("%s=%s", spec.LeftField, spec.RightField))
		}
		label = strings.Join(parts, ", ")
	}
	if opts.ShowRefCounts {
		label = fmt.Sprintf("%s (x%d)", label, node.RefCount)
	}
	return fmt.Sprintf(`%s{"%s"}`, nodeLabel(network.KindBeta, node.ID), escapeLabel(label))
}

func (r *MermaidRenderer) renderTerminalNode(node *network.TerminalNode) string {
	label := fmt.Sprintf("rule %d (%d actions)", node.RuleID, len(node.Actions))
	return fmt.Sprintf(`%s(["%s"])`, nodeLabel(network.KindTerminal, node.ID), escapeLabel(label))
}

func (r *MermaidRenderer) renderStyles() string {
	var sb strings.Builder
	sb.WriteString("\n    %% Node kind styles\n")
	sb.WriteString("    classDef alphaStyle fill:#D0E6FF,stroke:#1A73E8,stroke-width:2px,color:#000\n")
	sb.WriteString("    classDef betaStyle fill:#FFE5C2,stroke:#F7931A,stroke-width:2px,color:#000\n")
	sb.WriteString("    classDef terminalStyle fill:#DFF7E3,stroke:#34A853,stroke-width:2px,color:#000\n")
	return sb.String()
}

func conditionLabel(c interface{ Signature() string }) string {
	return c.Signature()
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}

func sortedAlphaIDs(tables *network.Tables) []network.NodeID {
	ids := make([]network.NodeID, 0, len(tables.Alphas))
	for id := range tables.Alphas {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedBetaIDs(tables *network.Tables) []network.NodeID {
	ids := make([]network.NodeID, 0, len(tables.Betas))
	for id := range tables.Betas {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedTerminalIDs(tables *network.Tables) []network.NodeID {
	ids := make([]network.NodeID, 0, len(tables.Terminals))
	for id := range tables.Terminals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
