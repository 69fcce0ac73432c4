// Package visualization renders a compiled discrimination network as a
// diagram, for inspecting how rules share alpha and beta nodes.
//
// Example usage:
//
//	renderer := visualization.NewMermaidRenderer()
//	opts := visualization.DefaultRenderOptions()
//	diagram, err := renderer.Render(compiler.Tables, opts)
package visualization

import (
	"github.com/hl/bingo-sub000/pkg/network"
)

// Renderer is the interface for rendering a network's nodes in different
// formats.
type Renderer interface {
	// Render converts the node tables into the target format.
	Render(tables *network.Tables, opts *RenderOptions) (string, error)

	// Format returns the format identifier (e.g., "mermaid").
	Format() string
}

// RenderOptions configures how a network is rendered.
type RenderOptions struct {
	// ShowConditions controls whether alpha-node condition details (field,
	// operator, value) are displayed on the node label.
	ShowConditions bool

	// ShowJoinSpecs controls whether beta-node join-field details are
	// displayed on the node label.
	ShowJoinSpecs bool

	// ShowRefCounts controls whether node sharing ref-counts are appended
	// to labels, useful for spotting heavily-shared nodes.
	ShowRefCounts bool

	// Direction sets the diagram flow direction.
	// Valid values: "TB" (top-bottom), "LR" (left-right), "RL" (right-left), "BT" (bottom-top).
	Direction string
}

// DefaultRenderOptions returns the default rendering options.
func DefaultRenderOptions() *RenderOptions {
	return &RenderOptions{
		ShowConditions: true,
		ShowJoinSpecs:  true,
		ShowRefCounts:  false,
		Direction:      "LR",
	}
}
