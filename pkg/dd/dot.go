package dd

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/goccy/go-graphviz"
)

// DOTOptions configures diagram export.
type DOTOptions struct {
	// Detailed adds local bounds and thresholds to node labels.
	Detailed bool
	// StateLabel formats a state. It defaults to fmt's %v verb.
	StateLabel func(any) string
}

// ToDOT converts the last compiled diagram to Graphviz DOT format. Nodes are
// grouped by layer. Merged nodes are dashed and grey, cutset nodes are drawn
// with a double border and the arcs of the best path are bold.
func (d *Diagram[S]) ToDOT(opts DOTOptions) string {
	label := opts.StateLabel
	if label == nil {
		label = func(s any) string { return fmt.Sprintf("%v", s) }
	}

	var buf bytes.Buffer
	buf.WriteString("digraph DD {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	layers := make(map[int][]nodeID)
	for id := range d.nodes {
		if d.nodes[id].flags.has(flagDeleted) {
			continue
		}
		layers[d.nodes[id].depth] = append(layers[d.nodes[id].depth], id)
	}
	depths := make([]int, 0, len(layers))
	for depth := range layers {
		depths = append(depths, depth)
	}
	slices.Sort(depths)

	for _, depth := range depths {
		ids := layers[depth]
		names := make([]string, len(ids))
		for i, id := range ids {
			n := &d.nodes[id]
			fmt.Fprintf(&buf, "  n%d [%s];\n", id, strings.Join(d.dotAttrs(n, label, opts.Detailed), ", "))
			names[i] = fmt.Sprintf("n%d", id)
		}
		fmt.Fprintf(&buf, "  { rank=same; %s; }\n", strings.Join(names, "; "))
	}

	onBest := d.bestPathEdges()
	buf.WriteString("\n")
	for id := range d.nodes {
		n := &d.nodes[id]
		if n.flags.has(flagDeleted) {
			continue
		}
		for eid := n.inbound; eid != noEdge; eid = d.edges[eid].next {
			e := &d.edges[eid]
			attrs := []string{fmt.Sprintf("label=%q", fmt.Sprintf("%s (%d)", e.decision, e.cost))}
			if onBest[eid] {
				attrs = append(attrs, "penwidth=3")
			}
			fmt.Fprintf(&buf, "  n%d -> n%d [%s];\n", e.from, id, strings.Join(attrs, ", "))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func (d *Diagram[S]) dotAttrs(n *node[S], label func(any) string, detailed bool) []string {
	text := fmt.Sprintf("%s\nv=%d", label(n.state), n.value)
	if detailed {
		text += fmt.Sprintf("\nbot=%s theta=%s", fmtBound(n.valueBot), fmtBound(n.theta))
	}
	attrs := []string{fmt.Sprintf("label=%q", text)}
	switch {
	case n.flags.has(flagRelaxed):
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	case n.flags.has(flagPrunedByBarrier):
		attrs = append(attrs, "fontcolor=grey50")
	}
	if n.flags.has(flagCutset) {
		attrs = append(attrs, "peripheries=2")
	}
	return attrs
}

func (d *Diagram[S]) bestPathEdges() map[edgeID]bool {
	onBest := make(map[edgeID]bool)
	if d.best == noNode {
		return onBest
	}
	for eid := d.nodes[d.best].best; eid != noEdge; eid = d.nodes[d.edges[eid].from].best {
		onBest[eid] = true
	}
	return onBest
}

func fmtBound(v int) string {
	switch v {
	case math.MaxInt:
		return "+inf"
	case math.MinInt:
		return "-inf"
	}
	return fmt.Sprint(v)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
