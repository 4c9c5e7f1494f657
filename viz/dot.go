// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package viz

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/gogpu/framegraph"
)

// Options configures DOT output.
type Options struct {
	// Detailed adds the read and write lists to node labels.
	Detailed bool
	// RankDir is the Graphviz rank direction. Empty means "LR".
	RankDir string
}

// ToDOT converts a compiled graph to Graphviz DOT format. It fails with
// framegraph.ErrNotCompiled when g has no compiled order.
func ToDOT(g *framegraph.Graph, opts Options) (string, error) {
	order := g.Order()
	if order == nil {
		return "", framegraph.ErrNotCompiled
	}
	rankdir := opts.RankDir
	if rankdir == "" {
		rankdir = "LR"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph framegraph {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\"];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("\n")

	for pos, idx := range order {
		n := g.Node(idx)
		fmt.Fprintf(&buf, "  %q [%s];\n", nodeID(n), strings.Join(nodeAttrs(n, pos, opts.Detailed), ", "))
	}

	importReads := g.ImportReads()
	imports := make(map[string]bool)
	for _, ir := range importReads {
		imports[ir.Resource] = true
	}

	if len(imports) > 0 {
		buf.WriteString("\n")
		for _, name := range g.Resources().Names() {
			if imports[name] {
				fmt.Fprintf(&buf, "  %q [label=%q, shape=ellipse, style=dashed];\n", importID(name), name)
			}
		}
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n",
			nodeID(g.Node(e.From)), nodeID(g.Node(e.To)), e.Resource)
	}
	for _, ir := range importReads {
		fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n", importID(ir.Resource), nodeID(g.Node(ir.Node)))
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func nodeID(n *framegraph.Node) string { return "node:" + n.Name() }

func importID(name string) string { return "import:" + name }

func nodeAttrs(n *framegraph.Node, pos int, detailed bool) []string {
	label := fmt.Sprintf("%d. %s", pos+1, n.Name())
	if detailed {
		if r := n.Reads(); len(r) > 0 {
			label += "\nreads: " + strings.Join(r, ", ")
		}
		if w := n.Writes(); len(w) > 0 {
			label += "\nwrites: " + strings.Join(w, ", ")
		}
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case n.IsSource() && n.IsSink():
		attrs = append(attrs, "fillcolor=lightgrey")
	case n.IsSource():
		attrs = append(attrs, "fillcolor=\"#d8ecd8\"")
	case n.IsSink():
		attrs = append(attrs, "fillcolor=\"#d8e0f0\"", "peripheries=2")
	}
	return attrs
}

// RenderSVG lays out DOT source with Graphviz and returns SVG bytes.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.SVG)
}

// RenderPNG lays out DOT source with Graphviz and returns PNG bytes.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("viz: init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("viz: parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("viz: render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}
