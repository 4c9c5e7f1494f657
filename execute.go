// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Execute runs every node once, in compiled order, passing user to each
// callback. It fails with ErrNotCompiled when the graph was mutated since
// the last successful Compile; the failure is also logged at error level
// because a skipped execution drops a frame.
//
// Callbacks run synchronously on the calling goroutine. They may Read and
// Write resources but must not change the topology.
func (g *Graph) Execute(ctx context.Context, user any) error {
	return g.run(ctx, "", nil, user)
}

// ExecuteTarget runs only the named node and the nodes it transitively
// depends on, in compiled order. Nodes whose output does not reach the
// target are skipped.
func (g *Graph) ExecuteTarget(ctx context.Context, name string, user any) error {
	if err := g.ready(); err != nil {
		return err
	}
	keep, err := g.ancestors(name)
	if err != nil {
		return err
	}
	return g.run(ctx, name, keep, user)
}

// MustExecute is like Execute but panics on error.
func (g *Graph) MustExecute(ctx context.Context, user any) {
	if err := g.Execute(ctx, user); err != nil {
		panic(err)
	}
}

func (g *Graph) ready() error {
	switch {
	case g.closed:
		return ErrShutdown
	case g.executing != NoNode:
		return ErrExecuting
	case g.order == nil:
		g.log().Error("framegraph: execute without a compiled order",
			"nodes", len(g.nodes))
		return ErrNotCompiled
	}
	return nil
}

func (g *Graph) run(ctx context.Context, target string, keep []bool, user any) error {
	if err := g.ready(); err != nil {
		return err
	}

	attrs := []attribute.KeyValue{attribute.Int("framegraph.nodes", len(g.order))}
	if target != "" {
		attrs = append(attrs, attribute.String("framegraph.target", target))
	}
	ctx, span := g.tracer.Start(ctx, "framegraph.Execute", trace.WithAttributes(attrs...))
	defer span.End()

	order := g.order
	defer func() { g.executing = NoNode }()
	for _, idx := range order {
		if keep != nil && !keep[idx] {
			continue
		}
		n := g.nodes[idx]
		g.executing = idx
		nctx, nspan := g.tracer.Start(ctx, n.name,
			trace.WithAttributes(attribute.Int("framegraph.node.index", int(idx))))
		n.fn(nctx, g, n, user)
		nspan.End()
	}

	g.stats.Executions++
	g.m.executions.Add(ctx, 1)
	return nil
}
