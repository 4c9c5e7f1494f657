// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/gogpu/framegraph/internal/cache"
)

// Graph is a frame graph: a resource table, a registry of render-pass
// nodes and the execution order compiled from their declarations.
//
// A Graph is not safe for concurrent use. Mutation, compilation and
// execution belong to the render thread.
type Graph struct {
	resources *ResourceTable
	nodes     []*Node
	byName    map[string]NodeIndex
	decls     []declaration

	// order is nil whenever it does not match the current declarations.
	order       []NodeIndex
	edges       []Edge
	importReads []ImportRead

	orders *cache.Cache[uint64, []NodeIndex]

	executing NodeIndex
	closed    bool

	logger *slog.Logger
	tracer trace.Tracer
	m      graphMetrics

	stats Stats
}

// Stats are counters describing the life of a graph.
type Stats struct {
	Compiles     uint64 // successful compiles that ran the sort
	CacheHits    uint64 // compiles served from the order cache
	Executions   uint64
	Invalidation uint64 // times a valid order was dropped by a mutation
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.resolve()

	g := &Graph{
		byName:    make(map[string]NodeIndex),
		orders:    cache.New[uint64, []NodeIndex](o.cacheSize),
		executing: NoNode,
		logger:    o.logger,
		tracer:    o.tracer,
	}
	g.resources = newResourceTable(g.invalidate)
	g.m = newGraphMetrics(o.meter, g.log())
	return g
}

func (g *Graph) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return Logger()
}

// invalidate drops the compiled order after a topology change.
func (g *Graph) invalidate() {
	if g.order != nil {
		g.stats.Invalidation++
	}
	g.order = nil
	g.edges = nil
	g.importReads = nil
}

// Compiled reports whether the graph holds a valid execution order.
func (g *Graph) Compiled() bool {
	return g.order != nil
}

// Order returns the compiled execution order, or nil when the graph needs
// compiling.
func (g *Graph) Order() []NodeIndex {
	if g.order == nil {
		return nil
	}
	return append([]NodeIndex(nil), g.order...)
}

// Stats returns the graph counters.
func (g *Graph) Stats() Stats {
	return g.stats
}

// OrderCacheStats returns the counters of the compiled-order cache.
func (g *Graph) OrderCacheStats() cache.Stats {
	return g.orders.Stats()
}

// Clear removes every node, declaration and resource and invalidates the
// compiled order. Cached orders are kept so that rebuilding the same
// topology, for example after a window resize, skips the sort.
func (g *Graph) Clear() error {
	if err := g.checkMutable(); err != nil {
		return err
	}
	g.nodes = nil
	clear(g.byName)
	g.decls = nil
	g.resources.Clear()
	g.invalidate()
	return nil
}

// Shutdown releases the graph. Every later call fails with ErrShutdown.
// Calling Shutdown more than once is a no-op.
func (g *Graph) Shutdown() {
	if g.closed {
		return
	}
	g.nodes = nil
	g.byName = nil
	g.decls = nil
	g.resources.changed = nil
	g.resources.Clear()
	g.order = nil
	g.edges = nil
	g.importReads = nil
	g.orders.Clear()
	g.closed = true
	g.log().Info("framegraph: shut down",
		"executions", g.stats.Executions, "compiles", g.stats.Compiles)
}

func (g *Graph) checkMutable() error {
	if g.closed {
		return ErrShutdown
	}
	if g.executing != NoNode {
		return ErrExecuting
	}
	return nil
}
