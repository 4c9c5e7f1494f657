// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"container/heap"
	"context"
	"encoding/binary"
	"fmt"
	"slices"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Edge is a resolved dependency: To reads Resource as last written by From.
type Edge struct {
	From     NodeIndex
	To       NodeIndex
	Resource string
}

// ImportRead is a read satisfied by an imported resource rather than by a
// node of the graph.
type ImportRead struct {
	Node     NodeIndex
	Resource string
}

// Compile resolves every declared read to its producer and computes the
// execution order with Kahn's algorithm. Among ready nodes the one with the
// smallest index runs first, so independent chains keep registration order.
//
// Compile fails with an *UnresolvedReadError when a read has no producer,
// and with a *CycleError when the dependencies form a cycle. On failure the
// graph has no compiled order. Compiling again without mutation returns
// the same order.
func (g *Graph) Compile() error {
	if g.closed {
		return ErrShutdown
	}
	if g.executing != NoNode {
		return ErrExecuting
	}
	if g.order != nil {
		return nil
	}

	start := time.Now()
	edges, imports, err := g.resolve()
	if err != nil {
		g.log().Warn("framegraph: compile failed", "error", err)
		return err
	}

	fp := g.fingerprint(edges)
	if order, ok := g.orders.Get(fp); ok && len(order) == len(g.nodes) {
		g.order = slices.Clone(order)
		g.edges, g.importReads = edges, imports
		g.stats.CacheHits++
		g.m.compiles.Add(context.Background(), 1,
			metric.WithAttributes(attribute.Bool("framegraph.cache_hit", true)))
		g.log().Debug("framegraph: compiled order from cache",
			"nodes", len(g.nodes), "edges", len(edges))
		return nil
	}

	order, err := g.sort(edges)
	if err != nil {
		g.log().Warn("framegraph: compile failed", "error", err)
		return err
	}
	g.order = order
	g.edges, g.importReads = edges, imports
	g.orders.Put(fp, slices.Clone(order))
	g.stats.Compiles++

	elapsed := time.Since(start)
	g.m.compiles.Add(context.Background(), 1,
		metric.WithAttributes(attribute.Bool("framegraph.cache_hit", false)))
	g.m.compileTime.Record(context.Background(), float64(elapsed.Microseconds())/1000)
	g.log().Debug("framegraph: compiled",
		"nodes", len(g.nodes), "edges", len(edges), "elapsed", elapsed)
	return nil
}

// resolve replays the declaration log against a fresh producer history and
// returns the deduplicated writer to reader edges along with the reads bound
// to imported resources.
func (g *Graph) resolve() ([]Edge, []ImportRead, error) {
	g.resources.resetTopology()

	type pair struct{ from, to NodeIndex }
	seen := make(map[pair]struct{})
	var edges []Edge
	var imports []ImportRead
	bound := make(map[ImportRead]struct{})

	for _, d := range g.decls {
		r, _ := g.resources.lookupOrCreate(d.resource)
		if d.kind == declWrite {
			r.LastWriter = d.node
			continue
		}
		r.Readers = append(r.Readers, d.node)
		switch {
		case r.LastWriter != NoNode:
			p := pair{r.LastWriter, d.node}
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			edges = append(edges, Edge{From: r.LastWriter, To: d.node, Resource: d.resource})
		case r.Imported:
			// Produced outside the graph.
			ir := ImportRead{Node: d.node, Resource: d.resource}
			if _, dup := bound[ir]; !dup {
				bound[ir] = struct{}{}
				imports = append(imports, ir)
			}
		default:
			return nil, nil, &UnresolvedReadError{Node: g.nodes[d.node].name, Resource: d.resource}
		}
	}
	return edges, imports, nil
}

// fingerprint hashes the node names and the edge set. Two builds with the
// same fingerprint share an execution order.
func (g *Graph) fingerprint(edges []Edge) uint64 {
	h := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(g.nodes)))
	_, _ = h.Write(buf[:])
	for _, n := range g.nodes {
		_, _ = h.WriteString(n.name)
		_, _ = h.Write([]byte{0})
	}

	pairs := make([]uint64, 0, len(edges))
	for _, e := range edges {
		pairs = append(pairs, uint64(uint32(e.From))<<32|uint64(uint32(e.To)))
	}
	slices.Sort(pairs)
	for _, p := range pairs {
		binary.LittleEndian.PutUint64(buf[:], p)
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

// readyQueue is a min-heap of node indices.
type readyQueue []NodeIndex

func (q readyQueue) Len() int           { return len(q) }
func (q readyQueue) Less(i, j int) bool { return q[i] < q[j] }
func (q readyQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *readyQueue) Push(x any)        { *q = append(*q, x.(NodeIndex)) }
func (q *readyQueue) Pop() any {
	old := *q
	x := old[len(old)-1]
	*q = old[:len(old)-1]
	return x
}

func (g *Graph) sort(edges []Edge) ([]NodeIndex, error) {
	n := len(g.nodes)
	indegree := make([]int, n)
	succ := make([][]NodeIndex, n)
	for _, e := range edges {
		succ[e.From] = append(succ[e.From], e.To)
		indegree[e.To]++
	}

	ready := make(readyQueue, 0, n)
	for i := range n {
		if indegree[i] == 0 {
			ready = append(ready, NodeIndex(i))
		}
	}
	heap.Init(&ready)

	order := make([]NodeIndex, 0, n)
	for ready.Len() > 0 {
		idx := heap.Pop(&ready).(NodeIndex)
		order = append(order, idx)
		for _, s := range succ[idx] {
			indegree[s]--
			if indegree[s] == 0 {
				heap.Push(&ready, s)
			}
		}
	}

	if len(order) < n {
		return nil, g.cycleError(edges, indegree)
	}
	return order, nil
}

// cycleError walks predecessors among the nodes the sort could not place.
// Each of them has a remaining predecessor, so the walk must revisit a node,
// and that node lies on a cycle.
func (g *Graph) cycleError(edges []Edge, indegree []int) error {
	pred := make([]NodeIndex, len(g.nodes))
	for i := range pred {
		pred[i] = NoNode
	}
	for _, e := range edges {
		if indegree[e.From] > 0 && indegree[e.To] > 0 && pred[e.To] == NoNode {
			pred[e.To] = e.From
		}
	}

	start := NoNode
	for i, d := range indegree {
		if d > 0 {
			start = NodeIndex(i)
			break
		}
	}

	visited := make(map[NodeIndex]bool)
	cur := start
	for !visited[cur] {
		visited[cur] = true
		cur = pred[cur]
	}

	// cur is on the cycle. Collect it backwards, then reverse into
	// dependency order.
	path := []NodeIndex{cur}
	for p := pred[cur]; p != cur; p = pred[p] {
		path = append(path, p)
	}
	path = append(path, cur)
	slices.Reverse(path)

	names := make([]string, len(path))
	for i, idx := range path {
		names[i] = g.nodes[idx].name
	}
	return &CycleError{Node: g.nodes[cur].name, Cycle: names}
}

// Edges returns the dependency edges of the compiled order, or nil when the
// graph needs compiling.
func (g *Graph) Edges() []Edge {
	if g.order == nil {
		return nil
	}
	return slices.Clone(g.edges)
}

// ImportReads returns the reads of the compiled graph that bind to an
// imported resource, in declaration order, or nil when the graph needs
// compiling. A resource read before any node writes it appears here even
// when a later node overwrites it.
func (g *Graph) ImportReads() []ImportRead {
	if g.order == nil {
		return nil
	}
	return slices.Clone(g.importReads)
}

// Dependencies returns the transitive producers of the named node in
// compiled order, excluding the node itself.
func (g *Graph) Dependencies(name string) ([]NodeIndex, error) {
	if g.order == nil {
		return nil, ErrNotCompiled
	}
	keep, err := g.ancestors(name)
	if err != nil {
		return nil, err
	}
	target := g.byName[name]
	var out []NodeIndex
	for _, idx := range g.order {
		if keep[idx] && idx != target {
			out = append(out, idx)
		}
	}
	return out, nil
}

// ancestors marks the named node and every node it transitively depends on.
func (g *Graph) ancestors(name string) ([]bool, error) {
	target, ok := g.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, name)
	}
	preds := make([][]NodeIndex, len(g.nodes))
	for _, e := range g.edges {
		preds[e.To] = append(preds[e.To], e.From)
	}
	keep := make([]bool, len(g.nodes))
	keep[target] = true
	stack := []NodeIndex{target}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range preds[idx] {
			if !keep[p] {
				keep[p] = true
				stack = append(stack, p)
			}
		}
	}
	return keep, nil
}
