// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"context"
	"fmt"
	"slices"
)

// NodeIndex identifies a node. Indices are assigned in registration order
// and stay stable until Clear.
type NodeIndex int32

// NoNode is the NodeIndex of "no node", used for resources without a
// producing node.
const NoNode NodeIndex = -1

// NodeFunc is the callback of a render-pass node. It runs on the render
// thread during Execute and receives the user context passed to Execute.
type NodeFunc func(ctx context.Context, g *Graph, n *Node, user any)

// Node is a render pass registered in a graph.
type Node struct {
	name   string
	index  NodeIndex
	reads  []string
	writes []string
	fn     NodeFunc
}

func (n *Node) Name() string     { return n.name }
func (n *Node) Index() NodeIndex { return n.index }

// Reads returns the resources the node declared as reads, in declaration
// order.
func (n *Node) Reads() []string { return slices.Clone(n.reads) }

// Writes returns the resources the node declared as writes, in declaration
// order.
func (n *Node) Writes() []string { return slices.Clone(n.writes) }

// IsSource reports whether the node reads nothing.
func (n *Node) IsSource() bool { return len(n.reads) == 0 }

// IsSink reports whether the node writes nothing.
func (n *Node) IsSink() bool { return len(n.writes) == 0 }

func (n *Node) String() string {
	return fmt.Sprintf("%s#%d", n.name, n.index)
}

type declKind uint8

const (
	declWrite declKind = iota
	declRead
)

// declaration is one DeclareRead or DeclareWrite call. Compile replays
// them in call order so a read binds to the last write declared before it.
type declaration struct {
	node     NodeIndex
	kind     declKind
	resource string
}

// AddNode registers a render pass with no reads or writes and returns its
// index.
func (g *Graph) AddNode(name string, fn NodeFunc) (NodeIndex, error) {
	if err := g.checkMutable(); err != nil {
		return NoNode, err
	}
	if name == "" {
		return NoNode, fmt.Errorf("%w: node name", ErrEmptyName)
	}
	if fn == nil {
		return NoNode, fmt.Errorf("%w: node %q", ErrNilCallback, name)
	}
	if _, ok := g.byName[name]; ok {
		return NoNode, fmt.Errorf("%w: %q", ErrDuplicateNode, name)
	}

	idx := NodeIndex(len(g.nodes))
	g.nodes = append(g.nodes, &Node{name: name, index: idx, fn: fn})
	g.byName[name] = idx
	g.invalidate()
	return idx, nil
}

// DeclareWrite declares that node n produces resource.
func (g *Graph) DeclareWrite(n NodeIndex, resource string) error {
	return g.declare(n, declWrite, resource)
}

// DeclareRead declares that node n consumes resource. The read binds to the
// last write of resource declared before this call.
func (g *Graph) DeclareRead(n NodeIndex, resource string) error {
	return g.declare(n, declRead, resource)
}

func (g *Graph) declare(idx NodeIndex, kind declKind, resource string) error {
	if err := g.checkMutable(); err != nil {
		return err
	}
	n, err := g.node(idx)
	if err != nil {
		return err
	}
	if resource == "" {
		return fmt.Errorf("%w: resource name on node %q", ErrEmptyName, n.name)
	}

	own, other := &n.writes, n.reads
	if kind == declRead {
		own, other = &n.reads, n.writes
	}
	if slices.Contains(other, resource) {
		return fmt.Errorf("%w: node %q, resource %q", ErrSelfDependency, n.name, resource)
	}
	if slices.Contains(*own, resource) {
		return nil
	}
	*own = append(*own, resource)
	g.decls = append(g.decls, declaration{node: idx, kind: kind, resource: resource})

	r, _ := g.resources.lookupOrCreate(resource)
	if kind == declWrite {
		r.LastWriter = idx
	} else {
		r.Readers = append(r.Readers, idx)
	}
	g.invalidate()
	return nil
}

func (g *Graph) node(idx NodeIndex) (*Node, error) {
	if idx < 0 || int(idx) >= len(g.nodes) {
		return nil, fmt.Errorf("%w: index %d", ErrUnknownNode, idx)
	}
	return g.nodes[idx], nil
}

// Node returns the node at idx, or nil if there is none.
func (g *Graph) Node(idx NodeIndex) *Node {
	n, err := g.node(idx)
	if err != nil {
		return nil
	}
	return n
}

// NodeByName returns the node registered under name.
func (g *Graph) NodeByName(name string) (*Node, bool) {
	idx, ok := g.byName[name]
	if !ok {
		return nil, false
	}
	return g.nodes[idx], true
}

// Nodes returns the registered nodes in registration order.
func (g *Graph) Nodes() []*Node {
	return slices.Clone(g.nodes)
}

// Len returns the number of registered nodes.
func (g *Graph) Len() int { return len(g.nodes) }
