// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"fmt"
	"slices"
)

// Handle is an opaque resource identity supplied by the writer, such as a
// texture or buffer id. It is meaningless until written.
type Handle uint64

// Resource is a snapshot of one entry of the resource table.
type Resource struct {
	Name   string
	Handle Handle
	// Value holds a non-integer payload written with WriteValue.
	Value any
	// Imported is set for resources written outside node execution. Imported
	// resources satisfy reads without a producing node.
	Imported bool
	// Written reports whether Handle or Value has been stored at least once.
	Written bool
	// LastWriter is the last node that declared a write, or NoNode.
	LastWriter NodeIndex
	Readers    []NodeIndex
}

// ResourceTable maps resource names to their records. Names should be
// stable identifiers; lookups hash the name on every call.
type ResourceTable struct {
	entries map[string]*Resource
	names   []string
	changed func()
}

func newResourceTable(changed func()) *ResourceTable {
	return &ResourceTable{
		entries: make(map[string]*Resource),
		changed: changed,
	}
}

// lookupOrCreate returns the record for name, creating an empty one if the
// name is new.
func (t *ResourceTable) lookupOrCreate(name string) (r *Resource, created bool) {
	if r, ok := t.entries[name]; ok {
		return r, false
	}
	r = &Resource{Name: name, LastWriter: NoNode}
	t.entries[name] = r
	t.names = append(t.names, name)
	return r, true
}

// Lookup returns a copy of the record for name.
func (t *ResourceTable) Lookup(name string) (Resource, bool) {
	r, ok := t.entries[name]
	if !ok {
		return Resource{}, false
	}
	out := *r
	out.Readers = slices.Clone(r.Readers)
	return out, true
}

// Names returns the resource names in first-seen order.
func (t *ResourceTable) Names() []string {
	return slices.Clone(t.names)
}

func (t *ResourceTable) Len() int { return len(t.entries) }

// Clear empties the table, including imported resources. The owning
// graph's compiled order is invalidated.
func (t *ResourceTable) Clear() {
	clear(t.entries)
	t.names = t.names[:0]
	if t.changed != nil {
		t.changed()
	}
}

// resetTopology forgets producer and consumer history ahead of a replay.
// Handles, values and import state survive.
func (t *ResourceTable) resetTopology() {
	for _, r := range t.entries {
		r.LastWriter = NoNode
		r.Readers = r.Readers[:0]
	}
}

// Write stores handle under name. Outside of Execute this imports name as
// an externally produced resource; inside a node callback it records the
// value produced by the running node.
func (g *Graph) Write(name string, h Handle) {
	g.store(name, func(r *Resource) { r.Handle = h })
}

// WriteValue is Write for payloads that are not integer handles.
func (g *Graph) WriteValue(name string, v any) {
	g.store(name, func(r *Resource) { r.Value = v })
}

func (g *Graph) store(name string, set func(*Resource)) {
	if g.closed {
		g.log().Warn("framegraph: write after shutdown ignored", "resource", name)
		return
	}
	if name == "" {
		g.log().Warn("framegraph: write with empty resource name ignored")
		return
	}
	r, created := g.resources.lookupOrCreate(name)
	set(r)
	r.Written = true

	if g.executing != NoNode {
		n := g.nodes[g.executing]
		if !slices.Contains(n.writes, name) {
			g.log().Warn("framegraph: undeclared write",
				"node", n.name, "resource", name)
		}
		return
	}
	if created || !r.Imported {
		r.Imported = true
		g.invalidate()
	}
}

// Read returns the current handle of name. It fails with an
// *UnresolvedReadError when nothing produces the resource.
func (g *Graph) Read(name string) (Handle, error) {
	r, err := g.lookupProduced(name)
	if err != nil {
		return 0, err
	}
	return r.Handle, nil
}

// ReadValue returns the payload stored with WriteValue.
func (g *Graph) ReadValue(name string) (any, error) {
	r, err := g.lookupProduced(name)
	if err != nil {
		return nil, err
	}
	return r.Value, nil
}

// ReadAs returns the payload of name as a T.
func ReadAs[T any](g *Graph, name string) (T, error) {
	var zero T
	v, err := g.ReadValue(name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q holds %T, want %T", ErrResourceType, name, v, zero)
	}
	return t, nil
}

func (g *Graph) lookupProduced(name string) (*Resource, error) {
	if g.closed {
		return nil, ErrShutdown
	}
	var reader string
	if g.executing != NoNode {
		n := g.nodes[g.executing]
		reader = n.name
		if !slices.Contains(n.reads, name) && !slices.Contains(n.writes, name) {
			g.log().Warn("framegraph: undeclared read", "node", n.name, "resource", name)
		}
	}
	r, ok := g.resources.entries[name]
	if !ok || (!r.Imported && !r.Written && r.LastWriter == NoNode) {
		return nil, &UnresolvedReadError{Node: reader, Resource: name}
	}
	return r, nil
}

// Resources returns the graph's resource table.
func (g *Graph) Resources() *ResourceTable {
	return g.resources
}
