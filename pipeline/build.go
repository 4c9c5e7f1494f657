// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/rhi"
)

// Build writes the description's imports into g and registers one node per
// pass, declaring its reads before its writes. Passes are added in order,
// so a pass can only read what an import or an earlier pass produces.
//
// Build stops at the first error; g is left with the nodes added so far.
func Build(g *framegraph.Graph, d *Description) error {
	for _, im := range d.Imports {
		g.Write(im.Name, im.Handle)
	}

	for i, p := range d.Passes {
		idx, err := g.AddNode(p.Name, p.node(i))
		if err != nil {
			return fmt.Errorf("pipeline: %w", err)
		}
		for _, r := range p.Reads {
			if err := g.DeclareRead(idx, r); err != nil {
				return fmt.Errorf("pipeline: pass %q: %w", p.Name, err)
			}
		}
		for _, w := range p.Writes {
			if err := g.DeclareWrite(idx, w); err != nil {
				return fmt.Errorf("pipeline: pass %q: %w", p.Name, err)
			}
		}
	}
	framegraph.Logger().Debug("pipeline: graph built",
		"imports", len(d.Imports), "passes", len(d.Passes))
	return nil
}

// Handle returns the handle pass number i writes for its w-th resource.
func Handle(i, w int) framegraph.Handle {
	return framegraph.Handle(uint64(i+1)<<32 | uint64(w+1))
}

// node returns the callback of the i-th pass. The user value is the
// *rhi.Context to record into; any other value records nothing.
func (p Pass) node(i int) framegraph.NodeFunc {
	return func(_ context.Context, g *framegraph.Graph, n *framegraph.Node, user any) {
		for _, r := range p.Reads {
			if _, err := g.Read(r); err != nil {
				framegraph.Logger().Warn("pipeline: read failed", "pass", n.Name(), "error", err)
			}
		}
		if c, ok := user.(*rhi.Context); ok {
			p.Record(c.Frame())
		}
		for w, name := range p.Writes {
			g.Write(name, Handle(i, w))
		}
	}
}

// Record records the pass's view state and rectangles into f.
func (p Pass) Record(f *rhi.Frame) {
	log := framegraph.Logger()
	if err := f.SetViewName(p.View, p.Name); err != nil {
		log.Warn("pipeline: record failed", "pass", p.Name, "error", err)
		return
	}
	var errs []error
	if !p.Viewport.Empty() {
		errs = append(errs, f.SetViewRect(p.View, p.Viewport))
	}
	if p.Clear != rhi.ClearNone {
		errs = append(errs, f.SetViewClear(p.View, p.Clear, p.ClearColor, 1, 0))
	}
	errs = append(errs, f.Touch(p.View))
	if err := errors.Join(errs...); err != nil {
		log.Warn("pipeline: record failed", "pass", p.Name, "error", err)
		return
	}

	for _, r := range p.Rects {
		if err := f.DrawRect(p.View, r.Bounds, r.Color); err != nil {
			log.Warn("pipeline: draw dropped", "pass", p.Name, "rect", r.Bounds, "error", err)
			return
		}
	}
}
