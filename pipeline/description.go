// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/rhi"
)

// Description is a decoded pipeline file.
type Description struct {
	Imports []Import
	Passes  []Pass
}

// Import is a resource written outside graph execution, such as the
// swap-chain backbuffer.
type Import struct {
	Name   string
	Handle framegraph.Handle
}

// Pass is one render pass of a description.
type Pass struct {
	Name   string
	Reads  []string
	Writes []string

	View       rhi.ViewID
	Clear      rhi.ClearFlags
	ClearColor color.RGBA
	// Viewport is empty when the pass covers the whole target.
	Viewport image.Rectangle
	Rects    []Rect
}

// Rect is a solid rectangle drawn by a pass.
type Rect struct {
	Bounds image.Rectangle
	Color  color.RGBA
}

// Resources returns the names of the resources the description mentions,
// imports first, then in declaration order.
func (d *Description) Resources() []string {
	seen := make(map[string]bool)
	var names []string
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, im := range d.Imports {
		add(im.Name)
	}
	for _, p := range d.Passes {
		for _, r := range p.Reads {
			add(r)
		}
		for _, w := range p.Writes {
			add(w)
		}
	}
	return names
}

// hclFile mirrors the block structure of a pipeline file.
type hclFile struct {
	Imports []*hclImport `hcl:"import,block"`
	Passes  []*hclPass   `hcl:"pass,block"`
}

type hclImport struct {
	Name   string  `hcl:"name,label"`
	Handle *uint64 `hcl:"handle,optional"`
}

type hclPass struct {
	Name       string     `hcl:"name,label"`
	Reads      []string   `hcl:"reads,optional"`
	Writes     []string   `hcl:"writes,optional"`
	View       *int       `hcl:"view,optional"`
	Clear      []string   `hcl:"clear,optional"`
	ClearColor []int      `hcl:"clear_color,optional"`
	Viewport   *hclRect   `hcl:"viewport,block"`
	Rects      []*hclRect `hcl:"rect,block"`
}

type hclRect struct {
	X     int   `hcl:"x"`
	Y     int   `hcl:"y"`
	W     int   `hcl:"w"`
	H     int   `hcl:"h"`
	Color []int `hcl:"color,optional"`
}

// EvalContext returns the evaluation context expressions of a pipeline
// file are decoded with.
func EvalContext(res rhi.Resolution) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"width":  cty.NumberIntVal(int64(res.Width)),
			"height": cty.NumberIntVal(int64(res.Height)),
		},
		Functions: map[string]function.Function{
			"min":   stdlib.MinFunc,
			"max":   stdlib.MaxFunc,
			"floor": stdlib.FloorFunc,
			"ceil":  stdlib.CeilFunc,
		},
	}
}

// ParseFile reads and decodes the pipeline file at path for the given
// target resolution.
func ParseFile(path string, res rhi.Resolution) (*Description, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	return Parse(path, src, res)
}

// Parse decodes a pipeline description. filename is used in diagnostics.
func Parse(filename string, src []byte, res rhi.Resolution) (*Description, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("pipeline: parse %s: %w", filename, diags)
	}

	var root hclFile
	diags = gohcl.DecodeBody(f.Body, EvalContext(res), &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("pipeline: decode %s: %w", filename, diags)
	}

	d := &Description{}
	for i, im := range root.Imports {
		h := framegraph.Handle(i + 1)
		if im.Handle != nil {
			h = framegraph.Handle(*im.Handle)
		}
		d.Imports = append(d.Imports, Import{Name: im.Name, Handle: h})
	}

	seen := make(map[string]bool, len(root.Passes))
	for _, hp := range root.Passes {
		if seen[hp.Name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePass, hp.Name)
		}
		seen[hp.Name] = true

		p, err := convertPass(hp)
		if err != nil {
			return nil, fmt.Errorf("pipeline: pass %q: %w", hp.Name, err)
		}
		d.Passes = append(d.Passes, p)
	}
	return d, nil
}

func convertPass(hp *hclPass) (Pass, error) {
	p := Pass{Name: hp.Name, Reads: hp.Reads, Writes: hp.Writes}

	if hp.View != nil {
		if *hp.View < 0 || *hp.View >= rhi.MaxViews {
			return p, fmt.Errorf("%w: %d", ErrInvalidView, *hp.View)
		}
		p.View = rhi.ViewID(*hp.View)
	}

	for _, s := range hp.Clear {
		switch s {
		case "color":
			p.Clear |= rhi.ClearColor
		case "depth":
			p.Clear |= rhi.ClearDepth
		case "stencil":
			p.Clear |= rhi.ClearStencil
		default:
			return p, fmt.Errorf("%w: %q", ErrInvalidClear, s)
		}
	}

	if hp.ClearColor != nil {
		c, err := toRGBA(hp.ClearColor)
		if err != nil {
			return p, err
		}
		p.ClearColor = c
	}

	if hp.Viewport != nil {
		r, err := hp.Viewport.bounds()
		if err != nil {
			return p, fmt.Errorf("viewport: %w", err)
		}
		p.Viewport = r
	}

	for i, hr := range hp.Rects {
		r, err := hr.bounds()
		if err != nil {
			return p, fmt.Errorf("rect %d: %w", i, err)
		}
		c := color.RGBA{A: 255}
		if hr.Color != nil {
			if c, err = toRGBA(hr.Color); err != nil {
				return p, fmt.Errorf("rect %d: %w", i, err)
			}
		}
		p.Rects = append(p.Rects, Rect{Bounds: r, Color: c})
	}
	return p, nil
}

func (r *hclRect) bounds() (image.Rectangle, error) {
	if r.W < 0 || r.H < 0 {
		return image.Rectangle{}, fmt.Errorf("%w: %dx%d", ErrInvalidRect, r.W, r.H)
	}
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H), nil
}

// toRGBA converts 3 or 4 channel values. A missing alpha is opaque.
// Colors are taken as premultiplied.
func toRGBA(ch []int) (color.RGBA, error) {
	if len(ch) != 3 && len(ch) != 4 {
		return color.RGBA{}, fmt.Errorf("%w: %d channels", ErrInvalidColor, len(ch))
	}
	for _, v := range ch {
		if v < 0 || v > 255 {
			return color.RGBA{}, fmt.Errorf("%w: channel %d", ErrInvalidColor, v)
		}
	}
	c := color.RGBA{R: uint8(ch[0]), G: uint8(ch[1]), B: uint8(ch[2]), A: 255}
	if len(ch) == 4 {
		c.A = uint8(ch[3])
	}
	return c, nil
}
