// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"fmt"
	"image"
	"image/color"
	"slices"
)

// Limits of one frame.
const (
	MaxViews     = 32
	MaxDrawItems = 1 << 16
)

// ViewID selects one of the MaxViews views of a frame.
type ViewID uint16

// ClearFlags selects which attachments a view clears.
type ClearFlags uint8

const (
	ClearNone  ClearFlags = 0
	ClearColor ClearFlags = 1 << (iota - 1)
	ClearDepth
	ClearStencil
)

// Resolution is the size of the frame target in pixels.
type Resolution struct {
	Width, Height int
}

// Bounds returns the target rectangle anchored at the origin.
func (r Resolution) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.Width, r.Height)
}

func (r Resolution) valid() bool { return r.Width > 0 && r.Height > 0 }

func (r Resolution) String() string { return fmt.Sprintf("%dx%d", r.Width, r.Height) }

// Clear describes what a view clears before its items are drawn.
type Clear struct {
	Flags   ClearFlags
	Color   color.RGBA
	Depth   float32
	Stencil uint8
}

// View is a render target region with its own clear state. Views persist
// across frames; a view takes part in a frame only when touched.
type View struct {
	Name  string
	Clear Clear
	// Rect is the viewport. An empty Rect covers the whole target.
	Rect image.Rectangle
}

// DrawItem is a solid rectangle drawn into a view.
type DrawItem struct {
	View  ViewID
	Rect  image.Rectangle
	Color color.RGBA
}

// Frame is the CPU-side command buffer of one frame. Node callbacks record
// into it; SubmitFrame hands it to the backend and resets it.
type Frame struct {
	// Number counts submitted frames, starting at 1 for the first.
	Number     uint64
	Resolution Resolution
	Views      [MaxViews]View
	Items      []DrawItem

	touched [MaxViews]bool
}

func checkView(id ViewID) error {
	if int(id) >= MaxViews {
		return fmt.Errorf("%w: %d", ErrViewOutOfRange, id)
	}
	return nil
}

// SetViewClear sets the clear state of a view and touches it.
func (f *Frame) SetViewClear(id ViewID, flags ClearFlags, c color.RGBA, depth float32, stencil uint8) error {
	if err := checkView(id); err != nil {
		return err
	}
	f.Views[id].Clear = Clear{Flags: flags, Color: c, Depth: depth, Stencil: stencil}
	f.touched[id] = true
	return nil
}

// SetViewRect sets the viewport of a view. An empty rectangle selects the
// whole target.
func (f *Frame) SetViewRect(id ViewID, r image.Rectangle) error {
	if err := checkView(id); err != nil {
		return err
	}
	f.Views[id].Rect = r.Canon()
	return nil
}

// SetViewName labels a view for debugging and tracing.
func (f *Frame) SetViewName(id ViewID, name string) error {
	if err := checkView(id); err != nil {
		return err
	}
	f.Views[id].Name = name
	return nil
}

// Touch makes a view take part in the current frame without drawing into
// it, so that its clear runs.
func (f *Frame) Touch(id ViewID) error {
	if err := checkView(id); err != nil {
		return err
	}
	f.touched[id] = true
	return nil
}

// DrawRect records a solid rectangle in view id. Coordinates are in target
// pixels and are clipped to the view at submission.
func (f *Frame) DrawRect(id ViewID, r image.Rectangle, c color.RGBA) error {
	if err := checkView(id); err != nil {
		return err
	}
	if len(f.Items) >= MaxDrawItems {
		return ErrTooManyItems
	}
	f.Items = append(f.Items, DrawItem{View: id, Rect: r.Canon(), Color: c})
	f.touched[id] = true
	return nil
}

// ActiveViews returns the touched views in ascending id order.
func (f *Frame) ActiveViews() []ViewID {
	var ids []ViewID
	for i, t := range f.touched {
		if t {
			ids = append(ids, ViewID(i))
		}
	}
	return ids
}

// Viewport returns the effective rectangle of a view, clipped to the
// target.
func (f *Frame) Viewport(id ViewID) image.Rectangle {
	b := f.Resolution.Bounds()
	if int(id) >= MaxViews {
		return image.Rectangle{}
	}
	r := f.Views[id].Rect
	if r.Empty() {
		return b
	}
	return r.Intersect(b)
}

// ItemsByView returns the draw items grouped by view in ascending id
// order, keeping submission order inside each view.
func (f *Frame) ItemsByView() []DrawItem {
	items := slices.Clone(f.Items)
	slices.SortStableFunc(items, func(a, b DrawItem) int {
		return int(a.View) - int(b.View)
	})
	return items
}

// reset drops the recorded commands. Views and resolution persist.
func (f *Frame) reset() {
	f.Items = f.Items[:0]
	f.touched = [MaxViews]bool{}
}
