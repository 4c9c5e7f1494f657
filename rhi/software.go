// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"
)

// textureDestroyer is implemented by host textures that hold device
// memory.
type textureDestroyer interface {
	Destroy()
}

// SoftwareBackend rasterizes frames on the CPU into an *image.RGBA.
//
// With a render scale below 1 the frame is drawn into a smaller internal
// target and upscaled bilinearly into the output. When the context has a
// presenter the output is uploaded as a texture and drawn at the origin.
// Depth and stencil clears are accepted and ignored; the backend has no
// depth buffer.
type SoftwareBackend struct {
	ctx   *Context
	scale float64

	target *image.RGBA
	output *image.RGBA

	presenter gpucontext.TextureDrawer
	texture   gpucontext.Texture
	retired   gpucontext.Texture
}

// NewSoftwareBackend returns an uninitialized software backend.
func NewSoftwareBackend() *SoftwareBackend {
	return &SoftwareBackend{scale: 1}
}

func (b *SoftwareBackend) Kind() Kind { return KindSoftware }

// Format is the pixel format of the output image.
func (b *SoftwareBackend) Format() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

func (b *SoftwareBackend) Init(c *Context) error {
	b.ctx = c
	b.scale = c.RenderScale()
	b.presenter = c.Presenter()
	c.Logger().Debug("rhi: software backend ready", "scale", b.scale, "present", b.presenter != nil)
	return nil
}

// scaled maps a rectangle in target pixels to internal pixels.
func (b *SoftwareBackend) scaled(r image.Rectangle) image.Rectangle {
	if b.scale == 1 {
		return r
	}
	return image.Rect(
		int(math.Floor(float64(r.Min.X)*b.scale)),
		int(math.Floor(float64(r.Min.Y)*b.scale)),
		int(math.Ceil(float64(r.Max.X)*b.scale)),
		int(math.Ceil(float64(r.Max.Y)*b.scale)),
	)
}

func ensureRGBA(img *image.RGBA, w, h int) *image.RGBA {
	if img != nil && img.Rect.Dx() == w && img.Rect.Dy() == h {
		return img
	}
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func (b *SoftwareBackend) Submit(_ context.Context, f *Frame) error {
	res := f.Resolution
	inner := b.scaled(res.Bounds())
	b.target = ensureRGBA(b.target, max(inner.Dx(), 1), max(inner.Dy(), 1))

	items := f.ItemsByView()
	next := 0
	for _, id := range f.ActiveViews() {
		vp := b.scaled(f.Viewport(id)).Intersect(b.target.Rect)
		v := f.Views[id]
		if v.Clear.Flags&ClearColor != 0 {
			draw.Draw(b.target, vp, image.NewUniform(v.Clear.Color), image.Point{}, draw.Src)
		}
		for ; next < len(items) && items[next].View == id; next++ {
			it := items[next]
			r := b.scaled(it.Rect).Intersect(vp)
			if r.Empty() {
				continue
			}
			op := draw.Over
			if it.Color.A == 0xff {
				op = draw.Src
			}
			draw.Draw(b.target, r, image.NewUniform(it.Color), image.Point{}, op)
		}
	}

	if b.scale == 1 {
		b.output = b.target
	} else {
		b.output = ensureRGBA(b.output, res.Width, res.Height)
		draw.ApproxBiLinear.Scale(b.output, b.output.Rect, b.target, b.target.Rect, draw.Src, nil)
	}
	return b.present(b.output)
}

// present uploads img to the host canvas. A texture of a different size is
// retired and destroyed on the following present, since the host may
// still be drawing it.
func (b *SoftwareBackend) present(img *image.RGBA) error {
	if b.presenter == nil {
		return nil
	}
	if b.retired != nil {
		destroyTexture(b.retired)
		b.retired = nil
	}

	w, h := img.Rect.Dx(), img.Rect.Dy()
	if b.texture != nil && (b.texture.Width() != w || b.texture.Height() != h) {
		b.retired = b.texture
		b.texture = nil
	}

	if b.texture == nil {
		creator := b.presenter.TextureCreator()
		if creator == nil {
			return &Error{Code: CodeDevice, Message: "presenter has no texture creator"}
		}
		tex, err := creator.NewTextureFromRGBA(w, h, img.Pix)
		if err != nil {
			return &Error{Code: CodeOutOfMemory, Message: fmt.Sprintf("create %dx%d texture", w, h), Err: err}
		}
		b.texture = tex
	} else if up, ok := b.texture.(gpucontext.TextureUpdater); ok {
		if err := up.UpdateData(img.Pix); err != nil {
			return &Error{Code: CodeDevice, Message: "update texture", Err: err}
		}
	} else {
		return &Error{Code: CodeDevice, Message: "presenter texture cannot be updated"}
	}

	if err := b.presenter.DrawTexture(b.texture, 0, 0); err != nil {
		return &Error{Code: CodeDevice, Message: "draw texture", Err: err}
	}
	return nil
}

func destroyTexture(t gpucontext.Texture) {
	if d, ok := t.(textureDestroyer); ok {
		d.Destroy()
	}
}

// Snapshot returns a copy of the last submitted frame at target
// resolution.
func (b *SoftwareBackend) Snapshot() (*image.RGBA, error) {
	if b.output == nil {
		return nil, errors.New("rhi: no frame submitted")
	}
	out := image.NewRGBA(b.output.Rect)
	copy(out.Pix, b.output.Pix)
	return out, nil
}

// At returns the color of the last submitted frame at (x, y).
func (b *SoftwareBackend) At(x, y int) color.RGBA {
	if b.output == nil {
		return color.RGBA{}
	}
	return b.output.RGBAAt(x, y)
}

func (b *SoftwareBackend) Shutdown() {
	if b.retired != nil {
		destroyTexture(b.retired)
		b.retired = nil
	}
	if b.texture != nil {
		destroyTexture(b.texture)
		b.texture = nil
	}
	b.target, b.output = nil, nil
}
