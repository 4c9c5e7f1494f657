// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gpucontext"
)

var (
	black = color.RGBA{0, 0, 0, 255}
	red   = color.RGBA{255, 0, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
)

func newSoftwareContext(t *testing.T, w, h int, opts ...Option) (*Context, *SoftwareBackend) {
	t.Helper()
	c, err := Init(FlagSoftware, append([]Option{WithResolution(w, h)}, opts...)...)
	if err != nil {
		t.Fatalf("Init(FlagSoftware) = %v", err)
	}
	t.Cleanup(c.Shutdown)
	return c, c.Backend().(*SoftwareBackend)
}

func TestSoftwareClearAndDraw(t *testing.T) {
	c, sb := newSoftwareContext(t, 64, 32)
	f := c.Frame()

	if err := f.SetViewClear(0, ClearColor, black, 1, 0); err != nil {
		t.Fatal(err)
	}
	if err := f.DrawRect(0, image.Rect(8, 8, 16, 16), red); err != nil {
		t.Fatal(err)
	}
	// View 1 covers the right half and clears it blue.
	if err := f.SetViewRect(1, image.Rect(32, 0, 64, 32)); err != nil {
		t.Fatal(err)
	}
	if err := f.SetViewClear(1, ClearColor|ClearDepth, blue, 1, 0); err != nil {
		t.Fatal(err)
	}
	// Clipped to view 1: only x in [32, 40) lands.
	if err := f.DrawRect(1, image.Rect(20, 0, 40, 4), red); err != nil {
		t.Fatal(err)
	}

	if err := c.SubmitFrame(context.Background()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		x, y int
		want color.RGBA
	}{
		{"background", 0, 0, black},
		{"rect", 10, 10, red},
		{"rect edge exclusive", 16, 16, black},
		{"second view clear", 50, 20, blue},
		{"clipped rect inside view", 35, 2, red},
		{"clipped rect outside view", 25, 2, black},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sb.At(tt.x, tt.y); got != tt.want {
				t.Errorf("At(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestSoftwareBlendsTranslucentRects(t *testing.T) {
	c, sb := newSoftwareContext(t, 4, 4)
	f := c.Frame()
	_ = f.SetViewClear(0, ClearColor, black, 1, 0)
	// Premultiplied half-transparent white.
	_ = f.DrawRect(0, image.Rect(0, 0, 4, 4), color.RGBA{128, 128, 128, 128})
	if err := c.SubmitFrame(context.Background()); err != nil {
		t.Fatal(err)
	}
	got := sb.At(1, 1)
	if got.R != 128 || got.A != 255 {
		t.Errorf("At(1, 1) = %v, want opaque mid grey", got)
	}
}

func TestSoftwareRenderScale(t *testing.T) {
	c, sb := newSoftwareContext(t, 64, 64, WithRenderScale(0.5))
	f := c.Frame()
	_ = f.SetViewClear(0, ClearColor, red, 1, 0)
	if err := c.SubmitFrame(context.Background()); err != nil {
		t.Fatal(err)
	}

	if sb.target.Rect.Dx() != 32 || sb.target.Rect.Dy() != 32 {
		t.Errorf("internal target = %v, want 32x32", sb.target.Rect)
	}
	img, err := c.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if img.Rect != image.Rect(0, 0, 64, 64) {
		t.Errorf("snapshot bounds = %v, want 64x64", img.Rect)
	}
	if got := img.RGBAAt(40, 40); got != red {
		t.Errorf("upscaled pixel = %v, want %v", got, red)
	}
}

func TestSoftwareResize(t *testing.T) {
	c, sb := newSoftwareContext(t, 16, 16)
	_ = c.Frame().Touch(0)
	if err := c.SubmitFrame(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.SetResolution(40, 20); err != nil {
		t.Fatal(err)
	}
	if err := c.SubmitFrame(context.Background()); err != nil {
		t.Fatal(err)
	}
	img, _ := sb.Snapshot()
	if img.Rect.Dx() != 40 || img.Rect.Dy() != 20 {
		t.Errorf("snapshot after resize = %v, want 40x20", img.Rect)
	}
}

func TestSoftwareSnapshotBeforeSubmit(t *testing.T) {
	c, _ := newSoftwareContext(t, 8, 8)
	if _, err := c.Snapshot(); err == nil {
		t.Error("Snapshot() before any submit succeeded")
	}
}

type fakeTexture struct {
	w, h      int
	data      []byte
	updates   int
	destroyed bool
}

func (t *fakeTexture) Width() int  { return t.w }
func (t *fakeTexture) Height() int { return t.h }
func (t *fakeTexture) UpdateData(d []byte) error {
	t.data = append(t.data[:0], d...)
	t.updates++
	return nil
}
func (t *fakeTexture) Destroy() { t.destroyed = true }

type fakeCanvas struct {
	created []*fakeTexture
	drawn   []gpucontext.Texture
	failNew bool
}

func (c *fakeCanvas) TextureCreator() gpucontext.TextureCreator { return c }

func (c *fakeCanvas) NewTextureFromRGBA(w, h int, data []byte) (gpucontext.Texture, error) {
	if c.failNew {
		return nil, errors.New("out of texture memory")
	}
	tex := &fakeTexture{w: w, h: h, data: append([]byte(nil), data...)}
	c.created = append(c.created, tex)
	return tex, nil
}

func (c *fakeCanvas) DrawTexture(tex gpucontext.Texture, _, _ float32) error {
	c.drawn = append(c.drawn, tex)
	return nil
}

func TestSoftwarePresenter(t *testing.T) {
	canvas := &fakeCanvas{}
	c, _ := newSoftwareContext(t, 4, 2, WithPresenter(canvas))
	f := c.Frame()
	_ = f.SetViewClear(0, ClearColor, red, 1, 0)

	submit := func() {
		t.Helper()
		_ = f.Touch(0)
		if err := c.SubmitFrame(context.Background()); err != nil {
			t.Fatal(err)
		}
	}

	submit()
	submit()
	if len(canvas.created) != 1 {
		t.Fatalf("created %d textures, want 1", len(canvas.created))
	}
	first := canvas.created[0]
	if first.updates != 1 || len(canvas.drawn) != 2 {
		t.Errorf("updates = %d, draws = %d; want 1 and 2", first.updates, len(canvas.drawn))
	}
	if len(first.data) != 4*2*4 || first.data[0] != 255 || first.data[3] != 255 {
		t.Errorf("uploaded pixels = %v", first.data[:4])
	}

	// A resize retires the old texture and destroys it one frame later.
	if err := c.SetResolution(8, 8); err != nil {
		t.Fatal(err)
	}
	submit()
	if len(canvas.created) != 2 || first.destroyed {
		t.Fatalf("after resize: created %d, first destroyed %v", len(canvas.created), first.destroyed)
	}
	submit()
	if !first.destroyed {
		t.Error("retired texture was not destroyed on the next present")
	}

	second := canvas.created[1]
	c.Shutdown()
	if !second.destroyed {
		t.Error("Shutdown did not destroy the live texture")
	}
}

func TestSoftwarePresenterFailure(t *testing.T) {
	canvas := &fakeCanvas{failNew: true}
	c, _ := newSoftwareContext(t, 4, 4, WithPresenter(canvas))
	_ = c.Frame().Touch(0)

	err := c.SubmitFrame(context.Background())
	var e *Error
	if !errors.As(err, &e) || e.Code != CodeOutOfMemory {
		t.Fatalf("SubmitFrame() = %v, want *Error with CodeOutOfMemory", err)
	}
	if c.ErrorCode() != CodeOutOfMemory {
		t.Errorf("ErrorCode() = %v, want CodeOutOfMemory", c.ErrorCode())
	}
	if c.State() != StateReady {
		t.Errorf("State() = %v, want ready after a failed submit", c.State())
	}
}
