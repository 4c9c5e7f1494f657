// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package webgpu

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
	_ "github.com/gogpu/wgpu/hal/allbackends"

	"github.com/gogpu/framegraph/rhi"
)

func init() {
	rhi.Register(rhi.KindWebGPU, func() rhi.Backend { return New() })
}

// Format is the pixel format of the frame target.
const Format = gputypes.TextureFormatRGBA8Unorm

// Backend submits frames to a WebGPU device.
//
// Whole-target view clears are encoded as render passes with a clear load
// op. Partial clears and draw items are uploaded with Queue.WriteTexture,
// so they replace pixels rather than blend.
type Backend struct {
	ctx *rhi.Context

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	owned    bool

	target *wgpu.Texture
	view   *wgpu.TextureView
	size   rhi.Resolution

	prevLogger *slog.Logger
	scratch    []byte
}

// New returns an uninitialized backend.
func New() *Backend {
	return &Backend{}
}

func (b *Backend) Kind() rhi.Kind { return rhi.KindWebGPU }

// Init uses the host device when the context carries a DeviceProvider
// backed by wgpu, and creates its own instance, adapter and device
// otherwise. wgpu's own log output is routed through the context's debug
// handler while the backend is alive.
func (b *Backend) Init(c *rhi.Context) error {
	b.ctx = c
	b.prevLogger = wgpu.Logger()
	wgpu.SetLogger(slog.New(c.DebugHandler("wgpu")))

	if p := c.DeviceProvider(); p != nil {
		if d, ok := p.Device().(*wgpu.Device); ok {
			b.device = d
			b.queue = d.Queue()
			if b.queue == nil {
				b.restoreLogger()
				return &rhi.Error{Code: rhi.CodeDeviceInit, Message: "host device", Err: ErrNoQueue}
			}
			info := p.AdapterInfo()
			c.Logger().Info("webgpu: using host device", "adapter", info.Name)
			return nil
		}
		c.Logger().Warn("webgpu: host device is not a wgpu device, creating one",
			"type", fmt.Sprintf("%T", p.Device()))
	}

	if err := b.createDevice(c.Debug()); err != nil {
		b.release()
		b.restoreLogger()
		return err
	}
	b.owned = true
	return nil
}

func (b *Backend) createDevice(debug bool) error {
	var desc *wgpu.InstanceDescriptor
	if debug {
		desc = &wgpu.InstanceDescriptor{
			Backends: wgpu.BackendsAll,
			Flags:    gputypes.InstanceFlagsDebug | gputypes.InstanceFlagsValidation,
		}
	}
	instance, err := wgpu.CreateInstance(desc)
	if err != nil {
		return &rhi.Error{Code: rhi.CodeDeviceInit, Message: "create instance", Err: err}
	}
	b.instance = instance

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return &rhi.Error{Code: rhi.CodeDeviceInit, Message: "request adapter", Err: fmt.Errorf("%w: %w", ErrNoAdapter, err)}
	}
	b.adapter = adapter
	info := adapter.Info()
	b.ctx.Logger().Info("webgpu: adapter selected", "name", info.Name, "backend", info.Backend.String())

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		return &rhi.Error{Code: rhi.CodeDeviceInit, Message: "request device", Err: err}
	}
	b.device = device

	b.queue = device.Queue()
	if b.queue == nil {
		return &rhi.Error{Code: rhi.CodeDeviceInit, Message: "device queue", Err: ErrNoQueue}
	}
	return nil
}

// ensureTarget recreates the frame target when the resolution changes.
func (b *Backend) ensureTarget(res rhi.Resolution) error {
	if b.target != nil && b.size == res {
		return nil
	}
	b.releaseTarget()

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "framegraph.target",
		Size: wgpu.Extent3D{
			Width:              uint32(res.Width),
			Height:             uint32(res.Height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        Format,
		Usage: gputypes.TextureUsageRenderAttachment |
			gputypes.TextureUsageCopySrc |
			gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return &rhi.Error{Code: rhi.CodeOutOfMemory, Message: fmt.Sprintf("create %s target", res), Err: err}
	}
	view, err := b.device.CreateTextureView(tex, nil)
	if err != nil {
		tex.Release()
		return &rhi.Error{Code: rhi.CodeDevice, Message: "create target view", Err: err}
	}
	b.target, b.view, b.size = tex, view, res
	b.ctx.Logger().Debug("webgpu: frame target created", "size", res.String())
	return nil
}

// Submit records and submits one frame. Device errors raised while the
// frame is encoded are collected with error scopes and reported through
// the context: validation errors as SeverityError, out-of-memory and
// internal errors as SeverityFatal.
func (b *Backend) Submit(_ context.Context, f *rhi.Frame) error {
	if b.device == nil {
		return ErrNotInitialized
	}
	if err := b.ensureTarget(f.Resolution); err != nil {
		return err
	}

	b.device.PushErrorScope(wgpu.ErrorFilterInternal)
	b.device.PushErrorScope(wgpu.ErrorFilterOutOfMemory)
	b.device.PushErrorScope(wgpu.ErrorFilterValidation)
	err := b.encode(f)
	b.popErrorScope(rhi.SeverityError, rhi.CodeDevice)
	b.popErrorScope(rhi.SeverityFatal, rhi.CodeOutOfMemory)
	b.popErrorScope(rhi.SeverityFatal, rhi.CodeDeviceLost)
	return err
}

func (b *Backend) popErrorScope(sev rhi.Severity, code rhi.ErrorCode) {
	gerr := b.device.PopErrorScope()
	if gerr == nil {
		return
	}
	b.ctx.Report(rhi.DebugMessage{Severity: sev, Source: "wgpu", Code: code, Text: gerr.Message})
}

func (b *Backend) encode(f *rhi.Frame) error {
	full := f.Resolution.Bounds()
	items := f.ItemsByView()
	next := 0
	wrote := false

	var enc *wgpu.CommandEncoder
	defer func() {
		// Set only when an error cut the frame short.
		if enc != nil {
			enc.DiscardEncoding()
		}
	}()
	flush := func() error {
		if enc == nil {
			return nil
		}
		cmd, err := enc.Finish()
		enc = nil
		if err != nil {
			return &rhi.Error{Code: rhi.CodeDevice, Message: "finish encoder", Err: err}
		}
		if _, err := b.queue.Submit(cmd); err != nil {
			cmd.Release()
			return &rhi.Error{Code: rhi.CodeDevice, Message: "submit", Err: err}
		}
		return nil
	}

	for _, id := range f.ActiveViews() {
		v := f.Views[id]
		vp := f.Viewport(id)

		if v.Clear.Flags&rhi.ClearColor != 0 && !vp.Empty() {
			if vp == full {
				if enc == nil {
					var err error
					enc, err = b.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "framegraph.frame"})
					if err != nil {
						return &rhi.Error{Code: rhi.CodeDevice, Message: "create encoder", Err: err}
					}
				}
				if err := b.clearPass(enc, v); err != nil {
					return err
				}
			} else {
				if err := flush(); err != nil {
					return err
				}
				if err := b.fill(vp, v.Clear.Color); err != nil {
					return err
				}
				wrote = true
			}
		}

		for ; next < len(items) && items[next].View == id; next++ {
			r := items[next].Rect.Intersect(vp)
			if r.Empty() {
				continue
			}
			if err := flush(); err != nil {
				return err
			}
			if err := b.fill(r, items[next].Color); err != nil {
				return err
			}
			wrote = true
		}
	}
	if err := flush(); err != nil {
		return err
	}
	if !wrote {
		return nil
	}
	// Texture writes are queued until the next queue submission.
	if _, err := b.queue.Submit(); err != nil {
		return &rhi.Error{Code: rhi.CodeDevice, Message: "flush writes", Err: err}
	}
	return nil
}

func (b *Backend) clearPass(enc *wgpu.CommandEncoder, v rhi.View) error {
	label := v.Name
	if label == "" {
		label = "framegraph.clear"
	}
	pass, err := enc.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: label,
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       b.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: toColor(v.Clear.Color),
		}},
	})
	if err != nil {
		return &rhi.Error{Code: rhi.CodeDevice, Message: "begin clear pass", Err: err}
	}
	if err := pass.End(); err != nil {
		return &rhi.Error{Code: rhi.CodeDevice, Message: "end clear pass", Err: err}
	}
	return nil
}

// fill uploads a solid rectangle into the frame target.
func (b *Backend) fill(r image.Rectangle, c color.RGBA) error {
	w, h := r.Dx(), r.Dy()
	n := w * h * 4
	if cap(b.scratch) < n {
		b.scratch = make([]byte, n)
	}
	px := b.scratch[:n]
	for i := 0; i < n; i += 4 {
		px[i], px[i+1], px[i+2], px[i+3] = c.R, c.G, c.B, c.A
	}

	err := b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture: b.target,
			Origin:  wgpu.Origin3D{X: uint32(r.Min.X), Y: uint32(r.Min.Y)},
		},
		px,
		&wgpu.ImageDataLayout{BytesPerRow: uint32(w * 4), RowsPerImage: uint32(h)},
		&wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
	)
	if err != nil {
		return &rhi.Error{Code: rhi.CodeDevice, Message: fmt.Sprintf("write %v", r), Err: err}
	}
	return nil
}

// toColor converts a premultiplied 8-bit color to a clear value.
func toColor(c color.RGBA) gputypes.Color {
	return gputypes.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
		A: float64(c.A) / 255,
	}
}

// Device returns the device frames are submitted to.
func (b *Backend) Device() *wgpu.Device { return b.device }

func (b *Backend) releaseTarget() {
	if b.view != nil {
		b.view.Release()
		b.view = nil
	}
	if b.target != nil {
		b.target.Release()
		b.target = nil
	}
	b.size = rhi.Resolution{}
}

func (b *Backend) release() {
	b.releaseTarget()
	if b.owned || b.instance != nil {
		if b.device != nil {
			b.device.Release()
		}
		if b.adapter != nil {
			b.adapter.Release()
		}
		if b.instance != nil {
			b.instance.Release()
		}
	}
	b.device, b.adapter, b.instance, b.queue = nil, nil, nil, nil
}

func (b *Backend) restoreLogger() {
	wgpu.SetLogger(b.prevLogger)
}

// Shutdown releases the frame target and, unless the device belongs to the
// host, the device, adapter and instance.
func (b *Backend) Shutdown() {
	b.release()
	b.restoreLogger()
}
