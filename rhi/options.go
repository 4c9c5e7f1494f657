// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"log/slog"

	"github.com/gogpu/gpucontext"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Context created by Init.
//
// Example:
//
//	c, err := rhi.Init(rhi.FlagWebGPU|rhi.FlagSoftware,
//	    rhi.WithResolution(1280, 720),
//	    rhi.WithDebug(true),
//	)
type Option func(*options)

type options struct {
	logger      *slog.Logger
	tracer      trace.Tracer
	onFatal     func(*FatalError)
	debug       bool
	width       int
	height      int
	renderScale float64
	presenter   gpucontext.TextureDrawer
	device      gpucontext.DeviceProvider
}

func defaultOptions() options {
	return options{
		onFatal:     panicOnFatal,
		renderScale: 1,
	}
}

func panicOnFatal(e *FatalError) { panic(e) }

// WithLogger sets the logging sink for debug messages. The default is the
// framegraph package logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithTracer sets the tracer used for submit spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithFatalHandler replaces the handler run for fatal messages and
// configuration errors. The default panics with the *FatalError. A handler
// that returns leaves the context in its error state.
func WithFatalHandler(fn func(*FatalError)) Option {
	return func(o *options) {
		if fn != nil {
			o.onFatal = fn
		}
	}
}

// WithDebug enables device validation where the backend supports it and
// forwards notification-level messages to the logger.
func WithDebug(enabled bool) Option {
	return func(o *options) {
		o.debug = enabled
	}
}

// WithResolution sets the initial frame size.
func WithResolution(width, height int) Option {
	return func(o *options) {
		o.width, o.height = width, height
	}
}

// WithRenderScale renders at a fraction of the target resolution and
// upscales on present. Backends that cannot scale ignore it. Values
// outside (0, 1] are clamped.
func WithRenderScale(scale float64) Option {
	return func(o *options) {
		switch {
		case scale <= 0:
			scale = 1
		case scale > 1:
			scale = 1
		}
		o.renderScale = scale
	}
}

// WithPresenter hands each finished frame to a host canvas. Used by the
// software backend.
func WithPresenter(p gpucontext.TextureDrawer) Option {
	return func(o *options) {
		o.presenter = p
	}
}

// WithDeviceProvider lets a GPU backend share the host's device instead of
// creating its own.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(o *options) {
		o.device = p
	}
}
