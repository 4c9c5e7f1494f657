// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/gogpu/gpucontext"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gogpu/framegraph"
)

// State is the lifecycle state of a Context.
type State uint8

const (
	StateUninitialized State = iota
	StateReady
	StateSubmitting
	StateShutDown
	// StateFailed follows a fatal device message. Only Shutdown leaves it.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateSubmitting:
		return "submitting"
	case StateShutDown:
		return "shut down"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// noError is the message of a context without errors.
const noError = "No error"

// Context is the device state of the dispatch layer: the installed backend,
// the frame being recorded and the last error. The engine creates one with
// Init and passes it by reference to whatever records or submits frames.
//
// A Context must only be used from the render thread.
type Context struct {
	id      uuid.UUID
	kind    Kind
	backend Backend
	state   State
	frame   Frame

	code    ErrorCode
	message string
	fatal   *FatalError

	logger      *slog.Logger
	tracer      trace.Tracer
	onFatal     func(*FatalError)
	debug       bool
	renderScale float64
	presenter   gpucontext.TextureDrawer
	device      gpucontext.DeviceProvider
}

// Init creates a Context and installs one backend selected from flags.
// When several bits are set the first registered kind in the order webgpu,
// software, null wins.
//
// No bit set, or no registered backend for the bits that are, is a
// configuration error: the fatal handler runs (by default it panics) and,
// should it return, Init fails with ErrNoBackend. A backend that fails to
// create its device returns an *Error describing the failure; the caller
// may retry with other flags.
func Init(flags Flags, opts ...Option) (*Context, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Context{
		id:          uuid.New(),
		state:       StateUninitialized,
		message:     noError,
		logger:      o.logger,
		tracer:      o.tracer,
		onFatal:     o.onFatal,
		debug:       o.debug,
		renderScale: o.renderScale,
		presenter:   o.presenter,
		device:      o.device,
	}
	if c.logger == nil {
		c.logger = framegraph.Logger()
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer("github.com/gogpu/framegraph/rhi")
	}
	c.logger = c.logger.With("rhi", c.id.String())
	c.frame.Resolution = Resolution{Width: o.width, Height: o.height}

	kind, b := selectBackend(flags)
	if b == nil {
		msg := "No render backend specified!"
		if flags != FlagNone {
			msg = fmt.Sprintf("no registered backend for flags %s", flags)
		}
		c.Report(DebugMessage{Severity: SeverityFatal, Source: "rhi", Code: CodeConfig, Text: msg})
		return nil, &Error{Code: CodeConfig, Message: msg, Err: ErrNoBackend}
	}

	if err := b.Init(c); err != nil {
		e := asError(err, CodeDeviceInit)
		c.setError(e.Code, e.Message)
		c.logger.Error("rhi: backend init failed", "backend", kind.String(), "error", err)
		return nil, e
	}

	c.kind = kind
	c.backend = b
	c.state = StateReady
	c.logger.Info("rhi: backend initialized", "backend", kind.String(), "resolution", c.frame.Resolution.String())
	return c, nil
}

// asError returns err as an *Error, wrapping it with code when it is not
// one already.
func asError(err error, code ErrorCode) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: code, Message: err.Error(), Err: err}
}

// ID returns the unique id of the context, used to tell contexts apart in
// logs.
func (c *Context) ID() uuid.UUID { return c.id }

// Kind returns the installed backend variant.
func (c *Context) Kind() Kind { return c.kind }

// Backend returns the installed backend.
func (c *Context) Backend() Backend { return c.backend }

// State returns the lifecycle state.
func (c *Context) State() State { return c.state }

// Frame returns the frame being recorded.
func (c *Context) Frame() *Frame { return &c.frame }

// Resolution returns the frame size used by the next submission.
func (c *Context) Resolution() Resolution { return c.frame.Resolution }

// Logger returns the logger of the context.
func (c *Context) Logger() *slog.Logger { return c.logger }

// Debug reports whether device validation was requested.
func (c *Context) Debug() bool { return c.debug }

// RenderScale returns the internal resolution scale in (0, 1].
func (c *Context) RenderScale() float64 { return c.renderScale }

// Presenter returns the host canvas frames are presented to, if any.
func (c *Context) Presenter() gpucontext.TextureDrawer { return c.presenter }

// DeviceProvider returns the host device, if any.
func (c *Context) DeviceProvider() gpucontext.DeviceProvider { return c.device }

// SetResolution changes the frame size. It takes effect on the next
// submission.
func (c *Context) SetResolution(width, height int) error {
	if c.state == StateShutDown {
		return ErrShutdown
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidResolution, width, height)
	}
	c.frame.Resolution = Resolution{Width: width, Height: height}
	return nil
}

// SubmitFrame hands the recorded frame to the backend, then resets the
// recorded commands. It must be called once per frame after every node has
// run. Submitting after Shutdown is fatal. Once a fatal device message has
// been reported, including one raised by the backend during this call,
// SubmitFrame returns an *Error wrapping ErrDeviceFailed.
func (c *Context) SubmitFrame(ctx context.Context) error {
	switch c.state {
	case StateShutDown:
		c.Report(DebugMessage{Severity: SeverityFatal, Source: "rhi", Code: CodeConfig, Text: "frame submitted after shutdown"})
		return ErrShutdown
	case StateFailed:
		return c.fatalError()
	case StateReady:
	default:
		return fmt.Errorf("%w: %s", ErrNotReady, c.state)
	}
	if !c.frame.Resolution.valid() {
		return fmt.Errorf("%w: resolution not set", ErrInvalidResolution)
	}

	c.frame.Number++
	ctx, span := c.tracer.Start(ctx, "rhi.SubmitFrame", trace.WithAttributes(
		attribute.String("rhi.backend", c.kind.String()),
		attribute.Int64("rhi.frame", int64(c.frame.Number)),
		attribute.Int("rhi.items", len(c.frame.Items)),
	))
	defer span.End()

	c.state = StateSubmitting
	err := c.backend.Submit(ctx, &c.frame)
	c.frame.reset()
	if c.state == StateSubmitting {
		c.state = StateReady
	}

	switch c.state {
	case StateFailed:
		fe := c.fatalError()
		span.RecordError(fe)
		span.SetStatus(codes.Error, fe.Message)
		return fmt.Errorf("rhi: submit frame %d: %w", c.frame.Number, fe)
	case StateShutDown:
		span.SetStatus(codes.Error, ErrShutdown.Error())
		return fmt.Errorf("rhi: submit frame %d: %w", c.frame.Number, ErrShutdown)
	}
	if err != nil {
		e := asError(err, CodeDevice)
		c.setError(e.Code, e.Message)
		span.RecordError(err)
		span.SetStatus(codes.Error, e.Message)
		return fmt.Errorf("rhi: submit frame %d: %w", c.frame.Number, err)
	}
	c.logger.Debug("rhi: frame submitted", "frame", c.frame.Number)
	return nil
}

// Snapshot returns a copy of the last submitted frame if the backend can
// read it back.
func (c *Context) Snapshot() (*image.RGBA, error) {
	s, ok := c.backend.(Snapshotter)
	if !ok {
		return nil, fmt.Errorf("rhi: backend %s cannot read back frames", c.kind)
	}
	return s.Snapshot()
}

// ErrorMessage returns the text of the last error, or "No error".
func (c *Context) ErrorMessage() string { return c.message }

// ErrorCode returns the code of the last error, or Success.
func (c *Context) ErrorCode() ErrorCode { return c.code }

// ClearError resets the error state.
func (c *Context) ClearError() {
	c.code, c.message = Success, noError
}

func (c *Context) setError(code ErrorCode, msg string) {
	c.code, c.message = code, msg
}

// fail moves a live context to StateFailed once the fatal handler returns.
func (c *Context) fail(fe *FatalError) {
	switch c.state {
	case StateReady, StateSubmitting:
		c.fatal = fe
		c.state = StateFailed
	}
}

// fatalError describes the message that failed the context. ClearError
// does not reset it.
func (c *Context) fatalError() *Error {
	m := c.fatal.Message
	return &Error{Code: m.Code, Message: m.Text, Err: ErrDeviceFailed}
}

// Shutdown releases the backend. Later submissions are fatal. Calling
// Shutdown again is a no-op. A failed context can still be shut down.
func (c *Context) Shutdown() {
	if c.state == StateShutDown {
		return
	}
	if c.backend != nil {
		c.backend.Shutdown()
	}
	c.state = StateShutDown
	c.logger.Info("rhi: shut down", "backend", c.kind.String(), "frames", c.frame.Number)
}
