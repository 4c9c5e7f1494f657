// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// fatalRecorder replaces the panicking fatal handler in tests.
type fatalRecorder struct {
	got []*FatalError
}

func (r *fatalRecorder) handle(e *FatalError) { r.got = append(r.got, e) }

func newNullContext(t *testing.T, opts ...Option) (*Context, *NullBackend) {
	t.Helper()
	c, err := Init(FlagNull, append([]Option{WithResolution(320, 240)}, opts...)...)
	if err != nil {
		t.Fatalf("Init(FlagNull) = %v", err)
	}
	t.Cleanup(c.Shutdown)
	nb, ok := c.Backend().(*NullBackend)
	if !ok {
		t.Fatalf("Backend() = %T, want *NullBackend", c.Backend())
	}
	return c, nb
}

func TestInitWithoutBackendBitPanics(t *testing.T) {
	defer func() {
		r := recover()
		fe, ok := r.(*FatalError)
		if !ok {
			t.Fatalf("recover() = %v, want *FatalError", r)
		}
		if !strings.Contains(fe.Error(), "No render backend specified") {
			t.Errorf("fatal message = %q", fe.Error())
		}
	}()
	_, _ = Init(FlagNone)
	t.Fatal("Init(FlagNone) returned without aborting")
}

func TestInitWithoutBackendBitNeverSucceeds(t *testing.T) {
	rec := &fatalRecorder{}
	c, err := Init(FlagNone, WithFatalHandler(rec.handle))
	if err == nil || c != nil {
		t.Fatalf("Init(FlagNone) = %v, %v; want a configuration error", c, err)
	}
	if !errors.Is(err, ErrNoBackend) {
		t.Errorf("Init(FlagNone) error = %v, want ErrNoBackend", err)
	}
	var e *Error
	if !errors.As(err, &e) || e.Code != CodeConfig {
		t.Errorf("Init(FlagNone) error = %#v, want *Error with CodeConfig", err)
	}
	if len(rec.got) != 1 {
		t.Fatalf("fatal handler ran %d times, want 1", len(rec.got))
	}
	if rec.got[0].Message.Code != CodeConfig {
		t.Errorf("fatal code = %v, want %v", rec.got[0].Message.Code, CodeConfig)
	}
}

func TestInitUnregisteredBackend(t *testing.T) {
	rec := &fatalRecorder{}
	_, err := Init(FlagWebGPU, WithFatalHandler(rec.handle))
	if !errors.Is(err, ErrNoBackend) {
		t.Fatalf("Init(FlagWebGPU) = %v, want ErrNoBackend without the webgpu package", err)
	}
	if len(rec.got) != 1 || !strings.Contains(rec.got[0].Message.Text, "webgpu") {
		t.Errorf("fatal messages = %+v", rec.got)
	}
}

func TestInitSelectsByPriority(t *testing.T) {
	tests := []struct {
		flags Flags
		want  Kind
	}{
		{FlagNull, KindNull},
		{FlagSoftware, KindSoftware},
		{FlagNull | FlagSoftware, KindSoftware},
		{FlagWebGPU | FlagNull, KindNull},
	}
	for _, tt := range tests {
		t.Run(tt.flags.String(), func(t *testing.T) {
			c, err := Init(tt.flags)
			if err != nil {
				t.Fatal(err)
			}
			defer c.Shutdown()
			if c.Kind() != tt.want || c.Backend().Kind() != tt.want {
				t.Errorf("Kind() = %v, want %v", c.Kind(), tt.want)
			}
		})
	}
}

type failingBackend struct{ NullBackend }

func (failingBackend) Init(*Context) error {
	return &Error{Code: CodeDeviceInit, Message: "no adapter"}
}

func TestInitBackendFailure(t *testing.T) {
	Register(KindNull, func() Backend { return &failingBackend{} })
	t.Cleanup(func() { Register(KindNull, func() Backend { return NewNullBackend() }) })

	c, err := Init(FlagNull)
	if c != nil {
		t.Error("Init returned a context for a failed backend")
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("Init() = %v, want *Error", err)
	}
	if e.Code != CodeDeviceInit || e.Message != "no adapter" {
		t.Errorf("Init() error = %+v", e)
	}
}

func TestContextLifecycle(t *testing.T) {
	rec := &fatalRecorder{}
	c, err := Init(FlagNull, WithResolution(64, 64), WithFatalHandler(rec.handle))
	if err != nil {
		t.Fatal(err)
	}
	if c.State() != StateReady {
		t.Fatalf("State() = %v, want ready", c.State())
	}
	if c.ID().String() == "" {
		t.Error("ID() is empty")
	}
	if got := c.ErrorMessage(); got != "No error" {
		t.Errorf("ErrorMessage() = %q, want %q", got, "No error")
	}
	if c.ErrorCode() != Success {
		t.Errorf("ErrorCode() = %v, want Success", c.ErrorCode())
	}

	if err := c.SubmitFrame(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.State() != StateReady {
		t.Errorf("State() after submit = %v, want ready", c.State())
	}

	nb := c.Backend().(*NullBackend)
	c.Shutdown()
	c.Shutdown()
	if c.State() != StateShutDown || !nb.Closed() {
		t.Fatalf("State() = %v, backend closed = %v", c.State(), nb.Closed())
	}

	if err := c.SubmitFrame(context.Background()); !errors.Is(err, ErrShutdown) {
		t.Errorf("SubmitFrame after shutdown = %v, want ErrShutdown", err)
	}
	if len(rec.got) != 1 {
		t.Errorf("fatal handler ran %d times after submit-after-shutdown, want 1", len(rec.got))
	}
	if err := c.SetResolution(10, 10); !errors.Is(err, ErrShutdown) {
		t.Errorf("SetResolution after shutdown = %v, want ErrShutdown", err)
	}
}

func TestSetResolution(t *testing.T) {
	c, nb := newNullContext(t)

	for _, tt := range []struct{ w, h int }{{0, 10}, {10, 0}, {-1, 5}} {
		if err := c.SetResolution(tt.w, tt.h); !errors.Is(err, ErrInvalidResolution) {
			t.Errorf("SetResolution(%d, %d) = %v, want ErrInvalidResolution", tt.w, tt.h, err)
		}
	}
	if c.Resolution() != (Resolution{320, 240}) {
		t.Errorf("rejected resolution changed the frame: %v", c.Resolution())
	}

	if err := c.SubmitFrame(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.SetResolution(800, 600); err != nil {
		t.Fatal(err)
	}
	if err := c.SubmitFrame(context.Background()); err != nil {
		t.Fatal(err)
	}

	frames := nb.Frames()
	if len(frames) != 2 {
		t.Fatalf("recorded %d frames, want 2", len(frames))
	}
	if frames[0].Resolution != (Resolution{320, 240}) || frames[1].Resolution != (Resolution{800, 600}) {
		t.Errorf("resolutions = %v, %v", frames[0].Resolution, frames[1].Resolution)
	}
}

func TestSubmitWithoutResolution(t *testing.T) {
	c, err := Init(FlagNull)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Shutdown()
	if err := c.SubmitFrame(context.Background()); !errors.Is(err, ErrInvalidResolution) {
		t.Errorf("SubmitFrame() = %v, want ErrInvalidResolution", err)
	}
}

func TestSubmitResetsCommands(t *testing.T) {
	c, nb := newNullContext(t)
	f := c.Frame()

	if err := f.SetViewClear(0, ClearColor|ClearDepth, color.RGBA{0, 0, 0, 255}, 1, 0); err != nil {
		t.Fatal(err)
	}
	if err := f.SetViewRect(1, image.Rect(0, 0, 100, 100)); err != nil {
		t.Fatal(err)
	}
	if err := f.DrawRect(1, image.Rect(10, 10, 20, 20), color.RGBA{255, 0, 0, 255}); err != nil {
		t.Fatal(err)
	}
	if err := c.SubmitFrame(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(f.Items) != 0 || len(f.ActiveViews()) != 0 {
		t.Errorf("frame not reset: %d items, views %v", len(f.Items), f.ActiveViews())
	}
	if f.Views[0].Clear.Flags != ClearColor|ClearDepth {
		t.Error("view state did not persist across frames")
	}
	if c.Resolution() != (Resolution{320, 240}) {
		t.Error("resolution did not persist across frames")
	}

	if err := c.SubmitFrame(context.Background()); err != nil {
		t.Fatal(err)
	}
	frames := nb.Frames()
	want := FrameRecord{
		Number:     1,
		Resolution: Resolution{320, 240},
		Views:      []ViewID{0, 1},
		Items:      []DrawItem{{View: 1, Rect: image.Rect(10, 10, 20, 20), Color: color.RGBA{255, 0, 0, 255}}},
	}
	if diff := cmp.Diff(want, frames[0]); diff != "" {
		t.Errorf("first frame mismatch (-want +got):\n%s", diff)
	}
	if frames[1].Number != 2 || len(frames[1].Items) != 0 || len(frames[1].Views) != 0 {
		t.Errorf("second frame = %+v, want an empty frame 2", frames[1])
	}
}

type reentrantBackend struct {
	NullBackend
	c   *Context
	err error
}

func (b *reentrantBackend) Init(c *Context) error { b.c = c; return nil }

func (b *reentrantBackend) Submit(ctx context.Context, f *Frame) error {
	b.err = b.c.SubmitFrame(ctx)
	return nil
}

func TestSubmitIsNotReentrant(t *testing.T) {
	rb := &reentrantBackend{}
	Register(KindNull, func() Backend { return rb })
	t.Cleanup(func() { Register(KindNull, func() Backend { return NewNullBackend() }) })

	c, err := Init(FlagNull, WithResolution(8, 8))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Shutdown()
	if err := c.SubmitFrame(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !errors.Is(rb.err, ErrNotReady) {
		t.Errorf("nested SubmitFrame = %v, want ErrNotReady", rb.err)
	}
}

// lostDeviceBackend reports a lost device from inside Submit and still
// returns nil, the way an asynchronous device callback would.
type lostDeviceBackend struct {
	NullBackend
	c       *Context
	submits int
}

func (b *lostDeviceBackend) Init(c *Context) error { b.c = c; return nil }

func (b *lostDeviceBackend) Submit(context.Context, *Frame) error {
	b.submits++
	b.c.Report(DebugMessage{Severity: SeverityFatal, Source: "test", Code: CodeDeviceLost, Text: "device lost"})
	return nil
}

func TestFatalDuringSubmitFailsContext(t *testing.T) {
	lb := &lostDeviceBackend{}
	Register(KindNull, func() Backend { return lb })
	t.Cleanup(func() { Register(KindNull, func() Backend { return NewNullBackend() }) })

	rec := &fatalRecorder{}
	c, err := Init(FlagNull, WithResolution(8, 8), WithFatalHandler(rec.handle))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Shutdown)

	err = c.SubmitFrame(context.Background())
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("SubmitFrame() = %v, want *Error", err)
	}
	if e.Code != CodeDeviceLost || !errors.Is(err, ErrDeviceFailed) {
		t.Errorf("SubmitFrame() error = %+v, want CodeDeviceLost wrapping ErrDeviceFailed", e)
	}
	if c.State() != StateFailed {
		t.Errorf("State() = %v, want failed", c.State())
	}
	if len(rec.got) != 1 {
		t.Errorf("fatal handler ran %d times, want 1", len(rec.got))
	}

	c.ClearError()
	err = c.SubmitFrame(context.Background())
	if !errors.As(err, &e) || e.Code != CodeDeviceLost {
		t.Errorf("second SubmitFrame() = %v, want CodeDeviceLost", err)
	}
	if lb.submits != 1 {
		t.Errorf("backend Submit ran %d times, want 1", lb.submits)
	}

	c.Shutdown()
	if c.State() != StateShutDown || !lb.Closed() {
		t.Errorf("State() = %v, backend closed = %v after Shutdown", c.State(), lb.Closed())
	}
}

func TestFatalReportFailsReadyContext(t *testing.T) {
	rec := &fatalRecorder{}
	c, nb := newNullContext(t, WithFatalHandler(rec.handle))

	c.Report(DebugMessage{Severity: SeverityFatal, Source: "test", Code: CodeOutOfMemory, Text: "allocation failed"})
	if c.State() != StateFailed {
		t.Fatalf("State() = %v, want failed", c.State())
	}
	err := c.SubmitFrame(context.Background())
	var e *Error
	if !errors.As(err, &e) || e.Code != CodeOutOfMemory || e.Message != "allocation failed" {
		t.Errorf("SubmitFrame() = %v, want CodeOutOfMemory", err)
	}
	if len(nb.Frames()) != 0 {
		t.Errorf("backend received %d frames after a fatal message", len(nb.Frames()))
	}
}

func TestReportClassification(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rec := &fatalRecorder{}
	c, _ := newNullContext(t, WithLogger(logger), WithFatalHandler(rec.handle))

	tests := []struct {
		sev       Severity
		wantLevel string
		wantCode  ErrorCode
		fatal     int
	}{
		{SeverityNotification, "level=DEBUG", Success, 0},
		{SeverityWarning, "level=WARN", Success, 0},
		{SeverityError, "level=ERROR", CodeDevice, 0},
		{SeverityFatal, "level=ERROR", CodeDeviceLost, 1},
	}
	for _, tt := range tests {
		t.Run(tt.sev.String(), func(t *testing.T) {
			buf.Reset()
			c.ClearError()
			rec.got = nil

			code := Success
			if tt.sev == SeverityFatal {
				code = CodeDeviceLost
			}
			c.Report(DebugMessage{Severity: tt.sev, Source: "test", Code: code, Text: "msg-" + tt.sev.String()})

			if !strings.Contains(buf.String(), tt.wantLevel) {
				t.Errorf("log output %q does not contain %q", buf.String(), tt.wantLevel)
			}
			if c.ErrorCode() != tt.wantCode {
				t.Errorf("ErrorCode() = %v, want %v", c.ErrorCode(), tt.wantCode)
			}
			if tt.wantCode != Success && c.ErrorMessage() != "msg-"+tt.sev.String() {
				t.Errorf("ErrorMessage() = %q", c.ErrorMessage())
			}
			if len(rec.got) != tt.fatal {
				t.Errorf("fatal handler ran %d times, want %d", len(rec.got), tt.fatal)
			}
		})
	}
}

func TestDebugHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c, _ := newNullContext(t, WithLogger(logger))

	lib := slog.New(c.DebugHandler("wgpu")).With("device", 0)
	lib.Info("adapter selected")
	if strings.Contains(buf.String(), "adapter selected") {
		t.Error("notification forwarded without WithDebug")
	}

	lib.Warn("slow path", "op", "copy")
	if !strings.Contains(buf.String(), "slow path device=0 op=copy") {
		t.Errorf("warning not forwarded with attributes: %s", buf.String())
	}

	lib.WithGroup("queue").Error("validation failed", "pass", 3)
	if c.ErrorCode() != CodeDevice {
		t.Errorf("ErrorCode() = %v, want CodeDevice", c.ErrorCode())
	}
	if got := c.ErrorMessage(); got != "validation failed device=0 queue.pass=3" {
		t.Errorf("ErrorMessage() = %q", got)
	}

	dbg, _ := newNullContext(t, WithLogger(logger), WithDebug(true))
	buf.Reset()
	slog.New(dbg.DebugHandler("wgpu")).Info("adapter selected")
	if !strings.Contains(buf.String(), "adapter selected") {
		t.Error("notification dropped with WithDebug")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  Severity
	}{
		{slog.LevelDebug, SeverityNotification},
		{slog.LevelInfo, SeverityNotification},
		{slog.LevelWarn, SeverityWarning},
		{slog.LevelError, SeverityError},
		{slog.LevelError + 4, SeverityError},
	}
	for _, tt := range tests {
		if got := Classify(tt.level); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
