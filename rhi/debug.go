// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Severity classifies a debug or validation message from a backend.
type Severity uint8

const (
	SeverityNotification Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityNotification:
		return "notification"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	}
	return fmt.Sprintf("Severity(%d)", uint8(s))
}

// DebugMessage is one message from a backend or its device.
type DebugMessage struct {
	Severity Severity
	// Source names the emitter, for example "wgpu" or "software".
	Source string
	Code   ErrorCode
	Text   string
}

// Report classifies m. Notifications, warnings and errors are logged;
// errors and fatal messages are also stored as the context error. A fatal
// message runs the fatal handler, which panics unless replaced with
// WithFatalHandler. If the handler returns, the context fails: every later
// SubmitFrame returns an *Error carrying the fatal code.
func (c *Context) Report(m DebugMessage) {
	if m.Code == Success && m.Severity >= SeverityError {
		m.Code = CodeDevice
	}
	attrs := []any{"source", m.Source, "severity", m.Severity.String()}

	switch m.Severity {
	case SeverityFatal:
		c.setError(m.Code, m.Text)
		c.logger.Error("rhi: fatal device message", append(attrs, "code", m.Code.String(), "message", m.Text)...)
		fe := &FatalError{Message: m}
		c.onFatal(fe)
		c.fail(fe)
	case SeverityError:
		c.setError(m.Code, m.Text)
		c.logger.Error("rhi: device error", append(attrs, "code", m.Code.String(), "message", m.Text)...)
	case SeverityWarning:
		c.logger.Warn("rhi: device warning", append(attrs, "message", m.Text)...)
	default:
		c.logger.Debug("rhi: device notification", append(attrs, "message", m.Text)...)
	}
}

// debugHandler adapts a library's slog output into Context.Report.
type debugHandler struct {
	c      *Context
	source string
	min    slog.Level
	attrs  []slog.Attr // keys already qualified by their group
	groups []string
}

// DebugHandler returns a slog.Handler that classifies records from a
// device library and routes them through Report: records at error level
// become SeverityError, warnings SeverityWarning, anything lower
// SeverityNotification. Notifications are dropped unless the context was
// created WithDebug.
//
// Backends install it with the library's logger hook, for example
//
//	wgpu.SetLogger(slog.New(c.DebugHandler("wgpu")))
func (c *Context) DebugHandler(source string) slog.Handler {
	level := slog.LevelWarn
	if c.debug {
		level = slog.LevelDebug
	}
	return &debugHandler{c: c, source: source, min: level}
}

// Classify maps a slog level to a Severity.
func Classify(l slog.Level) Severity {
	switch {
	case l >= slog.LevelError:
		return SeverityError
	case l >= slog.LevelWarn:
		return SeverityWarning
	default:
		return SeverityNotification
	}
}

func (h *debugHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.min
}

func (h *debugHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	prefix := strings.Join(h.groups, ".")
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, prefix, a)
		return true
	})

	h.c.Report(DebugMessage{
		Severity: Classify(r.Level),
		Source:   h.source,
		Text:     b.String(),
	})
	return nil
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	b.WriteByte(' ')
	if prefix != "" {
		b.WriteString(prefix)
		b.WriteByte('.')
	}
	b.WriteString(a.Key)
	b.WriteByte('=')
	b.WriteString(a.Value.String())
}

func (h *debugHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append([]slog.Attr(nil), h.attrs...)
	prefix := strings.Join(h.groups, ".")
	for _, a := range attrs {
		if prefix != "" {
			a.Key = prefix + "." + a.Key
		}
		nh.attrs = append(nh.attrs, a)
	}
	return &nh
}

func (h *debugHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	nh.groups = append(append([]string(nil), h.groups...), name)
	return &nh
}
