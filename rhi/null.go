// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"context"
	"slices"
)

// FrameRecord is what the null backend keeps of a submitted frame.
type FrameRecord struct {
	Number     uint64
	Resolution Resolution
	Views      []ViewID
	Items      []DrawItem
}

// NullBackend accepts frames without touching a device. It keeps a record
// of each submission, which makes it the backend of choice for tests and
// headless dry runs.
type NullBackend struct {
	// Limit caps the number of kept records; zero keeps all of them.
	Limit int

	frames []FrameRecord
	closed bool
}

// NewNullBackend returns a NullBackend keeping the last 256 frames.
func NewNullBackend() *NullBackend {
	return &NullBackend{Limit: 256}
}

func (b *NullBackend) Kind() Kind { return KindNull }

func (b *NullBackend) Init(c *Context) error {
	c.Report(DebugMessage{Severity: SeverityNotification, Source: "null", Text: "null backend ready"})
	return nil
}

func (b *NullBackend) Submit(_ context.Context, f *Frame) error {
	b.frames = append(b.frames, FrameRecord{
		Number:     f.Number,
		Resolution: f.Resolution,
		Views:      f.ActiveViews(),
		Items:      slices.Clone(f.Items),
	})
	if b.Limit > 0 && len(b.frames) > b.Limit {
		b.frames = slices.Delete(b.frames, 0, len(b.frames)-b.Limit)
	}
	return nil
}

func (b *NullBackend) Shutdown() { b.closed = true }

// Frames returns the kept frame records, oldest first.
func (b *NullBackend) Frames() []FrameRecord {
	return slices.Clone(b.frames)
}

// Closed reports whether Shutdown ran.
func (b *NullBackend) Closed() bool { return b.closed }
