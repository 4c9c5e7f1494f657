// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"context"
	"image"
	"slices"

	"github.com/gogpu/gpucontext"
)

// Backend is one variant of the dispatch layer. Init installs exactly one
// Backend on a Context and it stays there until Shutdown.
type Backend interface {
	Kind() Kind

	// Init creates the device state. It may report debug messages through
	// c.Report and read its settings from c.
	Init(c *Context) error

	// Submit turns the recorded frame into device work. It is called
	// exactly once per SubmitFrame.
	Submit(ctx context.Context, f *Frame) error

	// Shutdown releases device state. It is called once.
	Shutdown()
}

// Snapshotter is implemented by backends that can read back the last
// submitted frame.
type Snapshotter interface {
	Snapshot() (*image.RGBA, error)
}

var backends = gpucontext.NewRegistry[Backend](
	gpucontext.WithPriority(KindWebGPU.String(), KindSoftware.String(), KindNull.String()),
)

// Register makes a backend variant available to Init. Backend packages call
// it from init. Registering a kind again replaces its factory.
func Register(k Kind, factory func() Backend) {
	backends.Register(k.String(), factory)
}

// Unregister removes a backend variant. Intended for tests.
func Unregister(k Kind) {
	backends.Unregister(k.String())
}

// Available returns the registered kinds in selection order.
func Available() []Kind {
	names := backends.Available()
	var out []Kind
	for _, k := range selectionOrder {
		if slices.Contains(names, k.String()) {
			out = append(out, k)
		}
	}
	return out
}

// Preferred returns the kind Init would pick if every bit were set.
func Preferred() Kind {
	k, err := ParseKind(backends.BestName())
	if err != nil {
		return KindNone
	}
	return k
}

// selectBackend returns a fresh backend of the highest-priority kind whose
// bit is set and which is registered.
func selectBackend(flags Flags) (Kind, Backend) {
	for _, k := range selectionOrder {
		if !flags.Has(k) || !backends.Has(k.String()) {
			continue
		}
		if b := backends.Get(k.String()); b != nil {
			return k, b
		}
	}
	return KindNone, nil
}

func init() {
	Register(KindNull, func() Backend { return NewNullBackend() })
	Register(KindSoftware, func() Backend { return NewSoftwareBackend() })
}
