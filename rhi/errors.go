// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the dispatch layer.
var (
	// ErrNoBackend is returned by Init when no requested backend is
	// available. It is only observed when the fatal handler returns.
	ErrNoBackend = errors.New("rhi: no render backend specified")

	// ErrInvalidResolution is returned for non-positive frame sizes.
	ErrInvalidResolution = errors.New("rhi: invalid resolution")

	// ErrShutdown is returned after Shutdown.
	ErrShutdown = errors.New("rhi: context shut down")

	// ErrNotReady is returned when SubmitFrame is re-entered or the context
	// was never initialized.
	ErrNotReady = errors.New("rhi: context not ready")

	// ErrDeviceFailed is wrapped by the *Error SubmitFrame returns once a
	// fatal device message has been reported.
	ErrDeviceFailed = errors.New("rhi: device failed")

	ErrViewOutOfRange = errors.New("rhi: view id out of range")
	ErrTooManyItems   = errors.New("rhi: draw item limit reached")
	ErrUnknownKind    = errors.New("rhi: unknown backend kind")
)

// ErrorCode classifies the error state of a Context.
type ErrorCode int

const (
	// Success is the code of a context without errors.
	Success ErrorCode = iota
	// CodeConfig marks a setup defect, such as no backend selected.
	CodeConfig
	// CodeDeviceInit marks a failure to create the device or its context.
	CodeDeviceInit
	// CodeDevice marks a runtime device error reported by a backend.
	CodeDevice
	// CodeDeviceLost marks an unrecoverable device error.
	CodeDeviceLost
	// CodeOutOfMemory marks a failed device allocation.
	CodeOutOfMemory
)

var codeNames = [...]string{
	Success:         "ENGINE_SUCCESS",
	CodeConfig:      "RHI_CONFIG_ERROR",
	CodeDeviceInit:  "RHI_DEVICE_INIT_ERROR",
	CodeDevice:      "RHI_DEVICE_ERROR",
	CodeDeviceLost:  "RHI_DEVICE_LOST",
	CodeOutOfMemory: "RHI_OUT_OF_MEMORY",
}

func (c ErrorCode) String() string {
	if c >= 0 && int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// Error is a backend error carrying the code stored on the Context.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rhi: %s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("rhi: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// FatalError is the value passed to the fatal handler. The default handler
// panics with it.
type FatalError struct {
	Message DebugMessage
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("rhi: fatal: %s", e.Message.Text)
}
