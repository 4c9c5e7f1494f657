// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package webgpu

import "errors"

var (
	// ErrNoAdapter is returned when no GPU adapter is available.
	ErrNoAdapter = errors.New("webgpu: no suitable adapter")

	// ErrNoQueue is returned when the device has no queue.
	ErrNoQueue = errors.New("webgpu: device has no queue")

	// ErrNotInitialized is returned by Submit before Init.
	ErrNotInitialized = errors.New("webgpu: backend not initialized")
)
