// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import "errors"

var (
	// ErrInvalidColor is returned for a color that is not 3 or 4 channels
	// in the range 0 to 255.
	ErrInvalidColor = errors.New("pipeline: invalid color")

	// ErrInvalidClear is returned for an unknown clear flag.
	ErrInvalidClear = errors.New("pipeline: invalid clear flag")

	// ErrInvalidView is returned for a view outside the frame's view range.
	ErrInvalidView = errors.New("pipeline: view out of range")

	// ErrInvalidRect is returned for a rectangle with negative size.
	ErrInvalidRect = errors.New("pipeline: invalid rectangle")

	// ErrDuplicatePass is returned when two passes share a name.
	ErrDuplicatePass = errors.New("pipeline: duplicate pass")
)
