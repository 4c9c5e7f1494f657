// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"fmt"
	"strings"
)

// Kind names a backend variant. The set is closed: every Kind has exactly
// one implementation, installed at Init.
type Kind uint8

const (
	KindNone Kind = iota
	KindNull
	KindSoftware
	KindWebGPU
)

var kindNames = [...]string{
	KindNone:     "none",
	KindNull:     "null",
	KindSoftware: "software",
	KindWebGPU:   "webgpu",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Flag returns the selection bit of k.
func (k Kind) Flag() Flags {
	if k == KindNone || int(k) >= len(kindNames) {
		return FlagNone
	}
	return 1 << (k - 1)
}

// ParseKind returns the Kind named s.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if k != int(KindNone) && strings.EqualFold(s, name) {
			return Kind(k), nil
		}
	}
	return KindNone, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Flags is the backend selection bitmask passed to Init.
type Flags uint32

// Selection bits. When several are set, Init picks the first available in
// the order webgpu, software, null.
const (
	FlagNull Flags = 1 << iota
	FlagSoftware
	FlagWebGPU

	FlagNone Flags = 0
)

// selectionOrder is the priority Init walks when several bits are set.
var selectionOrder = []Kind{KindWebGPU, KindSoftware, KindNull}

// Has reports whether the selection bit of k is set.
func (f Flags) Has(k Kind) bool {
	return k.Flag() != 0 && f&k.Flag() != 0
}

// ParseFlags builds a bitmask from backend names.
func ParseFlags(names []string) (Flags, error) {
	var f Flags
	for _, name := range names {
		k, err := ParseKind(strings.TrimSpace(name))
		if err != nil {
			return FlagNone, err
		}
		f |= k.Flag()
	}
	return f, nil
}

func (f Flags) String() string {
	if f == FlagNone {
		return "none"
	}
	var parts []string
	for _, k := range selectionOrder {
		if f.Has(k) {
			parts = append(parts, k.String())
		}
	}
	if rest := f &^ (FlagNull | FlagSoftware | FlagWebGPU); rest != 0 {
		parts = append(parts, fmt.Sprintf("%#x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}
