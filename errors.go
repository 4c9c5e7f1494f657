// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by graph operations.
var (
	// ErrUnresolvedRead is returned when a node reads a resource that no
	// earlier node writes and that was not imported.
	ErrUnresolvedRead = errors.New("framegraph: unresolved read")

	// ErrSelfDependency is returned when a node declares the same resource
	// as both a read and a write.
	ErrSelfDependency = errors.New("framegraph: node reads and writes the same resource")

	// ErrCycleDetected is returned by Compile when the declarations form a cycle.
	ErrCycleDetected = errors.New("framegraph: cycle detected")

	// ErrNotCompiled is returned by Execute when there is no valid compiled order.
	ErrNotCompiled = errors.New("framegraph: graph not compiled")

	ErrNilCallback   = errors.New("framegraph: nil node callback")
	ErrDuplicateNode = errors.New("framegraph: duplicate node name")
	ErrUnknownNode   = errors.New("framegraph: unknown node")
	ErrEmptyName     = errors.New("framegraph: empty name")

	// ErrExecuting is returned when the topology is mutated from inside a
	// node callback.
	ErrExecuting = errors.New("framegraph: graph is executing")

	// ErrShutdown is returned by every operation after Shutdown.
	ErrShutdown = errors.New("framegraph: graph shut down")

	// ErrResourceType is returned by ReadAs when the stored value has a
	// different type.
	ErrResourceType = errors.New("framegraph: resource type mismatch")
)

// ErrorCode is the numeric form of a graph error, for hosts that surface
// engine errors as integers.
type ErrorCode int

// Error codes.
const (
	CodeOK ErrorCode = iota
	CodeUnresolvedRead
	CodeSelfDependency
	CodeCycleDetected
	CodeNotCompiled
	CodeInvalidArgument
	CodeShutdown
	CodeUnknown
)

var codeNames = [...]string{
	CodeOK:              "OK",
	CodeUnresolvedRead:  "ERR_UNRESOLVED_READ",
	CodeSelfDependency:  "ERR_SELF_DEPENDENCY",
	CodeCycleDetected:   "ERR_CYCLE_DETECTED",
	CodeNotCompiled:     "ERR_NOT_COMPILED",
	CodeInvalidArgument: "ERR_INVALID_ARGUMENT",
	CodeShutdown:        "ERR_SHUTDOWN",
	CodeUnknown:         "ERR_UNKNOWN",
}

func (c ErrorCode) String() string {
	if c >= 0 && int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// CodeOf maps err to its ErrorCode. A nil error is CodeOK.
func CodeOf(err error) ErrorCode {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrUnresolvedRead):
		return CodeUnresolvedRead
	case errors.Is(err, ErrSelfDependency):
		return CodeSelfDependency
	case errors.Is(err, ErrCycleDetected):
		return CodeCycleDetected
	case errors.Is(err, ErrNotCompiled):
		return CodeNotCompiled
	case errors.Is(err, ErrShutdown):
		return CodeShutdown
	case errors.Is(err, ErrNilCallback), errors.Is(err, ErrDuplicateNode),
		errors.Is(err, ErrUnknownNode), errors.Is(err, ErrEmptyName),
		errors.Is(err, ErrExecuting), errors.Is(err, ErrResourceType):
		return CodeInvalidArgument
	default:
		return CodeUnknown
	}
}

// UnresolvedReadError reports a read with no producer.
// Node is empty when the read happened outside node execution.
type UnresolvedReadError struct {
	Node     string
	Resource string
}

func (e *UnresolvedReadError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("framegraph: resource %q has no producer", e.Resource)
	}
	return fmt.Sprintf("framegraph: node %q reads %q before any node writes it", e.Node, e.Resource)
}

func (e *UnresolvedReadError) Unwrap() error { return ErrUnresolvedRead }

// CycleError reports a dependency cycle. Node is one node on the cycle and
// Cycle lists the nodes along it in dependency order, starting and ending
// with Node.
type CycleError struct {
	Node  string
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("framegraph: cycle detected at node %q (%s)", e.Node, strings.Join(e.Cycle, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycleDetected }
