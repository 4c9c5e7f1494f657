// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cache provides the LRU cache framegraph uses to remember compiled
// execution orders by topology fingerprint.
//
//	c := cache.New[uint64, []int](16)
//	c.Put(fp, order)
//	order, ok := c.Get(fp)
package cache
