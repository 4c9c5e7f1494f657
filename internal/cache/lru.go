// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cache

// lruNode is an element of lruList. It carries its key so eviction can
// delete the map entry in O(1).
type lruNode[K comparable, V any] struct {
	key   K
	value V
	prev  *lruNode[K, V]
	next  *lruNode[K, V]
}

// lruList is a doubly-linked list ordered by recency: head is the most
// recently used entry, tail the least. Not safe for concurrent use.
type lruList[K comparable, V any] struct {
	head *lruNode[K, V]
	tail *lruNode[K, V]
	len  int
}

func (l *lruList[K, V]) Len() int { return l.len }

// PushFront inserts a new entry as most recently used.
func (l *lruList[K, V]) PushFront(key K, value V) *lruNode[K, V] {
	n := &lruNode[K, V]{key: key, value: value, next: l.head}
	if l.head != nil {
		l.head.prev = n
	} else {
		l.tail = n
	}
	l.head = n
	l.len++
	return n
}

// MoveToFront marks n as most recently used.
func (l *lruList[K, V]) MoveToFront(n *lruNode[K, V]) {
	if n == l.head {
		return
	}
	l.unlink(n)
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
	l.len++
}

// RemoveOldest unlinks the least recently used entry and returns it, or nil
// when the list is empty.
func (l *lruList[K, V]) RemoveOldest() *lruNode[K, V] {
	n := l.tail
	if n == nil {
		return nil
	}
	l.unlink(n)
	return n
}

func (l *lruList[K, V]) Clear() {
	l.head, l.tail, l.len = nil, nil, 0
}

func (l *lruList[K, V]) unlink(n *lruNode[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
	l.len--
}
