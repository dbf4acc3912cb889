// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package locks provides per-key mutual exclusion. Snapshot rebuilds lock
// on the theme id and update applications lock on the project id, so work
// on unrelated resources never blocks.
package locks

import "sync"

// KeyedMutex serializes operations that share a string key. Idle keys are
// removed from the table once their last holder unlocks, so the table does
// not grow with the number of distinct keys ever seen.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex creates an empty keyed mutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*keyLock)}
}

// Lock blocks until the key is free and returns the unlock function.
// The caller must invoke it exactly once, typically via defer.
func (m *KeyedMutex) Lock(key string) func() {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &keyLock{}
		m.entries[key] = e
	}
	e.refs++
	m.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()
		m.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(m.entries, key)
		}
		m.mu.Unlock()
	}
}
