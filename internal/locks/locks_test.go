// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package locks

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	m := NewKeyedMutex()

	// counter is intentionally unguarded; the keyed mutex is the only thing
	// keeping the increments race-free.
	counter := 0
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.Lock("theme:aurora")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	m := NewKeyedMutex()

	// Holding one key must not block another.
	unlockA := m.Lock("a")

	done := make(chan struct{})
	go func() {
		unlockB := m.Lock("b")
		unlockB()
		close(done)
	}()

	<-done
	unlockA()
}

func TestKeyedMutexReusableAfterUnlock(t *testing.T) {
	m := NewKeyedMutex()

	unlock := m.Lock("k")
	unlock()

	unlock = m.Lock("k")
	unlock()
}
