// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"sync"
	"time"

	"github.com/gogpu/a3d"
)

// Fence is a completion signal armed by Queue.Execute with a hal
// submission index and signaled once the queue reports that index
// complete. Observing the signal resets it.
type Fence struct {
	mu     sync.Mutex
	queue  *Queue
	target uint64
	armed  bool

	// waitMu serializes Wait with Release.
	waitMu   sync.Mutex
	released bool
}

var _ a3d.Fence = (*Fence)(nil)

// NewFence returns an unsignaled fence.
func NewFence() *Fence { return &Fence{} }

func (f *Fence) arm(q *Queue, index uint64) {
	f.mu.Lock()
	f.queue, f.target, f.armed = q, index, true
	f.mu.Unlock()
}

// IsSignaled reports whether the armed submission has completed and, if
// so, resets the fence.
func (f *Fence) IsSignaled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.armed || f.queue.Completed() < f.target {
		return false
	}
	f.armed = false
	return true
}

// Wait blocks until the armed submission completes or timeout elapses,
// then resets the fence either way. It reports whether the signal was
// observed. A fence that was never armed returns false at once.
func (f *Fence) Wait(timeout time.Duration) bool {
	f.waitMu.Lock()
	defer f.waitMu.Unlock()
	if f.released {
		return false
	}

	f.mu.Lock()
	q, target, armed := f.queue, f.target, f.armed
	f.mu.Unlock()
	if !armed {
		return false
	}
	ok := q.WaitIndex(target, timeout)

	f.mu.Lock()
	if f.armed && f.target == target {
		f.armed = false
	}
	f.mu.Unlock()
	return ok
}

// Release blocks until an outstanding Wait returns and disarms the fence.
func (f *Fence) Release() {
	f.waitMu.Lock()
	defer f.waitMu.Unlock()
	f.released = true
	f.mu.Lock()
	f.armed, f.queue = false, nil
	f.mu.Unlock()
}
