// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/a3d"
	"github.com/gogpu/a3d/driver"
)

// Queue submits the command buffers of ended lists of one type.
type Queue struct {
	*driver.Queue

	dev *Device
	typ a3d.CommandListType

	mu      sync.Mutex
	orphans []*CommandList
}

var _ a3d.Queue = (*Queue)(nil)

// Submit adds an ended list's command buffer to the batch and moves the
// list to the Pending state.
func (q *Queue) Submit(list a3d.CommandList) error {
	l, ok := list.(*CommandList)
	if !ok || l.dev != q.dev {
		return fmt.Errorf("%w: list %T", a3d.ErrWrongBackend, list)
	}
	if l.typ != q.typ {
		return fmt.Errorf("%w: %s list on %s queue", a3d.ErrInvalidType, l.typ, q.typ)
	}
	return q.Add(func() (*driver.Submission, error) {
		if !l.state.CompareAndSwap(uint32(a3d.ListExecutable), uint32(a3d.ListPending)) {
			return nil, a3d.ErrNotExecutable
		}
		return &driver.Submission{Buffer: l.cmd, Encoder: l.enc, Done: l.consumed}, nil
	})
}

// Execute submits the batch, arms fence and advances the frame ring.
func (q *Queue) Execute(fence a3d.Fence) error {
	err := q.Queue.Execute(fence)
	q.reclaim(false)
	return err
}

// WaitIdle blocks until the device is idle, destroys released lists and
// resets the frame ring.
func (q *Queue) WaitIdle() error {
	if err := q.Queue.WaitIdle(); err != nil {
		return err
	}
	q.reclaim(true)
	return nil
}

func (q *Queue) orphan(l *CommandList) {
	q.mu.Lock()
	q.orphans = append(q.orphans, l)
	q.mu.Unlock()
}

// reclaim destroys released lists whose work has completed, or all of them
// when the device is known to be idle.
func (q *Queue) reclaim(idle bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.orphans) == 0 {
		return
	}
	completed := q.Completed()
	q.orphans = slices.DeleteFunc(q.orphans, func(l *CommandList) bool {
		if l.State() == a3d.ListPending {
			return false
		}
		if idle || l.enc.LastSubmitted() <= completed {
			l.enc.Destroy()
			return true
		}
		return false
	})
}
