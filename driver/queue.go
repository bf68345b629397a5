// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/a3d"
	"github.com/gogpu/wgpu/hal"
)

// Submission is one native command buffer in a queue batch.
type Submission struct {
	Buffer hal.CommandBuffer
	// Encoder recorded Buffer. It learns the submission index.
	Encoder *Encoder
	// Done, if set, runs under the queue lock once the batch is submitted.
	// It runs with index 0 when the batch is dropped unsubmitted.
	Done func(index uint64)
}

// Flusher supplies work recorded outside the batch, such as an immediate
// context, when the queue executes. Flush returns nil when nothing was
// recorded.
type Flusher interface {
	Flush() (*Submission, error)
}

// slot is one entry of the frame ring: the wait object handed to surface
// acquisition and the submission index of the frame that last used it.
type slot struct {
	fence  hal.Fence
	signal uint64
}

const (
	pollMin = 20 * time.Microsecond
	pollMax = time.Millisecond
)

// Queue batches command buffers, submits them to the hal queue in one call
// and rotates a ring of frame slots.
//
// Add and Execute are safe for concurrent use. Execute is expected from a
// single frame goroutine.
type Queue struct {
	dev    *Device
	hq     hal.Queue
	logger *slog.Logger
	label  string

	mu        sync.Mutex
	maxSubmit int
	pending   int
	batch     []Submission
	flusher   Flusher

	ring       []slot
	current    uint32
	previous   uint32
	last       uint64
	executions uint64
	idle       bool
	stale      bool
}

// NewQueue creates a queue over the device's hal queue with a ring of
// cfg.BufferCount slots.
func NewQueue(dev *Device, label string) (*Queue, error) {
	cfg := dev.cfg
	q := &Queue{
		dev:       dev,
		hq:        dev.queue,
		logger:    dev.logger,
		label:     label,
		maxSubmit: cfg.MaxSubmitCount,
		batch:     make([]Submission, 0, cfg.MaxSubmitCount),
		ring:      make([]slot, cfg.BufferCount),
		idle:      true,
	}
	if err := q.createRing(); err != nil {
		return nil, err
	}
	q.resetRing()
	return q, nil
}

func (q *Queue) createRing() error {
	for i := range q.ring {
		f, err := q.dev.device.CreateFence()
		if err != nil {
			q.destroyRing()
			return fmt.Errorf("driver: create ring fence %d: %w", i, err)
		}
		q.ring[i] = slot{fence: f}
	}
	return nil
}

func (q *Queue) destroyRing() {
	for i := range q.ring {
		if q.ring[i].fence != nil {
			q.dev.device.DestroyFence(q.ring[i].fence)
		}
		q.ring[i] = slot{}
	}
}

func (q *Queue) resetRing() {
	q.current = 0
	q.previous = uint32(len(q.ring)) - 1
}

// SetFlusher installs f. It is called at the start of every Execute.
func (q *Queue) SetFlusher(f Flusher) {
	q.mu.Lock()
	q.flusher = f
	q.mu.Unlock()
}

// HAL returns the hal queue.
func (q *Queue) HAL() hal.Queue { return q.hq }

// Add reserves a batch entry and runs fn under the queue lock. fn returns
// the submission to batch, or nil when its work went to the flusher. When
// the batch is full Add returns a3d.ErrSubmitListFull without calling fn.
func (q *Queue) Add(fn func() (*Submission, error)) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending >= q.maxSubmit {
		return fmt.Errorf("%w (max %d)", a3d.ErrSubmitListFull, q.maxSubmit)
	}
	sub, err := fn()
	if err != nil {
		return err
	}
	if sub != nil {
		q.batch = append(q.batch, *sub)
	}
	q.pending++
	return nil
}

// Execute submits the batch as one hal submission, arms fence with the
// submission index and advances the ring. Without work and without a
// fence it does nothing. A fence armed without work observes the last
// submission.
func (q *Queue) Execute(fence a3d.Fence) error {
	var f *Fence
	if fence != nil {
		var ok bool
		if f, ok = fence.(*Fence); !ok {
			return fmt.Errorf("%w: fence %T", a3d.ErrWrongBackend, fence)
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stale {
		return a3d.ErrStaleSyncObjects
	}
	if q.flusher != nil {
		sub, err := q.flusher.Flush()
		if err != nil {
			q.drop()
			return err
		}
		if sub != nil {
			q.batch = append(q.batch, *sub)
		}
	}

	work := q.pending > 0 || len(q.batch) > 0
	if !work && f == nil {
		return nil
	}

	index := q.last
	if len(q.batch) > 0 {
		bufs := make([]hal.CommandBuffer, len(q.batch))
		for i, s := range q.batch {
			bufs[i] = s.Buffer
		}
		idx, err := q.hq.Submit(bufs)
		if err != nil {
			q.drop()
			return deviceLost("queue submit", err)
		}
		index, q.last = idx, idx
		for _, s := range q.batch {
			if s.Encoder != nil {
				s.Encoder.Submitted(idx)
			}
			if s.Done != nil {
				s.Done(idx)
			}
		}
	}

	q.ring[q.current].signal = index
	if f != nil {
		f.arm(q, index)
	}
	q.logger.Debug("driver: execute",
		"queue", q.label,
		"lists", q.pending,
		"buffers", len(q.batch),
		"index", index,
		"slot", q.current,
	)

	clear(q.batch)
	q.batch = q.batch[:0]
	q.pending = 0
	q.previous = q.current
	q.current = (q.current + 1) % uint32(len(q.ring))
	q.executions++
	q.idle = false
	return nil
}

// drop releases the batch without submitting it. The caller holds q.mu.
func (q *Queue) drop() {
	for _, s := range q.batch {
		if s.Done != nil {
			s.Done(0)
		}
	}
	if q.pending > 0 || len(q.batch) > 0 {
		q.logger.Warn("driver: batch dropped", "queue", q.label, "lists", q.pending)
	}
	clear(q.batch)
	q.batch = q.batch[:0]
	q.pending = 0
}

// WaitIdle blocks until the device is idle and resets the ring to slot 0.
func (q *Queue) WaitIdle() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.dev.WaitIdle(); err != nil {
		return err
	}
	for i := range q.ring {
		q.ring[i].signal = 0
	}
	q.resetRing()
	q.idle = true
	return nil
}

// ResetSyncObject destroys and recreates the ring's wait objects.
func (q *Queue) ResetSyncObject() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.destroyRing()
	if err := q.createRing(); err != nil {
		return err
	}
	q.resetRing()
	q.stale = false
	q.logger.Debug("driver: sync objects recreated", "queue", q.label, "slots", len(q.ring))
	return nil
}

// MarkStale makes Execute fail until ResetSyncObject runs.
func (q *Queue) MarkStale() {
	q.mu.Lock()
	q.stale = true
	q.mu.Unlock()
}

func (q *Queue) CurrentBufferIndex() uint32 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current
}

func (q *Queue) PreviousBufferIndex() uint32 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.previous
}

func (q *Queue) BufferCount() uint32 { return uint32(len(q.ring)) }
func (q *Queue) MaxSubmitCount() int { return q.maxSubmit }

// Pending returns the number of lists added since the last Execute.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}

// Idle reports whether WaitIdle ran after the last Execute.
func (q *Queue) Idle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.idle
}

// Executions returns the number of Execute calls that advanced the ring.
func (q *Queue) Executions() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.executions
}

// Completed returns the highest completed hal submission index.
func (q *Queue) Completed() uint64 { return q.hq.PollCompleted() }

// WaitIndex polls until submission index completes or timeout elapses.
// a3d.Infinite waits without a deadline.
func (q *Queue) WaitIndex(index uint64, timeout time.Duration) bool {
	if q.hq.PollCompleted() >= index {
		return true
	}
	var deadline time.Time
	if timeout != a3d.Infinite {
		deadline = time.Now().Add(timeout)
	}
	backoff := pollMin
	for {
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return q.hq.PollCompleted() >= index
		}
		time.Sleep(backoff)
		if q.hq.PollCompleted() >= index {
			return true
		}
		backoff = min(backoff*2, pollMax)
	}
}

// SlotFence returns the wait object of slot i.
func (q *Queue) SlotFence(i uint32) hal.Fence {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ring[i%uint32(len(q.ring))].fence
}

// WaitSlot blocks until the frame that last used slot i has completed.
func (q *Queue) WaitSlot(i uint32, timeout time.Duration) bool {
	q.mu.Lock()
	signal := q.ring[i%uint32(len(q.ring))].signal
	q.mu.Unlock()
	return q.WaitIndex(signal, timeout)
}

// Destroy waits for the device and destroys the ring.
func (q *Queue) Destroy() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.dev.device.WaitIdle(); err != nil {
		q.logger.Warn("driver: wait idle on destroy", "queue", q.label, "err", err)
	}
	q.destroyRing()
	q.batch = nil
}
