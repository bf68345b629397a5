// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package emulated

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/a3d"
	"github.com/gogpu/a3d/driver"
	"github.com/gogpu/a3d/internal/shared"
)

// Queue replays submitted lists into an immediate context and flushes the
// context on Execute.
//
// Immediate contexts are pooled. A context is reused only after the GPU
// has completed its last submission, so a frame can record while earlier
// frames are still in flight.
type Queue struct {
	*driver.Queue

	dev   *Device
	drv   *driver.Device
	typ   a3d.CommandListType
	label string

	mu       sync.Mutex
	ctx      *driver.Encoder
	idle     []*driver.Encoder
	all      []*driver.Encoder
	replayed []*CommandList
	replays  uint64
}

var (
	_ a3d.Queue      = (*Queue)(nil)
	_ driver.Flusher = (*Queue)(nil)
)

func newQueue(dev *Device, drv *driver.Device, t a3d.CommandListType) (*Queue, error) {
	label := shared.QueueLabel(drv.Config().Label, t)
	dq, err := driver.NewQueue(drv, label)
	if err != nil {
		return nil, err
	}
	q := &Queue{Queue: dq, dev: dev, drv: drv, typ: t, label: label}
	dq.SetFlusher(q)
	return q, nil
}

// Submit replays an ended list into the immediate context. The list stays
// Pending until the next Execute.
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
		if err := q.replay(l); err != nil {
			l.setState(a3d.ListExecutable)
			return nil, err
		}
		return nil, nil
	})
}

// replay issues l's stream into the immediate context. A list that fails
// to replay leaves the context to the lists already replayed: the context
// is discarded and rebuilt from their streams.
func (q *Queue) replay(l *CommandList) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.replayOne(l); err != nil {
		q.rebuild()
		return fmt.Errorf("emulated: replay %s list: %w", l.typ, err)
	}
	q.replayed = append(q.replayed, l)
	q.replays++
	return nil
}

// replayOne replays l and reports the first error the context met. The
// caller holds q.mu.
func (q *Queue) replayOne(l *CommandList) error {
	ctx, err := q.context()
	if err != nil {
		return err
	}
	ctx.ClearState()
	if err := l.rec.Stream().Replay(ctx); err != nil {
		ctx.Fail(err)
		return err
	}
	return ctx.Err()
}

// rebuild discards the open context and replays the accepted lists into a
// fresh one. The caller holds q.mu.
func (q *Queue) rebuild() {
	if q.ctx == nil {
		return
	}
	q.ctx.Discard()
	q.idle = append(q.idle, q.ctx)
	q.ctx = nil
	for _, l := range q.replayed {
		if err := q.replayOne(l); err != nil {
			// The context stays failed and Execute reports it.
			q.drv.Logger().Warn("emulated: replay after discard", "queue", q.label, "err", err)
			return
		}
	}
}

// context returns the open immediate context, beginning a pooled one whose
// work has completed or a new one. The caller holds q.mu.
func (q *Queue) context() (*driver.Encoder, error) {
	if q.ctx != nil {
		return q.ctx, nil
	}
	completed := q.Completed()
	var ctx *driver.Encoder
	if i := slices.IndexFunc(q.idle, func(e *driver.Encoder) bool {
		return e.LastSubmitted() <= completed
	}); i >= 0 {
		ctx = q.idle[i]
		q.idle = slices.Delete(q.idle, i, i+1)
	} else {
		enc, err := driver.NewEncoder(q.drv, q.label+" immediate")
		if err != nil {
			return nil, err
		}
		ctx = enc
		q.all = append(q.all, ctx)
		q.drv.Logger().Debug("emulated: immediate context created", "queue", q.label, "contexts", len(q.all))
	}
	if err := ctx.Begin(); err != nil {
		q.idle = append(q.idle, ctx)
		return nil, err
	}
	q.ctx = ctx
	return ctx, nil
}

// Flush finishes the immediate context for Execute. It runs under the
// driver queue lock.
func (q *Queue) Flush() (*driver.Submission, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	ctx := q.ctx
	lists := q.replayed
	q.replayed = nil
	if ctx == nil {
		if len(lists) > 0 {
			// A rebuild could not reopen a context for these lists.
			for _, l := range lists {
				l.consumed()
			}
			return nil, fmt.Errorf("emulated: %d replayed lists lost their immediate context", len(lists))
		}
		return nil, nil
	}
	q.ctx = nil

	cmd, err := ctx.Finish()
	if err != nil {
		q.idle = append(q.idle, ctx)
		for _, l := range lists {
			l.consumed()
		}
		return nil, err
	}
	return &driver.Submission{
		Buffer:  cmd,
		Encoder: ctx,
		Done: func(uint64) {
			for _, l := range lists {
				l.consumed()
			}
			q.mu.Lock()
			q.idle = append(q.idle, ctx)
			q.mu.Unlock()
		},
	}, nil
}

// Replays returns the number of lists replayed since the queue was created.
func (q *Queue) Replays() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.replays
}

// Contexts returns the number of immediate contexts the queue has created.
func (q *Queue) Contexts() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.all)
}

func (q *Queue) destroy() {
	q.Queue.Destroy()
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.all {
		e.Destroy()
	}
	q.all, q.idle, q.ctx, q.replayed = nil, nil, nil, nil
}
