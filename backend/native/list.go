// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/a3d"
	"github.com/gogpu/a3d/driver"
	"github.com/gogpu/a3d/stream"
	"github.com/gogpu/wgpu/hal"
)

// CommandList records into a hal command encoder, or into a command stream
// for bundles. Recording calls are served by the embedded Commands.
type CommandList struct {
	a3d.Commands

	dev   *Device
	typ   a3d.CommandListType
	queue *Queue

	enc *driver.Encoder
	rec *stream.Recorder
	cmd hal.CommandBuffer

	state    atomic.Uint32
	released atomic.Bool
}

var _ a3d.CommandList = (*CommandList)(nil)

func (l *CommandList) Type() a3d.CommandListType { return l.typ }

func (l *CommandList) State() a3d.ListState { return a3d.ListState(l.state.Load()) }

func (l *CommandList) setState(s a3d.ListState) { l.state.Store(uint32(s)) }

// Begin starts recording. It blocks until the GPU has finished the list's
// previous submission, whose command memory is reused.
func (l *CommandList) Begin() error {
	if l.released.Load() {
		return a3d.ErrReleased
	}
	if l.State() == a3d.ListPending {
		return a3d.ErrListPending
	}
	if l.rec != nil {
		l.rec.Begin(true)
		l.setState(a3d.ListRecording)
		return nil
	}
	l.queue.WaitIndex(l.enc.LastSubmitted(), a3d.Infinite)
	l.cmd = nil
	if err := l.enc.Begin(); err != nil {
		l.setState(a3d.ListInitial)
		return err
	}
	l.setState(a3d.ListRecording)
	return nil
}

// End finishes recording. On error the list returns to the Initial state.
func (l *CommandList) End() error {
	if l.State() != a3d.ListRecording {
		return a3d.ErrNotRecording
	}
	var err error
	if l.rec != nil {
		err = l.rec.End()
	} else {
		l.cmd, err = l.enc.Finish()
	}
	if err != nil {
		l.setState(a3d.ListInitial)
		return err
	}
	l.setState(a3d.ListExecutable)
	return nil
}

// ExecuteBundle replays an ended bundle into the encoder. A bundle list
// splices the other bundle's stream instead.
func (l *CommandList) ExecuteBundle(bundle a3d.CommandList) {
	if l.State() != a3d.ListRecording {
		l.dev.Driver().Logger().Debug("native: ExecuteBundle outside Begin/End ignored")
		return
	}
	b, ok := bundle.(*CommandList)
	switch {
	case !ok || b.dev != l.dev:
		l.fail(fmt.Errorf("%w: bundle %T", a3d.ErrWrongBackend, bundle))
	case b.typ != a3d.CommandListBundle:
		l.fail(fmt.Errorf("%w: %s list executed as bundle", a3d.ErrInvalidType, b.typ))
	case b.State() != a3d.ListExecutable:
		l.fail(a3d.ErrNotExecutable)
	case l.rec != nil:
		_ = l.rec.Append(b.rec.Stream())
	default:
		if err := b.rec.Stream().Replay(l.enc); err != nil {
			l.fail(err)
		}
	}
}

func (l *CommandList) fail(err error) {
	if l.rec != nil {
		l.rec.Fail(err)
		return
	}
	l.enc.Fail(err)
}

// consumed runs once the list's batch has been handed to the hal queue or
// dropped.
func (l *CommandList) consumed(uint64) {
	l.cmd = nil
	l.setState(a3d.ListInitial)
}

// Release destroys the list. A list whose work is still queued or in
// flight is destroyed by its queue once the GPU is done with it.
func (l *CommandList) Release() {
	if !l.released.CompareAndSwap(false, true) {
		return
	}
	if l.enc == nil {
		return
	}
	if l.State() == a3d.ListPending || l.enc.LastSubmitted() > l.queue.Completed() {
		l.queue.orphan(l)
		return
	}
	l.enc.Destroy()
}
