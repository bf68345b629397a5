// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package emulated

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/a3d"
	"github.com/gogpu/a3d/stream"
)

// CommandList records into a command stream. Recording touches no GPU
// object; the stream is replayed when the list is submitted.
type CommandList struct {
	a3d.Commands

	dev *Device
	typ a3d.CommandListType
	rec *stream.Recorder

	state    atomic.Uint32
	released atomic.Bool
}

var _ a3d.CommandList = (*CommandList)(nil)

func (l *CommandList) Type() a3d.CommandListType { return l.typ }

func (l *CommandList) State() a3d.ListState { return a3d.ListState(l.state.Load()) }

func (l *CommandList) setState(s a3d.ListState) { l.state.Store(uint32(s)) }

// Stream returns the list's command stream.
func (l *CommandList) Stream() *stream.Stream { return l.rec.Stream() }

// Begin resets the stream and starts recording.
func (l *CommandList) Begin() error {
	if l.released.Load() {
		return a3d.ErrReleased
	}
	if l.State() == a3d.ListPending {
		return a3d.ErrListPending
	}
	l.rec.Begin(l.typ == a3d.CommandListBundle)
	l.setState(a3d.ListRecording)
	return nil
}

// End closes the stream. On error the list returns to the Initial state.
func (l *CommandList) End() error {
	if l.State() != a3d.ListRecording {
		return a3d.ErrNotRecording
	}
	if err := l.rec.End(); err != nil {
		l.setState(a3d.ListInitial)
		return err
	}
	l.setState(a3d.ListExecutable)
	return nil
}

// ExecuteBundle splices an ended bundle's stream into this list.
func (l *CommandList) ExecuteBundle(bundle a3d.CommandList) {
	if l.State() != a3d.ListRecording {
		l.dev.Driver().Logger().Debug("emulated: ExecuteBundle outside Begin/End ignored")
		return
	}
	b, ok := bundle.(*CommandList)
	switch {
	case !ok || b.dev != l.dev:
		l.rec.Fail(fmt.Errorf("%w: bundle %T", a3d.ErrWrongBackend, bundle))
	case b.typ != a3d.CommandListBundle:
		l.rec.Fail(fmt.Errorf("%w: %s list executed as bundle", a3d.ErrInvalidType, b.typ))
	case b.State() != a3d.ListExecutable:
		l.rec.Fail(a3d.ErrNotExecutable)
	default:
		_ = l.rec.Append(b.rec.Stream())
	}
}

func (l *CommandList) consumed() { l.setState(a3d.ListInitial) }

// Release drops the list. Submitted work was already replayed, so nothing
// waits on the GPU.
func (l *CommandList) Release() {
	l.released.Store(true)
}
