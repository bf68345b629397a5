// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/a3d"
	"github.com/gogpu/a3d/driver"
	"github.com/gogpu/a3d/internal/shared"
	"github.com/gogpu/a3d/stream"
	"github.com/gogpu/gpucontext"
)

// Device is an a3d.Device whose command lists own hal command buffers.
//
// Direct, compute and copy lists each have their own Queue, and all three
// submit to the single hal queue of the device.
type Device struct {
	shared.Core

	queues   [a3d.CommandListCopy + 1]*Queue
	released atomic.Bool
}

var (
	_ a3d.Device                = (*Device)(nil)
	_ gpucontext.DeviceProvider = (*Device)(nil)
)

func newDevice(d *driver.Device) (*Device, error) {
	dev := &Device{}
	for t := range dev.queues {
		typ := a3d.CommandListType(t)
		q, err := driver.NewQueue(d, shared.QueueLabel(d.Config().Label, typ))
		if err != nil {
			dev.destroyQueues()
			d.Destroy()
			return nil, err
		}
		dev.queues[t] = &Queue{Queue: q, dev: dev, typ: typ}
	}
	dev.Core = shared.NewCore(d, dev.queues[a3d.CommandListDirect].Queue)
	return dev, nil
}

// CreateCommandList creates a list in the Initial state. Bundles record
// into a command stream; other types own a hal command encoder.
func (d *Device) CreateCommandList(t a3d.CommandListType) (a3d.CommandList, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", a3d.ErrInvalidType, t)
	}
	drv := d.Driver()
	l := &CommandList{dev: d, typ: t}
	if t == a3d.CommandListBundle {
		s, err := stream.New(drv.Config().StreamCapacity)
		if err != nil {
			return nil, err
		}
		l.rec = stream.NewRecorder(s, drv.Logger())
		l.Commands = l.rec
		return l, nil
	}
	enc, err := driver.NewEncoder(drv, t.String())
	if err != nil {
		return nil, err
	}
	l.queue = d.queues[t]
	l.enc = enc
	l.Commands = enc
	return l, nil
}

// GetQueue returns the queue for lists of type t.
func (d *Device) GetQueue(t a3d.CommandListType) (a3d.Queue, error) {
	if !t.Submittable() {
		return nil, fmt.Errorf("%w: %s lists have no queue", a3d.ErrInvalidType, t)
	}
	return d.queues[t], nil
}

// Capabilities describes the device.
func (d *Device) Capabilities() a3d.Capabilities {
	c := d.Driver().Capabilities()
	c.NativeCommandLists = true
	return c
}

// WaitIdle drains every queue and destroys lists released while in flight.
func (d *Device) WaitIdle() error {
	for _, q := range d.queues {
		if err := q.WaitIdle(); err != nil {
			return err
		}
	}
	return nil
}

// Release waits for the device to go idle and destroys it.
func (d *Device) Release() {
	if !d.released.CompareAndSwap(false, true) {
		return
	}
	if err := d.WaitIdle(); err != nil {
		d.Driver().Logger().Warn("native: wait idle on release", "err", err)
	}
	d.destroyQueues()
	d.Driver().Destroy()
}

func (d *Device) destroyQueues() {
	for i, q := range d.queues {
		if q == nil {
			continue
		}
		q.reclaim(true)
		q.Queue.Destroy()
		d.queues[i] = nil
	}
}
