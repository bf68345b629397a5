// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package emulated

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/a3d"
	"github.com/gogpu/a3d/driver"
	"github.com/gogpu/a3d/internal/shared"
	"github.com/gogpu/a3d/stream"
	"github.com/gogpu/gpucontext"
)

// Device is an a3d.Device whose command lists are recorded command streams.
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
		q, err := newQueue(dev, d, typ)
		if err != nil {
			dev.destroyQueues()
			d.Destroy()
			return nil, err
		}
		dev.queues[t] = q
	}
	dev.Core = shared.NewCore(d, dev.queues[a3d.CommandListDirect].Queue)
	return dev, nil
}

// CreateCommandList creates a list in the Initial state with a stream of
// the configured initial capacity.
func (d *Device) CreateCommandList(t a3d.CommandListType) (a3d.CommandList, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", a3d.ErrInvalidType, t)
	}
	drv := d.Driver()
	s, err := stream.New(drv.Config().StreamCapacity)
	if err != nil {
		return nil, err
	}
	l := &CommandList{dev: d, typ: t, rec: stream.NewRecorder(s, drv.Logger())}
	l.Commands = l.rec
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
	return d.Driver().Capabilities()
}

// WaitIdle drains every queue.
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
		d.Driver().Logger().Warn("emulated: wait idle on release", "err", err)
	}
	d.destroyQueues()
	d.Driver().Destroy()
}

func (d *Device) destroyQueues() {
	for i, q := range d.queues {
		if q == nil {
			continue
		}
		q.destroy()
		d.queues[i] = nil
	}
}
