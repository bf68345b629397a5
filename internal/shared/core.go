// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shared holds the device plumbing common to the native and
// emulated drivers.
package shared

import (
	"github.com/gogpu/a3d"
	"github.com/gogpu/a3d/driver"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Core implements the a3d.Device methods that do not depend on how command
// lists execute: resource and fence creation, swapchains and the
// gpucontext.DeviceProvider accessors. Drivers embed it.
type Core struct {
	drv     *driver.Device
	present *driver.Queue
}

// NewCore returns a Core over drv. Swapchains present through present.
func NewCore(drv *driver.Device, present *driver.Queue) Core {
	return Core{drv: drv, present: present}
}

// Driver returns the hal device wrapper.
func (c *Core) Driver() *driver.Device { return c.drv }

func (c *Core) Device() gpucontext.Device             { return c.drv.Device() }
func (c *Core) Queue() gpucontext.Queue               { return c.drv.Queue() }
func (c *Core) Adapter() gpucontext.Adapter           { return c.drv.Adapter() }
func (c *Core) SurfaceFormat() gputypes.TextureFormat { return c.drv.SurfaceFormat() }
func (c *Core) AdapterInfo() gpucontext.AdapterInfo   { return c.drv.AdapterInfo() }

// CreateFence returns an unsignaled fence.
func (c *Core) CreateFence() (a3d.Fence, error) { return driver.NewFence(), nil }

// CreateSwapChain creates a swapchain presented through the direct queue.
// Its buffer count must match the queue ring.
func (c *Core) CreateSwapChain(desc *a3d.SwapChainDesc) (a3d.SwapChain, error) {
	sc, err := driver.NewSwapChain(c.drv, c.present, desc)
	if err != nil {
		return nil, err
	}
	return sc, nil
}

func (c *Core) CreateTexture(desc *a3d.TextureDesc) (a3d.Texture, error) {
	t, err := c.drv.CreateTexture(desc)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (c *Core) CreateBuffer(desc *a3d.BufferDesc) (a3d.Buffer, error) {
	b, err := c.drv.CreateBuffer(desc)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (c *Core) CreateQueryPool(desc *a3d.QueryPoolDesc) (a3d.QueryPool, error) {
	p, err := c.drv.CreateQueryPool(desc)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// QueueLabel names the queue of list type t on a device labelled label.
func QueueLabel(label string, t a3d.CommandListType) string {
	if label == "" {
		return t.String()
	}
	return label + "/" + t.String()
}
