// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package a3d

import (
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Device creates command lists, queues, fences, swapchains and resources.
// A device must outlive every object it created.
type Device interface {
	// CreateCommandList creates a list in the Initial state.
	CreateCommandList(t CommandListType) (CommandList, error)
	CreateFence() (Fence, error)
	// CreateSwapChain creates a swapchain presented through the direct queue.
	CreateSwapChain(desc *SwapChainDesc) (SwapChain, error)
	// GetQueue returns the queue for lists of type t. Bundles have no queue.
	GetQueue(t CommandListType) (Queue, error)

	CreateTexture(desc *TextureDesc) (Texture, error)
	CreateBuffer(desc *BufferDesc) (Buffer, error)
	CreateQueryPool(desc *QueryPoolDesc) (QueryPool, error)

	Capabilities() Capabilities
	// WaitIdle blocks until every queue has drained.
	WaitIdle() error
	// Release waits for the device to go idle and destroys it.
	Release()
}

// CommandList records GPU work. A list is owned by one goroutine while it
// records.
type CommandList interface {
	Commands

	// Begin starts recording, discarding previously recorded commands.
	Begin() error
	// End finishes recording. It reports unbalanced frame buffers and
	// markers recorded since Begin.
	End() error
	// ExecuteBundle inlines an ended bundle list.
	ExecuteBundle(bundle CommandList)

	Type() CommandListType
	State() ListState
	Release()
}

// Queue batches submitted command lists and executes them on one physical
// GPU queue.
type Queue interface {
	// Submit adds an ended list to the current batch. It is safe to call
	// from multiple goroutines.
	Submit(list CommandList) error
	// Execute flushes the batch as one native submission, arms fence if it
	// is not nil, and advances the frame ring.
	Execute(fence Fence) error
	// WaitIdle blocks until all submitted work has completed and resets
	// the frame ring to slot zero.
	WaitIdle() error
	// ResetSyncObject destroys and recreates the frame ring.
	ResetSyncObject() error

	CurrentBufferIndex() uint32
	PreviousBufferIndex() uint32
	BufferCount() uint32
	MaxSubmitCount() int
	// Pending returns the number of lists in the current batch.
	Pending() int
}

// Fence is a reusable GPU to CPU completion signal. Observing the signal
// with IsSignaled or Wait resets the fence.
type Fence interface {
	// IsSignaled polls the fence and returns the state observed before
	// the reset.
	IsSignaled() bool
	// Wait blocks until the fence is signaled or timeout elapses and
	// reports whether the signal was observed. Pass Infinite to wait
	// without a timeout.
	Wait(timeout time.Duration) bool
	// Release destroys the fence, blocking until an outstanding Wait
	// returns.
	Release()
}

// SwapChain owns the presentable image ring of a surface.
type SwapChain interface {
	// GetCurrentBufferIndex returns the index of the image the surface
	// will present next, acquiring it if no image is held.
	GetCurrentBufferIndex() uint32
	// GetBuffer returns back buffer index. The returned texture is owned
	// by the swapchain.
	GetBuffer(index uint32) (Texture, error)
	// Present flips the current image. The queue must have executed work
	// since the image was acquired.
	Present() error
	// ResizeBuffers recreates the image ring. The queue must be idle, and
	// Queue.ResetSyncObject must be called before the next Execute.
	ResizeBuffers(width, height uint32) error
	Ready() bool
	Desc() SwapChainDesc
	Release()
}

// WindowHandle identifies a native window.
type WindowHandle struct {
	Display uintptr
	Window  uintptr
}

// SwapChainDesc describes a swapchain.
type SwapChainDesc struct {
	Width       uint32
	Height      uint32
	Format      gputypes.TextureFormat
	MipLevels   uint32
	SampleCount uint32
	// BufferCount is 2 or 3. Zero uses the device's frame ring size.
	BufferCount uint32
	// SyncInterval 0 presents immediately; 1 or more waits for vertical
	// blank.
	SyncInterval uint32
	Window       WindowHandle
}

// Validate checks the descriptor for missing or out-of-range fields.
func (d *SwapChainDesc) Validate() error {
	if d == nil || d.Width == 0 || d.Height == 0 {
		return ErrInvalidDesc
	}
	if d.BufferCount != 0 && (d.BufferCount < MinBufferCount || d.BufferCount > MaxBufferCount) {
		return ErrInvalidDesc
	}
	if d.SampleCount > 1 || d.MipLevels > 1 {
		return ErrInvalidDesc
	}
	return nil
}

// DeviceDesc selects the driver and physical backend of a new device.
type DeviceDesc struct {
	// Driver is the registered driver name. Empty selects the best
	// registered driver.
	Driver string
	// Backend is the hal backend the driver runs on. BackendEmpty selects
	// the first backend that opens successfully.
	Backend         gputypes.Backend
	PowerPreference gputypes.PowerPreference
	Label           string
}

// Capabilities describes a device.
type Capabilities struct {
	Driver  string
	Backend gputypes.Backend
	Adapter gpucontext.AdapterInfo
	// NativeCommandLists reports whether command lists map to native
	// command buffers rather than an emulated stream.
	NativeCommandLists bool
	MeshShaders        bool
	MaxSubmitCount     int
	BufferCount        uint32
	Limits             gputypes.Limits
}
