// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/gogpu/a3d"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// SwapChain presents a hal surface through a Queue.
//
// Back buffers are wrappers whose hal texture is swapped on every acquire.
// Images are mapped to buffer indices by native handle when the backend
// exposes one, and round robin otherwise.
type SwapChain struct {
	dev     *Device
	queue   *Queue
	logger  *slog.Logger
	surface hal.Surface
	config  hal.SurfaceConfiguration

	mu         sync.Mutex
	desc       a3d.SwapChainDesc
	buffers    []*Texture
	handles    []uintptr
	next       uint32
	acquired   hal.SurfaceTexture
	current    uint32
	acquiredAt uint64
	ready      bool
}

var _ a3d.SwapChain = (*SwapChain)(nil)

// NewSwapChain creates a surface for desc.Window and configures it. The
// buffer count must match the queue's ring.
func NewSwapChain(dev *Device, queue *Queue, desc *a3d.SwapChainDesc) (*SwapChain, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	d := *desc
	if d.BufferCount == 0 {
		d.BufferCount = queue.BufferCount()
	}
	if d.BufferCount != queue.BufferCount() {
		return nil, fmt.Errorf("%w: buffer count %d, queue ring %d",
			a3d.ErrInvalidDesc, d.BufferCount, queue.BufferCount())
	}
	d.MipLevels, d.SampleCount = 1, 1

	surface, caps, err := dev.CreateSurface(d.Window)
	if err != nil {
		return nil, err
	}
	if d.Format == gputypes.TextureFormatUndefined {
		d.Format = gputypes.TextureFormatBGRA8Unorm
		if len(caps.Formats) > 0 && !slices.Contains(caps.Formats, d.Format) {
			d.Format = caps.Formats[0]
		}
	}

	s := &SwapChain{
		dev:     dev,
		queue:   queue,
		logger:  dev.logger,
		surface: surface,
		desc:    d,
		config: hal.SurfaceConfiguration{
			Width:       d.Width,
			Height:      d.Height,
			Format:      d.Format,
			Usage:       gputypes.TextureUsageRenderAttachment,
			PresentMode: PresentMode(d.SyncInterval, caps.PresentModes),
			AlphaMode:   alphaMode(caps.AlphaModes),
		},
	}
	if err := surface.Configure(dev.device, &s.config); err != nil {
		surface.Destroy()
		return nil, surfaceError("configure surface", err)
	}
	dev.setSurfaceFormat(d.Format)

	s.buffers = make([]*Texture, d.BufferCount)
	s.handles = make([]uintptr, d.BufferCount)
	for i := range s.buffers {
		s.buffers[i] = WrapTexture(dev.device, nil, s.bufferDesc(uint32(i)))
	}
	s.ready = true
	s.logger.Info("driver: swapchain created",
		"width", d.Width,
		"height", d.Height,
		"format", d.Format.String(),
		"buffers", d.BufferCount,
		"present", s.config.PresentMode.String(),
	)
	return s, nil
}

func alphaMode(supported []gputypes.CompositeAlphaMode) gputypes.CompositeAlphaMode {
	if len(supported) == 0 || slices.Contains(supported, gputypes.CompositeAlphaModeOpaque) {
		return gputypes.CompositeAlphaModeOpaque
	}
	return supported[0]
}

func (s *SwapChain) bufferDesc(i uint32) a3d.TextureDesc {
	return a3d.TextureDesc{
		Label:       fmt.Sprintf("backbuffer %d", i),
		Width:       s.desc.Width,
		Height:      s.desc.Height,
		Depth:       1,
		MipLevels:   1,
		SampleCount: 1,
		Format:      s.desc.Format,
		Dimension:   gputypes.TextureDimension2D,
		Usage:       gputypes.TextureUsageRenderAttachment,
		InitState:   a3d.StatePresent,
	}
}

// acquire takes the next surface image if none is held. The caller holds
// s.mu.
func (s *SwapChain) acquire() error {
	if s.acquired != nil {
		return nil
	}
	if !s.ready {
		return a3d.ErrNotReady
	}
	ring := s.queue.CurrentBufferIndex()
	s.queue.WaitSlot(ring, a3d.Infinite)

	at, err := s.surface.AcquireTexture(s.queue.SlotFence(ring))
	if err != nil {
		return surfaceError("acquire", err)
	}
	if at.Suboptimal {
		s.logger.Debug("driver: suboptimal surface image")
	}
	idx := s.slotFor(at.Texture.NativeHandle())
	s.buffers[idx].replace(at.Texture)
	s.acquired = at.Texture
	s.current = idx
	s.acquiredAt = s.queue.Executions()
	return nil
}

func (s *SwapChain) slotFor(handle uintptr) uint32 {
	n := uint32(len(s.buffers))
	if handle != 0 {
		if i := slices.Index(s.handles, handle); i >= 0 {
			return uint32(i)
		}
		if i := slices.Index(s.handles, 0); i >= 0 {
			s.handles[i] = handle
			return uint32(i)
		}
	}
	i := s.next
	s.next = (s.next + 1) % n
	return i
}

// GetCurrentBufferIndex acquires an image if none is held and returns its
// buffer index. Acquisition failures are logged and leave the index
// unchanged.
func (s *SwapChain) GetCurrentBufferIndex() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.acquire(); err != nil {
		s.logger.Warn("driver: acquire surface image", "err", err)
	}
	return s.current
}

// GetBuffer returns back buffer index, acquiring an image first if none is
// held.
func (s *SwapChain) GetBuffer(index uint32) (a3d.Texture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return nil, a3d.ErrNotReady
	}
	if index >= uint32(len(s.buffers)) {
		return nil, fmt.Errorf("%w: buffer %d of %d", a3d.ErrInvalidIndex, index, len(s.buffers))
	}
	if err := s.acquire(); err != nil {
		return nil, err
	}
	return s.buffers[index], nil
}

// Present flips the held image. The queue must have executed since the
// image was acquired.
func (s *SwapChain) Present() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return a3d.ErrNotReady
	}
	if s.acquired == nil || s.queue.Executions() == s.acquiredAt {
		return a3d.ErrPresentBeforeExecute
	}
	tex := s.acquired
	s.acquired = nil
	if err := s.queue.HAL().Present(s.surface, tex, nil); err != nil {
		return surfaceError("present", err)
	}
	return nil
}

// ResizeBuffers reconfigures the surface. The queue must be idle, and the
// queue's sync objects must be reset before it executes again.
func (s *SwapChain) ResizeBuffers(width, height uint32) error {
	if width == 0 || height == 0 {
		return a3d.ErrInvalidDesc
	}
	if !s.queue.Idle() {
		return a3d.ErrNotIdle
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ready = false
	if s.acquired != nil {
		s.surface.DiscardTexture(s.acquired)
		s.acquired = nil
	}
	for _, b := range s.buffers {
		b.replace(nil)
	}
	clear(s.handles)
	s.next, s.current = 0, 0

	s.config.Width, s.config.Height = width, height
	if err := s.surface.Configure(s.dev.device, &s.config); err != nil {
		return surfaceError("resize surface", err)
	}
	s.desc.Width, s.desc.Height = width, height
	for i, b := range s.buffers {
		b.desc = s.bufferDesc(uint32(i))
		b.state = a3d.StatePresent
		b.fresh = true
	}
	s.queue.MarkStale()
	s.ready = true
	s.logger.Info("driver: swapchain resized", "width", width, "height", height)
	return nil
}

// Ready reports whether the swapchain can acquire and present.
func (s *SwapChain) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Desc returns the effective descriptor.
func (s *SwapChain) Desc() a3d.SwapChainDesc {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.desc
}

// Surface returns the hal surface, or nil after Release.
func (s *SwapChain) Surface() hal.Surface {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface
}

// Release discards the held image and destroys the surface.
func (s *SwapChain) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.surface == nil {
		return
	}
	s.ready = false
	if s.acquired != nil {
		s.surface.DiscardTexture(s.acquired)
		s.acquired = nil
	}
	for _, b := range s.buffers {
		b.Release()
	}
	s.surface.Unconfigure(s.dev.device)
	s.surface.Destroy()
	s.surface = nil
}
