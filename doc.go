// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package a3d provides a command list, queue, fence and swapchain model
// with uniform semantics across GPU backends.
//
// # Overview
//
// Applications record GPU work into a [CommandList], submit finished lists
// to a [Queue], and flush the batch with [Queue.Execute]. A [Fence] passed to
// Execute signals when the batch has completed, and a [SwapChain] presents
// the frame once the queue has executed it.
//
// Two backend families implement the interfaces and register themselves
// by name:
//
//   - "native" forwards every recording call into an explicit hal command
//     encoder, the Vulkan and D3D12 execution model.
//   - "emulated" appends typed records to a command stream and replays the
//     stream into a shared immediate context at submission time, the D3D11
//     execution model.
//
// Both families run on a github.com/gogpu/wgpu/hal device, so the same
// application code drives Vulkan, DX12, Metal, GLES, the software rasterizer
// or the noop backend.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/a3d"
//	    _ "github.com/gogpu/a3d/backend/native"
//	)
//
//	dev, err := a3d.NewDevice(&a3d.DeviceDesc{Backend: gputypes.BackendVulkan})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Release()
//
//	queue, _ := dev.GetQueue(a3d.CommandListDirect)
//	list, _ := dev.CreateCommandList(a3d.CommandListDirect)
//	fence, _ := dev.CreateFence()
//
//	_ = list.Begin()
//	list.TextureBarrier(backBuffer, a3d.StatePresent, a3d.StateColorWrite)
//	list.ClearRenderTarget(backBuffer, gputypes.Color{R: 0.1, G: 0.1, B: 0.1, A: 1})
//	list.TextureBarrier(backBuffer, a3d.StateColorWrite, a3d.StatePresent)
//	_ = list.End()
//
//	_ = queue.Submit(list)
//	_ = queue.Execute(fence)
//	fence.Wait(a3d.Infinite)
//
// # Resource States
//
// Every texture and buffer carries a declared [ResourceState]. Barriers name
// both the previous and the next state explicitly; a barrier whose states
// are equal is dropped by the recorder and never reaches the backend.
//
// # Frame Ring
//
// A queue owns a ring of synchronization slots, one per frame in flight.
// Execute advances the ring so the CPU can record frame N+1 while frame N
// drains on the GPU. [Queue.WaitIdle] resets the ring to slot zero.
package a3d
