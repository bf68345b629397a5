// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package a3d

import (
	"errors"
	"fmt"
)

// Configuration errors.
var (
	// ErrInvalidDesc is returned when a descriptor has missing or
	// out-of-range fields.
	ErrInvalidDesc = errors.New("a3d: invalid descriptor")

	// ErrInvalidType is returned for an unknown command list type, or for a
	// type that cannot be used in the requested role.
	ErrInvalidType = errors.New("a3d: invalid command list type")

	// ErrUnknownDriver is returned by NewDevice when the requested driver
	// name is not registered.
	ErrUnknownDriver = errors.New("a3d: unknown driver")

	// ErrNoDriver is returned by NewDevice when no driver is registered.
	// Import a backend package for its side effects to register one.
	ErrNoDriver = errors.New("a3d: no driver registered")

	// ErrInvalidIndex is returned for a buffer index outside the ring.
	ErrInvalidIndex = errors.New("a3d: index out of range")
)

// Submission errors.
var (
	// ErrSubmitListFull is returned by Queue.Submit when the batch already
	// holds MaxSubmitCount lists. The batch is left unchanged.
	ErrSubmitListFull = errors.New("a3d: submission list full")

	// ErrNotExecutable is returned when a list that has not been ended is
	// submitted or executed as a bundle.
	ErrNotExecutable = errors.New("a3d: command list not executable")

	// ErrWrongBackend is returned when an object created by one device is
	// handed to another device or backend.
	ErrWrongBackend = errors.New("a3d: object belongs to another device")

	// ErrListPending is returned by CommandList.Begin and Release while the
	// list is submitted and its batch has not been executed.
	ErrListPending = errors.New("a3d: command list pending execution")

	// ErrStaleSyncObjects is returned by Queue.Execute after a swapchain
	// resize until Queue.ResetSyncObject recreates the ring.
	ErrStaleSyncObjects = errors.New("a3d: synchronization ring is stale")
)

// Recording errors.
var (
	// ErrNotRecording is returned by End when Begin has not been called.
	ErrNotRecording = errors.New("a3d: command list is not recording")

	// ErrUnbalancedFrameBuffer is returned by End when EndFrameBuffer was
	// recorded without a matching BeginFrameBuffer, or a frame buffer is
	// still open.
	ErrUnbalancedFrameBuffer = errors.New("a3d: unbalanced frame buffer")

	// ErrUnbalancedMarker is returned by End when PushMarker and PopMarker
	// calls do not pair up.
	ErrUnbalancedMarker = errors.New("a3d: unbalanced debug marker")
)

// Presentation errors.
var (
	// ErrNotReady is returned by SwapChain operations while a resize is in
	// progress.
	ErrNotReady = errors.New("a3d: swapchain not ready")

	// ErrNotIdle is returned by SwapChain.ResizeBuffers when the owning
	// queue still has work in flight. Call Queue.WaitIdle first.
	ErrNotIdle = errors.New("a3d: queue not idle")

	// ErrPresentBeforeExecute is returned by SwapChain.Present when the
	// queue has not executed any work since the image was acquired.
	ErrPresentBeforeExecute = errors.New("a3d: present before queue execute")

	// ErrSurfaceLost is returned when the presentation surface is lost or
	// outdated. Resize or recreate the swapchain.
	ErrSurfaceLost = errors.New("a3d: surface lost")
)

// Fatal errors.
var (
	// ErrDeviceLost matches every *DeviceLostError.
	ErrDeviceLost = errors.New("a3d: device lost")

	// ErrReleased is returned when an object is used after Release.
	ErrReleased = errors.New("a3d: object released")
)

// DeviceLostError reports an unrecoverable native failure. The application
// should release every object created by the device and create a new one.
type DeviceLostError struct {
	// Op is the operation that failed, e.g. "queue submit".
	Op string
	// Err is the native error.
	Err error
}

func (e *DeviceLostError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("a3d: device lost during %s", e.Op)
	}
	return fmt.Sprintf("a3d: device lost during %s: %v", e.Op, e.Err)
}

// Unwrap returns the native error.
func (e *DeviceLostError) Unwrap() error { return e.Err }

// Is reports whether target is ErrDeviceLost.
func (e *DeviceLostError) Is(target error) bool { return target == ErrDeviceLost }
