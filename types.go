// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package a3d

import (
	"math"
	"time"
)

// CommandListType selects the queue a command list is submitted to.
type CommandListType uint8

const (
	// CommandListDirect records graphics, compute and copy work.
	CommandListDirect CommandListType = iota
	// CommandListCompute records compute and copy work.
	CommandListCompute
	// CommandListCopy records copy work.
	CommandListCopy
	// CommandListBundle records a reusable sequence that is executed from
	// another list with ExecuteBundle. Bundles cannot be submitted.
	CommandListBundle
)

// String returns the type name.
func (t CommandListType) String() string {
	switch t {
	case CommandListDirect:
		return "Direct"
	case CommandListCompute:
		return "Compute"
	case CommandListCopy:
		return "Copy"
	case CommandListBundle:
		return "Bundle"
	default:
		return "Invalid"
	}
}

// Valid reports whether t is a defined type.
func (t CommandListType) Valid() bool { return t <= CommandListBundle }

// Submittable reports whether lists of type t can be submitted to a queue.
func (t CommandListType) Submittable() bool { return t <= CommandListCopy }

// ListState is the lifecycle state of a command list.
type ListState uint8

const (
	// ListInitial is the state after creation and after a submitted list
	// has been consumed.
	ListInitial ListState = iota
	// ListRecording is the state between Begin and End.
	ListRecording
	// ListExecutable is the state after a successful End.
	ListExecutable
	// ListPending is the state of a list handed to Queue.Submit whose batch
	// has not been executed yet.
	ListPending
)

// String returns the state name.
func (s ListState) String() string {
	switch s {
	case ListInitial:
		return "Initial"
	case ListRecording:
		return "Recording"
	case ListExecutable:
		return "Executable"
	case ListPending:
		return "Pending"
	default:
		return "Invalid"
	}
}

// Infinite makes Fence.Wait block until the fence is signaled.
const Infinite time.Duration = math.MaxInt64

// MaxMarkerLength is the longest debug marker, in bytes. Longer markers are
// truncated on a UTF-8 boundary.
const MaxMarkerLength = 64

// MaxColorTargets is the number of color targets a frame buffer can bind.
const MaxColorTargets = 8

// Viewport is a rendering viewport in pixels.
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// Rect is a scissor rectangle in pixels.
type Rect struct {
	X, Y          uint32
	Width, Height uint32
}

// Offset3D is a texel offset.
type Offset3D struct {
	X, Y, Z uint32
}

// Extent3D is a texel extent. Depth is the depth or array layer count.
type Extent3D struct {
	Width, Height, Depth uint32
}

// Empty reports whether the extent covers no texels.
func (e Extent3D) Empty() bool { return e.Width == 0 || e.Height == 0 || e.Depth == 0 }

// Subresource addresses one mip level of one array layer.
type Subresource struct {
	MipLevel   uint32
	ArrayLayer uint32
}

// BufferLayout describes texel data in a buffer.
// Zero BytesPerRow and RowsPerImage mean tightly packed.
type BufferLayout struct {
	Offset       uint64
	BytesPerRow  uint32
	RowsPerImage uint32
}

// ClearFlags selects the aspects ClearDepthStencil clears.
type ClearFlags uint8

const (
	ClearDepth ClearFlags = 1 << iota
	ClearStencil
)

// FrameBuffer is the set of render targets bound by BeginFrameBuffer.
type FrameBuffer struct {
	ColorTargets []Texture
	DepthTarget  Texture
	// DepthReadOnly binds DepthTarget for depth testing without writes.
	DepthReadOnly bool
}

// Empty reports whether the frame buffer binds no target.
func (fb *FrameBuffer) Empty() bool {
	if fb.DepthTarget != nil {
		return false
	}
	for _, t := range fb.ColorTargets {
		if t != nil {
			return false
		}
	}
	return true
}

// IndirectCommand is the command issued per ExecuteIndirect argument record.
type IndirectCommand uint8

const (
	// IndirectDraw reads {vertexCount, instanceCount, firstVertex,
	// firstInstance} as four uint32 values.
	IndirectDraw IndirectCommand = iota
	// IndirectDrawIndexed reads {indexCount, instanceCount, firstIndex,
	// baseVertex, firstInstance}.
	IndirectDrawIndexed
	// IndirectDispatch reads {x, y, z}.
	IndirectDispatch
)

// Stride returns the size of one argument record in bytes.
func (c IndirectCommand) Stride() uint64 {
	switch c {
	case IndirectDraw:
		return 16
	case IndirectDrawIndexed:
		return 20
	case IndirectDispatch:
		return 12
	default:
		return 0
	}
}

// String returns the command name.
func (c IndirectCommand) String() string {
	switch c {
	case IndirectDraw:
		return "Draw"
	case IndirectDrawIndexed:
		return "DrawIndexed"
	case IndirectDispatch:
		return "Dispatch"
	default:
		return "Invalid"
	}
}

// QueryType is the kind of query a QueryPool holds.
type QueryType uint8

const (
	QueryOcclusion QueryType = iota
	QueryTimestamp
)

// PipelineType is the bind point of a pipeline state.
type PipelineType uint8

const (
	PipelineGraphics PipelineType = iota
	PipelineCompute
)
