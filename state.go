// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package a3d

// ResourceState is the declared usage of a texture or buffer.
//
// Barriers transition a resource from one declared state to another. The
// previous state is always given explicitly; the recorder never infers it.
type ResourceState uint8

const (
	// StateUnknown is the state of a resource whose contents are undefined.
	StateUnknown ResourceState = iota
	StateGeneral
	StateVertexBuffer
	StateIndexBuffer
	StateConstantBuffer
	StateColorWrite
	StateDepthWrite
	StateDepthRead
	StateShaderRead
	StateUnorderedAccess
	StateCopySrc
	StateCopyDst
	StateResolveSrc
	StateResolveDst
	// StatePresent is the state a swapchain image must be in when the
	// swapchain presents it.
	StatePresent
	StateIndirectArgument

	stateCount
)

var stateNames = [stateCount]string{
	StateUnknown:          "Unknown",
	StateGeneral:          "General",
	StateVertexBuffer:     "VertexBuffer",
	StateIndexBuffer:      "IndexBuffer",
	StateConstantBuffer:   "ConstantBuffer",
	StateColorWrite:       "ColorWrite",
	StateDepthWrite:       "DepthWrite",
	StateDepthRead:        "DepthRead",
	StateShaderRead:       "ShaderRead",
	StateUnorderedAccess:  "UnorderedAccess",
	StateCopySrc:          "CopySrc",
	StateCopyDst:          "CopyDst",
	StateResolveSrc:       "ResolveSrc",
	StateResolveDst:       "ResolveDst",
	StatePresent:          "Present",
	StateIndirectArgument: "IndirectArgument",
}

// String returns the state name.
func (s ResourceState) String() string {
	if s < stateCount {
		return stateNames[s]
	}
	return "Invalid"
}

// Valid reports whether s is a defined state.
func (s ResourceState) Valid() bool { return s < stateCount }

// IsWrite reports whether the state allows the GPU to write the resource.
func (s ResourceState) IsWrite() bool {
	switch s {
	case StateGeneral, StateColorWrite, StateDepthWrite, StateUnorderedAccess,
		StateCopyDst, StateResolveDst:
		return true
	}
	return false
}

// NeedsBarrier reports whether a transition from prev to next must reach
// the backend. Equal states are elided.
func NeedsBarrier(prev, next ResourceState) bool { return prev != next }

// Stateful is implemented by resources that carry a declared state.
type Stateful interface {
	State() ResourceState
	SetState(ResourceState)
}
