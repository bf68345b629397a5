// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package stream

import (
	"github.com/gogpu/a3d"
	"github.com/gogpu/gputypes"
)

// Kind identifies the type of a command record.
type Kind uint8

const (
	// Framing records
	KindBegin    Kind = iota // start of a command list
	KindEnd                  // end of a command list
	KindSubBegin             // start of a bundle
	KindSubEnd               // end of a bundle

	// Render target and pass records
	KindClearRenderTarget
	KindClearDepthStencil
	KindBeginFrameBuffer
	KindEndFrameBuffer

	// State records
	KindSetViewports
	KindSetScissors
	KindSetPipelineState
	KindSetDescriptorSet
	KindSetVertexBuffers
	KindSetIndexBuffer
	KindSetBlendConstant
	KindSetStencilReference

	// Barrier records
	KindTextureBarrier
	KindBufferBarrier

	// Work records
	KindDrawInstanced
	KindDrawIndexedInstanced
	KindDispatchCompute
	KindDispatchMesh
	KindExecuteIndirect

	// Query records
	KindBeginQuery
	KindEndQuery
	KindResolveQuery
	KindResetQuery

	// Copy records
	KindCopyTexture
	KindCopyTextureRegion
	KindCopyBuffer
	KindCopyBufferRegion
	KindCopyBufferToTexture
	KindCopyTextureToBuffer
	KindResolveSubresource

	// Debug records
	KindPushMarker
	KindPopMarker

	// Inline data records
	KindUpdateConstantBuffer

	kindCount
)

var kindNames = [kindCount]string{
	KindBegin:                "Begin",
	KindEnd:                  "End",
	KindSubBegin:             "SubBegin",
	KindSubEnd:               "SubEnd",
	KindClearRenderTarget:    "ClearRenderTarget",
	KindClearDepthStencil:    "ClearDepthStencil",
	KindBeginFrameBuffer:     "BeginFrameBuffer",
	KindEndFrameBuffer:       "EndFrameBuffer",
	KindSetViewports:         "SetViewports",
	KindSetScissors:          "SetScissors",
	KindSetPipelineState:     "SetPipelineState",
	KindSetDescriptorSet:     "SetDescriptorSet",
	KindSetVertexBuffers:     "SetVertexBuffers",
	KindSetIndexBuffer:       "SetIndexBuffer",
	KindSetBlendConstant:     "SetBlendConstant",
	KindSetStencilReference:  "SetStencilReference",
	KindTextureBarrier:       "TextureBarrier",
	KindBufferBarrier:        "BufferBarrier",
	KindDrawInstanced:        "DrawInstanced",
	KindDrawIndexedInstanced: "DrawIndexedInstanced",
	KindDispatchCompute:      "DispatchCompute",
	KindDispatchMesh:         "DispatchMesh",
	KindExecuteIndirect:      "ExecuteIndirect",
	KindBeginQuery:           "BeginQuery",
	KindEndQuery:             "EndQuery",
	KindResolveQuery:         "ResolveQuery",
	KindResetQuery:           "ResetQuery",
	KindCopyTexture:          "CopyTexture",
	KindCopyTextureRegion:    "CopyTextureRegion",
	KindCopyBuffer:           "CopyBuffer",
	KindCopyBufferRegion:     "CopyBufferRegion",
	KindCopyBufferToTexture:  "CopyBufferToTexture",
	KindCopyTextureToBuffer:  "CopyTextureToBuffer",
	KindResolveSubresource:   "ResolveSubresource",
	KindPushMarker:           "PushMarker",
	KindPopMarker:            "PopMarker",
	KindUpdateConstantBuffer: "UpdateConstantBuffer",
}

// String returns the kind name.
func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "Unknown"
}

// Command is the interface implemented by all record types.
// Records are immutable once pushed to a stream.
type Command interface {
	// Kind returns the record kind.
	Kind() Kind
	// Size returns the number of arena bytes the record occupies.
	Size() int
}

// HeaderSize is the arena footprint of a record header.
const HeaderSize = 8

// Payload field sizes used by Size.
const (
	handleSize = 8
	u32Size    = 4
	u64Size    = 8
	colorSize  = 4 * 8
)

// --------------------------------------------------------------------------
// Framing records
// --------------------------------------------------------------------------

// Begin opens a command list stream.
type Begin struct{}

// End closes a command list stream.
type End struct{}

// SubBegin opens a bundle.
type SubBegin struct{}

// SubEnd closes a bundle.
type SubEnd struct{}

func (Begin) Kind() Kind    { return KindBegin }
func (End) Kind() Kind      { return KindEnd }
func (SubBegin) Kind() Kind { return KindSubBegin }
func (SubEnd) Kind() Kind   { return KindSubEnd }

func (Begin) Size() int    { return HeaderSize }
func (End) Size() int      { return HeaderSize }
func (SubBegin) Size() int { return HeaderSize }
func (SubEnd) Size() int   { return HeaderSize }

// --------------------------------------------------------------------------
// Render target and pass records
// --------------------------------------------------------------------------

// ClearRenderTarget clears a color target.
type ClearRenderTarget struct {
	Target a3d.Texture
	Color  gputypes.Color
}

func (ClearRenderTarget) Kind() Kind { return KindClearRenderTarget }
func (ClearRenderTarget) Size() int  { return HeaderSize + handleSize + colorSize }

// ClearDepthStencil clears depth, stencil or both.
type ClearDepthStencil struct {
	Target  a3d.Texture
	Flags   a3d.ClearFlags
	Depth   float32
	Stencil uint32
}

func (ClearDepthStencil) Kind() Kind { return KindClearDepthStencil }
func (ClearDepthStencil) Size() int  { return HeaderSize + handleSize + 3*u32Size }

// BeginFrameBuffer opens a render pass.
type BeginFrameBuffer struct {
	FrameBuffer a3d.FrameBuffer
}

func (BeginFrameBuffer) Kind() Kind { return KindBeginFrameBuffer }
func (c BeginFrameBuffer) Size() int {
	return HeaderSize + (len(c.FrameBuffer.ColorTargets)+1)*handleSize + u32Size
}

// EndFrameBuffer closes the render pass.
type EndFrameBuffer struct{}

func (EndFrameBuffer) Kind() Kind { return KindEndFrameBuffer }
func (EndFrameBuffer) Size() int  { return HeaderSize }

// --------------------------------------------------------------------------
// State records
// --------------------------------------------------------------------------

// SetViewports sets the viewports.
type SetViewports struct {
	Viewports []a3d.Viewport
}

func (SetViewports) Kind() Kind  { return KindSetViewports }
func (c SetViewports) Size() int { return HeaderSize + u32Size + len(c.Viewports)*6*u32Size }

// SetScissors sets the scissor rectangles.
type SetScissors struct {
	Rects []a3d.Rect
}

func (SetScissors) Kind() Kind  { return KindSetScissors }
func (c SetScissors) Size() int { return HeaderSize + u32Size + len(c.Rects)*4*u32Size }

// SetPipelineState binds a pipeline.
type SetPipelineState struct {
	Pipeline a3d.PipelineState
}

func (SetPipelineState) Kind() Kind { return KindSetPipelineState }
func (SetPipelineState) Size() int  { return HeaderSize + handleSize }

// SetDescriptorSet binds a descriptor set.
type SetDescriptorSet struct {
	Set a3d.DescriptorSet
}

func (SetDescriptorSet) Kind() Kind { return KindSetDescriptorSet }
func (SetDescriptorSet) Size() int  { return HeaderSize + handleSize }

// SetVertexBuffers binds vertex buffers starting at StartSlot.
// Offsets has the same length as Buffers.
type SetVertexBuffers struct {
	StartSlot uint32
	Buffers   []a3d.Buffer
	Offsets   []uint64
}

func (SetVertexBuffers) Kind() Kind { return KindSetVertexBuffers }
func (c SetVertexBuffers) Size() int {
	return HeaderSize + 2*u32Size + len(c.Buffers)*(handleSize+u64Size)
}

// SetIndexBuffer binds the index buffer.
type SetIndexBuffer struct {
	Buffer a3d.Buffer
	Format gputypes.IndexFormat
	Offset uint64
}

func (SetIndexBuffer) Kind() Kind { return KindSetIndexBuffer }
func (SetIndexBuffer) Size() int  { return HeaderSize + handleSize + u32Size + u64Size }

// SetBlendConstant sets the blend constant color.
type SetBlendConstant struct {
	Color gputypes.Color
}

func (SetBlendConstant) Kind() Kind { return KindSetBlendConstant }
func (SetBlendConstant) Size() int  { return HeaderSize + colorSize }

// SetStencilReference sets the stencil reference value.
type SetStencilReference struct {
	Ref uint32
}

func (SetStencilReference) Kind() Kind { return KindSetStencilReference }
func (SetStencilReference) Size() int  { return HeaderSize + u32Size }

// --------------------------------------------------------------------------
// Barrier records
// --------------------------------------------------------------------------

// TextureBarrier transitions a texture. Prev and Next always differ.
type TextureBarrier struct {
	Texture    a3d.Texture
	Prev, Next a3d.ResourceState
}

func (TextureBarrier) Kind() Kind { return KindTextureBarrier }
func (TextureBarrier) Size() int  { return HeaderSize + handleSize + 2*u32Size }

// BufferBarrier transitions a buffer. Prev and Next always differ.
type BufferBarrier struct {
	Buffer     a3d.Buffer
	Prev, Next a3d.ResourceState
}

func (BufferBarrier) Kind() Kind { return KindBufferBarrier }
func (BufferBarrier) Size() int  { return HeaderSize + handleSize + 2*u32Size }

// --------------------------------------------------------------------------
// Work records
// --------------------------------------------------------------------------

// DrawInstanced draws non-indexed primitives.
type DrawInstanced struct {
	VertexCount   uint32
	InstanceCount uint32
	FirstVertex   uint32
	FirstInstance uint32
}

func (DrawInstanced) Kind() Kind { return KindDrawInstanced }
func (DrawInstanced) Size() int  { return HeaderSize + 4*u32Size }

// DrawIndexedInstanced draws indexed primitives.
type DrawIndexedInstanced struct {
	IndexCount    uint32
	InstanceCount uint32
	FirstIndex    uint32
	BaseVertex    int32
	FirstInstance uint32
}

func (DrawIndexedInstanced) Kind() Kind { return KindDrawIndexedInstanced }
func (DrawIndexedInstanced) Size() int  { return HeaderSize + 5*u32Size }

// DispatchCompute dispatches compute workgroups.
type DispatchCompute struct {
	X, Y, Z uint32
}

func (DispatchCompute) Kind() Kind { return KindDispatchCompute }
func (DispatchCompute) Size() int  { return HeaderSize + 3*u32Size }

// DispatchMesh dispatches mesh shader workgroups.
type DispatchMesh struct {
	X, Y, Z uint32
}

func (DispatchMesh) Kind() Kind { return KindDispatchMesh }
func (DispatchMesh) Size() int  { return HeaderSize + 3*u32Size }

// ExecuteIndirect issues Count indirect commands.
type ExecuteIndirect struct {
	Command a3d.IndirectCommand
	Count   uint32
	Args    a3d.Buffer
	Offset  uint64
}

func (ExecuteIndirect) Kind() Kind { return KindExecuteIndirect }
func (ExecuteIndirect) Size() int  { return HeaderSize + 2*u32Size + handleSize + u64Size }

// --------------------------------------------------------------------------
// Query records
// --------------------------------------------------------------------------

// BeginQuery starts query Index of Pool.
type BeginQuery struct {
	Pool  a3d.QueryPool
	Index uint32
}

func (BeginQuery) Kind() Kind { return KindBeginQuery }
func (BeginQuery) Size() int  { return HeaderSize + handleSize + u32Size }

// EndQuery ends query Index of Pool.
type EndQuery struct {
	Pool  a3d.QueryPool
	Index uint32
}

func (EndQuery) Kind() Kind { return KindEndQuery }
func (EndQuery) Size() int  { return HeaderSize + handleSize + u32Size }

// ResolveQuery writes query results to Dst.
type ResolveQuery struct {
	Pool      a3d.QueryPool
	First     uint32
	Count     uint32
	Dst       a3d.Buffer
	DstOffset uint64
}

func (ResolveQuery) Kind() Kind { return KindResolveQuery }
func (ResolveQuery) Size() int  { return HeaderSize + 2*handleSize + 2*u32Size + u64Size }

// ResetQuery resets a range of queries.
type ResetQuery struct {
	Pool  a3d.QueryPool
	First uint32
	Count uint32
}

func (ResetQuery) Kind() Kind { return KindResetQuery }
func (ResetQuery) Size() int  { return HeaderSize + handleSize + 2*u32Size }

// --------------------------------------------------------------------------
// Copy records
// --------------------------------------------------------------------------

// CopyTexture copies a whole texture.
type CopyTexture struct {
	Dst, Src a3d.Texture
}

func (CopyTexture) Kind() Kind { return KindCopyTexture }
func (CopyTexture) Size() int  { return HeaderSize + 2*handleSize }

// CopyTextureRegion copies a box between textures.
type CopyTextureRegion struct {
	Dst       a3d.Texture
	DstSub    a3d.Subresource
	DstOffset a3d.Offset3D
	Src       a3d.Texture
	SrcSub    a3d.Subresource
	SrcOffset a3d.Offset3D
	Extent    a3d.Extent3D
}

func (CopyTextureRegion) Kind() Kind { return KindCopyTextureRegion }
func (CopyTextureRegion) Size() int  { return HeaderSize + 2*handleSize + 13*u32Size }

// CopyBuffer copies a whole buffer.
type CopyBuffer struct {
	Dst, Src a3d.Buffer
}

func (CopyBuffer) Kind() Kind { return KindCopyBuffer }
func (CopyBuffer) Size() int  { return HeaderSize + 2*handleSize }

// CopyBufferRegion copies a byte range between buffers.
type CopyBufferRegion struct {
	Dst       a3d.Buffer
	DstOffset uint64
	Src       a3d.Buffer
	SrcOffset uint64
	Length    uint64
}

func (CopyBufferRegion) Kind() Kind { return KindCopyBufferRegion }
func (CopyBufferRegion) Size() int  { return HeaderSize + 2*handleSize + 3*u64Size }

// CopyBufferToTexture uploads texels from a buffer.
type CopyBufferToTexture struct {
	Dst       a3d.Texture
	DstSub    a3d.Subresource
	DstOffset a3d.Offset3D
	Src       a3d.Buffer
	Layout    a3d.BufferLayout
	Extent    a3d.Extent3D
}

func (CopyBufferToTexture) Kind() Kind { return KindCopyBufferToTexture }
func (CopyBufferToTexture) Size() int {
	return HeaderSize + 2*handleSize + 8*u32Size + u64Size + 2*u32Size
}

// CopyTextureToBuffer reads texels back into a buffer.
type CopyTextureToBuffer struct {
	Dst       a3d.Buffer
	Layout    a3d.BufferLayout
	Src       a3d.Texture
	SrcSub    a3d.Subresource
	SrcOffset a3d.Offset3D
	Extent    a3d.Extent3D
}

func (CopyTextureToBuffer) Kind() Kind { return KindCopyTextureToBuffer }
func (CopyTextureToBuffer) Size() int {
	return HeaderSize + 2*handleSize + 8*u32Size + u64Size + 2*u32Size
}

// ResolveSubresource resolves a multisampled subresource.
type ResolveSubresource struct {
	Dst    a3d.Texture
	DstSub a3d.Subresource
	Src    a3d.Texture
	SrcSub a3d.Subresource
}

func (ResolveSubresource) Kind() Kind { return KindResolveSubresource }
func (ResolveSubresource) Size() int  { return HeaderSize + 2*handleSize + 4*u32Size }

// --------------------------------------------------------------------------
// Debug records
// --------------------------------------------------------------------------

// PushMarker opens a debug scope. Tag is at most a3d.MaxMarkerLength bytes.
type PushMarker struct {
	Tag string
}

func (PushMarker) Kind() Kind { return KindPushMarker }
func (PushMarker) Size() int  { return HeaderSize + a3d.MaxMarkerLength }

// PopMarker closes a debug scope.
type PopMarker struct{}

func (PopMarker) Kind() Kind { return KindPopMarker }
func (PopMarker) Size() int  { return HeaderSize }

// --------------------------------------------------------------------------
// Inline data records
// --------------------------------------------------------------------------

// UpdateConstantBuffer writes Data to Buffer at Offset. Data is owned by
// the record.
type UpdateConstantBuffer struct {
	Buffer a3d.Buffer
	Offset uint64
	Data   []byte
}

func (UpdateConstantBuffer) Kind() Kind { return KindUpdateConstantBuffer }

// Size includes the inline payload rounded up to 8 bytes.
func (c UpdateConstantBuffer) Size() int {
	return HeaderSize + handleSize + 2*u64Size + align8(len(c.Data))
}

func align8(n int) int { return (n + 7) &^ 7 }
