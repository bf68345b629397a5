// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package a3d

import "github.com/gogpu/gputypes"

// Commands is the recording surface shared by command lists and immediate
// contexts.
//
// Setters and copies ignore nil resources and empty slices. Barriers with
// equal previous and next states are dropped. Recording a barrier sets the
// resource's declared state to next.
type Commands interface {
	// ClearRenderTarget clears a color target outside a frame buffer.
	ClearRenderTarget(target Texture, color gputypes.Color)
	// ClearDepthStencil clears the aspects selected by flags.
	ClearDepthStencil(target Texture, flags ClearFlags, depth float32, stencil uint32)

	// BeginFrameBuffer opens a render pass over fb. Every BeginFrameBuffer
	// must be matched by EndFrameBuffer.
	BeginFrameBuffer(fb FrameBuffer)
	EndFrameBuffer()

	SetViewports(viewports []Viewport)
	SetScissors(rects []Rect)
	SetPipelineState(pipeline PipelineState)
	SetDescriptorSet(set DescriptorSet)
	SetVertexBuffers(startSlot uint32, buffers []Buffer, offsets []uint64)
	SetIndexBuffer(buffer Buffer, format gputypes.IndexFormat, offset uint64)
	SetBlendConstant(color gputypes.Color)
	SetStencilReference(ref uint32)

	TextureBarrier(texture Texture, prev, next ResourceState)
	BufferBarrier(buffer Buffer, prev, next ResourceState)

	DrawInstanced(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexedInstanced(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
	DispatchCompute(x, y, z uint32)
	DispatchMesh(x, y, z uint32)
	// ExecuteIndirect issues count commands whose arguments are read from
	// args starting at offset, one record of cmd.Stride() bytes each.
	ExecuteIndirect(cmd IndirectCommand, count uint32, args Buffer, offset uint64)

	BeginQuery(pool QueryPool, index uint32)
	EndQuery(pool QueryPool, index uint32)
	ResolveQuery(pool QueryPool, first, count uint32, dst Buffer, dstOffset uint64)
	ResetQuery(pool QueryPool, first, count uint32)

	CopyTexture(dst, src Texture)
	CopyTextureRegion(dst Texture, dstSub Subresource, dstOffset Offset3D, src Texture, srcSub Subresource, srcOffset Offset3D, extent Extent3D)
	CopyBuffer(dst, src Buffer)
	CopyBufferRegion(dst Buffer, dstOffset uint64, src Buffer, srcOffset, size uint64)
	CopyBufferToTexture(dst Texture, dstSub Subresource, dstOffset Offset3D, src Buffer, layout BufferLayout, extent Extent3D)
	CopyTextureToBuffer(dst Buffer, layout BufferLayout, src Texture, srcSub Subresource, srcOffset Offset3D, extent Extent3D)
	ResolveSubresource(dst Texture, dstSub Subresource, src Texture, srcSub Subresource)

	// PushMarker opens a debug scope. Tags longer than MaxMarkerLength
	// bytes are truncated.
	PushMarker(tag string)
	PopMarker()

	// UpdateConstantBuffer writes size bytes of data to buffer at offset.
	// It returns false and records nothing if buffer is nil, size is zero,
	// or data is nil or shorter than size.
	UpdateConstantBuffer(buffer Buffer, offset, size uint64, data []byte) bool
}

// TruncateMarker shortens tag to at most MaxMarkerLength bytes without
// splitting a UTF-8 sequence.
func TruncateMarker(tag string) string {
	if len(tag) <= MaxMarkerLength {
		return tag
	}
	n := MaxMarkerLength
	// Back up over continuation bytes (10xxxxxx).
	for n > 0 && tag[n]&0xC0 == 0x80 {
		n--
	}
	return tag[:n]
}
