// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package stream

import (
	"log/slog"
	"slices"

	"github.com/gogpu/a3d"
	"github.com/gogpu/gputypes"
)

// Recorder validates recording calls and appends the accepted ones to a
// stream. It implements a3d.Commands.
type Recorder struct {
	s         *Stream
	logger    *slog.Logger
	recording bool
	bundle    bool
	err       error
	passDepth int
	markers   int
}

var _ a3d.Commands = (*Recorder)(nil)

// NewRecorder creates a recorder that writes to s.
func NewRecorder(s *Stream, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = a3d.Logger()
	}
	s.SetLogger(logger)
	return &Recorder{s: s, logger: logger}
}

// Stream returns the stream the recorder writes to.
func (r *Recorder) Stream() *Stream { return r.s }

// Recording reports whether the recorder is between Begin and End.
func (r *Recorder) Recording() bool { return r.recording }

// Begin resets the stream and writes the opening framing record: SubBegin
// for bundles, Begin otherwise.
func (r *Recorder) Begin(bundle bool) {
	r.s.Reset()
	r.recording = true
	r.bundle = bundle
	r.err = nil
	r.passDepth = 0
	r.markers = 0
	if bundle {
		r.s.push(SubBegin{})
	} else {
		r.s.push(Begin{})
	}
}

// End checks balance, writes the closing framing record and closes the
// stream. On error the stream stays open and the recorder stops
// recording.
func (r *Recorder) End() error {
	if !r.recording {
		return a3d.ErrNotRecording
	}
	r.recording = false
	switch {
	case r.err != nil:
		return r.err
	case r.passDepth != 0:
		return a3d.ErrUnbalancedFrameBuffer
	case r.markers != 0:
		return a3d.ErrUnbalancedMarker
	}
	if r.bundle {
		r.s.push(SubEnd{})
	} else {
		r.s.push(End{})
	}
	r.s.Close()
	return nil
}

// Append splices a closed bundle stream. A bundle that cannot be spliced
// fails the recording.
func (r *Recorder) Append(bundle *Stream) error {
	if !r.recording {
		return a3d.ErrNotRecording
	}
	if err := r.s.Append(bundle); err != nil {
		r.fail(err)
		return err
	}
	return nil
}

// Fail marks the recording failed. End returns the first error.
func (r *Recorder) Fail(err error) {
	if r.recording {
		r.fail(err)
	}
}

// accept reports whether a call should be recorded.
func (r *Recorder) accept(kind Kind, ok bool) bool {
	if !r.recording {
		r.logger.Debug("stream: call outside Begin/End ignored", "kind", kind)
		return false
	}
	if !ok {
		r.logger.Debug("stream: invalid arguments ignored", "kind", kind)
		return false
	}
	return true
}

func (r *Recorder) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Recorder) ClearRenderTarget(target a3d.Texture, color gputypes.Color) {
	if r.accept(KindClearRenderTarget, target != nil) {
		r.s.push(ClearRenderTarget{Target: target, Color: color})
	}
}

func (r *Recorder) ClearDepthStencil(target a3d.Texture, flags a3d.ClearFlags, depth float32, stencil uint32) {
	if r.accept(KindClearDepthStencil, target != nil && flags&(a3d.ClearDepth|a3d.ClearStencil) != 0) {
		r.s.push(ClearDepthStencil{Target: target, Flags: flags, Depth: depth, Stencil: stencil})
	}
}

// BeginFrameBuffer ignores a frame buffer without targets, as the encoder
// does, so a matching EndFrameBuffer fails the recording.
func (r *Recorder) BeginFrameBuffer(fb a3d.FrameBuffer) {
	if !r.accept(KindBeginFrameBuffer, !fb.Empty() && len(fb.ColorTargets) <= a3d.MaxColorTargets) {
		return
	}
	if r.passDepth != 0 {
		r.fail(a3d.ErrUnbalancedFrameBuffer)
		return
	}
	fb.ColorTargets = slices.Clone(fb.ColorTargets)
	r.passDepth++
	r.s.push(BeginFrameBuffer{FrameBuffer: fb})
}

// EndFrameBuffer without an open frame buffer fails the recording.
func (r *Recorder) EndFrameBuffer() {
	if !r.accept(KindEndFrameBuffer, true) {
		return
	}
	if r.passDepth == 0 {
		r.fail(a3d.ErrUnbalancedFrameBuffer)
		return
	}
	r.passDepth--
	r.s.push(EndFrameBuffer{})
}

func (r *Recorder) SetViewports(viewports []a3d.Viewport) {
	if r.accept(KindSetViewports, len(viewports) > 0) {
		r.s.push(SetViewports{Viewports: slices.Clone(viewports)})
	}
}

func (r *Recorder) SetScissors(rects []a3d.Rect) {
	if r.accept(KindSetScissors, len(rects) > 0) {
		r.s.push(SetScissors{Rects: slices.Clone(rects)})
	}
}

func (r *Recorder) SetPipelineState(pipeline a3d.PipelineState) {
	if r.accept(KindSetPipelineState, pipeline != nil) {
		r.s.push(SetPipelineState{Pipeline: pipeline})
	}
}

func (r *Recorder) SetDescriptorSet(set a3d.DescriptorSet) {
	if r.accept(KindSetDescriptorSet, set != nil) {
		r.s.push(SetDescriptorSet{Set: set})
	}
}

// SetVertexBuffers pads missing offsets with zero.
func (r *Recorder) SetVertexBuffers(startSlot uint32, buffers []a3d.Buffer, offsets []uint64) {
	if !r.accept(KindSetVertexBuffers, len(buffers) > 0) {
		return
	}
	offs := make([]uint64, len(buffers))
	copy(offs, offsets)
	r.s.push(SetVertexBuffers{StartSlot: startSlot, Buffers: slices.Clone(buffers), Offsets: offs})
}

func (r *Recorder) SetIndexBuffer(buffer a3d.Buffer, format gputypes.IndexFormat, offset uint64) {
	if r.accept(KindSetIndexBuffer, buffer != nil) {
		r.s.push(SetIndexBuffer{Buffer: buffer, Format: format, Offset: offset})
	}
}

func (r *Recorder) SetBlendConstant(color gputypes.Color) {
	if r.accept(KindSetBlendConstant, true) {
		r.s.push(SetBlendConstant{Color: color})
	}
}

func (r *Recorder) SetStencilReference(ref uint32) {
	if r.accept(KindSetStencilReference, true) {
		r.s.push(SetStencilReference{Ref: ref})
	}
}

// TextureBarrier records nothing when prev equals next.
func (r *Recorder) TextureBarrier(texture a3d.Texture, prev, next a3d.ResourceState) {
	if !r.accept(KindTextureBarrier, texture != nil) {
		return
	}
	if !a3d.NeedsBarrier(prev, next) {
		return
	}
	texture.SetState(next)
	r.s.push(TextureBarrier{Texture: texture, Prev: prev, Next: next})
}

// BufferBarrier records nothing when prev equals next.
func (r *Recorder) BufferBarrier(buffer a3d.Buffer, prev, next a3d.ResourceState) {
	if !r.accept(KindBufferBarrier, buffer != nil) {
		return
	}
	if !a3d.NeedsBarrier(prev, next) {
		return
	}
	buffer.SetState(next)
	r.s.push(BufferBarrier{Buffer: buffer, Prev: prev, Next: next})
}

func (r *Recorder) DrawInstanced(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if r.accept(KindDrawInstanced, vertexCount > 0 && instanceCount > 0) {
		r.s.push(DrawInstanced{
			VertexCount:   vertexCount,
			InstanceCount: instanceCount,
			FirstVertex:   firstVertex,
			FirstInstance: firstInstance,
		})
	}
}

func (r *Recorder) DrawIndexedInstanced(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	if r.accept(KindDrawIndexedInstanced, indexCount > 0 && instanceCount > 0) {
		r.s.push(DrawIndexedInstanced{
			IndexCount:    indexCount,
			InstanceCount: instanceCount,
			FirstIndex:    firstIndex,
			BaseVertex:    baseVertex,
			FirstInstance: firstInstance,
		})
	}
}

func (r *Recorder) DispatchCompute(x, y, z uint32) {
	if r.accept(KindDispatchCompute, x > 0 && y > 0 && z > 0) {
		r.s.push(DispatchCompute{X: x, Y: y, Z: z})
	}
}

func (r *Recorder) DispatchMesh(x, y, z uint32) {
	if r.accept(KindDispatchMesh, x > 0 && y > 0 && z > 0) {
		r.s.push(DispatchMesh{X: x, Y: y, Z: z})
	}
}

func (r *Recorder) ExecuteIndirect(cmd a3d.IndirectCommand, count uint32, args a3d.Buffer, offset uint64) {
	if r.accept(KindExecuteIndirect, args != nil && count > 0 && cmd.Stride() > 0) {
		r.s.push(ExecuteIndirect{Command: cmd, Count: count, Args: args, Offset: offset})
	}
}

func (r *Recorder) BeginQuery(pool a3d.QueryPool, index uint32) {
	if r.accept(KindBeginQuery, pool != nil && index < pool.Count()) {
		r.s.push(BeginQuery{Pool: pool, Index: index})
	}
}

func (r *Recorder) EndQuery(pool a3d.QueryPool, index uint32) {
	if r.accept(KindEndQuery, pool != nil && index < pool.Count()) {
		r.s.push(EndQuery{Pool: pool, Index: index})
	}
}

func (r *Recorder) ResolveQuery(pool a3d.QueryPool, first, count uint32, dst a3d.Buffer, dstOffset uint64) {
	ok := pool != nil && dst != nil && count > 0 && uint64(first)+uint64(count) <= uint64(pool.Count())
	if r.accept(KindResolveQuery, ok) {
		r.s.push(ResolveQuery{Pool: pool, First: first, Count: count, Dst: dst, DstOffset: dstOffset})
	}
}

func (r *Recorder) ResetQuery(pool a3d.QueryPool, first, count uint32) {
	ok := pool != nil && count > 0 && uint64(first)+uint64(count) <= uint64(pool.Count())
	if r.accept(KindResetQuery, ok) {
		r.s.push(ResetQuery{Pool: pool, First: first, Count: count})
	}
}

func (r *Recorder) CopyTexture(dst, src a3d.Texture) {
	if r.accept(KindCopyTexture, dst != nil && src != nil) {
		r.s.push(CopyTexture{Dst: dst, Src: src})
	}
}

func (r *Recorder) CopyTextureRegion(dst a3d.Texture, dstSub a3d.Subresource, dstOffset a3d.Offset3D, src a3d.Texture, srcSub a3d.Subresource, srcOffset a3d.Offset3D, extent a3d.Extent3D) {
	if r.accept(KindCopyTextureRegion, dst != nil && src != nil && !extent.Empty()) {
		r.s.push(CopyTextureRegion{
			Dst: dst, DstSub: dstSub, DstOffset: dstOffset,
			Src: src, SrcSub: srcSub, SrcOffset: srcOffset,
			Extent: extent,
		})
	}
}

func (r *Recorder) CopyBuffer(dst, src a3d.Buffer) {
	if r.accept(KindCopyBuffer, dst != nil && src != nil) {
		r.s.push(CopyBuffer{Dst: dst, Src: src})
	}
}

func (r *Recorder) CopyBufferRegion(dst a3d.Buffer, dstOffset uint64, src a3d.Buffer, srcOffset, size uint64) {
	if r.accept(KindCopyBufferRegion, dst != nil && src != nil && size > 0) {
		r.s.push(CopyBufferRegion{Dst: dst, DstOffset: dstOffset, Src: src, SrcOffset: srcOffset, Length: size})
	}
}

func (r *Recorder) CopyBufferToTexture(dst a3d.Texture, dstSub a3d.Subresource, dstOffset a3d.Offset3D, src a3d.Buffer, layout a3d.BufferLayout, extent a3d.Extent3D) {
	if r.accept(KindCopyBufferToTexture, dst != nil && src != nil && !extent.Empty()) {
		r.s.push(CopyBufferToTexture{
			Dst: dst, DstSub: dstSub, DstOffset: dstOffset,
			Src: src, Layout: layout, Extent: extent,
		})
	}
}

func (r *Recorder) CopyTextureToBuffer(dst a3d.Buffer, layout a3d.BufferLayout, src a3d.Texture, srcSub a3d.Subresource, srcOffset a3d.Offset3D, extent a3d.Extent3D) {
	if r.accept(KindCopyTextureToBuffer, dst != nil && src != nil && !extent.Empty()) {
		r.s.push(CopyTextureToBuffer{
			Dst: dst, Layout: layout,
			Src: src, SrcSub: srcSub, SrcOffset: srcOffset, Extent: extent,
		})
	}
}

func (r *Recorder) ResolveSubresource(dst a3d.Texture, dstSub a3d.Subresource, src a3d.Texture, srcSub a3d.Subresource) {
	if r.accept(KindResolveSubresource, dst != nil && src != nil) {
		r.s.push(ResolveSubresource{Dst: dst, DstSub: dstSub, Src: src, SrcSub: srcSub})
	}
}

func (r *Recorder) PushMarker(tag string) {
	if r.accept(KindPushMarker, true) {
		r.markers++
		r.s.push(PushMarker{Tag: a3d.TruncateMarker(tag)})
	}
}

// PopMarker without an open marker fails the recording.
func (r *Recorder) PopMarker() {
	if !r.accept(KindPopMarker, true) {
		return
	}
	if r.markers == 0 {
		r.fail(a3d.ErrUnbalancedMarker)
		return
	}
	r.markers--
	r.s.push(PopMarker{})
}

func (r *Recorder) UpdateConstantBuffer(buffer a3d.Buffer, offset, size uint64, data []byte) bool {
	if !r.accept(KindUpdateConstantBuffer, buffer != nil && size > 0 && data != nil && uint64(len(data)) >= size) {
		return false
	}
	r.s.push(UpdateConstantBuffer{Buffer: buffer, Offset: offset, Data: slices.Clone(data[:size])})
	return true
}
