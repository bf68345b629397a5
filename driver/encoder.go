// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"unsafe"

	"github.com/gogpu/a3d"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Encoder records a3d commands into a hal command encoder.
//
// a3d state is persistent across frame buffers while hal state is scoped
// to a pass, so the encoder keeps the bound graphics state and reapplies
// it whenever a render pass begins. Work that hal forbids inside a render
// pass (copies, barriers, clears, dispatches) suspends the pass; the next
// draw resumes it with load operations.
//
// An Encoder is used by one goroutine at a time.
type Encoder struct {
	dev    *Device
	enc    hal.CommandEncoder
	logger *slog.Logger
	label  string

	recording bool
	dirty     bool
	err       error
	submitted uint64

	render  hal.RenderPassEncoder
	compute hal.ComputePassEncoder
	inFB    bool
	fb      a3d.FrameBuffer

	state   bindState
	markers []string
	queries map[queryKey]bool

	finished []hal.CommandBuffer
	staging  []hal.Buffer
	views    []hal.TextureView
}

var _ a3d.Commands = (*Encoder)(nil)

type bindState struct {
	pipeline *Pipeline
	sets     map[uint32]*DescriptorSet
	viewport *a3d.Viewport
	scissor  *a3d.Rect
	vertex   map[uint32]vertexBinding
	index    *indexBinding
	blend    *gputypes.Color
	stencil  *uint32
}

type vertexBinding struct {
	buf    hal.Buffer
	offset uint64
}

type indexBinding struct {
	buf    hal.Buffer
	format gputypes.IndexFormat
	offset uint64
}

type queryKey struct {
	pool  *QueryPool
	index uint32
}

// NewEncoder creates an encoder on the device.
func NewEncoder(dev *Device, label string) (*Encoder, error) {
	enc, err := dev.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("driver: create command encoder %q: %w", label, err)
	}
	return &Encoder{
		dev:     dev,
		enc:     enc,
		logger:  dev.logger,
		label:   label,
		queries: make(map[queryKey]bool),
	}, nil
}

// Begin recycles the command buffers and staging memory of previous
// recordings and starts a new one. The caller guarantees that work
// submitted from this encoder has completed.
func (e *Encoder) Begin() error {
	if e.recording {
		e.enc.DiscardEncoding()
		e.recording = false
	}
	e.recycle()
	if err := e.enc.BeginEncoding(e.label); err != nil {
		return fmt.Errorf("driver: begin encoding %q: %w", e.label, err)
	}
	e.recording = true
	e.dirty = false
	e.err = nil
	e.inFB = false
	e.fb = a3d.FrameBuffer{}
	e.state = bindState{}
	e.markers = e.markers[:0]
	clear(e.queries)
	return nil
}

// Finish ends open passes and returns the recorded command buffer. A
// frame buffer or marker left open fails the recording.
func (e *Encoder) Finish() (hal.CommandBuffer, error) {
	if !e.recording {
		return nil, a3d.ErrNotRecording
	}
	e.endPasses()
	e.recording = false
	switch {
	case e.err != nil:
	case e.inFB:
		e.err = a3d.ErrUnbalancedFrameBuffer
	case len(e.markers) > 0:
		e.err = a3d.ErrUnbalancedMarker
	}
	if e.err != nil {
		e.enc.DiscardEncoding()
		return nil, e.err
	}
	cmd, err := e.enc.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("driver: end encoding %q: %w", e.label, err)
	}
	e.finished = append(e.finished, cmd)
	return cmd, nil
}

// Discard abandons the current recording.
func (e *Encoder) Discard() {
	if !e.recording {
		return
	}
	e.render, e.compute = nil, nil
	e.enc.DiscardEncoding()
	e.recording = false
}

// Recording reports whether Begin was called without Finish.
func (e *Encoder) Recording() bool { return e.recording }

// Dirty reports whether anything was encoded since Begin.
func (e *Encoder) Dirty() bool { return e.dirty }

// Err returns the first native error met while recording.
func (e *Encoder) Err() error { return e.err }

// Submitted records the queue submission index of the last finished
// command buffer.
func (e *Encoder) Submitted(index uint64) { e.submitted = index }

// LastSubmitted returns the index passed to Submitted.
func (e *Encoder) LastSubmitted() uint64 { return e.submitted }

// Destroy releases the encoder and everything it still holds.
func (e *Encoder) Destroy() {
	e.Discard()
	e.recycle()
	e.enc.Destroy()
}

func (e *Encoder) recycle() {
	if len(e.finished) > 0 {
		e.enc.ResetAll(e.finished)
		e.finished = e.finished[:0]
	}
	for _, b := range e.staging {
		e.dev.device.DestroyBuffer(b)
	}
	e.staging = e.staging[:0]
	for _, v := range e.views {
		e.dev.device.DestroyTextureView(v)
	}
	e.views = e.views[:0]
}

// ClearState ends open passes and unbinds all graphics and compute state,
// so that the next list replayed into the encoder starts clean.
func (e *Encoder) ClearState() {
	e.endPasses()
	e.inFB = false
	e.fb = a3d.FrameBuffer{}
	e.state = bindState{}
	e.markers = e.markers[:0]
}

// Fail marks the recording failed. Finish returns the first error.
func (e *Encoder) Fail(err error) { e.fail(err) }

func (e *Encoder) fail(err error) {
	if e.err == nil {
		e.err = err
		e.logger.Warn("driver: encoding failed", "label", e.label, "err", err)
	}
}

func (e *Encoder) ignore(op, reason string) {
	e.logger.Debug("driver: command ignored", "op", op, "reason", reason)
}

func (e *Encoder) ready(op string) bool {
	if !e.recording {
		e.ignore(op, "not recording")
		return false
	}
	e.dirty = true
	return true
}

func (e *Encoder) passLabel() string {
	if n := len(e.markers); n > 0 {
		return e.markers[n-1]
	}
	return e.label
}

// endPasses ends the open hal pass. An open frame buffer stays open and is
// resumed by the next draw.
func (e *Encoder) endPasses() {
	if e.render != nil {
		e.render.End()
		e.render = nil
	}
	if e.compute != nil {
		e.compute.End()
		e.compute = nil
	}
}

// renderPass returns the render pass for the open frame buffer, resuming
// it with load operations after a suspension.
func (e *Encoder) renderPass() hal.RenderPassEncoder {
	if e.render != nil {
		return e.render
	}
	if !e.inFB {
		return nil
	}
	if e.compute != nil {
		e.compute.End()
		e.compute = nil
	}
	desc, err := e.frameBufferPass(e.fb)
	if err != nil {
		e.fail(err)
		return nil
	}
	e.render = e.enc.BeginRenderPass(desc)
	e.applyGraphics()
	return e.render
}

func (e *Encoder) computePass() hal.ComputePassEncoder {
	if e.compute != nil {
		return e.compute
	}
	if e.render != nil {
		e.render.End()
		e.render = nil
	}
	e.compute = e.enc.BeginComputePass(&hal.ComputePassDescriptor{Label: e.passLabel()})
	e.applyCompute()
	return e.compute
}

func (e *Encoder) frameBufferPass(fb a3d.FrameBuffer) (*hal.RenderPassDescriptor, error) {
	desc := &hal.RenderPassDescriptor{Label: e.passLabel()}
	for _, t := range fb.ColorTargets {
		tex := halTexture(t)
		if tex == nil {
			continue
		}
		view, err := tex.View()
		if err != nil {
			return nil, err
		}
		desc.ColorAttachments = append(desc.ColorAttachments, hal.RenderPassColorAttachment{
			View:    view,
			LoadOp:  gputypes.LoadOpLoad,
			StoreOp: gputypes.StoreOpStore,
		})
	}
	if tex := halTexture(fb.DepthTarget); tex != nil {
		view, err := tex.View()
		if err != nil {
			return nil, err
		}
		desc.DepthStencilAttachment = &hal.RenderPassDepthStencilAttachment{
			View:            view,
			DepthLoadOp:     gputypes.LoadOpLoad,
			DepthStoreOp:    gputypes.StoreOpStore,
			DepthReadOnly:   fb.DepthReadOnly,
			StencilLoadOp:   gputypes.LoadOpLoad,
			StencilStoreOp:  gputypes.StoreOpStore,
			StencilReadOnly: fb.DepthReadOnly,
		}
	}
	return desc, nil
}

func (e *Encoder) applyGraphics() {
	s, p := &e.state, e.render
	if s.pipeline != nil && s.pipeline.render != nil {
		p.SetPipeline(s.pipeline.render)
	}
	for _, idx := range slices.Sorted(maps.Keys(s.sets)) {
		set := s.sets[idx]
		p.SetBindGroup(idx, set.group, set.offsets)
	}
	if v := s.viewport; v != nil {
		p.SetViewport(v.X, v.Y, v.Width, v.Height, v.MinDepth, v.MaxDepth)
	}
	if r := s.scissor; r != nil {
		p.SetScissorRect(r.X, r.Y, r.Width, r.Height)
	}
	for _, slot := range slices.Sorted(maps.Keys(s.vertex)) {
		vb := s.vertex[slot]
		p.SetVertexBuffer(slot, vb.buf, vb.offset)
	}
	if ib := s.index; ib != nil {
		p.SetIndexBuffer(ib.buf, ib.format, ib.offset)
	}
	if s.blend != nil {
		p.SetBlendConstant(s.blend)
	}
	if s.stencil != nil {
		p.SetStencilReference(*s.stencil)
	}
}

func (e *Encoder) applyCompute() {
	s, p := &e.state, e.compute
	if s.pipeline != nil && s.pipeline.compute != nil {
		p.SetPipeline(s.pipeline.compute)
	}
	for _, idx := range slices.Sorted(maps.Keys(s.sets)) {
		set := s.sets[idx]
		p.SetBindGroup(idx, set.group, set.offsets)
	}
}

// ClearRenderTarget clears target with a load-clear pass.
func (e *Encoder) ClearRenderTarget(target a3d.Texture, color gputypes.Color) {
	tex := halTexture(target)
	if tex == nil {
		e.ignore("ClearRenderTarget", "nil target")
		return
	}
	if !e.ready("ClearRenderTarget") {
		return
	}
	view, err := tex.View()
	if err != nil {
		e.fail(err)
		return
	}
	e.endPasses()
	e.enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: e.passLabel(),
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: color,
		}},
	}).End()
}

// ClearDepthStencil clears the aspects named by flags.
func (e *Encoder) ClearDepthStencil(target a3d.Texture, flags a3d.ClearFlags, depth float32, stencil uint32) {
	tex := halTexture(target)
	if tex == nil || flags&(a3d.ClearDepth|a3d.ClearStencil) == 0 {
		e.ignore("ClearDepthStencil", "nil target or no aspect")
		return
	}
	if !e.ready("ClearDepthStencil") {
		return
	}
	view, err := tex.View()
	if err != nil {
		e.fail(err)
		return
	}
	att := &hal.RenderPassDepthStencilAttachment{
		View:              view,
		DepthLoadOp:       gputypes.LoadOpLoad,
		DepthStoreOp:      gputypes.StoreOpStore,
		DepthClearValue:   depth,
		StencilLoadOp:     gputypes.LoadOpLoad,
		StencilStoreOp:    gputypes.StoreOpStore,
		StencilClearValue: stencil,
	}
	if flags&a3d.ClearDepth != 0 {
		att.DepthLoadOp = gputypes.LoadOpClear
	}
	if flags&a3d.ClearStencil != 0 {
		att.StencilLoadOp = gputypes.LoadOpClear
	}
	e.endPasses()
	e.enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label:                  e.passLabel(),
		DepthStencilAttachment: att,
	}).End()
}

// BeginFrameBuffer opens a render pass over fb.
func (e *Encoder) BeginFrameBuffer(fb a3d.FrameBuffer) {
	if fb.Empty() || len(fb.ColorTargets) > a3d.MaxColorTargets {
		e.ignore("BeginFrameBuffer", "no targets or too many color targets")
		return
	}
	if !e.ready("BeginFrameBuffer") {
		return
	}
	if e.inFB {
		e.fail(a3d.ErrUnbalancedFrameBuffer)
		return
	}
	e.endPasses()
	e.inFB = true
	e.fb = a3d.FrameBuffer{
		ColorTargets:  slices.Clone(fb.ColorTargets),
		DepthTarget:   fb.DepthTarget,
		DepthReadOnly: fb.DepthReadOnly,
	}
	e.renderPass()
}

// EndFrameBuffer closes the render pass.
func (e *Encoder) EndFrameBuffer() {
	if !e.ready("EndFrameBuffer") {
		return
	}
	if !e.inFB {
		e.fail(a3d.ErrUnbalancedFrameBuffer)
		return
	}
	if e.render != nil {
		e.render.End()
		e.render = nil
	}
	e.inFB = false
	e.fb = a3d.FrameBuffer{}
}

// SetViewports binds the first viewport. hal passes take one.
func (e *Encoder) SetViewports(viewports []a3d.Viewport) {
	if len(viewports) == 0 {
		e.ignore("SetViewports", "empty")
		return
	}
	if !e.ready("SetViewports") {
		return
	}
	v := viewports[0]
	e.state.viewport = &v
	if e.render != nil {
		e.render.SetViewport(v.X, v.Y, v.Width, v.Height, v.MinDepth, v.MaxDepth)
	}
}

// SetScissors binds the first scissor rectangle.
func (e *Encoder) SetScissors(rects []a3d.Rect) {
	if len(rects) == 0 {
		e.ignore("SetScissors", "empty")
		return
	}
	if !e.ready("SetScissors") {
		return
	}
	r := rects[0]
	e.state.scissor = &r
	if e.render != nil {
		e.render.SetScissorRect(r.X, r.Y, r.Width, r.Height)
	}
}

func (e *Encoder) SetPipelineState(pipeline a3d.PipelineState) {
	p, _ := pipeline.(*Pipeline)
	if p == nil {
		e.ignore("SetPipelineState", "nil or foreign pipeline")
		return
	}
	if !e.ready("SetPipelineState") {
		return
	}
	e.state.pipeline = p
	switch {
	case p.render != nil && e.render != nil:
		e.render.SetPipeline(p.render)
	case p.compute != nil && e.compute != nil:
		e.compute.SetPipeline(p.compute)
	}
}

func (e *Encoder) SetDescriptorSet(set a3d.DescriptorSet) {
	s, _ := set.(*DescriptorSet)
	if s == nil || s.group == nil {
		e.ignore("SetDescriptorSet", "nil or foreign set")
		return
	}
	if !e.ready("SetDescriptorSet") {
		return
	}
	if e.state.sets == nil {
		e.state.sets = make(map[uint32]*DescriptorSet)
	}
	e.state.sets[s.index] = s
	switch {
	case e.render != nil:
		e.render.SetBindGroup(s.index, s.group, s.offsets)
	case e.compute != nil:
		e.compute.SetBindGroup(s.index, s.group, s.offsets)
	}
}

func (e *Encoder) SetVertexBuffers(startSlot uint32, buffers []a3d.Buffer, offsets []uint64) {
	if len(buffers) == 0 {
		e.ignore("SetVertexBuffers", "empty")
		return
	}
	if !e.ready("SetVertexBuffers") {
		return
	}
	if e.state.vertex == nil {
		e.state.vertex = make(map[uint32]vertexBinding)
	}
	for i, b := range buffers {
		buf := halBuffer(b)
		if buf == nil {
			continue
		}
		var off uint64
		if i < len(offsets) {
			off = offsets[i]
		}
		slot := startSlot + uint32(i)
		e.state.vertex[slot] = vertexBinding{buf: buf.buf, offset: off}
		if e.render != nil {
			e.render.SetVertexBuffer(slot, buf.buf, off)
		}
	}
}

func (e *Encoder) SetIndexBuffer(buffer a3d.Buffer, format gputypes.IndexFormat, offset uint64) {
	buf := halBuffer(buffer)
	if buf == nil {
		e.ignore("SetIndexBuffer", "nil buffer")
		return
	}
	if !e.ready("SetIndexBuffer") {
		return
	}
	e.state.index = &indexBinding{buf: buf.buf, format: format, offset: offset}
	if e.render != nil {
		e.render.SetIndexBuffer(buf.buf, format, offset)
	}
}

func (e *Encoder) SetBlendConstant(color gputypes.Color) {
	if !e.ready("SetBlendConstant") {
		return
	}
	e.state.blend = &color
	if e.render != nil {
		e.render.SetBlendConstant(&color)
	}
}

func (e *Encoder) SetStencilReference(ref uint32) {
	if !e.ready("SetStencilReference") {
		return
	}
	e.state.stencil = &ref
	if e.render != nil {
		e.render.SetStencilReference(ref)
	}
}

// TextureBarrier transitions a texture between declared states.
func (e *Encoder) TextureBarrier(texture a3d.Texture, prev, next a3d.ResourceState) {
	tex := halTexture(texture)
	if tex == nil {
		e.ignore("TextureBarrier", "nil texture")
		return
	}
	if !a3d.NeedsBarrier(prev, next) {
		e.ignore("TextureBarrier", "same state")
		return
	}
	if !e.ready("TextureBarrier") {
		return
	}
	e.endPasses()
	d := tex.desc
	e.enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: tex.tex,
		Range: hal.TextureRange{
			Aspect:          gputypes.TextureAspectAll,
			MipLevelCount:   max(d.MipLevels, 1),
			ArrayLayerCount: tex.layers(),
		},
		Usage: tex.transition(prev, next),
	}})
	tex.SetState(next)
}

// BufferBarrier transitions a buffer between declared states.
func (e *Encoder) BufferBarrier(buffer a3d.Buffer, prev, next a3d.ResourceState) {
	buf := halBuffer(buffer)
	if buf == nil {
		e.ignore("BufferBarrier", "nil buffer")
		return
	}
	if !a3d.NeedsBarrier(prev, next) {
		e.ignore("BufferBarrier", "same state")
		return
	}
	if !e.ready("BufferBarrier") {
		return
	}
	e.endPasses()
	e.enc.TransitionBuffers([]hal.BufferBarrier{{
		Buffer: buf.buf,
		Usage:  hal.BufferUsageTransition{OldUsage: BufferUsage(prev), NewUsage: BufferUsage(next)},
	}})
	buf.SetState(next)
}

func (e *Encoder) DrawInstanced(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if vertexCount == 0 || instanceCount == 0 {
		e.ignore("DrawInstanced", "zero count")
		return
	}
	if !e.ready("DrawInstanced") {
		return
	}
	if p := e.renderPass(); p != nil {
		p.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
		return
	}
	e.ignore("DrawInstanced", "no frame buffer")
}

func (e *Encoder) DrawIndexedInstanced(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	if indexCount == 0 || instanceCount == 0 {
		e.ignore("DrawIndexedInstanced", "zero count")
		return
	}
	if !e.ready("DrawIndexedInstanced") {
		return
	}
	if p := e.renderPass(); p != nil {
		p.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
		return
	}
	e.ignore("DrawIndexedInstanced", "no frame buffer")
}

func (e *Encoder) DispatchCompute(x, y, z uint32) {
	if x == 0 || y == 0 || z == 0 {
		e.ignore("DispatchCompute", "zero groups")
		return
	}
	if !e.ready("DispatchCompute") {
		return
	}
	e.computePass().Dispatch(x, y, z)
}

// DispatchMesh is not encodable on hal devices.
func (e *Encoder) DispatchMesh(x, y, z uint32) {
	e.ignore("DispatchMesh", "mesh shaders unsupported")
}

// ExecuteIndirect issues count indirect commands read from args at
// consecutive strides.
func (e *Encoder) ExecuteIndirect(cmd a3d.IndirectCommand, count uint32, args a3d.Buffer, offset uint64) {
	buf := halBuffer(args)
	stride := uint64(cmd.Stride())
	if buf == nil || count == 0 || stride == 0 {
		e.ignore("ExecuteIndirect", "nil args, zero count or bad command")
		return
	}
	if !e.ready("ExecuteIndirect") {
		return
	}
	for i := range uint64(count) {
		off := offset + i*stride
		switch cmd {
		case a3d.IndirectDispatch:
			e.computePass().DispatchIndirect(buf.buf, off)
		case a3d.IndirectDraw, a3d.IndirectDrawIndexed:
			p := e.renderPass()
			if p == nil {
				e.ignore("ExecuteIndirect", "no frame buffer")
				return
			}
			if cmd == a3d.IndirectDraw {
				p.DrawIndirect(buf.buf, off)
			} else {
				p.DrawIndexedIndirect(buf.buf, off)
			}
		}
	}
}

// BeginQuery starts an occlusion query. hal exposes no occlusion scopes,
// so the encoder only tracks balance.
func (e *Encoder) BeginQuery(pool a3d.QueryPool, index uint32) {
	qp, _ := pool.(*QueryPool)
	if qp == nil || index >= qp.Count() || qp.Type() != a3d.QueryOcclusion {
		e.ignore("BeginQuery", "invalid pool, index or type")
		return
	}
	if !e.ready("BeginQuery") {
		return
	}
	e.queries[queryKey{qp, index}] = true
}

// EndQuery ends an occlusion query or writes a timestamp.
func (e *Encoder) EndQuery(pool a3d.QueryPool, index uint32) {
	qp, _ := pool.(*QueryPool)
	if qp == nil || qp.set == nil || index >= qp.Count() {
		e.ignore("EndQuery", "invalid pool or index")
		return
	}
	if !e.ready("EndQuery") {
		return
	}
	if qp.Type() == a3d.QueryTimestamp {
		e.endPasses()
		idx := index
		e.enc.BeginComputePass(&hal.ComputePassDescriptor{
			Label: e.passLabel(),
			TimestampWrites: &hal.ComputePassTimestampWrites{
				QuerySet:                  qp.set,
				BeginningOfPassWriteIndex: &idx,
			},
		}).End()
		return
	}
	key := queryKey{qp, index}
	if !e.queries[key] {
		e.ignore("EndQuery", "query not begun")
		return
	}
	delete(e.queries, key)
}

func (e *Encoder) ResolveQuery(pool a3d.QueryPool, first, count uint32, dst a3d.Buffer, dstOffset uint64) {
	qp, _ := pool.(*QueryPool)
	buf := halBuffer(dst)
	if qp == nil || qp.set == nil || buf == nil || count == 0 || first+count > qp.Count() {
		e.ignore("ResolveQuery", "invalid range")
		return
	}
	if !e.ready("ResolveQuery") {
		return
	}
	e.endPasses()
	e.enc.ResolveQuerySet(qp.set, first, count, buf.buf, dstOffset)
}

// ResetQuery forgets open occlusion queries in the range. hal query sets
// need no explicit reset.
func (e *Encoder) ResetQuery(pool a3d.QueryPool, first, count uint32) {
	qp, _ := pool.(*QueryPool)
	if qp == nil || count == 0 || first+count > qp.Count() {
		e.ignore("ResetQuery", "invalid range")
		return
	}
	if !e.ready("ResetQuery") {
		return
	}
	for i := first; i < first+count; i++ {
		delete(e.queries, queryKey{qp, i})
	}
}

// CopyTexture copies every mip level and layer of src into dst.
func (e *Encoder) CopyTexture(dst, src a3d.Texture) {
	d, s := halTexture(dst), halTexture(src)
	if d == nil || s == nil {
		e.ignore("CopyTexture", "nil texture")
		return
	}
	if !e.ready("CopyTexture") {
		return
	}
	e.endPasses()
	levels := min(max(d.desc.MipLevels, 1), max(s.desc.MipLevels, 1))
	regions := make([]hal.TextureCopy, 0, levels)
	for level := range levels {
		ext := mipExtent(s.desc, level)
		regions = append(regions, hal.TextureCopy{
			SrcBase: hal.ImageCopyTexture{Texture: s.tex, MipLevel: level, Aspect: aspectOf(s.desc.Format)},
			DstBase: hal.ImageCopyTexture{Texture: d.tex, MipLevel: level, Aspect: aspectOf(d.desc.Format)},
			Size:    halExtent(ext),
		})
	}
	e.enc.CopyTextureToTexture(s.tex, d.tex, regions)
}

func (e *Encoder) CopyTextureRegion(dst a3d.Texture, dstSub a3d.Subresource, dstOffset a3d.Offset3D,
	src a3d.Texture, srcSub a3d.Subresource, srcOffset a3d.Offset3D, extent a3d.Extent3D) {
	d, s := halTexture(dst), halTexture(src)
	if d == nil || s == nil || extent.Empty() {
		e.ignore("CopyTextureRegion", "nil texture or empty extent")
		return
	}
	if !e.ready("CopyTextureRegion") {
		return
	}
	e.endPasses()
	e.enc.CopyTextureToTexture(s.tex, d.tex, []hal.TextureCopy{{
		SrcBase: hal.ImageCopyTexture{
			Texture:  s.tex,
			MipLevel: srcSub.MipLevel,
			Origin:   halOrigin(srcOffset, srcSub.ArrayLayer),
			Aspect:   aspectOf(s.desc.Format),
		},
		DstBase: hal.ImageCopyTexture{
			Texture:  d.tex,
			MipLevel: dstSub.MipLevel,
			Origin:   halOrigin(dstOffset, dstSub.ArrayLayer),
			Aspect:   aspectOf(d.desc.Format),
		},
		Size: halExtent(extent),
	}})
}

// CopyBuffer copies the common prefix of src into dst.
func (e *Encoder) CopyBuffer(dst, src a3d.Buffer) {
	d, s := halBuffer(dst), halBuffer(src)
	if d == nil || s == nil {
		e.ignore("CopyBuffer", "nil buffer")
		return
	}
	e.copyBuffer(d, 0, s, 0, min(d.desc.Size, s.desc.Size))
}

func (e *Encoder) CopyBufferRegion(dst a3d.Buffer, dstOffset uint64, src a3d.Buffer, srcOffset, size uint64) {
	d, s := halBuffer(dst), halBuffer(src)
	if d == nil || s == nil {
		e.ignore("CopyBufferRegion", "nil buffer")
		return
	}
	e.copyBuffer(d, dstOffset, s, srcOffset, size)
}

func (e *Encoder) copyBuffer(d *Buffer, dstOffset uint64, s *Buffer, srcOffset, size uint64) {
	if size == 0 {
		e.ignore("CopyBuffer", "zero size")
		return
	}
	if !e.ready("CopyBuffer") {
		return
	}
	e.endPasses()
	e.enc.CopyBufferToBuffer(s.buf, d.buf, []hal.BufferCopy{{SrcOffset: srcOffset, DstOffset: dstOffset, Size: size}})
}

func (e *Encoder) CopyBufferToTexture(dst a3d.Texture, dstSub a3d.Subresource, dstOffset a3d.Offset3D,
	src a3d.Buffer, layout a3d.BufferLayout, extent a3d.Extent3D) {
	d, s := halTexture(dst), halBuffer(src)
	if d == nil || s == nil || extent.Empty() {
		e.ignore("CopyBufferToTexture", "nil resource or empty extent")
		return
	}
	if !e.ready("CopyBufferToTexture") {
		return
	}
	e.endPasses()
	e.enc.CopyBufferToTexture(s.buf, d.tex, []hal.BufferTextureCopy{
		bufferTextureCopy(d, dstSub, dstOffset, layout, extent),
	})
}

func (e *Encoder) CopyTextureToBuffer(dst a3d.Buffer, layout a3d.BufferLayout,
	src a3d.Texture, srcSub a3d.Subresource, srcOffset a3d.Offset3D, extent a3d.Extent3D) {
	d, s := halBuffer(dst), halTexture(src)
	if d == nil || s == nil || extent.Empty() {
		e.ignore("CopyTextureToBuffer", "nil resource or empty extent")
		return
	}
	if !e.ready("CopyTextureToBuffer") {
		return
	}
	e.endPasses()
	e.enc.CopyTextureToBuffer(s.tex, d.buf, []hal.BufferTextureCopy{
		bufferTextureCopy(s, srcSub, srcOffset, layout, extent),
	})
}

func bufferTextureCopy(t *Texture, sub a3d.Subresource, off a3d.Offset3D,
	layout a3d.BufferLayout, extent a3d.Extent3D) hal.BufferTextureCopy {
	return hal.BufferTextureCopy{
		BufferLayout: hal.ImageDataLayout{
			Offset:       layout.Offset,
			BytesPerRow:  layout.BytesPerRow,
			RowsPerImage: layout.RowsPerImage,
		},
		TextureBase: hal.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: sub.MipLevel,
			Origin:   halOrigin(off, sub.ArrayLayer),
			Aspect:   aspectOf(t.desc.Format),
		},
		Size: halExtent(extent),
	}
}

// ResolveSubresource resolves a multisampled color subresource with a
// render pass whose attachment has a resolve target.
func (e *Encoder) ResolveSubresource(dst a3d.Texture, dstSub a3d.Subresource, src a3d.Texture, srcSub a3d.Subresource) {
	d, s := halTexture(dst), halTexture(src)
	if d == nil || s == nil {
		e.ignore("ResolveSubresource", "nil texture")
		return
	}
	if s.desc.Format.IsDepthStencil() {
		e.ignore("ResolveSubresource", "depth resolve unsupported")
		return
	}
	if !e.ready("ResolveSubresource") {
		return
	}
	srcView, err := e.subresourceView(s, srcSub)
	if err != nil {
		e.fail(err)
		return
	}
	dstView, err := e.subresourceView(d, dstSub)
	if err != nil {
		e.fail(err)
		return
	}
	e.endPasses()
	e.enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: e.passLabel(),
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:          srcView,
			ResolveTarget: dstView,
			LoadOp:        gputypes.LoadOpLoad,
			StoreOp:       gputypes.StoreOpStore,
		}},
	}).End()
}

func (e *Encoder) subresourceView(t *Texture, sub a3d.Subresource) (hal.TextureView, error) {
	v, err := e.dev.device.CreateTextureView(t.tex, &hal.TextureViewDescriptor{
		Label:           t.desc.Label,
		Format:          t.desc.Format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		BaseMipLevel:    sub.MipLevel,
		MipLevelCount:   1,
		BaseArrayLayer:  sub.ArrayLayer,
		ArrayLayerCount: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("driver: create subresource view: %w", err)
	}
	e.views = append(e.views, v)
	return v, nil
}

// PushMarker opens a debug region. Passes begun inside it are labelled
// with the innermost marker.
func (e *Encoder) PushMarker(tag string) {
	if !e.ready("PushMarker") {
		return
	}
	e.markers = append(e.markers, a3d.TruncateMarker(tag))
}

func (e *Encoder) PopMarker() {
	if !e.ready("PopMarker") {
		return
	}
	if len(e.markers) == 0 {
		e.fail(a3d.ErrUnbalancedMarker)
		return
	}
	e.markers = e.markers[:len(e.markers)-1]
}

// UpdateConstantBuffer copies data[:size] into buffer at offset through a
// staging buffer, in command order.
func (e *Encoder) UpdateConstantBuffer(buffer a3d.Buffer, offset, size uint64, data []byte) bool {
	buf := halBuffer(buffer)
	if buf == nil || size == 0 || data == nil || uint64(len(data)) < size {
		e.ignore("UpdateConstantBuffer", "nil buffer, zero size or short data")
		return false
	}
	if !e.ready("UpdateConstantBuffer") {
		return false
	}
	padded := (size + 3) &^ 3
	staging, err := e.dev.device.CreateBuffer(&hal.BufferDescriptor{
		Label:            "a3d-staging",
		Size:             padded,
		Usage:            gputypes.BufferUsageMapWrite | gputypes.BufferUsageCopySrc,
		MappedAtCreation: true,
	})
	if err != nil {
		e.logger.Warn("driver: staging buffer", "size", padded, "err", err)
		return false
	}
	m, err := e.dev.device.MapBuffer(staging, 0, padded)
	if err != nil {
		e.dev.device.DestroyBuffer(staging)
		e.logger.Warn("driver: map staging buffer", "size", padded, "err", err)
		return false
	}
	copy(unsafe.Slice((*byte)(m.Ptr), padded), data[:size])
	if err := e.dev.device.UnmapBuffer(staging); err != nil {
		e.dev.device.DestroyBuffer(staging)
		e.logger.Warn("driver: unmap staging buffer", "err", err)
		return false
	}
	e.staging = append(e.staging, staging)
	e.endPasses()
	e.enc.CopyBufferToBuffer(staging, buf.buf, []hal.BufferCopy{{DstOffset: offset, Size: size}})
	return true
}
