// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package a3dtest provides fake resources and a call-recording immediate
// context for tests.
package a3dtest

import (
	"fmt"
	"sync"

	"github.com/gogpu/a3d"
	"github.com/gogpu/gputypes"
)

// Texture is an in-memory a3d.Texture.
type Texture struct {
	Name  string
	D     a3d.TextureDesc
	state a3d.ResourceState
}

// NewTexture returns a 2D RGBA8 texture of the given size.
func NewTexture(name string, w, h uint32) *Texture {
	return &Texture{Name: name, D: a3d.TextureDesc{
		Label:       name,
		Width:       w,
		Height:      h,
		Depth:       1,
		MipLevels:   1,
		SampleCount: 1,
		Format:      gputypes.TextureFormatRGBA8Unorm,
		Dimension:   gputypes.TextureDimension2D,
	}}
}

func (t *Texture) Native() any                  { return nil }
func (t *Texture) Desc() a3d.TextureDesc        { return t.D }
func (t *Texture) State() a3d.ResourceState     { return t.state }
func (t *Texture) SetState(s a3d.ResourceState) { t.state = s }
func (t *Texture) String() string               { return t.Name }

// Buffer is an in-memory a3d.Buffer.
type Buffer struct {
	Name  string
	D     a3d.BufferDesc
	state a3d.ResourceState
}

// NewBuffer returns a buffer of size bytes.
func NewBuffer(name string, size uint64) *Buffer {
	return &Buffer{Name: name, D: a3d.BufferDesc{Label: name, Size: size}}
}

func (b *Buffer) Native() any                  { return nil }
func (b *Buffer) Desc() a3d.BufferDesc         { return b.D }
func (b *Buffer) State() a3d.ResourceState     { return b.state }
func (b *Buffer) SetState(s a3d.ResourceState) { b.state = s }
func (b *Buffer) String() string               { return b.Name }

// Pipeline is a fake a3d.PipelineState.
type Pipeline struct {
	Name string
	T    a3d.PipelineType
}

func (p *Pipeline) Native() any            { return nil }
func (p *Pipeline) Type() a3d.PipelineType { return p.T }
func (p *Pipeline) String() string         { return p.Name }

// DescriptorSet is a fake a3d.DescriptorSet.
type DescriptorSet struct {
	Name string
	Slot uint32
}

func (d *DescriptorSet) Native() any    { return nil }
func (d *DescriptorSet) Index() uint32  { return d.Slot }
func (d *DescriptorSet) String() string { return d.Name }

// QueryPool is a fake a3d.QueryPool.
type QueryPool struct {
	Name string
	T    a3d.QueryType
	N    uint32
}

func (q *QueryPool) Native() any         { return nil }
func (q *QueryPool) Type() a3d.QueryType { return q.T }
func (q *QueryPool) Count() uint32       { return q.N }
func (q *QueryPool) String() string      { return q.Name }

// Context is an a3d.Commands implementation that records one line per
// call.
type Context struct {
	mu    sync.Mutex
	Calls []string
}

var _ a3d.Commands = (*Context)(nil)

func (c *Context) add(format string, args ...any) {
	c.mu.Lock()
	c.Calls = append(c.Calls, fmt.Sprintf(format, args...))
	c.mu.Unlock()
}

// Reset discards the recorded calls.
func (c *Context) Reset() {
	c.mu.Lock()
	c.Calls = nil
	c.mu.Unlock()
}

func (c *Context) ClearRenderTarget(target a3d.Texture, color gputypes.Color) {
	c.add("ClearRenderTarget(%v)", target)
}

func (c *Context) ClearDepthStencil(target a3d.Texture, flags a3d.ClearFlags, depth float32, stencil uint32) {
	c.add("ClearDepthStencil(%v,%d)", target, flags)
}

func (c *Context) BeginFrameBuffer(fb a3d.FrameBuffer) {
	c.add("BeginFrameBuffer(%d)", len(fb.ColorTargets))
}

func (c *Context) EndFrameBuffer() { c.add("EndFrameBuffer") }

func (c *Context) SetViewports(viewports []a3d.Viewport) {
	c.add("SetViewports(%d)", len(viewports))
}

func (c *Context) SetScissors(rects []a3d.Rect) { c.add("SetScissors(%d)", len(rects)) }

func (c *Context) SetPipelineState(p a3d.PipelineState) { c.add("SetPipelineState(%v)", p) }

func (c *Context) SetDescriptorSet(s a3d.DescriptorSet) { c.add("SetDescriptorSet(%v)", s) }

func (c *Context) SetVertexBuffers(startSlot uint32, buffers []a3d.Buffer, offsets []uint64) {
	c.add("SetVertexBuffers(%d,%d)", startSlot, len(buffers))
}

func (c *Context) SetIndexBuffer(b a3d.Buffer, format gputypes.IndexFormat, offset uint64) {
	c.add("SetIndexBuffer(%v)", b)
}

func (c *Context) SetBlendConstant(color gputypes.Color) { c.add("SetBlendConstant") }

func (c *Context) SetStencilReference(ref uint32) { c.add("SetStencilReference(%d)", ref) }

func (c *Context) TextureBarrier(t a3d.Texture, prev, next a3d.ResourceState) {
	c.add("TextureBarrier(%v,%v,%v)", t, prev, next)
}

func (c *Context) BufferBarrier(b a3d.Buffer, prev, next a3d.ResourceState) {
	c.add("BufferBarrier(%v,%v,%v)", b, prev, next)
}

func (c *Context) DrawInstanced(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	c.add("DrawInstanced(%d,%d,%d,%d)", vertexCount, instanceCount, firstVertex, firstInstance)
}

func (c *Context) DrawIndexedInstanced(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	c.add("DrawIndexedInstanced(%d,%d,%d,%d,%d)", indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func (c *Context) DispatchCompute(x, y, z uint32) { c.add("DispatchCompute(%d,%d,%d)", x, y, z) }

func (c *Context) DispatchMesh(x, y, z uint32) { c.add("DispatchMesh(%d,%d,%d)", x, y, z) }

func (c *Context) ExecuteIndirect(cmd a3d.IndirectCommand, count uint32, args a3d.Buffer, offset uint64) {
	c.add("ExecuteIndirect(%v,%d,%v,%d)", cmd, count, args, offset)
}

func (c *Context) BeginQuery(pool a3d.QueryPool, index uint32) {
	c.add("BeginQuery(%v,%d)", pool, index)
}

func (c *Context) EndQuery(pool a3d.QueryPool, index uint32) { c.add("EndQuery(%v,%d)", pool, index) }

func (c *Context) ResolveQuery(pool a3d.QueryPool, first, count uint32, dst a3d.Buffer, dstOffset uint64) {
	c.add("ResolveQuery(%v,%d,%d,%v)", pool, first, count, dst)
}

func (c *Context) ResetQuery(pool a3d.QueryPool, first, count uint32) {
	c.add("ResetQuery(%v,%d,%d)", pool, first, count)
}

func (c *Context) CopyTexture(dst, src a3d.Texture) { c.add("CopyTexture(%v,%v)", dst, src) }

func (c *Context) CopyTextureRegion(dst a3d.Texture, dstSub a3d.Subresource, dstOffset a3d.Offset3D, src a3d.Texture, srcSub a3d.Subresource, srcOffset a3d.Offset3D, extent a3d.Extent3D) {
	c.add("CopyTextureRegion(%v,%v)", dst, src)
}

func (c *Context) CopyBuffer(dst, src a3d.Buffer) { c.add("CopyBuffer(%v,%v)", dst, src) }

func (c *Context) CopyBufferRegion(dst a3d.Buffer, dstOffset uint64, src a3d.Buffer, srcOffset, size uint64) {
	c.add("CopyBufferRegion(%v,%v,%d)", dst, src, size)
}

func (c *Context) CopyBufferToTexture(dst a3d.Texture, dstSub a3d.Subresource, dstOffset a3d.Offset3D, src a3d.Buffer, layout a3d.BufferLayout, extent a3d.Extent3D) {
	c.add("CopyBufferToTexture(%v,%v)", dst, src)
}

func (c *Context) CopyTextureToBuffer(dst a3d.Buffer, layout a3d.BufferLayout, src a3d.Texture, srcSub a3d.Subresource, srcOffset a3d.Offset3D, extent a3d.Extent3D) {
	c.add("CopyTextureToBuffer(%v,%v)", dst, src)
}

func (c *Context) ResolveSubresource(dst a3d.Texture, dstSub a3d.Subresource, src a3d.Texture, srcSub a3d.Subresource) {
	c.add("ResolveSubresource(%v,%v)", dst, src)
}

func (c *Context) PushMarker(tag string) { c.add("PushMarker(%s)", tag) }

func (c *Context) PopMarker() { c.add("PopMarker") }

func (c *Context) UpdateConstantBuffer(b a3d.Buffer, offset, size uint64, data []byte) bool {
	c.add("UpdateConstantBuffer(%v,%d,%d)", b, offset, size)
	return true
}
