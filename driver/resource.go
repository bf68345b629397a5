// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"fmt"

	"github.com/gogpu/a3d"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Texture wraps a hal texture, its default view and its declared state.
//
// The state is what the application declared through barriers; the hal
// texture starts in undefined layout, so the first recorded barrier
// transitions from no usage.
type Texture struct {
	dev   hal.Device
	tex   hal.Texture
	view  hal.TextureView
	desc  a3d.TextureDesc
	state a3d.ResourceState
	fresh bool
	owned bool
}

var _ a3d.Texture = (*Texture)(nil)

// WrapTexture wraps a hal texture created elsewhere. The wrapper does not
// destroy tex on Release.
func WrapTexture(dev hal.Device, tex hal.Texture, desc a3d.TextureDesc) *Texture {
	return &Texture{dev: dev, tex: tex, desc: desc, state: desc.InitState, fresh: true}
}

// Native returns the hal.Texture.
func (t *Texture) Native() any { return t.tex }

// HAL returns the wrapped texture.
func (t *Texture) HAL() hal.Texture { return t.tex }

// Desc returns the creation descriptor.
func (t *Texture) Desc() a3d.TextureDesc { return t.desc }

// State returns the declared state.
func (t *Texture) State() a3d.ResourceState { return t.state }

// SetState sets the declared state.
func (t *Texture) SetState(s a3d.ResourceState) { t.state = s }

// layers returns the array layer count. Depth is the layer count of 2D
// textures and the depth of 3D textures.
func (t *Texture) layers() uint32 {
	if t.desc.Dimension == gputypes.TextureDimension3D {
		return 1
	}
	return max(t.desc.Depth, 1)
}

// View returns the default view covering every mip level and layer,
// creating it on first use.
func (t *Texture) View() (hal.TextureView, error) {
	if t.view != nil {
		return t.view, nil
	}
	if t.tex == nil {
		return nil, a3d.ErrReleased
	}
	dim := gputypes.TextureViewDimension2D
	switch {
	case t.desc.Dimension == gputypes.TextureDimension3D:
		dim = gputypes.TextureViewDimension3D
	case t.layers() > 1:
		dim = gputypes.TextureViewDimension2DArray
	}
	v, err := t.dev.CreateTextureView(t.tex, &hal.TextureViewDescriptor{
		Label:           t.desc.Label,
		Format:          t.desc.Format,
		Dimension:       dim,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   max(t.desc.MipLevels, 1),
		ArrayLayerCount: t.layers(),
	})
	if err != nil {
		return nil, fmt.Errorf("driver: create view for %q: %w", t.desc.Label, err)
	}
	t.view = v
	return v, nil
}

// transition returns the hal usages of a barrier to next and marks the
// texture as used.
func (t *Texture) transition(prev, next a3d.ResourceState) hal.TextureUsageTransition {
	old := TextureUsage(prev)
	if t.fresh {
		old = gputypes.TextureUsageNone
		t.fresh = false
	}
	return hal.TextureUsageTransition{OldUsage: old, NewUsage: TextureUsage(next)}
}

// replace swaps the native texture, used for swapchain images that change
// on every acquire.
func (t *Texture) replace(tex hal.Texture) {
	if t.tex == tex {
		return
	}
	t.dropView()
	t.tex = tex
}

func (t *Texture) dropView() {
	if t.view != nil {
		t.dev.DestroyTextureView(t.view)
		t.view = nil
	}
}

// Release destroys the view and, for textures the device created, the
// texture.
func (t *Texture) Release() {
	t.dropView()
	if t.owned && t.tex != nil {
		t.dev.DestroyTexture(t.tex)
	}
	t.tex = nil
}

// Buffer wraps a hal buffer and its declared state.
type Buffer struct {
	dev   hal.Device
	buf   hal.Buffer
	desc  a3d.BufferDesc
	state a3d.ResourceState
	owned bool
}

var _ a3d.Buffer = (*Buffer)(nil)

// WrapBuffer wraps a hal buffer created elsewhere. The wrapper does not
// destroy buf on Release.
func WrapBuffer(dev hal.Device, buf hal.Buffer, desc a3d.BufferDesc) *Buffer {
	return &Buffer{dev: dev, buf: buf, desc: desc, state: desc.InitState}
}

// Native returns the hal.Buffer.
func (b *Buffer) Native() any { return b.buf }

// HAL returns the wrapped buffer.
func (b *Buffer) HAL() hal.Buffer { return b.buf }

func (b *Buffer) Desc() a3d.BufferDesc         { return b.desc }
func (b *Buffer) State() a3d.ResourceState     { return b.state }
func (b *Buffer) SetState(s a3d.ResourceState) { b.state = s }

// Release destroys buffers the device created.
func (b *Buffer) Release() {
	if b.owned && b.buf != nil {
		b.dev.DestroyBuffer(b.buf)
	}
	b.buf = nil
}

// Pipeline wraps a hal render or compute pipeline.
type Pipeline struct {
	render  hal.RenderPipeline
	compute hal.ComputePipeline
}

var _ a3d.PipelineState = (*Pipeline)(nil)

// NewRenderPipeline wraps a hal render pipeline.
func NewRenderPipeline(p hal.RenderPipeline) *Pipeline { return &Pipeline{render: p} }

// NewComputePipeline wraps a hal compute pipeline.
func NewComputePipeline(p hal.ComputePipeline) *Pipeline { return &Pipeline{compute: p} }

// Native returns the hal.RenderPipeline or hal.ComputePipeline.
func (p *Pipeline) Native() any {
	if p.compute != nil {
		return p.compute
	}
	return p.render
}

// Type reports whether the pipeline is a graphics or compute pipeline.
func (p *Pipeline) Type() a3d.PipelineType {
	if p.compute != nil {
		return a3d.PipelineCompute
	}
	return a3d.PipelineGraphics
}

// DescriptorSet wraps a hal bind group bound at a fixed slot.
type DescriptorSet struct {
	group   hal.BindGroup
	index   uint32
	offsets []uint32
}

var _ a3d.DescriptorSet = (*DescriptorSet)(nil)

// NewDescriptorSet wraps a hal bind group bound at slot index with the
// given dynamic offsets.
func NewDescriptorSet(index uint32, group hal.BindGroup, offsets ...uint32) *DescriptorSet {
	return &DescriptorSet{group: group, index: index, offsets: append([]uint32(nil), offsets...)}
}

func (s *DescriptorSet) Native() any   { return s.group }
func (s *DescriptorSet) Index() uint32 { return s.index }

// QueryPool wraps a hal query set.
type QueryPool struct {
	dev  hal.Device
	set  hal.QuerySet
	desc a3d.QueryPoolDesc
}

var _ a3d.QueryPool = (*QueryPool)(nil)

func (q *QueryPool) Native() any         { return q.set }
func (q *QueryPool) Type() a3d.QueryType { return q.desc.Type }
func (q *QueryPool) Count() uint32       { return q.desc.Count }

// Release destroys the query set.
func (q *QueryPool) Release() {
	if q.set != nil {
		q.dev.DestroyQuerySet(q.set)
		q.set = nil
	}
}

// halTexture unwraps an a3d texture. Foreign implementations yield nil.
func halTexture(t a3d.Texture) *Texture {
	tex, _ := t.(*Texture)
	if tex == nil || tex.tex == nil {
		return nil
	}
	return tex
}

func halBuffer(b a3d.Buffer) *Buffer {
	buf, _ := b.(*Buffer)
	if buf == nil || buf.buf == nil {
		return nil
	}
	return buf
}
