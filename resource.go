// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package a3d

import "github.com/gogpu/gputypes"

// Resource is a GPU object that exposes its backend handle.
type Resource interface {
	// Native returns the backend object, e.g. a hal.Texture.
	Native() any
}

// Texture is a GPU texture with a declared state.
type Texture interface {
	Resource
	Stateful
	Desc() TextureDesc
}

// Buffer is a GPU buffer with a declared state.
type Buffer interface {
	Resource
	Stateful
	Desc() BufferDesc
}

// PipelineState is a compiled graphics or compute pipeline.
type PipelineState interface {
	Resource
	Type() PipelineType
}

// DescriptorSet is a set of resource bindings.
type DescriptorSet interface {
	Resource
	// Index is the set slot the bindings are bound to.
	Index() uint32
}

// QueryPool is a set of GPU queries.
type QueryPool interface {
	Resource
	Type() QueryType
	Count() uint32
}

// TextureDesc describes a texture.
type TextureDesc struct {
	Label     string
	Width     uint32
	Height    uint32
	Depth     uint32
	MipLevels uint32
	// SampleCount is 1 for single-sampled textures.
	SampleCount uint32
	Format      gputypes.TextureFormat
	Dimension   gputypes.TextureDimension
	Usage       gputypes.TextureUsage
	// InitState is the declared state of the new texture.
	InitState ResourceState
}

// Validate checks the descriptor for missing fields.
func (d *TextureDesc) Validate() error {
	if d == nil || d.Width == 0 || d.Height == 0 || d.Format == gputypes.TextureFormatUndefined {
		return ErrInvalidDesc
	}
	if !d.InitState.Valid() {
		return ErrInvalidDesc
	}
	return nil
}

// BufferDesc describes a buffer.
type BufferDesc struct {
	Label     string
	Size      uint64
	Usage     gputypes.BufferUsage
	InitState ResourceState
}

// Validate checks the descriptor for missing fields.
func (d *BufferDesc) Validate() error {
	if d == nil || d.Size == 0 || !d.InitState.Valid() {
		return ErrInvalidDesc
	}
	return nil
}

// QueryPoolDesc describes a query pool.
type QueryPoolDesc struct {
	Label string
	Type  QueryType
	Count uint32
}

// Validate checks the descriptor for missing fields.
func (d *QueryPoolDesc) Validate() error {
	if d == nil || d.Count == 0 || d.Type > QueryTimestamp {
		return ErrInvalidDesc
	}
	return nil
}
