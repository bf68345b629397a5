// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"github.com/gogpu/a3d"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// TextureUsage returns the hal usage a texture in state s is transitioned
// to. StateUnknown maps to no usage, which backends treat as undefined
// contents.
func TextureUsage(s a3d.ResourceState) gputypes.TextureUsage {
	switch s {
	case a3d.StateColorWrite, a3d.StateDepthWrite, a3d.StateDepthRead,
		a3d.StateResolveSrc, a3d.StateResolveDst, a3d.StatePresent:
		return gputypes.TextureUsageRenderAttachment
	case a3d.StateShaderRead, a3d.StateVertexBuffer, a3d.StateIndexBuffer,
		a3d.StateConstantBuffer, a3d.StateIndirectArgument:
		return gputypes.TextureUsageTextureBinding
	case a3d.StateGeneral, a3d.StateUnorderedAccess:
		return gputypes.TextureUsageStorageBinding
	case a3d.StateCopySrc:
		return gputypes.TextureUsageCopySrc
	case a3d.StateCopyDst:
		return gputypes.TextureUsageCopyDst
	default:
		return gputypes.TextureUsageNone
	}
}

// BufferUsage returns the hal usage a buffer in state s is transitioned to.
func BufferUsage(s a3d.ResourceState) gputypes.BufferUsage {
	switch s {
	case a3d.StateVertexBuffer:
		return gputypes.BufferUsageVertex
	case a3d.StateIndexBuffer:
		return gputypes.BufferUsageIndex
	case a3d.StateConstantBuffer:
		return gputypes.BufferUsageUniform
	case a3d.StateGeneral, a3d.StateUnorderedAccess, a3d.StateShaderRead:
		return gputypes.BufferUsageStorage
	case a3d.StateIndirectArgument:
		return gputypes.BufferUsageIndirect
	case a3d.StateCopySrc:
		return gputypes.BufferUsageCopySrc
	case a3d.StateCopyDst, a3d.StateResolveDst:
		return gputypes.BufferUsageCopyDst
	default:
		return gputypes.BufferUsageNone
	}
}

// PresentMode maps a sync interval to a present mode supported by the
// surface. Interval 0 prefers Mailbox, then Immediate.
func PresentMode(syncInterval uint32, supported []gputypes.PresentMode) gputypes.PresentMode {
	if syncInterval > 0 || len(supported) == 0 {
		return gputypes.PresentModeFifo
	}
	for _, want := range []gputypes.PresentMode{gputypes.PresentModeMailbox, gputypes.PresentModeImmediate} {
		for _, m := range supported {
			if m == want {
				return m
			}
		}
	}
	return gputypes.PresentModeFifo
}

// AdapterType maps a gputypes device type to a gpucontext adapter type.
func AdapterType(t gputypes.DeviceType) gpucontext.AdapterType {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		return gpucontext.AdapterTypeSoftware
	default:
		return gpucontext.AdapterTypeUnknown
	}
}

// aspectOf returns the aspect copies and barriers of format address.
func aspectOf(format gputypes.TextureFormat) gputypes.TextureAspect {
	switch {
	case format.HasDepth() && !format.HasStencil():
		return gputypes.TextureAspectDepthOnly
	case format.HasStencil() && !format.HasDepth():
		return gputypes.TextureAspectStencilOnly
	default:
		return gputypes.TextureAspectAll
	}
}

func halOrigin(o a3d.Offset3D, layer uint32) hal.Origin3D {
	return hal.Origin3D{X: o.X, Y: o.Y, Z: o.Z + layer}
}

func halExtent(e a3d.Extent3D) hal.Extent3D {
	return hal.Extent3D{Width: e.Width, Height: e.Height, DepthOrArrayLayers: max(e.Depth, 1)}
}

// mipExtent returns the extent of mip level of a texture.
func mipExtent(d a3d.TextureDesc, level uint32) a3d.Extent3D {
	return a3d.Extent3D{
		Width:  max(d.Width>>level, 1),
		Height: max(d.Height>>level, 1),
		Depth:  max(d.Depth, 1),
	}
}

func halQueryType(t a3d.QueryType) hal.QueryType {
	if t == a3d.QueryTimestamp {
		return hal.QueryTypeTimestamp
	}
	return hal.QueryTypeOcclusion
}
