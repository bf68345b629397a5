// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package stream

import (
	"errors"
	"fmt"

	"github.com/gogpu/a3d"
)

// ErrUnknownCommand is returned by Replay for a record type it cannot
// dispatch.
var ErrUnknownCommand = errors.New("stream: unknown command")

// Context is the immediate context a stream replays into.
type Context = a3d.Commands

// Replay walks the closed stream from the first record and issues each
// record against ctx, in order. Framing records are checked, not
// forwarded. Replay is synchronous.
func (s *Stream) Replay(ctx Context) error {
	if !s.closed {
		return ErrOpen
	}
	depth := 0
	for i, rec := range s.records {
		switch c := rec.(type) {
		case Begin, End:
		case SubBegin:
			depth++
		case SubEnd:
			if depth == 0 {
				return fmt.Errorf("%w at record %d", ErrUnbalancedFraming, i)
			}
			depth--
		case ClearRenderTarget:
			ctx.ClearRenderTarget(c.Target, c.Color)
		case ClearDepthStencil:
			ctx.ClearDepthStencil(c.Target, c.Flags, c.Depth, c.Stencil)
		case BeginFrameBuffer:
			ctx.BeginFrameBuffer(c.FrameBuffer)
		case EndFrameBuffer:
			ctx.EndFrameBuffer()
		case SetViewports:
			ctx.SetViewports(c.Viewports)
		case SetScissors:
			ctx.SetScissors(c.Rects)
		case SetPipelineState:
			ctx.SetPipelineState(c.Pipeline)
		case SetDescriptorSet:
			ctx.SetDescriptorSet(c.Set)
		case SetVertexBuffers:
			ctx.SetVertexBuffers(c.StartSlot, c.Buffers, c.Offsets)
		case SetIndexBuffer:
			ctx.SetIndexBuffer(c.Buffer, c.Format, c.Offset)
		case SetBlendConstant:
			ctx.SetBlendConstant(c.Color)
		case SetStencilReference:
			ctx.SetStencilReference(c.Ref)
		case TextureBarrier:
			ctx.TextureBarrier(c.Texture, c.Prev, c.Next)
		case BufferBarrier:
			ctx.BufferBarrier(c.Buffer, c.Prev, c.Next)
		case DrawInstanced:
			ctx.DrawInstanced(c.VertexCount, c.InstanceCount, c.FirstVertex, c.FirstInstance)
		case DrawIndexedInstanced:
			ctx.DrawIndexedInstanced(c.IndexCount, c.InstanceCount, c.FirstIndex, c.BaseVertex, c.FirstInstance)
		case DispatchCompute:
			ctx.DispatchCompute(c.X, c.Y, c.Z)
		case DispatchMesh:
			ctx.DispatchMesh(c.X, c.Y, c.Z)
		case ExecuteIndirect:
			ctx.ExecuteIndirect(c.Command, c.Count, c.Args, c.Offset)
		case BeginQuery:
			ctx.BeginQuery(c.Pool, c.Index)
		case EndQuery:
			ctx.EndQuery(c.Pool, c.Index)
		case ResolveQuery:
			ctx.ResolveQuery(c.Pool, c.First, c.Count, c.Dst, c.DstOffset)
		case ResetQuery:
			ctx.ResetQuery(c.Pool, c.First, c.Count)
		case CopyTexture:
			ctx.CopyTexture(c.Dst, c.Src)
		case CopyTextureRegion:
			ctx.CopyTextureRegion(c.Dst, c.DstSub, c.DstOffset, c.Src, c.SrcSub, c.SrcOffset, c.Extent)
		case CopyBuffer:
			ctx.CopyBuffer(c.Dst, c.Src)
		case CopyBufferRegion:
			ctx.CopyBufferRegion(c.Dst, c.DstOffset, c.Src, c.SrcOffset, c.Length)
		case CopyBufferToTexture:
			ctx.CopyBufferToTexture(c.Dst, c.DstSub, c.DstOffset, c.Src, c.Layout, c.Extent)
		case CopyTextureToBuffer:
			ctx.CopyTextureToBuffer(c.Dst, c.Layout, c.Src, c.SrcSub, c.SrcOffset, c.Extent)
		case ResolveSubresource:
			ctx.ResolveSubresource(c.Dst, c.DstSub, c.Src, c.SrcSub)
		case PushMarker:
			ctx.PushMarker(c.Tag)
		case PopMarker:
			ctx.PopMarker()
		case UpdateConstantBuffer:
			ctx.UpdateConstantBuffer(c.Buffer, c.Offset, uint64(len(c.Data)), c.Data)
		default:
			return fmt.Errorf("%w: %T at record %d", ErrUnknownCommand, rec, i)
		}
	}
	if depth != 0 {
		return ErrUnbalancedFraming
	}
	return nil
}
