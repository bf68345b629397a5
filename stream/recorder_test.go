// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package stream

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/gogpu/a3d"
	"github.com/gogpu/a3d/internal/a3dtest"
	"github.com/gogpu/gputypes"
)

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	s, err := New(a3d.DefaultStreamCapacity)
	if err != nil {
		t.Fatal(err)
	}
	return NewRecorder(s, nil)
}

func TestRecorderBarrierElision(t *testing.T) {
	rec := newTestRecorder(t)
	rec.Begin(false)
	tex := a3dtest.NewTexture("tex", 4, 4)
	buf := a3dtest.NewBuffer("buf", 64)

	for s := a3d.StateUnknown; s <= a3d.StateIndirectArgument; s++ {
		before := rec.Stream().Len()
		rec.TextureBarrier(tex, s, s)
		rec.BufferBarrier(buf, s, s)
		if after := rec.Stream().Len(); after != before {
			t.Errorf("barrier (%v, %v) grew stream from %d to %d", s, s, before, after)
		}
	}

	rec.TextureBarrier(tex, a3d.StatePresent, a3d.StateColorWrite)
	if tex.State() != a3d.StateColorWrite {
		t.Errorf("texture state = %v, want ColorWrite", tex.State())
	}
	rec.BufferBarrier(buf, a3d.StateCopyDst, a3d.StateVertexBuffer)
	if buf.State() != a3d.StateVertexBuffer {
		t.Errorf("buffer state = %v, want VertexBuffer", buf.State())
	}
	if got := rec.Stream().Count(); got != 3 {
		t.Errorf("Count() = %d, want Begin plus two barriers", got)
	}
}

func TestRecorderIgnoresInvalidInputs(t *testing.T) {
	rec := newTestRecorder(t)
	rec.Begin(false)
	before := rec.Stream().Len()

	rec.ClearRenderTarget(nil, gputypes.Color{})
	rec.ClearDepthStencil(nil, a3d.ClearDepth, 1, 0)
	rec.ClearDepthStencil(a3dtest.NewTexture("d", 1, 1), 0, 1, 0)
	rec.ClearDepthStencil(a3dtest.NewTexture("d", 1, 1), a3d.ClearFlags(1<<4), 1, 0)
	rec.SetViewports(nil)
	rec.SetScissors([]a3d.Rect{})
	rec.SetPipelineState(nil)
	rec.SetDescriptorSet(nil)
	rec.SetVertexBuffers(0, nil, nil)
	rec.SetIndexBuffer(nil, gputypes.IndexFormatUint16, 0)
	rec.TextureBarrier(nil, a3d.StateCopySrc, a3d.StateCopyDst)
	rec.BufferBarrier(nil, a3d.StateCopySrc, a3d.StateCopyDst)
	rec.DrawInstanced(0, 1, 0, 0)
	rec.DrawIndexedInstanced(3, 0, 0, 0, 0)
	rec.DispatchCompute(0, 1, 1)
	rec.ExecuteIndirect(a3d.IndirectDraw, 0, a3dtest.NewBuffer("args", 16), 0)
	rec.ExecuteIndirect(a3d.IndirectDraw, 1, nil, 0)
	rec.BeginQuery(nil, 0)
	rec.BeginQuery(&a3dtest.QueryPool{N: 2}, 2)
	rec.ResolveQuery(&a3dtest.QueryPool{N: 2}, 1, 2, a3dtest.NewBuffer("q", 16), 0)
	rec.ResetQuery(&a3dtest.QueryPool{N: 2}, 0, 0)
	rec.CopyTexture(nil, a3dtest.NewTexture("s", 1, 1))
	rec.CopyBuffer(a3dtest.NewBuffer("d", 4), nil)
	rec.CopyBufferRegion(a3dtest.NewBuffer("d", 4), 0, a3dtest.NewBuffer("s", 4), 0, 0)
	rec.CopyTextureRegion(a3dtest.NewTexture("d", 1, 1), a3d.Subresource{}, a3d.Offset3D{},
		a3dtest.NewTexture("s", 1, 1), a3d.Subresource{}, a3d.Offset3D{}, a3d.Extent3D{})
	rec.ResolveSubresource(nil, a3d.Subresource{}, nil, a3d.Subresource{})

	if after := rec.Stream().Len(); after != before {
		t.Errorf("invalid calls grew stream from %d to %d", before, after)
	}
}

func TestRecorderUpdateConstantBuffer(t *testing.T) {
	buf := a3dtest.NewBuffer("cb", 256)
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	tests := []struct {
		name   string
		buffer a3d.Buffer
		size   uint64
		data   []byte
		want   bool
	}{
		{"valid", buf, 8, data, true},
		{"prefix", buf, 4, data, true},
		{"nil buffer", nil, 8, data, false},
		{"zero size", buf, 0, data, false},
		{"nil data", buf, 8, nil, false},
		{"short data", buf, 16, data, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newTestRecorder(t)
			rec.Begin(false)
			before := rec.Stream().Count()
			if got := rec.UpdateConstantBuffer(tt.buffer, 16, tt.size, tt.data); got != tt.want {
				t.Fatalf("UpdateConstantBuffer() = %v, want %v", got, tt.want)
			}
			if !tt.want {
				if rec.Stream().Count() != before {
					t.Error("rejected update was recorded")
				}
				return
			}
			c := rec.Stream().Records()[before].(UpdateConstantBuffer)
			if uint64(len(c.Data)) != tt.size || c.Offset != 16 {
				t.Errorf("record = %d bytes at %d", len(c.Data), c.Offset)
			}
		})
	}
}

func TestRecorderCopiesCallerSlices(t *testing.T) {
	rec := newTestRecorder(t)
	rec.Begin(false)

	data := []byte{1, 2, 3, 4}
	rec.UpdateConstantBuffer(a3dtest.NewBuffer("cb", 16), 0, 4, data)
	vps := []a3d.Viewport{{Width: 640, Height: 480}}
	rec.SetViewports(vps)

	data[0] = 99
	vps[0].Width = 1

	recs := rec.Stream().Records()
	if got := recs[1].(UpdateConstantBuffer).Data[0]; got != 1 {
		t.Errorf("inline data aliased caller slice: got %d", got)
	}
	if got := recs[2].(SetViewports).Viewports[0].Width; got != 640 {
		t.Errorf("viewport aliased caller slice: got %v", got)
	}
}

func TestRecorderVertexBufferOffsetsPadded(t *testing.T) {
	rec := newTestRecorder(t)
	rec.Begin(false)
	bufs := []a3d.Buffer{a3dtest.NewBuffer("a", 16), a3dtest.NewBuffer("b", 16)}
	rec.SetVertexBuffers(1, bufs, []uint64{4})

	c := rec.Stream().Records()[1].(SetVertexBuffers)
	if !slices.Equal(c.Offsets, []uint64{4, 0}) {
		t.Errorf("Offsets = %v, want [4 0]", c.Offsets)
	}
}

func TestRecorderFrameBufferBalance(t *testing.T) {
	rt := a3dtest.NewTexture("rt", 8, 8)
	fb := a3d.FrameBuffer{ColorTargets: []a3d.Texture{rt}}

	tests := []struct {
		name   string
		record func(*Recorder)
		want   error
	}{
		{"balanced", func(r *Recorder) { r.BeginFrameBuffer(fb); r.EndFrameBuffer() }, nil},
		{"end without begin", func(r *Recorder) { r.EndFrameBuffer() }, a3d.ErrUnbalancedFrameBuffer},
		{"open at end", func(r *Recorder) { r.BeginFrameBuffer(fb) }, a3d.ErrUnbalancedFrameBuffer},
		{"nested begin", func(r *Recorder) {
			r.BeginFrameBuffer(fb)
			r.BeginFrameBuffer(fb)
			r.EndFrameBuffer()
		}, a3d.ErrUnbalancedFrameBuffer},
		{"empty frame buffer", func(r *Recorder) {
			r.BeginFrameBuffer(a3d.FrameBuffer{})
			r.EndFrameBuffer()
		}, a3d.ErrUnbalancedFrameBuffer},
		{"nil color targets", func(r *Recorder) {
			r.BeginFrameBuffer(a3d.FrameBuffer{ColorTargets: []a3d.Texture{nil, nil}})
			r.EndFrameBuffer()
		}, a3d.ErrUnbalancedFrameBuffer},
		{"too many color targets", func(r *Recorder) {
			r.BeginFrameBuffer(a3d.FrameBuffer{ColorTargets: slices.Repeat([]a3d.Texture{rt}, a3d.MaxColorTargets+1)})
			r.EndFrameBuffer()
		}, a3d.ErrUnbalancedFrameBuffer},
		{"depth only", func(r *Recorder) {
			r.BeginFrameBuffer(a3d.FrameBuffer{DepthTarget: rt})
			r.EndFrameBuffer()
		}, nil},
		{"pop without push", func(r *Recorder) { r.PopMarker() }, a3d.ErrUnbalancedMarker},
		{"push without pop", func(r *Recorder) { r.PushMarker("x") }, a3d.ErrUnbalancedMarker},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newTestRecorder(t)
			rec.Begin(false)
			tt.record(rec)
			err := rec.End()
			if !errors.Is(err, tt.want) && err != tt.want {
				t.Fatalf("End() = %v, want %v", err, tt.want)
			}
			if rec.Stream().Closed() != (tt.want == nil) {
				t.Errorf("Closed() = %v", rec.Stream().Closed())
			}
		})
	}
}

func TestRecorderMarkerTruncated(t *testing.T) {
	rec := newTestRecorder(t)
	rec.Begin(false)
	rec.PushMarker(strings.Repeat("m", 200))
	rec.PopMarker()
	if err := rec.End(); err != nil {
		t.Fatal(err)
	}
	tag := rec.Stream().Records()[1].(PushMarker).Tag
	if len(tag) != a3d.MaxMarkerLength {
		t.Errorf("len(tag) = %d, want %d", len(tag), a3d.MaxMarkerLength)
	}
}

func TestRecorderIgnoresCallsOutsideRecording(t *testing.T) {
	rec := newTestRecorder(t)
	rec.DrawInstanced(3, 1, 0, 0)
	if rec.Stream().Count() != 0 {
		t.Error("call before Begin was recorded")
	}
	if err := rec.End(); !errors.Is(err, a3d.ErrNotRecording) {
		t.Errorf("End() before Begin = %v, want ErrNotRecording", err)
	}

	rec.Begin(false)
	if err := rec.End(); err != nil {
		t.Fatal(err)
	}
	n := rec.Stream().Count()
	rec.DrawInstanced(3, 1, 0, 0)
	if rec.Stream().Count() != n {
		t.Error("call after End was recorded")
	}
}

func TestRecorderBundleSplicePreservesOrder(t *testing.T) {
	bundle := newTestRecorder(t)
	bundle.Begin(true)
	bundle.DrawInstanced(3, 1, 0, 0)
	bundle.DrawInstanced(6, 1, 3, 0)
	bundle.DrawInstanced(9, 2, 9, 1)
	if err := bundle.End(); err != nil {
		t.Fatalf("bundle End() = %v", err)
	}

	main := newTestRecorder(t)
	main.Begin(false)
	main.DispatchCompute(1, 1, 1)
	if err := main.Append(bundle.Stream()); err != nil {
		t.Fatalf("Append() = %v", err)
	}
	main.DrawInstanced(1, 1, 0, 0)
	if err := main.End(); err != nil {
		t.Fatalf("End() = %v", err)
	}

	ctx := &a3dtest.Context{}
	if err := main.Stream().Replay(ctx); err != nil {
		t.Fatalf("Replay() = %v", err)
	}
	want := []string{
		"DispatchCompute(1,1,1)",
		"DrawInstanced(3,1,0,0)",
		"DrawInstanced(6,1,3,0)",
		"DrawInstanced(9,2,9,1)",
		"DrawInstanced(1,1,0,0)",
	}
	if !slices.Equal(ctx.Calls, want) {
		t.Errorf("replay = %v, want %v", ctx.Calls, want)
	}

	// The bundle stays intact for reuse.
	if bundle.Stream().Count() != 5 || !bundle.Stream().Closed() {
		t.Errorf("bundle stream changed: count %d closed %v", bundle.Stream().Count(), bundle.Stream().Closed())
	}
}

func TestRecorderReplayAllKinds(t *testing.T) {
	rec := newTestRecorder(t)
	rec.Begin(false)

	rt := a3dtest.NewTexture("rt", 8, 8)
	ds := a3dtest.NewTexture("ds", 8, 8)
	buf := a3dtest.NewBuffer("buf", 256)
	pool := &a3dtest.QueryPool{Name: "qp", N: 4}

	rec.ClearRenderTarget(rt, gputypes.Color{A: 1})
	rec.ClearDepthStencil(ds, a3d.ClearDepth|a3d.ClearStencil, 1, 0)
	rec.BeginFrameBuffer(a3d.FrameBuffer{ColorTargets: []a3d.Texture{rt}, DepthTarget: ds})
	rec.SetViewports([]a3d.Viewport{{Width: 8, Height: 8, MaxDepth: 1}})
	rec.SetScissors([]a3d.Rect{{Width: 8, Height: 8}})
	rec.SetPipelineState(&a3dtest.Pipeline{Name: "pso"})
	rec.SetDescriptorSet(&a3dtest.DescriptorSet{Name: "set"})
	rec.SetVertexBuffers(0, []a3d.Buffer{buf}, nil)
	rec.SetIndexBuffer(buf, gputypes.IndexFormatUint32, 0)
	rec.SetBlendConstant(gputypes.Color{})
	rec.SetStencilReference(7)
	rec.BeginQuery(pool, 0)
	rec.DrawInstanced(3, 1, 0, 0)
	rec.DrawIndexedInstanced(6, 1, 0, -2, 0)
	rec.EndQuery(pool, 0)
	rec.EndFrameBuffer()
	rec.DispatchCompute(2, 2, 1)
	rec.DispatchMesh(1, 1, 1)
	rec.ExecuteIndirect(a3d.IndirectDispatch, 2, buf, 0)
	rec.ResetQuery(pool, 0, 4)
	rec.ResolveQuery(pool, 0, 1, buf, 0)
	rec.TextureBarrier(rt, a3d.StateColorWrite, a3d.StateCopySrc)
	rec.BufferBarrier(buf, a3d.StateGeneral, a3d.StateCopyDst)
	rec.CopyTexture(ds, rt)
	rec.CopyTextureRegion(ds, a3d.Subresource{}, a3d.Offset3D{}, rt, a3d.Subresource{}, a3d.Offset3D{}, a3d.Extent3D{Width: 1, Height: 1, Depth: 1})
	rec.CopyBuffer(buf, buf)
	rec.CopyBufferRegion(buf, 0, buf, 128, 64)
	rec.CopyBufferToTexture(rt, a3d.Subresource{}, a3d.Offset3D{}, buf, a3d.BufferLayout{}, a3d.Extent3D{Width: 1, Height: 1, Depth: 1})
	rec.CopyTextureToBuffer(buf, a3d.BufferLayout{}, rt, a3d.Subresource{}, a3d.Offset3D{}, a3d.Extent3D{Width: 1, Height: 1, Depth: 1})
	rec.ResolveSubresource(ds, a3d.Subresource{}, rt, a3d.Subresource{})
	rec.PushMarker("frame")
	rec.PopMarker()
	rec.UpdateConstantBuffer(buf, 0, 4, []byte{1, 2, 3, 4})
	if err := rec.End(); err != nil {
		t.Fatalf("End() = %v", err)
	}

	ctx := &a3dtest.Context{}
	if err := rec.Stream().Replay(ctx); err != nil {
		t.Fatalf("Replay() = %v", err)
	}
	// Every record except Begin and End reaches the context.
	if got, want := len(ctx.Calls), rec.Stream().Count()-2; got != want {
		t.Errorf("replayed %d calls, want %d", got, want)
	}
}
