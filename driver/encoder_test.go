// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"errors"
	"fmt"
	"slices"
	"testing"
	"unsafe"

	"github.com/gogpu/a3d"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"
)

func TestEncoderTextureBarrier(t *testing.T) {
	d, _, s := newTestDevice(t)
	e := newTestEncoder(t, d)
	tex := newTestTexture(t, d, "rt")
	s.take()

	e.TextureBarrier(tex, a3d.StateUnknown, a3d.StateColorWrite)
	e.TextureBarrier(tex, a3d.StateColorWrite, a3d.StateColorWrite)
	e.TextureBarrier(tex, a3d.StateColorWrite, a3d.StateShaderRead)

	equalCalls(t, s.take(), []string{
		fmt.Sprintf("TransitionTextures(%d->%d)", gputypes.TextureUsageNone, gputypes.TextureUsageRenderAttachment),
		fmt.Sprintf("TransitionTextures(%d->%d)", gputypes.TextureUsageRenderAttachment, gputypes.TextureUsageTextureBinding),
	})
	if tex.State() != a3d.StateShaderRead {
		t.Errorf("State = %v, want ShaderRead", tex.State())
	}
}

func TestEncoderFirstBarrierStartsUndefined(t *testing.T) {
	d, _, s := newTestDevice(t)
	e := newTestEncoder(t, d)
	tex, err := d.CreateTexture(&a3d.TextureDesc{
		Width:     8,
		Height:    8,
		Format:    gputypes.TextureFormatRGBA8Unorm,
		InitState: a3d.StateShaderRead,
	})
	if err != nil {
		t.Fatal(err)
	}
	s.take()

	e.TextureBarrier(tex, a3d.StateShaderRead, a3d.StateCopyDst)
	equalCalls(t, s.take(), []string{
		fmt.Sprintf("TransitionTextures(%d->%d)", gputypes.TextureUsageNone, gputypes.TextureUsageCopyDst),
	})
}

func TestEncoderBarrierElisionAllStates(t *testing.T) {
	d, _, s := newTestDevice(t)
	e := newTestEncoder(t, d)
	tex := newTestTexture(t, d, "t")
	buf := newTestBuffer(t, d, "b", 64)
	s.take()

	for st := a3d.StateUnknown; st.Valid(); st++ {
		e.TextureBarrier(tex, st, st)
		e.BufferBarrier(buf, st, st)
	}
	if calls := s.take(); len(calls) != 0 {
		t.Errorf("same-state barriers reached hal: %q", calls)
	}
}

func TestEncoderFrameBufferReappliesState(t *testing.T) {
	d, _, s := newTestDevice(t)
	e := newTestEncoder(t, d)
	rt := newTestTexture(t, d, "rt")
	vb := newTestBuffer(t, d, "vb", 64)
	s.take()

	e.SetPipelineState(NewRenderPipeline(&noop.Resource{}))
	e.SetViewports([]a3d.Viewport{{Width: 64, Height: 32, MaxDepth: 1}})
	e.SetVertexBuffers(0, []a3d.Buffer{vb}, nil)
	e.BeginFrameBuffer(a3d.FrameBuffer{ColorTargets: []a3d.Texture{rt}})
	e.DrawInstanced(3, 1, 0, 0)
	e.BufferBarrier(vb, a3d.StateVertexBuffer, a3d.StateCopyDst)
	e.DrawInstanced(6, 1, 0, 0)
	e.EndFrameBuffer()

	equalCalls(t, s.take(), []string{
		"BeginRenderPass(test,color:Load)",
		"SetPipeline",
		"SetViewport(0,0,64,32)",
		"SetVertexBuffer(0,0)",
		"Draw(3,1,0,0)",
		"EndRenderPass",
		fmt.Sprintf("TransitionBuffers(%d->%d)", gputypes.BufferUsageVertex, gputypes.BufferUsageCopyDst),
		"BeginRenderPass(test,color:Load)",
		"SetPipeline",
		"SetViewport(0,0,64,32)",
		"SetVertexBuffer(0,0)",
		"Draw(6,1,0,0)",
		"EndRenderPass",
	})
	if _, err := e.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
}

func TestEncoderDrawOutsideFrameBufferIgnored(t *testing.T) {
	d, _, s := newTestDevice(t)
	e := newTestEncoder(t, d)
	s.take()

	e.DrawInstanced(3, 1, 0, 0)
	e.DrawIndexedInstanced(3, 1, 0, 0, 0)
	e.DrawInstanced(0, 1, 0, 0)
	if calls := s.take(); len(calls) != 0 {
		t.Errorf("draws without frame buffer reached hal: %q", calls)
	}
}

func TestEncoderClears(t *testing.T) {
	d, _, s := newTestDevice(t)
	e := newTestEncoder(t, d)
	rt := newTestTexture(t, d, "rt")
	ds, err := d.CreateTexture(&a3d.TextureDesc{Width: 64, Height: 32, Format: gputypes.TextureFormatDepth24PlusStencil8})
	if err != nil {
		t.Fatal(err)
	}
	s.take()

	e.PushMarker("clear")
	e.ClearRenderTarget(rt, gputypes.Color{R: 1, A: 1})
	e.ClearDepthStencil(ds, a3d.ClearDepth, 1, 0)
	e.ClearDepthStencil(ds, 0, 1, 0)
	e.PopMarker()

	equalCalls(t, s.take(), []string{
		"BeginRenderPass(clear,color:Clear)",
		"EndRenderPass",
		"BeginRenderPass(clear,depth:Clear/Load)",
		"EndRenderPass",
	})
}

func TestEncoderUnbalancedFrameBuffer(t *testing.T) {
	d, _, _ := newTestDevice(t)
	e := newTestEncoder(t, d)
	e.EndFrameBuffer()
	if _, err := e.Finish(); !errors.Is(err, a3d.ErrUnbalancedFrameBuffer) {
		t.Errorf("Finish = %v, want ErrUnbalancedFrameBuffer", err)
	}
}

func TestEncoderIgnoresEmptyFrameBuffer(t *testing.T) {
	d, _, s := newTestDevice(t)
	rt := newTestTexture(t, d, "rt")
	for _, fb := range []a3d.FrameBuffer{
		{},
		{ColorTargets: []a3d.Texture{nil}},
		{ColorTargets: slices.Repeat([]a3d.Texture{rt}, a3d.MaxColorTargets+1)},
	} {
		e := newTestEncoder(t, d)
		s.take()
		e.BeginFrameBuffer(fb)
		e.EndFrameBuffer()
		if s.count("BeginRenderPass") != 0 {
			t.Errorf("%d color targets: render pass begun", len(fb.ColorTargets))
		}
		if _, err := e.Finish(); !errors.Is(err, a3d.ErrUnbalancedFrameBuffer) {
			t.Errorf("%d color targets: Finish = %v, want ErrUnbalancedFrameBuffer", len(fb.ColorTargets), err)
		}
	}
}

func TestEncoderUnbalancedMarker(t *testing.T) {
	d, _, _ := newTestDevice(t)
	e := newTestEncoder(t, d)
	e.PopMarker()
	if !errors.Is(e.Err(), a3d.ErrUnbalancedMarker) {
		t.Errorf("Err = %v, want ErrUnbalancedMarker", e.Err())
	}
}

func TestEncoderFinishWithOpenScopes(t *testing.T) {
	d, _, _ := newTestDevice(t)
	rt := newTestTexture(t, d, "rt")

	e := newTestEncoder(t, d)
	e.BeginFrameBuffer(a3d.FrameBuffer{ColorTargets: []a3d.Texture{rt}})
	if _, err := e.Finish(); !errors.Is(err, a3d.ErrUnbalancedFrameBuffer) {
		t.Errorf("Finish with open frame buffer = %v", err)
	}

	if err := e.Begin(); err != nil {
		t.Fatal(err)
	}
	e.PushMarker("frame")
	if _, err := e.Finish(); !errors.Is(err, a3d.ErrUnbalancedMarker) {
		t.Errorf("Finish with open marker = %v", err)
	}
}

func TestEncoderClearState(t *testing.T) {
	d, _, s := newTestDevice(t)
	rt := newTestTexture(t, d, "rt")
	e := newTestEncoder(t, d)
	e.SetPipelineState(NewRenderPipeline(&noop.Resource{}))
	e.BeginFrameBuffer(a3d.FrameBuffer{ColorTargets: []a3d.Texture{rt}})
	e.ClearState()
	s.take()

	e.BeginFrameBuffer(a3d.FrameBuffer{ColorTargets: []a3d.Texture{rt}})
	e.EndFrameBuffer()
	equalCalls(t, s.take(), []string{
		"BeginRenderPass(test,color:Load)",
		"EndRenderPass",
	})
	if _, err := e.Finish(); err != nil {
		t.Fatalf("Finish after ClearState = %v", err)
	}
}

func TestEncoderComputeAndIndirect(t *testing.T) {
	d, _, s := newTestDevice(t)
	e := newTestEncoder(t, d)
	rt := newTestTexture(t, d, "rt")
	args := newTestBuffer(t, d, "args", 256)
	s.take()

	e.SetPipelineState(NewComputePipeline(&noop.Resource{}))
	e.DispatchCompute(4, 2, 1)
	e.ExecuteIndirect(a3d.IndirectDispatch, 2, args, 8)
	e.DispatchMesh(1, 1, 1)
	e.BeginFrameBuffer(a3d.FrameBuffer{ColorTargets: []a3d.Texture{rt}})
	e.ExecuteIndirect(a3d.IndirectDraw, 3, args, 0)
	e.EndFrameBuffer()

	equalCalls(t, s.take(), []string{
		"BeginComputePass(test)",
		"SetComputePipeline",
		"Dispatch(4,2,1)",
		"DispatchIndirect(8)",
		"DispatchIndirect(20)",
		"EndComputePass",
		"BeginRenderPass(test,color:Load)",
		"DrawIndirect(0)",
		"DrawIndirect(16)",
		"DrawIndirect(32)",
		"EndRenderPass",
	})
}

func TestEncoderCopies(t *testing.T) {
	d, _, s := newTestDevice(t)
	e := newTestEncoder(t, d)
	src, err := d.CreateTexture(&a3d.TextureDesc{Width: 16, Height: 8, MipLevels: 2, Format: gputypes.TextureFormatRGBA8Unorm})
	if err != nil {
		t.Fatal(err)
	}
	dst, err := d.CreateTexture(&a3d.TextureDesc{Width: 16, Height: 8, MipLevels: 2, Depth: 4, Format: gputypes.TextureFormatRGBA8Unorm})
	if err != nil {
		t.Fatal(err)
	}
	a := newTestBuffer(t, d, "a", 128)
	b := newTestBuffer(t, d, "b", 64)
	s.take()

	e.CopyTexture(dst, src)
	e.CopyTextureRegion(dst, a3d.Subresource{MipLevel: 1, ArrayLayer: 2}, a3d.Offset3D{}, src,
		a3d.Subresource{}, a3d.Offset3D{}, a3d.Extent3D{Width: 4, Height: 4, Depth: 1})
	e.CopyBuffer(a, b)
	e.CopyBufferRegion(a, 16, b, 4, 8)
	e.CopyBufferRegion(a, 0, nil, 0, 8)
	e.CopyBufferRegion(a, 0, b, 0, 0)

	equalCalls(t, s.take(), []string{
		"CopyTextureToTexture(mip=0,z=0,16x8)",
		"CopyTextureToTexture(mip=1,z=0,8x4)",
		"CopyTextureToTexture(mip=0,z=2,4x4)",
		"CopyBufferToBuffer(0,0,64)",
		"CopyBufferToBuffer(4,16,8)",
	})
}

func TestEncoderResolveSubresource(t *testing.T) {
	d, _, s := newTestDevice(t)
	e := newTestEncoder(t, d)
	ms, err := d.CreateTexture(&a3d.TextureDesc{Width: 8, Height: 8, SampleCount: 4, Format: gputypes.TextureFormatRGBA8Unorm})
	if err != nil {
		t.Fatal(err)
	}
	ss := newTestTexture(t, d, "resolved")
	s.take()

	e.ResolveSubresource(ss, a3d.Subresource{}, ms, a3d.Subresource{})
	equalCalls(t, s.take(), []string{
		"BeginRenderPass(test,color:Load+resolve)",
		"EndRenderPass",
	})
	if len(e.views) != 2 {
		t.Errorf("subresource views = %d, want 2", len(e.views))
	}
}

func TestEncoderQueries(t *testing.T) {
	d, _, s := newTestDevice(t)
	e := newTestEncoder(t, d)
	ts, err := d.CreateQueryPool(&a3d.QueryPoolDesc{Type: a3d.QueryTimestamp, Count: 4})
	if err != nil {
		t.Fatal(err)
	}
	occ, err := d.CreateQueryPool(&a3d.QueryPoolDesc{Type: a3d.QueryOcclusion, Count: 2})
	if err != nil {
		t.Fatal(err)
	}
	dst := newTestBuffer(t, d, "resolve", 64)
	s.take()

	e.EndQuery(ts, 1)
	e.EndQuery(ts, 9)
	e.BeginQuery(occ, 0)
	e.EndQuery(occ, 0)
	e.ResolveQuery(ts, 0, 4, dst, 16)
	e.ResolveQuery(ts, 2, 4, dst, 0)

	equalCalls(t, s.take(), []string{
		"BeginComputePass(timestamp=1)",
		"EndComputePass",
		"ResolveQuerySet(0,4,16)",
	})
	if len(e.queries) != 0 {
		t.Errorf("open occlusion queries = %d, want 0", len(e.queries))
	}
}

func TestEncoderUpdateConstantBuffer(t *testing.T) {
	d, _, s := newTestDevice(t)
	e := newTestEncoder(t, d)
	cb := newTestBuffer(t, d, "cb", 64)
	s.take()

	data := []byte{1, 2, 3, 4, 5, 6, 7}
	if !e.UpdateConstantBuffer(cb, 32, 6, data) {
		t.Fatal("UpdateConstantBuffer returned false")
	}
	equalCalls(t, s.take(), []string{"CopyBufferToBuffer(0,32,6)"})

	m, err := (&noop.Device{}).MapBuffer(s.src, 0, 8)
	if err != nil {
		t.Fatalf("MapBuffer: %v", err)
	}
	got := unsafe.Slice((*byte)(m.Ptr), 8)
	want := []byte{1, 2, 3, 4, 5, 6, 0, 0}
	if string(got) != string(want) {
		t.Errorf("staging = %v, want %v", got, want)
	}

	tests := []struct {
		name string
		buf  a3d.Buffer
		size uint64
		data []byte
	}{
		{"nil buffer", nil, 4, data},
		{"zero size", cb, 0, data},
		{"nil data", cb, 4, nil},
		{"short data", cb, 16, data},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if e.UpdateConstantBuffer(tt.buf, 0, tt.size, tt.data) {
				t.Error("UpdateConstantBuffer returned true")
			}
		})
	}
}

func TestEncoderRecycleAfterFinish(t *testing.T) {
	d, _, s := newTestDevice(t)
	e := newTestEncoder(t, d)
	cb := newTestBuffer(t, d, "cb", 16)
	e.UpdateConstantBuffer(cb, 0, 4, []byte{1, 2, 3, 4})
	if _, err := e.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if _, err := e.Finish(); !errors.Is(err, a3d.ErrNotRecording) {
		t.Errorf("second Finish = %v, want ErrNotRecording", err)
	}
	s.take()

	if err := e.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	equalCalls(t, s.take(), []string{"ResetAll(1)", "BeginEncoding(test)"})
	if len(e.staging) != 0 || e.Dirty() {
		t.Errorf("Begin kept staging=%d dirty=%v", len(e.staging), e.Dirty())
	}
}

func TestEncoderIgnoresWhenNotRecording(t *testing.T) {
	d, _, s := newTestDevice(t)
	e, err := NewEncoder(d, "idle")
	if err != nil {
		t.Fatal(err)
	}
	defer e.Destroy()
	tex := newTestTexture(t, d, "t")
	s.take()

	e.TextureBarrier(tex, a3d.StateUnknown, a3d.StateCopyDst)
	e.DispatchCompute(1, 1, 1)
	if calls := s.take(); len(calls) != 0 {
		t.Errorf("calls while not recording: %q", calls)
	}
	if tex.State() != a3d.StateUnknown {
		t.Errorf("State changed to %v", tex.State())
	}
}
