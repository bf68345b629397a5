// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/gogpu/a3d"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// spy collects native calls made by the spy encoder and passes.
type spy struct {
	mu     sync.Mutex
	calls  []string
	src    *noop.Buffer
	view   hal.TextureViewDescriptor
	layers uint32
}

func (s *spy) lastView() hal.TextureViewDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *spy) lastBarrierLayers() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layers
}

func (s *spy) lastSrc(b *noop.Buffer) {
	s.mu.Lock()
	s.src = b
	s.mu.Unlock()
}

func (s *spy) add(format string, args ...any) {
	s.mu.Lock()
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
	s.mu.Unlock()
}

func (s *spy) take() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.calls
	s.calls = nil
	return out
}

func (s *spy) count(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

type spyDevice struct {
	noop.Device
	spy *spy
}

func (d *spyDevice) CreateCommandEncoder(_ *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	return &spyEncoder{spy: d.spy}, nil
}

func (d *spyDevice) CreateTextureView(tex hal.Texture, desc *hal.TextureViewDescriptor) (hal.TextureView, error) {
	d.spy.mu.Lock()
	d.spy.view = *desc
	d.spy.mu.Unlock()
	return d.Device.CreateTextureView(tex, desc)
}

func (d *spyDevice) CreateQuerySet(_ *hal.QuerySetDescriptor) (hal.QuerySet, error) {
	return &noop.Resource{}, nil
}

type spyEncoder struct {
	noop.CommandEncoder
	spy *spy
}

func (e *spyEncoder) BeginEncoding(label string) error {
	e.spy.add("BeginEncoding(%s)", label)
	return nil
}

func (e *spyEncoder) ResetAll(bufs []hal.CommandBuffer) {
	e.spy.add("ResetAll(%d)", len(bufs))
}

func (e *spyEncoder) TransitionTextures(barriers []hal.TextureBarrier) {
	for _, b := range barriers {
		e.spy.add("TransitionTextures(%d->%d)", b.Usage.OldUsage, b.Usage.NewUsage)
		e.spy.mu.Lock()
		e.spy.layers = b.Range.ArrayLayerCount
		e.spy.mu.Unlock()
	}
}

func (e *spyEncoder) TransitionBuffers(barriers []hal.BufferBarrier) {
	for _, b := range barriers {
		e.spy.add("TransitionBuffers(%d->%d)", b.Usage.OldUsage, b.Usage.NewUsage)
	}
}

func (e *spyEncoder) CopyBufferToBuffer(src, _ hal.Buffer, regions []hal.BufferCopy) {
	for _, r := range regions {
		e.spy.add("CopyBufferToBuffer(%d,%d,%d)", r.SrcOffset, r.DstOffset, r.Size)
	}
	if b, ok := src.(*noop.Buffer); ok {
		e.spy.lastSrc(b)
	}
}

func (e *spyEncoder) CopyTextureToTexture(_, _ hal.Texture, regions []hal.TextureCopy) {
	for _, r := range regions {
		e.spy.add("CopyTextureToTexture(mip=%d,z=%d,%dx%d)", r.SrcBase.MipLevel, r.DstBase.Origin.Z, r.Size.Width, r.Size.Height)
	}
}

func (e *spyEncoder) ResolveQuerySet(_ hal.QuerySet, first, count uint32, _ hal.Buffer, off uint64) {
	e.spy.add("ResolveQuerySet(%d,%d,%d)", first, count, off)
}

func (e *spyEncoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	var b strings.Builder
	fmt.Fprintf(&b, "BeginRenderPass(%s", desc.Label)
	for _, c := range desc.ColorAttachments {
		fmt.Fprintf(&b, ",color:%s", c.LoadOp)
		if c.ResolveTarget != nil {
			b.WriteString("+resolve")
		}
	}
	if d := desc.DepthStencilAttachment; d != nil {
		fmt.Fprintf(&b, ",depth:%s/%s", d.DepthLoadOp, d.StencilLoadOp)
	}
	b.WriteString(")")
	e.spy.add("%s", b.String())
	return &spyRender{spy: e.spy}
}

func (e *spyEncoder) BeginComputePass(desc *hal.ComputePassDescriptor) hal.ComputePassEncoder {
	if tw := desc.TimestampWrites; tw != nil && tw.BeginningOfPassWriteIndex != nil {
		e.spy.add("BeginComputePass(timestamp=%d)", *tw.BeginningOfPassWriteIndex)
	} else {
		e.spy.add("BeginComputePass(%s)", desc.Label)
	}
	return &spyCompute{spy: e.spy}
}

type spyRender struct {
	noop.RenderPassEncoder
	spy *spy
}

func (r *spyRender) End() { r.spy.add("EndRenderPass") }

func (r *spyRender) SetPipeline(_ hal.RenderPipeline) { r.spy.add("SetPipeline") }

func (r *spyRender) SetViewport(x, y, w, h, _, _ float32) {
	r.spy.add("SetViewport(%g,%g,%g,%g)", x, y, w, h)
}

func (r *spyRender) SetVertexBuffer(slot uint32, _ hal.Buffer, off uint64) {
	r.spy.add("SetVertexBuffer(%d,%d)", slot, off)
}

func (r *spyRender) Draw(vc, ic, fv, fi uint32) {
	r.spy.add("Draw(%d,%d,%d,%d)", vc, ic, fv, fi)
}

func (r *spyRender) DrawIndexed(ic, inst, fi uint32, bv int32, finst uint32) {
	r.spy.add("DrawIndexed(%d,%d,%d,%d,%d)", ic, inst, fi, bv, finst)
}

func (r *spyRender) DrawIndirect(_ hal.Buffer, off uint64) {
	r.spy.add("DrawIndirect(%d)", off)
}

type spyCompute struct {
	noop.ComputePassEncoder
	spy *spy
}

func (c *spyCompute) End() { c.spy.add("EndComputePass") }

func (c *spyCompute) SetPipeline(_ hal.ComputePipeline) { c.spy.add("SetComputePipeline") }

func (c *spyCompute) Dispatch(x, y, z uint32) {
	c.spy.add("Dispatch(%d,%d,%d)", x, y, z)
}

func (c *spyCompute) DispatchIndirect(_ hal.Buffer, off uint64) {
	c.spy.add("DispatchIndirect(%d)", off)
}

// ctlQueue is a noop queue whose completion can be held back and whose
// submissions can fail.
type ctlQueue struct {
	noop.Queue
	mu        sync.Mutex
	hold      bool
	completed uint64
	submitErr error
	batches   []int
}

func (q *ctlQueue) Submit(bufs []hal.CommandBuffer) (uint64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.submitErr != nil {
		return 0, q.submitErr
	}
	q.batches = append(q.batches, len(bufs))
	return q.Queue.Submit(bufs)
}

func (q *ctlQueue) PollCompleted() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.hold {
		return q.completed
	}
	return q.Queue.PollCompleted()
}

func (q *ctlQueue) holdCompletion() {
	q.mu.Lock()
	q.hold = true
	q.completed = q.Queue.PollCompleted()
	q.mu.Unlock()
}

func (q *ctlQueue) complete() {
	q.mu.Lock()
	q.hold = false
	q.mu.Unlock()
}

func (q *ctlQueue) submitted() []int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]int(nil), q.batches...)
}

// newTestDevice builds a Device over the noop backend with a spy encoder
// and a controllable queue, in the manner of createNoopDevice.
func newTestDevice(t *testing.T, opts ...a3d.Option) (*Device, *ctlQueue, *spy) {
	t.Helper()
	cfg, err := a3d.NewConfig(&a3d.DeviceDesc{Label: t.Name()}, append([]a3d.Option{a3d.WithLogger(nil)}, opts...)...)
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	s := &spy{}
	q := &ctlQueue{}
	d := &Device{
		cfg:      cfg,
		logger:   cfg.Logger,
		instance: instance,
		adapter:  adapters[0].Adapter,
		info:     adapters[0].Info,
		limits:   gputypes.DefaultLimits(),
		device:   &spyDevice{spy: s},
		queue:    q,
		format:   gputypes.TextureFormatBGRA8Unorm,
	}
	t.Cleanup(d.Destroy)
	return d, q, s
}

func newTestTexture(t *testing.T, d *Device, label string) *Texture {
	t.Helper()
	tex, err := d.CreateTexture(&a3d.TextureDesc{
		Label:  label,
		Width:  64,
		Height: 32,
		Format: gputypes.TextureFormatRGBA8Unorm,
	})
	if err != nil {
		t.Fatalf("CreateTexture failed: %v", err)
	}
	return tex
}

func newTestBuffer(t *testing.T, d *Device, label string, size uint64) *Buffer {
	t.Helper()
	buf, err := d.CreateBuffer(&a3d.BufferDesc{Label: label, Size: size})
	if err != nil {
		t.Fatalf("CreateBuffer failed: %v", err)
	}
	return buf
}

func newTestEncoder(t *testing.T, d *Device) *Encoder {
	t.Helper()
	e, err := NewEncoder(d, "test")
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}
	if err := e.Begin(); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	t.Cleanup(e.Destroy)
	return e
}

func equalCalls(t *testing.T, got, want []string) {
	t.Helper()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("calls:\n got  %q\n want %q", got, want)
	}
}
