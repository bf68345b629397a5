// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"

	"github.com/gogpu/a3d"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"golang.org/x/image/bmp"
)

type config struct {
	Driver  string
	Width   uint32
	Height  uint32
	Buffers uint32
	VSync   bool
}

// app owns every object the frame loop touches.
type app struct {
	dev    a3d.Device
	queue  a3d.Queue
	swap   a3d.SwapChain
	lists  []a3d.CommandList
	fences []a3d.Fence
	bundle a3d.CommandList

	// offscreen is cleared every frame and left readable for a later pass.
	offscreen a3d.Texture

	frame  int
	waited int
}

func (a *app) Init(cfg config) error {
	dev, err := a3d.NewDevice(&a3d.DeviceDesc{Driver: cfg.Driver, Label: "a3dframes"},
		a3d.WithBufferCount(cfg.Buffers))
	if err != nil {
		return err
	}
	a.dev = dev

	if a.queue, err = dev.GetQueue(a3d.CommandListDirect); err != nil {
		return err
	}
	var sync uint32
	if cfg.VSync {
		sync = 1
	}
	a.swap, err = dev.CreateSwapChain(&a3d.SwapChainDesc{
		Width:        cfg.Width,
		Height:       cfg.Height,
		SyncInterval: sync,
	})
	if err != nil {
		return err
	}

	a.offscreen, err = dev.CreateTexture(&a3d.TextureDesc{
		Label:     "offscreen",
		Width:     cfg.Width / 2,
		Height:    cfg.Height / 2,
		Format:    gputypes.TextureFormatRGBA8Unorm,
		InitState: a3d.StateShaderRead,
	})
	if err != nil {
		return err
	}

	// One list and one fence per ring slot.
	n := a.queue.BufferCount()
	for range n {
		l, err := dev.CreateCommandList(a3d.CommandListDirect)
		if err != nil {
			return err
		}
		a.lists = append(a.lists, l)
		f, err := dev.CreateFence()
		if err != nil {
			return err
		}
		a.fences = append(a.fences, f)
	}

	return a.recordBundle(cfg.Width, cfg.Height)
}

// recordBundle records the per-pass state shared by every frame.
func (a *app) recordBundle(w, h uint32) error {
	b, err := a.dev.CreateCommandList(a3d.CommandListBundle)
	if err != nil {
		return err
	}
	a.bundle = b
	if err := b.Begin(); err != nil {
		return err
	}
	b.PushMarker("viewport")
	b.SetViewports([]a3d.Viewport{{Width: float32(w), Height: float32(h), MaxDepth: 1}})
	b.SetScissors([]a3d.Rect{{Width: w, Height: h}})
	b.SetBlendConstant(gputypes.Color{R: 1, G: 1, B: 1, A: 1})
	b.SetStencilReference(0)
	b.PopMarker()
	return b.End()
}

func (a *app) Draw() error {
	slot := a.queue.CurrentBufferIndex()
	if a.fences[slot].Wait(a3d.Infinite) {
		a.waited++
	}

	back, err := a.swap.GetBuffer(a.swap.GetCurrentBufferIndex())
	if err != nil {
		return err
	}

	t := float64(a.frame) / 60
	color := gputypes.Color{
		R: 0.5 + 0.5*math.Sin(t),
		G: 0.5 + 0.5*math.Sin(t+2*math.Pi/3),
		B: 0.5 + 0.5*math.Sin(t+4*math.Pi/3),
		A: 1,
	}

	l := a.lists[slot]
	if err := l.Begin(); err != nil {
		return err
	}
	l.PushMarker(fmt.Sprintf("frame %d", a.frame))

	l.TextureBarrier(a.offscreen, a.offscreen.State(), a3d.StateColorWrite)
	l.ClearRenderTarget(a.offscreen, gputypes.Color{A: 1})
	l.TextureBarrier(a.offscreen, a3d.StateColorWrite, a3d.StateShaderRead)

	l.TextureBarrier(back, back.State(), a3d.StateColorWrite)
	l.ClearRenderTarget(back, color)
	l.BeginFrameBuffer(a3d.FrameBuffer{ColorTargets: []a3d.Texture{back}})
	l.ExecuteBundle(a.bundle)
	l.EndFrameBuffer()
	l.TextureBarrier(back, a3d.StateColorWrite, a3d.StatePresent)

	l.PopMarker()
	if err := l.End(); err != nil {
		return err
	}

	if err := a.queue.Submit(l); err != nil {
		return err
	}
	if err := a.queue.Execute(a.fences[slot]); err != nil {
		return err
	}
	if err := a.swap.Present(); err != nil {
		return err
	}
	a.frame++
	return nil
}

// Dump writes the software surface's framebuffer as a BMP image.
func (a *app) Dump(path string) error {
	sc, ok := a.swap.(interface{ Surface() hal.Surface })
	if !ok {
		return errors.New("swapchain exposes no surface")
	}
	fbs, ok := sc.Surface().(interface{ GetFramebuffer() []byte })
	if !ok {
		return errors.New("dump needs the software hal backend")
	}
	pix := fbs.GetFramebuffer()
	desc := a.swap.Desc()
	w, h := int(desc.Width), int(desc.Height)
	if len(pix) < w*h*4 {
		return fmt.Errorf("framebuffer holds %d bytes, want %d", len(pix), w*h*4)
	}
	img := &image.RGBA{Pix: pix[:w*h*4], Stride: 4 * w, Rect: image.Rect(0, 0, w, h)}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := bmp.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (a *app) PrintStats(w io.Writer) {
	caps := a.dev.Capabilities()
	fmt.Fprintf(w, "driver:      %s (native lists: %v)\n", caps.Driver, caps.NativeCommandLists)
	fmt.Fprintf(w, "adapter:     %s\n", caps.Adapter.Name)
	fmt.Fprintf(w, "frames:      %d (fence waits: %d)\n", a.frame, a.waited)
	fmt.Fprintf(w, "ring:        %d slots, current %d\n", a.queue.BufferCount(), a.queue.CurrentBufferIndex())
	if q, ok := a.queue.(interface{ Executions() uint64 }); ok {
		fmt.Fprintf(w, "executions:  %d\n", q.Executions())
	}
	if q, ok := a.queue.(interface {
		Replays() uint64
		Contexts() int
	}); ok {
		fmt.Fprintf(w, "replays:     %d on %d immediate contexts\n", q.Replays(), q.Contexts())
	}
}

// Term releases everything Init created and clears the handles. It is safe
// after a failed Init and when called twice.
func (a *app) Term() {
	if a.dev == nil {
		return
	}
	if err := a.dev.WaitIdle(); err != nil {
		a3d.Logger().Warn("a3dframes: wait idle", "err", err)
	}
	if a.bundle != nil {
		a.bundle.Release()
	}
	for _, l := range a.lists {
		l.Release()
	}
	for _, f := range a.fences {
		f.Release()
	}
	if r, ok := a.offscreen.(interface{ Release() }); ok {
		r.Release()
	}
	if a.swap != nil {
		a.swap.Release()
	}
	a.dev.Release()

	a.dev, a.queue, a.swap, a.bundle, a.offscreen = nil, nil, nil, nil, nil
	a.lists, a.fences = nil, nil
}
