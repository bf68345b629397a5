// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command a3dframes runs a headless frame loop on an a3d device.
//
// Usage:
//
//	a3dframes -driver emulated -hal software -frames 120 -dump last.bmp
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/a3d"
	_ "github.com/gogpu/a3d/backend/emulated"
	_ "github.com/gogpu/a3d/backend/native"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/gogpu/wgpu/hal/software"
)

func main() {
	var (
		drv     = flag.String("driver", "", "a3d driver: native or emulated (default: best registered)")
		halName = flag.String("hal", "software", "hal backend: noop or software")
		frames  = flag.Int("frames", 60, "number of frames to render")
		width   = flag.Uint("width", 640, "back buffer width")
		height  = flag.Uint("height", 480, "back buffer height")
		buffers = flag.Uint("buffers", a3d.DefaultBufferCount, "frame ring size (2 or 3)")
		vsync   = flag.Bool("vsync", false, "present with vertical sync")
		dump    = flag.String("dump", "", "write the last presented frame to a BMP file (software hal only)")
		verbose = flag.Bool("v", false, "log debug output")
	)
	flag.Parse()

	if *verbose {
		a3d.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	// Both hal packages register as the empty backend; the last registration wins.
	switch *halName {
	case "noop":
		hal.RegisterBackend(noop.API{})
	case "software":
		hal.RegisterBackend(software.API{})
	default:
		log.Fatalf("unknown hal backend %q", *halName)
	}

	cfg := config{
		Driver:  *drv,
		Width:   uint32(*width),
		Height:  uint32(*height),
		Buffers: uint32(*buffers),
		VSync:   *vsync,
	}
	if err := run(&app{}, cfg, *frames, *dump); err != nil {
		log.Fatal(err)
	}
}

func run(a *app, cfg config, frames int, dump string) error {
	if err := a.Init(cfg); err != nil {
		a.Term()
		return fmt.Errorf("init: %w", err)
	}
	defer a.Term()

	for range frames {
		if err := a.Draw(); err != nil {
			return fmt.Errorf("frame %d: %w", a.frame, err)
		}
	}
	if err := a.dev.WaitIdle(); err != nil {
		return err
	}
	if dump != "" {
		if err := a.Dump(dump); err != nil {
			return err
		}
		log.Printf("Frame saved to %s (%dx%d)", dump, cfg.Width, cfg.Height)
	}
	a.PrintStats(os.Stdout)
	return nil
}
