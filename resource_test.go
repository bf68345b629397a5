// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package a3d

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestDescValidate(t *testing.T) {
	rgba := gputypes.TextureFormatRGBA8Unorm
	tests := []struct {
		name string
		desc interface{ Validate() error }
		ok   bool
	}{
		{"texture", &TextureDesc{Width: 4, Height: 4, Format: rgba}, true},
		{"nil texture", (*TextureDesc)(nil), false},
		{"texture zero width", &TextureDesc{Height: 4, Format: rgba}, false},
		{"texture no format", &TextureDesc{Width: 4, Height: 4}, false},
		{"texture bad state", &TextureDesc{Width: 4, Height: 4, Format: rgba, InitState: stateCount}, false},
		{"buffer", &BufferDesc{Size: 64, InitState: StateCopyDst}, true},
		{"empty buffer", &BufferDesc{}, false},
		{"query pool", &QueryPoolDesc{Type: QueryTimestamp, Count: 8}, true},
		{"empty query pool", &QueryPoolDesc{Type: QueryTimestamp}, false},
		{"swapchain", &SwapChainDesc{Width: 8, Height: 8}, true},
		{"swapchain triple", &SwapChainDesc{Width: 8, Height: 8, BufferCount: 3}, true},
		{"swapchain one buffer", &SwapChainDesc{Width: 8, Height: 8, BufferCount: 1}, false},
		{"swapchain msaa", &SwapChainDesc{Width: 8, Height: 8, SampleCount: 4}, false},
		{"swapchain zero height", &SwapChainDesc{Width: 8}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.desc.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidDesc) {
				t.Errorf("Validate() = %v, want ErrInvalidDesc", err)
			}
		})
	}
}

func TestListStateString(t *testing.T) {
	for s, want := range map[ListState]string{
		ListInitial:    "Initial",
		ListRecording:  "Recording",
		ListExecutable: "Executable",
		ListPending:    "Pending",
	} {
		if got := s.String(); got != want {
			t.Errorf("ListState(%d).String() = %q, want %q", s, got, want)
		}
	}
}
