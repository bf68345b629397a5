// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package driver implements the parts of an a3d device that both backend
// families share, on top of a github.com/gogpu/wgpu/hal device.
//
// It provides:
//   - [Device]: hal backend selection, adapter choice and resource creation
//   - [Encoder]: an a3d.Commands implementation over a hal.CommandEncoder
//     that maps the persistent-state recording model onto hal passes
//   - [Queue]: the submission batch, the frame ring and in-flight tracking
//   - [Fence]: a completion signal polled against queue submission indices
//   - [SwapChain]: surface configuration, image acquisition and present
//   - resource wrappers ([Texture], [Buffer], [Pipeline], [DescriptorSet],
//     [QueryPool]) exposing hal handles and declared states
//
// Backend packages compose these pieces; applications normally use the
// a3d interfaces instead.
package driver
