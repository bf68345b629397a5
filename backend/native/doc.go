// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package native provides the "native" a3d driver: command lists that
// record directly into hal command encoders.
//
// Every recording call is forwarded to a hal.CommandEncoder, and each ended
// list owns one hal.CommandBuffer. Queue.Execute hands the batch to the hal
// queue in a single submission. Bundle lists record into a command stream
// and are replayed into the live encoder by ExecuteBundle.
//
// Import the package for its side effects to register the driver:
//
//	import _ "github.com/gogpu/a3d/backend/native"
//
// The driver runs on whatever hal backends the program registers, for
// example through github.com/gogpu/wgpu/hal/allbackends.
package native
