// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package emulated provides the "emulated" a3d driver: command lists that
// record into a command stream and execute through a shared immediate
// context.
//
// Recording appends typed records to the list's stream.Stream and touches
// no GPU object. Queue.Submit replays the stream synchronously into the
// queue's immediate context, a hal command encoder that accumulates every
// list submitted since the last Execute. Queue.Execute flushes that context
// as one hal submission.
//
// Import the package for its side effects to register the driver:
//
//	import _ "github.com/gogpu/a3d/backend/emulated"
package emulated
