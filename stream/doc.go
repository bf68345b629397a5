// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package stream records command list work as a sequence of typed records
// and replays it against an immediate context.
//
// A [Stream] is an append-only log. It is open between [Stream.Reset] and
// [Stream.Close], and replayable after Close. Bundles are streams framed by
// [SubBegin] and [SubEnd] records; [Stream.Append] splices a closed bundle
// into an open stream, keeping the framing.
//
// The arena reservation given to [New] is a starting size, not a limit.
// Pushing past it grows the stream and increments [Stream.Grows].
//
// A [Recorder] is the validating front end used by command lists: it drops
// nil and empty inputs, elides barriers whose states match, truncates
// markers, and tracks frame buffer and marker balance.
//
// # Example
//
//	s, _ := stream.New(a3d.DefaultStreamCapacity)
//	rec := stream.NewRecorder(s, logger)
//	rec.Begin(false)
//	rec.DrawInstanced(3, 1, 0, 0)
//	if err := rec.End(); err != nil {
//	    return err
//	}
//	return s.Replay(immediateContext)
package stream
