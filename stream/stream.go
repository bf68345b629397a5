// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package stream

import (
	"errors"
	"log/slog"

	"github.com/gogpu/a3d"
)

var (
	// ErrZeroCapacity is returned by New and Init for a non-positive
	// reservation.
	ErrZeroCapacity = errors.New("stream: zero capacity")

	// ErrClosed is returned when pushing to a closed stream.
	ErrClosed = errors.New("stream: stream is closed")

	// ErrNilCommand is returned when pushing a nil command.
	ErrNilCommand = errors.New("stream: nil command")

	// ErrNotClosed is returned by Append when the spliced stream is open.
	ErrNotClosed = errors.New("stream: appended stream is not closed")

	// ErrBadFraming is returned by Append when the spliced stream does not
	// start with SubBegin and end with SubEnd.
	ErrBadFraming = errors.New("stream: appended stream is not framed by SubBegin/SubEnd")

	// ErrOpen is returned when replaying an open stream.
	ErrOpen = errors.New("stream: replay of open stream")

	// ErrUnbalancedFraming is returned by Replay for unmatched SubBegin or
	// SubEnd records.
	ErrUnbalancedFraming = errors.New("stream: unbalanced SubBegin/SubEnd")
)

// Stream is an append-only log of command records.
//
// A Stream is not safe for concurrent use; it is owned by one command list.
type Stream struct {
	records  []Command
	cursor   int // bytes used
	reserved int // bytes reserved
	closed   bool
	grows    int
	logger   *slog.Logger
}

// New creates an open stream with an arena reservation of capacity bytes.
func New(capacity int) (*Stream, error) {
	s := &Stream{}
	if err := s.Init(capacity); err != nil {
		return nil, err
	}
	return s, nil
}

// Init reserves capacity bytes and opens the stream, discarding any
// records.
func (s *Stream) Init(capacity int) error {
	if capacity <= 0 {
		return ErrZeroCapacity
	}
	s.records = make([]Command, 0, capacity/HeaderSize)
	s.reserved = capacity
	s.grows = 0
	s.Reset()
	return nil
}

// SetLogger sets the logger used for growth diagnostics.
func (s *Stream) SetLogger(l *slog.Logger) { s.logger = l }

// Reset rewinds the stream to empty and reopens it. The record storage is
// kept for reuse.
func (s *Stream) Reset() {
	clear(s.records)
	s.records = s.records[:0]
	s.cursor = 0
	s.closed = false
}

// Push appends cmd.
func (s *Stream) Push(cmd Command) error {
	if s.closed {
		return ErrClosed
	}
	if cmd == nil {
		return ErrNilCommand
	}
	s.push(cmd)
	return nil
}

func (s *Stream) push(cmd Command) {
	size := cmd.Size()
	if s.cursor+size > s.reserved {
		s.grow(s.cursor + size)
	}
	s.records = append(s.records, cmd)
	s.cursor += size
}

func (s *Stream) grow(need int) {
	reserved := max(2*s.reserved, need)
	s.grows++
	if s.grows == 1 {
		s.log().Debug("stream: reservation exceeded, growing",
			"from", s.reserved, "to", reserved)
	}
	s.reserved = reserved
}

func (s *Stream) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return a3d.Logger()
}

// Append splices the records of a closed bundle stream into s.
func (s *Stream) Append(other *Stream) error {
	if s.closed {
		return ErrClosed
	}
	if other == nil || !other.closed {
		return ErrNotClosed
	}
	n := len(other.records)
	if n < 2 || other.records[0].Kind() != KindSubBegin || other.records[n-1].Kind() != KindSubEnd {
		return ErrBadFraming
	}
	for _, cmd := range other.records {
		s.push(cmd)
	}
	return nil
}

// Close marks the stream replayable. Push fails until the next Reset.
func (s *Stream) Close() { s.closed = true }

// Closed reports whether the stream is closed.
func (s *Stream) Closed() bool { return s.closed }

// Records returns the recorded commands. The slice must not be modified.
func (s *Stream) Records() []Command {
	return s.records[:len(s.records):len(s.records)]
}

// Len returns the number of arena bytes used.
func (s *Stream) Len() int { return s.cursor }

// Count returns the number of records.
func (s *Stream) Count() int { return len(s.records) }

// Cap returns the current arena reservation in bytes.
func (s *Stream) Cap() int { return s.reserved }

// Grows returns how many times pushes exceeded the reservation since Init.
func (s *Stream) Grows() int { return s.grows }
