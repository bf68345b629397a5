// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package a3d

import "log/slog"

// Default configuration values.
const (
	DefaultMaxSubmitCount = 32
	DefaultBufferCount    = 2
	// DefaultStreamCapacity is the initial command stream reservation of
	// an emulated command list, in bytes.
	DefaultStreamCapacity = 4096

	MinBufferCount = 2
	MaxBufferCount = 3
)

// Option configures a device during creation.
//
// Example:
//
//	dev, err := a3d.NewDevice(&a3d.DeviceDesc{Driver: "emulated"},
//	    a3d.WithBufferCount(3),
//	    a3d.WithMaxSubmitCount(64),
//	)
type Option func(*Config)

// Config is the resolved device configuration handed to a driver.
type Config struct {
	Desc           DeviceDesc
	Logger         *slog.Logger
	MaxSubmitCount int
	BufferCount    uint32
	StreamCapacity int
	Label          string
}

// DefaultConfig returns the configuration used when no option is given.
func DefaultConfig() Config {
	return Config{
		MaxSubmitCount: DefaultMaxSubmitCount,
		BufferCount:    DefaultBufferCount,
		StreamCapacity: DefaultStreamCapacity,
	}
}

// NewConfig applies opts over the defaults and validates the result.
// The logger defaults to the package logger.
func NewConfig(desc *DeviceDesc, opts ...Option) (Config, error) {
	cfg := DefaultConfig()
	if desc != nil {
		cfg.Desc = *desc
		cfg.Label = desc.Label
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = Logger()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration ranges.
func (c *Config) Validate() error {
	if c.MaxSubmitCount <= 0 {
		return ErrInvalidDesc
	}
	if c.BufferCount < MinBufferCount || c.BufferCount > MaxBufferCount {
		return ErrInvalidDesc
	}
	if c.StreamCapacity <= 0 {
		return ErrInvalidDesc
	}
	return nil
}

// WithLogger sets the device logger. A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l == nil {
			l = newNopLogger()
		}
		c.Logger = l
	}
}

// WithMaxSubmitCount sets how many lists a queue batches per Execute.
func WithMaxSubmitCount(n int) Option {
	return func(c *Config) {
		c.MaxSubmitCount = n
	}
}

// WithBufferCount sets the frame ring size, 2 or 3.
func WithBufferCount(n uint32) Option {
	return func(c *Config) {
		c.BufferCount = n
	}
}

// WithStreamCapacity sets the initial command stream reservation of
// emulated command lists.
func WithStreamCapacity(n int) Option {
	return func(c *Config) {
		c.StreamCapacity = n
	}
}

// WithLabel sets the debug label of the device and its queues.
func WithLabel(label string) Option {
	return func(c *Config) {
		c.Label = label
	}
}
