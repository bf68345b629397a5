// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"errors"
	"fmt"

	"github.com/gogpu/a3d"
	"github.com/gogpu/wgpu/hal"
)

var (
	// ErrNoBackend is returned when no hal backend matching the request is
	// registered. Import github.com/gogpu/wgpu/hal/allbackends or a single
	// backend package.
	ErrNoBackend = errors.New("driver: no hal backend available")

	// ErrNoAdapter is returned when the hal instance exposes no adapter.
	ErrNoAdapter = errors.New("driver: no adapter found")

	// ErrNoInstance is returned by CreateSwapChain on devices built from a
	// provider, which have no hal instance to create surfaces with.
	ErrNoInstance = errors.New("driver: device has no hal instance")

	// ErrNotHAL is returned by FromProvider when the provider's device or
	// queue is not a hal object.
	ErrNotHAL = errors.New("driver: provider does not expose hal objects")

	// ErrQueryUnsupported is returned when the backend cannot create the
	// requested query type.
	ErrQueryUnsupported = errors.New("driver: query type not supported")
)

// deviceLost wraps a native failure that leaves the device unusable.
func deviceLost(op string, err error) error {
	return &a3d.DeviceLostError{Op: op, Err: err}
}

// surfaceError maps hal surface errors to a3d errors.
func surfaceError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, hal.ErrSurfaceLost), errors.Is(err, hal.ErrSurfaceOutdated):
		return fmt.Errorf("%s: %w", op, a3d.ErrSurfaceLost)
	case errors.Is(err, hal.ErrDeviceLost):
		return deviceLost(op, err)
	case errors.Is(err, hal.ErrTimeout), errors.Is(err, hal.ErrNotReady):
		return fmt.Errorf("%s: %w", op, a3d.ErrNotReady)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
