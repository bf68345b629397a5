// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package a3d

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/gpucontext"
)

// Driver names registered by the bundled backends.
const (
	DriverNative   = "native"
	DriverEmulated = "emulated"
)

// Driver opens devices of one backend family.
type Driver interface {
	// Name returns the registered driver name.
	Name() string
	// Open creates a device from a resolved configuration.
	Open(cfg Config) (Device, error)
}

// DriverFactory creates a driver instance.
type DriverFactory func() Driver

// registerMu serializes the duplicate check with the insertion.
var registerMu sync.Mutex

// drivers prefers explicit command buffers over stream emulation.
var drivers = gpucontext.NewRegistry[Driver](
	gpucontext.WithPriority(DriverNative, DriverEmulated),
)

// Register makes a driver available by name. It is typically called from
// init() in backend packages, following the database/sql driver pattern:
//
//	func init() {
//	    a3d.Register(a3d.DriverNative, func() a3d.Driver { return driver{} })
//	}
//
// Register panics if factory is nil or name is already registered.
func Register(name string, factory DriverFactory) {
	registerMu.Lock()
	defer registerMu.Unlock()

	if factory == nil {
		panic("a3d: Register factory is nil")
	}
	if drivers.Has(name) {
		panic("a3d: Register called twice for " + name)
	}
	drivers.Register(name, factory)
}

// Unregister removes a driver. It is primarily useful in tests.
func Unregister(name string) {
	registerMu.Lock()
	defer registerMu.Unlock()
	drivers.Unregister(name)
}

// Drivers returns the registered driver names, sorted.
func Drivers() []string {
	names := drivers.Available()
	sort.Strings(names)
	return names
}

// IsRegistered reports whether a driver with the given name is registered.
func IsRegistered(name string) bool { return drivers.Has(name) }

// NewDevice opens a device on the driver named by desc.Driver, or on the
// best registered driver when the name is empty.
//
// Example:
//
//	import _ "github.com/gogpu/a3d/backend/emulated"
//
//	dev, err := a3d.NewDevice(&a3d.DeviceDesc{Driver: a3d.DriverEmulated})
func NewDevice(desc *DeviceDesc, opts ...Option) (Device, error) {
	cfg, err := NewConfig(desc, opts...)
	if err != nil {
		return nil, err
	}

	name := cfg.Desc.Driver
	if name == "" {
		name = drivers.BestName()
		if name == "" {
			return nil, ErrNoDriver
		}
	}
	if !drivers.Has(name) {
		return nil, fmt.Errorf("%w %q (forgotten import?)", ErrUnknownDriver, name)
	}
	cfg.Desc.Driver = name

	dev, err := drivers.Get(name).Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("a3d: open %s device: %w", name, err)
	}
	cfg.Logger.Info("a3d: device created", "driver", name, "label", cfg.Label)
	return dev, nil
}
