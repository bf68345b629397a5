// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package emulated

import (
	"github.com/gogpu/a3d"
	"github.com/gogpu/a3d/driver"
	"github.com/gogpu/gpucontext"
)

// init registers the emulated driver on package import.
func init() {
	a3d.Register(a3d.DriverEmulated, func() a3d.Driver { return emulatedDriver{} })
}

type emulatedDriver struct{}

func (emulatedDriver) Name() string { return a3d.DriverEmulated }

func (emulatedDriver) Open(cfg a3d.Config) (a3d.Device, error) {
	d, err := open(cfg)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// New opens an emulated device without going through the driver registry.
func New(desc *a3d.DeviceDesc, opts ...a3d.Option) (*Device, error) {
	cfg, err := a3d.NewConfig(desc, opts...)
	if err != nil {
		return nil, err
	}
	return open(cfg)
}

// FromProvider creates an emulated device over the hal device and queue of
// p. Release leaves p's objects alive.
func FromProvider(p gpucontext.DeviceProvider, opts ...a3d.Option) (*Device, error) {
	cfg, err := a3d.NewConfig(&a3d.DeviceDesc{Driver: a3d.DriverEmulated}, opts...)
	if err != nil {
		return nil, err
	}
	d, err := driver.FromProvider(p, cfg)
	if err != nil {
		return nil, err
	}
	return newDevice(d)
}

func open(cfg a3d.Config) (*Device, error) {
	cfg.Desc.Driver = a3d.DriverEmulated
	d, err := driver.Open(cfg)
	if err != nil {
		return nil, err
	}
	return newDevice(d)
}
