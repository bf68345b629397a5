// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"

	"github.com/gogpu/a3d"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// backendOrder is the order backends are tried in when the descriptor
// leaves the backend unset.
var backendOrder = []gputypes.Backend{
	gputypes.BackendVulkan,
	gputypes.BackendMetal,
	gputypes.BackendDX12,
	gputypes.BackendGL,
	gputypes.BackendEmpty,
}

// Device owns a hal device and queue and creates resources on them.
// Backend packages embed it.
type Device struct {
	cfg    a3d.Config
	logger *slog.Logger

	instance hal.Instance
	adapter  hal.Adapter
	info     gputypes.AdapterInfo
	limits   gputypes.Limits

	device hal.Device
	queue  hal.Queue
	format gputypes.TextureFormat

	destroyed atomic.Bool
}

var _ gpucontext.DeviceProvider = (*Device)(nil)

// Open creates a hal instance for the configured backend, picks an adapter
// by power preference and opens a device on it.
func Open(cfg a3d.Config) (*Device, error) {
	candidates := backendCandidates(cfg.Desc.Backend)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoBackend, cfg.Desc.Backend)
	}

	var lastErr error
	for _, variant := range candidates {
		d, err := openBackend(variant, cfg)
		if err == nil {
			return d, nil
		}
		cfg.Logger.Debug("driver: backend unavailable", "backend", variant.String(), "err", err)
		lastErr = err
	}
	return nil, lastErr
}

func backendCandidates(want gputypes.Backend) []gputypes.Backend {
	available := hal.AvailableBackends()
	if want != gputypes.BackendEmpty {
		if slices.Contains(available, want) {
			return []gputypes.Backend{want}
		}
		return nil
	}
	var out []gputypes.Backend
	for _, b := range backendOrder {
		if slices.Contains(available, b) {
			out = append(out, b)
		}
	}
	return out
}

func openBackend(variant gputypes.Backend, cfg a3d.Config) (*Device, error) {
	backend, ok := hal.GetBackend(variant)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoBackend, variant)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{
		Backends: gputypes.BackendsAll,
		Flags:    gputypes.InstanceFlagsNone,
	})
	if err != nil {
		return nil, fmt.Errorf("driver: create %s instance: %w", variant, err)
	}

	adapters := instance.EnumerateAdapters(nil)
	exposed, ok := pickAdapter(adapters, cfg.Desc.PowerPreference)
	if !ok {
		instance.Destroy()
		return nil, fmt.Errorf("%w on %s", ErrNoAdapter, variant)
	}

	limits := exposed.Capabilities.Limits
	if limits == (gputypes.Limits{}) {
		limits = gputypes.DefaultLimits()
	}
	open, err := exposed.Adapter.Open(0, limits)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("driver: open %q: %w", exposed.Info.Name, err)
	}

	info := exposed.Info
	info.Backend = variant
	d := &Device{
		cfg:      cfg,
		logger:   cfg.Logger,
		instance: instance,
		adapter:  exposed.Adapter,
		info:     info,
		limits:   limits,
		device:   open.Device,
		queue:    open.Queue,
		format:   gputypes.TextureFormatBGRA8Unorm,
	}
	d.logger.Info("driver: device opened",
		"backend", variant.String(),
		"adapter", info.Name,
		"type", info.DeviceType.String(),
	)
	return d, nil
}

// pickAdapter returns the adapter best matching the power preference.
// Ties keep enumeration order.
func pickAdapter(adapters []hal.ExposedAdapter, pref gputypes.PowerPreference) (hal.ExposedAdapter, bool) {
	if len(adapters) == 0 {
		return hal.ExposedAdapter{}, false
	}
	best, bestScore := 0, -1
	for i, a := range adapters {
		if s := adapterScore(a.Info.DeviceType, pref); s > bestScore {
			best, bestScore = i, s
		}
	}
	return adapters[best], true
}

func adapterScore(t gputypes.DeviceType, pref gputypes.PowerPreference) int {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		if pref == gputypes.PowerPreferenceLowPower {
			return 2
		}
		return 3
	case gputypes.DeviceTypeIntegratedGPU:
		if pref == gputypes.PowerPreferenceLowPower {
			return 3
		}
		return 2
	case gputypes.DeviceTypeVirtualGPU:
		return 1
	default:
		return 0
	}
}

// FromProvider builds a device over a provider whose Device and Queue are
// hal objects. The device has no instance, so it cannot create swapchains.
// Destroy does not destroy the provider's device.
func FromProvider(p gpucontext.DeviceProvider, cfg a3d.Config) (*Device, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil provider", a3d.ErrInvalidDesc)
	}
	device, ok := p.Device().(hal.Device)
	if !ok {
		return nil, fmt.Errorf("%w: device is %T", ErrNotHAL, p.Device())
	}
	queue, ok := p.Queue().(hal.Queue)
	if !ok {
		return nil, fmt.Errorf("%w: queue is %T", ErrNotHAL, p.Queue())
	}
	adapter, _ := p.Adapter().(hal.Adapter)
	pi := p.AdapterInfo()
	d := &Device{
		cfg:     cfg,
		logger:  cfg.Logger,
		adapter: adapter,
		info: gputypes.AdapterInfo{
			Name:       pi.Name,
			DeviceType: deviceType(pi.Type),
			Backend:    cfg.Desc.Backend,
		},
		limits: gputypes.DefaultLimits(),
		device: device,
		queue:  queue,
		format: p.SurfaceFormat(),
	}
	d.logger.Info("driver: device shared from provider", "adapter", pi.Name)
	return d, nil
}

func deviceType(t gpucontext.AdapterType) gputypes.DeviceType {
	switch t {
	case gpucontext.AdapterTypeDiscrete:
		return gputypes.DeviceTypeDiscreteGPU
	case gpucontext.AdapterTypeIntegrated:
		return gputypes.DeviceTypeIntegratedGPU
	case gpucontext.AdapterTypeSoftware:
		return gputypes.DeviceTypeCPU
	default:
		return gputypes.DeviceTypeOther
	}
}

// HAL returns the hal device.
func (d *Device) HAL() hal.Device { return d.device }

// HALQueue returns the hal queue.
func (d *Device) HALQueue() hal.Queue { return d.queue }

// Config returns the configuration the device was opened with.
func (d *Device) Config() a3d.Config { return d.cfg }

// Logger returns the device logger.
func (d *Device) Logger() *slog.Logger { return d.logger }

// Backend returns the hal backend variant.
func (d *Device) Backend() gputypes.Backend { return d.info.Backend }

// Limits returns the limits the device was opened with.
func (d *Device) Limits() gputypes.Limits { return d.limits }

// Device implements gpucontext.DeviceProvider.
func (d *Device) Device() gpucontext.Device { return d.device }

// Queue implements gpucontext.DeviceProvider.
func (d *Device) Queue() gpucontext.Queue { return d.queue }

// Adapter implements gpucontext.DeviceProvider.
func (d *Device) Adapter() gpucontext.Adapter { return d.adapter }

// SurfaceFormat implements gpucontext.DeviceProvider.
func (d *Device) SurfaceFormat() gputypes.TextureFormat { return d.format }

// AdapterInfo implements gpucontext.DeviceProvider.
func (d *Device) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: d.info.Name, Type: AdapterType(d.info.DeviceType)}
}

// Capabilities fills the parts of a3d.Capabilities the device knows.
func (d *Device) Capabilities() a3d.Capabilities {
	return a3d.Capabilities{
		Driver:         d.cfg.Desc.Driver,
		Backend:        d.info.Backend,
		Adapter:        d.AdapterInfo(),
		MaxSubmitCount: d.cfg.MaxSubmitCount,
		BufferCount:    d.cfg.BufferCount,
		Limits:         d.limits,
	}
}

// CreateTexture creates a texture. Usage is derived from the initial
// state when the descriptor leaves it empty.
func (d *Device) CreateTexture(desc *a3d.TextureDesc) (*Texture, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	dc := *desc
	dc.Depth = max(dc.Depth, 1)
	dc.MipLevels = max(dc.MipLevels, 1)
	dc.SampleCount = max(dc.SampleCount, 1)
	if dc.Dimension == gputypes.TextureDimensionUndefined {
		dc.Dimension = gputypes.TextureDimension2D
	}
	usage := dc.Usage | TextureUsage(dc.InitState)
	if dc.Usage == gputypes.TextureUsageNone {
		usage |= gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst |
			gputypes.TextureUsageTextureBinding | gputypes.TextureUsageRenderAttachment
	}
	dc.Usage = usage

	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         dc.Label,
		Size:          hal.Extent3D{Width: dc.Width, Height: dc.Height, DepthOrArrayLayers: dc.Depth},
		MipLevelCount: dc.MipLevels,
		SampleCount:   dc.SampleCount,
		Dimension:     dc.Dimension,
		Format:        dc.Format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("driver: create texture %q: %w", dc.Label, err)
	}
	t := WrapTexture(d.device, tex, dc)
	t.owned = true
	return t, nil
}

// CreateBuffer creates a buffer. Usage is derived from the initial state
// when the descriptor leaves it empty.
func (d *Device) CreateBuffer(desc *a3d.BufferDesc) (*Buffer, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	dc := *desc
	usage := dc.Usage | BufferUsage(dc.InitState)
	if dc.Usage == gputypes.BufferUsageNone {
		usage |= gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst |
			gputypes.BufferUsageVertex | gputypes.BufferUsageIndex |
			gputypes.BufferUsageUniform | gputypes.BufferUsageStorage |
			gputypes.BufferUsageIndirect
	}
	dc.Usage = usage

	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{Label: dc.Label, Size: dc.Size, Usage: usage})
	if err != nil {
		return nil, fmt.Errorf("driver: create buffer %q: %w", dc.Label, err)
	}
	b := WrapBuffer(d.device, buf, dc)
	b.owned = true
	return b, nil
}

// CreateQueryPool creates a query set.
func (d *Device) CreateQueryPool(desc *a3d.QueryPoolDesc) (*QueryPool, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	set, err := d.device.CreateQuerySet(&hal.QuerySetDescriptor{
		Label: desc.Label,
		Type:  halQueryType(desc.Type),
		Count: desc.Count,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryUnsupported, err)
	}
	return &QueryPool{dev: d.device, set: set, desc: *desc}, nil
}

// CreateSurface creates a surface for a window and returns it with the
// adapter's capabilities for it.
func (d *Device) CreateSurface(w a3d.WindowHandle) (hal.Surface, *hal.SurfaceCapabilities, error) {
	if d.instance == nil {
		return nil, nil, ErrNoInstance
	}
	surface, err := d.instance.CreateSurface(w.Display, w.Window)
	if err != nil {
		return nil, nil, fmt.Errorf("driver: create surface: %w", err)
	}
	var caps *hal.SurfaceCapabilities
	if d.adapter != nil {
		caps = d.adapter.SurfaceCapabilities(surface)
	}
	if caps == nil {
		caps = &hal.SurfaceCapabilities{}
	}
	return surface, caps, nil
}

// setSurfaceFormat records the format of the last configured surface.
func (d *Device) setSurfaceFormat(f gputypes.TextureFormat) { d.format = f }

// WaitIdle blocks until the hal device is idle.
func (d *Device) WaitIdle() error {
	if err := d.device.WaitIdle(); err != nil {
		return deviceLost("device wait idle", err)
	}
	return nil
}

// Destroy destroys the device and the instance it owns. Devices built
// from a provider leave the provider's objects alone.
func (d *Device) Destroy() {
	if !d.destroyed.CompareAndSwap(false, true) {
		return
	}
	if d.instance == nil {
		return
	}
	d.device.Destroy()
	d.instance.Destroy()
	d.logger.Info("driver: device destroyed", "adapter", d.info.Name)
}
