package renderer

import (
	"fmt"
	"runtime"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-rings/common"
	"github.com/Carmen-Shannon/oxy-rings/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-rings/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// frameState is what BeginFrame holds until EndFrame and Present hand it back.
type frameState struct {
	encoder *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

// releaseTarget returns the surface texture and its view.
func (f *frameState) releaseTarget() {
	if f.view != nil {
		f.view.Release()
		f.view = nil
	}
	if f.texture != nil {
		f.texture.Release()
		f.texture = nil
	}
}

// wgpuBackend is the WebGPU RendererBackend. It owns one device presenting into one surface.
type wgpuBackend struct {
	mu sync.Mutex

	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	limits   wgpu.Limits

	format      wgpu.TextureFormat
	presentMode wgpu.PresentMode
	samples     common.MSAASampleCount
	clear       wgpu.Color

	// multisampled color target, resolved into the surface texture; nil when samples is MSAAOff
	msaaTexture *wgpu.Texture
	msaaView    *wgpu.TextureView

	frame frameState
}

var _ RendererBackend = &wgpuBackend{}

// newWGPURendererBackend creates the surface for surfaceDescriptor and a device on an adapter
// that can present to it. The calling goroutine stays locked to its OS thread.
//
// Parameters:
//   - surfaceDescriptor: the platform surface of the window
//   - forceFallbackAdapter: request the software adapter
//   - samples: the validated MSAA sample count
//   - clear: the render pass clear color
//
// Returns:
//   - RendererBackend: the backend, with an unconfigured surface
//   - error: ErrCapabilityUnavailable if no adapter or device is available
func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, samples common.MSAASampleCount, clear common.Color) (RendererBackend, error) {
	runtime.LockOSThread()

	b := &wgpuBackend{
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpuPresentMode(common.PresentModeVSync),
		samples:     samples,
		clear:       wgpu.Color{R: float64(clear[0]), G: float64(clear[1]), B: float64(clear[2]), A: float64(clear[3])},
		limits:      wgpu.DefaultLimits(),
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("%w: request adapter: %w", common.ErrCapabilityUnavailable, err)
	}
	b.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:          "oxy-rings device",
		RequiredLimits: &wgpu.RequiredLimits{Limits: b.limits},
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("%w: request device: %w", common.ErrCapabilityUnavailable, err)
	}
	b.device = device
	b.queue = device.GetQueue()
	return b, nil
}

// wgpuPresentMode maps a PresentMode to the WebGPU mode. FIFO is the only mode every surface supports.
func wgpuPresentMode(mode common.PresentMode) wgpu.PresentMode {
	if mode == common.PresentModeVSync {
		return wgpu.PresentModeFifo
	}
	return wgpu.PresentModeImmediate
}

func (b *wgpuBackend) MaxTextureDimension() uint32 {
	return b.limits.MaxTextureDimension2D
}

func (b *wgpuBackend) SetPresentMode(mode common.PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.presentMode = wgpuPresentMode(mode)
}

func (b *wgpuBackend) ConfigureSurface(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	caps := b.surface.GetCapabilities(b.adapter)
	if len(caps.Formats) == 0 || len(caps.AlphaModes) == 0 {
		return fmt.Errorf("%w: surface reports no formats", common.ErrCapabilityUnavailable)
	}
	b.format = caps.Formats[0]
	presentMode := b.presentMode
	if !slices.Contains(caps.PresentModes, presentMode) {
		common.Logger().Warn("present mode unsupported, using fifo", "mode", presentMode)
		presentMode = wgpu.PresentModeFifo
	}

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: presentMode,
		AlphaMode:   caps.AlphaModes[0],
	})

	if err := b.createMSAATarget(uint32(width), uint32(height)); err != nil {
		return err
	}
	common.Logger().Debug("surface configured", "width", width, "height", height, "format", b.format, "presentMode", presentMode)
	return nil
}

// createMSAATarget replaces the multisampled color target with one of the given size.
func (b *wgpuBackend) createMSAATarget(width, height uint32) error {
	b.releaseMSAATarget()
	if b.samples == common.MSAAOff {
		return nil
	}

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "msaa color target",
		Size:          wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   uint32(b.samples),
		Dimension:     wgpu.TextureDimension2D,
		Format:        b.format,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("create msaa texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("create msaa view: %w", err)
	}
	b.msaaTexture, b.msaaView = tex, view
	return nil
}

func (b *wgpuBackend) releaseMSAATarget() {
	if b.msaaView != nil {
		b.msaaView.Release()
		b.msaaView = nil
	}
	if b.msaaTexture != nil {
		b.msaaTexture.Release()
		b.msaaTexture = nil
	}
}

// colorAttachment targets the surface view directly, or through the MSAA target which resolves
// into it. Multisampled contents are discarded once resolved.
func (b *wgpuBackend) colorAttachment(surfaceView *wgpu.TextureView) wgpu.RenderPassColorAttachment {
	a := wgpu.RenderPassColorAttachment{
		View:       surfaceView,
		LoadOp:     wgpu.LoadOpClear,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: b.clear,
	}
	if b.msaaView != nil {
		a.View = b.msaaView
		a.ResolveTarget = surfaceView
		a.StoreOp = wgpu.StoreOpDiscard
	}
	return a
}

func (b *wgpuBackend) RegisterRenderPipeline(p pipeline.Pipeline) error {
	s := p.Shader()
	if s == nil {
		return fmt.Errorf("%w: pipeline %q has no shader", common.ErrConfiguration, p.PipelineKey())
	}

	module, err := b.device.CreateShaderModule(s.Module())
	if err != nil {
		return fmt.Errorf("%w: shader %s: %w", common.ErrConfiguration, s.Key(), err)
	}
	defer module.Release()

	groupLayouts, err := b.createGroupLayouts(p)
	if err != nil {
		return err
	}
	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: groupLayouts,
	})
	if err != nil {
		return fmt.Errorf("pipeline %q layout: %w", p.PipelineKey(), err)
	}
	defer layout.Release()

	rp, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey(),
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: s.VertexEntryPoint(),
			Buffers:    p.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: s.FragmentEntryPoint(),
			Targets:    []wgpu.ColorTargetState{p.ColorTarget(b.format)},
		},
		Primitive:   p.Primitive(),
		Multisample: wgpu.MultisampleState{Count: uint32(b.samples), Mask: ^uint32(0)},
	})
	if err != nil {
		return fmt.Errorf("pipeline %q: %w", p.PipelineKey(), err)
	}
	p.SetRenderPipeline(rp)
	return nil
}

// createGroupLayouts creates one bind group layout per group index up to the highest group the
// shader declares. Unused indices get an empty layout.
func (b *wgpuBackend) createGroupLayouts(p pipeline.Pipeline) ([]*wgpu.BindGroupLayout, error) {
	descriptors := p.Shader().BindGroupLayoutDescriptors()
	count := 0
	for g := range descriptors {
		count = max(count, g+1)
	}

	layouts := make([]*wgpu.BindGroupLayout, count)
	for g := range layouts {
		desc := descriptors[g]
		desc.Label = fmt.Sprintf("%s group %d", p.PipelineKey(), g)
		l, err := b.device.CreateBindGroupLayout(&desc)
		if err != nil {
			return nil, fmt.Errorf("pipeline %q group %d layout: %w", p.PipelineKey(), g, err)
		}
		layouts[g] = l
		p.SetBindGroupLayout(g, l)
	}
	return layouts, nil
}

// uploadBuffer creates a buffer holding data.
func (b *wgpuBackend) uploadBuffer(label string, usage wgpu.BufferUsage, data []byte) (*wgpu.Buffer, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	if err := b.queue.WriteBuffer(buf, 0, data); err != nil {
		buf.Release()
		return nil, fmt.Errorf("%w: upload %s: %w", common.ErrTransientGPU, label, err)
	}
	return buf, nil
}

func (b *wgpuBackend) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(vertexData) > 0 {
		buf, err := b.uploadBuffer(provider.Label()+" vertices", wgpu.BufferUsageVertex, vertexData)
		if err != nil {
			return err
		}
		provider.SetVertexBuffer(0, buf)
	}
	if len(indexData) > 0 {
		buf, err := b.uploadBuffer(provider.Label()+" indices", wgpu.BufferUsageIndex, indexData)
		if err != nil {
			return err
		}
		provider.SetIndexBuffer(buf)
	}
	provider.SetIndexCount(indexCount)
	return nil
}

func (b *wgpuBackend) InitVertexBuffer(provider bind_group_provider.BindGroupProvider, slot int, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: vertex buffer slot %d has no data", common.ErrInvalidParameter, slot)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, err := b.uploadBuffer(fmt.Sprintf("%s slot %d", provider.Label(), slot), wgpu.BufferUsageVertex, data)
	if err != nil {
		return err
	}
	provider.SetVertexBuffer(slot, buf)
	return nil
}

// bindingUsage is the buffer usage a layout entry needs.
func bindingUsage(entry wgpu.BindGroupLayoutEntry) wgpu.BufferUsage {
	if entry.Buffer.Type == wgpu.BufferBindingTypeUniform {
		return wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
	}
	return wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
}

func (b *wgpuBackend) InitBindGroup(provider bind_group_provider.BindGroupProvider, p pipeline.Pipeline, group int, sizes map[int]uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	layout := p.BindGroupLayout(group)
	if layout == nil {
		return fmt.Errorf("%w: pipeline %q has no bind group %d", common.ErrConfiguration, p.PipelineKey(), group)
	}

	layoutEntries := p.Shader().BindGroupLayoutDescriptor(group).Entries
	entries := make([]wgpu.BindGroupEntry, 0, len(layoutEntries))
	for _, le := range layoutEntries {
		binding := int(le.Binding)
		buf := provider.Buffer(binding)
		if buf == nil {
			size, ok := sizes[binding]
			if !ok {
				size = le.Buffer.MinBindingSize
			}
			if size == 0 {
				return fmt.Errorf("%w: %s binding %d has no size", common.ErrConfiguration, provider.Label(), binding)
			}
			var err error
			buf, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
				Label: fmt.Sprintf("%s binding %d", provider.Label(), binding),
				Size:  size,
				Usage: bindingUsage(le),
			})
			if err != nil {
				return fmt.Errorf("%s binding %d: %w", provider.Label(), binding, err)
			}
			provider.SetBuffer(binding, buf)
		}
		entries = append(entries, wgpu.BindGroupEntry{Binding: le.Binding, Buffer: buf, Size: wgpu.WholeSize})
	}

	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label(),
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("%s bind group: %w", provider.Label(), err)
	}
	provider.SetBindGroup(bg)
	return nil
}

func (b *wgpuBackend) WriteBuffers(writes []bind_group_provider.BufferWrite) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		buf := w.Buffer()
		if buf == nil {
			return fmt.Errorf("%w: %s has no buffer for target %d binding %d", common.ErrConfiguration, w.Provider.Label(), w.Target, w.Binding)
		}
		if err := b.queue.WriteBuffer(buf, w.Offset, w.Data); err != nil {
			return fmt.Errorf("%w: write %s: %w", common.ErrTransientGPU, w.Provider.Label(), err)
		}
	}
	return nil
}

func (b *wgpuBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// the surface hands out one texture at a time
	if b.frame.texture != nil {
		return fmt.Errorf("%w: previous frame not presented", common.ErrFrameInProgress)
	}

	tex, err := b.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("%w: acquire surface texture: %w", common.ErrTransientGPU, err)
	}
	b.frame.texture = tex
	if b.frame.view, err = tex.CreateView(nil); err != nil {
		b.frame.releaseTarget()
		return fmt.Errorf("%w: surface view: %w", common.ErrTransientGPU, err)
	}
	if b.frame.encoder, err = b.device.CreateCommandEncoder(nil); err != nil {
		b.frame.releaseTarget()
		return fmt.Errorf("%w: command encoder: %w", common.ErrTransientGPU, err)
	}

	b.frame.pass = b.frame.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{b.colorAttachment(b.frame.view)},
	})
	return nil
}

func (b *wgpuBackend) DrawCall(p pipeline.Pipeline, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	pass := b.frame.pass
	if pass == nil {
		return fmt.Errorf("%w: draw outside of a frame", common.ErrConfiguration)
	}
	rp := p.RenderPipeline()
	if rp == nil {
		return fmt.Errorf("%w: pipeline %q was never registered", common.ErrConfiguration, p.PipelineKey())
	}

	pass.SetPipeline(rp)
	for i, bg := range bindGroups {
		pass.SetBindGroup(uint32(i), bg.BindGroup(), nil)
	}
	for _, slot := range meshProvider.VertexBufferSlots() {
		pass.SetVertexBuffer(uint32(slot), meshProvider.VertexBuffer(slot), 0, wgpu.WholeSize)
	}
	if !meshProvider.Indexed() {
		pass.Draw(uint32(meshProvider.VertexCount()), instanceCount, 0, 0)
		return nil
	}
	pass.SetIndexBuffer(meshProvider.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	pass.DrawIndexed(uint32(meshProvider.IndexCount()), instanceCount, 0, 0, 0)
	return nil
}

func (b *wgpuBackend) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame.pass == nil {
		return nil
	}
	b.frame.pass.End()
	b.frame.pass.Release()
	b.frame.pass = nil

	commands, err := b.frame.encoder.Finish(nil)
	b.frame.encoder.Release()
	b.frame.encoder = nil
	if err != nil {
		b.frame.releaseTarget()
		return fmt.Errorf("%w: finish commands: %w", common.ErrTransientGPU, err)
	}
	b.queue.Submit(commands)
	commands.Release()
	return nil
}

func (b *wgpuBackend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame.texture == nil {
		return
	}
	b.surface.Present()
	b.frame.releaseTarget()
}

func (b *wgpuBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.frame.releaseTarget()
	b.releaseMSAATarget()
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
