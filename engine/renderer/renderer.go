package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-rings/common"
	"github.com/Carmen-Shannon/oxy-rings/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-rings/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-rings/engine/window"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu        sync.RWMutex
	pipelines map[string]pipeline.Pipeline
	backend   RendererBackend

	// builder options, read once by NewRenderer
	forceFallbackAdapter bool
	presentMode          common.PresentMode
	msaa                 common.MSAASampleCount
	clearColor           common.Color
	queued               []pipeline.Pipeline
}

// Renderer owns the GPU device presenting into a window. It keeps registered pipelines by key and
// offers the buffer and frame operations the frame driver issues. GPU buffers are created here
// and stored on BindGroupProviders, so callers only pass providers and bytes.
//
// A frame is BeginFrame, any number of DrawCall, EndFrame, then Present.
type Renderer interface {
	// Pipeline returns the registered pipeline with the given key, or nil.
	Pipeline(key string) pipeline.Pipeline

	// RegisterPipelines creates the GPU objects of each pipeline and keeps it by PipelineKey.
	// Keys already registered are skipped.
	//
	// Parameters:
	//   - pipelines: the pipelines to register
	//
	// Returns:
	//   - error: ErrConfiguration if a pipeline has no shader, or the device error
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Resize reconfigures the surface. Each dimension is clamped to [1, MaxTextureDimension] so a
	// minimized window never configures an empty surface.
	//
	// Parameters:
	//   - width, height: the framebuffer size in pixels
	//
	// Returns:
	//   - error: if the surface or the MSAA target could not be recreated
	Resize(width, height int) error

	// MaxTextureDimension returns the device's 2D texture size limit in pixels.
	MaxTextureDimension() uint32

	// InitMeshBuffers uploads mesh vertices into slot 0 and indices into the index buffer of provider.
	// indexData is empty for non-indexed meshes.
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitVertexBuffer uploads data into a new vertex buffer at slot of provider.
	InitVertexBuffer(provider bind_group_provider.BindGroupProvider, slot int, data []byte) error

	// InitBindGroup creates the buffers and bind group of one group of a registered pipeline.
	// Buffers are sized from the shader unless sizes overrides a binding, which runtime-sized
	// arrays need.
	//
	// Parameters:
	//   - provider: receives the buffers and the bind group
	//   - pipelineKey: the registered pipeline whose layout is used
	//   - group: the bind group index
	//   - sizes: buffer sizes in bytes by binding index, may be nil
	//
	// Returns:
	//   - error: ErrConfiguration for an unknown pipeline or group, or the device error
	InitBindGroup(provider bind_group_provider.BindGroupProvider, pipelineKey string, group int, sizes map[int]uint64) error

	// WriteBuffers queues the writes in order.
	//
	// Returns:
	//   - error: ErrConfiguration for a missing buffer, ErrTransientGPU if the queue rejects a write
	WriteBuffers(writes []bind_group_provider.BufferWrite) error

	// BeginFrame acquires the surface texture and opens the render pass.
	//
	// Returns:
	//   - error: ErrTransientGPU if no surface texture could be acquired
	BeginFrame() error

	// DrawCall records one instanced draw with the pipeline registered under pipelineKey. Vertex
	// buffers of meshProvider are bound by slot, and bindGroups at group 0..n-1.
	//
	// Returns:
	//   - error: ErrConfiguration for an unknown pipeline or a draw outside a frame
	DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndFrame closes the render pass and submits it.
	EndFrame() error

	// Present displays the submitted frame.
	Present()

	// Release frees every registered pipeline and the device.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer on the surface of the given window and registers any pipelines
// passed with WithPipeline.
//
// Parameters:
//   - w: the window providing the surface descriptor and initial framebuffer size
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer
//   - error: ErrCapabilityUnavailable if no adapter or device could be acquired, ErrConfiguration for an
//     unsupported MSAA count or a pipeline that fails to register
func NewRenderer(w window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		pipelines:   make(map[string]pipeline.Pipeline),
		presentMode: common.PresentModeVSync,
		msaa:        common.MSAA4x,
		clearColor:  common.ClearColor,
	}
	for _, opt := range options {
		opt(r)
	}
	if !r.msaa.Valid() {
		return nil, fmt.Errorf("%w: MSAA sample count %d, want %d or %d", common.ErrConfiguration, r.msaa, common.MSAAOff, common.MSAA4x)
	}

	backend, err := newWGPURendererBackend(w.SurfaceDescriptor(), r.forceFallbackAdapter, r.msaa, r.clearColor)
	if err != nil {
		return nil, err
	}
	r.backend = backend
	r.backend.SetPresentMode(r.presentMode)

	if err := r.Resize(w.Width(), w.Height()); err != nil {
		r.backend.Release()
		return nil, err
	}
	if err := r.RegisterPipelines(r.queued...); err != nil {
		r.Release()
		return nil, err
	}
	r.queued = nil

	common.Logger().Info("renderer ready",
		"msaa", uint32(r.msaa),
		"presentMode", r.presentMode,
		"software", r.forceFallbackAdapter,
		"maxTextureDimension", r.backend.MaxTextureDimension(),
	)
	return r, nil
}

func (r *renderer) Resize(width, height int) error {
	limit := r.backend.MaxTextureDimension()
	w, h := common.ClampDimension(width, limit), common.ClampDimension(height, limit)
	if w != width || h != height {
		common.Logger().Debug("surface size clamped", "width", width, "height", height, "clampedWidth", w, "clampedHeight", h)
	}
	return r.backend.ConfigureSurface(w, h)
}

func (r *renderer) MaxTextureDimension() uint32 {
	return r.backend.MaxTextureDimension()
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pipelines[key]
}

// registered looks up a pipeline for an operation that needs it.
func (r *renderer) registered(key string) (pipeline.Pipeline, error) {
	if p := r.Pipeline(key); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("%w: render pipeline %q is not registered", common.ErrConfiguration, key)
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, ok := r.pipelines[key]; ok {
			continue
		}
		if err := r.backend.RegisterRenderPipeline(p); err != nil {
			return fmt.Errorf("pipeline %q: %w", key, err)
		}
		r.pipelines[key] = p
		common.Logger().Debug("pipeline registered", "pipeline", key)
	}
	return nil
}

func (r *renderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	return r.backend.InitMeshBuffers(provider, vertexData, indexData, indexCount)
}

func (r *renderer) InitVertexBuffer(provider bind_group_provider.BindGroupProvider, slot int, data []byte) error {
	return r.backend.InitVertexBuffer(provider, slot, data)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, pipelineKey string, group int, sizes map[int]uint64) error {
	p, err := r.registered(pipelineKey)
	if err != nil {
		return err
	}
	return r.backend.InitBindGroup(provider, p, group, sizes)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) error {
	return r.backend.WriteBuffers(writes)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	p, err := r.registered(pipelineKey)
	if err != nil {
		return err
	}
	return r.backend.DrawCall(p, meshProvider, instanceCount, bindGroups)
}

func (r *renderer) EndFrame() error { return r.backend.EndFrame() }
func (r *renderer) Present()        { r.backend.Present() }

func (r *renderer) Release() {
	r.mu.Lock()
	for key, p := range r.pipelines {
		p.Release()
		delete(r.pipelines, key)
	}
	r.mu.Unlock()
	r.backend.Release()
}
