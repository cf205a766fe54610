package frame

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-rings/common"
	"github.com/Carmen-Shannon/oxy-rings/engine/mesh"
	"github.com/Carmen-Shannon/oxy-rings/engine/object_pool"
	"github.com/Carmen-Shannon/oxy-rings/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-rings/engine/renderer/layout"
)

// Binding indices of the buffers a Driver creates in bind group 0.
const (
	BindingStatic    = 0
	BindingDynamic   = 1
	BindingPositions = 2
)

// Vertex buffer slots used by ModeVertexBuffers.
const (
	SlotMesh    = 0
	SlotStatic  = 1
	SlotDynamic = 2
)

// driver is the implementation of the Driver interface.
type driver struct {
	renderer    Renderer
	pipelineKey string
	label       string
	mode        Mode

	pool             object_pool.Pool
	mesh             *mesh.Mesh
	vertexSchema     layout.Schema
	staticSchema     layout.Schema
	dynamicSchema    layout.Schema
	fixedVertexCount int
	packer           layout.Packer

	meshProvider bind_group_provider.BindGroupProvider
	bindGroups   []bind_group_provider.BindGroupProvider
	// drawGroups holds the bind groups of every draw of a frame, one entry per draw.
	drawGroups [][]bind_group_provider.BindGroupProvider

	staticData    []byte
	dynamicValues [][2]float32
	// dynamicData is the host mirror of the dynamic buffer, rewritten every frame.
	dynamicData []byte
	writes      []bind_group_provider.BufferWrite

	state      State
	frameCount uint64
}

// Driver runs the per-frame sequence for one pipeline: recompute the per-object dynamic values for
// the current aspect ratio, pack them into a host mirror, queue the write to the GPU, record the
// draw and submit and present the frame. All GPU resources the mode needs are created and filled
// once by NewDriver.
type Driver interface {
	// Frame renders one frame.
	//
	// Parameters:
	//   - aspect: the surface width divided by its height, finite and positive
	//
	// Returns:
	//   - error: ErrFrameInProgress if a frame is already being rendered, ErrInvalidParameter for a bad
	//     aspect ratio, or the wrapped renderer error. The frame is always ended before returning.
	Frame(aspect float32) error

	// State returns the current frame state.
	//
	// Returns:
	//   - State: StateIdle between frames
	State() State

	// FrameCount returns the number of frames rendered without error.
	//
	// Returns:
	//   - uint64: the frame count
	FrameCount() uint64

	// Mode returns the mode the driver was created with.
	//
	// Returns:
	//   - Mode: the mode
	Mode() Mode

	// PipelineKey returns the pipeline every draw uses.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// InstanceCount returns the number of objects drawn every frame.
	//
	// Returns:
	//   - int: 1 for ModeFixed, the pool size otherwise
	InstanceCount() int

	// StaticData returns the packed static buffer uploaded at setup. It must not be modified.
	//
	// Returns:
	//   - []byte: the bytes, nil for ModeFixed
	StaticData() []byte

	// DynamicData returns the host mirror of the dynamic buffer as written by the last frame.
	// It must not be modified.
	//
	// Returns:
	//   - []byte: the bytes, nil for ModeFixed
	DynamicData() []byte

	// MeshProvider returns the provider holding the vertex and index buffers of every draw.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the provider
	MeshProvider() bind_group_provider.BindGroupProvider

	// BindGroups returns the providers holding the bind groups the driver created.
	//
	// Returns:
	//   - []bind_group_provider.BindGroupProvider: the providers, in object order for ModePerObjectUniform
	BindGroups() []bind_group_provider.BindGroupProvider

	// Release frees every GPU buffer and bind group the driver created.
	Release()
}

var _ Driver = &driver{}

// NewDriver validates the configuration for the chosen mode, creates the GPU resources on r and
// uploads the static data.
//
// Parameters:
//   - r: the renderer, with pipelineKey already registered
//   - pipelineKey: the pipeline every draw uses
//   - options: a variadic list of DriverBuilderOption functions
//
// Returns:
//   - Driver: the driver, idle
//   - error: ErrConfiguration for an incomplete or inconsistent configuration, or the renderer error
func NewDriver(r Renderer, pipelineKey string, options ...DriverBuilderOption) (Driver, error) {
	d := &driver{
		renderer:         r,
		pipelineKey:      pipelineKey,
		mode:             ModeFixed,
		fixedVertexCount: 3,
		packer:           layout.SerialPacker,
	}
	for _, opt := range options {
		opt(d)
	}
	if d.label == "" {
		d.label = pipelineKey
	}

	if err := d.validate(); err != nil {
		return nil, fmt.Errorf("driver %s: %w", d.label, err)
	}
	if err := d.setup(); err != nil {
		d.Release()
		return nil, fmt.Errorf("driver %s: %w", d.label, err)
	}

	common.Logger().Debug("frame driver created",
		"label", d.label,
		"mode", d.mode.String(),
		"instances", d.InstanceCount(),
	)
	return d, nil
}

// validate fills in the mode's default layouts and checks every input the mode needs.
func (d *driver) validate() error {
	if d.renderer == nil {
		return fmt.Errorf("%w: nil renderer", common.ErrConfiguration)
	}
	if d.pipelineKey == "" {
		return fmt.Errorf("%w: empty pipeline key", common.ErrConfiguration)
	}
	if d.packer == nil {
		return fmt.Errorf("%w: nil packer", common.ErrConfiguration)
	}

	switch d.mode {
	case ModeFixed:
		if d.fixedVertexCount < 1 {
			return fmt.Errorf("%w: fixed vertex count %d", common.ErrInvalidParameter, d.fixedVertexCount)
		}
		return nil
	case ModePerObjectUniform:
		if d.fixedVertexCount < 1 {
			return fmt.Errorf("%w: fixed vertex count %d", common.ErrInvalidParameter, d.fixedVertexCount)
		}
		d.staticSchema = orDefault(d.staticSchema, layout.UniformStaticSchema)
		d.dynamicSchema = orDefault(d.dynamicSchema, layout.DynamicScaleSchema)
	case ModeStorage:
		d.staticSchema = orDefault(d.staticSchema, layout.StorageStaticSchema)
		d.dynamicSchema = orDefault(d.dynamicSchema, layout.DynamicScaleSchema)
	case ModeVertexBuffers:
		d.staticSchema = orDefault(d.staticSchema, layout.InstanceStaticSchema)
		d.dynamicSchema = orDefault(d.dynamicSchema, layout.InstanceDynamicSchema)
	default:
		return fmt.Errorf("%w: unknown mode %s", common.ErrConfiguration, d.mode)
	}

	if d.pool == nil {
		return fmt.Errorf("%w: mode %s needs an object pool", common.ErrConfiguration, d.mode)
	}
	if err := layout.CheckStaticSchema(d.staticSchema); err != nil {
		return err
	}
	if err := layout.CheckDynamicSchema(d.dynamicSchema); err != nil {
		return err
	}

	if d.mode == ModeStorage || d.mode == ModeVertexBuffers {
		if d.mesh == nil || d.mesh.VertexCount() == 0 {
			return fmt.Errorf("%w: mode %s needs a mesh", common.ErrConfiguration, d.mode)
		}
		d.vertexSchema = orDefault(d.vertexSchema, layout.VertexPositionSchema)
		if err := layout.CheckVertexSchema(d.vertexSchema); err != nil {
			return err
		}
	}
	return nil
}

func orDefault(s, def layout.Schema) layout.Schema {
	if s == nil {
		return def
	}
	return s
}

// setup creates and fills the GPU resources of the mode and prepares the per-frame writes.
func (d *driver) setup() error {
	if d.mode == ModeFixed {
		d.meshProvider = bind_group_provider.NewBindGroupProvider(d.label+" Mesh",
			bind_group_provider.WithVertexCount(d.fixedVertexCount),
		)
		d.drawGroups = [][]bind_group_provider.BindGroupProvider{nil}
		return nil
	}

	n := d.pool.Count()
	var err error
	d.staticData, err = layout.PackStatic(d.pool, d.staticSchema)
	if err != nil {
		return err
	}
	d.dynamicValues = make([][2]float32, n)
	d.dynamicData = make([]byte, d.dynamicSchema.Size(n))

	switch d.mode {
	case ModePerObjectUniform:
		return d.setupPerObjectUniform(n)
	case ModeStorage:
		return d.setupStorage(n)
	default:
		return d.setupVertexBuffers()
	}
}

func (d *driver) setupPerObjectUniform(n int) error {
	d.meshProvider = bind_group_provider.NewBindGroupProvider(d.label+" Mesh",
		bind_group_provider.WithVertexCount(d.fixedVertexCount),
	)

	staticStride := d.staticSchema.Stride()
	dynamicStride := d.dynamicSchema.Stride()
	sizes := map[int]uint64{BindingStatic: staticStride, BindingDynamic: dynamicStride}

	d.bindGroups = make([]bind_group_provider.BindGroupProvider, n)
	d.drawGroups = make([][]bind_group_provider.BindGroupProvider, n)
	d.writes = make([]bind_group_provider.BufferWrite, n)
	staticWrites := make([]bind_group_provider.BufferWrite, n)

	for i := range n {
		provider := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("%s Object %d", d.label, i))
		d.bindGroups[i] = provider
		if err := d.renderer.InitBindGroup(provider, d.pipelineKey, 0, sizes); err != nil {
			return fmt.Errorf("object %d: %w", i, err)
		}
		d.drawGroups[i] = d.bindGroups[i : i+1]

		staticWrites[i] = bind_group_provider.BufferWrite{
			Provider: provider,
			Target:   bind_group_provider.TargetBinding,
			Binding:  BindingStatic,
			Data:     d.staticData[uint64(i)*staticStride : uint64(i+1)*staticStride],
		}
		d.writes[i] = bind_group_provider.BufferWrite{
			Provider: provider,
			Target:   bind_group_provider.TargetBinding,
			Binding:  BindingDynamic,
			Data:     d.dynamicData[uint64(i)*dynamicStride : uint64(i+1)*dynamicStride],
		}
	}
	return d.renderer.WriteBuffers(staticWrites)
}

func (d *driver) setupStorage(n int) error {
	positions, err := layout.PackVertices(*d.mesh, d.vertexSchema)
	if err != nil {
		return err
	}

	d.meshProvider = bind_group_provider.NewBindGroupProvider(d.label+" Mesh",
		bind_group_provider.WithVertexCount(d.mesh.VertexCount()),
	)
	if d.mesh.Indexed() {
		// Positions are read from storage by vertex index, so only the index buffer is bound.
		if err := d.renderer.InitMeshBuffers(d.meshProvider, nil, d.mesh.IndexData(), d.mesh.IndexCount()); err != nil {
			return err
		}
	}

	provider := bind_group_provider.NewBindGroupProvider(d.label + " Storage")
	d.bindGroups = []bind_group_provider.BindGroupProvider{provider}
	d.drawGroups = [][]bind_group_provider.BindGroupProvider{d.bindGroups}
	sizes := map[int]uint64{
		BindingStatic:    uint64(len(d.staticData)),
		BindingDynamic:   uint64(len(d.dynamicData)),
		BindingPositions: uint64(len(positions)),
	}
	if err := d.renderer.InitBindGroup(provider, d.pipelineKey, 0, sizes); err != nil {
		return err
	}

	d.writes = []bind_group_provider.BufferWrite{{
		Provider: provider,
		Target:   bind_group_provider.TargetBinding,
		Binding:  BindingDynamic,
		Data:     d.dynamicData,
	}}
	return d.renderer.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: provider, Target: bind_group_provider.TargetBinding, Binding: BindingStatic, Data: d.staticData},
		{Provider: provider, Target: bind_group_provider.TargetBinding, Binding: BindingPositions, Data: positions},
	})
}

func (d *driver) setupVertexBuffers() error {
	vertices, err := layout.PackVertices(*d.mesh, d.vertexSchema)
	if err != nil {
		return err
	}

	d.meshProvider = bind_group_provider.NewBindGroupProvider(d.label+" Mesh",
		bind_group_provider.WithVertexCount(d.mesh.VertexCount()),
	)
	if err := d.renderer.InitMeshBuffers(d.meshProvider, vertices, d.mesh.IndexData(), d.mesh.IndexCount()); err != nil {
		return err
	}
	if err := d.renderer.InitVertexBuffer(d.meshProvider, SlotStatic, d.staticData); err != nil {
		return err
	}
	if err := d.renderer.InitVertexBuffer(d.meshProvider, SlotDynamic, d.dynamicData); err != nil {
		return err
	}
	d.drawGroups = [][]bind_group_provider.BindGroupProvider{nil}

	d.writes = []bind_group_provider.BufferWrite{{
		Provider: d.meshProvider,
		Target:   bind_group_provider.TargetVertex,
		Binding:  SlotDynamic,
		Data:     d.dynamicData,
	}}
	return nil
}

func (d *driver) Frame(aspect float32) error {
	if d.state == StateRendering {
		return common.ErrFrameInProgress
	}
	if !common.IsFinite(aspect) || aspect <= 0 {
		return fmt.Errorf("%w: aspect ratio %v", common.ErrInvalidParameter, aspect)
	}

	if err := d.renderer.BeginFrame(); err != nil {
		return fmt.Errorf("frame %d: begin: %w", d.frameCount, err)
	}
	d.state = StateRendering

	recordErr := d.record(aspect)
	endErr := d.renderer.EndFrame()
	d.renderer.Present()
	d.state = StateIdle

	if err := errors.Join(recordErr, endErr); err != nil {
		return fmt.Errorf("frame %d: %w", d.frameCount, err)
	}
	d.frameCount++
	return nil
}

// record updates the dynamic buffer and encodes the draws of one frame.
func (d *driver) record(aspect float32) error {
	if d.mode != ModeFixed {
		d.pool.ComputeDynamicInto(d.dynamicValues, aspect)
		if err := d.packer.PackInto(d.dynamicData, d.dynamicSchema, len(d.dynamicValues), layout.DynamicSource(d.dynamicValues)); err != nil {
			return fmt.Errorf("pack dynamic: %w", err)
		}
		if err := d.renderer.WriteBuffers(d.writes); err != nil {
			return fmt.Errorf("write dynamic: %w", err)
		}
	}

	instances := uint32(d.InstanceCount())
	if d.mode == ModePerObjectUniform {
		instances = 1
	}
	for _, groups := range d.drawGroups {
		if err := d.renderer.DrawCall(d.pipelineKey, d.meshProvider, instances, groups); err != nil {
			return fmt.Errorf("draw: %w", err)
		}
	}
	return nil
}

func (d *driver) State() State {
	return d.state
}

func (d *driver) FrameCount() uint64 {
	return d.frameCount
}

func (d *driver) Mode() Mode {
	return d.mode
}

func (d *driver) PipelineKey() string {
	return d.pipelineKey
}

func (d *driver) InstanceCount() int {
	if d.mode == ModeFixed || d.pool == nil {
		return 1
	}
	return d.pool.Count()
}

func (d *driver) StaticData() []byte {
	return d.staticData
}

func (d *driver) DynamicData() []byte {
	return d.dynamicData
}

func (d *driver) MeshProvider() bind_group_provider.BindGroupProvider {
	return d.meshProvider
}

func (d *driver) BindGroups() []bind_group_provider.BindGroupProvider {
	return d.bindGroups
}

func (d *driver) Release() {
	if d.meshProvider != nil {
		d.meshProvider.Release()
	}
	for _, bg := range d.bindGroups {
		if bg != nil {
			bg.Release()
		}
	}
}
