// Package program describes each runnable tutorial program as a shader, the vertex layouts of its
// pipeline and the frame driver configuration that feeds it.
package program

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-rings/common"
	"github.com/Carmen-Shannon/oxy-rings/engine/frame"
	"github.com/Carmen-Shannon/oxy-rings/engine/mesh"
	"github.com/Carmen-Shannon/oxy-rings/engine/object_pool"
	"github.com/Carmen-Shannon/oxy-rings/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-rings/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-rings/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Program names accepted by Lookup.
const (
	Triangle      = "triangle"
	InterStage    = "inter-stage"
	Uniforms      = "uniforms"
	Storage       = "storage"
	VertexBuffers = "vertex-buffers"
	VertexColors  = "vertex-colors"
)

// Program is one entry of the catalog.
type Program struct {
	Name   string
	Shader string
	Mode   frame.Mode

	// VertexSchema is the per-vertex layout of the ring mesh, nil when the program draws no mesh.
	VertexSchema  layout.Schema
	StaticSchema  layout.Schema
	DynamicSchema layout.Schema
}

var catalog = []Program{
	{Name: Triangle, Shader: shader.Triangle, Mode: frame.ModeFixed},
	{Name: InterStage, Shader: shader.InterStage, Mode: frame.ModeFixed},
	{
		Name:          Uniforms,
		Shader:        shader.Uniforms,
		Mode:          frame.ModePerObjectUniform,
		StaticSchema:  layout.UniformStaticSchema,
		DynamicSchema: layout.DynamicScaleSchema,
	},
	{
		Name:          Storage,
		Shader:        shader.Storage,
		Mode:          frame.ModeStorage,
		VertexSchema:  layout.VertexPositionSchema,
		StaticSchema:  layout.StorageStaticSchema,
		DynamicSchema: layout.DynamicScaleSchema,
	},
	{
		Name:          VertexBuffers,
		Shader:        shader.VertexBuffers,
		Mode:          frame.ModeVertexBuffers,
		VertexSchema:  layout.VertexPositionSchema,
		StaticSchema:  layout.InstanceStaticSchema,
		DynamicSchema: layout.InstanceDynamicSchema,
	},
	{
		Name:          VertexColors,
		Shader:        shader.VertexColors,
		Mode:          frame.ModeVertexBuffers,
		VertexSchema:  layout.VertexColorSchema,
		StaticSchema:  layout.InstanceStaticSchema,
		DynamicSchema: layout.InstanceDynamicSchema,
	},
}

// Names lists the catalog in order of increasing complexity.
func Names() []string {
	names := make([]string, len(catalog))
	for i, p := range catalog {
		names[i] = p.Name
	}
	return names
}

// Lookup finds a program by name.
//
// Parameters:
//   - name: one of the program name constants
//
// Returns:
//   - Program: the program
//   - error: ErrConfiguration for an unknown name
func Lookup(name string) (Program, error) {
	i := slices.IndexFunc(catalog, func(p Program) bool { return p.Name == name })
	if i < 0 {
		return Program{}, fmt.Errorf("%w: unknown program %q, want one of %v", common.ErrConfiguration, name, Names())
	}
	return catalog[i], nil
}

// UsesMesh reports whether the program draws the ring mesh.
func (p Program) UsesMesh() bool {
	return p.Mode == frame.ModeStorage || p.Mode == frame.ModeVertexBuffers
}

// UsesPool reports whether the program draws pool objects.
func (p Program) UsesPool() bool {
	return p.Mode != frame.ModeFixed
}

// VertexLayouts returns the vertex buffer layouts of the pipeline: the mesh in slot 0, then the
// per-instance static and dynamic buffers, with shader locations assigned in that order.
//
// Returns:
//   - []wgpu.VertexBufferLayout: the layouts, nil unless the mode is ModeVertexBuffers
func (p Program) VertexLayouts() []wgpu.VertexBufferLayout {
	if p.Mode != frame.ModeVertexBuffers {
		return nil
	}
	meshLayout := p.VertexSchema.VertexBufferLayout(wgpu.VertexStepModeVertex, 0)
	staticLayout := p.StaticSchema.VertexBufferLayout(wgpu.VertexStepModeInstance, uint32(len(meshLayout.Attributes)))
	dynamicLayout := p.DynamicSchema.VertexBufferLayout(wgpu.VertexStepModeInstance,
		uint32(len(meshLayout.Attributes)+len(staticLayout.Attributes)))
	return []wgpu.VertexBufferLayout{meshLayout, staticLayout, dynamicLayout}
}

// LoadShader loads the program's embedded shader and checks that it agrees with the program's layouts.
//
// Returns:
//   - shader.Shader: the shader
//   - error: ErrConfiguration if the shader is missing or disagrees with a layout
func (p Program) LoadShader() (shader.Shader, error) {
	s, err := shader.Load(p.Shader)
	if err != nil {
		return nil, err
	}
	if err := p.CheckShader(s); err != nil {
		return nil, err
	}
	return s, nil
}

// CheckShader verifies the host layouts against the shader: uniform and storage struct sizes must equal
// the schema strides, and vertex programs must feed exactly the locations the vertex stage reads.
//
// Parameters:
//   - s: the shader
//
// Returns:
//   - error: ErrConfiguration describing the first mismatch
func (p Program) CheckShader(s shader.Shader) error {
	switch p.Mode {
	case frame.ModePerObjectUniform, frame.ModeStorage:
		if err := checkStruct(s, "StaticData", p.StaticSchema); err != nil {
			return err
		}
		if err := checkStruct(s, "DynamicData", p.DynamicSchema); err != nil {
			return err
		}
		if p.Mode == frame.ModeStorage {
			b, ok := s.BindingFromVarName("positions")
			if !ok || b.ElementSize != p.VertexSchema.Stride() {
				return fmt.Errorf("%w: program %s: positions element size does not match %s", common.ErrConfiguration, p.Name, p.VertexSchema)
			}
		}
	case frame.ModeVertexBuffers:
		var fed []int
		for _, l := range p.VertexLayouts() {
			for _, a := range l.Attributes {
				fed = append(fed, int(a.ShaderLocation))
			}
		}
		if !slices.Equal(fed, s.VertexLocations()) {
			return fmt.Errorf("%w: program %s feeds locations %v, shader reads %v", common.ErrConfiguration, p.Name, fed, s.VertexLocations())
		}
	}
	return nil
}

func checkStruct(s shader.Shader, name string, schema layout.Schema) error {
	l, ok := s.StructLayout(name)
	if !ok {
		return fmt.Errorf("%w: shader %s declares no struct %s", common.ErrConfiguration, s.Key(), name)
	}
	if l.Size != schema.Stride() {
		return fmt.Errorf("%w: shader %s struct %s is %d bytes, schema %s has stride %d",
			common.ErrConfiguration, s.Key(), name, l.Size, schema.Name(), schema.Stride())
	}
	for _, f := range schema.Fields() {
		m, ok := l.Member(f.Name)
		if !ok || m.Offset != f.Offset || m.Size != f.Encoding.Size() {
			return fmt.Errorf("%w: shader %s struct %s member %s does not match schema %s",
				common.ErrConfiguration, s.Key(), name, f.Name, schema.Name())
		}
	}
	return nil
}

// Pipeline builds the render pipeline of the program, keyed by the program name.
// Ring programs cull back faces.
//
// Parameters:
//   - s: the shader returned by LoadShader
//
// Returns:
//   - pipeline.Pipeline: the unregistered pipeline
func (p Program) Pipeline(s shader.Shader) pipeline.Pipeline {
	opts := []pipeline.PipelineBuilderOption{
		pipeline.WithShader(s),
		pipeline.WithVertexLayouts(p.VertexLayouts()...),
	}
	if p.UsesMesh() {
		// ring wedges are wound counter-clockwise, so back faces only appear if the winding breaks
		opts = append(opts,
			pipeline.WithFrontFace(wgpu.FrontFaceCCW),
			pipeline.WithCullMode(wgpu.CullModeBack),
		)
	}
	return pipeline.NewPipeline(p.Name, opts...)
}

// DriverOptions returns the frame driver options of the program.
//
// Parameters:
//   - pool: the objects, ignored by ModeFixed programs
//   - m: the ring mesh, ignored unless UsesMesh
//
// Returns:
//   - []frame.DriverBuilderOption: the options
func (p Program) DriverOptions(pool object_pool.Pool, m mesh.Mesh) []frame.DriverBuilderOption {
	opts := []frame.DriverBuilderOption{
		frame.WithMode(p.Mode),
		frame.WithLabel(p.Name),
	}
	if p.UsesPool() {
		opts = append(opts,
			frame.WithPool(pool),
			frame.WithStaticSchema(p.StaticSchema),
			frame.WithDynamicSchema(p.DynamicSchema),
		)
	}
	if p.UsesMesh() {
		opts = append(opts, frame.WithMesh(m, p.VertexSchema))
	}
	return opts
}
