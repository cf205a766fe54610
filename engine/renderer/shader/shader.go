package shader

import (
	"embed"
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-rings/common"
	"github.com/cogentcore/webgpu/wgpu"
)

//go:embed assets/*.wgsl
var assets embed.FS

// Names of the embedded WGSL modules, usable with Load.
const (
	Triangle      = "triangle"
	InterStage    = "inter_stage"
	Uniforms      = "uniforms"
	Storage       = "storage"
	VertexBuffers = "vertex_buffers"
	VertexColors  = "vertex_colors"
)

// shader is the implementation of the Shader interface.
// It holds all of the persistent shader data required for pipeline creation and bind group wiring.
type shader struct {
	key                        string
	source                     string
	vertexEntryPoint           string
	fragmentEntryPoint         string
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindings                   []Binding
	structs                    map[string]StructLayout
	vertexLocations            []int
	module                     *wgpu.ShaderModuleDescriptor
}

// Shader is a parsed WGSL module holding both the vertex and the fragment entry point.
// It exposes the reflected buffer bindings and struct layouts so the renderer can build explicit
// bind group layouts and callers can check host-side packing against the shader's declarations.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// VertexEntryPoint returns the name of the @vertex function.
	//
	// Returns:
	//   - string: the entry point name
	VertexEntryPoint() string

	// FragmentEntryPoint returns the name of the @fragment function.
	//
	// Returns:
	//   - string: the entry point name
	FragmentEntryPoint() string

	// BindGroupLayoutDescriptor retrieves the layout descriptor parsed for a bind group index.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor, or an empty descriptor if the group is not declared
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors retrieves all parsed bind group layout descriptors keyed by group index.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// Bindings returns every buffer binding declared by the shader in source order.
	//
	// Returns:
	//   - []Binding: the bindings
	Bindings() []Binding

	// BindingFromVarName finds a binding by its WGSL variable name.
	//
	// Parameters:
	//   - varName: the variable name
	//
	// Returns:
	//   - Binding: the binding
	//   - bool: false if no binding has that name
	BindingFromVarName(varName string) (Binding, bool)

	// StructLayout returns the host-shareable layout of a struct declared in the shader.
	//
	// Parameters:
	//   - name: the struct name
	//
	// Returns:
	//   - StructLayout: size, alignment and member offsets
	//   - bool: false if the struct is unknown or not host-shareable
	StructLayout(name string) (StructLayout, bool)

	// VertexLocations returns the @location indices consumed by the vertex stage from vertex buffers.
	//
	// Returns:
	//   - []int: ascending locations, empty when the vertex stage reads no vertex buffers
	VertexLocations() []int

	// Module returns the wgpu.ShaderModuleDescriptor for this shader.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the shader module descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader parses a WGSL module holding a @vertex and a @fragment entry point.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and lookups
//   - source: the WGSL source
//
// Returns:
//   - Shader: the parsed shader
//   - error: ErrConfiguration if an entry point is missing or a resource declaration is unsupported
func NewShader(key string, source string) (Shader, error) {
	s := &shader{
		key:    key,
		source: source,
		module: &wgpu.ShaderModuleDescriptor{
			Label: key,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
				Code: source,
			},
		},
	}

	s.vertexEntryPoint = parseEntryPoint(source, wgpu.ShaderStageVertex)
	s.fragmentEntryPoint = parseEntryPoint(source, wgpu.ShaderStageFragment)
	if s.vertexEntryPoint == "" || s.fragmentEntryPoint == "" {
		return nil, fmt.Errorf("%w: shader %s must declare a @vertex and a @fragment entry point", common.ErrConfiguration, key)
	}

	var err error
	s.bindGroupLayoutDescriptors, s.bindings, err = parseBindGroupLayouts(source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	s.structs = newStructResolver(parseStructBlocks(stripComments(source))).resolveAll()
	s.vertexLocations = parseVertexLocations(source)
	return s, nil
}

// Load parses one of the embedded WGSL modules.
//
// Parameters:
//   - name: one of the module name constants, e.g. Storage
//
// Returns:
//   - Shader: the parsed shader, keyed by name
//   - error: ErrConfiguration if no module has that name
func Load(name string) (Shader, error) {
	data, err := assets.ReadFile("assets/" + name + ".wgsl")
	if err != nil {
		return nil, fmt.Errorf("%w: unknown shader %q", common.ErrConfiguration, name)
	}
	pp, err := NewPreProcessor()
	if err != nil {
		return nil, err
	}
	source, err := pp.Process(string(data))
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", name, err)
	}
	return NewShader(name, source)
}

// Names lists the embedded WGSL modules.
//
// Returns:
//   - []string: the module names
func Names() []string {
	return []string{Triangle, InterStage, Uniforms, Storage, VertexBuffers, VertexColors}
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) VertexEntryPoint() string {
	return s.vertexEntryPoint
}

func (s *shader) FragmentEntryPoint() string {
	return s.fragmentEntryPoint
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) Bindings() []Binding {
	return slices.Clone(s.bindings)
}

func (s *shader) BindingFromVarName(varName string) (Binding, bool) {
	for _, b := range s.bindings {
		if b.Name == varName {
			return b, true
		}
	}
	return Binding{}, false
}

func (s *shader) StructLayout(name string) (StructLayout, bool) {
	l, ok := s.structs[name]
	if !ok {
		return StructLayout{}, false
	}
	l.Members = slices.Clone(l.Members)
	return l, true
}

func (s *shader) VertexLocations() []int {
	return slices.Clone(s.vertexLocations)
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}
