package frame

import (
	"github.com/Carmen-Shannon/oxy-rings/engine/mesh"
	"github.com/Carmen-Shannon/oxy-rings/engine/object_pool"
	"github.com/Carmen-Shannon/oxy-rings/engine/renderer/layout"
)

// DriverBuilderOption is a functional option used to configure a Driver during construction.
type DriverBuilderOption func(*driver)

// WithMode sets how per-object data reaches the GPU. The default is ModeFixed.
//
// Parameters:
//   - m: the mode
//
// Returns:
//   - DriverBuilderOption: a function that sets the mode
func WithMode(m Mode) DriverBuilderOption {
	return func(d *driver) {
		d.mode = m
	}
}

// WithPool sets the objects drawn every frame. Required by every mode except ModeFixed.
//
// Parameters:
//   - p: the object pool
//
// Returns:
//   - DriverBuilderOption: a function that sets the pool
func WithPool(p object_pool.Pool) DriverBuilderOption {
	return func(d *driver) {
		d.pool = p
	}
}

// WithMesh sets the ring mesh and the layout its vertices are packed with.
// Required by ModeStorage and ModeVertexBuffers.
//
// Parameters:
//   - m: the mesh
//   - s: the vertex layout, nil for VertexPositionSchema
//
// Returns:
//   - DriverBuilderOption: a function that sets the mesh
func WithMesh(m mesh.Mesh, s layout.Schema) DriverBuilderOption {
	return func(d *driver) {
		d.mesh = &m
		d.vertexSchema = s
	}
}

// WithStaticSchema overrides the per-object static layout chosen for the mode.
//
// Parameters:
//   - s: the static layout
//
// Returns:
//   - DriverBuilderOption: a function that sets the static layout
func WithStaticSchema(s layout.Schema) DriverBuilderOption {
	return func(d *driver) {
		d.staticSchema = s
	}
}

// WithDynamicSchema overrides the per-object dynamic layout chosen for the mode.
//
// Parameters:
//   - s: the dynamic layout
//
// Returns:
//   - DriverBuilderOption: a function that sets the dynamic layout
func WithDynamicSchema(s layout.Schema) DriverBuilderOption {
	return func(d *driver) {
		d.dynamicSchema = s
	}
}

// WithFixedVertexCount sets the vertex count of shader-generated geometry used by ModeFixed and
// ModePerObjectUniform. The default is 3.
//
// Parameters:
//   - n: vertices per draw
//
// Returns:
//   - DriverBuilderOption: a function that sets the vertex count
func WithFixedVertexCount(n int) DriverBuilderOption {
	return func(d *driver) {
		d.fixedVertexCount = n
	}
}

// WithPacker sets the Packer used for the per-frame dynamic buffer. The default is layout.SerialPacker.
//
// Parameters:
//   - p: the packer
//
// Returns:
//   - DriverBuilderOption: a function that sets the packer
func WithPacker(p layout.Packer) DriverBuilderOption {
	return func(d *driver) {
		d.packer = p
	}
}

// WithLabel sets the prefix of every GPU object label. The default is the pipeline key.
//
// Parameters:
//   - label: the label
//
// Returns:
//   - DriverBuilderOption: a function that sets the label
func WithLabel(label string) DriverBuilderOption {
	return func(d *driver) {
		d.label = label
	}
}
