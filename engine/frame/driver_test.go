package frame

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-rings/common"
	"github.com/Carmen-Shannon/oxy-rings/engine/mesh"
	"github.com/Carmen-Shannon/oxy-rings/engine/object_pool"
	"github.com/Carmen-Shannon/oxy-rings/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-rings/engine/renderer/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type drawCall struct {
	key       string
	instances uint32
	groups    int
	indexed   bool
	count     int
}

// recordingRenderer is a Renderer that keeps every call and the latest bytes written to each
// buffer instead of talking to a GPU.
type recordingRenderer struct {
	ops        []string
	draws      []drawCall
	sizes      []map[int]uint64
	buffers    map[string][]byte
	writeCount map[string]int

	beginErr, drawErr, writeErr, endErr, bindErr error
	onDraw                                       func()
}

func newRecordingRenderer() *recordingRenderer {
	return &recordingRenderer{
		buffers:    make(map[string][]byte),
		writeCount: make(map[string]int),
	}
}

func bufferKey(label string, target bind_group_provider.BufferTarget, binding int) string {
	return fmt.Sprintf("%s/%d/%d", label, target, binding)
}

func (r *recordingRenderer) store(key string, data []byte) {
	r.buffers[key] = append([]byte(nil), data...)
	r.writeCount[key]++
}

func (r *recordingRenderer) InitMeshBuffers(p bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	r.ops = append(r.ops, "init-mesh")
	if len(vertexData) > 0 {
		r.store(bufferKey(p.Label(), bind_group_provider.TargetVertex, 0), vertexData)
	}
	if len(indexData) > 0 {
		r.store(bufferKey(p.Label(), bind_group_provider.TargetIndex, 0), indexData)
	}
	p.SetIndexCount(indexCount)
	return nil
}

func (r *recordingRenderer) InitVertexBuffer(p bind_group_provider.BindGroupProvider, slot int, data []byte) error {
	r.ops = append(r.ops, fmt.Sprintf("init-vertex-%d", slot))
	r.store(bufferKey(p.Label(), bind_group_provider.TargetVertex, slot), data)
	return nil
}

func (r *recordingRenderer) InitBindGroup(p bind_group_provider.BindGroupProvider, key string, group int, sizes map[int]uint64) error {
	r.ops = append(r.ops, "init-bind-group")
	r.sizes = append(r.sizes, sizes)
	return r.bindErr
}

func (r *recordingRenderer) WriteBuffers(writes []bind_group_provider.BufferWrite) error {
	r.ops = append(r.ops, "write")
	if r.writeErr != nil {
		return r.writeErr
	}
	for _, w := range writes {
		r.store(bufferKey(w.Provider.Label(), w.Target, w.Binding), w.Data)
	}
	return nil
}

func (r *recordingRenderer) BeginFrame() error {
	r.ops = append(r.ops, "begin")
	return r.beginErr
}

func (r *recordingRenderer) DrawCall(key string, mp bind_group_provider.BindGroupProvider, instances uint32, groups []bind_group_provider.BindGroupProvider) error {
	r.ops = append(r.ops, "draw")
	if r.onDraw != nil {
		r.onDraw()
	}
	count := mp.VertexCount()
	if mp.Indexed() {
		count = mp.IndexCount()
	}
	r.draws = append(r.draws, drawCall{key: key, instances: instances, groups: len(groups), indexed: mp.Indexed(), count: count})
	return r.drawErr
}

func (r *recordingRenderer) EndFrame() error {
	r.ops = append(r.ops, "end")
	return r.endErr
}

func (r *recordingRenderer) Present() {
	r.ops = append(r.ops, "present")
}

func (r *recordingRenderer) reset() {
	r.ops = nil
	r.draws = nil
}

func testPool(t *testing.T, n int) object_pool.Pool {
	t.Helper()
	p, err := object_pool.NewPool(n, object_pool.WithSeed(7))
	require.NoError(t, err)
	return p
}

func testRing(t *testing.T, indexed bool) mesh.Mesh {
	t.Helper()
	m, err := mesh.GenerateRing(0.5, 0.25, 24, mesh.WithIndexed(indexed))
	require.NoError(t, err)
	return m
}

func TestDriver_FixedMode(t *testing.T) {
	r := newRecordingRenderer()
	d, err := NewDriver(r, "triangle")
	require.NoError(t, err)

	assert.Equal(t, ModeFixed, d.Mode())
	assert.Equal(t, 1, d.InstanceCount())
	assert.Nil(t, d.StaticData())
	assert.Empty(t, r.ops)

	require.NoError(t, d.Frame(1.5))
	assert.Equal(t, []string{"begin", "draw", "end", "present"}, r.ops)
	require.Len(t, r.draws, 1)
	assert.Equal(t, drawCall{key: "triangle", instances: 1, groups: 0, indexed: false, count: 3}, r.draws[0])
	assert.Equal(t, StateIdle, d.State())
	assert.Equal(t, uint64(1), d.FrameCount())
}

func TestDriver_StorageMode(t *testing.T) {
	r := newRecordingRenderer()
	pool := testPool(t, 5)
	ring := testRing(t, false)

	d, err := NewDriver(r, "storage",
		WithMode(ModeStorage),
		WithPool(pool),
		WithMesh(ring, nil),
	)
	require.NoError(t, err)

	require.Len(t, r.sizes, 1)
	assert.Equal(t, map[int]uint64{
		BindingStatic:    5 * 32,
		BindingDynamic:   5 * 8,
		BindingPositions: 144 * 8,
	}, r.sizes[0])

	wantStatic, err := layout.PackStatic(pool, layout.StorageStaticSchema)
	require.NoError(t, err)
	assert.Equal(t, wantStatic, d.StaticData())
	assert.Equal(t, wantStatic, r.buffers[bufferKey("storage Storage", bind_group_provider.TargetBinding, BindingStatic)])

	wantPositions, err := layout.PackVertices(ring, layout.VertexPositionSchema)
	require.NoError(t, err)
	assert.Equal(t, wantPositions, r.buffers[bufferKey("storage Storage", bind_group_provider.TargetBinding, BindingPositions)])

	r.reset()
	require.NoError(t, d.Frame(2))
	assert.Equal(t, []string{"begin", "write", "draw", "end", "present"}, r.ops)
	require.Len(t, r.draws, 1)
	assert.Equal(t, drawCall{key: "storage", instances: 5, groups: 1, indexed: false, count: 144}, r.draws[0])

	records, err := layout.Unpack(layout.DynamicScaleSchema, r.buffers[bufferKey("storage Storage", bind_group_provider.TargetBinding, BindingDynamic)])
	require.NoError(t, err)
	require.Len(t, records, 5)
	for i, rec := range records {
		o := pool.Object(i)
		assert.Equal(t, []float32{o.Scale / 2, o.Scale}, rec[layout.FieldScale], "slot %d", i)
	}
}

func TestDriver_StorageModeIndexed(t *testing.T) {
	r := newRecordingRenderer()
	d, err := NewDriver(r, "storage",
		WithMode(ModeStorage),
		WithPool(testPool(t, 2)),
		WithMesh(testRing(t, true), layout.VertexPositionSchema),
	)
	require.NoError(t, err)

	assert.Equal(t, 144, d.MeshProvider().IndexCount())
	_, hasVertex := r.buffers[bufferKey("storage Mesh", bind_group_provider.TargetVertex, 0)]
	assert.False(t, hasVertex, "positions come from storage, not a vertex buffer")
	assert.Equal(t, uint64(50*8), r.sizes[0][BindingPositions])

	r.reset()
	require.NoError(t, d.Frame(1))
	require.Len(t, r.draws, 1)
	assert.True(t, r.draws[0].indexed)
	assert.Equal(t, 144, r.draws[0].count)
}

func TestDriver_AspectChangeOnlyTouchesDynamic(t *testing.T) {
	r := newRecordingRenderer()
	pool := testPool(t, 4)
	d, err := NewDriver(r, "storage",
		WithMode(ModeStorage),
		WithPool(pool),
		WithMesh(testRing(t, false), nil),
	)
	require.NoError(t, err)

	staticKey := bufferKey("storage Storage", bind_group_provider.TargetBinding, BindingStatic)
	dynamicKey := bufferKey("storage Storage", bind_group_provider.TargetBinding, BindingDynamic)
	static := append([]byte(nil), r.buffers[staticKey]...)

	require.NoError(t, d.Frame(1))
	first, err := layout.Unpack(layout.DynamicScaleSchema, r.buffers[dynamicKey])
	require.NoError(t, err)

	require.NoError(t, d.Frame(0.5))
	second, err := layout.Unpack(layout.DynamicScaleSchema, r.buffers[dynamicKey])
	require.NoError(t, err)

	assert.Equal(t, static, r.buffers[staticKey])
	assert.Equal(t, 1, r.writeCount[staticKey])
	assert.Equal(t, 2, r.writeCount[dynamicKey])
	for i := range first {
		assert.NotEqual(t, first[i][layout.FieldScale][0], second[i][layout.FieldScale][0])
		assert.Equal(t, first[i][layout.FieldScale][1], second[i][layout.FieldScale][1])
	}
	assert.Equal(t, uint64(2), d.FrameCount())
}

func TestDriver_PerObjectUniformMode(t *testing.T) {
	r := newRecordingRenderer()
	pool := testPool(t, 3)
	d, err := NewDriver(r, "uniforms",
		WithMode(ModePerObjectUniform),
		WithPool(pool),
	)
	require.NoError(t, err)

	require.Len(t, r.sizes, 3)
	for _, sizes := range r.sizes {
		assert.Equal(t, map[int]uint64{BindingStatic: 32, BindingDynamic: 8}, sizes)
	}
	require.Len(t, d.BindGroups(), 3)
	for i := range 3 {
		static := r.buffers[bufferKey(fmt.Sprintf("uniforms Object %d", i), bind_group_provider.TargetBinding, BindingStatic)]
		records, err := layout.Unpack(layout.UniformStaticSchema, static)
		require.NoError(t, err)
		require.Len(t, records, 1)
		o := pool.Object(i)
		assert.Equal(t, o.Color[:], records[0][layout.FieldColor])
		assert.Equal(t, o.Offset[:], records[0][layout.FieldOffset])
	}

	r.reset()
	require.NoError(t, d.Frame(2))
	assert.Equal(t, []string{"begin", "write", "draw", "draw", "draw", "end", "present"}, r.ops)
	for _, dc := range r.draws {
		assert.Equal(t, drawCall{key: "uniforms", instances: 1, groups: 1, indexed: false, count: 3}, dc)
	}
	for i := range 3 {
		dyn := r.buffers[bufferKey(fmt.Sprintf("uniforms Object %d", i), bind_group_provider.TargetBinding, BindingDynamic)]
		records, err := layout.Unpack(layout.DynamicScaleSchema, dyn)
		require.NoError(t, err)
		o := pool.Object(i)
		assert.Equal(t, []float32{o.Scale / 2, o.Scale}, records[0][layout.FieldScale])
	}
}

func TestDriver_VertexBuffersMode(t *testing.T) {
	r := newRecordingRenderer()
	pool := testPool(t, 6)
	ring := testRing(t, true)
	d, err := NewDriver(r, "vertex",
		WithMode(ModeVertexBuffers),
		WithPool(pool),
		WithMesh(ring, layout.VertexColorSchema),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"init-mesh", "init-vertex-1", "init-vertex-2"}, r.ops)
	wantVertices, err := layout.PackVertices(ring, layout.VertexColorSchema)
	require.NoError(t, err)
	assert.Equal(t, wantVertices, r.buffers[bufferKey("vertex Mesh", bind_group_provider.TargetVertex, SlotMesh)])
	assert.Len(t, r.buffers[bufferKey("vertex Mesh", bind_group_provider.TargetVertex, SlotStatic)], 6*12)
	assert.Len(t, r.buffers[bufferKey("vertex Mesh", bind_group_provider.TargetVertex, SlotDynamic)], 6*8)

	r.reset()
	require.NoError(t, d.Frame(1))
	require.Len(t, r.draws, 1)
	assert.Equal(t, drawCall{key: "vertex", instances: 6, groups: 0, indexed: true, count: 144}, r.draws[0])
	assert.Equal(t, d.DynamicData(), r.buffers[bufferKey("vertex Mesh", bind_group_provider.TargetVertex, SlotDynamic)])
}

func TestDriver_ParallelPackerMatchesSerial(t *testing.T) {
	packer, err := layout.NewParallelPacker(4)
	require.NoError(t, err)
	defer packer.Release()

	build := func(opts ...DriverBuilderOption) Driver {
		base := []DriverBuilderOption{
			WithMode(ModeVertexBuffers),
			WithPool(testPool(t, 1000)),
			WithMesh(testRing(t, false), nil),
		}
		d, err := NewDriver(newRecordingRenderer(), "vertex", append(base, opts...)...)
		require.NoError(t, err)
		return d
	}
	serial := build()
	parallel := build(WithPacker(packer))

	require.NoError(t, serial.Frame(1.25))
	require.NoError(t, parallel.Frame(1.25))
	assert.Equal(t, serial.DynamicData(), parallel.DynamicData())
}

func TestDriver_InvalidAspect(t *testing.T) {
	for _, aspect := range []float32{0, -1, float32(math.NaN()), float32(math.Inf(1))} {
		r := newRecordingRenderer()
		d, err := NewDriver(r, "triangle")
		require.NoError(t, err)

		err = d.Frame(aspect)
		assert.True(t, errors.Is(err, common.ErrInvalidParameter), "aspect %v", aspect)
		assert.Empty(t, r.ops, "no GPU call for aspect %v", aspect)
	}
}

func TestDriver_BeginFailure(t *testing.T) {
	r := newRecordingRenderer()
	r.beginErr = fmt.Errorf("%w: surface lost", common.ErrTransientGPU)
	d, err := NewDriver(r, "triangle")
	require.NoError(t, err)

	err = d.Frame(1)
	assert.True(t, errors.Is(err, common.ErrTransientGPU))
	assert.Equal(t, []string{"begin"}, r.ops)
	assert.Equal(t, StateIdle, d.State())
	assert.Zero(t, d.FrameCount())
}

func TestDriver_FailureAfterBeginStillEndsFrame(t *testing.T) {
	drawErr := errors.New("draw rejected")
	writeErr := fmt.Errorf("%w: queue full", common.ErrTransientGPU)

	tests := map[string]struct {
		setup func(r *recordingRenderer)
		want  error
		ops   []string
	}{
		"draw fails": {
			setup: func(r *recordingRenderer) { r.drawErr = drawErr },
			want:  drawErr,
			ops:   []string{"begin", "write", "draw", "end", "present"},
		},
		"write fails": {
			setup: func(r *recordingRenderer) { r.writeErr = writeErr },
			want:  common.ErrTransientGPU,
			ops:   []string{"begin", "write", "end", "present"},
		},
		"end fails": {
			setup: func(r *recordingRenderer) { r.endErr = writeErr },
			want:  common.ErrTransientGPU,
			ops:   []string{"begin", "write", "draw", "end", "present"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			r := newRecordingRenderer()
			d, err := NewDriver(r, "storage",
				WithMode(ModeStorage),
				WithPool(testPool(t, 2)),
				WithMesh(testRing(t, false), nil),
			)
			require.NoError(t, err)
			r.reset()
			tt.setup(r)

			err = d.Frame(1)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, tt.ops, r.ops)
			assert.Equal(t, StateIdle, d.State())
			assert.Zero(t, d.FrameCount())
		})
	}
}

func TestDriver_ReentrantFrame(t *testing.T) {
	r := newRecordingRenderer()
	d, err := NewDriver(r, "triangle")
	require.NoError(t, err)

	var nested error
	r.onDraw = func() {
		assert.Equal(t, StateRendering, d.State())
		nested = d.Frame(1)
	}
	require.NoError(t, d.Frame(1))
	assert.True(t, errors.Is(nested, common.ErrFrameInProgress))
	assert.Equal(t, StateIdle, d.State())
	assert.Equal(t, uint64(1), d.FrameCount())
}

func TestNewDriver_ConfigurationErrors(t *testing.T) {
	pool := testPool(t, 2)
	ring := testRing(t, false)
	badStatic, err := layout.NewSchema("bad-static", 8, layout.WithField(layout.FieldPosition, 0, layout.Float32x2))
	require.NoError(t, err)

	tests := map[string]struct {
		key  string
		opts []DriverBuilderOption
		want error
	}{
		"empty pipeline key": {
			key:  "",
			want: common.ErrConfiguration,
		},
		"unknown mode": {
			key:  "x",
			opts: []DriverBuilderOption{WithMode(Mode(42))},
			want: common.ErrConfiguration,
		},
		"missing pool": {
			key:  "x",
			opts: []DriverBuilderOption{WithMode(ModeStorage), WithMesh(ring, nil)},
			want: common.ErrConfiguration,
		},
		"missing mesh": {
			key:  "x",
			opts: []DriverBuilderOption{WithMode(ModeVertexBuffers), WithPool(pool)},
			want: common.ErrConfiguration,
		},
		"static schema field the pool cannot fill": {
			key:  "x",
			opts: []DriverBuilderOption{WithMode(ModeStorage), WithPool(pool), WithMesh(ring, nil), WithStaticSchema(badStatic)},
			want: common.ErrConfiguration,
		},
		"zero fixed vertex count": {
			key:  "x",
			opts: []DriverBuilderOption{WithFixedVertexCount(0)},
			want: common.ErrInvalidParameter,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewDriver(newRecordingRenderer(), tt.key, tt.opts...)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestNewDriver_BindGroupFailure(t *testing.T) {
	r := newRecordingRenderer()
	r.bindErr = fmt.Errorf("%w: no group 0", common.ErrConfiguration)
	_, err := NewDriver(r, "uniforms", WithMode(ModePerObjectUniform), WithPool(testPool(t, 2)))
	assert.True(t, errors.Is(err, common.ErrConfiguration))
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeFixed, ModePerObjectUniform, ModeStorage, ModeVertexBuffers} {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMode("bogus")
	assert.True(t, errors.Is(err, common.ErrConfiguration))
	assert.Equal(t, "Mode(9)", Mode(9).String())
}
