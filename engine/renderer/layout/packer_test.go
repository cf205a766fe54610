package layout

import (
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-rings/common"
	"github.com/Carmen-Shannon/oxy-rings/engine/mesh"
	"github.com/Carmen-Shannon/oxy-rings/engine/object_pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedSource replays samples so pool objects can be chosen exactly.
type fixedSource struct {
	samples []float32
	next    int
}

func (s *fixedSource) Float32() float32 {
	v := s.samples[s.next%len(s.samples)]
	s.next++
	return v
}

func TestPackStaticRoundTrip(t *testing.T) {
	// color (1,0,0), offset x = -0.9 + 0.6111*1.8 = 0.2, offset y = -0.9 + (1/3)*1.8 = -0.3
	src := &fixedSource{samples: []float32{1, 0, 0, 1.1 / 1.8, 0.6 / 1.8, 0.5}}
	p, err := object_pool.NewPool(1, object_pool.WithRandomSource(src))
	require.NoError(t, err)
	obj := p.Object(0)

	data, err := PackStatic(p, StorageStaticSchema)
	require.NoError(t, err)
	require.Len(t, data, 32)
	assert.Equal(t, make([]byte, 8), data[24:32], "padding must be zero")

	recs, err := Unpack(StorageStaticSchema, data)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, []float32{1, 0, 0, 1}, recs[0][FieldColor])
	assert.Equal(t, []float32{obj.Offset[0], obj.Offset[1]}, recs[0][FieldOffset])
	assert.InDelta(t, 0.2, recs[0][FieldOffset][0], 1e-6)
	assert.InDelta(t, -0.3, recs[0][FieldOffset][1], 1e-6)
}

func TestPackStaticSlotsMatchObjects(t *testing.T) {
	p, err := object_pool.NewPool(50, object_pool.WithSeed(11))
	require.NoError(t, err)

	data, err := PackStatic(p, InstanceStaticSchema)
	require.NoError(t, err)
	require.Len(t, data, 50*12)

	recs, err := Unpack(InstanceStaticSchema, data)
	require.NoError(t, err)
	for i, rec := range recs {
		o := p.Object(i)
		for c := range 4 {
			assert.InDelta(t, o.Color[c], rec[FieldColor][c], 1.0/255, "object %d component %d", i, c)
		}
		assert.Equal(t, []float32{o.Offset[0], o.Offset[1]}, rec[FieldOffset])
	}
}

func TestPackDynamic(t *testing.T) {
	values := [][2]float32{{0.2, 0.4}, {0.1, 0.3}}
	data, err := PackDynamic(values, DynamicScaleSchema)
	require.NoError(t, err)
	require.Len(t, data, 16)

	recs, err := Unpack(DynamicScaleSchema, data)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.2, 0.4}, recs[0][FieldScale])
	assert.Equal(t, []float32{0.1, 0.3}, recs[1][FieldScale])
}

func TestPackDynamicIntoReusesBuffer(t *testing.T) {
	values := [][2]float32{{1, 2}, {3, 4}}
	dst := make([]byte, 16)
	require.NoError(t, PackDynamicInto(dst, values, InstanceDynamicSchema))
	want, err := PackDynamic(values, InstanceDynamicSchema)
	require.NoError(t, err)
	assert.Equal(t, want, dst)

	assert.ErrorIs(t, PackDynamicInto(make([]byte, 8), values, InstanceDynamicSchema), common.ErrInvalidParameter)
	assert.ErrorIs(t, PackDynamicInto(dst, values, StorageStaticSchema), common.ErrConfiguration)
}

func TestPackDynamicIntoZeroesPadding(t *testing.T) {
	s, err := NewSchema("padded", 16, WithField(FieldScale, 0, Float32x2))
	require.NoError(t, err)
	dst := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	require.NoError(t, PackDynamicInto(dst, [][2]float32{{0, 0}}, s))
	assert.Equal(t, make([]byte, 16), dst)
}

func TestPackDynamicIntoAllocsIndependentOfCount(t *testing.T) {
	allocsFor := func(n int) float64 {
		values := make([][2]float32, n)
		dst := make([]byte, n*8)
		return testing.AllocsPerRun(10, func() {
			_ = PackDynamicInto(dst, values, DynamicScaleSchema)
		})
	}
	assert.Equal(t, allocsFor(10), allocsFor(1000))
}

func TestPackVertices(t *testing.T) {
	m, err := mesh.GenerateRing(0.5, 0.25, 8, mesh.WithColorGradient(common.RGB{1, 0, 0}, common.RGB{0, 0, 1}))
	require.NoError(t, err)

	data, err := PackVertices(m, VertexColorSchema)
	require.NoError(t, err)
	require.Len(t, data, m.VertexCount()*12)
	// first vertex is on the outer edge: red as unorm8x4 after the position
	assert.Equal(t, []byte{255, 0, 0, 255}, data[8:12])

	recs, err := Unpack(VertexColorSchema, data)
	require.NoError(t, err)
	for i, v := range m.Vertices {
		assert.Equal(t, []float32{v.Position[0], v.Position[1]}, recs[i][FieldPosition])
		assert.InDelta(t, v.Color[0], recs[i][FieldColor][0], 1.0/255)
		assert.InDelta(t, v.Color[2], recs[i][FieldColor][2], 1.0/255)
		assert.Equal(t, float32(1), recs[i][FieldColor][3])
	}

	_, err = PackVertices(m, DynamicScaleSchema)
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestPackFieldsStayInsideSlot(t *testing.T) {
	s, err := NewSchema("sparse", 16, WithField("v", 4, Float32x2))
	require.NoError(t, err)
	data, err := Pack(s, 3, func(_ int, _ Field, dst []float32) error {
		dst[0], dst[1] = float32(math.NaN()), 1
		return nil
	})
	require.NoError(t, err)
	for slot := range 3 {
		base := slot * 16
		assert.Equal(t, make([]byte, 4), data[base:base+4])
		assert.Equal(t, make([]byte, 4), data[base+12:base+16])
	}
}

func TestPackSourceError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Pack(DynamicScaleSchema, 2, func(slot int, _ Field, _ []float32) error {
		if slot == 1 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)

	_, err = Pack(DynamicScaleSchema, -1, DynamicSource(nil))
	assert.ErrorIs(t, err, common.ErrInvalidParameter)
}

func TestPackDeterministic(t *testing.T) {
	p, err := object_pool.NewPool(20, object_pool.WithSeed(5))
	require.NoError(t, err)
	a, err := PackStatic(p, UniformStaticSchema)
	require.NoError(t, err)
	b, err := PackStatic(p, UniformStaticSchema)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestUnpackRejectsPartialSlot(t *testing.T) {
	_, err := Unpack(DynamicScaleSchema, make([]byte, 12))
	assert.ErrorIs(t, err, common.ErrInvalidParameter)
}

func TestParallelPackerMatchesSerial(t *testing.T) {
	p, err := object_pool.NewPool(5000, object_pool.WithSeed(99))
	require.NoError(t, err)
	values := p.ComputeDynamic(1.7)

	packer, err := NewParallelPacker(4)
	require.NoError(t, err)
	defer packer.Release()

	got := make([]byte, DynamicScaleSchema.Size(len(values)))
	require.NoError(t, packer.PackInto(got, DynamicScaleSchema, len(values), DynamicSource(values)))
	want, err := PackDynamic(values, DynamicScaleSchema)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got = make([]byte, StorageStaticSchema.Size(p.Count()))
	require.NoError(t, packer.PackInto(got, StorageStaticSchema, p.Count(), StaticSource(p)))
	want, err = PackStatic(p, StorageStaticSchema)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParallelPackerErrors(t *testing.T) {
	_, err := NewParallelPacker(0)
	assert.ErrorIs(t, err, common.ErrInvalidParameter)

	packer, err := NewParallelPacker(2)
	require.NoError(t, err)
	defer packer.Release()
	assert.ErrorIs(t, packer.PackInto(make([]byte, 4), DynamicScaleSchema, 1, DynamicSource([][2]float32{{1, 1}})), common.ErrInvalidParameter)

	boom := errors.New("boom")
	err = packer.PackInto(make([]byte, 8*1000), DynamicScaleSchema, 1000, func(slot int, _ Field, _ []float32) error {
		if slot == 999 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestParallelPackerRelease(t *testing.T) {
	p, err := object_pool.NewPool(2000, object_pool.WithSeed(7))
	require.NoError(t, err)
	values := p.ComputeDynamic(0.5)
	want, err := PackDynamic(values, DynamicScaleSchema)
	require.NoError(t, err)

	packer, err := NewParallelPacker(3)
	require.NoError(t, err)
	packer.Release()
	packer.Release()

	// packing still works after the workers are gone
	got := make([]byte, len(want))
	require.NoError(t, packer.PackInto(got, DynamicScaleSchema, len(values), DynamicSource(values)))
	assert.Equal(t, want, got)

	assert.NotPanics(t, SerialPacker.Release)
}
