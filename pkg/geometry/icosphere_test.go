package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taigrr/icoviz/pkg/math3d"
)

func TestIcosphereCounts(t *testing.T) {
	center := math3d.V3(1, -2, 0.5)
	const radius = 2.5
	for level := range 7 {
		buf, err := GenerateIcosphere(center, radius, level)
		require.NoError(t, err)

		wantV := 10*int(math.Pow(4, float64(level))) + 2
		wantF := 20 * int(math.Pow(4, float64(level)))
		assert.Equal(t, wantV, buf.VertexCount(), "level %d vertices", level)
		assert.Equal(t, wantF, buf.TriangleCount(), "level %d faces", level)
		assert.Equal(t, wantV, IcosphereVertexCount(level))
		assert.Equal(t, wantF, IcosphereFaceCount(level))
		assert.Len(t, buf.Normals, len(buf.Positions))
		require.NoError(t, buf.Validate())

		// midpoints are pushed back out to the radius at every level
		for i := range buf.VertexCount() {
			p := buf.Position(i)
			require.InDelta(t, radius, p.Distance(center), 1e-5, "level %d vertex %d", level, i)

			n := buf.Normal(i)
			require.InDelta(t, 1, n.Len(), 1e-5)
			want := p.Sub(center).Normalize()
			require.True(t, n.ApproxEqual(want, 1e-5), "level %d normal %d = %v, want %v", level, i, n, want)
		}
	}
}

func TestIcosphereWindingFacesOutward(t *testing.T) {
	buf, err := GenerateIcosphere(math3d.Zero3(), 1, 2)
	require.NoError(t, err)

	for f := range buf.TriangleCount() {
		tri := buf.Triangle(f)
		v0, v1, v2 := buf.Position(int(tri[0])), buf.Position(int(tri[1])), buf.Position(int(tri[2]))
		n := v1.Sub(v0).Cross(v2.Sub(v0))
		centroid := v0.Add(v1).Add(v2).Scale(1.0 / 3)
		require.Positive(t, n.Dot(centroid), "face %d winds inward", f)
	}
}

func TestIcosphereDeduplicatesMidpoints(t *testing.T) {
	buf, err := GenerateIcosphere(math3d.Zero3(), 1, 2)
	require.NoError(t, err)

	seen := make(map[[3]float32]int, buf.VertexCount())
	for i := range buf.VertexCount() {
		p := buf.Position(i).Float32s()
		if j, dup := seen[p]; dup {
			t.Fatalf("vertices %d and %d coincide at %v", j, i, p)
		}
		seen[p] = i
	}
}

func TestIcosphereRegenerationIsIdempotent(t *testing.T) {
	a, err := GenerateIcosphere(math3d.Zero3(), 1, 3)
	require.NoError(t, err)
	b, err := GenerateIcosphere(math3d.Zero3(), 1, 3)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	b.Positions[0] = 42
	assert.NotEqual(t, a.Positions[0], b.Positions[0], "buffers must not share storage")
}

func TestIcosphereInvalidLevel(t *testing.T) {
	// 9 and up cost hundreds of megabytes
	for _, level := range []int{-1, -10, MaxSubdivisionLevel + 1, 9, 14} {
		buf, err := GenerateIcosphere(math3d.Zero3(), 1, level)
		assert.ErrorIs(t, err, ErrInvalidSubdivisionLevel, "level %d", level)
		assert.Nil(t, buf)
	}
}

func TestIcosphereDeepestLevel(t *testing.T) {
	if testing.Short() {
		t.Skip("generates over a million faces")
	}
	buf, err := GenerateIcosphere(math3d.Zero3(), 1, MaxSubdivisionLevel)
	require.NoError(t, err)
	assert.Equal(t, IcosphereFaceCount(MaxSubdivisionLevel), buf.TriangleCount())
}

func TestIcosphereLevelZeroIsIcosahedron(t *testing.T) {
	buf, err := GenerateIcosphere(math3d.Zero3(), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 12, buf.VertexCount())
	assert.Len(t, buf.Indices, 60)

	// every vertex touches five faces
	valence := make([]int, buf.VertexCount())
	for _, idx := range buf.Indices {
		valence[idx]++
	}
	for i, v := range valence {
		assert.Equal(t, 5, v, "vertex %d", i)
	}
}

func BenchmarkGenerateIcosphere(b *testing.B) {
	for b.Loop() {
		_, _ = GenerateIcosphere(math3d.Zero3(), 1, 5)
	}
}
