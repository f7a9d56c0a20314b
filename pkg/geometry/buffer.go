// Package geometry provides CPU-side vertex data, the icosphere generator
// and the drawables that own the matching GPU buffers.
package geometry

import (
	"errors"
	"fmt"

	"github.com/taigrr/icoviz/pkg/math3d"
)

// Buffer holds flat vertex attribute arrays ready for upload.
type Buffer struct {
	Positions []float32 // xyz per vertex
	Normals   []float32 // xyz per vertex, optional
	Colors    []float32 // rgba per vertex, optional
	Indices   []uint32  // three per triangle
}

var (
	ErrPositionLayout = errors.New("positions are not xyz triples")
	ErrNormalLayout   = errors.New("normals do not match positions")
	ErrColorLayout    = errors.New("colors do not match positions")
	ErrIndexLayout    = errors.New("indices do not form triangles")
	ErrIndexRange     = errors.New("index out of range")
)

// VertexCount returns the number of vertices.
func (b *Buffer) VertexCount() int {
	return len(b.Positions) / 3
}

// TriangleCount returns the number of triangles.
func (b *Buffer) TriangleCount() int {
	return len(b.Indices) / 3
}

// HasNormals reports whether per-vertex normals are present.
func (b *Buffer) HasNormals() bool { return len(b.Normals) > 0 }

// HasColors reports whether per-vertex colours are present.
func (b *Buffer) HasColors() bool { return len(b.Colors) > 0 }

// Validate checks the attribute layout and index range.
func (b *Buffer) Validate() error {
	if len(b.Positions)%3 != 0 {
		return fmt.Errorf("%w: %d floats", ErrPositionLayout, len(b.Positions))
	}
	if b.HasNormals() && len(b.Normals) != len(b.Positions) {
		return fmt.Errorf("%w: %d normals for %d positions", ErrNormalLayout, len(b.Normals), len(b.Positions))
	}
	n := b.VertexCount()
	if b.HasColors() && len(b.Colors) != 4*n {
		return fmt.Errorf("%w: %d floats for %d vertices", ErrColorLayout, len(b.Colors), n)
	}
	if len(b.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices", ErrIndexLayout, len(b.Indices))
	}
	for i, idx := range b.Indices {
		if int(idx) >= n {
			return fmt.Errorf("%w: indices[%d] = %d, %d vertices", ErrIndexRange, i, idx, n)
		}
	}
	return nil
}

// Position returns vertex i's position.
func (b *Buffer) Position(i int) math3d.Vec3 {
	return vec3At(b.Positions, i)
}

// Normal returns vertex i's normal, zero when normals are absent.
func (b *Buffer) Normal(i int) math3d.Vec3 {
	if !b.HasNormals() {
		return math3d.Zero3()
	}
	return vec3At(b.Normals, i)
}

// Triangle returns the vertex indices of triangle i.
func (b *Buffer) Triangle(i int) [3]uint32 {
	return [3]uint32{b.Indices[3*i], b.Indices[3*i+1], b.Indices[3*i+2]}
}

// Bounds returns the axis-aligned bounding box of all positions.
func (b *Buffer) Bounds() (lo, hi math3d.Vec3) {
	n := b.VertexCount()
	if n == 0 {
		return math3d.Zero3(), math3d.Zero3()
	}
	lo = b.Position(0)
	hi = lo
	for i := 1; i < n; i++ {
		p := b.Position(i)
		lo = lo.Min(p)
		hi = hi.Max(p)
	}
	return lo, hi
}

// Center returns the center of the bounding box.
func (b *Buffer) Center() math3d.Vec3 {
	lo, hi := b.Bounds()
	return lo.Add(hi).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (b *Buffer) Size() math3d.Vec3 {
	lo, hi := b.Bounds()
	return hi.Sub(lo)
}

// CalculateSmoothNormals replaces the normals with area-weighted vertex
// averages of the face normals.
func (b *Buffer) CalculateSmoothNormals() {
	acc := make([]math3d.Vec3, b.VertexCount())
	for t := range b.TriangleCount() {
		tri := b.Triangle(t)
		v0, v1, v2 := b.Position(int(tri[0])), b.Position(int(tri[1])), b.Position(int(tri[2]))
		// Unnormalized, so larger faces weigh more
		n := v1.Sub(v0).Cross(v2.Sub(v0))
		for _, idx := range tri {
			acc[idx] = acc[idx].Add(n)
		}
	}
	b.Normals = make([]float32, len(b.Positions))
	for i, n := range acc {
		putVec3(b.Normals, i, n.Normalize())
	}
}

// Transform applies m to every position and its normal matrix to every
// normal.
func (b *Buffer) Transform(m math3d.Mat4) {
	nm := m.NormalMatrix()
	for i := range b.VertexCount() {
		putVec3(b.Positions, i, m.MulVec3(b.Position(i)))
		if b.HasNormals() {
			putVec3(b.Normals, i, nm.MulVec3Dir(b.Normal(i)).Normalize())
		}
	}
}

// Fit centers the buffer on the origin and scales it uniformly so its
// largest half-extent equals radius.
func (b *Buffer) Fit(radius float64) {
	size := b.Size()
	extent := max(size.X, size.Y, size.Z) / 2
	if extent == 0 {
		return
	}
	s := radius / extent
	b.Transform(math3d.Scale(math3d.V3(s, s, s)).Mul(math3d.Translate(b.Center().Negate())))
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	return &Buffer{
		Positions: cloneSlice(b.Positions),
		Normals:   cloneSlice(b.Normals),
		Colors:    cloneSlice(b.Colors),
		Indices:   cloneSlice(b.Indices),
	}
}

// Fill sets every vertex colour to c.
func (b *Buffer) Fill(c [4]float32) {
	n := b.VertexCount()
	b.Colors = make([]float32, 0, 4*n)
	for range n {
		b.Colors = append(b.Colors, c[:]...)
	}
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append([]T(nil), s...)
}

func vec3At(s []float32, i int) math3d.Vec3 {
	return math3d.V3(float64(s[3*i]), float64(s[3*i+1]), float64(s[3*i+2]))
}

func putVec3(s []float32, i int, v math3d.Vec3) {
	f := v.Float32s()
	copy(s[3*i:3*i+3], f[:])
}
