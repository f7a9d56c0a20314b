package geometry

import (
	"github.com/taigrr/icoviz/pkg/gpu"
	"github.com/taigrr/icoviz/pkg/math3d"
)

// SquareBuffer returns a quad covering [-1, 1] in x and y at the given depth,
// facing +Z. As a full-screen background it is drawn with positions passed
// straight through to clip space.
func SquareBuffer(z float32) *Buffer {
	return &Buffer{
		Positions: []float32{
			-1, -1, z,
			1, -1, z,
			1, 1, z,
			-1, 1, z,
		},
		Normals: []float32{
			0, 0, 1,
			0, 0, 1,
			0, 0, 1,
			0, 0, 1,
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

// Square is an uploaded quad, usually the background.
type Square struct {
	*Mesh
}

// NewSquare uploads a quad at the far end of clip space.
func NewSquare(ctx gpu.Context) *Square {
	return &Square{Mesh: Upload(ctx, SquareBuffer(0.999))}
}

// cubeFaces lists each face's outward normal and two in-plane axes chosen
// so that normal = u × v, which keeps the winding counter-clockwise.
var cubeFaces = [6][3]math3d.Vec3{
	{{X: 1}, {Y: 1}, {Z: -1}},
	{{X: -1}, {Y: 1}, {Z: 1}},
	{{Y: 1}, {Z: 1}, {X: -1}},
	{{Y: -1}, {Z: 1}, {X: 1}},
	{{Z: 1}, {Y: 1}, {X: 1}},
	{{Z: -1}, {Y: 1}, {X: -1}},
}

// CubeBuffer returns an axis-aligned cube with hard edges: 24 vertices so
// each face has its own normal, 36 indices.
func CubeBuffer(center math3d.Vec3, size float64) *Buffer {
	h := size / 2
	b := &Buffer{
		Positions: make([]float32, 0, 24*3),
		Normals:   make([]float32, 0, 24*3),
		Indices:   make([]uint32, 0, 36),
	}
	for f, face := range cubeFaces {
		n, v, u := face[0], face[1], face[2]
		corners := [4]math3d.Vec3{
			n.Sub(u).Sub(v),
			n.Add(u).Sub(v),
			n.Add(u).Add(v),
			n.Sub(u).Add(v),
		}
		for _, c := range corners {
			p := center.Add(c.Scale(h)).Float32s()
			nn := n.Float32s()
			b.Positions = append(b.Positions, p[:]...)
			b.Normals = append(b.Normals, nn[:]...)
		}
		base := uint32(4 * f)
		b.Indices = append(b.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return b
}

// Cube is an uploaded cube.
type Cube struct {
	*Mesh

	Center math3d.Vec3
	Size   float64
}

// NewCube uploads a cube of the given edge length.
func NewCube(ctx gpu.Context, center math3d.Vec3, size float64) *Cube {
	return &Cube{Mesh: Upload(ctx, CubeBuffer(center, size)), Center: center, Size: size}
}
