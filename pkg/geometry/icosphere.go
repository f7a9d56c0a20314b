package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/taigrr/icoviz/pkg/gpu"
	"github.com/taigrr/icoviz/pkg/math3d"
)

// MaxSubdivisionLevel is the deepest level accepted. Each level quadruples
// the triangles: level 8 already holds 1.3M faces and close to 100 MB of
// buffers while generating, and level 9 needs about 350 MB.
const MaxSubdivisionLevel = 8

// ErrInvalidSubdivisionLevel is returned for levels outside
// [0, MaxSubdivisionLevel].
var ErrInvalidSubdivisionLevel = errors.New("invalid subdivision level")

var phi = (1 + math.Sqrt(5)) / 2

var icosahedronVertices = [12]math3d.Vec3{
	{X: -1, Y: phi}, {X: 1, Y: phi}, {X: -1, Y: -phi}, {X: 1, Y: -phi},
	{Y: -1, Z: phi}, {Y: 1, Z: phi}, {Y: -1, Z: -phi}, {Y: 1, Z: -phi},
	{X: phi, Z: -1}, {X: phi, Z: 1}, {X: -phi, Z: -1}, {X: -phi, Z: 1},
}

// Counter-clockwise seen from outside.
var icosahedronFaces = [20][3]uint32{
	{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
	{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
	{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
	{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
}

// IcosphereVertexCount returns 10·4^level + 2.
func IcosphereVertexCount(level int) int {
	return 10*(1<<(2*level)) + 2
}

// IcosphereFaceCount returns 20·4^level.
func IcosphereFaceCount(level int) int {
	return 20 * (1 << (2 * level))
}

// GenerateIcosphere subdivides an icosahedron level times, projecting every
// new vertex onto the sphere of the given radius around center. Normals
// point away from center. Each call allocates a fresh Buffer.
func GenerateIcosphere(center math3d.Vec3, radius float64, level int) (*Buffer, error) {
	if level < 0 || level > MaxSubdivisionLevel {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSubdivisionLevel, level)
	}

	dirs := make([]math3d.Vec3, 0, IcosphereVertexCount(level))
	for _, v := range icosahedronVertices {
		dirs = append(dirs, v.Normalize())
	}
	faces := icosahedronFaces[:]

	for range level {
		// One midpoint per edge, keyed by its unordered endpoints
		mids := make(map[[2]uint32]uint32, len(faces)*3/2)
		midpoint := func(a, b uint32) uint32 {
			key := [2]uint32{min(a, b), max(a, b)}
			if idx, ok := mids[key]; ok {
				return idx
			}
			idx := uint32(len(dirs))
			dirs = append(dirs, dirs[a].Add(dirs[b]).Normalize())
			mids[key] = idx
			return idx
		}

		next := make([][3]uint32, 0, len(faces)*4)
		for _, f := range faces {
			ab := midpoint(f[0], f[1])
			bc := midpoint(f[1], f[2])
			ca := midpoint(f[2], f[0])
			next = append(next,
				[3]uint32{f[0], ab, ca},
				[3]uint32{f[1], bc, ab},
				[3]uint32{f[2], ca, bc},
				[3]uint32{ab, bc, ca},
			)
		}
		faces = next
	}

	b := &Buffer{
		Positions: make([]float32, 3*len(dirs)),
		Normals:   make([]float32, 3*len(dirs)),
		Indices:   make([]uint32, 0, 3*len(faces)),
	}
	for i, d := range dirs {
		putVec3(b.Positions, i, center.Add(d.Scale(radius)))
		putVec3(b.Normals, i, d)
	}
	for _, f := range faces {
		b.Indices = append(b.Indices, f[:]...)
	}
	return b, nil
}

// Icosphere is an uploaded icosphere.
type Icosphere struct {
	*Mesh

	Center math3d.Vec3
	Radius float64
	Level  int
}

// NewIcosphere generates an icosphere and uploads it to ctx.
func NewIcosphere(ctx gpu.Context, center math3d.Vec3, radius float64, level int) (*Icosphere, error) {
	buf, err := GenerateIcosphere(center, radius, level)
	if err != nil {
		return nil, err
	}
	return &Icosphere{
		Mesh:   Upload(ctx, buf),
		Center: center,
		Radius: radius,
		Level:  level,
	}, nil
}

// Regenerate builds and uploads a new icosphere at level with the same
// center and radius. The receiver is left untouched; the caller destroys it
// once the replacement is in use.
func (s *Icosphere) Regenerate(level int) (*Icosphere, error) {
	return NewIcosphere(s.ctx, s.Center, s.Radius, level)
}
