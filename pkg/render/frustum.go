package render

import (
	"github.com/taigrr/icoviz/pkg/math3d"
)

// Plane is Ax + By + Cz + D = 0 with (A, B, C) the normal.
type Plane struct {
	Normal math3d.Vec3
	D      float64
}

// Normalize scales the plane so the normal has unit length.
func (p *Plane) Normalize() {
	l := p.Normal.Len()
	if l == 0 {
		return
	}
	p.Normal = p.Normal.Scale(1.0 / l)
	p.D /= l
}

// DistanceToPoint returns the signed distance from the plane to a point.
// Positive = in front (same side as normal), negative = behind.
func (p Plane) DistanceToPoint(point math3d.Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

// Frustum holds the six inward-facing planes of a view volume, ordered
// left, right, bottom, top, near, far.
type Frustum struct {
	Planes [6]Plane
}

// FrustumFromMatrix extracts the planes of a view-projection matrix
// (Gribb/Hartmann).
func FrustumFromMatrix(m math3d.Mat4) Frustum {
	// Row i, column j of the column-major matrix is m[i+j*4]
	row := func(i int) (math3d.Vec3, float64) {
		return math3d.V3(m[i], m[i+4], m[i+8]), m[i+12]
	}
	r3, w3 := row(3)

	var f Frustum
	for axis := range 3 {
		r, w := row(axis)
		f.Planes[2*axis] = Plane{Normal: r3.Add(r), D: w3 + w}
		f.Planes[2*axis+1] = Plane{Normal: r3.Sub(r), D: w3 - w}
	}
	for i := range f.Planes {
		f.Planes[i].Normalize()
	}
	return f
}

// Frustum returns the camera's current view volume.
func (c *Camera) Frustum() Frustum {
	return FrustumFromMatrix(c.ViewProjectionMatrix())
}

// IntersectsBox reports whether any part of the box [lo, hi] is inside the
// frustum. It tests the corner furthest along each plane normal.
func (f Frustum) IntersectsBox(lo, hi math3d.Vec3) bool {
	for _, plane := range f.Planes {
		p := lo
		if plane.Normal.X >= 0 {
			p.X = hi.X
		}
		if plane.Normal.Y >= 0 {
			p.Y = hi.Y
		}
		if plane.Normal.Z >= 0 {
			p.Z = hi.Z
		}
		if plane.DistanceToPoint(p) < 0 {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether p is inside the frustum.
func (f Frustum) ContainsPoint(p math3d.Vec3) bool {
	for _, plane := range f.Planes {
		if plane.DistanceToPoint(p) < 0 {
			return false
		}
	}
	return true
}

// Bounded is implemented by drawables that know their model-space bounds.
type Bounded interface {
	Bounds() (lo, hi math3d.Vec3)
}
