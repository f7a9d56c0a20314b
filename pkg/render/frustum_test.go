package render

import (
	"math"
	"testing"

	"github.com/taigrr/icoviz/pkg/math3d"
)

func TestPlaneDistanceToPoint(t *testing.T) {
	// Plane at Z=0, normal pointing +Z
	plane := Plane{Normal: math3d.V3(0, 0, 1), D: 0}

	tests := []struct {
		name     string
		point    math3d.Vec3
		expected float64
	}{
		{"origin", math3d.V3(0, 0, 0), 0},
		{"in front", math3d.V3(0, 0, 5), 5},
		{"behind", math3d.V3(0, 0, -3), -3},
		{"offset XY", math3d.V3(10, -5, 2), 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dist := plane.DistanceToPoint(tc.point)
			if math.Abs(dist-tc.expected) > 1e-9 {
				t.Errorf("got %v, want %v", dist, tc.expected)
			}
		})
	}
}

func TestPlaneNormalize(t *testing.T) {
	plane := Plane{Normal: math3d.V3(0, 3, 4), D: 10}
	plane.Normalize()

	if math.Abs(plane.Normal.Len()-1.0) > 1e-9 {
		t.Errorf("normalized normal length = %v, want 1.0", plane.Normal.Len())
	}
	if math.Abs(plane.D-2.0) > 1e-9 {
		t.Errorf("D = %v, want 2.0", plane.D)
	}
}

func TestCameraFrustum(t *testing.T) {
	cam := NewCamera(math3d.V3(0, 0, 5), math3d.Zero3())
	f := cam.Frustum()

	tests := []struct {
		name    string
		lo, hi  math3d.Vec3
		visible bool
	}{
		{"unit sphere bounds", math3d.V3(-1, -1, -1), math3d.V3(1, 1, 1), true},
		{"behind the camera", math3d.V3(-1, -1, 6), math3d.V3(1, 1, 8), false},
		{"far to the side", math3d.V3(50, -1, -1), math3d.V3(52, 1, 1), false},
		{"straddling the near plane", math3d.V3(-1, -1, 4), math3d.V3(1, 1, 6), true},
		{"past the far plane", math3d.V3(-1, -1, -2000), math3d.V3(1, 1, -1500), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := f.IntersectsBox(tc.lo, tc.hi); got != tc.visible {
				t.Errorf("IntersectsBox = %v, want %v", got, tc.visible)
			}
		})
	}

	if !f.ContainsPoint(math3d.Zero3()) {
		t.Error("target should be inside the frustum")
	}
	if f.ContainsPoint(math3d.V3(0, 0, 10)) {
		t.Error("point behind the camera should be outside")
	}
}

func BenchmarkFrustumIntersectsBox(b *testing.B) {
	cam := NewCamera(math3d.V3(0, 0, 5), math3d.Zero3())
	f := cam.Frustum()
	lo, hi := math3d.V3(-1, -1, -1), math3d.V3(1, 1, 1)

	for b.Loop() {
		_ = f.IntersectsBox(lo, hi)
	}
}
