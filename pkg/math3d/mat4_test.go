package math3d

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPerspectiveScalesWithAspect(t *testing.T) {
	fovy := math.Pi / 4
	f := 1 / math.Tan(fovy/2)

	tests := []struct {
		name   string
		aspect float64
	}{
		{"square", 1},
		{"wide", 2},
		{"tall", 0.5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := Perspective(fovy, tc.aspect, 0.1, 100)
			assert.InDelta(t, f/tc.aspect, p.Get(0, 0), 1e-12)
			assert.InDelta(t, f, p.Get(1, 1), 1e-12)
			assert.InDelta(t, -1, p.Get(3, 2), 1e-12)
		})
	}
}

func TestLookAtMapsTargetOntoNegativeZ(t *testing.T) {
	view := LookAt(V3(0, 0, 5), Zero3(), Up())
	p := view.MulVec3(Zero3())
	assert.True(t, p.ApproxEqual(V3(0, 0, -5), 1e-12), "got %v", p)
}

func TestInverse(t *testing.T) {
	m := Translate(V3(1, 2, 3)).Mul(RotateY(0.7)).Mul(Scale(V3(2, 3, 4)))
	assert.True(t, m.Mul(m.Inverse()).ApproxEqual(Identity(), 1e-9))

	var singular Mat4
	assert.Equal(t, Identity(), singular.Inverse(), "singular matrix falls back to identity")
}

func TestNormalMatrixOfIdentity(t *testing.T) {
	assert.Equal(t, Identity(), Identity().NormalMatrix())
}

func TestFloat32sIsColumnMajor(t *testing.T) {
	m := Translate(V3(7, 8, 9))
	f := m.Float32s()
	assert.Equal(t, [3]float32{7, 8, 9}, [3]float32{f[12], f[13], f[14]})
}

func TestIsFinite(t *testing.T) {
	assert.True(t, Identity().IsFinite())
	p := Perspective(math.Pi/4, math.NaN(), 0.1, 100)
	assert.False(t, p.IsFinite())
}

func TestVec3Normalize(t *testing.T) {
	assert.Equal(t, Vec3{}, Zero3().Normalize())
	n := V3(3, 4, 0).Normalize()
	assert.InDelta(t, 1, n.Len(), 1e-12)
	assert.True(t, n.ApproxEqual(V3(0.6, 0.8, 0), 1e-12))
}

func TestVec2Cross(t *testing.T) {
	assert.Equal(t, 1.0, V2(1, 0).Cross(V2(0, 1)))
	assert.Equal(t, -1.0, V2(0, 1).Cross(V2(1, 0)))
}
