package math3d

import (
	"math"
	"testing"
)

// The renderer builds these once per pass; the software kernels run
// MulVec4 once per vertex.

func BenchmarkPassMatrices(b *testing.B) {
	view := LookAt(V3(0, 0, 5), Zero3(), Up())
	proj := Perspective(math.Pi/4, 1.333, 0.1, 1000)
	model := Identity()

	for b.Loop() {
		viewProj := proj.Mul(view)
		_ = model.Float32s()
		_ = model.NormalMatrix().Float32s()
		_ = viewProj.Float32s()
	}
}

func BenchmarkNormalMatrix(b *testing.B) {
	m := Translate(V3(1, 2, 3)).Mul(RotateY(0.5)).Mul(Scale(V3(2, 1, 0.5)))

	for b.Loop() {
		_ = m.NormalMatrix()
	}
}

func BenchmarkVertexTransform(b *testing.B) {
	viewProj := Perspective(math.Pi/4, 1.333, 0.1, 1000).Mul(LookAt(V3(0, 0, 5), Zero3(), Up()))
	p := V4FromV3(V3(0.5, 0.5, 0.7071), 1)

	for b.Loop() {
		_ = viewProj.MulVec4(p).PerspectiveDivide()
	}
}

func BenchmarkNormalTransform(b *testing.B) {
	nm := RotateX(0.3).Mul(RotateY(0.5)).NormalMatrix()
	n := V3(0, 1, 0)

	for b.Loop() {
		_ = nm.MulVec3Dir(n).Normalize()
	}
}

func BenchmarkFaceNormal(b *testing.B) {
	v0, v1, v2 := V3(1, 0, 0), V3(0, 1, 0), V3(0, 0, 1)

	for b.Loop() {
		_ = v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()
	}
}

func BenchmarkEdgeMidpoint(b *testing.B) {
	a, c := V3(0, 0.8507, 0.5257), V3(0.8507, 0.5257, 0)

	for b.Loop() {
		_ = a.Lerp(c, 0.5).Normalize().Scale(1.5)
	}
}
