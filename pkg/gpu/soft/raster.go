package soft

import (
	"math"

	"github.com/taigrr/icoviz/pkg/gpu"
	"github.com/taigrr/icoviz/pkg/math3d"
)

type shadedVertex struct {
	clip math3d.Vec4
	vary Varyings
}

// screenPoint holds a vertex transformed to window space.
type screenPoint struct {
	X, Y float64 // Window coordinates, origin top-left
	Z    float64 // Depth in [0, 1]
	InvW float64 // 1/w for perspective-correct interpolation
}

func (p screenPoint) xy() math3d.Vec2 { return math3d.V2(p.X, p.Y) }

// toScreen applies the perspective divide and the viewport transform.
func (c *Context) toScreen(clip math3d.Vec4) screenPoint {
	ndc := clip.PerspectiveDivide()
	vx, vy, vw, vh := float64(c.viewport[0]), float64(c.viewport[1]), float64(c.viewport[2]), float64(c.viewport[3])
	wx := vx + (ndc.X+1)*0.5*vw
	wy := vy + (ndc.Y+1)*0.5*vh
	return screenPoint{
		X:    wx,
		Y:    float64(c.fb.Height) - wy,
		Z:    ndc.Z*0.5 + 0.5,
		InvW: 1 / clip.W,
	}
}

// edgeCoeffs returns A, B, C for the edge function E(x,y) = A*x + B*y + C.
func edgeCoeffs(x0, y0, x1, y1 float64) (a, b, cc float64) {
	a = y0 - y1
	b = x1 - x0
	cc = x0*y1 - x1*y0
	return a, b, cc
}

// rasterize draws one triangle. Triangles with a vertex at or behind the
// eye plane are dropped rather than clipped.
func (c *Context) rasterize(tri [3]shadedVertex, fk FragmentKernel, u Uniforms) {
	for _, v := range tri {
		if v.clip.W <= 1e-9 || math.IsNaN(v.clip.W) {
			return
		}
	}

	var sp [3]screenPoint
	for i := range 3 {
		sp[i] = c.toScreen(tri[i].clip)
	}

	// Signed area in window space (y down): negative means counter-clockwise
	// in NDC, i.e. front facing.
	area := sp[1].xy().Sub(sp[0].xy()).Cross(sp[2].xy().Sub(sp[0].xy()))
	if area == 0 || math.IsNaN(area) {
		return
	}
	if c.caps[gpu.CullFace] && area > 0 {
		return
	}

	if c.polygonMode == gpu.Line {
		c.drawEdges(sp, tri, fk, u)
		return
	}

	minX := int(math.Max(0, math.Floor(min(sp[0].X, sp[1].X, sp[2].X))))
	maxX := int(math.Min(float64(c.fb.Width-1), math.Ceil(max(sp[0].X, sp[1].X, sp[2].X))))
	minY := int(math.Max(0, math.Floor(min(sp[0].Y, sp[1].Y, sp[2].Y))))
	maxY := int(math.Min(float64(c.fb.Height-1), math.Ceil(max(sp[0].Y, sp[1].Y, sp[2].Y))))
	if minX > maxX || minY > maxY {
		return
	}

	a0, b0, c0 := edgeCoeffs(sp[1].X, sp[1].Y, sp[2].X, sp[2].Y)
	a1, b1, c1 := edgeCoeffs(sp[2].X, sp[2].Y, sp[0].X, sp[0].Y)
	a2, b2, c2 := edgeCoeffs(sp[0].X, sp[0].Y, sp[1].X, sp[1].Y)
	invArea := 1 / area

	depthTest := c.caps[gpu.DepthTest]
	frag := Fragment{Width: float32(c.viewport[2]), Height: float32(c.viewport[3])}

	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5

			w0 := (a0*px + b0*py + c0) * invArea
			w1 := (a1*px + b1*py + c1) * invArea
			w2 := (a2*px + b2*py + c2) * invArea
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}

			z, ok := clampDepth(w0*sp[0].Z + w1*sp[1].Z + w2*sp[2].Z)
			if !ok {
				continue
			}
			di := y*c.fb.Width + x
			if depthTest {
				if z >= c.depth[di] {
					continue
				}
				c.depth[di] = z
			}

			// Perspective-correct weights
			p0, p1, p2 := w0*sp[0].InvW, w1*sp[1].InvW, w2*sp[2].InvW
			sum := p0 + p1 + p2
			if sum == 0 {
				continue
			}
			p0, p1, p2 = p0/sum, p1/sum, p2/sum

			frag.X, frag.Y, frag.Depth = float32(px), float32(py), z
			vary := interpolate(tri[0].vary, tri[1].vary, tri[2].vary, p0, p1, p2)
			c.fb.Pixels[di] = toRGBA(fk(vary, frag, u))
			c.stats.Fragments++
		}
	}
}

// drawEdges renders the triangle outline, shading each edge with the
// colour at its first vertex.
func (c *Context) drawEdges(sp [3]screenPoint, tri [3]shadedVertex, fk FragmentKernel, u Uniforms) {
	frag := Fragment{Width: float32(c.viewport[2]), Height: float32(c.viewport[3])}
	for i := range 3 {
		j := (i + 1) % 3
		frag.X, frag.Y = float32(sp[i].X), float32(sp[i].Y)
		col := toRGBA(fk(tri[i].vary, frag, u))
		c.fb.DrawLine(int(sp[i].X), int(sp[i].Y), int(sp[j].X), int(sp[j].Y), col)
	}
}

func interpolate(v0, v1, v2 Varyings, w0, w1, w2 float64) Varyings {
	mix3 := func(a, b, c math3d.Vec3) math3d.Vec3 {
		return a.Scale(w0).Add(b.Scale(w1)).Add(c.Scale(w2))
	}
	f0, f1, f2 := float32(w0), float32(w1), float32(w2)
	var col [4]float32
	for k := range 4 {
		col[k] = v0.Color[k]*f0 + v1.Color[k]*f1 + v2.Color[k]*f2
	}
	return Varyings{
		World:  mix3(v0.World, v1.World, v2.World),
		Normal: mix3(v0.Normal, v1.Normal, v2.Normal),
		Color:  col,
		Noise:  v0.Noise*f0 + v1.Noise*f1 + v2.Noise*f2,
	}
}
