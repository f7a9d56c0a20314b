package soft

import (
	"fmt"
	"sync"

	"github.com/chewxy/math32"
	"github.com/taigrr/icoviz/pkg/gpu"
	"github.com/taigrr/icoviz/pkg/math3d"
)

// Attribute names the built-in vertex kernels read.
const (
	AttribPosition = "vs_Pos"
	AttribNormal   = "vs_Nor"
	AttribColor    = "vs_Col"
)

// VertexInput holds the attributes fetched for one vertex. Attributes the
// program does not enable keep their GL defaults: zero position and normal,
// opaque white colour.
type VertexInput struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
	Color    [4]float32
}

// Varyings are interpolated across a triangle and handed to the fragment
// kernel.
type Varyings struct {
	World  math3d.Vec3
	Normal math3d.Vec3
	Color  [4]float32
	Noise  float32
}

// Fragment describes the pixel being shaded.
type Fragment struct {
	X, Y          float32 // Pixel centre, origin top-left
	Width, Height float32 // Viewport size
	Depth         float32
}

// VertexKernel is the CPU stand-in for a vertex shader's main function.
type VertexKernel func(in VertexInput, u Uniforms) (clip math3d.Vec4, out Varyings)

// FragmentKernel is the CPU stand-in for a fragment shader's main function.
// It returns linear RGBA in 0..1.
type FragmentKernel func(in Varyings, frag Fragment, u Uniforms) [4]float32

var (
	kernelMu        sync.RWMutex
	vertexKernels   = map[string]VertexKernel{}
	fragmentKernels = map[string]FragmentKernel{}
)

// RegisterVertexKernel makes a vertex kernel selectable with
// "#pragma kernel <name>" in a vertex shader. It panics on duplicates.
func RegisterVertexKernel(name string, k VertexKernel) {
	kernelMu.Lock()
	defer kernelMu.Unlock()
	if _, dup := vertexKernels[name]; dup {
		panic(fmt.Sprintf("soft: vertex kernel %q registered twice", name))
	}
	vertexKernels[name] = k
}

// RegisterFragmentKernel makes a fragment kernel selectable with
// "#pragma kernel <name>" in a fragment shader. It panics on duplicates.
func RegisterFragmentKernel(name string, k FragmentKernel) {
	kernelMu.Lock()
	defer kernelMu.Unlock()
	if _, dup := fragmentKernels[name]; dup {
		panic(fmt.Sprintf("soft: fragment kernel %q registered twice", name))
	}
	fragmentKernels[name] = k
}

func kernelExists(kind gpu.ShaderKind, name string) bool {
	kernelMu.RLock()
	defer kernelMu.RUnlock()
	switch kind {
	case gpu.VertexShader:
		_, ok := vertexKernels[name]
		return ok
	case gpu.FragmentShader:
		_, ok := fragmentKernels[name]
		return ok
	}
	return false
}

func defaultKernel(kind gpu.ShaderKind) string {
	if kind == gpu.VertexShader {
		return "transform"
	}
	return "flat"
}

func lookupKernels(vertex, fragment string) (VertexKernel, FragmentKernel) {
	kernelMu.RLock()
	defer kernelMu.RUnlock()
	return vertexKernels[vertex], fragmentKernels[fragment]
}

// Uniforms gives kernels read access to the current program's uniform
// values. Unset uniforms read as the supplied default.
type Uniforms struct {
	slots []uniformSlot
	index map[string]int
}

func (u Uniforms) slot(name, typ string) (*uniformSlot, bool) {
	i, ok := u.index[name]
	if !ok {
		return nil, false
	}
	s := &u.slots[i]
	if !s.set || s.typ != typ {
		return nil, false
	}
	return s, true
}

// Float returns a float uniform.
func (u Uniforms) Float(name string, def float32) float32 {
	if s, ok := u.slot(name, "float"); ok {
		return s.f[0]
	}
	return def
}

// Vec4 returns a vec4 uniform.
func (u Uniforms) Vec4(name string, def [4]float32) [4]float32 {
	if s, ok := u.slot(name, "vec4"); ok {
		return [4]float32{s.f[0], s.f[1], s.f[2], s.f[3]}
	}
	return def
}

// Vec3 returns a vec3 uniform.
func (u Uniforms) Vec3(name string, def [3]float32) [3]float32 {
	if s, ok := u.slot(name, "vec3"); ok {
		return [3]float32{s.f[0], s.f[1], s.f[2]}
	}
	return def
}

// Mat4 returns a mat4 uniform, identity when unset.
func (u Uniforms) Mat4(name string) math3d.Mat4 {
	s, ok := u.slot(name, "mat4")
	if !ok {
		return math3d.Identity()
	}
	var m math3d.Mat4
	for i, v := range s.f {
		m[i] = float64(v)
	}
	return m
}

// lightDir matches the fixed light of the original lambert shader.
var lightDir = math3d.V3(5, 5, 3).Normalize()

func init() {
	RegisterVertexKernel("transform", transformVertex)
	RegisterVertexKernel("noise", noiseVertex)
	RegisterVertexKernel("screen", screenVertex)

	RegisterFragmentKernel("flat", flatFragment)
	RegisterFragmentKernel("lambert", lambertFragment)
	RegisterFragmentKernel("palette", paletteFragment)
	RegisterFragmentKernel("background", backgroundFragment)
}

func transformVertex(in VertexInput, u Uniforms) (math3d.Vec4, Varyings) {
	model := u.Mat4("u_Model")
	world := model.MulVec4(math3d.V4FromV3(in.Position, 1))
	clip := u.Mat4("u_ViewProj").MulVec4(world)
	return clip, Varyings{
		World:  world.Vec3(),
		Normal: u.Mat4("u_ModelInvTr").MulVec3Dir(in.Normal),
		Color:  in.Color,
	}
}

// noiseVertex displaces each vertex along its normal by fractal noise
// sampled at position*frequency, scrolling with time.
func noiseVertex(in VertexInput, u Uniforms) (math3d.Vec4, Varyings) {
	amp := u.Float("u_Amplitude", 0)
	freq := u.Float("u_Frequency", 1)
	t := u.Float("u_Time", 0) * 0.01

	p := in.Position.Float32s()
	n := fbm3(p[0]*freq+t, p[1]*freq+t*0.7, p[2]*freq-t*0.3, 4)

	displaced := in.Position.Add(in.Normal.Scale(float64(amp * (n - 0.5) * 2)))
	in.Position = displaced
	clip, out := transformVertex(in, u)
	out.Noise = n
	return clip, out
}

// screenVertex passes positions straight through as clip coordinates on the
// far plane, for full-screen quads.
func screenVertex(in VertexInput, _ Uniforms) (math3d.Vec4, Varyings) {
	return math3d.V4(in.Position.X, in.Position.Y, 0.999, 1), Varyings{
		World: in.Position,
		Color: in.Color,
	}
}

func flatFragment(in Varyings, _ Fragment, u Uniforms) [4]float32 {
	c := u.Vec4("u_Color1", in.Color)
	return c
}

func lambertFragment(in Varyings, _ Fragment, u Uniforms) [4]float32 {
	c := u.Vec4("u_Color1", in.Color)
	light := diffuse(in.Normal)
	return [4]float32{c[0] * light, c[1] * light, c[2] * light, c[3]}
}

// paletteFragment maps the vertex noise value through the three-colour
// palette and applies lambert shading.
func paletteFragment(in Varyings, _ Fragment, u Uniforms) [4]float32 {
	c1 := u.Vec4("u_Color1", [4]float32{1, 0.5, 0, 1})
	c2 := u.Vec4("u_Color2", [4]float32{1, 1, 0, 1})
	c3 := u.Vec4("u_Color3", [4]float32{1, 0, 0, 1})
	c := rampSample(c1, c2, c3, in.Noise)
	light := diffuse(in.Normal)
	return [4]float32{c[0] * light, c[1] * light, c[2] * light, 1}
}

// backgroundFragment draws slow interfering bands across the screen.
func backgroundFragment(_ Varyings, frag Fragment, u Uniforms) [4]float32 {
	t := u.Float("u_Time", 0) * 0.002
	if frag.Width == 0 || frag.Height == 0 {
		return [4]float32{0, 0, 0, 1}
	}
	x := frag.X / frag.Width
	y := frag.Y / frag.Height

	v := 0.5 + 0.25*math32.Sin(x*6+t) + 0.25*math32.Cos(y*4-t*0.7)
	v = clamp01(v)
	base := [4]float32{0.08, 0.06, 0.12, 1}
	glow := [4]float32{0.25, 0.12, 0.35, 1}
	return lerp4(base, glow, v)
}

func diffuse(normal math3d.Vec3) float32 {
	n := normal.Normalize()
	d := float32(n.Dot(lightDir))
	return clamp01(d)*0.8 + 0.2
}

func clamp01(v float32) float32 {
	return math32.Max(0, math32.Min(1, v))
}
