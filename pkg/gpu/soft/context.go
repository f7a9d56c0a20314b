// Package soft implements gpu.Context on the CPU.
//
// Shader sources are scanned for their interface (uniforms, inputs,
// outputs) and validated the way a driver front-end would; the actual
// shading runs in Go kernels chosen with "#pragma kernel <name>". Output
// goes to an in-memory Framebuffer that can be saved as PNG or drawn to a
// terminal. The context is deterministic, which makes it the mock GPU for
// tests as well as the renderer behind the terminal front-end.
package soft

import (
	"math"

	"github.com/taigrr/icoviz/pkg/gpu"
)

const maxVertexAttribs = 16

type shaderObject struct {
	kind     gpu.ShaderKind
	source   string
	compiled bool
	log      string
	parsed   parsedShader
}

type uniformSlot struct {
	name string
	typ  string
	set  bool
	f    [16]float32
}

type programObject struct {
	shaders []gpu.Shader
	linked  *linkedProgram
	log     string

	// uniforms is a copy of linked.uniforms holding this program's values.
	uniforms []uniformSlot
	index    map[string]int
}

type bufferObject struct {
	floats []float32
	uints  []uint32
}

type attribState struct {
	enabled bool
	buffer  gpu.Buffer
	size    int
}

// Stats counts work done since the last ResetStats.
type Stats struct {
	DrawCalls int
	Triangles int
	Fragments int
}

// Context is a software gpu.Context.
type Context struct {
	nextID uint32

	shaders  map[gpu.Shader]*shaderObject
	programs map[gpu.Program]*programObject
	buffers  map[gpu.Buffer]*bufferObject

	current      gpu.Program
	arrayBinding gpu.Buffer
	elementBind  gpu.Buffer
	attribs      [maxVertexAttribs]attribState

	caps        map[gpu.Capability]bool
	polygonMode gpu.PolygonMode
	viewport    [4]int
	clearColor  [4]float32
	err         gpu.ErrorCode

	fb    *Framebuffer
	depth []float32

	stats Stats
}

var (
	_ gpu.Context = (*Context)(nil)
	_ gpu.Surface = (*Context)(nil)
)

// New creates a context rendering into a width×height framebuffer. The
// viewport covers the whole framebuffer.
func New(width, height int) *Context {
	c := &Context{
		shaders:  make(map[gpu.Shader]*shaderObject),
		programs: make(map[gpu.Program]*programObject),
		buffers:  make(map[gpu.Buffer]*bufferObject),
		caps:     make(map[gpu.Capability]bool),
	}
	c.SetSize(width, height)
	c.viewport = [4]int{0, 0, c.fb.Width, c.fb.Height}
	return c
}

func (c *Context) id() uint32 {
	c.nextID++
	return c.nextID
}

func (c *Context) setError(code gpu.ErrorCode) {
	if c.err == gpu.NoError {
		c.err = code
	}
}

// GetError returns and clears the sticky error flag.
func (c *Context) GetError() gpu.ErrorCode {
	e := c.err
	c.err = gpu.NoError
	return e
}

// SetSize reallocates the framebuffer and depth buffer. The viewport is
// left alone, as with a resized canvas.
func (c *Context) SetSize(width, height int) {
	c.fb = NewFramebuffer(width, height)
	c.depth = make([]float32, c.fb.Width*c.fb.Height)
	c.clearDepth()
}

// Size returns the framebuffer dimensions.
func (c *Context) Size() (int, int) {
	return c.fb.Width, c.fb.Height
}

// Framebuffer returns the colour attachment.
func (c *Context) Framebuffer() *Framebuffer {
	return c.fb
}

// Stats returns the counters accumulated since the last ResetStats.
func (c *Context) Stats() Stats {
	return c.stats
}

// ResetStats zeroes the counters (call once per frame).
func (c *Context) ResetStats() {
	c.stats = Stats{}
}

// Depth returns the depth value at (x, y), 1 when out of bounds.
func (c *Context) Depth(x, y int) float32 {
	if x < 0 || x >= c.fb.Width || y < 0 || y >= c.fb.Height {
		return 1
	}
	return c.depth[y*c.fb.Width+x]
}

func (c *Context) CreateShader(kind gpu.ShaderKind) gpu.Shader {
	if kind != gpu.VertexShader && kind != gpu.FragmentShader {
		c.setError(gpu.InvalidValue)
		return 0
	}
	s := gpu.Shader(c.id())
	c.shaders[s] = &shaderObject{kind: kind}
	return s
}

func (c *Context) ShaderSource(s gpu.Shader, src string) {
	obj, ok := c.shaders[s]
	if !ok {
		c.setError(gpu.InvalidValue)
		return
	}
	obj.source = src
}

func (c *Context) CompileShader(s gpu.Shader) {
	obj, ok := c.shaders[s]
	if !ok {
		c.setError(gpu.InvalidValue)
		return
	}
	parsed, log := parseShader(obj.kind, obj.source)
	obj.compiled = len(log) == 0
	obj.log = log.String()
	obj.parsed = parsed
}

func (c *Context) ShaderCompiled(s gpu.Shader) bool {
	obj, ok := c.shaders[s]
	return ok && obj.compiled
}

func (c *Context) ShaderInfoLog(s gpu.Shader) string {
	if obj, ok := c.shaders[s]; ok {
		return obj.log
	}
	return ""
}

func (c *Context) DeleteShader(s gpu.Shader) {
	delete(c.shaders, s)
}

func (c *Context) CreateProgram() gpu.Program {
	p := gpu.Program(c.id())
	c.programs[p] = &programObject{}
	return p
}

func (c *Context) AttachShader(p gpu.Program, s gpu.Shader) {
	prog, ok := c.programs[p]
	if !ok || c.shaders[s] == nil {
		c.setError(gpu.InvalidValue)
		return
	}
	prog.shaders = append(prog.shaders, s)
}

func (c *Context) LinkProgram(p gpu.Program) {
	prog, ok := c.programs[p]
	if !ok {
		c.setError(gpu.InvalidValue)
		return
	}
	stages := make([]*shaderObject, 0, len(prog.shaders))
	for _, s := range prog.shaders {
		if obj, ok := c.shaders[s]; ok {
			stages = append(stages, obj)
		}
	}
	linked, log := link(stages)
	prog.linked = linked
	prog.log = log.String()
	prog.uniforms = nil
	prog.index = nil
	if linked == nil {
		return
	}
	prog.uniforms = append([]uniformSlot(nil), linked.uniforms...)
	prog.index = make(map[string]int, len(prog.uniforms))
	for i, u := range prog.uniforms {
		prog.index[u.name] = i
	}
}

func (c *Context) ProgramLinked(p gpu.Program) bool {
	prog, ok := c.programs[p]
	return ok && prog.linked != nil
}

func (c *Context) ProgramInfoLog(p gpu.Program) string {
	if prog, ok := c.programs[p]; ok {
		return prog.log
	}
	return ""
}

func (c *Context) UseProgram(p gpu.Program) {
	if p == 0 {
		c.current = 0
		return
	}
	prog, ok := c.programs[p]
	if !ok || prog.linked == nil {
		c.setError(gpu.InvalidOperation)
		return
	}
	c.current = p
}

func (c *Context) DeleteProgram(p gpu.Program) {
	if c.current == p {
		c.current = 0
	}
	delete(c.programs, p)
}

func (c *Context) UniformLocation(p gpu.Program, name string) gpu.UniformLocation {
	prog, ok := c.programs[p]
	if !ok || prog.linked == nil {
		c.setError(gpu.InvalidOperation)
		return gpu.NoUniform
	}
	if i, ok := prog.index[name]; ok {
		return gpu.UniformLocation(i)
	}
	return gpu.NoUniform
}

func (c *Context) AttribLocation(p gpu.Program, name string) gpu.AttribLocation {
	prog, ok := c.programs[p]
	if !ok || prog.linked == nil {
		c.setError(gpu.InvalidOperation)
		return gpu.NoAttrib
	}
	for i, a := range prog.linked.attribs {
		if a.name == name {
			return gpu.AttribLocation(i)
		}
	}
	return gpu.NoAttrib
}

// uniformTarget resolves loc in the current program and checks its type.
func (c *Context) uniformTarget(loc gpu.UniformLocation, types ...string) *uniformSlot {
	if !loc.Valid() {
		return nil
	}
	prog, ok := c.programs[c.current]
	if !ok || int(loc) >= len(prog.uniforms) {
		c.setError(gpu.InvalidOperation)
		return nil
	}
	slot := &prog.uniforms[loc]
	for _, t := range types {
		if slot.typ == t {
			return slot
		}
	}
	c.setError(gpu.InvalidOperation)
	return nil
}

func (c *Context) Uniform1f(loc gpu.UniformLocation, v float32) {
	if s := c.uniformTarget(loc, "float"); s != nil {
		s.f[0] = v
		s.set = true
	}
}

func (c *Context) Uniform1i(loc gpu.UniformLocation, v int32) {
	if s := c.uniformTarget(loc, "int", "bool", "sampler2D"); s != nil {
		s.f[0] = float32(v)
		s.set = true
	}
}

func (c *Context) Uniform3f(loc gpu.UniformLocation, x, y, z float32) {
	if s := c.uniformTarget(loc, "vec3"); s != nil {
		s.f[0], s.f[1], s.f[2] = x, y, z
		s.set = true
	}
}

func (c *Context) Uniform4f(loc gpu.UniformLocation, x, y, z, w float32) {
	if s := c.uniformTarget(loc, "vec4"); s != nil {
		s.f[0], s.f[1], s.f[2], s.f[3] = x, y, z, w
		s.set = true
	}
}

func (c *Context) UniformMatrix4fv(loc gpu.UniformLocation, m [16]float32) {
	if s := c.uniformTarget(loc, "mat4"); s != nil {
		s.f = m
		s.set = true
	}
}

func (c *Context) CreateBuffer() gpu.Buffer {
	b := gpu.Buffer(c.id())
	c.buffers[b] = &bufferObject{}
	return b
}

func (c *Context) BindBuffer(target gpu.BufferTarget, b gpu.Buffer) {
	if b != 0 && c.buffers[b] == nil {
		c.setError(gpu.InvalidOperation)
		return
	}
	switch target {
	case gpu.ArrayBuffer:
		c.arrayBinding = b
	case gpu.ElementArrayBuffer:
		c.elementBind = b
	default:
		c.setError(gpu.InvalidValue)
	}
}

func (c *Context) bound(target gpu.BufferTarget) *bufferObject {
	switch target {
	case gpu.ArrayBuffer:
		return c.buffers[c.arrayBinding]
	case gpu.ElementArrayBuffer:
		return c.buffers[c.elementBind]
	}
	return nil
}

// BufferFloat32 copies data into the buffer bound to target.
func (c *Context) BufferFloat32(target gpu.BufferTarget, data []float32) {
	b := c.bound(target)
	if b == nil {
		c.setError(gpu.InvalidOperation)
		return
	}
	b.floats = append([]float32(nil), data...)
	b.uints = nil
}

// BufferUint32 copies data into the buffer bound to target.
func (c *Context) BufferUint32(target gpu.BufferTarget, data []uint32) {
	b := c.bound(target)
	if b == nil {
		c.setError(gpu.InvalidOperation)
		return
	}
	b.uints = append([]uint32(nil), data...)
	b.floats = nil
}

func (c *Context) DeleteBuffer(b gpu.Buffer) {
	if c.arrayBinding == b {
		c.arrayBinding = 0
	}
	if c.elementBind == b {
		c.elementBind = 0
	}
	for i := range c.attribs {
		if c.attribs[i].buffer == b {
			c.attribs[i] = attribState{}
		}
	}
	delete(c.buffers, b)
}

func (c *Context) EnableVertexAttribArray(a gpu.AttribLocation) {
	if a < 0 || int(a) >= maxVertexAttribs {
		c.setError(gpu.InvalidValue)
		return
	}
	c.attribs[a].enabled = true
}

func (c *Context) DisableVertexAttribArray(a gpu.AttribLocation) {
	if a < 0 || int(a) >= maxVertexAttribs {
		c.setError(gpu.InvalidValue)
		return
	}
	c.attribs[a].enabled = false
}

func (c *Context) VertexAttribPointer(a gpu.AttribLocation, size int) {
	if a < 0 || int(a) >= maxVertexAttribs || size < 1 || size > 4 {
		c.setError(gpu.InvalidValue)
		return
	}
	if c.arrayBinding == 0 {
		c.setError(gpu.InvalidOperation)
		return
	}
	c.attribs[a].buffer = c.arrayBinding
	c.attribs[a].size = size
}

func (c *Context) Enable(cp gpu.Capability)  { c.caps[cp] = true }
func (c *Context) Disable(cp gpu.Capability) { c.caps[cp] = false }

func (c *Context) IsEnabled(cp gpu.Capability) bool { return c.caps[cp] }

func (c *Context) PolygonMode(mode gpu.PolygonMode) {
	c.polygonMode = mode
}

func (c *Context) Viewport(x, y, width, height int) {
	if width < 0 || height < 0 {
		c.setError(gpu.InvalidValue)
		return
	}
	c.viewport = [4]int{x, y, width, height}
}

func (c *Context) ClearColor(r, g, b, a float32) {
	c.clearColor = [4]float32{r, g, b, a}
}

// Clear clears both the colour and the depth attachment.
func (c *Context) Clear() {
	c.fb.Clear(toRGBA(c.clearColor))
	c.clearDepth()
}

func (c *Context) clearDepth() {
	// copy-doubling fill
	n := len(c.depth)
	if n == 0 {
		return
	}
	c.depth[0] = 1
	for i := 1; i < n; i *= 2 {
		copy(c.depth[i:], c.depth[:i])
	}
}

// DrawElements shades count indices from the bound element buffer as a
// triangle list using the current program's kernels.
func (c *Context) DrawElements(count int) {
	if count < 0 {
		c.setError(gpu.InvalidValue)
		return
	}
	prog, ok := c.programs[c.current]
	if !ok || prog.linked == nil {
		c.setError(gpu.InvalidOperation)
		return
	}
	elements := c.buffers[c.elementBind]
	if elements == nil || count > len(elements.uints) {
		c.setError(gpu.InvalidOperation)
		return
	}

	vk, fk := lookupKernels(prog.linked.vertexKernel, prog.linked.fragmentKernel)
	u := Uniforms{slots: prog.uniforms, index: prog.index}
	fetch, vertexCount, ok := c.attributeFetcher(prog)
	if !ok {
		c.setError(gpu.InvalidOperation)
		return
	}

	indices := elements.uints[:count]
	for _, idx := range indices {
		if vertexCount >= 0 && int(idx) >= vertexCount {
			c.setError(gpu.InvalidOperation)
			return
		}
	}

	c.stats.DrawCalls++

	shaded := make(map[uint32]shadedVertex, min(len(indices), 1<<16))
	vertex := func(idx uint32) shadedVertex {
		if sv, ok := shaded[idx]; ok {
			return sv
		}
		clip, vary := vk(fetch(int(idx)), u)
		sv := shadedVertex{clip: clip, vary: vary}
		shaded[idx] = sv
		return sv
	}

	for i := 0; i+2 < len(indices); i += 3 {
		tri := [3]shadedVertex{vertex(indices[i]), vertex(indices[i+1]), vertex(indices[i+2])}
		c.stats.Triangles++
		c.rasterize(tri, fk, u)
	}
}

// attributeFetcher returns a function reading the enabled attributes of
// vertex i, plus the number of vertices the enabled buffers can supply (-1
// when no array is enabled).
func (c *Context) attributeFetcher(prog *programObject) (func(i int) VertexInput, int, bool) {
	type source struct {
		data []float32
		size int
	}
	var pos, nor, col *source
	vertexCount := -1

	for loc, decl := range prog.linked.attribs {
		if loc >= maxVertexAttribs {
			break
		}
		st := c.attribs[loc]
		if !st.enabled {
			continue
		}
		buf := c.buffers[st.buffer]
		if buf == nil || st.size == 0 {
			return nil, 0, false
		}
		src := &source{data: buf.floats, size: st.size}
		n := len(src.data) / src.size
		if vertexCount < 0 || n < vertexCount {
			vertexCount = n
		}
		switch decl.name {
		case AttribPosition:
			pos = src
		case AttribNormal:
			nor = src
		case AttribColor:
			col = src
		}
	}

	read := func(s *source, i int, def [4]float64) [4]float64 {
		out := def
		if s == nil {
			return out
		}
		base := i * s.size
		for k := 0; k < s.size; k++ {
			out[k] = float64(s.data[base+k])
		}
		return out
	}

	return func(i int) VertexInput {
		p := read(pos, i, [4]float64{0, 0, 0, 1})
		n := read(nor, i, [4]float64{})
		cl := read(col, i, [4]float64{1, 1, 1, 1})
		in := VertexInput{Color: [4]float32{float32(cl[0]), float32(cl[1]), float32(cl[2]), float32(cl[3])}}
		in.Position.X, in.Position.Y, in.Position.Z = p[0], p[1], p[2]
		in.Normal.X, in.Normal.Y, in.Normal.Z = n[0], n[1], n[2]
		return in
	}, vertexCount, true
}

// clampDepth keeps NaN out of the depth buffer.
func clampDepth(z float64) (float32, bool) {
	if math.IsNaN(z) || z < 0 || z > 1 {
		return 0, false
	}
	return float32(z), true
}
