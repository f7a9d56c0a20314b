//go:build glfw

// Package glcore implements gpu.Context on desktop OpenGL 4.1 core through
// go-gl. A GL context must be current on the calling OS thread before New
// and for every later call.
package glcore

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/taigrr/icoviz/pkg/gpu"
)

// desktopVersion replaces the GLSL ES header the shipped shaders carry.
const desktopVersion = "#version 410 core"

// Context issues gpu.Context calls to the current OpenGL context.
type Context struct {
	vao uint32
}

var _ gpu.Context = (*Context)(nil)

// New loads the GL entry points and binds the vertex array object that
// core profiles require for any attribute state.
func New() (*Context, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("initialize OpenGL: %w", err)
	}
	c := &Context{}
	gl.GenVertexArrays(1, &c.vao)
	gl.BindVertexArray(c.vao)
	return c, nil
}

// Version returns the driver's GL_VERSION string.
func (c *Context) Version() string {
	return gl.GoStr(gl.GetString(gl.VERSION))
}

// Close deletes the vertex array object.
func (c *Context) Close() {
	if c.vao != 0 {
		gl.DeleteVertexArrays(1, &c.vao)
		c.vao = 0
	}
}

// TranslateSource rewrites a "#version 300 es" header to the desktop core
// equivalent. Other sources are returned unchanged.
func TranslateSource(src string) string {
	first, rest, found := strings.Cut(src, "\n")
	if strings.TrimSpace(first) != "#version 300 es" {
		return src
	}
	if !found {
		return desktopVersion
	}
	return desktopVersion + "\n" + rest
}

var shaderTypes = map[gpu.ShaderKind]uint32{
	gpu.VertexShader:   gl.VERTEX_SHADER,
	gpu.FragmentShader: gl.FRAGMENT_SHADER,
}

func (c *Context) CreateShader(kind gpu.ShaderKind) gpu.Shader {
	typ, ok := shaderTypes[kind]
	if !ok {
		return 0
	}
	return gpu.Shader(gl.CreateShader(typ))
}

func (c *Context) ShaderSource(s gpu.Shader, src string) {
	csources, free := gl.Strs(TranslateSource(src) + "\x00")
	gl.ShaderSource(uint32(s), 1, csources, nil)
	free()
}

func (c *Context) CompileShader(s gpu.Shader) { gl.CompileShader(uint32(s)) }

func (c *Context) ShaderCompiled(s gpu.Shader) bool {
	var status int32
	gl.GetShaderiv(uint32(s), gl.COMPILE_STATUS, &status)
	return status == gl.TRUE
}

func (c *Context) ShaderInfoLog(s gpu.Shader) string {
	var n int32
	gl.GetShaderiv(uint32(s), gl.INFO_LOG_LENGTH, &n)
	if n == 0 {
		return ""
	}
	msg := strings.Repeat("\x00", int(n+1))
	gl.GetShaderInfoLog(uint32(s), n, nil, gl.Str(msg))
	return strings.TrimRight(msg, "\x00")
}

func (c *Context) DeleteShader(s gpu.Shader) { gl.DeleteShader(uint32(s)) }

func (c *Context) CreateProgram() gpu.Program { return gpu.Program(gl.CreateProgram()) }

func (c *Context) AttachShader(p gpu.Program, s gpu.Shader) {
	gl.AttachShader(uint32(p), uint32(s))
}

func (c *Context) LinkProgram(p gpu.Program) { gl.LinkProgram(uint32(p)) }

func (c *Context) ProgramLinked(p gpu.Program) bool {
	var status int32
	gl.GetProgramiv(uint32(p), gl.LINK_STATUS, &status)
	return status == gl.TRUE
}

func (c *Context) ProgramInfoLog(p gpu.Program) string {
	var n int32
	gl.GetProgramiv(uint32(p), gl.INFO_LOG_LENGTH, &n)
	if n == 0 {
		return ""
	}
	msg := strings.Repeat("\x00", int(n+1))
	gl.GetProgramInfoLog(uint32(p), n, nil, gl.Str(msg))
	return strings.TrimRight(msg, "\x00")
}

func (c *Context) UseProgram(p gpu.Program)    { gl.UseProgram(uint32(p)) }
func (c *Context) DeleteProgram(p gpu.Program) { gl.DeleteProgram(uint32(p)) }

func (c *Context) UniformLocation(p gpu.Program, name string) gpu.UniformLocation {
	return gpu.UniformLocation(gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00")))
}

func (c *Context) AttribLocation(p gpu.Program, name string) gpu.AttribLocation {
	return gpu.AttribLocation(gl.GetAttribLocation(uint32(p), gl.Str(name+"\x00")))
}

func (c *Context) Uniform1f(loc gpu.UniformLocation, v float32) {
	gl.Uniform1f(int32(loc), v)
}

func (c *Context) Uniform1i(loc gpu.UniformLocation, v int32) {
	gl.Uniform1i(int32(loc), v)
}

func (c *Context) Uniform3f(loc gpu.UniformLocation, x, y, z float32) {
	gl.Uniform3f(int32(loc), x, y, z)
}

func (c *Context) Uniform4f(loc gpu.UniformLocation, x, y, z, w float32) {
	gl.Uniform4f(int32(loc), x, y, z, w)
}

func (c *Context) UniformMatrix4fv(loc gpu.UniformLocation, m [16]float32) {
	gl.UniformMatrix4fv(int32(loc), 1, false, &m[0])
}

func (c *Context) CreateBuffer() gpu.Buffer {
	var b uint32
	gl.GenBuffers(1, &b)
	return gpu.Buffer(b)
}

var bufferTargets = map[gpu.BufferTarget]uint32{
	gpu.ArrayBuffer:        gl.ARRAY_BUFFER,
	gpu.ElementArrayBuffer: gl.ELEMENT_ARRAY_BUFFER,
}

func (c *Context) BindBuffer(target gpu.BufferTarget, b gpu.Buffer) {
	gl.BindBuffer(bufferTargets[target], uint32(b))
}

func (c *Context) BufferFloat32(target gpu.BufferTarget, data []float32) {
	if len(data) == 0 {
		gl.BufferData(bufferTargets[target], 0, nil, gl.STATIC_DRAW)
		return
	}
	gl.BufferData(bufferTargets[target], len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
}

func (c *Context) BufferUint32(target gpu.BufferTarget, data []uint32) {
	if len(data) == 0 {
		gl.BufferData(bufferTargets[target], 0, nil, gl.STATIC_DRAW)
		return
	}
	gl.BufferData(bufferTargets[target], len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
}

func (c *Context) DeleteBuffer(b gpu.Buffer) {
	h := uint32(b)
	gl.DeleteBuffers(1, &h)
}

func (c *Context) EnableVertexAttribArray(a gpu.AttribLocation) {
	if a.Valid() {
		gl.EnableVertexAttribArray(uint32(a))
	}
}

func (c *Context) DisableVertexAttribArray(a gpu.AttribLocation) {
	if a.Valid() {
		gl.DisableVertexAttribArray(uint32(a))
	}
}

func (c *Context) VertexAttribPointer(a gpu.AttribLocation, size int) {
	if a.Valid() {
		gl.VertexAttribPointerWithOffset(uint32(a), int32(size), gl.FLOAT, false, 0, 0)
	}
}

func (c *Context) DrawElements(count int) {
	gl.DrawElementsWithOffset(gl.TRIANGLES, int32(count), gl.UNSIGNED_INT, 0)
}

var capabilities = map[gpu.Capability]uint32{
	gpu.DepthTest: gl.DEPTH_TEST,
	gpu.CullFace:  gl.CULL_FACE,
}

func (c *Context) Enable(cp gpu.Capability)  { gl.Enable(capabilities[cp]) }
func (c *Context) Disable(cp gpu.Capability) { gl.Disable(capabilities[cp]) }

func (c *Context) IsEnabled(cp gpu.Capability) bool { return gl.IsEnabled(capabilities[cp]) }

func (c *Context) PolygonMode(mode gpu.PolygonMode) {
	if mode == gpu.Line {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		return
	}
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
}

func (c *Context) Viewport(x, y, width, height int) {
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

func (c *Context) ClearColor(r, g, b, a float32) { gl.ClearColor(r, g, b, a) }

func (c *Context) Clear() { gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT) }

// GetError maps GL error codes onto the two the contract knows.
func (c *Context) GetError() gpu.ErrorCode {
	switch gl.GetError() {
	case gl.NO_ERROR:
		return gpu.NoError
	case gl.INVALID_VALUE, gl.INVALID_ENUM:
		return gpu.InvalidValue
	default:
		return gpu.InvalidOperation
	}
}
