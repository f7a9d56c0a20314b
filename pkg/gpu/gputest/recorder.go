// Package gputest provides helpers for testing code that drives a
// gpu.Context.
package gputest

import (
	"fmt"
	"strings"

	"github.com/taigrr/icoviz/pkg/gpu"
)

// Call is one recorded context method invocation.
type Call struct {
	Name string
	Args []any
}

func (c Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = fmt.Sprint(a)
	}
	return c.Name + "(" + strings.Join(args, ", ") + ")"
}

// Recorder wraps a gpu.Context and records every call before forwarding it.
type Recorder struct {
	gpu.Context

	Calls []Call
}

var _ gpu.Context = (*Recorder)(nil)

// NewRecorder wraps ctx.
func NewRecorder(ctx gpu.Context) *Recorder {
	return &Recorder{Context: ctx}
}

func (r *Recorder) record(name string, args ...any) {
	r.Calls = append(r.Calls, Call{Name: name, Args: args})
}

// Reset forgets all recorded calls.
func (r *Recorder) Reset() { r.Calls = r.Calls[:0] }

// Count returns how many calls named name were recorded.
func (r *Recorder) Count(name string) int {
	n := 0
	for _, c := range r.Calls {
		if c.Name == name {
			n++
		}
	}
	return n
}

// Find returns the recorded calls named name, in order.
func (r *Recorder) Find(name string) []Call {
	var out []Call
	for _, c := range r.Calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Names returns the sequence of recorded call names.
func (r *Recorder) Names() []string {
	out := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		out[i] = c.Name
	}
	return out
}

func (r *Recorder) CreateShader(kind gpu.ShaderKind) gpu.Shader {
	r.record("CreateShader", kind)
	return r.Context.CreateShader(kind)
}

func (r *Recorder) ShaderSource(s gpu.Shader, src string) {
	r.record("ShaderSource", s, src)
	r.Context.ShaderSource(s, src)
}

func (r *Recorder) CompileShader(s gpu.Shader) {
	r.record("CompileShader", s)
	r.Context.CompileShader(s)
}

func (r *Recorder) DeleteShader(s gpu.Shader) {
	r.record("DeleteShader", s)
	r.Context.DeleteShader(s)
}

func (r *Recorder) CreateProgram() gpu.Program {
	r.record("CreateProgram")
	return r.Context.CreateProgram()
}

func (r *Recorder) AttachShader(p gpu.Program, s gpu.Shader) {
	r.record("AttachShader", p, s)
	r.Context.AttachShader(p, s)
}

func (r *Recorder) LinkProgram(p gpu.Program) {
	r.record("LinkProgram", p)
	r.Context.LinkProgram(p)
}

func (r *Recorder) UseProgram(p gpu.Program) {
	r.record("UseProgram", p)
	r.Context.UseProgram(p)
}

func (r *Recorder) DeleteProgram(p gpu.Program) {
	r.record("DeleteProgram", p)
	r.Context.DeleteProgram(p)
}

func (r *Recorder) UniformLocation(p gpu.Program, name string) gpu.UniformLocation {
	r.record("UniformLocation", p, name)
	return r.Context.UniformLocation(p, name)
}

func (r *Recorder) AttribLocation(p gpu.Program, name string) gpu.AttribLocation {
	r.record("AttribLocation", p, name)
	return r.Context.AttribLocation(p, name)
}

func (r *Recorder) Uniform1f(loc gpu.UniformLocation, v float32) {
	r.record("Uniform1f", loc, v)
	r.Context.Uniform1f(loc, v)
}

func (r *Recorder) Uniform1i(loc gpu.UniformLocation, v int32) {
	r.record("Uniform1i", loc, v)
	r.Context.Uniform1i(loc, v)
}

func (r *Recorder) Uniform3f(loc gpu.UniformLocation, x, y, z float32) {
	r.record("Uniform3f", loc, x, y, z)
	r.Context.Uniform3f(loc, x, y, z)
}

func (r *Recorder) Uniform4f(loc gpu.UniformLocation, x, y, z, w float32) {
	r.record("Uniform4f", loc, x, y, z, w)
	r.Context.Uniform4f(loc, x, y, z, w)
}

func (r *Recorder) UniformMatrix4fv(loc gpu.UniformLocation, m [16]float32) {
	r.record("UniformMatrix4fv", loc, m)
	r.Context.UniformMatrix4fv(loc, m)
}

func (r *Recorder) CreateBuffer() gpu.Buffer {
	r.record("CreateBuffer")
	return r.Context.CreateBuffer()
}

func (r *Recorder) BindBuffer(target gpu.BufferTarget, b gpu.Buffer) {
	r.record("BindBuffer", target, b)
	r.Context.BindBuffer(target, b)
}

func (r *Recorder) BufferFloat32(target gpu.BufferTarget, data []float32) {
	r.record("BufferFloat32", target, len(data))
	r.Context.BufferFloat32(target, data)
}

func (r *Recorder) BufferUint32(target gpu.BufferTarget, data []uint32) {
	r.record("BufferUint32", target, len(data))
	r.Context.BufferUint32(target, data)
}

func (r *Recorder) DeleteBuffer(b gpu.Buffer) {
	r.record("DeleteBuffer", b)
	r.Context.DeleteBuffer(b)
}

func (r *Recorder) EnableVertexAttribArray(a gpu.AttribLocation) {
	r.record("EnableVertexAttribArray", a)
	r.Context.EnableVertexAttribArray(a)
}

func (r *Recorder) DisableVertexAttribArray(a gpu.AttribLocation) {
	r.record("DisableVertexAttribArray", a)
	r.Context.DisableVertexAttribArray(a)
}

func (r *Recorder) VertexAttribPointer(a gpu.AttribLocation, size int) {
	r.record("VertexAttribPointer", a, size)
	r.Context.VertexAttribPointer(a, size)
}

func (r *Recorder) DrawElements(count int) {
	r.record("DrawElements", count)
	r.Context.DrawElements(count)
}

func (r *Recorder) Enable(c gpu.Capability) {
	r.record("Enable", c)
	r.Context.Enable(c)
}

func (r *Recorder) Disable(c gpu.Capability) {
	r.record("Disable", c)
	r.Context.Disable(c)
}

func (r *Recorder) PolygonMode(mode gpu.PolygonMode) {
	r.record("PolygonMode", mode)
	r.Context.PolygonMode(mode)
}

func (r *Recorder) Viewport(x, y, width, height int) {
	r.record("Viewport", x, y, width, height)
	r.Context.Viewport(x, y, width, height)
}

func (r *Recorder) ClearColor(cr, g, b, a float32) {
	r.record("ClearColor", cr, g, b, a)
	r.Context.ClearColor(cr, g, b, a)
}

func (r *Recorder) Clear() {
	r.record("Clear")
	r.Context.Clear()
}

// SetSize forwards to the wrapped context when it is a gpu.Surface.
func (r *Recorder) SetSize(width, height int) {
	r.record("SetSize", width, height)
	if s, ok := r.Context.(gpu.Surface); ok {
		s.SetSize(width, height)
	}
}

// Size forwards to the wrapped context when it is a gpu.Surface.
func (r *Recorder) Size() (int, int) {
	if s, ok := r.Context.(gpu.Surface); ok {
		return s.Size()
	}
	return 0, 0
}
