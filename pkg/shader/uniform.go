package shader

import (
	"fmt"

	"github.com/taigrr/icoviz/pkg/gpu"
	"github.com/taigrr/icoviz/pkg/math3d"
)

// Uniform names every shipped shader uses.
const (
	UniformModel      = "u_Model"
	UniformModelInvTr = "u_ModelInvTr"
	UniformViewProj   = "u_ViewProj"
	UniformTime       = "u_Time"
	UniformAmplitude  = "u_Amplitude"
	UniformFrequency  = "u_Frequency"
	UniformResolution = "u_Resolution"
)

// MaxColors is the number of palette colour uniforms (u_Color1..3).
const MaxColors = 3

// UniformColor returns the name of palette colour i, counting from 1.
func UniformColor(i int) string {
	return fmt.Sprintf("u_Color%d", i)
}

// UniformValue lists the Go types SetUniform accepts.
type UniformValue interface {
	float32 | float64 | int | int32 | math3d.Vec3 | math3d.Vec4 | math3d.Mat4
}

// SetUniform uploads v to the named uniform of p. See Program.SetFloat for
// the missing-name behaviour.
func SetUniform[T UniformValue](p *Program, name string, v T) error {
	loc, err := p.location(name)
	if err != nil || !loc.Valid() {
		return err
	}
	p.Use()
	switch v := any(v).(type) {
	case float32:
		p.ctx.Uniform1f(loc, v)
	case float64:
		p.ctx.Uniform1f(loc, float32(v))
	case int:
		p.ctx.Uniform1i(loc, int32(v))
	case int32:
		p.ctx.Uniform1i(loc, v)
	case math3d.Vec3:
		f := v.Float32s()
		p.ctx.Uniform3f(loc, f[0], f[1], f[2])
	case math3d.Vec4:
		f := v.Float32s()
		p.ctx.Uniform4f(loc, f[0], f[1], f[2], f[3])
	case math3d.Mat4:
		p.ctx.UniformMatrix4fv(loc, v.Float32s())
	}
	if code := p.ctx.GetError(); code != gpu.NoError {
		return &GPUError{Op: fmt.Sprintf("set uniform %q", name), Code: code}
	}
	return nil
}

// location resolves name once and caches the answer, including "absent".
func (p *Program) location(name string) (gpu.UniformLocation, error) {
	if p.destroyed {
		return gpu.NoUniform, ErrUnusable
	}
	loc, ok := p.uniforms[name]
	if !ok {
		loc = p.ctx.UniformLocation(p.handle, name)
		p.uniforms[name] = loc
		if !loc.Valid() {
			p.log.Debug("uniform not active", "uniform", name)
		}
	}
	if !loc.Valid() && p.strict {
		return loc, &MissingUniformError{Program: p.name, Name: name}
	}
	return loc, nil
}

// HasUniform reports whether the program has an active uniform name.
func (p *Program) HasUniform(name string) bool {
	loc, err := p.location(name)
	return err == nil && loc.Valid()
}

// SetFloat sets a float uniform. A name the program does not declare is
// ignored unless the program is strict, in which case a
// *MissingUniformError is returned.
func (p *Program) SetFloat(name string, v float64) error {
	return SetUniform(p, name, v)
}

// SetVec3 sets a vec3 uniform.
func (p *Program) SetVec3(name string, v math3d.Vec3) error {
	return SetUniform(p, name, v)
}

// SetVec4 sets a vec4 uniform.
func (p *Program) SetVec4(name string, v math3d.Vec4) error {
	return SetUniform(p, name, v)
}

// SetMat4 sets a mat4 uniform.
func (p *Program) SetMat4(name string, m math3d.Mat4) error {
	return SetUniform(p, name, m)
}

// SetModelMatrix sets u_Model and its normal matrix u_ModelInvTr.
func (p *Program) SetModelMatrix(m math3d.Mat4) error {
	if err := p.SetMat4(UniformModel, m); err != nil {
		return err
	}
	return p.SetMat4(UniformModelInvTr, m.NormalMatrix())
}

// SetViewProjMatrix sets u_ViewProj.
func (p *Program) SetViewProjMatrix(m math3d.Mat4) error {
	return p.SetMat4(UniformViewProj, m)
}

// SetTime sets u_Time.
func (p *Program) SetTime(t float64) error {
	return p.SetFloat(UniformTime, t)
}

// SetColor sets palette colour i (1..MaxColors) from 0..1 RGB with alpha 1.
func (p *Program) SetColor(i int, rgb math3d.Vec3) error {
	if i < 1 || i > MaxColors {
		return fmt.Errorf("color index %d out of range [1, %d]", i, MaxColors)
	}
	return p.SetVec4(UniformColor(i), math3d.V4FromV3(rgb, 1))
}

// SetAmplitude sets u_Amplitude.
func (p *Program) SetAmplitude(a float64) error {
	return p.SetFloat(UniformAmplitude, a)
}

// SetFrequency sets u_Frequency.
func (p *Program) SetFrequency(f float64) error {
	return p.SetFloat(UniformFrequency, f)
}

// SetResolution sets u_Resolution to (width, height, 1/width, 1/height).
func (p *Program) SetResolution(width, height int) error {
	if width <= 0 || height <= 0 {
		p.log.Debug("resolution not set", "width", width, "height", height)
		return nil
	}
	w, h := float64(width), float64(height)
	return p.SetVec4(UniformResolution, math3d.V4(w, h, 1/w, 1/h))
}
