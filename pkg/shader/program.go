// Package shader compiles GLSL programs on a gpu.Context and binds
// uniforms, vertex attributes and draw calls to them.
package shader

import (
	"context"
	"errors"
	"log/slog"

	"github.com/taigrr/icoviz/pkg/geometry"
	"github.com/taigrr/icoviz/pkg/gpu"
)

// Attribute names every shipped shader uses.
const (
	AttribPosition = "vs_Pos"
	AttribNormal   = "vs_Nor"
	AttribColor    = "vs_Col"
)

// Stage is the source of one pipeline stage.
type Stage struct {
	Kind   gpu.ShaderKind
	Source string
	Name   string // for diagnostics, e.g. the file name
}

// Program is a linked shader program plus its location caches.
type Program struct {
	ctx    gpu.Context
	handle gpu.Program
	name   string
	strict bool
	log    *slog.Logger

	uniforms  map[string]gpu.UniformLocation
	attribs   map[string]gpu.AttribLocation
	reported  map[string]bool
	destroyed bool
}

// Option configures a Program.
type Option func(*Program)

// WithStrict makes setting a uniform the program does not declare an
// error instead of a logged no-op.
func WithStrict(strict bool) Option {
	return func(p *Program) { p.strict = strict }
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(p *Program) {
		if l != nil {
			p.log = l
		}
	}
}

// WithName labels the program in logs and errors.
func WithName(name string) Option {
	return func(p *Program) { p.name = name }
}

// Compile compiles and links stages into a program and makes it current.
// On failure every GPU object created along the way is deleted and a
// *CompileError or *LinkError is returned.
func Compile(ctx gpu.Context, stages []Stage, opts ...Option) (*Program, error) {
	p := &Program{
		ctx:      ctx,
		log:      slog.Default(),
		uniforms: make(map[string]gpu.UniformLocation),
		attribs:  make(map[string]gpu.AttribLocation),
		reported: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With("program", p.name)

	shaders := make([]gpu.Shader, 0, len(stages))
	cleanup := func() {
		for _, s := range shaders {
			ctx.DeleteShader(s)
		}
	}

	for _, st := range stages {
		s := ctx.CreateShader(st.Kind)
		if s == 0 {
			cleanup()
			return nil, &CompileError{Stage: st.Kind, Name: st.Name, Log: "invalid shader kind"}
		}
		shaders = append(shaders, s)
		ctx.ShaderSource(s, st.Source)
		ctx.CompileShader(s)
		if !ctx.ShaderCompiled(s) {
			err := &CompileError{Stage: st.Kind, Name: st.Name, Log: ctx.ShaderInfoLog(s)}
			cleanup()
			return nil, err
		}
	}

	p.handle = ctx.CreateProgram()
	for _, s := range shaders {
		ctx.AttachShader(p.handle, s)
	}
	ctx.LinkProgram(p.handle)
	if !ctx.ProgramLinked(p.handle) {
		err := &LinkError{Program: p.name, Log: ctx.ProgramInfoLog(p.handle)}
		ctx.DeleteProgram(p.handle)
		cleanup()
		return nil, err
	}
	// the linked program keeps what it needs
	cleanup()

	p.Use()
	p.log.Debug("program linked", "stages", len(stages))
	return p, nil
}

// Name returns the program's label.
func (p *Program) Name() string { return p.name }

// Handle returns the underlying GPU handle, zero once destroyed.
func (p *Program) Handle() gpu.Program { return p.handle }

// Use makes the program current.
func (p *Program) Use() {
	if p.destroyed {
		return
	}
	p.ctx.UseProgram(p.handle)
}

// Destroy deletes the GPU program. Further calls return ErrUnusable.
func (p *Program) Destroy() {
	if p.destroyed {
		return
	}
	p.ctx.DeleteProgram(p.handle)
	p.handle = 0
	p.destroyed = true
}

// attribLocation resolves and caches an attribute slot.
func (p *Program) attribLocation(name string) gpu.AttribLocation {
	if loc, ok := p.attribs[name]; ok {
		return loc
	}
	loc := p.ctx.AttribLocation(p.handle, name)
	p.attribs[name] = loc
	return loc
}

type attribBinding struct {
	name   string
	buffer gpu.Buffer
	size   int
}

func bindings(d geometry.Drawable) [3]attribBinding {
	return [3]attribBinding{
		{AttribPosition, d.PositionBuffer(), 3},
		{AttribNormal, d.NormalBuffer(), 3},
		{AttribColor, d.ColorBuffer(), 4},
	}
}

// BindAttributes points each attribute the program declares at the
// drawable's matching buffer. Declared attributes the drawable lacks are
// disabled and reported as joined *AttributeMismatchError values; the
// others are still bound.
func (p *Program) BindAttributes(d geometry.Drawable) error {
	if p.destroyed {
		return ErrUnusable
	}
	var errs []error
	for _, b := range bindings(d) {
		loc := p.attribLocation(b.name)
		if !loc.Valid() {
			continue
		}
		if b.buffer == 0 {
			p.ctx.DisableVertexAttribArray(loc)
			errs = append(errs, &AttributeMismatchError{Program: p.name, Name: b.name})
			continue
		}
		p.ctx.BindBuffer(gpu.ArrayBuffer, b.buffer)
		p.ctx.VertexAttribPointer(loc, b.size)
		p.ctx.EnableVertexAttribArray(loc)
	}
	return errors.Join(errs...)
}

func (p *Program) unbindAttributes() {
	for _, name := range []string{AttribPosition, AttribNormal, AttribColor} {
		if loc := p.attribLocation(name); loc.Valid() {
			p.ctx.DisableVertexAttribArray(loc)
		}
	}
}

// Draw issues one indexed triangle draw of d with this program. A missing
// position buffer aborts the draw with an *AttributeMismatchError; other
// missing attributes are logged and skipped.
func (p *Program) Draw(d geometry.Drawable) error {
	if p.destroyed {
		return ErrUnusable
	}
	if d.IndexBuffer() == 0 || d.IndexCount() == 0 {
		p.reportOnce("empty", slog.LevelDebug, "nothing to draw")
		return nil
	}
	p.Use()
	defer p.unbindAttributes()

	if err := p.BindAttributes(d); err != nil {
		var mismatch *AttributeMismatchError
		for _, e := range unjoin(err) {
			if !errors.As(e, &mismatch) {
				return err
			}
			if mismatch.Name == AttribPosition {
				p.log.Warn("draw skipped", "err", mismatch)
				return mismatch
			}
			p.reportOnce("attr:"+mismatch.Name, slog.LevelWarn, "attribute not provided", "attribute", mismatch.Name)
		}
	}

	p.ctx.BindBuffer(gpu.ElementArrayBuffer, d.IndexBuffer())
	p.ctx.DrawElements(d.IndexCount())
	if code := p.ctx.GetError(); code != gpu.NoError {
		return &GPUError{Op: "draw " + p.name, Code: code}
	}
	return nil
}

// reportOnce logs msg the first time key is seen for this program.
func (p *Program) reportOnce(key string, level slog.Level, msg string, args ...any) {
	if p.reported[key] {
		return
	}
	p.reported[key] = true
	p.log.Log(context.Background(), level, msg, args...)
}

// unjoin splits an errors.Join result back into its parts.
func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
