// Package render orchestrates the per-frame draw passes: it pushes the
// shared uniforms (model, view-projection, time, palette, noise) to a
// shader program and draws drawables with it. It also holds the camera.
package render

import (
	"errors"
	"log/slog"
	"time"

	"github.com/taigrr/icoviz/pkg/geometry"
	"github.com/taigrr/icoviz/pkg/gpu"
	"github.com/taigrr/icoviz/pkg/math3d"
	"github.com/taigrr/icoviz/pkg/shader"
)

// ErrNoProgram is returned by a pass given a nil program.
var ErrNoProgram = errors.New("render pass without a shader program")

// Clock supplies the time the renderer derives u_Time from.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Noise is the displacement field of the foreground pass.
type Noise struct {
	Amplitude float64
	Frequency float64
}

// PassUniforms are the per-pass values on top of the matrices.
type PassUniforms struct {
	// TimeScale multiplies the elapsed time pushed as u_Time.
	TimeScale float64
	// Colors become u_Color1.. in order; extras beyond shader.MaxColors are
	// ignored.
	Colors []math3d.Vec3
	// Noise is pushed as u_Amplitude/u_Frequency when set.
	Noise *Noise
	// Resolution pushes the surface size as u_Resolution.
	Resolution bool
}

// FrameStats counts renderer work since the last ResetStats.
type FrameStats struct {
	Passes    int
	Drawables int
	Draws     int // drawables drawn without error
	Offscreen int // drawables entirely outside the view frustum
}

// Renderer issues draw passes on a gpu.Context.
type Renderer struct {
	ctx   gpu.Context
	clock Clock
	start time.Time
	log   *slog.Logger

	width, height int
	clearColor    [4]float32
	stats         FrameStats
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithClock sets the time source (default: wall clock).
func WithClock(c Clock) Option {
	return func(r *Renderer) { r.clock = c }
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.log = l
		}
	}
}

// WithSize sets the initial surface size for contexts that do not report
// one themselves.
func WithSize(width, height int) Option {
	return func(r *Renderer) { r.width, r.height = width, height }
}

// DefaultClearColor is the dark grey the original visualizer clears to.
var DefaultClearColor = [4]float32{0.2, 0.2, 0.2, 1}

// New creates a renderer for ctx. Elapsed time starts now.
func New(ctx gpu.Context, opts ...Option) *Renderer {
	r := &Renderer{
		ctx:   ctx,
		clock: ClockFunc(time.Now),
		log:   slog.Default(),
	}
	if s, ok := ctx.(gpu.Surface); ok {
		r.width, r.height = s.Size()
	}
	for _, opt := range opts {
		opt(r)
	}
	r.start = r.clock.Now()
	c := DefaultClearColor
	r.SetClearColor(c[0], c[1], c[2], c[3])
	ctx.Viewport(0, 0, r.width, r.height)
	return r
}

// Context returns the context the renderer draws with.
func (r *Renderer) Context() gpu.Context { return r.ctx }

// Size returns the current surface size.
func (r *Renderer) Size() (width, height int) { return r.width, r.height }

// Elapsed returns the time since the renderer was created.
func (r *Renderer) Elapsed() time.Duration {
	return r.clock.Now().Sub(r.start)
}

// Time returns the unscaled u_Time value: elapsed milliseconds / 10.
func (r *Renderer) Time() float64 {
	return float64(r.Elapsed().Microseconds()) / 1000 / 10
}

// SetClearColor sets the colour Clear fills with.
func (r *Renderer) SetClearColor(red, green, blue, alpha float32) {
	r.clearColor = [4]float32{red, green, blue, alpha}
	r.ctx.ClearColor(red, green, blue, alpha)
}

// Clear clears the colour and depth buffers.
func (r *Renderer) Clear() {
	c := r.clearColor
	r.ctx.ClearColor(c[0], c[1], c[2], c[3])
	r.ctx.Clear()
}

// Resize resizes the surface (when the context owns one) and the
// viewport. The caller updates the camera's aspect ratio and projection in
// the same step.
func (r *Renderer) Resize(width, height int) {
	width, height = max(width, 0), max(height, 0)
	r.width, r.height = width, height
	if s, ok := r.ctx.(gpu.Surface); ok {
		s.SetSize(width, height)
	}
	r.ctx.Viewport(0, 0, width, height)
	r.log.Debug("renderer resized", "width", width, "height", height)
}

// Stats returns the counters since the last ResetStats.
func (r *Renderer) Stats() FrameStats { return r.stats }

// ResetStats zeroes the counters.
func (r *Renderer) ResetStats() { r.stats = FrameStats{} }

// RenderPass pushes the identity model matrix, the camera's view-projection
// and the pass uniforms to prog, then draws each drawable in order. Every
// uniform and draw error is collected; a failing step never stops the pass.
func (r *Renderer) RenderPass(camera *Camera, prog *shader.Program, drawables []geometry.Drawable, u PassUniforms) error {
	if prog == nil {
		return ErrNoProgram
	}
	r.stats.Passes++

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	prog.Use()
	collect(prog.SetModelMatrix(math3d.Identity()))
	collect(prog.SetViewProjMatrix(camera.ViewProjectionMatrix()))
	collect(prog.SetTime(r.Time() * u.TimeScale))
	for i, c := range u.Colors[:min(len(u.Colors), shader.MaxColors)] {
		collect(prog.SetColor(i+1, c))
	}
	if u.Noise != nil {
		collect(prog.SetAmplitude(u.Noise.Amplitude))
		collect(prog.SetFrequency(u.Noise.Frequency))
	}
	if u.Resolution {
		collect(prog.SetResolution(r.width, r.height))
	}

	frustum := camera.Frustum()
	for _, d := range drawables {
		r.stats.Drawables++
		if b, ok := d.(Bounded); ok && !frustum.IntersectsBox(b.Bounds()) {
			r.stats.Offscreen++
		}
		if err := prog.Draw(d); err != nil {
			r.log.Warn("draw failed", "program", prog.Name(), "err", err)
			errs = append(errs, err)
			continue
		}
		r.stats.Draws++
	}
	return errors.Join(errs...)
}

// RenderBackground draws the background pass: u_Time unscaled plus
// u_Resolution. The caller disables depth testing first.
func (r *Renderer) RenderBackground(camera *Camera, prog *shader.Program, drawables []geometry.Drawable) error {
	return r.RenderPass(camera, prog, drawables, PassUniforms{TimeScale: 1, Resolution: true})
}

// Render draws the foreground pass with the palette, the noise field and
// u_Time scaled by timeSpeed. The caller enables depth testing first.
func (r *Renderer) Render(camera *Camera, prog *shader.Program, drawables []geometry.Drawable, colors []math3d.Vec3, amplitude, frequency, timeSpeed float64) error {
	return r.RenderPass(camera, prog, drawables, PassUniforms{
		TimeScale: timeSpeed,
		Colors:    colors,
		Noise:     &Noise{Amplitude: amplitude, Frequency: frequency},
	})
}
