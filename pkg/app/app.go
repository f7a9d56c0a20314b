package app

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taigrr/icoviz/internal/assets"
	"github.com/taigrr/icoviz/pkg/geometry"
	"github.com/taigrr/icoviz/pkg/gpu"
	"github.com/taigrr/icoviz/pkg/math3d"
	"github.com/taigrr/icoviz/pkg/render"
	"github.com/taigrr/icoviz/pkg/shader"
)

// Shape selects the foreground drawable.
type Shape string

const (
	ShapeIcosphere Shape = "icosphere"
	ShapeCube      Shape = "cube"
	ShapeSquare    Shape = "square"
)

// ParseShape converts a flag value to a Shape.
func ParseShape(s string) (Shape, error) {
	switch sh := Shape(s); sh {
	case ShapeIcosphere, ShapeCube, ShapeSquare:
		return sh, nil
	}
	return "", fmt.Errorf("unknown shape %q (want icosphere, cube or square)", s)
}

// Presenter shows a finished frame: swaps window buffers, copies the
// framebuffer to the terminal, and so on.
type Presenter interface {
	Present() error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func() error

func (f PresenterFunc) Present() error { return f() }

// foreground is a drawable the app owns.
type foreground interface {
	geometry.Drawable
	Destroy()
}

type config struct {
	log       *slog.Logger
	clock     func() time.Time
	fps       int
	strict    bool
	shape     Shape
	model     *geometry.Buffer
	level     int
	program   string
	presenter Presenter
	noBG      bool
}

// Option configures an App.
type Option func(*config)

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock sets the time the first frame is measured from (default
// time.Now).
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.clock = now }
}

// WithFPS sets the frame rate the orbit springs are tuned for.
func WithFPS(fps int) Option {
	return func(c *config) { c.fps = fps }
}

// WithStrict makes uniforms missing from the foreground program errors
// instead of silent skips. The background program is never strict: it
// does not use the model or palette uniforms.
func WithStrict(strict bool) Option {
	return func(c *config) { c.strict = strict }
}

// WithShape selects the foreground drawable.
func WithShape(s Shape) Option {
	return func(c *config) { c.shape = s }
}

// WithModel draws buf instead of a generated shape. buf is fitted into the
// unit sphere first; the caller's copy is not modified.
func WithModel(buf *geometry.Buffer) Option {
	return func(c *config) { c.model = buf }
}

// WithTessellation sets the initial icosphere level.
func WithTessellation(level int) Option {
	return func(c *config) { c.level = level }
}

// WithProgram selects the embedded foreground shader (default
// assets.CustomNoise).
func WithProgram(name string) Option {
	return func(c *config) { c.program = name }
}

// WithBackground enables or disables the background pass. Without it the
// frame shows the renderer's clear colour behind the foreground.
func WithBackground(enabled bool) Option {
	return func(c *config) { c.noBG = !enabled }
}

// WithPresenter sets what runs after every frame.
func WithPresenter(p Presenter) Option {
	return func(c *config) { c.presenter = p }
}

// App owns every GPU resource of the visualizer. All methods must be
// called from the goroutine that owns the context.
type App struct {
	ctx       gpu.Context
	renderer  *render.Renderer
	camera    *render.Camera
	orbit     *Orbit
	log       *slog.Logger
	presenter Presenter

	background *shader.Program
	program    *shader.Program
	quad       *geometry.Square

	fg     foreground
	sphere *geometry.Icosphere // set when fg is an icosphere

	now     time.Time
	frames  int
	lastErr error

	sched   Scheduler
	source  func() Controls
	running bool
}

// New compiles the programs and uploads the background quad and the
// foreground drawable. On error everything created so far is released.
func New(ctx gpu.Context, opts ...Option) (*App, error) {
	cfg := config{
		log:     slog.Default(),
		clock:   time.Now,
		fps:     60,
		shape:   ShapeIcosphere,
		level:   DefaultControls().Tessellation,
		program: assets.CustomNoise,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	a := &App{
		ctx:       ctx,
		orbit:     NewOrbit(cfg.fps),
		log:       cfg.log,
		presenter: cfg.presenter,
		now:       cfg.clock(),
	}
	ready := false
	defer func() {
		if !ready {
			a.Close()
		}
	}()

	a.renderer = render.New(ctx,
		render.WithLogger(cfg.log),
		render.WithClock(render.ClockFunc(func() time.Time { return a.now })),
	)
	a.camera = render.NewCamera(math3d.V3(0, 0, 5), math3d.Zero3())
	w, h := a.renderer.Size()
	a.camera.SetAspectFromSize(w, h)
	a.camera.UpdateProjectionMatrix()

	var err error
	if !cfg.noBG {
		if a.background, err = a.compile(assets.Background, false); err != nil {
			return nil, err
		}
	}
	if a.program, err = a.compile(cfg.program, cfg.strict); err != nil {
		return nil, err
	}
	a.quad = geometry.NewSquare(ctx)

	switch {
	case cfg.model != nil:
		buf := cfg.model.Clone()
		if err := buf.Validate(); err != nil {
			return nil, fmt.Errorf("model: %w", err)
		}
		buf.Fit(1)
		a.fg = geometry.Upload(ctx, buf)
	case cfg.shape == ShapeCube:
		a.fg = geometry.NewCube(ctx, math3d.Zero3(), 1.5)
	case cfg.shape == ShapeSquare:
		a.fg = geometry.Upload(ctx, geometry.SquareBuffer(0))
	default:
		if a.sphere, err = geometry.NewIcosphere(ctx, math3d.Zero3(), 1, cfg.level); err != nil {
			return nil, err
		}
		a.fg = a.sphere
	}

	ctx.Enable(gpu.DepthTest)
	ready = true
	a.log.Info("visualizer ready", "shape", cfg.shape, "program", cfg.program, "width", w, "height", h)
	return a, nil
}

func (a *App) compile(name string, strict bool) (*shader.Program, error) {
	stages, err := assets.Stages(name)
	if err != nil {
		return nil, err
	}
	p, err := shader.Compile(a.ctx, stages,
		shader.WithName(name),
		shader.WithStrict(strict),
		shader.WithLogger(a.log),
	)
	if err != nil {
		a.log.Error("shader program unusable", "program", name, "err", err)
		return nil, err
	}
	return p, nil
}

// Camera returns the camera.
func (a *App) Camera() *render.Camera { return a.camera }

// Renderer returns the renderer.
func (a *App) Renderer() *render.Renderer { return a.renderer }

// Orbit returns the orbit springs fed by user input.
func (a *App) Orbit() *Orbit { return a.orbit }

// Foreground returns the foreground drawable.
func (a *App) Foreground() geometry.Drawable { return a.fg }

// Level returns the current icosphere level, or -1 when the foreground is
// not an icosphere.
func (a *App) Level() int {
	if a.sphere == nil {
		return -1
	}
	return a.sphere.Level
}

// Frames returns the number of frames rendered.
func (a *App) Frames() int { return a.frames }

// Err returns the error of the last scheduled frame.
func (a *App) Err() error { return a.lastErr }

// Frame renders one frame at now with the given controls: regenerate the
// icosphere if the tessellation changed, step the orbit, draw the
// background without depth testing, then the foreground with it.
// A rejected tessellation keeps the current sphere; the frame is still
// drawn and the rejection is joined into the returned error.
func (a *App) Frame(now time.Time, c Controls) error {
	a.now = now

	levelErr := c.Validate()
	if levelErr != nil {
		a.log.Warn("controls rejected", "err", levelErr)
	} else {
		levelErr = a.setLevel(c.Tessellation)
	}

	a.orbit.Step(a.camera)
	a.camera.Update()

	a.renderer.ResetStats()
	a.renderer.Clear()

	a.ctx.PolygonMode(gpu.Fill)
	var bgErr error
	if a.background != nil {
		a.ctx.Disable(gpu.DepthTest)
		bgErr = a.renderer.RenderBackground(a.camera, a.background, []geometry.Drawable{a.quad})
	}
	a.ctx.Enable(gpu.DepthTest)

	if c.Wireframe {
		a.ctx.PolygonMode(gpu.Line)
	}
	fgErr := a.renderer.Render(a.camera, a.program, []geometry.Drawable{a.fg},
		c.Palette(), c.Amplitude, c.Frequency, c.TimeSpeed)
	a.ctx.PolygonMode(gpu.Fill)

	a.frames++
	err := errors.Join(levelErr, bgErr, fgErr)
	if a.presenter != nil {
		if perr := a.presenter.Present(); perr != nil {
			err = errors.Join(err, fmt.Errorf("present: %w", perr))
		}
	}
	return err
}

// setLevel swaps in an icosphere at level. The old buffers are deleted only
// after the new ones are uploaded; on error the old sphere stays.
func (a *App) setLevel(level int) error {
	if a.sphere == nil || a.sphere.Level == level {
		return nil
	}
	next, err := a.sphere.Regenerate(level)
	if err != nil {
		a.log.Warn("tessellation rejected", "level", level, "err", err)
		return err
	}
	old := a.sphere
	a.sphere, a.fg = next, next
	old.Destroy()
	a.log.Debug("icosphere regenerated", "level", level, "vertices", next.VertexCount())
	return nil
}

// Resize resizes the renderer and updates the camera's aspect ratio and
// projection. A zero dimension keeps the previous aspect ratio.
func (a *App) Resize(width, height int) {
	a.renderer.Resize(width, height)
	if !a.camera.SetAspectFromSize(width, height) {
		a.log.Debug("aspect ratio kept", "width", width, "height", height)
	}
	a.camera.UpdateProjectionMatrix()
}

// Start renders a frame with source() every time s fires, until Stop.
func (a *App) Start(s Scheduler, source func() Controls) {
	a.sched, a.source = s, source
	a.running = true
	s.RequestNextFrame(a.tick)
}

// Stop ends the frame loop: no further frame is requested.
func (a *App) Stop() { a.running = false }

// Running reports whether the frame loop is active.
func (a *App) Running() bool { return a.running }

func (a *App) tick(now time.Time) {
	if !a.running {
		return
	}
	if err := a.Frame(now, a.source()); err != nil {
		if a.lastErr == nil || a.lastErr.Error() != err.Error() {
			a.log.Warn("frame failed", "frame", a.frames, "err", err)
		}
		a.lastErr = err
	} else {
		a.lastErr = nil
	}
	if a.running {
		a.sched.RequestNextFrame(a.tick)
	}
}

// Close releases every GPU resource. The App must not be used afterwards.
func (a *App) Close() {
	a.running = false
	if a.fg != nil {
		a.fg.Destroy()
		a.fg, a.sphere = nil, nil
	}
	if a.quad != nil {
		a.quad.Destroy()
		a.quad = nil
	}
	for _, p := range []*shader.Program{a.program, a.background} {
		if p != nil {
			p.Destroy()
		}
	}
}
