// icoviz - shader-driven icosphere visualizer
// Renders a noise-displaced icosphere over an animated background, in the
// terminal by default, to a PNG, or in a desktop window.
//
// Controls (terminal and window):
//
//	+/-         - Tessellation up/down
//	[ / ]       - Noise amplitude down/up
//	, / .       - Noise frequency down/up
//	; / '       - Animation speed down/up
//	1 / 2 / 3   - Cycle palette colour 1, 2 or 3
//	W/A/S/D     - Orbit the camera (arrows too)
//	Mouse drag  - Orbit the camera
//	Scroll      - Zoom in/out
//	R           - Reset the camera
//	X           - Toggle wireframe
//	Ctrl+S      - Save controls to the -config file
//	?           - Toggle HUD overlay
//	Esc         - Quit
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/taigrr/icoviz/internal/assets"
	"github.com/taigrr/icoviz/pkg/app"
	"github.com/taigrr/icoviz/pkg/geometry"
	"github.com/taigrr/icoviz/pkg/gpu/soft"
	"github.com/taigrr/icoviz/pkg/math3d"
)

var (
	configPath = flag.String("config", "", "YAML or .toml controls file (created by Ctrl+S if missing)")
	targetFPS  = flag.Int("fps", 30, "Target FPS")
	tessFlag   = flag.Int("tess", -1, "Tessellation level (default from -config, else 5)")
	shapeFlag  = flag.String("shape", "icosphere", "Foreground shape: icosphere, cube or square")
	modelPath  = flag.String("model", "", "Render a .glb model instead of the shape")
	pngPath    = flag.String("png", "", "Render one frame to this PNG file and exit")
	exportPath = flag.String("export", "", "Write the foreground geometry as .glb and exit")
	width      = flag.Int("width", 0, "Output width in pixels for -png and -window (default 800)")
	height     = flag.Int("height", 0, "Output height in pixels for -png and -window (default 600)")
	strict     = flag.Bool("strict", false, "Treat uniforms missing from the shader as errors")
	logPath    = flag.String("log", "", "Write logs to this file")
	verbose    = flag.Bool("v", false, "Debug logging")
	window     = flag.Bool("window", false, "Open a desktop window (needs the glfw build tag)")
	bgFlag     = flag.String("bg", "shader", `Background: "shader" or a clear colour "R,G,B"`)
	watchFlag  = flag.Bool("watch", false, "Reload the -config file when it changes")
	program    = flag.String("program", assets.CustomNoise, "Foreground shader program")
)

const (
	defaultWidth  = 800
	defaultHeight = 600
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "icoviz - shader-driven icosphere visualizer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: icoviz [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  +/-         - Tessellation\n")
		fmt.Fprintf(os.Stderr, "  [ ]         - Amplitude\n")
		fmt.Fprintf(os.Stderr, "  , .         - Frequency\n")
		fmt.Fprintf(os.Stderr, "  ; '         - Animation speed\n")
		fmt.Fprintf(os.Stderr, "  1 2 3       - Cycle palette colours\n")
		fmt.Fprintf(os.Stderr, "  W/S/A/D     - Orbit camera\n")
		fmt.Fprintf(os.Stderr, "  R           - Reset camera\n")
		fmt.Fprintf(os.Stderr, "  X           - Toggle wireframe\n")
		fmt.Fprintf(os.Stderr, "  Ctrl+S      - Save controls\n")
		fmt.Fprintf(os.Stderr, "  ?           - Toggle HUD overlay\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
	}
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options is everything the front-ends need besides the controls.
type options struct {
	fps        int
	width      int
	height     int
	configPath string
	watch      bool
	appOpts    []app.Option
	clearColor *[3]uint8
	title      string
}

func run() error {
	interactive := *pngPath == "" && *exportPath == ""
	logger, closeLog, err := setupLogging(*logPath, *verbose, interactive && !*window)
	if err != nil {
		return err
	}
	defer closeLog()

	controls, err := loadControls(*configPath)
	if err != nil {
		return err
	}
	if *tessFlag >= 0 {
		controls.Tessellation = *tessFlag
	}
	if err := controls.Validate(); err != nil {
		return err
	}

	shape, err := app.ParseShape(*shapeFlag)
	if err != nil {
		return err
	}

	var model *geometry.Buffer
	title := fmt.Sprintf("%s L%d", shape, controls.Tessellation)
	if *modelPath != "" {
		model, err = geometry.LoadGLB(*modelPath)
		if err != nil {
			return fmt.Errorf("load model: %w", err)
		}
		title = *modelPath
		logger.Info("model loaded", "path", *modelPath,
			"vertices", model.VertexCount(), "triangles", model.TriangleCount())
	}

	if *exportPath != "" {
		return export(*exportPath, shape, model, controls.Tessellation, logger)
	}

	if *watchFlag && *configPath == "" {
		return errors.New("-watch needs -config")
	}

	if !slices.Contains(assets.Names(), *program) {
		return fmt.Errorf("unknown -program %q (have %s)", *program, strings.Join(assets.Names(), ", "))
	}

	clearColor, background, err := parseBackground(*bgFlag)
	if err != nil {
		return err
	}

	opts := options{
		fps:        *targetFPS,
		width:      *width,
		height:     *height,
		configPath: *configPath,
		watch:      *watchFlag,
		clearColor: clearColor,
		title:      title,
		appOpts: []app.Option{
			app.WithLogger(logger),
			app.WithFPS(*targetFPS),
			app.WithStrict(*strict),
			app.WithShape(shape),
			app.WithProgram(*program),
			app.WithTessellation(controls.Tessellation),
			app.WithBackground(background),
		},
	}
	if model != nil {
		opts.appOpts = append(opts.appOpts, app.WithModel(model))
	}

	switch {
	case *pngPath != "":
		return renderPNG(*pngPath, opts, controls)
	case *window:
		return runWindow(opts, controls, logger)
	default:
		return runTerminal(opts, controls, logger)
	}
}

// setupLogging installs the default slog logger. In the terminal front-end
// logs would corrupt the alt screen, so without -log they are discarded.
func setupLogging(path string, debug, quietDefault bool) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	closeFn := func() {}
	switch {
	case path != "":
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = func() { f.Close() }
	case quietDefault:
		w = io.Discard
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, closeFn, nil
}

// loadControls reads the config file if there is one. A missing file is
// not an error: Ctrl+S creates it.
func loadControls(path string) (app.Controls, error) {
	if path == "" {
		return app.DefaultControls(), nil
	}
	c, err := app.LoadControls(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("controls file not found, using defaults", "path", path)
		return app.DefaultControls(), nil
	}
	return c, err
}

// parseBackground interprets -bg: "shader" keeps the background pass, a
// colour disables it and clears to that colour instead.
func parseBackground(s string) (*[3]uint8, bool, error) {
	if strings.EqualFold(s, "shader") {
		return nil, true, nil
	}
	var c [3]uint8
	if _, err := fmt.Sscanf(s, "%d,%d,%d", &c[0], &c[1], &c[2]); err != nil {
		return nil, false, fmt.Errorf(`invalid -bg %q: want "shader" or "R,G,B"`, s)
	}
	return &c, false, nil
}

// applyClearColor sets the -bg colour, if one was given.
func applyClearColor(a *app.App, c *[3]uint8) {
	if c == nil {
		return
	}
	a.Renderer().SetClearColor(float32(c[0])/255, float32(c[1])/255, float32(c[2])/255, 1)
}

func outputSize(opts options) (int, int) {
	w, h := opts.width, opts.height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	return w, h
}

// renderPNG draws a single frame on the software context and saves it.
func renderPNG(path string, opts options, controls app.Controls) error {
	w, h := outputSize(opts)
	ctx := soft.New(w, h)
	a, err := app.New(ctx, opts.appOpts...)
	if err != nil {
		return err
	}
	defer a.Close()
	applyClearColor(a, opts.clearColor)

	if err := a.Frame(time.Now(), controls); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := ctx.Framebuffer().SavePNG(path); err != nil {
		return fmt.Errorf("save png: %w", err)
	}
	stats := ctx.Stats()
	slog.Info("frame written", "path", path, "width", w, "height", h,
		"triangles", stats.Triangles, "fragments", stats.Fragments)
	return nil
}

// export writes the foreground geometry as binary glTF.
func export(path string, shape app.Shape, model *geometry.Buffer, level int, logger *slog.Logger) error {
	var (
		buf *geometry.Buffer
		err error
	)
	switch {
	case model != nil:
		buf = model
	case shape == app.ShapeCube:
		buf = geometry.CubeBuffer(math3d.Zero3(), 1.5)
	case shape == app.ShapeSquare:
		buf = geometry.SquareBuffer(0)
	default:
		if buf, err = geometry.GenerateIcosphere(math3d.Zero3(), 1, level); err != nil {
			return err
		}
	}
	if err := geometry.ExportGLB(path, buf); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	logger.Info("geometry exported", "path", path,
		"vertices", buf.VertexCount(), "triangles", buf.TriangleCount())
	return nil
}
