//go:build glfw

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/taigrr/icoviz/pkg/app"
	"github.com/taigrr/icoviz/pkg/gpu/glcore"
)

// GLFW calls must come from the main thread.
func init() { runtime.LockOSThread() }

var glfwKeyNames = map[glfw.Key]string{
	glfw.KeyEscape:       "escape",
	glfw.KeyUp:           "up",
	glfw.KeyDown:         "down",
	glfw.KeyLeft:         "left",
	glfw.KeyRight:        "right",
	glfw.KeyEqual:        "=",
	glfw.KeyKPAdd:        "+",
	glfw.KeyMinus:        "-",
	glfw.KeyKPSubtract:   "-",
	glfw.KeyLeftBracket:  "[",
	glfw.KeyRightBracket: "]",
	glfw.KeyComma:        ",",
	glfw.KeyPeriod:       ".",
	glfw.KeySemicolon:    ";",
	glfw.KeyApostrophe:   "'",
	glfw.KeySlash:        "/",
	glfw.Key1:            "1",
	glfw.Key2:            "2",
	glfw.Key3:            "3",
	glfw.KeyW:            "w",
	glfw.KeyA:            "a",
	glfw.KeyS:            "s",
	glfw.KeyD:            "d",
	glfw.KeyR:            "r",
	glfw.KeyX:            "x",
	glfw.KeyC:            "c",
}

// US layout shifted symbols.
var glfwShifted = map[string]string{
	"=": "+",
	"-": "_",
	"/": "?",
}

// glfwKey names a key press the way the terminal bindings expect.
func glfwKey(key glfw.Key, mods glfw.ModifierKey) (keyName, bool) {
	name, ok := glfwKeyNames[key]
	if !ok {
		return "", false
	}
	switch {
	case mods&glfw.ModControl != 0:
		name = "ctrl+" + name
	case mods&glfw.ModShift != 0:
		if shifted, ok := glfwShifted[name]; ok {
			name = shifted
		}
	}
	return keyName(name), true
}

// runWindow renders into a desktop OpenGL 4.1 core window.
func runWindow(opts options, controls app.Controls, logger *slog.Logger) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("initialize glfw: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	w, h := outputSize(opts)
	window, err := glfw.CreateWindow(w, h, "icoviz - "+opts.title, nil, nil)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer window.Destroy()
	window.MakeContextCurrent()
	glfw.SwapInterval(1)

	gctx, err := glcore.New()
	if err != nil {
		return err
	}
	defer gctx.Close()
	logger.Info("opengl ready", "version", gctx.Version())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := newSession(controls, opts, logger, cancel)
	if opts.watch {
		if err := s.watch(ctx); err != nil {
			return err
		}
	}

	var lastTitle time.Time
	present := app.PresenterFunc(func() error {
		window.SwapBuffers()
		glfw.PollEvents()
		if window.ShouldClose() {
			cancel()
		}
		now := time.Now()
		s.hud.UpdateFPS(now)
		if s.hud.Visible && now.Sub(lastTitle) >= time.Second {
			c := s.controls
			window.SetTitle(fmt.Sprintf("icoviz - %s | %.0f FPS | L%d amp %.2f freq %.2f",
				opts.title, s.hud.fps, c.Tessellation, c.Amplitude, c.Frequency))
			lastTitle = now
		}
		return nil
	})

	a, err := app.New(gctx, append(opts.appOpts, app.WithPresenter(present))...)
	if err != nil {
		return err
	}
	defer a.Close()
	s.app = a
	applyClearColor(a, opts.clearColor)
	a.Resize(window.GetFramebufferSize())

	// Callbacks run inside PollEvents, on the render goroutine.
	window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		a.Resize(width, height)
	})
	window.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
		if action == glfw.Release {
			return
		}
		if k, ok := glfwKey(key, mods); ok {
			s.apply(k)
		}
	})

	var dragging bool
	var lastX, lastY float64
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		dragging = action == glfw.Press
		lastX, lastY = w.GetCursorPos()
	})
	window.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		if !dragging {
			return
		}
		// Pixels are much finer than terminal cells.
		const pixelScale = dragSensitivity / 8
		a.Orbit().Impulse((x-lastX)*pixelScale, (y-lastY)*pixelScale, 0)
		lastX, lastY = x, y
	})
	window.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		a.Orbit().Impulse(0, 0, yoff*zoomStep)
	})

	sched := app.NewTickerScheduler(opts.fps)
	a.Start(sched, s.next)

	err = sched.Run(ctx)
	a.Stop()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logger.Info("window closed", "frames", a.Frames())
	return err
}
