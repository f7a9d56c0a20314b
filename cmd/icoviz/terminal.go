package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/icoviz/pkg/app"
	"github.com/taigrr/icoviz/pkg/gpu/soft"
)

const dragSensitivity = 0.03

// runTerminal renders into the terminal with half-block cells until Esc,
// Ctrl+C or a signal.
func runTerminal(opts options, controls app.Controls, logger *slog.Logger) error {
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	fmt.Fprint(os.Stdout, "\x1b[?1003h") // any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // SGR extended mouse mode

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}
	defer cleanup()

	gctx := soft.New(width, height*2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := newSession(controls, opts, logger, cancel)

	present := app.PresenterFunc(func() error {
		gctx.Framebuffer().Draw(term, uv.Rect(0, 0, width, height))
		if err := term.Display(); err != nil {
			return fmt.Errorf("display: %w", err)
		}
		s.hud.UpdateFPS(time.Now())
		s.hud.Render(os.Stdout, width, height, gctx.Stats().Triangles, s.controls)
		return nil
	})

	a, err := app.New(gctx, append(opts.appOpts, app.WithPresenter(present))...)
	if err != nil {
		return err
	}
	defer a.Close()
	applyClearColor(a, opts.clearColor)
	s.app = a

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	if opts.watch {
		if err := s.watch(ctx); err != nil {
			return err
		}
	}

	// Events arrive on their own goroutine; everything that touches the
	// App or the controls is queued and run before the next frame.
	go func() {
		var mouseDown bool
		var lastX, lastY int
		for ev := range term.Events() {
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				w, h := ev.Width, ev.Height
				s.queue(func() {
					width, height = w, h
					term.Erase()
					term.Resize(w, h)
					a.Resize(w, h*2)
				})

			case uv.KeyPressEvent:
				s.queue(func() { s.apply(ev) })

			case uv.MouseClickEvent:
				mouseDown = true
				lastX, lastY = ev.X, ev.Y

			case uv.MouseReleaseEvent:
				mouseDown = false

			case uv.MouseMotionEvent:
				if mouseDown {
					dx, dy := ev.X-lastX, ev.Y-lastY
					lastX, lastY = ev.X, ev.Y
					s.queue(func() {
						a.Orbit().Impulse(float64(dx)*dragSensitivity, float64(dy)*dragSensitivity, 0)
					})
				}

			case uv.MouseWheelEvent:
				switch ev.Button {
				case uv.MouseWheelUp:
					s.queue(func() { a.Orbit().Impulse(0, 0, zoomStep) })
				case uv.MouseWheelDown:
					s.queue(func() { a.Orbit().Impulse(0, 0, -zoomStep) })
				}
			}
		}
	}()

	sched := app.NewTickerScheduler(opts.fps)
	a.Start(sched, s.next)

	logger.Info("terminal session started", "cols", width, "rows", height, "fps", opts.fps)
	err = sched.Run(ctx)
	a.Stop()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logger.Info("terminal session ended", "frames", a.Frames())
	return err
}
