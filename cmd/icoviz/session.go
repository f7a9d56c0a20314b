package main

import (
	"context"
	"log/slog"

	"github.com/taigrr/icoviz/pkg/app"
)

const maxPending = 64

// session is the state owned by the render goroutine.
type session struct {
	app        *app.App
	controls   app.Controls
	hud        *HUD
	configPath string
	log        *slog.Logger
	cancel     context.CancelFunc

	// Work from other goroutines, run before the next frame.
	pending chan func()
}

func newSession(controls app.Controls, opts options, logger *slog.Logger, cancel context.CancelFunc) *session {
	return &session{
		controls:   controls,
		hud:        NewHUD(opts.title),
		configPath: opts.configPath,
		log:        logger,
		cancel:     cancel,
		pending:    make(chan func(), maxPending),
	}
}

// queue hands fn to the render goroutine, dropping it if the queue is full.
func (s *session) queue(fn func()) {
	select {
	case s.pending <- fn:
	default:
		s.log.Debug("input dropped, render loop busy")
	}
}

// next runs the queued work and returns the snapshot for this frame.
func (s *session) next() app.Controls {
	for {
		select {
		case fn := <-s.pending:
			fn()
		default:
			return s.controls
		}
	}
}

// watch reloads the controls file into the session until ctx is done.
func (s *session) watch(ctx context.Context) error {
	cw, err := app.WatchControls(s.configPath, s.log)
	if err != nil {
		return err
	}
	go func() {
		err := cw.Run(ctx, func(c app.Controls) {
			s.queue(func() { s.controls = c })
		})
		if err != nil {
			s.log.Warn("controls watch stopped", "err", err)
		}
	}()
	return nil
}

// apply runs one key binding against the session.
func (s *session) apply(key keyMatcher) {
	next, imp, act := handleKey(s.controls, key)
	switch act {
	case actQuit:
		s.cancel()
	case actSave:
		s.save()
	case actHUD:
		s.hud.Visible = !s.hud.Visible
	case actReset:
		s.app.Orbit().Reset()
	case actOrbit:
		s.app.Orbit().Impulse(imp.yaw, imp.pitch, imp.zoom)
	case actControls:
		s.controls = next
	}
}

func (s *session) save() {
	if s.configPath == "" {
		s.log.Warn("no -config file to save to")
		return
	}
	if err := app.SaveControls(s.configPath, s.controls); err != nil {
		s.log.Error("save controls", "path", s.configPath, "err", err)
		return
	}
	s.log.Info("controls saved", "path", s.configPath)
}
