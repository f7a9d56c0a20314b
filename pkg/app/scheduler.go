package app

import (
	"context"
	"sync"
	"time"
)

// FrameFunc renders one frame at now.
type FrameFunc func(now time.Time)

// Scheduler runs a callback at the next frame. A callback that wants to keep
// animating requests the next frame itself; not requesting one stops the
// loop.
type Scheduler interface {
	RequestNextFrame(fn FrameFunc)
}

// ManualScheduler runs the pending callback only when Tick is called. A
// second request before a Tick replaces the first.
type ManualScheduler struct {
	mu      sync.Mutex
	pending FrameFunc
}

var _ Scheduler = (*ManualScheduler)(nil)

func (s *ManualScheduler) RequestNextFrame(fn FrameFunc) {
	s.mu.Lock()
	s.pending = fn
	s.mu.Unlock()
}

// Pending reports whether a frame has been requested.
func (s *ManualScheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Tick runs the pending callback, if any, and reports whether it ran.
func (s *ManualScheduler) Tick(now time.Time) bool {
	s.mu.Lock()
	fn := s.pending
	s.pending = nil
	s.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(now)
	return true
}

// TickerScheduler runs requested frames at a fixed rate on the goroutine
// that calls Run.
type TickerScheduler struct {
	interval time.Duration

	mu      sync.Mutex
	pending FrameFunc
}

var _ Scheduler = (*TickerScheduler)(nil)

// NewTickerScheduler creates a scheduler targeting fps frames per second.
// Values below 1 mean 60.
func NewTickerScheduler(fps int) *TickerScheduler {
	if fps < 1 {
		fps = 60
	}
	return &TickerScheduler{interval: time.Second / time.Duration(fps)}
}

// Interval returns the time between frames.
func (s *TickerScheduler) Interval() time.Duration { return s.interval }

func (s *TickerScheduler) RequestNextFrame(fn FrameFunc) {
	s.mu.Lock()
	s.pending = fn
	s.mu.Unlock()
}

// Run executes requested frames until none is pending after a frame
// (returns nil) or ctx is cancelled (returns ctx.Err()).
func (s *TickerScheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.mu.Lock()
		fn := s.pending
		s.pending = nil
		s.mu.Unlock()
		if fn == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			fn(now)
		}
	}
}
