package main

import (
	"fmt"
	"io"
	"time"

	"github.com/taigrr/icoviz/pkg/app"
)

// HUD renders an overlay with the frame rate and the current controls.
type HUD struct {
	title     string
	fps       float64
	fpsFrames int
	fpsTime   time.Time
	Visible   bool
}

// NewHUD creates a HUD titled title.
func NewHUD(title string) *HUD {
	return &HUD{title: title, fpsTime: time.Now()}
}

// UpdateFPS updates the FPS counter (call once per frame).
func (h *HUD) UpdateFPS(now time.Time) {
	h.fpsFrames++
	elapsed := now.Sub(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = now
	}
}

// Render draws the HUD rows directly to the terminal with escape codes.
func (h *HUD) Render(w io.Writer, width, height, triangles int, c app.Controls) {
	const (
		reset     = "\x1b[0m"
		bold      = "\x1b[1m"
		dim       = "\x1b[2m"
		bgBlack   = "\x1b[40m"
		fgWhite   = "\x1b[97m"
		fgGreen   = "\x1b[92m"
		fgCyan    = "\x1b[96m"
		clearLine = "\x1b[2K"
	)
	moveTo := func(row, col int) string {
		return fmt.Sprintf("\x1b[%d;%dH", row, col)
	}

	// Always clear the HUD rows so toggling off works
	fmt.Fprint(w, moveTo(1, 1)+clearLine)
	fmt.Fprint(w, moveTo(height, 1)+clearLine)
	if !h.Visible {
		return
	}

	fmt.Fprintf(w, "%s%s%s %.0f FPS %s", moveTo(1, 1), bgBlack, fgGreen, h.fps, reset)

	titleCol := max((width-len(h.title)-2)/2, 1)
	fmt.Fprintf(w, "%s%s%s%s %s %s", moveTo(1, titleCol), bold, bgBlack, fgWhite, h.title, reset)

	tris := fmt.Sprintf(" %d tris ", triangles)
	fmt.Fprintf(w, "%s%s%s%s%s%s", moveTo(1, max(width-len(tris), 1)), bgBlack, fgCyan, bold, tris, reset)

	check := "[ ]"
	if c.Wireframe {
		check = "[✓]"
	}
	status := fmt.Sprintf(" L%d  amp %.2f  freq %.2f  speed %.2f  %s %s %s  %s wireframe ",
		c.Tessellation, c.Amplitude, c.Frequency, c.TimeSpeed,
		c.Color1, c.Color2, c.Color3, check)
	fmt.Fprintf(w, "%s%s%s%s%s", moveTo(height, 1), bgBlack, fgWhite, status, reset)

	hint := " ? help "
	fmt.Fprintf(w, "%s%s%s%s%s", moveTo(height, max(width-len(hint), 1)), bgBlack, dim, hint, reset)
}
