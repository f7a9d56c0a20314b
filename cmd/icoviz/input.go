package main

import (
	"slices"

	"github.com/taigrr/icoviz/pkg/app"
	"github.com/taigrr/icoviz/pkg/geometry"
)

// maxInteractiveLevel caps tessellation from the keyboard.
const maxInteractiveLevel = geometry.MaxSubdivisionLevel

const (
	amplitudeStep = 0.05
	frequencyStep = 0.25
	speedStep     = 0.1
	orbitStep     = 0.04
	zoomStep      = 0.3
)

// swatches are the colours 1/2/3 cycle through.
var swatches = []app.RGB{
	{255, 128, 0},
	{255, 255, 0},
	{255, 0, 0},
	{0, 160, 255},
	{140, 60, 255},
	{0, 230, 140},
	{255, 255, 255},
	{40, 40, 40},
}

func nextSwatch(c app.RGB) app.RGB {
	i := slices.Index(swatches, c)
	return swatches[(i+1)%len(swatches)]
}

// keyMatcher is the part of a key event the bindings need.
type keyMatcher interface {
	MatchString(s ...string) bool
}

type action int

const (
	actNone action = iota
	actControls
	actOrbit
	actReset
	actHUD
	actSave
	actQuit
)

// impulse is an orbit velocity change.
type impulse struct {
	yaw, pitch, zoom float64
}

// handleKey maps a key press to the next controls snapshot or to an action
// for the front-end.
func handleKey(c app.Controls, key keyMatcher) (app.Controls, impulse, action) {
	switch {
	case key.MatchString("escape", "ctrl+c"):
		return c, impulse{}, actQuit
	case key.MatchString("ctrl+s"):
		return c, impulse{}, actSave
	case key.MatchString("?", "shift+/"):
		return c, impulse{}, actHUD
	case key.MatchString("r"):
		return c, impulse{}, actReset

	case key.MatchString("w", "up"):
		return c, impulse{pitch: orbitStep}, actOrbit
	case key.MatchString("s", "down"):
		return c, impulse{pitch: -orbitStep}, actOrbit
	case key.MatchString("a", "left"):
		return c, impulse{yaw: -orbitStep}, actOrbit
	case key.MatchString("d", "right"):
		return c, impulse{yaw: orbitStep}, actOrbit

	case key.MatchString("+", "="):
		c.Tessellation = min(c.Tessellation+1, maxInteractiveLevel)
	case key.MatchString("-", "_"):
		c.Tessellation = max(c.Tessellation-1, 0)
	case key.MatchString("["):
		c.Amplitude = max(c.Amplitude-amplitudeStep, 0)
	case key.MatchString("]"):
		c.Amplitude += amplitudeStep
	case key.MatchString(","):
		c.Frequency = max(c.Frequency-frequencyStep, 0)
	case key.MatchString("."):
		c.Frequency += frequencyStep
	case key.MatchString(";"):
		c.TimeSpeed = max(c.TimeSpeed-speedStep, 0)
	case key.MatchString("'"):
		c.TimeSpeed += speedStep
	case key.MatchString("1"):
		c.Color1 = nextSwatch(c.Color1)
	case key.MatchString("2"):
		c.Color2 = nextSwatch(c.Color2)
	case key.MatchString("3"):
		c.Color3 = nextSwatch(c.Color3)
	case key.MatchString("x"):
		c.Wireframe = !c.Wireframe
	default:
		return c, impulse{}, actNone
	}
	return c, impulse{}, actControls
}

// keyName is a key already reduced to its binding name, such as "w",
// "up" or "ctrl+s".
type keyName string

func (k keyName) MatchString(s ...string) bool {
	return slices.Contains(s, string(k))
}
