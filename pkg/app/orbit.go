package app

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/taigrr/icoviz/pkg/render"
)

// SpringAxis is one orbit axis whose velocity decays to zero on a
// critically damped spring.
type SpringAxis struct {
	Position float64
	Velocity float64

	spring harmonica.Spring
	accel  float64 // spring velocity of Velocity itself
}

// NewSpringAxis creates an axis stepped fps times per second.
func NewSpringAxis(fps int) SpringAxis {
	return SpringAxis{
		// angular frequency 4, damping ratio 1: no overshoot
		spring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Update advances one frame and returns the distance moved.
func (a *SpringAxis) Update() float64 {
	d := a.Velocity
	a.Position += d
	a.Velocity, a.accel = a.spring.Update(a.Velocity, a.accel, 0)
	return d
}

// Orbit smooths user input into camera yaw, pitch and zoom.
type Orbit struct {
	Yaw, Pitch, Zoom SpringAxis
	fps              int
}

// NewOrbit creates orbit springs for the given frame rate.
func NewOrbit(fps int) *Orbit {
	o := &Orbit{fps: max(fps, 1)}
	o.Reset()
	return o
}

// Impulse adds to the axis velocities.
func (o *Orbit) Impulse(yaw, pitch, zoom float64) {
	o.Yaw.Velocity += yaw
	o.Pitch.Velocity += pitch
	o.Zoom.Velocity += zoom
}

// Reset stops all motion.
func (o *Orbit) Reset() {
	o.Yaw = NewSpringAxis(o.fps)
	o.Pitch = NewSpringAxis(o.fps)
	o.Zoom = NewSpringAxis(o.fps)
}

// Moving reports whether any axis still has velocity.
func (o *Orbit) Moving() bool {
	const eps = 1e-6
	return math.Abs(o.Yaw.Velocity) > eps || math.Abs(o.Pitch.Velocity) > eps || math.Abs(o.Zoom.Velocity) > eps
}

// Step advances the springs one frame and moves the camera by the result.
// The caller still calls camera.Update.
func (o *Orbit) Step(camera *render.Camera) {
	yaw, pitch, zoom := o.Yaw.Update(), o.Pitch.Update(), o.Zoom.Update()
	if yaw != 0 || pitch != 0 {
		camera.Orbit(yaw, pitch)
	}
	if zoom != 0 {
		camera.Zoom(zoom)
	}
}

