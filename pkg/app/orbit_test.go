package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/taigrr/icoviz/pkg/math3d"
	"github.com/taigrr/icoviz/pkg/render"
)

func TestOrbitDecays(t *testing.T) {
	o := NewOrbit(60)
	assert.False(t, o.Moving())

	o.Impulse(0.02, 0, 0)
	assert.True(t, o.Moving())

	cam := render.NewCamera(math3d.V3(0, 0, 5), math3d.Zero3())
	var moved float64
	for range 300 {
		before, _, _ := cam.OrbitAngles()
		o.Step(cam)
		after, _, _ := cam.OrbitAngles()
		moved += after - before
	}
	assert.False(t, o.Moving(), "critically damped velocity settles")
	assert.Positive(t, moved)
	assert.InDelta(t, o.Yaw.Position, moved, 1e-9)

	_, _, dist := cam.OrbitAngles()
	assert.InDelta(t, 5, dist, 1e-9, "yaw keeps the distance")

	o.Impulse(0, 0, 1)
	o.Reset()
	assert.False(t, o.Moving())
	assert.Zero(t, o.Zoom.Position)
}
