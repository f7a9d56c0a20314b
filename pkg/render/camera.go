package render

import (
	"math"

	"github.com/taigrr/icoviz/pkg/math3d"
)

// Camera defaults, matching the original visualizer.
const (
	DefaultFOV  = math.Pi / 4 // 45 degrees
	DefaultNear = 0.1
	DefaultFar  = 1000

	// MinOrbitDistance keeps Zoom from passing through the target.
	MinOrbitDistance = 0.5

	maxPitch = math.Pi/2 - 0.01
)

// Camera is a perspective camera looking at a target point.
//
// The view matrix is recomputed by Update and the projection matrix by
// UpdateProjectionMatrix; neither happens implicitly, so changes to the
// fields or setters take effect only after the matching call.
type Camera struct {
	Position math3d.Vec3
	Target   math3d.Vec3
	Up       math3d.Vec3

	// Projection parameters
	FOV         float64 // Vertical field of view in radians
	AspectRatio float64 // Width / Height
	Near        float64
	Far         float64

	viewMatrix math3d.Mat4
	projMatrix math3d.Mat4
}

// NewCamera creates a camera at position looking at target with +Y up, a
// 45° field of view and a square aspect ratio. Both matrices are computed.
func NewCamera(position, target math3d.Vec3) *Camera {
	c := &Camera{
		Position:    position,
		Target:      target,
		Up:          math3d.Up(),
		FOV:         DefaultFOV,
		AspectRatio: 1,
		Near:        DefaultNear,
		Far:         DefaultFar,
	}
	c.Update()
	c.UpdateProjectionMatrix()
	return c
}

// Update recomputes the view matrix from Position, Target and Up.
func (c *Camera) Update() {
	c.viewMatrix = math3d.LookAt(c.Position, c.Target, c.Up)
}

// UpdateProjectionMatrix recomputes the projection matrix.
func (c *Camera) UpdateProjectionMatrix() {
	c.projMatrix = math3d.Perspective(c.FOV, c.AspectRatio, c.Near, c.Far)
}

func validPositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// SetAspectRatio stores a new aspect ratio. Non-positive or non-finite
// values are ignored and false is returned.
func (c *Camera) SetAspectRatio(aspect float64) bool {
	if !validPositive(aspect) {
		return false
	}
	c.AspectRatio = aspect
	return true
}

// SetAspectFromSize sets the aspect ratio to width/height. A zero or
// negative dimension, e.g. a minimized window, keeps the previous aspect.
func (c *Camera) SetAspectFromSize(width, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	return c.SetAspectRatio(float64(width) / float64(height))
}

// SetFOV stores a new vertical field of view in radians, which must lie in
// (0, π).
func (c *Camera) SetFOV(fov float64) bool {
	if !validPositive(fov) || fov >= math.Pi {
		return false
	}
	c.FOV = fov
	return true
}

// SetClipPlanes stores the near and far planes; 0 < near < far.
func (c *Camera) SetClipPlanes(near, far float64) bool {
	if !validPositive(near) || !validPositive(far) || near >= far {
		return false
	}
	c.Near, c.Far = near, far
	return true
}

// ViewMatrix returns the world-to-camera matrix from the last Update.
func (c *Camera) ViewMatrix() math3d.Mat4 { return c.viewMatrix }

// ProjectionMatrix returns the camera-to-clip matrix from the last
// UpdateProjectionMatrix.
func (c *Camera) ProjectionMatrix() math3d.Mat4 { return c.projMatrix }

// ViewProjectionMatrix returns projection × view.
func (c *Camera) ViewProjectionMatrix() math3d.Mat4 {
	return c.projMatrix.Mul(c.viewMatrix)
}

// Forward returns the unit direction from Position to Target.
func (c *Camera) Forward() math3d.Vec3 {
	return c.Target.Sub(c.Position).Normalize()
}

// Right returns the unit right vector.
func (c *Camera) Right() math3d.Vec3 {
	return c.Forward().Cross(c.Up).Normalize()
}

// OrbitAngles returns the camera's yaw and pitch around the target, in
// radians, and its distance from it. Yaw 0 and pitch 0 put the camera on
// the target's +Z side.
func (c *Camera) OrbitAngles() (yaw, pitch, distance float64) {
	offset := c.Position.Sub(c.Target)
	distance = offset.Len()
	if distance == 0 {
		return 0, 0, 0
	}
	yaw = math.Atan2(offset.X, offset.Z)
	pitch = math.Asin(math.Max(-1, math.Min(1, offset.Y/distance)))
	return yaw, pitch, distance
}

// SetOrbit places the camera at the given spherical coordinates around the
// target. Pitch is clamped short of the poles and distance to
// MinOrbitDistance.
func (c *Camera) SetOrbit(yaw, pitch, distance float64) {
	pitch = math.Max(-maxPitch, math.Min(maxPitch, pitch))
	distance = math.Max(MinOrbitDistance, distance)
	cp := math.Cos(pitch)
	offset := math3d.V3(
		distance*cp*math.Sin(yaw),
		distance*math.Sin(pitch),
		distance*cp*math.Cos(yaw),
	)
	c.Position = c.Target.Add(offset)
}

// Orbit rotates the camera around the target by the given angles.
func (c *Camera) Orbit(deltaYaw, deltaPitch float64) {
	yaw, pitch, dist := c.OrbitAngles()
	c.SetOrbit(yaw+deltaYaw, pitch+deltaPitch, dist)
}

// Zoom moves the camera toward the target (or away if negative).
func (c *Camera) Zoom(distance float64) {
	yaw, pitch, dist := c.OrbitAngles()
	c.SetOrbit(yaw, pitch, dist-distance)
}

// WorldToScreen transforms a world point to screen coordinates.
// Returns (screenX, screenY, depth, visible).
func (c *Camera) WorldToScreen(worldPos math3d.Vec3, screenWidth, screenHeight int) (x, y, depth float64, visible bool) {
	clipPos := c.ViewProjectionMatrix().MulVec4(math3d.V4FromV3(worldPos, 1))

	// Behind the camera
	if clipPos.W <= 0 {
		return 0, 0, 0, false
	}

	ndc := clipPos.PerspectiveDivide()
	if ndc.X < -1 || ndc.X > 1 || ndc.Y < -1 || ndc.Y > 1 || ndc.Z < -1 || ndc.Z > 1 {
		return 0, 0, 0, false
	}

	x = (ndc.X + 1) * 0.5 * float64(screenWidth)
	y = (1 - ndc.Y) * 0.5 * float64(screenHeight) // Y is flipped
	depth = ndc.Z

	return x, y, depth, true
}
