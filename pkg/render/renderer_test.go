package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taigrr/icoviz/internal/assets"
	"github.com/taigrr/icoviz/pkg/geometry"
	"github.com/taigrr/icoviz/pkg/gpu"
	"github.com/taigrr/icoviz/pkg/gpu/gputest"
	"github.com/taigrr/icoviz/pkg/gpu/soft"
	"github.com/taigrr/icoviz/pkg/math3d"
	"github.com/taigrr/icoviz/pkg/shader"
)

// fakeClock advances only when told to.
type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func compile(t *testing.T, ctx gpu.Context, name string, strict bool) *shader.Program {
	t.Helper()
	stages, err := assets.Stages(name)
	require.NoError(t, err)
	p, err := shader.Compile(ctx, stages, shader.WithName(name), shader.WithStrict(strict))
	require.NoError(t, err)
	return p
}

func TestRenderLevelZeroFrame(t *testing.T) {
	ctx := soft.New(64, 48)
	rec := gputest.NewRecorder(ctx)
	clock := &fakeClock{now: time.Unix(0, 0)}
	r := New(rec, WithClock(clock))

	cam := NewCamera(math3d.V3(0, 0, 5), math3d.Zero3())
	cam.SetAspectFromSize(64, 48)
	cam.UpdateProjectionMatrix()

	prog := compile(t, rec, assets.CustomNoise, true)
	sphere, err := geometry.NewIcosphere(rec, math3d.Zero3(), 1, 0)
	require.NoError(t, err)
	rec.Reset()

	clock.now = clock.now.Add(1500 * time.Millisecond)
	rec.Enable(gpu.DepthTest)
	r.Clear()
	colors := []math3d.Vec3{{X: 1, Y: 0.5}, {X: 1, Y: 1}, {X: 1}}
	err = r.Render(cam, prog, []geometry.Drawable{sphere}, colors, 0.3, 3, 0.5)
	require.NoError(t, err, "strict program: every uniform push must land")

	draws := rec.Find("DrawElements")
	require.Len(t, draws, 1)
	assert.Equal(t, 60, draws[0].Args[0])

	// u_Time = 1500ms / 10 * 0.5
	var timeSet bool
	for _, c := range rec.Find("Uniform1f") {
		if c.Args[1] == float32(75) {
			timeSet = true
		}
	}
	assert.True(t, timeSet, "u_Time = 75 not pushed: %v", rec.Find("Uniform1f"))
	assert.Equal(t, 3, rec.Count("Uniform4f"), "three palette colours")
	assert.Equal(t, 3, rec.Count("UniformMatrix4fv"), "model, normal matrix, view-projection")

	assert.Positive(t, ctx.Stats().Fragments)
	assert.Equal(t, FrameStats{Passes: 1, Drawables: 1, Draws: 1}, r.Stats())
	assert.NotEqual(t, ctx.Framebuffer().GetPixel(32, 24), ctx.Framebuffer().GetPixel(0, 0), "sphere covers the centre")
}

func TestRenderBackgroundThenForeground(t *testing.T) {
	ctx := soft.New(32, 32)
	r := New(ctx, WithClock(&fakeClock{}))
	cam := NewCamera(math3d.V3(0, 0, 5), math3d.Zero3())

	bg := compile(t, ctx, assets.Background, false)
	fg := compile(t, ctx, assets.Lambert, false)
	quad := geometry.NewSquare(ctx)
	cube := geometry.NewCube(ctx, math3d.Zero3(), 1)

	r.Clear()
	ctx.Disable(gpu.DepthTest)
	require.NoError(t, r.RenderBackground(cam, bg, []geometry.Drawable{quad}))
	bgCorner := ctx.Framebuffer().GetPixel(0, 0)
	assert.NotEqual(t, soft.Color{R: 51, G: 51, B: 51, A: 255}, bgCorner, "background covers the clear colour")

	ctx.Enable(gpu.DepthTest)
	err := r.RenderPass(cam, fg, []geometry.Drawable{cube}, PassUniforms{
		TimeScale: 1,
		Colors:    []math3d.Vec3{{X: 0, Y: 1, Z: 0}},
	})
	require.NoError(t, err)

	fb := ctx.Framebuffer()
	assert.Equal(t, bgCorner, fb.GetPixel(0, 0), "corner keeps the background")
	centre := fb.GetPixel(16, 16)
	assert.Zero(t, centre.R)
	assert.Positive(t, centre.G)
	assert.Equal(t, 2, r.Stats().Passes)
}

func TestRenderCollectsErrors(t *testing.T) {
	ctx := soft.New(8, 8)
	r := New(ctx)
	cam := NewCamera(math3d.V3(0, 0, 5), math3d.Zero3())
	prog := compile(t, ctx, assets.Lambert, true)

	// strict lambert has no u_Amplitude/u_Frequency/u_Color2
	err := r.Render(cam, prog, nil, []math3d.Vec3{{X: 1}, {Y: 1}}, 1, 1, 1)
	var missing *shader.MissingUniformError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 1, r.Stats().Passes)

	assert.ErrorIs(t, r.RenderPass(cam, nil, nil, PassUniforms{}), ErrNoProgram)

	prog.Destroy()
	assert.ErrorIs(t, r.RenderBackground(cam, prog, nil), shader.ErrUnusable)
}

func TestRenderCountsOffscreenDrawables(t *testing.T) {
	ctx := soft.New(8, 8)
	r := New(ctx)
	cam := NewCamera(math3d.V3(0, 0, 5), math3d.Zero3())
	prog := compile(t, ctx, assets.Lambert, false)
	far := geometry.NewCube(ctx, math3d.V3(100, 0, 0), 1)

	require.NoError(t, r.RenderPass(cam, prog, []geometry.Drawable{far}, PassUniforms{TimeScale: 1}))
	assert.Equal(t, FrameStats{Passes: 1, Drawables: 1, Draws: 1, Offscreen: 1}, r.Stats())
	r.ResetStats()
	assert.Zero(t, r.Stats())
}

func TestResize(t *testing.T) {
	ctx := soft.New(10, 10)
	rec := gputest.NewRecorder(ctx)
	r := New(rec)

	r.Resize(40, 20)
	w, h := ctx.Size()
	assert.Equal(t, 40, w)
	assert.Equal(t, 20, h)
	viewports := rec.Find("Viewport")
	require.Len(t, viewports, 2)
	assert.Equal(t, []any{0, 0, 40, 20}, viewports[1].Args)

	r.Resize(0, 0)
	w, h = r.Size()
	assert.Zero(t, w)
	assert.Zero(t, h)

	cam := NewCamera(math3d.V3(0, 0, 5), math3d.Zero3())
	cam.SetAspectFromSize(40, 20)
	assert.False(t, cam.SetAspectFromSize(w, h), "zero-size resize keeps the aspect")
	cam.UpdateProjectionMatrix()
	assert.Equal(t, 2.0, cam.AspectRatio)
	assert.True(t, cam.ProjectionMatrix().IsFinite())
}

func TestTimeFollowsClock(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0)}
	r := New(soft.New(1, 1), WithClock(clock))
	assert.Zero(t, r.Time())
	clock.now = clock.now.Add(2 * time.Second)
	assert.InDelta(t, 200, r.Time(), 1e-9)
}

func TestWithSizeOverridesSurface(t *testing.T) {
	rec := gputest.NewRecorder(soft.New(3, 3))
	r := New(rec, WithSize(7, 5))
	w, h := r.Size()
	assert.Equal(t, 7, w)
	assert.Equal(t, 5, h)
}
