package app

import (
	"errors"
	"io"
	"log/slog"
	"slices"
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
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestApp(t *testing.T, opts ...Option) (*App, *gputest.Recorder, *soft.Context) {
	t.Helper()
	ctx := soft.New(64, 48)
	rec := gputest.NewRecorder(ctx)
	opts = append([]Option{
		WithLogger(quiet()),
		WithClock(func() time.Time { return t0 }),
		WithTessellation(0),
	}, opts...)
	a, err := New(rec, opts...)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	rec.Reset()
	return a, rec, ctx
}

func levelZero() Controls {
	c := DefaultControls()
	c.Tessellation = 0
	return c
}

func TestFramePassOrder(t *testing.T) {
	a, rec, ctx := newTestApp(t, WithStrict(true))

	require.NoError(t, a.Frame(t0.Add(time.Second), levelZero()))

	var seq []string
	for _, c := range rec.Calls {
		switch c.Name {
		case "Enable", "Disable", "DrawElements":
			seq = append(seq, c.String())
		}
	}
	assert.Equal(t, []string{
		"Disable(" + gpu.DepthTest.String() + ")",
		"DrawElements(6)",
		"Enable(" + gpu.DepthTest.String() + ")",
		"DrawElements(60)",
	}, seq)

	// background at full speed, foreground at TimeSpeed 0.5
	var times []float32
	for _, c := range rec.Find("Uniform1f") {
		times = append(times, c.Args[1].(float32))
	}
	assert.Contains(t, times, float32(100))
	assert.Contains(t, times, float32(50))

	assert.Equal(t, 1, a.Frames())
	assert.Equal(t, 2, ctx.Stats().DrawCalls)
	assert.True(t, ctx.IsEnabled(gpu.DepthTest))
}

func TestFrameRegeneratesOnTessellationChange(t *testing.T) {
	a, rec, _ := newTestApp(t)
	c := levelZero()
	require.NoError(t, a.Frame(t0, c))
	first := a.Foreground()

	rec.Reset()
	c.Tessellation = 1
	require.NoError(t, a.Frame(t0, c))
	assert.Equal(t, 1, a.Level())
	assert.NotSame(t, first, a.Foreground())
	assert.Zero(t, first.IndexCount(), "old sphere destroyed")

	names := rec.Names()
	firstDelete := slices.Index(names, "DeleteBuffer")
	require.Positive(t, firstDelete)
	assert.Equal(t, 3, rec.Count("CreateBuffer"))
	assert.Equal(t, 3, rec.Count("DeleteBuffer"))
	for i, n := range names {
		if n == "CreateBuffer" {
			assert.Less(t, i, firstDelete, "new buffers uploaded before old ones are deleted")
		}
	}

	draws := rec.Find("DrawElements")
	require.Len(t, draws, 2)
	assert.Equal(t, 240, draws[1].Args[0])

	rec.Reset()
	require.NoError(t, a.Frame(t0, c))
	assert.Zero(t, rec.Count("CreateBuffer"), "same level reuses the sphere")
}

func TestFrameRejectsBadTessellation(t *testing.T) {
	a, rec, _ := newTestApp(t)

	c := levelZero()
	c.Tessellation = -1
	assert.ErrorIs(t, a.Frame(t0, c), ErrNegativeTessellation)

	for _, level := range []int{geometry.MaxSubdivisionLevel + 1, 9, 14} {
		c.Tessellation = level
		assert.ErrorIs(t, a.Frame(t0, c), geometry.ErrInvalidSubdivisionLevel, "level %d", level)
	}
	assert.Equal(t, 0, a.Level(), "old sphere kept")
	assert.Zero(t, rec.Count("CreateBuffer"), "rejected before any upload")
}

func TestFrameDrawsOldSphereOnRejectedLevel(t *testing.T) {
	presented := 0
	a, rec, ctx := newTestApp(t, WithPresenter(PresenterFunc(func() error {
		presented++
		return nil
	})))

	c := levelZero()
	c.Tessellation = geometry.MaxSubdivisionLevel + 1
	err := a.Frame(t0, c)
	require.ErrorIs(t, err, geometry.ErrInvalidSubdivisionLevel)

	var draws []string
	for _, call := range rec.Find("DrawElements") {
		draws = append(draws, call.String())
	}
	assert.Contains(t, draws, "DrawElements(60)", "level 0 sphere is still drawn")
	assert.Positive(t, ctx.Stats().Triangles)
	assert.Equal(t, 1, presented)
	assert.Equal(t, 1, a.Frames())
	assert.Equal(t, 0, a.Level())
}

func TestFrameWireframe(t *testing.T) {
	a, rec, _ := newTestApp(t)
	c := levelZero()
	c.Wireframe = true
	require.NoError(t, a.Frame(t0, c))

	modes := rec.Find("PolygonMode")
	require.Len(t, modes, 3)
	assert.Equal(t, gpu.Fill, modes[0].Args[0])
	assert.Equal(t, gpu.Line, modes[1].Args[0])
	assert.Equal(t, gpu.Fill, modes[2].Args[0])
}

func TestResizeKeepsAspectOnZero(t *testing.T) {
	a, _, ctx := newTestApp(t)

	a.Resize(100, 50)
	assert.Equal(t, 2.0, a.Camera().AspectRatio)
	w, h := ctx.Size()
	assert.Equal(t, [2]int{100, 50}, [2]int{w, h})

	a.Resize(0, 0)
	assert.Equal(t, 2.0, a.Camera().AspectRatio)
	assert.True(t, a.Camera().ProjectionMatrix().IsFinite())
	assert.NoError(t, a.Frame(t0, levelZero()), "a zero-size frame draws nothing but does not fail")
}

func TestStartStop(t *testing.T) {
	presented := 0
	a, _, _ := newTestApp(t, WithPresenter(PresenterFunc(func() error {
		presented++
		return nil
	})))

	var s ManualScheduler
	a.Start(&s, levelZero)
	assert.True(t, a.Running())

	for i := range 3 {
		require.True(t, s.Tick(t0.Add(time.Duration(i)*time.Second)))
	}
	assert.Equal(t, 3, a.Frames())
	assert.Equal(t, 3, presented)
	assert.NoError(t, a.Err())

	a.Stop()
	assert.True(t, s.Tick(t0), "the already requested callback runs")
	assert.False(t, s.Pending(), "but requests nothing further")
	assert.Equal(t, 3, a.Frames())
}

func TestScheduledFrameErrorIsKept(t *testing.T) {
	a, _, _ := newTestApp(t)
	var s ManualScheduler
	bad := levelZero()
	bad.Tessellation = -2
	a.Start(&s, func() Controls { return bad })

	s.Tick(t0)
	assert.ErrorIs(t, a.Err(), ErrNegativeTessellation)
	assert.True(t, s.Pending(), "a failed frame does not stop the loop")
}

func TestPresenterError(t *testing.T) {
	boom := errors.New("boom")
	a, _, _ := newTestApp(t, WithPresenter(PresenterFunc(func() error { return boom })))
	assert.ErrorIs(t, a.Frame(t0, levelZero()), boom)
}

func TestShapes(t *testing.T) {
	for _, tc := range []struct {
		shape   Shape
		indices int
	}{
		{ShapeCube, 36},
		{ShapeSquare, 6},
	} {
		t.Run(string(tc.shape), func(t *testing.T) {
			a, rec, _ := newTestApp(t, WithShape(tc.shape))
			assert.Equal(t, -1, a.Level())
			require.NoError(t, a.Frame(t0, DefaultControls()), "tessellation is ignored")
			draws := rec.Find("DrawElements")
			require.Len(t, draws, 2)
			assert.Equal(t, tc.indices, draws[1].Args[0])
		})
	}

	_, err := ParseShape("torus")
	assert.Error(t, err)
	sh, err := ParseShape("cube")
	require.NoError(t, err)
	assert.Equal(t, ShapeCube, sh)
}

func TestModelIsFittedCopy(t *testing.T) {
	buf := geometry.CubeBuffer(math3d.V3(10, 0, 0), 8)
	before := buf.Clone()

	a, _, _ := newTestApp(t, WithModel(buf))
	assert.Equal(t, before, buf, "caller's buffer untouched")

	m, ok := a.Foreground().(*geometry.Mesh)
	require.True(t, ok)
	lo, hi := m.Bounds()
	assert.True(t, lo.ApproxEqual(math3d.V3(-1, -1, -1), 1e-6), "lo %v", lo)
	assert.True(t, hi.ApproxEqual(math3d.V3(1, 1, 1), 1e-6), "hi %v", hi)
}

func TestNewErrors(t *testing.T) {
	ctx := soft.New(8, 8)
	rec := gputest.NewRecorder(ctx)

	_, err := New(rec, WithLogger(quiet()), WithProgram("nope"))
	assert.Error(t, err)
	assert.Zero(t, rec.Count("CreateBuffer"), "nothing uploaded")
	assert.Equal(t, rec.Count("CreateProgram"), rec.Count("DeleteProgram"), "background released")

	rec.Reset()
	_, err = New(rec, WithLogger(quiet()), WithTessellation(-1))
	assert.ErrorIs(t, err, geometry.ErrInvalidSubdivisionLevel)
	assert.Equal(t, rec.Count("CreateBuffer"), rec.Count("DeleteBuffer"), "quad released")

	rec.Reset()
	_, err = New(rec, WithLogger(quiet()), WithModel(&geometry.Buffer{Positions: []float32{0, 0}}))
	assert.ErrorIs(t, err, geometry.ErrPositionLayout)
}

func TestWithoutBackground(t *testing.T) {
	a, rec, _ := newTestApp(t, WithBackground(false))
	require.NoError(t, a.Frame(t0, levelZero()))
	draws := rec.Find("DrawElements")
	require.Len(t, draws, 1)
	assert.Equal(t, 60, draws[0].Args[0])
	assert.Zero(t, rec.Count("Disable"))
}

func TestLambertProgram(t *testing.T) {
	a, rec, _ := newTestApp(t, WithProgram(assets.Lambert))
	require.NoError(t, a.Frame(t0, levelZero()), "missing uniforms are skipped when not strict")
	assert.Equal(t, 2, rec.Count("DrawElements"))
}
