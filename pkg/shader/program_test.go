package shader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taigrr/icoviz/pkg/geometry"
	"github.com/taigrr/icoviz/pkg/gpu"
	"github.com/taigrr/icoviz/pkg/gpu/gputest"
	"github.com/taigrr/icoviz/pkg/gpu/soft"
	"github.com/taigrr/icoviz/pkg/math3d"
)

const vertSrc = `#version 300 es
#pragma kernel transform
uniform mat4 u_Model;
uniform mat4 u_ModelInvTr;
uniform mat4 u_ViewProj;
in vec4 vs_Pos;
in vec4 vs_Nor;
out vec4 fs_Nor;
void main() {
    fs_Nor = u_ModelInvTr * vs_Nor;
    gl_Position = u_ViewProj * u_Model * vs_Pos;
}
`

const fragSrc = `#version 300 es
precision highp float;
#pragma kernel lambert
uniform vec4 u_Color1;
uniform float u_Time;
in vec4 fs_Nor;
out vec4 out_Col;
void main() {
    out_Col = u_Color1 * max(dot(normalize(fs_Nor.xyz), vec3(0.57)), 0.2);
}
`

func stages() []Stage {
	return []Stage{
		{Kind: gpu.VertexShader, Source: vertSrc, Name: "test.vert"},
		{Kind: gpu.FragmentShader, Source: fragSrc, Name: "test.frag"},
	}
}

func TestCompileSuccess(t *testing.T) {
	rec := gputest.NewRecorder(soft.New(8, 8))
	p, err := Compile(rec, stages(), WithName("test"))
	require.NoError(t, err)
	assert.NotZero(t, p.Handle())
	assert.Equal(t, "test", p.Name())

	// stages are released once linked and the program is made current
	assert.Equal(t, 2, rec.Count("DeleteShader"))
	assert.Equal(t, "UseProgram", rec.Names()[len(rec.Names())-1])
}

func TestCompileErrorCleansUp(t *testing.T) {
	rec := gputest.NewRecorder(soft.New(8, 8))
	bad := stages()
	bad[1].Source = "#version 300 es\nout vec4 c;\nvoid main() { c = vec4(1.0; }\n"

	p, err := Compile(rec, bad)
	assert.Nil(t, p)
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, gpu.FragmentShader, cerr.Stage)
	assert.Equal(t, "test.frag", cerr.Name)
	assert.Contains(t, cerr.Log, "ERROR:")
	assert.Contains(t, err.Error(), "compile fragment shader")

	assert.Equal(t, 2, rec.Count("CreateShader"))
	assert.Equal(t, 2, rec.Count("DeleteShader"))
	assert.Zero(t, rec.Count("CreateProgram"))
}

func TestLinkErrorCleansUp(t *testing.T) {
	rec := gputest.NewRecorder(soft.New(8, 8))
	bad := stages()
	bad[1].Source = "#version 300 es\nin vec4 fs_Other;\nout vec4 c;\nvoid main() { c = fs_Other; }\n"

	p, err := Compile(rec, bad, WithName("mismatch"))
	assert.Nil(t, p)
	var lerr *LinkError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "mismatch", lerr.Program)
	assert.Contains(t, lerr.Log, "fs_Other")
	assert.Equal(t, 1, rec.Count("DeleteProgram"))
	assert.Equal(t, 2, rec.Count("DeleteShader"))
}

func TestUniformLocationsAreCached(t *testing.T) {
	rec := gputest.NewRecorder(soft.New(8, 8))
	p, err := Compile(rec, stages())
	require.NoError(t, err)
	rec.Reset()

	for range 3 {
		require.NoError(t, p.SetTime(12.5))
		require.NoError(t, p.SetFloat("u_Missing", 1))
	}
	assert.Equal(t, 2, rec.Count("UniformLocation"), "one lookup per name, misses included")
	assert.Equal(t, 3, rec.Count("Uniform1f"), "missing uniform issues no upload")
	assert.True(t, p.HasUniform(UniformTime))
	assert.False(t, p.HasUniform("u_Missing"))
}

func TestStrictMissingUniform(t *testing.T) {
	p, err := Compile(soft.New(8, 8), stages(), WithStrict(true), WithName("strict"))
	require.NoError(t, err)

	err = p.SetAmplitude(0.3)
	var merr *MissingUniformError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, UniformAmplitude, merr.Name)
	assert.Equal(t, "strict", merr.Program)

	assert.NoError(t, p.SetColor(1, math3d.V3(1, 0.5, 0)))
}

func TestSetUniformTypeMismatch(t *testing.T) {
	p, err := Compile(soft.New(8, 8), stages())
	require.NoError(t, err)

	err = SetUniform(p, UniformTime, math3d.V3(1, 2, 3))
	var gerr *GPUError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, gpu.InvalidOperation, gerr.Code)

	assert.NoError(t, SetUniform(p, UniformTime, float32(2)))
	assert.NoError(t, SetUniform(p, UniformViewProj, math3d.Identity()))
}

func TestSetColorRange(t *testing.T) {
	p, err := Compile(soft.New(8, 8), stages())
	require.NoError(t, err)
	assert.Error(t, p.SetColor(0, math3d.Zero3()))
	assert.Error(t, p.SetColor(4, math3d.Zero3()))
	assert.NoError(t, p.SetColor(3, math3d.Zero3()), "absent u_Color3 is a no-op")
}

func TestSetModelMatrixPushesNormalMatrix(t *testing.T) {
	rec := gputest.NewRecorder(soft.New(8, 8))
	p, err := Compile(rec, stages())
	require.NoError(t, err)
	rec.Reset()

	m := math3d.Scale(math3d.V3(2, 2, 2))
	require.NoError(t, p.SetModelMatrix(m))
	calls := rec.Find("UniformMatrix4fv")
	require.Len(t, calls, 2)
	assert.Equal(t, m.Float32s(), calls[0].Args[1])
	assert.Equal(t, m.NormalMatrix().Float32s(), calls[1].Args[1])
}

func TestDrawIcosphere(t *testing.T) {
	ctx := soft.New(32, 32)
	rec := gputest.NewRecorder(ctx)
	p, err := Compile(rec, stages())
	require.NoError(t, err)

	sphere, err := geometry.NewIcosphere(rec, math3d.Zero3(), 0.8, 0)
	require.NoError(t, err)
	require.NoError(t, p.SetModelMatrix(math3d.Identity()))
	require.NoError(t, p.SetViewProjMatrix(math3d.Identity()))
	require.NoError(t, p.SetColor(1, math3d.V3(1, 0, 0)))
	rec.Reset()

	require.NoError(t, p.Draw(sphere))
	draws := rec.Find("DrawElements")
	require.Len(t, draws, 1)
	assert.Equal(t, 60, draws[0].Args[0])
	assert.Positive(t, ctx.Stats().Fragments)
	assert.Equal(t, 2, rec.Count("EnableVertexAttribArray"))
	assert.Equal(t, 2, rec.Count("DisableVertexAttribArray"), "arrays are released after the draw")
}

type bareDrawable struct {
	pos, nor, col, idx gpu.Buffer
	count              int
}

func (d bareDrawable) PositionBuffer() gpu.Buffer { return d.pos }
func (d bareDrawable) NormalBuffer() gpu.Buffer   { return d.nor }
func (d bareDrawable) ColorBuffer() gpu.Buffer    { return d.col }
func (d bareDrawable) IndexBuffer() gpu.Buffer    { return d.idx }
func (d bareDrawable) IndexCount() int            { return d.count }

func TestBindAttributesReportsMissing(t *testing.T) {
	ctx := soft.New(8, 8)
	p, err := Compile(ctx, stages(), WithName("lit"))
	require.NoError(t, err)

	square := geometry.Upload(ctx, geometry.SquareBuffer(0))
	noNormals := bareDrawable{pos: square.PositionBuffer(), idx: square.IndexBuffer(), count: square.IndexCount()}

	err = p.BindAttributes(noNormals)
	var aerr *AttributeMismatchError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, AttribNormal, aerr.Name)

	// optional attribute: logged, draw still happens
	assert.NoError(t, p.Draw(noNormals))
	assert.Equal(t, 1, ctx.Stats().DrawCalls)
}

func TestDrawWithoutPositionsAborts(t *testing.T) {
	ctx := soft.New(8, 8)
	rec := gputest.NewRecorder(ctx)
	p, err := Compile(rec, stages())
	require.NoError(t, err)

	square := geometry.Upload(rec, geometry.SquareBuffer(0))
	noPositions := bareDrawable{nor: square.NormalBuffer(), idx: square.IndexBuffer(), count: 6}
	rec.Reset()

	err = p.Draw(noPositions)
	var aerr *AttributeMismatchError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, AttribPosition, aerr.Name)
	assert.Zero(t, rec.Count("DrawElements"))
}

func TestDestroyedProgramIsUnusable(t *testing.T) {
	rec := gputest.NewRecorder(soft.New(8, 8))
	p, err := Compile(rec, stages())
	require.NoError(t, err)
	sphere, err := geometry.NewIcosphere(rec, math3d.Zero3(), 1, 0)
	require.NoError(t, err)

	p.Destroy()
	p.Destroy()
	assert.Equal(t, 1, rec.Count("DeleteProgram"))
	rec.Reset()

	assert.ErrorIs(t, p.Draw(sphere), ErrUnusable)
	assert.ErrorIs(t, p.SetTime(1), ErrUnusable)
	assert.ErrorIs(t, p.BindAttributes(sphere), ErrUnusable)
	assert.Empty(t, rec.Calls, "no GPU calls after destroy")
}

func TestDrawEmptyDrawable(t *testing.T) {
	rec := gputest.NewRecorder(soft.New(8, 8))
	p, err := Compile(rec, stages())
	require.NoError(t, err)
	sphere, err := geometry.NewIcosphere(rec, math3d.Zero3(), 1, 0)
	require.NoError(t, err)
	sphere.Destroy()
	rec.Reset()

	assert.NoError(t, p.Draw(sphere))
	assert.Zero(t, rec.Count("DrawElements"))
}
