package geometry

import (
	"github.com/taigrr/icoviz/pkg/gpu"
	"github.com/taigrr/icoviz/pkg/math3d"
)

// Drawable is anything a shader program can draw: a set of GPU buffers and
// an index count. A zero handle means the attribute is absent.
type Drawable interface {
	PositionBuffer() gpu.Buffer
	NormalBuffer() gpu.Buffer
	ColorBuffer() gpu.Buffer
	IndexBuffer() gpu.Buffer
	IndexCount() int
}

// Mesh is a Buffer that has been copied into GPU buffers.
type Mesh struct {
	ctx gpu.Context

	positions gpu.Buffer
	normals   gpu.Buffer
	colors    gpu.Buffer
	indices   gpu.Buffer
	count     int

	vertexCount int
	boundsMin   math3d.Vec3
	boundsMax   math3d.Vec3
}

var _ Drawable = (*Mesh)(nil)

// Upload copies buf's arrays into new GPU buffers. Optional arrays that
// are empty get no buffer. buf is not retained.
func Upload(ctx gpu.Context, buf *Buffer) *Mesh {
	m := &Mesh{
		ctx:         ctx,
		count:       len(buf.Indices),
		vertexCount: buf.VertexCount(),
	}
	m.boundsMin, m.boundsMax = buf.Bounds()

	m.positions = uploadFloats(ctx, buf.Positions)
	if buf.HasNormals() {
		m.normals = uploadFloats(ctx, buf.Normals)
	}
	if buf.HasColors() {
		m.colors = uploadFloats(ctx, buf.Colors)
	}

	m.indices = ctx.CreateBuffer()
	ctx.BindBuffer(gpu.ElementArrayBuffer, m.indices)
	ctx.BufferUint32(gpu.ElementArrayBuffer, buf.Indices)
	return m
}

func uploadFloats(ctx gpu.Context, data []float32) gpu.Buffer {
	b := ctx.CreateBuffer()
	ctx.BindBuffer(gpu.ArrayBuffer, b)
	ctx.BufferFloat32(gpu.ArrayBuffer, data)
	return b
}

func (m *Mesh) PositionBuffer() gpu.Buffer { return m.positions }
func (m *Mesh) NormalBuffer() gpu.Buffer   { return m.normals }
func (m *Mesh) ColorBuffer() gpu.Buffer    { return m.colors }
func (m *Mesh) IndexBuffer() gpu.Buffer    { return m.indices }
func (m *Mesh) IndexCount() int            { return m.count }

// VertexCount returns the number of uploaded vertices.
func (m *Mesh) VertexCount() int { return m.vertexCount }

// Bounds returns the bounding box of the uploaded positions.
func (m *Mesh) Bounds() (lo, hi math3d.Vec3) { return m.boundsMin, m.boundsMax }

// Destroy deletes the GPU buffers. The mesh draws nothing afterwards.
func (m *Mesh) Destroy() {
	for _, b := range []gpu.Buffer{m.positions, m.normals, m.colors, m.indices} {
		if b != 0 {
			m.ctx.DeleteBuffer(b)
		}
	}
	m.positions, m.normals, m.colors, m.indices = 0, 0, 0, 0
	m.count = 0
}
