package geometry

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ErrNoGeometry is returned when a glTF document holds no triangle
// primitives with positions.
var ErrNoGeometry = errors.New("no triangle geometry")

// ExportGLB writes buf as a single-mesh binary glTF file. Normals and
// colours are written when present.
func ExportGLB(path string, buf *Buffer) error {
	doc, err := Document(buf)
	if err != nil {
		return err
	}
	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("save glb: %w", err)
	}
	return nil
}

// Document builds a glTF document with one mesh, one node and one scene
// holding buf.
func Document(buf *Buffer) (*gltf.Document, error) {
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if buf.VertexCount() == 0 {
		return nil, fmt.Errorf("export: %w", ErrNoGeometry)
	}

	doc := gltf.NewDocument()
	attrs := gltf.PrimitiveAttributes{
		gltf.POSITION: modeler.WritePosition(doc, triples(buf.Positions)),
	}
	if buf.HasNormals() {
		attrs[gltf.NORMAL] = modeler.WriteNormal(doc, triples(buf.Normals))
	}
	if buf.HasColors() {
		attrs[gltf.COLOR_0] = modeler.WriteColor(doc, quads(buf.Colors))
	}

	doc.Meshes = []*gltf.Mesh{{
		Name: "icoviz",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(modeler.WriteIndices(doc, buf.Indices)),
			Attributes: attrs,
			Mode:       gltf.PrimitiveTriangles,
		}},
	}}
	doc.Nodes = []*gltf.Node{{Name: "icoviz", Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	return doc, nil
}

func triples(s []float32) [][3]float32 {
	out := make([][3]float32, len(s)/3)
	for i := range out {
		out[i] = [3]float32{s[3*i], s[3*i+1], s[3*i+2]}
	}
	return out
}

func quads(s []float32) [][4]float32 {
	out := make([][4]float32, len(s)/4)
	for i := range out {
		out[i] = [4]float32{s[4*i], s[4*i+1], s[4*i+2], s[4*i+3]}
	}
	return out
}

// LoadGLB reads every triangle primitive of a .glb or .gltf file into one
// Buffer. Smooth normals are computed when the file has none.
func LoadGLB(path string) (*Buffer, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return FromDocument(doc)
}

// FromDocument merges the triangle primitives of doc into one Buffer.
func FromDocument(doc *gltf.Document) (*Buffer, error) {
	buf := &Buffer{}
	allNormals, allColors := true, true
	for _, m := range doc.Meshes {
		for _, prim := range m.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
				// lines, points, strips
				continue
			}
			hasNormals, hasColors, err := appendPrimitive(doc, prim, buf)
			if err != nil {
				return nil, fmt.Errorf("mesh %q: %w", m.Name, err)
			}
			allNormals = allNormals && hasNormals
			allColors = allColors && hasColors
		}
	}
	if buf.VertexCount() == 0 {
		return nil, ErrNoGeometry
	}

	// Partially present attributes cannot be uploaded as one array
	if !allNormals || !buf.HasNormals() {
		buf.CalculateSmoothNormals()
	}
	if !allColors {
		buf.Colors = nil
	}
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	return buf, nil
}

// appendPrimitive adds prim's vertices and triangles to buf.
func appendPrimitive(doc *gltf.Document, prim *gltf.Primitive, buf *Buffer) (hasNormals, hasColors bool, err error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return false, false, nil
	}
	positions, err := readFloats(doc, posIdx, gltf.AccessorVec3)
	if err != nil {
		return false, false, fmt.Errorf("read positions: %w", err)
	}
	count := len(positions) / 3
	base := uint32(buf.VertexCount())

	var normals, colors []float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = readFloats(doc, idx, gltf.AccessorVec3); err != nil {
			return false, false, fmt.Errorf("read normals: %w", err)
		}
	}
	if idx, ok := prim.Attributes[gltf.COLOR_0]; ok {
		if colors, err = readFloats(doc, idx, gltf.AccessorVec4); err != nil {
			return false, false, fmt.Errorf("read colors: %w", err)
		}
	}
	hasNormals = len(normals) == len(positions)
	hasColors = len(colors) == 4*count

	buf.Positions = append(buf.Positions, positions...)
	if hasNormals {
		buf.Normals = append(buf.Normals, normals...)
	}
	if hasColors {
		buf.Colors = append(buf.Colors, colors...)
	}

	if prim.Indices == nil {
		// Sequential triangles
		for i := 0; i+2 < count; i += 3 {
			buf.Indices = append(buf.Indices, base+uint32(i), base+uint32(i+1), base+uint32(i+2))
		}
		return hasNormals, hasColors, nil
	}
	indices, err := readIndices(doc, *prim.Indices)
	if err != nil {
		return false, false, fmt.Errorf("read indices: %w", err)
	}
	for i := 0; i+2 < len(indices); i += 3 {
		buf.Indices = append(buf.Indices, base+indices[i], base+indices[i+1], base+indices[i+2])
	}
	return hasNormals, hasColors, nil
}

// accessorBytes returns the backing bytes of an accessor plus its start
// offset and stride.
func accessorBytes(doc *gltf.Document, accessor *gltf.Accessor, elemSize int) ([]byte, int, int, error) {
	if accessor.BufferView == nil {
		return nil, 0, 0, errors.New("accessor has no buffer view")
	}
	viewIdx := *accessor.BufferView
	if viewIdx < 0 || viewIdx >= len(doc.BufferViews) || doc.BufferViews[viewIdx] == nil {
		return nil, 0, 0, fmt.Errorf("buffer view %d out of range", viewIdx)
	}
	view := doc.BufferViews[viewIdx]
	if view.Buffer < 0 || view.Buffer >= len(doc.Buffers) || doc.Buffers[view.Buffer] == nil {
		return nil, 0, 0, fmt.Errorf("buffer %d out of range", view.Buffer)
	}
	buffer := doc.Buffers[view.Buffer]
	if buffer.Data == nil {
		// external URIs are resolved by gltf.Open; anything else is missing
		return nil, 0, 0, errors.New("buffer has no data")
	}
	start := view.ByteOffset + accessor.ByteOffset
	if view.ByteOffset < 0 || accessor.ByteOffset < 0 || start > len(buffer.Data) {
		return nil, 0, 0, fmt.Errorf("accessor offset %d outside buffer of %d bytes", start, len(buffer.Data))
	}
	stride := view.ByteStride
	if stride == 0 {
		stride = elemSize
	}
	if stride < 0 || accessor.Count < 0 {
		return nil, 0, 0, fmt.Errorf("invalid accessor layout (stride %d, count %d)", stride, accessor.Count)
	}
	if accessor.Count > 0 {
		end := start + (accessor.Count-1)*stride + elemSize
		if end > len(buffer.Data) {
			return nil, 0, 0, fmt.Errorf("accessor overruns buffer (%d > %d)", end, len(buffer.Data))
		}
	}
	return buffer.Data, start, stride, nil
}

// readFloats reads a float accessor of the given type as a flat slice.
func readFloats(doc *gltf.Document, accessorIdx int, typ gltf.AccessorType) ([]float32, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != typ {
		return nil, fmt.Errorf("expected %v, got %v", typ, accessor.Type)
	}
	if accessor.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("unsupported component type %v", accessor.ComponentType)
	}
	n := components(typ)
	data, start, stride, err := accessorBytes(doc, accessor, 4*n)
	if err != nil {
		return nil, err
	}
	out := make([]float32, 0, accessor.Count*n)
	for i := range accessor.Count {
		offset := start + i*stride
		for j := range n {
			bits := binary.LittleEndian.Uint32(data[offset+4*j:])
			out = append(out, math.Float32frombits(bits))
		}
	}
	return out, nil
}

func components(typ gltf.AccessorType) int {
	switch typ {
	case gltf.AccessorVec2:
		return 2
	case gltf.AccessorVec3:
		return 3
	case gltf.AccessorVec4:
		return 4
	}
	return 1
}

// readIndices reads a scalar index accessor of any unsigned width.
func readIndices(doc *gltf.Document, accessorIdx int) ([]uint32, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	accessor := doc.Accessors[accessorIdx]
	var size int
	switch accessor.ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("unexpected index type: %v", accessor.ComponentType)
	}
	data, start, stride, err := accessorBytes(doc, accessor, size)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, accessor.Count)
	for i := range out {
		offset := start + i*stride
		switch size {
		case 1:
			out[i] = uint32(data[offset])
		case 2:
			out[i] = uint32(binary.LittleEndian.Uint16(data[offset:]))
		case 4:
			out[i] = binary.LittleEndian.Uint32(data[offset:])
		}
	}
	return out, nil
}
