// Package gpu defines the GPU context contract shared by every icoviz
// component that issues draw calls.
//
// The interface mirrors the subset of OpenGL that the renderer needs. A
// context is passed explicitly to each constructor; nothing in the module
// reaches for a global. Only one goroutine may use a context at a time.
package gpu

import "fmt"

// ShaderKind identifies a programmable pipeline stage.
type ShaderKind int

const (
	VertexShader ShaderKind = iota + 1
	FragmentShader
)

func (k ShaderKind) String() string {
	switch k {
	case VertexShader:
		return "vertex"
	case FragmentShader:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderKind(%d)", int(k))
	}
}

// Capability is a fixed-function toggle.
type Capability int

const (
	DepthTest Capability = iota + 1
	CullFace
)

func (c Capability) String() string {
	switch c {
	case DepthTest:
		return "depth-test"
	case CullFace:
		return "cull-face"
	default:
		return fmt.Sprintf("Capability(%d)", int(c))
	}
}

// BufferTarget selects the binding point of a buffer.
type BufferTarget int

const (
	ArrayBuffer BufferTarget = iota + 1
	ElementArrayBuffer
)

// PolygonMode controls how triangles are rasterized.
type PolygonMode int

const (
	Fill PolygonMode = iota
	Line
)

// ErrorCode is the sticky error flag a context raises on invalid calls.
type ErrorCode int

const (
	NoError ErrorCode = iota
	InvalidValue
	InvalidOperation
)

func (e ErrorCode) String() string {
	switch e {
	case NoError:
		return "no error"
	case InvalidValue:
		return "invalid value"
	case InvalidOperation:
		return "invalid operation"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int(e))
	}
}

// Object handles. The zero value of each is the null object.
type (
	Shader  uint32
	Program uint32
	Buffer  uint32
)

// UniformLocation is a resolved uniform slot; -1 means "not present".
type UniformLocation int32

// Valid reports whether the location refers to an active uniform.
func (l UniformLocation) Valid() bool { return l >= 0 }

// AttribLocation is a resolved vertex attribute slot; -1 means "not present".
type AttribLocation int32

// Valid reports whether the location refers to an active attribute.
func (l AttribLocation) Valid() bool { return l >= 0 }

// NoUniform and NoAttrib are returned for names a program does not use.
const (
	NoUniform UniformLocation = -1
	NoAttrib  AttribLocation  = -1
)

// Context is a single-owner GPU context.
//
// Uniform and attribute calls on an invalid location are silent no-ops, as
// in OpenGL. Calls that violate the state machine set the sticky error
// returned (and cleared) by GetError.
type Context interface {
	CreateShader(kind ShaderKind) Shader
	ShaderSource(s Shader, src string)
	CompileShader(s Shader)
	ShaderCompiled(s Shader) bool
	ShaderInfoLog(s Shader) string
	DeleteShader(s Shader)

	CreateProgram() Program
	AttachShader(p Program, s Shader)
	LinkProgram(p Program)
	ProgramLinked(p Program) bool
	ProgramInfoLog(p Program) string
	UseProgram(p Program)
	DeleteProgram(p Program)

	UniformLocation(p Program, name string) UniformLocation
	AttribLocation(p Program, name string) AttribLocation
	Uniform1f(loc UniformLocation, v float32)
	Uniform1i(loc UniformLocation, v int32)
	Uniform3f(loc UniformLocation, x, y, z float32)
	Uniform4f(loc UniformLocation, x, y, z, w float32)
	UniformMatrix4fv(loc UniformLocation, m [16]float32)

	CreateBuffer() Buffer
	BindBuffer(target BufferTarget, b Buffer)
	BufferFloat32(target BufferTarget, data []float32)
	BufferUint32(target BufferTarget, data []uint32)
	DeleteBuffer(b Buffer)

	EnableVertexAttribArray(a AttribLocation)
	DisableVertexAttribArray(a AttribLocation)
	// VertexAttribPointer sources attribute a from the buffer bound to
	// ArrayBuffer, as tightly packed float32 tuples of the given size.
	VertexAttribPointer(a AttribLocation, size int)

	// DrawElements draws count uint32 indices from the buffer bound to
	// ElementArrayBuffer as a triangle list.
	DrawElements(count int)

	Enable(c Capability)
	Disable(c Capability)
	IsEnabled(c Capability) bool
	PolygonMode(mode PolygonMode)
	Viewport(x, y, width, height int)
	ClearColor(r, g, b, a float32)
	Clear()

	GetError() ErrorCode
}

// Surface is implemented by contexts that own their output image and can
// resize it, e.g. an offscreen software target or a canvas.
type Surface interface {
	SetSize(width, height int)
	Size() (width, height int)
}
