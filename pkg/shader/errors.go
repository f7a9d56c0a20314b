package shader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/taigrr/icoviz/pkg/gpu"
)

// ErrUnusable is returned by every operation on a destroyed program.
var ErrUnusable = errors.New("shader program is destroyed")

// CompileError reports a stage that failed to compile.
type CompileError struct {
	Stage gpu.ShaderKind
	Name  string
	Log   string
}

func (e *CompileError) Error() string {
	name := e.Name
	if name == "" {
		name = e.Stage.String()
	}
	return fmt.Sprintf("compile %s shader %q: %s", e.Stage, name, strings.TrimSpace(e.Log))
}

// LinkError reports a program that failed to link.
type LinkError struct {
	Program string
	Log     string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("link program %q: %s", e.Program, strings.TrimSpace(e.Log))
}

// MissingUniformError is returned in strict mode when a program has no
// active uniform of the given name.
type MissingUniformError struct {
	Program string
	Name    string
}

func (e *MissingUniformError) Error() string {
	return fmt.Sprintf("program %q has no uniform %q", e.Program, e.Name)
}

// AttributeMismatchError reports an attribute the program reads but the
// drawable does not provide.
type AttributeMismatchError struct {
	Program string
	Name    string
}

func (e *AttributeMismatchError) Error() string {
	return fmt.Sprintf("program %q reads attribute %q but the drawable has no buffer for it", e.Program, e.Name)
}

// GPUError wraps an error flag raised by the context during an operation.
type GPUError struct {
	Op   string
	Code gpu.ErrorCode
}

func (e *GPUError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}
