// Package assets embeds the GLSL programs icoviz ships with.
package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/taigrr/icoviz/pkg/gpu"
	"github.com/taigrr/icoviz/pkg/shader"
)

//go:embed shaders/*.glsl
var shaders embed.FS

// Program names.
const (
	Background  = "background"
	CustomNoise = "custom-noise"
	Lambert     = "lambert"
)

// Stages returns the vertex and fragment stages of the named program.
func Stages(name string) ([]shader.Stage, error) {
	vert, err := fs.ReadFile(shaders, "shaders/"+name+".vert.glsl")
	if err != nil {
		return nil, fmt.Errorf("load %s vertex shader: %w", name, err)
	}
	frag, err := fs.ReadFile(shaders, "shaders/"+name+".frag.glsl")
	if err != nil {
		return nil, fmt.Errorf("load %s fragment shader: %w", name, err)
	}
	return []shader.Stage{
		{Kind: gpu.VertexShader, Source: string(vert), Name: name + ".vert.glsl"},
		{Kind: gpu.FragmentShader, Source: string(frag), Name: name + ".frag.glsl"},
	}, nil
}

// Names lists the embedded programs.
func Names() []string {
	entries, _ := fs.ReadDir(shaders, "shaders")
	var names []string
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".vert.glsl")
		if ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}
