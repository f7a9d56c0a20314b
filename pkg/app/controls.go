// Package app drives the visualizer: it owns the GPU resources, reads an
// immutable Controls snapshot once per frame and issues the background and
// foreground passes.
package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/taigrr/icoviz/pkg/math3d"
	"gopkg.in/yaml.v3"
)

// ErrNegativeTessellation is returned by Controls.Validate.
var ErrNegativeTessellation = errors.New("tessellation must not be negative")

// RGB is an 8-bit colour, written as [r, g, b] in controls files.
type RGB [3]uint8

// Vec3 returns the colour with channels scaled to 0..1.
func (c RGB) Vec3() math3d.Vec3 {
	return math3d.V3(float64(c[0])/255, float64(c[1])/255, float64(c[2])/255)
}

func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

// Controls is the set of user parameters read once per frame. It is a
// value: front-ends build a new one for every change.
type Controls struct {
	Tessellation int     `yaml:"tessellation" toml:"tessellation"`
	Color1       RGB     `yaml:"color1" toml:"color1"`
	Color2       RGB     `yaml:"color2" toml:"color2"`
	Color3       RGB     `yaml:"color3" toml:"color3"`
	Amplitude    float64 `yaml:"amplitude" toml:"amplitude"`
	Frequency    float64 `yaml:"frequency" toml:"frequency"`
	TimeSpeed    float64 `yaml:"time_speed" toml:"time_speed"`
	Wireframe    bool    `yaml:"wireframe" toml:"wireframe"`
}

// DefaultControls returns the starting parameters.
func DefaultControls() Controls {
	return Controls{
		Tessellation: 5,
		Color1:       RGB{255, 128, 0},
		Color2:       RGB{255, 255, 0},
		Color3:       RGB{255, 0, 0},
		Amplitude:    0.3,
		Frequency:    3.0,
		TimeSpeed:    0.5,
	}
}

// Palette returns the three colours normalized to 0..1.
func (c Controls) Palette() []math3d.Vec3 {
	return []math3d.Vec3{c.Color1.Vec3(), c.Color2.Vec3(), c.Color3.Vec3()}
}

// Validate rejects a negative tessellation. Levels above the generator's
// maximum are left for the generator to reject.
func (c Controls) Validate() error {
	if c.Tessellation < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeTessellation, c.Tessellation)
	}
	return nil
}

// controlsCodec picks the file format from the extension: .toml is TOML,
// anything else YAML.
func controlsCodec(path string) (marshal func(any) ([]byte, error), unmarshal func([]byte, any) error) {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Marshal, toml.Unmarshal
	}
	return yaml.Marshal, yaml.Unmarshal
}

// LoadControls reads a YAML or TOML controls file. Keys missing from the
// file keep their DefaultControls values.
func LoadControls(path string) (Controls, error) {
	c := DefaultControls()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read controls: %w", err)
	}
	_, unmarshal := controlsCodec(path)
	if err := unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse controls %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("controls %s: %w", path, err)
	}
	return c, nil
}

// SaveControls writes c to path in the format its extension names.
func SaveControls(path string, c Controls) error {
	marshal, _ := controlsCodec(path)
	data, err := marshal(c)
	if err != nil {
		return fmt.Errorf("encode controls: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write controls: %w", err)
	}
	return nil
}
