package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultControls(t *testing.T) {
	c := DefaultControls()
	assert.Equal(t, 5, c.Tessellation)
	assert.Equal(t, RGB{255, 128, 0}, c.Color1)
	assert.Equal(t, 0.3, c.Amplitude)
	assert.Equal(t, 3.0, c.Frequency)
	assert.Equal(t, 0.5, c.TimeSpeed)
	assert.NoError(t, c.Validate())

	p := c.Palette()
	require.Len(t, p, 3)
	assert.InDelta(t, 1, p[0].X, 1e-12)
	assert.InDelta(t, 128.0/255, p[0].Y, 1e-12)
	assert.InDelta(t, 0, p[2].Y, 1e-12)
	assert.Equal(t, "#ff8000", c.Color1.String())
}

func TestControlsValidate(t *testing.T) {
	c := DefaultControls()
	c.Tessellation = -1
	assert.ErrorIs(t, c.Validate(), ErrNegativeTessellation)

	c.Tessellation = 0
	assert.NoError(t, c.Validate())

	// the generator rejects levels that are too deep, not the snapshot
	c.Tessellation = 99
	assert.NoError(t, c.Validate())
}

func TestLoadControlsKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "controls.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tessellation: 2\ncolor2: [0, 0, 255]\n"), 0o644))

	c, err := LoadControls(path)
	require.NoError(t, err)
	want := DefaultControls()
	want.Tessellation = 2
	want.Color2 = RGB{0, 0, 255}
	assert.Equal(t, want, c)
}

func TestSaveLoadControls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "controls.yaml")
	c := DefaultControls()
	c.Amplitude = 0.75
	c.Wireframe = true
	require.NoError(t, SaveControls(path, c))

	got, err := LoadControls(path)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestLoadControlsErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadControls(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("color1: [1, 2]\n"), 0o644))
	_, err = LoadControls(bad)
	assert.Error(t, err, "colour needs three channels")

	negative := filepath.Join(dir, "negative.yaml")
	require.NoError(t, os.WriteFile(negative, []byte("tessellation: -3\n"), 0o644))
	_, err = LoadControls(negative)
	assert.ErrorIs(t, err, ErrNegativeTessellation)
}

func TestControlsTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "controls.toml")
	require.NoError(t, os.WriteFile(path, []byte("tessellation = 3\ncolor1 = [0, 128, 255]\ntime_speed = 1.5\n"), 0o644))

	c, err := LoadControls(path)
	require.NoError(t, err)
	want := DefaultControls()
	want.Tessellation = 3
	want.Color1 = RGB{0, 128, 255}
	want.TimeSpeed = 1.5
	assert.Equal(t, want, c)

	c.Wireframe = true
	require.NoError(t, SaveControls(path, c))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "wireframe = true")

	got, err := LoadControls(path)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}
