package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchControlsReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "controls.yaml")

	cw, err := WatchControls(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan Controls, 8)
	done := make(chan error, 1)
	go func() { done <- cw.Run(ctx, func(c Controls) { got <- c }) }()

	// Other files in the directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("tessellation: 1\n"), 0o644))

	c := DefaultControls()
	c.Tessellation = 2
	c.Wireframe = true
	require.NoError(t, SaveControls(path, c))

	// The create event may see the file still empty, which loads as defaults.
	deadline := time.After(5 * time.Second)
	for reloaded := DefaultControls(); reloaded != c; {
		select {
		case reloaded = <-got:
		case <-deadline:
			t.Fatal("no reload after write")
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWatchControlsMissingDir(t *testing.T) {
	_, err := WatchControls(filepath.Join(t.TempDir(), "nope", "controls.yaml"), nil)
	assert.Error(t, err)
}
