package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/sdlcad/lang/config"
)

func TestDefaultIsZeroValue(t *testing.T) {
	require.Equal(t, config.Config{}, config.Default())
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/cfg.yaml"
	content := `
fn: 64
fa: 0.5
fs: 0.25
grid_samples: 96
preload:
  - lib/shapes.scad
  - lib/helpers.scad
trace: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 64.0, cfg.Fn)
	require.Equal(t, 0.5, cfg.Fa)
	require.Equal(t, 0.25, cfg.Fs)
	require.Equal(t, 96, cfg.GridSamples)
	require.Equal(t, []string{"lib/shapes.scad", "lib/helpers.scad"}, cfg.Preload)
	require.True(t, cfg.Trace)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := config.Load("does-not-exist.yaml")
	require.Error(t, err)
}

func TestLoadInvalidYAMLErrors(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/bad.yaml"
	require.NoError(t, os.WriteFile(path, []byte("fn: [this is not a float"), 0o644))

	_, err := config.Load(path)
	require.Error(t, err)
}
