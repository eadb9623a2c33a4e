package gallery

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/hdr-gallery/pkg/tonemap"
)

func TestNewConfigFromYaml(t *testing.T) {
	c, err := NewConfigFromYaml([]byte(`
images:
  - a.exr
  - b.hdr
exposure: 2.5
tonemapper: reinhard05
autoplay: true
autoplay_interval: 250ms
workers: 3
strip: true
verbosity: 1
strip_exposures: [0.5, 2]
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.exr", "b.hdr"}, c.Images)
	assert.Equal(t, float32(2.5), c.Exposure)
	assert.Equal(t, "reinhard05", c.Tonemapper)
	assert.True(t, c.Autoplay)
	assert.Equal(t, 250*time.Millisecond, c.AutoplayInterval)
	assert.Equal(t, 3, c.Workers)
	assert.Equal(t, []float32{0.5, 2}, c.StripExposures)
	assert.True(t, c.Strip)
	assert.Equal(t, zerolog.DebugLevel, c.LogLevel())

	// untouched fields keep their defaults
	assert.Equal(t, ".", c.OutputDir)
	assert.Equal(t, 160, c.StripHeight)
}

func TestConfigDefaults(t *testing.T) {
	c, err := NewConfigFromYaml([]byte(`images: [a.exr]`))
	require.NoError(t, err)
	assert.Equal(t, tonemap.DefaultExposure, c.Exposure)
	assert.Equal(t, tonemap.OperatorExposure, c.Tonemapper)
	assert.Equal(t, time.Second, c.AutoplayInterval)
	assert.False(t, c.Autoplay)
	assert.False(t, c.Strip)
	assert.Equal(t, zerolog.InfoLevel, c.LogLevel())
}

func TestConfigLogLevel(t *testing.T) {
	for v, want := range map[int]zerolog.Level{
		-1: zerolog.InfoLevel,
		0:  zerolog.InfoLevel,
		1:  zerolog.DebugLevel,
		2:  zerolog.TraceLevel,
		5:  zerolog.TraceLevel,
	} {
		assert.Equal(t, want, Config{Verbosity: v}.LogLevel(), "verbosity %d", v)
	}
}

func TestConfigFinalizeErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown tonemapper", "tonemapper: sepia"},
		{"exposure too low", "exposure: 0.01"},
		{"exposure too high", "exposure: 11"},
		{"negative strip exposure", "strip_exposures: [1, -2]"},
		{"bad yaml", "images: [unterminated"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewConfigFromYaml([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestConfigAsYamlRoundTrip(t *testing.T) {
	c := NewConfig()
	c.Images = []string{"x.pfm"}
	c.Exposure = 4
	c.AutoplayInterval = 3 * time.Second

	back, err := NewConfigFromYaml([]byte(c.AsYaml()))
	require.NoError(t, err)
	assert.Equal(t, c, back)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gallery.yaml")
	require.NoError(t, os.WriteFile(path, []byte("images: [one.exr]\nexposure: 0.5\n"), 0o644))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"one.exr"}, c.Images)
	assert.Equal(t, float32(0.5), c.Exposure)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFilesAndDirs(t *testing.T) {
	dir := t.TempDir()
	touch := func(name string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
		return path
	}

	b := touch("b.hdr")
	a := touch("a.exr")
	touch("notes.txt")
	c := touch("sub/c.pfm")
	cfgPath := filepath.Join(dir, "sub", "gallery.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("images: [first.exr]\nexposure: 3\n"), 0o644))

	cfg, err := LoadFilesAndDirs(NewConfig(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"first.exr", a, b, c}, cfg.Images)
	assert.Equal(t, float32(3), cfg.Exposure)

	_, err = LoadFilesAndDirs(NewConfig(), filepath.Join(dir, "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
