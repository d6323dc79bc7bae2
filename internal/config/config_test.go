package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/pcss-go/common"
	"github.com/Carmen-Shannon/pcss-go/engine/light"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 450, cfg.Window.Height)
	assert.Equal(t, 4, cfg.Render.MSAA)
	assert.Equal(t, common.Vec3{9.5, 7.5, -6.0}, cfg.Camera.Position)
	assert.Equal(t, common.White, cfg.Light.LightColor())
	assert.Equal(t, 1024, cfg.Shadow.Resolution)
	assert.Equal(t, light.DefaultShadowTuning(), cfg.Shadow.Tuning())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pcss.yaml")
	data := `
window:
  width: 1280
camera:
  position: [1, 2, 3]
light:
  color: [255, 0, 0, 255]
shadow:
  light_size: 1.5
  pcf_samples: 64
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, 450, cfg.Window.Height)
	assert.Equal(t, common.Vec3{1, 2, 3}, cfg.Camera.Position)
	assert.Equal(t, common.Color{R: 255, A: 255}, cfg.Light.LightColor())
	assert.Equal(t, float32(1.5), cfg.Shadow.LightSize)
	assert.Equal(t, 64, cfg.Shadow.PCFSamples)
	assert.Equal(t, 16, cfg.Shadow.BlockerSearchSamples)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pcss.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window: [not, a, map"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pcss.yaml")
	require.NoError(t, os.WriteFile(path, []byte("render:\n  msaa: 8\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid msaa")
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pcss.yaml")
	cfg := DefaultConfig()
	cfg.Shadow.LightSize = 2
	cfg.Light.Ambient = common.Vec4{0.2, 0.2, 0.2, 1}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }, "window size"},
		{"msaa", func(c *Config) { c.Render.MSAA = 2 }, "invalid msaa"},
		{"negative fps", func(c *Config) { c.Render.TargetFPS = -1 }, "target fps"},
		{"fovy", func(c *Config) { c.Camera.FovY = 180 }, "camera fovy"},
		{"clip planes", func(c *Config) { c.Camera.Far = c.Camera.Near }, "clip planes"},
		{"degenerate camera", func(c *Config) { c.Camera.Target = c.Camera.Position }, "position and target"},
		{"zero light", func(c *Config) { c.Light.Direction = common.Vec3{} }, "light direction"},
		{"light distance", func(c *Config) { c.Light.Distance = 0 }, "light distance"},
		{"resolution not power of two", func(c *Config) { c.Shadow.Resolution = 1000 }, "power of two"},
		{"resolution too small", func(c *Config) { c.Shadow.Resolution = 128 }, "power of two"},
		{"resolution too large", func(c *Config) { c.Shadow.Resolution = 16384 }, "power of two"},
		{"blocker samples", func(c *Config) { c.Shadow.BlockerSearchSamples = 0 }, "blocker search samples"},
		{"pcf samples", func(c *Config) { c.Shadow.PCFSamples = 65 }, "pcf samples"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Render.MSAA = 3
	cfg.Shadow.Resolution = 300

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid msaa")
	assert.Contains(t, err.Error(), "power of two")
}
