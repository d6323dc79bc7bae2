package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/Carmen-Shannon/pcss-go/common"
	"github.com/Carmen-Shannon/pcss-go/engine/light"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file the CLI reads when --config is not given.
const DefaultPath = "pcss.yaml"

// Shadow map resolution bounds. The resolution must also be a power of two.
const (
	MinShadowResolution = 256
	MaxShadowResolution = 8192
)

// ValidMSAA lists the supported sample counts.
var ValidMSAA = []int{1, 4}

// Config holds all demo configuration.
type Config struct {
	Window WindowConfig `yaml:"window"`
	Render RenderConfig `yaml:"render"`
	Camera CameraConfig `yaml:"camera"`
	Light  LightConfig  `yaml:"light"`
	Shadow ShadowConfig `yaml:"shadow"`
}

// WindowConfig configures the platform window.
type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
	VSync  bool   `yaml:"vsync"`
}

// RenderConfig configures the renderer and frame loop.
type RenderConfig struct {
	MSAA          int     `yaml:"msaa"`       // 1 or 4
	TargetFPS     float64 `yaml:"target_fps"` // 0 = uncapped
	ForceSoftware bool    `yaml:"force_software"`
	Profiling     bool    `yaml:"profiling"`
}

// CameraConfig configures the viewer camera and its free-fly controller.
type CameraConfig struct {
	Position         common.Vec3 `yaml:"position"`
	Target           common.Vec3 `yaml:"target"`
	Up               common.Vec3 `yaml:"up"`
	FovY             float32     `yaml:"fovy"` // degrees
	Near             float32     `yaml:"near"`
	Far              float32     `yaml:"far"`
	MoveSpeed        float32     `yaml:"move_speed"`
	MouseSensitivity float32     `yaml:"mouse_sensitivity"`
}

// LightConfig configures the directional light and the light camera.
type LightConfig struct {
	Direction common.Vec3 `yaml:"direction"` // normalized when used
	Color     [4]uint8    `yaml:"color"`
	Ambient   common.Vec4 `yaml:"ambient"`
	Distance  float32     `yaml:"distance"`
	OrthoFovY float32     `yaml:"ortho_fovy"` // full height of the light frustum in world units
}

// ShadowConfig holds the shadow map size and the PCSS tunables.
// Everything except Resolution can change while the demo runs.
type ShadowConfig struct {
	Resolution           int     `yaml:"resolution"`
	LightSize            float32 `yaml:"light_size"`
	BlockerSearchSamples int     `yaml:"blocker_search_samples"`
	PCFSamples           int     `yaml:"pcf_samples"`
	Bias                 float32 `yaml:"bias"`
	FrustumWidth         float32 `yaml:"frustum_width"` // 0 = ortho_fovy / 2
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  800,
			Height: 450,
			Title:  "Percentage-Closer Soft Shadows",
			VSync:  true,
		},
		Render: RenderConfig{
			MSAA:      4,
			TargetFPS: 60,
		},
		Camera: CameraConfig{
			Position:         common.Vec3{9.5, 7.5, -6.0},
			Target:           common.Vec3{0, 0, 0},
			Up:               common.Vec3{0, 1, 0},
			FovY:             45,
			Near:             0.01,
			Far:              1000,
			MoveSpeed:        5.4,
			MouseSensitivity: 0.003,
		},
		Light: LightConfig{
			Direction: common.Vec3{0, -1, -1},
			Color:     [4]uint8{255, 255, 255, 255},
			Ambient:   common.Vec4{0.1, 0.1, 0.1, 1},
			Distance:  light.DefaultShadowDistance,
			OrthoFovY: light.DefaultShadowOrthoHeight,
		},
		Shadow: ShadowConfig{
			Resolution:           light.DefaultShadowMapResolution,
			LightSize:            light.DefaultLightSize,
			BlockerSearchSamples: light.DefaultBlockerSearchSamples,
			PCFSamples:           light.DefaultPCFSamples,
			Bias:                 light.DefaultShadowBias,
			FrustumWidth:         light.DefaultFrustumWidth,
		},
	}
}

// Load loads configuration from a YAML file. Values missing from the file keep their
// defaults, and a missing file yields the defaults.
//
// Parameters:
//   - path: the config file
//
// Returns:
//   - *Config: the validated configuration
//   - error: error if the file cannot be read, parsed, or fails validation
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return parse(path, data)
}

// parse applies YAML data on top of the defaults and validates the result.
func parse(path string, data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Save saves configuration to a YAML file, creating its directory if needed.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate reports every out of range setting.
//
// Returns:
//   - error: nil if the configuration is usable, otherwise all problems joined
func (c *Config) Validate() error {
	var errs []error

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	if !slices.Contains(ValidMSAA, c.Render.MSAA) {
		errs = append(errs, fmt.Errorf("invalid msaa: %d (valid: %v)", c.Render.MSAA, ValidMSAA))
	}
	if c.Render.TargetFPS < 0 {
		errs = append(errs, fmt.Errorf("target fps must not be negative, got %v", c.Render.TargetFPS))
	}
	if c.Camera.FovY <= 0 || c.Camera.FovY >= 180 {
		errs = append(errs, fmt.Errorf("camera fovy must be in (0, 180) degrees, got %v", c.Camera.FovY))
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		errs = append(errs, fmt.Errorf("camera clip planes must satisfy 0 < near < far, got %v, %v", c.Camera.Near, c.Camera.Far))
	}
	if c.Camera.Position == c.Camera.Target {
		errs = append(errs, errors.New("camera position and target must differ"))
	}
	if c.Light.Direction == (common.Vec3{}) {
		errs = append(errs, errors.New("light direction must not be zero"))
	}
	if c.Light.Distance <= 0 || c.Light.OrthoFovY <= 0 {
		errs = append(errs, fmt.Errorf("light distance and ortho_fovy must be positive, got %v, %v", c.Light.Distance, c.Light.OrthoFovY))
	}
	if err := c.Shadow.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Validate reports every out of range shadow setting.
func (s ShadowConfig) Validate() error {
	var errs []error
	if !isPowerOfTwo(s.Resolution) || s.Resolution < MinShadowResolution || s.Resolution > MaxShadowResolution {
		errs = append(errs, fmt.Errorf("shadow resolution must be a power of two in [%d, %d], got %d",
			MinShadowResolution, MaxShadowResolution, s.Resolution))
	}
	if err := s.Tuning().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Tuning returns the live-tunable part of the shadow settings.
func (s ShadowConfig) Tuning() light.ShadowTuning {
	return light.ShadowTuning{
		LightSize:            s.LightSize,
		BlockerSearchSamples: s.BlockerSearchSamples,
		PCFSamples:           s.PCFSamples,
		Bias:                 s.Bias,
		FrustumWidth:         s.FrustumWidth,
	}
}

// LightColor returns the configured light color.
func (l LightConfig) LightColor() common.Color {
	return common.Color{R: l.Color[0], G: l.Color[1], B: l.Color[2], A: l.Color[3]}
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
