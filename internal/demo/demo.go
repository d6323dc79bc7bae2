package demo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/Carmen-Shannon/pcss-go/assets/shaders"
	"github.com/Carmen-Shannon/pcss-go/common"
	"github.com/Carmen-Shannon/pcss-go/engine"
	"github.com/Carmen-Shannon/pcss-go/engine/camera"
	"github.com/Carmen-Shannon/pcss-go/engine/light"
	"github.com/Carmen-Shannon/pcss-go/engine/model"
	"github.com/Carmen-Shannon/pcss-go/engine/renderer"
	"github.com/Carmen-Shannon/pcss-go/engine/renderer/shader"
	"github.com/Carmen-Shannon/pcss-go/engine/scene"
	"github.com/Carmen-Shannon/pcss-go/engine/window"
	"github.com/Carmen-Shannon/pcss-go/internal/config"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// sceneName labels the scene's GPU resources.
const sceneName = "pcss"

// Option configures Run.
type Option func(*options)

type options struct {
	configPath string
	shaderFS   fs.FS
}

// WithConfigPath enables live reload of the shadow settings from the given file.
// The watcher is only started when the file exists.
func WithConfigPath(path string) Option {
	return func(o *options) {
		o.configPath = path
	}
}

// WithShaderFS replaces the embedded WGSL sources.
func WithShaderFS(fsys fs.FS) Option {
	return func(o *options) {
		if fsys != nil {
			o.shaderFS = fsys
		}
	}
}

// Run opens the window, builds the soft shadow scene described by cfg and renders it
// until the window closes or ctx is cancelled. Every GPU resource created here is
// released before Run returns.
//
// Parameters:
//   - ctx: cancelling it closes the window
//   - cfg: a validated configuration
//   - logger: the root logger
//   - opts: functional options
//
// Returns:
//   - error: error if any part of the demo cannot be initialized
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (err error) {
	o := &options{shaderFS: shaders.FS}
	for _, opt := range opts {
		opt(o)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Window creation and GPU initialization failures panic with a package prefix.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("demo: %v", r)
		}
	}()

	sh, err := loadShaders(ctx, o.shaderFS)
	if err != nil {
		return err
	}

	win := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithWidth(cfg.Window.Width),
		window.WithHeight(cfg.Window.Height),
		window.WithCursorDisabled(),
		window.WithLogger(logger.Named("window")),
	)
	defer func() {
		if cerr := win.Close(); cerr != nil {
			logger.Debug("window already closed", zap.Error(cerr))
		}
	}()

	r, err := renderer.NewRenderer(renderer.BackendTypeWGPU, win,
		renderer.WithMSAA(renderer.MSAASampleCount(cfg.Render.MSAA)),
		renderer.WithPresentMode(presentMode(cfg.Window.VSync)),
		renderer.WithClearColor(common.RayWhite.WGPU()),
		renderer.WithForceSoftwareRenderer(cfg.Render.ForceSoftware),
		renderer.WithLogger(logger.Named("renderer")),
	)
	if err != nil {
		return err
	}
	defer r.Release()

	cam := newViewerCamera(cfg, win.Width(), win.Height())

	caster, err := newShadowCaster(cfg)
	if err != nil {
		return err
	}

	cube, err := model.NewCube("cube", 1, 1, 1)
	if err != nil {
		return err
	}

	sc, err := scene.NewScene(sceneName, cam, r, caster, cube,
		scene.WithInstances(SceneInstances()...),
		scene.WithInput(win),
		scene.WithLogger(logger.Named("scene")),
	)
	if err != nil {
		cube.Release()
		return err
	}
	defer sc.Release()

	if err := sc.InitShadowMap(sh.shadow); err != nil {
		return err
	}
	if err := sc.InitLighting(sh.litVertex, sh.litFragment); err != nil {
		return err
	}

	eng, err := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithScene(sc),
		engine.WithRenderFrameLimit(cfg.Render.TargetFPS),
		engine.WithProfiling(cfg.Render.Profiling),
		engine.WithLogger(logger.Named("engine")),
	)
	if err != nil {
		return err
	}

	eng.SetRenderCallback(frameTitleCallback(win, cfg.Window.Title))

	if o.configPath != "" {
		w, err := startWatcher(ctx, o.configPath, cfg, sc, logger)
		if err != nil {
			return err
		}
		if w != nil {
			defer w.Close()
		}
	}

	stop := context.AfterFunc(ctx, eng.Quit)
	defer stop()

	logger.Info("demo running",
		zap.Int("width", cfg.Window.Width),
		zap.Int("height", cfg.Window.Height),
		zap.Int("msaa", cfg.Render.MSAA),
		zap.Int("shadow_resolution", cfg.Shadow.Resolution),
		zap.Int("instances", sc.Count()),
	)
	eng.Run()
	return nil
}

// SceneInstances returns the scene: a blue floor and a white wall with a window cut
// into it, built from four slabs.
func SceneInstances() []scene.Instance {
	return []scene.Instance{
		{Position: common.Vec3{0, 0, 0}, Scale: common.Vec3{10, 1, 10}, Tint: common.Blue},
		{Position: common.Vec3{0, 1.5, 4.9}, Scale: common.Vec3{10, 2, 0.2}, Tint: common.White},
		{Position: common.Vec3{3, 3.5, 4.9}, Scale: common.Vec3{4, 2, 0.2}, Tint: common.White},
		{Position: common.Vec3{-3, 3.5, 4.9}, Scale: common.Vec3{4, 2, 0.2}, Tint: common.White},
		{Position: common.Vec3{0, 5.5, 4.9}, Scale: common.Vec3{10, 2, 0.2}, Tint: common.White},
	}
}

// FrameTitle formats the window title shown while the demo runs.
func FrameTitle(base string, frameTimeMs float64) string {
	return fmt.Sprintf("%s | Frame time: %f ms", base, frameTimeMs)
}

// frameTitleCallback shows the duration of the frame just drawn in the window title.
func frameTitleCallback(win interface{ SetTitle(title string) }, base string) func(deltaTime float32) {
	return func(dt float32) {
		win.SetTitle(FrameTitle(base, float64(dt)*1000))
	}
}

func presentMode(vsync bool) renderer.PresentMode {
	if vsync {
		return renderer.PresentModeVSync
	}
	return renderer.PresentModeUncapped
}

func newViewerCamera(cfg *config.Config, width, height int) camera.Camera {
	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}
	return camera.NewCamera(
		camera.WithPosition(cfg.Camera.Position),
		camera.WithTarget(cfg.Camera.Target),
		camera.WithUp(cfg.Camera.Up),
		camera.WithFov(common.DegToRad(cfg.Camera.FovY)),
		camera.WithAspect(aspect),
		camera.WithNear(cfg.Camera.Near),
		camera.WithFar(cfg.Camera.Far),
		camera.WithController(camera.NewFreeController(
			camera.WithMoveSpeed(cfg.Camera.MoveSpeed),
			camera.WithMouseSensitivity(cfg.Camera.MouseSensitivity),
		)),
	)
}

func newShadowCaster(cfg *config.Config) (light.ShadowCaster, error) {
	l, err := light.NewLight(
		light.WithDirection(cfg.Light.Direction),
		light.WithColor(cfg.Light.LightColor()),
		light.WithAmbient(cfg.Light.Ambient),
	)
	if err != nil {
		return nil, err
	}
	return light.NewShadowCaster(l,
		light.WithDistance(cfg.Light.Distance),
		light.WithOrthoHeight(cfg.Light.OrthoFovY),
		light.WithResolution(cfg.Shadow.Resolution),
		light.WithTuning(cfg.Shadow.Tuning()),
	)
}

// startWatcher reloads the shadow tunables into sc when the config file changes.
// It returns a nil watcher when the file does not exist.
func startWatcher(ctx context.Context, path string, cfg *config.Config, sc scene.Scene, logger *zap.Logger) (*config.Watcher, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("config file not found, live reload disabled", zap.String("path", path))
			return nil, nil
		}
		return nil, fmt.Errorf("demo: stat config: %w", err)
	}

	w, err := config.NewWatcher(path, cfg.Shadow, func(s config.ShadowConfig) {
		applyShadowConfig(sc, cfg.Shadow.Resolution, s, logger)
	}, config.WithWatcherLogger(logger.Named("config")))
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

// applyShadowConfig pushes reloaded tunables into the scene. The shadow map is sized
// once, so a changed resolution only produces a warning.
func applyShadowConfig(sc scene.Scene, resolution int, s config.ShadowConfig, logger *zap.Logger) {
	if s.Resolution != resolution {
		logger.Warn("shadow resolution changes take effect on restart",
			zap.Int("current", resolution),
			zap.Int("requested", s.Resolution),
		)
	}
	// SetShadowTuning logs the outcome.
	_ = sc.SetShadowTuning(s.Tuning())
}

type shaderSet struct {
	shadow      shader.Shader
	litVertex   shader.Shader
	litFragment shader.Shader
}

// loadShaders parses the three WGSL programs concurrently.
func loadShaders(ctx context.Context, fsys fs.FS) (*shaderSet, error) {
	set := &shaderSet{}
	g, _ := errgroup.WithContext(ctx)

	load := func(dst *shader.Shader, key string, st shader.ShaderType, path string) {
		g.Go(func() error {
			s, err := shader.NewShader(key, st, fsys, path)
			if err != nil {
				return err
			}
			*dst = s
			return nil
		})
	}
	load(&set.shadow, "shadow_depth", shader.ShaderTypeVertex, shaders.ShadowDepthPath)
	load(&set.litVertex, "pcss_lit_vert", shader.ShaderTypeVertex, shaders.LitVertexPath)
	load(&set.litFragment, "pcss_lit_frag", shader.ShaderTypeFragment, shaders.LitFragmentPath)

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("demo: load shaders: %w", err)
	}
	return set, nil
}
