package demo

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/Carmen-Shannon/pcss-go/assets/shaders"
	"github.com/Carmen-Shannon/pcss-go/common"
	"github.com/Carmen-Shannon/pcss-go/engine/camera"
	"github.com/Carmen-Shannon/pcss-go/engine/light"
	"github.com/Carmen-Shannon/pcss-go/engine/renderer"
	"github.com/Carmen-Shannon/pcss-go/engine/renderer/shader"
	"github.com/Carmen-Shannon/pcss-go/engine/scene"
	"github.com/Carmen-Shannon/pcss-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSceneInstances(t *testing.T) {
	instances := SceneInstances()
	require.Len(t, instances, 5)

	floor := instances[0]
	assert.Equal(t, common.Vec3{10, 1, 10}, floor.Scale)
	assert.Equal(t, common.Blue, floor.Tint)

	for _, wall := range instances[1:] {
		assert.Equal(t, float32(4.9), wall.Position[2])
		assert.Equal(t, float32(0.2), wall.Scale[2])
		assert.Equal(t, common.White, wall.Tint)
	}
}

func TestFrameTitle(t *testing.T) {
	assert.Equal(t, "PCSS | Frame time: 16.500000 ms", FrameTitle("PCSS", 16.5))
}

type titleRecorder struct{ titles []string }

func (r *titleRecorder) SetTitle(title string) { r.titles = append(r.titles, title) }

func TestFrameTitleCallbackUsesCurrentFrame(t *testing.T) {
	rec := &titleRecorder{}
	cb := frameTitleCallback(rec, "PCSS")

	cb(0.025)
	cb(0.010)
	require.Len(t, rec.titles, 2)
	assert.Equal(t, FrameTitle("PCSS", float64(float32(0.025))*1000), rec.titles[0])
	assert.Equal(t, FrameTitle("PCSS", float64(float32(0.010))*1000), rec.titles[1])
	assert.Contains(t, rec.titles[1], "Frame time: 10.0")
}

func TestPresentMode(t *testing.T) {
	assert.Equal(t, renderer.PresentModeVSync, presentMode(true))
	assert.Equal(t, renderer.PresentModeUncapped, presentMode(false))
}

func TestLoadShaders(t *testing.T) {
	set, err := loadShaders(context.Background(), shaders.FS)
	require.NoError(t, err)

	assert.Equal(t, shader.ShaderTypeVertex, set.shadow.ShaderType())
	assert.Equal(t, shader.ShaderTypeVertex, set.litVertex.ShaderType())
	assert.Equal(t, shader.ShaderTypeFragment, set.litFragment.ShaderType())
}

func TestLoadShadersMissingFile(t *testing.T) {
	fsys := fstest.MapFS{}
	_, err := loadShaders(context.Background(), fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "demo: load shaders")
}

func TestViewerCameraFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cam := newViewerCamera(cfg, 800, 450)

	assert.Equal(t, cfg.Camera.Position, cam.Position())
	assert.Equal(t, camera.ProjectionPerspective, cam.Projection())
	assert.InDelta(t, common.DegToRad(45), cam.Fov(), 1e-6)
	assert.InDelta(t, 800.0/450.0, cam.Aspect(), 1e-6)
	assert.NotNil(t, cam.Controller())

	// minimized window
	assert.Equal(t, float32(1), newViewerCamera(cfg, 800, 0).Aspect())
}

func TestShadowCasterFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Shadow.Resolution = 2048
	cfg.Shadow.LightSize = 1

	caster, err := newShadowCaster(cfg)
	require.NoError(t, err)
	assert.Equal(t, 2048, caster.Resolution())
	assert.Equal(t, float32(1), caster.Tuning().LightSize)
	assert.Equal(t, common.White, caster.Light().Color())
}

type tuningScene struct {
	scene.Scene
	got []light.ShadowTuning
}

func (s *tuningScene) SetShadowTuning(tuning light.ShadowTuning) error {
	s.got = append(s.got, tuning)
	return nil
}

func TestApplyShadowConfig(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	sc := &tuningScene{}
	s := config.DefaultConfig().Shadow
	s.LightSize = 0.75

	applyShadowConfig(sc, s.Resolution, s, zap.New(core))
	require.Len(t, sc.got, 1)
	assert.Equal(t, float32(0.75), sc.got[0].LightSize)
	assert.Zero(t, logs.Len())

	s.Resolution = 2048
	applyShadowConfig(sc, 1024, s, zap.New(core))
	assert.Len(t, sc.got, 2)
	assert.Equal(t, 1, logs.FilterMessage("shadow resolution changes take effect on restart").Len())
}

func TestStartWatcherSkipsMissingFile(t *testing.T) {
	w, err := startWatcher(context.Background(), t.TempDir()+"/absent.yaml", config.DefaultConfig(), &tuningScene{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, w)
}
