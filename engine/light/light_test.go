package light

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/pcss-go/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f32At(b []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}

func TestNewLightDefaults(t *testing.T) {
	l, err := NewLight()
	require.NoError(t, err)

	dir := l.Direction()
	assert.InDelta(t, 0, dir[0], 1e-6)
	assert.InDelta(t, -math.Sqrt2/2, dir[1], 1e-6)
	assert.InDelta(t, -math.Sqrt2/2, dir[2], 1e-6)
	assert.Equal(t, common.White, l.Color())
	assert.Equal(t, common.Vec4{0.1, 0.1, 0.1, 1}, l.Ambient())
}

func TestLightRejectsZeroDirection(t *testing.T) {
	_, err := NewLight(WithDirection(common.Vec3{}))
	assert.ErrorIs(t, err, ErrZeroDirection)

	l, err := NewLight(WithDirection(common.Vec3{0, -3, 0}))
	require.NoError(t, err)
	assert.Equal(t, common.Vec3{0, -1, 0}, l.Direction())

	assert.ErrorIs(t, l.SetDirection(common.Vec3{}), ErrZeroDirection)
	assert.Equal(t, common.Vec3{0, -1, 0}, l.Direction())

	require.NoError(t, l.SetDirection(common.Vec3{2, 0, 0}))
	assert.Equal(t, common.Vec3{1, 0, 0}, l.Direction())
}

func TestShadowCasterPlacesCameraAgainstLight(t *testing.T) {
	l, err := NewLight()
	require.NoError(t, err)
	sc, err := NewShadowCaster(l)
	require.NoError(t, err)

	pos := sc.Camera().Position()
	want := common.Scale3(l.Direction(), -DefaultShadowDistance)
	for i := range pos {
		assert.InDelta(t, want[i], pos[i], 1e-5)
	}
	assert.Equal(t, common.Vec3{}, sc.Camera().Target())
	assert.Equal(t, DefaultShadowMapResolution, sc.Resolution())

	// the origin projects to the center of the shadow map
	vp := sc.LightViewProjection()
	clip := common.TransformPoint(vp[:], common.Vec3{})
	assert.InDelta(t, 0, clip[0], 1e-5)
	assert.InDelta(t, 0, clip[1], 1e-5)
	assert.InDelta(t, 1, clip[3], 1e-6)
	assert.Greater(t, clip[2], float32(0))
	assert.Less(t, clip[2], float32(1))
}

func TestShadowCasterFollowsLightDirection(t *testing.T) {
	l, err := NewLight()
	require.NoError(t, err)
	sc, err := NewShadowCaster(l, WithDistance(4))
	require.NoError(t, err)

	require.NoError(t, l.SetDirection(common.Vec3{0, -1, 0}))
	sc.Update()
	pos := sc.Camera().Position()
	assert.InDelta(t, 4, pos[1], 1e-5)

	for _, v := range sc.LightViewProjection() {
		assert.False(t, math.IsNaN(float64(v)))
	}
}

func TestShadowCasterValidation(t *testing.T) {
	l, err := NewLight()
	require.NoError(t, err)

	_, err = NewShadowCaster(nil)
	assert.Error(t, err)
	_, err = NewShadowCaster(l, WithResolution(0))
	assert.Error(t, err)
	_, err = NewShadowCaster(l, WithClipPlanes(1, 1))
	assert.Error(t, err)
	_, err = NewShadowCaster(l, WithOrthoHeight(0))
	assert.Error(t, err)

	bad := DefaultShadowTuning()
	bad.PCFSamples = MaxShadowSamples + 1
	_, err = NewShadowCaster(l, WithTuning(bad))
	assert.Error(t, err)
}

func TestShadowTuningValidate(t *testing.T) {
	assert.NoError(t, DefaultShadowTuning().Validate())

	tests := map[string]func(*ShadowTuning){
		"negative light size": func(s *ShadowTuning) { s.LightSize = -1 },
		"zero blocker":        func(s *ShadowTuning) { s.BlockerSearchSamples = 0 },
		"too many blocker":    func(s *ShadowTuning) { s.BlockerSearchSamples = 65 },
		"zero pcf":            func(s *ShadowTuning) { s.PCFSamples = 0 },
		"negative width":      func(s *ShadowTuning) { s.FrustumWidth = -2 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			tuning := DefaultShadowTuning()
			mutate(&tuning)
			assert.Error(t, tuning.Validate())
		})
	}
}

func TestSetTuningKeepsPreviousOnError(t *testing.T) {
	l, err := NewLight()
	require.NoError(t, err)
	sc, err := NewShadowCaster(l)
	require.NoError(t, err)

	good := DefaultShadowTuning()
	good.LightSize = 1.5
	require.NoError(t, sc.SetTuning(good))

	bad := good
	bad.BlockerSearchSamples = 0
	assert.Error(t, sc.SetTuning(bad))
	assert.Equal(t, good, sc.Tuning())
}

func TestFrustumWidthFallback(t *testing.T) {
	l, err := NewLight()
	require.NoError(t, err)
	sc, err := NewShadowCaster(l, WithOrthoHeight(20))
	require.NoError(t, err)
	assert.Equal(t, DefaultFrustumWidth, sc.FrustumWidth())

	tuning := sc.Tuning()
	tuning.FrustumWidth = 0
	require.NoError(t, sc.SetTuning(tuning))
	assert.Equal(t, float32(10), sc.FrustumWidth())

	tuning.FrustumWidth = 3
	require.NoError(t, sc.SetTuning(tuning))
	assert.Equal(t, float32(3), sc.FrustumWidth())
}

func TestGPULightUniformLayout(t *testing.T) {
	l, err := NewLight(WithColor(common.Blue), WithAmbient(common.Vec4{0.2, 0.3, 0.4, 1}))
	require.NoError(t, err)
	sc, err := NewShadowCaster(l)
	require.NoError(t, err)

	u := sc.GPULightUniform()
	require.Equal(t, 144, u.Size())
	b := u.Marshal()
	require.Len(t, b, 144)

	vp := sc.LightViewProjection()
	assert.Equal(t, vp[5], f32At(b, 5*4))
	assert.Equal(t, l.Direction()[2], f32At(b, 72))
	assert.Equal(t, DefaultFrustumWidth, f32At(b, 76))
	assert.InDelta(t, 121.0/255.0, f32At(b, 84), 1e-6)
	assert.Equal(t, float32(0.3), f32At(b, 100))
	assert.Equal(t, uint32(DefaultShadowMapResolution), binary.LittleEndian.Uint32(b[112:]))
	assert.Equal(t, DefaultLightSize, f32At(b, 116))
	assert.Equal(t, DefaultShadowBias, f32At(b, 120))
	assert.Equal(t, uint32(DefaultBlockerSearchSamples), binary.LittleEndian.Uint32(b[124:]))
	assert.Equal(t, uint32(DefaultPCFSamples), binary.LittleEndian.Uint32(b[128:]))
	assert.Contains(t, GPULightUniformSource, "struct LightUniform")
}

func TestGPUShadowUniformLayout(t *testing.T) {
	l, err := NewLight()
	require.NoError(t, err)
	sc, err := NewShadowCaster(l)
	require.NoError(t, err)

	u := sc.GPUShadowUniform()
	require.Equal(t, 64, u.Size())
	b := u.Marshal()
	assert.Equal(t, sc.LightViewProjection()[15], f32At(b, 60))
	assert.Contains(t, GPUShadowUniformSource, "light_vp")
}
