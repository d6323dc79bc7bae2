package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/pcss-go/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInput struct {
	keys   map[uint32]bool
	dx, dy float64
}

func (f *fakeInput) KeyDown(keyCode uint32) bool {
	return f.keys[keyCode]
}

func (f *fakeInput) MouseDelta() (float64, float64) {
	dx, dy := f.dx, f.dy
	f.dx, f.dy = 0, 0
	return dx, dy
}

func toNDC(m [16]float32, p common.Vec3) common.Vec3 {
	c := common.TransformPoint(m[:], p)
	return common.Vec3{c[0] / c[3], c[1] / c[3], c[2] / c[3]}
}

func TestPerspectiveCameraCentersTarget(t *testing.T) {
	cam := NewCamera(
		WithPosition(common.Vec3{9.5, 7.5, -6.0}),
		WithTarget(common.Vec3{0, 0, 0}),
		WithFov(common.DegToRad(45)),
		WithAspect(800.0/450.0),
		WithNear(0.01),
		WithFar(1000),
	)

	ndc := toNDC(cam.ViewProjectionMatrix(), common.Vec3{})
	assert.InDelta(t, 0, ndc[0], 1e-5)
	assert.InDelta(t, 0, ndc[1], 1e-5)
	assert.Greater(t, ndc[2], float32(0))
	assert.Less(t, ndc[2], float32(1))
	assert.Equal(t, ProjectionPerspective, cam.Projection())
}

func TestOrthographicCameraExtent(t *testing.T) {
	cam := NewCamera(
		WithProjection(ProjectionOrthographic),
		WithPosition(common.Vec3{0, 0, 8}),
		WithTarget(common.Vec3{0, 0, 0}),
		WithFov(20),
		WithNear(0.01),
		WithFar(1000),
	)

	// fov is the full view height: y = 10 is the top edge
	top := toNDC(cam.ViewProjectionMatrix(), common.Vec3{0, 10, 0})
	right := toNDC(cam.ViewProjectionMatrix(), common.Vec3{10, 0, 0})
	assert.InDelta(t, 1, top[1], 1e-5)
	assert.InDelta(t, 1, right[0], 1e-5)

	near := toNDC(cam.ViewProjectionMatrix(), common.Vec3{0, 0, 8 - 0.01})
	assert.InDelta(t, 0, near[2], 1e-5)
	assert.Equal(t, "orthographic", cam.Projection().String())
}

func TestSettersRecomputeMatrices(t *testing.T) {
	cam := NewCamera(WithPosition(common.Vec3{0, 0, 5}))
	before := cam.ViewProjectionMatrix()

	cam.SetAspect(2)
	after := cam.ViewProjectionMatrix()
	assert.NotEqual(t, before, after)

	cam.SetView(common.Vec3{1, 2, 3}, common.Vec3{4, 5, 6})
	assert.Equal(t, common.Vec3{1, 2, 3}, cam.Position())
	assert.Equal(t, common.Vec3{4, 5, 6}, cam.Target())
}

func TestGPUCameraUniformLayout(t *testing.T) {
	cam := NewCamera(WithPosition(common.Vec3{9.5, 7.5, -6}))
	u := cam.GPUUniform()
	require.Equal(t, 80, u.Size())

	b := u.Marshal()
	require.Len(t, b, 80)
	vp := cam.ViewProjectionMatrix()
	assert.Equal(t, vp[0], math.Float32frombits(binary.LittleEndian.Uint32(b[0:])))
	assert.Equal(t, float32(9.5), math.Float32frombits(binary.LittleEndian.Uint32(b[64:])))
	assert.Equal(t, float32(-6), math.Float32frombits(binary.LittleEndian.Uint32(b[72:])))
	assert.Contains(t, GPUCameraUniformSource, "struct CameraUniform")
}

func TestUpdateWithoutControllerIsNoop(t *testing.T) {
	cam := NewCamera(WithPosition(common.Vec3{1, 1, 1}))
	cam.Update(1, &fakeInput{keys: map[uint32]bool{common.KeyW: true}})
	assert.Equal(t, common.Vec3{1, 1, 1}, cam.Position())
}

func TestFreeControllerMovesForward(t *testing.T) {
	cam := NewCamera(
		WithPosition(common.Vec3{0, 0, 10}),
		WithTarget(common.Vec3{0, 0, 0}),
		WithController(NewFreeController(WithMoveSpeed(2))),
	)
	cam.Update(0.5, &fakeInput{keys: map[uint32]bool{common.KeyW: true}})

	pos := cam.Position()
	assert.InDelta(t, 9, pos[2], 1e-5)
	// target travels with the eye
	assert.InDelta(t, -1, cam.Target()[2], 1e-5)
}

func TestFreeControllerStrafeAndVertical(t *testing.T) {
	cam := NewCamera(
		WithPosition(common.Vec3{0, 0, 10}),
		WithTarget(common.Vec3{0, 0, 0}),
		WithController(NewFreeController(WithMoveSpeed(1), WithBoostFactor(4))),
	)
	cam.Update(1, &fakeInput{keys: map[uint32]bool{
		common.KeyD:         true,
		common.KeySpace:     true,
		common.KeyLeftShift: true,
	}})

	pos := cam.Position()
	assert.InDelta(t, 4, pos[0], 1e-5)
	assert.InDelta(t, 4, pos[1], 1e-5)
	assert.InDelta(t, 10, pos[2], 1e-5)
}

func TestFreeControllerMouseLook(t *testing.T) {
	cam := NewCamera(
		WithPosition(common.Vec3{0, 0, 10}),
		WithTarget(common.Vec3{0, 0, 0}),
		WithController(NewFreeController(WithMouseSensitivity(0.01))),
	)

	// moving the mouse right turns right (toward +X when looking down -Z)
	cam.Update(0, &fakeInput{dx: 10})
	fwd := common.Sub3(cam.Target(), cam.Position())
	assert.Greater(t, fwd[0], float32(0))
	assert.InDelta(t, 10, common.Length3(fwd), 1e-4)

	// moving the mouse up looks up
	cam.Update(0, &fakeInput{dy: -10})
	fwd = common.Sub3(cam.Target(), cam.Position())
	assert.Greater(t, fwd[1], float32(0))
}

func TestFreeControllerPitchClamp(t *testing.T) {
	cam := NewCamera(
		WithPosition(common.Vec3{0, 0, 10}),
		WithTarget(common.Vec3{0, 0, 0}),
		WithController(NewFreeController(WithMouseSensitivity(1))),
	)

	cam.Update(0, &fakeInput{dy: -100})
	fwd := common.Normalize3(common.Sub3(cam.Target(), cam.Position()))
	assert.Greater(t, fwd[1], float32(0.99))
	assert.InDelta(t, 0, fwd[0], 1e-3)

	// pushing further does not flip over the top
	cam.Update(0, &fakeInput{dy: -100})
	fwd = common.Normalize3(common.Sub3(cam.Target(), cam.Position()))
	assert.Greater(t, fwd[1], float32(0.99))
	assert.Less(t, fwd[2], float32(0.01))
	for _, v := range cam.ViewMatrix() {
		assert.False(t, math.IsNaN(float64(v)))
	}
}
