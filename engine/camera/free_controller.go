package camera

import (
	"math"

	"github.com/Carmen-Shannon/pcss-go/common"
	"github.com/go-gl/mathgl/mgl32"
)

// pitchMargin keeps the view direction from reaching the up axis, where yaw degenerates.
const pitchMargin = 0.001

// freeController is a fly camera: mouse look, WASD along the view direction,
// Space/LeftControl along the up axis and LeftShift to move faster.
type freeController struct {
	moveSpeed        float32
	boostFactor      float32
	mouseSensitivity float32
}

var _ CameraController = &freeController{}

// NewFreeController creates a free-fly controller.
// Defaults: 5.4 units/s, 3x boost, 0.003 radians per mouse unit.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the controller
func NewFreeController(options ...FreeControllerOption) CameraController {
	fc := &freeController{
		moveSpeed:        5.4,
		boostFactor:      3,
		mouseSensitivity: 0.003,
	}
	for _, opt := range options {
		opt(fc)
	}
	return fc
}

func (fc *freeController) Update(cam Camera, in Input, dt float32) {
	pos := mgl32.Vec3(cam.Position())
	target := mgl32.Vec3(cam.Target())
	up := mgl32.Vec3(cam.Up()).Normalize()

	forward := target.Sub(pos)
	dist := forward.Len()
	if dist == 0 {
		return
	}
	forward = forward.Mul(1 / dist)

	dx, dy := in.MouseDelta()
	yaw := -float32(dx) * fc.mouseSensitivity
	pitch := -float32(dy) * fc.mouseSensitivity

	if pitch != 0 {
		pitch = clampPitch(forward, up, pitch)
		right := forward.Cross(up).Normalize()
		forward = mgl32.QuatRotate(pitch, right).Rotate(forward)
	}
	if yaw != 0 {
		forward = mgl32.QuatRotate(yaw, up).Rotate(forward)
	}
	forward = forward.Normalize()
	right := forward.Cross(up).Normalize()

	speed := fc.moveSpeed * dt
	if in.KeyDown(common.KeyLeftShift) {
		speed *= fc.boostFactor
	}

	var move mgl32.Vec3
	if in.KeyDown(common.KeyW) {
		move = move.Add(forward)
	}
	if in.KeyDown(common.KeyS) {
		move = move.Sub(forward)
	}
	if in.KeyDown(common.KeyD) {
		move = move.Add(right)
	}
	if in.KeyDown(common.KeyA) {
		move = move.Sub(right)
	}
	if in.KeyDown(common.KeySpace) {
		move = move.Add(up)
	}
	if in.KeyDown(common.KeyLeftControl) {
		move = move.Sub(up)
	}
	pos = pos.Add(move.Mul(speed))

	cam.SetView(common.Vec3(pos), common.Vec3(pos.Add(forward.Mul(dist))))
}

// clampPitch limits a pitch rotation so forward stays strictly between up and -up.
func clampPitch(forward, up mgl32.Vec3, pitch float32) float32 {
	cosUp := float64(mgl32.Clamp(forward.Dot(up), -1, 1))
	toUp := float32(math.Acos(cosUp)) - pitchMargin
	toDown := float32(math.Pi-math.Acos(cosUp)) - pitchMargin
	if pitch > toUp {
		pitch = toUp
	}
	if pitch < -toDown {
		pitch = -toDown
	}
	return pitch
}
