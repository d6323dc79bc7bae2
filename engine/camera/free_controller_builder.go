package camera

// FreeControllerOption is a functional option for configuring the free-fly controller.
type FreeControllerOption func(*freeController)

// WithMoveSpeed sets the movement speed in world units per second.
//
// Parameters:
//   - speed: units per second
//
// Returns:
//   - FreeControllerOption: functional option to set the speed
func WithMoveSpeed(speed float32) FreeControllerOption {
	return func(fc *freeController) {
		fc.moveSpeed = speed
	}
}

// WithBoostFactor sets the speed multiplier applied while LeftShift is held.
func WithBoostFactor(factor float32) FreeControllerOption {
	return func(fc *freeController) {
		fc.boostFactor = factor
	}
}

// WithMouseSensitivity sets the rotation in radians per unit of mouse movement.
//
// Parameters:
//   - sensitivity: radians per mouse unit
//
// Returns:
//   - FreeControllerOption: functional option to set the sensitivity
func WithMouseSensitivity(sensitivity float32) FreeControllerOption {
	return func(fc *freeController) {
		fc.mouseSensitivity = sensitivity
	}
}
