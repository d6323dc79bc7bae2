package camera

// Input is the polled keyboard and mouse state a controller reads each frame.
// window.Window satisfies it.
type Input interface {
	// KeyDown reports whether a key is held.
	KeyDown(keyCode uint32) bool

	// MouseDelta returns cursor movement since the last call and resets it.
	MouseDelta() (dx, dy float64)
}

// CameraController moves a camera in response to input.
type CameraController interface {
	// Update reads input and repositions cam for a frame of dt seconds.
	//
	// Parameters:
	//   - cam: the camera to move
	//   - in: keyboard and mouse state
	//   - dt: elapsed time in seconds
	Update(cam Camera, in Input, dt float32)
}
