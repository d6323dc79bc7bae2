package camera

import (
	"math"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/pcss-go/common"
	"github.com/Carmen-Shannon/pcss-go/engine/renderer/bind_group_provider"
)

var cameraCount atomic.Uint64

// Projection selects how a camera maps view space to clip space.
type Projection int

const (
	// ProjectionPerspective uses Fov as the vertical field of view in radians.
	ProjectionPerspective Projection = iota

	// ProjectionOrthographic uses Fov as the full view height in world units.
	// The view width is Fov * Aspect.
	ProjectionOrthographic
)

// String returns the projection name.
func (p Projection) String() string {
	switch p {
	case ProjectionPerspective:
		return "perspective"
	case ProjectionOrthographic:
		return "orthographic"
	default:
		return "unknown"
	}
}

// cameraImpl is the implementation of the Camera interface.
type cameraImpl struct {
	mu *sync.Mutex

	position common.Vec3
	target   common.Vec3
	up       common.Vec3

	projection Projection
	fov        float32
	aspect     float32
	near       float32
	far        float32

	viewMatrix           [16]float32
	projectionMatrix     [16]float32
	viewProjectionMatrix [16]float32

	controller        CameraController
	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Camera is a view into the scene: an eye position, a target it looks at and a projection.
// All matrices are column-major and recomputed whenever a parameter changes.
// Thread-safe for concurrent access.
type Camera interface {
	// Position returns the eye position in world space.
	Position() common.Vec3

	// Target returns the point the camera looks at.
	Target() common.Vec3

	// Up returns the camera's up vector.
	Up() common.Vec3

	// Projection returns the projection mode.
	Projection() Projection

	// Fov returns the vertical field of view in radians (perspective) or the view height (orthographic).
	Fov() float32

	Aspect() float32

	Near() float32

	Far() float32

	ViewMatrix() [16]float32

	ProjectionMatrix() [16]float32

	// ViewProjectionMatrix returns Projection * View.
	ViewProjectionMatrix() [16]float32

	// GPUUniform returns the current camera uniform ready for upload.
	//
	// Returns:
	//   - GPUCameraUniform: view-projection and eye position
	GPUUniform() GPUCameraUniform

	// Controller returns the attached controller, or nil.
	Controller() CameraController

	// BindGroupProvider returns the provider holding the camera uniform buffer.
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// Update advances the attached controller, if any, by dt seconds using the given input.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	//   - in: keyboard and mouse state
	Update(dt float32, in Input)

	// SetView moves the eye and target together.
	//
	// Parameters:
	//   - position: new eye position
	//   - target: new look-at point
	SetView(position, target common.Vec3)

	SetPosition(position common.Vec3)

	SetTarget(target common.Vec3)

	SetUp(up common.Vec3)

	SetProjection(p Projection)

	SetFov(fov float32)

	SetAspect(aspect float32)

	SetNear(near float32)

	SetFar(far float32)

	SetController(ctrl CameraController)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with the provided options.
// Defaults: eye (0,0,10) looking at the origin, Y up, perspective 45 degrees, aspect 1, near 0.1, far 100.
//
// Parameters:
//   - options: variadic list of CameraBuilderOption functions
//
// Returns:
//   - Camera: the new camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:         &sync.Mutex{},
		position:   common.Vec3{0, 0, 10},
		up:         common.Vec3{0, 1, 0},
		projection: ProjectionPerspective,
		fov:        45.0 * (math.Pi / 180.0),
		aspect:     1.0,
		near:       0.1,
		far:        100.0,
		bindGroupProvider: bind_group_provider.NewBindGroupProvider(
			"camera_" + strconv.FormatUint(cameraCount.Add(1), 10),
		),
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Position() common.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) Target() common.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *cameraImpl) Up() common.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *cameraImpl) Projection() Projection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projection
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) GPUUniform() GPUCameraUniform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return GPUCameraUniform{
		ViewProj: c.viewProjectionMatrix,
		Position: c.position,
	}
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) BindGroupProvider() bind_group_provider.BindGroupProvider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bindGroupProvider
}

func (c *cameraImpl) Update(dt float32, in Input) {
	c.mu.Lock()
	ctrl := c.controller
	c.mu.Unlock()
	if ctrl == nil || in == nil {
		return
	}
	// The controller calls back into SetView, so the lock must not be held here.
	ctrl.Update(c, in, dt)
}

func (c *cameraImpl) SetView(position, target common.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = position
	c.target = target
	c.updateMatrices()
}

func (c *cameraImpl) SetPosition(position common.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = position
	c.updateMatrices()
}

func (c *cameraImpl) SetTarget(target common.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = target
	c.updateMatrices()
}

func (c *cameraImpl) SetUp(up common.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.up = up
	c.updateMatrices()
}

func (c *cameraImpl) SetProjection(p Projection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projection = p
	c.updateMatrices()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.updateMatrices()
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
	c.updateMatrices()
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
}

// updateMatrices recomputes view, projection and view-projection. Caller holds c.mu.
func (c *cameraImpl) updateMatrices() {
	common.LookAt(c.viewMatrix[:], c.position, c.target, c.up)

	aspect := c.aspect
	if aspect <= 0 {
		aspect = 1
	}
	switch c.projection {
	case ProjectionOrthographic:
		top := c.fov / 2
		right := top * aspect
		common.Orthographic(c.projectionMatrix[:], -right, right, -top, top, c.near, c.far)
	default:
		common.Perspective(c.projectionMatrix[:], c.fov, aspect, c.near, c.far)
	}

	common.Mul4(c.viewProjectionMatrix[:], c.projectionMatrix[:], c.viewMatrix[:])
}
