package light

import (
	"errors"
	"sync"

	"github.com/Carmen-Shannon/pcss-go/common"
)

// ErrZeroDirection is returned when a light direction has no length.
var ErrZeroDirection = errors.New("light: direction must be non-zero")

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	mu        *sync.Mutex
	direction common.Vec3
	color     common.Color
	ambient   common.Vec4
}

// Light is a directional light. It has no position, only a direction, and lights
// every fragment with the same intensity.
type Light interface {
	// Direction returns the normalized direction the light travels in.
	//
	// Returns:
	//   - common.Vec3: normalized direction
	Direction() common.Vec3

	// Color returns the light color.
	//
	// Returns:
	//   - common.Color: the RGBA8 color
	Color() common.Color

	// Ambient returns the ambient term added to every lit fragment.
	//
	// Returns:
	//   - common.Vec4: ambient color as (r, g, b, a)
	Ambient() common.Vec4

	// SetDirection normalizes and stores a new direction.
	//
	// Parameters:
	//   - dir: the new direction, any non-zero length
	//
	// Returns:
	//   - error: ErrZeroDirection if dir has no length
	SetDirection(dir common.Vec3) error

	// SetColor sets the light color.
	//
	// Parameters:
	//   - c: the new color
	SetColor(c common.Color)

	// SetAmbient sets the ambient term.
	//
	// Parameters:
	//   - ambient: ambient color as (r, g, b, a)
	SetAmbient(ambient common.Vec4)
}

var _ Light = &lightImpl{}

// NewLight creates a directional light.
// Defaults: direction normalize(0,-1,-1), white, ambient 0.1.
//
// Parameters:
//   - options: variadic list of LightBuilderOption functions
//
// Returns:
//   - Light: the new light
//   - error: ErrZeroDirection if an option supplied a zero direction
func NewLight(options ...LightBuilderOption) (Light, error) {
	l := &lightImpl{
		mu:        &sync.Mutex{},
		direction: common.Normalize3(common.Vec3{0, -1, -1}),
		color:     common.White,
		ambient:   common.Vec4{0.1, 0.1, 0.1, 1},
	}
	for _, option := range options {
		option(l)
	}
	if common.Length3(l.direction) == 0 {
		return nil, ErrZeroDirection
	}
	l.direction = common.Normalize3(l.direction)
	return l, nil
}

func (l *lightImpl) Direction() common.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.direction
}

func (l *lightImpl) Color() common.Color {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.color
}

func (l *lightImpl) Ambient() common.Vec4 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ambient
}

func (l *lightImpl) SetDirection(dir common.Vec3) error {
	if common.Length3(dir) == 0 {
		return ErrZeroDirection
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.direction = common.Normalize3(dir)
	return nil
}

func (l *lightImpl) SetColor(c common.Color) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = c
}

func (l *lightImpl) SetAmbient(ambient common.Vec4) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ambient = ambient
}
