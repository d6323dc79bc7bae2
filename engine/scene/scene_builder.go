package scene

import (
	"github.com/Carmen-Shannon/pcss-go/engine/camera"
	"go.uber.org/zap"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithInstances seeds the draw list. Instances are drawn in the order given.
//
// Parameters:
//   - instances: the instances to draw
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithInstances(instances ...Instance) SceneBuilderOption {
	return func(s *scene) {
		s.instances = append(s.instances, instances...)
	}
}

// WithInput sets the keyboard and mouse state the camera controller reads in PrepareFrame.
// Without it the camera does not move.
//
// Parameters:
//   - in: the input source, usually the window
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithInput(in camera.Input) SceneBuilderOption {
	return func(s *scene) {
		s.input = in
	}
}

// WithInstanceWorkers sets the number of worker goroutines that build instance matrices.
// Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithInstanceWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.instanceWorkers = n
	}
}

// WithShadowDepthBias sets the rasterizer depth bias of the shadow pass. The constant
// bias is in depth buffer units and the slope scale multiplies the polygon's depth slope.
// Defaults are 2 and 2.0. Must be set before InitShadowMap.
//
// Parameters:
//   - bias: constant depth bias
//   - slopeScale: slope-scaled depth bias
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithShadowDepthBias(bias int32, slopeScale float32) SceneBuilderOption {
	return func(s *scene) {
		s.shadowDepthBias = bias
		s.shadowSlopeScale = slopeScale
	}
}

// WithLogger sets the scene's logger.
func WithLogger(logger *zap.Logger) SceneBuilderOption {
	return func(s *scene) {
		if logger != nil {
			s.logger = logger
		}
	}
}
