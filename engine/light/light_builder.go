package light

import "github.com/Carmen-Shannon/pcss-go/common"

// LightBuilderOption is a function that configures a Light instance during construction.
type LightBuilderOption func(*lightImpl)

// WithDirection is an option builder that sets the direction of the light.
// The direction is normalized by NewLight; a zero vector makes NewLight fail.
//
// Parameters:
//   - dir: the light direction
//
// Returns:
//   - LightBuilderOption: a function that applies the direction option to a lightImpl
func WithDirection(dir common.Vec3) LightBuilderOption {
	return func(l *lightImpl) {
		l.direction = dir
	}
}

// WithColor is an option builder that sets the color of the light.
//
// Parameters:
//   - c: the light color
//
// Returns:
//   - LightBuilderOption: a function that applies the color option to a lightImpl
func WithColor(c common.Color) LightBuilderOption {
	return func(l *lightImpl) {
		l.color = c
	}
}

// WithAmbient is an option builder that sets the ambient term.
func WithAmbient(ambient common.Vec4) LightBuilderOption {
	return func(l *lightImpl) {
		l.ambient = ambient
	}
}

// ShadowCasterOption configures a ShadowCaster during construction.
type ShadowCasterOption func(*shadowCasterImpl)

// WithDistance sets how far from the origin the light camera sits, against the light direction.
//
// Parameters:
//   - distance: world units from the origin
//
// Returns:
//   - ShadowCasterOption: a function that sets the distance
func WithDistance(distance float32) ShadowCasterOption {
	return func(s *shadowCasterImpl) {
		s.distance = distance
	}
}

// WithOrthoHeight sets the full height in world units of the light camera's orthographic view.
//
// Parameters:
//   - height: view height in world units
//
// Returns:
//   - ShadowCasterOption: a function that sets the view height
func WithOrthoHeight(height float32) ShadowCasterOption {
	return func(s *shadowCasterImpl) {
		s.orthoHeight = height
	}
}

// WithClipPlanes sets the light camera's near and far planes.
func WithClipPlanes(near, far float32) ShadowCasterOption {
	return func(s *shadowCasterImpl) {
		s.near = near
		s.far = far
	}
}

// WithResolution sets the shadow map width and height in texels.
//
// Parameters:
//   - resolution: texels per side
//
// Returns:
//   - ShadowCasterOption: a function that sets the resolution
func WithResolution(resolution int) ShadowCasterOption {
	return func(s *shadowCasterImpl) {
		s.resolution = resolution
	}
}

// WithTuning sets the initial PCSS tunables. Invalid tunables make NewShadowCaster fail.
//
// Parameters:
//   - tuning: the soft shadow parameters
//
// Returns:
//   - ShadowCasterOption: a function that sets the tunables
func WithTuning(tuning ShadowTuning) ShadowCasterOption {
	return func(s *shadowCasterImpl) {
		s.tuning = tuning
	}
}
