package light

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/pcss-go/common"
	"github.com/Carmen-Shannon/pcss-go/engine/camera"
)

// DefaultShadowMapResolution is the default width and height in texels of the shadow depth texture.
const DefaultShadowMapResolution = 1024

// DefaultShadowDistance is how far the light camera sits from the origin, against the light direction.
const DefaultShadowDistance float32 = 8.0

// DefaultShadowOrthoHeight is the full height in world units of the light camera's orthographic view.
const DefaultShadowOrthoHeight float32 = 20.0

// DefaultShadowNear is the default near plane of the light camera.
const DefaultShadowNear float32 = 0.01

// DefaultShadowFar is the default far plane of the light camera.
const DefaultShadowFar float32 = 1000.0

// DefaultLightSize is the default width of the area light in world units. Larger
// lights produce wider penumbrae.
const DefaultLightSize float32 = 0.5

// DefaultBlockerSearchSamples is the default number of taps in the blocker search.
const DefaultBlockerSearchSamples = 16

// DefaultPCFSamples is the default number of filtered comparison taps.
const DefaultPCFSamples = 32

// DefaultShadowBias is the constant depth bias subtracted from the receiver depth
// before comparison, to reduce shadow acne.
const DefaultShadowBias float32 = 0.0005

// DefaultFrustumWidth is the default width the light size is divided by: half the
// 45 degree field of view of the viewer camera, as the demo has always used.
const DefaultFrustumWidth float32 = 22.5

// MaxShadowSamples bounds both sample counts. The Poisson disks in the lit shader hold this many points.
const MaxShadowSamples = 64

// ShadowTuning holds the soft shadow parameters that may change while the demo runs.
type ShadowTuning struct {
	LightSize            float32
	BlockerSearchSamples int
	PCFSamples           int
	Bias                 float32
	// FrustumWidth is the world-space width the light size is measured against.
	// Zero means half of the light camera's orthographic height.
	FrustumWidth float32
}

// DefaultShadowTuning returns the default soft shadow parameters.
//
// Returns:
//   - ShadowTuning: the defaults
func DefaultShadowTuning() ShadowTuning {
	return ShadowTuning{
		LightSize:            DefaultLightSize,
		BlockerSearchSamples: DefaultBlockerSearchSamples,
		PCFSamples:           DefaultPCFSamples,
		Bias:                 DefaultShadowBias,
		FrustumWidth:         DefaultFrustumWidth,
	}
}

// Validate reports the first out of range parameter.
//
// Returns:
//   - error: nil if the tuning is usable
func (t ShadowTuning) Validate() error {
	if t.LightSize < 0 {
		return fmt.Errorf("light: light size must not be negative, got %v", t.LightSize)
	}
	if t.BlockerSearchSamples < 1 || t.BlockerSearchSamples > MaxShadowSamples {
		return fmt.Errorf("light: blocker search samples must be in [1, %d], got %d", MaxShadowSamples, t.BlockerSearchSamples)
	}
	if t.PCFSamples < 1 || t.PCFSamples > MaxShadowSamples {
		return fmt.Errorf("light: pcf samples must be in [1, %d], got %d", MaxShadowSamples, t.PCFSamples)
	}
	if t.FrustumWidth < 0 {
		return fmt.Errorf("light: frustum width must not be negative, got %v", t.FrustumWidth)
	}
	return nil
}

// shadowCasterImpl is the implementation of the ShadowCaster interface.
type shadowCasterImpl struct {
	mu          *sync.Mutex
	light       Light
	cam         camera.Camera
	distance    float32
	orthoHeight float32
	near        float32
	far         float32
	resolution  int
	tuning      ShadowTuning
}

// ShadowCaster places an orthographic camera at the light and produces the uniforms
// both render passes read. The light camera sits at direction * -distance and looks
// at the origin.
type ShadowCaster interface {
	// Light returns the light this caster follows.
	//
	// Returns:
	//   - Light: the directional light
	Light() Light

	// Camera returns the orthographic light camera.
	//
	// Returns:
	//   - camera.Camera: the light camera
	Camera() camera.Camera

	// Resolution returns the shadow map width and height in texels.
	//
	// Returns:
	//   - int: texels per side
	Resolution() int

	// Tuning returns the current soft shadow parameters.
	//
	// Returns:
	//   - ShadowTuning: the parameters
	Tuning() ShadowTuning

	// SetTuning replaces the soft shadow parameters. Invalid parameters are rejected
	// and the previous ones kept.
	//
	// Parameters:
	//   - tuning: the new parameters
	//
	// Returns:
	//   - error: the validation error, if any
	SetTuning(tuning ShadowTuning) error

	// FrustumWidth returns the world-space width the light size is divided by to get a UV
	// radius: the tuning's FrustumWidth, or half the ortho height when that is zero.
	//
	// Returns:
	//   - float32: width in world units
	FrustumWidth() float32

	// Update re-aims the light camera along the light's current direction.
	Update()

	// LightViewProjection returns the light-space matrix shared by both passes.
	//
	// Returns:
	//   - [16]float32: column-major view-projection
	LightViewProjection() [16]float32

	// GPULightUniform builds the lit pass light uniform.
	//
	// Returns:
	//   - GPULightUniform: the uniform ready to marshal
	GPULightUniform() GPULightUniform

	// GPUShadowUniform builds the depth pass uniform.
	//
	// Returns:
	//   - GPUShadowUniform: the uniform ready to marshal
	GPUShadowUniform() GPUShadowUniform
}

var _ ShadowCaster = &shadowCasterImpl{}

// NewShadowCaster creates a shadow caster for l.
//
// Parameters:
//   - l: the directional light
//   - options: variadic list of ShadowCasterOption functions
//
// Returns:
//   - ShadowCaster: the caster, with its light camera already aimed
//   - error: if the resolution, clip planes or tuning are invalid
func NewShadowCaster(l Light, options ...ShadowCasterOption) (ShadowCaster, error) {
	if l == nil {
		return nil, errors.New("light: shadow caster needs a light")
	}
	s := &shadowCasterImpl{
		mu:          &sync.Mutex{},
		light:       l,
		distance:    DefaultShadowDistance,
		orthoHeight: DefaultShadowOrthoHeight,
		near:        DefaultShadowNear,
		far:         DefaultShadowFar,
		resolution:  DefaultShadowMapResolution,
		tuning:      DefaultShadowTuning(),
	}
	for _, option := range options {
		option(s)
	}
	if s.resolution <= 0 {
		return nil, fmt.Errorf("light: shadow map resolution must be positive, got %d", s.resolution)
	}
	if s.near <= 0 || s.far <= s.near {
		return nil, fmt.Errorf("light: invalid clip planes near=%v far=%v", s.near, s.far)
	}
	if s.orthoHeight <= 0 {
		return nil, fmt.Errorf("light: ortho height must be positive, got %v", s.orthoHeight)
	}
	if err := s.tuning.Validate(); err != nil {
		return nil, err
	}

	s.cam = camera.NewCamera(
		camera.WithProjection(camera.ProjectionOrthographic),
		camera.WithFov(s.orthoHeight),
		camera.WithAspect(1),
		camera.WithNear(s.near),
		camera.WithFar(s.far),
	)
	s.Update()
	return s, nil
}

func (s *shadowCasterImpl) Light() Light {
	return s.light
}

func (s *shadowCasterImpl) Camera() camera.Camera {
	return s.cam
}

func (s *shadowCasterImpl) Resolution() int {
	return s.resolution
}

func (s *shadowCasterImpl) Tuning() ShadowTuning {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tuning
}

func (s *shadowCasterImpl) SetTuning(tuning ShadowTuning) error {
	if err := tuning.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tuning = tuning
	return nil
}

func (s *shadowCasterImpl) FrustumWidth() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frustumWidth()
}

func (s *shadowCasterImpl) frustumWidth() float32 {
	return common.Coalesce(s.tuning.FrustumWidth, s.orthoHeight/2)
}

func (s *shadowCasterImpl) Update() {
	dir := s.light.Direction()
	s.cam.SetView(common.Scale3(dir, -s.distance), common.Vec3{})
}

func (s *shadowCasterImpl) LightViewProjection() [16]float32 {
	return s.cam.ViewProjectionMatrix()
}

func (s *shadowCasterImpl) GPULightUniform() GPULightUniform {
	s.mu.Lock()
	tuning := s.tuning
	width := s.frustumWidth()
	s.mu.Unlock()

	return GPULightUniform{
		LightVP:        s.cam.ViewProjectionMatrix(),
		Direction:      s.light.Direction(),
		FrustumWidth:   width,
		Color:          s.light.Color().Vec4(),
		Ambient:        s.light.Ambient(),
		Resolution:     int32(s.resolution),
		LightSize:      tuning.LightSize,
		Bias:           tuning.Bias,
		BlockerSamples: uint32(tuning.BlockerSearchSamples),
		PCFSamples:     uint32(tuning.PCFSamples),
	}
}

func (s *shadowCasterImpl) GPUShadowUniform() GPUShadowUniform {
	return GPUShadowUniform{LightVP: s.cam.ViewProjectionMatrix()}
}
