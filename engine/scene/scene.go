package scene

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/pcss-go/engine/camera"
	"github.com/Carmen-Shannon/pcss-go/engine/light"
	"github.com/Carmen-Shannon/pcss-go/engine/model"
	"github.com/Carmen-Shannon/pcss-go/engine/renderer"
	"github.com/Carmen-Shannon/pcss-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/pcss-go/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/pcss-go/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

const (
	// ShadowPipelineKey is the renderer cache key of the depth-only light pass.
	ShadowPipelineKey = "pcss_shadow_depth"

	// LitPipelineKey is the renderer cache key of the multisampled camera pass.
	LitPipelineKey = "pcss_lit"

	// instancesPerTask is how many instance matrices one worker task builds.
	instancesPerTask = 64

	// minInstanceCapacity is the smallest instance storage buffer, in instances.
	minInstanceCapacity = 16
)

var instanceStride = (&model.GPUInstance{}).Size()

// Scene draws one mesh many times with a directional light casting percentage-closer soft
// shadows. Each frame renders the draw list from the light into a shadow map, then from
// the camera sampling that map.
//
// Call order: NewScene, InitShadowMap, InitLighting, then per frame PrepareFrame,
// PrepareShadows and, between the renderer's BeginFrame and EndFrame, DrawCalls.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Camera returns the viewer camera.
	Camera() camera.Camera

	// Renderer returns the scene's renderer.
	Renderer() renderer.Renderer

	// ShadowCaster returns the light camera and shadow parameters.
	ShadowCaster() light.ShadowCaster

	// Model returns the mesh every instance draws.
	Model() model.Model

	// Add appends an instance to the draw list. The instance buffer is rebuilt on the next PrepareFrame.
	//
	// Parameters:
	//   - inst: the instance to draw
	Add(inst Instance)

	// Instances returns a copy of the draw list in draw order.
	//
	// Returns:
	//   - []Instance: the instances
	Instances() []Instance

	// Count returns the number of instances in the draw list.
	Count() int

	// InitShadowMap creates the Depth32Float shadow map at the caster's resolution, its
	// comparison sampler, the depth pass uniform and the depth-only shadow pipeline.
	//
	// Parameters:
	//   - shadowVertexShader: the depth pass vertex shader
	//
	// Returns:
	//   - error: an error if any GPU resource could not be created
	InitShadowMap(shadowVertexShader shader.Shader) error

	// InitLighting registers the lit pipeline and binds the camera uniform, the light
	// uniform, the shadow map and the comparison sampler. InitShadowMap must succeed first.
	//
	// Parameters:
	//   - litVertexShader: the lit pass vertex shader
	//   - litFragmentShader: the PCSS fragment shader
	//
	// Returns:
	//   - error: an error if the pipeline or a bind group could not be created
	InitLighting(litVertexShader, litFragmentShader shader.Shader) error

	// PrepareFrame moves the camera from input, re-aims the light camera and uploads the
	// camera, light, shadow and, when the draw list changed, instance data.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last frame in seconds
	PrepareFrame(deltaTime float32)

	// PrepareShadows renders the draw list from the light into the shadow map, cleared to 1.0.
	//
	// Returns:
	//   - error: an error if the shadow map is not initialized or the shadow frame could not begin
	PrepareShadows() error

	// DrawCalls draws the draw list with the lit pipeline. Must be called within a
	// BeginFrame/EndFrame block on the renderer.
	//
	// Returns:
	//   - error: an error if lighting is not initialized or a bind group is missing
	DrawCalls() error

	// SetShadowTuning replaces the soft shadow parameters used from the next frame on.
	//
	// Parameters:
	//   - tuning: the new parameters
	//
	// Returns:
	//   - error: the validation error; the previous parameters stay in effect
	SetShadowTuning(tuning light.ShadowTuning) error

	// ShadowDepthTextureView returns the shadow map view, or nil before InitShadowMap.
	ShadowDepthTextureView() *wgpu.TextureView

	// Release frees the mesh, the shadow map, the sampler and every uniform and instance buffer.
	Release()
}

type scene struct {
	mu     *sync.RWMutex
	logger *zap.Logger

	name   string
	cam    camera.Camera
	r      renderer.Renderer
	caster light.ShadowCaster
	mdl    model.Model
	input  camera.Input

	instances        []Instance
	instancesDirty   bool
	instanceBytes    []byte
	instanceCapacity int
	instanceLayout   *wgpu.BindGroupLayoutDescriptor
	instancesBGP     bind_group_provider.BindGroupProvider

	shadowDepthTexture     *wgpu.Texture
	shadowDepthTextureView *wgpu.TextureView
	shadowSampler          *wgpu.Sampler
	shadowBGP              bind_group_provider.BindGroupProvider
	shadowDepthBias        int32
	shadowSlopeScale       float32

	lightBGP  bind_group_provider.BindGroupProvider
	litReady  bool
	cameraBGP bind_group_provider.BindGroupProvider

	// reused each frame
	writePool          []bind_group_provider.BufferWrite
	drawBindGroupsPool []bind_group_provider.BindGroupProvider

	// instancePool builds instance matrices in parallel. Workers persist across frames.
	instancePool    worker.DynamicWorkerPool
	instanceWorkers int
}

var _ Scene = &scene{}

// NewScene creates a scene and uploads the model's mesh. The camera, renderer, shadow
// caster and model are required.
//
// Parameters:
//   - name: the name of the scene, used to label GPU objects
//   - cam: the viewer camera
//   - r: the renderer
//   - caster: the light camera and shadow parameters
//   - mdl: the mesh drawn by every instance
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
//   - error: an error if a required argument is nil or the mesh upload fails
func NewScene(name string, cam camera.Camera, r renderer.Renderer, caster light.ShadowCaster, mdl model.Model, options ...SceneBuilderOption) (Scene, error) {
	switch {
	case cam == nil:
		return nil, errors.New("scene: NewScene requires a non-nil Camera")
	case r == nil:
		return nil, errors.New("scene: NewScene requires a non-nil Renderer")
	case caster == nil:
		return nil, errors.New("scene: NewScene requires a non-nil ShadowCaster")
	case mdl == nil:
		return nil, errors.New("scene: NewScene requires a non-nil Model")
	}

	s := &scene{
		mu:                 &sync.RWMutex{},
		logger:             zap.NewNop(),
		name:               name,
		cam:                cam,
		r:                  r,
		caster:             caster,
		mdl:                mdl,
		instanceWorkers:    max(runtime.NumCPU()-1, 1),
		shadowDepthBias:    2,
		shadowSlopeScale:   2.0,
		drawBindGroupsPool: make([]bind_group_provider.BindGroupProvider, 0, 3),
	}
	for _, option := range options {
		option(s)
	}
	s.instancesDirty = len(s.instances) > 0

	// Queue size of 256 leaves headroom for large draw lists split into instancesPerTask chunks.
	s.instancePool = worker.NewDynamicWorkerPool(s.instanceWorkers, 256, 1*time.Second)

	if err := r.InitMeshBuffers(mdl.MeshProvider(), mdl.VertexData(), mdl.IndexData(), mdl.IndexCount()); err != nil {
		return nil, fmt.Errorf("scene: upload mesh %q: %w", mdl.Name(), err)
	}
	return s, nil
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Camera() camera.Camera {
	return s.cam
}

func (s *scene) Renderer() renderer.Renderer {
	return s.r
}

func (s *scene) ShadowCaster() light.ShadowCaster {
	return s.caster
}

func (s *scene) Model() model.Model {
	return s.mdl
}

func (s *scene) Add(inst Instance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances = append(s.instances, inst)
	s.instancesDirty = true
}

func (s *scene) Instances() []Instance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Instance, len(s.instances))
	copy(out, s.instances)
	return out
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.instances)
}

func (s *scene) ShadowDepthTextureView() *wgpu.TextureView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shadowDepthTextureView
}

func (s *scene) InitShadowMap(shadowVertexShader shader.Shader) error {
	if err := s.initShadowMap(shadowVertexShader); err != nil {
		s.logger.Warn("shadow map can not be created",
			zap.String("scene", s.name),
			zap.Int("resolution", s.caster.Resolution()),
			zap.Error(err),
		)
		return err
	}
	s.logger.Info("shadow map created",
		zap.String("scene", s.name),
		zap.String("texture", s.name+"_shadow_map"),
		zap.Int("resolution", s.caster.Resolution()),
	)
	return nil
}

func (s *scene) initShadowMap(shadowVertexShader shader.Shader) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if shadowVertexShader == nil {
		return errors.New("scene: shadow vertex shader is nil")
	}
	if s.shadowBGP != nil {
		return errors.New("scene: shadow map already created")
	}

	res := s.caster.Resolution()
	view, tex, err := s.r.CreateShadowDepthTexture(res, res)
	if err != nil {
		return err
	}
	samp, err := s.r.CreateComparisonSampler()
	if err != nil {
		releaseDepthTarget(view, tex)
		return err
	}
	bgp := bind_group_provider.NewBindGroupProvider(s.name + "_shadow")
	fail := func(err error) error {
		bgp.Release()
		if samp != nil {
			samp.Release()
		}
		releaseDepthTarget(view, tex)
		return err
	}

	sp := pipeline.NewPipeline(ShadowPipelineKey, pipeline.PipelineTypeShadow,
		pipeline.WithVertexShader(shadowVertexShader),
		pipeline.WithDepthBias(s.shadowDepthBias, s.shadowSlopeScale),
	)
	if err := s.r.RegisterPipelines(sp); err != nil {
		return fail(err)
	}

	decl, ok := shader.FindDeclaration(shadowVertexShader.Declarations(), shader.AnnotationArgShadowUniform, "")
	if !ok {
		return fail(fmt.Errorf("scene: %s declares no shadow_uniform binding", shadowVertexShader.Key()))
	}
	if err := s.r.InitBindGroup(bgp, sp.BindGroupLayoutDescriptor(*decl.Group), nil, nil); err != nil {
		return fail(fmt.Errorf("scene: init shadow uniform bind group: %w", err))
	}
	if err := s.setInstanceLayout(sp, shadowVertexShader); err != nil {
		return fail(err)
	}

	s.shadowDepthTexture = tex
	s.shadowDepthTextureView = view
	s.shadowSampler = samp
	s.shadowBGP = bgp
	return nil
}

func releaseDepthTarget(view *wgpu.TextureView, tex *wgpu.Texture) {
	if view != nil {
		view.Release()
	}
	if tex != nil {
		tex.Release()
	}
}

// setInstanceLayout records the instance storage layout from the first pipeline that
// declares it. Both passes bind the same provider, so their layouts must match. Caller holds s.mu.
func (s *scene) setInstanceLayout(p pipeline.Pipeline, vertexShader shader.Shader) error {
	decl, ok := shader.FindDeclaration(vertexShader.Declarations(), shader.AnnotationArgInstance, "")
	if !ok {
		return fmt.Errorf("scene: %s declares no instance storage binding", vertexShader.Key())
	}
	desc := p.BindGroupLayoutDescriptor(*decl.Group)
	if s.instanceLayout == nil {
		s.instanceLayout = &desc
		s.instancesDirty = true
	}
	return nil
}

func (s *scene) InitLighting(litVertexShader, litFragmentShader shader.Shader) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if litVertexShader == nil || litFragmentShader == nil {
		return errors.New("scene: lit shaders must not be nil")
	}
	if s.shadowBGP == nil {
		return errors.New("scene: InitShadowMap must succeed before InitLighting")
	}

	lp := pipeline.NewPipeline(LitPipelineKey, pipeline.PipelineTypeRender,
		pipeline.WithVertexShader(litVertexShader),
		pipeline.WithFragmentShader(litFragmentShader),
	)
	if err := s.r.RegisterPipelines(lp); err != nil {
		return err
	}

	decls := slices.Concat(litVertexShader.Declarations(), litFragmentShader.Declarations())

	// camera uniform, visible to both stages through the merged layout
	camDecl, ok := shader.FindDeclaration(decls, shader.AnnotationArgCamera, "")
	if !ok {
		return errors.New("scene: lit shaders declare no camera binding")
	}
	camBGP := s.cam.BindGroupProvider()
	if err := s.r.InitBindGroup(camBGP, lp.BindGroupLayoutDescriptor(*camDecl.Group), nil, nil); err != nil {
		return fmt.Errorf("scene: init camera bind group: %w", err)
	}
	s.cameraBGP = camBGP

	lightDecl, ok := shader.FindDeclaration(litFragmentShader.Declarations(), shader.AnnotationArgLight, "")
	if !ok {
		return errors.New("scene: lit fragment shader declares no light binding")
	}
	lightBGP := bind_group_provider.NewBindGroupProvider(s.name + "_light")
	if d, ok := shader.FindDeclaration(litFragmentShader.Declarations(), shader.AnnotationArgLight, shader.AnnotationArgShadowMap); ok {
		lightBGP.BorrowTextureView(*d.Binding, s.shadowDepthTextureView)
	}
	if d, ok := shader.FindDeclaration(litFragmentShader.Declarations(), shader.AnnotationArgLight, shader.AnnotationArgShadowSampler); ok {
		lightBGP.BorrowSampler(*d.Binding, s.shadowSampler)
	}
	if err := s.r.InitBindGroup(lightBGP, lp.BindGroupLayoutDescriptor(*lightDecl.Group), nil, nil); err != nil {
		return fmt.Errorf("scene: init light bind group: %w", err)
	}
	s.lightBGP = lightBGP

	if err := s.setInstanceLayout(lp, litVertexShader); err != nil {
		return err
	}
	s.litReady = true
	return nil
}

func (s *scene) SetShadowTuning(tuning light.ShadowTuning) error {
	if err := s.caster.SetTuning(tuning); err != nil {
		s.logger.Warn("shadow tuning rejected", zap.String("scene", s.name), zap.Error(err))
		return err
	}
	s.logger.Info("shadow tuning updated",
		zap.String("scene", s.name),
		zap.Float32("light_size", tuning.LightSize),
		zap.Int("blocker_samples", tuning.BlockerSearchSamples),
		zap.Int("pcf_samples", tuning.PCFSamples),
		zap.Float32("bias", tuning.Bias),
	)
	return nil
}

func (s *scene) PrepareFrame(deltaTime float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cam.Update(deltaTime, s.input)
	s.caster.Update()

	writes := s.writePool[:0]
	if s.cameraBGP != nil {
		u := s.cam.GPUUniform()
		writes = append(writes, bind_group_provider.BufferWrite{Provider: s.cameraBGP, Binding: 0, Data: u.Marshal()})
	}
	if s.lightBGP != nil {
		u := s.caster.GPULightUniform()
		writes = append(writes, bind_group_provider.BufferWrite{Provider: s.lightBGP, Binding: 0, Data: u.Marshal()})
	}
	if s.shadowBGP != nil {
		u := s.caster.GPUShadowUniform()
		writes = append(writes, bind_group_provider.BufferWrite{Provider: s.shadowBGP, Binding: 0, Data: u.Marshal()})
	}

	if s.instancesDirty && s.instanceLayout != nil && len(s.instances) > 0 {
		if err := s.ensureInstanceCapacity(len(s.instances)); err != nil {
			s.logger.Error("instance buffer resize failed", zap.String("scene", s.name), zap.Error(err))
		} else {
			s.instanceBytes = s.buildInstanceData(s.instanceBytes)
			writes = append(writes, bind_group_provider.BufferWrite{Provider: s.instancesBGP, Binding: 0, Data: s.instanceBytes})
			s.instancesDirty = false
		}
	}

	s.writePool = writes
	if len(writes) > 0 {
		s.r.WriteBuffers(writes)
	}
}

// ensureInstanceCapacity recreates the instance storage buffer when n instances no
// longer fit, at least doubling its capacity. Caller holds s.mu.
func (s *scene) ensureInstanceCapacity(n int) error {
	if s.instancesBGP != nil && n <= s.instanceCapacity {
		return nil
	}
	capacity := max(n, 2*s.instanceCapacity, minInstanceCapacity)

	bgp := bind_group_provider.NewBindGroupProvider(s.name + "_instances")
	sizes := map[int]uint64{0: uint64(capacity * instanceStride)}
	if err := s.r.InitBindGroup(bgp, *s.instanceLayout, nil, sizes); err != nil {
		bgp.Release()
		return err
	}
	if s.instancesBGP != nil {
		s.instancesBGP.Release()
	}
	s.instancesBGP = bgp
	s.instanceCapacity = capacity
	s.logger.Debug("instance buffer allocated",
		zap.String("scene", s.name),
		zap.Int("capacity", capacity),
	)
	return nil
}

// buildInstanceData marshals every instance into dst, growing it as needed. Chunks of
// instancesPerTask instances are built concurrently on the instance pool. Caller holds s.mu.
func (s *scene) buildInstanceData(dst []byte) []byte {
	n := len(s.instances)
	size := n * instanceStride
	if cap(dst) < size {
		dst = make([]byte, size)
	}
	dst = dst[:size]

	instances := s.instances
	var wg sync.WaitGroup
	for task, lo := 0, 0; lo < n; task, lo = task+1, lo+instancesPerTask {
		hi := min(lo+instancesPerTask, n)
		wg.Add(1)
		s.instancePool.SubmitTask(worker.Task{
			ID: task,
			Do: func() (any, error) {
				defer wg.Done()
				for i := lo; i < hi; i++ {
					g := instances[i].GPU()
					copy(dst[i*instanceStride:], g.Marshal())
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
	return dst
}

// bindGroupsFor resolves one provider per bind group index of p from its shaders'
// declarations, in group order. Caller holds s.mu.
func (s *scene) bindGroupsFor(p pipeline.Pipeline) ([]bind_group_provider.BindGroupProvider, error) {
	var decls []shader.Annotation
	for _, st := range []shader.ShaderType{shader.ShaderTypeVertex, shader.ShaderTypeFragment} {
		if sh := p.Shader(st); sh != nil {
			decls = append(decls, sh.Declarations()...)
		}
	}

	maxGroup := -1
	groupProviders := make(map[int]bind_group_provider.BindGroupProvider, 3)
	for _, decl := range decls {
		if decl.Group == nil {
			continue
		}
		g := *decl.Group
		maxGroup = max(maxGroup, g)
		if _, exists := groupProviders[g]; exists {
			continue
		}

		var key shader.AnnotationArg
		switch decl.Type {
		case shader.AnnotationTypeBindingGroup:
			typeArg := string(decl.Args[2])
			if stripped, ok := strings.CutPrefix(typeArg, "array<"); ok {
				typeArg = strings.TrimSuffix(stripped, ">")
			}
			key = shader.AnnotationArg(typeArg)
		case shader.AnnotationTypeProvider:
			key = decl.Args[0]
		}

		var provider bind_group_provider.BindGroupProvider
		switch key {
		case shader.AnnotationArgCamera:
			provider = s.cameraBGP
		case shader.AnnotationArgInstance, shader.AnnotationArgInstances:
			provider = s.instancesBGP
		case shader.AnnotationArgLight:
			provider = s.lightBGP
		case shader.AnnotationArgShadowUniform, shader.AnnotationArgShadow:
			provider = s.shadowBGP
		}
		if provider != nil {
			groupProviders[g] = provider
		}
	}

	bindGroups := s.drawBindGroupsPool[:0]
	for g := 0; g <= maxGroup; g++ {
		provider, ok := groupProviders[g]
		if !ok {
			return nil, fmt.Errorf("scene %q: no provider for group %d of pipeline %q", s.name, g, p.PipelineKey())
		}
		bindGroups = append(bindGroups, provider)
	}
	s.drawBindGroupsPool = bindGroups
	return bindGroups, nil
}

func (s *scene) PrepareShadows() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shadowBGP == nil {
		return fmt.Errorf("scene %q: shadow map not initialized", s.name)
	}
	sp := s.r.Pipeline(ShadowPipelineKey)
	if sp == nil {
		return fmt.Errorf("scene %q: shadow pipeline not registered", s.name)
	}

	if err := s.r.BeginShadowFrame(); err != nil {
		return err
	}
	s.r.BeginShadowPass(s.shadowDepthTextureView)

	var drawErr error
	if n := len(s.instances); n > 0 && s.instancesBGP != nil {
		bindGroups, err := s.bindGroupsFor(sp)
		if err == nil {
			err = s.r.ShadowDrawCall(ShadowPipelineKey, s.mdl.MeshProvider(), uint32(n), bindGroups)
		}
		drawErr = err
	}

	s.r.EndShadowPass()
	s.r.EndShadowFrame()
	return drawErr
}

func (s *scene) DrawCalls() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.litReady {
		return fmt.Errorf("scene %q: lighting not initialized", s.name)
	}
	n := len(s.instances)
	if n == 0 || s.instancesBGP == nil {
		return nil
	}

	lp := s.r.Pipeline(LitPipelineKey)
	if lp == nil {
		return fmt.Errorf("scene %q: lit pipeline not registered", s.name)
	}
	bindGroups, err := s.bindGroupsFor(lp)
	if err != nil {
		return err
	}
	if err := s.r.DrawCall(LitPipelineKey, s.mdl.MeshProvider(), uint32(n), bindGroups); err != nil {
		return fmt.Errorf("draw call failed in scene %q: %w", s.name, err)
	}
	return nil
}

func (s *scene) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, bgp := range []bind_group_provider.BindGroupProvider{s.instancesBGP, s.lightBGP, s.shadowBGP, s.cameraBGP} {
		if bgp != nil {
			bgp.Release()
		}
	}
	s.instancesBGP, s.lightBGP, s.shadowBGP, s.cameraBGP = nil, nil, nil, nil
	s.instanceCapacity = 0
	s.litReady = false

	if s.shadowSampler != nil {
		s.shadowSampler.Release()
		s.shadowSampler = nil
	}
	releaseDepthTarget(s.shadowDepthTextureView, s.shadowDepthTexture)
	s.shadowDepthTextureView, s.shadowDepthTexture = nil, nil

	s.mdl.Release()
	s.logger.Debug("scene released", zap.String("scene", s.name))
}
