package shaders

import (
	"testing"

	"github.com/Carmen-Shannon/pcss-go/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/pcss-go/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, key string, st shader.ShaderType, path string) shader.Shader {
	t.Helper()
	s, err := shader.NewShader(key, st, FS, path)
	require.NoError(t, err)
	return s
}

func TestShadowDepthShader(t *testing.T) {
	s := load(t, "shadow_depth", shader.ShaderTypeVertex, ShadowDepthPath)
	assert.Equal(t, "vs_shadow", s.EntryPoint())
	assert.NotContains(t, s.Source(), "@pcss:")

	layouts := s.VertexLayouts()
	require.Len(t, layouts, 1)
	assert.Equal(t, uint64(32), layouts[0][0].ArrayStride)

	shadow := s.BindGroupLayoutDescriptor(0)
	require.Len(t, shadow.Entries, 1)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, shadow.Entries[0].Buffer.Type)
	assert.Equal(t, uint64(64), shadow.Entries[0].Buffer.MinBindingSize)

	inst := s.BindGroupLayoutDescriptor(1)
	require.Len(t, inst.Entries, 1)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, inst.Entries[0].Buffer.Type)
	assert.Equal(t, uint64(80), inst.Entries[0].Buffer.MinBindingSize)
}

func TestLitShaders(t *testing.T) {
	vs := load(t, "pcss_lit_vert", shader.ShaderTypeVertex, LitVertexPath)
	fs := load(t, "pcss_lit_frag", shader.ShaderTypeFragment, LitFragmentPath)

	assert.Equal(t, "vs_main", vs.EntryPoint())
	assert.Equal(t, "fs_main", fs.EntryPoint())
	assert.Empty(t, fs.VertexLayouts())
	assert.Empty(t, fs.BindGroupLayoutDescriptor(0).Entries, "diffuse lighting needs no camera")
	assert.NotContains(t, fs.Source(), "reflect(")

	light := fs.BindGroupLayoutDescriptor(2)
	require.Len(t, light.Entries, 3)
	assert.Equal(t, uint64(144), light.Entries[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.TextureSampleTypeDepth, light.Entries[1].Texture.SampleType)
	assert.Equal(t, wgpu.SamplerBindingTypeComparison, light.Entries[2].Sampler.Type)

	_, ok := shader.FindDeclaration(fs.Declarations(), shader.AnnotationArgLight, shader.AnnotationArgShadowMap)
	assert.True(t, ok)
	_, ok = shader.FindDeclaration(fs.Declarations(), shader.AnnotationArgLight, shader.AnnotationArgShadowSampler)
	assert.True(t, ok)
}

func TestLitPipelineLayouts(t *testing.T) {
	vs := load(t, "pcss_lit_vert", shader.ShaderTypeVertex, LitVertexPath)
	fs := load(t, "pcss_lit_frag", shader.ShaderTypeFragment, LitFragmentPath)
	depth := load(t, "shadow_depth", shader.ShaderTypeVertex, ShadowDepthPath)

	lit := pipeline.NewPipeline("pcss_lit", pipeline.PipelineTypeRender,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
	)
	shadow := pipeline.NewPipeline("pcss_shadow", pipeline.PipelineTypeShadow,
		pipeline.WithVertexShader(depth),
	)

	descs := lit.BindGroupLayoutDescriptors()
	require.Len(t, descs, 3)
	cam := descs[0]
	require.Len(t, cam.Entries, 1)
	assert.Equal(t, wgpu.ShaderStageVertex, cam.Entries[0].Visibility)

	// both passes bind the same instance buffer at group 1
	assert.Equal(t, lit.BindGroupLayoutDescriptor(1).Entries, shadow.BindGroupLayoutDescriptor(1).Entries)
}
