package shader

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVertexSource = `//@pcss:include vertex
//@pcss:include camera
//@pcss:include instance
//@pcss:group 0 0 storage_uniform camera camera
//@pcss:group 1 0 storage_read instances array<instance>

struct VertexOutput {
    @builtin(position) clip_position: vec4<f32>,
    @location(0) world_position: vec3<f32>,
};

@vertex
fn vs_main(in: VertexInput, @builtin(instance_index) idx: u32) -> VertexOutput {
    var out: VertexOutput;
    let world = instances[idx].model * vec4<f32>(in.position, 1.0);
    out.clip_position = camera.view_proj * world;
    out.world_position = world.xyz;
    return out;
}
`

const testFragmentSource = `//@pcss:include light
//@pcss:group 2 0 storage_uniform light light
//@pcss:provider 2 1 light shadow_map
@group(2) @binding(1) var shadow_map: texture_depth_2d;
//@pcss:provider 2 2 light shadow_sampler
@group(2) @binding(2) var shadow_sampler: sampler_comparison;

/* block comments are ignored: @group(3) @binding(0) var<uniform> nope: f32; */
@fragment
fn fs_main(@location(0) world_position: vec3<f32>) -> @location(0) vec4<f32> {
    return light.light_color;
}
`

func TestParseAnnotation(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    *Annotation
		wantErr string
	}{
		{name: "plain line", line: "let x = 1.0;"},
		{name: "ordinary comment", line: "// just a comment"},
		{
			name: "include",
			line: "  //@pcss:include camera",
			want: &Annotation{Type: annotationTypeInclude, Args: []AnnotationArg{"camera"}, Line: 3},
		},
		{name: "include unknown type", line: "//@pcss:include teapot", wantErr: "unknown struct type"},
		{name: "group bad binding", line: "//@pcss:group 0 x storage_uniform camera camera", wantErr: "invalid binding"},
		{name: "group bad address space", line: "//@pcss:group 0 0 storage_write camera camera", wantErr: "unknown address space"},
		{name: "group missing args", line: "//@pcss:group 0 0 storage_uniform camera", wantErr: "five arguments"},
		{name: "provider bad role", line: "//@pcss:provider 2 1 light albedo", wantErr: "unknown binding role"},
		{name: "provider bad identity", line: "//@pcss:provider 2 1 sun", wantErr: "unknown provider identity"},
		{name: "unknown kind", line: "//@pcss:define X 1", wantErr: "unknown @pcss annotation type"},
		{name: "empty", line: "//@pcss:", wantErr: "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAnnotation(tt.line, 3)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Contains(t, err.Error(), "line 3")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseGroupAndProviderAnnotations(t *testing.T) {
	a, err := parseAnnotation("//@pcss:group 1 0 storage_read instances array<instance>", 1)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, AnnotationTypeBindingGroup, a.Type)
	assert.Equal(t, 1, *a.Group)
	assert.Equal(t, 0, *a.Binding)
	assert.Equal(t, []AnnotationArg{"storage_read", "instances", "array<instance>"}, a.Args)

	p, err := parseAnnotation("//@pcss:provider 2 2 light shadow_sampler", 7)
	require.NoError(t, err)
	assert.Equal(t, AnnotationTypeProvider, p.Type)
	assert.Equal(t, 2, *p.Group)
	assert.Equal(t, 2, *p.Binding)
	assert.Equal(t, []AnnotationArg{AnnotationArgLight, AnnotationArgShadowSampler}, p.Args)
}

func TestPreProcessorExpandsAnnotations(t *testing.T) {
	pp := NewPreProcessor()
	out, err := pp.Process(testVertexSource)
	require.NoError(t, err)

	assert.Contains(t, out, "struct CameraUniform")
	assert.Contains(t, out, "struct VertexInput")
	assert.Contains(t, out, "@group(0) @binding(0) var<uniform> camera: CameraUniform;")
	assert.Contains(t, out, "@group(1) @binding(0) var<storage, read> instances: array<InstanceData>;")
	assert.NotContains(t, out, "@pcss:")
	assert.Len(t, pp.Declarations(), 2)
}

func TestPreProcessorIncludesOnce(t *testing.T) {
	out, err := NewPreProcessor().Process("//@pcss:include camera\n//@pcss:include camera\n")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "struct CameraUniform"))
}

func TestPreProcessorRejectsGroupBeforeInclude(t *testing.T) {
	_, err := NewPreProcessor().Process("//@pcss:group 0 0 storage_uniform camera camera\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before it is included")
}

func TestPreProcessorResetsDeclarations(t *testing.T) {
	pp := NewPreProcessor()
	_, err := pp.Process(testFragmentSource)
	require.NoError(t, err)
	assert.Len(t, pp.Declarations(), 3)

	_, err = pp.Process("fn main() {}")
	require.NoError(t, err)
	assert.Empty(t, pp.Declarations())
}

func TestNewShaderVertex(t *testing.T) {
	fsys := fstest.MapFS{"lit_vert.wgsl": {Data: []byte(testVertexSource)}}
	s, err := NewShader("lit_vert", ShaderTypeVertex, fsys, "lit_vert.wgsl")
	require.NoError(t, err)

	assert.Equal(t, "lit_vert", s.Key())
	assert.Equal(t, "vs_main", s.EntryPoint())
	assert.Equal(t, ShaderTypeVertex, s.ShaderType())
	assert.Equal(t, "lit_vert", s.Module().Label)
	assert.Equal(t, s.Source(), s.Module().WGSLDescriptor.Code)

	layouts := s.VertexLayouts()
	require.Len(t, layouts, 1)
	vl := layouts[0][0]
	assert.Equal(t, uint64(32), vl.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeVertex, vl.StepMode)
	require.Len(t, vl.Attributes, 3)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, vl.Attributes[0].Format)
	assert.Equal(t, uint64(12), vl.Attributes[1].Offset)
	assert.Equal(t, wgpu.VertexFormatFloat32x2, vl.Attributes[2].Format)
	assert.Equal(t, uint64(24), vl.Attributes[2].Offset)
	assert.Equal(t, uint32(2), vl.Attributes[2].ShaderLocation)

	cam := s.BindGroupLayoutDescriptor(0)
	require.Len(t, cam.Entries, 1)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, cam.Entries[0].Buffer.Type)
	assert.Equal(t, uint64(80), cam.Entries[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.ShaderStageVertex, cam.Entries[0].Visibility)

	inst := s.BindGroupLayoutDescriptor(1)
	require.Len(t, inst.Entries, 1)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, inst.Entries[0].Buffer.Type)
	// a runtime-sized array reports one element
	assert.Equal(t, uint64(80), inst.Entries[0].Buffer.MinBindingSize)

	assert.Equal(t, "instances", s.BindGroupVarName(1, 0))
	binding, ok := s.BindGroupFromVarName(0, "camera")
	assert.True(t, ok)
	assert.Equal(t, 0, binding)
	_, ok = s.BindGroupFromVarName(0, "missing")
	assert.False(t, ok)
}

func TestNewShaderFragment(t *testing.T) {
	s, err := NewShaderFromSource("lit_frag", ShaderTypeFragment, testFragmentSource)
	require.NoError(t, err)

	assert.Equal(t, "fs_main", s.EntryPoint())
	assert.Empty(t, s.VertexLayouts())
	assert.NotContains(t, s.BindGroupLayoutDescriptors(), 3)

	desc := s.BindGroupLayoutDescriptor(2)
	require.Len(t, desc.Entries, 3)

	assert.Equal(t, uint64(144), desc.Entries[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.ShaderStageFragment, desc.Entries[0].Visibility)

	assert.Equal(t, wgpu.TextureSampleTypeDepth, desc.Entries[1].Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2D, desc.Entries[1].Texture.ViewDimension)
	assert.Equal(t, wgpu.SamplerBindingTypeComparison, desc.Entries[2].Sampler.Type)

	shadowMap, ok := FindDeclaration(s.Declarations(), AnnotationArgLight, AnnotationArgShadowMap)
	require.True(t, ok)
	assert.Equal(t, 1, *shadowMap.Binding)

	sampler, ok := FindDeclaration(s.Declarations(), AnnotationArgLight, AnnotationArgShadowSampler)
	require.True(t, ok)
	assert.Equal(t, 2, *sampler.Binding)

	uniform, ok := FindDeclaration(s.Declarations(), AnnotationArgLight, "")
	require.True(t, ok)
	assert.Equal(t, AnnotationTypeBindingGroup, uniform.Type)

	_, ok = FindDeclaration(s.Declarations(), AnnotationArgCamera, "")
	assert.False(t, ok)
}

func TestNewShaderErrors(t *testing.T) {
	_, err := NewShader("missing", ShaderTypeVertex, fstest.MapFS{}, "nope.wgsl")
	require.Error(t, err)

	_, err = NewShaderFromSource("frag", ShaderTypeVertex, testFragmentSource)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no @vertex entry point")

	_, err = NewShaderFromSource("bad", ShaderTypeFragment, "//@pcss:include teapot\n")
	require.Error(t, err)
}

func TestResolveTypeLayout(t *testing.T) {
	known := map[string]wgslTypeLayout{"InstanceData": {80, 16}}
	tests := []struct {
		typeName string
		want     wgslTypeLayout
		ok       bool
	}{
		{"vec3<f32>", wgslTypeLayout{12, 16}, true},
		{"mat4x4<f32>", wgslTypeLayout{64, 16}, true},
		{"array<vec3<f32>, 4>", wgslTypeLayout{64, 16}, true},
		{"array<InstanceData>", wgslTypeLayout{80, 16}, true},
		{"array<Unknown>", wgslTypeLayout{}, false},
		{"texture_2d<f32>", wgslTypeLayout{}, false},
	}
	for _, tt := range tests {
		got, ok := resolveTypeLayout(tt.typeName, known)
		assert.Equal(t, tt.ok, ok, tt.typeName)
		assert.Equal(t, tt.want, got, tt.typeName)
	}
}

func TestComputeStructSizesNested(t *testing.T) {
	structs := parseStructBlocks(stripComments(`
struct Outer { inner: Inner, scale: f32, };
struct Inner { a: vec3<f32>, b: f32, };
`))
	sizes := computeStructSizes(structs)
	assert.Equal(t, wgslTypeLayout{16, 16}, sizes["Inner"])
	assert.Equal(t, wgslTypeLayout{32, 16}, sizes["Outer"])
}

func TestStripComments(t *testing.T) {
	src := "a // line\nb /* x /* nested */ y */ c\n"
	assert.Equal(t, "a \nb  c\n", stripComments(src))
}
