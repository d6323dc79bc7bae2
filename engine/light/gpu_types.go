package light

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPULightUniformSource is the canonical WGSL definition of the LightUniform struct.
// Matches GPULightUniform layout exactly (144 bytes).
//
//go:embed assets/light_uniform.wgsl
var GPULightUniformSource string

// GPULightUniform is the GPU-aligned light and soft shadow data read by the lit pass.
// Matches the WGSL LightUniform struct layout exactly (see GPULightUniformSource).
// Size: 144 bytes.
//
// Layout:
//
//	mat4x4<f32> light_vp              (64 bytes, offset   0)
//	vec3<f32>   light_dir             (12 bytes, offset  64)
//	f32         frustum_width         ( 4 bytes, offset  76)
//	vec4<f32>   light_color           (16 bytes, offset  80)
//	vec4<f32>   ambient               (16 bytes, offset  96)
//	i32         shadow_map_resolution ( 4 bytes, offset 112)
//	f32         light_size            ( 4 bytes, offset 116)
//	f32         bias                  ( 4 bytes, offset 120)
//	u32         blocker_samples       ( 4 bytes, offset 124)
//	u32         pcf_samples           ( 4 bytes, offset 128)
//	u32 x3      padding               (12 bytes, offset 132)
type GPULightUniform struct {
	LightVP        [16]float32
	Direction      [3]float32
	FrustumWidth   float32
	Color          [4]float32
	Ambient        [4]float32
	Resolution     int32
	LightSize      float32
	Bias           float32
	BlockerSamples uint32
	PCFSamples     uint32
	_pad           [3]uint32
}

// Size returns the size of the GPULightUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (144)
func (u *GPULightUniform) Size() int {
	return int(unsafe.Sizeof(*u))
}

// Marshal serializes the GPULightUniform struct into a byte buffer suitable for
// GPU uniform upload.
//
// Returns:
//   - []byte: 144-byte buffer ready for GPU upload
func (u *GPULightUniform) Marshal() []byte {
	buf := make([]byte, u.Size())
	for i, v := range u.LightVP {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	for i, v := range u.Direction {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(v))
	}
	binary.LittleEndian.PutUint32(buf[76:], math.Float32bits(u.FrustumWidth))
	for i, v := range u.Color {
		binary.LittleEndian.PutUint32(buf[80+i*4:], math.Float32bits(v))
	}
	for i, v := range u.Ambient {
		binary.LittleEndian.PutUint32(buf[96+i*4:], math.Float32bits(v))
	}
	binary.LittleEndian.PutUint32(buf[112:], uint32(u.Resolution))
	binary.LittleEndian.PutUint32(buf[116:], math.Float32bits(u.LightSize))
	binary.LittleEndian.PutUint32(buf[120:], math.Float32bits(u.Bias))
	binary.LittleEndian.PutUint32(buf[124:], u.BlockerSamples)
	binary.LittleEndian.PutUint32(buf[128:], u.PCFSamples)
	return buf
}

// GPUShadowUniformSource is the canonical WGSL definition of the ShadowUniform struct.
// Matches GPUShadowUniform layout exactly (64 bytes).
//
//go:embed assets/shadow_uniform.wgsl
var GPUShadowUniformSource string

// GPUShadowUniform is the GPU-aligned representation of the shadow vertex
// shader uniform containing only the light view-projection matrix.
// Size: 64 bytes (mat4x4<f32>).
type GPUShadowUniform struct {
	LightVP [16]float32 // orthographic view-projection from light's perspective
}

// Size returns the size of the GPUShadowUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (u *GPUShadowUniform) Size() int {
	return int(unsafe.Sizeof(*u))
}

// Marshal serializes the GPUShadowUniform struct into a byte buffer suitable for
// GPU uniform upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload
func (u *GPUShadowUniform) Marshal() []byte {
	buf := make([]byte, 64)
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(u.LightVP[i]))
	}
	return buf
}
