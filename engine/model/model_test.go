package model

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/pcss-go/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenCubeCounts(t *testing.T) {
	vertices, indices := GenCube(1, 1, 1)
	require.Len(t, vertices, 24)
	require.Len(t, indices, 36)
	for _, idx := range indices {
		assert.Less(t, int(idx), len(vertices))
	}
}

func TestGenCubeExtents(t *testing.T) {
	vertices, _ := GenCube(10, 2, 0.2)
	var lo, hi common.Vec3
	for _, v := range vertices {
		for i := 0; i < 3; i++ {
			lo[i] = min(lo[i], v.Position[i])
			hi[i] = max(hi[i], v.Position[i])
		}
	}
	assert.InDelta(t, -5, lo[0], 1e-6)
	assert.InDelta(t, 5, hi[0], 1e-6)
	assert.InDelta(t, -1, lo[1], 1e-6)
	assert.InDelta(t, 1, hi[1], 1e-6)
	assert.InDelta(t, -0.1, lo[2], 1e-6)
	assert.InDelta(t, 0.1, hi[2], 1e-6)
}

func TestGenCubeWindingFacesOutward(t *testing.T) {
	vertices, indices := GenCube(2, 3, 4)
	for i := 0; i < len(indices); i += 3 {
		a := vertices[indices[i]]
		b := vertices[indices[i+1]]
		c := vertices[indices[i+2]]
		n := common.Cross3(common.Sub3(b.Position, a.Position), common.Sub3(c.Position, a.Position))
		assert.Greater(t, common.Dot3(n, a.Normal), float32(0), "triangle %d winds clockwise", i/3)

		// the face lies on the plane its normal points out of
		assert.Greater(t, common.Dot3(a.Position, a.Normal), float32(0))
	}
}

func TestGenCubeTexCoords(t *testing.T) {
	vertices, _ := GenCube(1, 1, 1)
	for _, v := range vertices {
		assert.GreaterOrEqual(t, v.TexCoord[0], float32(0))
		assert.LessOrEqual(t, v.TexCoord[0], float32(1))
		assert.GreaterOrEqual(t, v.TexCoord[1], float32(0))
		assert.LessOrEqual(t, v.TexCoord[1], float32(1))
	}
	assert.Equal(t, [2]float32{0, 0}, vertices[0].TexCoord)
	assert.Equal(t, [2]float32{1, 1}, vertices[2].TexCoord)
}

func TestGPUVertexLayout(t *testing.T) {
	v := GPUVertex{
		Position: [3]float32{1, 2, 3},
		Normal:   [3]float32{0, 1, 0},
		TexCoord: [2]float32{0.25, 0.75},
	}
	require.Equal(t, 32, v.Size())
	b := v.Marshal()
	require.Len(t, b, 32)
	assert.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(b[8:])))
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(b[16:])))
	assert.Equal(t, float32(0.75), math.Float32frombits(binary.LittleEndian.Uint32(b[28:])))

	all := VertexBytes([]GPUVertex{v, v})
	assert.Len(t, all, 64)
	assert.Equal(t, b, all[32:])
	assert.Contains(t, GPUVertexSource, "@location(2) uv")
}

func TestGPUInstanceLayout(t *testing.T) {
	var inst GPUInstance
	common.BuildModelMatrix(inst.Model[:], common.Vec3{0, 1.5, 4.9}, common.Vec3{10, 2, 0.2})
	inst.Tint = common.Blue.Vec4()

	require.Equal(t, 80, inst.Size())
	b := inst.Marshal()
	require.Len(t, b, 80)
	assert.Equal(t, float32(10), math.Float32frombits(binary.LittleEndian.Uint32(b[0:])))
	assert.Equal(t, float32(4.9), math.Float32frombits(binary.LittleEndian.Uint32(b[14*4:])))
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(b[76:])))
	assert.Contains(t, GPUInstanceSource, "struct InstanceData")
}

func TestNewCube(t *testing.T) {
	m, err := NewCube("cube", 1, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "cube", m.Name())
	assert.Len(t, m.VertexData(), 24*32)
	assert.Len(t, m.IndexData(), 36*2)
	assert.Equal(t, 36, m.IndexCount())
	assert.InDelta(t, math.Sqrt(0.75), m.BoundingRadius(), 1e-6)
	require.NotNil(t, m.MeshProvider())
	assert.Equal(t, "cube_mesh", m.MeshProvider().Label())
	assert.Equal(t, wgpu.IndexFormatUint16, m.MeshProvider().IndexFormat())

	// index data is little-endian uint16
	assert.Equal(t, uint16(3), binary.LittleEndian.Uint16(m.IndexData()[10:]))

	_, err = NewCube("flat", 1, 0, 1)
	assert.Error(t, err)
}
