package common

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-5

func assertMatEqual(t *testing.T, want, got []float32) {
	t.Helper()
	require.Len(t, got, 16)
	for i := range want {
		assert.InDelta(t, want[i], got[i], eps, "element %d", i)
	}
}

func TestMul4MatchesMathgl(t *testing.T) {
	a := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.HomogRotate3DY(0.7))
	b := mgl32.Scale3D(2, 3, 4).Mul4(mgl32.HomogRotate3DX(-0.3))

	var out [16]float32
	Mul4(out[:], a[:], b[:])

	want := a.Mul4(b)
	assertMatEqual(t, want[:], out[:])
}

func TestMul4Aliasing(t *testing.T) {
	a := mgl32.Translate3D(4, 5, 6)
	b := mgl32.Scale3D(2, 2, 2)
	want := a.Mul4(b)

	m := a
	Mul4(m[:], m[:], b[:])
	assertMatEqual(t, want[:], m[:])
}

func TestLookAtMatchesMathgl(t *testing.T) {
	eye := Vec3{9.5, 7.5, -6.0}
	target := Vec3{0, 0, 0}
	up := Vec3{0, 1, 0}

	var out [16]float32
	LookAt(out[:], eye, target, up)

	want := mgl32.LookAtV(mgl32.Vec3(eye), mgl32.Vec3(target), mgl32.Vec3(up))
	assertMatEqual(t, want[:], out[:])
}

func TestLookAtParallelUp(t *testing.T) {
	var out [16]float32
	LookAt(out[:], Vec3{0, 10, 0}, Vec3{0, 0, 0}, Vec3{0, 1, 0})
	for i, v := range out {
		assert.False(t, math.IsNaN(float64(v)), "element %d is NaN", i)
	}
	// the origin lands straight ahead at distance 10
	p := TransformPoint(out[:], Vec3{0, 0, 0})
	assert.InDelta(t, 0, p[0], eps)
	assert.InDelta(t, 0, p[1], eps)
	assert.InDelta(t, -10, p[2], eps)
}

func TestPerspectiveDepthRange(t *testing.T) {
	var proj [16]float32
	Perspective(proj[:], DegToRad(45), 16.0/9.0, 0.1, 100)

	near := TransformPoint(proj[:], Vec3{0, 0, -0.1})
	far := TransformPoint(proj[:], Vec3{0, 0, -100})
	assert.InDelta(t, 0, near[2]/near[3], eps)
	assert.InDelta(t, 1, far[2]/far[3], 1e-4)

	// x/y terms agree with the OpenGL style projection
	gl := mgl32.Perspective(DegToRad(45), 16.0/9.0, 0.1, 100)
	assert.InDelta(t, gl[0], proj[0], eps)
	assert.InDelta(t, gl[5], proj[5], eps)
}

func TestOrthographicDepthRange(t *testing.T) {
	var proj [16]float32
	Orthographic(proj[:], -10, 10, -10, 10, 0.01, 1000)

	near := TransformPoint(proj[:], Vec3{0, 0, -0.01})
	far := TransformPoint(proj[:], Vec3{0, 0, -1000})
	mid := TransformPoint(proj[:], Vec3{10, -10, -500.005})

	assert.InDelta(t, 0, near[2], eps)
	assert.InDelta(t, 1, far[2], eps)
	assert.InDelta(t, 0.5, mid[2], eps)
	assert.InDelta(t, 1, mid[0], eps)
	assert.InDelta(t, -1, mid[1], eps)
	assert.Equal(t, float32(1), mid[3])

	gl := mgl32.Ortho(-10, 10, -10, 10, 0.01, 1000)
	assert.InDelta(t, gl[0], proj[0], eps)
	assert.InDelta(t, gl[5], proj[5], eps)
	assert.InDelta(t, gl[12], proj[12], eps)
	assert.InDelta(t, gl[13], proj[13], eps)
}

func TestBuildModelMatrix(t *testing.T) {
	var out [16]float32
	BuildModelMatrix(out[:], Vec3{0, 1.5, 4.9}, Vec3{10, 2, 0.2})

	want := mgl32.Translate3D(0, 1.5, 4.9).Mul4(mgl32.Scale3D(10, 2, 0.2))
	assertMatEqual(t, want[:], out[:])

	corner := TransformPoint(out[:], Vec3{0.5, 0.5, 0.5})
	assert.InDelta(t, 5, corner[0], eps)
	assert.InDelta(t, 2.5, corner[1], eps)
	assert.InDelta(t, 5.0, corner[2], eps)
}

func TestInvert4(t *testing.T) {
	m := mgl32.Translate3D(3, -2, 7).Mul4(mgl32.HomogRotate3DZ(1.1)).Mul4(mgl32.Scale3D(2, 4, 0.5))

	var inv [16]float32
	require.True(t, Invert4(inv[:], m[:]))

	want := m.Inv()
	assertMatEqual(t, want[:], inv[:])

	var id [16]float32
	Mul4(id[:], m[:], inv[:])
	var ident [16]float32
	Identity(ident[:])
	assertMatEqual(t, ident[:], id[:])
}

func TestInvert4Singular(t *testing.T) {
	var zero, out [16]float32
	out[0] = 42
	assert.False(t, Invert4(out[:], zero[:]))
	assert.Equal(t, float32(42), out[0])
}

func TestVectorHelpers(t *testing.T) {
	dir := Normalize3(Vec3{0, -1, -1})
	assert.InDelta(t, 1, Length3(dir), eps)
	assert.InDelta(t, -math.Sqrt2/2, dir[1], eps)
	assert.InDelta(t, -math.Sqrt2/2, dir[2], eps)

	assert.Equal(t, Vec3{}, Normalize3(Vec3{}))
	assert.Equal(t, Vec3{0, 0, 1}, Cross3(Vec3{1, 0, 0}, Vec3{0, 1, 0}))
	assert.Equal(t, float32(32), Dot3(Vec3{1, 2, 3}, Vec3{4, 5, 6}))
	assert.Equal(t, Vec3{5, 7, 9}, Add3(Vec3{1, 2, 3}, Vec3{4, 5, 6}))
	assert.Equal(t, Vec3{-3, -3, -3}, Sub3(Vec3{1, 2, 3}, Vec3{4, 5, 6}))
	assert.Equal(t, Vec3{2, 4, 6}, Scale3(Vec3{1, 2, 3}, 2))
}

func TestSliceToBytes(t *testing.T) {
	assert.Nil(t, SliceToBytes([]float32{}))
	b := SliceToBytes([]uint16{1, 2, 3})
	assert.Len(t, b, 6)
}

func TestColor(t *testing.T) {
	v := RayWhite.Vec4()
	assert.InDelta(t, 245.0/255.0, v[0], eps)
	assert.Equal(t, float32(1), v[3])

	c := White.WGPU()
	assert.Equal(t, 1.0, c.R)
	assert.Equal(t, 1.0, c.A)

	assert.Equal(t, 0.0, Black.WGPU().B)
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, float32(10), Coalesce(float32(0), float32(10), float32(3)))
	assert.Equal(t, "", Coalesce("", ""))
}
