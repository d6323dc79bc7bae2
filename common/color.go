package common

import "github.com/cogentcore/webgpu/wgpu"

// Color is an 8-bit per channel RGBA color.
type Color struct {
	R, G, B, A uint8
}

// Named colors used by the demo scene.
var (
	White    = Color{255, 255, 255, 255}
	Black    = Color{0, 0, 0, 255}
	RayWhite = Color{245, 245, 245, 255}
	Blue     = Color{0, 121, 241, 255}
)

// Vec4 returns the color as normalized floats in [0, 1].
func (c Color) Vec4() Vec4 {
	return Vec4{
		float32(c.R) / 255,
		float32(c.G) / 255,
		float32(c.B) / 255,
		float32(c.A) / 255,
	}
}

// WGPU returns the color as a wgpu clear color.
func (c Color) WGPU() wgpu.Color {
	v := c.Vec4()
	return wgpu.Color{R: float64(v[0]), G: float64(v[1]), B: float64(v[2]), A: float64(v[3])}
}
