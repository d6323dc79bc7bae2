package model

import "github.com/Carmen-Shannon/pcss-go/common"

// cubeFace describes one side of an axis-aligned box. u x v == normal, so the
// corners below wind counter-clockwise seen from outside.
type cubeFace struct {
	normal, u, v common.Vec3
}

var cubeFaces = [6]cubeFace{
	{normal: common.Vec3{0, 0, 1}, u: common.Vec3{1, 0, 0}, v: common.Vec3{0, 1, 0}},
	{normal: common.Vec3{0, 0, -1}, u: common.Vec3{-1, 0, 0}, v: common.Vec3{0, 1, 0}},
	{normal: common.Vec3{1, 0, 0}, u: common.Vec3{0, 0, -1}, v: common.Vec3{0, 1, 0}},
	{normal: common.Vec3{-1, 0, 0}, u: common.Vec3{0, 0, 1}, v: common.Vec3{0, 1, 0}},
	{normal: common.Vec3{0, 1, 0}, u: common.Vec3{1, 0, 0}, v: common.Vec3{0, 0, -1}},
	{normal: common.Vec3{0, -1, 0}, u: common.Vec3{1, 0, 0}, v: common.Vec3{0, 0, 1}},
}

// GenCube builds an axis-aligned box centered on the origin. Every face has its own
// four vertices so normals stay flat, giving 24 vertices and 36 indices.
//
// Parameters:
//   - width: size along X
//   - height: size along Y
//   - length: size along Z
//
// Returns:
//   - []GPUVertex: 24 vertices
//   - []uint16: 36 indices, two counter-clockwise triangles per face
func GenCube(width, height, length float32) ([]GPUVertex, []uint16) {
	half := common.Vec3{width / 2, height / 2, length / 2}
	mul := func(a common.Vec3) common.Vec3 {
		return common.Vec3{a[0] * half[0], a[1] * half[1], a[2] * half[2]}
	}

	vertices := make([]GPUVertex, 0, 24)
	indices := make([]uint16, 0, 36)
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for _, f := range cubeFaces {
		center := mul(f.normal)
		u := mul(f.u)
		v := mul(f.v)
		base := uint16(len(vertices))
		for _, c := range corners {
			p := common.Add3(center, common.Add3(common.Scale3(u, c[0]), common.Scale3(v, c[1])))
			vertices = append(vertices, GPUVertex{
				Position: p,
				Normal:   f.normal,
				TexCoord: [2]float32{(c[0] + 1) / 2, (c[1] + 1) / 2},
			})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return vertices, indices
}
