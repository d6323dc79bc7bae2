package scene

import (
	"github.com/Carmen-Shannon/pcss-go/common"
	"github.com/Carmen-Shannon/pcss-go/engine/model"
)

// Instance is one entry in a scene's draw list: the shared mesh placed at Position,
// scaled per axis and tinted.
type Instance struct {
	Position common.Vec3
	Scale    common.Vec3
	Tint     common.Color
}

// GPU converts the instance into its storage buffer layout.
//
// Returns:
//   - model.GPUInstance: model matrix (translation * scale) and normalized tint
func (i Instance) GPU() model.GPUInstance {
	var g model.GPUInstance
	common.BuildModelMatrix(g.Model[:], i.Position, i.Scale)
	g.Tint = i.Tint.Vec4()
	return g
}
