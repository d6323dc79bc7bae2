package model

import (
	"fmt"

	"github.com/Carmen-Shannon/pcss-go/common"
	"github.com/Carmen-Shannon/pcss-go/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// model is the implementation of the Model interface.
type model struct {
	name                  string
	meshProvider          bind_group_provider.BindGroupProvider
	boundingRadius        float32
	vertexData, indexData []byte
	indexCount            int
}

// Model is a GPU-ready mesh: serialized vertex and index data plus the
// BindGroupProvider that holds the uploaded buffers once the renderer has
// created them.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// MeshProvider retrieves the BindGroupProvider holding GPU mesh resources.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the mesh provider
	MeshProvider() bind_group_provider.BindGroupProvider

	// VertexData returns the raw vertex data for this model's mesh.
	//
	// Returns:
	//   - []byte: the vertex data
	VertexData() []byte

	// IndexData returns the raw index data for this model's mesh.
	//
	// Returns:
	//   - []byte: the index data
	IndexData() []byte

	// IndexCount returns the number of indices in the model's mesh.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// BoundingRadius returns the bounding sphere radius for this model, measured as
	// the maximum vertex distance from the origin.
	//
	// Returns:
	//   - float32: the bounding radius
	BoundingRadius() float32

	// Release destroys the GPU buffers held by the mesh provider.
	Release()
}

var _ Model = &model{}

// NewModel creates a new Model instance with the specified options applied.
// A mesh provider named after the model is created when none is supplied.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	if m.meshProvider == nil {
		m.meshProvider = bind_group_provider.NewBindGroupProvider(m.name + "_mesh")
	}
	return m
}

// NewCube builds a box model with GenCube.
//
// Parameters:
//   - name: the model identifier
//   - width, height, length: box extents along X, Y and Z
//
// Returns:
//   - Model: the model, not yet uploaded
//   - error: if any extent is not positive
func NewCube(name string, width, height, length float32) (Model, error) {
	if width <= 0 || height <= 0 || length <= 0 {
		return nil, fmt.Errorf("model: cube extents must be positive, got %v x %v x %v", width, height, length)
	}
	vertices, indices := GenCube(width, height, length)
	return NewModel(
		WithName(name),
		WithMeshProvider(bind_group_provider.NewBindGroupProvider(name+"_mesh",
			bind_group_provider.WithIndexFormat(wgpu.IndexFormatUint16),
		)),
		WithVertexData(VertexBytes(vertices)),
		WithIndexData(common.SliceToBytes(indices)),
		WithIndexCount(len(indices)),
		WithBoundingRadius(ComputeBoundingRadius(vertices)),
	), nil
}

func (m *model) Name() string {
	return m.name
}

func (m *model) MeshProvider() bind_group_provider.BindGroupProvider {
	return m.meshProvider
}

func (m *model) VertexData() []byte {
	return m.vertexData
}

func (m *model) IndexData() []byte {
	return m.indexData
}

func (m *model) IndexCount() int {
	return m.indexCount
}

func (m *model) BoundingRadius() float32 {
	return m.boundingRadius
}

func (m *model) Release() {
	if m.meshProvider != nil {
		m.meshProvider.Release()
	}
}
