package bind_group_provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	label string

	bindGroup       *wgpu.BindGroup
	bindGroupLayout *wgpu.BindGroupLayout
	buffers         map[int]*wgpu.Buffer
	textureViews    map[int]*wgpu.TextureView
	samplers        map[int]*wgpu.Sampler

	// borrowed marks texture views and samplers owned elsewhere (e.g. the shadow map
	// shared by the depth pass and the lit pass). Release leaves them alone.
	borrowed map[int]bool

	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	indexCount   int
	indexFormat  wgpu.IndexFormat
}

// BindGroupProvider holds the GPU resources behind one bind group, or behind a mesh
// when used for vertex and index buffers.
//
// Usage pattern:
//  1. A component creates a provider with a label.
//  2. Borrowed resources (texture views, samplers) are attached with Borrow* before init.
//  3. Renderer.InitBindGroup creates the layout, the uniform/storage buffers and the bind group.
//  4. Renderer.WriteBuffers updates buffer contents each frame.
//  5. Draw calls bind BindGroup() at the group index the shader expects.
type BindGroupProvider interface {
	// Release frees every owned GPU resource. Borrowed resources are detached but not released.
	Release()

	// Label returns the debug label used for GPU object names.
	Label() string

	// BindGroup returns the created bind group, or nil before init.
	BindGroup() *wgpu.BindGroup

	// BindGroupLayout returns the layout the bind group was created with.
	BindGroupLayout() *wgpu.BindGroupLayout

	// Buffer returns the buffer at a binding index.
	//
	// Parameters:
	//   - binding: the @binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer, or nil if none is bound there
	Buffer(binding int) *wgpu.Buffer

	Buffers() map[int]*wgpu.Buffer

	// TextureView returns the texture view at a binding index.
	//
	// Parameters:
	//   - binding: the @binding index
	//
	// Returns:
	//   - *wgpu.TextureView: the view, or nil if none is bound there
	TextureView(binding int) *wgpu.TextureView

	// Sampler returns the sampler at a binding index.
	//
	// Parameters:
	//   - binding: the @binding index
	//
	// Returns:
	//   - *wgpu.Sampler: the sampler, or nil if none is bound there
	Sampler(binding int) *wgpu.Sampler

	VertexBuffer() *wgpu.Buffer

	IndexBuffer() *wgpu.Buffer

	IndexCount() int

	// IndexFormat returns the element type of the index buffer. Defaults to uint32.
	IndexFormat() wgpu.IndexFormat

	SetBindGroup(bg *wgpu.BindGroup)

	SetBindGroupLayout(bgl *wgpu.BindGroupLayout)

	// SetBuffer stores an owned buffer at a binding index.
	//
	// Parameters:
	//   - binding: the @binding index
	//   - buf: the buffer
	SetBuffer(binding int, buf *wgpu.Buffer)

	// BorrowTextureView attaches a texture view owned by another component.
	//
	// Parameters:
	//   - binding: the @binding index
	//   - tv: the texture view
	BorrowTextureView(binding int, tv *wgpu.TextureView)

	// BorrowSampler attaches a sampler owned by another component.
	//
	// Parameters:
	//   - binding: the @binding index
	//   - s: the sampler
	BorrowSampler(binding int, s *wgpu.Sampler)

	// Borrowed reports whether the resource at a binding index is owned elsewhere.
	Borrowed(binding int) bool

	SetVertexBuffer(buf *wgpu.Buffer)

	SetIndexBuffer(buf *wgpu.Buffer)

	SetIndexCount(count int)
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: debug label for the provider's GPU objects
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new provider
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		buffers:      make(map[int]*wgpu.Buffer),
		textureViews: make(map[int]*wgpu.TextureView),
		samplers:     make(map[int]*wgpu.Sampler),
		borrowed:     make(map[int]bool),
		indexFormat:  wgpu.IndexFormatUint32,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) Buffers() map[int]*wgpu.Buffer {
	return p.buffers
}

func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView {
	return p.textureViews[binding]
}

func (p *bindGroupProvider) Sampler(binding int) *wgpu.Sampler {
	return p.samplers[binding]
}

func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer {
	return p.vertexBuffer
}

func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer {
	return p.indexBuffer
}

func (p *bindGroupProvider) IndexCount() int {
	return p.indexCount
}

func (p *bindGroupProvider) IndexFormat() wgpu.IndexFormat {
	return p.indexFormat
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBindGroupLayout(bgl *wgpu.BindGroupLayout) {
	p.bindGroupLayout = bgl
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) BorrowTextureView(binding int, tv *wgpu.TextureView) {
	p.textureViews[binding] = tv
	p.borrowed[binding] = true
}

func (p *bindGroupProvider) BorrowSampler(binding int, s *wgpu.Sampler) {
	p.samplers[binding] = s
	p.borrowed[binding] = true
}

func (p *bindGroupProvider) Borrowed(binding int) bool {
	return p.borrowed[binding]
}

func (p *bindGroupProvider) SetVertexBuffer(buf *wgpu.Buffer) {
	p.vertexBuffer = buf
}

func (p *bindGroupProvider) SetIndexBuffer(buf *wgpu.Buffer) {
	p.indexBuffer = buf
}

func (p *bindGroupProvider) SetIndexCount(count int) {
	p.indexCount = count
}

func (p *bindGroupProvider) Release() {
	for i, tv := range p.textureViews {
		if tv != nil && !p.borrowed[i] {
			tv.Release()
		}
		delete(p.textureViews, i)
	}
	for i, s := range p.samplers {
		if s != nil && !p.borrowed[i] {
			s.Release()
		}
		delete(p.samplers, i)
	}
	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, i)
	}
	clear(p.borrowed)

	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
		p.bindGroupLayout = nil
	}
	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
	}
	if p.indexBuffer != nil {
		p.indexBuffer.Release()
		p.indexBuffer = nil
	}
	p.indexCount = 0
}
