package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption is a functional option for configuring a BindGroupProvider.
type BindGroupProviderOption func(*bindGroupProvider)

// WithBorrowedTextureView attaches a texture view owned by another component.
//
// Parameters:
//   - binding: the @binding index
//   - tv: the texture view
//
// Returns:
//   - BindGroupProviderOption: option function to apply
func WithBorrowedTextureView(binding int, tv *wgpu.TextureView) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.textureViews[binding] = tv
		p.borrowed[binding] = true
	}
}

// WithBorrowedSampler attaches a sampler owned by another component.
//
// Parameters:
//   - binding: the @binding index
//   - s: the sampler
//
// Returns:
//   - BindGroupProviderOption: option function to apply
func WithBorrowedSampler(binding int, s *wgpu.Sampler) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.samplers[binding] = s
		p.borrowed[binding] = true
	}
}

// WithIndexFormat sets the element type of the mesh index buffer.
//
// Parameters:
//   - format: wgpu.IndexFormatUint16 or wgpu.IndexFormatUint32
//
// Returns:
//   - BindGroupProviderOption: option function to apply
func WithIndexFormat(format wgpu.IndexFormat) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.indexFormat = format
	}
}
