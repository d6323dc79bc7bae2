// Package shaders embeds the WGSL sources for the shadow depth pass and the PCSS lit pass.
package shaders

import "embed"

// Shader paths inside FS.
const (
	ShadowDepthPath = "shadow_depth.wgsl"
	LitVertexPath   = "pcss_lit_vert.wgsl"
	LitFragmentPath = "pcss_lit_frag.wgsl"
)

// FS holds every embedded shader source.
//
//go:embed *.wgsl
var FS embed.FS
