package bind_group_provider

// BindGroupProviderOption configures a provider in NewBindGroupProvider.
type BindGroupProviderOption func(*bindGroupProvider)

// WithVertexCount sets the vertices drawn per instance by non-indexed draws.
//
// Parameters:
//   - count: the vertex count
//
// Returns:
//   - BindGroupProviderOption: option function to apply
func WithVertexCount(count int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.vertexCount = max(count, 0)
	}
}

// WithIndexCount makes draws indexed with count indices per instance.
func WithIndexCount(count int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.SetIndexCount(count)
	}
}
