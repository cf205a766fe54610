package renderer

import (
	"github.com/Carmen-Shannon/oxy-rings/common"
	"github.com/Carmen-Shannon/oxy-rings/engine/renderer/pipeline"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPipeline queues a Pipeline for registration once the device exists. May be given more than once.
//
// Parameters:
//   - p: the Pipeline to register
//
// Returns:
//   - RendererBuilderOption: option function to apply
func WithPipeline(p pipeline.Pipeline) RendererBuilderOption {
	return func(r *renderer) {
		r.queued = append(r.queued, p)
	}
}

// WithPresentMode sets the surface present mode. Defaults to common.PresentModeVSync.
//
// Parameters:
//   - mode: the PresentMode to use
//
// Returns:
//   - RendererBuilderOption: option function to apply
func WithPresentMode(mode common.PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.presentMode = mode
	}
}

// WithMSAA sets the sample count of the color target. Defaults to common.MSAA4x. NewRenderer rejects
// counts other than common.MSAAOff and common.MSAA4x.
//
// Parameters:
//   - count: the sample count
//
// Returns:
//   - RendererBuilderOption: option function to apply
func WithMSAA(count common.MSAASampleCount) RendererBuilderOption {
	return func(r *renderer) {
		r.msaa = count
	}
}

// WithClearColor sets the color behind the rings.
func WithClearColor(c common.Color) RendererBuilderOption {
	return func(r *renderer) {
		r.clearColor = c
	}
}

// WithForceSoftwareRenderer requests the fallback (CPU) adapter, e.g. lavapipe or SwiftShader.
// Adapter acquisition fails with ErrCapabilityUnavailable when none is installed.
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}
