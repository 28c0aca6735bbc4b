// Package model wraps the external generative-text APIs: provider adapters
// that speak each wire format, and a resilient client that layers timeouts,
// retries and prompt degradation on top of any provider.
package model

import "context"

// Options are the generation parameters passed through to the provider.
// The orchestrator fixes them; they are not exposed to end users.
type Options struct {
	Temperature     float32
	MaxOutputTokens int
	TopP            float32
	TopK            int
}

// Provider executes one generation call and returns the decoded raw
// response. Providers do not retry and do not interpret response content;
// both are the Client's job.
type Provider interface {
	Generate(ctx context.Context, prompt string, opts Options) (*Response, error)
	Name() string
}
