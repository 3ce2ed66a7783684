// Package embedding provides the vector backends behind the semantic
// matcher: an OpenAI provider, an Ollama provider for local models,
// and a caching, rate-limited service wrapper that implements the
// matcher's Embedder interface.
package embedding

import (
	"context"
)

// Provider is a remote or local embedding backend.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// IsAvailable checks if the provider is properly configured and reachable.
	IsAvailable(ctx context.Context) bool
}
