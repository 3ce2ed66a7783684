package embedding

import (
	"fmt"
	"strings"

	"github.com/plarroque/cephalo/internal/model"
)

// NewProvider creates an embedding provider based on configuration.
// An empty provider name returns nil: the engine then runs rule-only.
func NewProvider(config model.EmbeddingConfig) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: openai, ollama)", config.Provider)
	}
}
