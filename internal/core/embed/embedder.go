// Package embed turns chunk text into vectors. Providers are selected once
// at startup; the rest of the pipeline only sees the Provider interface.
package embed

import (
	"context"
	"fmt"

	"github.com/docfoundry/knowflow/internal/config"
)

// Provider embeds batches of texts with a single fixed model.
type Provider interface {
	// EmbedTexts returns one vector per input text, in order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	// ModelName identifies the embedding model for search-hit annotation.
	ModelName() string
	Close() error
}

// New selects the embedding backend from configuration.
func New(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch cfg.Settings.Embedding.Type {
	case "gemini":
		return NewGeminiProvider(ctx, cfg.Env.GeminiAPIKey, cfg.Env.EmbedModel)
	case "local":
		return NewLocalProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported embedding backend: %q", cfg.Settings.Embedding.Type)
	}
}
