package driven

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// AIConfigValidator validates AI provider configurations.
// Implementations verify that configurations are valid by testing connectivity
// to the underlying AI services.
type AIConfigValidator interface {
	// ValidateEmbedding pings the embedding provider.
	// Returns an error wrapping ErrModelUnavailable when it cannot be reached.
	ValidateEmbedding(ctx context.Context, config *domain.EmbeddingSettings) error

	// ValidateLLM pings the answer generator.
	// Returns nil if the LLM is not configured.
	ValidateLLM(ctx context.Context, config *domain.LLMSettings) error
}
