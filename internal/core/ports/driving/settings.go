package driving

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, defaults filled in.
	Get() (*domain.AppSettings, error)

	// Set validates and stores a single dotted key.
	Set(key, value string) error

	// Values returns every known key with its effective value.
	// Secret values are masked.
	Values() (map[string]string, error)

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetLLMProvider configures the answer generator.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig(ctx context.Context) error

	// ValidateLLMConfig pings the configured answer generator.
	ValidateLLMConfig(ctx context.Context) error
}
