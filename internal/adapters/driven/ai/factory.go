// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/embedding/cache"
	ollamaembed "github.com/custodia-labs/ragcore/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/ragcore/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/ragcore/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/ragcore/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/ragcore/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

const settingsHint = "Check 'ragcore settings show'"

// InitResult contains the AI services of one process.
type InitResult struct {
	Embedder  driven.Embedder
	Generator driven.AnswerGenerator // nil when answer generation is unavailable.
	Warnings  []string               // Non-fatal issues, such as an unreachable LLM.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.Embedder != nil {
		_ = r.Embedder.Close()
	}
	if r.Generator != nil {
		_ = r.Generator.Close()
	}
}

// Init creates and validates the embedder and answer generator.
// An unreachable embedder is fatal and returns an error wrapping
// domain.ErrModelUnavailable. An unreachable generator only adds a warning.
func Init(ctx context.Context, settings *domain.AppSettings) (*InitResult, error) {
	embedder, err := CreateAndValidateEmbedder(ctx, &settings.Embedding)
	if err != nil {
		return nil, err
	}

	result := &InitResult{Embedder: embedder}
	generator, err := CreateAndValidateGenerator(ctx, &settings.LLM)
	switch {
	case err != nil:
		logger.Warn("answer generation disabled: %v", err)
		result.Warnings = append(result.Warnings, err.Error())
	case generator == nil:
		result.Warnings = append(result.Warnings, "answer generation disabled: no LLM configured")
	default:
		result.Generator = generator
	}
	return result, nil
}

// CreateAndValidateEmbedder creates an embedder and validates connectivity.
// Retrieval cannot work without one, so every failure wraps domain.ErrModelUnavailable.
func CreateAndValidateEmbedder(ctx context.Context, settings *domain.EmbeddingSettings) (driven.Embedder, error) {
	embedder, err := CreateEmbedder(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrModelUnavailable, err, settingsHint)
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := embedder.Ping(ctx); err != nil {
		_ = embedder.Close()
		if errors.Is(err, ollamaembed.ErrModelNotPulled) {
			return nil, fmt.Errorf("%w: %w. %s", domain.ErrModelUnavailable, err, settingsHint)
		}
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrModelUnavailable, err, settingsHint)
	}

	return embedder, nil
}

// CreateAndValidateGenerator creates an answer generator and validates connectivity.
// Returns nil without error if no generator is configured.
func CreateAndValidateGenerator(ctx context.Context, settings *domain.LLMSettings) (driven.AnswerGenerator, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	generator, err := CreateGenerator(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrLLMUnavailable, err, settingsHint)
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := generator.Ping(ctx); err != nil {
		_ = generator.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrLLMUnavailable, err, settingsHint)
	}

	return generator, nil
}

// ValidateEmbeddingConfig validates an embedding configuration by creating an embedder and pinging it.
// Returns nil for an unconfigured provider; there is nothing to validate yet.
func ValidateEmbeddingConfig(ctx context.Context, settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}
	embedder, err := CreateAndValidateEmbedder(ctx, settings)
	if err != nil {
		return err
	}
	return embedder.Close()
}

// ValidateLLMConfig validates an LLM configuration by creating a generator and pinging it.
func ValidateLLMConfig(ctx context.Context, settings *domain.LLMSettings) error {
	generator, err := CreateAndValidateGenerator(ctx, settings)
	if err != nil || generator == nil {
		return err
	}
	return generator.Close()
}

// CreateEmbedder creates the embedder selected by settings, wrapped in the
// Redis cache when a cache address is configured.
func CreateEmbedder(settings *domain.EmbeddingSettings) (driven.Embedder, error) {
	if settings == nil {
		return nil, errors.New("no embedding settings")
	}

	var embedder driven.Embedder
	switch settings.Provider {
	case domain.AIProviderOllama:
		embedder = createOllamaEmbedder(settings)

	case domain.AIProviderOpenAI:
		if settings.APIKey == "" {
			return nil, errors.New("openai embeddings need an API key")
		}
		var err error
		embedder, err = createOpenAIEmbedder(settings)
		if err != nil {
			return nil, err
		}

	case domain.AIProviderAnthropic:
		// Anthropic does not support embeddings.
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama or openai")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %q", settings.Provider)
	}

	if settings.CacheAddr == "" {
		return embedder, nil
	}
	client, err := cache.NewClient(cache.Options{Address: settings.CacheAddr})
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("embedding cache: %w", err)
	}
	ttl := time.Duration(settings.CacheTTLSeconds) * time.Second
	return cache.New(embedder, client, ttl), nil
}

// CreateGenerator creates the answer generator selected by settings.
// Returns nil if the provider is not configured.
func CreateGenerator(settings *domain.LLMSettings) (driven.AnswerGenerator, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaGenerator(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAIGenerator(settings)

	case domain.AIProviderAnthropic:
		return createAnthropicGenerator(settings)

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// createOllamaEmbedder creates an Ollama embedder.
func createOllamaEmbedder(settings *domain.EmbeddingSettings) driven.Embedder {
	dimensions := domain.EmbeddingDimensions()[settings.Model]
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbedder(ollamaembed.Config{
		BaseURL:       settings.BaseURL,
		Model:         settings.Model,
		Dimensions:    dimensions,
		Concurrency:   settings.Concurrency,
		RatePerSecond: settings.RatePerSecond,
	})
}

// createOpenAIEmbedder creates an OpenAI embedder.
func createOpenAIEmbedder(settings *domain.EmbeddingSettings) (driven.Embedder, error) {
	return openaiembed.NewEmbedder(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: domain.EmbeddingDimensions()[settings.Model],
	})
}

// createOllamaGenerator creates an Ollama answer generator.
func createOllamaGenerator(settings *domain.LLMSettings) driven.AnswerGenerator {
	return ollamallm.NewGenerator(ollamallm.LLMConfig{
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createOpenAIGenerator creates an OpenAI answer generator.
func createOpenAIGenerator(settings *domain.LLMSettings) (driven.AnswerGenerator, error) {
	return openaillm.NewGenerator(openaillm.LLMConfig{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createAnthropicGenerator creates an Anthropic answer generator.
func createAnthropicGenerator(settings *domain.LLMSettings) (driven.AnswerGenerator, error) {
	return anthropicllm.NewGenerator(anthropicllm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}
