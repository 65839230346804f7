package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// mockAIValidator implements driven.AIConfigValidator for testing.
type mockAIValidator struct {
	embeddingErr error
	llmErr       error
	embedding    *domain.EmbeddingSettings
}

func (m *mockAIValidator) ValidateEmbedding(_ context.Context, cfg *domain.EmbeddingSettings) error {
	m.embedding = cfg
	return m.embeddingErr
}

func (m *mockAIValidator) ValidateLLM(_ context.Context, _ *domain.LLMSettings) error {
	return m.llmErr
}

func TestSettingsService_GetDefaults(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore(), nil)

	settings, err := svc.Get()
	require.NoError(t, err)

	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "all-minilm", settings.Embedding.Model)
	assert.Equal(t, 4, settings.Embedding.Concurrency)
	assert.Equal(t, domain.AIProviderOllama, settings.LLM.Provider)
	assert.Equal(t, "mistral", settings.LLM.Model)
	assert.Equal(t, domain.CompressionNone, settings.Index.Compression)
	assert.True(t, settings.Index.Seed)
	assert.Equal(t, 3, settings.GroupSize)
	assert.Equal(t, 3, settings.K)
	assert.Equal(t, ":8000", settings.ServerAddr)
	assert.Equal(t, "rag_index", settings.Mirror.Prefix)
	assert.True(t, settings.Mirror.UseSSL)
	assert.False(t, settings.Mirror.IsConfigured())
	assert.Equal(t, filepath.Join(settings.StoreDir, IndexDirName), settings.Index.Dir)
}

func TestSettingsService_SetParsesTypes(t *testing.T) {
	store := memory.NewConfigStore()
	svc := NewSettingsService(store, nil)

	require.NoError(t, svc.Set("retrieval.k", "5"))
	require.NoError(t, svc.Set("index.seed", "false"))
	require.NoError(t, svc.Set("embedding.rate_per_second", "2.5"))
	require.NoError(t, svc.Set("index.compression", "zstd"))
	require.NoError(t, svc.Set("index.dir", " /srv/rag_index "))

	v, _ := store.Get("retrieval.k")
	assert.Equal(t, 5, v)

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, 5, settings.K)
	assert.False(t, settings.Index.Seed)
	assert.Equal(t, 2.5, settings.Embedding.RatePerSecond)
	assert.Equal(t, domain.CompressionZstd, settings.Index.Compression)
	assert.Equal(t, "/srv/rag_index", settings.Index.Dir)
}

func TestSettingsService_SetRejects(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore(), nil)

	cases := map[string]string{
		"unknown.key":               "x",
		"retrieval.k":               "0",
		"chunker.group_size":        "three",
		"index.seed":                "maybe",
		"index.compression":         "gzip",
		"embedding.provider":        "anthropic",
		"llm.provider":              "cohere",
		"embedding.rate_per_second": "-1",
	}
	for key, value := range cases {
		assert.ErrorIs(t, svc.Set(key, value), domain.ErrInvalidInput, key)
	}
}

func TestSettingsService_ValuesMasksSecrets(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore(), nil)
	require.NoError(t, svc.Set("llm.api_key", "sk-secret"))
	require.NoError(t, svc.Set("mirror.bucket", "indexes"))

	values, err := svc.Values()
	require.NoError(t, err)

	assert.Equal(t, secretMask, values["llm.api_key"])
	assert.Equal(t, "", values["embedding.api_key"], "unset secrets stay empty")
	assert.Equal(t, "indexes", values["mirror.bucket"])
	assert.Equal(t, "3", values["retrieval.k"])
	assert.Equal(t, "true", values["index.seed"])

	assert.Len(t, values, len(SettingKeys()), "every key has a value")
}

func TestSettingKeys(t *testing.T) {
	keys := SettingKeys()
	assert.Contains(t, keys, "embedding.cache.redis_addr")
	assert.Contains(t, keys, "mirror.push_on_persist")
	assert.True(t, IsSecretKey("mirror.secret_key"))
	assert.False(t, IsSecretKey("mirror.bucket"))
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore(), nil)

	require.NoError(t, svc.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))
	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, "all-minilm", settings.Embedding.Model)
	assert.Equal(t, DefaultOllamaURL, settings.Embedding.BaseURL)

	require.NoError(t, svc.SetEmbeddingProvider(domain.AIProviderOpenAI, "text-embedding-3-large", "sk-1"))
	settings, err = svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.Empty(t, settings.Embedding.BaseURL)
	assert.Equal(t, "sk-1", settings.Embedding.APIKey)

	assert.ErrorIs(t, svc.SetEmbeddingProvider(domain.AIProviderOpenAI, "", ""), domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.SetEmbeddingProvider(domain.AIProviderAnthropic, "", "key"), domain.ErrInvalidInput)
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore(), nil)

	require.NoError(t, svc.SetLLMProvider(domain.AIProviderAnthropic, "", "sk-ant"))
	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
	assert.Equal(t, domain.DefaultLLMModels()[domain.AIProviderAnthropic], settings.LLM.Model)

	assert.ErrorIs(t, svc.SetLLMProvider("bogus", "", ""), domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.SetLLMProvider(domain.AIProviderOpenAI, "", ""), domain.ErrInvalidInput)
}

func TestSettingsService_Validate(t *testing.T) {
	validator := &mockAIValidator{embeddingErr: domain.ErrModelUnavailable}
	svc := NewSettingsService(memory.NewConfigStore(), validator)

	err := svc.ValidateEmbeddingConfig(context.Background())
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	require.NotNil(t, validator.embedding)
	assert.Equal(t, "all-minilm", validator.embedding.Model)

	validator.llmErr = errors.New("down")
	assert.Error(t, svc.ValidateLLMConfig(context.Background()))

	noValidator := NewSettingsService(memory.NewConfigStore(), nil)
	assert.NoError(t, noValidator.ValidateEmbeddingConfig(context.Background()))
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".ragcore"), expandHome("~/.ragcore"))
	assert.Equal(t, "/abs", expandHome("/abs"))
	assert.Equal(t, "~user/x", expandHome("~user/x"))
}
