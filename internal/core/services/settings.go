package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedConcurrency = "embedding.concurrency"
	keyEmbedRate        = "embedding.rate_per_second"
	keyEmbedCacheAddr   = "embedding.cache.redis_addr"
	keyEmbedCacheTTL    = "embedding.cache.ttl_seconds"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyIndexDir         = "index.dir"
	keyIndexCompression = "index.compression"
	keyIndexSeed        = "index.seed"
	keyIndexSeedFile    = "index.seed_file"
	keyGroupSize        = "chunker.group_size"
	keyRetrievalK       = "retrieval.k"
	keyStoreDir         = "store.dir"
	keyMirrorEndpoint   = "mirror.endpoint"
	keyMirrorBucket     = "mirror.bucket"
	keyMirrorPrefix     = "mirror.prefix"
	keyMirrorAccessKey  = "mirror.access_key"
	keyMirrorSecretKey  = "mirror.secret_key"
	keyMirrorUseSSL     = "mirror.use_ssl"
	keyMirrorPush       = "mirror.push_on_persist"
	keyServerAddr       = "server.addr"
	keyWatchDir         = "watch.dir"
)

// DefaultOllamaURL is the base URL assumed for local providers.
const DefaultOllamaURL = "http://localhost:11434"

// IndexDirName is the index directory created under the store directory.
const IndexDirName = "rag_index"

// secretMask replaces secret values in listings.
const secretMask = "********"

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
)

// settingSpec describes one settable key.
type settingSpec struct {
	kind     valueKind
	secret   bool
	validate func(string) error
}

var settingSpecs = map[string]settingSpec{
	keyEmbedProvider:    {kind: kindString, validate: validateEmbeddingProvider},
	keyEmbedModel:       {kind: kindString},
	keyEmbedBaseURL:     {kind: kindString},
	keyEmbedAPIKey:      {kind: kindString, secret: true},
	keyEmbedConcurrency: {kind: kindInt, validate: positive},
	keyEmbedRate:        {kind: kindFloat},
	keyEmbedCacheAddr:   {kind: kindString},
	keyEmbedCacheTTL:    {kind: kindInt, validate: positive},
	keyLLMProvider:      {kind: kindString, validate: validateLLMProvider},
	keyLLMModel:         {kind: kindString},
	keyLLMBaseURL:       {kind: kindString},
	keyLLMAPIKey:        {kind: kindString, secret: true},
	keyIndexDir:         {kind: kindString},
	keyIndexCompression: {kind: kindString, validate: validateCompression},
	keyIndexSeed:        {kind: kindBool},
	keyIndexSeedFile:    {kind: kindString},
	keyGroupSize:        {kind: kindInt, validate: positive},
	keyRetrievalK:       {kind: kindInt, validate: positive},
	keyStoreDir:         {kind: kindString},
	keyMirrorEndpoint:   {kind: kindString},
	keyMirrorBucket:     {kind: kindString},
	keyMirrorPrefix:     {kind: kindString},
	keyMirrorAccessKey:  {kind: kindString, secret: true},
	keyMirrorSecretKey:  {kind: kindString, secret: true},
	keyMirrorUseSSL:     {kind: kindBool},
	keyMirrorPush:       {kind: kindBool},
	keyServerAddr:       {kind: kindString},
	keyWatchDir:         {kind: kindString},
}

// SettingKeys returns every settable key in sorted order.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingSpecs))
	for k := range settingSpecs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsSecretKey returns true if the key holds a credential.
func IsSecretKey(key string) bool {
	return settingSpecs[key].secret
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
// Directories default to the folder holding the config file.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	storeDir := expandHome(s.getString(keyStoreDir, filepath.Dir(s.configStore.Path())))
	indexDir := expandHome(s.getString(keyIndexDir, filepath.Join(storeDir, IndexDirName)))

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:        s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:           s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:         s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:          s.configStore.GetString(keyEmbedAPIKey),
			Concurrency:     s.getInt(keyEmbedConcurrency, defaults.Embedding.Concurrency),
			RatePerSecond:   s.configStore.GetFloat(keyEmbedRate),
			CacheAddr:       s.configStore.GetString(keyEmbedCacheAddr),
			CacheTTLSeconds: s.getInt(keyEmbedCacheTTL, defaults.Embedding.CacheTTLSeconds),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Index: domain.IndexSettings{
			Dir:         indexDir,
			Compression: s.getCompression(defaults.Index.Compression),
			Seed:        s.getBool(keyIndexSeed, defaults.Index.Seed),
			SeedFile:    expandHome(s.configStore.GetString(keyIndexSeedFile)),
		},
		Mirror: domain.MirrorSettings{
			Endpoint:      s.configStore.GetString(keyMirrorEndpoint),
			Bucket:        s.configStore.GetString(keyMirrorBucket),
			Prefix:        s.getString(keyMirrorPrefix, defaults.Mirror.Prefix),
			AccessKey:     s.configStore.GetString(keyMirrorAccessKey),
			SecretKey:     s.configStore.GetString(keyMirrorSecretKey),
			UseSSL:        s.getBool(keyMirrorUseSSL, defaults.Mirror.UseSSL),
			PushOnPersist: s.getBool(keyMirrorPush, defaults.Mirror.PushOnPersist),
		},
		GroupSize:  s.getInt(keyGroupSize, defaults.GroupSize),
		K:          s.getInt(keyRetrievalK, defaults.K),
		StoreDir:   storeDir,
		ServerAddr: s.getString(keyServerAddr, defaults.ServerAddr),
		WatchDir:   expandHome(s.configStore.GetString(keyWatchDir)),
	}

	return settings, nil
}

// Set parses value according to the type of key, validates it and stores it.
func (s *SettingsService) Set(key, value string) error {
	spec, ok := settingSpecs[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	value = strings.TrimSpace(value)
	if spec.validate != nil {
		if err := spec.validate(value); err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
		}
	}

	var typed any
	switch spec.kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s expects an integer", domain.ErrInvalidInput, key)
		}
		typed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s expects a non-negative number", domain.ErrInvalidInput, key)
		}
		typed = f
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s expects true or false", domain.ErrInvalidInput, key)
		}
		typed = b
	default:
		typed = value
	}

	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Values returns every known key with its effective value. Secrets are masked.
func (s *SettingsService) Values() (map[string]string, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}

	values := map[string]string{
		keyEmbedProvider:    settings.Embedding.Provider.String(),
		keyEmbedModel:       settings.Embedding.Model,
		keyEmbedBaseURL:     settings.Embedding.BaseURL,
		keyEmbedAPIKey:      settings.Embedding.APIKey,
		keyEmbedConcurrency: strconv.Itoa(settings.Embedding.Concurrency),
		keyEmbedRate:        strconv.FormatFloat(settings.Embedding.RatePerSecond, 'g', -1, 64),
		keyEmbedCacheAddr:   settings.Embedding.CacheAddr,
		keyEmbedCacheTTL:    strconv.Itoa(settings.Embedding.CacheTTLSeconds),
		keyLLMProvider:      settings.LLM.Provider.String(),
		keyLLMModel:         settings.LLM.Model,
		keyLLMBaseURL:       settings.LLM.BaseURL,
		keyLLMAPIKey:        settings.LLM.APIKey,
		keyIndexDir:         settings.Index.Dir,
		keyIndexCompression: settings.Index.Compression.String(),
		keyIndexSeed:        strconv.FormatBool(settings.Index.Seed),
		keyIndexSeedFile:    settings.Index.SeedFile,
		keyGroupSize:        strconv.Itoa(settings.GroupSize),
		keyRetrievalK:       strconv.Itoa(settings.K),
		keyStoreDir:         settings.StoreDir,
		keyMirrorEndpoint:   settings.Mirror.Endpoint,
		keyMirrorBucket:     settings.Mirror.Bucket,
		keyMirrorPrefix:     settings.Mirror.Prefix,
		keyMirrorAccessKey:  settings.Mirror.AccessKey,
		keyMirrorSecretKey:  settings.Mirror.SecretKey,
		keyMirrorUseSSL:     strconv.FormatBool(settings.Mirror.UseSSL),
		keyMirrorPush:       strconv.FormatBool(settings.Mirror.PushOnPersist),
		keyServerAddr:       settings.ServerAddr,
		keyWatchDir:         settings.WatchDir,
	}
	for key, v := range values {
		if IsSecretKey(key) && v != "" {
			values[key] = secretMask
		}
	}
	return values, nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if err := validateEmbeddingProvider(provider.String()); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}
	baseURL := s.configStore.GetString(keyEmbedBaseURL)
	if provider.IsLocal() {
		if baseURL == "" {
			baseURL = DefaultOllamaURL
		}
	} else {
		// Cloud providers don't need a custom base URL
		baseURL = ""
	}

	return s.save(map[string]any{
		keyEmbedProvider: provider.String(),
		keyEmbedModel:    model,
		keyEmbedBaseURL:  baseURL,
		keyEmbedAPIKey:   apiKey,
	})
}

// SetLLMProvider configures the answer generator.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if err := validateLLMProvider(provider.String()); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}
	baseURL := s.configStore.GetString(keyLLMBaseURL)
	if provider.IsLocal() {
		if baseURL == "" {
			baseURL = DefaultOllamaURL
		}
	} else {
		baseURL = ""
	}

	return s.save(map[string]any{
		keyLLMProvider: provider.String(),
		keyLLMModel:    model,
		keyLLMBaseURL:  baseURL,
		keyLLMAPIKey:   apiKey,
	})
}

// ValidateEmbeddingConfig pings the configured embedding provider.
func (s *SettingsService) ValidateEmbeddingConfig(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(ctx, &settings.Embedding)
}

// ValidateLLMConfig pings the configured answer generator.
func (s *SettingsService) ValidateLLMConfig(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(ctx, &settings.LLM)
}

func (s *SettingsService) save(values map[string]any) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := s.configStore.Set(k, values[k]); err != nil {
			return fmt.Errorf("save %s: %w", k, err)
		}
	}
	return nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(key))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getCompression(defaultVal domain.Compression) domain.Compression {
	c := domain.Compression(s.configStore.GetString(keyIndexCompression))
	if !c.IsValid() {
		return defaultVal
	}
	return c
}

func validateEmbeddingProvider(v string) error {
	for _, p := range domain.AllEmbeddingProviders() {
		if p.String() == v {
			return nil
		}
	}
	return fmt.Errorf("provider %q does not support embeddings", v)
}

func validateLLMProvider(v string) error {
	for _, p := range domain.AllLLMProviders() {
		if p.String() == v {
			return nil
		}
	}
	return fmt.Errorf("unknown LLM provider %q", v)
}

func validateCompression(v string) error {
	if !domain.Compression(v).IsValid() {
		return fmt.Errorf("unknown compression %q", v)
	}
	return nil
}

func positive(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fmt.Errorf("expects a positive integer")
	}
	return nil
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
