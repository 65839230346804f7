package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or answer generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API or any compatible server.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Concurrency bounds parallel requests for providers without a batch API.
	Concurrency int

	// RatePerSecond limits requests per second. Zero means unlimited.
	RatePerSecond float64

	// CacheAddr is the Redis address of the embedding cache. Empty disables it.
	CacheAddr string

	// CacheTTLSeconds is how long cached vectors live.
	CacheTTLSeconds int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds answer generator configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// Compression selects the codec for the persisted vector file.
type Compression string

// Available vector file codecs.
const (
	// CompressionNone stores raw little-endian float32 values.
	CompressionNone Compression = "none"

	// CompressionZstd frames the vector file with zstd.
	CompressionZstd Compression = "zstd"

	// CompressionLZ4 frames the vector file with lz4.
	CompressionLZ4 Compression = "lz4"
)

// IsValid returns true if the compression is recognised.
func (c Compression) IsValid() bool {
	switch c {
	case CompressionNone, CompressionZstd, CompressionLZ4:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (c Compression) String() string {
	return string(c)
}

// Description returns a human-readable description of the codec.
func (c Compression) Description() string {
	switch c {
	case CompressionNone:
		return "None (raw float32)"
	case CompressionZstd:
		return "Zstandard (smaller files)"
	case CompressionLZ4:
		return "LZ4 (fastest)"
	default:
		return unknownDescription
	}
}

// IndexSettings holds vector index configuration.
type IndexSettings struct {
	// Dir is the directory the index persists to.
	Dir string

	// Compression is the vector file codec.
	Compression Compression

	// Seed inserts the built-in system units into an empty index.
	Seed bool

	// SeedFile is an optional YAML file replacing the built-in seed units.
	SeedFile string
}

// MirrorSettings configures the S3-compatible index snapshot mirror.
type MirrorSettings struct {
	Endpoint  string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
	UseSSL    bool

	// PushOnPersist uploads a snapshot after every successful persist.
	PushOnPersist bool
}

// IsConfigured returns true if the mirror has somewhere to write.
func (m MirrorSettings) IsConfigured() bool {
	return m.Endpoint != "" && m.Bucket != ""
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds answer generator settings.
	LLM LLMSettings

	// Index holds vector index settings.
	Index IndexSettings

	// Mirror holds snapshot mirror settings.
	Mirror MirrorSettings

	// GroupSize is the number of Word paragraphs per text unit.
	GroupSize int

	// K is the default number of units retrieved per query.
	K int

	// StoreDir is the directory holding the SQLite database.
	StoreDir string

	// ServerAddr is the listen address of the HTTP API.
	ServerAddr string

	// WatchDir is an inbox directory whose new files are ingested automatically.
	WatchDir string
}

// DefaultGroupSize is the number of Word paragraphs grouped into one text unit.
const DefaultGroupSize = 3

// DefaultAppSettings returns settings with sensible defaults.
// Both AI providers default to a local Ollama instance.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:        AIProviderOllama,
			Model:           DefaultEmbeddingModels()[AIProviderOllama],
			Concurrency:     4,
			CacheTTLSeconds: 86400,
		},
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    DefaultLLMModels()[AIProviderOllama],
		},
		Index: IndexSettings{
			Compression: CompressionNone,
			Seed:        true,
		},
		Mirror: MirrorSettings{
			Prefix: "rag_index",
			UseSSL: true,
		},
		GroupSize:  DefaultGroupSize,
		K:          DefaultK,
		ServerAddr: ":8000",
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support answer generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// AllCompressions returns every vector file codec.
func AllCompressions() []Compression {
	return []Compression{
		CompressionNone,
		CompressionZstd,
		CompressionLZ4,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "all-minilm",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "mistral",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"all-minilm":        384,
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
