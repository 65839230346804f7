package driven

import "context"

// Embedder generates vector embeddings for text.
// Vectors from one Embedder all share the same length, and the same text
// always maps to the same vector for a given model.
//
// Implementations may include:
//   - Ollama (all-minilm, nomic-embed-text)
//   - OpenAI and compatible servers (text-embedding-3-*)
type Embedder interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedMany generates embeddings for multiple texts.
	// The result has one vector per input, in input order.
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the model is reachable.
	// This is used at startup; a failure there is fatal to retrieval.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
