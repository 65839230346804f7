package driven

import "context"

// AnswerGenerator produces text from a prompt and a system prompt.
// It is opaque to retrieval: the core supplies context and question and
// receives text back.
//
// Implementations may include:
//   - Ollama (mistral, llama3.2)
//   - OpenAI (GPT-4o)
//   - Anthropic (Claude)
type AnswerGenerator interface {
	// Generate produces a completion for prompt under systemPrompt.
	Generate(ctx context.Context, prompt, systemPrompt string) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
