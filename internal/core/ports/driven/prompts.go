package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptAnswerSystem is the system prompt for answer generation.
	// This prompt has no format placeholders.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerWithContext wraps a question with retrieved context.
	// The template expects %s (context) then %s (question).
	PromptAnswerWithContext = "answer_with_context"

	// PromptAnswerWithoutContext is used when nothing relevant was retrieved.
	// The template expects %s (question).
	PromptAnswerWithoutContext = "answer_without_context"
)
