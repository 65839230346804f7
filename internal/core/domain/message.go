package domain

import "time"

// Message senders.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// Message is one entry of the chat history.
type Message struct {
	// ID is the store-assigned identifier.
	ID int64 `json:"id"`

	// Content is the message text.
	Content string `json:"content"`

	// Sender is "user" or "assistant".
	Sender string `json:"sender"`

	// Timestamp is when the message was written (UTC).
	Timestamp time.Time `json:"timestamp"`
}

// IsValidSender returns true if sender is a known chat participant.
func IsValidSender(sender string) bool {
	return sender == SenderUser || sender == SenderAssistant
}

// Answer is a generated response together with the material it was grounded on.
type Answer struct {
	// Response is the generated text.
	Response string `json:"response"`

	// Sources are the citations for the retrieved context.
	Sources []Source `json:"sources"`

	// Grounded is false when no context was found and the model answered
	// from general knowledge.
	Grounded bool `json:"grounded"`
}

// AskOptions configures answer generation.
type AskOptions struct {
	// Query configures the retrieval step.
	Query QueryOptions

	// Remember stores the question and answer in the chat history.
	Remember bool
}
