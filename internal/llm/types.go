package llm

import "errors"

// ErrEmptyCompletion is returned when the model answers with no usable text.
var ErrEmptyCompletion = errors.New("llm: empty completion")

// Message represents a single message in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatParams holds parameters for chat completion requests.
type ChatParams struct {
	// Model specifies the model to use. If empty, the client's default model is used.
	Model string

	// MaxTokens caps the number of generated tokens. 0 leaves it to the server.
	MaxTokens int

	// Temperature is always sent; 0 selects greedy decoding.
	Temperature float32
}
