// Package inference answers free-form questions for the assistant.
//
// Providers implement a small chat interface. The online provider talks to
// the Gemini API; the offline provider is a rule table that always answers.
// Chain stacks them so the assistant keeps talking when the network or the
// quota runs out.
package inference

import "context"

// Provider generates chat responses.
type Provider interface {
	// Name identifies the provider in logs and routing decisions.
	Name() string

	// Chat generates a response from a sequence of messages.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Capabilities returns what this provider supports.
	Capabilities() Capabilities

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// Capabilities describes a provider.
type Capabilities struct {
	Chat   bool // supports chat completions
	Online bool // needs network and counts against API quota
}

// ChatRequest for chat completions.
type ChatRequest struct {
	// Messages is the conversation history.
	Messages []Message

	// Model overrides the default model.
	Model string

	// MaxTokens limits the response length.
	MaxTokens int

	// Temperature controls randomness (0.0-2.0).
	Temperature float64
}

// ChatResponse from chat completion.
type ChatResponse struct {
	// Message is the assistant's response.
	Message Message

	// FinishReason indicates why generation stopped.
	FinishReason string

	// Provider that produced the response.
	Provider string

	// Model used for generation.
	Model string

	// LatencyMs is the response time in milliseconds.
	LatencyMs int64
}
