package driven

import "context"

// LLMService provides text generation for answer synthesis and structured
// metadata extraction. This is an optional service - when nil, answers
// degrade to an explanatory message and metadata extraction falls back to
// the deterministic extractor.
type LLMService interface {
	// Generate produces a text completion from a prompt.
	// May fail transiently; callers decide whether to recover.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// SystemPrompt, when non-empty, is sent as the system message.
	SystemPrompt string
}
