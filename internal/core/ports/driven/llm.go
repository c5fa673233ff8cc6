package driven

import "context"

// LLMService generates text from a prompt. Output is untrusted: callers
// that expect JSON must validate it.
//
// Implementations include:
//   - Gemini (generative-ai-go)
//   - OpenAI (chat completions)
//   - Ollama (local models)
type LLMService interface {
	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
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

	// StopWords are sequences that stop generation when encountered.
	StopWords []string

	// JSON asks for a single JSON object. Providers that cannot constrain
	// output ignore it, so callers still parse defensively.
	JSON bool
}
