// Package gemini provides an LLM service adapter using the Google Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// DefaultLLMModel is used when no model is configured.
const DefaultLLMModel = "gemini-2.0-flash"

// LLMConfig holds configuration for the Gemini LLM service.
type LLMConfig struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the generative model (default: gemini-2.0-flash).
	Model string

	// Endpoint overrides the API endpoint. Empty uses the public endpoint.
	Endpoint string
}

// LLMService generates text with a Gemini model.
type LLMService struct {
	client *genai.Client
	model  string
}

// NewLLMService creates a Gemini client for the configured model.
func NewLLMService(ctx context.Context, cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}

	client, err := genai.NewClient(ctx, clientOptions(cfg.APIKey, cfg.Endpoint)...)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &LLMService{client: client, model: cfg.Model}, nil
}

func clientOptions(apiKey, endpoint string) []option.ClientOption {
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	return opts
}

// Generate produces text completion from a prompt.
// A model handle is built per call so concurrent calls never share
// generation settings.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	model := s.client.GenerativeModel(s.model)
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}
	if opts.Temperature > 0 {
		model.SetTemperature(float32(opts.Temperature))
	}
	if len(opts.StopWords) > 0 {
		model.StopSequences = opts.StopWords
	}
	if opts.JSON {
		model.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	return responseText(resp)
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini: empty response")
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", fmt.Errorf("gemini: empty response (finish reason %s)", resp.Candidates[0].FinishReason)
	}

	var b strings.Builder
	for _, part := range content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String(), nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping fetches the model metadata, which validates the key and model name
// without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.GenerativeModel(s.model).Info(ctx); err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (s *LLMService) Close() error {
	return s.client.Close()
}
