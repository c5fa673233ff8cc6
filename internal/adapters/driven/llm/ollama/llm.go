// Package ollama generates text with a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second

	// DefaultKeepAlive keeps the model loaded between pipeline stages.
	DefaultKeepAlive = "10m"
)

// LLMConfig holds configuration for the Ollama LLM service.
type LLMConfig struct {
	BaseURL   string
	Model     string
	Timeout   time.Duration
	KeepAlive string
}

// LLMService sends each prompt as a single user turn to /api/chat.
type LLMService struct {
	client    *http.Client
	baseURL   string
	model     string
	keepAlive string
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string    `json:"model"`
	Messages  []message `json:"messages"`
	Stream    bool      `json:"stream"`
	Format    string    `json:"format,omitempty"`
	KeepAlive string    `json:"keep_alive,omitempty"`
	Options   *options  `json:"options,omitempty"`
}

type options struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type chatResponse struct {
	Message    message `json:"message"`
	DoneReason string  `json:"done_reason"`
	Error      string  `json:"error"`
}

// NewLLMService creates a new Ollama LLM service.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	if cfg.KeepAlive == "" {
		cfg.KeepAlive = DefaultKeepAlive
	}

	return &LLMService{
		client:    &http.Client{Timeout: cfg.Timeout},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		model:     cfg.Model,
		keepAlive: cfg.KeepAlive,
	}
}

// Generate returns the assistant's reply to prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	req := chatRequest{
		Model:     s.model,
		Messages:  []message{{Role: "user", Content: prompt}},
		KeepAlive: s.keepAlive,
	}
	if opts.JSON {
		req.Format = "json"
	}
	if opts.MaxTokens > 0 || opts.Temperature > 0 || len(opts.StopWords) > 0 {
		req.Options = &options{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
			Stop:        opts.StopWords,
		}
	}

	var out chatResponse
	if err := s.do(ctx, http.MethodPost, "/api/chat", req, &out); err != nil {
		return "", err
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama: %s", out.Error)
	}
	return out.Message.Content, nil
}

// ModelName returns the configured model.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping checks that the server answers without loading the model.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.do(ctx, http.MethodGet, "/api/tags", nil, nil)
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}

func (s *LLMService) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ollama: decode response: %w", err)
	}
	return nil
}

// statusError prefers the {"error": "..."} body Ollama sends on failure.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	var e struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &e) == nil && e.Error != "" {
		msg = e.Error
	}
	if msg == "" {
		return errors.New("ollama: " + resp.Status)
	}
	return fmt.Errorf("ollama: status %d: %s", resp.StatusCode, msg)
}
