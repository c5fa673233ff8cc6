// Package ollama embeds text with a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultModel      = "nomic-embed-text"
	DefaultTimeout    = 30 * time.Second
	DefaultDimensions = 768
)

// Config holds configuration for the Ollama embedding service.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration

	// Dimensions is the vector size the model produces.
	Dimensions int
}

// EmbeddingService generates embeddings with the /api/embed endpoint.
// Inputs longer than the model context are truncated by the server.
type EmbeddingService struct {
	client     *http.Client
	baseURL    string
	model      string
	dimensions int
}

type embedRequest struct {
	Model    string   `json:"model"`
	Input    []string `json:"input"`
	Truncate bool     `json:"truncate"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// NewEmbeddingService creates a new Ollama embedding service.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	return &EmbeddingService{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

// Embed returns the vector for text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	var out embedResponse
	if err := s.do(ctx, http.MethodPost, "/api/embed", embedRequest{
		Model:    s.model,
		Input:    []string{text},
		Truncate: true,
	}, &out); err != nil {
		return nil, err
	}

	if len(out.Embeddings) != 1 || len(out.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("ollama: no embedding from %s: %w", s.model, domain.ErrMalformedModelOutput)
	}
	vec := out.Embeddings[0]
	if len(vec) != s.dimensions {
		return nil, fmt.Errorf("ollama: %s returned %d dimensions, configured %d: %w",
			s.model, len(vec), s.dimensions, domain.ErrMalformedModelOutput)
	}
	return vec, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the configured model.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping checks that the server answers and has the model pulled.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	var tags tagsResponse
	if err := s.do(ctx, http.MethodGet, "/api/tags", nil, &tags); err != nil {
		return err
	}
	for _, m := range tags.Models {
		if m.Name == s.model || strings.HasPrefix(m.Name, s.model+":") {
			return nil
		}
	}
	return fmt.Errorf("ollama: model %s is not available; run `ollama pull %s`", s.model, s.model)
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

func (s *EmbeddingService) do(ctx context.Context, method, path string, in, out any) error {
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
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("ollama: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ollama: decode response: %w", err)
	}
	return nil
}
