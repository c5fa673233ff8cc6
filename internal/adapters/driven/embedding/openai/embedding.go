// Package openai embeds text with the OpenAI embeddings API or any
// compatible endpoint.
package openai

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

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second

	// MaxBatch is the largest number of inputs sent in one request.
	MaxBatch = 256

	maxErrorBody = 4 << 10
)

var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config holds configuration for the OpenAI embedding service.
type Config struct {
	// APIKey is required.
	APIKey string

	// BaseURL selects Azure OpenAI or a compatible server.
	BaseURL string

	Model   string
	Timeout time.Duration

	// Dimensions is the vector size every response must have. Models of
	// the text-embedding-3 family are asked to shorten to it.
	Dimensions int
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openai: status %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether retrying later may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// EmbeddingService generates embeddings using the OpenAI API.
type EmbeddingService struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	shorten    bool
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewEmbeddingService creates a new OpenAI embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	dims := cfg.Dimensions
	if dims == 0 {
		if d, ok := modelDimensions[cfg.Model]; ok {
			dims = d
		} else {
			dims = modelDimensions[DefaultModel]
		}
	}

	return &EmbeddingService{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: dims,
		shorten:    strings.HasPrefix(cfg.Model, "text-embedding-3"),
	}, nil
}

// Embed returns the vector for text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if vectors[0] == nil {
		return nil, fmt.Errorf("openai: no embedding returned: %w", domain.ErrMalformedModelOutput)
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in requests of at most MaxBatch inputs. The
// result is ordered like texts; blank texts get a nil vector and are not
// sent.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	var (
		batch []string
		slots []int
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		vectors, err := s.request(ctx, batch)
		if err != nil {
			return err
		}
		for i, v := range vectors {
			out[slots[i]] = v
		}
		batch, slots = batch[:0], slots[:0]
		return nil
	}

	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		batch = append(batch, t)
		slots = append(slots, i)
		if len(batch) == MaxBatch {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *EmbeddingService) request(ctx context.Context, inputs []string) ([][]float32, error) {
	reqBody := embeddingRequest{Model: s.model, Input: inputs}
	if s.shorten {
		reqBody.Dimensions = s.dimensions
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	var decoded embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	if decoded.Error != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: decoded.Error.Message}
	}
	if len(decoded.Data) != len(inputs) {
		return nil, fmt.Errorf("openai: %d embeddings for %d inputs: %w",
			len(decoded.Data), len(inputs), domain.ErrMalformedModelOutput)
	}

	vectors := make([][]float32, len(inputs))
	for _, d := range decoded.Data {
		if d.Index < 0 || d.Index >= len(inputs) || vectors[d.Index] != nil {
			return nil, fmt.Errorf("openai: embedding index %d: %w", d.Index, domain.ErrMalformedModelOutput)
		}
		if len(d.Embedding) != s.dimensions {
			return nil, fmt.Errorf("openai: embedding has %d dimensions, want %d: %w",
				len(d.Embedding), s.dimensions, domain.ErrMalformedModelOutput)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var decoded embeddingResponse
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &decoded) == nil && decoded.Error != nil {
		msg = decoded.Error.Message
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the configured model.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping lists models, which checks the key without running inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readAPIError(resp)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
