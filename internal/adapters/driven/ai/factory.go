// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	geminiembed "github.com/custodia-labs/sales-support-ai/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/sales-support-ai/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/sales-support-ai/internal/adapters/driven/embedding/openai"
	geminillm "github.com/custodia-labs/sales-support-ai/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/sales-support-ai/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/sales-support-ai/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
	"github.com/custodia-labs/sales-support-ai/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	Warnings         []string // Non-fatal issues; the affected service is nil.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		_ = r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		_ = r.LLMService.Close()
	}
}

// Init creates both model services from settings and throttles them with
// the pipeline rate limit. A service that cannot be created is left nil and
// reported in Warnings: search degrades to lexical matching without
// embeddings, identification and chat report the model as unavailable.
// When validate is set each service is pinged first.
func Init(ctx context.Context, settings domain.AppSettings, validate bool) *InitResult {
	result := &InitResult{}
	limit := RateLimitConfig{
		RequestsPerSecond: settings.Pipeline.RequestsPerSecond,
		Burst:             settings.Pipeline.Burst,
	}

	create := CreateEmbeddingService
	if validate {
		create = CreateAndValidateEmbeddingService
	}
	embedding, err := create(ctx, &settings.Embedding)
	if err != nil {
		logger.Warn("embedding service unavailable: %v", err)
		result.Warnings = append(result.Warnings, err.Error())
	} else if embedding == nil {
		result.Warnings = append(result.Warnings, "embedding provider not configured")
	}
	result.EmbeddingService = WithEmbeddingRateLimit(embedding, limit)

	createLLM := CreateLLMService
	if validate {
		createLLM = CreateAndValidateLLMService
	}
	llm, err := createLLM(ctx, &settings.LLM)
	if err != nil {
		logger.Warn("llm service unavailable: %v", err)
		result.Warnings = append(result.Warnings, err.Error())
	} else if llm == nil {
		result.Warnings = append(result.Warnings, "llm provider not configured")
	}
	result.LLMService = WithLLMRateLimit(llm, limit)

	return result
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Check the [embedding] section of the config",
			domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Check the [llm] section of the config",
			domain.ErrLLMUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrLLMUnavailable, err)
	}
	return svc, nil
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	dimensions := settings.Dimensions
	if dimensions == 0 {
		dimensions = domain.EmbeddingDimensions()[settings.Model]
	}

	switch settings.Provider {
	case domain.AIProviderGemini:
		return geminiembed.NewEmbeddingService(ctx, geminiembed.Config{
			APIKey:     settings.APIKey,
			Model:      settings.Model,
			Endpoint:   settings.BaseURL,
			Dimensions: dimensions,
		})

	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		})

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderGemini:
		return geminillm.NewLLMService(ctx, geminillm.LLMConfig{
			APIKey:   settings.APIKey,
			Model:    settings.Model,
			Endpoint: settings.BaseURL,
		})

	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}
