package ai

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
)

// RateLimitConfig throttles calls to an external model.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate. Zero or less disables throttling.
	RequestsPerSecond float64
	// Burst is the maximum burst size. Values below one are treated as one.
	Burst int
}

func (c RateLimitConfig) limiter() *rate.Limiter {
	if c.RequestsPerSecond <= 0 {
		return nil
	}
	burst := c.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(c.RequestsPerSecond), burst)
}

// maxAttempts bounds calls per request when the provider reports a
// temporary failure (rate limited or 5xx).
const maxAttempts = 3

// temporary reports whether err carries a provider error that may succeed
// on retry.
func temporary(err error) bool {
	var t interface{ Temporary() bool }
	return errors.As(err, &t) && t.Temporary()
}

// Ensure the decorators implement the ports.
var (
	_ driven.LLMService       = (*rateLimitedLLM)(nil)
	_ driven.EmbeddingService = (*rateLimitedEmbedding)(nil)
)

type rateLimitedLLM struct {
	driven.LLMService
	limiter *rate.Limiter
}

// WithLLMRateLimit wraps svc so Generate waits for a token before each call
// and retries temporary provider failures, each retry taking a new token.
// It returns svc unchanged when throttling is disabled or svc is nil.
func WithLLMRateLimit(svc driven.LLMService, cfg RateLimitConfig) driven.LLMService {
	limiter := cfg.limiter()
	if svc == nil || limiter == nil {
		return svc
	}
	return &rateLimitedLLM{LLMService: svc, limiter: limiter}
}

func (r *rateLimitedLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	var err error
	for range maxAttempts {
		if werr := r.limiter.Wait(ctx); werr != nil {
			return "", fmt.Errorf("wait for llm rate limit: %w", werr)
		}
		var out string
		out, err = r.LLMService.Generate(ctx, prompt, opts)
		if err == nil || !temporary(err) {
			return out, err
		}
	}
	return "", err
}

type rateLimitedEmbedding struct {
	driven.EmbeddingService
	limiter *rate.Limiter
}

// WithEmbeddingRateLimit wraps svc so Embed waits for a token before each call.
func WithEmbeddingRateLimit(svc driven.EmbeddingService, cfg RateLimitConfig) driven.EmbeddingService {
	limiter := cfg.limiter()
	if svc == nil || limiter == nil {
		return svc
	}
	return &rateLimitedEmbedding{EmbeddingService: svc, limiter: limiter}
}

func (r *rateLimitedEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	var err error
	for range maxAttempts {
		if werr := r.limiter.Wait(ctx); werr != nil {
			return nil, fmt.Errorf("wait for embedding rate limit: %w", werr)
		}
		var vec []float32
		vec, err = r.EmbeddingService.Embed(ctx, text)
		if err == nil || !temporary(err) {
			return vec, err
		}
	}
	return nil, err
}
