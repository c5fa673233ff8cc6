package ai

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

const probeText = "connectivity check"

// ConfigValidator checks provider settings by creating each service and
// pinging it. Embedding providers also embed a probe string so that a
// model whose vector size differs from the configured dimensions is caught
// before it reaches the chunk store.
type ConfigValidator struct {
	probe bool
}

// NewConfigValidator creates a validator that probes embedding dimensions.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{probe: true}
}

// ValidateEmbedding returns nil when the provider is reachable or not configured.
func (v *ConfigValidator) ValidateEmbedding(ctx context.Context, config *domain.EmbeddingSettings) error {
	svc, err := CreateAndValidateEmbeddingService(ctx, config)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	if !v.probe {
		return nil
	}
	probeCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	vec, err := svc.Embed(probeCtx, probeText)
	if err != nil {
		return fmt.Errorf("%w: probe embedding failed: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if len(vec) != svc.Dimensions() {
		return fmt.Errorf("%w: %s produces %d dimensions, config says %d",
			domain.ErrEmbeddingUnavailable, svc.ModelName(), len(vec), svc.Dimensions())
	}
	return nil
}

// ValidateLLM returns nil when the provider is reachable or not configured.
func (v *ConfigValidator) ValidateLLM(ctx context.Context, config *domain.LLMSettings) error {
	svc, err := CreateAndValidateLLMService(ctx, config)
	if err != nil || svc == nil {
		return err
	}
	return svc.Close()
}
