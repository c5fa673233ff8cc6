package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
	"github.com/custodia-labs/sales-support-ai/internal/logger"
	"github.com/custodia-labs/sales-support-ai/internal/modeljson"
)

// DefaultIdentifyPrefix is the number of document characters sent to the model.
const DefaultIdentifyPrefix = 15000

var identifyOptions = driven.GenerateOptions{Temperature: 0.2, MaxTokens: 1024}

// EntityIdentifier asks a generative model which products a document mentions.
type EntityIdentifier struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	prefix  int
}

// NewEntityIdentifier creates an identifier. A non-positive prefix selects
// DefaultIdentifyPrefix.
func NewEntityIdentifier(llm driven.LLMService, prompts driven.PromptStore, prefix int) *EntityIdentifier {
	if prefix <= 0 {
		prefix = DefaultIdentifyPrefix
	}
	return &EntityIdentifier{llm: llm, prompts: prompts, prefix: prefix}
}

// Identify returns the distinct product names in text. An unusable model
// answer yields an empty list; a failed model call is returned as an error.
func (i *EntityIdentifier) Identify(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if i.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	prompt, err := renderPrompt(i.prompts, driven.PromptIdentify, struct{ Text string }{truncateRunes(text, i.prefix)})
	if err != nil {
		return nil, err
	}

	raw, err := i.llm.Generate(ctx, prompt, identifyOptions)
	if err != nil {
		return nil, fmt.Errorf("identify products: %w", err)
	}

	names, _ := modeljson.StringArray(raw, modeljson.Lenient)
	if names == nil {
		logger.Debug("Identifier: unusable model answer (%d chars), treating as no products", len(raw))
		return nil, nil
	}
	return names, nil
}
