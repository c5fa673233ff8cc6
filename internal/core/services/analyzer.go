package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
	"github.com/custodia-labs/sales-support-ai/internal/modeljson"
)

var analyzeOptions = driven.GenerateOptions{Temperature: 0.4, MaxTokens: 2048, JSON: true}

// analysisRecord is the model's answer as it arrives on the wire. Scalars
// accept numbers as well as strings because prices often come back numeric.
type analysisRecord struct {
	Name            modeljson.Text    `json:"product_name"`
	Type            modeljson.Text    `json:"product_type"`
	Price           modeljson.Text    `json:"price"`
	DiscountedPrice modeljson.Text    `json:"discounted_price"`
	Features        modeljson.Strings `json:"features"`
	Pros            modeljson.Strings `json:"pros"`
	Cons            modeljson.Strings `json:"cons"`
	WhyBuy          modeljson.Text    `json:"why_should_i_buy"`
	Summary         modeljson.Text    `json:"analysis_summary"`
	SourceSnippet   modeljson.Text    `json:"source_text_snippet"`
}

func (r *analysisRecord) toDomain(proposed string) *domain.EntityAnalysis {
	name := proposed
	if r.Name.Value != nil {
		name = *r.Name.Value
	}
	return &domain.EntityAnalysis{
		Name:            name,
		Type:            r.Type.Value,
		Price:           r.Price.Value,
		DiscountedPrice: r.DiscountedPrice.Value,
		Features:        listOrEmpty(r.Features),
		Pros:            listOrEmpty(r.Pros),
		Cons:            listOrEmpty(r.Cons),
		WhyBuy:          r.WhyBuy.Value,
		Summary:         r.Summary.Value,
		SourceSnippet:   r.SourceSnippet.Value,
	}
}

func listOrEmpty(items modeljson.Strings) []string {
	if items == nil {
		return []string{}
	}
	return []string(items)
}

// EntityAnalyzer asks a generative model for the structured record of one
// product within the shared document context.
type EntityAnalyzer struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	prefix  int
}

// NewEntityAnalyzer creates an analyzer using the same text prefix as the
// identifier.
func NewEntityAnalyzer(llm driven.LLMService, prompts driven.PromptStore, prefix int) *EntityAnalyzer {
	if prefix <= 0 {
		prefix = DefaultIdentifyPrefix
	}
	return &EntityAnalyzer{llm: llm, prompts: prompts, prefix: prefix}
}

// Analyze returns the record for name. An unparseable answer is an error
// wrapping domain.ErrMalformedModelOutput.
func (a *EntityAnalyzer) Analyze(ctx context.Context, name, text string) (*domain.EntityAnalysis, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("analyze product: %w", domain.ErrInvalidInput)
	}
	if a.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	prompt, err := renderPrompt(a.prompts, driven.PromptAnalyze, struct{ Name, Text string }{name, truncateRunes(text, a.prefix)})
	if err != nil {
		return nil, err
	}

	raw, err := a.llm.Generate(ctx, prompt, analyzeOptions)
	if err != nil {
		return nil, fmt.Errorf("analyze product %q: %w", name, err)
	}

	record, err := modeljson.Decode[analysisRecord](raw, modeljson.Object, modeljson.Strict, nil)
	if err != nil {
		return nil, fmt.Errorf("analyze product %q: %w", name, err)
	}
	return record.toDomain(name), nil
}
