package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
	"github.com/custodia-labs/sales-support-ai/internal/logger"
	"github.com/custodia-labs/sales-support-ai/internal/modeljson"
)

// ComparisonQuestionCount is how many questions a comparison asks for.
const ComparisonQuestionCount = 5

var compareOptions = driven.GenerateOptions{Temperature: 0.4, MaxTokens: 2048, JSON: true}

// comparedProduct is the slice of a search result the model sees.
type comparedProduct struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Category    string   `json:"category,omitempty"`
	Description string   `json:"description,omitempty"`
	Features    []string `json:"features,omitempty"`
	Pros        []string `json:"pros,omitempty"`
	Cons        []string `json:"cons,omitempty"`
	Price       float64  `json:"price,omitempty"`
	Currency    string   `json:"currency,omitempty"`
}

type comparisonQuestion struct {
	ID      modeljson.Text    `json:"id"`
	Text    modeljson.Text    `json:"text"`
	Options modeljson.Strings `json:"options"`
}

type comparisonQuestions struct {
	Questions []comparisonQuestion `json:"questions"`
}

func (q *comparisonQuestions) validate() error {
	if len(q.Questions) == 0 {
		return errors.New("missing questions")
	}
	return nil
}

type recommendation struct {
	ProductID   modeljson.Text `json:"recommendedProductId"`
	Explanation modeljson.Text `json:"explanation"`
}

func (r *recommendation) validate() error {
	if r.ProductID.Value == nil {
		return errors.New("missing recommendedProductId")
	}
	return nil
}

// CompareQuestions asks the model for multiple-choice questions that separate
// the given products. Questions without text or with fewer than two options
// are dropped; an answer with none left is malformed.
func (s *SearchService) CompareQuestions(ctx context.Context, products []domain.SearchResult) ([]domain.ComparisonQuestion, error) {
	catalog, err := comparedCatalog(products)
	if err != nil {
		return nil, err
	}
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	logger.Section("Product Comparison")
	prompt, err := renderPrompt(s.prompts, driven.PromptCompare, struct {
		Products string
		Count    int
	}{catalog, ComparisonQuestionCount})
	if err != nil {
		return nil, err
	}

	raw, err := s.llm.Generate(ctx, prompt, compareOptions)
	if err != nil {
		return nil, fmt.Errorf("comparison request failed: %w", err)
	}

	parsed, err := modeljson.Decode(raw, modeljson.Object, modeljson.Strict, (*comparisonQuestions).validate)
	if err != nil {
		logger.Warn("Compare: %v", err)
		return nil, err
	}

	questions := make([]domain.ComparisonQuestion, 0, len(parsed.Questions))
	for _, q := range parsed.Questions {
		if len(questions) == ComparisonQuestionCount {
			break
		}
		text := textOr(q.Text, "")
		options := nonBlank(q.Options)
		if text == "" || len(options) < 2 {
			continue
		}
		questions = append(questions, domain.ComparisonQuestion{
			ID:      textOr(q.ID, fmt.Sprintf("q%d", len(questions)+1)),
			Text:    text,
			Options: options,
		})
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no usable questions", domain.ErrMalformedModelOutput)
	}
	logger.Info("Compare: %d questions for %d products", len(questions), len(products))
	return questions, nil
}

// Recommend asks the model which of the products fits the shopper's answers.
// A recommendation naming a product outside the set is malformed.
func (s *SearchService) Recommend(ctx context.Context, req domain.CompareRequest) (*domain.Recommendation, error) {
	catalog, err := comparedCatalog(req.Products)
	if err != nil {
		return nil, err
	}
	if len(req.Answers) == 0 {
		return nil, fmt.Errorf("answers are required: %w", domain.ErrInvalidInput)
	}
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	answers, err := json.MarshalIndent(req.Answers, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}

	logger.Section("Product Recommendation")
	prompt, err := renderPrompt(s.prompts, driven.PromptRecommend, struct {
		Products string
		Answers  string
	}{catalog, string(answers)})
	if err != nil {
		return nil, err
	}

	raw, err := s.llm.Generate(ctx, prompt, compareOptions)
	if err != nil {
		return nil, fmt.Errorf("recommendation request failed: %w", err)
	}

	parsed, err := modeljson.Decode(raw, modeljson.Object, modeljson.Strict, (*recommendation).validate)
	if err != nil {
		logger.Warn("Recommend: %v", err)
		return nil, err
	}

	id := *parsed.ProductID.Value
	if !slices.ContainsFunc(req.Products, func(p domain.SearchResult) bool { return p.ID == id }) {
		return nil, fmt.Errorf("%w: recommended unknown product %q", domain.ErrMalformedModelOutput, id)
	}
	logger.Info("Recommend: %s", id)
	return &domain.Recommendation{
		RecommendedProductID: id,
		Explanation:          textOr(parsed.Explanation, "No explanation provided."),
	}, nil
}

func nonBlank(items modeljson.Strings) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// comparedCatalog renders the products as the JSON list the prompts embed.
func comparedCatalog(products []domain.SearchResult) (string, error) {
	if len(products) == 0 {
		return "", fmt.Errorf("at least one product is required: %w", domain.ErrInvalidInput)
	}
	view := make([]comparedProduct, len(products))
	for i := range products {
		p := &products[i]
		if strings.TrimSpace(p.ID) == "" {
			return "", fmt.Errorf("product %d has no id: %w", i+1, domain.ErrInvalidInput)
		}
		view[i] = comparedProduct{
			ID:          p.ID,
			Title:       p.Title,
			Category:    p.Category,
			Description: p.Description,
			Features:    p.Features,
			Pros:        p.Pros,
			Cons:        p.Cons,
			Price:       p.Price.Amount,
			Currency:    p.Price.Currency,
		}
	}
	out, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode products: %w", err)
	}
	return string(out), nil
}
