package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sales-support-ai/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
)

func comparedPhones() []domain.SearchResult {
	return []domain.SearchResult{
		{ID: "alpha", Title: "Alpha X1", Category: "Smartphone", Features: []string{"5G"},
			Price: domain.PriceInfo{Amount: 30000, Currency: "INR"}},
		{ID: "beta", Title: "Beta Y2", Category: "Smartphone", Features: []string{"Long battery"},
			Price: domain.PriceInfo{Amount: 12000, Currency: "INR"}},
	}
}

func compareService(llm *fakeLLM) *SearchService {
	return NewSearchService(memory.NewEntityStore(), NewEmbedder(nil, 0), llm, newFakePrompts(), domain.RetrievalSettings{})
}

func answering(answer string) *fakeLLM {
	return &fakeLLM{respond: func(string) (string, error) { return answer, nil }}
}

func TestCompareQuestions(t *testing.T) {
	llm := answering("```json\n" + `{"questions": [
		{"id": "budget", "text": "What is your budget?", "options": ["Under 15k", "15k to 30k", "Above 30k"]},
		{"text": "How do you use your phone?", "options": ["Gaming", "Calls", " ", "Streaming"]},
		{"id": "bad", "text": "", "options": ["a", "b"]},
		{"id": "single", "text": "Only one option?", "options": ["yes"]}
	]}` + "\n```")
	svc := compareService(llm)

	questions, err := svc.CompareQuestions(context.Background(), comparedPhones())
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, domain.ComparisonQuestion{
		ID: "budget", Text: "What is your budget?", Options: []string{"Under 15k", "15k to 30k", "Above 30k"},
	}, questions[0])
	assert.Equal(t, "q2", questions[1].ID)
	assert.Equal(t, []string{"Gaming", "Calls", "Streaming"}, questions[1].Options)

	prompt := llm.lastPrompt()
	assert.True(t, strings.HasPrefix(prompt, "COMPARE 5\n"))
	assert.Contains(t, prompt, `"id": "alpha"`)
	assert.Contains(t, prompt, `"title": "Beta Y2"`)
	assert.Contains(t, prompt, `"price": 12000`)
}

func TestCompareQuestions_CapsCount(t *testing.T) {
	var b strings.Builder
	b.WriteString(`{"questions": [`)
	for i := range 8 {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`{"text": "Question?", "options": ["a", "b"]}`)
	}
	b.WriteString("]}")

	questions, err := compareService(answering(b.String())).CompareQuestions(context.Background(), comparedPhones())
	require.NoError(t, err)
	assert.Len(t, questions, ComparisonQuestionCount)
}

func TestCompareQuestions_Failures(t *testing.T) {
	tests := []struct {
		name    string
		llm     *fakeLLM
		wantErr error
		text    string
	}{
		{"not json", answering("Here are some questions!"), domain.ErrMalformedModelOutput, "no JSON value"},
		{"missing questions", answering(`{"items": []}`), domain.ErrMalformedModelOutput, "missing questions"},
		{"no usable questions", answering(`{"questions": [{"text": "", "options": []}]}`), domain.ErrMalformedModelOutput, "no usable questions"},
		{"model error", &fakeLLM{respond: func(string) (string, error) { return "", errors.New("overloaded") }}, nil, "overloaded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			questions, err := compareService(tt.llm).CompareQuestions(context.Background(), comparedPhones())
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Contains(t, err.Error(), tt.text)
			assert.Nil(t, questions)
		})
	}
}

func TestCompareQuestions_InvalidInput(t *testing.T) {
	llm := answering(`{"questions": []}`)
	svc := compareService(llm)

	_, err := svc.CompareQuestions(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.CompareQuestions(context.Background(), []domain.SearchResult{{Title: "No id"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, llm.calls())

	noModel := NewSearchService(memory.NewEntityStore(), NewEmbedder(nil, 0), nil, newFakePrompts(), domain.RetrievalSettings{})
	_, err = noModel.CompareQuestions(context.Background(), comparedPhones())
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestRecommend(t *testing.T) {
	llm := answering(`Sure! {"recommendedProductId": "beta", "explanation": "It fits a tight budget."}`)
	svc := compareService(llm)

	rec, err := svc.Recommend(context.Background(), domain.CompareRequest{
		Products: comparedPhones(),
		Answers:  map[string]string{"budget": "Under 15k"},
	})
	require.NoError(t, err)
	assert.Equal(t, &domain.Recommendation{RecommendedProductID: "beta", Explanation: "It fits a tight budget."}, rec)

	prompt := llm.lastPrompt()
	assert.True(t, strings.HasPrefix(prompt, "RECOMMEND\n"))
	assert.Contains(t, prompt, `"budget": "Under 15k"`)
}

func TestRecommend_Failures(t *testing.T) {
	answers := map[string]string{"budget": "Under 15k"}
	tests := []struct {
		name    string
		answer  string
		wantErr string
	}{
		{"not json", "I would pick the Beta.", "no JSON value"},
		{"missing id", `{"explanation": "Cheap."}`, "missing recommendedProductId"},
		{"unknown product", `{"recommendedProductId": "gamma", "explanation": "Best."}`, `unknown product "gamma"`},
		{"wrong shape", `{"recommendedProductId": ["beta"]}`, "expected scalar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := compareService(answering(tt.answer)).Recommend(context.Background(), domain.CompareRequest{
				Products: comparedPhones(), Answers: answers,
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrMalformedModelOutput)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Nil(t, rec)
		})
	}
}

func TestRecommend_InvalidInput(t *testing.T) {
	llm := answering(`{"recommendedProductId": "beta"}`)
	svc := compareService(llm)

	_, err := svc.Recommend(context.Background(), domain.CompareRequest{Answers: map[string]string{"q1": "a"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Recommend(context.Background(), domain.CompareRequest{Products: comparedPhones()})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, llm.calls())
}

func TestRecommend_DefaultExplanation(t *testing.T) {
	rec, err := compareService(answering(`{"recommendedProductId": "alpha", "explanation": null}`)).Recommend(
		context.Background(), domain.CompareRequest{Products: comparedPhones(), Answers: map[string]string{"q1": "Gaming"}})
	require.NoError(t, err)
	assert.Equal(t, "alpha", rec.RecommendedProductID)
	assert.Equal(t, "No explanation provided.", rec.Explanation)
}
