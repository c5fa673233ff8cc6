package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
)

func TestNewLLMService_RequiresKey(t *testing.T) {
	_, err := NewLLMService(LLMConfig{})
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	var got completionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"[\"Alpha\"]"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	svc, err := NewLLMService(LLMConfig{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	out, err := svc.Generate(context.Background(), "list products", driven.GenerateOptions{MaxTokens: 64, Temperature: 0.2})
	require.NoError(t, err)
	assert.Equal(t, `["Alpha"]`, out)
	assert.Equal(t, DefaultLLMModel, got.Model)
	assert.Equal(t, 64, got.MaxTokens)
	assert.Nil(t, got.ResponseFormat)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "list products", got.Messages[0].Content)
}

func TestGenerate_JSONMode(t *testing.T) {
	var got completionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{}"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	svc, err := NewLLMService(LLMConfig{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)
	_, err = svc.Generate(context.Background(), "analyze", driven.GenerateOptions{JSON: true})
	require.NoError(t, err)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		malformed bool
		apiStatus int
	}{
		{"api error", http.StatusUnauthorized, `{"error":{"message":"bad key","type":"auth"}}`, false, 401},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, false, 502},
		{"no choices", http.StatusOK, `{"choices":[]}`, true, 0},
		{"filtered", http.StatusOK, `{"choices":[{"message":{"content":""},"finish_reason":"content_filter"}]}`, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			svc, err := NewLLMService(LLMConfig{APIKey: "k", BaseURL: server.URL})
			require.NoError(t, err)
			_, err = svc.Generate(context.Background(), "p", driven.GenerateOptions{})
			require.Error(t, err)
			assert.Equal(t, tt.malformed, errors.Is(err, domain.ErrMalformedModelOutput))

			var apiErr *APIError
			if tt.apiStatus == 0 {
				assert.False(t, errors.As(err, &apiErr))
				return
			}
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.apiStatus, apiErr.StatusCode)
		})
	}
}

func TestAPIError_Temporary(t *testing.T) {
	assert.True(t, (&APIError{StatusCode: http.StatusTooManyRequests}).Temporary())
	assert.True(t, (&APIError{StatusCode: http.StatusServiceUnavailable}).Temporary())
	assert.False(t, (&APIError{StatusCode: http.StatusUnauthorized}).Temporary())
	assert.Equal(t, "openai: status 401 (auth): bad key", (&APIError{StatusCode: 401, Type: "auth", Message: "bad key"}).Error())
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	svc, err := NewLLMService(LLMConfig{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)
	assert.NoError(t, svc.Ping(context.Background()))
	assert.Equal(t, DefaultLLMModel, svc.ModelName())
}
