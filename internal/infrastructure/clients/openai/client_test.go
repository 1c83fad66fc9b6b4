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
	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
	"github.com/zatekoja/symptomchecker/backend/pkg/config"
)

func newTestClient(serverURL string) *Client {
	return NewClient(&config.ModelConfig{
		APIKey:         "sk-test",
		Model:          "gpt-test",
		BaseURL:        serverURL + "/v1",
		RateLimitRPM:   6000,
		RateLimitBurst: 10,
	})
}

func testRequest() *entities.ModelRequest {
	return &entities.ModelRequest{
		Instruction:     "Suggest medications for Influenza",
		Schema:          &entities.ResponseSchema{Type: entities.SchemaObject, Required: []string{"medications"}},
		Temperature:     0.4,
		MaxOutputTokens: 3000,
	}
}

func TestGenerate_ChatCompletion(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"medications\":[]}"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	text, err := newTestClient(server.URL).Generate(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, `{"medications":[]}`, text)
	assert.Equal(t, "gpt-test", body["model"])
	format, ok := body["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 3)
}

func TestGenerate_StatusMapsToModelServiceError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
	}{
		{name: "overloaded", status: http.StatusServiceUnavailable, transient: true},
		{name: "rate limited", status: http.StatusTooManyRequests, transient: true},
		{name: "unauthorized", status: http.StatusUnauthorized, transient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"try later","type":"server_error"}}`))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).Generate(context.Background(), testRequest())

			var svcErr *providers.ModelServiceError
			require.True(t, errors.As(err, &svcErr))
			assert.Equal(t, tt.status, svcErr.StatusCode)
			assert.Equal(t, tt.transient, providers.IsTransientModelError(err))
		})
	}
}

func TestGenerate_MissingKey(t *testing.T) {
	_, err := NewClient(&config.ModelConfig{}).Generate(context.Background(), testRequest())

	assert.ErrorIs(t, err, providers.ErrModelCredentialMissing)
}
