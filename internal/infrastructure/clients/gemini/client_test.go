package gemini

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

func testRequest() *entities.ModelRequest {
	return &entities.ModelRequest{
		Instruction:     "Symptoms: fever",
		Schema:          &entities.ResponseSchema{Type: entities.SchemaObject, Required: []string{"predictions"}},
		Temperature:     0.4,
		MaxOutputTokens: 3000,
	}
}

func newTestClient(serverURL string) *Client {
	return NewClient(&config.ModelConfig{
		APIKey:         "test-key",
		Model:          "gemini-test",
		BaseURL:        serverURL,
		RateLimitRPM:   6000,
		RateLimitBurst: 10,
	})
}

func TestGenerate_SendsStructuredRequest(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"predictions\":[]}"}]}}]}`))
	}))
	defer server.Close()

	text, err := newTestClient(server.URL).Generate(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, `{"predictions":[]}`, text)
	require.Len(t, got.Contents, 1)
	assert.Equal(t, "Symptoms: fever", got.Contents[0].Parts[0].Text)
	assert.Equal(t, "application/json", got.GenerationConfig.ResponseMimeType)
	assert.Equal(t, 0.4, got.GenerationConfig.Temperature)
	assert.Equal(t, 3000, got.GenerationConfig.MaxOutputTokens)
	require.NotNil(t, got.GenerationConfig.ResponseSchema)
	assert.Equal(t, entities.SchemaObject, got.GenerationConfig.ResponseSchema.Type)
}

func TestGenerate_StatusErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
	}{
		{name: "overloaded", status: http.StatusServiceUnavailable, transient: true},
		{name: "rate limited", status: http.StatusTooManyRequests, transient: true},
		{name: "bad request", status: http.StatusBadRequest, transient: false},
		{name: "forbidden", status: http.StatusForbidden, transient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"code":1,"message":"model is overloaded","status":"UNAVAILABLE"}}`))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).Generate(context.Background(), testRequest())

			var svcErr *providers.ModelServiceError
			require.True(t, errors.As(err, &svcErr))
			assert.Equal(t, tt.status, svcErr.StatusCode)
			assert.Equal(t, "model is overloaded", svcErr.Message)
			assert.Equal(t, tt.transient, providers.IsTransientModelError(err))
		})
	}
}

func TestGenerate_MissingKeyMakesNoRequest(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient(&config.ModelConfig{BaseURL: server.URL})
	_, err := client.Generate(context.Background(), testRequest())

	assert.ErrorIs(t, err, providers.ErrModelCredentialMissing)
	assert.False(t, called)
}

func TestGenerate_EmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Generate(context.Background(), testRequest())

	assert.ErrorIs(t, err, ErrEmptyAnswer)
	assert.False(t, providers.IsTransientModelError(err))
}

func TestGenerate_TransportErrorHidesKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	_, err := newTestClient(serverURL).Generate(context.Background(), testRequest())

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "test-key")
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(nil)

	assert.Equal(t, defaultModel, client.model)
	assert.Equal(t, defaultBaseURL, client.baseURL)
	assert.Equal(t, "gemini", client.Name())
	assert.NotNil(t, client.limiter)
}
