package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
	"github.com/zatekoja/symptomchecker/backend/internal/infrastructure/observability"
	"github.com/zatekoja/symptomchecker/backend/pkg/config"
	"github.com/zatekoja/symptomchecker/backend/pkg/ratelimit"
	"golang.org/x/time/rate"
)

const (
	providerName   = "openai"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 30 * time.Second
)

const systemPrompt = "You are a careful medical information assistant. Always answer with a single JSON object and nothing else."

// ErrEmptyAnswer is returned when a completion has no choices.
var ErrEmptyAnswer = errors.New("openai: completion has no choices")

// Client implements providers.GenerativeModelProvider on the chat completions API.
type Client struct {
	apiKey  string
	model   string
	api     *goopenai.Client
	limiter *rate.Limiter
}

// NewClient creates a new OpenAI client. A missing API key is reported by Generate.
func NewClient(cfg *config.ModelConfig) *Client {
	return NewClientWithHTTPClient(cfg, nil)
}

// NewClientWithHTTPClient creates a client using the given HTTP client.
func NewClientWithHTTPClient(cfg *config.ModelConfig, httpClient *http.Client) *Client {
	if cfg == nil {
		cfg = &config.ModelConfig{}
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	apiCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	apiCfg.HTTPClient = httpClient

	return &Client{
		apiKey:  cfg.APIKey,
		model:   model,
		api:     goopenai.NewClientWithConfig(apiCfg),
		limiter: ratelimit.New(cfg.RateLimitRPM, cfg.RateLimitBurst),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return providerName
}

// Generate sends req as a JSON-mode chat completion and returns the first choice's content.
func (c *Client) Generate(ctx context.Context, req *entities.ModelRequest) (string, error) {
	if c.apiKey == "" {
		return "", providers.ErrModelCredentialMissing
	}
	if req == nil {
		return "", errors.New("openai: request is required")
	}

	waited, err := ratelimit.Wait(ctx, c.limiter)
	if err != nil {
		observability.RecordModelCall(ctx, providerName, c.model, 0, 0, err)
		return "", err
	}
	observability.RecordRateLimitWait(ctx, providerName, c.model, waited)

	messages := []goopenai.ChatCompletionMessage{
		{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
	}
	if req.Schema != nil {
		schema, err := json.Marshal(req.Schema)
		if err != nil {
			return "", err
		}
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: "The JSON object must match this schema: " + string(schema),
		})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: req.Instruction})

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxOutputTokens,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		mapped := mapError(err)
		observability.RecordModelCall(ctx, providerName, c.model, statusOf(mapped), time.Since(start), mapped)
		return "", mapped
	}
	observability.RecordModelCall(ctx, providerName, c.model, http.StatusOK, time.Since(start), nil)

	if len(resp.Choices) == 0 {
		return "", ErrEmptyAnswer
	}
	return resp.Choices[0].Message.Content, nil
}

// mapError turns HTTP-level SDK errors into ModelServiceError so the retry
// policy treats both providers alike.
func mapError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &providers.ModelServiceError{Provider: providerName, StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		msg := ""
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &providers.ModelServiceError{Provider: providerName, StatusCode: reqErr.HTTPStatusCode, Message: msg}
	}
	return fmt.Errorf("openai: %w", err)
}

func statusOf(err error) int {
	var svcErr *providers.ModelServiceError
	if errors.As(err, &svcErr) {
		return svcErr.StatusCode
	}
	return 0
}
