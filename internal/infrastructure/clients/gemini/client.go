package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
	"github.com/zatekoja/symptomchecker/backend/internal/infrastructure/observability"
	"github.com/zatekoja/symptomchecker/backend/pkg/config"
	"github.com/zatekoja/symptomchecker/backend/pkg/ratelimit"
	"golang.org/x/time/rate"
)

const (
	providerName    = "gemini"
	defaultBaseURL  = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel    = "gemini-2.0-flash"
	defaultTimeout  = 30 * time.Second
	maxErrorBodyLen = 512
)

// ErrEmptyAnswer is returned when a successful response carries no answer text.
var ErrEmptyAnswer = errors.New("gemini: response has no answer text")

// Client implements providers.GenerativeModelProvider against the Gemini
// generateContent API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new Gemini client. A missing API key is not an error
// here; Generate reports it on every call.
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
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		apiKey:     cfg.APIKey,
		model:      model,
		baseURL:    baseURL,
		httpClient: httpClient,
		limiter:    ratelimit.New(cfg.RateLimitRPM, cfg.RateLimitBurst),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return providerName
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature      float64                  `json:"temperature"`
	MaxOutputTokens  int                      `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string                   `json:"responseMimeType"`
	ResponseSchema   *entities.ResponseSchema `json:"responseSchema,omitempty"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate sends req and returns the text of the first candidate's first part.
func (c *Client) Generate(ctx context.Context, req *entities.ModelRequest) (string, error) {
	if c.apiKey == "" {
		return "", providers.ErrModelCredentialMissing
	}
	if req == nil {
		return "", errors.New("gemini: request is required")
	}

	waited, err := ratelimit.Wait(ctx, c.limiter)
	if err != nil {
		observability.RecordModelCall(ctx, providerName, c.model, 0, 0, err)
		return "", err
	}
	observability.RecordRateLimitWait(ctx, providerName, c.model, waited)

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: req.Instruction}}}},
		GenerationConfig: generationConfig{
			Temperature:      req.Temperature,
			MaxOutputTokens:  req.MaxOutputTokens,
			ResponseMimeType: "application/json",
			ResponseSchema:   req.Schema,
		},
	})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?%s", c.baseURL, url.PathEscape(c.model), url.Values{"key": {c.apiKey}}.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		observability.RecordModelCall(ctx, providerName, c.model, 0, time.Since(start), err)
		return "", fmt.Errorf("gemini: request failed: %w", redactKey(err, c.apiKey))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		svcErr := &providers.ModelServiceError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Body),
		}
		observability.RecordModelCall(ctx, providerName, c.model, resp.StatusCode, time.Since(start), svcErr)
		return "", svcErr
	}

	var payload generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		observability.RecordModelCall(ctx, providerName, c.model, resp.StatusCode, time.Since(start), err)
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	observability.RecordModelCall(ctx, providerName, c.model, resp.StatusCode, time.Since(start), nil)

	if len(payload.Candidates) == 0 || len(payload.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyAnswer
	}
	return payload.Candidates[0].Content.Parts[0].Text, nil
}

func errorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 64*1024))
	if err != nil || len(data) == 0 {
		return ""
	}
	var envelope errorEnvelope
	if json.Unmarshal(data, &envelope) == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	text := strings.TrimSpace(string(data))
	if len(text) > maxErrorBodyLen {
		text = text[:maxErrorBodyLen]
	}
	return text
}

// redactKey strips the API key from transport errors, which embed the request URL.
func redactKey(err error, key string) error {
	var urlErr *url.Error
	if key == "" || !errors.As(err, &urlErr) {
		return err
	}
	urlErr.URL = strings.ReplaceAll(urlErr.URL, key, "REDACTED")
	return err
}
