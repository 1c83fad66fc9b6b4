package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
	"github.com/zatekoja/symptomchecker/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/symptomchecker/backend/pkg/errors"
	"github.com/zatekoja/symptomchecker/backend/pkg/retry"
)

// Shared retry policy for every model pipeline.
const (
	DefaultModelRetries   = 2
	DefaultModelBaseDelay = time.Second
)

// ModelCaller sends structured requests to a generative model, retrying
// overload responses, and parses the answer.
type ModelCaller struct {
	provider providers.GenerativeModelProvider
	policy   retry.Config
}

// NewModelCaller creates a caller that retries 503/429 responses up to
// maxRetries extra times, waiting baseDelay, 2*baseDelay, ... between attempts.
func NewModelCaller(provider providers.GenerativeModelProvider, maxRetries int, baseDelay time.Duration) *ModelCaller {
	if maxRetries < 0 {
		maxRetries = DefaultModelRetries
	}
	if baseDelay <= 0 {
		baseDelay = DefaultModelBaseDelay
	}
	policy := retry.LinearConfig(maxRetries, baseDelay)
	policy.Retryable = providers.IsTransientModelError
	return &ModelCaller{provider: provider, policy: policy}
}

// WithSleep replaces the delay function between attempts.
func (c *ModelCaller) WithSleep(sleep retry.SleepFunc) *ModelCaller {
	c.policy.Sleep = sleep
	return c
}

// Call performs the request and parses the answer. The returned error is an
// *apperrors.AppError whose type tells the caller which fallback to use; the
// ParseResult is returned as well so failed answers can be inspected.
func (c *ModelCaller) Call(ctx context.Context, req *entities.ModelRequest, collectionField string) (ParseResult, error) {
	logger := observability.LoggerFromContext(ctx)

	if c.provider == nil {
		return ParseResult{}, apperrors.NewConfigurationError("analysis service is not configured")
	}

	var raw string
	err := retry.DoWithLog(ctx, c.policy, c.provider.Name(), func(attempt int) error {
		text, err := c.provider.Generate(ctx, req)
		if err != nil {
			if errors.Is(err, providers.ErrModelCredentialMissing) {
				return &retry.NonRetryable{Err: err}
			}
			return err
		}
		raw = text
		return nil
	}, func(attempt int, err error, nextDelay time.Duration) {
		logger.Warn().
			Err(err).
			Str("provider", c.provider.Name()).
			Int("attempt", attempt).
			Dur("next_delay", nextDelay).
			Msg("model service overloaded, retrying")
	})
	if err != nil {
		return ParseResult{}, classifyCallError(err)
	}

	result := ParseModelResponse(raw, collectionField)
	if !result.OK() {
		logger.Warn().
			Str("provider", c.provider.Name()).
			Str("outcome", result.Outcome.String()).
			Str("reason", result.Reason).
			Str("raw", truncate(result.Raw, 2000)).
			Msg("model answer rejected")
		return result, result.Err()
	}
	return result, nil
}

func classifyCallError(err error) error {
	if errors.Is(err, providers.ErrModelCredentialMissing) {
		return apperrors.NewConfigurationError("analysis service is not configured")
	}

	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) && providers.IsTransientModelError(err) {
		return apperrors.NewTransientError(
			fmt.Sprintf("analysis service still unavailable after %d attempts", exhausted.Attempts),
			exhausted.Err,
		)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewExternalError("analysis request was interrupted", err)
	}
	return apperrors.NewExternalError("analysis request failed", err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
