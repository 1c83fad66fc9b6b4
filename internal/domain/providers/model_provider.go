package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
)

// ErrModelCredentialMissing is returned before any request is made when the
// model service has no API key configured.
var ErrModelCredentialMissing = errors.New("model service api key is not configured")

// GenerativeModelProvider sends a structured generation request and returns the
// raw text of the single answer slot.
type GenerativeModelProvider interface {
	Generate(ctx context.Context, req *entities.ModelRequest) (string, error)

	// Name identifies the provider in logs and metrics.
	Name() string
}

// ModelServiceError is an HTTP-level failure reported by a model service.
type ModelServiceError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ModelServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s request failed with status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s request failed with status %d", e.Provider, e.StatusCode)
}

// Transient reports whether the status signals overload that may clear on retry.
func (e *ModelServiceError) Transient() bool {
	return e.StatusCode == http.StatusServiceUnavailable || e.StatusCode == http.StatusTooManyRequests
}

// IsTransientModelError reports whether err is a retryable model service failure.
func IsTransientModelError(err error) bool {
	var svcErr *ModelServiceError
	return errors.As(err, &svcErr) && svcErr.Transient()
}
