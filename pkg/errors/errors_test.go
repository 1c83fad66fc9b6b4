package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorIncludesCause(t *testing.T) {
	err := NewExternalError("model request failed", errors.New("status 500"))

	assert.Equal(t, "EXTERNAL: model request failed: status 500", err.Error())
	assert.Equal(t, "model request failed: status 500", err.Detail())
}

func TestTypeOf(t *testing.T) {
	wrapped := fmt.Errorf("diagnosis: %w", NewConfigurationError("api key missing"))

	assert.Equal(t, ErrorTypeConfiguration, TypeOf(wrapped))
	assert.Equal(t, ErrorTypeInternal, TypeOf(errors.New("plain")))
	assert.True(t, Is(wrapped, ErrorTypeConfiguration))
	assert.False(t, Is(wrapped, ErrorTypeTransient))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "boom", Message(errors.New("boom")))
	assert.Equal(t, "Location not found", Message(&AppError{Type: ErrorTypeLocationNotFound, Message: "Location not found"}))
}
