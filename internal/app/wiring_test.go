package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/symptomchecker/backend/internal/adapters/providers/geolocation"
	"github.com/zatekoja/symptomchecker/backend/pkg/config"
)

func TestNewModelProvider(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{provider: "", want: "gemini"},
		{provider: "gemini", want: "gemini"},
		{provider: "OpenAI", want: "openai"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			model, err := NewModelProvider(&config.ModelConfig{Provider: tt.provider})
			require.NoError(t, err)
			assert.Equal(t, tt.want, model.Name())
		})
	}

	_, err := NewModelProvider(&config.ModelConfig{Provider: "llama"})
	assert.Error(t, err)
}

func TestNewGeolocationProvider(t *testing.T) {
	assert.IsType(t, &geolocation.MockGeolocationProvider{}, NewGeolocationProvider(&config.MapsConfig{Provider: "google"}, nil))
	assert.IsType(t, &geolocation.MockGeolocationProvider{}, NewGeolocationProvider(&config.MapsConfig{Provider: "mock", APIKey: "key"}, nil))
	assert.IsType(t, &geolocation.BreakerProvider{}, NewGeolocationProvider(&config.MapsConfig{Provider: "google", APIKey: "key"}, nil))
}

func TestNewServices(t *testing.T) {
	cfg := &config.Config{Model: config.ModelConfig{Provider: "gemini"}}

	svc, err := NewServices(cfg, nil, nil)
	require.NoError(t, err)

	assert.NotNil(t, svc.Diagnosis)
	assert.NotNil(t, svc.Medication)
	assert.NotNil(t, svc.Care)
	assert.NotNil(t, svc.Geo)
}
