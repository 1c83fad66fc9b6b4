// Package app assembles the application services from configuration. It is
// shared by the HTTP server and the command line client.
package app

import (
	"fmt"
	"strings"

	"github.com/zatekoja/symptomchecker/backend/internal/adapters/providers/geolocation"
	"github.com/zatekoja/symptomchecker/backend/internal/application/services"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/repositories"
	"github.com/zatekoja/symptomchecker/backend/internal/infrastructure/clients/gemini"
	"github.com/zatekoja/symptomchecker/backend/internal/infrastructure/clients/openai"
	"github.com/zatekoja/symptomchecker/backend/pkg/config"
)

// Services groups the application services.
type Services struct {
	Diagnosis  *services.DiagnosisService
	Medication *services.MedicationService
	Care       *services.CareLocationService
	Geo        providers.GeolocationProvider
}

// NewModelProvider returns the model client selected by cfg.Provider.
func NewModelProvider(cfg *config.ModelConfig) (providers.GenerativeModelProvider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "gemini":
		return gemini.NewClient(cfg), nil
	case "openai":
		return openai.NewClient(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported model provider %q", cfg.Provider)
	}
}

// NewGeolocationProvider returns the Google provider behind a circuit breaker,
// or the offline provider when no key is configured or "mock" is selected.
func NewGeolocationProvider(cfg *config.MapsConfig, cache providers.CacheProvider) providers.GeolocationProvider {
	if strings.EqualFold(cfg.Provider, "mock") || cfg.APIKey == "" {
		return geolocation.NewMockGeolocationProvider()
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = geolocation.DefaultMapsBaseURL
	}
	google := geolocation.NewGoogleGeolocationProviderWithOptions(cfg.APIKey, cache, baseURL, nil)
	return geolocation.NewBreakerProvider("google-maps", google)
}

// NewServices builds every service. history and cache may be nil.
func NewServices(cfg *config.Config, history repositories.AnalysisRepository, cache providers.CacheProvider) (*Services, error) {
	model, err := NewModelProvider(&cfg.Model)
	if err != nil {
		return nil, err
	}

	caller := services.NewModelCaller(model, cfg.Retry.MaxRetries, cfg.Retry.BaseDelay)
	prompts := services.NewPromptBuilder(cfg.Model.Temperature, cfg.Model.MaxOutputTokens)
	geo := NewGeolocationProvider(&cfg.Maps, cache)

	return &Services{
		Diagnosis:  services.NewDiagnosisService(caller, prompts, history),
		Medication: services.NewMedicationService(caller, prompts, services.NewSessionStore()),
		Care:       services.NewCareLocationService(geo, cfg.Care.DeviceTimeout),
		Geo:        geo,
	}, nil
}
