package routes

import (
	"net/http"

	"github.com/zatekoja/symptomchecker/backend/internal/api/handlers"
	"github.com/zatekoja/symptomchecker/backend/internal/api/middleware"
	"github.com/zatekoja/symptomchecker/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	analysisHandler    *handlers.AnalysisHandler
	medicationHandler  *handlers.MedicationHandler
	streamHandler      *handlers.SessionStreamHandler
	careHandler        *handlers.CareHandler
	geolocationHandler *handlers.GeolocationHandler
	photoHandler       *handlers.PlacesPhotoHandler

	cacheMiddleware *middleware.CacheMiddleware
	allowedOrigins  []string
	metrics         *observability.Metrics
	healthChecks    map[string]HealthCheck
}

// NewRouter creates a new router
func NewRouter(
	analysisHandler *handlers.AnalysisHandler,
	medicationHandler *handlers.MedicationHandler,
	streamHandler *handlers.SessionStreamHandler,
	careHandler *handlers.CareHandler,
	geolocationHandler *handlers.GeolocationHandler,
	photoHandler *handlers.PlacesPhotoHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                http.NewServeMux(),
		analysisHandler:    analysisHandler,
		medicationHandler:  medicationHandler,
		streamHandler:      streamHandler,
		careHandler:        careHandler,
		geolocationHandler: geolocationHandler,
		photoHandler:       photoHandler,
		cacheMiddleware:    cacheMiddleware,
		allowedOrigins:     allowedOrigins,
		metrics:            metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.health)

	// Symptom analysis
	r.mux.HandleFunc("POST /api/analyses", r.analysisHandler.SubmitAnalysis)
	r.mux.HandleFunc("GET /api/analyses", r.analysisHandler.ListAnalyses)

	// Medications
	r.mux.HandleFunc("POST /api/medications/suggestions", r.medicationHandler.Suggest)
	r.mux.HandleFunc("POST /api/medications/interactions", r.medicationHandler.CheckInteractions)

	r.mux.HandleFunc("POST /api/medication-sessions", r.medicationHandler.StartSession)
	r.mux.HandleFunc("GET /api/medication-sessions/{id}", r.medicationHandler.GetSession)
	r.mux.HandleFunc("POST /api/medication-sessions/{id}/medications", r.medicationHandler.AddMedication)
	r.mux.HandleFunc("DELETE /api/medication-sessions/{id}/medications/{index}", r.medicationHandler.RemoveMedication)
	r.mux.HandleFunc("GET /api/medication-sessions/{id}/events", r.streamHandler.StreamSession)

	// Nearby care
	r.mux.HandleFunc("GET /api/care/nearby", r.careHandler.Nearby)
	r.mux.HandleFunc("GET /api/care/search", r.careHandler.Search)

	// Geolocation and maps
	r.mux.HandleFunc("GET /api/geocode", r.geolocationHandler.Geocode)
	r.mux.HandleFunc("GET /api/places/photo", r.photoHandler.GetPhoto)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
