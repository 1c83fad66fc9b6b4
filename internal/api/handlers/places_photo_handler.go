package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
	"github.com/zatekoja/symptomchecker/backend/internal/infrastructure/observability"
)

const (
	placesPhotoURL       = "https://maps.googleapis.com/maps/api/place/photo"
	defaultPhotoMaxWidth = 400
	maxPhotoMaxWidth     = 1600
	maxPhotoBytes        = 5 << 20
	placesPhotoCacheTTL  = 60 * 60 * 24 * 7
	placesPhotoPrefix    = "places:photo"
)

// PlacesPhotoHandler proxies place photos so the maps key stays on the server.
type PlacesPhotoHandler struct {
	apiKey  string
	cache   providers.CacheProvider
	metrics *observability.Metrics
	client  *http.Client
	baseURL string
}

// NewPlacesPhotoHandler creates a new places photo handler.
func NewPlacesPhotoHandler(apiKey string, cache providers.CacheProvider, metrics *observability.Metrics) *PlacesPhotoHandler {
	return NewPlacesPhotoHandlerWithOptions(apiKey, cache, metrics, placesPhotoURL, nil)
}

// NewPlacesPhotoHandlerWithOptions allows overriding base URL and HTTP client (used for tests).
func NewPlacesPhotoHandlerWithOptions(apiKey string, cache providers.CacheProvider, metrics *observability.Metrics, baseURL string, client *http.Client) *PlacesPhotoHandler {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = placesPhotoURL
	}
	if client == nil {
		client = &http.Client{Timeout: 8 * time.Second}
	}
	return &PlacesPhotoHandler{
		apiKey:  apiKey,
		cache:   cache,
		metrics: metrics,
		client:  client,
		baseURL: baseURL,
	}
}

// GetPhoto handles GET /api/places/photo?photoreference=...&maxwidth=...
func (h *PlacesPhotoHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	if h.apiKey == "" {
		respondWithError(w, http.StatusServiceUnavailable, "maps api key not configured")
		return
	}

	query := r.URL.Query()
	reference := strings.TrimSpace(query.Get("photoreference"))
	if reference == "" {
		respondWithError(w, http.StatusBadRequest, "photoreference parameter is required")
		return
	}

	maxWidth := defaultPhotoMaxWidth
	if raw := strings.TrimSpace(query.Get("maxwidth")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxPhotoMaxWidth {
			respondWithError(w, http.StatusBadRequest, "invalid maxwidth parameter")
			return
		}
		maxWidth = parsed
	}

	values := url.Values{}
	values.Set("photoreference", reference)
	values.Set("maxwidth", strconv.Itoa(maxWidth))

	cacheKey := placesPhotoPrefix + ":" + hashString(values.Encode())
	if h.cache != nil {
		if cached, err := h.cache.Get(r.Context(), cacheKey); err == nil && len(cached) > 0 {
			observability.RecordCacheHit(r.Context(), h.metrics, placesPhotoPrefix)
			writeImage(w, http.DetectContentType(cached), cached)
			return
		}
		observability.RecordCacheMiss(r.Context(), h.metrics, placesPhotoPrefix)
	}

	values.Set("key", h.apiKey)
	photoURL := fmt.Sprintf("%s?%s", h.baseURL, values.Encode())
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, photoURL, nil)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to build photo request")
		return
	}

	resp, err := h.client.Do(req)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "failed to fetch place photo")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respondWithError(w, http.StatusBadGateway, "photo provider returned an error")
		return
	}

	imageBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to read place photo")
		return
	}

	if h.cache != nil {
		_ = h.cache.Set(r.Context(), cacheKey, imageBytes, placesPhotoCacheTTL)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(imageBytes)
	}
	writeImage(w, contentType, imageBytes)
}

func writeImage(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func hashString(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
