package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
	"github.com/zatekoja/symptomchecker/backend/internal/infrastructure/observability"
)

const responseCachePrefix = "http:cache"

// CacheConfig holds cache configuration for specific routes
type CacheConfig struct {
	TTLSeconds int
	Enabled    bool
}

// DefaultCacheRoutes lists the GET routes whose JSON responses are stable
// enough to share. Routes that may answer with a fallback are left out.
var DefaultCacheRoutes = map[string]CacheConfig{
	"/api/geocode": {TTLSeconds: 3600, Enabled: true},
}

// CacheMiddleware serves repeated GETs of configured routes from the
// CacheProvider. Requests that identify a user are never shared.
type CacheMiddleware struct {
	cache        providers.CacheProvider
	metrics      *observability.Metrics
	routeConfigs map[string]CacheConfig
}

// NewCacheMiddleware creates a new cache middleware. nil routes selects
// DefaultCacheRoutes.
func NewCacheMiddleware(cache providers.CacheProvider, metrics *observability.Metrics, routes map[string]CacheConfig) *CacheMiddleware {
	if routes == nil {
		routes = DefaultCacheRoutes
	}
	return &CacheMiddleware{
		cache:        cache,
		metrics:      metrics,
		routeConfigs: routes,
	}
}

type cachedResponse struct {
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Middleware returns the cache middleware handler
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || m.cache == nil || r.Header.Get("X-User-ID") != "" {
			next.ServeHTTP(w, r)
			return
		}

		route, ok := m.routeFor(r.URL.Path)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		logger := observability.LoggerFromContext(r.Context())
		key := cacheKey(r)

		if data, err := m.cache.Get(r.Context(), key); err == nil {
			var entry cachedResponse
			if err := json.Unmarshal(data, &entry); err == nil {
				observability.RecordCacheHit(r.Context(), m.metrics, responseCachePrefix)
				w.Header().Set("X-Cache", "HIT")
				w.Header().Set("Content-Type", entry.ContentType)
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(entry.Body)
				return
			}
			logger.Warn().Str("path", r.URL.Path).Msg("discarding unreadable cached response")
		}

		observability.RecordCacheMiss(r.Context(), m.metrics, responseCachePrefix)
		w.Header().Set("X-Cache", "MISS")

		recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(recorder, r)

		if recorder.statusCode != http.StatusOK || recorder.body.Len() == 0 {
			return
		}
		data, _ := json.Marshal(cachedResponse{
			ContentType: w.Header().Get("Content-Type"),
			Body:        recorder.body.Bytes(),
		})
		if err := m.cache.Set(r.Context(), key, data, route.TTLSeconds); err != nil {
			logger.Warn().Err(err).Str("path", r.URL.Path).Msg("failed to cache response")
		}
	})
}

// routeFor matches exact paths first, then entries ending in "/" as prefixes.
func (m *CacheMiddleware) routeFor(path string) (CacheConfig, bool) {
	if route, ok := m.routeConfigs[path]; ok {
		return route, route.Enabled
	}
	for pattern, route := range m.routeConfigs {
		if strings.HasSuffix(pattern, "/") && strings.HasPrefix(path, pattern) {
			return route, route.Enabled
		}
	}
	return CacheConfig{}, false
}

// cacheKey hashes the path and the sorted query so parameter order does not
// split entries.
func cacheKey(r *http.Request) string {
	key := r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.Query().Encode()
	}
	hash := sha256.Sum256([]byte(key))
	return responseCachePrefix + ":" + hex.EncodeToString(hash[:])
}

// responseRecorder tees the body so it can be stored after the handler returns.
type responseRecorder struct {
	http.ResponseWriter
	statusCode  int
	body        bytes.Buffer
	wroteHeader bool
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	if r.wroteHeader {
		return
	}
	r.statusCode = statusCode
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}
