package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck probes one backing dependency.
type HealthCheck func(ctx context.Context) error

type healthResponse struct {
	Status         string            `json:"status"`
	SessionStreams int64             `json:"session_streams"`
	Dependencies   map[string]string `json:"dependencies,omitempty"`
}

// WithHealthCheck registers a dependency probe reported by /health. A failing
// probe marks the service degraded; the status code stays 200 because every
// dependency has a fallback path.
func (r *Router) WithHealthCheck(name string, check HealthCheck) *Router {
	if r.healthChecks == nil {
		r.healthChecks = make(map[string]HealthCheck)
	}
	r.healthChecks[name] = check
	return r
}

func (r *Router) health(w http.ResponseWriter, req *http.Request) {
	resp := healthResponse{Status: "ok"}
	if r.streamHandler != nil {
		resp.SessionStreams = r.streamHandler.ClientCount()
	}

	if len(r.healthChecks) > 0 {
		resp.Dependencies = make(map[string]string, len(r.healthChecks))
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		for name, check := range r.healthChecks {
			if err := check(ctx); err != nil {
				resp.Dependencies[name] = err.Error()
				resp.Status = "degraded"
				continue
			}
			resp.Dependencies[name] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
