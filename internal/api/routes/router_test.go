package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/symptomchecker/backend/internal/adapters/events"
	"github.com/zatekoja/symptomchecker/backend/internal/api/handlers"
)

func newTestRouter() *Router {
	stream := handlers.NewSessionStreamHandler(nil, events.NewMemoryEventBus())
	return NewRouter(nil, nil, stream, nil, nil, nil, nil, []string{"https://app.example"}, nil)
}

func getHealth(t *testing.T, router *Router) (*httptest.ResponseRecorder, healthResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	router.SetupRoutes().ServeHTTP(w, req)

	var body healthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHealth_NoDependencies(t *testing.T) {
	w, body := getHealth(t, newTestRouter())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "ok", body.Status)
	assert.Zero(t, body.SessionStreams)
	assert.Empty(t, body.Dependencies)
}

func TestHealth_ReportsDegradedDependency(t *testing.T) {
	router := newTestRouter().
		WithHealthCheck("redis", func(context.Context) error { return nil }).
		WithHealthCheck("postgres", func(context.Context) error { return errors.New("connection refused") })

	w, body := getHealth(t, router)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, map[string]string{"redis": "ok", "postgres": "connection refused"}, body.Dependencies)
}

func TestRouter_MethodMismatch(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/api/analyses", nil)
	w := httptest.NewRecorder()
	newTestRouter().SetupRoutes().ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
