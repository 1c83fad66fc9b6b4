package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/zatekoja/symptomchecker/backend/internal/application/services"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
	"github.com/zatekoja/symptomchecker/backend/internal/infrastructure/observability"
)

const defaultHeartbeatInterval = 30 * time.Second

// SessionLookup finds an active medication session.
type SessionLookup interface {
	Session(id string) (*services.MedicationSession, error)
}

// SessionStreamHandler streams medication session changes as Server-Sent Events.
type SessionStreamHandler struct {
	sessions  SessionLookup
	eventBus  providers.EventBus
	heartbeat time.Duration
	metrics   *observability.Metrics
	clients   atomic.Int64
}

// NewSessionStreamHandler creates a new session stream handler
func NewSessionStreamHandler(sessions SessionLookup, eventBus providers.EventBus) *SessionStreamHandler {
	return &SessionStreamHandler{
		sessions:  sessions,
		eventBus:  eventBus,
		heartbeat: defaultHeartbeatInterval,
	}
}

// WithHeartbeat overrides the heartbeat interval.
func (h *SessionStreamHandler) WithHeartbeat(interval time.Duration) *SessionStreamHandler {
	h.heartbeat = interval
	return h
}

// WithMetrics records open streams and delivered events on metrics.
func (h *SessionStreamHandler) WithMetrics(metrics *observability.Metrics) *SessionStreamHandler {
	h.metrics = metrics
	return h
}

// StreamSession handles GET /api/medication-sessions/{id}/events
func (h *SessionStreamHandler) StreamSession(w http.ResponseWriter, r *http.Request) {
	logger := observability.LoggerFromContext(r.Context())
	id := r.PathValue("id")

	session, err := h.sessions.Session(id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Subscribe before the first snapshot so no change falls in between.
	events, err := h.eventBus.Subscribe(r.Context(), providers.SessionChannel(id))
	if err != nil {
		logger.Error().Err(err).Str("session_id", id).Msg("failed to subscribe to session events")
		respondWithError(w, http.StatusServiceUnavailable, "session updates are unavailable")
		return
	}

	h.clients.Add(1)
	observability.RecordSessionStream(r.Context(), h.metrics, 1)
	defer func() {
		h.clients.Add(-1)
		observability.RecordSessionStream(context.WithoutCancel(r.Context()), h.metrics, -1)
	}()

	// Streams outlive the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	snapshot := session.Snapshot()
	lastRevision := snapshot.Revision
	h.sendEvent(w, "snapshot", snapshot)
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.Debug().Str("session_id", id).Msg("session stream client disconnected")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now().UTC(),
			})
			flusher.Flush()
		case event, ok := <-events:
			if !ok {
				return
			}
			// Changes already covered by the opening snapshot.
			if event.Revision < lastRevision {
				continue
			}
			lastRevision = event.Revision
			h.sendEvent(w, string(event.Type), event)
			flusher.Flush()
			observability.RecordSessionEventDelivered(r.Context(), h.metrics, string(event.Type))
		}
	}
}

// ClientCount returns the number of open streams.
func (h *SessionStreamHandler) ClientCount() int64 {
	return h.clients.Load()
}

func (h *SessionStreamHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}
