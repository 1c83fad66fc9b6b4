package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
)

const (
	analysisRateLimit  = 20
	analysisRateWindow = time.Hour

	// UserIDHeader carries the opaque identity of the caller.
	UserIDHeader = "X-User-ID"
)

// AnalysisService defines the symptom analysis operations used by the handler.
type AnalysisService interface {
	Analyze(ctx context.Context, userID, symptoms string) ([]entities.Prediction, error)
	History(ctx context.Context, userID string, limit int) ([]*entities.AnalysisRecord, error)
}

// AnalysisHandler handles symptom analysis requests.
type AnalysisHandler struct {
	service AnalysisService
	limiter *submissionLimiter
	proxies trustedProxies
}

// NewAnalysisHandler creates a new analysis handler. cache may be nil.
func NewAnalysisHandler(service AnalysisService, cache providers.CacheProvider) *AnalysisHandler {
	return &AnalysisHandler{
		service: service,
		limiter: newSubmissionLimiter(cache, analysisRateLimit, analysisRateWindow),
	}
}

// WithTrustedProxies sets the proxies allowed to report the client address in
// X-Forwarded-For. Without any, rate limits key on the connection's peer.
func (h *AnalysisHandler) WithTrustedProxies(proxies []string) *AnalysisHandler {
	h.proxies = parseTrustedProxies(proxies)
	return h
}

type analysisRequest struct {
	Symptoms string `json:"symptoms"`
}

// SubmitAnalysis handles POST /api/analyses
func (h *AnalysisHandler) SubmitAnalysis(w http.ResponseWriter, r *http.Request) {
	var payload analysisRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	payload.Symptoms = strings.TrimSpace(payload.Symptoms)
	if payload.Symptoms == "" {
		respondWithError(w, http.StatusBadRequest, "symptoms are required")
		return
	}
	if len(payload.Symptoms) > 2000 {
		respondWithError(w, http.StatusBadRequest, "symptoms description is too long")
		return
	}

	allowed, retryAfter := h.limiter.allow(r.Context(), "analysis:rate:"+h.proxies.clientIP(r))
	if !allowed {
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	predictions, err := h.service.Analyze(r.Context(), strings.TrimSpace(r.Header.Get(UserIDHeader)), payload.Symptoms)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"predictions": predictions,
	})
}

// ListAnalyses handles GET /api/analyses
func (h *AnalysisHandler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondWithError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = parsed
	}

	records, err := h.service.History(r.Context(), strings.TrimSpace(r.Header.Get(UserIDHeader)), limit)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"analyses": records,
		"count":    len(records),
	})
}
