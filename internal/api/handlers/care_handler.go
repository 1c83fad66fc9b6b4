package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/zatekoja/symptomchecker/backend/internal/adapters/providers/geolocation"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
)

// CareLocator defines the nearby care lookups used by the handler.
type CareLocator interface {
	FromDevicePosition(ctx context.Context, positioner providers.PositionProvider, specialist string) []entities.CareCandidate
	FromAddress(ctx context.Context, address, specialist string) ([]entities.CareCandidate, error)
}

// CareHandler handles nearby care lookups.
type CareHandler struct {
	locator CareLocator
}

// NewCareHandler creates a new care handler.
func NewCareHandler(locator CareLocator) *CareHandler {
	return &CareHandler{locator: locator}
}

// Nearby handles GET /api/care/nearby?lat=...&lng=...&specialist=...
// A client that could not obtain its position sends geo_error instead.
func (h *CareHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	lat, err := optionalFloat(query.Get("lat"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid lat parameter")
		return
	}
	lng, err := optionalFloat(query.Get("lng"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid lng parameter")
		return
	}

	position, err := geolocation.NewReportedPosition(lat, lng, query.Get("geo_error"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	candidates := h.locator.FromDevicePosition(r.Context(), position, strings.TrimSpace(query.Get("specialist")))
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"candidates": candidates,
		"count":      len(candidates),
	})
}

// Search handles GET /api/care/search?address=...&specialist=...
func (h *CareHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	candidates, err := h.locator.FromAddress(r.Context(), query.Get("address"), strings.TrimSpace(query.Get("specialist")))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"candidates": candidates,
		"count":      len(candidates),
	})
}

func optionalFloat(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &value, nil
}
