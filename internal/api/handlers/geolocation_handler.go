package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
	"github.com/zatekoja/symptomchecker/backend/internal/infrastructure/observability"
)

const maxAddressLength = 200

// GeolocationHandler proxies address lookups so the maps key stays server side.
type GeolocationHandler struct {
	provider providers.GeolocationProvider
}

// NewGeolocationHandler creates a new geolocation handler.
func NewGeolocationHandler(provider providers.GeolocationProvider) *GeolocationHandler {
	return &GeolocationHandler{provider: provider}
}

// GeocodeResponse is the body of a successful lookup.
type GeocodeResponse struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// Geocode handles GET /api/geocode?address=...
func (h *GeolocationHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	address := strings.Join(strings.Fields(r.URL.Query().Get("address")), " ")
	switch {
	case address == "":
		respondWithError(w, http.StatusBadRequest, "address parameter is required")
		return
	case len(address) > maxAddressLength:
		respondWithError(w, http.StatusBadRequest, "address is too long")
		return
	}

	coords, err := h.provider.Geocode(r.Context(), address)
	switch {
	case errors.Is(err, providers.ErrNoGeocodeMatch):
		respondWithError(w, http.StatusNotFound, "no location found for address")
	case errors.Is(err, providers.ErrProviderUnavailable):
		w.Header().Set("Retry-After", "30")
		respondWithError(w, http.StatusServiceUnavailable, "geocoding is temporarily unavailable")
	case err != nil:
		observability.LoggerFromContext(r.Context()).Warn().Err(err).Str("address", address).Msg("geocode failed")
		respondWithError(w, http.StatusBadGateway, "failed to geocode address")
	default:
		respondWithJSON(w, http.StatusOK, GeocodeResponse{Address: address, Lat: coords.Latitude, Lng: coords.Longitude})
	}
}
