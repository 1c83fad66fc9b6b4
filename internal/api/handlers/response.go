package handlers

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/zatekoja/symptomchecker/backend/pkg/errors"
)

const maxRequestBodyBytes = 64 * 1024

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps an AppError type to a status code. Internal
// details are not leaked for server errors.
func respondWithAppError(w http.ResponseWriter, err error) {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeValidation:
		respondWithError(w, http.StatusBadRequest, apperrors.Message(err))
	case apperrors.ErrorTypeNotFound:
		respondWithError(w, http.StatusNotFound, apperrors.Message(err))
	case apperrors.ErrorTypeConfiguration:
		respondWithError(w, http.StatusServiceUnavailable, apperrors.Message(err))
	default:
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	return true
}
