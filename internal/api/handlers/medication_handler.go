package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/zatekoja/symptomchecker/backend/internal/application/services"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
)

// MedicationService defines the medication operations used by the handler.
type MedicationService interface {
	Suggest(ctx context.Context, disease string) ([]entities.Medication, error)
	CheckInteractions(ctx context.Context, meds []entities.Medication) *entities.InteractionReport
	StartSession(ctx context.Context, disease string) (*services.MedicationSession, error)
	Session(id string) (*services.MedicationSession, error)
}

// MedicationHandler handles medication suggestions, interaction checks and
// editable medication sessions.
type MedicationHandler struct {
	service MedicationService
}

// NewMedicationHandler creates a new medication handler.
func NewMedicationHandler(service MedicationService) *MedicationHandler {
	return &MedicationHandler{service: service}
}

type diseaseRequest struct {
	Disease string `json:"disease"`
}

type interactionsRequest struct {
	Medications []entities.Medication `json:"medications"`
}

// Suggest handles POST /api/medications/suggestions
func (h *MedicationHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var payload diseaseRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	meds, err := h.service.Suggest(r.Context(), payload.Disease)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"medications": meds,
	})
}

// CheckInteractions handles POST /api/medications/interactions
func (h *MedicationHandler) CheckInteractions(w http.ResponseWriter, r *http.Request) {
	var payload interactionsRequest
	if !decodeJSON(w, r, &payload) {
		return
	}
	if len(payload.Medications) > entities.MaxMedicationsPerCheck {
		respondWithError(w, http.StatusBadRequest, "too many medications")
		return
	}

	meds := make([]entities.Medication, 0, len(payload.Medications))
	for _, med := range payload.Medications {
		med.Name = strings.TrimSpace(med.Name)
		if med.Name == "" {
			respondWithError(w, http.StatusBadRequest, "medication name is required")
			return
		}
		meds = append(meds, med)
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"report": h.service.CheckInteractions(r.Context(), meds),
	})
}

// StartSession handles POST /api/medication-sessions
func (h *MedicationHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var payload diseaseRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	session, err := h.service.StartSession(r.Context(), payload.Disease)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, session.Snapshot())
}

// GetSession handles GET /api/medication-sessions/{id}
func (h *MedicationHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Session(r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, session.Snapshot())
}

// AddMedication handles POST /api/medication-sessions/{id}/medications
func (h *MedicationHandler) AddMedication(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Session(r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	var med entities.Medication
	if !decodeJSON(w, r, &med) {
		return
	}

	snapshot, err := session.Add(med)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, snapshot)
}

// RemoveMedication handles DELETE /api/medication-sessions/{id}/medications/{index}
func (h *MedicationHandler) RemoveMedication(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Session(r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid medication index")
		return
	}

	snapshot, err := session.Remove(index)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, snapshot)
}
