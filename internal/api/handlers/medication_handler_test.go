package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/symptomchecker/backend/internal/api/handlers"
	"github.com/zatekoja/symptomchecker/backend/internal/application/services"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
)

const (
	twoMedications = `{"medications":[{"name":"Paracetamol","dosage":"500mg","time":"08:00"},{"name":"Ibuprofen","dosage":"200mg","time":"20:00"}]}`
	safeReport     = `{"safe":true,"interactions":[],"recommendations":"No known interactions."}`
)

func newMedicationFixture() (*services.MedicationService, http.Handler) {
	model := &routedModel{suggestions: twoMedications, interactions: safeReport}
	caller := services.NewModelCaller(model, 0, 0)
	service := services.NewMedicationService(caller, services.NewPromptBuilder(0.4, 3000), services.NewSessionStore())
	handler := handlers.NewMedicationHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/medications/suggestions", handler.Suggest)
	mux.HandleFunc("POST /api/medications/interactions", handler.CheckInteractions)
	mux.HandleFunc("POST /api/medication-sessions", handler.StartSession)
	mux.HandleFunc("GET /api/medication-sessions/{id}", handler.GetSession)
	mux.HandleFunc("POST /api/medication-sessions/{id}/medications", handler.AddMedication)
	mux.HandleFunc("DELETE /api/medication-sessions/{id}/medications/{index}", handler.RemoveMedication)
	return service, mux
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestMedicationHandler_Suggest(t *testing.T) {
	_, mux := newMedicationFixture()

	w := serve(mux, http.MethodPost, "/api/medications/suggestions", `{"disease":"Influenza"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Medications []entities.Medication `json:"medications"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Len(t, response.Medications, 2)
	assert.Equal(t, "Paracetamol", response.Medications[0].Name)
}

func TestMedicationHandler_Suggest_BlankDisease(t *testing.T) {
	_, mux := newMedicationFixture()

	w := serve(mux, http.MethodPost, "/api/medications/suggestions", `{"disease":" "}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMedicationHandler_CheckInteractions(t *testing.T) {
	_, mux := newMedicationFixture()

	t.Run("two medications", func(t *testing.T) {
		w := serve(mux, http.MethodPost, "/api/medications/interactions", twoMedications)

		require.Equal(t, http.StatusOK, w.Code)
		var response struct {
			Report *entities.InteractionReport `json:"report"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		require.NotNil(t, response.Report)
		require.NotNil(t, response.Report.Safe)
		assert.True(t, *response.Report.Safe)
	})

	t.Run("single medication has no report", func(t *testing.T) {
		w := serve(mux, http.MethodPost, "/api/medications/interactions", `{"medications":[{"name":"Aspirin"}]}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"report":null}`, w.Body.String())
	})

	t.Run("unnamed medication", func(t *testing.T) {
		w := serve(mux, http.MethodPost, "/api/medications/interactions", `{"medications":[{"name":"Aspirin"},{"dosage":"5mg"}]}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMedicationHandler_SessionLifecycle(t *testing.T) {
	service, mux := newMedicationFixture()

	created := serve(mux, http.MethodPost, "/api/medication-sessions", `{"disease":"Influenza"}`)
	require.Equal(t, http.StatusCreated, created.Code)
	var snapshot services.SessionSnapshot
	require.NoError(t, json.NewDecoder(created.Body).Decode(&snapshot))
	require.NotEmpty(t, snapshot.ID)
	assert.Len(t, snapshot.Medications, 2)

	session, err := service.Session(snapshot.ID)
	require.NoError(t, err)
	session.Wait()

	got := serve(mux, http.MethodGet, "/api/medication-sessions/"+snapshot.ID, "")
	require.Equal(t, http.StatusOK, got.Code)
	require.NoError(t, json.NewDecoder(got.Body).Decode(&snapshot))
	require.NotNil(t, snapshot.Report)
	assert.False(t, snapshot.Analyzing)

	added := serve(mux, http.MethodPost, "/api/medication-sessions/"+snapshot.ID+"/medications", `{"name":"Aspirin","dosage":"75mg"}`)
	require.Equal(t, http.StatusOK, added.Code)
	require.NoError(t, json.NewDecoder(added.Body).Decode(&snapshot))
	assert.Len(t, snapshot.Medications, 3)
	session.Wait()

	removed := serve(mux, http.MethodDelete, "/api/medication-sessions/"+snapshot.ID+"/medications/0", "")
	require.Equal(t, http.StatusOK, removed.Code)
	require.NoError(t, json.NewDecoder(removed.Body).Decode(&snapshot))
	require.Len(t, snapshot.Medications, 2)
	assert.Equal(t, "Ibuprofen", snapshot.Medications[0].Name)
	session.Wait()
}

func TestMedicationHandler_SessionErrors(t *testing.T) {
	service, mux := newMedicationFixture()

	created := serve(mux, http.MethodPost, "/api/medication-sessions", `{"disease":"Influenza"}`)
	require.Equal(t, http.StatusCreated, created.Code)
	var snapshot services.SessionSnapshot
	require.NoError(t, json.NewDecoder(created.Body).Decode(&snapshot))
	session, err := service.Session(snapshot.ID)
	require.NoError(t, err)
	defer session.Wait()

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{name: "unknown session", method: http.MethodGet, target: "/api/medication-sessions/missing", want: http.StatusNotFound},
		{name: "add to unknown session", method: http.MethodPost, target: "/api/medication-sessions/missing/medications", body: `{"name":"Aspirin"}`, want: http.StatusNotFound},
		{name: "add without name", method: http.MethodPost, target: "/api/medication-sessions/" + snapshot.ID + "/medications", body: `{"dosage":"5mg"}`, want: http.StatusBadRequest},
		{name: "index not a number", method: http.MethodDelete, target: "/api/medication-sessions/" + snapshot.ID + "/medications/first", want: http.StatusBadRequest},
		{name: "index out of range", method: http.MethodDelete, target: "/api/medication-sessions/" + snapshot.ID + "/medications/7", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(mux, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestMedicationHandler_AddMedication_SessionFull(t *testing.T) {
	service, mux := newMedicationFixture()

	created := serve(mux, http.MethodPost, "/api/medication-sessions", `{"disease":"Influenza"}`)
	require.Equal(t, http.StatusCreated, created.Code)
	var snapshot services.SessionSnapshot
	require.NoError(t, json.NewDecoder(created.Body).Decode(&snapshot))
	session, err := service.Session(snapshot.ID)
	require.NoError(t, err)
	defer session.Wait()

	target := "/api/medication-sessions/" + snapshot.ID + "/medications"
	for i := len(snapshot.Medications); i < entities.MaxMedicationsPerCheck; i++ {
		w := serve(mux, http.MethodPost, target, fmt.Sprintf(`{"name":"Drug %d"}`, i))
		require.Equal(t, http.StatusOK, w.Code, "medication %d", i+1)
	}

	w := serve(mux, http.MethodPost, target, `{"name":"One too many"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "at most 20 medications")
}
