package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/symptomchecker/backend/internal/application/services"
	apperrors "github.com/zatekoja/symptomchecker/backend/pkg/errors"
)

func TestParseModelResponse_PlainObject(t *testing.T) {
	result := services.ParseModelResponse(`{"predictions":[{"disease":"Flu"}]}`, services.PredictionsField)

	require.True(t, result.OK())
	assert.Equal(t, "success", result.Outcome.String())
	require.Len(t, result.Items, 1)
	assert.NoError(t, result.Err())
}

func TestParseModelResponse_StripsCodeFence(t *testing.T) {
	raw := "```json\n{\"predictions\": []}\n```"

	result := services.ParseModelResponse(raw, services.PredictionsField)

	require.True(t, result.OK())
	assert.Empty(t, result.Items)
	assert.Equal(t, raw, result.Raw)
}

func TestParseModelResponse_BareFence(t *testing.T) {
	result := services.ParseModelResponse("```\n{\"medications\": [{\"name\":\"Ibuprofen\"}]}```", services.MedicationsField)

	require.True(t, result.OK())
	assert.Len(t, result.Items, 1)
}

func TestParseModelResponse_Malformed(t *testing.T) {
	result := services.ParseModelResponse("Sorry, I can't help with that.", services.PredictionsField)

	assert.Equal(t, services.OutcomeMalformed, result.Outcome)
	assert.True(t, apperrors.Is(result.Err(), apperrors.ErrorTypeMalformedResponse))
}

func TestParseModelResponse_ParseFailureKeepsRaw(t *testing.T) {
	raw := `{"predictions": [{"disease": "Flu",`

	result := services.ParseModelResponse(raw, services.PredictionsField)

	assert.Equal(t, services.OutcomeParseFailure, result.Outcome)
	assert.Equal(t, raw, result.Raw)
	assert.NotEmpty(t, result.Reason)
	assert.True(t, apperrors.Is(result.Err(), apperrors.ErrorTypeParseFailure))
}

func TestParseModelResponse_SchemaMismatch(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "missing field", raw: `{"conditions": []}`},
		{name: "field not a list", raw: `{"predictions": "none"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := services.ParseModelResponse(tt.raw, services.PredictionsField)

			assert.Equal(t, services.OutcomeSchemaMismatch, result.Outcome)
			assert.Contains(t, result.Reason, services.PredictionsField)
			assert.True(t, apperrors.Is(result.Err(), apperrors.ErrorTypeSchemaMismatch))
		})
	}
}

func TestParseModelResponse_NoCollectionField(t *testing.T) {
	result := services.ParseModelResponse(`{"safe": true}`, "")

	require.True(t, result.OK())
	assert.Equal(t, true, result.Document["safe"])
	assert.Nil(t, result.Items)
}
