package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	apperrors "github.com/zatekoja/symptomchecker/backend/pkg/errors"
)

// ParseOutcome tags the result of reading a model answer.
type ParseOutcome int

const (
	OutcomeSuccess ParseOutcome = iota
	OutcomeMalformed
	OutcomeParseFailure
	OutcomeSchemaMismatch
)

func (o ParseOutcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeMalformed:
		return "malformed_response"
	case OutcomeParseFailure:
		return "parse_failure"
	case OutcomeSchemaMismatch:
		return "schema_mismatch"
	default:
		return "unknown"
	}
}

// ParseResult is the tagged outcome of ParseModelResponse. Raw always holds the
// text as received so failures can be logged.
type ParseResult struct {
	Outcome  ParseOutcome
	Raw      string
	Reason   string
	Document map[string]any
	Items    []any
}

// OK reports whether parsing succeeded.
func (r ParseResult) OK() bool {
	return r.Outcome == OutcomeSuccess
}

// Err converts a failed result into an AppError of the matching type. It returns nil on success.
func (r ParseResult) Err() error {
	switch r.Outcome {
	case OutcomeSuccess:
		return nil
	case OutcomeMalformed:
		return apperrors.NewResponseError(apperrors.ErrorTypeMalformedResponse, "analysis service returned an unexpected response", fmt.Errorf("%s", r.Reason))
	case OutcomeParseFailure:
		return apperrors.NewResponseError(apperrors.ErrorTypeParseFailure, "analysis response could not be parsed", fmt.Errorf("%s", r.Reason))
	default:
		return apperrors.NewResponseError(apperrors.ErrorTypeSchemaMismatch, "analysis response is missing expected data", fmt.Errorf("%s", r.Reason))
	}
}

// ParseModelResponse reads the raw answer text of a model call. When
// collectionField is set, the parsed object must hold that field as an array.
func ParseModelResponse(raw, collectionField string) ParseResult {
	result := ParseResult{Raw: raw}

	text := stripCodeFence(strings.TrimSpace(raw))
	if !strings.HasPrefix(text, "{") {
		result.Outcome = OutcomeMalformed
		result.Reason = "response does not start with a JSON object"
		return result
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		result.Outcome = OutcomeParseFailure
		result.Reason = err.Error()
		return result
	}
	result.Document = doc

	if collectionField != "" {
		value, ok := doc[collectionField]
		if !ok {
			result.Outcome = OutcomeSchemaMismatch
			result.Reason = fmt.Sprintf("response has no %q field", collectionField)
			return result
		}
		items, ok := value.([]any)
		if !ok {
			result.Outcome = OutcomeSchemaMismatch
			result.Reason = fmt.Sprintf("response field %q is not a list", collectionField)
			return result
		}
		result.Items = items
	}

	result.Outcome = OutcomeSuccess
	return result
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimLeftFunc(text, unicode.IsLetter)
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
