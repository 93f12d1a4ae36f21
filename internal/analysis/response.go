package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/data-explorer/client/internal/models"
)

// DecodeCharts reads a success body. Both the {"charts": [...]} envelope
// and a bare list are accepted. A body carrying only an "error" field is
// reported as a ServiceError.
func DecodeCharts(body []byte) ([]models.ChartSpec, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, ErrInvalidResponse
	}

	if trimmed[0] == '[' {
		var charts []models.ChartSpec
		if err := json.Unmarshal(trimmed, &charts); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		return nonNil(charts), nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	raw, ok := envelope["charts"]
	if !ok {
		if msg := stringField(envelope["error"]); msg != "" {
			return nil, &ServiceError{StatusCode: 200, Message: msg}
		}
		return nil, fmt.Errorf("%w: no chart list", ErrInvalidResponse)
	}

	var charts []models.ChartSpec
	if err := json.Unmarshal(raw, &charts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nonNil(charts), nil
}

// errorDetail extracts the message of an error body. FastAPI sends either
// {"detail": "..."} or a list of validation problems under detail.
func errorDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return DefaultFailureMessage
	}

	if msg := stringField(payload.Detail); msg != "" {
		return msg
	}

	var problems []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &problems); err == nil {
		var msgs []string
		for _, p := range problems {
			if p.Msg != "" {
				msgs = append(msgs, p.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}

	return DefaultFailureMessage
}

func stringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func nonNil(charts []models.ChartSpec) []models.ChartSpec {
	if charts == nil {
		return []models.ChartSpec{}
	}
	return charts
}
