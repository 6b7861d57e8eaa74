package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// EnvelopeVersion is sent as "v" in every response body. Bump it only for
// breaking changes of the envelope itself.
const EnvelopeVersion = 1

// APIEnvelope wraps successful responses and simple errors.
type APIEnvelope struct {
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Version int    `json:"v"`
	Success bool   `json:"success"`
}

// APIErrorEnvelope wraps errors that carry a machine-readable code.
type APIErrorEnvelope struct {
	Details any    `json:"details,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Version int    `json:"v"`
	Success bool   `json:"success"`
}

// EnvelopeTransformer wraps every huma response body in the API envelope.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	var apiErr *APIError
	if err, ok := v.(error); ok && errors.As(err, &apiErr) {
		if apiErr.Code == "" {
			return APIEnvelope{Version: EnvelopeVersion, Error: apiErr.Message}, nil
		}
		return APIErrorEnvelope{
			Version: EnvelopeVersion,
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		}, nil
	}

	if err, ok := v.(error); ok {
		return APIEnvelope{Version: EnvelopeVersion, Error: err.Error()}, nil
	}

	return APIEnvelope{
		Version: EnvelopeVersion,
		Success: len(status) > 0 && (status[0] == '2' || status[0] == '3'),
		Data:    v,
	}, nil
}

// writeError writes an error envelope outside huma (plain chi handlers and middleware).
func writeError(w http.ResponseWriter, apiErr *APIError) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(apiErr.status)

	body, err := json.Marshal(APIErrorEnvelope{
		Version: EnvelopeVersion,
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	})
	if err != nil {
		return
	}
	_, _ = w.Write(body)
}
