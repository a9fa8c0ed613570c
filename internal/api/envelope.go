package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"
)

// EnvelopeVersion is the "v" field of every JSON response.
const EnvelopeVersion = 1

// Envelope wraps successful responses.
type Envelope struct {
	Version int  `json:"v"`
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ErrorEnvelope wraps error responses. Error repeats Message for clients
// that only read a single string.
type ErrorEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer is a huma transformer that wraps every JSON body.
// Raw byte bodies, such as cover images, pass through.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	switch body := v.(type) {
	case []byte:
		return body, nil
	case *APIError:
		return ErrorEnvelope{
			Version: EnvelopeVersion,
			Error:   body.Message,
			Code:    body.Code,
			Message: body.Message,
			Details: body.Details,
		}, nil
	case *huma.ErrorModel:
		return ErrorEnvelope{
			Version: EnvelopeVersion,
			Error:   body.Detail,
			Code:    statusToCode(body.Status),
			Message: body.Detail,
		}, nil
	case error:
		code, _ := strconv.Atoi(status)
		return ErrorEnvelope{
			Version: EnvelopeVersion,
			Error:   body.Error(),
			Code:    statusToCode(code),
			Message: body.Error(),
		}, nil
	}
	return Envelope{Version: EnvelopeVersion, Success: true, Data: v}, nil
}
