package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/inkwell/inkwell-server/internal/errors"
	"github.com/inkwell/inkwell-server/internal/store"
)

func TestEnvelopeTransformer_AlwaysIncludesVersion(t *testing.T) {
	tests := []struct {
		name   string
		status string
		input  any
	}{
		{name: "success response", status: "200", input: map[string]string{"key": "value"}},
		{name: "created response", status: "201", input: map[string]string{"id": "123"}},
		{name: "plain error", status: "400", input: errors.New("invalid input")},
		{name: "api error", status: "409", input: &APIError{Code: "ALREADY_EXISTS", Message: "exists"}},
		{name: "huma error model", status: "404", input: &huma.ErrorModel{Status: 404, Detail: "gone"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EnvelopeTransformer(nil, tt.status, tt.input)
			require.NoError(t, err)

			raw, err := json.Marshal(result)
			require.NoError(t, err)

			var envelope map[string]any
			require.NoError(t, json.Unmarshal(raw, &envelope))
			require.Contains(t, envelope, "v")
			assert.Equal(t, float64(EnvelopeVersion), envelope["v"])
			require.Contains(t, envelope, "success")
		})
	}
}

func TestEnvelopeTransformer_SuccessResponse(t *testing.T) {
	data := map[string]string{"title": "The Glass Lantern"}

	result, err := EnvelopeTransformer(nil, "200", data)
	require.NoError(t, err)

	envelope, ok := result.(Envelope)
	require.True(t, ok, "expected Envelope")
	assert.True(t, envelope.Success)
	assert.Equal(t, data, envelope.Data)
}

func TestEnvelopeTransformer_ErrorWithDetails(t *testing.T) {
	apiErr := &APIError{
		Code:    "VALIDATION",
		Message: "validation failed: title",
		Details: map[string]string{"title": "is required"},
	}

	result, err := EnvelopeTransformer(nil, "400", apiErr)
	require.NoError(t, err)

	envelope, ok := result.(ErrorEnvelope)
	require.True(t, ok, "expected ErrorEnvelope")
	assert.False(t, envelope.Success)
	assert.Equal(t, "VALIDATION", envelope.Code)
	assert.Equal(t, "validation failed: title", envelope.Message)
	assert.Equal(t, envelope.Message, envelope.Error)
	assert.Equal(t, map[string]string{"title": "is required"}, envelope.Details)
}

func TestEnvelopeTransformer_PlainErrorUsesStatus(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "503", errors.New("down"))
	require.NoError(t, err)

	envelope, ok := result.(ErrorEnvelope)
	require.True(t, ok)
	assert.Equal(t, "UNAVAILABLE", envelope.Code)
	assert.Equal(t, "down", envelope.Error)
}

func TestEnvelopeTransformer_BytesPassThrough(t *testing.T) {
	img := []byte{0x89, 'P', 'N', 'G'}
	result, err := EnvelopeTransformer(nil, "200", img)
	require.NoError(t, err)
	assert.Equal(t, img, result)
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"domain not found", domainerrors.NotFound("novel not found"), http.StatusNotFound, "NOT_FOUND"},
		{"domain forbidden", domainerrors.Forbidden("nope"), http.StatusForbidden, "FORBIDDEN"},
		{"domain too large", domainerrors.TooLarge("big"), http.StatusRequestEntityTooLarge, "TOO_LARGE"},
		{"store not found", store.ErrChapterNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"store duplicate", store.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS"},
		{"store bad input", store.ErrInvalidInput, http.StatusBadRequest, "VALIDATION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := fromError(tt.err)
			require.NotNil(t, apiErr)
			assert.Equal(t, tt.status, apiErr.GetStatus())
			assert.Equal(t, tt.code, apiErr.Code)
		})
	}

	assert.Nil(t, fromError(errors.New("boom")))
}
