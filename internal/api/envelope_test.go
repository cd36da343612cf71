package api

import (
	"encoding/json/v2"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeTransformer_AlwaysIncludesVersion(t *testing.T) {
	tests := []struct {
		name   string
		status string
		input  any
	}{
		{"success response", "200", map[string]string{"title": "Dark City"}},
		{"created response", "201", map[string]string{"id": "u_123"}},
		{"empty body", "204", nil},
		{"plain error", "500", errors.New("internal error")},
		{
			name:   "coded error with details",
			status: "400",
			input: &APIError{
				Code:    "VALIDATION",
				Message: "validation failed",
				Details: map[string]string{"q": "is required"},
			},
		},
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
		})
	}
}

func TestEnvelopeTransformer_Success(t *testing.T) {
	data := map[string]string{"title": "The Matrix"}

	result, err := EnvelopeTransformer(nil, "200", data)
	require.NoError(t, err)

	envelope, ok := result.(APIEnvelope)
	require.True(t, ok)
	assert.True(t, envelope.Success)
	assert.Equal(t, data, envelope.Data)
	assert.Empty(t, envelope.Error)
}

func TestEnvelopeTransformer_PlainError(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "500", errors.New("boom"))
	require.NoError(t, err)

	envelope, ok := result.(APIEnvelope)
	require.True(t, ok)
	assert.False(t, envelope.Success)
	assert.Nil(t, envelope.Data)
	assert.Equal(t, "boom", envelope.Error)
}

func TestEnvelopeTransformer_CodedError(t *testing.T) {
	apiErr := &APIError{
		Code:    "EMAIL_IN_USE",
		Message: "an account with this email already exists",
	}

	result, err := EnvelopeTransformer(nil, "409", apiErr)
	require.NoError(t, err)

	envelope, ok := result.(APIErrorEnvelope)
	require.True(t, ok)
	assert.False(t, envelope.Success)
	assert.Equal(t, "EMAIL_IN_USE", envelope.Code)
	assert.Equal(t, apiErr.Message, envelope.Message)
	assert.Nil(t, envelope.Details)
}

// Router-level errors bypass huma but must look the same to clients.
func TestEnvelope_RouterErrorsMatchOperationErrors(t *testing.T) {
	ts := setupTestServer(t)

	fromHuma := decodeError(t, ts.api.Get("/api/v1/movies/999999"))

	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil))
	var fromRouter testErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fromRouter))

	assert.Equal(t, fromHuma.Code, fromRouter.Code)
	assert.Equal(t, fromHuma.Version, fromRouter.Version)
	assert.False(t, fromRouter.Success)
}

func TestCORS_Preflight(t *testing.T) {
	ts := setupTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/favorites", nil)
	req.Header.Set("Origin", "https://cinefinder.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
}
