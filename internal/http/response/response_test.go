package response

import (
	"encoding/json/v2"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/cinefinder/cinefinder-server/internal/errors"
	"github.com/cinefinder/cinefinder-server/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusOK, map[string]string{"title": "Heat"}, discardLogger())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	var result Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, Version, result.Version)
	assert.True(t, result.Success)
	assert.Equal(t, map[string]any{"title": "Heat"}, result.Data)
	assert.Empty(t, result.Error)
}

func TestJSON_NilLogger(t *testing.T) {
	w := httptest.NewRecorder()

	Success(w, []int{1, 2}, nil)

	var result Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
}

func TestStatusCodeBoundary(t *testing.T) {
	tests := []struct {
		status      int
		wantSuccess bool
	}{
		{200, true},
		{201, true},
		{399, true},
		{400, false},
		{404, false},
		{500, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			w := httptest.NewRecorder()
			JSON(w, tt.status, nil, nil)

			var result Envelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
			assert.Equal(t, tt.wantSuccess, result.Success)
		})
	}
}

func TestError_Writers(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter)
		wantStatus int
		wantCode   domainerrors.Code
	}{
		{
			name:       "unauthorized",
			write:      func(w http.ResponseWriter) { Unauthorized(w, "sign in first", nil) },
			wantStatus: http.StatusUnauthorized,
			wantCode:   domainerrors.CodeUnauthorized,
		},
		{
			name:       "not found",
			write:      func(w http.ResponseWriter) { NotFound(w, "no such route", nil) },
			wantStatus: http.StatusNotFound,
			wantCode:   domainerrors.CodeNotFound,
		},
		{
			name:       "too many requests",
			write:      func(w http.ResponseWriter) { TooManyRequests(w, "slow down", nil) },
			wantStatus: http.StatusTooManyRequests,
			wantCode:   domainerrors.CodeRateLimited,
		},
		{
			name:       "method not allowed",
			write:      func(w http.ResponseWriter) { MethodNotAllowed(w, nil) },
			wantStatus: http.StatusMethodNotAllowed,
			wantCode:   domainerrors.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			assert.Equal(t, tt.wantStatus, w.Code)

			var result ErrorEnvelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
			assert.Equal(t, Version, result.Version)
			assert.False(t, result.Success)
			assert.Equal(t, string(tt.wantCode), result.Code)
			assert.NotEmpty(t, result.Message)
		})
	}
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   domainerrors.Code
		wantMsg    string
	}{
		{
			name:       "domain error keeps code and details",
			err:        domainerrors.ValidationWithDetails("validation failed", map[string]string{"q": "is required"}),
			wantStatus: http.StatusBadRequest,
			wantCode:   domainerrors.CodeValidation,
			wantMsg:    "validation failed",
		},
		{
			name:       "wrapped catalog failure",
			err:        domainerrors.CatalogUnavailable(errors.New("dial tcp: refused")),
			wantStatus: http.StatusBadGateway,
			wantCode:   domainerrors.CodeCatalogUnavailable,
			wantMsg:    "movie catalog unavailable",
		},
		{
			name:       "store not found",
			err:        store.ErrNotFound.WithMessage("favorite not found"),
			wantStatus: http.StatusNotFound,
			wantCode:   domainerrors.CodeNotFound,
			wantMsg:    "favorite not found",
		},
		{
			name:       "unknown error hides its text",
			err:        errors.New("badger: value log corrupt"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   domainerrors.CodeInternal,
			wantMsg:    domainerrors.CodeInternal.Message(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleError(w, tt.err, discardLogger())

			assert.Equal(t, tt.wantStatus, w.Code)

			var result ErrorEnvelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
			assert.Equal(t, string(tt.wantCode), result.Code)
			assert.Equal(t, tt.wantMsg, result.Message)
		})
	}
}

func TestEnvelope_OmitEmpty(t *testing.T) {
	data, err := json.Marshal(Envelope{Version: Version, Success: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1,"success":true}`, string(data))

	data, err = json.Marshal(ErrorEnvelope{Version: Version, Code: "NOT_FOUND", Message: "gone"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"details"`)
}
