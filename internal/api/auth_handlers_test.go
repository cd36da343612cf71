package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUp(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/signup", map[string]any{
		"email":            "ada@example.com",
		"password":         "popcorn42",
		"confirm_password": "popcorn42",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	auth := decodeData[AuthResponse](t, resp)
	assert.NotEmpty(t, auth.AccessToken)
	assert.Equal(t, "Bearer", auth.TokenType)
	assert.Positive(t, auth.ExpiresIn)
	assert.Equal(t, "ada@example.com", auth.Session.Email)
	assert.NotEmpty(t, auth.Session.UserID)
	assert.False(t, auth.ExpiresAt.After(auth.Session.ExpiresAt), "token must not outlive its session")
}

func TestSignUp_Errors(t *testing.T) {
	ts := setupTestServer(t)
	ts.signUp(t, "taken@example.com")

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantCode   string
		wantField  string
	}{
		{
			name:       "duplicate email",
			body:       map[string]any{"email": "taken@example.com", "password": "popcorn42", "confirm_password": "popcorn42"},
			wantStatus: http.StatusConflict,
			wantCode:   "EMAIL_IN_USE",
		},
		{
			name:       "password mismatch",
			body:       map[string]any{"email": "new@example.com", "password": "popcorn42", "confirm_password": "popcorn43"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION",
			wantField:  "confirm_password",
		},
		{
			name:       "short password",
			body:       map[string]any{"email": "new@example.com", "password": "abc", "confirm_password": "abc"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION",
			wantField:  "password",
		},
		{
			name:       "invalid email",
			body:       map[string]any{"email": "not-an-email", "password": "popcorn42", "confirm_password": "popcorn42"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION",
			wantField:  "email",
		},
		{
			name:       "repeated character password",
			body:       map[string]any{"email": "new@example.com", "password": "aaaaaaaa", "confirm_password": "aaaaaaaa"},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "WEAK_PASSWORD",
		},
		{
			name:       "password equals email name",
			body:       map[string]any{"email": "moviebuff@example.com", "password": "MovieBuff", "confirm_password": "MovieBuff"},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "WEAK_PASSWORD",
		},
		{
			name:       "missing field",
			body:       map[string]any{"email": "new@example.com", "password": "popcorn42"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION",
			wantField:  "confirm_password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/auth/signup", tt.body)
			assert.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())

			envelope := decodeError(t, resp)
			assert.Equal(t, tt.wantCode, envelope.Code)
			assert.NotEmpty(t, envelope.Message)
			if tt.wantField != "" {
				assert.Contains(t, envelope.Details, tt.wantField)
			}
		})
	}
}

func TestSignIn(t *testing.T) {
	ts := setupTestServer(t)
	ts.signUp(t, "grace@example.com")

	t.Run("valid credentials", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/auth/signin", map[string]any{
			"email":    "  grace@example.com ",
			"password": "popcorn42",
		})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		auth := decodeData[AuthResponse](t, resp)
		assert.NotEmpty(t, auth.AccessToken)
		assert.Equal(t, "grace@example.com", auth.Session.Email)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		wrong := ts.api.Post("/api/v1/auth/signin", map[string]any{"email": "grace@example.com", "password": "nope-nope"})
		unknown := ts.api.Post("/api/v1/auth/signin", map[string]any{"email": "nobody@example.com", "password": "nope-nope"})

		assert.Equal(t, http.StatusUnauthorized, wrong.Code)
		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		we, ue := decodeError(t, wrong), decodeError(t, unknown)
		assert.Equal(t, "INVALID_CREDENTIALS", we.Code)
		assert.Equal(t, we.Code, ue.Code)
		assert.Equal(t, we.Message, ue.Message)
	})
}

func TestSignIn_RateLimited(t *testing.T) {
	ts := setupTestServer(t)
	ts.signUp(t, "hammer@example.com")

	// The harness allows a burst of three attempts per email.
	var last int
	var body string
	for range 4 {
		resp := ts.api.Post("/api/v1/auth/signin", map[string]any{"email": "hammer@example.com", "password": "wrong-guess"})
		last, body = resp.Code, resp.Body.String()
	}
	assert.Equal(t, http.StatusTooManyRequests, last, body)

	var envelope testErrorEnvelope
	require.NoError(t, json.Unmarshal([]byte(body), &envelope))
	assert.Equal(t, "RATE_LIMITED", envelope.Code)
}

func TestSessionLifecycle(t *testing.T) {
	ts := setupTestServer(t)
	bearer := ts.signUp(t, "linus@example.com")

	resp := ts.api.Get("/api/v1/auth/session", bearer)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	sess := decodeData[sessionView](t, resp)
	assert.Equal(t, "linus@example.com", sess.Email)

	resp = ts.api.Post("/api/v1/auth/refresh", bearer)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	refreshed := decodeData[AuthResponse](t, resp)
	assert.Equal(t, sess.ID, refreshed.Session.ID)
	assert.NotEmpty(t, refreshed.AccessToken)

	resp = ts.api.Post("/api/v1/auth/signout", bearer)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "Signed out", decodeData[MessageResponse](t, resp).Message)

	// Both tokens belonged to the ended session.
	for _, h := range []string{bearer, "Authorization: Bearer " + refreshed.AccessToken} {
		resp = ts.api.Get("/api/v1/auth/session", h)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Code)
	}
}

func TestAuthRequired(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name   string
		header []any
	}{
		{"no header", nil},
		{"garbage token", []any{"Authorization: Bearer v4.local.garbage"}},
		{"wrong scheme", []any{"Authorization: Basic dXNlcjpwYXNz"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Get("/api/v1/auth/session", tt.header...)
			assert.Equal(t, http.StatusUnauthorized, resp.Code)
			assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Code)
		})
	}
}

// sessionView mirrors the session JSON.
type sessionView struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}
