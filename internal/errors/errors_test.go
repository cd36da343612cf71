package errors_test

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinefinder/cinefinder-server/internal/errors"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.CodeNotFound, http.StatusNotFound},
		{errors.CodeValidation, http.StatusBadRequest},
		{errors.CodeInvalidCredentials, http.StatusUnauthorized},
		{errors.CodePermissionDenied, http.StatusForbidden},
		{errors.CodeEmailInUse, http.StatusConflict},
		{errors.CodeWeakPassword, http.StatusUnprocessableEntity},
		{errors.CodeRateLimited, http.StatusTooManyRequests},
		{errors.CodeCatalogUnavailable, http.StatusBadGateway},
		{errors.CodeInternal, http.StatusInternalServerError},
		{errors.Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := errors.EmailInUse("someone@example.com is taken")

	assert.True(t, errors.Is(err, errors.ErrEmailInUse))
	assert.False(t, errors.Is(err, errors.ErrWeakPassword))
}

func TestCatalogUnavailable_WrapsCause(t *testing.T) {
	upstream := stderrors.New("tmdb: server error")
	err := errors.CatalogUnavailable(upstream)

	assert.True(t, errors.Is(err, errors.ErrCatalogUnavailable))
	assert.True(t, errors.Is(err, upstream))
	assert.Contains(t, err.Error(), "tmdb: server error")
}

func TestError_WithDetailsKeepsCode(t *testing.T) {
	base := errors.Validation("validation failed")
	detailed := base.WithDetails(map[string]string{"email": "must be a valid email address"})

	require.NotSame(t, base, detailed)
	assert.Equal(t, errors.CodeValidation, detailed.Code)
	assert.Nil(t, base.Details)
	assert.NotNil(t, detailed.Details)
}

func TestCode_MessageNeverEmpty(t *testing.T) {
	codes := []errors.Code{
		errors.CodeNotFound, errors.CodeUnauthorized, errors.CodePermissionDenied,
		errors.CodeValidation, errors.CodeInvalidCredentials, errors.CodeTokenExpired,
		errors.CodeEmailInUse, errors.CodeWeakPassword, errors.CodeRateLimited,
		errors.CodeCatalogUnavailable, errors.CodeInternal,
	}
	for _, c := range codes {
		assert.NotEmpty(t, c.Message(), string(c))
	}
}
