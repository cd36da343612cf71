package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/cinefinder/cinefinder-server/internal/domain"
	domainerrors "github.com/cinefinder/cinefinder-server/internal/errors"
	"github.com/cinefinder/cinefinder-server/internal/identity"
	"github.com/cinefinder/cinefinder-server/internal/logger"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	sessionKey   ctxKey = "session"
	authErrorKey ctxKey = "authError"
)

// GetSession returns the authenticated session from context. Without one it
// returns the reason the bearer token was rejected, or UNAUTHORIZED.
func GetSession(ctx context.Context) (*domain.Session, error) {
	if sess, ok := ctx.Value(sessionKey).(*domain.Session); ok && sess != nil {
		return sess, nil
	}
	if err, ok := ctx.Value(authErrorKey).(error); ok {
		return nil, err
	}
	return nil, domainerrors.Unauthorized("authentication required")
}

// GetUserID returns the authenticated user ID from context.
func GetUserID(ctx context.Context) (string, error) {
	sess, err := GetSession(ctx)
	if err != nil {
		return "", err
	}
	return sess.UserID, nil
}

// optionalUserID returns the user ID or "" for anonymous requests.
func optionalUserID(ctx context.Context) string {
	if sess, ok := ctx.Value(sessionKey).(*domain.Session); ok && sess != nil {
		return sess.UserID
	}
	return ""
}

func setSession(ctx context.Context, sess *domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	return bearerFromHeader(r.Header.Get("Authorization"))
}

func bearerFromHeader(h string) string {
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// authMiddleware resolves Bearer tokens to sessions. Requests without a
// valid token continue anonymously; handlers that need a user call
// GetSession, which reports why the token was rejected.
func authMiddleware(provider *identity.Provider, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			sess, err := provider.Authenticate(ctx, token)
			if err != nil {
				ctx = context.WithValue(ctx, authErrorKey, err)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			ctx = setSession(ctx, sess)
			ctx = logger.WithContext(ctx, logger.FromContext(ctx, log).WithField("user_id", sess.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// streamAuthenticator resolves the SSE caller. EventSource cannot set
// headers, so the token may also come from the "token" query parameter.
func streamAuthenticator(provider *identity.Provider) func(r *http.Request) (string, error) {
	return func(r *http.Request) (string, error) {
		if userID := optionalUserID(r.Context()); userID != "" {
			return userID, nil
		}
		token := bearerToken(r)
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		sess, err := provider.Authenticate(r.Context(), token)
		if err != nil {
			return "", err
		}
		return sess.UserID, nil
	}
}
