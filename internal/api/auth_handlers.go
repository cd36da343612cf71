package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cinefinder/cinefinder-server/internal/domain"
	"github.com/cinefinder/cinefinder-server/internal/identity"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "signUp",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/signup",
		Summary:       "Sign up",
		Description:   "Creates an account and signs it in",
		Tags:          []string{"Authentication"},
		DefaultStatus: http.StatusCreated,
	}, s.handleSignUp)

	huma.Register(s.api, huma.Operation{
		OperationID: "signIn",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/signin",
		Summary:     "Sign in",
		Description: "Authenticates with email and password and returns an access token. Attempts are rate limited per email.",
		Tags:        []string{"Authentication"},
	}, s.handleSignIn)

	huma.Register(s.api, huma.Operation{
		OperationID: "signOut",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/signout",
		Summary:     "Sign out",
		Description: "Ends the caller's session",
		Tags:        []string{"Authentication"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSignOut)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSession",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/session",
		Summary:     "Current session",
		Description: "Returns the caller's session",
		Tags:        []string{"Authentication"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "refreshToken",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/refresh",
		Summary:     "Refresh token",
		Description: "Issues a new access token for the current session. The session itself is not extended.",
		Tags:        []string{"Authentication"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRefresh)
}

// === DTOs ===

// SignUpInput wraps the sign-up request for Huma.
type SignUpInput struct {
	Body identity.SignUpRequest
}

// SignInInput wraps the sign-in request for Huma.
type SignInInput struct {
	Body identity.SignInRequest
}

// AuthenticatedInput carries the caller's token.
type AuthenticatedInput struct {
	Authorization string `header:"Authorization"`
}

// AuthResponse contains an access token and the session it belongs to.
type AuthResponse struct {
	AccessToken string         `json:"access_token" doc:"PASETO access token"`
	TokenType   string         `json:"token_type" doc:"Token type (Bearer)"`
	ExpiresAt   time.Time      `json:"expires_at" doc:"Access token expiry"`
	ExpiresIn   int            `json:"expires_in" doc:"Token expiry in seconds"`
	Session     domain.Session `json:"session" doc:"Signed-in session"`
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	Body AuthResponse
}

// SessionOutput wraps the current session.
type SessionOutput struct {
	Body domain.Session
}

// MessageResponse contains a simple message.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// === Handlers ===

func (s *Server) handleSignUp(ctx context.Context, input *SignUpInput) (*AuthOutput, error) {
	res, err := s.services.Identity.SignUp(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: mapAuthResponse(res)}, nil
}

func (s *Server) handleSignIn(ctx context.Context, input *SignInInput) (*AuthOutput, error) {
	res, err := s.services.Identity.SignIn(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: mapAuthResponse(res)}, nil
}

func (s *Server) handleSignOut(ctx context.Context, _ *AuthenticatedInput) (*MessageOutput, error) {
	sess, err := GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Identity.SignOut(ctx, sess.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Signed out"}}, nil
}

func (s *Server) handleGetSession(ctx context.Context, _ *AuthenticatedInput) (*SessionOutput, error) {
	sess, err := GetSession(ctx)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: *sess}, nil
}

func (s *Server) handleRefresh(ctx context.Context, input *AuthenticatedInput) (*AuthOutput, error) {
	// Surfaces TOKEN_EXPIRED instead of a generic 401.
	if _, err := GetSession(ctx); err != nil {
		return nil, err
	}
	res, err := s.services.Identity.Refresh(ctx, bearerFromHeader(input.Authorization))
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: mapAuthResponse(res)}, nil
}

func mapAuthResponse(res *identity.AuthResult) AuthResponse {
	return AuthResponse{
		AccessToken: res.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   res.ExpiresAt.UTC(),
		ExpiresIn:   int(time.Until(res.ExpiresAt).Seconds()),
		Session:     *res.Session,
	}
}
