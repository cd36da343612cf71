package auth

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/cinefinder/cinefinder-server/internal/domain"
	"github.com/cinefinder/cinefinder-server/internal/id"
)

const (
	tokenIssuer   = "cinefinder-server"
	tokenAudience = "cinefinder-web"
)

var (
	// ErrInvalidToken is returned for tokens that fail decryption or claim rules.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned for well-formed tokens past their expiry.
	ErrTokenExpired = errors.New("token expired")
)

// TokenService issues PASETO v4.local access tokens bound to a session.
type TokenService struct {
	key            paseto.V4SymmetricKey
	accessDuration time.Duration
	now            func() time.Time
}

// NewTokenService creates a token service from a 32-byte key.
func NewTokenService(key []byte, accessDuration time.Duration) (*TokenService, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("PASETO v4 key must be %d bytes, got %d", KeySize, len(key))
	}
	k, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("create PASETO key: %w", err)
	}
	return &TokenService{key: k, accessDuration: accessDuration, now: time.Now}, nil
}

// Issue returns an access token for sess and its expiry. The token never
// outlives the session.
func (s *TokenService) Issue(sess *domain.Session) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.accessDuration)
	if sess.ExpiresAt.Before(exp) {
		exp = sess.ExpiresAt
	}

	tokenID, err := id.Generate("tok")
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate token ID: %w", err)
	}

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(sess.UserID)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(exp)
	token.SetJti(tokenID)
	//nolint:errcheck // Set only fails for unmarshalable values
	_ = token.Set("session_id", sess.ID)
	//nolint:errcheck // Set only fails for unmarshalable values
	_ = token.Set("user_id", sess.UserID)
	//nolint:errcheck // Set only fails for unmarshalable values
	_ = token.Set("email", sess.Email)

	return token.V4Encrypt(s.key, nil), exp, nil
}

// Verify decrypts token and checks issuer, audience and validity window.
// Expiry is checked here rather than by the parser so it can be reported
// as ErrTokenExpired.
func (s *TokenService) Verify(token string) (*AccessClaims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))

	parsed, err := parser.ParseV4Local(s.key, token, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var claims AccessClaims
	if err := json.Unmarshal(parsed.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("%w: parse claims: %w", ErrInvalidToken, err)
	}
	if claims.SessionID == "" {
		return nil, fmt.Errorf("%w: missing session", ErrInvalidToken)
	}

	now := s.now()
	if !now.Before(claims.Expiration) {
		return nil, ErrTokenExpired
	}
	if now.Before(claims.NotBefore) {
		return nil, fmt.Errorf("%w: not yet valid", ErrInvalidToken)
	}
	return &claims, nil
}

// AccessDuration returns the configured token lifetime.
func (s *TokenService) AccessDuration() time.Duration {
	return s.accessDuration
}
