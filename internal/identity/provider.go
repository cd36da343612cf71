// Package identity signs users up, in and out, and tells subscribers
// about every session transition.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cinefinder/cinefinder-server/internal/auth"
	"github.com/cinefinder/cinefinder-server/internal/domain"
	domainerrors "github.com/cinefinder/cinefinder-server/internal/errors"
	"github.com/cinefinder/cinefinder-server/internal/id"
	"github.com/cinefinder/cinefinder-server/internal/ratelimit"
	"github.com/cinefinder/cinefinder-server/internal/store"
	"github.com/cinefinder/cinefinder-server/internal/validation"
)

// Store persists users and sessions. The SQLite store implements it.
type Store interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	TouchSignIn(ctx context.Context, userID string, at time.Time) error
	CreateSession(ctx context.Context, sess *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
}

// Listener receives session transitions. It is called synchronously after
// the transition is stored and must not block.
type Listener func(domain.SessionEvent)

// SignUpRequest is a new account request.
type SignUpRequest struct {
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required,min=6,max=1024"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// SignInRequest is an email and password sign-in.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned on sign-up, sign-in and refresh.
type AuthResult struct {
	Session     *domain.Session
	AccessToken string
	ExpiresAt   time.Time
}

// Config tunes a Provider.
type Config struct {
	SessionDuration time.Duration
	SignInRate      float64
	SignInBurst     int
}

// Provider is the identity service. Construct one per process and pass it
// explicitly; there is no package-level instance.
type Provider struct {
	store     Store
	hasher    *auth.PasswordHasher
	tokens    *auth.TokenService
	validator *validation.Validator
	limiter   *ratelimit.KeyedRateLimiter
	cfg       Config
	logger    *slog.Logger
	now       func() time.Time

	mu        sync.RWMutex
	listeners map[uint64]Listener
	nextID    uint64
}

// NewProvider wires a Provider.
func NewProvider(
	st Store,
	hasher *auth.PasswordHasher,
	tokens *auth.TokenService,
	v *validation.Validator,
	cfg Config,
	logger *slog.Logger,
) *Provider {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Provider{
		store:     st,
		hasher:    hasher,
		tokens:    tokens,
		validator: v,
		limiter:   ratelimit.New(cfg.SignInRate, cfg.SignInBurst),
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		listeners: make(map[uint64]Listener),
	}
}

// Close stops the sign-in limiter's sweeper.
func (p *Provider) Close() {
	p.limiter.Stop()
}

// SignUp creates an account and signs it in.
func (p *Provider) SignUp(ctx context.Context, req SignUpRequest) (*AuthResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := p.validator.Validate(req); err != nil {
		return nil, err
	}
	if reason := weakPasswordReason(req.Email, req.Password); reason != "" {
		return nil, domainerrors.WeakPassword(reason)
	}

	hash, err := p.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	userID, err := id.GenerateKeySafe("u")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		ID:           userID,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    p.now().UTC(),
	}
	if err := p.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.EmailInUse("an account with this email already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	p.logger.Info("user signed up", "user_id", user.ID)
	return p.startSession(ctx, user)
}

// SignIn checks credentials and opens a session. Attempts are limited per
// email; unknown emails and wrong passwords are indistinguishable.
func (p *Provider) SignIn(ctx context.Context, req SignInRequest) (*AuthResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := p.validator.Validate(req); err != nil {
		return nil, err
	}

	if !p.limiter.Allow(strings.ToLower(req.Email)) {
		p.logger.Warn("sign-in rate limited", "email_domain", emailDomain(req.Email))
		return nil, domainerrors.RateLimited("too many sign-in attempts, please wait and try again")
	}

	user, err := p.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !p.hasher.Verify(user.PasswordHash, req.Password) {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	if err := p.store.TouchSignIn(ctx, user.ID, p.now()); err != nil {
		p.logger.Warn("failed to record sign-in time", "user_id", user.ID, "error", err)
	}

	p.logger.Info("user signed in", "user_id", user.ID)
	return p.startSession(ctx, user)
}

// SignOut ends a session. Ending an unknown session succeeds.
func (p *Provider) SignOut(ctx context.Context, sessionID string) error {
	sess, err := p.store.GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup session: %w", err)
	}

	if err := p.store.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	p.logger.Info("user signed out", "user_id", sess.UserID)
	p.publish(domain.SessionEvent{Type: domain.SessionSignedOut, Session: *sess})
	return nil
}

// Authenticate resolves an access token to its live session.
func (p *Provider) Authenticate(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, domainerrors.Unauthorized("authentication required")
	}

	claims, err := p.tokens.Verify(token)
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return nil, domainerrors.TokenExpired("session expired, please sign in again")
	case err != nil:
		return nil, domainerrors.Unauthorized("invalid access token")
	}

	sess, err := p.store.GetSession(ctx, claims.SessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.Unauthorized("session has ended")
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if sess.IsExpired(p.now()) {
		return nil, domainerrors.TokenExpired("session expired, please sign in again")
	}
	return sess, nil
}

// Refresh issues a new access token for the token's session. It does not
// extend the session.
func (p *Provider) Refresh(ctx context.Context, token string) (*AuthResult, error) {
	sess, err := p.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	access, exp, err := p.tokens.Issue(sess)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{Session: sess, AccessToken: access, ExpiresAt: exp}, nil
}

// Subscribe registers l for every later transition. The returned function
// unsubscribes; after it returns, l receives nothing more.
func (p *Provider) Subscribe(l Listener) (unsubscribe func()) {
	p.mu.Lock()
	p.nextID++
	key := p.nextID
	p.listeners[key] = l
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, key)
			p.mu.Unlock()
		})
	}
}

// PurgeExpiredSessions removes sessions past their expiry.
func (p *Provider) PurgeExpiredSessions(ctx context.Context) (int, error) {
	n, err := p.store.DeleteExpiredSessions(ctx, p.now())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	if n > 0 {
		p.logger.Info("expired sessions purged", "count", n)
	}
	return n, nil
}

// RunSessionSweeper purges expired sessions every interval until ctx ends.
func (p *Provider) RunSessionSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.PurgeExpiredSessions(ctx); err != nil {
				p.logger.Warn("session sweep failed", "error", err)
			}
		}
	}
}

func (p *Provider) startSession(ctx context.Context, user *domain.User) (*AuthResult, error) {
	sessionID, err := id.Generate("sess")
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	now := p.now().UTC()
	sess := &domain.Session{
		ID:        sessionID,
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(p.cfg.SessionDuration),
	}
	if err := p.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	token, exp, err := p.tokens.Issue(sess)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	p.publish(domain.SessionEvent{Type: domain.SessionSignedIn, Session: *sess})
	return &AuthResult{Session: sess, AccessToken: token, ExpiresAt: exp}, nil
}

// publish delivers evt to the listeners registered when it starts, in
// subscription order. Each one is rechecked just before its call, so a
// listener unsubscribed mid-publish (even by another listener) is skipped.
func (p *Provider) publish(evt domain.SessionEvent) {
	p.mu.RLock()
	keys := slices.Sorted(maps.Keys(p.listeners))
	p.mu.RUnlock()

	for _, key := range keys {
		p.mu.RLock()
		l, ok := p.listeners[key]
		p.mu.RUnlock()
		if ok {
			l(evt)
		}
	}
}
