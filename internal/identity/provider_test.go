package identity

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinefinder/cinefinder-server/internal/auth"
	"github.com/cinefinder/cinefinder-server/internal/domain"
	domainerrors "github.com/cinefinder/cinefinder-server/internal/errors"
	"github.com/cinefinder/cinefinder-server/internal/store/sqlite"
	"github.com/cinefinder/cinefinder-server/internal/validation"
)

type eventLog struct {
	mu     sync.Mutex
	events []domain.SessionEvent
}

func (l *eventLog) listen(evt domain.SessionEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, evt)
}

func (l *eventLog) types() []domain.SessionEventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.SessionEventType, len(l.events))
	for i, e := range l.events {
		out[i] = e.Type
	}
	return out
}

func setupProvider(t *testing.T) *Provider {
	t.Helper()
	dir := t.TempDir()

	st, err := sqlite.Open(filepath.Join(dir, "identity.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	key, err := auth.LoadOrGenerateKey(filepath.Join(dir, "auth.key"))
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	hasher := auth.NewPasswordHasher(auth.HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})

	p := NewProvider(st, hasher, tokens, validation.New(), Config{
		SessionDuration: 24 * time.Hour,
		SignInRate:      0.001,
		SignInBurst:     3,
	}, nil)
	t.Cleanup(p.Close)
	return p
}

func signUp(t *testing.T, p *Provider, email, password string) *AuthResult {
	t.Helper()
	res, err := p.SignUp(context.Background(), SignUpRequest{Email: email, Password: password, ConfirmPassword: password})
	require.NoError(t, err)
	return res
}

func codeOf(t *testing.T, err error) domainerrors.Code {
	t.Helper()
	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	return de.Code
}

func TestSignUp(t *testing.T) {
	p := setupProvider(t)

	res := signUp(t, p, "film.fan@example.com", "popcorn42")
	assert.NotEmpty(t, res.AccessToken)
	assert.NotContains(t, res.Session.UserID, "_")
	assert.Equal(t, "film.fan@example.com", res.Session.Email)

	sess, err := p.Authenticate(context.Background(), res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.Session.ID, sess.ID)
}

func TestSignUp_Errors(t *testing.T) {
	p := setupProvider(t)
	signUp(t, p, "taken@example.com", "popcorn42")

	tests := []struct {
		name string
		req  SignUpRequest
		want domainerrors.Code
	}{
		{"malformed email", SignUpRequest{Email: "nope", Password: "popcorn42", ConfirmPassword: "popcorn42"}, domainerrors.CodeValidation},
		{"short password", SignUpRequest{Email: "a@example.com", Password: "abc", ConfirmPassword: "abc"}, domainerrors.CodeValidation},
		{"mismatch", SignUpRequest{Email: "a@example.com", Password: "popcorn42", ConfirmPassword: "popcorn43"}, domainerrors.CodeValidation},
		{"repeated character", SignUpRequest{Email: "a@example.com", Password: "aaaaaaa", ConfirmPassword: "aaaaaaa"}, domainerrors.CodeWeakPassword},
		{"email local part", SignUpRequest{Email: "cinephile@example.com", Password: "Cinephile", ConfirmPassword: "Cinephile"}, domainerrors.CodeWeakPassword},
		{"duplicate email", SignUpRequest{Email: " TAKEN@example.com", Password: "popcorn42", ConfirmPassword: "popcorn42"}, domainerrors.CodeEmailInUse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.SignUp(context.Background(), tt.req)
			assert.Equal(t, tt.want, codeOf(t, err))
		})
	}
}

func TestSignIn(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()
	signUp(t, p, "a@example.com", "popcorn42")

	res, err := p.SignIn(ctx, SignInRequest{Email: "A@Example.com", Password: "popcorn42"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)

	_, err = p.SignIn(ctx, SignInRequest{Email: "a@example.com", Password: "wrong-pass"})
	assert.Equal(t, domainerrors.CodeInvalidCredentials, codeOf(t, err))

	_, err = p.SignIn(ctx, SignInRequest{Email: "ghost@example.com", Password: "popcorn42"})
	assert.Equal(t, domainerrors.CodeInvalidCredentials, codeOf(t, err))
}

func TestSignIn_RateLimitedPerEmail(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()
	signUp(t, p, "a@example.com", "popcorn42")

	for range 3 {
		_, err := p.SignIn(ctx, SignInRequest{Email: "a@example.com", Password: "wrong-pass"})
		assert.Equal(t, domainerrors.CodeInvalidCredentials, codeOf(t, err))
	}

	// Even the right password is refused once the bucket is empty.
	_, err := p.SignIn(ctx, SignInRequest{Email: "a@example.com", Password: "popcorn42"})
	assert.Equal(t, domainerrors.CodeRateLimited, codeOf(t, err))

	// Other emails are unaffected.
	_, err = p.SignIn(ctx, SignInRequest{Email: "b@example.com", Password: "popcorn42"})
	assert.Equal(t, domainerrors.CodeInvalidCredentials, codeOf(t, err))
}

func TestSignOut(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()
	res := signUp(t, p, "a@example.com", "popcorn42")

	require.NoError(t, p.SignOut(ctx, res.Session.ID))
	require.NoError(t, p.SignOut(ctx, res.Session.ID))

	_, err := p.Authenticate(ctx, res.AccessToken)
	assert.Equal(t, domainerrors.CodeUnauthorized, codeOf(t, err))
}

func TestAuthenticate(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()
	res := signUp(t, p, "a@example.com", "popcorn42")

	_, err := p.Authenticate(ctx, "")
	assert.Equal(t, domainerrors.CodeUnauthorized, codeOf(t, err))

	_, err = p.Authenticate(ctx, "v4.local.garbage")
	assert.Equal(t, domainerrors.CodeUnauthorized, codeOf(t, err))

	// The session outlives the token in this setup; jump past both.
	p.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	_, err = p.Authenticate(ctx, res.AccessToken)
	require.Error(t, err)
}

func TestRefresh(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()
	res := signUp(t, p, "a@example.com", "popcorn42")

	refreshed, err := p.Refresh(ctx, res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.Session.ID, refreshed.Session.ID)
	assert.NotEqual(t, res.AccessToken, refreshed.AccessToken)
}

func TestSubscribe(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()

	first, second := &eventLog{}, &eventLog{}
	unsubscribeFirst := p.Subscribe(first.listen)
	unsubscribeSecond := p.Subscribe(second.listen)
	defer unsubscribeSecond()

	res := signUp(t, p, "a@example.com", "popcorn42")
	assert.Equal(t, []domain.SessionEventType{domain.SessionSignedIn}, first.types())
	assert.Equal(t, []domain.SessionEventType{domain.SessionSignedIn}, second.types())

	unsubscribeFirst()
	unsubscribeFirst()

	require.NoError(t, p.SignOut(ctx, res.Session.ID))
	assert.Equal(t, []domain.SessionEventType{domain.SessionSignedIn}, first.types())
	assert.Equal(t, []domain.SessionEventType{domain.SessionSignedIn, domain.SessionSignedOut}, second.types())
}

func TestSubscribe_UnsubscribeDuringPublish(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()

	var unsubscribeLater func()
	later := &eventLog{}
	var selfCalls int
	var unsubscribeSelf func()

	// Registered first, so it runs before the listener it removes.
	p.Subscribe(func(domain.SessionEvent) { unsubscribeLater() })
	unsubscribeSelf = p.Subscribe(func(domain.SessionEvent) {
		selfCalls++
		unsubscribeSelf()
	})
	unsubscribeLater = p.Subscribe(later.listen)

	res := signUp(t, p, "a@example.com", "popcorn42")
	assert.Empty(t, later.types(), "removed listener must not run in the same publish")
	assert.Equal(t, 1, selfCalls)

	require.NoError(t, p.SignOut(ctx, res.Session.ID))
	assert.Empty(t, later.types())
	assert.Equal(t, 1, selfCalls)
}

func TestPurgeExpiredSessions(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()
	signUp(t, p, "a@example.com", "popcorn42")

	n, err := p.PurgeExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	p.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	n, err = p.PurgeExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWeakPasswordReason(t *testing.T) {
	tests := []struct {
		email, password string
		weak            bool
	}{
		{"a@example.com", "zzzzzz", true},
		{"a@example.com", "ğğğğğğ", true},
		{"movie.buff@example.com", "MOVIE.BUFF", true},
		{"movie.buff@example.com", "movie.buff1", false},
		{"a@example.com", "popcorn42", false},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			assert.Equal(t, tt.weak, weakPasswordReason(tt.email, tt.password) != "")
		})
	}
}
