package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/cinefinder/cinefinder-server/internal/auth"
	"github.com/cinefinder/cinefinder-server/internal/config"
	"github.com/cinefinder/cinefinder-server/internal/identity"
	"github.com/cinefinder/cinefinder-server/internal/logger"
	"github.com/cinefinder/cinefinder-server/internal/validation"
)

// AuthKey wraps the authentication key bytes.
type AuthKey []byte

// ProvideAuthKey loads or generates the authentication key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.Data.AuthKeyPath())
	if err != nil {
		return nil, err
	}

	log.Info("Authentication key loaded",
		"access_token_duration", cfg.Auth.AccessTokenDuration,
		"session_duration", cfg.Auth.SessionDuration,
	)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService([]byte(authKey), cfg.Auth.AccessTokenDuration)
}

// IdentityHandle wraps the identity provider with shutdown capability.
type IdentityHandle struct {
	*identity.Provider
}

// Shutdown implements do.Shutdownable.
func (h *IdentityHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideIdentity provides the identity provider. Session transitions are
// pushed to the user's event streams.
func ProvideIdentity(i do.Injector) (*IdentityHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	db := do.MustInvoke[*IdentityDBHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	v := do.MustInvoke[*validation.Validator](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	provider := identity.NewProvider(
		db.Store,
		auth.NewPasswordHasher(auth.DefaultHashParams),
		tokens,
		v,
		identity.Config{
			SessionDuration: cfg.Auth.SessionDuration,
			SignInRate:      cfg.Auth.SignInRate,
			SignInBurst:     cfg.Auth.SignInBurst,
		},
		log.Logger,
	)
	provider.Subscribe(sseHandle.SessionChanged)

	return &IdentityHandle{Provider: provider}, nil
}

// SessionSweeperJob periodically purges expired sessions.
type SessionSweeperJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *SessionSweeperJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSessionSweeper starts the expired-session sweeper.
func ProvideSessionSweeper(i do.Injector) (*SessionSweeperJob, error) {
	identityHandle := do.MustInvoke[*IdentityHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())
	go identityHandle.RunSessionSweeper(ctx, sessionSweepInterval)

	log.Info("Session sweeper started", "interval", sessionSweepInterval)
	return &SessionSweeperJob{cancel: cancel}, nil
}
