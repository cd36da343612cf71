// Package di provides dependency injection configuration for the CineFinder server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/cinefinder/cinefinder-server/internal/auth"
	"github.com/cinefinder/cinefinder-server/internal/config"
	"github.com/cinefinder/cinefinder-server/internal/di/providers"
	"github.com/cinefinder/cinefinder-server/internal/discovery"
	"github.com/cinefinder/cinefinder-server/internal/favorites"
	"github.com/cinefinder/cinefinder-server/internal/logger"
	"github.com/cinefinder/cinefinder-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideIdentityDB)
	do.Provide(injector, providers.ProvideFavoritesRepo)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideIdentity)
	do.Provide(injector, providers.ProvideSessionSweeper)

	// Discovery
	do.Provide(injector, providers.ProvideCatalog)
	do.Provide(injector, providers.ProvideComposer)
	do.Provide(injector, providers.ProvideSuggester)
	do.Provide(injector, providers.ProvideSearchState)
	do.Provide(injector, providers.ProvideFavoritesService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes every service, rebuilds the favorites index and
// finally starts the HTTP server.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)

	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.IdentityDBHandle](injector)
	_ = do.MustInvoke[*providers.FavoritesRepoHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)

	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*providers.IdentityHandle](injector)
	_ = do.MustInvoke[*providers.SessionSweeperJob](injector)

	_ = do.MustInvoke[*providers.CatalogHandle](injector)
	_ = do.MustInvoke[*discovery.Composer](injector)
	_ = do.MustInvoke[*providers.SuggesterHandle](injector)
	_ = do.MustInvoke[*providers.SearchStateHandle](injector)
	_ = do.MustInvoke[*favorites.Service](injector)

	providers.ReindexFavorites(injector)

	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)
	return nil
}
