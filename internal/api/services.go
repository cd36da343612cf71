package api

import (
	"context"

	"github.com/cinefinder/cinefinder-server/internal/catalog/tmdb"
	"github.com/cinefinder/cinefinder-server/internal/discovery"
	"github.com/cinefinder/cinefinder-server/internal/favorites"
	"github.com/cinefinder/cinefinder-server/internal/identity"
	"github.com/cinefinder/cinefinder-server/internal/search"
	"github.com/cinefinder/cinefinder-server/internal/searchstate"
	"github.com/cinefinder/cinefinder-server/internal/sse"
	"github.com/cinefinder/cinefinder-server/internal/suggest"
	"github.com/cinefinder/cinefinder-server/internal/validation"
)

// Pinger is a store the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups everything the handlers call.
type Services struct {
	Catalog     *tmdb.Client
	Composer    *discovery.Composer
	Favorites   *favorites.Service
	Identity    *identity.Provider
	Suggester   *suggest.Suggester
	SearchState *searchstate.Service
	Events      *sse.Manager
	Index       *search.FavoritesIndex // may be nil
	Validator   *validation.Validator

	// Stores are probed by /health, keyed by component name.
	Stores map[string]Pinger
}
