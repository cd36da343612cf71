package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/cinefinder/cinefinder-server/internal/api"
	"github.com/cinefinder/cinefinder-server/internal/config"
	"github.com/cinefinder/cinefinder-server/internal/discovery"
	"github.com/cinefinder/cinefinder-server/internal/favorites"
	"github.com/cinefinder/cinefinder-server/internal/logger"
	"github.com/cinefinder/cinefinder-server/internal/validation"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.api.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	identityDB := do.MustInvoke[*IdentityDBHandle](i)
	favoritesRepo := do.MustInvoke[*FavoritesRepoHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	services := &api.Services{
		Catalog:     do.MustInvoke[*CatalogHandle](i).Client,
		Composer:    do.MustInvoke[*discovery.Composer](i),
		Favorites:   do.MustInvoke[*favorites.Service](i),
		Identity:    do.MustInvoke[*IdentityHandle](i).Provider,
		Suggester:   do.MustInvoke[*SuggesterHandle](i).Suggester,
		SearchState: do.MustInvoke[*SearchStateHandle](i).Service,
		Events:      sseHandle.Manager,
		Index:       indexHandle.FavoritesIndex,
		Validator:   do.MustInvoke[*validation.Validator](i),
		Stores: map[string]api.Pinger{
			"badger":    storeHandle,
			"identity":  identityDB,
			"favorites": favoritesRepo,
		},
	}

	handler := api.NewServer(services, api.Config{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestRate:    cfg.Server.RequestRate,
		RequestBurst:   cfg.Server.RequestBurst,
	}, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}
