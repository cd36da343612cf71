package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/cinefinder/cinefinder-server/internal/config"
	"github.com/cinefinder/cinefinder-server/internal/favorites"
	"github.com/cinefinder/cinefinder-server/internal/logger"
	"github.com/cinefinder/cinefinder-server/internal/search"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.FavoritesIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve favorites index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewFavoritesIndex(search.Options{
		Path:   cfg.Data.SearchIndexPath(),
		Logger: log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{FavoritesIndex: index}, nil
}

// ProvideFavoritesService provides the favorites service, wired to the
// index and the event stream.
func ProvideFavoritesService(i do.Injector) (*favorites.Service, error) {
	repo := do.MustInvoke[*FavoritesRepoHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := favorites.NewService(repo.Repository, log.Logger)
	svc.SetIndex(indexHandle.FavoritesIndex)
	svc.SetNotifier(sseHandle.Manager)

	return svc, nil
}

// ReindexFavorites rebuilds the index from the repository. The repository
// is the source of truth, so this runs on every start, before the HTTP
// server accepts writes. Failures are logged and startup continues.
func ReindexFavorites(i do.Injector) {
	svc := do.MustInvoke[*favorites.Service](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := svc.Reindex(ctx); err != nil {
		log.Error("Favorites reindex failed", "error", err)
	}
}
