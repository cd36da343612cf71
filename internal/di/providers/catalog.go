package providers

import (
	"github.com/samber/do/v2"

	"github.com/cinefinder/cinefinder-server/internal/catalog/tmdb"
	"github.com/cinefinder/cinefinder-server/internal/config"
	"github.com/cinefinder/cinefinder-server/internal/discovery"
	"github.com/cinefinder/cinefinder-server/internal/logger"
	"github.com/cinefinder/cinefinder-server/internal/searchstate"
	"github.com/cinefinder/cinefinder-server/internal/suggest"
)

// CatalogHandle wraps the TMDB client with shutdown capability.
type CatalogHandle struct {
	*tmdb.Client
}

// Shutdown implements do.Shutdownable.
func (h *CatalogHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideCatalog provides the TMDB catalog client.
func ProvideCatalog(i do.Injector) (*CatalogHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := tmdb.New(tmdb.Config{
		APIKey:   cfg.Catalog.APIKey,
		BaseURL:  cfg.Catalog.BaseURL,
		Language: cfg.Catalog.Language,
		RPS:      cfg.Catalog.RPS,
		Burst:    cfg.Catalog.Burst,
		Timeout:  cfg.Catalog.Timeout,
	}, log.Logger)

	log.Info("Catalog client ready", "base_url", cfg.Catalog.BaseURL, "language", cfg.Catalog.Language)
	return &CatalogHandle{Client: client}, nil
}

// ProvideComposer provides the search composer.
func ProvideComposer(i do.Injector) (*discovery.Composer, error) {
	catalog := do.MustInvoke[*CatalogHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return discovery.NewComposer(catalog.Client, log.Logger), nil
}

// SuggesterHandle wraps the suggester with shutdown capability.
type SuggesterHandle struct {
	*suggest.Suggester
}

// Shutdown implements do.Shutdownable.
func (h *SuggesterHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideSuggester provides the debounced suggester. It publishes to the
// event stream and forgets users when they sign out.
func ProvideSuggester(i do.Injector) (*SuggesterHandle, error) {
	catalog := do.MustInvoke[*CatalogHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	identityHandle := do.MustInvoke[*IdentityHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	s := suggest.NewSuggester(catalog.Client, sseHandle.Manager, log.Logger)
	identityHandle.Subscribe(s.SessionChanged)

	return &SuggesterHandle{Suggester: s}, nil
}

// SearchStateHandle wraps the search state service and its backend.
type SearchStateHandle struct {
	*searchstate.Service
	memory *searchstate.MemoryStore
}

// Shutdown implements do.Shutdownable.
func (h *SearchStateHandle) Shutdown() error {
	if h.memory != nil {
		h.memory.Close()
	}
	return nil
}

// ProvideSearchState provides last-search persistence on the configured backend.
func ProvideSearchState(i do.Injector) (*SearchStateHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.SearchState.Backend == config.BackendMemory {
		mem := searchstate.NewMemoryStore(cfg.SearchState.TTL)
		log.Info("Search state kept in memory", "ttl", cfg.SearchState.TTL)
		return &SearchStateHandle{Service: searchstate.NewService(mem, log.Logger), memory: mem}, nil
	}

	storeHandle := do.MustInvoke[*StoreHandle](i)
	st := searchstate.NewBadgerStore(storeHandle.Store, cfg.SearchState.TTL)
	log.Info("Search state stored in Badger", "ttl", cfg.SearchState.TTL)
	return &SearchStateHandle{Service: searchstate.NewService(st, log.Logger)}, nil
}
