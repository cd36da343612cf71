package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/cinefinder/cinefinder-server/internal/config"
	"github.com/cinefinder/cinefinder-server/internal/favorites"
	"github.com/cinefinder/cinefinder-server/internal/logger"
	"github.com/cinefinder/cinefinder-server/internal/sse"
	"github.com/cinefinder/cinefinder-server/internal/store"
	"github.com/cinefinder/cinefinder-server/internal/store/mongo"
	"github.com/cinefinder/cinefinder-server/internal/store/sqlite"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{Manager: manager, cancel: cancel}, nil
}

// StoreHandle wraps the Badger store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the Badger key-value store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := store.New(cfg.Data.BadgerPath(), log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", cfg.Data.BadgerPath())
	return &StoreHandle{Store: db}, nil
}

// IdentityDBHandle wraps the SQLite identity database.
type IdentityDBHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *IdentityDBHandle) Shutdown() error {
	return h.Close()
}

// ProvideIdentityDB provides the users and sessions database.
func ProvideIdentityDB(i do.Injector) (*IdentityDBHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := sqlite.Open(cfg.Data.IdentityDBPath(), log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Identity database initialized", "path", cfg.Data.IdentityDBPath())
	return &IdentityDBHandle{Store: db}, nil
}

// FavoritesRepoHandle is the configured favorites backend.
type FavoritesRepoHandle struct {
	favorites.Repository
	ping  func(ctx context.Context) error
	close func() error
}

// Ping checks the backend.
func (h *FavoritesRepoHandle) Ping(ctx context.Context) error {
	return h.ping(ctx)
}

// Shutdown implements do.Shutdownable.
func (h *FavoritesRepoHandle) Shutdown() error {
	if h.close == nil {
		return nil
	}
	return h.close()
}

// ProvideFavoritesRepo provides the favorites repository. Badger shares the
// main store; MongoDB opens its own client.
func ProvideFavoritesRepo(i do.Injector) (*FavoritesRepoHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Favorites.Backend {
	case config.BackendBadger:
		storeHandle := do.MustInvoke[*StoreHandle](i)
		// The store handle owns the Badger lifecycle.
		return &FavoritesRepoHandle{Repository: storeHandle.Store, ping: storeHandle.Ping}, nil

	case config.BackendMongo:
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		repo, err := mongo.Connect(ctx, cfg.Favorites.MongoURI, cfg.Favorites.MongoDatabase, log.Logger)
		if err != nil {
			return nil, err
		}
		log.Info("Favorites stored in MongoDB", "database", cfg.Favorites.MongoDatabase)

		return &FavoritesRepoHandle{
			Repository: repo,
			ping:       repo.Ping,
			close: func() error {
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return repo.Close(ctx)
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown favorites backend %q", cfg.Favorites.Backend)
	}
}
