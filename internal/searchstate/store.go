// Package searchstate remembers each user's last search and filters so the
// UI can restore them. It is a cache, never a source of truth.
package searchstate

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/cinefinder/cinefinder-server/internal/domain"
	"github.com/cinefinder/cinefinder-server/internal/store"
)

// Store is a key-value store of search states keyed by client.
// Load of an unknown key returns a zero state, not an error.
type Store interface {
	Load(ctx context.Context, key string) (*domain.SearchState, error)
	Save(ctx context.Context, key string, state *domain.SearchState) error
}

// BadgerStore keeps states in the shared Badger database.
type BadgerStore struct {
	db  *store.Store
	ttl time.Duration
}

// NewBadgerStore returns a durable Store whose entries expire after ttl.
func NewBadgerStore(db *store.Store, ttl time.Duration) *BadgerStore {
	return &BadgerStore{db: db, ttl: ttl}
}

func (b *BadgerStore) Load(ctx context.Context, key string) (*domain.SearchState, error) {
	return b.db.LoadSearchState(ctx, key)
}

func (b *BadgerStore) Save(ctx context.Context, key string, state *domain.SearchState) error {
	return b.db.SaveSearchState(ctx, key, state, b.ttl)
}

// MemoryStore keeps states in process memory with expiry. States are lost
// on restart.
type MemoryStore struct {
	cache *ttlcache.Cache[string, domain.SearchState]
}

// NewMemoryStore starts a ttlcache-backed Store. Call Close to stop its
// expiry loop.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, domain.SearchState](ttl),
		ttlcache.WithDisableTouchOnHit[string, domain.SearchState](),
	)
	go cache.Start()
	return &MemoryStore{cache: cache}
}

func (m *MemoryStore) Load(ctx context.Context, key string) (*domain.SearchState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	item := m.cache.Get(key)
	if item == nil {
		return &domain.SearchState{Results: []domain.Movie{}}, nil
	}
	state := item.Value()
	return &state, nil
}

func (m *MemoryStore) Save(ctx context.Context, key string, state *domain.SearchState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.cache.Set(key, *state, ttlcache.DefaultTTL)
	return nil
}

// Len returns the number of live entries.
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}

// Close stops the expiry loop.
func (m *MemoryStore) Close() {
	m.cache.Stop()
}
