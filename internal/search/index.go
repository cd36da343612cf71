package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/cinefinder/cinefinder-server/internal/domain"
)

// FavoritesIndex wraps a Bleve index of favorite snapshots.
// All methods are safe for concurrent use; Rebuild takes the write lock.
type FavoritesIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the index.
type Options struct {
	Path   string // index directory; empty means in-memory
	Logger *slog.Logger
}

// mappingVersion is bumped whenever buildIndexMapping changes.
// A mismatch on startup drops and recreates the index.
const mappingVersion = "1"

// NewFavoritesIndex opens the index at opts.Path, recreating it when it is
// corrupt or was built with an older mapping. The caller is expected to
// Reindex from the repository after a recreate.
func NewFavoritesIndex(opts Options) (*FavoritesIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if opts.Path == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create memory index: %w", err)
		}
		return &FavoritesIndex{index: index, logger: logger}, nil
	}

	versionPath := opts.Path + ".version"
	var index bleve.Index

	if _, statErr := os.Stat(opts.Path); statErr == nil {
		existing, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil || string(existing) != mappingVersion:
			logger.Info("favorites index mapping changed, rebuilding",
				"old_version", string(existing),
				"new_version", mappingVersion,
			)
		default:
			opened, err := bleve.Open(opts.Path)
			if err != nil {
				logger.Warn("failed to open favorites index, recreating", "path", opts.Path, "error", err)
			} else {
				index = opened
			}
		}
		if index == nil {
			if err := os.RemoveAll(opts.Path); err != nil {
				return nil, fmt.Errorf("remove old index: %w", err)
			}
		}
	}

	if index == nil {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
		created, err := bleve.New(opts.Path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			logger.Warn("failed to write index version file", "error", err)
		}
		logger.Info("created favorites index", "path", opts.Path, "mapping_version", mappingVersion)
		index = created
	} else {
		logger.Info("opened favorites index", "path", opts.Path)
	}

	return &FavoritesIndex{index: index, path: opts.Path, logger: logger}, nil
}

// Close releases the index.
func (s *FavoritesIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexFavorite adds or replaces an entry.
func (s *FavoritesIndex) IndexFavorite(e *domain.FavoriteEntry) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := NewFavoriteDocument(e)
	return s.index.Index(doc.ID, doc.ToMap())
}

// RemoveFavorite drops an entry. Removing an unknown entry succeeds.
func (s *FavoritesIndex) RemoveFavorite(userID string, movieID int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(domain.FavoriteKey(userID, movieID))
}

// IndexFavorites indexes entries in batches of 500.
func (s *FavoritesIndex) IndexFavorites(entries []*domain.FavoriteEntry) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500
	for i := 0; i < len(entries); i += batchSize {
		end := min(i+batchSize, len(entries))

		batch := s.index.NewBatch()
		for _, e := range entries[i:end] {
			doc := NewFavoriteDocument(e)
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// DocumentCount returns the number of indexed favorites.
func (s *FavoritesIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops every document and recreates the index empty.
func (s *FavoritesIndex) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}

	var (
		index bleve.Index
		err   error
	)
	if s.path == "" {
		index, err = bleve.NewMemOnly(buildIndexMapping())
	} else {
		if err := os.RemoveAll(s.path); err != nil {
			return fmt.Errorf("remove index: %w", err)
		}
		index, err = bleve.New(s.path, buildIndexMapping())
	}
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.index = index
	s.logger.Info("rebuilt favorites index", "path", s.path)
	return nil
}
