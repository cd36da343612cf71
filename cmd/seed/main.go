// Package main seeds a local data directory with a demo account whose
// favorites are the catalog's currently popular movies.
//
// It reads the same configuration as the server (TMDB_API_KEY, DATA_PATH,
// FAVORITES_BACKEND, ...). Stop the server first; Badger allows one writer.
//
// Usage:
//
//	go run ./cmd/seed --email demo@example.com --password popcorn42 --count 8
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cinefinder/cinefinder-server/internal/auth"
	"github.com/cinefinder/cinefinder-server/internal/catalog/tmdb"
	"github.com/cinefinder/cinefinder-server/internal/config"
	domainerrors "github.com/cinefinder/cinefinder-server/internal/errors"
	"github.com/cinefinder/cinefinder-server/internal/favorites"
	"github.com/cinefinder/cinefinder-server/internal/identity"
	"github.com/cinefinder/cinefinder-server/internal/logger"
	"github.com/cinefinder/cinefinder-server/internal/search"
	"github.com/cinefinder/cinefinder-server/internal/store"
	"github.com/cinefinder/cinefinder-server/internal/store/sqlite"
	"github.com/cinefinder/cinefinder-server/internal/validation"
)

var (
	email    = flag.String("email", "demo@example.com", "Demo account email")
	password = flag.String("password", "popcorn42", "Demo account password")
	count    = flag.Int("count", 8, "Number of popular movies to save")
)

func main() {
	flag.Parse()

	// Server flags are not accepted here; configuration comes from the environment.
	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Favorites.Backend != config.BackendBadger {
		log.Fatalf("Seeding supports the badger favorites backend only (got %q)", cfg.Favorites.Backend)
	}

	lg := logger.New(logger.Config{Level: logger.ParseLevel("warn"), Environment: cfg.App.Environment})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Printf("Seeding data in: %s\n", cfg.Data.BasePath)

	db, err := store.New(cfg.Data.BadgerPath(), lg.Logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer db.Close()

	identityDB, err := sqlite.Open(cfg.Data.IdentityDBPath(), lg.Logger)
	if err != nil {
		log.Fatalf("Failed to open identity database: %v", err)
	}
	defer identityDB.Close()

	index, err := search.NewFavoritesIndex(search.Options{Path: cfg.Data.SearchIndexPath(), Logger: lg.Logger})
	if err != nil {
		log.Fatalf("Failed to open search index: %v", err)
	}
	defer index.Close()

	key, err := auth.LoadOrGenerateKey(cfg.Data.AuthKeyPath())
	if err != nil {
		log.Fatalf("Failed to load auth key: %v", err)
	}
	tokens, err := auth.NewTokenService(key, cfg.Auth.AccessTokenDuration)
	if err != nil {
		log.Fatalf("Failed to create token service: %v", err)
	}

	provider := identity.NewProvider(identityDB, auth.NewPasswordHasher(auth.DefaultHashParams), tokens, validation.New(),
		identity.Config{SessionDuration: cfg.Auth.SessionDuration, SignInRate: cfg.Auth.SignInRate, SignInBurst: cfg.Auth.SignInBurst},
		lg.Logger)
	defer provider.Close()

	userID := signUpOrIn(ctx, provider)
	fmt.Printf("Demo user: %s (%s)\n", *email, userID)

	catalog := tmdb.New(tmdb.Config{
		APIKey:   cfg.Catalog.APIKey,
		BaseURL:  cfg.Catalog.BaseURL,
		Language: cfg.Catalog.Language,
		RPS:      cfg.Catalog.RPS,
		Burst:    cfg.Catalog.Burst,
		Timeout:  cfg.Catalog.Timeout,
	}, lg.Logger)
	defer catalog.Close()

	popular, err := catalog.PopularMovies(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch popular movies: %v", err)
	}

	favs := favorites.NewService(db, lg.Logger)
	favs.SetIndex(index)

	added := 0
	for _, m := range popular {
		if added == *count {
			break
		}
		if _, err := favs.Add(ctx, userID, m); err != nil {
			log.Printf("Failed to save %q: %v", m.Title, err)
			continue
		}
		added++
		fmt.Printf("  + %s (%s)\n", m.Title, m.ReleaseDate)
	}

	fmt.Printf("\nSaved %d favorites\n", added)
	if added == 0 {
		os.Exit(1)
	}
}

// signUpOrIn creates the demo account, or signs in when it already exists.
func signUpOrIn(ctx context.Context, provider *identity.Provider) string {
	res, err := provider.SignUp(ctx, identity.SignUpRequest{Email: *email, Password: *password, ConfirmPassword: *password})
	if errors.Is(err, domainerrors.EmailInUse("")) {
		res, err = provider.SignIn(ctx, identity.SignInRequest{Email: *email, Password: *password})
	}
	if err != nil {
		log.Fatalf("Failed to create demo user: %v", err)
	}
	return res.Session.UserID
}
