// Package mongo stores favorites as documents in MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/cinefinder/cinefinder-server/internal/domain"
	"github.com/cinefinder/cinefinder-server/internal/store"
)

// FavoritesCollection is the collection holding favorite documents.
const FavoritesCollection = "favorites"

// Server error codes mapped to store.ErrForbidden.
const (
	codeUnauthorized           = 13
	codeAuthenticationFailed   = 18
	codeUnauthorizedForCommand = 8000 // Atlas
)

// favoriteDoc is the stored document. _id is the "userId_movieId" key.
type favoriteDoc struct {
	ID                   string `bson:"_id"`
	domain.FavoriteEntry `bson:",inline"`
}

// Favorites is a MongoDB favorites repository.
type Favorites struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *slog.Logger
}

// Connect dials uri, verifies the connection and ensures indexes.
func Connect(ctx context.Context, uri, database string, logger *slog.Logger) (*Favorites, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", mapError(err))
	}

	f := &Favorites{
		client: client,
		coll:   client.Database(database).Collection(FavoritesCollection),
		logger: logger,
	}
	if err := f.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	logger.Info("mongo favorites connected", "database", database)
	return f, nil
}

func (f *Favorites) ensureIndexes(ctx context.Context) error {
	_, err := f.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "addedAt", Value: -1}},
		Options: options.Index().SetName("user_added"),
	})
	if err != nil {
		return fmt.Errorf("create favorites index: %w", mapError(err))
	}
	return nil
}

// Close disconnects the client.
func (f *Favorites) Close(ctx context.Context) error {
	return f.client.Disconnect(ctx)
}

// Ping verifies the primary is reachable.
func (f *Favorites) Ping(ctx context.Context) error {
	return mapError(f.client.Ping(ctx, readpref.Primary()))
}

// GetFavorite returns the entry for userID and movieID.
func (f *Favorites) GetFavorite(ctx context.Context, userID string, movieID int) (*domain.FavoriteEntry, error) {
	var doc favoriteDoc
	err := f.coll.FindOne(ctx, bson.M{"_id": domain.FavoriteKey(userID, movieID)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound.WithMessage("favorite not found")
	}
	if err != nil {
		return nil, mapError(err)
	}
	return normalize(&doc.FavoriteEntry), nil
}

// HasFavorite reports whether the document exists.
func (f *Favorites) HasFavorite(ctx context.Context, userID string, movieID int) (bool, error) {
	n, err := f.coll.CountDocuments(ctx,
		bson.M{"_id": domain.FavoriteKey(userID, movieID)},
		options.Count().SetLimit(1))
	if err != nil {
		return false, mapError(err)
	}
	return n > 0, nil
}

// PutFavorite upserts the document under its composite key.
func (f *Favorites) PutFavorite(ctx context.Context, entry *domain.FavoriteEntry) error {
	if entry.UserID == "" || entry.MovieID == 0 {
		return store.ErrInvalidInput.WithMessage("favorite needs a user and a movie")
	}
	doc := favoriteDoc{ID: entry.Key(), FavoriteEntry: *entry}
	_, err := f.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return mapError(err)
}

// DeleteFavorite hard-deletes the document. A missing document is not an error.
func (f *Favorites) DeleteFavorite(ctx context.Context, userID string, movieID int) error {
	_, err := f.coll.DeleteOne(ctx, bson.M{"_id": domain.FavoriteKey(userID, movieID)})
	return mapError(err)
}

// ListFavorites returns a user's documents, newest first.
func (f *Favorites) ListFavorites(ctx context.Context, userID string) ([]*domain.FavoriteEntry, error) {
	cur, err := f.coll.Find(ctx,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "addedAt", Value: -1}}))
	if err != nil {
		return nil, mapError(err)
	}
	defer cur.Close(ctx)

	out := []*domain.FavoriteEntry{}
	for cur.Next(ctx) {
		var doc favoriteDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode favorite: %w", err)
		}
		out = append(out, normalize(&doc.FavoriteEntry))
	}
	if err := cur.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// AllFavorites returns every document. It feeds index rebuilds.
func (f *Favorites) AllFavorites(ctx context.Context) ([]*domain.FavoriteEntry, error) {
	cur, err := f.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, mapError(err)
	}
	defer cur.Close(ctx)

	out := []*domain.FavoriteEntry{}
	for cur.Next(ctx) {
		var doc favoriteDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode favorite: %w", err)
		}
		out = append(out, normalize(&doc.FavoriteEntry))
	}
	return out, mapError(cur.Err())
}

// normalize restores UTC on decoded times; BSON dates decode as local time.
func normalize(e *domain.FavoriteEntry) *domain.FavoriteEntry {
	e.AddedAt = e.AddedAt.In(time.UTC)
	return e
}

// mapError turns authorization failures into store.ErrForbidden.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var se mongo.ServerError
	if errors.As(err, &se) &&
		(se.HasErrorCode(codeUnauthorized) ||
			se.HasErrorCode(codeAuthenticationFailed) ||
			se.HasErrorCode(codeUnauthorizedForCommand)) {
		return store.ErrForbidden.WithCause(err)
	}
	return err
}
