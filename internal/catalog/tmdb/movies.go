package tmdb

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"net/url"
	"strconv"

	"github.com/cinefinder/cinefinder-server/internal/domain"
)

// SearchMovies returns the first page of title matches for query.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]domain.Movie, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("page", "1")
	q.Set("include_adult", "false")

	return c.fetchPage(ctx, "search", 0, "/search/movie", q)
}

// SimilarMovies returns the first page of movies similar to id.
func (c *Client) SimilarMovies(ctx context.Context, id int) ([]domain.Movie, error) {
	q := url.Values{}
	q.Set("page", "1")

	return c.fetchPage(ctx, "similar", id, "/movie/"+strconv.Itoa(id)+"/similar", q)
}

// PopularMovies returns the first page of currently popular movies.
func (c *Client) PopularMovies(ctx context.Context) ([]domain.Movie, error) {
	q := url.Values{}
	q.Set("page", "1")

	return c.fetchPage(ctx, "popular", 0, "/movie/popular", q)
}

// MovieDetails returns the detail view for id.
func (c *Client) MovieDetails(ctx context.Context, id int) (*domain.MovieDetails, error) {
	body, err := c.doRequest(ctx, "/movie/"+strconv.Itoa(id), nil)
	if err != nil {
		return nil, wrapError("details", id, err)
	}

	var raw rawMovie
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, wrapError("details", id, fmt.Errorf("parse response: %w", err))
	}
	return raw.toDetails(), nil
}

// Genres returns the movie genre vocabulary.
func (c *Client) Genres(ctx context.Context) ([]domain.Genre, error) {
	body, err := c.doRequest(ctx, "/genre/movie/list", nil)
	if err != nil {
		return nil, wrapError("genres", 0, err)
	}

	var resp rawGenreList
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, wrapError("genres", 0, fmt.Errorf("parse response: %w", err))
	}
	if resp.Genres == nil {
		resp.Genres = []domain.Genre{}
	}
	return resp.Genres, nil
}

func (c *Client) fetchPage(ctx context.Context, op string, movieID int, path string, q url.Values) ([]domain.Movie, error) {
	body, err := c.doRequest(ctx, path, q)
	if err != nil {
		return nil, wrapError(op, movieID, err)
	}

	var page rawPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, wrapError(op, movieID, fmt.Errorf("parse response: %w", err))
	}
	return toMovies(page.Results), nil
}
