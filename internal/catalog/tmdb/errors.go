package tmdb

import (
	"errors"
	"fmt"
)

// Sentinel errors for TMDB operations.
var (
	ErrUnauthorized = errors.New("tmdb: invalid api key")
	ErrNotFound     = errors.New("tmdb: not found")
	ErrRateLimited  = errors.New("tmdb: rate limited by server")
	ErrBadRequest   = errors.New("tmdb: bad request")
	ErrServer       = errors.New("tmdb: server error")
	ErrUnavailable  = errors.New("tmdb: unavailable")
)

// Error adds operation context to a sentinel.
type Error struct {
	Op      string // "search", "similar", "details", "genres", "popular"
	MovieID int    // zero when the call is not about one movie
	Err     error
}

func (e *Error) Error() string {
	if e.MovieID != 0 {
		return fmt.Sprintf("tmdb %s [%d]: %v", e.Op, e.MovieID, e.Err)
	}
	return fmt.Sprintf("tmdb %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op string, movieID int, err error) error {
	return &Error{Op: op, MovieID: movieID, Err: err}
}
