// Package tmdb is a rate-limited client for The Movie Database v3 API.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cinefinder/cinefinder-server/internal/ratelimit"
)

const (
	DefaultBaseURL  = "https://api.themoviedb.org/3"
	DefaultLanguage = "tr-TR"

	defaultRPS     = 20.0
	defaultBurst   = 10
	defaultTimeout = 30 * time.Second

	// All outbound calls share one bucket.
	limiterKey = "tmdb"

	maxErrorBody = 512
)

// Config configures the client. Zero values take the package defaults.
type Config struct {
	APIKey   string
	BaseURL  string
	Language string
	RPS      float64
	Burst    int
	Timeout  time.Duration
}

// Client is a rate-limited TMDB API client. Calls are never retried.
type Client struct {
	http     *http.Client
	limiter  *ratelimit.KeyedRateLimiter
	logger   *slog.Logger
	baseURL  string
	apiKey   string
	language string
}

// New creates a TMDB client.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.RPS <= 0 {
		cfg.RPS = defaultRPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		http:     &http.Client{Timeout: cfg.Timeout},
		limiter:  ratelimit.New(cfg.RPS, cfg.Burst),
		logger:   logger,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		language: cfg.Language,
	}
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// doRequest performs a rate-limited GET and maps non-2xx statuses to sentinels.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx, limiterKey); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait: %w", ErrUnavailable, err)
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)
	query.Set("language", c.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "CineFinder/1.0")

	c.logger.Debug("tmdb request", "path", path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}

	c.logger.Debug("tmdb response",
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusBadRequest:
		return nil, ErrBadRequest
	}
	if resp.StatusCode >= 500 {
		return nil, ErrServer
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
}

// IsTransient reports whether err came from an outage rather than a bad request.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrServer) || errors.Is(err, ErrRateLimited)
}
