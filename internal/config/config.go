// Package config loads server configuration from flags, environment
// variables and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend names shared by the favorites and search-state sections.
const (
	BackendBadger = "badger"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// Config holds the application configuration.
type Config struct {
	App         AppConfig
	Logger      LoggerConfig
	Server      ServerConfig
	Data        DataConfig
	Auth        AuthConfig
	Catalog     CatalogConfig
	Favorites   FavoritesConfig
	SearchState SearchStateConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// AllowedOrigins feeds the CORS middleware. "*" allows any origin.
	AllowedOrigins []string
	// RequestRate and RequestBurst bound requests per client IP.
	RequestRate  float64
	RequestBurst int
}

// DataConfig holds the on-disk layout.
type DataConfig struct {
	// BasePath holds badger/, identity.db, favorites.bleve and auth.key.
	BasePath string
}

// BadgerPath is the directory of the embedded key-value store.
func (d DataConfig) BadgerPath() string { return filepath.Join(d.BasePath, "badger") }

// IdentityDBPath is the SQLite database holding users and sessions.
func (d DataConfig) IdentityDBPath() string { return filepath.Join(d.BasePath, "identity.db") }

// SearchIndexPath is the favorites full-text index directory.
func (d DataConfig) SearchIndexPath() string { return filepath.Join(d.BasePath, "favorites.bleve") }

// AuthKeyPath is the PASETO symmetric key file.
func (d DataConfig) AuthKeyPath() string { return filepath.Join(d.BasePath, "auth.key") }

// AuthConfig holds session configuration.
type AuthConfig struct {
	AccessTokenDuration time.Duration
	SessionDuration     time.Duration
	// SignInRate is the sustained number of sign-in attempts allowed per email per second.
	SignInRate  float64
	SignInBurst int
}

// CatalogConfig holds TMDB client configuration.
type CatalogConfig struct {
	APIKey   string
	BaseURL  string
	Language string
	RPS      float64
	Burst    int
	Timeout  time.Duration
}

// FavoritesConfig selects the favorites backend.
type FavoritesConfig struct {
	Backend       string
	MongoURI      string
	MongoDatabase string
}

// SearchStateConfig selects the last-search-state backend.
type SearchStateConfig struct {
	Backend string
	TTL     time.Duration
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load resolves configuration with precedence:
// 1. Command-line flags.
// 2. Environment variables.
// 3. .env file (never overrides the real environment).
// 4. Defaults.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("cinefinder", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base path for local data")
	port := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 0, SSE streams are long-lived)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	origins := fs.String("allowed-origins", "", "Comma-separated CORS origins")
	tmdbKey := fs.String("tmdb-api-key", "", "TMDB v3 API key")
	tmdbURL := fs.String("tmdb-base-url", "", "TMDB API base URL")
	tmdbLang := fs.String("tmdb-language", "", "TMDB response language (default: tr-TR)")
	favBackend := fs.String("favorites-backend", "", "Favorites backend (badger, mongo)")
	stateBackend := fs.String("search-state-backend", "", "Search state backend (badger, memory)")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// A missing .env file is normal.
	_ = godotenv.Load(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*port, "SERVER_PORT", "8080"),
			AllowedOrigins: splitList(getConfigValue(*origins, "ALLOWED_ORIGINS", "*")),
			RequestBurst:   getIntConfigValue("", "REQUEST_BURST", 40),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Auth: AuthConfig{
			SignInBurst: getIntConfigValue("", "SIGNIN_BURST", 5),
		},
		Catalog: CatalogConfig{
			APIKey:   getConfigValue(*tmdbKey, "TMDB_API_KEY", ""),
			BaseURL:  strings.TrimRight(getConfigValue(*tmdbURL, "TMDB_BASE_URL", "https://api.themoviedb.org/3"), "/"),
			Language: getConfigValue(*tmdbLang, "TMDB_LANGUAGE", "tr-TR"),
			Burst:    getIntConfigValue("", "TMDB_BURST", 10),
		},
		Favorites: FavoritesConfig{
			Backend:       strings.ToLower(getConfigValue(*favBackend, "FAVORITES_BACKEND", BackendBadger)),
			MongoURI:      getConfigValue("", "MONGO_URI", ""),
			MongoDatabase: getConfigValue("", "MONGO_DATABASE", "cinefinder"),
		},
		SearchState: SearchStateConfig{
			Backend: strings.ToLower(getConfigValue(*stateBackend, "SEARCH_STATE_BACKEND", BackendBadger)),
		},
	}

	var err error
	durations := []struct {
		flagValue, envKey, def string
		dst                    *time.Duration
	}{
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "0s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{"", "ACCESS_TOKEN_DURATION", "24h", &cfg.Auth.AccessTokenDuration},
		{"", "SESSION_DURATION", "720h", &cfg.Auth.SessionDuration},
		{"", "TMDB_TIMEOUT", "30s", &cfg.Catalog.Timeout},
		{"", "SEARCH_STATE_TTL", "720h", &cfg.SearchState.TTL},
	}
	for _, d := range durations {
		if *d.dst, err = getDurationConfigValue(d.flagValue, d.envKey, d.def); err != nil {
			return nil, err
		}
	}

	if cfg.Catalog.RPS, err = getFloatConfigValue("TMDB_RPS", 20); err != nil {
		return nil, err
	}
	if cfg.Auth.SignInRate, err = getFloatConfigValue("SIGNIN_RATE", 0.2); err != nil {
		return nil, err
	}
	if cfg.Server.RequestRate, err = getFloatConfigValue("REQUEST_RATE", 20); err != nil {
		return nil, err
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks enums and required values.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	case "":
		return errors.New("ENV is required")
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data path cannot be empty after expansion")
	}
	if c.Catalog.APIKey == "" {
		return errors.New("TMDB_API_KEY is required")
	}
	if c.Catalog.RPS <= 0 || c.Catalog.Burst <= 0 {
		return errors.New("TMDB_RPS and TMDB_BURST must be positive")
	}

	switch c.Favorites.Backend {
	case BackendBadger:
	case BackendMongo:
		if c.Favorites.MongoURI == "" {
			return errors.New("MONGO_URI is required when FAVORITES_BACKEND=mongo")
		}
	default:
		return fmt.Errorf("invalid favorites backend: %s (must be badger or mongo)", c.Favorites.Backend)
	}

	switch c.SearchState.Backend {
	case BackendBadger, BackendMemory:
	default:
		return fmt.Errorf("invalid search state backend: %s (must be badger or memory)", c.SearchState.Backend)
	}

	if c.Auth.AccessTokenDuration <= 0 || c.Auth.SessionDuration <= 0 {
		return errors.New("token and session durations must be positive")
	}
	return nil
}

func (c *Config) expandDataPath() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	expanded, err := expandPath(c.Data.BasePath, filepath.Join(home, ".cinefinder"))
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// expandPath expands ~ and makes path absolute. An empty path yields defaultPath.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, rest)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return abs, nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultValue
}

func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	s := getConfigValue(flagValue, envKey, "")
	if s == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return n
}

func getFloatConfigValue(envKey string, defaultValue float64) (float64, error) {
	s := os.Getenv(envKey)
	if s == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, s, err)
	}
	return f, nil
}

func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	s := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, s, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
