// Package api serves the CineFinder HTTP API: huma operations on a chi
// router, plus the Server-Sent Events stream.
package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cinefinder/cinefinder-server/internal/http/response"
	"github.com/cinefinder/cinefinder-server/internal/logger"
	"github.com/cinefinder/cinefinder-server/internal/ratelimit"
	"github.com/cinefinder/cinefinder-server/internal/sse"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// Config tunes the HTTP surface.
type Config struct {
	AllowedOrigins []string
	RequestRate    float64
	RequestBurst   int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services *Services
	router   chi.Router
	api      huma.API
	limiter  *ratelimit.KeyedRateLimiter
	logger   *logger.Logger
}

// NewServer creates the server with all routes registered.
func NewServer(services *Services, cfg Config, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	if cfg.RequestRate <= 0 {
		cfg.RequestRate = 20
	}
	if cfg.RequestBurst <= 0 {
		cfg.RequestBurst = 40
	}

	s := &Server{
		services: services,
		router:   chi.NewRouter(),
		limiter:  ratelimit.New(cfg.RequestRate, cfg.RequestBurst),
		logger:   log,
	}

	s.setupMiddleware(cfg)
	s.api = newAPI(s.router)
	s.registerRoutes()

	return s
}

// newAPI creates the huma API with bearer auth, the error handler and the
// response envelope. Tests build their API through it too.
func newAPI(router chi.Router) huma.API {
	humaConfig := huma.DefaultConfig("CineFinder API", Version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	// The envelope replaces the $schema link huma adds by default.
	humaConfig.CreateHooks = nil
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	RegisterErrorHandler()
	return humachi.New(router, humaConfig)
}

func (s *Server) setupMiddleware(cfg Config) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Last-Event-ID"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(RateLimitMiddleware(s.limiter, s.logger.Logger))
	s.router.Use(authMiddleware(s.services.Identity, s.logger))

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "no such route", nil)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, nil)
	})
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerMovieRoutes()
	s.registerAuthRoutes()
	s.registerFavoriteRoutes()
	s.registerSearchStateRoutes()
	s.registerSuggestionRoutes()

	// The stream writes its own frames, so it bypasses huma.
	events := sse.NewHandler(s.services.Events, streamAuthenticator(s.services.Identity), s.logger.Logger)
	s.router.Get("/api/v1/events", events.ServeHTTP)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, mainly for the OpenAPI document.
func (s *Server) API() huma.API {
	return s.api
}

// Close stops the per-IP limiter's sweeper.
func (s *Server) Close() {
	s.limiter.Stop()
}
