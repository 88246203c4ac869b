package api

import (
	"net/http"

	"battle-arena/internal/config"
	"battle-arena/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Engine defines the game engine methods used by the API.
// This interface enables mocking for tests without spinning up the full game loop.
// Keep this minimal - only include methods the API layer actually calls.
type Engine interface {
	// Join admits a player and returns their id and spawn position
	Join(username string) (game.JoinResult, error)
	// Move applies one movement step for a player
	Move(playerID string, dx, dy float64) (game.MoveResult, error)
	// Shoot fires a bullet for a player
	Shoot(playerID string, dx, dy float64) (game.ShootResult, error)
	// State returns the rounded world snapshot
	State() game.StateSnapshot
	// Stats returns uptime, counters and the current leaderboard
	Stats() game.StatsSnapshot
	// Running reports whether the tick loop is live
	Running() bool
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
// This struct is designed for dependency injection and testability.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Engine: eng,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	        CleanupInterval:   time.Minute, // must be positive
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the game engine (required)
	Engine Engine

	// Server carries port and username validation bounds.
	Server config.ServerConfig

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// Hub is the optional WebSocket hub; when set, /ws is routed to it.
	Hub *WebSocketHub

	// Preview enables the PNG arena preview endpoint.
	Preview bool

	// DisableLogging disables the request logger middleware (useful for tests).
	DisableLogging bool
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function is PURE - it has no side effects beyond the rate
// limiter's cleanup goroutine when one is created for you:
//   - No network listeners are opened
//   - No background workers are launched
//
// This makes it safe to use in tests with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	// CORS: the arena is an open dev playground, bots and visualizers connect
	// from anywhere.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	h := &routerHandlers{
		engine: cfg.Engine,
		server: cfg.Server,
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/join", h.handleJoin)
		r.Post("/move", h.handleMove)
		r.Post("/shoot", h.handleShoot)

		r.Get("/state", h.handleGetState)
		r.Get("/stats", h.handleGetStats)
		r.Get("/health", h.handleHealth)

		if cfg.Preview {
			r.Get("/preview", h.handlePreview)
		}
	})

	if cfg.Hub != nil {
		r.Get("/ws", cfg.Hub.HandleWebSocket)
	}

	// Banner endpoint
	r.Get("/", h.handleRoot)

	return r
}

// Handler is a convenience alias so callers don't import chi directly.
func Handler(cfg RouterConfig) http.Handler {
	return NewRouter(cfg)
}
