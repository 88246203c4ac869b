package api

import (
	"context"
	"log"
	"net/http"

	"battle-arena/internal/config"

	"github.com/go-chi/chi/v5"
)

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with the WebSocket hub for live state feeds.
type Server struct {
	engine      Engine
	router      *chi.Mux
	hub         *WebSocketHub
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
	stopChan    chan struct{}
}

// NewServer creates a new API server with default production configuration.
//
// IMPORTANT: The hub, broadcast and metrics workers do NOT start until
// Start() is called, and no network listener is opened before then. The one
// goroutine started here is the rate limiter's cleanup loop.
//
// For testing HTTP endpoints without WebSocket support, use NewRouter() directly.
func NewServer(engine Engine, serverCfg config.ServerConfig) *Server {
	s := &Server{
		engine:   engine,
		hub:      NewWebSocketHub(),
		stopChan: make(chan struct{}),
	}

	// Create rate limiter (we track it for cleanup)
	s.rateLimiter = NewIPRateLimiter(DefaultRateLimitConfig)

	// Build router using the factory
	s.router = NewRouter(RouterConfig{
		Engine:      engine,
		Server:      serverCfg,
		RateLimiter: s.rateLimiter,
		Hub:         s.hub,
		Preview:     true,
	})

	return s
}

// Start begins the HTTP server AND starts background workers.
// This is the ONLY method that opens network listeners or starts the hub,
// broadcast and metrics goroutines.
func (s *Server) Start(addr string) error {
	go s.hub.Run()
	s.hub.StartBroadcastLoop(s.engine, s.stopChan)
	StartMetricsLoop(s.engine, s.stopChan)

	log.Printf("🌐 API server starting on %s", addr)

	s.httpServer = &http.Server{Addr: addr, Handler: s.router}
	return s.httpServer.ListenAndServe()
}

// Router returns the HTTP handler for use with httptest.
// Use this in integration tests instead of calling Start().
func (s *Server) Router() http.Handler {
	return s.router
}

// Shutdown stops accepting connections, drains in-flight requests and stops
// the broadcast loop, the metrics loop and the rate limiter's cleanup. The
// hub's Run loop has no stop path and keeps running.
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.stopChan)
	s.rateLimiter.Stop()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
