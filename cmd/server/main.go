package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"battle-arena/internal/api"
	"battle-arena/internal/config"
	"battle-arena/internal/game"
	"battle-arena/internal/stats"
	"battle-arena/internal/tournament"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  BATTLE ARENA - GO ENGINE")
	log.Println("🎮 ================================")

	// Load centralized configuration (SSOT - Single Source of Truth)
	cfg := config.Load()
	log.Printf("🗺️ Map: %.0f×%.0f, %d obstacle slots, %d TPS, max %d players",
		cfg.Map.Width, cfg.Map.Height, cfg.Obstacles.Count, cfg.Rules.TickRate, cfg.Rules.MaxPlayers)

	// Lifetime stats persistence
	store := stats.Open(cfg.Stats.FilePath)

	// Tournament overlay: whitelist + bounded respawns, enabled via env
	var overlay *tournament.Overlay
	var opts game.Options
	opts.Store = store
	opts.OnTick = api.RecordTick

	if whitelist := os.Getenv("TOURNAMENT_WHITELIST"); whitelist != "" {
		maxRespawns := getEnvInt("TOURNAMENT_MAX_RESPAWNS", 3)
		scorePath := getEnvWithDefault("TOURNAMENT_SCORES_FILE", "tournament_scores.json")

		overlay = tournament.New(tournament.Config{
			Whitelist:   splitList(whitelist),
			MaxRespawns: maxRespawns,
			ScorePath:   scorePath,
		})
		opts.Admission = overlay
		opts.DeathObservers = []game.DeathObserver{overlay}

		log.Printf("🏆 Tournament mode: %d whitelisted, %d respawns", len(splitList(whitelist)), maxRespawns)
	}

	engine := game.NewEngine(cfg, opts)

	// Start debug server (pprof + Prometheus metrics on localhost)
	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		if err := api.StartDebugServer(api.DefaultObservabilityConfig()); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	server := api.NewServer(engine, cfg.Server)

	engine.Start()
	log.Println("✅ Game engine started")

	go func() {
		addr := ":" + strconv.Itoa(cfg.Server.Port)
		log.Printf("🌐 API on http://localhost%s (state: /api/state, feed: /ws)", addr)

		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ HTTP shutdown: %v", err)
	}

	engine.Stop()
	if overlay != nil {
		overlay.Close()
	}
	store.Close()
	log.Println("👋 Goodbye!")
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvWithDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
