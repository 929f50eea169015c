package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"candleQuest/api"
	"candleQuest/config"
	"candleQuest/db"
	"candleQuest/game"
	"candleQuest/ws"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid config: %v", err)
	}
	log.Println("✅ Configuration loaded")

	// Round storage: PostgreSQL when configured, local SQLite otherwise
	var store db.Store
	if err := db.InitPostgres(cfg.DatabaseURL); err != nil {
		log.Printf("⚠️  Warning: PostgreSQL initialization failed: %v", err)
		log.Printf("   Falling back to SQLite at %s", cfg.SQLitePath)

		sqliteStore, err := db.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			log.Printf("⚠️  Warning: SQLite initialization failed: %v", err)
			log.Println("   Round results will not be stored")
			store = db.NewNoopStore()
		} else {
			store = sqliteStore
		}
	} else {
		store = db.NewPostgresStore()
	}
	defer store.Close()
	api.SetStore(store)

	var cache ws.SessionCache
	if err := db.InitRedis(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB); err != nil {
		log.Printf("⚠️  Warning: Redis initialization failed: %v", err)
		log.Println("   Round verification and session lookup will be unavailable")
	} else {
		cache = db.RedisCache{}
	}
	defer db.CloseRedis()

	hub, err := ws.NewHub(ws.HubOptions{
		Round: game.RoundConfig{
			SeriesLength:  cfg.SeriesLength,
			HiddenBars:    cfg.HiddenBars,
			BudgetSeconds: cfg.RoundSeconds,
			TotalRounds:   cfg.TotalRounds,
		},
		TickInterval:    cfg.TickInterval,
		Sink:            store,
		Cache:           cache,
		IdleTimeout:     cfg.SessionIdleTimeout,
		JanitorSchedule: cfg.JanitorSchedule,
	})
	if err != nil {
		log.Printf("❌ Failed to create game hub: %v", err)
		return
	}
	if err := hub.StartJanitor(); err != nil {
		log.Printf("❌ %v", err)
		return
	}
	api.SetSessionCounter(hub.SessionCount)

	mux := http.NewServeMux()

	// WebSocket endpoints
	mux.HandleFunc("/ws/game", hub.HandleGameWS)

	// API endpoints
	mux.HandleFunc("/api/health", api.CorsMiddleware(api.HandleHealthCheck))
	mux.HandleFunc("/api/user", api.CorsMiddleware(api.HandleUser))
	mux.HandleFunc("/api/history", api.CorsMiddleware(api.HandleGetHistory))
	mux.HandleFunc("/api/leaderboard", api.CorsMiddleware(api.HandleGetLeaderboard))
	// Trailing slashes carry the path parameter
	mux.HandleFunc("/api/session/", api.CorsMiddleware(api.HandleGetSession))
	mux.HandleFunc("/api/verify/round/", api.CorsMiddleware(api.HandleVerifyRound))
	mux.HandleFunc("/api/verify", api.CorsMiddleware(api.HandleVerifySeed))

	addr := cfg.Addr()
	server := &http.Server{Addr: addr, Handler: mux}

	log.Printf("🚀 Server starting on %s", addr)
	log.Println("")
	log.Println("📡 WebSocket Endpoints:")
	log.Println("   /ws/game?userId=<id> - Candlestick training session")
	log.Println("")
	log.Println("🔌 API Endpoints:")
	log.Println("   GET  /api/health - Health check (Redis + round store)")
	log.Println("   POST /api/user - Issue or confirm a player id")
	log.Println("   GET  /api/history?userId=<id> - Recent rounds for a player")
	log.Println("   GET  /api/leaderboard - Top players by total score")
	log.Println("   GET  /api/session/:userId - Cached live session state")
	log.Println("   GET  /api/verify/round/:roundId - Replay a recent round from its seed")
	log.Println("   POST /api/verify - Replay a round from a revealed seed")
	log.Println("")

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case err := <-serverErr:
		log.Println("❌ Server error:", err)
	}

	log.Println("👋 Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️  HTTP shutdown: %v", err)
	}
	hub.Shutdown()
}
