package ws

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"candleQuest/config"
	"candleQuest/db"
	"candleQuest/game"

	"github.com/gorilla/websocket"
	"github.com/robfig/cron/v3"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  config.WSReadBufferSize,
	WriteBufferSize: config.WSWriteBufferSize,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SessionCache keeps per-round seeds and the latest session state outside the process.
type SessionCache interface {
	StoreRoundSeed(ctx context.Context, record *db.RoundSeedRecord) error
	StoreSessionSnapshot(ctx context.Context, userID string, snap *game.Snapshot) error
}

// HubOptions configures every game session the hub creates.
type HubOptions struct {
	Round        game.RoundConfig
	TickInterval time.Duration
	Sink         game.ResultSink
	Cache        SessionCache

	// NewRand overrides the per-round series source. Nil uses game.RoundRNG.
	NewRand func(seed, roundID string) game.Rand

	IdleTimeout     time.Duration
	JanitorSchedule string
}

// Hub owns the live game sessions.
type Hub struct {
	opts HubOptions

	sessions   map[string]*GameSession
	sessionsMu sync.RWMutex

	sessionIDCounter int64

	cron *cron.Cron
}

func NewHub(opts HubOptions) (*Hub, error) {
	if opts.TickInterval <= 0 {
		opts.TickInterval = config.TickInterval
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = config.SessionIdleTimeout
	}
	if opts.JanitorSchedule == "" {
		opts.JanitorSchedule = config.JanitorSchedule
	}
	// Fail here rather than on the first connection
	if _, err := game.NewMachine(game.MachineOptions{Config: opts.Round}); err != nil {
		return nil, fmt.Errorf("invalid round config: %w", err)
	}
	return &Hub{
		opts:     opts,
		sessions: make(map[string]*GameSession),
	}, nil
}

// HandleGameWS upgrades the request and runs one game session on it.
// The player identity comes from the userId query parameter or a later
// identify message.
func (h *Hub) HandleGameWS(w http.ResponseWriter, r *http.Request) {
	log.Println("📥 Game WebSocket connection from:", r.RemoteAddr)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("❌ WebSocket upgrade failed:", err)
		return
	}

	s, err := newGameSession(h, conn, r.URL.Query().Get("userId"))
	if err != nil {
		log.Printf("❌ Failed to create game session: %v", err)
		conn.Close()
		return
	}

	h.register(s)

	go s.writePump()
	go s.cacheWorker()
	go s.readPump()
	go s.run()
}

func (h *Hub) nextSessionID() string {
	id := atomic.AddInt64(&h.sessionIDCounter, 1)
	return fmt.Sprintf("game_%d_%d", time.Now().Unix(), id)
}

func (h *Hub) register(s *GameSession) {
	h.sessionsMu.Lock()
	h.sessions[s.ID] = s
	total := len(h.sessions)
	h.sessionsMu.Unlock()
	log.Printf("✅ Game session registered: %s (Total: %d)", s.ID, total)
}

func (h *Hub) unregister(s *GameSession) {
	h.sessionsMu.Lock()
	delete(h.sessions, s.ID)
	total := len(h.sessions)
	h.sessionsMu.Unlock()
	log.Printf("👋 Game session unregistered: %s (Total: %d)", s.ID, total)
}

// SessionCount returns the number of live sessions.
func (h *Hub) SessionCount() int {
	h.sessionsMu.RLock()
	defer h.sessionsMu.RUnlock()
	return len(h.sessions)
}

/* =========================
   JANITOR
========================= */

// StartJanitor schedules the idle-session sweep.
func (h *Hub) StartJanitor() error {
	h.cron = cron.New()
	if _, err := h.cron.AddFunc(h.opts.JanitorSchedule, func() { h.evictIdle(time.Now()) }); err != nil {
		return fmt.Errorf("failed to schedule janitor: %w", err)
	}
	h.cron.Start()
	log.Printf("🧹 Session janitor started (%s, idle timeout %s)", h.opts.JanitorSchedule, h.opts.IdleTimeout)
	return nil
}

// evictIdle closes every session with no client activity since now minus the idle timeout.
func (h *Hub) evictIdle(now time.Time) int {
	cutoff := now.Add(-h.opts.IdleTimeout)

	h.sessionsMu.RLock()
	var idle []*GameSession
	for _, s := range h.sessions {
		if s.LastActive().Before(cutoff) {
			idle = append(idle, s)
		}
	}
	h.sessionsMu.RUnlock()

	for _, s := range idle {
		log.Printf("🧹 Evicting idle session %s (user %s)", s.ID, s.UserID())
		s.Close()
	}
	return len(idle)
}

// Shutdown stops the janitor and closes every session.
func (h *Hub) Shutdown() {
	if h.cron != nil {
		<-h.cron.Stop().Done()
	}

	h.sessionsMu.RLock()
	all := make([]*GameSession, 0, len(h.sessions))
	for _, s := range h.sessions {
		all = append(all, s)
	}
	h.sessionsMu.RUnlock()

	for _, s := range all {
		s.Close()
	}
	for _, s := range all {
		<-s.stopped
	}
}
