package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"candleQuest/config"
	"candleQuest/db"
	"candleQuest/game"

	"github.com/gorilla/websocket"
)

// ClientMessage is what the browser sends
type ClientMessage struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data,omitempty"`
}

// GameSession is one player's connection and the machine driving their rounds.
//
// Every event (client message, countdown tick, persistence advisory) is handled
// on the run goroutine, so the machine itself needs no locking.
type GameSession struct {
	ID         string
	Conn       *websocket.Conn
	writeMutex sync.Mutex // Protects websocket writes
	Send       chan []byte

	hub     *Hub
	machine *game.Machine

	userID   string
	userIDMu sync.RWMutex

	inbound    chan ClientMessage
	advisories chan error
	jobs       chan func(ctx context.Context) error

	lastActive atomic.Int64

	done      chan struct{} // closed when the read side is gone
	closeOnce sync.Once
	stopped   chan struct{} // closed when run has cleaned up
}

func newGameSession(h *Hub, conn *websocket.Conn, userID string) (*GameSession, error) {
	s := &GameSession{
		ID:         h.nextSessionID(),
		Conn:       conn,
		Send:       make(chan []byte, 256),
		hub:        h,
		userID:     userID,
		inbound:    make(chan ClientMessage, 16),
		advisories: make(chan error, 8),
		jobs:       make(chan func(ctx context.Context) error, 64),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	s.touch()

	machine, err := game.NewMachine(game.MachineOptions{
		Config:   h.opts.Round,
		Renderer: &chartRenderer{session: s},
		Sink:     h.opts.Sink,
		NewRand:  h.opts.NewRand,
		OnAdvisory: func(err error) {
			select {
			case s.advisories <- err:
			default:
				log.Printf("⚠️  Advisory dropped for session %s: %v", s.ID, err)
			}
		},
	})
	if err != nil {
		return nil, err
	}
	s.machine = machine
	return s, nil
}

func (s *GameSession) UserID() string {
	s.userIDMu.RLock()
	defer s.userIDMu.RUnlock()
	return s.userID
}

func (s *GameSession) setUserID(id string) {
	s.userIDMu.Lock()
	s.userID = id
	s.userIDMu.Unlock()
}

func (s *GameSession) touch() { s.lastActive.Store(time.Now().UnixNano()) }

// LastActive is the time of the last client message.
func (s *GameSession) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// Close drops the connection. The read pump then ends the session.
func (s *GameSession) Close() {
	s.Conn.Close()
}

func (s *GameSession) markDone() {
	s.closeOnce.Do(func() { close(s.done) })
}

/* =========================
   PUMPS
========================= */

// writePump sends messages from the Send channel to the WebSocket
func (s *GameSession) writePump() {
	ticker := time.NewTicker(config.WSPingInterval)
	defer func() {
		ticker.Stop()
		s.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.Send:
			s.writeMutex.Lock()
			s.Conn.SetWriteDeadline(time.Now().Add(config.WSWriteDeadline))
			var err error
			if !ok {
				err = s.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			} else {
				err = s.Conn.WriteMessage(websocket.TextMessage, message)
			}
			s.writeMutex.Unlock()

			if !ok {
				return
			}
			if err != nil {
				log.Printf("❌ Write error for session %s: %v", s.ID, err)
				return
			}

		case <-ticker.C:
			s.writeMutex.Lock()
			s.Conn.SetWriteDeadline(time.Now().Add(config.WSWriteDeadline))
			err := s.Conn.WriteMessage(websocket.PingMessage, nil)
			s.writeMutex.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// readPump reads client messages and hands them to the run loop
func (s *GameSession) readPump() {
	defer func() {
		s.markDone()
		s.Conn.Close()
	}()

	s.Conn.SetReadLimit(config.MaxMessageSize)
	s.Conn.SetReadDeadline(time.Now().Add(config.WSReadDeadline))
	s.Conn.SetPongHandler(func(string) error {
		s.Conn.SetReadDeadline(time.Now().Add(config.WSReadDeadline))
		return nil
	})

	for {
		_, messageBytes, err := s.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("❌ Read error for session %s: %v", s.ID, err)
			}
			return
		}
		s.Conn.SetReadDeadline(time.Now().Add(config.WSReadDeadline))

		var msg ClientMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Printf("❌ Failed to parse message from session %s: %v", s.ID, err)
			continue
		}

		select {
		case s.inbound <- msg:
		case <-s.stopped:
			return
		}
	}
}

// cacheWorker runs cache writes in order, off the run loop
func (s *GameSession) cacheWorker() {
	for job := range s.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), config.PersistTimeout)
		if err := job(ctx); err != nil {
			log.Printf("⚠️  Cache write failed for session %s: %v", s.ID, err)
		}
		cancel()
	}
}

/* =========================
   EVENT LOOP
========================= */

func (s *GameSession) run() {
	var (
		ticker *time.Ticker
		tickC  <-chan time.Time
	)
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
		s.hub.unregister(s)
		s.machine.Wait()
		close(s.Send)
		close(s.jobs)
		close(s.stopped)
	}()

	s.send("session_start", map[string]interface{}{
		"sessionId":   s.ID,
		"userId":      s.UserID(),
		"totalRounds": s.machine.Config().TotalRounds,
		"budget":      s.machine.Config().BudgetSeconds,
	})

	if s.UserID() == "" {
		s.sendError("userId is required before the first round", false)
	} else {
		s.dispatch(func() { s.begin() })
	}

	for {
		// One ticker per running clock. The clock is never running across a
		// result, so every round starts with a fresh ticker.
		running := s.machine.ClockRunning()
		if running && ticker == nil {
			ticker = time.NewTicker(s.hub.opts.TickInterval)
			tickC = ticker.C
		} else if !running && ticker != nil {
			ticker.Stop()
			ticker, tickC = nil, nil
		}

		select {
		case <-s.done:
			return

		case msg := <-s.inbound:
			s.touch()
			s.dispatch(func() { s.handleMessage(msg) })

		case <-tickC:
			s.dispatch(func() {
				if s.machine.Tick() == game.TickCounted {
					s.send("countdown", map[string]interface{}{
						"remaining": s.machine.Remaining(),
						"urgency":   game.Urgency(s.machine.Remaining()),
					})
				}
			})

		case err := <-s.advisories:
			s.send("notice", map[string]interface{}{
				"message": "Your result could not be saved. The game continues.",
				"detail":  err.Error(),
			})
		}
	}
}

// dispatch runs one event and then reports whatever transition it caused.
func (s *GameSession) dispatch(event func()) {
	prevPhase := s.machine.Phase()
	prevRound := s.machine.Snapshot().RoundID

	event()

	snap := s.machine.Snapshot()

	switch snap.Phase {
	case game.PhasePlaying:
		if prevPhase != game.PhasePlaying || prevRound != snap.RoundID {
			s.send("round_start", map[string]interface{}{
				"roundId":     snap.RoundID,
				"seedHash":    snap.SeedHash,
				"roundIndex":  snap.Stats.RoundIndex,
				"totalRounds": snap.Stats.TotalRounds,
				"remaining":   snap.Remaining,
				"urgency":     snap.Urgency,
			})
		}

	case game.PhaseResult:
		if prevPhase == game.PhasePlaying {
			s.send("round_result", map[string]interface{}{
				"roundId":  snap.RoundID,
				"seed":     snap.Seed,
				"seedHash": snap.SeedHash,
				"outcome":  snap.Outcome,
				"stats":    snap.Stats,
			})
			s.cacheRoundSeed(snap)
		}

	case game.PhaseFinished:
		if prevPhase != game.PhaseFinished {
			s.send("session_complete", map[string]interface{}{
				"stats": snap.Stats,
			})
		}
	}

	if snap.Phase != prevPhase || snap.RoundID != prevRound {
		s.send("state", snap)
		s.cacheSnapshot(snap)
	}
}

// handleMessage processes incoming client messages
func (s *GameSession) handleMessage(msg ClientMessage) {
	switch msg.Type {
	case "identify":
		userID, _ := msg.Data["userId"].(string)
		if userID == "" {
			s.sendError("userId is required", false)
			return
		}
		if bound := s.UserID(); bound == "" {
			s.setUserID(userID)
		} else if bound != userID {
			log.Printf("⚠️  Session %s is bound to user %s, ignoring identify as %s", s.ID, bound, userID)
			s.sendError("session is already bound to userId "+bound, false)
			return
		}
		s.begin()

	case "answer":
		raw, _ := msg.Data["choice"].(string)
		choice, ok := game.ParseDirection(raw)
		if !ok {
			s.sendError("choice must be up, down or sideways", false)
			return
		}
		if !s.machine.Submit(choice) {
			log.Printf("⚠️  Ignored answer from session %s in phase %s", s.ID, s.machine.Phase())
		}

	case "next":
		_, err := s.machine.Next()
		s.reportStartError(err)

	case "restart":
		_, err := s.machine.Restart()
		s.reportStartError(err)

	case "retry":
		s.begin()

	case "state":
		s.send("state", s.machine.Snapshot())

	default:
		log.Printf("⚠️  Unknown message type from session %s: %s", s.ID, msg.Type)
	}
}

func (s *GameSession) begin() {
	_, err := s.machine.Begin(s.UserID())
	s.reportStartError(err)
}

func (s *GameSession) reportStartError(err error) {
	switch {
	case err == nil:
	case errors.Is(err, game.ErrGeneration):
		log.Printf("❌ Round generation failed for session %s: %v", s.ID, err)
		s.sendError("Could not prepare the next chart. Please retry.", true)
	case errors.Is(err, game.ErrNoIdentity):
		s.sendError("userId is required before the first round", false)
	default:
		log.Printf("❌ Round start failed for session %s: %v", s.ID, err)
		s.sendError(err.Error(), false)
	}
}

/* =========================
   OUTBOUND
========================= */

func (s *GameSession) send(msgType string, data interface{}) {
	s.enqueue(map[string]interface{}{
		"type": msgType,
		"data": data,
	})
}

func (s *GameSession) sendError(message string, retry bool) {
	s.enqueue(map[string]interface{}{
		"type":  "error",
		"error": message,
		"retry": retry,
	})
}

func (s *GameSession) enqueue(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("❌ Failed to marshal message for session %s: %v", s.ID, err)
		return
	}
	select {
	case s.Send <- data:
	default:
		log.Printf("⚠️  Session %s send buffer full, skipping message", s.ID)
	}
}

func (s *GameSession) queueJob(job func(ctx context.Context) error) {
	select {
	case s.jobs <- job:
	default:
		log.Printf("⚠️  Session %s cache queue full, skipping write", s.ID)
	}
}

func (s *GameSession) cacheRoundSeed(snap game.Snapshot) {
	cache := s.hub.opts.Cache
	if cache == nil {
		return
	}
	record := &db.RoundSeedRecord{
		RoundID:      snap.RoundID,
		UserID:       s.UserID(),
		ServerSeed:   snap.Seed,
		SeedHash:     snap.SeedHash,
		SeriesLength: snap.TotalBars,
		StartedAt:    snap.StartedAt,
	}
	s.queueJob(func(ctx context.Context) error {
		return cache.StoreRoundSeed(ctx, record)
	})
}

func (s *GameSession) cacheSnapshot(snap game.Snapshot) {
	cache := s.hub.opts.Cache
	userID := s.UserID()
	if cache == nil || userID == "" {
		return
	}
	s.queueJob(func(ctx context.Context) error {
		return cache.StoreSessionSnapshot(ctx, userID, &snap)
	})
}
