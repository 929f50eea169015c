package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"candleQuest/config"
	"candleQuest/crypto"
	"candleQuest/db"
	"candleQuest/game"
)

// VerifyRequest carries everything needed to replay a round offline
type VerifyRequest struct {
	RoundID      string `json:"roundId"`
	ServerSeed   string `json:"serverSeed"`
	SeedHash     string `json:"seedHash"`
	SeriesLength int    `json:"seriesLength"`
	GeneratedOn  string `json:"generatedOn"` // YYYY-MM-DD
}

// VerifyResponse is the regenerated round
type VerifyResponse struct {
	Valid         bool            `json:"valid"`
	RoundID       string          `json:"roundId,omitempty"`
	ServerSeed    string          `json:"serverSeed,omitempty"`
	SeedHash      string          `json:"seedHash,omitempty"`
	Series        []game.PriceBar `json:"series,omitempty"`
	Actual        game.Direction  `json:"actual,omitempty"`
	Score         float64         `json:"score"`
	ChangePercent float64         `json:"changePercent"`
	Error         string          `json:"error,omitempty"`
}

// HandleVerifyRound replays a recently played round from its cached seed
// GET /api/verify/round/{roundId}
func HandleVerifyRound(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	roundID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/verify/round/"), "/")
	if roundID == "" {
		sendError(w, http.StatusBadRequest, "roundId is required")
		return
	}

	record, err := db.GetRoundSeed(r.Context(), roundID)
	if err != nil {
		log.Printf("❌ Failed to get round seed: %v", err)
		sendError(w, http.StatusServiceUnavailable, "Seed cache unavailable")
		return
	}
	if record == nil {
		sendError(w, http.StatusNotFound, "Round not found or expired")
		return
	}

	sendJSON(w, verify(record.RoundID, record.ServerSeed, record.SeedHash, record.SeriesLength, record.StartedAt))
}

// HandleVerifySeed replays a round from client-supplied values
// POST /api/verify
func HandleVerifySeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.RoundID == "" || req.ServerSeed == "" || req.SeedHash == "" || req.GeneratedOn == "" {
		sendError(w, http.StatusBadRequest, "Missing required fields: roundId, serverSeed, seedHash, generatedOn")
		return
	}
	generatedOn, err := time.Parse(game.DateLayout, req.GeneratedOn)
	if err != nil {
		sendError(w, http.StatusBadRequest, "generatedOn must be YYYY-MM-DD")
		return
	}
	if req.SeriesLength < 2 {
		sendError(w, http.StatusBadRequest, "seriesLength must be at least 2")
		return
	}

	sendJSON(w, verify(req.RoundID, req.ServerSeed, req.SeedHash, req.SeriesLength, generatedOn))
}

func verify(roundID, serverSeed, seedHash string, length int, generatedOn time.Time) VerifyResponse {
	if !crypto.VerifySeed(serverSeed, seedHash) {
		return VerifyResponse{Valid: false, RoundID: roundID, Error: "Server seed hash does not match"}
	}

	series, ev, err := game.VerifyRound(serverSeed, roundID, length, generatedOn)
	if err != nil {
		return VerifyResponse{Valid: false, RoundID: roundID, Error: err.Error()}
	}

	log.Printf("✅ Round verified - RoundID: %s, Actual: %s, Score: %.2f", roundID, ev.Direction, ev.Score)

	return VerifyResponse{
		Valid:         true,
		RoundID:       roundID,
		ServerSeed:    serverSeed,
		SeedHash:      seedHash,
		Series:        series,
		Actual:        ev.Direction,
		Score:         ev.Score,
		ChangePercent: game.RoundToDecimal(ev.ChangePercent, config.ScoreDecimals),
	}
}
