package api

import (
	"log"
	"net/http"

	"candleQuest/config"
	"candleQuest/db"
)

/* =========================
   RESPONSE TYPES
========================= */

// LeaderboardResponse represents the leaderboard API response
type LeaderboardResponse struct {
	Success      bool                    `json:"success"`
	Leaderboard  []*db.LeaderboardRecord `json:"leaderboard"`
	UserPosition *db.LeaderboardRecord   `json:"userPosition,omitempty"`
}

/* =========================
   HTTP ENDPOINTS
========================= */

// HandleGetLeaderboard handles GET /api/leaderboard
// Query params: userId (optional) - get user's position
func HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx := r.Context()
	s := getStore()

	records, err := s.Leaderboard(ctx, config.LeaderboardLimit)
	if err != nil {
		log.Printf("❌ Failed to get leaderboard: %v", err)
		sendError(w, http.StatusInternalServerError, "Failed to retrieve leaderboard")
		return
	}

	response := LeaderboardResponse{
		Success:     true,
		Leaderboard: records,
	}

	userParam := r.URL.Query().Get("userId")
	if userParam != "" {
		userInTop := false
		for _, entry := range records {
			if entry.UserID == userParam {
				userInTop = true
				break
			}
		}

		// If not in the top list, fetch their position
		if !userInTop {
			userRecord, err := s.UserRank(ctx, userParam)
			if err != nil {
				log.Printf("⚠️  Failed to get user rank: %v", err)
			} else if userRecord != nil {
				response.UserPosition = userRecord
			}
		}
	}

	sendJSON(w, response)

	log.Printf("📋 Retrieved leaderboard with %d entries", len(records))
}
