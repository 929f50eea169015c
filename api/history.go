package api

import (
	"log"
	"net/http"
	"strconv"

	"candleQuest/config"
	"candleQuest/game"
)

// HistoryResponse lists a user's stored rounds, newest first
type HistoryResponse struct {
	Success bool                `json:"success"`
	UserID  string              `json:"userId"`
	Rounds  []*game.RoundRecord `json:"rounds"`
	Count   int                 `json:"count"`
}

// HandleGetHistory handles GET /api/history?userId=&limit=
func HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		sendError(w, http.StatusBadRequest, "userId is required")
		return
	}

	limit := config.HistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			sendError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n < limit {
			limit = n
		}
	}

	records, err := getStore().RecentRounds(r.Context(), userID, limit)
	if err != nil {
		log.Printf("❌ Failed to get history: %v", err)
		sendError(w, http.StatusInternalServerError, "Failed to retrieve history")
		return
	}

	sendJSON(w, HistoryResponse{
		Success: true,
		UserID:  userID,
		Rounds:  records,
		Count:   len(records),
	})
}
