package api

import (
	"log"
	"net/http"
	"strings"

	"candleQuest/db"
)

// HandleGetSession returns the cached state of a player's live session
// GET /api/session/{userId}
func HandleGetSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	userID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/session/"), "/")
	if userID == "" {
		sendError(w, http.StatusBadRequest, "userId is required")
		return
	}

	snap, err := db.GetSessionSnapshot(r.Context(), userID)
	if err != nil {
		log.Printf("❌ Failed to get session snapshot: %v", err)
		sendError(w, http.StatusServiceUnavailable, "Session cache unavailable")
		return
	}
	if snap == nil {
		sendError(w, http.StatusNotFound, "No active session")
		return
	}

	sendJSON(w, map[string]interface{}{
		"success": true,
		"userId":  userID,
		"session": snap,
	})
}
