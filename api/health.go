package api

import (
	"net/http"

	"candleQuest/db"
)

/* =========================
   HEALTH CHECK ENDPOINT
========================= */

// HandleHealthCheck handles health check requests
// GET /api/health
func HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx := r.Context()

	redisHealth := "ok"
	if err := db.HealthCheck(ctx); err != nil {
		redisHealth = "error: " + err.Error()
	}

	storeHealth := "ok"
	if err := getStore().Ping(ctx); err != nil {
		storeHealth = "error: " + err.Error()
	}

	sendJSON(w, map[string]interface{}{
		"success":  true,
		"redis":    redisHealth,
		"store":    storeHealth,
		"sessions": liveSessions(),
		"message":  "Health check completed",
	})
}
