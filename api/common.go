package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"candleQuest/config"
	"candleQuest/db"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

var (
	// Round storage used by the history, leaderboard and user endpoints
	store      db.Store = db.NewNoopStore()
	storeMutex sync.RWMutex

	// Reports the number of live game sessions for the health check
	sessionCounter      func() int
	sessionCounterMutex sync.RWMutex
)

// SetStore sets the round store the handlers read from
func SetStore(s db.Store) {
	storeMutex.Lock()
	defer storeMutex.Unlock()
	store = s
	log.Println("✅ Round store set for API handlers")
}

func getStore() db.Store {
	storeMutex.RLock()
	defer storeMutex.RUnlock()
	return store
}

// SetSessionCounter wires the live session count into the health check
func SetSessionCounter(f func() int) {
	sessionCounterMutex.Lock()
	defer sessionCounterMutex.Unlock()
	sessionCounter = f
}

func liveSessions() int {
	sessionCounterMutex.RLock()
	defer sessionCounterMutex.RUnlock()
	if sessionCounter == nil {
		return 0
	}
	return sessionCounter()
}

// sendJSON writes a 200 JSON response
func sendJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", config.AllowOrigin)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ Failed to encode response: %v", err)
	}
}

// sendError sends an error response
func sendError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Success: false,
		Error:   message,
	})
}

// CorsMiddleware adds CORS headers to allow frontend requests
func CorsMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = config.AllowOrigin
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		// Handle preflight OPTIONS request
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		handler(w, r)
	}
}
