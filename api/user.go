package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"
)

// UserRequest optionally carries an id the client already holds
type UserRequest struct {
	UserID string `json:"userId"`
}

// UserResponse returns the id the client should store and replay
type UserResponse struct {
	Success bool   `json:"success"`
	UserID  string `json:"userId"`
	Created bool   `json:"created"`
}

// HandleUser issues or confirms a player identity
// POST /api/user
func HandleUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created := false
	userID := req.UserID
	if userID != "" {
		if _, err := uuid.Parse(userID); err != nil {
			sendError(w, http.StatusBadRequest, "userId must be a UUID")
			return
		}
	} else {
		userID = uuid.NewString()
		created = true
	}

	if err := getStore().RegisterUser(r.Context(), userID); err != nil {
		log.Printf("❌ Failed to register user: %v", err)
		sendError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	sendJSON(w, UserResponse{Success: true, UserID: userID, Created: created})
}
