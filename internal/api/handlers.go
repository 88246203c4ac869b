package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"

	"battle-arena/internal/config"
	"battle-arena/internal/game"
)

// Version is reported by the root banner endpoint.
const Version = "1.0.0"

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// JoinRequest is the join command's wire form.
type JoinRequest struct {
	Username string `json:"username"`
}

// MoveRequest is the move command's wire form.
type MoveRequest struct {
	PlayerID   string  `json:"player_id"`
	DirectionX float64 `json:"direction_x"`
	DirectionY float64 `json:"direction_y"`
}

// ShootRequest is the shoot command's wire form.
type ShootRequest struct {
	PlayerID   string  `json:"player_id"`
	DirectionX float64 `json:"direction_x"`
	DirectionY float64 `json:"direction_y"`
}

// routerHandlers holds the handler functions for the router.
type routerHandlers struct {
	engine Engine
	server config.ServerConfig
}

func (h *routerHandlers) handleRoot(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Stats()
	writeJSON(w, map[string]interface{}{
		"game":           "Battle Arena",
		"version":        Version,
		"players_online": snap.Game.PlayersOnline,
	})
}

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":       "ok",
		"game_running": h.engine.Running(),
	})
}

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.State())
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.Stats())
}

func (h *routerHandlers) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if msg := h.validateUsername(req.Username); msg != "" {
		writeError(w, msg, http.StatusBadRequest)
		return
	}

	result, err := h.engine.Join(req.Username)
	if err != nil {
		writeCommandError(w, err)
		return
	}

	writeJSON(w, struct {
		Success bool `json:"success"`
		game.JoinResult
	}{true, result})
}

func (h *routerHandlers) handleMove(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if req.PlayerID == "" {
		writeError(w, "player_id is required", http.StatusBadRequest)
		return
	}

	result, err := h.engine.Move(req.PlayerID, req.DirectionX, req.DirectionY)
	if err != nil {
		writeCommandError(w, err)
		return
	}

	writeJSON(w, struct {
		Success bool `json:"success"`
		game.MoveResult
	}{true, result})
}

func (h *routerHandlers) handleShoot(w http.ResponseWriter, r *http.Request) {
	var req ShootRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if req.PlayerID == "" {
		writeError(w, "player_id is required", http.StatusBadRequest)
		return
	}

	result, err := h.engine.Shoot(req.PlayerID, req.DirectionX, req.DirectionY)
	if err != nil {
		writeCommandError(w, err)
		return
	}

	writeJSON(w, struct {
		Success bool `json:"success"`
		game.ShootResult
	}{true, result})
}

// validateUsername returns a human-readable rejection, or "" when valid.
func (h *routerHandlers) validateUsername(username string) string {
	if len(username) < h.server.UsernameMinLength {
		return fmt.Sprintf("Username too short (min %d)", h.server.UsernameMinLength)
	}
	if len(username) > h.server.UsernameMaxLength {
		return fmt.Sprintf("Username too long (max %d)", h.server.UsernameMaxLength)
	}
	if !usernamePattern.MatchString(username) {
		return "Username must be alphanumeric + underscore only"
	}
	return ""
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// writeCommandError maps a tagged engine denial to an HTTP status.
func writeCommandError(w http.ResponseWriter, err error) {
	code := game.CodeOf(err)

	status := http.StatusBadRequest
	switch code {
	case game.CodeMoveTooFast, game.CodeShootCooldown, game.CodeDeathCooldown:
		status = http.StatusTooManyRequests
	case game.CodeServerFull, game.CodeServerUnavailable:
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   err.Error(),
		"code":    string(code),
	})
}
