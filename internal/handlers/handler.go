package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Aryan42/wannameet/internal/directory"
	"github.com/Aryan42/wannameet/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	dir    *directory.Directory
	rooms  store.RoomStore
	tokens store.TokenStore
}

// NewHandler creates a new Handler over the directory and its stores.
func NewHandler(dir *directory.Directory, rooms store.RoomStore, tokens store.TokenStore) *Handler {
	return &Handler{dir: dir, rooms: rooms, tokens: tokens}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}
