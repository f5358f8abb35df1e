package handlers

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Aryan42/wannameet/internal/models"
	"github.com/Aryan42/wannameet/internal/store"
)

// Participant ids are client-generated opaque strings; cap length and
// charset so they are safe in logs and relay frames.
var userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// RoomView is the wire shape of a room.
type RoomView struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CreateRoomResponse is the response to POST /rooms.
type CreateRoomResponse struct {
	Room           RoomView `json:"room"`
	MediaToken     string   `json:"mediaToken"`
	MessagingToken string   `json:"messagingToken"`
}

// RequestRoomResponse is the response to GET /rooms. Rooms holds the
// waiting room claimed for the caller (at most one entry; empty means
// the caller should create its own). Tokens are scoped to that room and
// empty when no room was claimable.
type RequestRoomResponse struct {
	Rooms          []RoomView `json:"rooms"`
	MediaToken     string     `json:"mediaToken"`
	MessagingToken string     `json:"messagingToken"`
}

// GetRoomResponse is the response to GET /rooms/{roomID}.
type GetRoomResponse struct {
	Room RoomView `json:"room"`
}

// ReleaseRoomResponse is the acknowledgement to PUT /rooms/{roomID}.
type ReleaseRoomResponse struct {
	Room RoomView `json:"room"`
}

func roomView(room *models.Room) RoomView {
	return RoomView{ID: room.ID.String(), Status: string(room.Status)}
}

// CreateRoom handles POST /rooms?userId=. It allocates a fresh waiting
// room with the caller as sole participant.
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if !userIDRegex.MatchString(userID) {
		h.Error(w, http.StatusBadRequest, "userId must be 1-64 characters, alphanumeric with hyphens and underscores only")
		return
	}

	room, tokens, err := h.dir.CreateRoom(r.Context(), userID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to create room")
		return
	}

	h.JSON(w, http.StatusCreated, CreateRoomResponse{
		Room:           roomView(room),
		MediaToken:     tokens.Media,
		MessagingToken: tokens.Messaging,
	})
}

// RequestRoom handles GET /rooms?userId=. It claims a waiting room for
// the caller when one exists.
func (h *Handler) RequestRoom(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if !userIDRegex.MatchString(userID) {
		h.Error(w, http.StatusBadRequest, "userId must be 1-64 characters, alphanumeric with hyphens and underscores only")
		return
	}

	room, tokens, err := h.dir.RequestRoom(r.Context(), userID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to request room")
		return
	}

	resp := RequestRoomResponse{Rooms: []RoomView{}}
	if room != nil {
		resp.Rooms = append(resp.Rooms, roomView(room))
		resp.MediaToken = tokens.Media
		resp.MessagingToken = tokens.Messaging
	}
	h.JSON(w, http.StatusOK, resp)
}

// GetRoom handles GET /rooms/{roomID}, a status lookup, so a client
// holding a room can poll whether it is still live.
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(chi.URLParam(r, "roomID"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid room ID format")
		return
	}

	room, err := h.dir.GetRoom(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			h.Error(w, http.StatusNotFound, "room not found")
			return
		}
		h.Error(w, http.StatusInternalServerError, "failed to get room")
		return
	}

	h.JSON(w, http.StatusOK, GetRoomResponse{Room: roomView(room)})
}

// ReleaseRoom handles PUT /rooms/{roomID}, the departure signal. An
// active room drops to waiting; a waiting room closes.
func (h *Handler) ReleaseRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(chi.URLParam(r, "roomID"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid room ID format")
		return
	}

	status, err := h.dir.ReleaseRoom(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			h.Error(w, http.StatusNotFound, "room not found")
			return
		}
		h.Error(w, http.StatusInternalServerError, "failed to release room")
		return
	}

	h.JSON(w, http.StatusOK, ReleaseRoomResponse{
		Room: RoomView{ID: roomID.String(), Status: string(status)},
	})
}
