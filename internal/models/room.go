package models

import (
	"time"

	"github.com/google/uuid"
)

// RoomStatus tracks where a room is in its matchmaking lifecycle.
type RoomStatus string

const (
	// StatusWaiting means the room holds one participant awaiting a match.
	StatusWaiting RoomStatus = "waiting"
	// StatusActive means both slots are taken.
	StatusActive RoomStatus = "active"
	// StatusClosed means the last participant left; the room is reclaimed.
	StatusClosed RoomStatus = "closed"
)

// Room is a matchmaking unit holding at most two participants. Its status
// is mutated only by the matchmaking directory.
type Room struct {
	ID        uuid.UUID  `json:"id"`
	Status    RoomStatus `json:"status"`
	CreatedBy string     `json:"created_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
