package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Aryan42/wannameet/internal/models"
)

var (
	// ErrRoomNotFound is returned when a room id resolves to nothing.
	ErrRoomNotFound = errors.New("store: room not found")
	// ErrTokenNotFound is returned when a token is absent, expired, or
	// already consumed.
	ErrTokenNotFound = errors.New("store: token not found")
)

// RoomStore is the room table backing the matchmaking directory. The
// directory is the only caller that mutates room status through it.
//
// ClaimRoom is the concurrency-sensitive operation: it must flip exactly
// one Waiting room to Active per winner, so concurrent claimants of the
// same room see at most one true result.
type RoomStore interface {
	Close()
	Ping(ctx context.Context) error

	CreateRoom(ctx context.Context, createdBy string) (*models.Room, error)
	GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error)
	// ListWaitingRooms returns waiting rooms ordered by creation time
	// ascending, so the longest-waiting participant is matched first.
	ListWaitingRooms(ctx context.Context, limit int) ([]models.Room, error)
	// ClaimRoom atomically flips a Waiting room to Active. Returns false
	// when the room is no longer claimable (already active or closed).
	ClaimRoom(ctx context.Context, id uuid.UUID) (bool, error)
	// ReleaseRoom demotes an Active room to Waiting (one participant
	// departed, one remains) or closes a Waiting room (the sole
	// participant departed). Returns the resulting status.
	ReleaseRoom(ctx context.Context, id uuid.UUID) (models.RoomStatus, error)
}

// TokenStore issues and consumes single-use transport tokens.
type TokenStore interface {
	Close()
	Ping(ctx context.Context) error

	SaveToken(ctx context.Context, token *models.Token) error
	// ConsumeToken removes and returns a token in one step. A second
	// consume of the same id returns ErrTokenNotFound.
	ConsumeToken(ctx context.Context, id string) (*models.Token, error)
}
