// Package directory implements server-side room matchmaking: allocating
// waiting rooms, claiming their second slot, releasing them, and issuing
// the single-use transport tokens that gate the relay.
package directory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/Aryan42/wannameet/internal/metrics"
	"github.com/Aryan42/wannameet/internal/models"
	"github.com/Aryan42/wannameet/internal/store"
)

// How many waiting rooms a single request scans before giving up and
// telling the caller to create its own.
const claimScanLimit = 20

// ErrTokenRejected is returned when a transport token is unknown, spent,
// expired, or bound to a different room or user.
var ErrTokenRejected = errors.New("directory: token rejected")

// TokenPair carries the two single-use credentials issued alongside a
// room assignment.
type TokenPair struct {
	Media     string
	Messaging string
}

// Directory owns the shared room table. It is the only component that
// mutates room status.
type Directory struct {
	rooms    store.RoomStore
	tokens   store.TokenStore
	logger   zerolog.Logger
	tokenTTL time.Duration
}

// New creates a directory over the given stores.
func New(rooms store.RoomStore, tokens store.TokenStore, logger zerolog.Logger) *Directory {
	return &Directory{
		rooms:    rooms,
		tokens:   tokens,
		logger:   logger.With().Str("component", "directory").Logger(),
		tokenTTL: 2 * time.Minute,
	}
}

// CreateRoom allocates a fresh Waiting room with the caller as its sole
// participant and issues tokens scoped to it.
func (d *Directory) CreateRoom(ctx context.Context, userID string) (*models.Room, TokenPair, error) {
	room, err := d.rooms.CreateRoom(ctx, userID)
	if err != nil {
		return nil, TokenPair{}, err
	}

	pair, err := d.issueTokens(ctx, userID, room.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}

	metrics.RoomsCreated.Inc()
	d.logger.Info().Str("room", room.ID.String()).Str("user", userID).Msg("room created")
	return room, pair, nil
}

// RequestRoom tries to seat the caller as the second participant of a
// waiting room. Candidates are scanned earliest-created first; the claim
// is atomic, so of several concurrent callers chasing the same room
// exactly one wins and the rest move on to the next candidate or fall
// through to CreateRoom. A nil room with a nil error means no waiting
// room was claimable.
func (d *Directory) RequestRoom(ctx context.Context, userID string) (*models.Room, TokenPair, error) {
	candidates, err := d.rooms.ListWaitingRooms(ctx, claimScanLimit)
	if err != nil {
		return nil, TokenPair{}, err
	}

	for _, candidate := range candidates {
		if candidate.CreatedBy == userID {
			// Never match a participant with their own waiting room.
			continue
		}
		claimed, err := d.rooms.ClaimRoom(ctx, candidate.ID)
		if err != nil {
			return nil, TokenPair{}, err
		}
		if !claimed {
			continue
		}

		room := candidate
		room.Status = models.StatusActive

		pair, err := d.issueTokens(ctx, userID, room.ID)
		if err != nil {
			return nil, TokenPair{}, err
		}

		metrics.RoomsMatched.Inc()
		d.logger.Info().Str("room", room.ID.String()).Str("user", userID).Msg("room matched")
		return &room, pair, nil
	}

	return nil, TokenPair{}, nil
}

// ReleaseRoom is the departure signal. An Active room drops back to
// Waiting so its remaining participant can be matched again; a Waiting
// room whose sole participant left is closed.
func (d *Directory) ReleaseRoom(ctx context.Context, roomID uuid.UUID) (models.RoomStatus, error) {
	status, err := d.rooms.ReleaseRoom(ctx, roomID)
	if err != nil {
		return "", err
	}

	switch status {
	case models.StatusWaiting:
		metrics.RoomsReleased.Inc()
	case models.StatusClosed:
		metrics.RoomsClosed.Inc()
	}
	d.logger.Info().Str("room", roomID.String()).Str("status", string(status)).Msg("room released")
	return status, nil
}

// GetRoom looks a room up by id.
func (d *Directory) GetRoom(ctx context.Context, roomID uuid.UUID) (*models.Room, error) {
	return d.rooms.GetRoom(ctx, roomID)
}

// Authorize consumes a transport token and checks its binding. The token
// is spent even when the binding check fails; a retry needs a fresh
// rematch, not token reuse.
func (d *Directory) Authorize(ctx context.Context, tokenID string, kind models.TokenKind, roomID uuid.UUID, userID string) error {
	token, err := d.tokens.ConsumeToken(ctx, tokenID)
	if err != nil {
		if errors.Is(err, store.ErrTokenNotFound) {
			metrics.TokensRejected.WithLabelValues("unknown").Inc()
			return ErrTokenRejected
		}
		return err
	}

	if token.Kind != kind || token.RoomID != roomID.String() || token.UserID != userID {
		metrics.TokensRejected.WithLabelValues("scope").Inc()
		return ErrTokenRejected
	}
	if token.ExpiresAt > 0 && token.ExpiresAt < time.Now().UnixMilli() {
		metrics.TokensRejected.WithLabelValues("expired").Inc()
		return ErrTokenRejected
	}
	return nil
}

func (d *Directory) issueTokens(ctx context.Context, userID string, roomID uuid.UUID) (TokenPair, error) {
	expiry := time.Now().Add(d.tokenTTL).UnixMilli()

	media := &models.Token{
		ID:        ulid.Make().String(),
		Kind:      models.TokenMedia,
		UserID:    userID,
		RoomID:    roomID.String(),
		ExpiresAt: expiry,
	}
	messaging := &models.Token{
		ID:        ulid.Make().String(),
		Kind:      models.TokenMessaging,
		UserID:    userID,
		RoomID:    roomID.String(),
		ExpiresAt: expiry,
	}

	if err := d.tokens.SaveToken(ctx, media); err != nil {
		return TokenPair{}, err
	}
	if err := d.tokens.SaveToken(ctx, messaging); err != nil {
		return TokenPair{}, err
	}

	metrics.TokensIssued.Add(2)
	return TokenPair{Media: media.ID, Messaging: messaging.ID}, nil
}
