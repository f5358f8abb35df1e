package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aryan42/wannameet/internal/models"
	"github.com/Aryan42/wannameet/internal/store"
)

func Test_ClaimRoom_only_succeeds_while_waiting(t *testing.T) {
	mem := store.NewMemoryStore()
	ctx := context.Background()

	room, err := mem.CreateRoom(ctx, "alice")
	require.NoError(t, err)

	claimed, err := mem.ClaimRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = mem.ClaimRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.False(t, claimed, "an active room must not be claimable again")

	_, err = mem.ClaimRoom(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrRoomNotFound)
}

func Test_ListWaitingRooms_orders_by_creation_and_honors_limit(t *testing.T) {
	mem := store.NewMemoryStore()
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		room, err := mem.CreateRoom(ctx, "alice")
		require.NoError(t, err)
		ids = append(ids, room.ID)
		time.Sleep(time.Millisecond)
	}

	// The middle room got claimed and should disappear from the list.
	_, err := mem.ClaimRoom(ctx, ids[1])
	require.NoError(t, err)

	waiting, err := mem.ListWaitingRooms(ctx, 10)
	require.NoError(t, err)
	require.Len(t, waiting, 2)
	assert.Equal(t, ids[0], waiting[0].ID)
	assert.Equal(t, ids[2], waiting[1].ID)

	waiting, err = mem.ListWaitingRooms(ctx, 1)
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	assert.Equal(t, ids[0], waiting[0].ID)
}

func Test_ReleaseRoom_transitions(t *testing.T) {
	mem := store.NewMemoryStore()
	ctx := context.Background()

	room, err := mem.CreateRoom(ctx, "alice")
	require.NoError(t, err)
	_, err = mem.ClaimRoom(ctx, room.ID)
	require.NoError(t, err)

	status, err := mem.ReleaseRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, status)

	status, err = mem.ReleaseRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, status)

	// A closed room stays closed.
	status, err = mem.ReleaseRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, status)
}

func Test_ConsumeToken_is_single_use(t *testing.T) {
	mem := store.NewMemoryStore()
	ctx := context.Background()

	token := &models.Token{
		ID:        ulid.Make().String(),
		Kind:      models.TokenMedia,
		UserID:    "alice",
		RoomID:    uuid.NewString(),
		ExpiresAt: time.Now().Add(time.Minute).UnixMilli(),
	}
	require.NoError(t, mem.SaveToken(ctx, token))

	got, err := mem.ConsumeToken(ctx, token.ID)
	require.NoError(t, err)
	assert.Equal(t, token.UserID, got.UserID)
	assert.Equal(t, token.RoomID, got.RoomID)

	_, err = mem.ConsumeToken(ctx, token.ID)
	assert.ErrorIs(t, err, store.ErrTokenNotFound)
}

func Test_ConsumeToken_expired_token_is_spent_and_rejected(t *testing.T) {
	mem := store.NewMemoryStore()
	ctx := context.Background()

	token := &models.Token{
		ID:        ulid.Make().String(),
		Kind:      models.TokenMessaging,
		UserID:    "alice",
		RoomID:    uuid.NewString(),
		ExpiresAt: time.Now().Add(-time.Second).UnixMilli(),
	}
	require.NoError(t, mem.SaveToken(ctx, token))

	_, err := mem.ConsumeToken(ctx, token.ID)
	assert.ErrorIs(t, err, store.ErrTokenNotFound)
}
