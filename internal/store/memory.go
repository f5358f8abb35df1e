package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Aryan42/wannameet/internal/models"
)

// MemoryStore is the default single-process backend for both rooms and
// tokens. All state is lost on restart, which matches the ephemeral
// nature of the rooms themselves.
type MemoryStore struct {
	mu     sync.Mutex
	rooms  map[uuid.UUID]*models.Room
	tokens map[string]*models.Token
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:  make(map[uuid.UUID]*models.Room),
		tokens: make(map[string]*models.Token),
	}
}

func (s *MemoryStore) Close() {}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) CreateRoom(ctx context.Context, createdBy string) (*models.Room, error) {
	room := &models.Room{
		ID:        uuid.Must(uuid.NewV7()),
		Status:    models.StatusWaiting,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.rooms[room.ID] = room
	s.mu.Unlock()

	copied := *room
	return &copied, nil
}

func (s *MemoryStore) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	copied := *room
	return &copied, nil
}

func (s *MemoryStore) ListWaitingRooms(ctx context.Context, limit int) ([]models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	waiting := make([]models.Room, 0)
	for _, room := range s.rooms {
		if room.Status == models.StatusWaiting {
			waiting = append(waiting, *room)
		}
	}
	sort.Slice(waiting, func(i, j int) bool {
		return waiting[i].CreatedAt.Before(waiting[j].CreatedAt)
	})
	if limit > 0 && len(waiting) > limit {
		waiting = waiting[:limit]
	}
	return waiting, nil
}

func (s *MemoryStore) ClaimRoom(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok {
		return false, ErrRoomNotFound
	}
	if room.Status != models.StatusWaiting {
		return false, nil
	}
	room.Status = models.StatusActive
	return true, nil
}

func (s *MemoryStore) ReleaseRoom(ctx context.Context, id uuid.UUID) (models.RoomStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok {
		return "", ErrRoomNotFound
	}
	switch room.Status {
	case models.StatusActive:
		room.Status = models.StatusWaiting
	case models.StatusWaiting:
		room.Status = models.StatusClosed
	}
	return room.Status, nil
}

func (s *MemoryStore) SaveToken(ctx context.Context, token *models.Token) error {
	copied := *token

	s.mu.Lock()
	s.tokens[token.ID] = &copied
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ConsumeToken(ctx context.Context, id string) (*models.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[id]
	if !ok {
		return nil, ErrTokenNotFound
	}
	delete(s.tokens, id)

	if token.ExpiresAt > 0 && token.ExpiresAt < time.Now().UnixMilli() {
		return nil, ErrTokenNotFound
	}
	copied := *token
	return &copied, nil
}
