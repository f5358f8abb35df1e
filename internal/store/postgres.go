package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Aryan42/wannameet/internal/models"
)

// PostgresStore is the room table for multi-instance deployments. Claim
// atomicity comes from conditional UPDATEs, so several directory
// instances can share one database safely.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	store := &PostgresStore{pool: pool}
	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS rooms (
			id UUID PRIMARY KEY,
			status TEXT NOT NULL DEFAULT 'waiting',
			created_by TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_rooms_status_created ON rooms(status, created_at);
	`)
	return err
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) CreateRoom(ctx context.Context, createdBy string) (*models.Room, error) {
	room := &models.Room{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO rooms (id, status, created_by)
		VALUES ($1, 'waiting', $2)
		RETURNING id, status, created_by, created_at
	`, uuid.Must(uuid.NewV7()), createdBy).Scan(
		&room.ID,
		&room.Status,
		&room.CreatedBy,
		&room.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return room, nil
}

func (s *PostgresStore) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	room := &models.Room{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, status, created_by, created_at
		FROM rooms WHERE id = $1
	`, id).Scan(
		&room.ID,
		&room.Status,
		&room.CreatedBy,
		&room.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

func (s *PostgresStore) ListWaitingRooms(ctx context.Context, limit int) ([]models.Room, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, status, created_by, created_at
		FROM rooms
		WHERE status = 'waiting'
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var waiting []models.Room
	for rows.Next() {
		var room models.Room
		if err := rows.Scan(&room.ID, &room.Status, &room.CreatedBy, &room.CreatedAt); err != nil {
			return nil, err
		}
		waiting = append(waiting, room)
	}
	return waiting, rows.Err()
}

func (s *PostgresStore) ClaimRoom(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE rooms SET status = 'active'
		WHERE id = $1 AND status = 'waiting'
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) ReleaseRoom(ctx context.Context, id uuid.UUID) (models.RoomStatus, error) {
	var status models.RoomStatus
	err := s.pool.QueryRow(ctx, `
		UPDATE rooms SET status = CASE status
			WHEN 'active' THEN 'waiting'
			WHEN 'waiting' THEN 'closed'
			ELSE status
		END
		WHERE id = $1
		RETURNING status
	`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrRoomNotFound
		}
		return "", err
	}
	return status, nil
}
