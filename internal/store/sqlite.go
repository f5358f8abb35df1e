package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Aryan42/wannameet/internal/models"
)

// SQLiteStore is a single-node durable room table. Fits deployments where
// the directory should survive restarts without running PostgreSQL.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and creates if needed) the database at dbPath.
// If dbPath is empty, defaults to "./data/wannameet.db".
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/wannameet.db"
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL DEFAULT 'waiting',
		created_by TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_rooms_status_created ON rooms(status, created_at);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *SQLiteStore) Close() {
	_ = s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) CreateRoom(ctx context.Context, createdBy string) (*models.Room, error) {
	room := &models.Room{
		ID:        uuid.Must(uuid.NewV7()),
		Status:    models.StatusWaiting,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rooms (id, status, created_by, created_at)
		VALUES (?, ?, ?, ?)
	`, room.ID.String(), string(room.Status), createdBy, room.CreatedAt)
	if err != nil {
		return nil, err
	}
	return room, nil
}

func (s *SQLiteStore) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	room := &models.Room{}
	var idStr, status string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, status, created_by, created_at FROM rooms WHERE id = ?
	`, id.String()).Scan(&idStr, &status, &room.CreatedBy, &room.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	room.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	room.Status = models.RoomStatus(status)
	return room, nil
}

func (s *SQLiteStore) ListWaitingRooms(ctx context.Context, limit int) ([]models.Room, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, status, created_by, created_at
		FROM rooms
		WHERE status = 'waiting'
		ORDER BY created_at ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var waiting []models.Room
	for rows.Next() {
		var room models.Room
		var idStr, status string
		if err := rows.Scan(&idStr, &status, &room.CreatedBy, &room.CreatedAt); err != nil {
			return nil, err
		}
		room.ID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, err
		}
		room.Status = models.RoomStatus(status)
		waiting = append(waiting, room)
	}
	return waiting, rows.Err()
}

// ClaimRoom relies on the conditional UPDATE for atomicity: only one of
// several concurrent claimants sees a non-zero rows-affected count.
func (s *SQLiteStore) ClaimRoom(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE rooms SET status = 'active'
		WHERE id = ? AND status = 'waiting'
	`, id.String())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SQLiteStore) ReleaseRoom(ctx context.Context, id uuid.UUID) (models.RoomStatus, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE rooms SET status = 'waiting'
		WHERE id = ? AND status = 'active'
	`, id.String())
	if err != nil {
		return "", err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return models.StatusWaiting, nil
	}

	res, err = s.db.ExecContext(ctx, `
		UPDATE rooms SET status = 'closed'
		WHERE id = ? AND status = 'waiting'
	`, id.String())
	if err != nil {
		return "", err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return models.StatusClosed, nil
	}

	room, err := s.GetRoom(ctx, id)
	if err != nil {
		return "", err
	}
	return room.Status, nil
}
