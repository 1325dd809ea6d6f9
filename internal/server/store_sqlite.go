package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/playperu/avalon/internal/avalon"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) LoginUser(ctx context.Context, username string) (User, string, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, username, last_login_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT(username) DO UPDATE SET last_login_at = excluded.last_login_at
		RETURNING id, username
	`, uuid.NewString(), username).Scan(&u.ID, &u.Username)
	if err != nil {
		return User{}, "", fmt.Errorf("upserting user: %w", err)
	}

	var token string
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO user_sessions (token, user_id)
		VALUES (lower(hex(randomblob(16))), ?)
		RETURNING token
	`, u.ID).Scan(&token)
	if err != nil {
		return User{}, "", fmt.Errorf("creating session: %w", err)
	}
	return u, token, nil
}

func (s *SQLiteStore) UserFromToken(ctx context.Context, token string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.username
		FROM user_sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = ?
	`, token).Scan(&u.ID, &u.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *SQLiteStore) CreateRoom(ctx context.Context, name, hostID string, maxPlayers int) (Room, error) {
	roomID := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rooms (id, name, host_id, max_players) VALUES (?, ?, ?, ?)
	`, roomID, name, hostID, maxPlayers)
	if err != nil {
		return Room{}, fmt.Errorf("inserting room: %w", err)
	}
	if err := s.AddRoomPlayer(ctx, roomID, hostID); err != nil {
		return Room{}, err
	}
	return s.GetRoom(ctx, roomID)
}

func (s *SQLiteStore) ListRooms(ctx context.Context) ([]Room, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.name, r.host_id, r.max_players, r.status,
		       (SELECT count(*) FROM room_players p WHERE p.room_id = r.id)
		FROM rooms r
		ORDER BY r.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := []Room{}
	for rows.Next() {
		var r Room
		var playerCount int
		if err := rows.Scan(&r.ID, &r.Name, &r.HostID, &r.MaxPlayers, &r.Status, &playerCount); err != nil {
			return nil, err
		}
		// The list view only carries the headcount, not the roster.
		r.Players = make([]RoomPlayer, playerCount)
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

func (s *SQLiteStore) GetRoom(ctx context.Context, roomID string) (Room, error) {
	var r Room
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, host_id, max_players, status FROM rooms WHERE id = ?
	`, roomID).Scan(&r.ID, &r.Name, &r.HostID, &r.MaxPlayers, &r.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return Room{}, ErrNotFound
	}
	if err != nil {
		return Room{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.user_id, u.username, p.ready
		FROM room_players p
		JOIN users u ON u.id = p.user_id
		WHERE p.room_id = ?
		ORDER BY p.joined_at
	`, roomID)
	if err != nil {
		return Room{}, err
	}
	defer rows.Close()

	r.Players = []RoomPlayer{}
	for rows.Next() {
		var p RoomPlayer
		if err := rows.Scan(&p.UserID, &p.Username, &p.Ready); err != nil {
			return Room{}, err
		}
		r.Players = append(r.Players, p)
	}
	return r, rows.Err()
}

func (s *SQLiteStore) DeleteRoom(ctx context.Context, roomID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, roomID)
	return err
}

func (s *SQLiteStore) SetRoomHost(ctx context.Context, roomID, hostID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE rooms SET host_id = ? WHERE id = ?`, hostID, roomID)
	return err
}

func (s *SQLiteStore) SetRoomStatus(ctx context.Context, roomID, status string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE rooms SET status = ? WHERE id = ?`, status, roomID)
	return err
}

func (s *SQLiteStore) AddRoomPlayer(ctx context.Context, roomID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO room_players (room_id, user_id) VALUES (?, ?)
		ON CONFLICT(room_id, user_id) DO NOTHING
	`, roomID, userID)
	return err
}

func (s *SQLiteStore) RemoveRoomPlayer(ctx context.Context, roomID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM room_players WHERE room_id = ? AND user_id = ?
	`, roomID, userID)
	return err
}

func (s *SQLiteStore) SetPlayerReady(ctx context.Context, roomID, userID string, ready bool) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE room_players SET ready = ? WHERE room_id = ? AND user_id = ?
	`, ready, roomID, userID)
	return err
}

func (s *SQLiteStore) GameSnapshot(ctx context.Context, roomID string) (avalon.State, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `
		SELECT state FROM game_snapshots WHERE room_id = ?
	`, roomID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return avalon.State{}, ErrNotFound
	}
	if err != nil {
		return avalon.State{}, err
	}

	var state avalon.State
	if err := json.Unmarshal([]byte(doc), &state); err != nil {
		return avalon.State{}, fmt.Errorf("decoding snapshot for room %s: %w", roomID, err)
	}
	return state, nil
}

func (s *SQLiteStore) PutGameSnapshot(ctx context.Context, roomID string, state avalon.State) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding snapshot for room %s: %w", roomID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO game_snapshots (room_id, state, updated_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT(room_id) DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at
	`, roomID, string(doc))
	return err
}
