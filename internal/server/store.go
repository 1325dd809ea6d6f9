package server

import (
	"context"
	"errors"

	"github.com/playperu/avalon/internal/avalon"
)

var ErrNotFound = errors.New("not found")

// Room statuses.
const (
	RoomWaiting  = "waiting"
	RoomPlaying  = "playing"
	RoomFinished = "finished"
)

// User is a registered participant identity.
type User struct {
	ID       string `json:"userId"`
	Username string `json:"username"`
}

// RoomPlayer is one member of a room's roster.
type RoomPlayer struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Ready    bool   `json:"ready"`
}

// Room is a lobby/game container holding a fixed roster for one game.
type Room struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	HostID     string       `json:"hostId"`
	MaxPlayers int          `json:"maxPlayers"`
	Status     string       `json:"status"`
	Players    []RoomPlayer `json:"players"`
}

func (r Room) hasPlayer(userID string) bool {
	for _, p := range r.Players {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// Store is the durable state behind the server: user identities, room
// rosters, and the opaque per-room game snapshot document.
type Store interface {
	// LoginUser creates the user if the username is new, refreshes the
	// login timestamp otherwise, and mints a session token either way.
	LoginUser(ctx context.Context, username string) (User, string, error)
	UserFromToken(ctx context.Context, token string) (User, error)

	CreateRoom(ctx context.Context, name, hostID string, maxPlayers int) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	GetRoom(ctx context.Context, roomID string) (Room, error)
	DeleteRoom(ctx context.Context, roomID string) error
	SetRoomHost(ctx context.Context, roomID, hostID string) error
	SetRoomStatus(ctx context.Context, roomID, status string) error

	AddRoomPlayer(ctx context.Context, roomID, userID string) error
	RemoveRoomPlayer(ctx context.Context, roomID, userID string) error
	SetPlayerReady(ctx context.Context, roomID, userID string, ready bool) error

	// GameSnapshot returns the room's persisted game state, ErrNotFound if
	// the room has never had a game.
	GameSnapshot(ctx context.Context, roomID string) (avalon.State, error)
	PutGameSnapshot(ctx context.Context, roomID string, state avalon.State) error
}
