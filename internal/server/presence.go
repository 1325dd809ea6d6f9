package server

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Presence tracks which room members currently hold an open websocket.
type Presence interface {
	Connect(ctx context.Context, roomID, userID string) error
	Disconnect(ctx context.Context, roomID, userID string) error
	Online(ctx context.Context, roomID string) ([]string, error)
	Clear(ctx context.Context, roomID string) error
}

// RedisPresence keeps a redis set per room, so presence survives server
// restarts and is shared across instances.
type RedisPresence struct {
	rdb *redis.Client
}

func NewPresence(rdb *redis.Client) *RedisPresence {
	return &RedisPresence{rdb: rdb}
}

func presenceKey(roomID string) string {
	return fmt.Sprintf("presence:%s", roomID)
}

// Connect marks the user online in the room.
func (p *RedisPresence) Connect(ctx context.Context, roomID, userID string) error {
	return p.rdb.SAdd(ctx, presenceKey(roomID), userID).Err()
}

// Disconnect marks the user offline in the room.
func (p *RedisPresence) Disconnect(ctx context.Context, roomID, userID string) error {
	return p.rdb.SRem(ctx, presenceKey(roomID), userID).Err()
}

// Online returns the user ids currently connected to the room.
func (p *RedisPresence) Online(ctx context.Context, roomID string) ([]string, error) {
	return p.rdb.SMembers(ctx, presenceKey(roomID)).Result()
}

// Clear drops the room's presence set, used when a room is deleted.
func (p *RedisPresence) Clear(ctx context.Context, roomID string) error {
	return p.rdb.Del(ctx, presenceKey(roomID)).Err()
}
