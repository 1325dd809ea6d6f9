package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/playperu/avalon/internal/database"
	"github.com/playperu/avalon/internal/migrations"
)

func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return NewSQLiteStore(db)
}

// seedRoom logs in n users and puts them all in one room hosted by the
// first. Returns the room and the users in roster order.
func seedRoom(t *testing.T, store *SQLiteStore, n int) (Room, []User, []string) {
	t.Helper()
	ctx := context.Background()

	users := make([]User, n)
	tokens := make([]string, n)
	for i := range users {
		u, token, err := store.LoginUser(ctx, fmt.Sprintf("player%d", i))
		if err != nil {
			t.Fatalf("login player%d: %v", i, err)
		}
		users[i] = u
		tokens[i] = token
	}

	room, err := store.CreateRoom(ctx, "game night", users[0].ID, 10)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	for _, u := range users[1:] {
		if err := store.AddRoomPlayer(ctx, room.ID, u.ID); err != nil {
			t.Fatalf("add %s: %v", u.Username, err)
		}
	}

	room, err = store.GetRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	return room, users, tokens
}

// memoryPresence is an in-process Presence for tests.
type memoryPresence struct {
	mu    sync.Mutex
	rooms map[string]map[string]bool
}

func newMemoryPresence() *memoryPresence {
	return &memoryPresence{rooms: make(map[string]map[string]bool)}
}

func (p *memoryPresence) Connect(_ context.Context, roomID, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rooms[roomID] == nil {
		p.rooms[roomID] = make(map[string]bool)
	}
	p.rooms[roomID][userID] = true
	return nil
}

func (p *memoryPresence) Disconnect(_ context.Context, roomID, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.rooms[roomID], userID)
	return nil
}

func (p *memoryPresence) Online(_ context.Context, roomID string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := []string{}
	for id := range p.rooms[roomID] {
		out = append(out, id)
	}
	return out, nil
}

func (p *memoryPresence) Clear(_ context.Context, roomID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.rooms, roomID)
	return nil
}

// rawEvent mirrors Event with the payload left undecoded.
type rawEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// nextEvent returns the next event on the feed, failing the test on
// timeout.
func nextEvent(t *testing.T, sub *subscriber) rawEvent {
	t.Helper()
	select {
	case data := <-sub.ch:
		var ev rawEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("decoding event: %v", err)
		}
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
		return rawEvent{}
	}
}

// awaitEvent skips ahead on the feed until an event of the wanted type
// arrives, failing the test if something else resolves the wait first.
func awaitEvent(t *testing.T, sub *subscriber, wantType string) json.RawMessage {
	t.Helper()
	for {
		ev := nextEvent(t, sub)
		if ev.Type == wantType {
			return ev.Data
		}
		if ev.Type == EventError {
			t.Fatalf("waiting for %s, got error event: %s", wantType, ev.Data)
		}
	}
}
