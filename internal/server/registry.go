package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/playperu/avalon/internal/avalon"
)

// ErrRoomNotFound is returned when an intent targets a room with neither a
// live session, a persisted snapshot, nor a room row.
var ErrRoomNotFound = errors.New("room not found")

// Registry holds at most one live session per room. Intents for the same
// room are serialized through that session's queue; different rooms run
// fully in parallel. A room absent from memory is hydrated from its
// persisted snapshot.
type Registry struct {
	store  Store
	broker *Broker
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRegistry(store Store, broker *Broker, logger *slog.Logger) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		store:    store,
		broker:   broker,
		logger:   logger,
		sessions: make(map[string]*session),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Dispatch queues an intent for the room's session, creating or hydrating
// the session first if needed. The error covers routing only; outcomes of
// the intent itself are reported through the broker.
func (r *Registry) Dispatch(ctx context.Context, roomID string, actor User, intent Intent) error {
	// Two attempts: the session can be evicted between lookup and enqueue
	// when a game ends concurrently.
	for attempt := 0; attempt < 2; attempt++ {
		s, err := r.getOrCreate(ctx, roomID)
		if err != nil {
			return err
		}
		select {
		case s.intents <- envelope{actor: actor, intent: intent}:
			return nil
		case <-s.stop:
			continue
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return ErrRoomNotFound
}

func (r *Registry) getOrCreate(ctx context.Context, roomID string) (*session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[roomID]; ok && !s.stopped() {
		return s, nil
	}

	var game *avalon.Game
	state, err := r.store.GameSnapshot(ctx, roomID)
	switch {
	case err == nil:
		game = avalon.Restore(state)
	case errors.Is(err, ErrNotFound):
		// No game yet; the room row must at least exist.
		if _, err := r.store.GetRoom(ctx, roomID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, ErrRoomNotFound
			}
			return nil, err
		}
	default:
		return nil, err
	}

	s := newSession(roomID, game, r.store, r.broker, r.logger)
	s.evict = func() { r.Evict(roomID) }
	r.sessions[roomID] = s

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		s.run(r.ctx)
	}()

	if game != nil {
		r.logger.Info("hydrated game session", "room", roomID)
	}
	return s, nil
}

// Evict stops the room's session and drops it from memory. Durable state is
// untouched; the next Dispatch hydrates a fresh session from the snapshot.
func (r *Registry) Evict(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[roomID]; ok {
		s.close()
		delete(r.sessions, roomID)
	}
}

// Close stops every session and waits for their goroutines to exit.
func (r *Registry) Close() {
	r.mu.Lock()
	for roomID, s := range r.sessions {
		s.close()
		delete(r.sessions, roomID)
	}
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
}
