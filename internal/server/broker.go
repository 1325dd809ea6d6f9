package server

import (
	"encoding/json"
	"sync"
)

// subscriber is one websocket connection's event feed, tagged with the user
// it belongs to so private events can be targeted.
type subscriber struct {
	userID string
	ch     chan []byte
}

// Broker is an in-process pub/sub for game events, keyed by room ID. Events
// for a room are delivered in publish order; slow subscribers drop events
// rather than stall the room.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[*subscriber]struct{}),
	}
}

// Subscribe returns a feed of JSON-encoded events for the given room,
// including events targeted at userID alone.
func (b *Broker) Subscribe(roomID, userID string) *subscriber {
	sub := &subscriber{userID: userID, ch: make(chan []byte, 16)}
	b.mu.Lock()
	if b.subs[roomID] == nil {
		b.subs[roomID] = make(map[*subscriber]struct{})
	}
	b.subs[roomID][sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Unsubscribe removes a subscriber from the room's set.
func (b *Broker) Unsubscribe(roomID string, sub *subscriber) {
	b.mu.Lock()
	delete(b.subs[roomID], sub)
	if len(b.subs[roomID]) == 0 {
		delete(b.subs, roomID)
	}
	b.mu.Unlock()
}

// Broadcast sends an event to every subscriber of the room.
func (b *Broker) Broadcast(roomID string, event Event) {
	b.publish(roomID, "", event)
}

// SendTo sends an event only to the given user's subscriptions in the room.
func (b *Broker) SendTo(roomID, userID string, event Event) {
	b.publish(roomID, userID, event)
}

func (b *Broker) publish(roomID, userID string, event Event) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for sub := range b.subs[roomID] {
		if userID != "" && sub.userID != userID {
			continue
		}
		select {
		case sub.ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
