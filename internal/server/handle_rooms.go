package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// CreateRoomRequest is the request body for POST /api/rooms.
type CreateRoomRequest struct {
	Name       string `json:"name"`
	MaxPlayers int    `json:"maxPlayers"`
}

// RoomDetailResponse is a room plus who is currently connected.
type RoomDetailResponse struct {
	Room
	Online []string `json:"online"`
}

func handleCreateRoom(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r)

		var req CreateRoomRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "room name is required")
			return
		}
		if req.MaxPlayers == 0 {
			req.MaxPlayers = 10
		}
		if req.MaxPlayers < 5 || req.MaxPlayers > 10 {
			writeError(w, http.StatusBadRequest, "max players must be between 5 and 10")
			return
		}

		room, err := store.CreateRoom(r.Context(), req.Name, user.ID, req.MaxPlayers)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, room)
	}
}

func handleListRooms(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms, err := store.ListRooms(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, rooms)
	}
}

func handleGetRoom(store Store, presence Presence) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := chi.URLParam(r, "roomID")

		room, err := store.GetRoom(r.Context(), roomID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		online, err := presence.Online(r.Context(), roomID)
		if err != nil {
			online = []string{}
		}
		writeJSON(w, http.StatusOK, RoomDetailResponse{Room: room, Online: online})
	}
}

func handleJoinRoom(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r)
		roomID := chi.URLParam(r, "roomID")

		room, err := store.GetRoom(r.Context(), roomID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		// Rejoining is a no-op; new members need a waiting room with space.
		if !room.hasPlayer(user.ID) {
			if room.Status != RoomWaiting {
				writeError(w, http.StatusConflict, "room is not available")
				return
			}
			if len(room.Players) >= room.MaxPlayers {
				writeError(w, http.StatusConflict, "room is full")
				return
			}
			if err := store.AddRoomPlayer(r.Context(), roomID, user.ID); err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
		}

		room, err = store.GetRoom(r.Context(), roomID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Broadcast(roomID, Event{Type: EventRoomUpdated, Data: room})
		writeJSON(w, http.StatusOK, room)
	}
}

func handleLeaveRoom(store Store, broker *Broker, registry *Registry, presence Presence) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r)
		roomID := chi.URLParam(r, "roomID")

		room, err := store.GetRoom(r.Context(), roomID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !room.hasPlayer(user.ID) {
			writeError(w, http.StatusConflict, "you are not in this room")
			return
		}

		if err := store.RemoveRoomPlayer(r.Context(), roomID, user.ID); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		room, err = store.GetRoom(r.Context(), roomID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		// Last player out deletes the room; a departing host hands off.
		if len(room.Players) == 0 {
			deleteRoom(r.Context(), roomID, store, registry, presence)
			writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
			return
		}
		if room.HostID == user.ID {
			if err := store.SetRoomHost(r.Context(), roomID, room.Players[0].UserID); err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			room.HostID = room.Players[0].UserID
		}

		broker.Broadcast(roomID, Event{Type: EventRoomUpdated, Data: room})
		writeJSON(w, http.StatusOK, room)
	}
}

func deleteRoom(ctx context.Context, roomID string, store Store, registry *Registry, presence Presence) {
	registry.Evict(roomID)
	_ = presence.Clear(ctx, roomID)
	_ = store.DeleteRoom(ctx, roomID)
}

func handleToggleReady(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r)
		roomID := chi.URLParam(r, "roomID")

		room, err := store.GetRoom(r.Context(), roomID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		var current *RoomPlayer
		for i := range room.Players {
			if room.Players[i].UserID == user.ID {
				current = &room.Players[i]
				break
			}
		}
		if current == nil {
			writeError(w, http.StatusConflict, "you are not in this room")
			return
		}

		if err := store.SetPlayerReady(r.Context(), roomID, user.ID, !current.Ready); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		current.Ready = !current.Ready

		broker.Broadcast(roomID, Event{Type: EventRoomUpdated, Data: room})
		writeJSON(w, http.StatusOK, room)
	}
}
