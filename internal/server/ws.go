package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"
)

// handleWS upgrades a room member's connection and bridges it to the game:
// inbound messages are intents dispatched to the room's session, outbound
// messages are the member's event feed from the broker.
func handleWS(logger *slog.Logger, store Store, registry *Registry, broker *Broker, presence Presence) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := chi.URLParam(r, "roomID")

		token := r.URL.Query().Get("token")
		if token == "" {
			writeError(w, http.StatusUnauthorized, "token query parameter required")
			return
		}
		user, err := store.UserFromToken(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid session token")
			return
		}

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
			writeError(w, http.StatusForbidden, "you are not in this room")
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		if err := presence.Connect(ctx, roomID, user.ID); err != nil {
			logger.Warn("presence connect failed", "room", roomID, "error", err)
		}
		defer func() {
			if err := presence.Disconnect(context.WithoutCancel(ctx), roomID, user.ID); err != nil {
				logger.Warn("presence disconnect failed", "room", roomID, "error", err)
			}
		}()

		sub := broker.Subscribe(roomID, user.ID)
		defer broker.Unsubscribe(roomID, sub)

		logger.Info("websocket connected", "room", roomID, "user", user.ID)

		// Event feed to the client.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case data := <-sub.ch:
					if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
						logger.Debug("websocket write failed", "error", err)
						cancel()
						return
					}
				}
			}
		}()

		// Intents from the client.
		for {
			_, msg, err := conn.Read(ctx)
			if err != nil {
				logger.Debug("websocket read ended", "room", roomID, "user", user.ID, "error", err)
				return
			}

			var intent Intent
			if err := json.Unmarshal(msg, &intent); err != nil {
				broker.SendTo(roomID, user.ID, Event{
					Type: EventError,
					Data: errorPayload{Message: "invalid intent payload"},
				})
				continue
			}

			if err := registry.Dispatch(ctx, roomID, user, intent); err != nil {
				broker.SendTo(roomID, user.ID, Event{
					Type: EventError,
					Data: errorPayload{Message: err.Error()},
				})
			}
		}
	}
}
