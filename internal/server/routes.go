package server

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, store Store, registry *Registry, broker *Broker, presence Presence, db *sql.DB, rdb *redis.Client) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Avalon API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db, rdb))

	r.Post("/api/auth/login", handleLogin(store))

	// The websocket authenticates via query token: browsers cannot set
	// headers on the upgrade request.
	r.Get("/api/ws/{roomID}", handleWS(logger, store, registry, broker, presence))

	r.Route("/api/rooms", func(r chi.Router) {
		r.Use(authMiddleware(store))
		r.Get("/", handleListRooms(store))
		r.Post("/", handleCreateRoom(store))
		r.Get("/{roomID}", handleGetRoom(store, presence))
		r.Post("/{roomID}/join", handleJoinRoom(store, broker))
		r.Post("/{roomID}/leave", handleLeaveRoom(store, broker, registry, presence))
		r.Post("/{roomID}/ready", handleToggleReady(store, broker))
	})
}
