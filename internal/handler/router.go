/*
Package handler provides the HTTP handlers and routing setup for the relay.

This file defines the main Router, applying logging, CORS and recovery
middleware before delegating to the presence API and the WebSocket endpoint.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"provchat/internal/configs"
	"provchat/internal/pkg/limiter"
	"provchat/internal/pkg/logx"
	"provchat/internal/pkg/resp"
)

// NewHandshakeLimiter returns the per-IP limiter for WebSocket handshakes,
// configured from cfg. Stop it when the server shuts down.
func NewHandshakeLimiter(cfg *configs.AppConfig) *limiter.IPRateLimiter {
	return limiter.NewIPRateLimiter(rate.Limit(cfg.HandshakeRate), cfg.HandshakeBurst)
}

// Router builds the routing table. Handshakes go through deps.HandshakeLimiter.
func Router(deps *AppDeps) http.Handler {
	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			zerolog.Ctx(r.Context()).Warn().Str("origin", origin).Msg("WebSocket connection rejected: Origin not allowed.")
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		registry := deps.Hub.Registry()

		resp.RespondSuccess(w, r, map[string]any{
			"status":  "ok",
			"service": "provchat",
			"online":  registry.Len(),
		})
	})

	r.Route("/api", func(api chi.Router) {
		api.Get("/rooms", HandleListRooms(deps.Hub))
		api.Get("/rooms/{room}/users", HandleRoomUsers(deps.Hub))
		api.Get("/nicknames/{nickname}", HandleNicknameAvailability(deps.Hub))
	})

	r.With(deps.HandshakeLimiter.Middleware).Get("/ws", HandleWebSocket(deps, wsUpgrader))

	return r
}
