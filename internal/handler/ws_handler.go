/*
Package handler provides the HTTP routes of the relay.

This file contains HandleWebSocket, which upgrades the connection, builds the
profile from the query string and runs admission. Handshake throttling is
applied by the router.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"provchat/internal/app/chat"
	"provchat/internal/app/user"
	"provchat/internal/pkg/randx"
)

// HandleWebSocket upgrades the request and runs the connection until it ends.
//
// Profile problems are reported after the upgrade, as a "nickname in use"
// frame followed by a close, because that is where the web client listens.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())

		query := r.URL.Query()
		room := query.Get("province")
		if room == "" {
			room = query.Get("room")
		}
		profile := user.NewProfile(query.Get("nickname"), query.Get("sex"), room)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written an HTTP error.
			logger.Warn().Err(err).Msg("Failed to upgrade connection to WebSocket")
			return
		}

		client := chat.NewClient(deps.Hub, conn, randx.ConnectionID(), profile)

		if err := deps.Hub.Admit(client); err != nil {
			declared := client.Profile()
			logger.Info().
				Err(err).
				Str("conn_id", client.ID).
				Str("nickname", declared.Nickname).
				Str("room", declared.Room).
				Msg("WebSocket connection rejected at admission.")

			client.Reject(err)
			client.WritePump()
			return
		}

		logger.Debug().Str("conn_id", client.ID).Msg("WebSocket connection admitted.")

		go client.WritePump()
		client.ReadPump()
	}
}
