package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"provchat/internal/app/chat"
	"provchat/internal/pkg/errs"
	"provchat/internal/pkg/resp"
)

// HandleListRooms reports how many users are online in each room.
func HandleListRooms(hub *chat.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		registry := hub.Registry()

		resp.RespondSuccess(w, r, map[string]any{
			"online": registry.Len(),
			"rooms":  registry.Rooms(),
		})
	}
}

// HandleRoomUsers lists the nicknames in a room, in the order they joined.
func HandleRoomUsers(hub *chat.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room := chi.URLParam(r, "room")
		if room == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"room":  room,
			"users": hub.Registry().MembersOf(room),
		})
	}
}

// HandleNicknameAvailability tells a client whether a nickname is free
// right now. The answer can be stale by the time the client connects;
// admission remains the authority.
func HandleNicknameAvailability(hub *chat.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nickname := chi.URLParam(r, "nickname")
		if nickname == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		_, taken := hub.Registry().LookupByNickname(nickname)
		zerolog.Ctx(r.Context()).Debug().Bool("taken", taken).Msg("Nickname availability checked.")

		resp.RespondSuccess(w, r, map[string]any{
			"nickname":  nickname,
			"available": !taken,
		})
	}
}
