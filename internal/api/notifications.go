package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"vault/internal/models"
)

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	p, err := pageRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Notifications.List(r.Context(), userID(r), boolQuery(r, "unread"), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) unreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.Notifications.UnreadCount(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]int64{"unread": n})
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	if err := h.Notifications.MarkRead(r.Context(), userID(r), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, notFoundAs(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.Notifications.MarkAllRead(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]int64{"updated": n})
}
