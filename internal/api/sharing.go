package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"vault/internal/models"
	"vault/internal/sharing"
)

type shareRequest struct {
	ExpiresAt *time.Time `json:"expires_at"`
}

type shareUpdateRequest struct {
	Enabled      *bool      `json:"enabled"`
	ExpiresAt    *time.Time `json:"expires_at"`
	ClearExpires bool       `json:"clear_expires"`
}

type viewRequest struct {
	ViewerLabel string `json:"viewer_label" validate:"max=255"`
}

// shareResponse is a share with its public URLs.
type shareResponse struct {
	*models.PublicShare
	URLs sharing.URLs `json:"urls"`
}

func (h *Handler) withURLs(sh *models.PublicShare) shareResponse {
	return shareResponse{PublicShare: sh, URLs: sharing.BuildURLs(h.PublicOrigin, sh.Token)}
}

func (h *Handler) getShare(w http.ResponseWriter, r *http.Request) {
	sh, err := h.Sharing.GetShareForProject(r.Context(), userID(r), mux.Vars(r)["projectID"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	if sh == nil {
		models.WriteJSON(w, http.StatusOK, map[string]any{"share": nil})
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{"share": h.withURLs(sh)})
}

func (h *Handler) createShare(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if r.ContentLength != 0 && !decodeValid(w, r, &req) {
		return
	}
	sh, err := h.Sharing.CreateShare(r.Context(), userID(r), mux.Vars(r)["projectID"], req.ExpiresAt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, h.withURLs(sh))
}

func (h *Handler) updateShare(w http.ResponseWriter, r *http.Request) {
	var req shareUpdateRequest
	if !decodeValid(w, r, &req) {
		return
	}
	sh, err := h.Sharing.UpdateShare(r.Context(), userID(r), mux.Vars(r)["shareID"], sharing.UpdateInput{
		Enabled: req.Enabled, ExpiresAt: req.ExpiresAt, ClearExpires: req.ClearExpires,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, h.withURLs(sh))
}

func (h *Handler) shareAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := h.Sharing.GetShareAnalytics(r.Context(), userID(r), mux.Vars(r)["shareID"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, a)
}

// Public routes answer the same bare 404 for every failure.

func (h *Handler) getPublicShare(w http.ResponseWriter, r *http.Request) {
	out := h.Sharing.GetPublicShareByToken(r.Context(), mux.Vars(r)["token"])
	if out == nil {
		notFound(w)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	models.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) logPublicView(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if r.ContentLength != 0 {
		if err := decode(w, r, &req); err != nil {
			notFound(w)
			return
		}
	}
	if !h.Sharing.LogPublicShareAccess(r.Context(), mux.Vars(r)["token"], sharing.AccessInput{
		ViewerLabel: req.ViewerLabel,
		Referrer:    r.Referer(),
	}) {
		notFound(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) previewInvite(w http.ResponseWriter, r *http.Request) {
	p, err := h.Invites.PreviewInvite(r.Context(), mux.Vars(r)["token"])
	if err != nil || p == nil {
		notFound(w)
		return
	}
	models.WriteJSON(w, http.StatusOK, p)
}
