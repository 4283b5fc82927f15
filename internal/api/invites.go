package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"vault/internal/invites"
	"vault/internal/models"
)

type inviteRequest struct {
	Email     string      `json:"email" validate:"required,max=255"`
	Role      models.Role `json:"role" validate:"omitempty,oneof=admin member viewer"`
	ExpiresAt *time.Time  `json:"expires_at"`
}

type acceptRequest struct {
	Token string `json:"token" validate:"required_without=Code"`
	Code  string `json:"code" validate:"required_without=Token,omitempty,max=16"`
}

func (h *Handler) inviteCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.Invites.GetOrCreateInviteCode(r.Context(), userID(r), mux.Vars(r)["teamID"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]string{"invite_code": code})
}

func (h *Handler) listInvites(w http.ResponseWriter, r *http.Request) {
	out, err := h.Invites.ListPendingInvites(r.Context(), userID(r), mux.Vars(r)["teamID"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) createInvite(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if !decodeValid(w, r, &req) {
		return
	}
	issued, err := h.Invites.InviteMember(r.Context(), userID(r), mux.Vars(r)["teamID"], invites.InviteInput{
		Email: req.Email, Role: req.Role, ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusCreated, issued)
}

// acceptInvite redeems a token when one is given, a code otherwise.
func (h *Handler) acceptInvite(w http.ResponseWriter, r *http.Request) {
	var req acceptRequest
	if !decodeValid(w, r, &req) {
		return
	}
	var (
		joined *invites.Joined
		err    error
	)
	if req.Token != "" {
		joined, err = h.Invites.AcceptInviteByToken(r.Context(), userID(r), req.Token)
	} else {
		joined, err = h.Invites.AcceptInviteByCode(r.Context(), userID(r), req.Code)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, joined)
}

func (h *Handler) revokeInvite(w http.ResponseWriter, r *http.Request) {
	if err := h.Invites.RevokeInvite(r.Context(), userID(r), mux.Vars(r)["inviteID"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
