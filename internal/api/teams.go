package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"vault/internal/models"
	"vault/internal/teams"
)

type createTeamRequest struct {
	Name          string `json:"name" validate:"required,max=255"`
	Description   string `json:"description" validate:"max=4000"`
	CoverImageRef string `json:"cover_image_ref" validate:"max=255"`
}

type updateTeamRequest struct {
	Name          *string `json:"name" validate:"omitempty,max=255"`
	Description   *string `json:"description" validate:"omitempty,max=4000"`
	CoverImageRef *string `json:"cover_image_ref" validate:"omitempty,max=255"`
}

type personalTeamRequest struct {
	Name string `json:"name" validate:"max=255"`
}

type profileRequest struct {
	Name      string `json:"name" validate:"required,max=255"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url,max=512"`
	Email     string `json:"email" validate:"omitempty,email,max=255"`
}

type roleRequest struct {
	Role models.Role `json:"role" validate:"required,oneof=admin member viewer"`
}

func (h *Handler) listMyTeams(w http.ResponseWriter, r *http.Request) {
	out, err := h.Teams.ListMyTeams(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) ensurePersonalTeam(w http.ResponseWriter, r *http.Request) {
	var req personalTeamRequest
	if r.ContentLength != 0 && !decodeValid(w, r, &req) {
		return
	}
	team, err := h.Teams.EnsurePersonalTeam(r.Context(), userID(r), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, team)
}

func (h *Handler) upsertProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decodeValid(w, r, &req) {
		return
	}
	p, err := h.Teams.UpsertProfile(r.Context(), userID(r), teams.ProfileInput{
		Name: req.Name, AvatarURL: req.AvatarURL, Email: req.Email,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) createTeam(w http.ResponseWriter, r *http.Request) {
	var req createTeamRequest
	if !decodeValid(w, r, &req) {
		return
	}
	team, err := h.Teams.CreateTeam(r.Context(), userID(r), teams.CreateInput{
		Name: req.Name, Description: req.Description, CoverImageRef: req.CoverImageRef,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusCreated, team)
}

func (h *Handler) getTeam(w http.ResponseWriter, r *http.Request) {
	team, err := h.Teams.GetTeam(r.Context(), userID(r), mux.Vars(r)["teamID"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, team)
}

func (h *Handler) updateTeam(w http.ResponseWriter, r *http.Request) {
	var req updateTeamRequest
	if !decodeValid(w, r, &req) {
		return
	}
	team, err := h.Teams.UpdateTeam(r.Context(), userID(r), mux.Vars(r)["teamID"], teams.UpdateInput{
		Name: req.Name, Description: req.Description, CoverImageRef: req.CoverImageRef,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, team)
}

func (h *Handler) deleteTeam(w http.ResponseWriter, r *http.Request) {
	if err := h.Teams.DeleteTeam(r.Context(), userID(r), mux.Vars(r)["teamID"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	out, err := h.Teams.ListMembers(r.Context(), userID(r), mux.Vars(r)["teamID"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) updateMemberRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !decodeValid(w, r, &req) {
		return
	}
	v := mux.Vars(r)
	m, err := h.Teams.UpdateMemberRole(r.Context(), userID(r), v["teamID"], v["membershipID"], req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	if err := h.Teams.RemoveMember(r.Context(), userID(r), v["teamID"], v["membershipID"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) leaveTeam(w http.ResponseWriter, r *http.Request) {
	if err := h.Teams.LeaveTeam(r.Context(), userID(r), mux.Vars(r)["teamID"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
