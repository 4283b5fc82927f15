// Package api exposes the vault services as a JSON API on gorilla/mux.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"vault/internal/access"
	"vault/internal/invites"
	"vault/internal/logs"
	"vault/internal/middleware"
	"vault/internal/models"
	"vault/internal/notify"
	"vault/internal/resources"
	"vault/internal/sharing"
	"vault/internal/store"
	"vault/internal/teams"
)

// maxBody caps JSON request bodies.
const maxBody = 1 << 20

type Handler struct {
	Teams         *teams.Service
	Invites       *invites.Service
	Resources     *resources.Service
	Sharing       *sharing.Service
	Notifications *notify.Service

	// PublicOrigin prefixes share URLs, e.g. https://vault.example.com.
	PublicOrigin string
}

// RegisterRoutes mounts the public routes and, behind auth, /api/v1.
func RegisterRoutes(r *mux.Router, h *Handler, auth func(http.Handler) http.Handler) {
	pub := r.PathPrefix("/public").Subrouter()
	pub.HandleFunc("/shares/{token}", h.getPublicShare).Methods(http.MethodGet)
	pub.HandleFunc("/shares/{token}/views", h.logPublicView).Methods(http.MethodPost)
	pub.HandleFunc("/invites/{token}", h.previewInvite).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.Use(auth)

	v1.HandleFunc("/me/teams", h.listMyTeams).Methods(http.MethodGet)
	v1.HandleFunc("/me/personal-team", h.ensurePersonalTeam).Methods(http.MethodPost)
	v1.HandleFunc("/me/profile", h.upsertProfile).Methods(http.MethodPut)

	v1.HandleFunc("/teams", h.createTeam).Methods(http.MethodPost)
	v1.HandleFunc("/teams/{teamID}", h.getTeam).Methods(http.MethodGet)
	v1.HandleFunc("/teams/{teamID}", h.updateTeam).Methods(http.MethodPatch)
	v1.HandleFunc("/teams/{teamID}", h.deleteTeam).Methods(http.MethodDelete)
	v1.HandleFunc("/teams/{teamID}/members", h.listMembers).Methods(http.MethodGet)
	v1.HandleFunc("/teams/{teamID}/members/{membershipID}", h.updateMemberRole).Methods(http.MethodPatch)
	v1.HandleFunc("/teams/{teamID}/members/{membershipID}", h.removeMember).Methods(http.MethodDelete)
	v1.HandleFunc("/teams/{teamID}/leave", h.leaveTeam).Methods(http.MethodPost)
	v1.HandleFunc("/teams/{teamID}/migrate-legacy", h.migrateLegacy).Methods(http.MethodPost)

	v1.HandleFunc("/teams/{teamID}/invite-code", h.inviteCode).Methods(http.MethodGet)
	v1.HandleFunc("/teams/{teamID}/invites", h.listInvites).Methods(http.MethodGet)
	v1.HandleFunc("/teams/{teamID}/invites", h.createInvite).Methods(http.MethodPost)
	v1.HandleFunc("/invites/accept", h.acceptInvite).Methods(http.MethodPost)
	v1.HandleFunc("/invites/{inviteID}/revoke", h.revokeInvite).Methods(http.MethodPost)

	v1.HandleFunc("/stats", h.stats).Methods(http.MethodGet)
	v1.HandleFunc("/items", h.listItems).Methods(http.MethodGet)
	v1.HandleFunc("/items", h.createItem).Methods(http.MethodPost)
	v1.HandleFunc("/items/{itemID}", h.getItem).Methods(http.MethodGet)
	v1.HandleFunc("/items/{itemID}", h.updateItem).Methods(http.MethodPatch)
	v1.HandleFunc("/items/{itemID}", h.deleteItem).Methods(http.MethodDelete)

	v1.HandleFunc("/projects", h.listProjects).Methods(http.MethodGet)
	v1.HandleFunc("/projects", h.createProject).Methods(http.MethodPost)
	v1.HandleFunc("/projects/{projectID}", h.getProject).Methods(http.MethodGet)
	v1.HandleFunc("/projects/{projectID}", h.updateProject).Methods(http.MethodPatch)
	v1.HandleFunc("/projects/{projectID}", h.deleteProject).Methods(http.MethodDelete)
	v1.HandleFunc("/projects/{projectID}/updates", h.listProjectUpdates).Methods(http.MethodGet)
	v1.HandleFunc("/projects/{projectID}/updates", h.addProjectUpdate).Methods(http.MethodPost)
	v1.HandleFunc("/projects/{projectID}/share", h.getShare).Methods(http.MethodGet)
	v1.HandleFunc("/projects/{projectID}/share", h.createShare).Methods(http.MethodPost)
	v1.HandleFunc("/shares/{shareID}", h.updateShare).Methods(http.MethodPatch)
	v1.HandleFunc("/shares/{shareID}/analytics", h.shareAnalytics).Methods(http.MethodGet)

	v1.HandleFunc("/notifications", h.listNotifications).Methods(http.MethodGet)
	v1.HandleFunc("/notifications/unread-count", h.unreadCount).Methods(http.MethodGet)
	v1.HandleFunc("/notifications/read-all", h.markAllRead).Methods(http.MethodPost)
	v1.HandleFunc("/notifications/{id}/read", h.markRead).Methods(http.MethodPost)
}

func userID(r *http.Request) string { return middleware.UserID(r.Context()) }

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return access.Invalid("body", err.Error())
	}
	return validateStruct(dst)
}

// decodeValid decodes the body and writes the problem itself on failure.
func decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decode(w, r, dst); err != nil {
		writeError(w, r, err)
		return false
	}
	return true
}

func pageRequest(r *http.Request) (store.PageRequest, error) {
	q := r.URL.Query()
	p := store.PageRequest{Cursor: q.Get("cursor")}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return p, access.Invalid("limit", "must be a non-negative integer")
		}
		p.Size = n
	}
	return p, nil
}

func boolQuery(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return v
}

// writeError maps the service error taxonomy onto problem responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *access.ValidationError
	switch {
	case errors.As(err, &ve):
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", ve.Error(), map[string]any{"field": ve.Field})
	case errors.Is(err, store.ErrBadCursor):
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", err.Error(), map[string]any{"field": "cursor"})
	case errors.Is(err, access.ErrUnauthorized):
		models.WriteProblem(w, http.StatusForbidden, "Forbidden", err.Error(), nil)
	case errors.Is(err, access.ErrNotFoundOrUnauthorized):
		models.WriteProblem(w, http.StatusNotFound, "Not Found", err.Error(), nil)
	case errors.Is(err, access.ErrInviteNotValid):
		models.WriteProblem(w, http.StatusGone, "Gone", err.Error(), nil)
	default:
		reqid := middleware.GetRequestID(r)
		logs.Logger.WithField("reqid", reqid).Errorf("%s %s: %v", r.Method, r.URL.Path, err)
		logs.Capture(err, map[string]string{"reqid": reqid, "route": r.URL.Path})
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error",
			"unexpected server error (see logs by reqid)", map[string]any{"reqid": reqid})
	}
}

func notFound(w http.ResponseWriter) {
	models.WriteProblem(w, http.StatusNotFound, "Not Found", "", nil)
}

// notFoundAs maps a storage miss onto the service-level not-found.
func notFoundAs(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return access.ErrNotFoundOrUnauthorized
	}
	return err
}
