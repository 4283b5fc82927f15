package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"gorm.io/datatypes"

	"vault/internal/models"
	"vault/internal/resources"
)

type itemRequest struct {
	TeamID      string          `json:"team_id" validate:"max=36"`
	Type        models.ItemType `json:"type" validate:"required,oneof=code prompt file"`
	Title       string          `json:"title" validate:"required,max=255"`
	Content     string          `json:"content"`
	Language    string          `json:"language" validate:"max=64"`
	Description string          `json:"description"`
	Tags        []string        `json:"tags" validate:"max=50,dive,max=64"`
	StorageID   string          `json:"storage_id" validate:"max=255"`
	FileURL     string          `json:"file_url" validate:"omitempty,url,max=1024"`
	FileName    string          `json:"file_name" validate:"max=255"`
	FileSize    int64           `json:"file_size" validate:"gte=0"`
}

type itemPatchRequest struct {
	Title       *string   `json:"title" validate:"omitempty,max=255"`
	Content     *string   `json:"content"`
	Language    *string   `json:"language" validate:"omitempty,max=64"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags" validate:"omitempty,max=50,dive,max=64"`
	Favorite    *bool     `json:"favorite"`
}

type projectRequest struct {
	TeamID        string          `json:"team_id" validate:"max=36"`
	Name          string          `json:"name" validate:"required,max=255"`
	Description   string          `json:"description"`
	Columns       json.RawMessage `json:"columns"`
	CoverImageRef string          `json:"cover_image_ref" validate:"max=255"`
}

type projectPatchRequest struct {
	Name          *string         `json:"name" validate:"omitempty,max=255"`
	Description   *string         `json:"description"`
	Columns       json.RawMessage `json:"columns"`
	Archived      *bool           `json:"archived"`
	CoverImageRef *string         `json:"cover_image_ref" validate:"omitempty,max=255"`
}

type updateRequest struct {
	Content string `json:"content" validate:"required,max=20000"`
}

type migrateRequest struct {
	Projects bool `json:"projects"`
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Resources.GetStats(r.Context(), userID(r), r.URL.Query().Get("team_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, st)
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	p, err := pageRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	out, err := h.Resources.ListItems(r.Context(), userID(r), resources.ListItemsInput{
		TeamID: q.Get("team_id"),
		Type:   models.ItemType(q.Get("type")),
		Page:   p,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !decodeValid(w, r, &req) {
		return
	}
	it, err := h.Resources.CreateItem(r.Context(), userID(r), resources.ItemInput{
		TeamID:      req.TeamID,
		Type:        req.Type,
		Title:       req.Title,
		Content:     req.Content,
		Language:    req.Language,
		Description: req.Description,
		Tags:        req.Tags,
		StorageID:   req.StorageID,
		FileURL:     req.FileURL,
		FileName:    req.FileName,
		FileSize:    req.FileSize,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusCreated, it)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	it, err := h.Resources.GetItem(r.Context(), userID(r), mux.Vars(r)["itemID"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, it)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req itemPatchRequest
	if !decodeValid(w, r, &req) {
		return
	}
	it, err := h.Resources.UpdateItem(r.Context(), userID(r), mux.Vars(r)["itemID"], resources.ItemPatch{
		Title:       req.Title,
		Content:     req.Content,
		Language:    req.Language,
		Description: req.Description,
		Tags:        req.Tags,
		Favorite:    req.Favorite,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, it)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.Resources.DeleteItem(r.Context(), userID(r), mux.Vars(r)["itemID"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listProjects(w http.ResponseWriter, r *http.Request) {
	p, err := pageRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Resources.ListProjects(r.Context(), userID(r), resources.ListProjectsInput{
		TeamID:          r.URL.Query().Get("team_id"),
		IncludeArchived: boolQuery(r, "archived"),
		Page:            p,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) createProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !decodeValid(w, r, &req) {
		return
	}
	p, err := h.Resources.CreateProject(r.Context(), userID(r), resources.ProjectInput{
		TeamID:        req.TeamID,
		Name:          req.Name,
		Description:   req.Description,
		Columns:       datatypes.JSON(req.Columns),
		CoverImageRef: req.CoverImageRef,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) getProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.Resources.GetProject(r.Context(), userID(r), mux.Vars(r)["projectID"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) updateProject(w http.ResponseWriter, r *http.Request) {
	var req projectPatchRequest
	if !decodeValid(w, r, &req) {
		return
	}
	patch := resources.ProjectPatch{
		Name:          req.Name,
		Description:   req.Description,
		Archived:      req.Archived,
		CoverImageRef: req.CoverImageRef,
	}
	if req.Columns != nil {
		cols := datatypes.JSON(req.Columns)
		patch.Columns = &cols
	}
	p, err := h.Resources.UpdateProject(r.Context(), userID(r), mux.Vars(r)["projectID"], patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) deleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.Resources.DeleteProject(r.Context(), userID(r), mux.Vars(r)["projectID"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listProjectUpdates(w http.ResponseWriter, r *http.Request) {
	out, err := h.Resources.ListProjectUpdates(r.Context(), userID(r), mux.Vars(r)["projectID"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) addProjectUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if !decodeValid(w, r, &req) {
		return
	}
	u, err := h.Resources.AddProjectUpdate(r.Context(), userID(r), mux.Vars(r)["projectID"], req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusCreated, u)
}

// migrateLegacy moves legacy items, and projects when asked.
func (h *Handler) migrateLegacy(w http.ResponseWriter, r *http.Request) {
	var req migrateRequest
	if r.ContentLength != 0 && !decodeValid(w, r, &req) {
		return
	}
	teamID := mux.Vars(r)["teamID"]
	items, err := h.Resources.MigrateLegacyItemsToTeam(r.Context(), userID(r), teamID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := map[string]int64{"items": items}
	if req.Projects {
		n, err := h.Resources.MigrateLegacyProjectsToTeam(r.Context(), userID(r), teamID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		out["projects"] = n
	}
	models.WriteJSON(w, http.StatusOK, out)
}
