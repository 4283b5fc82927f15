package resources

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"vault/internal/access"
	"vault/internal/models"
	"vault/internal/store"
)

type ListProjectsInput struct {
	TeamID          string
	IncludeArchived bool
	Page            store.PageRequest
}

func (s *Service) ListProjects(ctx context.Context, userID string, in ListProjectsInput) (store.Page[models.Project], error) {
	sc, ok, err := s.readScope(ctx, userID, in.TeamID)
	if err != nil {
		return store.Page[models.Project]{}, err
	}
	if !ok {
		return emptyPage[models.Project](), nil
	}
	return s.store.ListProjects(ctx, store.ProjectFilter{Scope: sc, IncludeArchived: in.IncludeArchived}, in.Page)
}

func (s *Service) GetProject(ctx context.Context, userID, id string) (*models.Project, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	ok, err := s.resolver.CanRead(ctx, access.ProjectOwner(p), userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, access.ErrNotFoundOrUnauthorized
	}
	return p, nil
}

type ProjectInput struct {
	TeamID        string
	Name          string
	Description   string
	Columns       datatypes.JSON
	CoverImageRef string
}

func (s *Service) CreateProject(ctx context.Context, userID string, in ProjectInput) (*models.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, access.Invalid("name", "must not be empty")
	}
	teamID, err := s.teamFor(ctx, userID, in.TeamID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	p := &models.Project{
		ID:            uuid.NewString(),
		TeamID:        teamID,
		UserID:        userID,
		Name:          name,
		Description:   in.Description,
		Columns:       in.Columns,
		CoverImageRef: in.CoverImageRef,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

type ProjectPatch struct {
	Name          *string
	Description   *string
	Columns       *datatypes.JSON
	Archived      *bool
	CoverImageRef *string
}

func (s *Service) UpdateProject(ctx context.Context, userID, id string, in ProjectPatch) (*models.Project, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := s.requireWrite(ctx, access.ProjectOwner(p), userID); err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, access.Invalid("name", "must not be empty")
		}
		p.Name = name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Columns != nil {
		p.Columns = *in.Columns
	}
	if in.Archived != nil {
		p.Archived = *in.Archived
	}
	if in.CoverImageRef != nil {
		p.CoverImageRef = *in.CoverImageRef
	}
	p.UpdatedAt = s.now().UTC()
	if err := s.store.SaveProject(ctx, p); err != nil {
		return nil, fmt.Errorf("save project: %w", err)
	}
	return p, nil
}

// DeleteProject also drops the project's updates, share and access log.
func (s *Service) DeleteProject(ctx context.Context, userID, id string) error {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return notFound(err)
	}
	if err := s.requireWrite(ctx, access.ProjectOwner(p), userID); err != nil {
		return err
	}
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return notFound(err)
	}
	return nil
}

func (s *Service) AddProjectUpdate(ctx context.Context, userID, projectID, content string) (*models.ProjectUpdate, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, access.Invalid("content", "must not be empty")
	}
	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, notFound(err)
	}
	if err := s.requireWrite(ctx, access.ProjectOwner(p), userID); err != nil {
		return nil, err
	}
	u := &models.ProjectUpdate{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		AuthorID:  userID,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.AddProjectUpdate(ctx, u); err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (s *Service) ListProjectUpdates(ctx context.Context, userID, projectID string) ([]models.ProjectUpdate, error) {
	if _, err := s.GetProject(ctx, userID, projectID); err != nil {
		return nil, err
	}
	return s.store.ListProjectUpdates(ctx, projectID)
}
