package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"vault/internal/access"
	"vault/internal/models"
	"vault/internal/store"
)

type ListItemsInput struct {
	TeamID string
	Type   models.ItemType
	Page   store.PageRequest
}

func (s *Service) ListItems(ctx context.Context, userID string, in ListItemsInput) (store.Page[models.Item], error) {
	if in.Type != "" && !in.Type.Valid() {
		return store.Page[models.Item]{}, access.Invalid("type", "must be code, prompt or file")
	}
	sc, ok, err := s.readScope(ctx, userID, in.TeamID)
	if err != nil {
		return store.Page[models.Item]{}, err
	}
	if !ok {
		return emptyPage[models.Item](), nil
	}
	return s.store.ListItems(ctx, store.ItemFilter{Scope: sc, Type: in.Type}, in.Page)
}

// GetItem authorizes against the item's own owner.
func (s *Service) GetItem(ctx context.Context, userID, id string) (*models.Item, error) {
	it, err := s.store.GetItem(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	ok, err := s.resolver.CanRead(ctx, access.ItemOwner(it), userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, access.ErrNotFoundOrUnauthorized
	}
	return it, nil
}

type ItemInput struct {
	TeamID      string
	Type        models.ItemType
	Title       string
	Content     string
	Language    string
	Description string
	Tags        []string
	StorageID   string
	FileURL     string
	FileName    string
	FileSize    int64
}

func encodeTags(tags []string) (datatypes.JSON, error) {
	clean := make([]string, 0, len(tags))
	seen := map[string]bool{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		clean = append(clean, t)
	}
	if len(clean) == 0 {
		return nil, nil
	}
	return json.Marshal(clean)
}

func (s *Service) CreateItem(ctx context.Context, userID string, in ItemInput) (*models.Item, error) {
	if !in.Type.Valid() {
		return nil, access.Invalid("type", "must be code, prompt or file")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, access.Invalid("title", "must not be empty")
	}
	if in.Type == models.ItemTypeFile && in.StorageID == "" && in.FileURL == "" {
		return nil, access.Invalid("storage_id", "file items need a storage id or url")
	}
	teamID, err := s.teamFor(ctx, userID, in.TeamID)
	if err != nil {
		return nil, err
	}
	tags, err := encodeTags(in.Tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	now := s.now().UTC()
	it := &models.Item{
		ID:          uuid.NewString(),
		TeamID:      teamID,
		UserID:      userID,
		Type:        in.Type,
		Title:       title,
		Content:     in.Content,
		Language:    in.Language,
		Description: in.Description,
		Tags:        tags,
		StorageID:   in.StorageID,
		FileURL:     in.FileURL,
		FileName:    in.FileName,
		FileSize:    in.FileSize,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateItem(ctx, it); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return it, nil
}

// ItemPatch carries the fields to change; nil leaves a field alone.
type ItemPatch struct {
	Title       *string
	Content     *string
	Language    *string
	Description *string
	Tags        *[]string
	Favorite    *bool
}

func (s *Service) UpdateItem(ctx context.Context, userID, id string, p ItemPatch) (*models.Item, error) {
	it, err := s.store.GetItem(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := s.requireWrite(ctx, access.ItemOwner(it), userID); err != nil {
		return nil, err
	}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return nil, access.Invalid("title", "must not be empty")
		}
		it.Title = title
	}
	if p.Content != nil {
		it.Content = *p.Content
	}
	if p.Language != nil {
		it.Language = *p.Language
	}
	if p.Description != nil {
		it.Description = *p.Description
	}
	if p.Tags != nil {
		if it.Tags, err = encodeTags(*p.Tags); err != nil {
			return nil, fmt.Errorf("encode tags: %w", err)
		}
	}
	if p.Favorite != nil {
		it.Favorite = *p.Favorite
	}
	it.UpdatedAt = s.now().UTC()
	if err := s.store.SaveItem(ctx, it); err != nil {
		return nil, fmt.Errorf("save item: %w", err)
	}
	return it, nil
}

func (s *Service) DeleteItem(ctx context.Context, userID, id string) error {
	it, err := s.store.GetItem(ctx, id)
	if err != nil {
		return notFound(err)
	}
	if err := s.requireWrite(ctx, access.ItemOwner(it), userID); err != nil {
		return err
	}
	if err := s.store.DeleteItem(ctx, id); err != nil {
		return notFound(err)
	}
	return nil
}
