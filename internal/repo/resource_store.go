package repo

import (
	"context"

	"gorm.io/gorm"

	"vault/internal/models"
	"vault/internal/store"
)

type ResourceStore struct{ db *gorm.DB }

func NewResourceStore(db *gorm.DB) *ResourceStore { return &ResourceStore{db: db} }

func itemPos(it models.Item) store.Position {
	return store.Position{CreatedAt: it.CreatedAt, ID: it.ID}
}

func projectPos(p models.Project) store.Position {
	return store.Position{CreatedAt: p.CreatedAt, ID: p.ID}
}

// ---------- items ----------

func (s *ResourceStore) CreateItem(ctx context.Context, it *models.Item) error {
	return mapErr(s.db.WithContext(ctx).Create(it).Error)
}

func (s *ResourceStore) GetItem(ctx context.Context, id string) (*models.Item, error) {
	var it models.Item
	if err := s.db.WithContext(ctx).First(&it, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &it, nil
}

func (s *ResourceStore) SaveItem(ctx context.Context, it *models.Item) error {
	return mapErr(s.db.WithContext(ctx).Save(it).Error)
}

func (s *ResourceStore) DeleteItem(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Item{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *ResourceStore) ListItems(ctx context.Context, f store.ItemFilter, p store.PageRequest) (store.Page[models.Item], error) {
	q := scoped(s.db.WithContext(ctx).Model(&models.Item{}), f.Scope)
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	return page(q, p, itemPos)
}

func (s *ResourceStore) CountItemsByType(ctx context.Context, sc store.Scope) (map[models.ItemType]int64, error) {
	var rows []struct {
		Type models.ItemType
		N    int64
	}
	q := scoped(s.db.WithContext(ctx).Model(&models.Item{}), sc)
	if err := q.Select("type, COUNT(*) AS n").Group("type").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[models.ItemType]int64, len(rows))
	for _, r := range rows {
		out[r.Type] = r.N
	}
	return out, nil
}

// AssignLegacyItems is a single UPDATE; rows created after it starts are not
// picked up.
func (s *ResourceStore) AssignLegacyItems(ctx context.Context, userID, teamID string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Item{}).
		Where("team_id IS NULL AND user_id = ?", userID).
		Update("team_id", teamID)
	return res.RowsAffected, res.Error
}

// ---------- projects ----------

func (s *ResourceStore) CreateProject(ctx context.Context, p *models.Project) error {
	return mapErr(s.db.WithContext(ctx).Create(p).Error)
}

func (s *ResourceStore) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (s *ResourceStore) SaveProject(ctx context.Context, p *models.Project) error {
	return mapErr(s.db.WithContext(ctx).Save(p).Error)
}

func (s *ResourceStore) DeleteProject(ctx context.Context, id string) error {
	return mapErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Project{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return gorm.ErrRecordNotFound
		}
		return deleteProjects(tx, []string{id})
	}))
}

// deleteProjects removes projects with their updates, shares and access logs.
func deleteProjects(tx *gorm.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	var shareIDs []string
	if err := tx.Model(&models.PublicShare{}).Where("project_id IN ?", ids).Pluck("id", &shareIDs).Error; err != nil {
		return err
	}
	if len(shareIDs) > 0 {
		if err := tx.Delete(&models.ShareAccessLog{}, "share_id IN ?", shareIDs).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.PublicShare{}, "id IN ?", shareIDs).Error; err != nil {
			return err
		}
	}
	if err := tx.Delete(&models.ProjectUpdate{}, "project_id IN ?", ids).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Project{}, "id IN ?", ids).Error
}

func (s *ResourceStore) ListProjects(ctx context.Context, f store.ProjectFilter, p store.PageRequest) (store.Page[models.Project], error) {
	q := scoped(s.db.WithContext(ctx).Model(&models.Project{}), f.Scope)
	if !f.IncludeArchived {
		q = q.Where("archived = ?", false)
	}
	return page(q, p, projectPos)
}

func (s *ResourceStore) CountActiveProjects(ctx context.Context, sc store.Scope) (int64, error) {
	var n int64
	err := scoped(s.db.WithContext(ctx).Model(&models.Project{}), sc).Where("archived = ?", false).Count(&n).Error
	return n, err
}

func (s *ResourceStore) AssignLegacyProjects(ctx context.Context, userID, teamID string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Project{}).
		Where("team_id IS NULL AND user_id = ?", userID).
		Update("team_id", teamID)
	return res.RowsAffected, res.Error
}

func (s *ResourceStore) AddProjectUpdate(ctx context.Context, u *models.ProjectUpdate) error {
	return mapErr(s.db.WithContext(ctx).Create(u).Error)
}

func (s *ResourceStore) ListProjectUpdates(ctx context.Context, projectID string) ([]models.ProjectUpdate, error) {
	out := []models.ProjectUpdate{}
	err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at desc, id desc").Find(&out).Error
	return out, err
}
