package repo

import (
	"context"

	"gorm.io/gorm"

	"vault/internal/models"
)

type ShareStore struct{ db *gorm.DB }

func NewShareStore(db *gorm.DB) *ShareStore { return &ShareStore{db: db} }

func (s *ShareStore) CreateShare(ctx context.Context, sh *models.PublicShare) error {
	return mapErr(s.db.WithContext(ctx).Create(sh).Error)
}

func (s *ShareStore) getShare(ctx context.Context, cond string, arg string) (*models.PublicShare, error) {
	var sh models.PublicShare
	if err := s.db.WithContext(ctx).First(&sh, cond, arg).Error; err != nil {
		return nil, mapErr(err)
	}
	return &sh, nil
}

func (s *ShareStore) GetShare(ctx context.Context, id string) (*models.PublicShare, error) {
	return s.getShare(ctx, "id = ?", id)
}

func (s *ShareStore) GetShareByProject(ctx context.Context, projectID string) (*models.PublicShare, error) {
	return s.getShare(ctx, "project_id = ?", projectID)
}

func (s *ShareStore) GetShareByToken(ctx context.Context, token string) (*models.PublicShare, error) {
	return s.getShare(ctx, "token = ?", token)
}

func (s *ShareStore) SaveShare(ctx context.Context, sh *models.PublicShare) error {
	return mapErr(s.db.WithContext(ctx).Save(sh).Error)
}

func (s *ShareStore) AppendAccessLog(ctx context.Context, l *models.ShareAccessLog) error {
	return s.db.WithContext(ctx).Create(l).Error
}

func (s *ShareStore) CountAccessLogs(ctx context.Context, shareID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.ShareAccessLog{}).Where("share_id = ?", shareID).Count(&n).Error
	return n, err
}

func (s *ShareStore) RecentAccessLogs(ctx context.Context, shareID string, limit int) ([]models.ShareAccessLog, error) {
	out := []models.ShareAccessLog{}
	q := s.db.WithContext(ctx).Where("share_id = ?", shareID).Order("accessed_at desc, id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}
