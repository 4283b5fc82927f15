package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"vault/internal/models"
	"vault/internal/store"
)

type InviteStore struct{ db *gorm.DB }

func NewInviteStore(db *gorm.DB) *InviteStore { return &InviteStore{db: db} }

func (s *InviteStore) CreateInvite(ctx context.Context, inv *models.Invite) error {
	return mapErr(s.db.WithContext(ctx).Create(inv).Error)
}

func (s *InviteStore) GetInvite(ctx context.Context, id string) (*models.Invite, error) {
	var inv models.Invite
	if err := s.db.WithContext(ctx).First(&inv, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &inv, nil
}

func (s *InviteStore) GetInviteByTokenHash(ctx context.Context, hash string) (*models.Invite, error) {
	var inv models.Invite
	if err := s.db.WithContext(ctx).First(&inv, "token_hash = ?", hash).Error; err != nil {
		return nil, mapErr(err)
	}
	return &inv, nil
}

func (s *InviteStore) GetInviteByCode(ctx context.Context, code string) (*models.Invite, error) {
	var inv models.Invite
	err := s.db.WithContext(ctx).Where("code = ? AND status = ?", code, models.InviteStatusPending).
		Order("created_at desc").First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = s.db.WithContext(ctx).Where("code = ?", code).Order("created_at desc").First(&inv).Error
	}
	if err != nil {
		return nil, mapErr(err)
	}
	return &inv, nil
}

func (s *InviteStore) ListTeamInvites(ctx context.Context, teamID string, status models.InviteStatus) ([]models.Invite, error) {
	out := []models.Invite{}
	q := s.db.WithContext(ctx).Where("team_id = ?", teamID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("created_at desc").Find(&out).Error
	return out, err
}

// TransitionInvite is a conditional UPDATE on the current status, so only one
// of several concurrent redemptions wins.
func (s *InviteStore) TransitionInvite(ctx context.Context, id string, from models.InviteStatus, to store.InviteTransition) (bool, error) {
	updates := map[string]any{
		"status":     to.Status,
		"updated_at": to.At,
	}
	switch to.Status {
	case models.InviteStatusAccepted:
		updates["accepted_by"] = to.AcceptedBy
		updates["accepted_at"] = to.At
	case models.InviteStatusPending:
		updates["accepted_by"] = ""
		updates["accepted_at"] = nil
	}
	res := s.db.WithContext(ctx).Model(&models.Invite{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetInvite(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}
