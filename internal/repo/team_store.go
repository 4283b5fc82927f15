package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vault/internal/models"
	"vault/internal/store"
)

type TeamStore struct{ db *gorm.DB }

func NewTeamStore(db *gorm.DB) *TeamStore { return &TeamStore{db: db} }

func (s *TeamStore) CreateTeam(ctx context.Context, team *models.Team, creator *models.Membership) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return err
		}
		if creator == nil {
			return nil
		}
		return tx.Create(creator).Error
	})
	return mapErr(err)
}

func (s *TeamStore) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	var t models.Team
	if err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (s *TeamStore) GetPersonalTeam(ctx context.Context, userID string) (*models.Team, error) {
	var t models.Team
	if err := s.db.WithContext(ctx).First(&t, "personal_for = ?", userID).Error; err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (s *TeamStore) GetTeamByInviteCode(ctx context.Context, code string) (*models.Team, error) {
	var t models.Team
	if err := s.db.WithContext(ctx).First(&t, "invite_code = ?", code).Error; err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (s *TeamStore) ListTeams(ctx context.Context, ids []string) ([]models.Team, error) {
	out := []models.Team{}
	if len(ids) == 0 {
		return out, nil
	}
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("created_at asc").Find(&out).Error
	return out, err
}

func (s *TeamStore) SaveTeam(ctx context.Context, team *models.Team) error {
	return mapErr(s.db.WithContext(ctx).Save(team).Error)
}

// DeleteTeam cascades inside one transaction.
func (s *TeamStore) DeleteTeam(ctx context.Context, id string) error {
	return mapErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Team{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var projectIDs []string
		if err := tx.Model(&models.Project{}).Where("team_id = ?", id).Pluck("id", &projectIDs).Error; err != nil {
			return err
		}
		if err := deleteProjects(tx, projectIDs); err != nil {
			return err
		}
		if err := tx.Delete(&models.Item{}, "team_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Invite{}, "team_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Membership{}, "team_id = ?", id).Error
	}))
}

func (s *TeamStore) GetMembership(ctx context.Context, teamID, userID string) (*models.Membership, error) {
	var m models.Membership
	err := s.db.WithContext(ctx).First(&m, "team_id = ? AND user_id = ?", teamID, userID).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}

func (s *TeamStore) GetMembershipByID(ctx context.Context, id string) (*models.Membership, error) {
	var m models.Membership
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}

// AddMembership relies on the (team_id, user_id) unique index.
func (s *TeamStore) AddMembership(ctx context.Context, m *models.Membership) (bool, error) {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(m)
	if res.Error != nil {
		return false, mapErr(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *TeamStore) ListTeamMembers(ctx context.Context, teamID string) ([]models.Membership, error) {
	out := []models.Membership{}
	err := s.db.WithContext(ctx).Where("team_id = ?", teamID).Order("joined_at asc, id asc").Find(&out).Error
	return out, err
}

func (s *TeamStore) ListUserMemberships(ctx context.Context, userID string) ([]models.Membership, error) {
	out := []models.Membership{}
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("joined_at asc, id asc").Find(&out).Error
	return out, err
}

func (s *TeamStore) SetMembershipRole(ctx context.Context, id string, role models.Role) error {
	res := s.db.WithContext(ctx).Model(&models.Membership{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetMembershipByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *TeamStore) DeleteMembership(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Membership{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

type ProfileStore struct{ db *gorm.DB }

func NewProfileStore(db *gorm.DB) *ProfileStore { return &ProfileStore{db: db} }

func (s *ProfileStore) UpsertProfile(ctx context.Context, p *models.Profile) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(p).Error
}

func (s *ProfileStore) GetProfiles(ctx context.Context, userIDs []string) ([]models.Profile, error) {
	out := []models.Profile{}
	if len(userIDs) == 0 {
		return out, nil
	}
	err := s.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&out).Error
	return out, err
}
