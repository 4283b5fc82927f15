package resources

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"vault/internal/logs"
)

// MigrateLegacyItemsToTeam moves the team creator's legacy personal items
// into teamID. The update is one bulk statement; items created while it
// runs may be missed. Personal targets are a no-op.
func (s *Service) MigrateLegacyItemsToTeam(ctx context.Context, userID, teamID string) (int64, error) {
	return s.migrate(ctx, userID, teamID, "items", s.store.AssignLegacyItems)
}

func (s *Service) MigrateLegacyProjectsToTeam(ctx context.Context, userID, teamID string) (int64, error) {
	return s.migrate(ctx, userID, teamID, "projects", s.store.AssignLegacyProjects)
}

func (s *Service) migrate(ctx context.Context, userID, teamID, kind string,
	assign func(ctx context.Context, userID, teamID string) (int64, error)) (int64, error) {
	if err := s.resolver.RequireAdmin(ctx, teamID, userID); err != nil {
		return 0, err
	}
	team, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return 0, fmt.Errorf("get team: %w", err)
	}
	if team.IsPersonal {
		return 0, nil
	}
	n, err := assign(ctx, team.CreatedBy, teamID)
	if err != nil {
		return 0, fmt.Errorf("migrate %s: %w", kind, err)
	}
	logs.Logger.WithFields(logrus.Fields{
		"team_id": teamID, "owner": team.CreatedBy, "count": n,
	}).Infof("legacy %s migrated", kind)
	return n, nil
}
