package resources

import (
	"context"
	"fmt"

	"vault/internal/models"
)

type Stats struct {
	Code           int64 `json:"code"`
	Prompt         int64 `json:"prompt"`
	File           int64 `json:"file"`
	Total          int64 `json:"total"`
	ActiveProjects int64 `json:"active_projects"`
}

// GetStats counts what ListItems/ListProjects would show for teamID.
// Non-members get zeroes.
func (s *Service) GetStats(ctx context.Context, userID, teamID string) (*Stats, error) {
	sc, ok, err := s.readScope(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Stats{}, nil
	}
	byType, err := s.store.CountItemsByType(ctx, sc)
	if err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}
	projects, err := s.store.CountActiveProjects(ctx, sc)
	if err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}
	st := &Stats{
		Code:           byType[models.ItemTypeCode],
		Prompt:         byType[models.ItemTypePrompt],
		File:           byType[models.ItemTypeFile],
		ActiveProjects: projects,
	}
	st.Total = st.Code + st.Prompt + st.File
	return st, nil
}
