package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
)

// TeamRepository reads teams and memberships
type TeamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *gorm.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// CreateTeam creates a team
func (r *TeamRepository) CreateTeam(ctx context.Context, team *entities.Team) error {
	if err := r.db.WithContext(ctx).Create(team).Error; err != nil {
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

// CreateMembership creates a membership
func (r *TeamRepository) CreateMembership(ctx context.Context, m *entities.TeamMembership) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to create team membership: %w", err)
	}
	return nil
}

// ListMembershipsForUsers returns memberships of the users with the given status
func (r *TeamRepository) ListMembershipsForUsers(ctx context.Context, userIDs []uuid.UUID, status string) ([]*entities.TeamMembership, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var out []*entities.TeamMembership
	err := r.db.WithContext(ctx).
		Where("user_id IN ? AND status = ?", userIDs, status).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships for users: %w", err)
	}
	return out, nil
}

// ListMembershipsForTeams returns memberships of the teams with the given status
func (r *TeamRepository) ListMembershipsForTeams(ctx context.Context, teamIDs []uuid.UUID, status string) ([]*entities.TeamMembership, error) {
	if len(teamIDs) == 0 {
		return nil, nil
	}
	var out []*entities.TeamMembership
	err := r.db.WithContext(ctx).
		Where("team_id IN ? AND status = ?", teamIDs, status).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships for teams: %w", err)
	}
	return out, nil
}

// ListByIDs returns teams by id
func (r *TeamRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*entities.Team, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []*entities.Team
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return out, nil
}
