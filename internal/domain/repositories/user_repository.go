package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*entities.User, error)

	// FindByEmails finds all users having one of the given emails
	FindByEmails(ctx context.Context, emails []string) ([]*entities.User, error)
}

// UserSettingsRepository is the per-user key/value settings store
type UserSettingsRepository interface {
	// GetValues returns every stored override of a user
	GetValues(ctx context.Context, userID uuid.UUID) (map[string]string, error)

	// SetValues upserts the given overrides
	SetValues(ctx context.Context, userID uuid.UUID, values map[string]string) error
}

// TeamRepository defines read access to teams and memberships
type TeamRepository interface {
	// ListMembershipsForUsers returns memberships of the users having the given status
	ListMembershipsForUsers(ctx context.Context, userIDs []uuid.UUID, status string) ([]*entities.TeamMembership, error)

	// ListMembershipsForTeams returns memberships of the teams having the given status
	ListMembershipsForTeams(ctx context.Context, teamIDs []uuid.UUID, status string) ([]*entities.TeamMembership, error)

	// ListByIDs returns the teams with the given ids
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*entities.Team, error)
}
