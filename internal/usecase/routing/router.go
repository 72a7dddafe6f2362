package routing

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/domain/repositories"
)

// Routing is the set of accounts that receive a meeting's output
type Routing struct {
	RecipientIDs []string
	TeamIDs      []string
	Mode         entities.RoutingMode
}

// Direct reports whether no team matched and the caller should fall back to
// single-user sync.
func (r Routing) Direct() bool {
	return r.Mode == entities.RoutingModeDirect
}

// NoRecipients reports whether teams matched but none yields an active recipient
func (r Routing) NoRecipients() bool {
	return r.Mode == entities.RoutingModeTeam && len(r.RecipientIDs) == 0
}

// Router resolves recipients through team membership
type Router struct {
	users  repositories.UserRepository
	teams  repositories.TeamRepository
	logger *zap.Logger
}

// NewRouter creates a new recipient router
func NewRouter(users repositories.UserRepository, teams repositories.TeamRepository, logger *zap.Logger) *Router {
	return &Router{users: users, teams: teams, logger: logger}
}

// Route maps participant emails and an optional scoped lead id to recipients.
func (r *Router) Route(ctx context.Context, emails []string, leadID string) (Routing, error) {
	lead, hasLead := parseID(leadID)

	participantIDs, err := r.participantUserIDs(ctx, emails)
	if err != nil {
		return Routing{}, err
	}

	var teams []*entities.Team
	if len(participantIDs) > 0 {
		teams, err = r.teamsMatchingParticipants(ctx, participantIDs, lead, hasLead)
		if err != nil {
			return Routing{}, err
		}
	}
	if len(teams) == 0 && hasLead {
		// scoped webhooks still reach the lead's teams when participants are external-only
		teams, err = r.teamsLedBy(ctx, lead)
		if err != nil {
			return Routing{}, err
		}
	}

	recipients, teamIDs, err := r.activeRecipients(ctx, teams)
	if err != nil {
		return Routing{}, err
	}
	if len(recipients) == 0 && len(teamIDs) == 0 && hasLead {
		// only inactive teams matched; retry with every team the lead runs
		led, err := r.teamsLedBy(ctx, lead)
		if err != nil {
			return Routing{}, err
		}
		recipients, teamIDs, err = r.activeRecipients(ctx, led)
		if err != nil {
			return Routing{}, err
		}
	}

	if len(teamIDs) == 0 {
		return Routing{Mode: entities.RoutingModeDirect}, nil
	}
	if r.logger != nil {
		r.logger.Info("routed meeting to teams",
			zap.Strings("team_ids", teamIDs),
			zap.Int("recipients", len(recipients)),
		)
	}
	return Routing{RecipientIDs: recipients, TeamIDs: teamIDs, Mode: entities.RoutingModeTeam}, nil
}

func (r *Router) participantUserIDs(ctx context.Context, emails []string) ([]uuid.UUID, error) {
	normalized := make([]string, 0, len(emails))
	for _, e := range emails {
		if email := entities.NormalizeEmail(e); email != "" {
			normalized = append(normalized, email)
		}
	}
	if len(normalized) == 0 {
		return nil, nil
	}
	users, err := r.users.FindByEmails(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to find participant users: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

func (r *Router) teamsMatchingParticipants(ctx context.Context, userIDs []uuid.UUID, lead uuid.UUID, hasLead bool) ([]*entities.Team, error) {
	memberships, err := r.teams.ListMembershipsForUsers(ctx, userIDs, entities.MembershipAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to list participant memberships: %w", err)
	}
	matched := map[uuid.UUID]bool{}
	for _, m := range memberships {
		matched[m.TeamID] = true
	}

	if hasLead {
		ledIDs, err := r.ledTeamIDs(ctx, lead)
		if err != nil {
			return nil, err
		}
		led := map[uuid.UUID]bool{}
		for _, id := range ledIDs {
			led[id] = true
		}
		for id := range matched {
			if !led[id] {
				delete(matched, id)
			}
		}
	}
	if len(matched) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(matched))
	for id := range matched {
		ids = append(ids, id)
	}
	return r.listTeams(ctx, ids)
}

func (r *Router) teamsLedBy(ctx context.Context, lead uuid.UUID) ([]*entities.Team, error) {
	ids, err := r.ledTeamIDs(ctx, lead)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	return r.listTeams(ctx, ids)
}

func (r *Router) ledTeamIDs(ctx context.Context, lead uuid.UUID) ([]uuid.UUID, error) {
	memberships, err := r.teams.ListMembershipsForUsers(ctx, []uuid.UUID{lead}, entities.MembershipAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to list lead memberships: %w", err)
	}
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, m := range memberships {
		if m.UserID != lead || !strings.EqualFold(strings.TrimSpace(m.Role), entities.TeamRoleLead) || seen[m.TeamID] {
			continue
		}
		seen[m.TeamID] = true
		ids = append(ids, m.TeamID)
	}
	return ids, nil
}

func (r *Router) listTeams(ctx context.Context, ids []uuid.UUID) ([]*entities.Team, error) {
	teams, err := r.teams.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}
	sort.SliceStable(teams, func(i, j int) bool {
		return strings.ToLower(teams[i].Name) < strings.ToLower(teams[j].Name)
	})
	return teams, nil
}

// activeRecipients returns, over active teams, the accepted active members that
// are also configured recipients. Active teams count as matched even without recipients.
func (r *Router) activeRecipients(ctx context.Context, teams []*entities.Team) ([]string, []string, error) {
	var active []*entities.Team
	for _, t := range teams {
		if t.IsActive {
			active = append(active, t)
		}
	}
	if len(active) == 0 {
		return nil, nil, nil
	}

	ids := make([]uuid.UUID, 0, len(active))
	for _, t := range active {
		ids = append(ids, t.ID)
	}
	memberships, err := r.teams.ListMembershipsForTeams(ctx, ids, entities.MembershipAccepted)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list team memberships: %w", err)
	}
	members := map[uuid.UUID]map[string]bool{}
	for _, m := range memberships {
		if !m.IsActive {
			continue
		}
		if members[m.TeamID] == nil {
			members[m.TeamID] = map[string]bool{}
		}
		members[m.TeamID][m.UserID.String()] = true
	}

	recipients := map[string]bool{}
	teamIDs := make([]string, 0, len(active))
	for _, t := range active {
		teamIDs = append(teamIDs, t.ID.String())
		for _, raw := range t.RecipientUserIDs {
			id := strings.ToLower(strings.TrimSpace(raw))
			if members[t.ID][id] {
				recipients[id] = true
			}
		}
	}
	return sortedKeys(recipients), sortedUnique(teamIDs), nil
}

func parseID(raw string) (uuid.UUID, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(trimmed)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedUnique(values []string) []string {
	seen := map[string]bool{}
	for _, v := range values {
		seen[v] = true
	}
	return sortedKeys(seen)
}
