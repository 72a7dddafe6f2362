package routing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
)

type fakeUsers struct {
	byEmail map[string]*entities.User
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*entities.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*entities.User, error) {
	return f.byEmail[email], nil
}

func (f *fakeUsers) FindByEmails(_ context.Context, emails []string) ([]*entities.User, error) {
	var out []*entities.User
	for _, e := range emails {
		if u, ok := f.byEmail[e]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeTeams struct {
	teams       []*entities.Team
	memberships []*entities.TeamMembership
}

func (f *fakeTeams) ListMembershipsForUsers(_ context.Context, userIDs []uuid.UUID, status string) ([]*entities.TeamMembership, error) {
	var out []*entities.TeamMembership
	for _, m := range f.memberships {
		if m.Status != status {
			continue
		}
		for _, id := range userIDs {
			if m.UserID == id {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func (f *fakeTeams) ListMembershipsForTeams(_ context.Context, teamIDs []uuid.UUID, status string) ([]*entities.TeamMembership, error) {
	var out []*entities.TeamMembership
	for _, m := range f.memberships {
		if m.Status != status {
			continue
		}
		for _, id := range teamIDs {
			if m.TeamID == id {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func (f *fakeTeams) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*entities.Team, error) {
	var out []*entities.Team
	for _, t := range f.teams {
		for _, id := range ids {
			if t.ID == id {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

type fixture struct {
	lead, member, outsider *entities.User
	team                   *entities.Team
	users                  *fakeUsers
	teams                  *fakeTeams
}

func newFixture() *fixture {
	f := &fixture{
		lead:     &entities.User{ID: uuid.New(), Email: "lead@x.com"},
		member:   &entities.User{ID: uuid.New(), Email: "member@x.com"},
		outsider: &entities.User{ID: uuid.New(), Email: "out@x.com"},
	}
	f.team = &entities.Team{
		ID:               uuid.New(),
		Name:             "Ventas",
		IsActive:         true,
		RecipientUserIDs: []string{f.lead.ID.String(), f.member.ID.String(), f.outsider.ID.String()},
	}
	f.users = &fakeUsers{byEmail: map[string]*entities.User{
		f.lead.Email: f.lead, f.member.Email: f.member, f.outsider.Email: f.outsider,
	}}
	f.teams = &fakeTeams{
		teams: []*entities.Team{f.team},
		memberships: []*entities.TeamMembership{
			{TeamID: f.team.ID, UserID: f.lead.ID, Role: entities.TeamRoleLead, Status: entities.MembershipAccepted, IsActive: true},
			{TeamID: f.team.ID, UserID: f.member.ID, Role: entities.TeamRoleMember, Status: entities.MembershipAccepted, IsActive: true},
			{TeamID: f.team.ID, UserID: f.outsider.ID, Role: entities.TeamRoleMember, Status: entities.MembershipPending, IsActive: true},
		},
	}
	return f
}

func (f *fixture) router() *Router {
	return NewRouter(f.users, f.teams, nil)
}

func TestRoute_ParticipantTeamRecipients(t *testing.T) {
	f := newFixture()
	got, err := f.router().Route(context.Background(), []string{"member@x.com", "stranger@y.com"}, "")
	require.NoError(t, err)

	assert.Equal(t, entities.RoutingModeTeam, got.Mode)
	assert.Equal(t, []string{f.team.ID.String()}, got.TeamIDs)
	// pending members are never recipients even when configured
	assert.ElementsMatch(t, []string{f.lead.ID.String(), f.member.ID.String()}, got.RecipientIDs)
}

func TestRoute_NoTeamFallsBackToDirect(t *testing.T) {
	f := newFixture()
	got, err := f.router().Route(context.Background(), []string{"stranger@y.com"}, "")
	require.NoError(t, err)
	assert.True(t, got.Direct())
	assert.Empty(t, got.RecipientIDs)
}

func TestRoute_LeadWithExternalParticipantsUsesLedTeams(t *testing.T) {
	f := newFixture()
	got, err := f.router().Route(context.Background(), []string{"stranger@y.com"}, f.lead.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []string{f.team.ID.String()}, got.TeamIDs)
	assert.Len(t, got.RecipientIDs, 2)
}

func TestRoute_NonLeadScopeNarrowsToNothing(t *testing.T) {
	f := newFixture()
	got, err := f.router().Route(context.Background(), []string{"lead@x.com"}, f.member.ID.String())
	require.NoError(t, err)
	assert.True(t, got.Direct())
}

func TestRoute_MatchedTeamWithoutRecipientsIsNoop(t *testing.T) {
	f := newFixture()
	f.team.RecipientUserIDs = nil
	got, err := f.router().Route(context.Background(), []string{"member@x.com"}, "")
	require.NoError(t, err)
	assert.False(t, got.Direct())
	assert.True(t, got.NoRecipients())
	assert.Equal(t, []string{f.team.ID.String()}, got.TeamIDs)
}

func TestRoute_InactiveTeamIsIgnored(t *testing.T) {
	f := newFixture()
	f.team.IsActive = false
	got, err := f.router().Route(context.Background(), []string{"member@x.com"}, "")
	require.NoError(t, err)
	assert.True(t, got.Direct())
}

func TestRoute_InactiveMemberIsNotRecipient(t *testing.T) {
	f := newFixture()
	f.teams.memberships[1].IsActive = false
	got, err := f.router().Route(context.Background(), []string{"lead@x.com"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{f.lead.ID.String()}, got.RecipientIDs)
}
