package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
)

func item(status entities.Status, cells map[entities.Channel]entities.Status, due string) entities.ItemOutcome {
	out := entities.ItemOutcome{ActionItem: entities.ActionItem{Title: "t", DueDate: due}, Status: status}
	for ch, s := range cells {
		out.SetCell(ch, &entities.ChannelOutcome{Status: s})
	}
	return out
}

func notionOnlyRun(userID string, items ...entities.ItemOutcome) entities.UserRun {
	return entities.UserRun{
		UserID:         userID,
		ExtractedCount: len(items),
		Configured:     []entities.Channel{entities.ChannelNotion},
		Items:          items,
	}
}

func TestSummarizeUser_PartialNotesFailure(t *testing.T) {
	run := notionOnlyRun("a",
		item(entities.StatusCreated, map[entities.Channel]entities.Status{entities.ChannelNotion: entities.StatusCreated}, ""),
		item(entities.StatusFailed, map[entities.Channel]entities.Status{entities.ChannelNotion: entities.StatusFailed}, ""),
	)
	SummarizeUser(&run)

	assert.Equal(t, entities.StatusCompletedWithErrors, run.Status)
	assert.Equal(t, "Some action items could not be created in Notion.", run.Error)
	assert.Equal(t, 1, run.CreatedCount)
	assert.Equal(t, entities.StatusCompletedWithErrors, run.Channels[entities.ChannelNotion].Status)
	assert.Equal(t, entities.StatusSkippedMissingConfiguration, run.Channels[entities.ChannelMonday].Status)
	assert.Equal(t, entities.StatusNotRequiredNoDueDates, run.Channels[entities.ChannelGoogleCalendar].Status)
}

func TestSummarizeUser_NothingCreated(t *testing.T) {
	run := entities.UserRun{
		Configured: []entities.Channel{entities.ChannelNotion, entities.ChannelMonday},
		Items: []entities.ItemOutcome{
			item(entities.StatusFailed, map[entities.Channel]entities.Status{
				entities.ChannelNotion: entities.StatusFailed, entities.ChannelMonday: entities.StatusFailed,
			}, ""),
		},
	}
	SummarizeUser(&run)
	assert.Equal(t, entities.StatusFailedNotesSync, run.Status)
	assert.Equal(t, "No action item could be created in Notion and Monday.", run.Error)
	assert.Equal(t, entities.StatusFailedSync, run.Channels[entities.ChannelMonday].Status)
}

func TestSummarizeUser_CalendarFailureDowngrades(t *testing.T) {
	run := entities.UserRun{
		Configured: []entities.Channel{entities.ChannelNotion, entities.ChannelGoogleCalendar},
		Items: []entities.ItemOutcome{
			item(entities.StatusCreated, map[entities.Channel]entities.Status{
				entities.ChannelNotion:         entities.StatusCreated,
				entities.ChannelGoogleCalendar: entities.StatusFailedMissingMeetLink,
			}, "2026-02-20"),
		},
	}
	SummarizeUser(&run)
	assert.Equal(t, entities.StatusFailedSync, run.Channels[entities.ChannelGoogleCalendar].Status)
	assert.Equal(t, "No due-date action item could be created in Google Calendar.", run.Channels[entities.ChannelGoogleCalendar].Error)
	assert.Equal(t, entities.StatusSkippedMissingConfiguration, run.Channels[entities.ChannelOutlookCalendar].Status)
	assert.Equal(t, entities.StatusCompletedWithErrors, run.Status)
	assert.Equal(t, "Some action items could not be synced to Google Calendar.", run.Error)
}

func TestSummarizeCalendar_SharedOnly(t *testing.T) {
	run := entities.UserRun{
		Configured: []entities.Channel{entities.ChannelNotion, entities.ChannelGoogleCalendar},
		Items: []entities.ItemOutcome{
			item(entities.StatusCreated, map[entities.Channel]entities.Status{
				entities.ChannelNotion:         entities.StatusCreated,
				entities.ChannelGoogleCalendar: entities.StatusSharedFromTeamEvent,
			}, "2026-02-20"),
		},
	}
	SummarizeUser(&run)
	assert.Equal(t, entities.StatusSharedFromTeamEvent, run.Channels[entities.ChannelGoogleCalendar].Status)
	assert.Equal(t, entities.StatusCompleted, run.Status)
}

func TestSummarizeCalendar_OwnerFailedCountsAsFailure(t *testing.T) {
	run := entities.UserRun{
		Configured: []entities.Channel{entities.ChannelNotion, entities.ChannelGoogleCalendar},
		Items: []entities.ItemOutcome{
			item(entities.StatusCreated, map[entities.Channel]entities.Status{
				entities.ChannelNotion: entities.StatusCreated, entities.ChannelGoogleCalendar: entities.StatusOwnerFailed,
			}, "2026-02-20"),
			item(entities.StatusCreated, map[entities.Channel]entities.Status{
				entities.ChannelNotion: entities.StatusCreated, entities.ChannelGoogleCalendar: entities.StatusCreated,
			}, "2026-02-21"),
		},
	}
	s := SummarizeCalendar(&run, entities.ChannelGoogleCalendar)
	assert.Equal(t, entities.StatusCompletedWithErrors, s.Status)
	assert.Equal(t, 1, s.CreatedCount)
}

func TestSkipRun(t *testing.T) {
	run := SkipRun("u", entities.StatusSkippedDisabledByUser, MsgDisabledByUser)
	assert.Equal(t, entities.StatusNotRequiredDisabledUser, run.Channels[entities.ChannelGoogleCalendar].Status)
	assert.NotContains(t, run.Channels, entities.ChannelNotion)

	run = SkipRun("u", entities.StatusSkippedMissingConfiguration, MsgMissingModel)
	assert.Equal(t, entities.StatusSkippedMissingConfiguration, run.Channels[entities.ChannelMonday].Status)
	assert.Equal(t, "MONDAY_API_TOKEN, MONDAY_BOARD_ID or MONDAY_GROUP_ID is missing.", run.Channels[entities.ChannelMonday].Error)
	assert.Equal(t, entities.StatusNotRequiredNoDueDates, run.Channels[entities.ChannelOutlookCalendar].Status)
}

func status(userID string, s entities.Status, created int) entities.UserRun {
	return entities.UserRun{UserID: userID, Status: s, CreatedCount: created, ExtractedCount: 2}
}

func TestRollup(t *testing.T) {
	tests := []struct {
		name string
		runs []entities.UserRun
		want entities.Status
	}{
		{"no recipients", nil, entities.StatusSkippedNoRecipients},
		{"single mirrors", []entities.UserRun{status("a", entities.StatusFailedNotesSync, 0)}, entities.StatusFailedNotesSync},
		{"partial and success", []entities.UserRun{
			status("a", entities.StatusCompletedWithErrors, 1), status("b", entities.StatusCompleted, 2),
		}, entities.StatusCompletedWithErrors},
		{"failure and success", []entities.UserRun{
			status("a", entities.StatusFailedNotesSync, 0), status("b", entities.StatusCompleted, 2),
		}, entities.StatusCompletedWithErrors},
		{"all failed", []entities.UserRun{
			status("a", entities.StatusFailedNotesSync, 0), status("b", entities.StatusFailedUnexpected, 0),
		}, entities.StatusFailedMultiUserSync},
		{"all succeeded", []entities.UserRun{
			status("a", entities.StatusCompleted, 2), status("b", entities.StatusCompleted, 2),
		}, entities.StatusCompleted},
		{"same skip", []entities.UserRun{
			status("a", entities.StatusSkippedDisabledByUser, 0), status("b", entities.StatusSkippedDisabledByUser, 0),
		}, entities.StatusSkippedDisabledByUser},
		{"mixed skips", []entities.UserRun{
			status("a", entities.StatusSkippedDisabledByUser, 0), status("b", entities.StatusSkippedMissingConfiguration, 0),
		}, entities.StatusSkippedMixedReasons},
		{"failure and skip", []entities.UserRun{
			status("a", entities.StatusFailedNotesSync, 0), status("b", entities.StatusSkippedDisabledByUser, 0),
		}, entities.StatusSkippedMixedReasons},
		{"failure, skip and success", []entities.UserRun{
			status("a", entities.StatusFailedNotesSync, 0), status("b", entities.StatusSkippedDisabledByUser, 0),
			status("c", entities.StatusCompleted, 2),
		}, entities.StatusCompletedWithErrors},
		{"skip and success", []entities.UserRun{
			status("a", entities.StatusSkippedDisabledByUser, 0), status("b", entities.StatusCompleted, 2),
		}, entities.StatusCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Rollup(tt.runs, entities.RoutingModeTeam, []string{"team-1"})
			assert.Equal(t, tt.want, got.Status)
			assert.Equal(t, []string{"team-1"}, got.MatchedTeamIDs)
		})
	}
}

func TestRollup_Counts(t *testing.T) {
	got := Rollup([]entities.UserRun{
		status("a", entities.StatusCompleted, 2),
		status("b", entities.StatusCompletedWithErrors, 1),
	}, entities.RoutingModeTeam, nil)
	assert.Equal(t, 2, got.ExtractedCount)
	assert.Equal(t, 3, got.CreatedCount)
	require.Len(t, got.Users, 2)
}

func TestRollup_MergesChannels(t *testing.T) {
	a := entities.UserRun{UserID: "a", Status: entities.StatusCompleted, Channels: map[entities.Channel]*entities.ChannelSummary{
		entities.ChannelGoogleCalendar: {Status: entities.StatusCompleted, CreatedCount: 1},
	}}
	b := entities.UserRun{UserID: "b", Status: entities.StatusCompleted, Channels: map[entities.Channel]*entities.ChannelSummary{
		entities.ChannelGoogleCalendar: {Status: entities.StatusSharedFromTeamEvent},
	}}
	got := Rollup([]entities.UserRun{a, b}, entities.RoutingModeTeam, nil)
	require.NotNil(t, got.Channels[entities.ChannelGoogleCalendar])
	assert.Equal(t, entities.StatusCompleted, got.Channels[entities.ChannelGoogleCalendar].Status)
	assert.Equal(t, 1, got.Channels[entities.ChannelGoogleCalendar].CreatedCount)
	// merging must not mutate the per-user summaries
	assert.Equal(t, 1, a.Channels[entities.ChannelGoogleCalendar].CreatedCount)
}
