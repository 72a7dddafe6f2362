package aggregate

import (
	"fmt"
	"time"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
)

// Precondition messages
const (
	MsgDisabledByUser   = "TRANSCRIPTION_AUTOSYNC_ENABLED is disabled for this user."
	MsgTestModeNoOutput = "Enable at least one notes output: NOTION_API_TOKEN + NOTION_TASKS_DATABASE_ID, or MONDAY_API_TOKEN + MONDAY_BOARD_ID + MONDAY_GROUP_ID."
	MsgMissingModel     = "GEMINI_API_KEY and at least one notes output are required (Notion or Monday)."
	MsgNoRecipients     = "Matched teams have no active recipients configured."
)

var taskChannelNames = map[entities.Channel]string{
	entities.ChannelNotion: "Notion",
	entities.ChannelMonday: "Monday",
}

var calendarNames = map[entities.Channel]string{
	entities.ChannelGoogleCalendar:  "Google Calendar",
	entities.ChannelOutlookCalendar: "Outlook Calendar",
}

var missingConfiguration = map[entities.Channel]string{
	entities.ChannelNotion:          "NOTION_API_TOKEN or NOTION_TASKS_DATABASE_ID is missing.",
	entities.ChannelMonday:          "MONDAY_API_TOKEN, MONDAY_BOARD_ID or MONDAY_GROUP_ID is missing.",
	entities.ChannelGoogleCalendar:  "GOOGLE_CALENDAR_API_TOKEN is missing.",
	entities.ChannelOutlookCalendar: "OUTLOOK_CALENDAR_API_TOKEN is missing.",
}

// SummarizeTaskChannel rolls up one task tracker for one user
func SummarizeTaskChannel(run *entities.UserRun, ch entities.Channel) *entities.ChannelSummary {
	if len(run.Items) == 0 {
		return &entities.ChannelSummary{Status: entities.StatusNotRequiredNoActionItems}
	}
	if !run.HasChannel(ch) {
		return &entities.ChannelSummary{Status: entities.StatusSkippedMissingConfiguration, Error: missingConfiguration[ch]}
	}

	created, failed := 0, 0
	for i := range run.Items {
		cell := run.Items[i].Cell(ch)
		if cell == nil {
			continue
		}
		switch {
		case cell.Status == entities.StatusCreated:
			created++
		case cell.Status.IsFailure():
			failed++
		}
	}
	summary := &entities.ChannelSummary{CreatedCount: created}
	switch {
	case created == 0:
		summary.Status = entities.StatusFailedSync
		summary.Error = fmt.Sprintf("No action item could be created in %s.", taskChannelNames[ch])
	case failed > 0:
		summary.Status = entities.StatusCompletedWithErrors
		summary.Error = fmt.Sprintf("Some action items could not be synced to %s.", taskChannelNames[ch])
	default:
		summary.Status = entities.StatusCompleted
	}
	return summary
}

// SummarizeCalendar rolls up one calendar channel for one user. It runs after
// shared events have been propagated.
func SummarizeCalendar(run *entities.UserRun, ch entities.Channel) *entities.ChannelSummary {
	schedulable := 0
	for i := range run.Items {
		if run.Items[i].HasCalendarSchedule() {
			schedulable++
		}
	}
	if schedulable == 0 {
		return &entities.ChannelSummary{Status: entities.StatusNotRequiredNoDueDates}
	}
	if !run.HasChannel(ch) {
		return &entities.ChannelSummary{Status: entities.StatusSkippedMissingConfiguration, Error: missingConfiguration[ch]}
	}

	created, failed, shared := 0, 0, 0
	for i := range run.Items {
		cell := run.Items[i].Cell(ch)
		if cell == nil {
			continue
		}
		switch {
		case cell.Status == entities.StatusCreated:
			created++
		case cell.Status.IsFailure(), cell.Status == entities.StatusOwnerFailed:
			failed++
		case cell.Status == entities.StatusSkippedSharedTeamEvent, cell.Status == entities.StatusSharedFromTeamEvent:
			shared++
		}
	}

	summary := &entities.ChannelSummary{CreatedCount: created}
	switch {
	case created == 0 && failed == 0 && shared > 0:
		summary.Status = entities.StatusSharedFromTeamEvent
	case created == 0:
		summary.Status = entities.StatusFailedSync
		summary.Error = fmt.Sprintf("No due-date action item could be created in %s.", calendarNames[ch])
	case failed > 0:
		summary.Status = entities.StatusCompletedWithErrors
		summary.Error = "Some due-date action items could not be synced."
	default:
		summary.Status = entities.StatusCompleted
	}
	return summary
}

// SummarizeUser fills the channel summaries and the overall status of a run
// that went through publishing.
func SummarizeUser(run *entities.UserRun) {
	run.Channels = make(map[entities.Channel]*entities.ChannelSummary, 4)
	for _, ch := range entities.TaskChannels {
		run.Channels[ch] = SummarizeTaskChannel(run, ch)
	}
	for _, ch := range entities.CalendarChannels {
		run.Channels[ch] = SummarizeCalendar(run, ch)
	}

	outputs := describeOutputs(run)
	run.CreatedCount = 0
	for i := range run.Items {
		if run.Items[i].Status == entities.StatusCreated {
			run.CreatedCount++
		}
	}
	switch {
	case run.CreatedCount == 0:
		run.Status = entities.StatusFailedNotesSync
		run.Error = fmt.Sprintf("No action item could be created in %s.", outputs)
		return
	case run.CreatedCount < len(run.Items):
		run.Status = entities.StatusCompletedWithErrors
		run.Error = fmt.Sprintf("Some action items could not be created in %s.", outputs)
		return
	}

	run.Status = entities.StatusCompleted
	run.Error = ""
	for _, ch := range []entities.Channel{entities.ChannelGoogleCalendar, entities.ChannelOutlookCalendar, entities.ChannelMonday, entities.ChannelNotion} {
		s := run.Channels[ch].Status
		if s != entities.StatusFailedSync && s != entities.StatusCompletedWithErrors {
			continue
		}
		name := calendarNames[ch]
		if name == "" {
			name = taskChannelNames[ch]
		}
		run.Status = entities.StatusCompletedWithErrors
		run.Error = fmt.Sprintf("Some action items could not be synced to %s.", name)
		return
	}
}

func describeOutputs(run *entities.UserRun) string {
	notion, monday := run.HasChannel(entities.ChannelNotion), run.HasChannel(entities.ChannelMonday)
	switch {
	case notion && monday:
		return "Notion and Monday"
	case notion:
		return "Notion"
	case monday:
		return "Monday"
	}
	return "configured notes outputs"
}

// SkipRun builds the run of a user that stopped at a precondition
func SkipRun(userID string, status entities.Status, errText string) entities.UserRun {
	run := entities.UserRun{
		UserID:   userID,
		Status:   status,
		Error:    errText,
		Channels: map[entities.Channel]*entities.ChannelSummary{},
		SyncedAt: time.Now().UTC(),
	}
	set := func(status entities.Status, errText string, channels ...entities.Channel) {
		for _, ch := range channels {
			run.Channels[ch] = &entities.ChannelSummary{Status: status, Error: errText}
		}
	}

	switch status {
	case entities.StatusSkippedDisabledByUser:
		set(entities.StatusNotRequiredDisabledUser, "", entities.CalendarChannels...)
	case entities.StatusSkippedMissingConfiguration:
		for _, ch := range entities.TaskChannels {
			set(entities.StatusSkippedMissingConfiguration, missingConfiguration[ch], ch)
		}
		set(entities.StatusNotRequiredNoDueDates, "", entities.CalendarChannels...)
	case entities.StatusSkippedNoTranscript, entities.StatusSkippedNoActionItems, entities.StatusFailedAnalysis:
		set(entities.StatusNotRequiredNoActionItems, "", entities.TaskChannels...)
		set(entities.StatusNotRequiredNoDueDates, "", entities.CalendarChannels...)
	}
	return run
}

// Rollup folds per-user runs into the stored run of a delivery
func Rollup(runs []entities.UserRun, mode entities.RoutingMode, teamIDs []string) entities.SyncRun {
	out := entities.SyncRun{
		RoutingMode:    mode,
		MatchedTeamIDs: teamIDs,
		Users:          runs,
		SyncedAt:       time.Now().UTC(),
	}
	if len(runs) == 0 {
		out.Status = entities.StatusSkippedNoRecipients
		out.Error = MsgNoRecipients
		return out
	}

	first := runs[0]
	out.Items = first.Items
	if len(runs) == 1 {
		out.Status = first.Status
		out.Error = first.Error
		out.ExtractedCount = first.ExtractedCount
		out.CreatedCount = first.CreatedCount
		out.Channels = first.Channels
		return out
	}

	for _, r := range runs {
		if r.ExtractedCount > out.ExtractedCount {
			out.ExtractedCount = r.ExtractedCount
		}
		out.CreatedCount += r.CreatedCount
	}
	out.Channels = rollupChannels(runs)
	out.Status, out.Error = rollupStatus(runs)
	return out
}

func rollupStatus(runs []entities.UserRun) (entities.Status, string) {
	allSkipped := true
	sameSkip := true
	successes, problems, failures := 0, 0, 0
	for _, r := range runs {
		if !r.Status.IsSkip() {
			allSkipped = false
		} else if r.Status != runs[0].Status {
			sameSkip = false
		}
		switch {
		case r.Status == entities.StatusCompleted:
			successes++
		case r.Status == entities.StatusCompletedWithErrors:
			successes++
			problems++
		case r.Status.IsFailure():
			problems++
			failures++
		}
	}

	switch {
	case allSkipped && sameSkip:
		return runs[0].Status, runs[0].Error
	case allSkipped:
		return entities.StatusSkippedMixedReasons, "Recipients were skipped for different reasons."
	case failures == len(runs):
		return entities.StatusFailedMultiUserSync, "Action items could not be synced for any recipient."
	case successes == 0:
		// failed and skipped recipients mixed, nobody synced
		return entities.StatusSkippedMixedReasons, "No recipient was synced: some runs failed and the rest were skipped."
	case problems > 0:
		return entities.StatusCompletedWithErrors, "Some recipients could not be fully synced."
	}
	return entities.StatusCompleted, ""
}

func rollupChannels(runs []entities.UserRun) map[entities.Channel]*entities.ChannelSummary {
	out := map[entities.Channel]*entities.ChannelSummary{}
	for _, ch := range append(append([]entities.Channel{}, entities.TaskChannels...), entities.CalendarChannels...) {
		var merged *entities.ChannelSummary
		for _, r := range runs {
			s := r.Channels[ch]
			if s == nil {
				continue
			}
			if merged == nil {
				copied := *s
				merged = &copied
				continue
			}
			merged.CreatedCount += s.CreatedCount
			if merged.Status != s.Status {
				merged.Status, merged.Error = mergeChannelStatus(merged, s)
			}
		}
		if merged != nil {
			out[ch] = merged
		}
	}
	return out
}

func mergeChannelStatus(a, b *entities.ChannelSummary) (entities.Status, string) {
	succeeded := func(s entities.Status) bool {
		return s == entities.StatusCompleted || s == entities.StatusCompletedWithErrors || s == entities.StatusSharedFromTeamEvent
	}
	failed := func(s entities.Status) bool {
		return s.IsFailure() || s == entities.StatusCompletedWithErrors
	}
	switch {
	case (succeeded(a.Status) || succeeded(b.Status)) && (failed(a.Status) || failed(b.Status)):
		return entities.StatusCompletedWithErrors, "Some recipients could not be synced to this channel."
	case succeeded(a.Status):
		return a.Status, a.Error
	case succeeded(b.Status):
		return b.Status, b.Error
	case failed(a.Status):
		return a.Status, a.Error
	}
	return b.Status, b.Error
}
