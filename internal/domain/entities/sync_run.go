package entities

import "time"

// Channel is one external publishing target.
type Channel string

const (
	ChannelNotion          Channel = "notion"
	ChannelMonday          Channel = "monday"
	ChannelGoogleCalendar  Channel = "google_calendar"
	ChannelOutlookCalendar Channel = "outlook_calendar"
)

// TaskChannels are the task trackers, in publish order.
var TaskChannels = []Channel{ChannelNotion, ChannelMonday}

// CalendarChannels are the calendar providers, in publish order.
var CalendarChannels = []Channel{ChannelGoogleCalendar, ChannelOutlookCalendar}

// IsCalendar reports whether the channel creates calendar events.
func (c Channel) IsCalendar() bool {
	return c == ChannelGoogleCalendar || c == ChannelOutlookCalendar
}

// Status is a sync outcome at cell, channel, user or run level.
type Status string

const (
	// cell level
	StatusCreated                     Status = "created"
	StatusFailed                      Status = "failed"
	StatusSkippedMissingConfiguration Status = "skipped_missing_configuration"
	StatusNotRequiredNoDueDate        Status = "not_required_no_due_date"
	StatusSharedFromTeamEvent         Status = "shared_from_team_event"
	StatusSkippedSharedTeamEvent      Status = "skipped_shared_team_meeting_event"
	StatusOwnerFailed                 Status = "owner_failed"
	StatusFailedMissingMeetLink       Status = "failed_missing_meet_link"
	StatusFailedMissingTeamsLink      Status = "failed_missing_teams_link"

	// channel summary level
	StatusCompleted                Status = "completed"
	StatusCompletedWithErrors      Status = "completed_with_errors"
	StatusFailedSync               Status = "failed_sync"
	StatusNotRequiredNoActionItems Status = "not_required_no_action_items"
	StatusNotRequiredNoDueDates    Status = "not_required_no_due_dates"

	// user and run level
	StatusSkippedNoTranscript     Status = "skipped_no_transcript"
	StatusSkippedNoActionItems    Status = "skipped_no_action_items"
	StatusSkippedDisabledByUser   Status = "skipped_disabled_by_user"
	StatusSkippedNoRecipients     Status = "skipped_no_recipients"
	StatusSkippedMixedReasons     Status = "skipped_mixed_reasons"
	StatusFailedNotesSync         Status = "failed_notes_sync"
	StatusFailedAnalysis          Status = "failed_analysis"
	StatusFailedUnexpected        Status = "failed_unexpected"
	StatusFailedMultiUserSync     Status = "failed_multi_user_sync"
	StatusNotRequiredDisabledUser Status = "not_required_disabled_by_user"
)

// IsSkip reports whether the status is a precondition skip.
func (s Status) IsSkip() bool {
	switch s {
	case StatusSkippedNoTranscript, StatusSkippedNoActionItems, StatusSkippedDisabledByUser,
		StatusSkippedNoRecipients, StatusSkippedMissingConfiguration, StatusSkippedMixedReasons,
		StatusNotRequiredDisabledUser:
		return true
	}
	return false
}

// IsFailure reports whether the status is a failed_* outcome.
func (s Status) IsFailure() bool {
	return len(s) >= 6 && s[:6] == "failed"
}

// RoutingMode tells how recipients were chosen.
type RoutingMode string

const (
	RoutingModeTeam   RoutingMode = "team"
	RoutingModeDirect RoutingMode = "direct"
)

// ChannelOutcome is the result of one (item, user, channel) cell.
type ChannelOutcome struct {
	Status     Status `json:"status"`
	ExternalID string `json:"external_id,omitempty"`
	Link       string `json:"link,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ItemOutcome is one action item together with its per-channel cells.
type ItemOutcome struct {
	ActionItem
	Index    int                         `json:"index"`
	Status   Status                      `json:"status"`
	Error    string                      `json:"error,omitempty"`
	Channels map[Channel]*ChannelOutcome `json:"channels,omitempty"`
}

// Cell returns the outcome of the given channel, or nil.
func (o *ItemOutcome) Cell(ch Channel) *ChannelOutcome {
	if o.Channels == nil {
		return nil
	}
	return o.Channels[ch]
}

// SetCell stores the outcome for the given channel.
func (o *ItemOutcome) SetCell(ch Channel, out *ChannelOutcome) {
	if o.Channels == nil {
		o.Channels = make(map[Channel]*ChannelOutcome)
	}
	o.Channels[ch] = out
}

// ChannelSummary rolls up all cells of one channel for one user.
type ChannelSummary struct {
	Status       Status `json:"status"`
	CreatedCount int    `json:"created_count"`
	Error        string `json:"error,omitempty"`
}

// UserRun is the sync result for a single recipient.
type UserRun struct {
	UserID         string                      `json:"user_id,omitempty"`
	Status         Status                      `json:"status"`
	Error          string                      `json:"error,omitempty"`
	ExtractedCount int                         `json:"extracted_count"`
	CreatedCount   int                         `json:"created_count"`
	Channels       map[Channel]*ChannelSummary `json:"channels,omitempty"`
	Items          []ItemOutcome               `json:"items,omitempty"`
	OwnedChannels  []Channel                   `json:"owned_channels,omitempty"`
	Configured     []Channel                   `json:"configured_channels,omitempty"`
	SyncedAt       time.Time                   `json:"synced_at"`
}

// HasChannel reports whether the user had credentials for ch
func (r *UserRun) HasChannel(ch Channel) bool {
	for _, c := range r.Configured {
		if c == ch {
			return true
		}
	}
	return false
}

// SyncRun is the persisted, aggregated result of one delivery.
type SyncRun struct {
	Status         Status                      `json:"status"`
	Error          string                      `json:"error,omitempty"`
	ExtractedCount int                         `json:"extracted_count"`
	CreatedCount   int                         `json:"created_count"`
	Channels       map[Channel]*ChannelSummary `json:"channels,omitempty"`
	Items          []ItemOutcome               `json:"items,omitempty"`
	Users          []UserRun                   `json:"users,omitempty"`
	MatchedTeamIDs []string                    `json:"matched_team_ids,omitempty"`
	RoutingMode    RoutingMode                 `json:"routing_mode,omitempty"`
	SyncedAt       time.Time                   `json:"synced_at"`
}
