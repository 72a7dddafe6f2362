package entities

import "strings"

// Online meeting platforms an action item may request.
const (
	PlatformGoogleMeet     = "google_meet"
	PlatformMicrosoftTeams = "microsoft_teams"
	PlatformAuto           = "auto"
)

// ActionItem is one normalized task extracted from a transcript.
// Empty strings stand for absent values.
type ActionItem struct {
	Title                 string `json:"title"`
	AssigneeEmail         string `json:"assignee_email,omitempty"`
	AssigneeName          string `json:"assignee_name,omitempty"`
	DueDate               string `json:"due_date,omitempty"`
	Details               string `json:"details,omitempty"`
	SourceSentence        string `json:"source_sentence,omitempty"`
	ScheduledStart        string `json:"scheduled_start,omitempty"`
	ScheduledEnd          string `json:"scheduled_end,omitempty"`
	EventTimezone         string `json:"event_timezone,omitempty"`
	RecurrenceRule        string `json:"recurrence_rule,omitempty"`
	OnlineMeetingPlatform string `json:"online_meeting_platform,omitempty"`
}

// HasCalendarSchedule reports whether the item can be placed on a calendar.
func (a ActionItem) HasCalendarSchedule() bool {
	return a.DueDate != "" || a.ScheduledStart != ""
}

// IsExplicitOnlineMeeting reports whether the item names a concrete video platform.
// Only these items are shared across recipients.
func (a ActionItem) IsExplicitOnlineMeeting() bool {
	p := a.platform()
	return p == PlatformGoogleMeet || p == PlatformMicrosoftTeams
}

// WantsMeetConference reports whether a Google event should request a Meet conference.
func (a ActionItem) WantsMeetConference() bool {
	p := a.platform()
	return p == PlatformGoogleMeet || p == PlatformAuto
}

// WantsTeamsMeeting reports whether an Outlook event should be an online meeting.
func (a ActionItem) WantsTeamsMeeting() bool {
	p := a.platform()
	return p == PlatformMicrosoftTeams || p == PlatformAuto
}

// RequiresMeetLink reports whether a Google event must come back with a Meet link.
func (a ActionItem) RequiresMeetLink() bool {
	return a.platform() == PlatformGoogleMeet
}

// RequiresTeamsLink reports whether an Outlook event must come back with a Teams link.
func (a ActionItem) RequiresTeamsLink() bool {
	return a.platform() == PlatformMicrosoftTeams
}

func (a ActionItem) platform() string {
	return strings.ToLower(strings.TrimSpace(a.OnlineMeetingPlatform))
}
