package config

import "strings"

// IntegrationSettings is the per-user overridable integration block.
// The envconfig key of every field doubles as the user settings key; fields
// tagged scope:"global" are project-wide and never taken from user settings.
type IntegrationSettings struct {
	AutosyncEnabled bool `envconfig:"TRANSCRIPTION_AUTOSYNC_ENABLED" default:"true"`

	GeminiAPIKey string `envconfig:"GEMINI_API_KEY" scope:"global"`

	NotionAPIToken         string  `envconfig:"NOTION_API_TOKEN"`
	NotionTasksDatabaseID  string  `envconfig:"NOTION_TASKS_DATABASE_ID"`
	NotionAPIVersion       string  `envconfig:"NOTION_API_VERSION" default:"2022-06-28"`
	NotionTimeoutSeconds   float64 `envconfig:"NOTION_API_TIMEOUT_SECONDS" default:"10"`
	NotionTodoStatus       string  `envconfig:"NOTION_KANBAN_TODO_STATUS" default:"Por hacer"`
	NotionTitleProperty    string  `envconfig:"NOTION_TASK_TITLE_PROPERTY" default:"Name"`
	NotionAssigneeProperty string  `envconfig:"NOTION_TASK_ASSIGNEE_PROPERTY" default:"Assignee"`
	NotionStatusProperty   string  `envconfig:"NOTION_TASK_STATUS_PROPERTY" default:"Status"`
	NotionDueDateProperty  string  `envconfig:"NOTION_TASK_DUE_DATE_PROPERTY" default:"Due date"`
	NotionDetailsProperty  string  `envconfig:"NOTION_TASK_DETAILS_PROPERTY" default:"Details"`
	NotionMeetingIDProp    string  `envconfig:"NOTION_TASK_MEETING_ID_PROPERTY" default:"Meeting ID"`

	MondayAPIURL            string  `envconfig:"MONDAY_API_URL" default:"https://api.monday.com/v2"`
	MondayAPIToken          string  `envconfig:"MONDAY_API_TOKEN"`
	MondayTimeoutSeconds    float64 `envconfig:"MONDAY_API_TIMEOUT_SECONDS" default:"10"`
	MondayBoardID           string  `envconfig:"MONDAY_BOARD_ID"`
	MondayGroupID           string  `envconfig:"MONDAY_GROUP_ID"`
	MondayStatusColumnID    string  `envconfig:"MONDAY_STATUS_COLUMN_ID" default:"status"`
	MondayTodoStatus        string  `envconfig:"MONDAY_KANBAN_TODO_STATUS" default:"Working on it"`
	MondayAssigneeColumnID  string  `envconfig:"MONDAY_ASSIGNEE_COLUMN_ID" default:"person"`
	MondayDueDateColumnID   string  `envconfig:"MONDAY_DUE_DATE_COLUMN_ID" default:"date"`
	MondayDetailsColumnID   string  `envconfig:"MONDAY_DETAILS_COLUMN_ID" default:"long_text"`
	MondayMeetingIDColumnID string  `envconfig:"MONDAY_MEETING_ID_COLUMN_ID" default:"text"`

	GoogleCalendarAPIToken      string  `envconfig:"GOOGLE_CALENDAR_API_TOKEN"`
	GoogleCalendarRefreshToken  string  `envconfig:"GOOGLE_CALENDAR_REFRESH_TOKEN"`
	GoogleCalendarClientID      string  `envconfig:"GOOGLE_CALENDAR_CLIENT_ID"`
	GoogleCalendarClientSecret  string  `envconfig:"GOOGLE_CALENDAR_CLIENT_SECRET"`
	GoogleCalendarID            string  `envconfig:"GOOGLE_CALENDAR_ID" default:"primary"`
	GoogleCalendarEventTimezone string  `envconfig:"GOOGLE_CALENDAR_EVENT_TIMEZONE" default:"UTC"`
	GoogleCalendarTimeoutSecs   float64 `envconfig:"GOOGLE_CALENDAR_API_TIMEOUT_SECONDS" default:"10"`

	OutlookClientID             string `envconfig:"OUTLOOK_CLIENT_ID"`
	OutlookClientSecret         string `envconfig:"OUTLOOK_CLIENT_SECRET"`
	OutlookTenantID             string `envconfig:"OUTLOOK_TENANT_ID" default:"common"`
	OutlookCalendarAPIToken     string `envconfig:"OUTLOOK_CALENDAR_API_TOKEN"`
	OutlookCalendarRefreshToken string `envconfig:"OUTLOOK_CALENDAR_REFRESH_TOKEN"`
	OutlookEventTimezone        string `envconfig:"OUTLOOK_CALENDAR_EVENT_TIMEZONE" default:"UTC"`

	DefaultEventTimezone string   `envconfig:"DEFAULT_EVENT_TIMEZONE" default:"America/Bogota"`
	ExtraAttendees       []string `envconfig:"EXTRA_CALENDAR_ATTENDEES"`
	MaxActionItems       int      `envconfig:"MAX_ACTION_ITEMS" default:"25"`

	TestModeEnabled bool   `envconfig:"ACTION_ITEMS_TEST_MODE_ENABLED" default:"false"`
	TestDueDate     string `envconfig:"ACTION_ITEMS_TEST_DUE_DATE"`
}

// NotionConfigured reports whether Notion task creation has credentials.
func (s IntegrationSettings) NotionConfigured() bool {
	return hasText(s.NotionAPIToken) && hasText(s.NotionTasksDatabaseID)
}

// MondayConfigured reports whether Monday item creation has credentials.
func (s IntegrationSettings) MondayConfigured() bool {
	return hasText(s.MondayAPIToken) && hasText(s.MondayBoardID) && hasText(s.MondayGroupID)
}

// GoogleCalendarConfigured reports whether a Google access token exists or can be refreshed.
func (s IntegrationSettings) GoogleCalendarConfigured() bool {
	if hasText(s.GoogleCalendarAPIToken) {
		return true
	}
	return hasText(s.GoogleCalendarRefreshToken) && hasText(s.GoogleCalendarClientID) && hasText(s.GoogleCalendarClientSecret)
}

// OutlookCalendarConfigured reports whether an Outlook access token exists or can be refreshed.
func (s IntegrationSettings) OutlookCalendarConfigured() bool {
	if hasText(s.OutlookCalendarAPIToken) {
		return true
	}
	return hasText(s.OutlookCalendarRefreshToken) && hasText(s.OutlookClientID) && hasText(s.OutlookClientSecret)
}

// HasNotesOutput reports whether at least one task tracker is configured.
func (s IntegrationSettings) HasNotesOutput() bool {
	return s.NotionConfigured() || s.MondayConfigured()
}

func hasText(v string) bool {
	return strings.TrimSpace(v) != ""
}
