package transcription

import (
	"time"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
)

// WebhookAcceptedResponse is returned for every accepted delivery, duplicates included
type WebhookAcceptedResponse struct {
	Status                  string          `json:"status"`
	RecordID                string          `json:"record_id"`
	Provider                string          `json:"provider"`
	EventType               string          `json:"event_type,omitempty"`
	MeetingID               string          `json:"meeting_id,omitempty"`
	ClientReferenceID       string          `json:"client_reference_id,omitempty"`
	TranscriptID            string          `json:"transcript_id,omitempty"`
	MeetingPlatform         string          `json:"meeting_platform,omitempty"`
	IsGoogleMeet            bool            `json:"is_google_meet"`
	TranscriptTextAvailable bool            `json:"transcript_text_available"`
	IngestionKey            string          `json:"ingestion_key"`
	Duplicate               bool            `json:"duplicate"`
	Stored                  bool            `json:"stored"`
	EnrichmentStatus        string          `json:"enrichment_status"`
	EnrichmentError         string          `json:"enrichment_error,omitempty"`
	SyncStatus              entities.Status `json:"action_items_sync_status,omitempty"`
	CreatedCount            int             `json:"action_items_created_count"`
	ReceivedAt              time.Time       `json:"received_at"`
}

// RecordResponse is the API shape of a transcription record
type RecordResponse struct {
	ID                      string                 `json:"id"`
	Provider                string                 `json:"provider"`
	EventType               string                 `json:"event_type,omitempty"`
	MeetingID               string                 `json:"meeting_id,omitempty"`
	ClientReferenceID       string                 `json:"client_reference_id,omitempty"`
	TranscriptID            string                 `json:"transcript_id,omitempty"`
	ScopedUserID            string                 `json:"scoped_user_id,omitempty"`
	MeetingPlatform         string                 `json:"meeting_platform,omitempty"`
	MeetingURL              string                 `json:"meeting_url,omitempty"`
	IsGoogleMeet            bool                   `json:"is_google_meet"`
	TranscriptTextAvailable bool                   `json:"transcript_text_available"`
	TranscriptText          string                 `json:"transcript_text,omitempty"`
	Sentences               []entities.Sentence    `json:"transcript_sentences,omitempty"`
	Participants            []entities.Participant `json:"participants,omitempty"`
	ParticipantEmails       []string               `json:"participant_emails,omitempty"`
	EnrichmentStatus        string                 `json:"enrichment_status"`
	EnrichmentError         string                 `json:"enrichment_error,omitempty"`
	ActionItemsSync         entities.SyncRun       `json:"action_items_sync"`
	RawPayload              map[string]interface{} `json:"raw_payload,omitempty"`
	ReceivedAt              time.Time              `json:"received_at"`
	UpdatedAt               time.Time              `json:"updated_at"`
}

// ListRecordsResponse wraps a record list
type ListRecordsResponse struct {
	Items []*RecordResponse `json:"items"`
	Count int               `json:"count"`
}

// BackfillResponse reports a backfill run
type BackfillResponse struct {
	MeetingID    string          `json:"meeting_id"`
	UpdatedCount int64           `json:"updated_count"`
	Record       *RecordResponse `json:"record"`
}

// CreationResponse is one audit row
type CreationResponse struct {
	ID                    string    `json:"id"`
	Source                string    `json:"source"`
	Provider              string    `json:"provider,omitempty"`
	MeetingID             string    `json:"meeting_id,omitempty"`
	TranscriptionRecordID string    `json:"transcription_record_id,omitempty"`
	UserID                string    `json:"user_id,omitempty"`
	Channel               string    `json:"channel"`
	ActionItemIndex       int       `json:"action_item_index"`
	Title                 string    `json:"title"`
	AssigneeEmail         string    `json:"assignee_email,omitempty"`
	DueDate               string    `json:"due_date,omitempty"`
	ScheduledStart        string    `json:"scheduled_start,omitempty"`
	OnlineMeetingPlatform string    `json:"online_meeting_platform,omitempty"`
	ExternalID            string    `json:"external_id"`
	Link                  string    `json:"link,omitempty"`
	SyncedAt              time.Time `json:"synced_at"`
}

// ListCreationsResponse wraps the audit rows
type ListCreationsResponse struct {
	Items []*CreationResponse `json:"items"`
	Count int                 `json:"count"`
}
