package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Supported transcription providers
const (
	ProviderFireflies = "fireflies"
	ProviderReadAI    = "read_ai"
)

// Enrichment statuses
const (
	EnrichmentNotRequired         = "not_required"
	EnrichmentCompleted           = "completed"
	EnrichmentSkippedMissingKey   = "skipped_missing_api_key"
	EnrichmentFailedMissingMeetID = "failed_missing_meeting_id"
	EnrichmentFailedFetch         = "failed_fetch"
	EnrichmentDuplicate           = "duplicate"
)

// Sentence is one spoken line of a transcript
type Sentence struct {
	Index       *int     `json:"index,omitempty"`
	SpeakerName string   `json:"speaker_name,omitempty"`
	SpeakerID   string   `json:"speaker_id,omitempty"`
	Text        string   `json:"text"`
	StartTime   *float64 `json:"start_time,omitempty"`
	EndTime     *float64 `json:"end_time,omitempty"`
}

// TranscriptionRecord is the stored result of one accepted webhook delivery
type TranscriptionRecord struct {
	ID                      uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	IngestionKey            string            `json:"ingestion_key" gorm:"type:varchar(255);uniqueIndex;not null"`
	Provider                string            `json:"provider" gorm:"type:varchar(50);not null"`
	EventType               string            `json:"event_type,omitempty" gorm:"type:varchar(100)"`
	MeetingID               string            `json:"meeting_id,omitempty" gorm:"type:varchar(255);index"`
	ClientReferenceID       string            `json:"client_reference_id,omitempty" gorm:"type:varchar(255)"`
	TranscriptID            string            `json:"transcript_id,omitempty" gorm:"type:varchar(255)"`
	ScopedUserID            string            `json:"scoped_user_id,omitempty" gorm:"type:varchar(255)"`
	MeetingPlatform         string            `json:"meeting_platform,omitempty" gorm:"type:varchar(50)"`
	MeetingURL              string            `json:"meeting_url,omitempty" gorm:"type:text"`
	IsGoogleMeet            bool              `json:"is_google_meet" gorm:"default:false"`
	TranscriptTextAvailable bool              `json:"transcript_text_available" gorm:"default:false"`
	TranscriptText          string            `json:"transcript_text,omitempty" gorm:"type:text"`
	Sentences               []Sentence        `json:"transcript_sentences,omitempty" gorm:"type:jsonb;serializer:json"`
	Participants            []Participant     `json:"participants,omitempty" gorm:"type:jsonb;serializer:json"`
	ParticipantEmails       []string          `json:"participant_emails,omitempty" gorm:"type:jsonb;serializer:json"`
	EnrichmentStatus        string            `json:"enrichment_status" gorm:"type:varchar(50)"`
	EnrichmentError         string            `json:"enrichment_error,omitempty" gorm:"type:text"`
	SyncRun                 SyncRun           `json:"action_items_sync" gorm:"type:jsonb;serializer:json"`
	ProviderTranscript      datatypes.JSONMap `json:"provider_transcript,omitempty" gorm:"type:jsonb"`
	RawPayload              datatypes.JSONMap `json:"raw_payload" gorm:"type:jsonb"`
	ReceivedAt              time.Time         `json:"received_at" gorm:"not null"`
	CreatedAt               time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt               time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (TranscriptionRecord) TableName() string {
	return "transcription_records"
}
