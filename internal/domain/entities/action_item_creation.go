package entities

import (
	"time"

	"github.com/google/uuid"
)

// Audit sources
const (
	CreationSourceWebhook  = "webhook"
	CreationSourceBackfill = "backfill"
)

// ActionItemCreation is an append-only record of one created external artifact
type ActionItemCreation struct {
	ID                    uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Source                string     `json:"source" gorm:"type:varchar(20);not null"`
	Provider              string     `json:"provider" gorm:"type:varchar(50)"`
	MeetingID             string     `json:"meeting_id,omitempty" gorm:"type:varchar(255);index"`
	TranscriptID          string     `json:"transcript_id,omitempty" gorm:"type:varchar(255)"`
	ClientReferenceID     string     `json:"client_reference_id,omitempty" gorm:"type:varchar(255)"`
	TranscriptionRecordID *uuid.UUID `json:"transcription_record_id,omitempty" gorm:"type:uuid"`
	UserID                string     `json:"user_id,omitempty" gorm:"type:varchar(255)"`
	Channel               Channel    `json:"channel" gorm:"type:varchar(50);not null"`
	ActionItemIndex       int        `json:"action_item_index"`
	Title                 string     `json:"title" gorm:"type:text"`
	AssigneeEmail         string     `json:"assignee_email,omitempty" gorm:"type:varchar(255)"`
	AssigneeName          string     `json:"assignee_name,omitempty" gorm:"type:varchar(255)"`
	DueDate               string     `json:"due_date,omitempty" gorm:"type:varchar(20)"`
	ScheduledStart        string     `json:"scheduled_start,omitempty" gorm:"type:varchar(40)"`
	ScheduledEnd          string     `json:"scheduled_end,omitempty" gorm:"type:varchar(40)"`
	EventTimezone         string     `json:"event_timezone,omitempty" gorm:"type:varchar(64)"`
	RecurrenceRule        string     `json:"recurrence_rule,omitempty" gorm:"type:text"`
	OnlineMeetingPlatform string     `json:"online_meeting_platform,omitempty" gorm:"type:varchar(30)"`
	ExternalID            string     `json:"external_id" gorm:"type:varchar(255)"`
	Link                  string     `json:"link,omitempty" gorm:"type:text"`
	ParticipantEmails     []string   `json:"participant_emails,omitempty" gorm:"type:jsonb;serializer:json"`
	SyncedAt              time.Time  `json:"synced_at"`
	CreatedAt             time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (ActionItemCreation) TableName() string {
	return "action_item_creations"
}
