package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
)

// TranscriptionRepository defines the interface for transcription record access
type TranscriptionRepository interface {
	// Create inserts a record; returns entities.ErrDuplicateIngestionKey when the key is taken
	Create(ctx context.Context, record *entities.TranscriptionRecord) error

	// GetByIngestionKey returns the record for a key, or nil
	GetByIngestionKey(ctx context.Context, key string) (*entities.TranscriptionRecord, error)

	// GetByID returns a record by id, or nil
	GetByID(ctx context.Context, id uuid.UUID) (*entities.TranscriptionRecord, error)

	// GetLatestByMeetingID returns the most recently received record of a meeting, or nil
	GetLatestByMeetingID(ctx context.Context, meetingID string) (*entities.TranscriptionRecord, error)

	// ListRecent returns records newest first
	ListRecent(ctx context.Context, limit int) ([]*entities.TranscriptionRecord, error)

	// UpdateEnrichmentByMeetingID rewrites enrichment and sync fields of every record of a meeting
	UpdateEnrichmentByMeetingID(ctx context.Context, meetingID string, update *entities.TranscriptionRecord) (int64, error)
}

// CreationAuditRepository defines the append-only audit log of created artifacts
type CreationAuditRepository interface {
	// CreateMany inserts all records
	CreateMany(ctx context.Context, records []*entities.ActionItemCreation) error

	// ListRecent returns records newest first, optionally filtered by meeting
	ListRecent(ctx context.Context, meetingID string, limit int) ([]*entities.ActionItemCreation, error)
}
