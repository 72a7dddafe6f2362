package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
)

// TranscriptionRepository handles transcription record operations
type TranscriptionRepository struct {
	db *gorm.DB
}

// NewTranscriptionRepository creates a new transcription repository
func NewTranscriptionRepository(db *gorm.DB) *TranscriptionRepository {
	return &TranscriptionRepository{db: db}
}

// Create inserts a record. The unique index on ingestion_key decides races;
// the loser gets entities.ErrDuplicateIngestionKey.
func (r *TranscriptionRepository) Create(ctx context.Context, record *entities.TranscriptionRecord) error {
	if record == nil {
		return errors.New("transcription record cannot be nil")
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return entities.ErrDuplicateIngestionKey
		}
		return fmt.Errorf("failed to create transcription record: %w", err)
	}
	return nil
}

// GetByIngestionKey retrieves a record by its ingestion key
func (r *TranscriptionRepository) GetByIngestionKey(ctx context.Context, key string) (*entities.TranscriptionRecord, error) {
	var record entities.TranscriptionRecord
	if err := r.db.WithContext(ctx).Where("ingestion_key = ?", key).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transcription record by key: %w", err)
	}
	return &record, nil
}

// GetByID retrieves a record by ID
func (r *TranscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.TranscriptionRecord, error) {
	var record entities.TranscriptionRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transcription record: %w", err)
	}
	return &record, nil
}

// GetLatestByMeetingID retrieves the newest record of a meeting
func (r *TranscriptionRepository) GetLatestByMeetingID(ctx context.Context, meetingID string) (*entities.TranscriptionRecord, error) {
	var record entities.TranscriptionRecord
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("received_at DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transcription record by meeting: %w", err)
	}
	return &record, nil
}

// ListRecent returns the newest records
func (r *TranscriptionRepository) ListRecent(ctx context.Context, limit int) ([]*entities.TranscriptionRecord, error) {
	var records []*entities.TranscriptionRecord
	err := r.db.WithContext(ctx).
		Order("received_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transcription records: %w", err)
	}
	return records, nil
}

// UpdateEnrichmentByMeetingID rewrites the enrichment and sync columns of every record of a meeting
func (r *TranscriptionRepository) UpdateEnrichmentByMeetingID(ctx context.Context, meetingID string, update *entities.TranscriptionRecord) (int64, error) {
	if update == nil {
		return 0, errors.New("update cannot be nil")
	}
	result := r.db.WithContext(ctx).
		Model(&entities.TranscriptionRecord{}).
		Where("meeting_id = ?", meetingID).
		Select(
			"transcript_id", "meeting_url", "meeting_platform", "is_google_meet",
			"transcript_text_available", "transcript_text", "sentences", "participants",
			"participant_emails", "enrichment_status", "enrichment_error", "sync_run",
			"provider_transcript", "updated_at",
		).
		Updates(update)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to update transcription records: %w", result.Error)
	}
	return result.RowsAffected, nil
}
