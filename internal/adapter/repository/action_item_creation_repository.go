package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
)

// ActionItemCreationRepository is the append-only audit log of created artifacts
type ActionItemCreationRepository struct {
	db *gorm.DB
}

// NewActionItemCreationRepository creates a new audit repository
func NewActionItemCreationRepository(db *gorm.DB) *ActionItemCreationRepository {
	return &ActionItemCreationRepository{db: db}
}

// CreateMany inserts all records in one batch
func (r *ActionItemCreationRepository) CreateMany(ctx context.Context, records []*entities.ActionItemCreation) error {
	if len(records) == 0 {
		return nil
	}
	for _, rec := range records {
		if rec.ID == uuid.Nil {
			rec.ID = uuid.New()
		}
	}
	if err := r.db.WithContext(ctx).CreateInBatches(records, 100).Error; err != nil {
		return fmt.Errorf("failed to create action item creations: %w", err)
	}
	return nil
}

// ListRecent returns the newest records, optionally for one meeting
func (r *ActionItemCreationRepository) ListRecent(ctx context.Context, meetingID string, limit int) ([]*entities.ActionItemCreation, error) {
	var records []*entities.ActionItemCreation
	query := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if meetingID != "" {
		query = query.Where("meeting_id = ?", meetingID)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list action item creations: %w", err)
	}
	return records, nil
}
