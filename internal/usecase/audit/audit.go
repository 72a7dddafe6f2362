package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/domain/repositories"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Meta is the provenance shared by every record of one delivery
type Meta struct {
	Source            string
	Provider          string
	MeetingID         string
	TranscriptID      string
	ClientReferenceID string
	RecordID          *uuid.UUID
	ParticipantEmails []string
}

// BuildRecords returns one record per created (user, item, channel) cell.
// Shared cells are not records: the owner's cell already is.
func BuildRecords(meta Meta, run entities.SyncRun) []*entities.ActionItemCreation {
	users := run.Users
	if len(users) == 0 && len(run.Items) > 0 {
		users = []entities.UserRun{{Items: run.Items, SyncedAt: run.SyncedAt}}
	}

	var out []*entities.ActionItemCreation
	for _, u := range users {
		syncedAt := u.SyncedAt
		if syncedAt.IsZero() {
			syncedAt = time.Now().UTC()
		}
		for i := range u.Items {
			item := &u.Items[i]
			for _, ch := range allChannels {
				cell := item.Cell(ch)
				if cell == nil || cell.Status != entities.StatusCreated {
					continue
				}
				out = append(out, &entities.ActionItemCreation{
					Source:                meta.Source,
					Provider:              meta.Provider,
					MeetingID:             meta.MeetingID,
					TranscriptID:          meta.TranscriptID,
					ClientReferenceID:     meta.ClientReferenceID,
					TranscriptionRecordID: meta.RecordID,
					UserID:                u.UserID,
					Channel:               ch,
					ActionItemIndex:       item.Index,
					Title:                 item.Title,
					AssigneeEmail:         item.AssigneeEmail,
					AssigneeName:          item.AssigneeName,
					DueDate:               item.DueDate,
					ScheduledStart:        item.ScheduledStart,
					ScheduledEnd:          item.ScheduledEnd,
					EventTimezone:         item.EventTimezone,
					RecurrenceRule:        item.RecurrenceRule,
					OnlineMeetingPlatform: item.OnlineMeetingPlatform,
					ExternalID:            cell.ExternalID,
					Link:                  cell.Link,
					ParticipantEmails:     meta.ParticipantEmails,
					SyncedAt:              syncedAt,
				})
			}
		}
	}
	return out
}

var allChannels = []entities.Channel{
	entities.ChannelNotion,
	entities.ChannelMonday,
	entities.ChannelGoogleCalendar,
	entities.ChannelOutlookCalendar,
}

// Store is the append-only creation log
type Store struct {
	repo   repositories.CreationAuditRepository
	logger *zap.Logger
}

// NewStore creates an audit store
func NewStore(repo repositories.CreationAuditRepository, logger *zap.Logger) *Store {
	return &Store{repo: repo, logger: logger}
}

// Append writes records. A failing write is logged and never returned.
func (s *Store) Append(ctx context.Context, records []*entities.ActionItemCreation) int {
	if len(records) == 0 {
		return 0
	}
	if err := s.repo.CreateMany(ctx, records); err != nil {
		if s.logger != nil {
			s.logger.Error("failed to append action item creations",
				zap.Int("count", len(records)),
				zap.String("meeting_id", records[0].MeetingID),
				zap.Error(err),
			)
		}
		return 0
	}
	return len(records)
}

// List returns the newest records, clamping limit to 1..200
func (s *Store) List(ctx context.Context, meetingID string, limit int) ([]*entities.ActionItemCreation, error) {
	return s.repo.ListRecent(ctx, meetingID, ClampLimit(limit))
}

// ClampLimit applies the list window used by the records endpoints
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	}
	return limit
}
