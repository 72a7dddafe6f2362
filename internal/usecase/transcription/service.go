package transcription

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/domain/repositories"
	"github.com/johnquangdev/meeting-sync/internal/usecase/audit"
	"github.com/johnquangdev/meeting-sync/internal/usecase/enrichment"
	ucerrors "github.com/johnquangdev/meeting-sync/internal/usecase/errors"
	"github.com/johnquangdev/meeting-sync/internal/usecase/ingestion"
	"github.com/johnquangdev/meeting-sync/internal/usecase/participants"
	"github.com/johnquangdev/meeting-sync/internal/usecase/payload"
	"github.com/johnquangdev/meeting-sync/internal/usecase/syncrun"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Syncer runs the action item sync of one delivery
type Syncer interface {
	Run(ctx context.Context, req syncrun.Request) entities.SyncRun
}

// Archiver keeps a copy of raw webhook bodies
type Archiver interface {
	PutJSON(ctx context.Context, objectName string, body []byte) error
}

// ObjectNamer maps a delivery to its archive object name
type ObjectNamer func(provider, ingestionKey string, receivedAt time.Time) string

// WebhookInput is one authenticated webhook delivery
type WebhookInput struct {
	Provider     string
	ScopedUserID string
	Payload      map[string]interface{}
	RawBody      []byte
}

// WebhookResult is the stored record of a delivery. Unsaved is set when the
// sync ran but the record could not be written.
type WebhookResult struct {
	Record    *entities.TranscriptionRecord
	Duplicate bool
	Unsaved   bool
}

// BackfillResult reports a re-run of enrichment and sync for one meeting
type BackfillResult struct {
	MeetingID    string
	UpdatedCount int64
	Record       *entities.TranscriptionRecord
}

// Service handles transcription webhooks and stored records
type Service struct {
	repo         repositories.TranscriptionRepository
	gate         *ingestion.Gate
	enricher     *enrichment.Enricher
	participants *participants.Resolver
	syncer       Syncer
	audit        *audit.Store
	archive      Archiver
	objectName   ObjectNamer
	now          func() time.Time
	logger       *zap.Logger
}

// NewService creates a transcription service
func NewService(
	repo repositories.TranscriptionRepository,
	gate *ingestion.Gate,
	enricher *enrichment.Enricher,
	resolver *participants.Resolver,
	syncer Syncer,
	auditStore *audit.Store,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:         repo,
		gate:         gate,
		enricher:     enricher,
		participants: resolver,
		syncer:       syncer,
		audit:        auditStore,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       logger,
	}
}

// WithArchive enables the raw payload archive
func (s *Service) WithArchive(archive Archiver, name ObjectNamer) *Service {
	s.archive = archive
	s.objectName = name
	return s
}

// ProcessWebhook ingests one delivery. A duplicate returns the stored record
// without running enrichment or sync again.
func (s *Service) ProcessWebhook(ctx context.Context, in WebhookInput) (*WebhookResult, error) {
	body := in.Payload
	keyFields := ingestion.KeyFields{
		Provider:          in.Provider,
		MeetingID:         payload.MeetingIDField.Extract(body),
		TranscriptID:      payload.TranscriptIDField.Extract(body),
		ClientReferenceID: payload.ClientReferenceField.Extract(body),
		EventType:         payload.EventTypeField.Extract(body),
	}
	key := ingestion.ComputeKey(keyFields, body)

	existing, err := s.gate.Lookup(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ucerrors.ErrStorageUnavailable, err)
	}
	if existing != nil {
		s.logInfo("duplicate webhook delivery", zap.String("ingestion_key", key), zap.String("record_id", existing.ID.String()))
		return &WebhookResult{Record: markDuplicate(existing), Duplicate: true}, nil
	}

	enriched := s.enricher.Enrich(ctx, in.Provider, enrichment.Meta{
		EventType:      keyFields.EventType,
		MeetingID:      keyFields.MeetingID,
		TranscriptID:   keyFields.TranscriptID,
		TranscriptText: payload.TranscriptTextField.Extract(body),
		MeetingURL:     payload.MeetingURLField.Extract(body),
	})
	people, emails := s.participants.Resolve(ctx, enriched.Transcript, body, enriched.Sentences)
	run := s.syncer.Run(ctx, syncrun.Request{
		MeetingID:         keyFields.MeetingID,
		ScopedUserID:      in.ScopedUserID,
		TranscriptText:    enriched.TranscriptText,
		Sentences:         enriched.Sentences,
		ParticipantEmails: emails,
	})

	platform := payload.PlatformField.Extract(body)
	if platform == "" {
		platform = payload.InferPlatformFromURL(enriched.MeetingURL)
	}
	receivedAt := s.now()
	record := &entities.TranscriptionRecord{
		ID:                      uuid.New(),
		IngestionKey:            key,
		Provider:                in.Provider,
		EventType:               keyFields.EventType,
		MeetingID:               keyFields.MeetingID,
		ClientReferenceID:       keyFields.ClientReferenceID,
		TranscriptID:            enriched.TranscriptID,
		ScopedUserID:            strings.TrimSpace(in.ScopedUserID),
		MeetingPlatform:         platform,
		MeetingURL:              enriched.MeetingURL,
		IsGoogleMeet:            payload.IsGoogleMeet(platform, enriched.MeetingURL),
		TranscriptTextAvailable: enriched.TranscriptText != "",
		TranscriptText:          enriched.TranscriptText,
		Sentences:               enriched.Sentences,
		Participants:            people,
		ParticipantEmails:       emails,
		EnrichmentStatus:        enriched.Status,
		EnrichmentError:         enriched.Error,
		SyncRun:                 run,
		ProviderTranscript:      datatypes.JSONMap(enriched.Transcript),
		RawPayload:              datatypes.JSONMap(body),
		ReceivedAt:              receivedAt,
	}

	stored, duplicate, err := s.gate.Commit(ctx, record)
	if err != nil {
		// the run already created tasks and events; a non-2xx reply would
		// make the provider redeliver and create them again
		if s.logger != nil {
			s.logger.Error("failed to store transcription record after sync",
				zap.String("ingestion_key", key),
				zap.String("meeting_id", record.MeetingID),
				zap.Error(err),
			)
		}
		s.archiveBody(ctx, record, in.RawBody)
		s.appendAudit(ctx, entities.CreationSourceWebhook, record, nil)
		return &WebhookResult{Record: record, Unsaved: true}, nil
	}
	if duplicate {
		return &WebhookResult{Record: markDuplicate(stored), Duplicate: true}, nil
	}

	s.archiveBody(ctx, stored, in.RawBody)
	s.appendAudit(ctx, entities.CreationSourceWebhook, stored, &stored.ID)
	s.logInfo("transcription webhook processed",
		zap.String("provider", in.Provider),
		zap.String("meeting_id", stored.MeetingID),
		zap.String("enrichment_status", stored.EnrichmentStatus),
		zap.String("sync_status", string(stored.SyncRun.Status)),
	)
	return &WebhookResult{Record: stored}, nil
}

// ListReceived returns the newest records, clamping limit to 1..200
func (s *Service) ListReceived(ctx context.Context, limit int) ([]*entities.TranscriptionRecord, error) {
	records, err := s.repo.ListRecent(ctx, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ucerrors.ErrStorageUnavailable, err)
	}
	return records, nil
}

// GetReceived returns one record by id
func (s *Service) GetReceived(ctx context.Context, id uuid.UUID) (*entities.TranscriptionRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ucerrors.ErrStorageUnavailable, err)
	}
	if record == nil {
		return nil, ucerrors.ErrRecordNotFound
	}
	return record, nil
}

// GetReceivedByMeetingID returns the latest record of a meeting
func (s *Service) GetReceivedByMeetingID(ctx context.Context, meetingID string) (*entities.TranscriptionRecord, error) {
	record, err := s.repo.GetLatestByMeetingID(ctx, strings.TrimSpace(meetingID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ucerrors.ErrStorageUnavailable, err)
	}
	if record == nil {
		return nil, ucerrors.ErrMeetingRecordNotFound
	}
	return record, nil
}

// Backfill re-runs enrichment and sync for a meeting and updates its records in place
func (s *Service) Backfill(ctx context.Context, meetingID string) (*BackfillResult, error) {
	meetingID = strings.TrimSpace(meetingID)
	current, err := s.GetReceivedByMeetingID(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if current.Provider != entities.ProviderFireflies {
		return nil, ucerrors.ErrBackfillUnsupported
	}
	if !s.enricher.Configured(entities.ProviderFireflies) {
		return nil, ucerrors.ErrBackfillNotAvailable
	}

	raw := map[string]interface{}(current.RawPayload)
	meetingURL := payload.RecordMeetingURLField.Extract(map[string]interface{}{
		"meeting_url": current.MeetingURL,
		"raw_payload": raw,
	})
	enriched := s.enricher.Enrich(ctx, current.Provider, enrichment.Meta{
		EventType:      current.EventType,
		MeetingID:      meetingID,
		TranscriptID:   current.TranscriptID,
		TranscriptText: current.TranscriptText,
		MeetingURL:     meetingURL,
	})
	people, emails := s.participants.Resolve(ctx, enriched.Transcript, raw, enriched.Sentences)
	run := s.syncer.Run(ctx, syncrun.Request{
		MeetingID:         meetingID,
		ScopedUserID:      current.ScopedUserID,
		TranscriptText:    enriched.TranscriptText,
		Sentences:         enriched.Sentences,
		ParticipantEmails: emails,
	})

	platform := current.MeetingPlatform
	if platform == "" {
		platform = payload.InferPlatformFromURL(enriched.MeetingURL)
	}
	update := &entities.TranscriptionRecord{
		TranscriptID:            enriched.TranscriptID,
		MeetingURL:              enriched.MeetingURL,
		MeetingPlatform:         platform,
		IsGoogleMeet:            payload.IsGoogleMeet(platform, enriched.MeetingURL),
		TranscriptTextAvailable: enriched.TranscriptText != "",
		TranscriptText:          enriched.TranscriptText,
		Sentences:               enriched.Sentences,
		Participants:            people,
		ParticipantEmails:       emails,
		EnrichmentStatus:        enriched.Status,
		EnrichmentError:         enriched.Error,
		SyncRun:                 run,
		ProviderTranscript:      datatypes.JSONMap(enriched.Transcript),
		UpdatedAt:               s.now(),
	}
	updated, err := s.repo.UpdateEnrichmentByMeetingID(ctx, meetingID, update)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ucerrors.ErrStorageUnavailable, err)
	}
	if updated == 0 {
		return nil, ucerrors.ErrMeetingRecordNotFound
	}

	refreshed, err := s.GetReceivedByMeetingID(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	s.appendAudit(ctx, entities.CreationSourceBackfill, refreshed, &refreshed.ID)
	return &BackfillResult{MeetingID: meetingID, UpdatedCount: updated, Record: refreshed}, nil
}

func (s *Service) appendAudit(ctx context.Context, source string, record *entities.TranscriptionRecord, recordID *uuid.UUID) {
	if s.audit == nil {
		return
	}
	records := audit.BuildRecords(audit.Meta{
		Source:            source,
		Provider:          record.Provider,
		MeetingID:         record.MeetingID,
		TranscriptID:      record.TranscriptID,
		ClientReferenceID: record.ClientReferenceID,
		RecordID:          recordID,
		ParticipantEmails: record.ParticipantEmails,
	}, record.SyncRun)
	s.audit.Append(ctx, records)
}

func (s *Service) archiveBody(ctx context.Context, record *entities.TranscriptionRecord, body []byte) {
	if s.archive == nil || s.objectName == nil || len(body) == 0 {
		return
	}
	name := s.objectName(record.Provider, record.IngestionKey, record.ReceivedAt)
	if err := s.archive.PutJSON(ctx, name, body); err != nil && s.logger != nil {
		s.logger.Warn("failed to archive webhook payload", zap.String("object", name), zap.Error(err))
	}
}

func (s *Service) logInfo(msg string, fields ...zap.Field) {
	if s.logger != nil {
		s.logger.Info(msg, fields...)
	}
}

func markDuplicate(record *entities.TranscriptionRecord) *entities.TranscriptionRecord {
	copied := *record
	copied.EnrichmentStatus = entities.EnrichmentDuplicate
	return &copied
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	}
	return limit
}
