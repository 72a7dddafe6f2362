package presenter

import (
	dto "github.com/johnquangdev/meeting-sync/internal/adapter/dto/transcription"
	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/usecase/transcription"
)

const statusAccepted = "accepted"

// ToWebhookAccepted converts a webhook result to its 202 body
func ToWebhookAccepted(res *transcription.WebhookResult) *dto.WebhookAcceptedResponse {
	if res == nil || res.Record == nil {
		return nil
	}
	r := res.Record
	return &dto.WebhookAcceptedResponse{
		Status:                  statusAccepted,
		RecordID:                r.ID.String(),
		Provider:                r.Provider,
		EventType:               r.EventType,
		MeetingID:               r.MeetingID,
		ClientReferenceID:       r.ClientReferenceID,
		TranscriptID:            r.TranscriptID,
		MeetingPlatform:         r.MeetingPlatform,
		IsGoogleMeet:            r.IsGoogleMeet,
		TranscriptTextAvailable: r.TranscriptTextAvailable,
		IngestionKey:            r.IngestionKey,
		Duplicate:               res.Duplicate,
		Stored:                  !res.Unsaved,
		EnrichmentStatus:        r.EnrichmentStatus,
		EnrichmentError:         r.EnrichmentError,
		SyncStatus:              r.SyncRun.Status,
		CreatedCount:            r.SyncRun.CreatedCount,
		ReceivedAt:              r.ReceivedAt,
	}
}

// ToRecordResponse converts a TranscriptionRecord entity to RecordResponse DTO
func ToRecordResponse(r *entities.TranscriptionRecord) *dto.RecordResponse {
	if r == nil {
		return nil
	}
	return &dto.RecordResponse{
		ID:                      r.ID.String(),
		Provider:                r.Provider,
		EventType:               r.EventType,
		MeetingID:               r.MeetingID,
		ClientReferenceID:       r.ClientReferenceID,
		TranscriptID:            r.TranscriptID,
		ScopedUserID:            r.ScopedUserID,
		MeetingPlatform:         r.MeetingPlatform,
		MeetingURL:              r.MeetingURL,
		IsGoogleMeet:            r.IsGoogleMeet,
		TranscriptTextAvailable: r.TranscriptTextAvailable,
		TranscriptText:          r.TranscriptText,
		Sentences:               r.Sentences,
		Participants:            r.Participants,
		ParticipantEmails:       r.ParticipantEmails,
		EnrichmentStatus:        r.EnrichmentStatus,
		EnrichmentError:         r.EnrichmentError,
		ActionItemsSync:         r.SyncRun,
		RawPayload:              map[string]interface{}(r.RawPayload),
		ReceivedAt:              r.ReceivedAt,
		UpdatedAt:               r.UpdatedAt,
	}
}

// ToListRecordsResponse converts records to a list response
func ToListRecordsResponse(records []*entities.TranscriptionRecord) *dto.ListRecordsResponse {
	items := make([]*dto.RecordResponse, 0, len(records))
	for _, r := range records {
		items = append(items, ToRecordResponse(r))
	}
	return &dto.ListRecordsResponse{Items: items, Count: len(items)}
}

// ToBackfillResponse converts a backfill result
func ToBackfillResponse(res *transcription.BackfillResult) *dto.BackfillResponse {
	if res == nil {
		return nil
	}
	return &dto.BackfillResponse{
		MeetingID:    res.MeetingID,
		UpdatedCount: res.UpdatedCount,
		Record:       ToRecordResponse(res.Record),
	}
}

// ToCreationResponse converts an audit row
func ToCreationResponse(c *entities.ActionItemCreation) *dto.CreationResponse {
	if c == nil {
		return nil
	}
	resp := &dto.CreationResponse{
		ID:                    c.ID.String(),
		Source:                c.Source,
		Provider:              c.Provider,
		MeetingID:             c.MeetingID,
		UserID:                c.UserID,
		Channel:               string(c.Channel),
		ActionItemIndex:       c.ActionItemIndex,
		Title:                 c.Title,
		AssigneeEmail:         c.AssigneeEmail,
		DueDate:               c.DueDate,
		ScheduledStart:        c.ScheduledStart,
		OnlineMeetingPlatform: c.OnlineMeetingPlatform,
		ExternalID:            c.ExternalID,
		Link:                  c.Link,
		SyncedAt:              c.SyncedAt,
	}
	if c.TranscriptionRecordID != nil {
		resp.TranscriptionRecordID = c.TranscriptionRecordID.String()
	}
	return resp
}

// ToListCreationsResponse converts audit rows to a list response
func ToListCreationsResponse(rows []*entities.ActionItemCreation) *dto.ListCreationsResponse {
	items := make([]*dto.CreationResponse, 0, len(rows))
	for _, c := range rows {
		items = append(items, ToCreationResponse(c))
	}
	return &dto.ListCreationsResponse{Items: items, Count: len(items)}
}
