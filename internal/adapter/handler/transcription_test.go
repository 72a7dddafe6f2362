package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	ucerrors "github.com/johnquangdev/meeting-sync/internal/usecase/errors"
	"github.com/johnquangdev/meeting-sync/internal/usecase/transcription"
	"github.com/johnquangdev/meeting-sync/pkg/config"
	"github.com/johnquangdev/meeting-sync/pkg/jwt"
	"github.com/johnquangdev/meeting-sync/pkg/validator"
)

type fakeService struct {
	lastInput     transcription.WebhookInput
	lastLimit     int
	record        *entities.TranscriptionRecord
	getErr        error
	backfillErr   error
	backfillCalls []string
	deliveries    int
}

func (f *fakeService) ProcessWebhook(_ context.Context, in transcription.WebhookInput) (*transcription.WebhookResult, error) {
	f.lastInput = in
	record := &entities.TranscriptionRecord{
		ID:                      uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		Provider:                in.Provider,
		EventType:               "Transcription completed",
		MeetingID:               "m-1",
		ClientReferenceID:       "ref-9",
		TranscriptID:            "tr-1",
		MeetingPlatform:         "google_meet",
		IsGoogleMeet:            true,
		TranscriptTextAvailable: true,
		IngestionKey:            "key-1",
		EnrichmentStatus:        entities.EnrichmentCompleted,
		SyncRun:                 entities.SyncRun{Status: entities.StatusCompleted, CreatedCount: 3},
		ReceivedAt:              time.Date(2026, 2, 20, 15, 4, 5, 0, time.UTC),
	}
	if f.deliveries > 0 {
		record.EnrichmentStatus = entities.EnrichmentDuplicate
	}
	f.deliveries++
	return &transcription.WebhookResult{Record: record, Duplicate: f.deliveries > 1}, nil
}

func (f *fakeService) ListReceived(_ context.Context, limit int) ([]*entities.TranscriptionRecord, error) {
	f.lastLimit = limit
	return []*entities.TranscriptionRecord{{ID: uuid.New(), Provider: "fireflies"}}, nil
}

func (f *fakeService) GetReceived(context.Context, uuid.UUID) (*entities.TranscriptionRecord, error) {
	return f.record, f.getErr
}

func (f *fakeService) GetReceivedByMeetingID(context.Context, string) (*entities.TranscriptionRecord, error) {
	return f.record, f.getErr
}

func (f *fakeService) Backfill(_ context.Context, meetingID string) (*transcription.BackfillResult, error) {
	f.backfillCalls = append(f.backfillCalls, meetingID)
	if f.backfillErr != nil {
		return nil, f.backfillErr
	}
	return &transcription.BackfillResult{MeetingID: meetingID, UpdatedCount: 2, Record: f.record}, nil
}

type fakeAudit struct {
	meetingID string
	limit     int
}

func (f *fakeAudit) List(_ context.Context, meetingID string, limit int) ([]*entities.ActionItemCreation, error) {
	f.meetingID, f.limit = meetingID, limit
	return []*entities.ActionItemCreation{{ID: uuid.New(), Source: entities.CreationSourceWebhook, Channel: entities.ChannelNotion, ExternalID: "page-1"}}, nil
}

type testServer struct {
	e       *echo.Echo
	service *fakeService
	audit   *fakeAudit
	token   string
}

func newTestServer(t *testing.T) *testServer {
	manager := jwt.NewManager("secret", time.Hour, "")
	token, err := manager.GenerateAccessToken(uuid.New(), "ops@example.com", jwt.RoleAdmin)
	require.NoError(t, err)

	svc := &fakeService{record: &entities.TranscriptionRecord{ID: uuid.New(), MeetingID: "m-1", Provider: "fireflies"}}
	aud := &fakeAudit{}
	cfg := &config.Config{Webhooks: config.WebhookConfig{ReadAISecret: "shh"}}

	e := echo.New()
	e.Validator = validator.New()
	NewRouter(cfg, manager, NewTranscription(svc, aud, nil)).Setup(e)
	return &testServer{e: e, service: svc, audit: aud, token: token}
}

func (s *testServer) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) authed(method, path string) *httptest.ResponseRecorder {
	return s.do(method, path, "", map[string]string{"Authorization": "Bearer " + s.token})
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestReceiveWebhook_Accepted(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/transcriptions/webhooks/fireflies/lead-7", `{"meetingId":"m-1"}`, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "accepted", data["status"])
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", data["record_id"])
	assert.Equal(t, "completed", data["action_items_sync_status"])
	assert.Equal(t, "fireflies", s.service.lastInput.Provider)
	assert.Equal(t, "lead-7", s.service.lastInput.ScopedUserID)
	assert.Equal(t, "m-1", s.service.lastInput.Payload["meetingId"])
	assert.Equal(t, `{"meetingId":"m-1"}`, string(s.service.lastInput.RawBody))
}

func TestReceiveWebhook_DuplicateKeepsIdentifiers(t *testing.T) {
	s := newTestServer(t)

	var bodies []map[string]interface{}
	for i := 0; i < 2; i++ {
		rec := s.do(http.MethodPost, "/api/v1/transcriptions/webhooks/fireflies", `{"meetingId":"m-1"}`, nil)
		require.Equal(t, http.StatusAccepted, rec.Code)
		bodies = append(bodies, decode(t, rec)["data"].(map[string]interface{}))
	}

	for _, data := range bodies {
		assert.Equal(t, "m-1", data["meeting_id"])
		assert.Equal(t, "tr-1", data["transcript_id"])
		assert.Equal(t, "ref-9", data["client_reference_id"])
		assert.Equal(t, "Transcription completed", data["event_type"])
		assert.Equal(t, "google_meet", data["meeting_platform"])
		assert.Equal(t, true, data["is_google_meet"])
		assert.Equal(t, true, data["transcript_text_available"])
		assert.Equal(t, float64(3), data["action_items_created_count"])
		assert.Equal(t, "2026-02-20T15:04:05Z", data["received_at"])
		assert.Equal(t, true, data["stored"])
	}
	assert.Equal(t, false, bodies[0]["duplicate"])
	assert.Equal(t, "completed", bodies[0]["enrichment_status"])
	assert.Equal(t, true, bodies[1]["duplicate"])
	assert.Equal(t, "duplicate", bodies[1]["enrichment_status"])
}

func TestReceiveWebhook_InvalidPayload(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/transcriptions/webhooks/fireflies", `{not json`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, ucerrors.ErrPayloadInvalidJSON.Error(), decode(t, rec)["info"])

	rec = s.do(http.MethodPost, "/api/v1/transcriptions/webhooks/fireflies", `[1,2]`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, ucerrors.ErrPayloadNotObject.Error(), decode(t, rec)["info"])
}

func TestReceiveWebhook_Authentication(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/transcriptions/webhooks/read-ai", `{}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/transcriptions/webhooks/read-ai", `{}`, map[string]string{"x-webhook-secret": "shh"})
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "read_ai", s.service.lastInput.Provider)

	rec = s.do(http.MethodPost, "/api/v1/transcriptions/webhooks/zoom", `{}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecords_RequireJWT(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/api/v1/transcriptions/received", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListReceived(t *testing.T) {
	s := newTestServer(t)
	rec := s.authed(http.MethodGet, "/api/v1/transcriptions/received?limit=500")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 500, s.service.lastLimit)
	assert.Equal(t, float64(1), decode(t, rec)["data"].(map[string]interface{})["count"])
}

func TestGetReceived(t *testing.T) {
	s := newTestServer(t)

	rec := s.authed(http.MethodGet, "/api/v1/transcriptions/received/not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.authed(http.MethodGet, "/api/v1/transcriptions/received/"+uuid.NewString())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "m-1", decode(t, rec)["data"].(map[string]interface{})["meeting_id"])

	s.service.getErr = ucerrors.ErrRecordNotFound
	rec = s.authed(http.MethodGet, "/api/v1/transcriptions/received/"+uuid.NewString())
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Transcription record not found.", decode(t, rec)["message"])

	s.service.getErr = ucerrors.ErrMeetingRecordNotFound
	rec = s.authed(http.MethodGet, "/api/v1/transcriptions/received/by-meeting/m-9")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Transcription record not found for meeting_id.", decode(t, rec)["message"])
}

func TestBackfill(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, http.StatusOK},
		{"not fireflies", ucerrors.ErrBackfillUnsupported, http.StatusBadRequest},
		{"no client", ucerrors.ErrBackfillNotAvailable, http.StatusBadRequest},
		{"missing", ucerrors.ErrMeetingRecordNotFound, http.StatusNotFound},
		{"storage", fmt.Errorf("%w: connection refused", ucerrors.ErrStorageUnavailable), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.service.backfillErr = tt.err
			rec := s.authed(http.MethodPost, "/api/v1/transcriptions/backfill/m-1")
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, []string{"m-1"}, s.service.backfillCalls)
			if tt.err == nil {
				data := decode(t, rec)["data"].(map[string]interface{})
				assert.Equal(t, float64(2), data["updated_count"])
				assert.Equal(t, "m-1", data["meeting_id"])
			}
		})
	}
}

func TestListCreations(t *testing.T) {
	s := newTestServer(t)
	rec := s.authed(http.MethodGet, "/api/v1/action-item-creations?meeting_id=m-1&limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "m-1", s.audit.meetingID)
	assert.Equal(t, 5, s.audit.limit)

	items := decode(t, rec)["data"].(map[string]interface{})["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "page-1", items[0].(map[string]interface{})["external_id"])
}
