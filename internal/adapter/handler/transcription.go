package handler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-sync/errors"
	dto "github.com/johnquangdev/meeting-sync/internal/adapter/dto/transcription"
	"github.com/johnquangdev/meeting-sync/internal/adapter/presenter"
	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	ucerrors "github.com/johnquangdev/meeting-sync/internal/usecase/errors"
	"github.com/johnquangdev/meeting-sync/internal/usecase/transcription"
	"github.com/johnquangdev/meeting-sync/pkg/middleware"
)

// TranscriptionService is the usecase behind the transcription routes
type TranscriptionService interface {
	ProcessWebhook(ctx context.Context, in transcription.WebhookInput) (*transcription.WebhookResult, error)
	ListReceived(ctx context.Context, limit int) ([]*entities.TranscriptionRecord, error)
	GetReceived(ctx context.Context, id uuid.UUID) (*entities.TranscriptionRecord, error)
	GetReceivedByMeetingID(ctx context.Context, meetingID string) (*entities.TranscriptionRecord, error)
	Backfill(ctx context.Context, meetingID string) (*transcription.BackfillResult, error)
}

// CreationLister reads the action item creation audit log
type CreationLister interface {
	List(ctx context.Context, meetingID string, limit int) ([]*entities.ActionItemCreation, error)
}

// Transcription handles webhook ingestion and the records API
type Transcription struct {
	service TranscriptionService
	audit   CreationLister
	logger  *zap.Logger
}

// NewTranscription creates a new transcription handler
func NewTranscription(service TranscriptionService, audit CreationLister, logger *zap.Logger) *Transcription {
	return &Transcription{service: service, audit: audit, logger: logger}
}

// ReceiveWebhook ingests one provider delivery. Authentication already ran in
// RequireWebhookAuth, which also buffered the raw body.
// @Summary      Receive a transcription webhook
// @Description  Stores a Fireflies or Read AI delivery once per ingestion key and syncs its action items
// @Tags         Transcriptions
// @Accept       json
// @Produce      json
// @Param        provider          path      string  true   "Provider (fireflies, read_ai or read-ai)"
// @Param        user_id           path      string  false  "Scoped lead user id"
// @Param        x-webhook-secret  header    string  false  "Shared webhook secret"
// @Param        x-hub-signature   header    string  false  "Fireflies HMAC-SHA256 of the body"
// @Param        request           body      object  true   "Provider payload"
// @Success      202               {object}  transcription.WebhookAcceptedResponse  "Delivery accepted"
// @Failure      401               {object}  map[string]interface{}  "Webhook authentication failed"
// @Failure      404               {object}  map[string]interface{}  "Unsupported provider"
// @Failure      422               {object}  map[string]interface{}  "Body is not a JSON object"
// @Router       /transcriptions/webhooks/{provider}/{user_id} [post]
func (h *Transcription) ReceiveWebhook(c echo.Context) error {
	raw, _ := c.Get(middleware.RawBodyKey).([]byte)
	body, err := decodeObject(raw)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	res, err := h.service.ProcessWebhook(c.Request().Context(), transcription.WebhookInput{
		Provider:     middleware.NormalizeProvider(c.Param("provider")),
		ScopedUserID: c.Param("user_id"),
		Payload:      body,
		RawBody:      raw,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleAccepted(h.logger, c, presenter.ToWebhookAccepted(res))
}

// ListReceived returns the newest stored records
// @Summary      List received transcriptions
// @Tags         Transcriptions
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Max records, 1..200 (default: 50)"
// @Success      200    {object}  transcription.ListRecordsResponse
// @Failure      401    {object}  map[string]interface{}  "User not authenticated"
// @Failure      503    {object}  map[string]interface{}  "Storage unavailable"
// @Router       /transcriptions/received [get]
func (h *Transcription) ListReceived(c echo.Context) error {
	var req dto.ListReceivedRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("Invalid query parameters"))
	}

	records, err := h.service.ListReceived(c.Request().Context(), req.Limit)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToListRecordsResponse(records))
}

// GetReceived returns one stored record
// @Summary      Get a received transcription
// @Tags         Transcriptions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Record ID (UUID)"
// @Success      200  {object}  transcription.RecordResponse
// @Failure      400  {object}  map[string]interface{}  "Invalid record ID"
// @Failure      404  {object}  map[string]interface{}  "Record not found"
// @Router       /transcriptions/received/{id} [get]
func (h *Transcription) GetReceived(c echo.Context) error {
	var req dto.RecordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("Invalid record id"))
	}

	record, err := h.service.GetReceived(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToRecordResponse(record))
}

// GetReceivedByMeeting returns the latest record of a meeting
// @Summary      Get the latest transcription of a meeting
// @Tags         Transcriptions
// @Produce      json
// @Security     BearerAuth
// @Param        meeting_id  path      string  true  "Provider meeting ID"
// @Success      200         {object}  transcription.RecordResponse
// @Failure      404         {object}  map[string]interface{}  "No record for meeting"
// @Router       /transcriptions/received/by-meeting/{meeting_id} [get]
func (h *Transcription) GetReceivedByMeeting(c echo.Context) error {
	var req dto.MeetingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	record, err := h.service.GetReceivedByMeetingID(c.Request().Context(), req.MeetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToRecordResponse(record))
}

// Backfill re-runs enrichment and sync for a Fireflies meeting
// @Summary      Backfill a Fireflies meeting
// @Description  Refetches the transcript, re-runs the action item sync and updates every record of the meeting
// @Tags         Transcriptions
// @Produce      json
// @Security     BearerAuth
// @Param        meeting_id  path      string  true  "Fireflies meeting ID"
// @Success      200         {object}  transcription.BackfillResponse
// @Failure      400         {object}  map[string]interface{}  "Backfill not supported"
// @Failure      404         {object}  map[string]interface{}  "No record for meeting"
// @Router       /transcriptions/backfill/{meeting_id} [post]
func (h *Transcription) Backfill(c echo.Context) error {
	var req dto.MeetingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	res, err := h.service.Backfill(c.Request().Context(), req.MeetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToBackfillResponse(res))
}

// ListCreations returns the action item creation audit log
// @Summary      List action item creations
// @Tags         ActionItems
// @Produce      json
// @Security     BearerAuth
// @Param        meeting_id  query     string  false  "Filter by meeting ID"
// @Param        limit       query     int     false  "Max rows, 1..200 (default: 50)"
// @Success      200         {object}  transcription.ListCreationsResponse
// @Failure      401         {object}  map[string]interface{}  "User not authenticated"
// @Router       /action-item-creations [get]
func (h *Transcription) ListCreations(c echo.Context) error {
	var req dto.ListCreationsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	rows, err := h.audit.List(c.Request().Context(), req.MeetingID, req.Limit)
	if err != nil {
		return HandleError(h.logger, c, fmt.Errorf("%w: %v", ucerrors.ErrStorageUnavailable, err))
	}
	return HandleSuccess(h.logger, c, presenter.ToListCreationsResponse(rows))
}

// decodeObject parses a webhook body, which must be a JSON object
func decodeObject(raw []byte) (map[string]interface{}, error) {
	var parsed interface{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, ucerrors.ErrPayloadInvalidJSON
	}
	body, ok := parsed.(map[string]interface{})
	if !ok {
		return nil, ucerrors.ErrPayloadNotObject
	}
	return body, nil
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.ErrInvalidArgument("Invalid request parameters")
	}
	if err := c.Validate(req); err != nil {
		return errors.ErrInvalidArgument(fmt.Sprintf("Validation failed: %v", err))
	}
	return nil
}
