package errors

import "errors"

// Webhook errors
var (
	ErrPayloadNotObject   = errors.New("webhook payload must be a JSON object")
	ErrPayloadInvalidJSON = errors.New("webhook payload is not valid JSON")
)

// Record errors
var (
	ErrRecordNotFound       = errors.New("transcription record not found")
	ErrBackfillUnsupported  = errors.New("backfill is only supported for fireflies records")
	ErrBackfillNotAvailable = errors.New("fireflies client is not configured")
)

// Extraction errors
var (
	ErrMissingModelKey   = errors.New("GEMINI_API_KEY is not configured")
	ErrInvalidModelReply = errors.New("model response is not a valid action item envelope")
)

// Enrichment errors
var (
	ErrMissingMeetingID   = errors.New("Webhook payload missing meetingId.")
	ErrTranscriptNotFound = errors.New("Fireflies transcript not found for provided meeting_id.")
)

// Storage errors
var (
	ErrMeetingRecordNotFound = errors.New("transcription record not found for meeting_id")
	ErrStorageUnavailable    = errors.New("unable to query transcription storage")
)
