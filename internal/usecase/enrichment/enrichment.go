package enrichment

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	ucerrors "github.com/johnquangdev/meeting-sync/internal/usecase/errors"
	"github.com/johnquangdev/meeting-sync/internal/usecase/payload"
)

// Fetcher loads the full transcript of a meeting from a provider API.
// A nil map with a nil error means the provider has no transcript for it.
type Fetcher interface {
	FetchTranscript(ctx context.Context, meetingID string) (map[string]interface{}, error)
}

// Meta is what the webhook payload already told us
type Meta struct {
	EventType      string
	MeetingID      string
	TranscriptID   string
	TranscriptText string
	MeetingURL     string
}

// Result is the merged view after enrichment. Failures are reported in
// Status and Error and never returned.
type Result struct {
	Status         string
	Error          string
	TranscriptText string
	TranscriptID   string
	MeetingURL     string
	Transcript     map[string]interface{}
	Sentences      []entities.Sentence
}

// Enricher fetches transcripts for the providers that have an API client
type Enricher struct {
	fetchers   map[string]Fetcher
	missingKey map[string]string
	logger     *zap.Logger
}

// NewEnricher creates an enricher with no providers registered
func NewEnricher(logger *zap.Logger) *Enricher {
	return &Enricher{
		fetchers:   map[string]Fetcher{},
		missingKey: map[string]string{},
		logger:     logger,
	}
}

// Register enables enrichment for provider. A nil fetcher marks the provider
// as enrichable but unconfigured; missingKeyMsg is then reported.
func (e *Enricher) Register(provider string, fetcher Fetcher, missingKeyMsg string) {
	e.fetchers[provider] = fetcher
	e.missingKey[provider] = missingKeyMsg
}

// Supports reports whether provider is registered
func (e *Enricher) Supports(provider string) bool {
	_, ok := e.fetchers[provider]
	return ok
}

// Configured reports whether provider has a working fetcher
func (e *Enricher) Configured(provider string) bool {
	return e.fetchers[provider] != nil
}

// Enrich fills in transcript content for a delivery
func (e *Enricher) Enrich(ctx context.Context, provider string, meta Meta) Result {
	res := Result{
		Status:         entities.EnrichmentNotRequired,
		TranscriptText: meta.TranscriptText,
		TranscriptID:   meta.TranscriptID,
		MeetingURL:     meta.MeetingURL,
	}
	fetcher, registered := e.fetchers[provider]
	if !registered {
		return res
	}

	meetingID := strings.TrimSpace(meta.MeetingID)
	if meetingID == "" {
		res.Status = entities.EnrichmentFailedMissingMeetID
		res.Error = ucerrors.ErrMissingMeetingID.Error()
		return res
	}
	if fetcher == nil {
		res.Status = entities.EnrichmentSkippedMissingKey
		res.Error = e.missingKey[provider]
		return res
	}

	transcript, err := fetcher.FetchTranscript(ctx, meetingID)
	if err == nil && transcript == nil {
		err = ucerrors.ErrTranscriptNotFound
	}
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("transcript enrichment failed",
				zap.String("provider", provider),
				zap.String("meeting_id", meetingID),
				zap.Error(err),
			)
		}
		res.Status = entities.EnrichmentFailedFetch
		res.Error = err.Error()
		return res
	}

	res.Status = entities.EnrichmentCompleted
	res.Transcript = transcript
	res.Sentences = payload.ExtractSentences(transcript)
	if text := payload.TranscriptTextField.Extract(transcript); text != "" {
		res.TranscriptText = text
	}
	if id := payload.ToText(transcript["id"]); id != "" {
		res.TranscriptID = id
	}
	if link := payload.ToText(transcript["meeting_link"]); link != "" {
		res.MeetingURL = link
	}
	return res
}
