package fireflies

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-sync/internal/infrastructure/external/apiclient"
	"github.com/johnquangdev/meeting-sync/pkg/config"
	"github.com/johnquangdev/meeting-sync/pkg/retry"
)

const (
	maxAttempts = 2
	retryStep   = 500 * time.Millisecond
)

// Queries are tried in order; each later one asks for fewer fields so that
// accounts without access to participant data still get sentences back.
var transcriptQueries = []string{
	`query TranscriptById($id: String!) {
  transcript(id: $id) {
    id title date meeting_link transcript_url organizer_email host_email
    participants fireflies_users
    user { email }
    meeting_attendees { email name displayName }
    sentences { index speaker_name speaker_id text start_time end_time }
  }
}`,
	`query TranscriptById($id: String!) {
  transcript(id: $id) {
    id title date meeting_link transcript_url organizer_email participants
    meeting_attendees { email }
    sentences { index speaker_name speaker_id text start_time end_time }
  }
}`,
	`query TranscriptById($id: String!) {
  transcript(id: $id) {
    id title date meeting_link transcript_url
    sentences { text }
  }
}`,
}

// GraphQLError is an error list returned in a 200 response
type GraphQLError struct {
	Errors json.RawMessage
}

func (e *GraphQLError) Error() string {
	return fmt.Sprintf("Fireflies API GraphQL error: %s", string(e.Errors))
}

// Client fetches transcripts from the Fireflies GraphQL API
type Client struct {
	api       *apiclient.Client
	retryStep time.Duration
	logger    *zap.Logger
}

// NewClient returns nil when no API key is configured
func NewClient(cfg config.ProviderAPIConfig, logger *zap.Logger) *Client {
	if cfg.APIKey == "" {
		return nil
	}
	api := apiclient.New("Fireflies", cfg.APIURL, nil, cfg.Timeout).
		WithHeader("Authorization", "Bearer "+cfg.APIKey).
		WithHeader("User-Agent", cfg.UserAgent)
	return &Client{api: api, retryStep: retryStep, logger: logger}
}

// WithRetryStep overrides the backoff step between attempts
func (c *Client) WithRetryStep(step time.Duration) *Client {
	c.retryStep = step
	return c
}

type graphQLResponse struct {
	Data *struct {
		Transcript map[string]interface{} `json:"transcript"`
	} `json:"data"`
	Errors json.RawMessage `json:"errors"`
}

// FetchTranscript returns the transcript of meetingID, or nil when Fireflies
// has none. Only GraphQL errors move on to the next, smaller query.
func (c *Client) FetchTranscript(ctx context.Context, meetingID string) (map[string]interface{}, error) {
	var lastGraphQL error
	for i, query := range transcriptQueries {
		transcript, err := c.query(ctx, query, meetingID)
		if err == nil {
			return transcript, nil
		}
		var gqlErr *GraphQLError
		if !errors.As(err, &gqlErr) {
			return nil, err
		}
		lastGraphQL = err
		if c.logger != nil {
			c.logger.Debug("fireflies query rejected, trying smaller query",
				zap.Int("query", i),
				zap.String("meeting_id", meetingID),
				zap.Error(err),
			)
		}
	}
	return nil, lastGraphQL
}

func (c *Client) query(ctx context.Context, query, meetingID string) (map[string]interface{}, error) {
	body := map[string]interface{}{
		"query":     query,
		"variables": map[string]string{"id": meetingID},
	}

	var resp graphQLResponse
	err := retry.Do(ctx, maxAttempts, c.retryStep, func(ctx context.Context) error {
		resp = graphQLResponse{}
		return c.api.DoJSON(ctx, http.MethodPost, "", nil, body, &resp)
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 && string(resp.Errors) != "null" && string(resp.Errors) != "[]" {
		return nil, &GraphQLError{Errors: resp.Errors}
	}
	if resp.Data == nil {
		return nil, errors.New("Fireflies API response missing data.")
	}
	return resp.Data.Transcript, nil
}
