package readai

import (
	"context"
	"net/http"
	"net/url"

	"github.com/johnquangdev/meeting-sync/internal/infrastructure/external/apiclient"
	"github.com/johnquangdev/meeting-sync/pkg/config"
)

// Client reads meeting details from the Read AI REST API
type Client struct {
	api *apiclient.Client
}

// NewClient returns nil when no API key is configured
func NewClient(cfg config.ProviderAPIConfig) *Client {
	if cfg.APIKey == "" {
		return nil
	}
	api := apiclient.New("Read AI", cfg.APIURL, nil, cfg.Timeout).
		WithHeader("Authorization", "Bearer "+cfg.APIKey).
		WithHeader("User-Agent", cfg.UserAgent)
	return &Client{api: api}
}

// FetchTranscript returns the meeting details. An unknown meeting yields an
// empty, non-nil map.
func (c *Client) FetchTranscript(ctx context.Context, meetingID string) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	err := c.api.DoJSON(ctx, http.MethodGet, "/meetings/"+url.PathEscape(meetingID), nil, nil, &out)
	if apiclient.StatusCode(err) == http.StatusNotFound {
		return map[string]interface{}{}, nil
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}
