// Package channels builds the per-user integration clients used by the publisher.
package channels

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/external/googlecalendar"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/external/monday"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/external/notion"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/external/oauth"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/external/outlook"
	"github.com/johnquangdev/meeting-sync/internal/usecase/publish"
	"github.com/johnquangdev/meeting-sync/pkg/config"
)

const (
	outlookTimeout      = 10 * time.Second
	googleMissingToken  = "GOOGLE_CALENDAR_API_TOKEN is missing. Reconnect Google Calendar using OAuth."
	googleProviderName  = "Google Calendar OAuth"
	outlookProviderName = "Outlook Calendar OAuth"
)

// Options override the API base URLs. Empty values use the public endpoints.
type Options struct {
	NotionBaseURL  string
	GoogleBaseURL  string
	OutlookBaseURL string
}

// Factory implements publish.ClientFactory
type Factory struct {
	opts   Options
	store  oauth.TokenStore
	logger *zap.Logger
}

var _ publish.ClientFactory = (*Factory)(nil)

// NewFactory creates a factory. Refreshed calendar tokens are written to store.
func NewFactory(opts Options, store oauth.TokenStore, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{opts: opts, store: store, logger: logger}
}

// ForUser returns the clients of every channel the settings configure
func (f *Factory) ForUser(userID string, s config.IntegrationSettings) publish.Clients {
	clients := publish.Clients{
		Tasks:  map[entities.Channel]publish.TaskClient{},
		Events: map[entities.Channel]publish.EventClient{},
	}

	if s.NotionConfigured() {
		clients.Tasks[entities.ChannelNotion] = notion.NewClient(s, f.opts.NotionBaseURL)
	}
	if s.MondayConfigured() {
		clients.Tasks[entities.ChannelMonday] = monday.NewClient(s)
	}

	if s.GoogleCalendarConfigured() {
		tokens := oauth.NewSource(oauth.SourceOptions{
			Name:           googleProviderName,
			Config:         oauth.NewGoogleConfig(s.GoogleCalendarClientID, s.GoogleCalendarClientSecret),
			AccessToken:    s.GoogleCalendarAPIToken,
			RefreshToken:   s.GoogleCalendarRefreshToken,
			MissingMessage: googleMissingToken,
			UserID:         userID,
			Keys:           oauth.GoogleKeys,
			Store:          f.store,
			Logger:         f.logger,
		})
		timeout := time.Duration(s.GoogleCalendarTimeoutSecs * float64(time.Second))
		clients.Events[entities.ChannelGoogleCalendar] = googlecalendar.NewClient(
			f.opts.GoogleBaseURL, s.GoogleCalendarID, timezone(s.GoogleCalendarEventTimezone, s), timeout, tokens)
	}

	if s.OutlookCalendarConfigured() {
		tokens := oauth.NewSource(oauth.SourceOptions{
			Name:           outlookProviderName,
			Config:         oauth.NewOutlookConfig(s.OutlookClientID, s.OutlookClientSecret, s.OutlookTenantID),
			AccessToken:    outlook.NormalizeToken(s.OutlookCalendarAPIToken),
			RefreshToken:   s.OutlookCalendarRefreshToken,
			MissingMessage: outlook.MissingTokenMessage,
			UserID:         userID,
			Keys:           oauth.OutlookKeys,
			Store:          f.store,
			Logger:         f.logger,
		})
		clients.Events[entities.ChannelOutlookCalendar] = outlook.NewClient(
			f.opts.OutlookBaseURL, timezone(s.OutlookEventTimezone, s), outlookTimeout, tokens)
	}
	return clients
}

// timezone prefers the calendar's own setting unless it is the UTC default
func timezone(calendarTZ string, s config.IntegrationSettings) string {
	tz := strings.TrimSpace(calendarTZ)
	if tz == "" || strings.EqualFold(tz, "UTC") {
		if def := strings.TrimSpace(s.DefaultEventTimezone); def != "" {
			return def
		}
	}
	if tz == "" {
		return "UTC"
	}
	return tz
}
