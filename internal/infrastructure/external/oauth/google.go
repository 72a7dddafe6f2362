package oauth

import (
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"
)

// Settings keys that hold the calendar credentials of a user
var (
	GoogleKeys = Keys{
		Access:  "GOOGLE_CALENDAR_API_TOKEN",
		Refresh: "GOOGLE_CALENDAR_REFRESH_TOKEN",
	}
	OutlookKeys = Keys{
		Access:  "OUTLOOK_CALENDAR_API_TOKEN",
		Refresh: "OUTLOOK_CALENDAR_REFRESH_TOKEN",
	}
)

// NewGoogleConfig returns the refresh flow config for Google Calendar, or nil
// when the client credentials are missing
func NewGoogleConfig(clientID, clientSecret string) *oauth2.Config {
	if strings.TrimSpace(clientID) == "" || strings.TrimSpace(clientSecret) == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     strings.TrimSpace(clientID),
		ClientSecret: strings.TrimSpace(clientSecret),
		Scopes:       []string{"https://www.googleapis.com/auth/calendar.events"},
		Endpoint:     google.Endpoint,
	}
}

// NewOutlookConfig returns the refresh flow config for Microsoft Graph, or
// nil when the client credentials are missing
func NewOutlookConfig(clientID, clientSecret, tenantID string) *oauth2.Config {
	if strings.TrimSpace(clientID) == "" || strings.TrimSpace(clientSecret) == "" {
		return nil
	}
	tenant := strings.TrimSpace(tenantID)
	if tenant == "" {
		tenant = "common"
	}
	return &oauth2.Config{
		ClientID:     strings.TrimSpace(clientID),
		ClientSecret: strings.TrimSpace(clientSecret),
		Scopes: []string{
			"offline_access",
			"https://graph.microsoft.com/User.Read",
			"https://graph.microsoft.com/Calendars.ReadWrite",
		},
		Endpoint: microsoft.AzureADEndpoint(tenant),
	}
}
