package googlecalendar

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/external/apiclient"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/external/calendar"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/external/oauth"
	"github.com/johnquangdev/meeting-sync/internal/usecase/publish"
)

const defaultBaseURL = "https://www.googleapis.com/calendar/v3"

// Client creates events on a Google calendar
type Client struct {
	api        *apiclient.Client
	tokens     *oauth.Source
	calendarID string
	timezone   string
}

// NewClient creates a client. baseURL may be empty.
func NewClient(baseURL, calendarID, timezone string, timeout time.Duration, tokens *oauth.Source) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if strings.TrimSpace(calendarID) == "" {
		calendarID = "primary"
	}
	if strings.TrimSpace(timezone) == "" {
		timezone = "UTC"
	}
	return &Client{
		api:        apiclient.New("Google Calendar", baseURL, nil, timeout),
		tokens:     tokens,
		calendarID: calendarID,
		timezone:   timezone,
	}
}

type eventTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type attendee struct {
	Email string `json:"email"`
}

type conferenceRequest struct {
	CreateRequest struct {
		RequestID             string `json:"requestId"`
		ConferenceSolutionKey struct {
			Type string `json:"type"`
		} `json:"conferenceSolutionKey"`
	} `json:"createRequest"`
}

type eventRequest struct {
	Summary        string             `json:"summary"`
	Description    string             `json:"description"`
	Start          eventTime          `json:"start"`
	End            eventTime          `json:"end"`
	Recurrence     []string           `json:"recurrence,omitempty"`
	Attendees      []attendee         `json:"attendees,omitempty"`
	ConferenceData *conferenceRequest `json:"conferenceData,omitempty"`
}

type eventResponse struct {
	ID             string `json:"id"`
	HTMLLink       string `json:"htmlLink"`
	HangoutLink    string `json:"hangoutLink"`
	ConferenceData *struct {
		EntryPoints []struct {
			URI string `json:"uri"`
		} `json:"entryPoints"`
	} `json:"conferenceData"`
}

// CreateEvent creates an all-day event for date-only items and a timed one
// otherwise. Meet conferences are requested for google_meet and auto items.
func (c *Client) CreateEvent(ctx context.Context, item entities.ActionItem, meetingID string, attendees []string) (publish.EventDetails, error) {
	start, end, err := c.window(item)
	if err != nil {
		return publish.EventDetails{}, err
	}

	req := eventRequest{
		Summary:     apiclient.Truncate(item.Title, 500),
		Description: calendar.Description(item, meetingID),
		Start:       start,
		End:         end,
	}
	if rule := calendar.NormalizeRRule(item.RecurrenceRule); rule != "" {
		req.Recurrence = []string{"RRULE:" + rule}
	}
	emails := calendar.Attendees(attendees)
	for _, e := range emails {
		req.Attendees = append(req.Attendees, attendee{Email: e})
	}

	query := url.Values{}
	if item.WantsMeetConference() {
		conf := &conferenceRequest{}
		conf.CreateRequest.RequestID = "sync-" + strings.ReplaceAll(uuid.NewString(), "-", "")
		conf.CreateRequest.ConferenceSolutionKey.Type = "hangoutsMeet"
		req.ConferenceData = conf
		query.Set("conferenceDataVersion", "1")
	}
	if len(emails) > 0 {
		query.Set("sendUpdates", "all")
	}
	path := "/calendars/" + url.PathEscape(c.calendarID) + "/events"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var resp eventResponse
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return publish.EventDetails{}, err
	}
	if strings.TrimSpace(resp.ID) == "" {
		return publish.EventDetails{}, errors.New("Google Calendar create event response missing id.")
	}
	return publish.EventDetails{EventID: resp.ID, JoinLink: meetLink(resp), HTMLLink: resp.HTMLLink}, nil
}

func (c *Client) window(item entities.ActionItem) (eventTime, eventTime, error) {
	if err := calendar.RequireSchedule(item); err != nil {
		return eventTime{}, eventTime{}, err
	}
	tz := calendar.Timezone(item, c.timezone)

	if item.ScheduledStart != "" {
		w, err := calendar.TimedWindow(item)
		if err != nil {
			return eventTime{}, eventTime{}, err
		}
		if w.Zoned {
			return eventTime{DateTime: w.Start.Format(time.RFC3339)}, eventTime{DateTime: w.End.Format(time.RFC3339)}, nil
		}
		const local = "2006-01-02T15:04:05"
		return eventTime{DateTime: w.Start.Format(local), TimeZone: tz}, eventTime{DateTime: w.End.Format(local), TimeZone: tz}, nil
	}

	day, err := calendar.ParseDate(item.DueDate)
	if err != nil {
		return eventTime{}, eventTime{}, err
	}
	return eventTime{Date: day.Format("2006-01-02"), TimeZone: tz},
		eventTime{Date: day.AddDate(0, 0, 1).Format("2006-01-02"), TimeZone: tz}, nil
}

func meetLink(resp eventResponse) string {
	if link := strings.TrimSpace(resp.HangoutLink); link != "" {
		return link
	}
	if resp.ConferenceData == nil {
		return ""
	}
	for _, ep := range resp.ConferenceData.EntryPoints {
		if uri := strings.TrimSpace(ep.URI); uri != "" {
			return uri
		}
	}
	return ""
}

// do sends an authorized request, refreshing the token once on 401
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}
	err = c.api.DoJSON(ctx, method, path, bearer(token), body, out)
	if apiclient.StatusCode(err) != http.StatusUnauthorized || !c.tokens.CanRefresh() {
		return err
	}
	token, refreshErr := c.tokens.Refresh(ctx)
	if refreshErr != nil {
		return err
	}
	return c.api.DoJSON(ctx, method, path, bearer(token), body, out)
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": {"Bearer " + token}}
}
