package outlook

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/external/apiclient"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/external/calendar"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/external/oauth"
	"github.com/johnquangdev/meeting-sync/internal/usecase/publish"
)

const (
	defaultBaseURL = "https://graph.microsoft.com/v1.0"
	localLayout    = "2006-01-02T15:04:05"

	// MissingTokenMessage is reported when neither a token nor a refresh flow exists
	MissingTokenMessage = "OUTLOOK_CALENDAR_API_TOKEN is missing. Reconnect Outlook Calendar using OAuth."
	invalidAudience     = "Outlook Calendar OAuth token is not valid for Microsoft Graph. " +
		"Reconnect Outlook Calendar and verify Graph Calendars.ReadWrite permission."
)

var untilDate = regexp.MustCompile(`^\d{8}`)

var graphWeekdays = map[string]string{
	"MO": "monday", "TU": "tuesday", "WE": "wednesday", "TH": "thursday",
	"FR": "friday", "SA": "saturday", "SU": "sunday",
}

// Client creates events through Microsoft Graph
type Client struct {
	api      *apiclient.Client
	tokens   *oauth.Source
	timezone string
}

// NewClient creates a client. baseURL may be empty.
func NewClient(baseURL, timezone string, timeout time.Duration, tokens *oauth.Source) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if strings.TrimSpace(timezone) == "" {
		timezone = "UTC"
	}
	return &Client{
		api:      apiclient.New("Outlook Calendar", baseURL, nil, timeout),
		tokens:   tokens,
		timezone: timezone,
	}
}

// NormalizeToken strips quotes, a pasted "OUTLOOK_CALENDAR_API_TOKEN=" prefix and a Bearer scheme
func NormalizeToken(raw string) string {
	token := strings.Trim(strings.TrimSpace(raw), `"'`)
	lowered := strings.ToLower(token)
	if strings.HasPrefix(lowered, "outlook_calendar_api_token") || strings.HasPrefix(lowered, "$env:outlook_calendar_api_token") {
		if i := strings.IndexAny(token, "=:"); i >= 0 {
			token = strings.TrimSpace(token[i+1:])
		}
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[len("bearer "):])
	}
	return strings.Trim(strings.TrimSpace(token), `"'`)
}

type dateTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type emailAttendee struct {
	EmailAddress struct {
		Address string `json:"address"`
	} `json:"emailAddress"`
	Type string `json:"type"`
}

type eventRequest struct {
	Subject string `json:"subject"`
	Body    struct {
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	} `json:"body"`
	Start           dateTimeZone           `json:"start"`
	End             dateTimeZone           `json:"end"`
	Recurrence      map[string]interface{} `json:"recurrence,omitempty"`
	Attendees       []emailAttendee        `json:"attendees,omitempty"`
	IsOnlineMeeting bool                   `json:"isOnlineMeeting,omitempty"`
}

type eventResponse struct {
	ID              string `json:"id"`
	WebLink         string `json:"webLink"`
	IsOnlineMeeting bool   `json:"isOnlineMeeting"`
	OnlineMeeting   *struct {
		JoinURL string `json:"joinUrl"`
	} `json:"onlineMeeting"`
	OnlineMeetingURL string `json:"onlineMeetingUrl"`
}

// CreateEvent creates a Graph event. Teams meetings are requested for
// microsoft_teams and auto items and the join URL is read back when the
// create response lacks it.
func (c *Client) CreateEvent(ctx context.Context, item entities.ActionItem, meetingID string, attendees []string) (publish.EventDetails, error) {
	tz := calendar.Timezone(item, c.timezone)
	start, end, err := c.window(item, tz)
	if err != nil {
		return publish.EventDetails{}, err
	}

	req := eventRequest{
		Subject: apiclient.Truncate(item.Title, 255),
		Start:   dateTimeZone{DateTime: start.Format(localLayout), TimeZone: tz},
		End:     dateTimeZone{DateTime: end.Format(localLayout), TimeZone: tz},
	}
	req.Body.ContentType = "text"
	req.Body.Content = calendar.Description(item, meetingID)
	req.Recurrence = recurrence(item.RecurrenceRule, start)
	for _, email := range calendar.Attendees(attendees) {
		a := emailAttendee{Type: "required"}
		a.EmailAddress.Address = email
		req.Attendees = append(req.Attendees, a)
	}
	req.IsOnlineMeeting = item.WantsTeamsMeeting()

	var resp eventResponse
	if err := c.do(ctx, http.MethodPost, "/me/events", req, &resp); err != nil {
		return publish.EventDetails{}, err
	}
	if strings.TrimSpace(resp.ID) == "" {
		return publish.EventDetails{}, errors.New("Outlook Calendar create event response missing id.")
	}

	join := joinURL(resp)
	if item.WantsTeamsMeeting() && join == "" {
		var fetched eventResponse
		if err := c.do(ctx, http.MethodGet, "/me/events/"+url.PathEscape(resp.ID), nil, &fetched); err == nil {
			join = joinURL(fetched)
		}
	}
	return publish.EventDetails{EventID: resp.ID, JoinLink: join, HTMLLink: resp.WebLink}, nil
}

// window returns wall-clock times in tz. Date-only items run 09:00 to 10:00.
func (c *Client) window(item entities.ActionItem, tz string) (time.Time, time.Time, error) {
	if err := calendar.RequireSchedule(item); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if item.ScheduledStart != "" {
		w, err := calendar.TimedWindow(item)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		if !w.Zoned {
			return w.Start, w.End, nil
		}
		return toWallClock(w.Start, tz), toWallClock(w.End, tz), nil
	}
	day, err := calendar.ParseDate(item.DueDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, time.UTC)
	return start, start.Add(time.Hour), nil
}

// toWallClock converts t into tz. Unknown zones keep the original wall clock.
func toWallClock(t time.Time, tz string) time.Time {
	var loc *time.Location
	switch strings.ToUpper(strings.TrimSpace(tz)) {
	case "UTC", "GMT":
		loc = time.UTC
	default:
		l, err := time.LoadLocation(strings.TrimSpace(tz))
		if err != nil {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
		}
		loc = l
	}
	in := t.In(loc)
	return time.Date(in.Year(), in.Month(), in.Day(), in.Hour(), in.Minute(), in.Second(), 0, time.UTC)
}

// recurrence translates an RRULE into a Graph patternedRecurrence
func recurrence(rawRule string, start time.Time) map[string]interface{} {
	rule := calendar.NormalizeRRule(rawRule)
	if rule == "" {
		return nil
	}
	tokens := calendar.RRuleTokens(rule)
	interval := positive(tokens["INTERVAL"])
	if interval == 0 {
		interval = 1
	}

	var pattern map[string]interface{}
	switch tokens["FREQ"] {
	case "DAILY":
		pattern = map[string]interface{}{"type": "daily", "interval": interval}
	case "WEEKLY":
		days := weekdays(tokens["BYDAY"])
		if len(days) == 0 {
			days = []string{strings.ToLower(start.Weekday().String())}
		}
		pattern = map[string]interface{}{
			"type":           "weekly",
			"interval":       interval,
			"daysOfWeek":     days,
			"firstDayOfWeek": "monday",
		}
	case "MONTHLY":
		day := positive(tokens["BYMONTHDAY"])
		if day == 0 {
			day = start.Day()
		}
		pattern = map[string]interface{}{"type": "absoluteMonthly", "interval": interval, "dayOfMonth": day}
	case "YEARLY":
		day := positive(tokens["BYMONTHDAY"])
		if day == 0 {
			day = start.Day()
		}
		month := positive(tokens["BYMONTH"])
		if month == 0 {
			month = int(start.Month())
		}
		pattern = map[string]interface{}{"type": "absoluteYearly", "interval": interval, "dayOfMonth": day, "month": month}
	default:
		return nil
	}

	startDate := start.Format("2006-01-02")
	rng := map[string]interface{}{"type": "noEnd", "startDate": startDate}
	if count := positive(tokens["COUNT"]); count > 0 {
		rng = map[string]interface{}{"type": "numbered", "startDate": startDate, "numberOfOccurrences": count}
	} else if until := tokens["UNTIL"]; untilDate.MatchString(until) {
		if end, err := time.Parse("20060102", until[:8]); err == nil {
			rng = map[string]interface{}{"type": "endDate", "startDate": startDate, "endDate": end.Format("2006-01-02")}
		}
	}
	return map[string]interface{}{"pattern": pattern, "range": rng}
}

func weekdays(byDay string) []string {
	var out []string
	seen := map[string]bool{}
	for _, raw := range strings.Split(byDay, ",") {
		token := strings.TrimSpace(raw)
		// BYDAY=1MO style prefixes are ignored, only the weekday counts
		if len(token) > 2 {
			token = token[len(token)-2:]
		}
		if day, ok := graphWeekdays[token]; ok && !seen[day] {
			seen[day] = true
			out = append(out, day)
		}
	}
	return out
}

func positive(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func joinURL(resp eventResponse) string {
	if resp.OnlineMeeting != nil {
		if u := strings.TrimSpace(resp.OnlineMeeting.JoinURL); u != "" {
			return u
		}
	}
	return strings.TrimSpace(resp.OnlineMeetingURL)
}

// do sends an authorized request, refreshing the token once on 401
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}
	err = c.api.DoJSON(ctx, method, path, bearer(token), body, out)
	if apiclient.StatusCode(err) != http.StatusUnauthorized {
		return err
	}
	if c.tokens.CanRefresh() {
		if token, refreshErr := c.tokens.Refresh(ctx); refreshErr == nil {
			err = c.api.DoJSON(ctx, method, path, bearer(token), body, out)
			if apiclient.StatusCode(err) != http.StatusUnauthorized {
				return err
			}
		}
	}
	if strings.Contains(err.Error(), "IDX14100") {
		return errors.New(invalidAudience)
	}
	return err
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": {"Bearer " + token}}
}
