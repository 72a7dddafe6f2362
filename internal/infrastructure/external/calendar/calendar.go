// Package calendar holds the event helpers shared by the calendar clients.
package calendar

import (
	"errors"
	"strings"
	"time"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/external/apiclient"
)

const defaultEventDuration = 60 * time.Minute

var (
	errInvalidDate     = errors.New("Action item due_date is not a valid date format.")
	errInvalidDateTime = errors.New("Action item scheduled datetime is not valid ISO format.")
	errNoSchedule      = errors.New("Action item does not include due_date or scheduled_start.")
)

var dateLayouts = []string{"2006-01-02", "2006/01/02", "02/01/2006", "02-01-2006"}

var localLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02 15:04"}

// ParseDate accepts ISO dates, ISO datetimes and a few explicit day formats
func ParseDate(raw string) (time.Time, error) {
	cleaned := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, nil
		}
	}
	if t, _, err := ParseDateTime(cleaned); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, errInvalidDate
}

// ParseDateTime parses an ISO datetime. zoned reports whether the value
// carried its own offset.
func ParseDateTime(raw string) (t time.Time, zoned bool, err error) {
	cleaned := strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, strings.Replace(cleaned, " ", "T", 1)); err == nil {
		return t, true, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, false, nil
		}
	}
	return time.Time{}, false, errInvalidDateTime
}

// Window is the time span of a timed event
type Window struct {
	Start time.Time
	End   time.Time
	// Zoned is set when the start carried an explicit offset
	Zoned bool
}

// TimedWindow resolves the span of a scheduled item. A missing or
// non-positive end becomes start plus one hour.
func TimedWindow(item entities.ActionItem) (Window, error) {
	start, zoned, err := ParseDateTime(item.ScheduledStart)
	if err != nil {
		return Window{}, err
	}
	end := start.Add(defaultEventDuration)
	if item.ScheduledEnd != "" {
		parsed, _, err := ParseDateTime(item.ScheduledEnd)
		if err != nil {
			return Window{}, err
		}
		if parsed.After(start) {
			end = parsed
		}
	}
	return Window{Start: start, End: end, Zoned: zoned}, nil
}

// RequireSchedule fails items that cannot be placed on a calendar
func RequireSchedule(item entities.ActionItem) error {
	if item.ScheduledStart == "" && item.DueDate == "" {
		return errNoSchedule
	}
	return nil
}

// Timezone returns the item timezone or fallback
func Timezone(item entities.ActionItem, fallback string) string {
	if tz := strings.TrimSpace(item.EventTimezone); tz != "" {
		return tz
	}
	return fallback
}

// NormalizeRRule strips an RRULE: prefix and upper-cases KEY=VALUE pairs.
// Rules without FREQ are dropped.
func NormalizeRRule(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if len(cleaned) >= 6 && strings.EqualFold(cleaned[:6], "RRULE:") {
		cleaned = cleaned[6:]
	}
	var parts []string
	hasFreq := false
	for _, part := range strings.Split(cleaned, ";") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		value = strings.ToUpper(strings.TrimSpace(value))
		if key == "" || value == "" {
			continue
		}
		if key == "FREQ" {
			hasFreq = true
		}
		parts = append(parts, key+"="+value)
	}
	if !hasFreq {
		return ""
	}
	return strings.Join(parts, ";")
}

// RRuleTokens splits a normalized rule into its parts
func RRuleTokens(rule string) map[string]string {
	tokens := map[string]string{}
	for _, part := range strings.Split(rule, ";") {
		if key, value, ok := strings.Cut(part, "="); ok {
			tokens[key] = value
		}
	}
	return tokens
}

// Attendees lower-cases and dedups addresses, keeping order
func Attendees(emails []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, raw := range emails {
		cleaned := strings.ToLower(strings.TrimSpace(raw))
		if cleaned == "" || !strings.Contains(cleaned, "@") || seen[cleaned] {
			continue
		}
		seen[cleaned] = true
		out = append(out, cleaned)
	}
	return out
}

// Description renders the event body
func Description(item entities.ActionItem, meetingID string) string {
	var lines []string
	if item.Details != "" {
		lines = append(lines, "Detalles: "+item.Details)
	}
	if item.SourceSentence != "" {
		lines = append(lines, "Evidencia de reunion: "+item.SourceSentence)
	}
	if who := firstNonEmpty(item.AssigneeName, item.AssigneeEmail); who != "" {
		lines = append(lines, "Asignado a: "+who)
	}
	if meetingID != "" {
		lines = append(lines, "Meeting ID: "+meetingID)
	}
	if len(lines) == 0 {
		return "Tarea detectada automaticamente desde transcripcion de reunion."
	}
	return apiclient.Truncate(strings.Join(lines, "\n"), 8000)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
